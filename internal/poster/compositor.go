package poster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/fogleman/gg"

	"lumafin/internal/models"
)

// jpegQuality matches the export quality of the studio preview (≈0.95).
const jpegQuality = 95

// baseWidth is the reference canvas width all layout sizes are tuned
// against; every measurement scales by actual-width/baseWidth so the
// layout is ratio-independent.
const baseWidth = 1080.0

// TextBundle is the poster's text content.
type TextBundle struct {
	Headline string
	Subhead  string
	Body     string
	Footer   string
}

// RenderInput identifies one deterministic render: the same input always
// produces byte-identical output.
type RenderInput struct {
	TemplateID string
	Text       TextBundle
	Ratio      models.AspectRatio
	Brand      models.BrandConfig
}

// Compositor renders posters. It is stateless apart from the parsed
// typefaces and safe for concurrent use.
type Compositor struct {
	fonts *fontSet
}

// New creates a compositor, parsing the embedded typefaces. Failing to
// build the drawing surface resources fails fast here rather than at
// render time.
func New() (*Compositor, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Compositor{fonts: fonts}, nil
}

// Render composes the poster and returns it as a JPEG data URL suitable
// for direct display or upload.
func (c *Compositor) Render(in RenderInput) (string, error) {
	img, err := c.RenderImage(in)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("poster: encode: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// RenderImage runs the layout algorithm and returns the raster.
func (c *Compositor) RenderImage(in RenderInput) (image.Image, error) {
	tpl, ok := Catalog[in.TemplateID]
	if !ok {
		return nil, fmt.Errorf("poster: unknown template %q", in.TemplateID)
	}

	w, h, ok := Size(in.Ratio)
	if !ok {
		return nil, fmt.Errorf("poster: unsupported ratio %q", in.Ratio)
	}

	dc := gg.NewContext(w, h)
	fw, fh := float64(w), float64(h)
	s := fw / baseWidth

	ink := c.paintBackground(dc, tpl, fw, fh, s, in.Brand)

	margin := 64 * s
	c.drawBrandMark(dc, margin, s, in.Brand, ink)
	c.drawBadge(dc, tpl, fw, margin, s, in.Brand)

	// Text column: subhead, headline, divider, body, each advancing a
	// running baseline cursor by a type-specific line height.
	maxWidth := fw - 2*margin
	cursor := fh * 0.34
	limit := fh - 200*s // keep clear of the footer zone

	cursor = c.drawWrapped(dc, in.Text.Subhead, false, 30*s, 1.4, margin, cursor, maxWidth, limit, ink.muted)
	cursor += 18 * s
	cursor = c.drawWrapped(dc, in.Text.Headline, true, 64*s, 1.15, margin, cursor, maxWidth, limit, ink.primary)

	// Accent divider bar.
	cursor += 26 * s
	dc.SetColor(mustHex(in.Brand.AccentColor, color.RGBA{0, 212, 255, 255}))
	dc.DrawRectangle(margin, cursor, 120*s, 8*s)
	dc.Fill()
	cursor += 8*s + 40*s

	c.drawWrapped(dc, in.Text.Body, false, 30*s, 1.5, margin, cursor, maxWidth, limit, ink.muted)

	// Centered footer (brand slogan) unless watermarking is disabled.
	if in.Brand.Watermark && in.Text.Footer != "" {
		dc.SetFontFace(c.fonts.face(false, 26*s))
		dc.SetColor(ink.muted)
		dc.DrawStringAnchored(in.Text.Footer, fw/2, fh-70*s, 0.5, 0.5)
	}

	return dc.Image(), nil
}

// inkSet is the text palette derived from the background treatment.
type inkSet struct {
	primary color.Color
	muted   color.Color
}

// paintBackground clears the canvas with the template's backdrop and
// returns the matching text palette.
func (c *Compositor) paintBackground(dc *gg.Context, tpl Template, fw, fh, s float64, brand models.BrandConfig) inkSet {
	darkInk := inkSet{
		primary: color.White,
		muted:   color.RGBA{255, 255, 255, 185},
	}
	lightInk := inkSet{
		primary: mustHex(brand.SecondaryColor, color.RGBA{10, 37, 64, 255}),
		muted:   color.RGBA{91, 107, 123, 255},
	}

	switch tpl.Background {
	case bgGrid:
		// Dark navy field with a subtle square grid.
		dc.SetColor(darken(mustHex(brand.SecondaryColor, color.RGBA{10, 37, 64, 255})))
		dc.Clear()
		dc.SetColor(color.RGBA{255, 255, 255, 14})
		dc.SetLineWidth(1 * s)
		step := 72 * s
		for x := step; x < fw; x += step {
			dc.DrawLine(x, 0, x, fh)
		}
		for y := step; y < fh; y += step {
			dc.DrawLine(0, y, fw, y)
		}
		dc.Stroke()
		return darkInk

	case bgBand:
		// White field with a solid alert band across the top.
		dc.SetColor(color.White)
		dc.Clear()
		dc.SetColor(color.RGBA{226, 89, 80, 255})
		dc.DrawRectangle(0, 0, fw, fh*0.14)
		dc.Fill()
		return lightInk

	case bgRadial:
		grad := gg.NewRadialGradient(fw*0.72, fh*0.28, 0, fw*0.72, fh*0.28, fw)
		grad.AddColorStop(0, mustHex(brand.PrimaryColor, color.RGBA{99, 91, 255, 255}))
		grad.AddColorStop(1, darken(mustHex(brand.SecondaryColor, color.RGBA{10, 37, 64, 255})))
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, fw, fh)
		dc.Fill()
		return darkInk

	default:
		dc.SetColor(color.White)
		dc.Clear()
		return lightInk
	}
}

// drawBrandMark draws the rounded-square mark with a diagonal gradient
// fill and the company name beside it.
func (c *Compositor) drawBrandMark(dc *gg.Context, margin, s float64, brand models.BrandConfig, ink inkSet) {
	size := 96 * s

	grad := gg.NewLinearGradient(margin, margin, margin+size, margin+size)
	grad.AddColorStop(0, mustHex(brand.PrimaryColor, color.RGBA{99, 91, 255, 255}))
	grad.AddColorStop(1, mustHex(brand.AccentColor, color.RGBA{0, 212, 255, 255}))
	dc.SetFillStyle(grad)
	dc.DrawRoundedRectangle(margin, margin, size, size, 24*s)
	dc.Fill()

	// Company initial inside the mark.
	initial := "L"
	if brand.CompanyName != "" {
		initial = string([]rune(brand.CompanyName)[0])
	}
	dc.SetFontFace(c.fonts.face(true, 56*s))
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initial, margin+size/2, margin+size/2, 0.5, 0.5)

	dc.SetFontFace(c.fonts.face(true, 40*s))
	dc.SetColor(ink.primary)
	dc.DrawStringAnchored(brand.CompanyName, margin+size+28*s, margin+size/2, 0, 0.5)
}

// drawBadge draws the pill-shaped category badge right-aligned at the
// margin. Badge color keys off the template family.
func (c *Compositor) drawBadge(dc *gg.Context, tpl Template, fw, margin, s float64, brand models.BrandConfig) {
	badgeColor := mustHex(brand.PrimaryColor, color.RGBA{99, 91, 255, 255})
	if tpl.Family == familySystem {
		badgeColor = color.RGBA{226, 89, 80, 255}
	}

	dc.SetFontFace(c.fonts.face(true, 26*s))
	tw, _ := dc.MeasureString(tpl.BadgeLabel)

	height := 52 * s
	width := tw + 56*s
	x := fw - margin - width
	y := margin + (96*s-height)/2

	dc.SetColor(badgeColor)
	dc.DrawRoundedRectangle(x, y, width, height, height/2)
	dc.Fill()

	dc.SetColor(color.White)
	dc.DrawStringAnchored(tpl.BadgeLabel, x+width/2, y+height/2, 0.5, 0.5)
}

// drawWrapped greedily wraps text at maxWidth and draws each line,
// returning the advanced cursor. Lines past the vertical limit are
// dropped rather than overflowing the footer zone.
func (c *Compositor) drawWrapped(dc *gg.Context, text string, bold bool, size, leading, x, cursor, maxWidth, limit float64, ink color.Color) float64 {
	if text == "" {
		return cursor
	}

	face := c.fonts.face(bold, size)
	dc.SetFontFace(face)
	dc.SetColor(ink)

	measure := func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	}

	lineHeight := size * leading
	for _, line := range Wrap(text, maxWidth, measure) {
		if cursor+lineHeight > limit {
			break
		}
		cursor += lineHeight
		dc.DrawString(line, x, cursor)
	}
	return cursor
}

// mustHex parses a #RRGGBB color, falling back when the value is absent
// or malformed so a bad brand config can never fail a render.
func mustHex(hex string, fallback color.RGBA) color.Color {
	if len(hex) != 7 || hex[0] != '#' {
		return fallback
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return color.RGBA{r, g, b, 255}
}

// darken shifts a color toward black for background fields.
func darken(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.RGBA{
		R: uint8((r >> 8) / 2),
		G: uint8((g >> 8) / 2),
		B: uint8((b >> 8) / 2),
		A: 255,
	}
}
