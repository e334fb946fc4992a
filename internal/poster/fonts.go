package poster

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontSet holds the parsed typefaces the compositor draws with. The Go
// fonts ship in the binary, so renders are identical on every host; the
// brand's configured font family only affects the web UI.
type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
}

// loadFonts parses the embedded typefaces once at compositor construction.
func loadFonts() (*fontSet, error) {
	reg, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("poster: parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("poster: parse bold font: %w", err)
	}
	return &fontSet{regular: reg, bold: bold}, nil
}

// face creates a font.Face at the given pixel size.
func (f *fontSet) face(bold bool, size float64) font.Face {
	src := f.regular
	if bold {
		src = f.bold
	}
	return truetype.NewFace(src, &truetype.Options{Size: size})
}
