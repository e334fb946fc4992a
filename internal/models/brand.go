package models

// BrandConfig is the process-wide styling and identity configuration
// consulted by the poster compositor on every render. It is read-only
// during a render; the settings page replaces it between UI events, so
// changes take effect on the next render.
type BrandConfig struct {
	CompanyName    string   `json:"company_name"`
	Slogan         string   `json:"slogan"`
	PrimaryColor   string   `json:"primary_color"`   // hex, e.g. "#635BFF"
	SecondaryColor string   `json:"secondary_color"` // hex
	AccentColor    string   `json:"accent_color"`    // hex
	FontFamily     string   `json:"font_family"`
	Watermark      bool     `json:"watermark"` // draw the slogan footer
	Tone           string   `json:"tone"`      // editorial voice for generation
	VisualStyle    string   `json:"visual_style"`
	Keywords       []string `json:"keywords"`
}

// DefaultBrand returns the built-in Lumafin identity used until the
// settings page overrides it.
func DefaultBrand() BrandConfig {
	return BrandConfig{
		CompanyName:    "Lumafin",
		Slogan:         "Clarity in every transaction",
		PrimaryColor:   "#635BFF",
		SecondaryColor: "#0A2540",
		AccentColor:    "#00D4FF",
		FontFamily:     "Inter",
		Watermark:      true,
		Tone:           "confident, precise, plain-spoken",
		VisualStyle:    "clean fintech illustration, deep navy and electric violet, soft gradients",
		Keywords:       []string{"payments", "treasury", "settlement"},
	}
}
