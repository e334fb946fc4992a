// Package poster renders promotional still images for articles. Given a
// template id, a text bundle, an aspect ratio, and the brand config, the
// compositor deterministically lays out badge, brand mark, headline,
// subhead, body, and footer on a 2D canvas and exports a JPEG data URL.
package poster

import "lumafin/internal/models"

// background selects the template-specific backdrop treatment.
type background int

const (
	bgPlain  background = iota // solid white
	bgGrid                     // dark navy with a subtle grid
	bgBand                     // white with an alert-red top band
	bgRadial                   // radial brand gradient
)

// family groups templates by the stream they serve; it keys badge colors.
type family string

const (
	familyMarket family = "market"
	familySystem family = "system"
)

// Template is a named visual layout variant referenced by id from a draft.
type Template struct {
	ID         string
	Name       string
	Family     family
	Background background
	BadgeLabel string
}

// Catalog is the fixed template lookup table, id → layout spec.
var Catalog = map[string]Template{
	"mkt_trend": {
		ID: "mkt_trend", Name: "Market Trend", Family: familyMarket,
		Background: bgGrid, BadgeLabel: "MARKET PULSE",
	},
	"mkt_break": {
		ID: "mkt_break", Name: "Breaking", Family: familyMarket,
		Background: bgBand, BadgeLabel: "BREAKING",
	},
	"mkt_partner": {
		ID: "mkt_partner", Name: "Partnership", Family: familyMarket,
		Background: bgRadial, BadgeLabel: "PARTNERSHIP",
	},
	"sys_update": {
		ID: "sys_update", Name: "Platform Update", Family: familySystem,
		Background: bgPlain, BadgeLabel: "UPDATE",
	},
	"sys_maint": {
		ID: "sys_maint", Name: "Maintenance", Family: familySystem,
		Background: bgPlain, BadgeLabel: "MAINTENANCE",
	},
}

// Order fixes template listing order for the studio UI.
var Order = []string{"mkt_trend", "mkt_break", "mkt_partner", "sys_update", "sys_maint"}

// DefaultForStream returns the template auto-assigned when a draft enters
// the assets step with no template and no image set.
func DefaultForStream(stream models.Stream) string {
	if stream == models.StreamNotice {
		return "sys_update"
	}
	return "mkt_trend"
}

// List returns the catalog in display order.
func List() []Template {
	out := make([]Template, 0, len(Order))
	for _, id := range Order {
		out = append(out, Catalog[id])
	}
	return out
}

// dimensions maps each supported aspect ratio to output pixels.
var dimensions = map[models.AspectRatio][2]int{
	models.RatioSquare:    {1080, 1080},
	models.RatioLandscape: {1920, 1080},
	models.RatioPortrait:  {1080, 1920},
}

// Size returns the pixel dimensions for a ratio and whether it is supported.
func Size(ratio models.AspectRatio) (w, h int, ok bool) {
	d, ok := dimensions[ratio]
	return d[0], d[1], ok
}
