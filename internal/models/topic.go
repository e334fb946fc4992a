package models

// Topic is a suggested story idea the strategy step can import into a
// draft. Topics come from the built-in catalog or an RSS refresh.
type Topic struct {
	ID       string `json:"id"`
	Stream   Stream `json:"stream"`
	Title    string `json:"title"`
	Source   string `json:"source"` // seed text copied into the draft's raw source
	Category string `json:"category"`
	Tag      string `json:"tag"`
}
