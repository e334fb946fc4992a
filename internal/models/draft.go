package models

import "time"

// Step is a stage of the linear authoring pipeline. A draft only ever moves
// through steps in order; there is no skipping.
type Step string

const (
	StepStrategy     Step = "strategy"
	StepEditor       Step = "editor"
	StepAssets       Step = "assets"
	StepDistribution Step = "distribution"
	StepSummary      Step = "summary"
)

// stepOrder fixes the pipeline sequence.
var stepOrder = []Step{StepStrategy, StepEditor, StepAssets, StepDistribution, StepSummary}

// Index returns the step's position in the pipeline, or -1 for unknown steps.
func (s Step) Index() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following step, or the same step when terminal.
func (s Step) Next() Step {
	i := s.Index()
	if i < 0 || i == len(stepOrder)-1 {
		return s
	}
	return stepOrder[i+1]
}

// Prev returns the preceding step, or the same step when initial.
func (s Step) Prev() Step {
	i := s.Index()
	if i <= 0 {
		return s
	}
	return stepOrder[i-1]
}

// DraftStatus is the editorial status carried on a draft. Only published
// records leave the studio; the other values exist for the editor UI.
type DraftStatus string

const (
	StatusDraft        DraftStatus = "Draft"
	StatusScheduled    DraftStatus = "Scheduled"
	StatusPublished    DraftStatus = "Published"
	StatusArchived     DraftStatus = "Archived"
	StatusPendingAudit DraftStatus = "Pending Audit"
)

// InputMode is how raw source material entered the strategy step.
type InputMode string

const (
	InputText  InputMode = "text"
	InputImage InputMode = "image"
	InputURL   InputMode = "url"
)

// VisualMode selects how the assets step produces its media.
type VisualMode string

const (
	VisualTemplate VisualMode = "template"
	VisualImage    VisualMode = "image"
	VisualVideo    VisualMode = "video"
)

// AspectRatio is a poster/video output shape.
type AspectRatio string

const (
	RatioSquare    AspectRatio = "1:1"
	RatioLandscape AspectRatio = "16:9"
	RatioPortrait  AspectRatio = "9:16"
)

// Valid reports whether the ratio is one of the supported shapes.
func (r AspectRatio) Valid() bool {
	return r == RatioSquare || r == RatioLandscape || r == RatioPortrait
}

// Draft is an in-progress content unit moving through the workflow. It is
// exclusively owned by one workflow controller for its lifetime and is
// discarded after a successful publish, never reused.
type Draft struct {
	ID        string      `json:"id"` // transient until published
	Step      Step        `json:"step"`
	Status    DraftStatus `json:"status"`
	Stream    Stream      `json:"stream"`
	Language  string      `json:"language"`
	Length    string      `json:"length"` // "short", "medium", "long"
	Category  string      `json:"category"`
	Tag       string      `json:"tag"`
	CreatedAt time.Time   `json:"created_at"`

	// Strategy step inputs.
	InputMode InputMode `json:"input_mode"`
	RawSource string    `json:"raw_source"`

	// Editor step fields, populated by generation and hand-corrected.
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	MetaDesc string   `json:"meta_desc"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`

	// Assets step state.
	VisualMode  VisualMode  `json:"visual_mode"`
	TemplateID  string      `json:"template_id"`
	Ratio       AspectRatio `json:"ratio"`
	ImagePrompt string      `json:"image_prompt"`
	ImageRef    string      `json:"image_ref"` // data URL or hosted URL
	VideoRef    string      `json:"video_ref"`

	// Poster text bundle seeded from generation.
	PosterHeadline  string `json:"poster_headline"`
	PosterSubhead   string `json:"poster_subhead"`
	PosterHighlight string `json:"poster_highlight"`

	// Distribution step: channel id -> ready-to-post copy.
	SocialCopy map[string]string `json:"social_copy"`
}

// NewDraft creates a fresh draft at the strategy step with the given
// defaults. SocialCopy is allocated so callers can index it directly.
func NewDraft(stream Stream, language string) *Draft {
	return &Draft{
		Step:       StepStrategy,
		Status:     StatusDraft,
		Stream:     stream,
		Language:   language,
		Length:     "medium",
		InputMode:  InputText,
		Ratio:      RatioLandscape,
		VisualMode: VisualTemplate,
		SocialCopy: make(map[string]string),
		CreatedAt:  time.Now(),
	}
}

// MediaURL returns the media reference to persist, preferring video over
// still image over empty.
func (d *Draft) MediaURL() string {
	if d.VideoRef != "" {
		return d.VideoRef
	}
	return d.ImageRef
}

// HasVisual reports whether the assets step already produced any media.
func (d *Draft) HasVisual() bool {
	return d.ImageRef != "" || d.VideoRef != ""
}
