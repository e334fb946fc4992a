package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lumafin/internal/ai"
	"lumafin/internal/models"
	"lumafin/internal/poster"
	"lumafin/internal/slug"
)

// Generator is the text/image generation surface the controller needs.
// *ai.Registry satisfies it; tests substitute fakes.
type Generator interface {
	GenerateArticle(ctx context.Context, req ai.ArticleRequest) (*ai.ArticleGeneration, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// Moderator screens operator-supplied text before it reaches a generation
// backend. *ai.Registry satisfies it. May be nil; without one all text
// passes.
type Moderator interface {
	CheckPrompt(ctx context.Context, text string) (*ai.ModerationResult, error)
}

// VideoGenerator produces video clips. *ai.VideoClient satisfies it.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt, ratio string) (string, error)
}

// ArticleSink persists published records. *store.ArticleStore satisfies it.
type ArticleSink interface {
	Insert(a models.Article) (*models.Article, error)
}

// Distributor fans the per-channel social copy out after publish.
// May be nil; distribution failures never fail a publish.
type Distributor interface {
	PublishSocial(ctx context.Context, article *models.Article, copy map[string]string) error
}

// Recorder counts workflow outcomes. May be nil.
type Recorder interface {
	RecordGeneration(ok bool)
	RecordRender()
	RecordVisual(mode string, ok bool)
	RecordPublish(ok bool)
}

// Config wires a controller's collaborators.
type Config struct {
	Generator   Generator
	Moderation  Moderator      // optional prompt screening
	Video       VideoGenerator // nil disables video generation
	Compositor  *poster.Compositor
	Store       ArticleSink
	Distributor Distributor // optional
	Metrics     Recorder    // optional
	Channels    []models.SocialChannel
	Brand       func() models.BrandConfig // snapshot per operation
	Language    string                    // default language for fresh drafts
	OnPublish   func(article *models.Article)
}

// Controller owns exactly one draft at a time and serializes all
// operations on it: the trigger control is disabled while an operation is
// in flight, enforced here with a TryLock so a re-entrant submission gets
// ErrBusy instead of racing.
type Controller struct {
	mu    sync.Mutex
	cfg   Config
	draft *models.Draft
}

// New creates a controller with a fresh strategy-step draft.
func New(cfg Config) *Controller {
	if cfg.Brand == nil {
		cfg.Brand = models.DefaultBrand
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &Controller{
		cfg:   cfg,
		draft: freshDraft(cfg.Language),
	}
}

// Draft returns a copy of the current draft for rendering. The copy keeps
// handlers from mutating controller state outside an operation.
func (c *Controller) Draft() models.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := *c.draft
	d.Tags = append([]string(nil), c.draft.Tags...)
	d.SocialCopy = make(map[string]string, len(c.draft.SocialCopy))
	for k, v := range c.draft.SocialCopy {
		d.SocialCopy[k] = v
	}
	return d
}

// begin acquires the in-flight guard.
func (c *Controller) begin() error {
	if !c.mu.TryLock() {
		return ErrBusy
	}
	return nil
}

// Reset discards the current draft and starts a brand-new strategy draft
// with default stream and language.
func (c *Controller) Reset() error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	c.draft = freshDraft(c.cfg.Language)
	return nil
}

// IngestTopic copies a suggested topic into the draft and forces the text
// input mode. The workflow step does not change.
func (c *Controller) IngestTopic(t models.Topic) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	c.draft.Title = t.Title
	c.draft.RawSource = t.Source
	c.draft.Category = t.Category
	c.draft.Tag = t.Tag
	if t.Stream.Valid() {
		c.draft.Stream = t.Stream
	}
	c.draft.InputMode = models.InputText
	return nil
}

// SetStrategy applies the strategy form fields to the draft.
func (c *Controller) SetStrategy(stream models.Stream, language, length, category, tag string, mode models.InputMode, rawSource string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if stream.Valid() {
		c.draft.Stream = stream
	}
	if language != "" {
		c.draft.Language = language
	}
	if length != "" {
		c.draft.Length = length
	}
	if mode != "" {
		c.draft.InputMode = mode
	}
	c.draft.Category = category
	c.draft.Tag = tag
	c.draft.RawSource = rawSource
	return nil
}

// SetImagePrompt stores a hand-edited image/video prompt.
func (c *Controller) SetImagePrompt(prompt string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	c.draft.ImagePrompt = prompt
	return nil
}

// UpdateEditor applies manual corrections from the editor step. An empty
// slug is regenerated from the title.
func (c *Controller) UpdateEditor(title, slugValue, metaDesc, content string, tags []string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	c.draft.Title = title
	c.draft.Slug = slugValue
	if c.draft.Slug == "" && title != "" {
		c.draft.Slug = slug.Generate(title)
	}
	c.draft.MetaDesc = metaDesc
	c.draft.Content = content
	if tags != nil {
		c.draft.Tags = tags
	}
	return nil
}

// SetAssets applies the assets-step selections. Changing template, mode,
// or ratio does not render by itself; the handler triggers GenerateVisual
// for the redraw.
func (c *Controller) SetAssets(mode models.VisualMode, templateID string, ratio models.AspectRatio) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if mode != "" {
		c.draft.VisualMode = mode
	}
	if templateID != "" {
		if _, ok := poster.Catalog[templateID]; !ok {
			return validationf(fmt.Sprintf("unknown poster template %q", templateID))
		}
		c.draft.TemplateID = templateID
	}
	if ratio != "" {
		if !ratio.Valid() {
			return validationf(fmt.Sprintf("unsupported aspect ratio %q", ratio))
		}
		c.draft.Ratio = ratio
	}
	return nil
}

// Navigate moves the draft to an adjacent step. Forward entry into editor
// and summary only happens through Generate and Publish; the explicit
// navigation paths are editor↔assets, assets→distribution, and the
// backward edit paths. Entering assets for the first time with neither a
// template nor an image auto-assigns the stream's default template.
func (c *Controller) Navigate(to models.Step) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	from := c.draft.Step
	if to.Index() == -1 {
		return validationf(fmt.Sprintf("unknown step %q", to))
	}

	allowed := map[models.Step][]models.Step{
		models.StepEditor:       {models.StepStrategy, models.StepAssets},
		models.StepAssets:       {models.StepEditor, models.StepDistribution},
		models.StepDistribution: {},
	}

	ok := false
	for _, next := range allowed[from] {
		if next == to {
			ok = true
			break
		}
	}
	if !ok {
		return validationf(fmt.Sprintf("cannot move from %s to %s", from, to))
	}

	c.draft.Step = to
	if to == models.StepAssets {
		c.ensureDefaultTemplate()
	}
	return nil
}

// ensureDefaultTemplate assigns the stream's default template when the
// draft reaches assets with no template and no generated image. Callers
// hold the lock.
func (c *Controller) ensureDefaultTemplate() {
	if c.draft.TemplateID == "" && c.draft.ImageRef == "" {
		c.draft.TemplateID = poster.DefaultForStream(c.draft.Stream)
	}
}

// Generate turns the raw source material into a draft article. On success
// the draft advances to the editor step; on any failure nothing changes.
func (c *Controller) Generate(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if strings.TrimSpace(c.draft.RawSource) == "" {
		return validationf("add source material before generating")
	}

	if blocked := c.moderate(ctx, c.draft.RawSource); blocked != nil {
		c.draft.Status = models.StatusPendingAudit
		return blocked
	}
	c.draft.Status = models.StatusDraft

	brand := c.cfg.Brand()
	gen, err := c.cfg.Generator.GenerateArticle(ctx, ai.ArticleRequest{
		RawSource: c.draft.RawSource,
		Tone:      brand.Tone,
		Language:  c.draft.Language,
		Category:  c.draft.Category,
		Stream:    string(c.draft.Stream),
		Length:    c.draft.Length,
	})
	if err != nil {
		c.record(func(r Recorder) { r.RecordGeneration(false) })
		slog.Error("article generation failed", "error", err)
		return fmt.Errorf("generation failed: %w", err)
	}

	c.draft.Title = gen.Title
	c.draft.Slug = gen.Slug
	if c.draft.Slug == "" {
		c.draft.Slug = slug.Generate(gen.Title)
	}
	c.draft.MetaDesc = gen.MetaDesc
	c.draft.Content = gen.Content
	c.draft.Tags = gen.Tags
	c.draft.SocialCopy = buildSocialCopy(c.cfg.Channels, gen.SocialDrafts, gen.Tags)

	// Brand visual-style prefix + the AI-provided subject.
	c.draft.ImagePrompt = strings.TrimSpace(brand.VisualStyle + ", " + gen.ImagePrompt)

	c.draft.PosterHeadline = gen.Poster.Headline
	c.draft.PosterSubhead = gen.Poster.Subhead
	c.draft.PosterHighlight = gen.Poster.BodyHighlight
	if c.draft.PosterHeadline == "" {
		c.draft.PosterHeadline = gen.Title
	}

	c.draft.Step = models.StepEditor
	c.record(func(r Recorder) { r.RecordGeneration(true) })
	return nil
}

// GenerateVisual produces the assets-step media for the given mode:
// template compositing, AI image generation, or AI video generation.
func (c *Controller) GenerateVisual(ctx context.Context, mode models.VisualMode) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	switch mode {
	case models.VisualTemplate:
		return c.renderTemplate()
	case models.VisualImage:
		return c.generateImage(ctx)
	case models.VisualVideo:
		return c.generateVideo(ctx)
	default:
		return validationf(fmt.Sprintf("unknown visual mode %q", mode))
	}
}

// renderTemplate composites the poster synchronously and writes the result
// back into the draft. Callers hold the lock.
func (c *Controller) renderTemplate() error {
	c.ensureDefaultTemplate()

	brand := c.cfg.Brand()
	headline := c.draft.PosterHeadline
	if headline == "" {
		headline = c.draft.Title
	}

	dataURL, err := c.cfg.Compositor.Render(poster.RenderInput{
		TemplateID: c.draft.TemplateID,
		Ratio:      c.draft.Ratio,
		Brand:      brand,
		Text: poster.TextBundle{
			Headline: headline,
			Subhead:  c.draft.PosterSubhead,
			Body:     c.draft.PosterHighlight,
			Footer:   brand.Slogan,
		},
	})
	if err != nil {
		c.record(func(r Recorder) { r.RecordVisual("template", false) })
		return fmt.Errorf("poster render failed: %w", err)
	}

	c.draft.VisualMode = models.VisualTemplate
	c.draft.ImageRef = dataURL
	c.record(func(r Recorder) { r.RecordVisual("template", true) })
	c.record(func(r Recorder) { r.RecordRender() })
	return nil
}

// generateImage calls the AI image backend. Callers hold the lock.
func (c *Controller) generateImage(ctx context.Context) error {
	if strings.TrimSpace(c.draft.ImagePrompt) == "" {
		return validationf("write an image prompt first")
	}
	if blocked := c.moderate(ctx, c.draft.ImagePrompt); blocked != nil {
		return blocked
	}

	raw, contentType, err := c.cfg.Generator.GenerateImage(ctx, c.draft.ImagePrompt)
	if err != nil {
		c.record(func(r Recorder) { r.RecordVisual("image", false) })
		slog.Error("image generation failed", "error", err)
		return fmt.Errorf("image generation failed: %w", err)
	}

	if contentType == "" {
		contentType = "image/png"
	}
	c.draft.VisualMode = models.VisualImage
	c.draft.ImageRef = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(raw))
	c.record(func(r Recorder) { r.RecordVisual("image", true) })
	return nil
}

// generateVideo calls the video backend. Square output is not supported
// by the backend, so the 1:1 ratio is rejected before any call is made.
// Callers hold the lock.
func (c *Controller) generateVideo(ctx context.Context) error {
	if strings.TrimSpace(c.draft.ImagePrompt) == "" {
		return validationf("write a video prompt first")
	}
	if c.draft.Ratio == models.RatioSquare {
		return validationf("video generation does not support the 1:1 ratio — pick 16:9 or 9:16")
	}
	if c.cfg.Video == nil {
		return validationf("video generation is not configured")
	}
	if blocked := c.moderate(ctx, c.draft.ImagePrompt); blocked != nil {
		return blocked
	}

	uri, err := c.cfg.Video.GenerateVideo(ctx, c.draft.ImagePrompt, string(c.draft.Ratio))
	if err != nil {
		// No key picked is an interrupt: prompt the operator, don't fail.
		if errors.Is(err, ai.ErrNoKeySelected) {
			return ErrKeyNotSelected
		}
		c.record(func(r Recorder) { r.RecordVisual("video", false) })
		slog.Error("video generation failed", "error", err)
		if ai.IsNotFound(err) {
			return fmt.Errorf("video generation failed: the selected billing key is invalid or unbilled")
		}
		return fmt.Errorf("video generation failed: %w", err)
	}

	c.draft.VisualMode = models.VisualVideo
	c.draft.VideoRef = uri
	c.record(func(r Recorder) { r.RecordVisual("video", true) })
	return nil
}

// Publish persists the draft as an immutable article record and advances
// to the summary step. On store failure the step does not move and the
// store's message is surfaced.
func (c *Controller) Publish(ctx context.Context) (*models.Article, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()

	if strings.TrimSpace(c.draft.Title) == "" || strings.TrimSpace(c.draft.Content) == "" {
		return nil, validationf("title and content are required before publishing")
	}

	stored, err := c.cfg.Store.Insert(models.Article{
		Stream:    c.draft.Stream,
		Category:  c.draft.Category,
		Tag:       c.draft.Tag,
		Title:     c.draft.Title,
		MetaDesc:  c.draft.MetaDesc,
		Content:   c.draft.Content,
		ImageURL:  c.draft.MediaURL(),
		CreatedAt: c.draft.CreatedAt,
	})
	if err != nil {
		c.record(func(r Recorder) { r.RecordPublish(false) })
		return nil, fmt.Errorf("publish failed: %w", err)
	}

	c.draft.Status = models.StatusPublished
	c.draft.Step = models.StepSummary
	c.record(func(r Recorder) { r.RecordPublish(true) })

	// Social fan-out is best effort: a queue outage never unpublishes.
	if c.cfg.Distributor != nil && len(c.draft.SocialCopy) > 0 {
		if err := c.cfg.Distributor.PublishSocial(ctx, stored, c.draft.SocialCopy); err != nil {
			slog.Warn("social distribution failed", "error", err, "article_id", stored.ID)
		}
	}

	if c.cfg.OnPublish != nil {
		c.cfg.OnPublish(stored)
	}
	return stored, nil
}

// moderate screens a text through the configured moderator. Flagged text
// returns a validation error; a moderation backend failure is logged and
// the text is allowed through. Callers hold the lock.
func (c *Controller) moderate(ctx context.Context, text string) error {
	if c.cfg.Moderation == nil {
		return nil
	}

	result, err := c.cfg.Moderation.CheckPrompt(ctx, text)
	if err != nil {
		slog.Warn("moderation check failed, allowing text", "error", err)
		return nil
	}
	if result.Safe {
		return nil
	}

	reasons := strings.Join(result.Categories, ", ")
	if reasons == "" {
		reasons = "policy violation"
	}
	return validationf(fmt.Sprintf("the text was flagged by content moderation (%s) — revise it before generating", reasons))
}

// record invokes fn when metrics are wired.
func (c *Controller) record(fn func(Recorder)) {
	if c.cfg.Metrics != nil {
		fn(c.cfg.Metrics)
	}
}

// Manager hands out one controller per studio session, so each operator
// edits exactly one draft at a time.
type Manager struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	newCtl      func() *Controller
}

// NewManager creates a manager that builds controllers with the factory.
func NewManager(factory func() *Controller) *Manager {
	return &Manager{
		controllers: make(map[string]*Controller),
		newCtl:      factory,
	}
}

// Get returns the session's controller, creating it on first use.
func (m *Manager) Get(sessionID string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctl, ok := m.controllers[sessionID]; ok {
		return ctl
	}
	ctl := m.newCtl()
	m.controllers[sessionID] = ctl
	return ctl
}

// Remove drops a session's controller (logout or session expiry).
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.controllers, sessionID)
}

// freshDraft builds a new strategy-step draft with a transient ID; the ID
// only exists to keep drafts addressable in logs until publish.
func freshDraft(language string) *models.Draft {
	d := models.NewDraft(models.StreamMarket, language)
	d.ID = uuid.NewString()
	return d
}
