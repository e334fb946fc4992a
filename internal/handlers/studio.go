package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"lumafin/internal/ai"
	"lumafin/internal/cache"
	"lumafin/internal/models"
	"lumafin/internal/poster"
	"lumafin/internal/render"
	"lumafin/internal/session"
	"lumafin/internal/source"
	"lumafin/internal/topics"
	"lumafin/internal/workflow"
)

// Studio groups the content workflow handlers. Every operation resolves
// the session's draft controller through the workflow manager, so two
// operators never share a draft.
type Studio struct {
	renderer  *render.Renderer
	drafts    *workflow.Manager
	topics    *topics.Catalog
	keys      *ai.StaticKeySource // nil when video is not configured
	web       *source.WebExtractor
	ocr       source.TextExtractor // nil disables image ingestion
	pageCache *cache.PageCache     // nil when Valkey is not configured

	// lastPublished remembers the summary page's article link per session.
	mu            sync.Mutex
	lastPublished map[string]int64
}

// NewStudio creates the studio handler group.
func NewStudio(renderer *render.Renderer, drafts *workflow.Manager, catalog *topics.Catalog, keys *ai.StaticKeySource, web *source.WebExtractor, ocr source.TextExtractor, pageCache *cache.PageCache) *Studio {
	return &Studio{
		renderer:      renderer,
		drafts:        drafts,
		topics:        catalog,
		keys:          keys,
		web:           web,
		ocr:           ocr,
		pageCache:     pageCache,
		lastPublished: make(map[string]int64),
	}
}

// maxSourceImageBytes caps uploaded source screenshots.
const maxSourceImageBytes = 8 << 20

// controller resolves the session's draft controller.
func (s *Studio) controller(r *http.Request) *workflow.Controller {
	return s.drafts.Get(session.ID(r))
}

// Page renders the studio at the draft's current step.
func (s *Studio) Page(w http.ResponseWriter, r *http.Request) {
	draft := s.controller(r).Draft()

	data := map[string]any{
		"Draft":      &draft,
		"Steps":      []models.Step{models.StepStrategy, models.StepEditor, models.StepAssets, models.StepDistribution, models.StepSummary},
		"Topics":     s.topics.ForStream(draft.Stream),
		"Templates":  poster.List(),
		"Channels":   models.DefaultChannels(),
		"ImageInput": s.ocr != nil,
	}

	if s.keys != nil {
		data["Keys"] = s.keys.Keys()
		selected, _ := s.keys.SelectedKey() // empty until the operator picks one
		data["SelectedKey"] = selected
	}

	if draft.Step == models.StepSummary {
		s.mu.Lock()
		if id, ok := s.lastPublished[session.ID(r)]; ok {
			data["PublishedID"] = id
		}
		s.mu.Unlock()
	}

	s.renderer.Page(w, r, "studio", &render.PageData{
		Title:   "Content Studio",
		Section: "studio",
		Data:    data,
	})
}

// TopicSelect copies a suggested topic into the draft.
func (s *Studio) TopicSelect(w http.ResponseWriter, r *http.Request) {
	topic, ok := s.topics.Find(r.FormValue("topic_id"))
	if !ok {
		render.SetFlash(w, "warning", "That topic is no longer available.")
		s.redirect(w, r)
		return
	}

	s.flashResult(w, s.controller(r).IngestTopic(topic), "Topic loaded into the draft.")
	s.redirect(w, r)
}

// GenerateSubmit applies the strategy form and runs article generation.
// A source URL, when given, is fetched and reduced to readable text
// before generation.
func (s *Studio) GenerateSubmit(w http.ResponseWriter, r *http.Request) {
	ctl := s.controller(r)

	rawSource := r.FormValue("raw_source")
	mode := models.InputText

	switch {
	case r.FormValue("source_url") != "" && s.web != nil:
		sourceURL := r.FormValue("source_url")
		extracted, err := s.web.Extract(r.Context(), sourceURL)
		if err != nil {
			slog.Warn("source url extraction failed", "url", sourceURL, "error", err)
			render.SetFlash(w, "error", "Could not read that URL.")
			s.redirect(w, r)
			return
		}
		rawSource = extracted
		mode = models.InputURL

	case s.ocr != nil:
		if file, header, err := r.FormFile("source_image"); err == nil && header.Filename != "" {
			defer file.Close()
			img, err := io.ReadAll(io.LimitReader(file, maxSourceImageBytes))
			if err != nil {
				render.SetFlash(w, "error", "Could not read the uploaded image.")
				s.redirect(w, r)
				return
			}
			text, err := s.ocr.ExtractText(r.Context(), img)
			if err != nil {
				slog.Warn("source image extraction failed", "error", err)
				render.SetFlash(w, "error", "Could not read text from that image.")
				s.redirect(w, r)
				return
			}
			rawSource = text
			mode = models.InputImage
		}
	}

	if msg := validateStrategy(rawSource, ""); msg != "" {
		render.SetFlash(w, "warning", msg)
		s.redirect(w, r)
		return
	}

	err := ctl.SetStrategy(
		models.Stream(r.FormValue("stream")),
		r.FormValue("language"),
		r.FormValue("length"),
		r.FormValue("category"),
		r.FormValue("tag"),
		mode,
		rawSource,
	)
	if err != nil {
		s.flashResult(w, err, "")
		s.redirect(w, r)
		return
	}

	s.flashResult(w, ctl.Generate(r.Context()), "Draft generated — review it in the editor.")
	s.redirect(w, r)
}

// EditorSubmit saves manual corrections and optionally navigates.
func (s *Studio) EditorSubmit(w http.ResponseWriter, r *http.Request) {
	ctl := s.controller(r)

	title := r.FormValue("title")
	slugValue := r.FormValue("slug")
	content := r.FormValue("content")
	metaDesc := r.FormValue("meta_desc")

	if msg := validateEditor(title, slugValue, content, metaDesc); msg != "" {
		render.SetFlash(w, "warning", msg)
		s.redirect(w, r)
		return
	}

	if err := ctl.UpdateEditor(title, slugValue, metaDesc, content, splitCommaList(r.FormValue("tags"))); err != nil {
		s.flashResult(w, err, "")
		s.redirect(w, r)
		return
	}

	if nav := r.FormValue("nav"); nav != "" {
		s.flashResult(w, ctl.Navigate(models.Step(nav)), "")
	}
	s.redirect(w, r)
}

// AssetsSubmit applies assets-step selections and triggers visual
// generation or navigation, depending on which button was pressed.
func (s *Studio) AssetsSubmit(w http.ResponseWriter, r *http.Request) {
	ctl := s.controller(r)

	if key := r.FormValue("billing_key"); key != "" && s.keys != nil {
		if err := s.keys.Select(key); err != nil {
			slog.Warn("billing key selection failed", "error", err)
		}
	}

	err := ctl.SetAssets(
		models.VisualMode(r.FormValue("visual_mode")),
		r.FormValue("template_id"),
		models.AspectRatio(r.FormValue("ratio")),
	)
	if err != nil {
		s.flashResult(w, err, "")
		s.redirect(w, r)
		return
	}

	// Prompt edits are always carried over, including clearing the field.
	if r.Form.Has("image_prompt") {
		prompt := r.FormValue("image_prompt")
		if msg := validateStrategy("", prompt); msg != "" {
			render.SetFlash(w, "warning", msg)
			s.redirect(w, r)
			return
		}
		draft := ctl.Draft()
		if prompt != draft.ImagePrompt {
			if err := ctl.SetImagePrompt(prompt); err != nil {
				s.flashResult(w, err, "")
				s.redirect(w, r)
				return
			}
		}
	}

	if nav := r.FormValue("nav"); nav != "" {
		s.flashResult(w, ctl.Navigate(models.Step(nav)), "")
		s.redirect(w, r)
		return
	}

	if mode := r.FormValue("visual_mode"); mode != "" {
		s.flashResult(w, ctl.GenerateVisual(r.Context(), models.VisualMode(mode)), "Visual updated.")
	}
	s.redirect(w, r)
}

// Publish stores the article, invalidates the affected public pages,
// and records the new ID for the summary page.
func (s *Studio) Publish(w http.ResponseWriter, r *http.Request) {
	ctl := s.controller(r)

	article, err := ctl.Publish(r.Context())
	if err != nil {
		s.flashResult(w, err, "")
		s.redirect(w, r)
		return
	}

	if s.pageCache != nil {
		s.pageCache.InvalidateStream(r.Context(), string(article.Stream))
	}

	s.mu.Lock()
	s.lastPublished[session.ID(r)] = article.ID
	s.mu.Unlock()

	render.SetFlash(w, "success", "Published.")
	s.redirect(w, r)
}

// Reset discards the draft and starts over.
func (s *Studio) Reset(w http.ResponseWriter, r *http.Request) {
	s.flashResult(w, s.controller(r).Reset(), "")
	s.redirect(w, r)
}

// flashResult converts a workflow outcome into the studio's flash
// vocabulary: busy and key-selection interrupts are informational,
// validation problems are warnings, everything else is an error.
func (s *Studio) flashResult(w http.ResponseWriter, err error, success string) {
	switch {
	case err == nil:
		if success != "" {
			render.SetFlash(w, "success", success)
		}
	case errors.Is(err, workflow.ErrBusy):
		render.SetFlash(w, "info", "Another operation is still running — try again in a moment.")
	case errors.Is(err, workflow.ErrKeyNotSelected):
		render.SetFlash(w, "info", "Select a billing key before generating video.")
	case workflow.IsValidation(err):
		render.SetFlash(w, "warning", err.Error())
	default:
		render.SetFlash(w, "error", err.Error())
	}
}

func (s *Studio) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/studio", http.StatusSeeOther)
}
