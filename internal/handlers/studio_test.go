// studio_test.go covers the studio workflow endpoints over stub
// collaborators: topic selection, generation from the three input modes,
// asset prompt edits, publish, and reset.
package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"lumafin/internal/models"
	"lumafin/internal/session"
	"lumafin/internal/source"
)

func TestStudioPageRenders(t *testing.T) {
	env := newStudioEnv(t, &source.StaticExtractor{Text: "extracted"})

	req := env.request(t, http.MethodGet, "/admin/studio", nil)
	rec := httptest.NewRecorder()
	env.Studio.Page(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `name="source_image"`) {
		t.Error("screenshot input missing with an extractor wired")
	}
}

func TestStudioPageHidesScreenshotInputWithoutExtractor(t *testing.T) {
	env := newStudioEnv(t, nil)

	req := env.request(t, http.MethodGet, "/admin/studio", nil)
	rec := httptest.NewRecorder()
	env.Studio.Page(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `name="source_image"`) {
		t.Error("screenshot input rendered without an extractor")
	}
}

func TestTopicSelect(t *testing.T) {
	env := newStudioEnv(t, nil)

	form := url.Values{}
	form.Set("topic_id", "mkt-rates")
	req := env.request(t, http.MethodPost, "/admin/studio/topic", strings.NewReader(form.Encode()))
	rec := httptest.NewRecorder()
	env.Studio.TopicSelect(rec, req)

	wantRedirect(t, rec, "/admin/studio")
	d := env.draft()
	if !strings.Contains(d.Title, "Central bank holds rates steady") {
		t.Errorf("draft title = %q, topic not ingested", d.Title)
	}
	if d.InputMode != models.InputText {
		t.Errorf("input mode = %s, want text", d.InputMode)
	}
}

func TestTopicSelectUnknownID(t *testing.T) {
	env := newStudioEnv(t, nil)

	form := url.Values{}
	form.Set("topic_id", "no-such-topic")
	req := env.request(t, http.MethodPost, "/admin/studio/topic", strings.NewReader(form.Encode()))
	rec := httptest.NewRecorder()
	env.Studio.TopicSelect(rec, req)

	wantRedirect(t, rec, "/admin/studio")
	if f := flashOf(t, rec); f == nil || f.Type != "warning" {
		t.Errorf("flash = %+v, want warning", f)
	}
	if d := env.draft(); d.Title != "" {
		t.Errorf("draft title = %q after unknown topic", d.Title)
	}
}

// generate drives the session's draft to the editor step through the
// generate endpoint.
func (e *studioEnv) generate(t *testing.T) {
	t.Helper()

	form := url.Values{}
	form.Set("stream", "market")
	form.Set("language", "en")
	form.Set("length", "medium")
	form.Set("raw_source", "pasted desk notes about instant payments")

	req := e.request(t, http.MethodPost, "/admin/studio/generate", strings.NewReader(form.Encode()))
	rec := httptest.NewRecorder()
	e.Studio.GenerateSubmit(rec, req)
	wantRedirect(t, rec, "/admin/studio")

	if d := e.draft(); d.Step != models.StepEditor {
		t.Fatalf("step = %s after generate, want editor", d.Step)
	}
}

func TestGenerateSubmitFromPastedText(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.generate(t)

	if env.Generator.calls != 1 {
		t.Errorf("generator calls = %d, want 1", env.Generator.calls)
	}
	if got := env.Generator.lastRequest.RawSource; got != "pasted desk notes about instant payments" {
		t.Errorf("raw source = %q", got)
	}

	d := env.draft()
	if d.InputMode != models.InputText {
		t.Errorf("input mode = %s, want text", d.InputMode)
	}
	if d.Title != "Instant Payment Volumes Keep Climbing" {
		t.Errorf("title = %q", d.Title)
	}
}

// multipartGenerate posts a multipart generate form, optionally with a
// source_image file attached.
func (e *studioEnv) multipartGenerate(t *testing.T, rawSource string, image []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("stream", "market")
	mw.WriteField("language", "en")
	mw.WriteField("raw_source", rawSource)
	if image != nil {
		fw, err := mw.CreateFormFile("source_image", "announcement.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(image)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/studio/generate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: e.SessionID})
	req = req.WithContext(ctxWithSession(req.Context(), testSession(uuid.New(), "operator@lumafin.local", "editor", true)))

	rec := httptest.NewRecorder()
	e.Studio.GenerateSubmit(rec, req)
	return rec
}

func TestGenerateSubmitFromScreenshot(t *testing.T) {
	env := newStudioEnv(t, &source.StaticExtractor{Text: "text pulled from the screenshot"})

	rec := env.multipartGenerate(t, "", []byte{0x89, 0x50, 0x4e, 0x47})
	wantRedirect(t, rec, "/admin/studio")

	if got := env.Generator.lastRequest.RawSource; got != "text pulled from the screenshot" {
		t.Errorf("raw source = %q, want the extracted text", got)
	}

	d := env.draft()
	if d.InputMode != models.InputImage {
		t.Errorf("input mode = %s, want image", d.InputMode)
	}
	if d.Step != models.StepEditor {
		t.Errorf("step = %s, want editor", d.Step)
	}
}

func TestGenerateSubmitWithoutUploadFallsBackToPastedText(t *testing.T) {
	env := newStudioEnv(t, &source.StaticExtractor{Text: "should not be used"})

	rec := env.multipartGenerate(t, "pasted fallback notes", nil)
	wantRedirect(t, rec, "/admin/studio")

	if got := env.Generator.lastRequest.RawSource; got != "pasted fallback notes" {
		t.Errorf("raw source = %q, want the pasted text", got)
	}
	if d := env.draft(); d.InputMode != models.InputText {
		t.Errorf("input mode = %s, want text", d.InputMode)
	}
}

func TestAssetsSubmitClearsImagePrompt(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.generate(t)

	if env.draft().ImagePrompt == "" {
		t.Fatal("generated draft has no image prompt to clear")
	}

	// Submitting the field empty blanks the stored prompt.
	form := url.Values{}
	form.Set("image_prompt", "")
	req := env.request(t, http.MethodPost, "/admin/studio/assets", strings.NewReader(form.Encode()))
	rec := httptest.NewRecorder()
	env.Studio.AssetsSubmit(rec, req)
	wantRedirect(t, rec, "/admin/studio")

	if got := env.draft().ImagePrompt; got != "" {
		t.Errorf("image prompt = %q after clearing, want empty", got)
	}
}

func TestAssetsSubmitWithoutPromptFieldPreservesPrompt(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.generate(t)

	if err := env.Drafts.Get(env.SessionID).SetImagePrompt("a hand-tuned prompt"); err != nil {
		t.Fatalf("SetImagePrompt: %v", err)
	}

	// A form without the prompt field leaves the stored prompt alone.
	form := url.Values{}
	form.Set("ratio", "16:9")
	req := env.request(t, http.MethodPost, "/admin/studio/assets", strings.NewReader(form.Encode()))
	rec := httptest.NewRecorder()
	env.Studio.AssetsSubmit(rec, req)
	wantRedirect(t, rec, "/admin/studio")

	if got := env.draft().ImagePrompt; got != "a hand-tuned prompt" {
		t.Errorf("image prompt = %q, want it preserved", got)
	}
}

func TestAssetsSubmitUpdatesPrompt(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.generate(t)

	form := url.Values{}
	form.Set("image_prompt", "a skyline at dawn")
	req := env.request(t, http.MethodPost, "/admin/studio/assets", strings.NewReader(form.Encode()))
	rec := httptest.NewRecorder()
	env.Studio.AssetsSubmit(rec, req)
	wantRedirect(t, rec, "/admin/studio")

	if got := env.draft().ImagePrompt; got != "a skyline at dawn" {
		t.Errorf("image prompt = %q", got)
	}
}

func TestStudioPublishFlow(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.generate(t)

	req := env.request(t, http.MethodPost, "/admin/studio/publish", strings.NewReader(""))
	rec := httptest.NewRecorder()
	env.Studio.Publish(rec, req)
	wantRedirect(t, rec, "/admin/studio")

	if f := flashOf(t, rec); f == nil || f.Type != "success" {
		t.Errorf("flash = %+v, want success", f)
	}
	if len(env.Sink.inserted) != 1 {
		t.Fatalf("inserted %d articles, want 1", len(env.Sink.inserted))
	}
	if env.Sink.inserted[0].Title != "Instant Payment Volumes Keep Climbing" {
		t.Errorf("stored title = %q", env.Sink.inserted[0].Title)
	}

	d := env.draft()
	if d.Step != models.StepSummary {
		t.Errorf("step = %s, want summary", d.Step)
	}
	if d.Status != models.StatusPublished {
		t.Errorf("status = %s, want published", d.Status)
	}

	// The summary page links the freshly published article.
	pageReq := env.request(t, http.MethodGet, "/admin/studio", nil)
	pageRec := httptest.NewRecorder()
	env.Studio.Page(pageRec, pageReq)
	if pageRec.Code != http.StatusOK {
		t.Fatalf("summary page status = %d", pageRec.Code)
	}
}

func TestStudioReset(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.generate(t)

	req := env.request(t, http.MethodPost, "/admin/studio/reset", strings.NewReader(""))
	rec := httptest.NewRecorder()
	env.Studio.Reset(rec, req)
	wantRedirect(t, rec, "/admin/studio")

	d := env.draft()
	if d.Step != models.StepStrategy {
		t.Errorf("step = %s after reset, want strategy", d.Step)
	}
	if d.Title != "" || d.Content != "" {
		t.Error("reset draft carries old content")
	}
}
