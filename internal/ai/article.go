package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ArticleRequest carries everything the article generator needs to turn
// raw source material into a publishable draft.
type ArticleRequest struct {
	RawSource string
	Tone      string
	Language  string
	Category  string
	Stream    string
	Length    string // "short", "medium", "long"
}

// SocialDrafts holds the three platform-family copy variants produced
// alongside an article.
type SocialDrafts struct {
	Twitter  string `json:"twitter"`  // short-form
	LinkedIn string `json:"linkedin"` // professional
	Telegram string `json:"telegram"` // bullet list
}

// PosterData seeds the poster compositor's text bundle.
type PosterData struct {
	Headline      string `json:"headline"`
	Subhead       string `json:"subhead"`
	BodyHighlight string `json:"body_highlight"`
}

// ArticleGeneration is the structured result of one article generation call.
type ArticleGeneration struct {
	Title        string       `json:"title"`
	Slug         string       `json:"slug"`
	MetaDesc     string       `json:"meta_desc"`
	Content      string       `json:"content"`
	Tags         []string     `json:"tags"`
	SocialDrafts SocialDrafts `json:"social_drafts"`
	Poster       PosterData   `json:"poster_data"`
	ImagePrompt  string       `json:"image_prompt"`
}

// articleSystemPrompt instructs the model to answer with one strict JSON
// object matching ArticleGeneration. Kept as a single template so the
// contract lives in one place.
const articleSystemPrompt = `You are the senior content editor for a fintech brand. Turn the user's raw source material into a publishable article.

Respond with EXACTLY one JSON object and nothing else — no prose, no code fences. Shape:
{
  "title": "...",
  "slug": "url-friendly-slug",
  "meta_desc": "SEO description, max 160 characters",
  "content": "article body as Markdown, %s",
  "tags": ["three", "to", "five", "tags"],
  "social_drafts": {
    "twitter": "punchy short-form post, max 240 characters",
    "linkedin": "professional post, 2-3 short paragraphs",
    "telegram": "bullet-point summary, one bullet per line starting with •"
  },
  "poster_data": {
    "headline": "max 8 words, the poster headline",
    "subhead": "max 12 words",
    "body_highlight": "one key sentence"
  },
  "image_prompt": "a literal visual subject for an illustration, no style words"
}

Write in %s. Editorial voice: %s. Content stream: %s, category: %s.`

// lengthHints maps the requested length to body-size guidance.
var lengthHints = map[string]string{
	"short":  "2-3 paragraphs",
	"medium": "4-6 paragraphs with ## subheadings",
	"long":   "7-10 paragraphs with ## subheadings",
}

// GenerateArticle asks the active provider for a structured article and
// decodes the strict-JSON response. Any transport failure or malformed
// payload is returned as an error; callers treat all of them uniformly as
// a generation failure.
func (r *Registry) GenerateArticle(ctx context.Context, req ArticleRequest) (*ArticleGeneration, error) {
	hint, ok := lengthHints[req.Length]
	if !ok {
		hint = lengthHints["medium"]
	}

	system := fmt.Sprintf(articleSystemPrompt, hint, req.Language, req.Tone, req.Stream, req.Category)

	raw, err := r.Generate(ctx, system, req.RawSource)
	if err != nil {
		return nil, err
	}

	gen, err := parseArticleJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("ai: malformed generation response: %w", err)
	}
	return gen, nil
}

// parseArticleJSON decodes a model response into an ArticleGeneration,
// tolerating code fences and surrounding chatter around the JSON object.
func parseArticleJSON(raw string) (*ArticleGeneration, error) {
	cleaned := stripCodeFence(raw)

	// Models occasionally lead with a sentence; cut to the outermost braces.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found")
	}
	cleaned = cleaned[start : end+1]

	var gen ArticleGeneration
	if err := json.Unmarshal([]byte(cleaned), &gen); err != nil {
		return nil, err
	}

	if gen.Title == "" || gen.Content == "" {
		return nil, fmt.Errorf("missing title or content")
	}
	return &gen, nil
}

// stripCodeFence removes a surrounding markdown code fence, with or
// without a language tag.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i != -1 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
