package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lumafin/internal/cache"
	"lumafin/internal/i18n"
	"lumafin/internal/markdown"
	"lumafin/internal/models"
	"lumafin/internal/render"
	"lumafin/internal/store"
)

// Public groups the marketing site handlers: landing page, stream hubs,
// and article detail pages. Rendered HTML is served through the Valkey
// page cache when one is configured.
type Public struct {
	renderer     *render.Renderer
	articles     *store.ArticleStore
	translations *i18n.Store
	pageCache    *cache.PageCache // nil when Valkey is not configured
}

// NewPublic creates the public handler group. pageCache may be nil.
func NewPublic(renderer *render.Renderer, articles *store.ArticleStore, translations *i18n.Store, pageCache *cache.PageCache) *Public {
	return &Public{
		renderer:     renderer,
		articles:     articles,
		translations: translations,
		pageCache:    pageCache,
	}
}

// landingListLimit caps how many articles per stream the landing shows.
const landingListLimit = 4

// Landing renders the marketing landing page with the latest items from
// both streams.
func (p *Public) Landing(w http.ResponseWriter, r *http.Request) {
	lang := p.translations.FromRequest(w, r)

	if p.serveCached(w, r, cache.LandingKey(lang)) {
		return
	}

	market := p.listStream(models.StreamMarket, landingListLimit)
	notice := p.listStream(models.StreamNotice, landingListLimit)

	p.servePage(w, r, cache.LandingKey(lang), "landing", &render.PublicData{
		Title: "Lumafin",
		Lang:  lang,
		Data: map[string]any{
			"Market": market,
			"Notice": notice,
		},
	})
}

// Hub renders the article list for one stream. Unknown streams 404.
func (p *Public) Hub(w http.ResponseWriter, r *http.Request) {
	stream := models.Stream(chi.URLParam(r, "stream"))
	if !stream.Valid() {
		http.NotFound(w, r)
		return
	}

	lang := p.translations.FromRequest(w, r)

	if p.serveCached(w, r, cache.HubKey(string(stream), lang)) {
		return
	}

	p.servePage(w, r, cache.HubKey(string(stream), lang), "hub", &render.PublicData{
		Title: "Lumafin",
		Lang:  lang,
		Data: map[string]any{
			"Stream":   string(stream),
			"Articles": p.listStream(stream, 0),
		},
	})
}

// Article renders one article's detail page. The article's content is
// stored as markdown and converted to sanitized HTML on render.
func (p *Public) Article(w http.ResponseWriter, r *http.Request) {
	stream := models.Stream(chi.URLParam(r, "stream"))
	if !stream.Valid() {
		http.NotFound(w, r)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	lang := p.translations.FromRequest(w, r)

	if p.serveCached(w, r, cache.ArticleKey(string(stream), id, lang)) {
		return
	}

	article := p.findArticle(stream, id)
	if article == nil || article.Stream != stream {
		http.NotFound(w, r)
		return
	}

	contentHTML, err := markdown.ToHTML(article.Content)
	if err != nil {
		slog.Error("article markdown render failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.servePage(w, r, cache.ArticleKey(string(stream), id, lang), "article", &render.PublicData{
		Title: article.Title + " · Lumafin",
		Lang:  lang,
		Data: map[string]any{
			"Article":     article,
			"ContentHTML": contentHTML,
			"MetaDesc":    article.MetaDesc,
		},
	})
}

// serveCached writes a cached page if one exists for the key.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if p.pageCache == nil {
		return false
	}
	html, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
	return true
}

// servePage renders a public page into a buffer, stores it in the page
// cache, and sends it to the client.
func (p *Public) servePage(w http.ResponseWriter, r *http.Request, key, name string, data *render.PublicData) {
	var buf bytes.Buffer
	if err := p.renderer.Public(&buf, name, data); err != nil {
		slog.Error("public page render failed", "error", err, "page", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if p.pageCache != nil {
		p.pageCache.Set(r.Context(), key, buf.Bytes())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// listStream loads a stream's articles, falling back to the built-in
// sample content when no database is configured. limit of 0 means all.
func (p *Public) listStream(stream models.Stream, limit int) []models.Article {
	var items []models.Article
	if p.articles.Configured() {
		var err error
		items, err = p.articles.ListByStream(stream)
		if err != nil {
			slog.Error("list articles failed", "error", err, "stream", stream)
		}
	} else {
		items = builtinArticles(stream)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// findArticle resolves an article by ID against the database or the
// built-in sample content.
func (p *Public) findArticle(stream models.Stream, id int64) *models.Article {
	if p.articles.Configured() {
		article, err := p.articles.FindByID(id)
		if err != nil {
			slog.Error("find article failed", "error", err, "id", id)
			return nil
		}
		return article
	}

	for _, a := range builtinArticles(stream) {
		if a.ID == id {
			return &a
		}
	}
	return nil
}

// builtinArticles is the sample content served when no database is
// configured, so the public site never renders empty.
func builtinArticles(stream models.Stream) []models.Article {
	now := time.Now()
	switch stream {
	case models.StreamMarket:
		return []models.Article{
			{
				ID:       1,
				Stream:   models.StreamMarket,
				Category: "Analysis",
				Tag:      "rates",
				Title:    "What Shifting Rate Expectations Mean for Cross-Border Settlement",
				MetaDesc: "Rate repricing is changing how treasury teams time their settlement windows.",
				Content: "Rate expectations have repriced twice this quarter, and settlement desks are adjusting.\n\n" +
					"## Timing matters again\n\n" +
					"When overnight rates were pinned near zero, holding a settlement batch a few hours cost nothing. " +
					"That is no longer true. Treasury teams we work with now schedule cross-border batches against " +
					"funding windows, not calendar convenience.\n\n" +
					"## What to watch\n\n" +
					"- Central bank guidance on the next two meetings\n" +
					"- Corridor spreads on major currency pairs\n" +
					"- Intraday liquidity pricing from correspondent banks\n",
				CreatedAt: now.Add(-48 * time.Hour),
			},
			{
				ID:       2,
				Stream:   models.StreamMarket,
				Category: "Trends",
				Tag:      "stablecoins",
				Title:    "Stablecoin Settlement Volume Passed Card Networks in Three Corridors",
				MetaDesc: "Where regulated stablecoin rails are already the cheaper settlement path.",
				Content: "In three of the corridors we track, stablecoin settlement volume now exceeds card network volume.\n\n" +
					"The drivers are boring and structural: finality in minutes, weekend availability, and fees that " +
					"do not scale with ticket size. For high-value B2B transfers those properties dominate.\n",
				CreatedAt: now.Add(-120 * time.Hour),
			},
		}
	case models.StreamNotice:
		return []models.Article{
			{
				ID:       3,
				Stream:   models.StreamNotice,
				Category: "Maintenance",
				Title:    "Scheduled Maintenance: Settlement API",
				MetaDesc: "A 30-minute maintenance window for the settlement API is planned.",
				Content: "We will perform scheduled maintenance on the settlement API.\n\n" +
					"During the window, new settlement requests will be queued and processed once maintenance " +
					"completes. Balance queries and webhooks are unaffected.\n",
				CreatedAt: now.Add(-24 * time.Hour),
			},
		}
	}
	return nil
}
