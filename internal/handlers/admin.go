package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"lumafin/internal/cache"
	"lumafin/internal/models"
	"lumafin/internal/render"
	"lumafin/internal/store"
)

// Admin groups the dashboard and settings handlers.
type Admin struct {
	renderer     *render.Renderer
	articleStore *store.ArticleStore
	settingStore *store.SettingStore
	pageCache    *cache.PageCache
}

// NewAdmin creates a new Admin handler group. pageCache may be nil.
func NewAdmin(renderer *render.Renderer, articleStore *store.ArticleStore, settingStore *store.SettingStore, pageCache *cache.PageCache) *Admin {
	return &Admin{
		renderer:     renderer,
		articleStore: articleStore,
		settingStore: settingStore,
		pageCache:    pageCache,
	}
}

// Dashboard renders the admin dashboard with per-stream counts and the
// latest published articles.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	marketCount, _ := a.articleStore.CountByStream(models.StreamMarket)
	noticeCount, _ := a.articleStore.CountByStream(models.StreamNotice)

	var recent []models.Article
	for _, stream := range []models.Stream{models.StreamMarket, models.StreamNotice} {
		items, err := a.articleStore.ListByStream(stream)
		if err != nil {
			slog.Error("list articles failed", "error", err, "stream", stream)
			continue
		}
		if len(items) > 5 {
			items = items[:5]
		}
		recent = append(recent, items...)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"MarketCount": marketCount,
			"NoticeCount": noticeCount,
			"Recent":      recent,
		},
	})
}

// SettingsPage renders the brand settings form.
func (a *Admin) SettingsPage(w http.ResponseWriter, r *http.Request) {
	brand, err := a.settingStore.LoadBrand()
	if err != nil {
		slog.Error("load brand failed", "error", err)
	}

	a.renderer.Page(w, r, "settings", &render.PageData{
		Title:   "Brand Settings",
		Section: "settings",
		Data:    map[string]any{"Brand": brand},
	})
}

// SettingsSave persists the brand settings form and invalidates the
// public page cache, since the shared chrome appears on every page.
func (a *Admin) SettingsSave(w http.ResponseWriter, r *http.Request) {
	brand, err := a.settingStore.LoadBrand()
	if err != nil {
		slog.Error("load brand failed", "error", err)
	}

	brand.CompanyName = strings.TrimSpace(r.FormValue("company_name"))
	brand.Slogan = strings.TrimSpace(r.FormValue("slogan"))
	brand.PrimaryColor = strings.TrimSpace(r.FormValue("primary_color"))
	brand.SecondaryColor = strings.TrimSpace(r.FormValue("secondary_color"))
	brand.AccentColor = strings.TrimSpace(r.FormValue("accent_color"))
	brand.Tone = strings.TrimSpace(r.FormValue("tone"))
	brand.VisualStyle = strings.TrimSpace(r.FormValue("visual_style"))
	brand.Watermark = r.FormValue("watermark") == "1"
	brand.Keywords = splitCommaList(r.FormValue("keywords"))

	if msg := validateBrand(brand); msg != "" {
		render.SetFlash(w, "error", msg)
		http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
		return
	}

	if err := a.settingStore.SaveBrand(brand); err != nil {
		slog.Error("save brand failed", "error", err)
		render.SetFlash(w, "error", "Could not save brand settings.")
		http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
		return
	}

	if a.pageCache != nil {
		a.pageCache.InvalidateAll(r.Context())
	}

	render.SetFlash(w, "success", "Brand settings saved.")
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}

// splitCommaList parses a comma-separated form value into trimmed entries.
func splitCommaList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
