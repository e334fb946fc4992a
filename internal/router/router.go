// Package router sets up all HTTP routes and middleware chains for the
// Lumafin server. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumafin/internal/handlers"
	"lumafin/internal/middleware"
	"lumafin/internal/session"
	"lumafin/web"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Sessions *session.Store
	Auth     *handlers.Auth
	Admin    *handlers.Admin
	Studio   *handlers.Studio
	Public   *handlers.Public

	// Metrics serves the Prometheus scrape endpoint. May be nil.
	Metrics http.Handler

	// LoginLimiter rate-limits credential submissions. May be nil.
	LoginLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	// Static assets.
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	// Admin routes — require authentication and CSRF protection.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Auth pages — accessible without a session.
		r.Get("/login", d.Auth.LoginPage)
		if d.LoginLimiter != nil {
			r.With(d.LoginLimiter.Middleware).Post("/login", d.Auth.LoginSubmit)
		} else {
			r.Post("/login", d.Auth.LoginSubmit)
		}
		r.Post("/logout", d.Auth.Logout)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", d.Auth.TwoFASetupPage)
			r.Get("/2fa/verify", d.Auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", d.Auth.TwoFAVerifySubmit)
		})

		// Authenticated + 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			// Dashboard
			r.Get("/", d.Admin.Dashboard)
			r.Get("/dashboard", d.Admin.Dashboard)

			// Content studio workflow
			r.Route("/studio", func(r chi.Router) {
				r.Get("/", d.Studio.Page)
				r.Post("/topic", d.Studio.TopicSelect)
				r.Post("/generate", d.Studio.GenerateSubmit)
				r.Post("/editor", d.Studio.EditorSubmit)
				r.Post("/assets", d.Studio.AssetsSubmit)
				r.Post("/publish", d.Studio.Publish)
				r.Post("/reset", d.Studio.Reset)
			})

			// Brand settings — admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/settings", d.Admin.SettingsPage)
				r.Post("/settings", d.Admin.SettingsSave)
			})
		})
	})

	// Public marketing site.
	r.Get("/", d.Public.Landing)
	r.Get("/{stream}", d.Public.Hub)
	r.Get("/{stream}/{id}", d.Public.Article)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
