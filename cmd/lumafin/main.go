// Package main is the entry point for the Lumafin server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"lumafin/internal/ai"
	"lumafin/internal/cache"
	"lumafin/internal/config"
	"lumafin/internal/database"
	"lumafin/internal/distribution"
	"lumafin/internal/handlers"
	"lumafin/internal/i18n"
	"lumafin/internal/metrics"
	"lumafin/internal/middleware"
	"lumafin/internal/models"
	"lumafin/internal/poster"
	"lumafin/internal/render"
	"lumafin/internal/router"
	"lumafin/internal/session"
	"lumafin/internal/source"
	"lumafin/internal/store"
	"lumafin/internal/topics"
	"lumafin/internal/workflow"
)

// topicRefreshInterval is how often configured RSS feeds are re-fetched.
const topicRefreshInterval = time.Hour

func main() {
	// Local development reads a .env file; absence is fine.
	godotenv.Load()

	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL. The database is optional: without it the
	// public site serves built-in content and publishes become no-ops.
	var db *sql.DB
	if dsn := cfg.DSN(); dsn != "" {
		db, err = database.Connect(dsn)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		// Run pending migrations.
		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		// Seed development data (no-op if data already exists).
		if cfg.IsDev() {
			if err := database.Seed(db); err != nil {
				slog.Error("failed to seed database", "error", err)
				os.Exit(1)
			}
		}
	} else {
		slog.Warn("no database configured — serving built-in content, publishes are no-ops")
	}

	// Connect to Valkey (session store + full-page cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient)
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// Load the embedded translation tables for the public site.
	translations, err := i18n.Load()
	if err != nil {
		slog.Error("failed to load translations", "error", err)
		os.Exit(1)
	}

	// Initialize the HTML template renderer.
	renderer, err := render.New(translations)
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores. A nil db handle is tolerated.
	userStore := store.NewUserStore(db)
	articleStore := store.NewArticleStore(db)
	settingStore := store.NewSettingStore(db)

	// Poster compositor with its embedded fonts.
	compositor, err := poster.New()
	if err != nil {
		slog.Error("failed to initialize poster compositor", "error", err)
		os.Exit(1)
	}

	// Initialize the AI provider registry with all configured providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini":  {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL},
		"claude":  {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	})

	// Video generation backend with operator-selectable billing keys.
	var keySource *ai.StaticKeySource
	var videoClient workflow.VideoGenerator
	if cfg.VideoBaseURL != "" {
		keySource = ai.NewStaticKeySource(cfg.VideoKeys)
		videoClient = ai.NewVideoClient(cfg.VideoBaseURL, keySource)
		slog.Info("video backend configured", "keys", len(cfg.VideoKeys))
	} else {
		slog.Warn("video backend not configured — video generation disabled")
	}

	// Topic catalog: built-in suggestions plus optional RSS feeds.
	catalog := topics.NewCatalog(cfg.MarketFeeds, cfg.NoticeFeeds)
	if len(cfg.MarketFeeds)+len(cfg.NoticeFeeds) > 0 {
		go refreshTopics(catalog)
	}

	// RabbitMQ social fan-out. Optional; distribution failures never fail
	// a publish, so a missing broker just logs a warning.
	var distributor workflow.Distributor
	if cfg.AMQPURL != "" {
		publisher, err := distribution.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Warn("failed to connect to rabbitmq — distribution disabled", "error", err)
		} else {
			defer publisher.Close()
			distributor = publisher
		}
	}

	// Prometheus workflow counters, exposed at /metrics.
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	metricsHandler := metrics.Handler(prometheus.DefaultGatherer)

	// Draft controllers are created per operator session on demand.
	drafts := workflow.NewManager(func() *workflow.Controller {
		return workflow.New(workflow.Config{
			Generator:   aiRegistry,
			Moderation:  aiRegistry,
			Video:       videoClient,
			Compositor:  compositor,
			Store:       articleStore,
			Distributor: distributor,
			Metrics:     collector,
			Channels:    models.DefaultChannels(),
			Brand: func() models.BrandConfig {
				brand, err := settingStore.LoadBrand()
				if err != nil {
					slog.Error("load brand failed, using default", "error", err)
					return models.DefaultBrand()
				}
				return brand
			},
			Language: cfg.DefaultLanguage,
		})
	})

	// Create handler groups with their dependencies.
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore, drafts)
	adminHandlers := handlers.NewAdmin(renderer, articleStore, settingStore, pageCache)
	// Screenshot text extraction. No OCR backend exists yet; development
	// uses a static extractor and the studio hides the upload input when
	// no extractor is wired.
	var ocr source.TextExtractor
	if cfg.IsDev() {
		ocr = &source.StaticExtractor{Text: "Sample extracted announcement text for development."}
	}

	studioHandlers := handlers.NewStudio(renderer, drafts, catalog, keySource, source.NewWebExtractor(), ocr, pageCache)
	publicHandlers := handlers.NewPublic(renderer, articleStore, translations, pageCache)

	// Brute-force guard on credential submissions.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Deps{
		Sessions:     sessionStore,
		Auth:         authHandlers,
		Admin:        adminHandlers,
		Studio:       studioHandlers,
		Public:       publicHandlers,
		Metrics:      metricsHandler,
		LoginLimiter: loginLimiter,
	})

	// Create the HTTP server with sensible timeouts.
	// WriteTimeout must accommodate generation endpoints that wait on LLM
	// and video responses (typically 10-30s, up to 60s for long articles).
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// refreshTopics fetches the configured feeds at startup and on an hourly
// cadence afterwards.
func refreshTopics(catalog *topics.Catalog) {
	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		catalog.Refresh(ctx)
	}

	refresh()
	ticker := time.NewTicker(topicRefreshInterval)
	defer ticker.Stop()
	for range ticker.C {
		refresh()
	}
}
