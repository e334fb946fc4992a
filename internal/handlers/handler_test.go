// handler_test.go provides shared infrastructure for handler tests. The
// auth flow tests exercise real PostgreSQL and Valkey connections and are
// skipped when those services are unavailable; the studio tests run
// entirely on fakes.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"lumafin/internal/ai"
	"lumafin/internal/database"
	"lumafin/internal/i18n"
	"lumafin/internal/middleware"
	"lumafin/internal/models"
	"lumafin/internal/poster"
	"lumafin/internal/render"
	"lumafin/internal/session"
	"lumafin/internal/source"
	"lumafin/internal/store"
	"lumafin/internal/topics"
	"lumafin/internal/workflow"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testRenderer builds the template renderer with embedded translations.
func testRenderer(t *testing.T) *render.Renderer {
	t.Helper()

	translations, err := i18n.Load()
	if err != nil {
		t.Fatalf("i18n.Load: %v", err)
	}
	renderer, err := render.New(translations)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return renderer
}

// testDB opens the test PostgreSQL, runs migrations, and seeds the
// default admin operator. Skips when the database is unreachable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "lumafin")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "lumafin")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		db.Close()
		t.Fatalf("seed: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
// Skips when Valkey is unreachable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// authEnv holds the dependencies for auth flow integration tests.
type authEnv struct {
	DB       *sql.DB
	Valkey   *redis.Client
	Sessions *session.Store
	Users    *store.UserStore
	Drafts   *workflow.Manager
	Auth     *Auth
}

// newAuthEnv creates the full auth test environment. Skips when
// PostgreSQL or Valkey are unavailable.
func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk)
	users := store.NewUserStore(db)
	drafts := newTestDraftManager(t)

	return &authEnv{
		DB:       db,
		Valkey:   vk,
		Sessions: sessions,
		Users:    users,
		Drafts:   drafts,
		Auth:     NewAuth(testRenderer(t), sessions, users, drafts),
	}
}

// seededAdmin finds the seeded admin operator, skipping when absent.
func (e *authEnv) seededAdmin(t *testing.T) *models.User {
	t.Helper()

	user, err := e.Users.FindByEmail("admin@lumafin.local")
	if err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if user == nil {
		t.Skip("skipping: seeded admin user not found")
	}
	return user
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates session data for handler tests.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test Operator",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// stubGenerator implements workflow.Generator with canned output.
type stubGenerator struct {
	gen         *ai.ArticleGeneration
	genErr      error
	lastRequest ai.ArticleRequest
	calls       int
}

func (s *stubGenerator) GenerateArticle(_ context.Context, req ai.ArticleRequest) (*ai.ArticleGeneration, error) {
	s.calls++
	s.lastRequest = req
	if s.genErr != nil {
		return nil, s.genErr
	}
	return s.gen, nil
}

func (s *stubGenerator) GenerateImage(_ context.Context, _ string) ([]byte, string, error) {
	return []byte{0x89, 0x50}, "image/png", nil
}

// stubSink implements workflow.ArticleSink.
type stubSink struct {
	inserted []models.Article
	nextID   int64
}

func (s *stubSink) Insert(a models.Article) (*models.Article, error) {
	s.nextID++
	a.ID = s.nextID
	s.inserted = append(s.inserted, a)
	return &a, nil
}

// stubArticle is the canned generation the studio tests work against.
func stubArticle() *ai.ArticleGeneration {
	return &ai.ArticleGeneration{
		Title:    "Instant Payment Volumes Keep Climbing",
		Slug:     "instant-payment-volumes-keep-climbing",
		MetaDesc: "EU instant payment volumes doubled year over year.",
		Content:  "## Volumes\n\nInstant payments doubled across the EU.",
		Tags:     []string{"payments"},
		Poster:   ai.PosterData{Headline: "Instant Payments"},
		SocialDrafts: ai.SocialDrafts{
			Twitter:  "Instant payments doubled.",
			LinkedIn: "Instant payment volumes doubled year over year.",
			Telegram: "- volumes doubled",
		},
		ImagePrompt: "a payment network map",
	}
}

// newTestDraftManager builds a workflow manager over stub collaborators.
func newTestDraftManager(t *testing.T) *workflow.Manager {
	t.Helper()

	compositor, err := poster.New()
	if err != nil {
		t.Fatalf("poster.New: %v", err)
	}
	return workflow.NewManager(func() *workflow.Controller {
		return workflow.New(workflow.Config{
			Generator:  &stubGenerator{gen: stubArticle()},
			Compositor: compositor,
			Store:      &stubSink{},
			Channels:   models.DefaultChannels(),
			Language:   "en",
		})
	})
}

// studioEnv bundles a studio handler group with its stubs.
type studioEnv struct {
	Studio    *Studio
	Drafts    *workflow.Manager
	Generator *stubGenerator
	Sink      *stubSink
	SessionID string
}

// newStudioEnv mounts the studio handlers over stubs. ocr may be nil to
// mirror deployments without a screenshot extractor.
func newStudioEnv(t *testing.T, ocr source.TextExtractor) *studioEnv {
	t.Helper()

	compositor, err := poster.New()
	if err != nil {
		t.Fatalf("poster.New: %v", err)
	}

	gen := &stubGenerator{gen: stubArticle()}
	sink := &stubSink{}
	drafts := workflow.NewManager(func() *workflow.Controller {
		return workflow.New(workflow.Config{
			Generator:  gen,
			Compositor: compositor,
			Store:      sink,
			Channels:   models.DefaultChannels(),
			Language:   "en",
		})
	})

	studio := NewStudio(testRenderer(t), drafts, topics.NewCatalog(nil, nil), nil, nil, ocr, nil)

	return &studioEnv{
		Studio:    studio,
		Drafts:    drafts,
		Generator: gen,
		Sink:      sink,
		SessionID: "studio-test-" + uuid.NewString(),
	}
}

// draft returns the test session's current draft.
func (e *studioEnv) draft() models.Draft {
	return e.Drafts.Get(e.SessionID).Draft()
}

// request builds a studio request carrying the test session cookie and
// an authenticated session context.
func (e *studioEnv) request(t *testing.T, method, target string, body *strings.Reader) *http.Request {
	t.Helper()

	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: e.SessionID})

	sess := testSession(uuid.New(), "operator@lumafin.local", "editor", true)
	return req.WithContext(ctxWithSession(req.Context(), sess))
}

// flashOf decodes the flash cookie set on a response, if any.
func flashOf(t *testing.T, rec *httptest.ResponseRecorder) *render.Flash {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" {
			req.AddCookie(c)
		}
	}
	flashes := render.PopFlash(httptest.NewRecorder(), req)
	if len(flashes) == 0 {
		return nil
	}
	return &flashes[0]
}

// wantRedirect asserts a 303 back to the studio page.
func wantRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != location {
		t.Errorf("Location = %q, want %q", loc, location)
	}
}
