package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lumafin/internal/session"
)

func withSession(r *http.Request, data *session.Data) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), SessionKey, data))
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	handler := RequireAuth(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want redirect", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/admin/login" {
		t.Errorf("redirect to %q", loc)
	}
}

func TestRequireAuthPassesAuthenticated(t *testing.T) {
	handler := RequireAuth(okHandler())

	req := withSession(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), &session.Data{Email: "a@b.c"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want 200", rr.Code)
	}
}

func TestRequire2FA(t *testing.T) {
	handler := Require2FA(okHandler())

	// Incomplete 2FA redirects to setup.
	req := withSession(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), &session.Data{TwoFADone: false})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/admin/2fa/setup" {
		t.Errorf("incomplete 2FA: got %d → %q", rr.Code, rr.Header().Get("Location"))
	}

	// Completed 2FA passes.
	req = withSession(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), &session.Data{TwoFADone: true})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("completed 2FA: got %d", rr.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(okHandler())

	tests := []struct {
		name string
		data *session.Data
		want int
	}{
		{"no session", nil, http.StatusForbidden},
		{"editor role", &session.Data{Role: "editor"}, http.StatusForbidden},
		{"admin role", &session.Data{Role: "admin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
			if tt.data != nil {
				req = withSession(req, tt.data)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestSessionFromCtx(t *testing.T) {
	if got := SessionFromCtx(context.Background()); got != nil {
		t.Errorf("empty context returned %+v", got)
	}

	data := &session.Data{Email: "x@y.z"}
	ctx := context.WithValue(context.Background(), SessionKey, data)
	if got := SessionFromCtx(ctx); got != data {
		t.Error("session not recovered from context")
	}
}
