// auth_flow_test.go covers the operator sign-in flow end to end: login,
// TOTP enrollment, code verification, and logout. The tests exercise real
// PostgreSQL and Valkey connections and are skipped when those services
// are unavailable.
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"lumafin/internal/session"
)

// postLogin submits the login form with the given credentials.
func postLogin(t *testing.T, env *authEnv, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, req)
	return rec
}

func TestLoginPageRendersForm(t *testing.T) {
	env := newAuthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	rec := httptest.NewRecorder()
	env.Auth.LoginPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestLoginPageRedirectsWhenAuthenticated(t *testing.T) {
	env := newAuthEnv(t)

	sess := testSession(uuid.New(), "admin@lumafin.local", "admin", true)
	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	env.Auth.LoginPage(rec, req)

	wantRedirect(t, rec, "/admin/dashboard")
}

func TestLoginSubmitStartsTwoFASetup(t *testing.T) {
	env := newAuthEnv(t)
	admin := env.seededAdmin(t)

	// A cleared enrollment makes the redirect target predictable.
	if err := env.Users.ResetTOTP(admin.ID); err != nil {
		t.Fatalf("reset totp: %v", err)
	}

	rec := postLogin(t, env, "admin@lumafin.local", "admin")
	wantRedirect(t, rec, "/admin/2fa/setup")

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("no session cookie set after login")
	}
}

func TestLoginSubmitWithEnrolledTOTPGoesToVerify(t *testing.T) {
	env := newAuthEnv(t)
	admin := env.seededAdmin(t)

	if err := env.Users.SetTOTPSecret(admin.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.Users.EnableTOTP(admin.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}
	t.Cleanup(func() { env.Users.ResetTOTP(admin.ID) })

	rec := postLogin(t, env, "admin@lumafin.local", "admin")
	wantRedirect(t, rec, "/admin/2fa/verify")
}

func TestLoginSubmitRejectsBadCredentials(t *testing.T) {
	env := newAuthEnv(t)
	env.seededAdmin(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "admin@lumafin.local", "not-the-password"},
		{"unknown email", "nobody@lumafin.local", "irrelevant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postLogin(t, env, tt.email, tt.password)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want re-rendered login", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Invalid email or password") {
				t.Error("error message missing from response")
			}
		})
	}
}

func TestTwoFASetupPageStoresSecret(t *testing.T) {
	env := newAuthEnv(t)
	admin := env.seededAdmin(t)

	if err := env.Users.ResetTOTP(admin.ID); err != nil {
		t.Fatalf("reset totp: %v", err)
	}

	sess := testSession(admin.ID, admin.Email, string(admin.Role), false)
	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	env.Auth.TwoFASetupPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "base64,") {
		t.Error("QR code missing from setup page")
	}

	// The generated secret landed in the database.
	updated, err := env.Users.FindByID(admin.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload admin: %v", err)
	}
	if updated.TOTPSecret == nil || *updated.TOTPSecret == "" {
		t.Error("totp secret not stored")
	}
}

func TestTwoFAPagesRequireSession(t *testing.T) {
	env := newAuthEnv(t)

	endpoints := []struct {
		name string
		call func(http.ResponseWriter, *http.Request)
	}{
		{"setup page", env.Auth.TwoFASetupPage},
		{"verify page", env.Auth.TwoFAVerifyPage},
		{"verify submit", env.Auth.TwoFAVerifySubmit},
	}

	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/2fa/verify", nil)
			rec := httptest.NewRecorder()
			ep.call(rec, req)
			wantRedirect(t, rec, "/admin/login")
		})
	}
}

func TestTwoFAVerifySubmitCompletesLogin(t *testing.T) {
	env := newAuthEnv(t)
	admin := env.seededAdmin(t)

	const secret = "JBSWY3DPEHPK3PXP"
	if err := env.Users.SetTOTPSecret(admin.ID, secret); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.Users.EnableTOTP(admin.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}
	t.Cleanup(func() { env.Users.ResetTOTP(admin.ID) })

	// A real half-done session in Valkey, as LoginSubmit would create.
	createRec := httptest.NewRecorder()
	sess := testSession(admin.ID, admin.Email, string(admin.Role), false)
	if _, err := env.Sessions.Create(context.Background(), createRec, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	form := url.Values{}
	form.Set("code", code)
	req := httptest.NewRequest(http.MethodPost, "/admin/2fa/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range createRec.Result().Cookies() {
		req.AddCookie(c)
	}
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	env.Auth.TwoFAVerifySubmit(rec, req)

	wantRedirect(t, rec, "/admin/dashboard")

	// The stored session now carries the completed 2FA flag.
	stored, err := env.Sessions.Get(context.Background(), req)
	if err != nil || stored == nil {
		t.Fatalf("reload session: %v", err)
	}
	if !stored.TwoFADone {
		t.Error("session not marked 2FA-complete")
	}
}

func TestTwoFAVerifySubmitRejectsBadCode(t *testing.T) {
	env := newAuthEnv(t)
	admin := env.seededAdmin(t)

	if err := env.Users.SetTOTPSecret(admin.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.Users.EnableTOTP(admin.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}
	t.Cleanup(func() { env.Users.ResetTOTP(admin.ID) })

	sess := testSession(admin.ID, admin.Email, string(admin.Role), false)
	form := url.Values{}
	form.Set("code", "000000")
	req := httptest.NewRequest(http.MethodPost, "/admin/2fa/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	env.Auth.TwoFAVerifySubmit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want re-rendered form", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid code") {
		t.Error("error message missing from response")
	}
}

func TestTwoFAVerifySubmitWithoutSecretRedirectsToSetup(t *testing.T) {
	env := newAuthEnv(t)
	admin := env.seededAdmin(t)

	if err := env.Users.ResetTOTP(admin.ID); err != nil {
		t.Fatalf("reset totp: %v", err)
	}

	sess := testSession(admin.ID, admin.Email, string(admin.Role), false)
	form := url.Values{}
	form.Set("code", "123456")
	req := httptest.NewRequest(http.MethodPost, "/admin/2fa/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	env.Auth.TwoFAVerifySubmit(rec, req)

	wantRedirect(t, rec, "/admin/2fa/setup")
}

func TestLogoutDestroysSessionAndDraft(t *testing.T) {
	env := newAuthEnv(t)
	admin := env.seededAdmin(t)

	createRec := httptest.NewRecorder()
	sess := testSession(admin.ID, admin.Email, string(admin.Role), true)
	sessID, err := env.Sessions.Create(context.Background(), createRec, sess)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// The session owns a draft controller that logout must drop.
	before := env.Drafts.Get(sessID)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	for _, c := range createRec.Result().Cookies() {
		req.AddCookie(c)
	}
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	env.Auth.Logout(rec, req)

	wantRedirect(t, rec, "/admin/login")

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge >= 0 {
			t.Errorf("session cookie MaxAge = %d, want cleared", c.MaxAge)
		}
	}
	if env.Drafts.Get(sessID) == before {
		t.Error("draft controller survived logout")
	}
}

func TestLogoutWithoutCookie(t *testing.T) {
	env := newAuthEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	rec := httptest.NewRecorder()
	env.Auth.Logout(rec, req)

	wantRedirect(t, rec, "/admin/login")
}
