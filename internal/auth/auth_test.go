package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	apperrors "github.com/abrezinsky/surveydesk/internal/errors"
)

const testSecret = "test-secret-0123456789"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

// =============================================================================
// Tokens
// =============================================================================

func TestIssueAndParse(t *testing.T) {
	a := New(testSecret)

	token, err := a.SessionToken(7, "ada@example.com", "admin")
	if err != nil {
		t.Fatalf("SessionToken failed: %v", err)
	}

	claims, err := a.Parse(token, PurposeSession)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "ada@example.com" || claims.Role != "admin" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestParse_WrongPurpose(t *testing.T) {
	a := New(testSecret)
	token, _ := a.Issue(0, "ada@example.com", "", PurposeReset, ResetExpiry)

	if _, err := a.Parse(token, PurposeSession); err != ErrWrongPurpose {
		t.Errorf("expected ErrWrongPurpose, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	a := New(testSecret)
	token, _ := a.Issue(1, "ada@example.com", "user", PurposeSession, time.Minute)

	a.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := a.Parse(token, PurposeSession); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_OtherSecret(t *testing.T) {
	token, _ := New("another-secret-abcdefgh").SessionToken(1, "a@b.c", "user")

	if _, err := New(testSecret).Parse(token, PurposeSession); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := New(testSecret).Parse("garbage", PurposeSession); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

// =============================================================================
// Middleware
// =============================================================================

func TestRequireAuth_AllowsAdminCookie(t *testing.T) {
	a := New(testSecret)
	token, _ := a.SessionToken(1, "admin@example.com", "admin")

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()

	a.RequireAuth(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestRequireAuth_RedirectsNonAdmin(t *testing.T) {
	a := New(testSecret)
	token, _ := a.SessionToken(2, "user@example.com", "user")

	for _, cookie := range []*http.Cookie{nil, {Name: CookieName, Value: token}, {Name: CookieName, Value: "bad"}} {
		req := httptest.NewRequest("GET", "/admin", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rr := httptest.NewRecorder()

		a.RequireAuth(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusFound {
			t.Errorf("expected 302 redirect, got %d", rr.Code)
		}
		if rr.Header().Get("Location") != "/admin/login" {
			t.Errorf("expected redirect to /admin/login, got %s", rr.Header().Get("Location"))
		}
	}
}

func TestRequireAuthAPI_Bearer(t *testing.T) {
	a := New(testSecret)
	token, _ := a.SessionToken(3, "user@example.com", "user")

	req := httptest.NewRequest("GET", "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	a.RequireAuthAPI(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestRequireAuthAPI_Rejects(t *testing.T) {
	a := New(testSecret)
	reset, _ := a.Issue(3, "user@example.com", "user", PurposeReset, ResetExpiry)

	for _, header := range []string{"", "Bearer nope", "Bearer " + reset, "Basic abc"} {
		req := httptest.NewRequest("GET", "/api/notifications", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()

		a.RequireAuthAPI(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"code":"UNAUTHORIZED"`) {
			t.Errorf("unexpected body %s", rr.Body.String())
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	a := New(testSecret)
	token, _ := a.SessionToken(3, "user@example.com", "user")

	rr := httptest.NewRecorder()
	a.OptionalAuth(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusTeapot {
		t.Errorf("expected handler to run without claims, got %d", rr.Code)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	a.OptionalAuth(okHandler()).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected claims attached, got %d", rr.Code)
	}
}

func TestRequireRole(t *testing.T) {
	guard := RequireRole("admin", "business")

	tests := []struct {
		name   string
		claims *Claims
		want   int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"user", &Claims{Role: "user"}, http.StatusForbidden},
		{"business", &Claims{Role: "business"}, http.StatusOK},
		{"admin", &Claims{Role: "admin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rr := httptest.NewRecorder()
			guard(okHandler()).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestSessionCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "abc")
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "abc" || !cookies[0].HttpOnly {
		t.Errorf("unexpected cookie %+v", cookies)
	}

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr)
	cookies = rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected expiring cookie, got %+v", cookies)
	}
}

// =============================================================================
// Passwords and OTP
// =============================================================================

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secret#123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword("Secret#123", hash) {
		t.Error("expected password to match")
	}
	if CheckPassword("secret#123", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		fields   []string
	}{
		{"valid", "Secret#123", "Secret#123", nil},
		{"short", "Se#1", "Se#1", []string{"password"}},
		{"no special", "Secret123", "Secret123", []string{"password"}},
		{"no upper", "secret#123", "secret#123", []string{"password"}},
		{"mismatch", "Secret#123", "Secret#124", []string{"confirm_password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := apperrors.FieldErrors{}
			ValidatePassword(fields, "password", "confirm_password", tt.password, tt.confirm)
			if len(fields) != len(tt.fields) {
				t.Fatalf("expected fields %v, got %v", tt.fields, fields)
			}
			for _, f := range tt.fields {
				if len(fields[f]) == 0 {
					t.Errorf("expected error on %s, got %v", f, fields)
				}
			}
		})
	}
}

func TestGeneratePassword_PassesRules(t *testing.T) {
	for i := 0; i < 20; i++ {
		pw := GeneratePassword()
		fields := apperrors.FieldErrors{}
		ValidatePassword(fields, "password", "", pw, "")
		if !fields.Empty() {
			t.Errorf("generated password %q fails rules: %v", pw, fields)
		}
		if parts := strings.Split(pw, "-"); len(parts) != 3 {
			t.Errorf("expected 3 dash-separated words, got %q", pw)
		}
	}
}

func TestGenerateOTP(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		otp := GenerateOTP()
		if !re.MatchString(otp) {
			t.Errorf("expected 6 digits, got %q", otp)
		}
		seen[otp] = true
	}
	if len(seen) < 2 {
		t.Error("expected varying codes")
	}
}

// =============================================================================
// Passkeys
// =============================================================================

func TestPasskeyChallenge(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	parsed, err := ParsePublicKey(base64.StdEncoding.EncodeToString(pub))
	if err != nil {
		t.Fatalf("ParsePublicKey failed: %v", err)
	}

	challenge, err := NewChallenge()
	if err != nil || len(challenge) != ChallengeSize {
		t.Fatalf("NewChallenge() = %d bytes, %v", len(challenge), err)
	}

	sig := base64.RawURLEncoding.EncodeToString(ed25519.Sign(priv, challenge))
	if !VerifyChallenge(parsed, challenge, sig) {
		t.Error("expected signature to verify")
	}

	other, _ := NewChallenge()
	if VerifyChallenge(parsed, other, sig) {
		t.Error("signature over another challenge must not verify")
	}
	if VerifyChallenge(parsed, challenge, "not base64!") {
		t.Error("garbage signature must not verify")
	}
}

func TestParsePublicKey_Invalid(t *testing.T) {
	if _, err := ParsePublicKey(base64.StdEncoding.EncodeToString([]byte("short"))); err != ErrInvalidPublicKey {
		t.Errorf("expected ErrInvalidPublicKey, got %v", err)
	}
}
