package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName    = "surveydesk_session"
	SessionExpiry = 24 * time.Hour
	ResetExpiry   = 15 * time.Minute
	// RegistrationExpiry bounds the register/start -> register/complete window
	RegistrationExpiry = 30 * time.Minute
)

// Token purposes
const (
	PurposeSession      = "session"
	PurposeReset        = "reset"
	PurposeRegistration = "registration"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongPurpose = errors.New("token issued for another purpose")
)

// Claims are carried by every token the service issues
type Claims struct {
	UserID  int    `json:"uid,omitempty"`
	Email   string `json:"email"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Auth issues and checks HS256 tokens and guards routes with them
type Auth struct {
	secret []byte
	now    func() time.Time
}

// New creates an Auth signing with secret
func New(secret string) *Auth {
	return &Auth{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for purpose valid for ttl
func (a *Auth) Issue(userID int, email, role, purpose string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// SessionToken issues a 24h login token
func (a *Auth) SessionToken(userID int, email, role string) (string, error) {
	return a.Issue(userID, email, role, PurposeSession, SessionExpiry)
}

// Parse validates tokenStr and checks it was issued for purpose
func (a *Auth) Parse(tokenStr, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

type contextKey string

const claimsKey contextKey = "claims"

// WithClaims returns ctx carrying claims
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// UserFromContext returns the authenticated claims, or nil
func UserFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// TokenFromRequest reads a bearer token, falling back to the session cookie
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// ClaimsFromRequest validates the session token on r
func (a *Auth) ClaimsFromRequest(r *http.Request) (*Claims, bool) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, false
	}
	claims, err := a.Parse(token, PurposeSession)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireAuth middleware for admin pages (redirects to login unless an admin session is present)
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := a.ClaimsFromRequest(r); ok && claims.Role == "admin" {
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
			return
		}
		http.Redirect(w, r, "/admin/login", http.StatusFound)
	})
}

// RequireAuthAPI middleware for API endpoints (returns 401)
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := a.ClaimsFromRequest(r); ok {
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
			return
		}
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized - please log in")
	})
}

// OptionalAuth attaches claims when a valid token is present and never rejects
func (a *Auth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := a.ClaimsFromRequest(r); ok {
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows only users with one of roles. Use after RequireAuthAPI.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := UserFromContext(r.Context())
			if claims == nil {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized - please log in")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this resource")
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"code":"` + code + `","error":"` + msg + `"}`))
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
