package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// Bearer tokens are HMAC-SHA256 JWTs carrying the caller's role and, for
// students, the student aggregate ID. The portal's SSO gateway issues them in
// production; Issue exists for development and tests.
// ══════════════════════════════════════════════════════════════════════════════

// AuthConfig configures token verification.
type AuthConfig struct {
	// Secret signs and verifies tokens.
	Secret string

	// Issuer expected in token claims. Empty disables the check.
	Issuer string

	// TokenTTL is the lifetime of tokens created by Issue.
	TokenTTL time.Duration
}

// Claims are the token claims understood by this service.
type Claims struct {
	jwt.RegisteredClaims

	// Role - caller role (student, professor, college, admin, super_admin).
	Role string `json:"role"`

	// StudentID - student aggregate ID, set only for student tokens.
	StudentID string `json:"student_id,omitempty"`
}

// Authenticator verifies bearer tokens and resolves them to principals.
type Authenticator struct {
	config AuthConfig
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(config AuthConfig) *Authenticator {
	if config.TokenTTL <= 0 {
		config.TokenTTL = 12 * time.Hour
	}
	return &Authenticator{config: config}
}

// Verify parses and validates a token, returning the principal it encodes.
func (a *Authenticator) Verify(tokenString string) (identity.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.config.Issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.config.Secret), nil
	}, opts...)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	role := identity.Role(claims.Role)
	if !role.IsValid() {
		return identity.Principal{}, identity.ErrUnknownRole
	}
	if claims.Subject == "" {
		return identity.Principal{}, errors.New("auth: token has no subject")
	}
	if role == identity.RoleStudent && claims.StudentID == "" {
		return identity.Principal{}, errors.New("auth: student token has no student_id")
	}

	return identity.Principal{
		ID:        claims.Subject,
		Role:      role,
		StudentID: claims.StudentID,
	}, nil
}

// Issue creates a signed token for the principal. Development helper.
func (a *Authenticator) Issue(p identity.Principal, now time.Time) (string, error) {
	if !p.Role.IsValid() {
		return "", identity.ErrUnknownRole
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    a.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TokenTTL)),
		},
		Role:      string(p.Role),
		StudentID: p.StudentID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.config.Secret))
}

// ══════════════════════════════════════════════════════════════════════════════
// PRINCIPAL CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyPrincipal contextKey = "principal"
)

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal).(identity.Principal)
	return p, ok
}

func withPrincipal(ctx context.Context, p identity.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// authMiddleware rejects requests without a valid bearer token and stores the
// principal in the request context.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authorization header is required")
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "invalid_token", "Authorization header must use the Bearer scheme")
			return
		}

		principal, err := s.auth.Verify(strings.TrimSpace(tokenString))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid or expired")
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	}
}
