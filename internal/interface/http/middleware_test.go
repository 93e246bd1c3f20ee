package http

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
)

func testAuthenticator() *Authenticator {
	return NewAuthenticator(AuthConfig{
		Secret:   "test-secret",
		Issuer:   "scholarship-hub",
		TokenTTL: time.Hour,
	})
}

func TestAuthenticatorRoundTrip(t *testing.T) {
	auth := testAuthenticator()
	now := time.Now()

	t.Run("student token", func(t *testing.T) {
		token, err := auth.Issue(identity.Principal{
			ID:        "user-1",
			Role:      identity.RoleStudent,
			StudentID: "stu-1",
		}, now)
		require.NoError(t, err)

		p, err := auth.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", p.ID)
		assert.Equal(t, identity.RoleStudent, p.Role)
		assert.Equal(t, "stu-1", p.StudentID)
	})

	t.Run("staff token carries no student id", func(t *testing.T) {
		token, err := auth.Issue(identity.Principal{ID: "staff-1", Role: identity.RoleCollege}, now)
		require.NoError(t, err)

		p, err := auth.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, identity.RoleCollege, p.Role)
		assert.Empty(t, p.StudentID)
	})
}

func TestAuthenticatorRejections(t *testing.T) {
	auth := testAuthenticator()
	now := time.Now()

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthenticator(AuthConfig{Secret: "other-secret", Issuer: "scholarship-hub"})
		token, err := other.Issue(identity.Principal{ID: "staff-1", Role: identity.RoleAdmin}, now)
		require.NoError(t, err)

		_, err = auth.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := auth.Issue(identity.Principal{ID: "staff-1", Role: identity.RoleAdmin}, now.Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = auth.Verify(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		foreign := NewAuthenticator(AuthConfig{Secret: "test-secret", Issuer: "someone-else"})
		token, err := foreign.Issue(identity.Principal{ID: "staff-1", Role: identity.RoleAdmin}, now)
		require.NoError(t, err)

		_, err = auth.Verify(token)
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := auth.Issue(identity.Principal{ID: "u1", Role: "teacher"}, now)
		assert.ErrorIs(t, err, identity.ErrUnknownRole)
	})

	t.Run("student token without student id", func(t *testing.T) {
		// Issue does not enforce the pairing; Verify must.
		token, err := auth.Issue(identity.Principal{ID: "user-1", Role: identity.RoleStudent}, now)
		require.NoError(t, err)

		_, err = auth.Verify(token)
		assert.Error(t, err)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "staff-1",
				Issuer:    "scholarship-hub",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			Role: string(identity.RoleAdmin),
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = auth.Verify(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.Verify("not-a-token")
		assert.Error(t, err)
	})
}
