package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/config"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

func newVerifier(t *testing.T, issuer string) *Verifier {
	t.Helper()
	v, err := NewVerifier(config.AuthConfig{JWTSecret: "test-secret", Issuer: issuer, Leeway: time.Second})
	require.NoError(t, err)
	return v
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(config.AuthConfig{})
	assert.Error(t, err)
}

func TestVerifier_RoundTrip(t *testing.T) {
	v := newVerifier(t, "medlit")
	session := domain.Session{UserID: uuid.New(), Email: "doc@example.org"}

	token, err := v.Sign(session, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestVerifier_Rejects(t *testing.T) {
	v := newVerifier(t, "medlit")
	userID := uuid.New()

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    "medlit",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("other"), valid())},
		{name: "wrong algorithm", token: sign(jwt.SigningMethodHS512, []byte("test-secret"), valid())},
		{name: "expired", token: func() string {
			c := valid()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return sign(jwt.SigningMethodHS256, []byte("test-secret"), c)
		}()},
		{name: "missing expiry", token: func() string {
			c := valid()
			c.ExpiresAt = nil
			return sign(jwt.SigningMethodHS256, []byte("test-secret"), c)
		}()},
		{name: "wrong issuer", token: func() string {
			c := valid()
			c.Issuer = "someone-else"
			return sign(jwt.SigningMethodHS256, []byte("test-secret"), c)
		}()},
		{name: "subject not a uuid", token: func() string {
			c := valid()
			c.Subject = "42"
			return sign(jwt.SigningMethodHS256, []byte("test-secret"), c)
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrUnauthorized))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc.def", "abc.def", true},
		{"Bearer ", "", false},
		{"Basic dXNlcg==", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestSessionContext(t *testing.T) {
	_, ok := SessionFromContext(context.Background())
	assert.False(t, ok)

	s := domain.Session{UserID: uuid.New()}
	got, ok := SessionFromContext(WithSession(context.Background(), s))
	require.True(t, ok)
	assert.Equal(t, s, got)
}
