package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndValidateToken(t *testing.T) {
	token, expiresAt, err := IssueToken(testSecret, "alice", "sess-1", time.Hour, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ValidateSessionToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID())
}

func TestValidateSessionToken_WrongSecret(t *testing.T) {
	token, _, err := IssueToken(testSecret, "alice", "sess-1", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ValidateSessionToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateSessionToken_Expired(t *testing.T) {
	token, _, err := IssueToken(testSecret, "alice", "sess-1", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ValidateSessionToken(token, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateSessionToken_MissingSession(t *testing.T) {
	claims := SessionClaims{
		UserID: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateSessionToken(signed, testSecret)
	assert.Error(t, err)
}

func TestIssueToken_NoSecret(t *testing.T) {
	_, _, err := IssueToken("", "alice", "sess", time.Hour, time.Now())
	assert.Error(t, err)
}

func TestDiscoverJWKSURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"issuer":"x","jwks_uri":"https://idp.example.com/keys"}`))
	}))
	defer srv.Close()

	url, err := discoverJWKSURL(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example.com/keys", url)

	_, err = discoverJWKSURL(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestDiscoverJWKSURL_MissingURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"issuer":"x"}`))
	}))
	defer srv.Close()

	_, err := discoverJWKSURL(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
}
