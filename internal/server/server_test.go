package server

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinaka-dev/congestion-map-services/api/internal/config"
	commonhttp "github.com/machinaka-dev/congestion-map-services/api/internal/interfaces/http/common"
)

func newAuthTestServer(audience string) *Server {
	return &Server{
		logger: log.New(io.Discard, "", 0),
		jwtConfigs: []config.JWTConfig{
			{Issuer: "congestion-map-auth", Secret: []byte("test-secret")},
		},
		jwtAudience: audience,
	}
}

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func callProtected(srv *Server, authHeader string) (*httptest.ResponseRecorder, bool) {
	authenticated := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authenticated = commonhttp.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/jobs/congestion", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	recorder := httptest.NewRecorder()
	srv.authMiddleware(next).ServeHTTP(recorder, req)
	return recorder, authenticated
}

func TestAuthMiddleware_RejectsMissingHeader(t *testing.T) {
	recorder, authenticated := callProtected(newAuthTestServer(""), "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, authenticated)
}

func TestAuthMiddleware_RejectsBadSignature(t *testing.T) {
	tokenString := signToken(t, "wrong-secret", jwt.RegisteredClaims{
		Issuer:    "congestion-map-auth",
		Subject:   "admin-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	recorder, authenticated := callProtected(newAuthTestServer(""), "Bearer "+tokenString)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, authenticated)
}

func TestAuthMiddleware_RejectsWrongIssuer(t *testing.T) {
	tokenString := signToken(t, "test-secret", jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "admin-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	recorder, _ := callProtected(newAuthTestServer(""), "Bearer "+tokenString)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddleware_RejectsWrongAudience(t *testing.T) {
	tokenString := signToken(t, "test-secret", jwt.RegisteredClaims{
		Issuer:    "congestion-map-auth",
		Subject:   "admin-1",
		Audience:  jwt.ClaimStrings{"another-api"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	recorder, _ := callProtected(newAuthTestServer("congestion-map-api"), "Bearer "+tokenString)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	tokenString := signToken(t, "test-secret", jwt.RegisteredClaims{
		Issuer:    "congestion-map-auth",
		Subject:   "admin-1",
		Audience:  jwt.ClaimStrings{"congestion-map-api"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	recorder, authenticated := callProtected(newAuthTestServer("congestion-map-api"), "Bearer "+tokenString)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, authenticated)
}

func TestEverySpec(t *testing.T) {
	assert.Equal(t, "@every 15m0s", everySpec(15*time.Minute))
	assert.Equal(t, "@every 24h0m0s", everySpec(24*time.Hour))
}
