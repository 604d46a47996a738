package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldsync/internal/server/handlers"
	"github.com/iudanet/fieldsync/internal/server/jwt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJWT() *jwt.Service {
	return jwt.NewService("test-secret", 15*time.Minute, 24*time.Hour, 5*time.Minute)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWT()
	token, _, err := jwtService.GenerateAccessToken("internal-id-1", "coord-01")
	require.NoError(t, err)

	var gotCoordinatorID, gotSubject string
	var gotElevated bool
	handler := AuthMiddleware(testLogger(), jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCoordinatorID, _ = handlers.GetCoordinatorID(r.Context())
		gotSubject, _ = handlers.GetCoordinatorSubject(r.Context())
		gotElevated = handlers.IsElevated(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/queue", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "internal-id-1", gotCoordinatorID)
	assert.Equal(t, "coord-01", gotSubject)
	assert.False(t, gotElevated)
}

func TestAuthMiddleware_ElevatedToken(t *testing.T) {
	jwtService := newTestJWT()
	token, _, err := jwtService.GenerateStepUpToken("internal-id-1", "coord-01")
	require.NoError(t, err)

	var gotElevated bool
	handler := AuthMiddleware(testLogger(), jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotElevated = handlers.IsElevated(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/priority/override", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotElevated)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	handler := AuthMiddleware(testLogger(), newTestJWT())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/queue", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_BadFormat(t *testing.T) {
	handler := AuthMiddleware(testLogger(), newTestJWT())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/queue", nil)
	req.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	handler := AuthMiddleware(testLogger(), newTestJWT())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/queue", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	other := jwt.NewService("other-secret", 15*time.Minute, 24*time.Hour, 5*time.Minute)
	token, _, err := other.GenerateAccessToken("internal-id-1", "coord-01")
	require.NoError(t, err)

	handler := AuthMiddleware(testLogger(), newTestJWT())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/queue", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
