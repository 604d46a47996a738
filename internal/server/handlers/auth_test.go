package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldsync/internal/crypto"
	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/jwt"
	"github.com/iudanet/fieldsync/pkg/api"
)

const testAccessKey = "field-access-key-123"

func newAuthFixture(t *testing.T) (*AuthHandler, *mockCoordinatorStorage, *mockTokenStorage, *jwt.Service) {
	t.Helper()

	keyHash, err := crypto.HashAccessKey(testAccessKey)
	require.NoError(t, err)

	coordinators := &mockCoordinatorStorage{
		coordinators: map[string]*models.Coordinator{
			"coord-01": {
				ID:            "internal-id-1",
				CoordinatorID: "coord-01",
				AccessKeyHash: keyHash,
				StorageSalt:   "c2FsdA==",
				CreatedAt:     time.Now(),
			},
		},
	}
	tokens := &mockTokenStorage{tokens: make(map[string]*models.RefreshToken)}
	jwtService := jwt.NewService("test-secret", 15*time.Minute, 24*time.Hour, 5*time.Minute)

	handler := NewAuthHandler(setupTestLogger(), coordinators, tokens, jwtService)
	return handler, coordinators, tokens, jwtService
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, coordinators, tokens, jwtService := newAuthFixture(t)

	keyHash, err := crypto.HashAccessKey(testAccessKey)
	require.NoError(t, err)

	req := postJSON(t, "/api/v1/auth/login", api.LoginRequest{
		CoordinatorID: "coord-01",
		AccessKeyHash: keyHash,
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "c2FsdA==", resp.StorageSalt)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := jwtService.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "internal-id-1", claims.CoordinatorID)
	assert.Equal(t, "coord-01", claims.Subject)
	assert.False(t, claims.Elevated)

	// Refresh token сохранен, last login обновлен
	require.Len(t, tokens.savedTokens, 1)
	assert.Equal(t, "internal-id-1", tokens.savedTokens[0].CoordinatorID)
	assert.NotNil(t, coordinators.coordinators["coord-01"].LastLoginAt)
}

func TestAuthHandler_Login_InvalidKey(t *testing.T) {
	handler, _, tokens, _ := newAuthFixture(t)

	wrongHash, err := crypto.HashAccessKey("wrong-access-key")
	require.NoError(t, err)

	req := postJSON(t, "/api/v1/auth/login", api.LoginRequest{
		CoordinatorID: "coord-01",
		AccessKeyHash: wrongHash,
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, tokens.savedTokens)
}

func TestAuthHandler_Login_UnknownCoordinator(t *testing.T) {
	handler, _, _, _ := newAuthFixture(t)

	keyHash, err := crypto.HashAccessKey(testAccessKey)
	require.NoError(t, err)

	req := postJSON(t, "/api/v1/auth/login", api.LoginRequest{
		CoordinatorID: "nobody",
		AccessKeyHash: keyHash,
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	// Unknown coordinator и неверный ключ неразличимы в ответе
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Login_InvalidJSON(t *testing.T) {
	handler, _, _, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_BadCoordinatorID(t *testing.T) {
	handler, _, _, _ := newAuthFixture(t)

	req := postJSON(t, "/api/v1/auth/login", api.LoginRequest{
		CoordinatorID: "двa!",
		AccessKeyHash: "deadbeef",
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Refresh_RotatesTokens(t *testing.T) {
	handler, _, tokens, _ := newAuthFixture(t)

	tokens.tokens["old-refresh"] = &models.RefreshToken{
		Token:         "old-refresh",
		CoordinatorID: "internal-id-1",
		ExpiresAt:     time.Now().Add(time.Hour),
		CreatedAt:     time.Now(),
	}

	req := postJSON(t, "/api/v1/auth/refresh", api.RefreshRequest{RefreshToken: "old-refresh"})
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-refresh", resp.RefreshToken)

	// Старый токен удален, новый сохранен
	_, oldExists := tokens.tokens["old-refresh"]
	assert.False(t, oldExists)
	_, newExists := tokens.tokens[resp.RefreshToken]
	assert.True(t, newExists)
}

func TestAuthHandler_Refresh_Expired(t *testing.T) {
	handler, _, tokens, _ := newAuthFixture(t)

	tokens.tokens["stale"] = &models.RefreshToken{
		Token:         "stale",
		CoordinatorID: "internal-id-1",
		ExpiresAt:     time.Now().Add(-time.Minute),
	}

	req := postJSON(t, "/api/v1/auth/refresh", api.RefreshRequest{RefreshToken: "stale"})
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Refresh_Unknown(t *testing.T) {
	handler, _, _, _ := newAuthFixture(t)

	req := postJSON(t, "/api/v1/auth/refresh", api.RefreshRequest{RefreshToken: "no-such-token"})
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_StepUp_Success(t *testing.T) {
	handler, _, _, jwtService := newAuthFixture(t)

	accessToken, _, err := jwtService.GenerateAccessToken("internal-id-1", "coord-01")
	require.NoError(t, err)

	keyHash, err := crypto.HashAccessKey(testAccessKey)
	require.NoError(t, err)

	req := postJSON(t, "/api/v1/auth/stepup", api.StepUpRequest{AccessKeyHash: keyHash})
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w := httptest.NewRecorder()
	handler.StepUp(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.StepUpResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	claims, err := jwtService.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Elevated)
	assert.Equal(t, int64(300), resp.ExpiresIn)
}

func TestAuthHandler_StepUp_WrongKey(t *testing.T) {
	handler, _, _, jwtService := newAuthFixture(t)

	accessToken, _, err := jwtService.GenerateAccessToken("internal-id-1", "coord-01")
	require.NoError(t, err)

	wrongHash, err := crypto.HashAccessKey("totally-wrong-key")
	require.NoError(t, err)

	req := postJSON(t, "/api/v1/auth/stepup", api.StepUpRequest{AccessKeyHash: wrongHash})
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w := httptest.NewRecorder()
	handler.StepUp(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_StepUp_NoToken(t *testing.T) {
	handler, _, _, _ := newAuthFixture(t)

	req := postJSON(t, "/api/v1/auth/stepup", api.StepUpRequest{AccessKeyHash: "deadbeef"})
	w := httptest.NewRecorder()
	handler.StepUp(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	handler, _, tokens, jwtService := newAuthFixture(t)

	tokens.tokens["r1"] = &models.RefreshToken{Token: "r1", CoordinatorID: "internal-id-1", ExpiresAt: time.Now().Add(time.Hour)}
	tokens.tokens["r2"] = &models.RefreshToken{Token: "r2", CoordinatorID: "internal-id-1", ExpiresAt: time.Now().Add(time.Hour)}

	accessToken, _, err := jwtService.GenerateAccessToken("internal-id-1", "coord-01")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, tokens.tokens)
}
