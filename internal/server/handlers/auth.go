package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/fieldsync/internal/crypto"
	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/jwt"
	"github.com/iudanet/fieldsync/internal/server/storage"
	"github.com/iudanet/fieldsync/internal/validation"
	"github.com/iudanet/fieldsync/pkg/api"
)

// AuthHandler обрабатывает запросы авторизации координаторов
type AuthHandler struct {
	logger       *slog.Logger
	coordinators storage.CoordinatorStorage
	tokens       storage.TokenStorage
	jwtService   *jwt.Service
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, coordinators storage.CoordinatorStorage, tokens storage.TokenStorage, jwtService *jwt.Service) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		coordinators: coordinators,
		tokens:       tokens,
		jwtService:   jwtService,
	}
}

// Login обрабатывает POST /api/v1/auth/login.
// Координатор присылает SHA256 хеш access key; сам ключ по сети не ходит.
// В ответе кроме токенов — storage_salt для деривации локального ключа
// шифрования на клиенте.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateCoordinatorID(req.CoordinatorID); err != nil {
		h.logger.WarnContext(ctx, "invalid coordinator id", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.AccessKeyHash == "" {
		sendError(h.logger, w, "access_key_hash is required", http.StatusBadRequest)
		return
	}

	coordinator, err := h.coordinators.GetCoordinator(ctx, req.CoordinatorID)
	if err != nil {
		if errors.Is(err, storage.ErrCoordinatorNotFound) {
			h.logger.WarnContext(ctx, "login failed: coordinator not found",
				slog.String("coordinator_id", req.CoordinatorID))
			sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get coordinator", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := crypto.VerifyAccessKeyHash(req.AccessKeyHash, coordinator.AccessKeyHash); err != nil {
		h.logger.WarnContext(ctx, "login failed: invalid access key",
			slog.String("coordinator_id", req.CoordinatorID))
		sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	accessToken, expiresIn, err := h.jwtService.GenerateAccessToken(coordinator.ID, coordinator.CoordinatorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	refreshToken, expiresAt, err := h.jwtService.GenerateRefreshToken()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.tokens.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:         refreshToken,
		CoordinatorID: coordinator.ID,
		ExpiresAt:     expiresAt,
		CreatedAt:     time.Now(),
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to save refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.coordinators.UpdateLastLogin(ctx, coordinator.ID, time.Now()); err != nil {
		// Не критичная ошибка
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "coordinator logged in",
		slog.String("coordinator_id", coordinator.CoordinatorID))

	sendJSON(h.logger, w, api.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		StorageSalt:  coordinator.StorageSalt,
		ExpiresIn:    expiresIn,
	}, http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh.
// Refresh token одноразовый: выдается новая пара, старый удаляется.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		sendError(h.logger, w, "refresh_token is required", http.StatusBadRequest)
		return
	}

	storedToken, err := h.tokens.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "refresh token not found")
			sendError(h.logger, w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if storedToken.IsExpired() {
		h.logger.WarnContext(ctx, "refresh token expired")
		sendError(h.logger, w, "refresh token expired", http.StatusUnauthorized)
		return
	}

	coordinator, err := h.coordinators.GetCoordinatorByID(ctx, storedToken.CoordinatorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get coordinator", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	newAccessToken, expiresIn, err := h.jwtService.GenerateAccessToken(coordinator.ID, coordinator.CoordinatorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	newRefreshToken, newExpiresAt, err := h.jwtService.GenerateRefreshToken()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.tokens.DeleteRefreshToken(ctx, req.RefreshToken); err != nil {
		h.logger.WarnContext(ctx, "failed to delete old refresh token", slog.Any("error", err))
	}

	if err := h.tokens.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:         newRefreshToken,
		CoordinatorID: coordinator.ID,
		ExpiresAt:     newExpiresAt,
		CreatedAt:     time.Now(),
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to save refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("coordinator_id", coordinator.CoordinatorID))

	sendJSON(h.logger, w, api.TokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    expiresIn,
	}, http.StatusOK)
}

// StepUp обрабатывает POST /api/v1/auth/stepup.
// Требует действующего access token И повторного предъявления хеша access key.
// Выдает короткоживущий elevated токен для крупных overrides.
func (h *AuthHandler) StepUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := h.bearerClaims(r)
	if err != nil {
		h.logger.WarnContext(ctx, "step-up rejected", slog.Any("error", err))
		sendError(h.logger, w, "invalid or expired access token", http.StatusUnauthorized)
		return
	}

	var req api.StepUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AccessKeyHash == "" {
		sendError(h.logger, w, "access_key_hash is required", http.StatusBadRequest)
		return
	}

	coordinator, err := h.coordinators.GetCoordinatorByID(ctx, claims.CoordinatorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get coordinator", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := crypto.VerifyAccessKeyHash(req.AccessKeyHash, coordinator.AccessKeyHash); err != nil {
		h.logger.WarnContext(ctx, "step-up failed: invalid access key",
			slog.String("coordinator_id", coordinator.CoordinatorID))
		sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	elevated, expiresIn, err := h.jwtService.GenerateStepUpToken(coordinator.ID, coordinator.CoordinatorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate step-up token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "step-up token issued",
		slog.String("coordinator_id", coordinator.CoordinatorID))

	sendJSON(h.logger, w, api.StepUpResponse{
		AccessToken: elevated,
		ExpiresIn:   expiresIn,
	}, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout.
// Удаляет все refresh токены координатора.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := h.bearerClaims(r)
	if err != nil {
		sendError(h.logger, w, "invalid or expired access token", http.StatusUnauthorized)
		return
	}

	deleted, err := h.tokens.DeleteCoordinatorTokens(ctx, claims.CoordinatorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete coordinator tokens", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "coordinator logged out",
		slog.String("coordinator_id", claims.Subject),
		slog.Int("tokens_deleted", deleted))

	w.WriteHeader(http.StatusNoContent)
}

// bearerClaims валидирует Bearer access token из Authorization header
func (h *AuthHandler) bearerClaims(r *http.Request) (*jwt.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, errors.New("missing bearer token")
	}
	return h.jwtService.ValidateAccessToken(parts[1])
}
