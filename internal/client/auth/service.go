package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/fieldsync/internal/client/api"
	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/crypto"
	"github.com/iudanet/fieldsync/internal/validation"
	pkgapi "github.com/iudanet/fieldsync/pkg/api"
)

// refreshMargin запас до истечения access token, после которого
// AccessToken инициирует обновление
const refreshMargin = 30 * time.Second

// service реализует Service поверх API клиента и шифрующего хранилища сессии
type service struct {
	apiClient *api.Client
	store     *AuthStore
	logger    *slog.Logger

	mu            sync.Mutex
	encryptionKey []byte
	nowFn         func() time.Time
}

// Compile-time check that service implements Service
var _ Service = (*service)(nil)

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, store *AuthStore, logger *slog.Logger) Service {
	return &service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// LoginResult содержит результат авторизации
type LoginResult struct {
	CoordinatorID string
	ExpiresIn     int64 // время жизни access token в секундах
}

// Login выполняет аутентификацию координатора.
// Access key никогда не уходит на сервер в открытом виде: передается
// только его SHA256 хеш. Из access key локально деривируется ключ
// шифрования хранилища (Argon2id с серверной солью).
func (s *service) Login(ctx context.Context, coordinatorID, accessKey string) (*LoginResult, error) {
	if err := validation.ValidateCoordinatorID(coordinatorID); err != nil {
		return nil, fmt.Errorf("invalid coordinator id: %w", err)
	}
	if err := validation.ValidateAccessKey(accessKey); err != nil {
		return nil, fmt.Errorf("invalid access key: %w", err)
	}

	accessKeyHash, err := crypto.HashAccessKey(accessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to hash access key: %w", err)
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		CoordinatorID: coordinatorID,
		AccessKeyHash: accessKeyHash,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(resp.StorageSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode storage salt: %w", err)
	}

	key, err := crypto.DeriveStorageKey(accessKey, coordinatorID, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive storage key: %w", err)
	}

	s.mu.Lock()
	s.encryptionKey = key
	s.mu.Unlock()

	authData := &storage.AuthData{
		CoordinatorID: coordinatorID,
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		StorageSalt:   resp.StorageSalt,
		ExpiresAt:     s.nowFn().Unix() + resp.ExpiresIn,
	}
	if err := s.store.SaveAuth(ctx, authData, key); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	s.logger.Info("Coordinator logged in", "coordinator_id", coordinatorID)

	return &LoginResult{
		CoordinatorID: coordinatorID,
		ExpiresIn:     resp.ExpiresIn,
	}, nil
}

// Unlock восстанавливает сессию при новом запуске клиента: деривирует
// ключ из access key и сохраненной соли, проверяет расшифровку токенов.
func (s *service) Unlock(ctx context.Context, accessKey string) error {
	stored, err := s.store.GetAuthEncryptData(ctx)
	if err != nil {
		return fmt.Errorf("no stored session: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.StorageSalt)
	if err != nil {
		return fmt.Errorf("failed to decode storage salt: %w", err)
	}

	key, err := crypto.DeriveStorageKey(accessKey, stored.CoordinatorID, salt)
	if err != nil {
		return fmt.Errorf("failed to derive storage key: %w", err)
	}

	// Неверный access key проявится как ошибка аутентификации GCM
	if _, err := s.store.GetAuthDecryptData(ctx, key); err != nil {
		return fmt.Errorf("failed to unlock session: %w", err)
	}

	s.mu.Lock()
	s.encryptionKey = key
	s.mu.Unlock()

	s.logger.Debug("Session unlocked", "coordinator_id", stored.CoordinatorID)
	return nil
}

// RefreshToken обновляет пару токенов и сохраняет их в хранилище
func (s *service) RefreshToken(ctx context.Context) error {
	key, err := s.currentKey()
	if err != nil {
		return err
	}

	auth, err := s.store.GetAuthDecryptData(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load auth data: %w", err)
	}

	resp, err := s.apiClient.Refresh(ctx, pkgapi.RefreshRequest{
		RefreshToken: auth.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	auth.AccessToken = resp.AccessToken
	auth.RefreshToken = resp.RefreshToken
	auth.ExpiresAt = s.nowFn().Unix() + resp.ExpiresIn

	if err := s.store.SaveAuth(ctx, auth, key); err != nil {
		return fmt.Errorf("failed to save refreshed tokens: %w", err)
	}

	s.logger.Debug("Tokens refreshed", "coordinator_id", auth.CoordinatorID)
	return nil
}

// StepUp запрашивает elevated токен для override с |delta| выше порога.
// Сервер повторно проверяет access key; elevated токен короткоживущий
// и не сохраняется в хранилище.
func (s *service) StepUp(ctx context.Context, accessKey string) (string, error) {
	if err := validation.ValidateAccessKey(accessKey); err != nil {
		return "", fmt.Errorf("invalid access key: %w", err)
	}

	accessKeyHash, err := crypto.HashAccessKey(accessKey)
	if err != nil {
		return "", fmt.Errorf("failed to hash access key: %w", err)
	}

	token, err := s.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	resp, err := s.apiClient.StepUp(ctx, token, pkgapi.StepUpRequest{
		AccessKeyHash: accessKeyHash,
	})
	if err != nil {
		return "", fmt.Errorf("step-up failed: %w", err)
	}
	return resp.AccessToken, nil
}

// AccessToken возвращает действующий access token, обновляя протухший
func (s *service) AccessToken(ctx context.Context) (string, error) {
	key, err := s.currentKey()
	if err != nil {
		return "", err
	}

	auth, err := s.store.GetAuthDecryptData(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load auth data: %w", err)
	}

	if s.nowFn().Unix() >= auth.ExpiresAt-int64(refreshMargin.Seconds()) {
		if err := s.RefreshToken(ctx); err != nil {
			return "", err
		}
		auth, err = s.store.GetAuthDecryptData(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to reload auth data: %w", err)
		}
	}

	return auth.AccessToken, nil
}

// GetAuth возвращает расшифрованные данные сессии
func (s *service) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	key, err := s.currentKey()
	if err != nil {
		return nil, err
	}
	return s.store.GetAuthDecryptData(ctx, key)
}

// IsAuthenticated проверяет наличие сохраненной сессии
func (s *service) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := s.store.GetAuthEncryptData(ctx)
	if err != nil {
		if err == storage.ErrAuthNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Logout удаляет локальные данные сессии
func (s *service) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}

	s.mu.Lock()
	s.encryptionKey = nil
	s.mu.Unlock()

	s.logger.Info("Logged out")
	return nil
}

func (s *service) currentKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.encryptionKey) == 0 {
		return nil, fmt.Errorf("session is locked: login or unlock first")
	}
	return s.encryptionKey, nil
}
