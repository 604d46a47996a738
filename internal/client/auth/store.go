package auth

import (
	"context"
	"fmt"

	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/crypto"
)

// AuthStore implements the encryption layer between business logic and
// storage: tokens are encrypted before saving and decrypted on retrieval.
// Ключ шифрования деривируется из access key координатора, поэтому
// украденный файл базы без access key бесполезен.
type AuthStore struct {
	storage storage.AuthStorage
}

// NewAuthStore creates a new AuthStore with encryption layer
func NewAuthStore(authStorage storage.AuthStorage) *AuthStore {
	return &AuthStore{
		storage: authStorage,
	}
}

// SaveAuth шифрует токены переданным ключом и сохраняет данные сессии.
// Входная структура не мутируется.
func (s *AuthStore) SaveAuth(ctx context.Context, auth *storage.AuthData, encryptionKey []byte) error {
	if auth == nil {
		return fmt.Errorf("auth data is nil")
	}

	encryptedAccessToken, err := crypto.EncryptToBase64([]byte(auth.AccessToken), encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	encryptedRefreshToken, err := crypto.EncryptToBase64([]byte(auth.RefreshToken), encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	authCopy := *auth
	authCopy.AccessToken = encryptedAccessToken
	authCopy.RefreshToken = encryptedRefreshToken

	return s.storage.SaveAuth(ctx, &authCopy)
}

// GetAuthDecryptData загружает данные сессии и расшифровывает токены
func (s *AuthStore) GetAuthDecryptData(ctx context.Context, encryptionKey []byte) (*storage.AuthData, error) {
	storedAuth, err := s.storage.GetAuth(ctx)
	if err != nil {
		return nil, err
	}

	accessToken, err := crypto.DecryptFromBase64(storedAuth.AccessToken, encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := crypto.DecryptFromBase64(storedAuth.RefreshToken, encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	auth := *storedAuth
	auth.AccessToken = string(accessToken)
	auth.RefreshToken = string(refreshToken)

	return &auth, nil
}

// GetAuthEncryptData загружает данные сессии как есть, с шифрованными
// токенами (для чтения coordinator id и storage salt без ключа)
func (s *AuthStore) GetAuthEncryptData(ctx context.Context) (*storage.AuthData, error) {
	storedAuth, err := s.storage.GetAuth(ctx)
	if err != nil {
		return nil, err
	}

	auth := *storedAuth
	return &auth, nil
}

// DeleteAuth удаляет данные сессии
func (s *AuthStore) DeleteAuth(ctx context.Context) error {
	return s.storage.DeleteAuth(ctx)
}
