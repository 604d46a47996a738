package storage

import (
	"context"
)

// AuthStorage defines interface for storing coordinator authentication data.
// Это нижний слой: работает с уже зашифрованными токенами и сам
// шифрованием/дешифрованием не занимается (это делает auth.Service).
type AuthStorage interface {
	// SaveAuth stores authentication data as-is (tokens should already be encrypted)
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data as-is (tokens will be encrypted)
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error
}

// DeviceStorage defines interface for the stable device identifier.
// DeviceID генерируется при первом запуске и идентифицирует клиента
// в снимках очереди, отправляемых на серверное зеркало.
type DeviceStorage interface {
	// GetDeviceID returns the stored device id, or empty string if none
	GetDeviceID(ctx context.Context) (string, error)

	// SaveDeviceID stores the device id
	SaveDeviceID(ctx context.Context, deviceID string) error
}

// AuthData represents coordinator authentication information in storage.
// ВАЖНО: структура используется на разных слоях в разных состояниях:
// - в памяти (бизнес-логика): токены в открытом виде
// - в хранилище (BoltDB): токены зашифрованы (base64 от AES-GCM)
// Шифрование/дешифрование выполняет auth.Service.
type AuthData struct {
	CoordinatorID string `json:"coordinator_id"`
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	StorageSalt   string `json:"storage_salt"` // base64 соль для деривации ключа хранилища
	ExpiresAt     int64  `json:"expires_at"`
}
