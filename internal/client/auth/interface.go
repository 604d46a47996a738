package auth

import (
	"context"

	"github.com/iudanet/fieldsync/internal/client/storage"
)

//go:generate moq -out service_mock.go . Service

// Service defines the main interface for authentication operations.
// Управляет и аутентификацией координатора (login/refresh/step-up),
// и хранением сессии. После успешного Login ключ шифрования хранилища
// уже установлен; при повторном запуске клиента его восстанавливает
// Unlock по access key.
type Service interface {
	// Login выполняет аутентификацию координатора по access key.
	// Сохраняет зашифрованные токены и устанавливает ключ шифрования.
	Login(ctx context.Context, coordinatorID, accessKey string) (*LoginResult, error)

	// Unlock восстанавливает сессию при новом запуске клиента:
	// деривирует ключ шифрования из access key и проверяет,
	// что сохраненные токены им расшифровываются.
	Unlock(ctx context.Context, accessKey string) error

	// RefreshToken обновляет пару токенов по refresh token
	// и сохраняет новые токены в хранилище
	RefreshToken(ctx context.Context) error

	// StepUp запрашивает короткоживущий elevated токен для override
	// с большим отклонением score. Токен не сохраняется.
	StepUp(ctx context.Context, accessKey string) (string, error)

	// AccessToken возвращает действующий access token,
	// при необходимости обновляя протухший
	AccessToken(ctx context.Context) (string, error)

	// GetAuth возвращает расшифрованные данные сессии
	GetAuth(ctx context.Context) (*storage.AuthData, error)

	// IsAuthenticated проверяет наличие сохраненной сессии
	IsAuthenticated(ctx context.Context) (bool, error)

	// Logout удаляет локальные данные сессии
	Logout(ctx context.Context) error
}
