package api

// LoginRequest представляет запрос на аутентификацию координатора
type LoginRequest struct {
	CoordinatorID string `json:"coordinator_id" validate:"required"`
	AccessKeyHash string `json:"access_key_hash" validate:"required"` // SHA256 хеш access key (hex-encoded)
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"access_token"`           // JWT access token
	RefreshToken string `json:"refresh_token"`          // refresh token
	StorageSalt  string `json:"storage_salt,omitempty"` // base64 соль для ключа локального шифрования
	ExpiresIn    int64  `json:"expires_in"`             // время жизни access token в секундах
}

// RefreshRequest запрос на обновление access token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// StepUpRequest запрос короткоживущего elevated токена.
// Требуется для override с |delta| больше настроенного порога.
type StepUpRequest struct {
	AccessKeyHash string `json:"access_key_hash" validate:"required"`
}

// StepUpResponse ответ с elevated токеном
type StepUpResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
