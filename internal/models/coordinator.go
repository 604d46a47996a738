package models

import "time"

// Coordinator учетная запись координатора полевых операций.
// AccessKeyHash — SHA256 хеш access key (hex), сам ключ сервер не хранит.
// StorageSalt — base64 соль, которую клиент использует для деривации
// локального ключа шифрования.
type Coordinator struct {
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	ID            string     `json:"id"`
	CoordinatorID string     `json:"coordinator_id"`
	AccessKeyHash string     `json:"access_key_hash"`
	StorageSalt   string     `json:"storage_salt"`
}

// RefreshToken представляет refresh token координатора
type RefreshToken struct {
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	Token         string    `json:"token"`
	CoordinatorID string    `json:"coordinator_id"` // внутренний ID координатора
}

// IsExpired проверяет истечение срока действия токена
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
