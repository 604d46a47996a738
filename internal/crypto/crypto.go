// Package crypto содержит криптографические примитивы клиента:
// деривацию ключа из access key координатора (Argon2id), AES-256-GCM
// для локального хранения токенов и SHA256-хеширование access key
// для аутентификации на сервере.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64MB
	argonThreads = 4
	argonKeyLen  = 32

	// SaltSize размер соли в байтах
	SaltSize = 32

	// NonceSize размер nonce для AES-GCM (стандартные 12 bytes)
	NonceSize = 12
)

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveStorageKey деривирует 32-байтный ключ шифрования локального хранилища
// из access key координатора. Ключ никогда не попадает на диск: он
// выводится заново при каждом запуске клиента.
func DeriveStorageKey(accessKey, coordinatorID string, salt []byte) ([]byte, error) {
	if accessKey == "" {
		return nil, fmt.Errorf("access key cannot be empty")
	}
	if coordinatorID == "" {
		return nil, fmt.Errorf("coordinator id cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	input := []byte(accessKey + coordinatorID)
	return argon2.IDKey(input, salt, argonTime, argonMemory, argonThreads, argonKeyLen), nil
}

// HashAccessKey хеширует access key с использованием SHA256.
// Хеш (hex-encoded) отправляется на сервер вместо самого ключа.
func HashAccessKey(accessKey string) (string, error) {
	if accessKey == "" {
		return "", fmt.Errorf("access key cannot be empty")
	}
	hash := sha256.Sum256([]byte(accessKey))
	return hex.EncodeToString(hash[:]), nil
}

// VerifyAccessKeyHash сравнивает хеш переданного ключа с сохраненным.
// Используется на сервере при аутентификации координатора.
func VerifyAccessKeyHash(accessKeyHash, storedHash string) error {
	if accessKeyHash == "" || storedHash == "" {
		return fmt.Errorf("access key hash cannot be empty")
	}
	if accessKeyHash != storedHash {
		return fmt.Errorf("invalid access key")
	}
	return nil
}

// Encrypt шифрует данные с использованием AES-256-GCM
// Формат результата: nonce (12 bytes) + ciphertext + auth_tag (16 bytes)
func Encrypt(plaintext, key []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("plaintext cannot be empty")
	}
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, len(nonce)+len(ciphertext))
	result = append(result, nonce...)
	result = append(result, ciphertext...)
	return result, nil
}

// Decrypt дешифрует данные, зашифрованные Encrypt
func Decrypt(encrypted, key []byte) ([]byte, error) {
	if len(encrypted) < NonceSize {
		return nil, fmt.Errorf("encrypted data too short")
	}
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := encrypted[:NonceSize]
	ciphertext := encrypted[NonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// EncryptToBase64 шифрует и кодирует результат в Base64 (удобно для JSON)
func EncryptToBase64(plaintext, key []byte) (string, error) {
	encrypted, err := Encrypt(plaintext, key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// DecryptFromBase64 декодирует Base64 и дешифрует
func DecryptFromBase64(encoded string, key []byte) ([]byte, error) {
	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return Decrypt(encrypted, key)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
