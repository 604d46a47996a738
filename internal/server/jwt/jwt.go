// Package jwt выпускает и проверяет токены координаторов: обычные access
// токены, refresh токены и короткоживущие elevated токены для step-up
// подтверждения крупных override.
package jwt

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "fieldsync"

// Claims представляет JWT claims координатора
type Claims struct {
	CoordinatorID string `json:"coordinator_id"` // внутренний ID координатора
	Subject       string `json:"sub_id"`         // внешний coordinator_id
	Elevated      bool   `json:"elevated"`       // выдан через step-up подтверждение
	jwt.RegisteredClaims
}

// Service provides JWT token generation and validation
type Service struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	stepUpTokenTTL  time.Duration
}

// NewService creates a new JWT service
// secret should be a cryptographically secure random string
func NewService(secret string, accessTokenTTL, refreshTokenTTL, stepUpTokenTTL time.Duration) *Service {
	return &Service{
		secret:          []byte(secret),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		stepUpTokenTTL:  stepUpTokenTTL,
	}
}

// GenerateAccessToken creates a new JWT access token
func (s *Service) GenerateAccessToken(coordinatorID, subject string) (string, int64, error) {
	return s.generate(coordinatorID, subject, false, s.accessTokenTTL)
}

// GenerateStepUpToken создает короткоживущий elevated токен.
// Выдается только после повторной проверки access key.
func (s *Service) GenerateStepUpToken(coordinatorID, subject string) (string, int64, error) {
	return s.generate(coordinatorID, subject, true, s.stepUpTokenTTL)
}

func (s *Service) generate(coordinatorID, subject string, elevated bool, ttl time.Duration) (string, int64, error) {
	now := time.Now()

	claims := Claims{
		CoordinatorID: coordinatorID,
		Subject:       subject,
		Elevated:      elevated,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, int64(ttl.Seconds()), nil
}

// ValidateAccessToken валидирует и парсит JWT access token
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// GenerateRefreshToken creates a new random refresh token
func (s *Service) GenerateRefreshToken() (string, time.Time, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate random token: %w", err)
	}

	token := base64.URLEncoding.EncodeToString(tokenBytes)
	expiresAt := time.Now().Add(s.refreshTokenTTL)

	return token, expiresAt, nil
}
