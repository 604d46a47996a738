package models

import (
	"encoding/json"
	"time"
)

// EntityRecord серверное состояние доменной сущности.
// Version монотонно растет с каждой принятой мутацией; клиент, приславший
// UPDATE/DELETE с устаревшей версией, получает конфликт.
type EntityRecord struct {
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ID        string          `json:"id"`
	Type      EntityType      `json:"type"`
	State     json.RawMessage `json:"state"`
	Version   int64           `json:"version"`
}

// OverrideAudit запись аудита ручного переопределения приоритета
type OverrideAudit struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	CoordinatorID string    `json:"coordinator_id"`
	Justification string    `json:"justification"`
	OldScore      int       `json:"old_score"`
	NewScore      int       `json:"new_score"`
	Elevated      bool      `json:"elevated"` // override прошел с elevated (step-up) токеном
}
