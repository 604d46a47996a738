package models

import (
	"encoding/json"
	"time"
)

// EntityType тип доменной сущности, над которой выполняется операция
type EntityType string

const (
	EntityAssessment EntityType = "ASSESSMENT" // полевые оценки (assessment forms)
	EntityResponse   EntityType = "RESPONSE"   // ответные меры (response records)
	EntityMedia      EntityType = "MEDIA"      // фото/видео вложения
	EntityIncident   EntityType = "INCIDENT"   // инциденты
)

// ValidEntityType проверяет, что тип сущности входит в закрытый набор
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityAssessment, EntityResponse, EntityMedia, EntityIncident:
		return true
	}
	return false
}

// Operation тип мутации в очереди
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// ValidOperation проверяет, что операция входит в закрытый набор
func ValidOperation(op Operation) bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Priority грубый приоритет, назначаемый пользователем или системой.
// Тонкое упорядочивание очереди делается по PriorityScore (0-100).
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

// SyncState состояние элемента очереди в state machine движка синхронизации:
// PENDING -> SYNCING -> {SYNCED | PENDING (retry) | FAILED (terminal)}
type SyncState string

const (
	SyncStatePending SyncState = "PENDING"
	SyncStateSyncing SyncState = "SYNCING"
	SyncStateSynced  SyncState = "SYNCED"
	SyncStateFailed  SyncState = "FAILED" // терминальное состояние, требует действия пользователя
)

// ManualOverride представляет ручное переопределение приоритета координатором.
// Элемент с установленным override исключается из автоматического пересчета.
type ManualOverride struct {
	Timestamp     time.Time `json:"timestamp"`      // Timestamp момент применения override
	CoordinatorID string    `json:"coordinator_id"` // CoordinatorID кто применил
	Justification string    `json:"justification"`  // Justification обоснование (минимум 10 символов)
	OriginalScore int       `json:"original_score"` // OriginalScore score до переопределения
	OverrideScore int       `json:"override_score"` // OverrideScore назначенный score
}

// QueueItem представляет отложенную мутацию, ожидающую синхронизации с сервером.
type QueueItem struct {
	CreatedAt         time.Time       `json:"created_at"`
	EstimatedSyncTime time.Time       `json:"estimated_sync_time"` // производная от score: now + max(1, 100-score) минут
	NextAttemptAt     time.Time       `json:"next_attempt_at"`     // момент, когда элемент снова eligible после retry backoff
	ManualOverride    *ManualOverride `json:"manual_override,omitempty"`
	ID                string          `json:"id"`
	EntityType        EntityType      `json:"entity_type"`
	EntityID          string          `json:"entity_id"` // идентификатор целевой сущности (для UPDATE/DELETE)
	Operation         Operation       `json:"operation"`
	Priority          Priority        `json:"priority"`
	PriorityReason    string          `json:"priority_reason"`
	State             SyncState       `json:"state"`
	LastError         string          `json:"last_error,omitempty"`
	UpdateID          string          `json:"update_id,omitempty"` // связанный optimistic update (если есть)
	Payload           json.RawMessage `json:"payload"`
	PriorityScore     int             `json:"priority_score"`
	RetryCount        int             `json:"retry_count"`
}

// Eligible отвечает, готов ли элемент к диспатчу в момент now.
// Элемент eligible, если он PENDING и его backoff-окно истекло.
func (i *QueueItem) Eligible(now time.Time) bool {
	return i.State == SyncStatePending && !now.Before(i.NextAttemptAt)
}

// Clone создает глубокую копию элемента очереди.
// Используется чтобы не отдавать наружу ссылки на внутреннее состояние store.
func (i *QueueItem) Clone() *QueueItem {
	clone := *i
	if i.Payload != nil {
		clone.Payload = make(json.RawMessage, len(i.Payload))
		copy(clone.Payload, i.Payload)
	}
	if i.ManualOverride != nil {
		override := *i.ManualOverride
		clone.ManualOverride = &override
	}
	return &clone
}

// Before задает порядок выдачи очереди: score по убыванию,
// при равных score раньше идет элемент с более ранним createdAt (FIFO).
func (i *QueueItem) Before(other *QueueItem) bool {
	if i.PriorityScore != other.PriorityScore {
		return i.PriorityScore > other.PriorityScore
	}
	return i.CreatedAt.Before(other.CreatedAt)
}
