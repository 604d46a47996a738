package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RollbackReason причина запроса отката optimistic update
type RollbackReason string

const (
	RollbackUserInitiated   RollbackReason = "USER_INITIATED"
	RollbackSyncFailed      RollbackReason = "SYNC_FAILED"
	RollbackValidationError RollbackReason = "VALIDATION_ERROR"
)

// UpdateStatus исход optimistic update. Запись остается в хранилище как
// tombstone после разрешения: так повторный confirm/rollback распознаётся
// как no-op, а confirm после rollback (и наоборот) — как ошибка.
type UpdateStatus string

const (
	UpdateStatusPending    UpdateStatus = "PENDING"
	UpdateStatusConfirmed  UpdateStatus = "CONFIRMED"
	UpdateStatusRolledBack UpdateStatus = "ROLLED_BACK"
)

// OptimisticUpdate спекулятивная локальная мутация, примененная до подтверждения
// сервером. RollbackData хранит снимок прежнего состояния (pre-image),
// достаточный для отмены изменения; для CREATE снимок пустой — откат удаляет
// сущность из локального кеша.
type OptimisticUpdate struct {
	Timestamp    time.Time       `json:"timestamp"`
	UpdateID     string          `json:"update_id"`
	EntityID     string          `json:"entity_id"`
	EntityType   EntityType      `json:"entity_type"`
	Operation    Operation       `json:"operation"`
	Status       UpdateStatus    `json:"status"`
	QueueItemID  string          `json:"queue_item_id,omitempty"` // связанный элемент очереди
	Error        string          `json:"error,omitempty"`         // заполняется при сбое синхронизации
	RollbackData json.RawMessage `json:"rollback_data,omitempty"`
}

// RollbackOperation дескриптор отката, который UI показывает пользователю
// до фактического выполнения PerformRollback. Сам по себе состояние не мутирует.
type RollbackOperation struct {
	UpdateID             string         `json:"update_id"`
	EntityID             string         `json:"entity_id"`
	EntityType           EntityType     `json:"entity_type"`
	Reason               RollbackReason `json:"reason"`
	ConfirmationMessage  string         `json:"confirmation_message"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
}

// ConfirmationMessage строит человекочитаемое сообщение подтверждения
// в зависимости от причины отката.
func BuildConfirmationMessage(reason RollbackReason, entityType EntityType, entityID string) string {
	entity := fmt.Sprintf("%s %s", entityType, entityID)
	switch reason {
	case RollbackSyncFailed:
		return fmt.Sprintf("Synchronization of %s failed permanently. Revert the local change?", entity)
	case RollbackValidationError:
		return fmt.Sprintf("The server rejected %s as invalid. Revert the local change?", entity)
	default:
		return fmt.Sprintf("Revert the local change to %s?", entity)
	}
}
