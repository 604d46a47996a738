package api

import (
	"encoding/json"
	"time"
)

// Envelope стандартный конверт ответа entity-эндпоинтов.
// Диспатч элемента очереди считается успешным только при Success == true.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
	Success bool            `json:"success"`
}

// OverrideReport ручное переопределение приоритета в составе снимка очереди
type OverrideReport struct {
	Timestamp     time.Time `json:"timestamp"`
	CoordinatorID string    `json:"coordinator_id"`
	Justification string    `json:"justification"`
	OriginalScore int       `json:"original_score"`
	OverrideScore int       `json:"override_score"`
}

// QueueItemReport снимок одного элемента клиентской очереди для серверного зеркала
type QueueItemReport struct {
	CreatedAt         time.Time       `json:"created_at"`
	EstimatedSyncTime time.Time       `json:"estimated_sync_time"`
	ManualOverride    *OverrideReport `json:"manual_override,omitempty"`
	ID                string          `json:"id"`
	EntityType        string          `json:"entity_type"`
	EntityID          string          `json:"entity_id,omitempty"`
	Operation         string          `json:"operation"`
	Priority          string          `json:"priority"`
	PriorityReason    string          `json:"priority_reason"`
	State             string          `json:"state"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	PriorityScore     int             `json:"priority_score"`
	RetryCount        int             `json:"retry_count"`
}

// QueueReportRequest запрос на синхронизацию снимка очереди клиента с сервером.
// DeviceID идентифицирует клиентское устройство; сервер замещает все элементы
// этого устройства содержимым снимка.
type QueueReportRequest struct {
	DeviceID string            `json:"device_id"`
	Items    []QueueItemReport `json:"items"`
}

// QueueReportResponse ответ сервера на снимок очереди
type QueueReportResponse struct {
	Accepted int `json:"accepted"`
	Removed  int `json:"removed"` // элементы устройства, отсутствующие в снимке
}
