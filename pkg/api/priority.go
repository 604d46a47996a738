package api

// RecalculateResponse ответ POST /api/v1/sync/priority/recalculate
type RecalculateResponse struct {
	UpdateLog    []UpdateLogEntry `json:"update_log"`
	UpdatedCount int              `json:"updated_count"`
	TotalItems   int              `json:"total_items"`
}

// UpdateLogEntry одна запись журнала пересчета приоритетов
type UpdateLogEntry struct {
	ItemID   string `json:"item_id"`
	OldScore int    `json:"old_score"`
	NewScore int    `json:"new_score"`
	Reason   string `json:"reason"`
	Skipped  bool   `json:"skipped"` // true для элементов с manual override
}

// OverrideRequest запрос POST /api/v1/sync/priority/override
type OverrideRequest struct {
	ItemID        string `json:"item_id" validate:"required,uuid"`
	Justification string `json:"justification" validate:"required,min=10"`
	CoordinatorID string `json:"coordinator_id" validate:"required"`
	NewPriority   int    `json:"new_priority" validate:"min=0,max=100"`
}

// OverrideResponse ответ с обновленным элементом очереди
type OverrideResponse struct {
	Item          QueueItemReport `json:"item"`
	StepUpApplied bool            `json:"step_up_applied"` // override прошел с elevated токеном
}

// RuleCondition условие правила в wire-формате
type RuleCondition struct {
	Value  any    `json:"value,omitempty"`
	Field  string `json:"field" validate:"required"`
	Op     string `json:"operator" validate:"required,oneof=EQUALS GREATER_THAN CONTAINS IN_ARRAY"`
	Values []any  `json:"values,omitempty"`
}

// RuleRequest запрос на создание/обновление правила приоритизации
type RuleRequest struct {
	Name             string          `json:"name" validate:"required,min=3"`
	EntityType       string          `json:"entity_type" validate:"required,oneof=ASSESSMENT RESPONSE MEDIA INCIDENT"`
	Conditions       []RuleCondition `json:"conditions" validate:"dive"`
	PriorityModifier int             `json:"priority_modifier" validate:"min=-100,max=100"`
	IsActive         bool            `json:"is_active"`
}

// RuleResponse правило в wire-формате
type RuleResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	EntityType       string          `json:"entity_type"`
	Conditions       []RuleCondition `json:"conditions"`
	PriorityModifier int             `json:"priority_modifier"`
	IsActive         bool            `json:"is_active"`
}

// RulesListResponse ответ GET /api/v1/sync/priority/rules
type RulesListResponse struct {
	Rules []RuleResponse `json:"rules"`
}
