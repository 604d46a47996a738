package scoring

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldsync/internal/models"
)

func newItem(entityType models.EntityType, priority models.Priority, age time.Duration, now time.Time) *models.QueueItem {
	return &models.QueueItem{
		ID:         "item-1",
		EntityType: entityType,
		Operation:  models.OperationCreate,
		Priority:   priority,
		CreatedAt:  now.Add(-age),
		Payload:    json.RawMessage(`{"severity":"high","affected_population":1500}`),
	}
}

func TestScore_HighAssessmentAged(t *testing.T) {
	// HIGH (30) + assessment (20) + aging >48h (5) = 55
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityHigh, 49*time.Hour, now)

	result := Score(item, nil, now)

	assert.Equal(t, 55, result.Score)
	assert.Equal(t, "Assessment item; Aging bonus (>48h)", result.Reason)
}

func TestScore_NormalResponseWithRule(t *testing.T) {
	// NORMAL (15) + response (15) + правило (25) = 55
	now := time.Now()
	item := newItem(models.EntityResponse, models.PriorityNormal, time.Hour, now)

	rules := []models.PriorityRule{
		{
			ID:         "rule-1",
			Name:       "Severe impact",
			EntityType: models.EntityResponse,
			Conditions: []models.Condition{
				{Field: "severity", Op: models.OpEquals, Value: "high"},
			},
			PriorityModifier: 25,
			IsActive:         true,
		},
	}

	result := Score(item, rules, now)

	assert.Equal(t, 55, result.Score)
	assert.Contains(t, result.Reason, "Response item")
	assert.Contains(t, result.Reason, "Applied rule: Severe impact")
}

func TestScore_Deterministic(t *testing.T) {
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityHigh, 30*time.Hour, now)
	rules := []models.PriorityRule{
		{
			ID:               "rule-1",
			Name:             "Always boost",
			EntityType:       models.EntityAssessment,
			PriorityModifier: 10,
			IsActive:         true,
		},
	}

	first := Score(item, rules, now)
	second := Score(item, rules, now)

	assert.Equal(t, first, second)
}

func TestScore_Clamping(t *testing.T) {
	now := time.Now()

	t.Run("upper bound", func(t *testing.T) {
		item := newItem(models.EntityAssessment, models.PriorityHigh, time.Minute, now)
		rules := []models.PriorityRule{
			{Name: "Boost", EntityType: models.EntityAssessment, PriorityModifier: 100, IsActive: true},
		}
		result := Score(item, rules, now)
		assert.Equal(t, 100, result.Score)
	})

	t.Run("lower bound", func(t *testing.T) {
		item := newItem(models.EntityIncident, models.PriorityLow, time.Minute, now)
		rules := []models.PriorityRule{
			{Name: "Suppress", EntityType: models.EntityIncident, PriorityModifier: -100, IsActive: true},
		}
		result := Score(item, rules, now)
		assert.Equal(t, 0, result.Score)
	})
}

func TestScore_RuleFiltering(t *testing.T) {
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityNormal, time.Hour, now)

	rules := []models.PriorityRule{
		// Неактивное правило не применяется
		{Name: "Inactive", EntityType: models.EntityAssessment, PriorityModifier: 50, IsActive: false},
		// Правило для другого типа сущности не применяется
		{Name: "Other type", EntityType: models.EntityMedia, PriorityModifier: 50, IsActive: true},
	}

	result := Score(item, rules, now)

	// Только NORMAL (15) + assessment (20)
	assert.Equal(t, 35, result.Score)
	assert.NotContains(t, result.Reason, "Applied rule")
}

func TestScore_AllConditionsMustMatch(t *testing.T) {
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityNormal, time.Hour, now)

	rules := []models.PriorityRule{
		{
			Name:       "Partial match",
			EntityType: models.EntityAssessment,
			Conditions: []models.Condition{
				{Field: "severity", Op: models.OpEquals, Value: "high"},
				{Field: "severity", Op: models.OpEquals, Value: "low"}, // не совпадает
			},
			PriorityModifier: 40,
			IsActive:         true,
		},
	}

	result := Score(item, rules, now)
	assert.Equal(t, 35, result.Score)
}

func TestScore_ZeroConditionsAlwaysApply(t *testing.T) {
	now := time.Now()
	item := newItem(models.EntityMedia, models.PriorityLow, time.Minute, now)

	rules := []models.PriorityRule{
		{Name: "Vacuous", EntityType: models.EntityMedia, PriorityModifier: 7, IsActive: true},
	}

	result := Score(item, rules, now)

	// LOW (5) + media (10) + правило (7) = 22
	assert.Equal(t, 22, result.Score)
	assert.Contains(t, result.Reason, "Applied rule: Vacuous")
}

func TestScore_AgingBucketsExclusive(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		age    time.Duration
		score  int
		reason string
	}{
		{"fresh", time.Hour, 35, ""},
		{"over 24h", 25 * time.Hour, 38, "Aging bonus (>24h)"},
		{"over 48h", 49 * time.Hour, 40, "Aging bonus (>48h)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newItem(models.EntityAssessment, models.PriorityNormal, tt.age, now)
			result := Score(item, nil, now)
			assert.Equal(t, tt.score, result.Score)
			if tt.reason != "" {
				assert.Contains(t, result.Reason, tt.reason)
			}
			// Старшая корзина исключает младшую
			if tt.age > 48*time.Hour {
				assert.NotContains(t, result.Reason, ">24h")
			}
		})
	}
}

func TestScore_FallbackReason(t *testing.T) {
	// INCIDENT не дает бонуса за тип, правил нет, элемент свежий:
	// единственный случай, когда ни один шаг не дал пояснения
	now := time.Now()
	item := newItem(models.EntityIncident, models.PriorityNormal, time.Minute, now)

	result := Score(item, nil, now)

	assert.Equal(t, 15, result.Score)
	assert.Equal(t, ReasonFallback, result.Reason)
}

func TestScore_MalformedPayload(t *testing.T) {
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityNormal, time.Hour, now)
	item.Payload = json.RawMessage(`{broken`)

	rules := []models.PriorityRule{
		{
			Name:       "Needs payload",
			EntityType: models.EntityAssessment,
			Conditions: []models.Condition{
				{Field: "severity", Op: models.OpEquals, Value: "high"},
			},
			PriorityModifier: 40,
			IsActive:         true,
		},
	}

	// Битый payload не должен ронять пересчет: правило просто не совпало
	result := Score(item, rules, now)
	assert.Equal(t, 35, result.Score)
}

func TestScore_NonScalarConditionValueDoesNotMatch(t *testing.T) {
	// Значение-массив в условии и в payload: сравнение скаляров невозможно,
	// правило не совпадает, но пересчет не падает
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityNormal, time.Hour, now)
	item.Payload = json.RawMessage(`{"tags":["medical","urgent"],"severity":"high"}`)

	rules := []models.PriorityRule{
		{
			Name:       "Array equals",
			EntityType: models.EntityAssessment,
			Conditions: []models.Condition{
				{Field: "tags", Op: models.OpEquals, Value: []any{"medical", "urgent"}},
			},
			PriorityModifier: 40,
			IsActive:         true,
		},
		{
			Name:       "Array candidate in IN_ARRAY",
			EntityType: models.EntityAssessment,
			Conditions: []models.Condition{
				{Field: "tags", Op: models.OpInArray, Values: []any{[]any{"medical"}, "medical"}},
			},
			PriorityModifier: 40,
			IsActive:         true,
		},
	}

	// NORMAL 15 + assessment 20, оба правила не применились
	result := Score(item, rules, now)
	assert.Equal(t, 35, result.Score)
}

func TestScore_ScalarEqualsStillMatches(t *testing.T) {
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityNormal, time.Hour, now)
	item.Payload = json.RawMessage(`{"confirmed":true,"severity":"high"}`)

	rules := []models.PriorityRule{
		{
			Name:       "Confirmed reports",
			EntityType: models.EntityAssessment,
			Conditions: []models.Condition{
				{Field: "confirmed", Op: models.OpEquals, Value: true},
			},
			PriorityModifier: 10,
			IsActive:         true,
		},
	}

	result := Score(item, rules, now)
	assert.Equal(t, 45, result.Score)
}

func TestScore_NestedFieldCondition(t *testing.T) {
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityNormal, time.Hour, now)
	item.Payload = json.RawMessage(`{"data":{"region":"north","casualties":12}}`)

	rules := []models.PriorityRule{
		{
			Name:       "North region casualties",
			EntityType: models.EntityAssessment,
			Conditions: []models.Condition{
				{Field: "data.region", Op: models.OpInArray, Values: []any{"north", "east"}},
				{Field: "data.casualties", Op: models.OpGreaterThan, Value: float64(10)},
			},
			PriorityModifier: 30,
			IsActive:         true,
		},
	}

	result := Score(item, rules, now)
	assert.Equal(t, 65, result.Score)
	assert.Contains(t, result.Reason, "Applied rule: North region casualties")
}

func TestEstimatedSyncTime(t *testing.T) {
	now := time.Now()

	eta := EstimatedSyncTime(40, now)
	assert.Equal(t, now.Add(60*time.Minute), eta)

	// score 100 дает минимальную отсрочку в 1 минуту
	eta = EstimatedSyncTime(100, now)
	assert.Equal(t, now.Add(time.Minute), eta)
}

func TestCondition_UnknownOperatorRejectedAtParseTime(t *testing.T) {
	var cond models.Condition
	err := json.Unmarshal([]byte(`{"field":"severity","operator":"REGEX","value":"x"}`), &cond)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestScore_UnknownOperatorDoesNotApply(t *testing.T) {
	// Правило с оператором, просочившимся мимо валидации,
	// трактуется как не-совпадение, а не как ошибка
	now := time.Now()
	item := newItem(models.EntityAssessment, models.PriorityNormal, time.Hour, now)

	rules := []models.PriorityRule{
		{
			Name:       "Broken operator",
			EntityType: models.EntityAssessment,
			Conditions: []models.Condition{
				{Field: "severity", Op: models.ConditionOp("REGEX"), Value: "h.*"},
			},
			PriorityModifier: 40,
			IsActive:         true,
		},
	}

	result := Score(item, rules, now)
	assert.Equal(t, 35, result.Score)
}
