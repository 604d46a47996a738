package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConditionOp оператор условия правила приоритизации.
// Закрытый набор: неизвестный оператор отклоняется при создании правила,
// а не во время вычисления score.
type ConditionOp string

const (
	OpEquals      ConditionOp = "EQUALS"
	OpGreaterThan ConditionOp = "GREATER_THAN"
	OpContains    ConditionOp = "CONTAINS"
	OpInArray     ConditionOp = "IN_ARRAY"
)

// ValidConditionOp проверяет оператор против закрытого набора
func ValidConditionOp(op ConditionOp) bool {
	switch op {
	case OpEquals, OpGreaterThan, OpContains, OpInArray:
		return true
	}
	return false
}

// Condition одно условие правила: сравнение поля payload с эталонным значением.
// Field поддерживает точечный путь в JSON payload (например "data.severity").
type Condition struct {
	Value  any         `json:"value,omitempty"`  // для EQUALS, GREATER_THAN, CONTAINS
	Field  string      `json:"field"`
	Op     ConditionOp `json:"operator"`
	Values []any       `json:"values,omitempty"` // для IN_ARRAY
}

// UnmarshalJSON валидирует оператор на этапе разбора.
// Правило с неизвестным оператором не должно попасть в хранилище.
func (c *Condition) UnmarshalJSON(data []byte) error {
	type alias Condition
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Field == "" {
		return NewValidationError("condition field must not be empty")
	}
	if !ValidConditionOp(raw.Op) {
		return NewValidationError(fmt.Sprintf("unknown condition operator: %q", raw.Op))
	}
	*c = Condition(raw)
	return nil
}

// Matches вычисляет условие над payload (уже распакованным в map).
// Исчерпывающий switch по операторам; неизвестный оператор, просочившийся
// мимо валидации, трактуется как не-совпадение, чтобы одно битое правило
// не блокировало пересчет всей очереди.
func (c *Condition) Matches(payload map[string]any) bool {
	value, ok := lookupField(payload, c.Field)
	if !ok {
		return false
	}

	switch c.Op {
	case OpEquals:
		return equalValues(value, c.Value)
	case OpGreaterThan:
		actual, ok1 := toFloat(value)
		expected, ok2 := toFloat(c.Value)
		return ok1 && ok2 && actual > expected
	case OpContains:
		actual, ok1 := value.(string)
		expected, ok2 := c.Value.(string)
		return ok1 && ok2 && strings.Contains(actual, expected)
	case OpInArray:
		for _, candidate := range c.Values {
			if equalValues(value, candidate) {
				return true
			}
		}
		return false
	}
	return false
}

// lookupField достает значение по точечному пути из вложенных map
func lookupField(payload map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = payload
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// equalValues сравнивает значения с учетом того, что json.Unmarshal
// декодирует все числа в float64. Сравниваются только скаляры:
// массивы и объекты в payload или в значении условия трактуются как
// не-совпадение, а не как ошибка — interface-сравнение `==` паникует
// на несравнимых типах вроде []any.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// PriorityRule правило автоматической приоритизации, управляется координатором.
// Применяется к элементу, если правило активно, совпадает entity type
// и выполняются ВСЕ условия (логическое AND). Правило без условий
// тривиально истинно и применяется всегда.
type PriorityRule struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	EntityType       EntityType  `json:"entity_type"`
	Conditions       []Condition `json:"conditions"`
	PriorityModifier int         `json:"priority_modifier"` // -100..100
	IsActive         bool        `json:"is_active"`
}

// Validate проверяет правило перед сохранением
func (r *PriorityRule) Validate() error {
	if r.Name == "" {
		return NewValidationError("rule name must not be empty")
	}
	if !ValidEntityType(r.EntityType) {
		return NewValidationError(fmt.Sprintf("unknown entity type: %q", r.EntityType))
	}
	if r.PriorityModifier < -100 || r.PriorityModifier > 100 {
		return NewValidationError("priority modifier must be in range [-100, 100]")
	}
	for _, cond := range r.Conditions {
		if cond.Field == "" {
			return NewValidationError("condition field must not be empty")
		}
		if !ValidConditionOp(cond.Op) {
			return NewValidationError(fmt.Sprintf("unknown condition operator: %q", cond.Op))
		}
	}
	return nil
}
