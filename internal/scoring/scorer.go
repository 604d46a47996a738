// Package scoring содержит чистую функцию вычисления priority score (0-100)
// для элементов офлайн-очереди. Используется и клиентским store, и серверным
// зеркалом очереди, чтобы обе стороны считали приоритеты одинаково.
package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/fieldsync/internal/models"
)

const (
	// Базовые очки за грубый приоритет
	baseHigh   = 30
	baseNormal = 15
	baseLow    = 5

	// Бонусы за тип сущности
	bonusAssessment = 20
	bonusResponse   = 15
	bonusMedia      = 10

	// Бонусы за возраст элемента (взаимоисключающие, применяется старший)
	bonusAge48h = 5
	bonusAge24h = 3

	// ReasonFallback используется, когда ни один шаг не дал пояснения
	// (возможно для INCIDENT без подходящих правил и возрастного бонуса)
	ReasonFallback = "Automatic assignment"
)

// Result результат вычисления приоритета
type Result struct {
	Reason string // человекочитаемое объяснение, строится заново при каждом пересчете
	Score  int    // итоговый score, зажат в [0, 100]
}

// Score вычисляет приоритет элемента очереди по набору правил.
// Алгоритм детерминирован и чувствителен к порядку шагов:
//  1. база от грубого приоритета (HIGH=30, NORMAL=15, LOW=5)
//  2. бонус за тип сущности (+ пояснение)
//  3. активные правила с совпадающим entity type: все условия AND,
//     правило без условий тривиально истинно
//  4. возрастной бонус (>48h +5, иначе >24h +3)
//  5. зажим в [0, 100]
//
// Функция чистая: сохранение score/reason на элементе и пересчет
// estimatedSyncTime — ответственность вызывающего.
func Score(item *models.QueueItem, rules []models.PriorityRule, now time.Time) Result {
	score := baseScore(item.Priority)
	var reasons []string

	// Бонус за тип сущности. INCIDENT бонуса не дает и пояснения не добавляет.
	switch item.EntityType {
	case models.EntityAssessment:
		score += bonusAssessment
		reasons = append(reasons, "Assessment item")
	case models.EntityResponse:
		score += bonusResponse
		reasons = append(reasons, "Response item")
	case models.EntityMedia:
		score += bonusMedia
		reasons = append(reasons, "Media item")
	}

	// Правила вычисляются над распакованным payload.
	// Декодируем один раз на элемент, а не на каждое условие.
	payload := decodePayload(item.Payload)
	for _, rule := range rules {
		if !rule.IsActive || rule.EntityType != item.EntityType {
			continue
		}
		if ruleApplies(&rule, payload) {
			score += rule.PriorityModifier
			reasons = append(reasons, fmt.Sprintf("Applied rule: %s", rule.Name))
		}
	}

	// Возрастной бонус: применяется только старшая корзина
	age := now.Sub(item.CreatedAt)
	switch {
	case age > 48*time.Hour:
		score += bonusAge48h
		reasons = append(reasons, "Aging bonus (>48h)")
	case age > 24*time.Hour:
		score += bonusAge24h
		reasons = append(reasons, "Aging bonus (>24h)")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	reason := ReasonFallback
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	return Result{Score: score, Reason: reason}
}

// EstimatedSyncTime выводит ожидаемое время синхронизации из score:
// now + max(1, 100-score) минут. Пересчитывается при каждом изменении score.
func EstimatedSyncTime(score int, now time.Time) time.Time {
	minutes := 100 - score
	if minutes < 1 {
		minutes = 1
	}
	return now.Add(time.Duration(minutes) * time.Minute)
}

func baseScore(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return baseHigh
	case models.PriorityLow:
		return baseLow
	default:
		return baseNormal
	}
}

// ruleApplies проверяет все условия правила (логическое AND).
// Правило без условий применяется всегда.
func ruleApplies(rule *models.PriorityRule, payload map[string]any) bool {
	for i := range rule.Conditions {
		if !rule.Conditions[i].Matches(payload) {
			return false
		}
	}
	return true
}

// decodePayload распаковывает payload в map для вычисления условий.
// Битый или пустой payload дает пустую map: правила с условиями
// просто не совпадут, пересчет очереди не блокируется.
func decodePayload(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return map[string]any{}
	}
	return payload
}
