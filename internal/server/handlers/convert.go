package handlers

import (
	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/pkg/api"
)

// itemFromReport строит доменный QueueItem из wire-снимка клиента
func itemFromReport(report *api.QueueItemReport) *models.QueueItem {
	item := &models.QueueItem{
		ID:                report.ID,
		EntityType:        models.EntityType(report.EntityType),
		EntityID:          report.EntityID,
		Operation:         models.Operation(report.Operation),
		Priority:          models.Priority(report.Priority),
		PriorityScore:     report.PriorityScore,
		PriorityReason:    report.PriorityReason,
		State:             models.SyncState(report.State),
		RetryCount:        report.RetryCount,
		Payload:           report.Payload,
		CreatedAt:         report.CreatedAt,
		EstimatedSyncTime: report.EstimatedSyncTime,
	}
	if report.ManualOverride != nil {
		item.ManualOverride = &models.ManualOverride{
			Timestamp:     report.ManualOverride.Timestamp,
			CoordinatorID: report.ManualOverride.CoordinatorID,
			Justification: report.ManualOverride.Justification,
			OriginalScore: report.ManualOverride.OriginalScore,
			OverrideScore: report.ManualOverride.OverrideScore,
		}
	}
	return item
}

// reportFromItem строит wire-представление элемента зеркала очереди
func reportFromItem(item *models.QueueItem) api.QueueItemReport {
	report := api.QueueItemReport{
		ID:                item.ID,
		EntityType:        string(item.EntityType),
		EntityID:          item.EntityID,
		Operation:         string(item.Operation),
		Priority:          string(item.Priority),
		PriorityScore:     item.PriorityScore,
		PriorityReason:    item.PriorityReason,
		State:             string(item.State),
		RetryCount:        item.RetryCount,
		Payload:           item.Payload,
		CreatedAt:         item.CreatedAt,
		EstimatedSyncTime: item.EstimatedSyncTime,
	}
	if item.ManualOverride != nil {
		report.ManualOverride = &api.OverrideReport{
			Timestamp:     item.ManualOverride.Timestamp,
			CoordinatorID: item.ManualOverride.CoordinatorID,
			Justification: item.ManualOverride.Justification,
			OriginalScore: item.ManualOverride.OriginalScore,
			OverrideScore: item.ManualOverride.OverrideScore,
		}
	}
	return report
}

// ruleFromRequest строит доменное правило из wire-запроса.
// ID и timestamps заполняет вызывающий.
func ruleFromRequest(req *api.RuleRequest) *models.PriorityRule {
	rule := &models.PriorityRule{
		Name:             req.Name,
		EntityType:       models.EntityType(req.EntityType),
		PriorityModifier: req.PriorityModifier,
		IsActive:         req.IsActive,
	}
	for _, c := range req.Conditions {
		rule.Conditions = append(rule.Conditions, models.Condition{
			Field:  c.Field,
			Op:     models.ConditionOp(c.Op),
			Value:  c.Value,
			Values: c.Values,
		})
	}
	return rule
}

// ruleResponse строит wire-представление правила
func ruleResponse(rule *models.PriorityRule) api.RuleResponse {
	resp := api.RuleResponse{
		ID:               rule.ID,
		Name:             rule.Name,
		EntityType:       string(rule.EntityType),
		PriorityModifier: rule.PriorityModifier,
		IsActive:         rule.IsActive,
	}
	for _, c := range rule.Conditions {
		resp.Conditions = append(resp.Conditions, api.RuleCondition{
			Field:  c.Field,
			Op:     string(c.Op),
			Value:  c.Value,
			Values: c.Values,
		})
	}
	return resp
}
