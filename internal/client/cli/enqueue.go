package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/fieldsync/internal/client/optimistic"
	"github.com/iudanet/fieldsync/internal/client/queue"
	"github.com/iudanet/fieldsync/internal/models"
)

// entityTypeAliases принимаемые написания типов сущностей
var entityTypeAliases = map[string]models.EntityType{
	"assessment": models.EntityAssessment,
	"response":   models.EntityResponse,
	"media":      models.EntityMedia,
	"incident":   models.EntityIncident,
}

var operationAliases = map[string]models.Operation{
	"create": models.OperationCreate,
	"update": models.OperationUpdate,
	"delete": models.OperationDelete,
}

var priorityAliases = map[string]models.Priority{
	"low":    models.PriorityLow,
	"normal": models.PriorityNormal,
	"high":   models.PriorityHigh,
	"":       models.PriorityNormal,
}

// RunEnqueue ставит операцию в офлайн-очередь: применяет optimistic update
// к локальному кешу и создает связанный элемент очереди.
func (c *Cli) RunEnqueue(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: enqueue <assessment|response|media|incident> <create|update|delete>")
	}

	entityType, ok := entityTypeAliases[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown entity type: %s", args[0])
	}
	operation, ok := operationAliases[strings.ToLower(args[1])]
	if !ok {
		return fmt.Errorf("unknown operation: %s", args[1])
	}

	entityID := ""
	if operation == models.OperationCreate {
		entityID = uuid.New().String()
	} else {
		id, err := c.io.ReadInput("Entity ID: ")
		if err != nil {
			return fmt.Errorf("failed to read entity id: %w", err)
		}
		if id == "" {
			return fmt.Errorf("entity id is required for %s", operation)
		}
		entityID = id
	}

	var payload json.RawMessage
	if operation != models.OperationDelete {
		raw, err := c.io.ReadInput("Payload (JSON): ")
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("payload is not valid JSON")
		}
		payload = json.RawMessage(raw)
	}

	priorityInput, err := c.io.ReadInput("Priority [low/normal/high] (default normal): ")
	if err != nil {
		return fmt.Errorf("failed to read priority: %w", err)
	}
	priority, ok := priorityAliases[strings.ToLower(strings.TrimSpace(priorityInput))]
	if !ok {
		return fmt.Errorf("unknown priority: %s", priorityInput)
	}

	// Сначала спекулятивное применение к локальному кешу, затем очередь.
	// UI видит изменение сразу, до подтверждения сервером.
	update, err := c.optimistic.Apply(ctx, optimistic.ApplyParams{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  operation,
		NewState:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to apply local change: %w", err)
	}

	item, err := c.queue.Enqueue(ctx, queue.EnqueueParams{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  operation,
		Priority:   priority,
		UpdateID:   update.UpdateID,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue operation: %w", err)
	}

	// Откат update должен снимать и элемент очереди
	if err := c.optimistic.LinkQueueItem(ctx, update.UpdateID, item.ID); err != nil {
		return fmt.Errorf("failed to link queue item: %w", err)
	}

	c.io.Println("")
	c.io.Printf("Queued %s %s (item %s)\n", operation, entityType, item.ID)
	c.io.Printf("Priority score: %d (%s)\n", item.PriorityScore, item.PriorityReason)
	c.io.Printf("Estimated sync: %s\n", item.EstimatedSyncTime.Format("15:04:05"))
	return nil
}
