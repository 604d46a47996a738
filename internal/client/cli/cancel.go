package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/models"
)

// RunCancel снимает операцию с очереди. Если с элементом связан optimistic
// update, локальное изменение откатывается к pre-image.
func (c *Cli) RunCancel(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: cancel <item-id>")
	}
	itemID := args[0]

	item, err := c.queue.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return fmt.Errorf("queue item not found: %s", itemID)
		}
		return fmt.Errorf("failed to load queue item: %w", err)
	}

	if item.UpdateID != "" {
		// Откат снимет и сам элемент очереди через Dequeuer
		if err := c.optimistic.PerformRollback(ctx, item.UpdateID, models.RollbackUserInitiated); err != nil {
			return fmt.Errorf("failed to roll back local change: %w", err)
		}
		c.io.Printf("Canceled %s and reverted local change\n", itemID)
		return nil
	}

	if err := c.queue.Dequeue(ctx, itemID); err != nil {
		return fmt.Errorf("failed to cancel item: %w", err)
	}
	c.io.Printf("Canceled %s\n", itemID)
	return nil
}
