package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/models"
)

// RunRetry возвращает терминально упавший элемент в очередь на доставку
func (c *Cli) RunRetry(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: retry <item-id>")
	}
	itemID := args[0]

	item, err := c.queue.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return fmt.Errorf("queue item not found: %s", itemID)
		}
		return fmt.Errorf("failed to load queue item: %w", err)
	}

	if item.State != models.SyncStateFailed {
		return fmt.Errorf("item %s is %s, only failed items can be retried", itemID, statusBadge(string(item.State)))
	}

	if err := c.queue.ResetForRetry(ctx, itemID); err != nil {
		return fmt.Errorf("failed to reset item: %w", err)
	}

	c.io.Printf("Item %s queued for retry\n", itemID)
	return nil
}
