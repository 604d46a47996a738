package cli

import (
	"context"
	"fmt"
)

// RunStatus показывает состояние сессии и счетчики очереди
func (c *Cli) RunStatus(ctx context.Context) error {
	ok, err := c.authService.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}

	if ok {
		c.io.Println("Session:  authenticated")
	} else {
		c.io.Println("Session:  not authenticated")
	}

	if c.engine.Online() {
		c.io.Println("Network:  online")
	} else {
		c.io.Println("Network:  offline (queueing)")
	}

	stats, err := c.queue.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}

	c.io.Printf("Queue:    %d total (%d pending, %d syncing, %d failed)\n",
		stats.Total, stats.Pending, stats.Syncing, stats.Failed)

	pending, err := c.optimistic.PendingUpdates(ctx)
	if err != nil {
		return fmt.Errorf("failed to read pending updates: %w", err)
	}
	c.io.Printf("Updates:  %d awaiting confirmation\n", len(pending))

	return nil
}
