package cli

import (
	"context"
	"fmt"
)

// RunSync выполняет немедленный проход по очереди: объявляет клиент
// онлайн (пересчет приоритетов по свежим правилам) и дренирует очередь.
func (c *Cli) RunSync(ctx context.Context, keys AccessKeys) error {
	if err := c.EnsureUnlocked(ctx, keys); err != nil {
		return err
	}

	before, err := c.queue.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}
	if before.Pending == 0 && before.Failed == 0 {
		c.io.Println("Nothing to sync")
		return nil
	}

	c.io.Printf("Syncing %d pending item(s)...\n", before.Pending)

	c.engine.SetOnline(ctx, true)
	c.engine.Drain(ctx)

	after, err := c.queue.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}

	synced := before.Total - after.Total
	c.io.Printf("Synced: %d, remaining: %d (%d failed)\n", synced, after.Total, after.Failed)
	return nil
}
