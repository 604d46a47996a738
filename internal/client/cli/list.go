package cli

import (
	"context"
	"fmt"
)

// RunList выводит очередь в порядке выдачи (score по убыванию, FIFO при равных)
func (c *Cli) RunList(ctx context.Context) error {
	items, err := c.queue.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list queue: %w", err)
	}

	if len(items) == 0 {
		c.io.Println("Queue is empty")
		return nil
	}

	c.io.Printf("%-36s  %-10s  %-6s  %-5s  %-7s  %s\n",
		"ID", "TYPE", "OP", "SCORE", "STATE", "REASON")
	for _, item := range items {
		c.io.Printf("%-36s  %-10s  %-6s  %-5d  %-7s  %s\n",
			item.ID,
			item.EntityType,
			item.Operation,
			item.PriorityScore,
			statusBadge(string(item.State)),
			item.PriorityReason)
		if item.LastError != "" {
			c.io.Printf("    last error: %s (retries: %d)\n", item.LastError, item.RetryCount)
		}
		if item.ManualOverride != nil {
			c.io.Printf("    manual override by %s: %d -> %d\n",
				item.ManualOverride.CoordinatorID,
				item.ManualOverride.OriginalScore,
				item.ManualOverride.OverrideScore)
		}
	}
	return nil
}
