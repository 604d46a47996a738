package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/fieldsync/internal/models"
)

// RunRollback откатывает optimistic update к сохраненному pre-image.
// Показывает подтверждение, когда причина его требует.
func (c *Cli) RunRollback(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rollback <update-id>")
	}
	updateID := args[0]

	op, err := c.optimistic.RequestRollback(ctx, updateID, models.RollbackUserInitiated)
	if err != nil {
		return fmt.Errorf("failed to prepare rollback: %w", err)
	}

	if op.RequiresConfirmation {
		c.io.Println(op.ConfirmationMessage)
		answer, err := c.io.ReadInput("Proceed? [y/N]: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			c.io.Println("Rollback aborted")
			return nil
		}
	}

	if err := c.optimistic.PerformRollback(ctx, updateID, op.Reason); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	c.io.Printf("Rolled back %s %s\n", op.EntityType, op.EntityID)
	return nil
}
