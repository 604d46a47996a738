package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iudanet/fieldsync/internal/client/queue"
	pkgapi "github.com/iudanet/fieldsync/pkg/api"
)

// RunOverride применяет ручное переопределение приоритета.
// Требует обоснования; при |delta| > порога запускает step-up подтверждение
// и проводит override через сервер с elevated токеном.
func (c *Cli) RunOverride(ctx context.Context, args []string, keys AccessKeys) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: override <item-id> <new-score>")
	}
	itemID := args[0]

	newScore, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid score: %s", args[1])
	}

	justification, err := c.io.ReadInput("Justification (min 10 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read justification: %w", err)
	}

	if err := c.EnsureUnlocked(ctx, keys); err != nil {
		return err
	}

	auth, err := c.authService.GetAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	item, stepUpRequired, err := c.queue.ApplyManualOverride(ctx, itemID, newScore, justification, auth.CoordinatorID)
	if err != nil {
		return err
	}

	c.io.Printf("Priority overridden: %d -> %d\n", item.ManualOverride.OriginalScore, item.PriorityScore)
	c.io.Printf("New estimated sync: %s\n", item.EstimatedSyncTime.Format("15:04:05"))

	if !stepUpRequired {
		return nil
	}

	// Большое отклонение: сервер требует повторного подтверждения access key
	c.io.Printf("Score delta exceeds %d, step-up confirmation required\n", queue.StepUpDelta)
	accessKey, err := c.io.ReadPassword("Confirm access key: ")
	if err != nil {
		return fmt.Errorf("failed to read access key: %w", err)
	}

	elevated, err := c.authService.StepUp(ctx, accessKey)
	if err != nil {
		return fmt.Errorf("step-up confirmation failed: %w", err)
	}

	resp, err := c.apiClient.Override(ctx, elevated, pkgapi.OverrideRequest{
		ItemID:        itemID,
		NewPriority:   newScore,
		Justification: justification,
		CoordinatorID: auth.CoordinatorID,
	})
	if err != nil {
		return fmt.Errorf("server override failed: %w", err)
	}
	if resp.StepUpApplied {
		c.io.Println("Override confirmed with elevated credentials")
	}
	return nil
}
