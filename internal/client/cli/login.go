package cli

import (
	"context"
	"fmt"
)

// RunLogin выполняет интерактивную аутентификацию координатора
func (c *Cli) RunLogin(ctx context.Context) error {
	c.io.Println("=== FieldSync Login ===")

	coordinatorID, err := c.io.ReadInput("Coordinator ID: ")
	if err != nil {
		return fmt.Errorf("failed to read coordinator id: %w", err)
	}

	accessKey, err := c.io.ReadPassword("Access key: ")
	if err != nil {
		return fmt.Errorf("failed to read access key: %w", err)
	}

	result, err := c.authService.Login(ctx, coordinatorID, accessKey)
	if err != nil {
		return err
	}

	c.io.Println("")
	c.io.Printf("Logged in as %s (token expires in %ds)\n", result.CoordinatorID, result.ExpiresIn)
	return nil
}
