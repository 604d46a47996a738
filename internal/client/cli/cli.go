// Package cli реализует командный интерфейс полевого клиента: управление
// сессией координатора, офлайн-очередью, ручными override и синхронизацией.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/fieldsync/internal/client/api"
	"github.com/iudanet/fieldsync/internal/client/auth"
	"github.com/iudanet/fieldsync/internal/client/iocli"
	"github.com/iudanet/fieldsync/internal/client/optimistic"
	"github.com/iudanet/fieldsync/internal/client/queue"
	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/client/syncengine"
)

// AccessKeys источники access key в порядке приоритета
type AccessKeys struct {
	FromFile string
	FromArgs string
}

type Cli struct {
	io          iocli.IO
	apiClient   *api.Client
	authService auth.Service
	queue       *queue.Store
	optimistic  *optimistic.Manager
	engine      *syncengine.Engine
	entities    storage.EntityCache
}

func New(
	io iocli.IO,
	apiClient *api.Client,
	authService auth.Service,
	queueStore *queue.Store,
	manager *optimistic.Manager,
	engine *syncengine.Engine,
	entityCache storage.EntityCache,
) *Cli {
	return &Cli{
		io:          io,
		apiClient:   apiClient,
		authService: authService,
		queue:       queueStore,
		optimistic:  manager,
		engine:      engine,
		entities:    entityCache,
	}
}

// EnsureUnlocked восстанавливает сессию перед командами, которым нужен
// доступ к зашифрованным токенам или серверу.
func (c *Cli) EnsureUnlocked(ctx context.Context, keys AccessKeys) error {
	ok, err := c.authService.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if !ok {
		return fmt.Errorf("not authenticated. Please run 'fieldsync login' first")
	}

	accessKey, err := c.getAccessKey(keys)
	if err != nil {
		return fmt.Errorf("failed to get access key: %w", err)
	}

	if err := c.authService.Unlock(ctx, accessKey); err != nil {
		return fmt.Errorf("failed to unlock session: %w", err)
	}
	return nil
}

// getAccessKey retrieves access key from various sources with priority:
// 1. Environment variable FIELDSYNC_ACCESS_KEY
// 2. File specified in --access-key-file
// 3. Command-line parameter --access-key
// 4. Interactive prompt (fallback)
func (c *Cli) getAccessKey(keys AccessKeys) (string, error) {
	// Priority 1: Environment variable
	if envKey := os.Getenv("FIELDSYNC_ACCESS_KEY"); envKey != "" {
		return envKey, nil
	}

	// Priority 2: File
	if keys.FromFile != "" {
		content, err := os.ReadFile(keys.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read access key file: %w", err)
		}
		key := strings.TrimSpace(string(content))
		if key == "" {
			return "", fmt.Errorf("access key file is empty")
		}
		return key, nil
	}

	// Priority 3: CLI parameter
	if keys.FromArgs != "" {
		return keys.FromArgs, nil
	}

	// Priority 4: Interactive prompt (fallback)
	key, err := c.io.ReadPassword("Access key: ")
	if err != nil {
		return "", fmt.Errorf("failed to read access key from stdin: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("access key cannot be empty")
	}
	return key, nil
}

// statusBadge короткая метка состояния элемента очереди для вывода
func statusBadge(state string) string {
	switch state {
	case "PENDING":
		return "pending"
	case "SYNCING":
		return "syncing"
	case "SYNCED":
		return "synced"
	case "FAILED":
		return "FAILED"
	default:
		return strings.ToLower(state)
	}
}

func PrintUsage() {
	fmt.Println("FieldSync Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fieldsync [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version               Show version information")
	fmt.Println("  --server URL            Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH               Path to local database (default: fieldsync-client.db)")
	fmt.Println("  --access-key KEY        Access key (not recommended, use env var or file)")
	fmt.Println("  --access-key-file PATH  Path to file containing access key")
	fmt.Println()
	fmt.Println("Access Key Priority (highest to lowest):")
	fmt.Println("  1. FIELDSYNC_ACCESS_KEY environment variable")
	fmt.Println("  2. --access-key-file (file path)")
	fmt.Println("  3. --access-key (command line)")
	fmt.Println("  4. Interactive prompt (fallback)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login                   Login to server")
	fmt.Println("  logout                  Logout and wipe local session")
	fmt.Println("  status                  Show session and queue status")
	fmt.Println("  enqueue <type> <op>     Queue an operation (assessment/response/media/incident)")
	fmt.Println("  list                    List queued operations in sync order")
	fmt.Println("  cancel <id>             Cancel a queued operation")
	fmt.Println("  override <id> <score>   Manually override item priority")
	fmt.Println("  retry <id>              Retry a failed item")
	fmt.Println("  rollback <update-id>    Roll back an optimistic update")
	fmt.Println("  entities <type> [id]    Show cached entity state (local view)")
	fmt.Println("  sync                    Drain the queue now")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  fieldsync login")
	fmt.Println("  fieldsync enqueue assessment create")
	fmt.Println("  fieldsync list")
	fmt.Println()
	fmt.Println("  # Using environment variable (recommended)")
	fmt.Println("  export FIELDSYNC_ACCESS_KEY='field-access-key-42'")
	fmt.Println("  fieldsync sync")
	fmt.Println()
	fmt.Println("  # Using key file (for automation)")
	fmt.Println("  echo 'field-access-key-42' > ~/.fieldsync-key")
	fmt.Println("  chmod 600 ~/.fieldsync-key")
	fmt.Println("  fieldsync --access-key-file ~/.fieldsync-key sync")
	fmt.Println()
	fmt.Println("  fieldsync override b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5 85")
	fmt.Println("  fieldsync --server https://ops.example.com login")
}
