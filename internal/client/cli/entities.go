package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iudanet/fieldsync/internal/client/storage"
)

// RunEntities показывает локальное состояние кеша сущностей: именно его
// видит координатор до подтверждения сервером (optimistic view).
func (c *Cli) RunEntities(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: entities <assessment|response|media|incident> [id]")
	}

	entityType, ok := entityTypeAliases[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown entity type: %s", args[0])
	}

	if len(args) >= 2 {
		state, err := c.entities.GetEntity(ctx, entityType, args[1])
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				return fmt.Errorf("entity %s/%s not found in local cache", entityType, args[1])
			}
			return fmt.Errorf("failed to read entity: %w", err)
		}
		c.io.Printf("%s %s\n%s\n", entityType, args[1], indentJSON(state))
		return nil
	}

	states, err := c.entities.ListEntities(ctx, entityType)
	if err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}
	if len(states) == 0 {
		c.io.Printf("No cached %s entities\n", strings.ToLower(string(entityType)))
		return nil
	}

	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c.io.Printf("Cached %s entities: %d\n", strings.ToLower(string(entityType)), len(ids))
	for _, id := range ids {
		c.io.Printf("  %-36s  %s\n", id, compactJSON(states[id]))
	}
	return nil
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
