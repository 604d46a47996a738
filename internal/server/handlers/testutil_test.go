package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/storage"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockCoordinatorStorage is a mock implementation of CoordinatorStorage for testing
type mockCoordinatorStorage struct {
	coordinators map[string]*models.Coordinator // coordinator_id -> Coordinator
	getError     error
}

func (m *mockCoordinatorStorage) CreateCoordinator(ctx context.Context, c *models.Coordinator) error {
	if _, exists := m.coordinators[c.CoordinatorID]; exists {
		return storage.ErrCoordinatorExists
	}
	m.coordinators[c.CoordinatorID] = c
	return nil
}

func (m *mockCoordinatorStorage) GetCoordinator(ctx context.Context, coordinatorID string) (*models.Coordinator, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	c, ok := m.coordinators[coordinatorID]
	if !ok {
		return nil, storage.ErrCoordinatorNotFound
	}
	return c, nil
}

func (m *mockCoordinatorStorage) GetCoordinatorByID(ctx context.Context, id string) (*models.Coordinator, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, c := range m.coordinators {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, storage.ErrCoordinatorNotFound
}

func (m *mockCoordinatorStorage) UpdateLastLogin(ctx context.Context, id string, loginTime time.Time) error {
	for _, c := range m.coordinators {
		if c.ID == id {
			c.LastLoginAt = &loginTime
			return nil
		}
	}
	return storage.ErrCoordinatorNotFound
}

// mockTokenStorage is a mock implementation of TokenStorage for testing
type mockTokenStorage struct {
	tokens      map[string]*models.RefreshToken // token -> RefreshToken
	saveError   error
	savedTokens []*models.RefreshToken
}

func (m *mockTokenStorage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.tokens[token.Token] = token
	m.savedTokens = append(m.savedTokens, token)
	return nil
}

func (m *mockTokenStorage) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.tokens[token]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	return rt, nil
}

func (m *mockTokenStorage) DeleteRefreshToken(ctx context.Context, token string) error {
	if _, ok := m.tokens[token]; !ok {
		return storage.ErrTokenNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *mockTokenStorage) DeleteCoordinatorTokens(ctx context.Context, coordinatorID string) (int, error) {
	count := 0
	for token, rt := range m.tokens {
		if rt.CoordinatorID == coordinatorID {
			delete(m.tokens, token)
			count++
		}
	}
	return count, nil
}

func (m *mockTokenStorage) DeleteExpiredTokens(ctx context.Context) (int, error) {
	return 0, nil
}

// mockRuleStorage is a mock implementation of RuleStorage for testing
type mockRuleStorage struct {
	rules     map[string]*models.PriorityRule
	listError error
}

func (m *mockRuleStorage) SaveRule(ctx context.Context, rule *models.PriorityRule) error {
	clone := *rule
	m.rules[rule.ID] = &clone
	return nil
}

func (m *mockRuleStorage) GetRule(ctx context.Context, id string) (*models.PriorityRule, error) {
	rule, ok := m.rules[id]
	if !ok {
		return nil, storage.ErrRuleNotFound
	}
	return rule, nil
}

func (m *mockRuleStorage) ListRules(ctx context.Context) ([]models.PriorityRule, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	ids := make([]string, 0, len(m.rules))
	for id := range m.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rules := make([]models.PriorityRule, 0, len(ids))
	for _, id := range ids {
		rules = append(rules, *m.rules[id])
	}
	return rules, nil
}

func (m *mockRuleStorage) DeleteRule(ctx context.Context, id string) error {
	if _, ok := m.rules[id]; !ok {
		return storage.ErrRuleNotFound
	}
	delete(m.rules, id)
	return nil
}

// mockMirrorStorage is a mock implementation of MirrorStorage for testing
type mockMirrorStorage struct {
	items       map[string]*models.QueueItem // item id -> item
	deviceItems map[string][]string          // device id -> item ids
	updateError error
}

func newMockMirrorStorage() *mockMirrorStorage {
	return &mockMirrorStorage{
		items:       make(map[string]*models.QueueItem),
		deviceItems: make(map[string][]string),
	}
}

func (m *mockMirrorStorage) ReplaceDeviceItems(ctx context.Context, deviceID string, items []*models.QueueItem) (int, int, error) {
	removed := 0
	for _, id := range m.deviceItems[deviceID] {
		delete(m.items, id)
		removed++
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		m.items[item.ID] = item.Clone()
		ids = append(ids, item.ID)
	}
	m.deviceItems[deviceID] = ids
	removed -= len(items)
	if removed < 0 {
		removed = 0
	}
	return len(items), removed, nil
}

func (m *mockMirrorStorage) ListItems(ctx context.Context) ([]*models.QueueItem, error) {
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	items := make([]*models.QueueItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, m.items[id].Clone())
	}
	return items, nil
}

func (m *mockMirrorStorage) GetItem(ctx context.Context, id string) (*models.QueueItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return item.Clone(), nil
}

func (m *mockMirrorStorage) UpdateItem(ctx context.Context, item *models.QueueItem) error {
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.items[item.ID]; !ok {
		return storage.ErrItemNotFound
	}
	m.items[item.ID] = item.Clone()
	return nil
}

// mockAuditStorage is a mock implementation of AuditStorage for testing
type mockAuditStorage struct {
	entries     []*models.OverrideAudit
	recordError error
}

func (m *mockAuditStorage) RecordOverride(ctx context.Context, entry *models.OverrideAudit) error {
	if m.recordError != nil {
		return m.recordError
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditStorage) ListOverrides(ctx context.Context, limit int) ([]*models.OverrideAudit, error) {
	result := make([]*models.OverrideAudit, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.entries[i])
	}
	return result, nil
}

// mockEntityStorage is a mock implementation of EntityStorage for testing
type mockEntityStorage struct {
	entities map[string]*models.EntityRecord // type/id -> record
}

func newMockEntityStorage() *mockEntityStorage {
	return &mockEntityStorage{entities: make(map[string]*models.EntityRecord)}
}

func entityKey(entityType models.EntityType, id string) string {
	return fmt.Sprintf("%s/%s", entityType, id)
}

func (m *mockEntityStorage) CreateEntity(ctx context.Context, entityType models.EntityType, id string, state json.RawMessage) (*models.EntityRecord, error) {
	key := entityKey(entityType, id)
	if _, exists := m.entities[key]; exists {
		return nil, storage.ErrEntityExists
	}
	record := &models.EntityRecord{
		ID:        id,
		Type:      entityType,
		State:     state,
		Version:   1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.entities[key] = record
	return record, nil
}

func (m *mockEntityStorage) UpdateEntity(ctx context.Context, entityType models.EntityType, id string, state json.RawMessage, expectedVersion int64) (*models.EntityRecord, error) {
	record, ok := m.entities[entityKey(entityType, id)]
	if !ok {
		return nil, storage.ErrEntityNotFound
	}
	if expectedVersion != 0 && expectedVersion != record.Version {
		return nil, fmt.Errorf("%w: expected %d, have %d", storage.ErrVersionConflict, expectedVersion, record.Version)
	}
	record.State = state
	record.Version++
	record.UpdatedAt = time.Now()
	return record, nil
}

func (m *mockEntityStorage) DeleteEntity(ctx context.Context, entityType models.EntityType, id string, expectedVersion int64) error {
	record, ok := m.entities[entityKey(entityType, id)]
	if !ok {
		return storage.ErrEntityNotFound
	}
	if expectedVersion != 0 && expectedVersion != record.Version {
		return fmt.Errorf("%w: expected %d, have %d", storage.ErrVersionConflict, expectedVersion, record.Version)
	}
	delete(m.entities, entityKey(entityType, id))
	return nil
}

func (m *mockEntityStorage) GetEntity(ctx context.Context, entityType models.EntityType, id string) (*models.EntityRecord, error) {
	record, ok := m.entities[entityKey(entityType, id)]
	if !ok {
		return nil, storage.ErrEntityNotFound
	}
	return record, nil
}

func (m *mockEntityStorage) ListEntities(ctx context.Context, entityType models.EntityType) ([]*models.EntityRecord, error) {
	var records []*models.EntityRecord
	for _, record := range m.entities {
		if record.Type == entityType {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}
