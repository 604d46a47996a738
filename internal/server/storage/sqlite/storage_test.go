package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func testCoordinator(coordinatorID string) *models.Coordinator {
	return &models.Coordinator{
		ID:            "internal-" + coordinatorID,
		CoordinatorID: coordinatorID,
		AccessKeyHash: "a1b2c3",
		StorageSalt:   "c2FsdA==",
		CreatedAt:     time.Now().UTC(),
	}
}

func TestStorage_CreateAndGetCoordinator(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	coordinator := testCoordinator("coordinator-7")
	require.NoError(t, s.CreateCoordinator(ctx, coordinator))

	got, err := s.GetCoordinator(ctx, "coordinator-7")
	require.NoError(t, err)
	assert.Equal(t, coordinator.ID, got.ID)
	assert.Equal(t, coordinator.AccessKeyHash, got.AccessKeyHash)
	assert.Equal(t, coordinator.StorageSalt, got.StorageSalt)
	assert.Nil(t, got.LastLoginAt)

	byID, err := s.GetCoordinatorByID(ctx, coordinator.ID)
	require.NoError(t, err)
	assert.Equal(t, "coordinator-7", byID.CoordinatorID)
}

func TestStorage_CreateCoordinator_Duplicate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCoordinator(ctx, testCoordinator("coordinator-7")))

	dup := testCoordinator("coordinator-7")
	dup.ID = "other-internal-id"
	err := s.CreateCoordinator(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrCoordinatorExists)
}

func TestStorage_GetCoordinator_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetCoordinator(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrCoordinatorNotFound)
}

func TestStorage_UpdateLastLogin(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	coordinator := testCoordinator("coordinator-7")
	require.NoError(t, s.CreateCoordinator(ctx, coordinator))

	now := time.Now().UTC()
	require.NoError(t, s.UpdateLastLogin(ctx, coordinator.ID, now))

	got, err := s.GetCoordinator(ctx, "coordinator-7")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.WithinDuration(t, now, *got.LastLoginAt, time.Second)

	err = s.UpdateLastLogin(ctx, "missing", now)
	assert.ErrorIs(t, err, storage.ErrCoordinatorNotFound)
}

func TestStorage_RefreshTokenLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	coordinator := testCoordinator("coordinator-7")
	require.NoError(t, s.CreateCoordinator(ctx, coordinator))

	token := &models.RefreshToken{
		Token:         "refresh-token-1",
		CoordinatorID: coordinator.ID,
		ExpiresAt:     time.Now().Add(time.Hour).UTC(),
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.SaveRefreshToken(ctx, token))

	got, err := s.GetRefreshToken(ctx, "refresh-token-1")
	require.NoError(t, err)
	assert.Equal(t, coordinator.ID, got.CoordinatorID)
	assert.False(t, got.IsExpired())

	require.NoError(t, s.DeleteRefreshToken(ctx, "refresh-token-1"))

	_, err = s.GetRefreshToken(ctx, "refresh-token-1")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	err = s.DeleteRefreshToken(ctx, "refresh-token-1")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestStorage_DeleteCoordinatorTokens(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	coordinator := testCoordinator("coordinator-7")
	require.NoError(t, s.CreateCoordinator(ctx, coordinator))

	for _, tok := range []string{"t1", "t2", "t3"} {
		require.NoError(t, s.SaveRefreshToken(ctx, &models.RefreshToken{
			Token:         tok,
			CoordinatorID: coordinator.ID,
			ExpiresAt:     time.Now().Add(time.Hour).UTC(),
			CreatedAt:     time.Now().UTC(),
		}))
	}

	deleted, err := s.DeleteCoordinatorTokens(ctx, coordinator.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}

func TestStorage_DeleteExpiredTokens(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	coordinator := testCoordinator("coordinator-7")
	require.NoError(t, s.CreateCoordinator(ctx, coordinator))

	require.NoError(t, s.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:         "expired",
		CoordinatorID: coordinator.ID,
		ExpiresAt:     time.Now().Add(-time.Hour).UTC(),
		CreatedAt:     time.Now().Add(-2 * time.Hour).UTC(),
	}))
	require.NoError(t, s.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:         "fresh",
		CoordinatorID: coordinator.ID,
		ExpiresAt:     time.Now().Add(time.Hour).UTC(),
		CreatedAt:     time.Now().UTC(),
	}))

	deleted, err := s.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = s.GetRefreshToken(ctx, "fresh")
	assert.NoError(t, err)
}

func TestStorage_EntityVersioning(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	record, err := s.CreateEntity(ctx, models.EntityAssessment, "e-1", json.RawMessage(`{"severity":"minor"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.Version)

	// повторный CREATE того же id
	_, err = s.CreateEntity(ctx, models.EntityAssessment, "e-1", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, storage.ErrEntityExists)

	// UPDATE с верной версией
	updated, err := s.UpdateEntity(ctx, models.EntityAssessment, "e-1", json.RawMessage(`{"severity":"major"}`), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// UPDATE с устаревшей версией
	_, err = s.UpdateEntity(ctx, models.EntityAssessment, "e-1", json.RawMessage(`{"severity":"minor"}`), 1)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)

	// UPDATE без версии пропускает проверку
	updated, err = s.UpdateEntity(ctx, models.EntityAssessment, "e-1", json.RawMessage(`{"severity":"critical"}`), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Version)

	got, err := s.GetEntity(ctx, models.EntityAssessment, "e-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"critical"}`, string(got.State))

	// DELETE с устаревшей версией
	err = s.DeleteEntity(ctx, models.EntityAssessment, "e-1", 2)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)

	require.NoError(t, s.DeleteEntity(ctx, models.EntityAssessment, "e-1", 3))

	_, err = s.GetEntity(ctx, models.EntityAssessment, "e-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestStorage_EntityTypeNamespaces(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.CreateEntity(ctx, models.EntityAssessment, "e-1", json.RawMessage(`{"kind":"assessment"}`))
	require.NoError(t, err)
	_, err = s.CreateEntity(ctx, models.EntityMedia, "e-1", json.RawMessage(`{"kind":"media"}`))
	require.NoError(t, err)

	media, err := s.ListEntities(ctx, models.EntityMedia)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.JSONEq(t, `{"kind":"media"}`, string(media[0].State))
}

func TestStorage_RuleCRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	rule := &models.PriorityRule{
		ID:         "rule-1",
		Name:       "critical infrastructure",
		EntityType: models.EntityAssessment,
		Conditions: []models.Condition{
			{Field: "severity", Op: models.OpEquals, Value: "critical"},
		},
		PriorityModifier: 25,
		IsActive:         true,
	}
	require.NoError(t, s.SaveRule(ctx, rule))

	got, err := s.GetRule(ctx, "rule-1")
	require.NoError(t, err)
	assert.Equal(t, rule.Name, got.Name)
	require.Len(t, got.Conditions, 1)
	assert.Equal(t, models.OpEquals, got.Conditions[0].Op)

	// upsert по id
	rule.PriorityModifier = -10
	rule.IsActive = false
	require.NoError(t, s.SaveRule(ctx, rule))

	got, err = s.GetRule(ctx, "rule-1")
	require.NoError(t, err)
	assert.Equal(t, -10, got.PriorityModifier)
	assert.False(t, got.IsActive)

	rules, err := s.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	require.NoError(t, s.DeleteRule(ctx, "rule-1"))
	assert.ErrorIs(t, s.DeleteRule(ctx, "rule-1"), storage.ErrRuleNotFound)

	_, err = s.GetRule(ctx, "rule-1")
	assert.ErrorIs(t, err, storage.ErrRuleNotFound)
}

func mirrorItem(id string, score int) *models.QueueItem {
	return &models.QueueItem{
		ID:                id,
		EntityType:        models.EntityAssessment,
		EntityID:          "e-" + id,
		Operation:         models.OperationCreate,
		Priority:          models.PriorityHigh,
		State:             models.SyncStatePending,
		PriorityScore:     score,
		PriorityReason:    "Assessment item",
		Payload:           json.RawMessage(`{"severity":"major"}`),
		CreatedAt:         time.Now().UTC(),
		EstimatedSyncTime: time.Now().Add(50 * time.Minute).UTC(),
	}
}

func TestStorage_MirrorReplaceAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	accepted, removed, err := s.ReplaceDeviceItems(ctx, "device-1", []*models.QueueItem{
		mirrorItem("i1", 50),
		mirrorItem("i2", 80),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
	assert.Equal(t, 0, removed)

	// снимок другого устройства не трогает первое
	_, _, err = s.ReplaceDeviceItems(ctx, "device-2", []*models.QueueItem{mirrorItem("i3", 65)})
	require.NoError(t, err)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// порядок: score по убыванию
	assert.Equal(t, "i2", items[0].ID)
	assert.Equal(t, "i3", items[1].ID)
	assert.Equal(t, "i1", items[2].ID)

	// новый снимок замещает очередь устройства
	accepted, removed, err = s.ReplaceDeviceItems(ctx, "device-1", []*models.QueueItem{mirrorItem("i2", 85)})
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, removed)

	_, err = s.GetItem(ctx, "i1")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestStorage_MirrorUpdateItem(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, _, err := s.ReplaceDeviceItems(ctx, "device-1", []*models.QueueItem{mirrorItem("i1", 50)})
	require.NoError(t, err)

	item, err := s.GetItem(ctx, "i1")
	require.NoError(t, err)

	item.PriorityScore = 85
	item.ManualOverride = &models.ManualOverride{
		CoordinatorID: "coordinator-7",
		Justification: "medical supplies on board",
		OriginalScore: 50,
		OverrideScore: 85,
		Timestamp:     time.Now().UTC(),
	}
	require.NoError(t, s.UpdateItem(ctx, item))

	got, err := s.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 85, got.PriorityScore)
	require.NotNil(t, got.ManualOverride)
	assert.Equal(t, "coordinator-7", got.ManualOverride.CoordinatorID)

	missing := mirrorItem("missing", 10)
	assert.ErrorIs(t, s.UpdateItem(ctx, missing), storage.ErrItemNotFound)
}

func TestStorage_OverrideAudit(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i, id := range []string{"a1", "a2", "a3"} {
		require.NoError(t, s.RecordOverride(ctx, &models.OverrideAudit{
			ID:            id,
			ItemID:        "i1",
			CoordinatorID: "coordinator-7",
			Justification: "supply route reopened today",
			OldScore:      50,
			NewScore:      60 + i,
			Elevated:      i == 2,
			CreatedAt:     time.Now().Add(time.Duration(i) * time.Second).UTC(),
		}))
	}

	entries, err := s.ListOverrides(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// новейшие первыми
	assert.Equal(t, "a3", entries[0].ID)
	assert.True(t, entries[0].Elevated)
	assert.Equal(t, "a2", entries[1].ID)
}
