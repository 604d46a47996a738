package optimistic

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/client/storage/boltdb"
	"github.com/iudanet/fieldsync/internal/models"
)

// dequeuerMock записывает отмененные элементы очереди
type dequeuerMock struct {
	dequeued []string
}

func (d *dequeuerMock) Dequeue(_ context.Context, id string) error {
	d.dequeued = append(d.dequeued, id)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *boltdb.Storage, *dequeuerMock) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "optimistic-test.db")
	bolt, err := boltdb.New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, bolt.Close())
	})

	dq := &dequeuerMock{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return NewManager(bolt, bolt, dq, logger), bolt, dq
}

func applyUpdate(t *testing.T, m *Manager, op models.Operation, entityID string, state string) *models.OptimisticUpdate {
	t.Helper()

	var newState json.RawMessage
	if state != "" {
		newState = json.RawMessage(state)
	}
	update, err := m.Apply(context.Background(), ApplyParams{
		EntityType: models.EntityAssessment,
		EntityID:   entityID,
		Operation:  op,
		NewState:   newState,
	})
	require.NoError(t, err)
	return update
}

func TestApply_CreateAndRollbackRemovesEntity(t *testing.T) {
	m, bolt, _ := newTestManager(t)
	ctx := context.Background()

	update := applyUpdate(t, m, models.OperationCreate, "a-1", `{"severity":"high"}`)
	assert.Empty(t, update.RollbackData)

	// Спекулятивное состояние видно в кеше сразу
	state, err := bolt.GetEntity(ctx, models.EntityAssessment, "a-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"high"}`, string(state))

	require.NoError(t, m.PerformRollback(ctx, update.UpdateID, models.RollbackUserInitiated))

	_, err = bolt.GetEntity(ctx, models.EntityAssessment, "a-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestApply_UpdateSnapshotsPreImage(t *testing.T) {
	m, bolt, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, bolt.SaveEntity(ctx, models.EntityAssessment, "a-1", json.RawMessage(`{"severity":"low"}`)))

	update := applyUpdate(t, m, models.OperationUpdate, "a-1", `{"severity":"high"}`)
	assert.JSONEq(t, `{"severity":"low"}`, string(update.RollbackData))

	// Откат восстанавливает снимок, а не текущее состояние кеша
	require.NoError(t, bolt.SaveEntity(ctx, models.EntityAssessment, "a-1", json.RawMessage(`{"severity":"tampered"}`)))
	require.NoError(t, m.PerformRollback(ctx, update.UpdateID, models.RollbackSyncFailed))

	state, err := bolt.GetEntity(ctx, models.EntityAssessment, "a-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"low"}`, string(state))
}

func TestApply_DeleteRestoredOnRollback(t *testing.T) {
	m, bolt, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, bolt.SaveEntity(ctx, models.EntityAssessment, "a-1", json.RawMessage(`{"severity":"low"}`)))

	update := applyUpdate(t, m, models.OperationDelete, "a-1", "")

	_, err := bolt.GetEntity(ctx, models.EntityAssessment, "a-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	require.NoError(t, m.PerformRollback(ctx, update.UpdateID, models.RollbackUserInitiated))

	state, err := bolt.GetEntity(ctx, models.EntityAssessment, "a-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"low"}`, string(state))
}

func TestConfirm_Idempotent(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	update := applyUpdate(t, m, models.OperationCreate, "a-1", `{}`)

	require.NoError(t, m.Confirm(ctx, update.UpdateID))
	assert.NoError(t, m.Confirm(ctx, update.UpdateID))
	// confirm неизвестного id — no-op
	assert.NoError(t, m.Confirm(ctx, "never-existed"))
}

func TestConfirmAndRollback_MutuallyExclusive(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	confirmed := applyUpdate(t, m, models.OperationCreate, "a-1", `{}`)
	require.NoError(t, m.Confirm(ctx, confirmed.UpdateID))
	assert.ErrorIs(t, m.PerformRollback(ctx, confirmed.UpdateID, models.RollbackUserInitiated), ErrAlreadyConfirmed)

	rolledBack := applyUpdate(t, m, models.OperationCreate, "a-2", `{}`)
	require.NoError(t, m.PerformRollback(ctx, rolledBack.UpdateID, models.RollbackUserInitiated))
	assert.ErrorIs(t, m.Confirm(ctx, rolledBack.UpdateID), ErrAlreadyRolledBack)
	// повторный rollback — no-op
	assert.NoError(t, m.PerformRollback(ctx, rolledBack.UpdateID, models.RollbackUserInitiated))
}

func TestPerformRollback_RejectsNonNewest(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	// Два последовательных update одной сущности
	first := applyUpdate(t, m, models.OperationCreate, "a-1", `{"v":1}`)
	m.nowFn = func() time.Time { return time.Now().Add(time.Second) }
	second := applyUpdate(t, m, models.OperationUpdate, "a-1", `{"v":2}`)

	err := m.PerformRollback(ctx, first.UpdateID, models.RollbackUserInitiated)
	assert.ErrorIs(t, err, ErrNotNewestUpdate)

	// Новейший откатывается, после него доступен и первый
	require.NoError(t, m.PerformRollback(ctx, second.UpdateID, models.RollbackUserInitiated))
	require.NoError(t, m.PerformRollback(ctx, first.UpdateID, models.RollbackUserInitiated))
}

func TestRollbackEntity_ReverseChronological(t *testing.T) {
	m, bolt, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, bolt.SaveEntity(ctx, models.EntityAssessment, "a-1", json.RawMessage(`{"v":0}`)))

	base := time.Now()
	m.nowFn = func() time.Time { return base }
	applyUpdate(t, m, models.OperationUpdate, "a-1", `{"v":1}`)
	m.nowFn = func() time.Time { return base.Add(time.Second) }
	applyUpdate(t, m, models.OperationUpdate, "a-1", `{"v":2}`)
	m.nowFn = func() time.Time { return base.Add(2 * time.Second) }
	applyUpdate(t, m, models.OperationUpdate, "a-1", `{"v":3}`)

	rolled, err := m.RollbackEntity(ctx, "a-1", models.RollbackSyncFailed)
	require.NoError(t, err)
	assert.Equal(t, 3, rolled)

	// Кеш вернулся к последнему подтвержденному состоянию
	state, err := bolt.GetEntity(ctx, models.EntityAssessment, "a-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":0}`, string(state))
}

func TestRequestRollback_DescriptorOnly(t *testing.T) {
	m, bolt, _ := newTestManager(t)
	ctx := context.Background()

	update := applyUpdate(t, m, models.OperationCreate, "a-1", `{"v":1}`)

	// Терминальный сбой синхронизации — единственная причина,
	// допускающая откат без подтверждения
	op, err := m.RequestRollback(ctx, update.UpdateID, models.RollbackSyncFailed)
	require.NoError(t, err)
	assert.Equal(t, update.UpdateID, op.UpdateID)
	assert.False(t, op.RequiresConfirmation)
	assert.Contains(t, op.ConfirmationMessage, "a-1")

	// Дескриптор не мутирует состояние
	state, err := bolt.GetEntity(ctx, models.EntityAssessment, "a-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(state))

	op, err = m.RequestRollback(ctx, update.UpdateID, models.RollbackUserInitiated)
	require.NoError(t, err)
	assert.True(t, op.RequiresConfirmation)

	op, err = m.RequestRollback(ctx, update.UpdateID, models.RollbackValidationError)
	require.NoError(t, err)
	assert.True(t, op.RequiresConfirmation)
}

func TestPerformRollback_CancelsQueueItem(t *testing.T) {
	m, _, dq := newTestManager(t)
	ctx := context.Background()

	update, err := m.Apply(ctx, ApplyParams{
		EntityType:  models.EntityAssessment,
		EntityID:    "a-1",
		Operation:   models.OperationCreate,
		QueueItemID: "queue-item-9",
		NewState:    json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	require.NoError(t, m.PerformRollback(ctx, update.UpdateID, models.RollbackUserInitiated))
	assert.Equal(t, []string{"queue-item-9"}, dq.dequeued)
}

func TestPruneResolved(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	confirmed := applyUpdate(t, m, models.OperationCreate, "a-1", `{}`)
	require.NoError(t, m.Confirm(ctx, confirmed.UpdateID))
	applyUpdate(t, m, models.OperationCreate, "a-2", `{}`)

	pruned, err := m.PruneResolved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	pending, err := m.PendingUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a-2", pending[0].EntityID)
}
