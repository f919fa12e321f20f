package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafedash/internal/domain"
	"cafedash/internal/errors"
	"cafedash/internal/testutil"
)

// Unit Tests

func TestNewMySQLOrderRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLOrderRepository(db, 0)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
	assert.Equal(t, 2*time.Second, repo.pollInterval)
}

// Integration Tests

func TestOrderRepository_FindByID_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrderRepository(db, time.Second)
	testutil.InsertOrder(t, db, "ord-1", "John", "Ready", 1_700_000_000_000)

	order, err := repo.FindByID(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, "John", order.CustomerName)
	assert.Equal(t, "+15550100", order.CustomerNumber)
	assert.Equal(t, "1 latte", order.OrderDetails)
	assert.Equal(t, domain.StatusReady, order.Status)
	assert.Equal(t, int64(1_700_000_000_000), order.Timestamp)
}

func TestOrderRepository_FindByID_NullStatusIsPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrderRepository(db, time.Second)
	testutil.InsertOrder(t, db, "ord-1", "", "", 1)

	order, err := repo.FindByID(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
}

func TestOrderRepository_FindByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrderRepository(db, time.Second)

	order, err := repo.FindByID(context.Background(), "missing")
	assert.Error(t, err)
	assert.Nil(t, order)

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_ListSince(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrderRepository(db, time.Second)
	testutil.InsertOrder(t, db, "old", "", "Completed", 50)
	testutil.InsertOrder(t, db, "a", "", "Pending", 100)
	testutil.InsertOrder(t, db, "b", "", "Pending", 300)
	testutil.InsertOrder(t, db, "c", "", "Pending", 200)

	orders, err := repo.ListSince(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "b", orders[0].ID)
	assert.Equal(t, "c", orders[1].ID)
	assert.Equal(t, "a", orders[2].ID)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrderRepository(db, time.Second)
	testutil.InsertOrder(t, db, "ord-1", "", "Pending", 1)

	require.NoError(t, repo.UpdateStatus(context.Background(), "ord-1", domain.StatusInProgress))

	order, err := repo.FindByID(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, order.Status)
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrderRepository(db, time.Second)

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusReady)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_WatchPushesOnChangeOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrderRepository(db, 20*time.Millisecond)
	testutil.InsertOrder(t, db, "a", "", "Pending", 100)

	var mu sync.Mutex
	var pushes []domain.Snapshot
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- repo.Watch(ctx, 0, func(s domain.Snapshot) {
			mu.Lock()
			pushes = append(pushes, s)
			mu.Unlock()
		})
	}()

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(pushes)
	}

	require.Eventually(t, func() bool { return count() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, count())

	testutil.InsertOrder(t, db, "b", "", "Pending", 200)
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, pushes[1], 2)
}
