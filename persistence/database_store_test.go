package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDatabaseStore(t *testing.T) *DatabaseStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := NewDatabaseStore(db)
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDatabaseStoreConformance(t *testing.T) {
	runStoreConformance(t, newTestDatabaseStore(t))
}

func TestDatabaseStoreNilHandle(t *testing.T) {
	_, err := NewDatabaseStore(nil)
	require.Error(t, err)
}

func TestDatabaseStoreFinalizeGuard(t *testing.T) {
	ctx := context.Background()
	store := newTestDatabaseStore(t)

	require.NoError(t, store.Create(ctx, sampleRecord("h-1", "sess-1", "agent-a")))
	require.NoError(t, store.Finalize(ctx, "h-1", Outcome{
		Status:   StatusFailed,
		Error:    "agent returned status 500",
		Duration: time.Second,
	}))

	// Retrying with a different outcome must not overwrite the first.
	err := store.Finalize(ctx, "h-1", Outcome{Status: StatusCompleted, Response: "late win"})
	assert.ErrorIs(t, err, ErrFinalized)

	got, err := store.Get(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "agent returned status 500", got.Error)
	assert.Equal(t, time.Second, got.Duration)
}

func TestDatabaseStoreStatsAverage(t *testing.T) {
	ctx := context.Background()
	store := newTestDatabaseStore(t)

	require.NoError(t, store.Create(ctx, sampleRecord("h-1", "sess-1", "agent-a")))
	require.NoError(t, store.Create(ctx, sampleRecord("h-2", "sess-1", "agent-b")))
	require.NoError(t, store.Finalize(ctx, "h-1", Outcome{Status: StatusCompleted, Duration: 2 * time.Second}))
	require.NoError(t, store.Finalize(ctx, "h-2", Outcome{Status: StatusCompleted, Duration: 4 * time.Second}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, 3*time.Second, stats.AvgDuration)
}
