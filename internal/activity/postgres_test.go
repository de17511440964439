package activity

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datasweeper/internal/config"
)

// testRecorder connects to DATABASE_URL and skips the test when it is unset.
func testRecorder(t *testing.T) *PostgresRecorder {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := OpenPool(ctx, config.DatabaseConfig{
		URL:             url,
		MaxConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	rec, err := NewPostgresRecorder(ctx, pool)
	require.NoError(t, err)

	// Creating the table twice is harmless.
	_, err = NewPostgresRecorder(ctx, pool)
	require.NoError(t, err)
	return rec
}

func TestPostgresRecorder_RecordAndRecent(t *testing.T) {
	rec := testRecorder(t)
	ctx := context.Background()

	session := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = rec.pool.Exec(context.Background(), `DELETE FROM dataset_activity WHERE session_id = $1`, session)
	})

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{SessionID: session, FileName: "sales.csv", Action: ActionUpload, RowsAfter: 4, Columns: 5, Detail: "csv", CreatedAt: base},
		{SessionID: session, FileName: "sales.csv", Action: ActionDedupe, RowsBefore: 4, RowsAfter: 3, Columns: 5, CreatedAt: base.Add(time.Second)},
		{SessionID: session, FileName: "sales.csv", Action: ActionExport, RowsBefore: 3, RowsAfter: 3, Columns: 5, Detail: "xlsx", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		require.NoError(t, rec.Record(ctx, e))
	}
	require.NoError(t, rec.Record(ctx, Entry{SessionID: "other-" + session, Action: ActionUpload}))
	t.Cleanup(func() {
		_, _ = rec.pool.Exec(context.Background(), `DELETE FROM dataset_activity WHERE session_id = $1`, "other-"+session)
	})

	got, err := rec.Recent(ctx, session, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, ActionExport, got[0].Action)
	assert.Equal(t, "xlsx", got[0].Detail)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Second)))
	assert.Equal(t, ActionDedupe, got[1].Action)
	assert.Equal(t, 4, got[1].RowsBefore)
	assert.Equal(t, 3, got[1].RowsAfter)
	_, err = uuid.Parse(got[0].ID)
	assert.NoError(t, err)

	all, err := rec.Recent(ctx, session, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPostgresRecorder_RejectsBadID(t *testing.T) {
	rec := testRecorder(t)

	err := rec.Record(context.Background(), Entry{ID: "not-a-uuid", SessionID: "s", Action: ActionUpload})
	assert.Error(t, err)
}
