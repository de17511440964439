package activity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/datasweeper/internal/logging"
)

// perSessionLimit bounds the entries LogRecorder keeps for one session.
const perSessionLimit = 200

// LogRecorder logs every entry and remembers the latest ones per session.
type LogRecorder struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewLogRecorder returns an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{entries: make(map[string][]Entry)}
}

func (r *LogRecorder) Record(ctx context.Context, e Entry) error {
	e = stamp(e)

	logging.FromContext(ctx).Info("activity",
		"action", e.Action,
		"file", e.FileName,
		"rows_before", e.RowsBefore,
		"rows_after", e.RowsAfter,
		"columns", e.Columns,
		slog.String("detail", e.Detail),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	list := append(r.entries[e.SessionID], e)
	if len(list) > perSessionLimit {
		list = list[len(list)-perSessionLimit:]
	}
	r.entries[e.SessionID] = list
	return nil
}

func (r *LogRecorder) Recent(_ context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.entries[sessionID]
	out := make([]Entry, 0, min(limit, len(list)))
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

// Forget drops everything kept for a session.
func (r *LogRecorder) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.entries, sessionID)
	r.mu.Unlock()
}
