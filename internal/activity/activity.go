// Package activity records what happened to each uploaded file.
//
// Entries hold metadata only (file name, action, row and column counts),
// never dataset contents, so the data itself stays inside the session.
// Two recorders exist: LogRecorder writes entries to the application log
// and keeps the most recent ones per session in memory; PostgresRecorder
// stores them in a table when a database is configured.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of event recorded.
type Action string

const (
	ActionUpload   Action = "upload"
	ActionReject   Action = "reject"
	ActionDedupe   Action = "remove_duplicates"
	ActionFill     Action = "fill_missing"
	ActionSelect   Action = "select_columns"
	ActionExport   Action = "export"
	ActionRemove   Action = "remove_file"
	ActionCleaning Action = "toggle_cleaning"
)

// DefaultRecentLimit is how many entries Recent returns when asked for none.
const DefaultRecentLimit = 50

// Entry is one recorded event.
type Entry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	FileName   string    `json:"fileName"`
	Action     Action    `json:"action"`
	RowsBefore int       `json:"rowsBefore"`
	RowsAfter  int       `json:"rowsAfter"`
	Columns    int       `json:"columns"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Recorder stores activity entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	// Recent returns the newest entries for a session, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error)
}

// stamp fills the ID and timestamp of an entry that lacks them.
func stamp(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e
}
