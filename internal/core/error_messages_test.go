package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/datasweeper/internal/dataset"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unsupported format keeps extension",
			err:         &dataset.FormatError{Ext: ".txt"},
			wantCode:    "FILE006",
			wantMessage: "File format .txt not supported",
		},
		{
			name:        "wrapped unsupported format",
			err:         fmt.Errorf("upload notes.txt: %w", &dataset.FormatError{Ext: ".txt"}),
			wantCode:    "FILE006",
			wantMessage: "File format .txt not supported",
		},
		{
			name:        "empty file",
			err:         fmt.Errorf("parse: %w", dataset.ErrEmptyFile),
			wantCode:    "FILE005",
			wantMessage: "The uploaded file has no data rows",
		},
		{
			name:        "invalid csv",
			err:         fmt.Errorf("%w: bare quote", dataset.ErrInvalidCSV),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "column not found",
			err:         fmt.Errorf("%w: %q", dataset.ErrColumnNotFound, "zzz"),
			wantCode:    "DS001",
			wantMessage: "Column not found",
		},
		{
			name:        "not enough numeric",
			err:         dataset.ErrNotEnoughNumeric,
			wantCode:    "DS003",
			wantMessage: "Not enough numeric columns to display a bar chart",
		},
		{
			name:        "file not found",
			err:         ErrFileNotFound,
			wantCode:    "DS004",
			wantMessage: "File not found in this workspace",
		},
		{
			name:        "busy",
			err:         ErrTooManyUploads,
			wantCode:    "UPL002",
			wantMessage: "System is busy processing other uploads",
		},
		{
			name:        "context cancelled",
			err:         fmt.Errorf("parse: %w", context.Canceled),
			wantCode:    "UPL004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "net/http body limit by pattern",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "case insensitive pattern",
			err:         errors.New("RATE LIMIT hit"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(dataset.ErrNoColumns)
	want := "No columns selected (Code: DS002). Select at least one column to keep"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(ErrSessionFull) {
		t.Error("IsUserFacing(ErrSessionFull) = false")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(boom) = true")
	}
}
