package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for uploads whose extension is not .csv or .xlsx.
	ErrUnsupportedFormat = errors.New("file format not supported")

	// ErrEmptyFile is returned when a file has no header or no data rows.
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidCSV wraps CSV syntax errors.
	ErrInvalidCSV = errors.New("invalid csv")

	// ErrInvalidSpreadsheet wraps workbook decoding errors.
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

	// ErrColumnNotFound is returned when a selection names an unknown column.
	ErrColumnNotFound = errors.New("column not found")

	// ErrNoColumns is returned when a selection is empty.
	ErrNoColumns = errors.New("no columns selected")

	// ErrNotEnoughNumeric is returned when a chart needs more numeric columns
	// than the dataset has.
	ErrNotEnoughNumeric = errors.New("not enough numeric columns")
)

// FormatError reports an upload with an unsupported extension.
// It matches ErrUnsupportedFormat with errors.Is.
type FormatError struct {
	Ext string
}

func (e *FormatError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("File format %s not supported", ext)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}
