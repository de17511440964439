package core

import (
	"io"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/dataset"
)

// Upload is one file received in an upload request.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// File is an uploaded dataset held in a session.
type File struct {
	ID         string
	Name       string
	Size       int64
	Format     dataset.Format
	UploadedAt time.Time
	Data       *dataset.Dataset

	// Cleaning gates the cleaning, selection, chart and conversion controls
	// in the page.
	Cleaning bool

	// Ops lists what has been applied, oldest first.
	Ops []Operation
}

// Operation is one applied change, kept for display.
type Operation struct {
	Name    string    `json:"name"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}

// Rejection is a file skipped at upload time.
type Rejection struct {
	FileName string `json:"fileName"`
	UserMessage
}

// UploadResult reports the outcome of an upload request. Accepted keeps
// request order.
type UploadResult struct {
	Accepted []FileInfo  `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// FileInfo is a snapshot of a file's metadata.
type FileInfo struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Size       int64          `json:"size"`
	SizeKB     float64        `json:"sizeKB"`
	Format     dataset.Format `json:"format"`
	UploadedAt time.Time      `json:"uploadedAt"`
	Cleaning   bool           `json:"cleaning"`
	Rows       int            `json:"rows"`
	Cols       int            `json:"cols"`
	Ops        []Operation    `json:"ops"`
}

// FileView is everything the page shows for one file, captured under the
// session lock.
type FileView struct {
	FileInfo
	Profile dataset.Profile    `json:"profile"`
	Preview dataset.Preview    `json:"preview"`
	Chart   *dataset.ChartData `json:"chart,omitempty"`
	// ChartNote explains a missing chart, e.g. too few numeric columns.
	ChartNote string `json:"chartNote,omitempty"`
}

// ExportResult is an encoded download.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a one-shot message shown on the next page render.
type Notice struct {
	Level  Level  `json:"level"`
	Text   string `json:"text"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code,omitempty"`
}

// SizeKB returns the size in kilobytes.
func (f *File) SizeKB() float64 {
	return float64(f.Size) / 1024
}

// Info snapshots the file's metadata.
func (f *File) Info() FileInfo {
	ops := make([]Operation, len(f.Ops))
	copy(ops, f.Ops)
	return FileInfo{
		ID:         f.ID,
		Name:       f.Name,
		Size:       f.Size,
		SizeKB:     f.SizeKB(),
		Format:     f.Format,
		UploadedAt: f.UploadedAt,
		Cleaning:   f.Cleaning,
		Rows:       f.Data.Rows(),
		Cols:       f.Data.Cols(),
		Ops:        ops,
	}
}
