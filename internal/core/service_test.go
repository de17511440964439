package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datasweeper/internal/activity"
	"github.com/JonMunkholm/datasweeper/internal/dataset"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/metrics"
)

const salesCSV = `region,units,price,cost,tax
north,10,2.5,1,0.1
south,,3.5,2,0.2
north,10,2.5,1,0.1
east,4,,3,0.3
`

const threeNumericCSV = `name,a,b,c
x,1,2,3
y,4,5,6
`

type testEnv struct {
	svc   *Service
	store *Store
	rec   *activity.LogRecorder
	sess  *Session
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	store := NewStore(time.Hour, nil)
	rec := activity.NewLogRecorder()
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(store, NewUploadLimiter(2, 50*time.Millisecond), rec, m, opts)
	return &testEnv{svc: svc, store: store, rec: rec, sess: store.Create()}
}

func csvUpload(name, body string) Upload {
	return Upload{Name: name, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func (e *testEnv) upload(t *testing.T, name, body string) FileInfo {
	t.Helper()
	res, err := e.svc.Upload(context.Background(), e.sess.ID, []Upload{csvUpload(name, body)})
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1, "rejected: %+v", res.Rejected)
	return res.Accepted[0]
}

func TestUpload_SkipsUnsupportedAndKeepsOrder(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	res, err := env.svc.Upload(ctx, env.sess.ID, []Upload{
		csvUpload("sales.csv", salesCSV),
		csvUpload("notes.txt", "hello"),
		csvUpload("small.CSV", threeNumericCSV),
	})
	require.NoError(t, err)

	require.Len(t, res.Accepted, 2)
	assert.Equal(t, "sales.csv", res.Accepted[0].Name)
	assert.Equal(t, "small.CSV", res.Accepted[1].Name)
	assert.Equal(t, 4, res.Accepted[0].Rows)
	assert.Equal(t, 5, res.Accepted[0].Cols)
	assert.Equal(t, dataset.FormatCSV, res.Accepted[1].Format)

	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "notes.txt", res.Rejected[0].FileName)
	assert.Equal(t, "File format .txt not supported", res.Rejected[0].Message)
	assert.Equal(t, "FILE006", res.Rejected[0].Code)

	files, err := env.svc.Files(ctx, env.sess.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.NotEqual(t, "notes.txt", f.Name)
	}
}

func TestUpload_RequestErrors(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	_, err := env.svc.Upload(ctx, env.sess.ID, nil)
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = env.svc.Upload(ctx, "no-such-session", []Upload{csvUpload("a.csv", salesCSV)})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpload_Limits(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode string
	}{
		{name: "too many files per request", opts: Options{MaxFilesPerRequest: 1}, wantCode: "UPL001"},
		{name: "session full", opts: Options{MaxSessionFiles: 1}, wantCode: "DS006"},
		{name: "file too large", opts: Options{MaxFileSize: int64(len(salesCSV))}, wantCode: "FILE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.opts)

			res, err := env.svc.Upload(context.Background(), env.sess.ID, []Upload{
				csvUpload("a.csv", salesCSV),
				csvUpload("b.csv", salesCSV+"west,1,1,1,1\n"),
			})
			require.NoError(t, err)

			require.Len(t, res.Accepted, 1)
			assert.Equal(t, "a.csv", res.Accepted[0].Name)
			require.Len(t, res.Rejected, 1)
			assert.Equal(t, "b.csv", res.Rejected[0].FileName)
			assert.Equal(t, tt.wantCode, res.Rejected[0].Code)
		})
	}
}

func TestUpload_ParseFailure(t *testing.T) {
	env := newTestEnv(t, Options{})

	res, err := env.svc.Upload(context.Background(), env.sess.ID, []Upload{
		csvUpload("header.csv", "a,b\n"),
		csvUpload("book.xlsx", "not a workbook"),
	})
	require.NoError(t, err)

	assert.Empty(t, res.Accepted)
	require.Len(t, res.Rejected, 2)
	assert.Equal(t, "FILE005", res.Rejected[0].Code)
	assert.Equal(t, "FILE007", res.Rejected[1].Code)
}

func TestUpload_Busy(t *testing.T) {
	store := NewStore(time.Hour, nil)
	limiter := NewUploadLimiter(1, 10*time.Millisecond)
	svc := NewService(store, limiter, nil, nil, Options{})
	sess := store.Create()

	release, err := limiter.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = svc.Upload(context.Background(), sess.ID, []Upload{csvUpload("a.csv", salesCSV)})
	assert.ErrorIs(t, err, ErrTooManyUploads)
}

func TestRemoveDuplicates(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	f := env.upload(t, "sales.csv", salesCSV)

	removed, err := env.svc.RemoveDuplicates(ctx, env.sess.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	files, err := env.svc.Files(ctx, env.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, files[0].Rows)
	require.Len(t, files[0].Ops, 1)
	assert.Equal(t, "1 duplicate rows removed", files[0].Ops[0].Summary)

	removed, err = env.svc.RemoveDuplicates(ctx, env.sess.ID, f.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFillMissing(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	f := env.upload(t, "sales.csv", salesCSV)

	filled, err := env.svc.FillMissing(ctx, env.sess.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"units": 1, "price": 1}, filled)

	view, err := env.svc.View(ctx, env.sess.ID, f.ID)
	require.NoError(t, err)
	// units mean of 10, 10, 4 is 8; price mean of 2.5, 3.5, 2.5 is 2.8333...
	assert.Equal(t, "8", view.Preview.Rows[1][1])
	assert.True(t, strings.HasPrefix(view.Preview.Rows[3][2], "2.833"))
	for _, c := range view.Profile.Columns {
		assert.Zero(t, c.Missing, c.Name)
	}
}

func TestSelectColumnsAndExport(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	f := env.upload(t, "reports/sales.csv", salesCSV)

	require.NoError(t, env.svc.SelectColumns(ctx, env.sess.ID, f.ID, []string{"price", "region"}))

	out, err := env.svc.Export(ctx, env.sess.ID, f.ID, dataset.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", out.FileName)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.Equal(t, "price,region\n2.5,north\n3.5,south\n2.5,north\n,east\n", string(out.Data))

	out, err = env.svc.Export(ctx, env.sess.ID, f.ID, dataset.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "sales.xlsx", out.FileName)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out.ContentType)

	back, _, err := dataset.Parse(out.FileName, bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, []string{"price", "region"}, back.Names())
}

func TestSelectColumns_Errors(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	f := env.upload(t, "sales.csv", salesCSV)

	err := env.svc.SelectColumns(ctx, env.sess.ID, f.ID, nil)
	assert.ErrorIs(t, err, dataset.ErrNoColumns)

	err = env.svc.SelectColumns(ctx, env.sess.ID, f.ID, []string{"region", "zzz"})
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)

	files, err := env.svc.Files(ctx, env.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, files[0].Cols, "a failed selection leaves the file unchanged")
	assert.Empty(t, files[0].Ops)
}

func TestViewChart(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	wide := env.upload(t, "sales.csv", salesCSV)
	narrow := env.upload(t, "small.csv", threeNumericCSV)

	v, err := env.svc.View(ctx, env.sess.ID, wide.ID)
	require.NoError(t, err)
	require.NotNil(t, v.Chart)
	assert.Equal(t, []string{"units", "price", "cost", "tax"}, v.Chart.Columns)
	assert.Empty(t, v.ChartNote)

	v, err = env.svc.View(ctx, env.sess.ID, narrow.ID)
	require.NoError(t, err)
	assert.Nil(t, v.Chart)
	assert.Equal(t, "Not enough numeric columns to display a bar chart. Please select more columns.", v.ChartNote)

	_, err = env.svc.Chart(ctx, env.sess.ID, narrow.ID)
	assert.ErrorIs(t, err, dataset.ErrNotEnoughNumeric)
}

func TestViews_PreviewRows(t *testing.T) {
	env := newTestEnv(t, Options{PreviewRows: 2})
	env.upload(t, "sales.csv", salesCSV)

	views, err := env.svc.Views(context.Background(), env.sess.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Len(t, views[0].Preview.Rows, 2)
	assert.Nil(t, views[0].Chart)
	assert.Equal(t, 1, views[0].Profile.Duplicates)
}

func TestFileNotFound(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	f := env.upload(t, "sales.csv", salesCSV)

	_, err := env.svc.RemoveDuplicates(ctx, env.sess.ID, "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = env.svc.FillMissing(ctx, "no-such-session", f.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = env.svc.Export(ctx, env.sess.ID, "missing", dataset.FormatCSV)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestSetCleaningAndRemoveFile(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	a := env.upload(t, "a.csv", salesCSV)
	b := env.upload(t, "b.csv", threeNumericCSV)

	require.NoError(t, env.svc.SetCleaning(ctx, env.sess.ID, a.ID, true))
	require.NoError(t, env.svc.RemoveFile(ctx, env.sess.ID, b.ID))

	files, err := env.svc.Files(ctx, env.sess.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, a.ID, files[0].ID)
	assert.True(t, files[0].Cleaning)

	err = env.svc.RemoveFile(ctx, env.sess.ID, b.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestNotices(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.svc.AddNotice(env.sess.ID, Notice{Level: LevelSuccess, Text: "Duplicates Removed"})
	env.svc.AddNotice(env.sess.ID, Notice{Level: LevelError, Text: "File format .txt not supported", Code: "FILE006"})
	env.svc.AddNotice("no-such-session", Notice{Text: "dropped"})

	got := env.svc.TakeNotices(env.sess.ID)
	require.Len(t, got, 2)
	assert.Equal(t, "Duplicates Removed", got[0].Text)
	assert.Empty(t, env.svc.TakeNotices(env.sess.ID))
}

func TestActivity(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	res, err := env.svc.Upload(ctx, env.sess.ID, []Upload{
		csvUpload("sales.csv", salesCSV),
		csvUpload("notes.txt", "x"),
	})
	require.NoError(t, err)
	_, err = env.svc.RemoveDuplicates(ctx, env.sess.ID, res.Accepted[0].ID)
	require.NoError(t, err)

	entries, err := env.svc.Activity(ctx, env.sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, activity.ActionDedupe, entries[0].Action)
	assert.Equal(t, 4, entries[0].RowsBefore)
	assert.Equal(t, 3, entries[0].RowsAfter)
	assert.Equal(t, activity.ActionReject, entries[1].Action)
	assert.Equal(t, "notes.txt", entries[1].FileName)
	assert.Equal(t, "File format .txt not supported (Code: FILE006). Upload a .csv or .xlsx file", entries[1].Detail)
	assert.Equal(t, activity.ActionUpload, entries[2].Action)

	env.store.Delete(env.sess.ID)
	entries, err = env.svc.Activity(ctx, env.sess.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "evicting a session forgets its activity")
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultMaxFiles, o.MaxFilesPerRequest)
	assert.Equal(t, DefaultMaxSessionFiles, o.MaxSessionFiles)
	assert.Equal(t, DefaultParseWorkers, o.ParseWorkers)
	assert.Equal(t, DefaultUploadTimeout, o.UploadTimeout)
	assert.Equal(t, dataset.DefaultPreviewRows, o.PreviewRows)
	assert.Equal(t, DefaultChartMaxRows, o.ChartMaxRows)
}

func TestUpload_StripsClientPath(t *testing.T) {
	env := newTestEnv(t, Options{})

	info := env.upload(t, `C:\Users\ana\Desktop\sales.csv`, salesCSV)
	assert.Equal(t, "sales.csv", info.Name)

	out, err := env.svc.Export(context.Background(), env.sess.ID, info.ID, dataset.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "sales.xlsx", out.FileName)
}

// captureLogs routes the default logger to a JSON buffer for the test.
func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, level, "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// logEntries returns the entries whose msg is msg.
func logEntries(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == msg {
			out = append(out, entry)
		}
	}
	return out
}

func TestUpload_LogsParsedFile(t *testing.T) {
	env := newTestEnv(t, Options{})
	logs := captureLogs(t, "debug")

	env.upload(t, "sales.csv", salesCSV)

	parsed := logEntries(t, logs, "file parsed")
	require.Len(t, parsed, 1)
	assert.Equal(t, "sales.csv", parsed[0]["file"])
	assert.Equal(t, "csv", parsed[0]["format"])
	assert.EqualValues(t, 4, parsed[0]["rows"])
	assert.EqualValues(t, len(salesCSV), parsed[0]["size"])
}

func TestFinish_LogLevel(t *testing.T) {
	env := newTestEnv(t, Options{})
	logs := captureLogs(t, "info")
	ctx := context.Background()

	err := env.svc.SetCleaning(ctx, env.sess.ID, "missing", true)
	require.ErrorIs(t, err, ErrFileNotFound)
	env.svc.finish(ctx, activity.Entry{Action: activity.ActionExport}, errors.New("encoder exploded"))

	failed := logEntries(t, logs, "operation failed")
	require.Len(t, failed, 2)
	assert.Equal(t, "WARN", failed[0]["level"], "user-facing errors are warnings")
	assert.Equal(t, "ERROR", failed[1]["level"])
}
