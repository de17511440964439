package core

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/datasweeper/internal/activity"
	"github.com/JonMunkholm/datasweeper/internal/config"
	"github.com/JonMunkholm/datasweeper/internal/dataset"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/metrics"
)

// Defaults applied by Options when a field is zero.
const (
	DefaultUploadTimeout   = 2 * time.Minute
	DefaultParseWorkers    = 4
	DefaultMaxFiles        = 10
	DefaultMaxSessionFiles = 20
	DefaultChartMaxRows    = 200
)

// Options tunes a Service.
type Options struct {
	MaxFileSize        int64
	MaxFilesPerRequest int
	MaxSessionFiles    int
	ParseWorkers       int
	UploadTimeout      time.Duration
	PreviewRows        int
	ChartMaxRows       int
}

// OptionsFromConfig maps application configuration to service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxFileSize:        cfg.Upload.MaxFileSize,
		MaxFilesPerRequest: cfg.Upload.MaxFiles,
		MaxSessionFiles:    cfg.Session.MaxFiles,
		ParseWorkers:       cfg.Upload.ParseWorkers,
		UploadTimeout:      cfg.Upload.Timeout,
		PreviewRows:        cfg.Preview.Rows,
		ChartMaxRows:       cfg.Chart.MaxRows,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxFilesPerRequest <= 0 {
		o.MaxFilesPerRequest = DefaultMaxFiles
	}
	if o.MaxSessionFiles <= 0 {
		o.MaxSessionFiles = DefaultMaxSessionFiles
	}
	if o.ParseWorkers <= 0 {
		o.ParseWorkers = DefaultParseWorkers
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = DefaultUploadTimeout
	}
	if o.PreviewRows <= 0 {
		o.PreviewRows = dataset.DefaultPreviewRows
	}
	if o.ChartMaxRows <= 0 {
		o.ChartMaxRows = DefaultChartMaxRows
	}
	return o
}

// Service implements the upload, cleaning and export workflow on top of
// the session store.
type Service struct {
	store    *Store
	limiter  *UploadLimiter
	activity activity.Recorder
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time
}

// NewService wires a service. A nil limiter or recorder selects the
// defaults; a nil metrics value disables metrics.
func NewService(store *Store, limiter *UploadLimiter, rec activity.Recorder, m *metrics.Metrics, opts Options) *Service {
	if limiter == nil {
		limiter = NewUploadLimiter(0, 0)
	}
	if rec == nil {
		rec = activity.NewLogRecorder()
	}
	if f, ok := rec.(interface{ Forget(sessionID string) }); ok {
		store.OnEvict(f.Forget)
	}

	return &Service{
		store:    store,
		limiter:  limiter,
		activity: rec,
		metrics:  m,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// Store returns the session store.
func (s *Service) Store() *Store {
	return s.store
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// UploadLimiterStatus reports upload slot usage.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

type parsedUpload struct {
	data   *dataset.Dataset
	format dataset.Format
	err    error
}

// Upload parses every file and adds the readable ones to the session in
// request order. A file that cannot be used becomes a Rejection and the
// rest still proceed. The returned error covers the request as a whole:
// no files, unknown session, no upload slot, or a cancelled context.
func (s *Service) Upload(ctx context.Context, sessionID string, uploads []Upload) (*UploadResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFile
	}

	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	defer cancel()

	parsed := make([]parsedUpload, len(uploads))

	var g errgroup.Group
	g.SetLimit(s.opts.ParseWorkers)
	for i, u := range uploads {
		if i >= s.opts.MaxFilesPerRequest {
			parsed[i].err = ErrTooManyFiles
			continue
		}
		g.Go(func() error {
			parsed[i] = s.parse(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	log := logging.FromContext(ctx)
	now := s.now()
	result := &UploadResult{
		Accepted: []FileInfo{},
		Rejected: []Rejection{},
	}
	var entries []activity.Entry

	sess.mu.Lock()
	for i, u := range uploads {
		p := parsed[i]
		name := dataset.BaseName(u.Name)
		if p.err == nil && len(sess.files) >= s.opts.MaxSessionFiles {
			p.err = ErrSessionFull
		}

		if p.err != nil {
			msg := MapError(p.err)
			result.Rejected = append(result.Rejected, Rejection{FileName: name, UserMessage: msg})
			s.metrics.Upload(string(p.format), metrics.OutcomeRejected)
			entries = append(entries, activity.Entry{
				SessionID: sessionID,
				FileName:  name,
				Action:    activity.ActionReject,
				Detail:    FormatUserError(p.err),
			})
			log.Warn("file rejected", "file", name, "code", msg.Code, "error", p.err)
			continue
		}

		f := &File{
			ID:         uuid.NewString(),
			Name:       name,
			Size:       u.Size,
			Format:     p.format,
			UploadedAt: now,
			Data:       p.data,
		}
		sess.files = append(sess.files, f)
		result.Accepted = append(result.Accepted, f.Info())
		s.metrics.Upload(string(p.format), metrics.OutcomeAccepted)
		entries = append(entries, activity.Entry{
			SessionID: sessionID,
			FileName:  f.Name,
			Action:    activity.ActionUpload,
			RowsAfter: f.Data.Rows(),
			Columns:   f.Data.Cols(),
			Detail:    string(f.Format),
		})
	}
	sess.mu.Unlock()

	s.record(ctx, entries...)

	log.Info("upload processed",
		"accepted", len(result.Accepted),
		"rejected", len(result.Rejected),
	)
	return result, nil
}

func (s *Service) parse(ctx context.Context, u Upload) parsedUpload {
	if err := ctx.Err(); err != nil {
		return parsedUpload{err: err}
	}
	if s.opts.MaxFileSize > 0 && u.Size > s.opts.MaxFileSize {
		return parsedUpload{err: fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, u.Name, u.Size)}
	}

	log := logging.WithFields(ctx, "file", u.Name, "size", u.Size)
	start := time.Now()
	ds, format, err := dataset.Parse(u.Name, u.Body)
	elapsed := time.Since(start)
	s.metrics.ObserveParse(string(format), elapsed)
	if err != nil {
		log.Debug("parse failed", "format", format, "error", err)
		return parsedUpload{format: format, err: fmt.Errorf("parse %s: %w", u.Name, err)}
	}
	log.Debug("file parsed",
		"format", format,
		"rows", ds.Rows(),
		"cols", ds.Cols(),
		"duration", elapsed,
	)
	return parsedUpload{data: ds, format: format}
}

// withFile runs fn with the session locked. Unknown sessions and files both
// yield ErrFileNotFound.
func (s *Service) withFile(sessionID, fileID string, fn func(sess *Session, f *File) error) error {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	f, _ := sess.find(fileID)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	return fn(sess, f)
}

// finish counts an operation and records it when it succeeded.
func (s *Service) finish(ctx context.Context, e activity.Entry, err error) {
	s.metrics.Operation(string(e.Action), err != nil)
	if err != nil {
		// Errors the user can act on are expected; anything else is ours.
		level := slog.LevelError
		if IsUserFacing(err) {
			level = slog.LevelWarn
		}
		logging.FromContext(ctx).Log(ctx, level, "operation failed",
			"action", e.Action,
			"file", e.FileName,
			"error", err,
		)
		return
	}
	s.record(ctx, e)
}

func (s *Service) record(ctx context.Context, entries ...activity.Entry) {
	for _, e := range entries {
		if err := s.activity.Record(ctx, e); err != nil {
			logging.FromContext(ctx).Error("record activity", "action", e.Action, "error", err)
		}
	}
}

func (f *File) addOp(name, summary string, at time.Time) {
	f.Ops = append(f.Ops, Operation{Name: name, Summary: summary, At: at})
}

// RemoveDuplicates drops rows that repeat an earlier row and returns how
// many went.
func (s *Service) RemoveDuplicates(ctx context.Context, sessionID, fileID string) (int, error) {
	var removed int
	e := activity.Entry{SessionID: sessionID, Action: activity.ActionDedupe}

	err := s.withFile(sessionID, fileID, func(_ *Session, f *File) error {
		e.FileName = f.Name
		e.RowsBefore = f.Data.Rows()

		n, err := f.Data.DropDuplicates()
		if err != nil {
			return fmt.Errorf("remove duplicates from %s: %w", f.Name, err)
		}
		removed = n
		e.RowsAfter = f.Data.Rows()
		e.Columns = f.Data.Cols()
		e.Detail = fmt.Sprintf("%d removed", n)
		f.addOp("Remove duplicates", fmt.Sprintf("%d duplicate rows removed", n), s.now())
		return nil
	})

	s.finish(ctx, e, err)
	return removed, err
}

// FillMissing replaces missing numeric values with their column mean and
// returns the number of cells filled per column.
func (s *Service) FillMissing(ctx context.Context, sessionID, fileID string) (map[string]int, error) {
	var filled map[string]int
	e := activity.Entry{SessionID: sessionID, Action: activity.ActionFill}

	err := s.withFile(sessionID, fileID, func(_ *Session, f *File) error {
		e.FileName = f.Name
		e.RowsBefore = f.Data.Rows()

		counts, err := f.Data.FillMissingMean()
		if err != nil {
			return fmt.Errorf("fill missing values in %s: %w", f.Name, err)
		}
		filled = counts

		total := 0
		for _, n := range counts {
			total += n
		}
		e.RowsAfter = f.Data.Rows()
		e.Columns = f.Data.Cols()
		e.Detail = fmt.Sprintf("%d cells in %d columns", total, len(counts))
		f.addOp("Fill missing values", fmt.Sprintf("%d missing values filled with the column mean", total), s.now())
		return nil
	})

	s.finish(ctx, e, err)
	return filled, err
}

// SelectColumns keeps only the named columns, in the given order.
func (s *Service) SelectColumns(ctx context.Context, sessionID, fileID string, columns []string) error {
	e := activity.Entry{SessionID: sessionID, Action: activity.ActionSelect}

	err := s.withFile(sessionID, fileID, func(_ *Session, f *File) error {
		e.FileName = f.Name
		e.RowsBefore = f.Data.Rows()

		if err := f.Data.SelectColumns(columns); err != nil {
			return fmt.Errorf("select columns of %s: %w", f.Name, err)
		}
		names := f.Data.Names()
		e.RowsAfter = f.Data.Rows()
		e.Columns = len(names)
		e.Detail = strings.Join(names, ",")
		f.addOp("Select columns", fmt.Sprintf("kept %d columns: %s", len(names), strings.Join(names, ", ")), s.now())
		return nil
	})

	s.finish(ctx, e, err)
	return err
}

// SetCleaning turns the cleaning controls for a file on or off.
func (s *Service) SetCleaning(ctx context.Context, sessionID, fileID string, on bool) error {
	e := activity.Entry{SessionID: sessionID, Action: activity.ActionCleaning, Detail: fmt.Sprintf("%t", on)}

	err := s.withFile(sessionID, fileID, func(_ *Session, f *File) error {
		e.FileName = f.Name
		e.RowsBefore = f.Data.Rows()
		e.RowsAfter = e.RowsBefore
		e.Columns = f.Data.Cols()
		f.Cleaning = on
		return nil
	})

	s.finish(ctx, e, err)
	return err
}

// RemoveFile drops a file from the session.
func (s *Service) RemoveFile(ctx context.Context, sessionID, fileID string) error {
	e := activity.Entry{SessionID: sessionID, Action: activity.ActionRemove}

	err := s.withFile(sessionID, fileID, func(sess *Session, f *File) error {
		_, i := sess.find(fileID)
		sess.files = append(sess.files[:i], sess.files[i+1:]...)
		e.FileName = f.Name
		e.RowsBefore = f.Data.Rows()
		e.Columns = f.Data.Cols()
		return nil
	})

	s.finish(ctx, e, err)
	return err
}

// Export encodes a file in the requested format. The download name is the
// original name with its extension replaced.
func (s *Service) Export(ctx context.Context, sessionID, fileID string, format dataset.Format) (*ExportResult, error) {
	var out *ExportResult
	e := activity.Entry{SessionID: sessionID, Action: activity.ActionExport, Detail: string(format)}

	err := s.withFile(sessionID, fileID, func(_ *Session, f *File) error {
		e.FileName = f.Name
		e.RowsBefore = f.Data.Rows()
		e.RowsAfter = e.RowsBefore
		e.Columns = f.Data.Cols()

		var buf bytes.Buffer
		if err := f.Data.Encode(&buf, format); err != nil {
			return fmt.Errorf("export %s: %w", f.Name, err)
		}
		out = &ExportResult{
			FileName:    dataset.ExportName(f.Name, format),
			ContentType: format.ContentType(),
			Data:        buf.Bytes(),
		}
		return nil
	})

	s.finish(ctx, e, err)
	if err != nil {
		return nil, err
	}
	s.metrics.Export(string(format))
	return out, nil
}

// Chart returns bar chart data for a file, or an error wrapping
// dataset.ErrNotEnoughNumeric when it has fewer than four numeric columns.
func (s *Service) Chart(ctx context.Context, sessionID, fileID string) (*dataset.ChartData, error) {
	var chart *dataset.ChartData
	err := s.withFile(sessionID, fileID, func(_ *Session, f *File) error {
		c, err := f.Data.Chart(s.opts.ChartMaxRows)
		if err != nil {
			return err
		}
		chart = c
		return nil
	})
	return chart, err
}

// Files lists the session's files in upload order.
func (s *Service) Files(ctx context.Context, sessionID string) ([]FileInfo, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := make([]FileInfo, len(sess.files))
	for i, f := range sess.files {
		out[i] = f.Info()
	}
	return out, nil
}

// Views returns the page view of every file, without chart data.
func (s *Service) Views(ctx context.Context, sessionID string) ([]FileView, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := make([]FileView, len(sess.files))
	for i, f := range sess.files {
		out[i] = s.view(f)
	}
	return out, nil
}

// View returns one file's profile, preview and chart. Too few numeric
// columns is reported through ChartNote rather than as an error.
func (s *Service) View(ctx context.Context, sessionID, fileID string) (*FileView, error) {
	var v FileView
	err := s.withFile(sessionID, fileID, func(_ *Session, f *File) error {
		v = s.view(f)
		chart, err := f.Data.Chart(s.opts.ChartMaxRows)
		if err != nil {
			msg := MapError(err)
			v.ChartNote = fmt.Sprintf("%s. %s.", msg.Message, msg.Action)
			return nil
		}
		v.Chart = chart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Service) view(f *File) FileView {
	return FileView{
		FileInfo: f.Info(),
		Profile:  f.Data.Profile(),
		Preview:  f.Data.Head(s.opts.PreviewRows),
	}
}

// AddNotice queues a message for the next page render.
func (s *Service) AddNotice(sessionID string, n Notice) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return
	}
	sess.mu.Lock()
	sess.notices = append(sess.notices, n)
	sess.mu.Unlock()
}

// TakeNotices returns and clears the queued messages.
func (s *Service) TakeNotices(sessionID string) []Notice {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := sess.notices
	sess.notices = nil
	return out
}

// Activity returns the newest activity entries for a session.
func (s *Service) Activity(ctx context.Context, sessionID string, limit int) ([]activity.Entry, error) {
	entries, err := s.activity.Recent(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	return entries, nil
}
