package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/core"
)

// multipartMemory is how much of an upload is buffered in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// formOverhead leaves room for multipart headers on top of the file limit.
const formOverhead = 1 << 20

// readUploads opens the files of a multipart request from the "files"
// field ("file" is accepted too). The cleanup function closes them and
// removes temporary files.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]core.Upload, func(), error) {
	limit := s.cfg.Upload.MaxFileSize*int64(max(s.cfg.Upload.MaxFiles, 1)) + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return nil, nil, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, tooBig.Limit)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
		default:
			return nil, nil, fmt.Errorf("read upload: %w", err)
		}
	}

	form := r.MultipartForm
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		_ = form.RemoveAll()
		return nil, nil, core.ErrNoFile
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
		_ = form.RemoveAll()
	}

	uploads := make([]core.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		uploads = append(uploads, core.Upload{Name: fh.Filename, Size: fh.Size, Body: f})
	}
	return uploads, cleanup, nil
}

// writeDownload sends an export as an attachment.
func writeDownload(w http.ResponseWriter, out *core.ExportResult) error {
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(out.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	_, err := w.Write(out.Data)
	return err
}

// contentDisposition builds an attachment header. Names that are not plain
// ASCII also get an RFC 5987 filename* parameter.
func contentDisposition(name string) string {
	var b strings.Builder
	ascii := true
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f:
			continue
		case r > 0x7e:
			ascii = false
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	header := `attachment; filename="` + b.String() + `"`
	if !ascii {
		header += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return header
}
