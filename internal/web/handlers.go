package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/dataset"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/web/templates"
)

// handleIndex renders the upload form and every file of the workspace.
// With ?convert=<file>&format=<csv|xlsx> it also offers that download.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	views, err := s.service.Views(ctx, sid)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := templates.IndexData{
		Files:   views,
		Notices: s.service.TakeNotices(sid),
	}

	q := r.URL.Query()
	if id := q.Get("convert"); id != "" {
		format, err := dataset.ParseFormat(q.Get("format"))
		if err != nil {
			data.Notices = append(data.Notices, errorNotice(err))
		}
		for _, v := range views {
			if err == nil && v.ID == id {
				data.Download = &templates.Download{FileID: id, FileName: v.Name, Format: format}
			}
		}
	}

	s.renderPage(w, r, http.StatusOK, templates.Index(data))
}

// handleUpload stores the posted files and reports each rejected one.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)

	uploads, cleanup, err := s.readUploads(w, r)
	if err != nil {
		s.flashError(w, r, err)
		return
	}
	defer cleanup()

	res, err := s.service.Upload(r.Context(), sid, uploads)
	if err != nil {
		s.flashError(w, r, err)
		return
	}

	for _, f := range res.Accepted {
		s.service.AddNotice(sid, core.Notice{
			Level: core.LevelSuccess,
			Text:  fmt.Sprintf("%s uploaded: %d rows, %d columns", f.Name, f.Rows, f.Cols),
		})
	}
	for _, rej := range res.Rejected {
		s.service.AddNotice(sid, core.Notice{
			Level:  core.LevelError,
			Text:   rej.Message,
			Action: rej.Action,
			Code:   rej.Code,
		})
	}
	redirectHome(w, r)
}

// handleCleaning toggles "Clean Data for <file>".
func (s *Server) handleCleaning(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")
	on := r.FormValue("on") == "true"

	if err := s.service.SetCleaning(r.Context(), sessionID(r), id, on); err != nil {
		s.flashError(w, r, err)
		return
	}
	redirectToFile(w, r, id)
}

// handleDedupe removes duplicate rows.
func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")

	removed, err := s.service.RemoveDuplicates(r.Context(), sessionID(r), id)
	if err != nil {
		s.flashError(w, r, err)
		return
	}

	s.service.AddNotice(sessionID(r), core.Notice{
		Level: core.LevelSuccess,
		Text:  fmt.Sprintf("Duplicates Removed: %d rows", removed),
	})
	redirectToFile(w, r, id)
}

// handleFill fills missing numeric values with the column mean.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")

	filled, err := s.service.FillMissing(r.Context(), sessionID(r), id)
	if err != nil {
		s.flashError(w, r, err)
		return
	}

	total := 0
	for _, n := range filled {
		total += n
	}
	s.service.AddNotice(sessionID(r), core.Notice{
		Level: core.LevelSuccess,
		Text:  fmt.Sprintf("Missing values filled❗ %d cells", total),
	})
	redirectToFile(w, r, id)
}

// handleColumns keeps the columns picked in the multiselect.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")

	if err := r.ParseForm(); err != nil {
		s.flashError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}
	columns := r.PostForm["column"]

	if err := s.service.SelectColumns(r.Context(), sessionID(r), id, columns); err != nil {
		s.flashError(w, r, err)
		return
	}

	s.service.AddNotice(sessionID(r), core.Notice{
		Level: core.LevelSuccess,
		Text:  "Columns kept: " + strings.Join(columns, ", "),
	})
	redirectToFile(w, r, id)
}

// handleChart shows the bar chart, or the warning about too few numeric
// columns.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")

	view, err := s.service.View(r.Context(), sessionID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, templates.ChartPage(*view))
}

// handleExport downloads a file as CSV or XLSX. It serves both the page
// and the API.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(dataset.FormatCSV)
	}
	format, err := dataset.ParseFormat(name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out, err := s.service.Export(r.Context(), sessionID(r), id, format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := writeDownload(w, out); err != nil {
		logging.FromContext(r.Context()).Warn("write download", "file", out.FileName, "error", err)
	}
}

// handleRemove drops a file from the workspace.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")

	if err := s.service.RemoveFile(r.Context(), sessionID(r), id); err != nil {
		s.flashError(w, r, err)
		return
	}
	s.service.AddNotice(sessionID(r), core.Notice{Level: core.LevelInfo, Text: "File removed"})
	redirectHome(w, r)
}

// renderPage writes an HTML page.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

func errorNotice(err error) core.Notice {
	msg := core.MapError(err)
	return core.Notice{Level: core.LevelError, Text: msg.Message, Action: msg.Action, Code: msg.Code}
}

func redirectToFile(w http.ResponseWriter, r *http.Request, id string) {
	http.Redirect(w, r, "/#file-"+id, http.StatusSeeOther)
}
