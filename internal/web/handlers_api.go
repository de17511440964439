package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/datasweeper/internal/core"
)

// maxJSONBody caps API request bodies.
const maxJSONBody = 1 << 20

type columnsRequest struct {
	Columns []string `json:"columns" validate:"required,min=1,dive,required"`
}

type cleaningRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// decodeJSON reads and validates a JSON request body.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBody), v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", core.ErrInvalidRequest, describeValidation(verrs))
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	return nil
}

// describeValidation joins validation failures as "field: rule".
func describeValidation(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// jsonFieldName reports struct fields by their JSON name in validation
// errors.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.Files(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"session":  sessionID(r),
		"files":    len(files),
		"sessions": s.service.Store().Len(),
		"uploads":  s.service.UploadLimiterStatus(),
	})
}

func (s *Server) handleAPIActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.service.Activity(r.Context(), sessionID(r), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"activity": entries})
}

// handleAPIUpload answers 201 when at least one file was stored and 422
// when every file was rejected.
func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	uploads, cleanup, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cleanup()

	res, err := s.service.Upload(r.Context(), sessionID(r), uploads)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if len(res.Accepted) == 0 {
		status = http.StatusUnprocessableEntity
	}
	render.Status(r, status)
	render.JSON(w, r, res)
}

func (s *Server) handleAPIFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.Files(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"files": files})
}

func (s *Server) handleAPIFile(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(r.Context(), sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func (s *Server) handleAPIRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveFile(r.Context(), sessionID(r), chi.URLParam(r, "fileID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (s *Server) handleAPICleaning(w http.ResponseWriter, r *http.Request) {
	var req cleaningRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.SetCleaning(r.Context(), sessionID(r), chi.URLParam(r, "fileID"), *req.Enabled); err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"cleaning": *req.Enabled})
}

func (s *Server) handleAPIDedupe(w http.ResponseWriter, r *http.Request) {
	removed, err := s.service.RemoveDuplicates(r.Context(), sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"removed": removed})
}

func (s *Server) handleAPIFill(w http.ResponseWriter, r *http.Request) {
	filled, err := s.service.FillMissing(r.Context(), sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"filled": filled})
}

// handleAPIColumns keeps the listed columns and returns the updated file.
func (s *Server) handleAPIColumns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")

	var req columnsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.SelectColumns(r.Context(), sessionID(r), id, req.Columns); err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.service.View(r.Context(), sessionID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// handleAPIChart returns chart data, or 422 with code DS003 when the file
// has fewer than four numeric columns.
func (s *Server) handleAPIChart(w http.ResponseWriter, r *http.Request) {
	chart, err := s.service.Chart(r.Context(), sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, chart)
}
