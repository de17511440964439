package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is mapped through core.MapError and logged with its technical
// detail. Then:
//   - API requests get a JSON ErrorResponse with a matching status code.
//   - Form posts queue the message as a notice and redirect to the page.
//   - Other page requests get an HTML error page.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/dataset"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrTooManyFiles),
		errors.Is(err, dataset.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileNotFound),
		errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSessionFull),
		errors.Is(err, dataset.ErrColumnNotFound),
		errors.Is(err, dataset.ErrNoColumns),
		errors.Is(err, dataset.ErrNotEnoughNumeric),
		errors.Is(err, dataset.ErrEmptyFile),
		errors.Is(err, dataset.ErrInvalidCSV),
		errors.Is(err, dataset.ErrInvalidSpreadsheet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and answers in the format the client expects.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)
	logError(r, err, status, msg)

	if wantsJSON(r) {
		respondErrorJSON(w, r, msg, status)
		return
	}
	respondErrorHTML(w, r, msg, status)
}

// flashError queues err as a notice and redirects to the main page.
func (s *Server) flashError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, err, statusFor(err), core.MapError(err))
	s.service.AddNotice(sessionID(r), errorNotice(err))
	redirectHome(w, r)
}

func logError(r *http.Request, err error, status int, msg core.UserMessage) {
	log := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", args...)
		return
	}
	log.Warn("request error", args...)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML writes an HTML error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(msg).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// rateLimited answers a request over its rate budget.
func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, core.ErrRateLimited)
}

// unauthorized answers an API request without a valid key.
func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, status int) {
	code, text := "AUTH001", "Missing API key"
	if status == http.StatusForbidden {
		code, text = "AUTH002", "Invalid API key"
	}
	respondErrorJSON(w, r, core.UserMessage{
		Message: text,
		Action:  "Send a valid key in the X-API-Key header",
		Code:    code,
	}, status)
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
