package web

import (
	"net/http"

	"github.com/JonMunkholm/datasweeper/internal/logging"
)

// SessionCookie names the cookie carrying the workspace session ID.
const SessionCookie = "sweeper_session"

// sessions attaches a workspace to every request, starting a new one when
// the cookie is missing or its session has expired.
func (s *Server) sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}

		sess, created := s.service.Store().Ensure(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
			logging.FromContext(r.Context()).Debug("session started", "session_id", sess.ID)
		}

		ctx := logging.WithSession(r.Context(), sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the workspace of the request.
func sessionID(r *http.Request) string {
	return logging.SessionID(r.Context())
}
