// Package web provides the HTTP server, HTML pages and JSON API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/datasweeper/internal/config"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/metrics"
	mw "github.com/JonMunkholm/datasweeper/internal/web/middleware"
)

// Server is the HTTP server for the data sweeper.
type Server struct {
	cfg      *config.Config
	service  *core.Service
	metrics  *metrics.Metrics
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server with its middleware and routes in place.
func NewServer(cfg *config.Config, service *core.Service, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		service:  service,
		metrics:  m,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		router:   chi.NewRouter(),
	}
	s.validate.RegisterTagNameFunc(jsonFieldName)
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.observe)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := mw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute)
		s.router.Use(limiter.Limit(s.rateLimited))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	uploadLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		uploadLimit = mw.NewRateLimiter(s.cfg.Rate.UploadLimit).Limit(s.rateLimited)
	}

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions)

		r.Get("/", s.handleIndex)
		r.With(uploadLimit).Post("/upload", s.handleUpload)

		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Post("/cleaning", s.handleCleaning)
			r.Post("/dedupe", s.handleDedupe)
			r.Post("/fill", s.handleFill)
			r.Post("/columns", s.handleColumns)
			r.Get("/chart", s.handleChart)
			r.Get("/export", s.handleExport)
			r.Post("/remove", s.handleRemove)
		})
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys, s.unauthorized))
		r.Use(s.sessions)

		r.Get("/status", s.handleAPIStatus)
		r.Get("/activity", s.handleAPIActivity)
		r.With(uploadLimit).Post("/upload", s.handleAPIUpload)

		r.Get("/files", s.handleAPIFiles)
		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Get("/", s.handleAPIFile)
			r.Delete("/", s.handleAPIRemove)
			r.Put("/cleaning", s.handleAPICleaning)
			r.Post("/dedupe", s.handleAPIDedupe)
			r.Post("/fill", s.handleAPIFill)
			r.Post("/columns", s.handleAPIColumns)
			r.Get("/chart", s.handleAPIChart)
			r.Get("/export", s.handleExport)
		})
	})
}

// Start begins listening for HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// observe records request metrics by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		var route string
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveRequest(r.Method, route, status, time.Since(start))
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				// Pages carry inline styles and inline SVG, no scripts.
				h.Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleHealth reports liveness with a little load information.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":   "ok",
		"sessions": s.service.Store().Len(),
		"uploads":  s.service.UploadLimiterStatus(),
	})
}
