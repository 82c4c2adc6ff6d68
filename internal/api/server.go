// Package api exposes the HTTP interface for the screenshot service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tweetshot/internal/capture"
	"tweetshot/internal/config"
	"tweetshot/internal/delivery"
	"tweetshot/internal/history"
	"tweetshot/internal/metrics"
)

// Capturer produces screenshot bytes for a post URL.
type Capturer interface {
	Capture(ctx context.Context, req capture.Request) (capture.Result, error)
}

// Server wires HTTP handlers to the capture invoker and delivery strategy.
type Server struct {
	router    chi.Router
	capturer  Capturer
	strategy  delivery.Strategy
	resolver  delivery.Resolver
	history   history.Store
	clock     capture.Clock
	cfg       config.Config
	logger    *zap.Logger
	staticDir string
}

// NewServer constructs a Server with middleware and routes. resolver may be
// nil for strategies without a lookup step; staticDir may be empty when the
// disk strategy is not active.
func NewServer(
	capturer Capturer,
	strategy delivery.Strategy,
	resolver delivery.Resolver,
	hist history.Store,
	clock capture.Clock,
	cfg config.Config,
	logger *zap.Logger,
	staticDir string,
) *Server {
	if hist == nil {
		hist = history.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		capturer:  capturer,
		strategy:  strategy,
		resolver:  resolver,
		history:   hist,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
		staticDir: staticDir,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(2 * time.Minute))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", s.getIndex)
	r.Post("/", s.postIndex)
	r.Get("/image/{id}", s.getImage)
	r.Post("/api/screenshot", s.apiScreenshot)

	if staticDir != "" {
		fs := http.StripPrefix("/screenshots/", http.FileServer(http.Dir(staticDir)))
		r.Get("/screenshots/*", fs.ServeHTTP)
	}

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	id := chi.URLParam(r, "id")
	img, err := s.resolver.Resolve(id)
	if err != nil {
		// Expected after a restart; the cache does not survive the process.
		s.logger.Warn("image cache miss", zap.String("id", id))
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", img.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Bytes); err != nil {
		s.logger.Warn("write image failed", zap.String("id", id), zap.Error(err))
	}
}

// captureAndStore runs one capture and hands the result to the active
// delivery strategy, recording metrics and history either way.
func (s *Server) captureAndStore(ctx context.Context, req capture.Request) (delivery.Reference, error) {
	start := time.Now()
	res, err := s.capturer.Capture(ctx, req)
	elapsed := time.Since(start)

	outcome := history.OutcomeOK
	if err != nil {
		outcome = history.OutcomeFailed
	}
	metrics.ObserveCapture(req.Theme.String(), outcome, elapsed)

	rec := history.Record{
		URL:            req.URL,
		Theme:          req.Theme.String(),
		Lang:           req.Lang,
		ShowEngagement: req.ShowEngagement,
		Duration:       elapsed,
		Outcome:        outcome,
		CapturedAt:     s.clock.Now(),
	}
	if err == nil {
		rec.Filename = res.Filename
		rec.ByteSize = len(res.Bytes)
	}
	if recErr := s.history.Record(ctx, rec); recErr != nil {
		s.logger.Warn("record capture history failed", zap.Error(recErr))
	}

	if err != nil {
		return delivery.Reference{}, err
	}

	ref, err := s.strategy.Store(ctx, res)
	if err != nil {
		s.logger.Error("store capture failed",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return delivery.Reference{}, err
	}
	return ref, nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

// recoverMiddleware converts per-request panics to 500s; no single request
// may take down the serving process.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
