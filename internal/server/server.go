// Package server exposes the query checker over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gnolang/qlint/internal/query"
)

const defaultMaxBodyBytes = 64 << 10

// Checker validates a single query.
type Checker interface {
	Check(q string) query.Result
}

// Config holds the HTTP server settings.
type Config struct {
	Addr            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// Handler provides the HTTP handlers for the checker.
type Handler struct {
	checker      Checker
	metrics      *Metrics
	logger       *zap.Logger
	maxBodyBytes int64
}

// NewHandler creates a new handler. A nil logger disables logging and a nil
// metrics collector disables metrics.
func NewHandler(checker Checker, metrics *Metrics, logger *zap.Logger, maxBodyBytes int64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		checker:      checker,
		metrics:      metrics,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes returns the router with all endpoints mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Post("/v1/validate", h.handleValidate)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	return r
}

// ValidateRequest is the body of POST /v1/validate. A missing or null query
// is treated as absent and accepted.
type ValidateRequest struct {
	Query *string `json:"query"`
}

// ValidateResponse reports the validation result.
type ValidateResponse struct {
	Accepted bool        `json:"accepted"`
	Rule     string      `json:"rule,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Span     *query.Span `json:"span,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "body_too_large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_body")
		return
	}

	var q string
	if req.Query != nil {
		q = *req.Query
	}

	start := time.Now()
	res := h.checker.Check(q)
	h.metrics.ObserveValidation(res, time.Since(start))

	resp := ValidateResponse{Accepted: res.Accepted()}
	if !resp.Accepted {
		span := res.Span
		resp.Rule = res.Rule
		resp.Reason = res.Reason
		resp.Span = &span
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// ListenAndServe serves handler on cfg.Addr until ctx is done, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, cfg Config, handler http.Handler, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", cfg.Addr, err)
	}
	return Serve(ctx, ln, cfg, handler, logger)
}

// Serve is like ListenAndServe but uses an existing listener.
func Serve(ctx context.Context, ln net.Listener, cfg Config, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
