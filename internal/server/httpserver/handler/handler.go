package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yndnr/textnonce-go/internal/core/domain"
	"github.com/yndnr/textnonce-go/internal/core/service"
	"github.com/yndnr/textnonce-go/internal/telemetry/logger"
)

// Handler routes the API endpoints to the nonce service.
type Handler struct {
	svc    *service.NonceService
	logger *slog.Logger
	ready  func() error
	mux    *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithReadiness makes GET /ready report 503 while probe returns an error.
func WithReadiness(probe func() error) Option {
	return func(h *Handler) { h.ready = probe }
}

// New creates a Handler serving svc.
func New(svc *service.NonceService, log *slog.Logger, opts ...Option) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		svc:    svc,
		logger: log,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /nonces", h.handleGetNonces)
	h.mux.HandleFunc("POST /nonces", h.handlePostNonces)

	h.mux.HandleFunc("GET /admin/v1/status", h.handleAdminStatus)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := RequestID(r)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.logger.Error("failed to encode response", "error", err, "request_id", requestID)
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if !domain.IsDomainError(err, "") {
		h.logger.Error("internal error", "error", err, "request_id", RequestID(r))
	}
	WriteError(w, r, err)
}

// WriteError writes err in the response envelope. Errors that are not
// DomainErrors are reported as TN-SYS-5000 without their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	de := domain.ErrInternal
	errors.As(err, &de)

	requestID := RequestID(r)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(StatusForCode(de.Code))
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, de.Code, de.Message, de.Details))
}

// StatusForCode maps a DomainError code to an HTTP status. The last four
// digits of a code are the status followed by a sub-code digit, so
// TN-NONC-4001 is 400 and TN-SYS-4290 is 429.
func StatusForCode(code string) int {
	if len(code) < 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[len(code)-4:])
	if err != nil {
		return http.StatusInternalServerError
	}
	status := n / 10
	if status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// RequestID returns the request ID set by the RequestID middleware, falling
// back to the X-Request-ID request header.
func RequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
