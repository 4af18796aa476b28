package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/textnonce-go/internal/core/domain"
	"github.com/yndnr/textnonce-go/internal/core/service"
	"github.com/yndnr/textnonce-go/internal/telemetry/logger"
	"github.com/yndnr/textnonce-go/pkg/nonce"
)

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	svc := service.NewNonceService(nonce.NewGenerator(), service.Limits{
		DefaultLength: 32,
		MaxLength:     64,
		MaxBatch:      10,
	})
	return New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

// envelope mirrors Response with a concrete data type.
type envelope[T any] struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      T      `json:"data"`
	Details   string `json:"details"`
}

func doRequest[T any](t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope[T]) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req = req.WithContext(logger.WithRequestID(req.Context(), "req-test"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope[T]
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestGetNonces_Defaults(t *testing.T) {
	h := newTestHandler(t)

	rec, env := doRequest[NonceBatchResponse](t, h, http.MethodGet, "/nonces", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if env.Code != "OK" || env.RequestID != "req-test" {
		t.Errorf("envelope = %+v", env)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("nonce responses must not be cacheable")
	}
	b := env.Data
	if b.Count != 1 || len(b.Nonces) != 1 || b.Length != 32 {
		t.Fatalf("data = %+v, want one 32-char nonce", b)
	}
	if len(b.Nonces[0]) != 32 {
		t.Errorf("nonce length = %d, want 32", len(b.Nonces[0]))
	}
	if !domain.ValidateBatchID(b.BatchID) {
		t.Errorf("batch_id %q is not valid", b.BatchID)
	}
	if time.Since(b.IssuedAt) > time.Minute {
		t.Errorf("issued_at = %v", b.IssuedAt)
	}
}

func TestGetNonces_QueryParams(t *testing.T) {
	h := newTestHandler(t)

	rec, env := doRequest[NonceBatchResponse](t, h, http.MethodGet, "/nonces?length=20&count=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.Data.Nonces) != 5 {
		t.Fatalf("got %d nonces, want 5", len(env.Data.Nonces))
	}
	for i := 1; i < len(env.Data.Nonces); i++ {
		if len(env.Data.Nonces[i]) != 20 {
			t.Errorf("nonce %d length = %d, want 20", i, len(env.Data.Nonces[i]))
		}
		if env.Data.Nonces[i-1] >= env.Data.Nonces[i] {
			t.Errorf("nonces not ascending: %q then %q", env.Data.Nonces[i-1], env.Data.Nonces[i])
		}
	}
}

func TestPostNonces(t *testing.T) {
	h := newTestHandler(t)

	rec, env := doRequest[NonceBatchResponse](t, h, http.MethodPost, "/nonces", `{"length":24,"count":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if env.Data.Length != 24 || len(env.Data.Nonces) != 3 {
		t.Errorf("data = %+v", env.Data)
	}

	for _, body := range []string{"", "{}", `{"length":null}`} {
		rec, env = doRequest[NonceBatchResponse](t, h, http.MethodPost, "/nonces", body)
		if rec.Code != http.StatusOK || len(env.Data.Nonces) != 1 || env.Data.Length != 32 {
			t.Errorf("body %q: status = %d, data = %+v", body, rec.Code, env.Data)
		}
	}
}

func TestNonces_Errors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"length not multiple of 4", http.MethodGet, "/nonces?length=30", "", 400, "TN-NONC-4001"},
		{"length too short", http.MethodGet, "/nonces?length=12", "", 400, "TN-NONC-4001"},
		{"length over max", http.MethodGet, "/nonces?length=128", "", 400, "TN-NONC-4002"},
		{"explicit zero length", http.MethodGet, "/nonces?length=0", "", 400, "TN-NONC-4001"},
		{"empty length", http.MethodGet, "/nonces?length=", "", 400, "TN-NONC-4001"},
		{"negative count", http.MethodGet, "/nonces?count=-1", "", 400, "TN-NONC-4003"},
		{"explicit zero count", http.MethodGet, "/nonces?count=0", "", 400, "TN-NONC-4003"},
		{"body zero length", http.MethodPost, "/nonces", `{"length":0}`, 400, "TN-NONC-4001"},
		{"body zero count", http.MethodPost, "/nonces", `{"count":0}`, 400, "TN-NONC-4003"},
		{"count over max", http.MethodGet, "/nonces?count=11", "", 400, "TN-NONC-4004"},
		{"non-numeric length", http.MethodGet, "/nonces?length=abc", "", 400, "TN-NONC-4000"},
		{"malformed body", http.MethodPost, "/nonces", "{", 400, "TN-NONC-4000"},
		{"unknown field", http.MethodPost, "/nonces", `{"size":32}`, 400, "TN-NONC-4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest[json.RawMessage](t, h, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Code, tt.wantCode)
			}
			if got := rec.Header().Get("X-Error-Code"); got != tt.wantCode {
				t.Errorf("X-Error-Code = %q, want %q", got, tt.wantCode)
			}
			if env.RequestID != "req-test" {
				t.Errorf("request_id = %q", env.RequestID)
			}
		})
	}
}

func TestHealthAndReady(t *testing.T) {
	h := newTestHandler(t)

	rec, env := doRequest[HealthResponse](t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || env.Data.Status != "healthy" {
		t.Errorf("/health = %d %+v", rec.Code, env.Data)
	}
	rec, env = doRequest[HealthResponse](t, h, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK || env.Data.Status != "ready" {
		t.Errorf("/ready = %d %+v", rec.Code, env.Data)
	}
}

func TestReady_ProbeFailure(t *testing.T) {
	h := newTestHandler(t, WithReadiness(func() error { return errors.New("checkpoint not restored") }))

	rec, env := doRequest[HealthResponse](t, h, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if env.Data.Status != "not_ready" || env.Data.Reason != "checkpoint not restored" {
		t.Errorf("data = %+v", env.Data)
	}
}

func TestAdminStatus(t *testing.T) {
	h := newTestHandler(t)
	doRequest[NonceBatchResponse](t, h, http.MethodGet, "/nonces?count=4", "")
	doRequest[json.RawMessage](t, h, http.MethodGet, "/nonces?length=3", "")

	rec, env := doRequest[StatusResponse](t, h, http.MethodGet, "/admin/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	st := env.Data
	if st.Status != "running" || st.Version == "" {
		t.Errorf("status = %+v", st)
	}
	if st.NoncesIssued != 4 || st.Batches != 1 || st.Rejected != 1 {
		t.Errorf("counters = issued %d, batches %d, rejected %d; want 4, 1, 1",
			st.NoncesIssued, st.Batches, st.Rejected)
	}
	if st.Guard.Instants != 4 {
		t.Errorf("guard instants = %d, want 4", st.Guard.Instants)
	}
	if st.Limits.MaxBatch != 10 || st.Limits.MaxLength != 64 {
		t.Errorf("limits = %+v", st.Limits)
	}
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"TN-NONC-4001", 400},
		{"TN-AUTH-4010", 401},
		{"TN-AUTH-4011", 401},
		{"TN-SYS-4290", 429},
		{"TN-SYS-5000", 500},
		{"TN-SYS-5030", 503},
		{"TN-X-0100", 500},
		{"bad", 500},
		{"", 500},
	}
	for _, tt := range tests {
		if got := StatusForCode(tt.code); got != tt.want {
			t.Errorf("StatusForCode(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, errors.New("disk on fire"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk on fire") {
		t.Error("internal error text leaked to the client")
	}
}
