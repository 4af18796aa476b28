package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/textnonce-go/internal/infra/ratelimit"
	"github.com/yndnr/textnonce-go/internal/server/httpserver/handler"
	"github.com/yndnr/textnonce-go/internal/telemetry/logger"
	"github.com/yndnr/textnonce-go/internal/telemetry/metric"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.Response {
	t.Helper()
	var resp handler.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	tests := []struct {
		name     string
		header   string
		wantKeep bool
	}{
		{"generated", "", false},
		{"client supplied", "client-123", true},
		{"too long", strings.Repeat("x", maxRequestIDLength+1), false},
		{"control characters", "abc\ndef", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-ID")
			if got != seen {
				t.Errorf("response header %q != context value %q", got, seen)
			}
			if tt.wantKeep {
				if got != tt.header {
					t.Errorf("X-Request-ID = %q, want %q", got, tt.header)
				}
				return
			}
			if !strings.HasPrefix(got, "req-") || len(got) != len("req-")+16 {
				t.Errorf("generated X-Request-ID = %q, want req- plus 16 characters", got)
			}
		})
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler, mw("a"), mw("b"), mw("c")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "a,b,c" {
		t.Errorf("order = %s, want a,b,c", got)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "TN-SYS-5000" {
		t.Errorf("code = %q, want TN-SYS-5000", resp.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(ratelimit.New(1, 2))(okHandler)

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1:1000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := send("10.0.0.1:1001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
	if resp := decodeError(t, rec); resp.Code != "TN-SYS-4290" {
		t.Errorf("code = %q", resp.Code)
	}

	// A forged forwarding header does not escape the bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1002"
	req.Header.Set("X-Forwarded-For", "192.0.2.1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("X-Forwarded-For bypassed the limit: status %d", rec.Code)
	}

	if rec := send("10.0.0.2:1000"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	h := RateLimit(nil)(okHandler)
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d with rate limiting disabled", rec.Code)
		}
	}
}

func TestAuth(t *testing.T) {
	const key = "0123456789abcdef-key"
	h := Auth(key)(okHandler)

	tests := []struct {
		name     string
		headers  map[string]string
		want     int
		wantCode string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer " + key}, 200, ""},
		{"bearer lowercase scheme", map[string]string{"Authorization": "bearer " + key}, 200, ""},
		{"x-api-key", map[string]string{"X-API-Key": key}, 200, ""},
		{"missing", nil, 401, "TN-AUTH-4010"},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, 401, "TN-AUTH-4011"},
		{"basic scheme", map[string]string{"Authorization": "Basic " + key}, 401, "TN-AUTH-4010"},
		{"prefix of key", map[string]string{"X-API-Key": key[:10]}, 401, "TN-AUTH-4011"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.wantCode != "" {
				if resp := decodeError(t, rec); resp.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	rec := httptest.NewRecorder()
	Auth("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with no key configured", rec.Code)
	}
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	reg := metric.NewRegistry()

	mux := http.NewServeMux()
	mux.Handle("GET /things/{id}", Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), RequestID(), Audit(log, reg)))

	req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	mux.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" || entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("log entry = %v", entry)
	}
	if entry["client_ip"] != "192.0.2.7" || entry["path"] != "/things/42" {
		t.Errorf("log entry = %v", entry)
	}
	if id, _ := entry["request_id"].(string); !strings.HasPrefix(id, "req-") {
		t.Errorf("request_id = %v", entry["request_id"])
	}

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `textnonce_http_requests_total{method="GET",path="/things/{id}",status="418"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics missing %s", want)
	}
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	w.WriteHeader(http.StatusNotFound)
	w.WriteHeader(http.StatusInternalServerError)

	if w.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want 404", w.statusCode)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote, want string
	}{
		{"192.0.2.1:80", "192.0.2.1"},
		{"[::1]:8080", "::1"},
		{"no-port", "no-port"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
