package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func newBufferLogger(t *testing.T) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v (%q)", err, buf.String())
	}
	return entry
}

func TestWithLogger_FromContext(t *testing.T) {
	l, buf := newBufferLogger(t)

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}
	if got := BatchIDFromContext(ctx); got != "" {
		t.Errorf("BatchIDFromContext() = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	ctx = WithBatchID(ctx, "tnbt-456")

	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, "req-123")
	}
	if got := BatchIDFromContext(ctx); got != "tnbt-456" {
		t.Errorf("BatchIDFromContext() = %q, want %q", got, "tnbt-456")
	}
}

func TestL_Enrichment(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
		batchID   string
	}{
		{"none", "", ""},
		{"request only", "req-12345", ""},
		{"both", "req-12345", "tnbt-01hz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufferLogger(t)
			ctx := WithLogger(context.Background(), l)
			if tt.requestID != "" {
				ctx = WithRequestID(ctx, tt.requestID)
			}
			if tt.batchID != "" {
				ctx = WithBatchID(ctx, tt.batchID)
			}

			L(ctx).Info("test message")
			entry := decodeEntry(t, buf)

			for key, want := range map[string]string{"request_id": tt.requestID, "batch_id": tt.batchID} {
				got, ok := entry[key]
				if want == "" {
					if ok {
						t.Errorf("%s = %v, want absent", key, got)
					}
					continue
				}
				if got != want {
					t.Errorf("%s = %v, want %q", key, got, want)
				}
			}
		})
	}
}
