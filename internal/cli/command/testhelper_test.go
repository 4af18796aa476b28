package command

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

// mockServer is a test HTTP server routing by path prefix.
type mockServer struct {
	*httptest.Server
	handlers map[string]http.HandlerFunc
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for pattern, handler := range m.handlers {
			if strings.HasPrefix(r.URL.Path, pattern) {
				handler(w, r)
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.handlers[pattern] = handler
}

// envelope writes the server's response envelope.
func envelope(w http.ResponseWriter, status int, code, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "req-test",
		"data":       data,
	})
}

func okEnvelope(w http.ResponseWriter, data any) {
	envelope(w, http.StatusOK, "OK", "Success", data)
}

// runApp runs the CLI with an isolated profile path and returns stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runAppWithProfile(t, filepath.Join(t.TempDir(), "cli.yaml"), args...)
}

func runAppWithProfile(t *testing.T, profile string, args ...string) (string, error) {
	t.Helper()
	return run(App(), profile, args...)
}

func run(app *cli.App, profile string, args ...string) (string, error) {
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := append([]string{"textnonce-cli", "--config", profile}, args...)
	err := app.Run(argv)
	return out.String(), err
}
