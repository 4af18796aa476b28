package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/textnonce-go/internal/infra/confloader"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Server.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
	if cfg.Storage.Enabled {
		t.Error("Storage should be disabled by default")
	}
	if cfg.Nonce.DefaultLength != 32 {
		t.Errorf("Nonce.DefaultLength = %d, want 32", cfg.Nonce.DefaultLength)
	}
	if !cfg.Security.RateLimit.Enabled {
		t.Error("rate limiting should be enabled by default")
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"bad http addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "nohostport" }, "server.http.addr"},
		{"empty http addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "" }, "server.http.addr is required"},
		{"tls without files", func(c *ServerConfig) { c.Server.HTTP.TLS.Enabled = true }, "server.http.tls.cert_file"},
		{"redis addr conflict", func(c *ServerConfig) {
			c.Server.Redis.Enabled = true
			c.Server.Redis.Addr = c.Server.HTTP.Addr
		}, "conflicts"},
		{"redis no connections", func(c *ServerConfig) {
			c.Server.Redis.Enabled = true
			c.Server.Redis.MaxConnections = 0
		}, "max_connections"},
		{"shutdown timeout", func(c *ServerConfig) { c.Server.ShutdownTimeout = 0 }, "shutdown_timeout"},
		{"default length", func(c *ServerConfig) { c.Nonce.DefaultLength = 30 }, "nonce.default_length"},
		{"default over max", func(c *ServerConfig) { c.Nonce.MaxLength = 20 }, "exceeds nonce.max_length"},
		{"batch", func(c *ServerConfig) { c.Nonce.MaxBatch = 0 }, "nonce.max_batch"},
		{"short api key", func(c *ServerConfig) { c.Security.APIKey = "short" }, "security.api_key"},
		{"rate limit rps", func(c *ServerConfig) { c.Security.RateLimit.RPS = 0 }, "rate_limit.rps"},
		{"rate limit burst", func(c *ServerConfig) { c.Security.RateLimit.Burst = 0 }, "rate_limit.burst"},
		{"storage interval", func(c *ServerConfig) {
			c.Storage.Enabled = true
			c.Storage.DataDir = t.TempDir()
			c.Storage.CheckpointInterval = 0
		}, "checkpoint_interval"},
		{"storage dir", func(c *ServerConfig) {
			c.Storage.Enabled = true
			c.Storage.DataDir = ""
		}, "storage.data_dir"},
		{"log level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Nonce.MaxBatch = 0
	cfg.Log.Level = "loud"

	err := Verify(cfg)
	if err == nil || !strings.Contains(err.Error(), "max_batch") || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("Verify() error = %v, want both problems", err)
	}
}

func TestVerify_StorageCreatesDataDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.Enabled = true
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "nested", "data")

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := os.Stat(cfg.Storage.DataDir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestVerify_TLSFiles(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "c.pem")
	key := filepath.Join(dir, "k.pem")
	os.WriteFile(cert, []byte("x"), 0644)
	os.WriteFile(key, []byte("x"), 0600)

	cfg := Default()
	cfg.Server.HTTP.TLS = TLSConfig{Enabled: true, CertFile: cert, KeyFile: key}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	cfg.Server.HTTP.TLS.ClientCAFile = filepath.Join(dir, "missing.pem")
	if err := Verify(cfg); err == nil {
		t.Error("Verify() should fail for a missing client CA file")
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Security.APIKey = "super-secret-key-1234567890"

	sanitized := Sanitize(cfg)

	if cfg.Security.APIKey != "super-secret-key-1234567890" {
		t.Error("Sanitize modified the original config")
	}
	if sanitized.Security.APIKey == cfg.Security.APIKey {
		t.Error("API key was not masked")
	}
	if !strings.HasPrefix(sanitized.Security.APIKey, "su") || !strings.HasSuffix(sanitized.Security.APIKey, "90") {
		t.Errorf("masked key = %q", sanitized.Security.APIKey)
	}

	empty := Sanitize(Default())
	if empty.Security.APIKey != "" {
		t.Errorf("empty key masked to %q", empty.Security.APIKey)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"abcde", "ab*de"},
		{"0123456789", "01******89"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textnonce.yaml")
	content := `
server:
  http:
    addr: "0.0.0.0:9000"
nonce:
  max_batch: 50
storage:
  enabled: true
  checkpoint_interval: 2s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEXTNONCE_SECURITY_RATE_LIMIT_RPS", "12.5")
	t.Setenv("TEXTNONCE_SECURITY_API_KEY", "from-env-0123456789")

	cfg := Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "0.0.0.0:9000" {
		t.Errorf("HTTP.Addr = %q", cfg.Server.HTTP.Addr)
	}
	if cfg.Server.HTTP.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout = %v, want default kept", cfg.Server.HTTP.ReadTimeout)
	}
	if cfg.Nonce.MaxBatch != 50 || cfg.Nonce.MaxLength != DefaultMaxLength {
		t.Errorf("Nonce = %+v", cfg.Nonce)
	}
	if !cfg.Storage.Enabled || cfg.Storage.CheckpointInterval != 2*time.Second {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Security.RateLimit.RPS != 12.5 {
		t.Errorf("RateLimit.RPS = %v, want 12.5 from env", cfg.Security.RateLimit.RPS)
	}
	if cfg.Security.APIKey != "from-env-0123456789" {
		t.Errorf("APIKey = %q, want value from env", cfg.Security.APIKey)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}
