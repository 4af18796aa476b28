package config

import "time"

// ServerConfig is the root configuration for textnonce-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Nonce    NonceSection    `koanf:"nonce"`
	Security SecuritySection `koanf:"security"`
	Storage  StorageSection  `koanf:"storage"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures the listeners.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Redis RedisConfig `koanf:"redis"`

	// ShutdownTimeout bounds graceful shutdown of all components.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	TLS          TLSConfig     `koanf:"tls"`
}

// TLSConfig enables HTTPS. The key pair is reloaded when its files change.
type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	// ClientCAFile, when set, requires client certificates signed by it.
	ClientCAFile string `koanf:"client_ca_file"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Addr           string        `koanf:"addr"`
	MaxConnections int           `koanf:"max_connections"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	CommandTimeout time.Duration `koanf:"command_timeout"`
}

// NonceSection bounds issue requests.
type NonceSection struct {
	DefaultLength int `koanf:"default_length"`
	MaxLength     int `koanf:"max_length"`
	MaxBatch      int `koanf:"max_batch"`
}

// SecuritySection configures access control.
type SecuritySection struct {
	// APIKey, when set, is required on /nonces, /admin and RESP AUTH.
	APIKey string `koanf:"api_key"`
	// MetricsAuth also requires the API key on /metrics.
	MetricsAuth bool            `koanf:"metrics_auth"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig is a per-client-IP token bucket.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// StorageSection configures the optional high-water mark checkpoint.
type StorageSection struct {
	Enabled            bool          `koanf:"enabled"`
	DataDir            string        `koanf:"data_dir"`
	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
	GCInterval         time.Duration `koanf:"gc_interval"`
	SyncWrites         bool          `koanf:"sync_writes"`
}

// LogSection configures logging. Level is reloaded when the file changes.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
