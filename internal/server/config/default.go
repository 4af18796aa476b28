package config

import (
	"time"

	"github.com/yndnr/textnonce-go/pkg/nonce"
)

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:5080"
	DefaultRedisAddr    = "127.0.0.1:6380"
	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultIdleTimeout  = 60 * time.Second

	DefaultRedisMaxConnections = 1024
	DefaultRedisIdleTimeout    = 5 * time.Minute
	DefaultRedisCommandTimeout = 5 * time.Second

	DefaultShutdownTimeout = 15 * time.Second

	DefaultMaxLength = 1024
	DefaultMaxBatch  = 1000

	DefaultRateLimitRPS   = 100
	DefaultRateLimitBurst = 200

	DefaultDataDir            = "/var/lib/textnonce/data"
	DefaultCheckpointInterval = time.Second
	DefaultGCInterval         = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
			},
			Redis: RedisConfig{
				Addr:           DefaultRedisAddr,
				MaxConnections: DefaultRedisMaxConnections,
				IdleTimeout:    DefaultRedisIdleTimeout,
				CommandTimeout: DefaultRedisCommandTimeout,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Nonce: NonceSection{
			DefaultLength: nonce.DefaultLength,
			MaxLength:     DefaultMaxLength,
			MaxBatch:      DefaultMaxBatch,
		},
		Security: SecuritySection{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
		},
		Storage: StorageSection{
			DataDir:            DefaultDataDir,
			CheckpointInterval: DefaultCheckpointInterval,
			GCInterval:         DefaultGCInterval,
			SyncWrites:         true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
