package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/textnonce-go/internal/telemetry/logger"
	"github.com/yndnr/textnonce-go/pkg/nonce"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyNonce(&cfg.Nonce)...)
	errs = append(errs, verifySecurity(&cfg.Security)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		errs = append(errs, err)
	}
	if cfg.HTTP.TLS.Enabled {
		for key, path := range map[string]string{
			"server.http.tls.cert_file": cfg.HTTP.TLS.CertFile,
			"server.http.tls.key_file":  cfg.HTTP.TLS.KeyFile,
		} {
			if err := verifyFile(key, path, true); err != nil {
				errs = append(errs, err)
			}
		}
		if err := verifyFile("server.http.tls.client_ca_file", cfg.HTTP.TLS.ClientCAFile, false); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.Redis.Enabled {
		if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
			errs = append(errs, err)
		} else if cfg.Redis.Addr == cfg.HTTP.Addr {
			errs = append(errs, fmt.Errorf("server.redis.addr conflicts with server.http.addr (%s)", cfg.Redis.Addr))
		}
		if cfg.Redis.MaxConnections < 1 {
			errs = append(errs, errors.New("server.redis.max_connections must be at least 1"))
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errs
}

func verifyNonce(cfg *NonceSection) []error {
	var errs []error
	if err := nonce.ValidateLength(cfg.DefaultLength); err != nil {
		errs = append(errs, fmt.Errorf("nonce.default_length: %w", err))
	}
	if err := nonce.ValidateLength(cfg.MaxLength); err != nil {
		errs = append(errs, fmt.Errorf("nonce.max_length: %w", err))
	}
	if cfg.DefaultLength > cfg.MaxLength {
		errs = append(errs, fmt.Errorf("nonce.default_length %d exceeds nonce.max_length %d", cfg.DefaultLength, cfg.MaxLength))
	}
	if cfg.MaxBatch < 1 {
		errs = append(errs, errors.New("nonce.max_batch must be at least 1"))
	}
	return errs
}

func verifySecurity(cfg *SecuritySection) []error {
	var errs []error
	if cfg.APIKey != "" && len(cfg.APIKey) < 16 {
		errs = append(errs, errors.New("security.api_key must be at least 16 characters"))
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RPS <= 0 {
			errs = append(errs, errors.New("security.rate_limit.rps must be positive"))
		}
		if cfg.RateLimit.Burst < 1 {
			errs = append(errs, errors.New("security.rate_limit.burst must be at least 1"))
		}
	}
	return errs
}

func verifyStorage(cfg *StorageSection) []error {
	if !cfg.Enabled {
		return nil
	}
	var errs []error
	if cfg.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is required when storage is enabled"))
	} else if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		errs = append(errs, fmt.Errorf("storage.data_dir: %w", err))
	}
	if cfg.CheckpointInterval <= 0 {
		errs = append(errs, errors.New("storage.checkpoint_interval must be positive"))
	}
	if cfg.GCInterval <= 0 {
		errs = append(errs, errors.New("storage.gc_interval must be positive"))
	}
	return errs
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errs
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func verifyFile(key, path string, required bool) error {
	if path == "" {
		if required {
			return fmt.Errorf("%s is required when TLS is enabled", key)
		}
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
