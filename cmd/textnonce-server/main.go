// Package main is the entry point for textnonce-server.
//
// textnonce-server issues sortable text nonces over HTTP and, optionally, the
// Redis protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/textnonce-go/internal/core/service"
	"github.com/yndnr/textnonce-go/internal/infra/buildinfo"
	"github.com/yndnr/textnonce-go/internal/infra/confloader"
	"github.com/yndnr/textnonce-go/internal/infra/ratelimit"
	"github.com/yndnr/textnonce-go/internal/infra/shutdown"
	"github.com/yndnr/textnonce-go/internal/infra/tlsroots"
	"github.com/yndnr/textnonce-go/internal/server/config"
	"github.com/yndnr/textnonce-go/internal/server/httpserver"
	"github.com/yndnr/textnonce-go/internal/server/redisserver"
	"github.com/yndnr/textnonce-go/internal/storage"
	"github.com/yndnr/textnonce-go/internal/telemetry/logger"
	"github.com/yndnr/textnonce-go/internal/telemetry/metric"
	"github.com/yndnr/textnonce-go/pkg/nonce"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "path to configuration file")
		checkConfig = flag.Bool("check", false, "validate configuration and exit")
		showVersion = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("textnonce-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *checkConfig {
		fmt.Println("configuration OK")
		return nil
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogger := logger.Slog(log)

	info := buildinfo.Get()
	log.Info("starting textnonce-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"effective", config.Sanitize(cfg))

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, slogger)
	g, gctx := errgroup.WithContext(context.Background())

	// fail unwinds whatever was started before a setup error.
	fail := func(err error) error {
		if herr := shutdownHandler.Run(); herr != nil {
			log.Error("cleanup after failed start", "error", herr)
		}
		_ = g.Wait()
		return err
	}

	metrics := metric.NewRegistry()

	gen := nonce.NewGenerator()
	metrics.MustRegister(metric.NewGuardCollector(gen.Guard().Stats))

	// draining flips /ready to 503 as soon as shutdown starts so load
	// balancers stop routing before the listeners close.
	var draining atomic.Bool
	var checkpointer *service.Checkpointer
	ready := func() error {
		if draining.Load() {
			return errors.New("shutting down")
		}
		if checkpointer != nil {
			return checkpointer.Healthy()
		}
		return nil
	}

	if cfg.Storage.Enabled {
		cp, err := startCheckpointing(cfg, gen, metrics, slogger, shutdownHandler)
		if err != nil {
			return fail(err)
		}
		checkpointer = cp
	}

	svc := service.NewNonceService(gen, service.Limits{
		DefaultLength: cfg.Nonce.DefaultLength,
		MaxLength:     cfg.Nonce.MaxLength,
		MaxBatch:      cfg.Nonce.MaxBatch,
	}, service.WithMetrics(metrics), service.WithLogger(log))

	var limiter *ratelimit.Limiter
	if rl := cfg.Security.RateLimit; rl.Enabled {
		limiter = ratelimit.New(rl.RPS, rl.Burst)
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogger))
	if err != nil {
		return fail(fmt.Errorf("init config watcher: %w", err))
	}
	shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
		return watcher.Stop()
	})
	if *configFile != "" {
		if err := watchLogLevel(watcher, *configFile, slogger); err != nil {
			return fail(err)
		}
	}

	// HTTP
	httpLn, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		return fail(fmt.Errorf("listen http: %w", err))
	}
	httpOpts := []httpserver.Option{
		httpserver.WithTimeouts(cfg.Server.HTTP.ReadTimeout, cfg.Server.HTTP.WriteTimeout, cfg.Server.HTTP.IdleTimeout),
		httpserver.WithLogger(slogger),
	}
	if tc := cfg.Server.HTTP.TLS; tc.Enabled {
		kp, err := tlsroots.LoadKeyPair(tc.CertFile, tc.KeyFile, slogger)
		if err != nil {
			_ = httpLn.Close()
			return fail(err)
		}
		tlsCfg, err := tlsroots.ServerConfig(kp, tc.ClientCAFile)
		if err != nil {
			_ = httpLn.Close()
			return fail(err)
		}
		for _, f := range []string{tc.CertFile, tc.KeyFile} {
			if err := watchFile(watcher, f); err != nil {
				_ = httpLn.Close()
				return fail(err)
			}
		}
		watcher.OnChange(kp.OnFileChange)
		httpOpts = append(httpOpts, httpserver.WithTLS(tlsCfg))
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Service:             svc,
		Metrics:             metrics,
		Logger:              slogger,
		APIKey:              cfg.Security.APIKey,
		MetricsAuthRequired: cfg.Security.MetricsAuth,
		RateLimiter:         limiter,
		Ready:               ready,
	})
	httpSrv := httpserver.New(cfg.Server.HTTP.Addr, router, httpOpts...)
	shutdownHandler.OnShutdown("http", httpSrv.Shutdown)
	g.Go(func() error { return httpSrv.Serve(httpLn) })

	// RESP
	if rc := cfg.Server.Redis; rc.Enabled {
		redisLn, err := net.Listen("tcp", rc.Addr)
		if err != nil {
			return fail(fmt.Errorf("listen redis: %w", err))
		}
		redisCfg := redisserver.DefaultConfig()
		redisCfg.Address = rc.Addr
		redisCfg.APIKey = cfg.Security.APIKey
		redisCfg.IdleTimeout = rc.IdleTimeout
		redisCfg.CommandTimeout = rc.CommandTimeout
		redisCfg.MaxConnections = rc.MaxConnections
		redisSrv := redisserver.New(redisCfg, svc, limiter, slogger)
		shutdownHandler.OnShutdown("redis", redisSrv.Shutdown)
		g.Go(func() error { return redisSrv.Serve(gctx, redisLn) })
	}

	shutdownHandler.OnShutdown("drain", func(context.Context) error {
		draining.Store(true)
		return nil
	})

	watcher.StartAsync()

	// A listener failing cancels gctx, which runs the shutdown hooks.
	g.Go(func() error { return shutdownHandler.Wait(gctx) })

	log.Info("server started", "http", cfg.Server.HTTP.Addr, "redis_enabled", cfg.Server.Redis.Enabled)
	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig merges defaults, the optional file and TEXTNONCE_* variables.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// startCheckpointing opens Badger, seeds the guard from the stored
// high-water mark and starts the periodic save.
func startCheckpointing(cfg *config.ServerConfig, gen *nonce.Generator, metrics *metric.Registry, log *slog.Logger, sh *shutdown.Handler) (*service.Checkpointer, error) {
	kvCfg := storage.DefaultKVConfig(cfg.Storage.DataDir)
	kvCfg.Badger.SyncWrites = cfg.Storage.SyncWrites
	if cfg.Storage.GCInterval > 0 {
		kvCfg.Badger.GCInterval = cfg.Storage.GCInterval
	}

	kv, err := storage.NewBadgerEngine(kvCfg, log)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	kv.RegisterMetrics(metrics.Prometheus())
	sh.OnShutdown("storage", func(context.Context) error { return kv.Close() })

	cp := service.NewCheckpointer(
		storage.NewCheckpointStore(kv),
		gen.Guard(),
		cfg.Storage.CheckpointInterval,
		service.WithCheckpointMetrics(metrics),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cp.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore checkpoint: %w", err)
	}
	cp.Start()

	// Registered after storage, so it runs first and writes a final mark.
	sh.OnShutdown("checkpoint", cp.Stop)
	return cp, nil
}

func watchFile(w *confloader.Watcher, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Watch(abs); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	return nil
}

// watchLogLevel reapplies log.level when the config file changes. Other
// settings need a restart.
func watchLogLevel(w *confloader.Watcher, configFile string, log *slog.Logger) error {
	abs, err := filepath.Abs(configFile)
	if err != nil {
		return err
	}
	if err := watchFile(w, abs); err != nil {
		return err
	}

	w.OnChange(func(path string) {
		if path != abs {
			return
		}
		cfg, err := loadConfig(configFile)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	return nil
}
