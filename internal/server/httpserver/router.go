package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/textnonce-go/internal/core/service"
	"github.com/yndnr/textnonce-go/internal/infra/ratelimit"
	"github.com/yndnr/textnonce-go/internal/server/httpserver/handler"
	"github.com/yndnr/textnonce-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Service *service.NonceService

	// Metrics serves /metrics and records request metrics. Nil disables both.
	Metrics *metric.Registry

	Logger *slog.Logger

	// APIKey, when non-empty, is required on /nonces and /admin routes.
	APIKey string

	// MetricsAuthRequired also requires APIKey on /metrics.
	MetricsAuthRequired bool

	// RateLimiter is applied per client IP. Nil disables rate limiting.
	RateLimiter *ratelimit.Limiter

	// Ready backs GET /ready.
	Ready func() error
}

// NewRouter builds the route table. Route groups share RequestID, Recover
// and Audit; business and admin routes add RateLimit and Auth.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var opts []handler.Option
	if cfg.Ready != nil {
		opts = append(opts, handler.WithReadiness(cfg.Ready))
	}
	h := handler.New(cfg.Service, log, opts...)

	base := []Middleware{
		RequestID(),
		Recover(log),
		Audit(log, cfg.Metrics),
	}

	mux := http.NewServeMux()

	probes := Chain(h, base...)
	mux.Handle("GET /health", probes)
	mux.Handle("GET /ready", probes)

	if cfg.Metrics != nil {
		metricsChain := append([]Middleware{}, base...)
		if cfg.MetricsAuthRequired {
			metricsChain = append(metricsChain, Auth(cfg.APIKey))
		}
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), metricsChain...))
	}

	business := Chain(h, append(base,
		RateLimit(cfg.RateLimiter),
		Auth(cfg.APIKey),
	)...)
	mux.Handle("GET /nonces", business)
	mux.Handle("POST /nonces", business)
	mux.Handle("GET /admin/v1/status", business)

	return mux
}
