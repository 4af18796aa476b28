package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "textnonce"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Issuance metrics
	NoncesIssued *prometheus.CounterVec
	IssueErrors  *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Storage metrics
	CheckpointSaves  prometheus.Counter
	CheckpointErrors prometheus.Counter
}

// NewRegistry creates a registry with the Go runtime and process collectors
// plus the TextNonce metrics.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		NoncesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonces_issued_total",
			Help:      "Nonces issued, by length.",
		}, []string{"length"}),
		IssueErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issue_errors_total",
			Help:      "Rejected or failed issue requests, by error code.",
		}, []string{"code"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "path"}),
		CheckpointSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_saves_total",
			Help:      "High-water mark checkpoints written.",
		}),
		CheckpointErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_errors_total",
			Help:      "High-water mark checkpoints that failed.",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.NoncesIssued,
		r.IssueErrors,
		r.RequestsTotal,
		r.RequestDuration,
		r.CheckpointSaves,
		r.CheckpointErrors,
	)
	return r
}

// Prometheus returns the underlying registry so other components
// (the Badger engine, the guard collector) can register into it.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// MustRegister registers extra collectors, panicking on conflict.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveIssued counts n nonces of the given length.
func (r *Registry) ObserveIssued(length, n int) {
	if r == nil {
		return
	}
	r.NoncesIssued.WithLabelValues(strconv.Itoa(length)).Add(float64(n))
}

// ObserveIssueError counts a failed issue request.
func (r *Registry) ObserveIssueError(code string) {
	if r == nil {
		return
	}
	r.IssueErrors.WithLabelValues(code).Inc()
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveCheckpoint records the outcome of one checkpoint write.
func (r *Registry) ObserveCheckpoint(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.CheckpointErrors.Inc()
		return
	}
	r.CheckpointSaves.Inc()
}
