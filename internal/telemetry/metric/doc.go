// Package metric provides Prometheus metrics for TextNonce.
//
//   - prometheus.go: the registry of application metrics and the /metrics handler
//   - collector.go: a collector that reads guard statistics at scrape time
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
