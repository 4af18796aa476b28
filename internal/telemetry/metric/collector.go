package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/textnonce-go/pkg/nonce"
)

// GuardCollector exports the clock guard counters at scrape time.
type GuardCollector struct {
	stats func() nonce.GuardStats

	issued      *prometheus.Desc
	adjustments *prometheus.Desc
}

// NewGuardCollector creates a collector reading from stats.
func NewGuardCollector(stats func() nonce.GuardStats) *GuardCollector {
	return &GuardCollector{
		stats: stats,
		issued: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "guard", "instants_total"),
			"Instants handed out by the monotonic clock guard.",
			nil, nil,
		),
		adjustments: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "guard", "adjustments_total"),
			"Clock readings the guard had to bump forward, by reason.",
			[]string{"reason"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *GuardCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.issued
	ch <- c.adjustments
}

// Collect implements prometheus.Collector.
func (c *GuardCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	ch <- prometheus.MustNewConstMetric(c.issued, prometheus.CounterValue, float64(st.Issued))
	ch <- prometheus.MustNewConstMetric(c.adjustments, prometheus.CounterValue, float64(st.Stalls), "stall")
	ch <- prometheus.MustNewConstMetric(c.adjustments, prometheus.CounterValue, float64(st.Regressions), "regression")
}
