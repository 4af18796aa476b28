package benchmark

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"
)

// Lengths covers the minimum, the default and a long nonce.
var Lengths = []int{16, 32, 64, 128}

// BatchSizes are request sizes seen by the service.
var BatchSizes = []int{1, 10, 100, 1000}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

func runWithSizes(b *testing.B, label string, sizes []int, benchFn func(b *testing.B, n int)) {
	for _, n := range sizes {
		b.Run(fmt.Sprintf("%s_%d", label, n), func(b *testing.B) {
			benchFn(b, n)
		})
	}
}
