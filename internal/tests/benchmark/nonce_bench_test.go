package benchmark

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/textnonce-go/pkg/nonce"
)

func BenchmarkGenerate(b *testing.B) {
	runWithSizes(b, "length", Lengths, func(b *testing.B, length int) {
		gen := nonce.NewGenerator()
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := gen.Generate(length); err != nil {
				b.Fatalf("Generate(%d) error = %v", length, err)
			}
		}
	})
}

// BenchmarkGenerateParallel measures contention on the shared guard.
func BenchmarkGenerateParallel(b *testing.B) {
	gen := nonce.NewGenerator()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := gen.Generate(nonce.DefaultLength); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkGenerateN(b *testing.B) {
	runWithSizes(b, "batch", BatchSizes, func(b *testing.B, n int) {
		gen := nonce.NewGenerator()
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := gen.GenerateN(n, nonce.DefaultLength); err != nil {
				b.Fatal(err)
			}
		}
		b.ReportMetric(float64(n*b.N)/b.Elapsed().Seconds(), "nonces/s")
	})
}

func BenchmarkGuardNext(b *testing.B) {
	g := nonce.NewGuard(nil)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		g.Next()
	}
}

// BenchmarkGuardNextStalled hits the bump path on every call.
func BenchmarkGuardNextStalled(b *testing.B) {
	fixed := nonce.Instant{Seconds: 1_700_000_000}
	g := nonce.NewGuard(nonce.ClockFunc(func() nonce.Instant { return fixed }))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		g.Next()
	}
}

func BenchmarkEncodeInstant(b *testing.B) {
	in := nonce.InstantOf(time.Now())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = nonce.EncodeInstant(in)
	}
}

// BenchmarkULIDMonotonic is a baseline for another sortable ID scheme.
func BenchmarkULIDMonotonic(b *testing.B) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ulid.New(ulid.Timestamp(time.Now()), entropy); err != nil {
			b.Fatal(err)
		}
	}
}
