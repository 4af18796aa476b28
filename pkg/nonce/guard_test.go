package nonce

import (
	"sync"
	"testing"
	"time"
)

func TestGuard_FirstCallUsesClock(t *testing.T) {
	clock := &manualClock{now: Instant{Seconds: 100, Nanos: 5}}
	g := NewGuard(clock)

	if _, ok := g.Last(); ok {
		t.Fatal("Last() should report no state before the first call")
	}
	if got := g.Next(); got != (Instant{Seconds: 100, Nanos: 5}) {
		t.Errorf("Next() = %v, want 100.000000005", got)
	}
}

func TestGuard_StalledClock(t *testing.T) {
	clock := &manualClock{now: Instant{Seconds: 100}}
	g := NewGuard(clock)

	prev := g.Next()
	for i := 0; i < 1000; i++ {
		next := g.Next()
		if !prev.Before(next) {
			t.Fatalf("Next() = %v not after %v", next, prev)
		}
		prev = next
	}
	if want := (Instant{Seconds: 100, Nanos: 1000}); prev != want {
		t.Errorf("last = %v, want %v", prev, want)
	}
	// The first repeat equals the last instant; later readings fall behind it.
	st := g.Stats()
	if st.Issued != 1001 || st.Stalls != 1 || st.Regressions != 999 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestGuard_ClockRegression(t *testing.T) {
	clock := &manualClock{now: Instant{Seconds: 1000}}
	g := NewGuard(clock)

	a := g.Next()
	clock.Set(Instant{Seconds: 900})
	b := g.Next()
	c := g.Next()

	if !a.Before(b) || !b.Before(c) {
		t.Fatalf("expected strictly increasing instants despite regression: %v %v %v", a, b, c)
	}
	if b != (Instant{Seconds: 1000, Nanos: 1}) {
		t.Errorf("b = %v, want 1000.000000001", b)
	}
	if st := g.Stats(); st.Regressions != 2 {
		t.Errorf("Regressions = %d, want 2", st.Regressions)
	}

	// Once the clock passes the last instant, readings are used directly.
	clock.Set(Instant{Seconds: 1001})
	if d := g.Next(); d != (Instant{Seconds: 1001}) {
		t.Errorf("d = %v, want 1001.0", d)
	}
}

func TestGuard_NanosecondCarry(t *testing.T) {
	clock := &manualClock{now: Instant{Seconds: 5, Nanos: 999_999_999}}
	g := NewGuard(clock)

	g.Next()
	got := g.Next()
	if got != (Instant{Seconds: 6}) {
		t.Errorf("Next() = %v, want 6.000000000", got)
	}
}

func TestGuard_SeedAndReset(t *testing.T) {
	clock := &manualClock{now: Instant{Seconds: 10}}
	g := NewGuard(clock)

	g.Seed(Instant{Seconds: 50})
	if got := g.Next(); got != (Instant{Seconds: 50, Nanos: 1}) {
		t.Errorf("Next() after Seed = %v, want 50.000000001", got)
	}

	// Seeding an earlier mark never lowers state.
	g.Seed(Instant{Seconds: 20})
	if last, _ := g.Last(); last != (Instant{Seconds: 50, Nanos: 1}) {
		t.Errorf("Last() = %v, want 50.000000001", last)
	}

	g.Reset()
	if _, ok := g.Last(); ok {
		t.Error("Last() should report no state after Reset")
	}
	if got := g.Next(); got != (Instant{Seconds: 10}) {
		t.Errorf("Next() after Reset = %v, want 10.0", got)
	}
	if st := g.Stats(); st.Issued != 1 {
		t.Errorf("Stats().Issued = %d after Reset, want 1", st.Issued)
	}
}

func TestGuard_BackwardsSimulation(t *testing.T) {
	// A clock that jitters around a slowly advancing point.
	readings := []Instant{
		{Seconds: 3}, {Seconds: 2}, {Seconds: 3}, {Seconds: 3, Nanos: 2},
		{Seconds: 1}, {Seconds: 4}, {Seconds: 4}, {Seconds: 3, Nanos: 999_999_999},
	}
	idx := 0
	g := NewGuard(ClockFunc(func() Instant {
		r := readings[idx%len(readings)]
		idx++
		return r
	}))

	prev := g.Next()
	for i := 1; i < 64; i++ {
		next := g.Next()
		if !prev.Before(next) {
			t.Fatalf("step %d: %v not after %v", i, next, prev)
		}
		prev = next
	}
}

func TestGuard_Concurrent(t *testing.T) {
	const (
		workers = 8
		perWork = 5000
	)

	g := NewGuard(&manualClock{now: Instant{Seconds: 1}})

	var mu sync.Mutex
	seen := make(map[Instant]bool, workers*perWork)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Instant, 0, perWork)
			for i := 0; i < perWork; i++ {
				local = append(local, g.Next())
			}
			for i := 1; i < len(local); i++ {
				if !local[i-1].Before(local[i]) {
					t.Errorf("per-goroutine order violated: %v then %v", local[i-1], local[i])
					return
				}
			}
			mu.Lock()
			for _, in := range local {
				seen[in] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWork {
		t.Errorf("got %d distinct instants, want %d", len(seen), workers*perWork)
	}
}

func TestGuard_SystemClock(t *testing.T) {
	g := NewGuard(nil)
	a := g.Next()
	b := g.Next()
	if !a.Before(b) {
		t.Errorf("system clock instants not increasing: %v, %v", a, b)
	}
	if d := time.Since(a.Time()); d < 0 || d > time.Minute {
		t.Errorf("system instant %v is far from now (%v)", a, d)
	}
}
