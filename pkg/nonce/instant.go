package nonce

import (
	"encoding/binary"
	"fmt"
	"time"
)

// NanosPerSecond is the exclusive upper bound of Instant.Nanos.
const NanosPerSecond = 1_000_000_000

// InstantSize is the size of the binary form of an Instant.
const InstantSize = 12

// Instant is a point in time as seconds and nanoseconds since the Unix epoch.
// Nanos never exceeds 999,999,999.
type Instant struct {
	Seconds uint64
	Nanos   uint32
}

// InstantOf converts t to an Instant. Times before the Unix epoch map to the
// zero Instant.
func InstantOf(t time.Time) Instant {
	sec := t.Unix()
	if sec < 0 {
		return Instant{}
	}
	return Instant{Seconds: uint64(sec), Nanos: uint32(t.Nanosecond())}
}

// Time returns the instant as a UTC time.Time.
func (i Instant) Time() time.Time {
	return time.Unix(int64(i.Seconds), int64(i.Nanos)).UTC()
}

// IsZero reports whether i is the zero Instant.
func (i Instant) IsZero() bool {
	return i.Seconds == 0 && i.Nanos == 0
}

// Compare returns -1, 0 or 1 comparing (Seconds, Nanos) lexicographically.
func (i Instant) Compare(other Instant) int {
	switch {
	case i.Seconds < other.Seconds:
		return -1
	case i.Seconds > other.Seconds:
		return 1
	case i.Nanos < other.Nanos:
		return -1
	case i.Nanos > other.Nanos:
		return 1
	}
	return 0
}

// Before reports whether i is strictly earlier than other.
func (i Instant) Before(other Instant) bool {
	return i.Compare(other) < 0
}

// Next returns the instant one nanosecond after i, carrying into Seconds.
func (i Instant) Next() Instant {
	if i.Nanos+1 >= NanosPerSecond {
		return Instant{Seconds: i.Seconds + 1}
	}
	return Instant{Seconds: i.Seconds, Nanos: i.Nanos + 1}
}

// Add returns i advanced by d. Negative durations are ignored.
func (i Instant) Add(d time.Duration) Instant {
	if d <= 0 {
		return i
	}
	total := uint64(i.Nanos) + uint64(d%time.Second)
	return Instant{
		Seconds: i.Seconds + uint64(d/time.Second) + total/NanosPerSecond,
		Nanos:   uint32(total % NanosPerSecond),
	}
}

// String formats the instant as seconds.nanoseconds.
func (i Instant) String() string {
	return fmt.Sprintf("%d.%09d", i.Seconds, i.Nanos)
}

// AppendBinary appends the 12-byte big-endian form of i to b.
func (i Instant) AppendBinary(b []byte) []byte {
	b = binary.BigEndian.AppendUint64(b, i.Seconds)
	return binary.BigEndian.AppendUint32(b, i.Nanos)
}

// ParseInstant decodes the 12-byte form written by AppendBinary.
func ParseInstant(b []byte) (Instant, error) {
	if len(b) != InstantSize {
		return Instant{}, fmt.Errorf("nonce: instant must be %d bytes, got %d", InstantSize, len(b))
	}
	i := Instant{
		Seconds: binary.BigEndian.Uint64(b[0:8]),
		Nanos:   binary.BigEndian.Uint32(b[8:12]),
	}
	if i.Nanos >= NanosPerSecond {
		return Instant{}, fmt.Errorf("nonce: nanoseconds out of range: %d", i.Nanos)
	}
	return i, nil
}
