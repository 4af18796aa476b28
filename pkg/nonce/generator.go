package nonce

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
)

// Token is a generated nonce.
type Token string

// String returns the nonce text.
func (t Token) String() string { return string(t) }

// TimeSegment returns the leading 16 characters that encode the instant.
func (t Token) TimeSegment() string {
	if len(t) < TimeSegmentLength {
		return string(t)
	}
	return string(t[:TimeSegmentLength])
}

// RandomSegment returns the characters after the time segment.
func (t Token) RandomSegment() string {
	if len(t) <= TimeSegmentLength {
		return ""
	}
	return string(t[TimeSegmentLength:])
}

// Generator issues nonces. It is safe for concurrent use.
type Generator struct {
	guard  *Guard
	random io.Reader
	enc    *base64.Encoding
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock makes the generator read time from clock through a new Guard.
func WithClock(clock Clock) Option {
	return func(g *Generator) {
		g.guard = NewGuard(clock)
	}
}

// WithGuard shares an existing guard, for example one seeded from a
// persisted mark.
func WithGuard(guard *Guard) Option {
	return func(g *Generator) {
		g.guard = guard
	}
}

// WithRandom replaces crypto/rand.Reader. The reader must be safe for
// concurrent use if the generator is shared.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		g.random = r
	}
}

// WithEncoding selects another 64-symbol encoding. Padding is always
// disabled. Only the default Encoding keeps nonces sortable as text. A nil
// encoding keeps the default.
func WithEncoding(enc *base64.Encoding) Option {
	return func(g *Generator) {
		if enc != nil {
			g.enc = enc.WithPadding(base64.NoPadding)
		}
	}
}

// NewGenerator creates a generator backed by the system clock and crypto/rand.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		random: rand.Reader,
		enc:    Encoding,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.guard == nil {
		g.guard = NewGuard(SystemClock{})
	}
	return g
}

// Guard returns the guard that orders this generator's instants.
func (g *Generator) Guard() *Guard {
	return g.guard
}

// Generate returns a nonce of exactly length characters.
func (g *Generator) Generate(length int) (Token, error) {
	if err := ValidateLength(length); err != nil {
		return "", err
	}
	return encode(g.enc, g.guard.Next(), g.random, length)
}

// New returns a nonce of DefaultLength characters.
func (g *Generator) New() (Token, error) {
	return g.Generate(DefaultLength)
}

// GenerateN returns n nonces of the given length.
func (g *Generator) GenerateN(n, length int) ([]Token, error) {
	if n < 0 {
		return nil, fmt.Errorf("nonce: negative count %d", n)
	}
	if err := ValidateLength(length); err != nil {
		return nil, err
	}

	out := make([]Token, 0, n)
	for i := 0; i < n; i++ {
		tok, err := g.Generate(length)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

var (
	defaultOnce      sync.Once
	defaultGenerator *Generator
)

// Default returns the process-wide generator used by New and Sized.
func Default() *Generator {
	defaultOnce.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// New returns a DefaultLength nonce from the default generator.
func New() (Token, error) {
	return Default().New()
}

// Sized returns a nonce of the given length from the default generator.
func Sized(length int) (Token, error) {
	return Default().Generate(length)
}
