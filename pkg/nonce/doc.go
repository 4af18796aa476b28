// Package nonce provides text-safe, time-prefixed nonce generation.
//
// A nonce is a value intended to be used at most once. Each nonce produced by
// this package is suitable as a session identifier or single-use credential:
//
//   - The first 16 characters encode a monotonically increasing instant, so no
//     two nonces issued by the same Generator are ever equal.
//   - The remaining characters are drawn from crypto/rand, so the nonce cannot
//     be predicted by an outside observer.
//   - Every character belongs to a fixed 64-symbol, URL- and filename-safe
//     alphabet. No padding is emitted.
//
// Format:
//
//   - Time segment: 12 raw bytes, seconds (8 bytes) then nanoseconds
//     (4 bytes), both big-endian, rendered as exactly 16 characters
//   - Random segment: (length-16)*3/4 random bytes rendered with the same
//     alphabet
//   - Total: length characters, length >= 16 and length % 4 == 0
//
// Alphabet:
//
//	-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz
//
// The symbols are listed in ascending ASCII order, which makes the text order
// of an encoded value equal to the byte order of the raw value. Nonces
// therefore sort chronologically by their first 16 characters. Changing the
// alphabet or byte order is a format-breaking change.
//
// Uniqueness holds for the lifetime of the Guard that issued the instants.
// Two processes, or one process restarted after a clock rollback, may share a
// time prefix; the random suffix makes a full collision negligible.
//
// Usage:
//
//	g := nonce.NewGenerator()
//	tok, err := g.Generate(32)
//	sessionID := tok.String()
package nonce
