package nonce

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Alphabet is the 64-symbol output alphabet, in ascending ASCII order.
const Alphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// Length constraints.
const (
	// TimeSegmentLength is the number of characters encoding the instant.
	TimeSegmentLength = 16

	// MinLength is the shortest valid nonce.
	MinLength = TimeSegmentLength

	// DefaultLength is the nonce length used by New.
	DefaultLength = 32

	// lengthQuantum is the character group size; every 4 characters carry 3 bytes.
	lengthQuantum = 4
)

// ErrInvalidLength is returned for lengths below MinLength or not divisible by 4.
var ErrInvalidLength = errors.New("nonce: invalid length")

// Encoding renders bytes with Alphabet and no padding.
var Encoding = base64.NewEncoding(Alphabet).WithPadding(base64.NoPadding)

// ValidateLength checks that length is at least MinLength and a multiple of 4.
func ValidateLength(length int) error {
	if length < MinLength {
		return fmt.Errorf("%w: %d is below minimum %d", ErrInvalidLength, length, MinLength)
	}
	if length%lengthQuantum != 0 {
		return fmt.Errorf("%w: %d is not divisible by %d", ErrInvalidLength, length, lengthQuantum)
	}
	return nil
}

// RandomBytes returns the number of random bytes carried by a nonce of the
// given valid length.
func RandomBytes(length int) int {
	return (length - TimeSegmentLength) / lengthQuantum * 3
}

// EncodeBytes renders b with Alphabet. It is a pure function of b.
func EncodeBytes(b []byte) string {
	return Encoding.EncodeToString(b)
}

// EncodeInstant renders i as the 16-character time segment. For instants
// a < b, EncodeInstant(a) < EncodeInstant(b).
func EncodeInstant(i Instant) string {
	var buf [InstantSize]byte
	return Encoding.EncodeToString(i.AppendBinary(buf[:0]))
}

// Encode builds a nonce of the given length from i followed by bytes read
// from random.
func Encode(i Instant, random io.Reader, length int) (Token, error) {
	return encode(Encoding, i, random, length)
}

func encode(enc *base64.Encoding, i Instant, random io.Reader, length int) (Token, error) {
	if err := ValidateLength(length); err != nil {
		return "", err
	}

	raw := make([]byte, InstantSize, InstantSize+RandomBytes(length))
	i.AppendBinary(raw[:0])

	if n := RandomBytes(length); n > 0 {
		raw = raw[:InstantSize+n]
		if _, err := io.ReadFull(random, raw[InstantSize:]); err != nil {
			return "", fmt.Errorf("nonce: read random bytes: %w", err)
		}
	}

	out := make([]byte, enc.EncodedLen(len(raw)))
	enc.Encode(out, raw)
	return Token(out), nil
}
