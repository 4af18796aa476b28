package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// BatchIDPrefix is the prefix for batch IDs.
const BatchIDPrefix = "tnbt-"

// batchIDLength is len(BatchIDPrefix) + 26 ULID characters.
const batchIDLength = len(BatchIDPrefix) + ulid.EncodedSize

// Batch is one issue request's worth of nonces.
type Batch struct {
	ID       string    `json:"batch_id"`
	Length   int       `json:"length"`
	Nonces   []string  `json:"nonces"`
	IssuedAt time.Time `json:"issued_at"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewBatchID generates a batch ID: tnbt-{ulid lowercase}.
// IDs generated by one process sort in creation order.
func NewBatchID() (string, error) {
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	if err != nil {
		return "", err
	}
	return BatchIDPrefix + strings.ToLower(id.String()), nil
}

// ValidateBatchID reports whether id is a well-formed batch ID.
func ValidateBatchID(id string) bool {
	if len(id) != batchIDLength || !strings.HasPrefix(id, BatchIDPrefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(BatchIDPrefix):]))
	return err == nil
}

// BatchTime returns the creation time encoded in a batch ID.
func BatchTime(id string) (time.Time, bool) {
	if !ValidateBatchID(id) {
		return time.Time{}, false
	}
	u := ulid.MustParse(strings.ToUpper(id[len(BatchIDPrefix):]))
	return ulid.Time(u.Time()), true
}
