package storage

import (
	"context"
	"time"
)

// KVEngine is the embedded key-value store interface.
// Implementations must be safe for concurrent use.
type KVEngine interface {
	// Get returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	Set(ctx context.Context, key, value []byte) error

	Delete(ctx context.Context, key []byte) error

	// Update runs fn inside one read-write transaction. fn receives the
	// current value (found=false if absent) and returns the value to store;
	// returning nil leaves the key unchanged.
	Update(ctx context.Context, key []byte, fn func(old []byte, found bool) ([]byte, error)) error

	// GC reclaims value-log space and returns the number of rewritten files.
	GC(ctx context.Context) (int, error)

	Stats(ctx context.Context) (*KVStats, error)

	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalSize is LSMSize + ValueLogSize.
	TotalSize    uint64
	LSMSize      uint64
	ValueLogSize uint64

	// LastGCTime is the last completed GC run (Unix milliseconds).
	LastGCTime int64
	// GCRewrites counts value-log files rewritten by GC.
	GCRewrites uint64
}

// KVConfig configures the embedded engine.
type KVConfig struct {
	// Dir is the storage directory.
	Dir string

	Badger BadgerConfig
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs.
	GCInterval time.Duration

	// GCThreshold is the discard ratio (0.0-1.0) passed to RunValueLogGC.
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	ValueLogFileSize int64

	NumMemtables            int
	NumLevelZeroTables      int
	NumLevelZeroTablesStall int

	// SyncWrites fsyncs after each write. The checkpoint is only useful if it
	// survives a crash, so this defaults to true.
	SyncWrites bool
}

// DefaultKVConfig returns the default configuration for dir.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns defaults sized for a store holding a handful
// of small keys.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:              10 * time.Minute,
		GCThreshold:             0.5,
		CacheSize:               8 << 20,  // 8MB
		ValueLogFileSize:        64 << 20, // 64MB
		NumMemtables:            2,
		NumLevelZeroTables:      5,
		NumLevelZeroTablesStall: 10,
		SyncWrites:              true,
	}
}
