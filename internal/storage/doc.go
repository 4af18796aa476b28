// Package storage provides the embedded Badger store used to persist the
// clock guard's high-water mark across restarts.
//
//   - kv.go: the KVEngine interface and Badger tuning options
//   - badger.go: the Badger v3 implementation with background value-log GC
//   - checkpoint.go: CheckpointStore, a monotonic mark on top of a KVEngine
package storage
