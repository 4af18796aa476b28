// Package cmap provides a sharded concurrent map.
//
// Keys hash to one of a power-of-two number of shards, each guarded by its
// own RWMutex, so unrelated keys rarely contend. The servers use it to hold
// per-client rate limiters.
//
//	m := cmap.New[string, *bucket]()
//	b, loaded := m.GetOrSet(ip, newBucket())
//	m.DeleteIf(func(_ string, b *bucket) bool { return b.idle() })
package cmap
