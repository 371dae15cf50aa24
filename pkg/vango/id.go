package vango

import "sync/atomic"

var lastID atomic.Uint64

// nextID returns a process-wide unique, never reused ID for a signal,
// effect or owner.
func nextID() uint64 {
	return lastID.Add(1)
}
