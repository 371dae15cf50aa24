package vango

import "github.com/samber/lo"

// DebugMode turns on hook order validation. Set it at startup.
var DebugMode bool

// Batch defers notifications caused by fn until fn returns. A listener
// that depends on several signals written inside fn is notified once.
// Batches nest; only the outermost one flushes.
//
// Example:
//
//	Batch(func() {
//	    loading.Set(false)
//	    Inc(revision)
//	})
func Batch(fn func()) {
	incrementBatchDepth()
	defer func() {
		if decrementBatchDepth() {
			notifyPending()
		}
	}()
	fn()
}

// notifyPending marks every queued listener dirty once.
func notifyPending() {
	pending := lo.UniqBy(drainPendingUpdates(), Listener.ID)
	for _, l := range pending {
		l.MarkDirty()
	}
}

// Untracked runs fn without subscribing the current listener to the
// signals fn reads. Use Peek for a single read.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}
