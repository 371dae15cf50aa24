package vango

// Listener is notified when a signal it read changes. Component
// instances re-render and effects re-run.
type Listener interface {
	MarkDirty()

	// ID identifies the listener when notifications are deduplicated.
	ID() uint64
}

// Cleanup undoes an effect. It runs before the effect runs again and
// when its owner is disposed.
type Cleanup func()
