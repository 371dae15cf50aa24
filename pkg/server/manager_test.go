package server

import (
	"errors"
	"testing"
	"time"
)

func TestManagerSweepClosesIdleSessions(t *testing.T) {
	now := time.Unix(1000, 0)
	m := NewManager()
	m.now = func() time.Time { return now }

	idle := NewSession(nil, nil)
	live := NewSession(nil, nil)
	m.Add(idle)
	m.Add(live)
	detach := m.Attach(live.ID)

	now = now.Add(time.Minute)
	if n := m.Sweep(30 * time.Second); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if !idle.IsClosed() {
		t.Error("idle session should be closed")
	}
	if _, err := m.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(idle) = %v, want ErrSessionNotFound", err)
	}

	detach()
	detach()
	now = now.Add(time.Minute)
	if n := m.Sweep(30 * time.Second); n != 1 {
		t.Fatalf("second Sweep() = %d, want 1", n)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestManagerRemoveAndCloseAll(t *testing.T) {
	m := NewManager()
	a, b := NewSession(nil, nil), NewSession(nil, nil)
	m.Add(a)
	m.Add(b)

	m.Remove(a.ID)
	if !a.IsClosed() || m.Len() != 1 {
		t.Fatal("Remove should close and forget the session")
	}

	m.CloseAll()
	if !b.IsClosed() || m.Len() != 0 {
		t.Error("CloseAll should close every session")
	}
}
