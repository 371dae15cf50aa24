package vango

import "testing"

func TestEffectRunsImmediatelyOutsideRender(t *testing.T) {
	runs := 0
	CreateEffect(func() Cleanup {
		runs++
		return nil
	})
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestEffectDeferredUntilAfterRender(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	runs := 0
	WithOwner(owner, func() {
		owner.StartRender()
		CreateEffect(func() Cleanup {
			runs++
			return nil
		})
		owner.EndRender()
	})

	if runs != 0 {
		t.Fatalf("effect ran during render, runs=%d", runs)
	}
	if !owner.HasPendingEffects() {
		t.Fatal("owner should report pending effects")
	}

	owner.RunPendingEffects()
	if runs != 1 {
		t.Fatalf("expected 1 effect run after commit, got %d", runs)
	}
	if owner.HasPendingEffects() {
		t.Error("no effects should be pending after run")
	}
}

func TestEffectRerunsOnDependencyChangeWithCleanup(t *testing.T) {
	owner := NewOwner(nil)
	count := NewSignal(0)

	var seen []int
	cleanups := 0
	WithOwner(owner, func() {
		CreateEffect(func() Cleanup {
			seen = append(seen, count.Get())
			return func() { cleanups++ }
		})
	})

	count.Set(1)
	owner.RunPendingEffects()

	if len(seen) != 2 || seen[1] != 1 {
		t.Fatalf("seen = %v, want [0 1]", seen)
	}
	if cleanups != 1 {
		t.Errorf("cleanups before rerun = %d, want 1", cleanups)
	}

	owner.Dispose()
	if cleanups != 2 {
		t.Errorf("cleanups after dispose = %d, want 2", cleanups)
	}

	count.Set(2)
	owner.RunPendingEffects()
	if len(seen) != 2 {
		t.Error("disposed effect must not rerun")
	}
}

func TestEffectHookKeepsIdentityAndLatestClosure(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	trigger := NewSignal(0)
	var got []string
	render := func(label string) *Effect {
		var e *Effect
		WithOwner(owner, func() {
			owner.StartRender()
			e = CreateEffect(func() Cleanup {
				_ = trigger.Get()
				got = append(got, label)
				return nil
			})
			owner.EndRender()
		})
		return e
	}

	e1 := render("first")
	owner.RunPendingEffects()
	e2 := render("second")
	owner.RunPendingEffects()

	if e1 != e2 {
		t.Fatal("effect did not persist across renders")
	}
	if len(got) != 1 {
		t.Fatalf("re-render alone should not rerun effect, got %v", got)
	}

	trigger.Set(1)
	owner.RunPendingEffects()
	if len(got) != 2 || got[1] != "second" {
		t.Errorf("rerun should use latest closure, got %v", got)
	}
}

func TestOnMountRunsOnceAndOnUnmountOnDispose(t *testing.T) {
	owner := NewOwner(nil)
	mounts, unmounts := 0, 0
	lastUnmount := ""

	render := func(label string) {
		WithOwner(owner, func() {
			owner.StartRender()
			OnMount(func() { mounts++ })
			OnUnmount(func() {
				unmounts++
				lastUnmount = label
			})
			owner.EndRender()
		})
		owner.RunPendingEffects()
	}

	render("a")
	render("b")
	render("c")

	if mounts != 1 {
		t.Errorf("mounts = %d, want 1", mounts)
	}
	if unmounts != 0 {
		t.Errorf("unmount ran before dispose")
	}

	owner.Dispose()
	if unmounts != 1 {
		t.Errorf("unmounts = %d, want 1", unmounts)
	}
	if lastUnmount != "c" {
		t.Errorf("unmount used stale closure %q", lastUnmount)
	}
}
