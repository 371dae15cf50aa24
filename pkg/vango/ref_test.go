package vango

import "testing"

func TestRefMethods(t *testing.T) {
	r := NewRef("init")
	if r.Current() != "init" || r.IsSet() {
		t.Fatal("unexpected initial state")
	}
	r.Set("x")
	if r.Current() != "x" || !r.IsSet() {
		t.Error("Set did not update ref")
	}
	r.Clear()
	if r.Current() != "" || r.IsSet() {
		t.Error("Clear did not reset ref")
	}
}

func TestRefSurvivesRerenderButNotNewOwner(t *testing.T) {
	owner := NewOwner(nil)
	var first, second *Ref[int]

	WithOwner(owner, func() {
		owner.StartRender()
		first = NewRef(0)
		owner.EndRender()
		first.Set(7)

		owner.StartRender()
		second = NewRef(0)
		owner.EndRender()
	})

	if first != second || second.Current() != 7 {
		t.Fatal("ref did not persist across renders")
	}

	// A remount gets a fresh owner and therefore a fresh ref.
	owner.Dispose()
	remount := NewOwner(nil)
	var third *Ref[int]
	WithOwner(remount, func() {
		remount.StartRender()
		third = NewRef(0)
		remount.EndRender()
	})
	if third == first || third.IsSet() {
		t.Error("remount should create a fresh ref")
	}
}
