// Package vtest provides testing helpers for components.
//
// Mount runs a component in a real session whose loop is driven by the
// test, so renders, effects and dispatched callbacks happen only when the
// test flushes.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.Mount(t, Counter(0))
//	    h.ExpectContains("Count: 0")
//
//	    h.Click("h1")
//	    h.ExpectContains("Count: 1")
//	}
//
// # Asynchronous Work
//
// Components that start goroutines report back with Dispatch. WaitFor
// flushes until a condition holds:
//
//	h := vtest.Mount(t, app)
//	h.WaitForHTML("Signed in as ada")
//
// # Render Assertions
//
// Stateless trees can be asserted on directly:
//
//	vtest.ExpectContains(t, Nav(user), "Log out")
//	vtest.ExpectNotContains(t, Nav(nil), "Log out")
package vtest
