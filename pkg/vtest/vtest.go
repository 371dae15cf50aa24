package vtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/saascannon/saascannon-vango/pkg/render"
	"github.com/saascannon/saascannon-vango/pkg/server"
	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

// DefaultTimeout bounds WaitFor.
var DefaultTimeout = 2 * time.Second

// Harness is a mounted component under test. It drives the session loop
// from the test goroutine, so nothing renders until Flush (or a helper
// that flushes) is called.
type Harness struct {
	t       testing.TB
	Session *server.Session
}

// Mount mounts root in a fresh session and closes it when the test ends.
//
// Example:
//
//	h := vtest.Mount(t, Counter(0))
//	h.ExpectContains("Count: 0")
//	h.Click("h1")
//	h.ExpectContains("Count: 1")
func Mount(t testing.TB, root vdom.Component) *Harness {
	t.Helper()
	return MountWithConfig(t, root, nil)
}

// MountWithConfig is Mount with an explicit session configuration.
func MountWithConfig(t testing.TB, root vdom.Component, config *server.SessionConfig) *Harness {
	t.Helper()
	s := server.NewSession(root, config)
	t.Cleanup(s.Close)
	if err := s.Mount(); err != nil {
		t.Fatalf("mount: %v", err)
	}
	return &Harness{t: t, Session: s}
}

// HTML returns the body HTML of the last render.
func (h *Harness) HTML() string {
	return h.Session.HTML()
}

// Flush settles queued work and re-renders.
func (h *Harness) Flush() {
	h.t.Helper()
	if err := h.Session.Flush(); err != nil {
		h.t.Fatalf("flush: %v", err)
	}
}

// Act runs fn on the session loop and flushes.
func (h *Harness) Act(fn func()) {
	h.t.Helper()
	h.Session.Dispatch(fn)
	h.Flush()
}

// Click fires a click on the element with the given hydration ID.
func (h *Harness) Click(hid string) {
	h.t.Helper()
	if err := h.Session.HandleEvent(hid, "click"); err != nil {
		h.t.Fatalf("click %s: %v", hid, err)
	}
	h.Flush()
}

// WaitFor flushes until cond holds, failing the test after DefaultTimeout.
// Use it when the component hands work to another goroutine that reports
// back through Dispatch.
func (h *Harness) WaitFor(cond func() bool) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		h.Flush()
		if cond() {
			return
		}
		select {
		case <-ctx.Done():
			h.t.Fatalf("condition not met within %v, html:\n%s", DefaultTimeout, truncate(h.HTML(), 500))
		case <-ticker.C:
		}
	}
}

// WaitForHTML waits until the rendered HTML contains expected.
func (h *Harness) WaitForHTML(expected string) {
	h.t.Helper()
	h.WaitFor(func() bool { return strings.Contains(h.HTML(), expected) })
}

// ExpectContains asserts that the current HTML contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.t.Helper()
	expectContains(h.t, h.HTML(), expected)
}

// ExpectNotContains asserts that the current HTML does not contain unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.t.Helper()
	expectNotContains(h.t, h.HTML(), unexpected)
}

// Unmount closes the session, running every unmount cleanup.
func (h *Harness) Unmount() {
	h.Session.Close()
}

// RenderToString renders a VNode and returns the HTML string.
// Component nodes are rendered statelessly.
//
// Example:
//
//	html := vtest.RenderToString(Nav(user))
func RenderToString(node *vdom.VNode) string {
	r := render.NewRenderer(render.RendererConfig{})
	html, err := r.RenderToString(node)
	if err != nil {
		return ""
	}
	return html
}

// ExpectContains asserts that rendered output contains expected substring.
//
// Example:
//
//	vtest.ExpectContains(t, Nav(user), "Log out")
func ExpectContains(t testing.TB, node *vdom.VNode, expected string) {
	t.Helper()
	expectContains(t, RenderToString(node), expected)
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t testing.TB, node *vdom.VNode, unexpected string) {
	t.Helper()
	expectNotContains(t, RenderToString(node), unexpected)
}

// ExpectAttribute asserts that rendered output contains an attribute value.
//
// Example:
//
//	vtest.ExpectAttribute(t, Nav(nil), "aria-busy", "true")
func ExpectAttribute(t testing.TB, node *vdom.VNode, attr, value string) {
	t.Helper()
	html := RenderToString(node)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

func expectContains(t testing.TB, html, expected string) {
	t.Helper()
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

func expectNotContains(t testing.TB, html, unexpected string) {
	t.Helper()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
