package server

import (
	"context"
	"log/slog"

	"github.com/saascannon/saascannon-vango/pkg/vango"
)

// Ctx is the runtime context handed to components. See vango.Ctx.
type Ctx = vango.Ctx

// sessionCtx is the Ctx of one session. It is installed during render,
// effects and dispatched callbacks.
type sessionCtx struct {
	session *Session
}

var _ vango.Ctx = (*sessionCtx)(nil)

func (c *sessionCtx) Dispatch(fn func()) {
	c.session.Dispatch(fn)
}

func (c *sessionCtx) StdContext() context.Context {
	return c.session.stdCtx
}

func (c *sessionCtx) Navigate(url string) {
	c.session.Navigate(url)
}

func (c *sessionCtx) Logger() *slog.Logger {
	return c.session.logger
}

// SessionFromCtx returns the session of a Ctx created by this package, or nil.
func SessionFromCtx(c Ctx) *Session {
	if sc, ok := c.(*sessionCtx); ok {
		return sc.session
	}
	return nil
}
