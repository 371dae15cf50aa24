package vango

import (
	"context"
	"log/slog"
)

// Ctx is the session runtime seen by renders, effects and dispatched
// callbacks. Obtain it with UseCtx.
type Ctx interface {
	// Dispatch runs fn on the session loop. It is safe from any goroutine
	// and is how background work hands results back to components:
	//
	//	go func() {
	//	    products, err := client.Products(ctx.StdContext())
	//	    ctx.Dispatch(func() { list.Set(products) })
	//	}()
	Dispatch(fn func())

	// StdContext is cancelled when the session closes.
	StdContext() context.Context

	// Navigate sends the browser to url.
	Navigate(url string)

	Logger() *slog.Logger
}

// UseCtx returns the runtime of the current render, effect or
// dispatched callback, or nil outside of one.
func UseCtx() Ctx {
	c, _ := getCurrentCtx().(Ctx)
	return c
}

// SetContext stores value under key on the current owner, where
// descendants find it with GetContext.
func SetContext(key, value any) {
	if owner := getCurrentOwner(); owner != nil {
		owner.SetValue(key, value)
	}
}

// GetContext returns the nearest value stored under key, or nil.
func GetContext(key any) any {
	if owner := getCurrentOwner(); owner != nil {
		return owner.GetValue(key)
	}
	return nil
}

// CurrentOwner returns the owner of the rendering component, or nil.
func CurrentOwner() *Owner { return getCurrentOwner() }
