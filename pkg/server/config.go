package server

import (
	"context"
	"log/slog"

	"github.com/saascannon/saascannon-vango/pkg/render"
)

// DebugMode enables verbose render-loop logging.
var DebugMode bool

// SessionConfig holds configuration for individual sessions.
type SessionConfig struct {
	// Logger receives session logs. Default: slog.Default().
	Logger *slog.Logger

	// StdContext is the parent of the session context handed to
	// components through Ctx.StdContext. Default: context.Background().
	StdContext context.Context

	// DispatchBuffer is the size of the Dispatch queue. Callbacks beyond
	// it are dropped and logged. Default: 256.
	DispatchBuffer int

	// MaxRenderPasses bounds how many render/effect passes one flush may
	// take before the session gives up on settling. Default: 100.
	MaxRenderPasses int

	// Renderer configures HTML output.
	Renderer render.RendererConfig

	// Title is the document title of full-page renders.
	Title string

	// Metrics records session activity. Optional.
	Metrics *Metrics
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		Logger:          slog.Default(),
		StdContext:      context.Background(),
		DispatchBuffer:  256,
		MaxRenderPasses: 100,
	}
}

// Clone returns a copy of the SessionConfig.
func (c *SessionConfig) Clone() *SessionConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults returns a copy of c with zero fields defaulted.
func (c *SessionConfig) withDefaults() *SessionConfig {
	def := DefaultSessionConfig()
	if c == nil {
		return def
	}
	out := c.Clone()
	if out.Logger == nil {
		out.Logger = def.Logger
	}
	if out.StdContext == nil {
		out.StdContext = def.StdContext
	}
	if out.DispatchBuffer <= 0 {
		out.DispatchBuffer = def.DispatchBuffer
	}
	if out.MaxRenderPasses <= 0 {
		out.MaxRenderPasses = def.MaxRenderPasses
	}
	return out
}
