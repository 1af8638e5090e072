package engine

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Game is the host-side contract. The engine drives the callbacks; the game
// owns its own state and hands the engine one frame snapshot per tick.
type Game struct {
	ApplicationConfig *ApplicationConfig
	// Resolver maps the handles inside frame snapshots to asset data.
	Resolver metadata.AssetResolver
	State    interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render builds the immutable frame snapshot the renderer consumes. The
// engine never mutates the returned frame.
type Render func(deltaTime float64) (*metadata.Frame, error)
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
