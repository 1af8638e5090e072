package core

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendNotReady is returned when a frame is dispatched to a backend
	// that has not been initialized or has lost its device.
	ErrBackendNotReady = errors.New("backend not ready")
	// ErrPathNotLoaded is returned when drawing is attempted before a render
	// path has been loaded.
	ErrPathNotLoaded = errors.New("no render path loaded")
)

// ParseError reports an invalid render path description. Parse errors are
// recoverable: they are surfaced to the caller before startup completes and
// never abort the process from inside the renderer.
type ParseError struct {
	Layer  string
	Stage  int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("render path: %s", e.Reason)
	}
	if e.Stage < 0 {
		return fmt.Sprintf("render path: layer %q: %s", e.Layer, e.Reason)
	}
	return fmt.Sprintf("render path: layer %q, stage %d: %s", e.Layer, e.Stage, e.Reason)
}

// MissingAssetError reports a frame object whose mesh or material handle
// could not be resolved by the asset collaborator. Recoverable per object;
// the frontend applies the configured skip/fallback policy and the frame
// is never aborted because of it.
type MissingAssetError struct {
	Kind   string // "mesh" or "material"
	Handle uint32
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("unresolvable %s handle %d", e.Kind, e.Handle)
}

// DeviceLostError wraps an unrecoverable device condition reported by the
// graphics API. Fatal to the current frame and to all following ones until
// the backend is explicitly reinitialized.
type DeviceLostError struct {
	Backend string
	Err     error
}

func (e *DeviceLostError) Error() string {
	return fmt.Sprintf("%s: device lost: %v", e.Backend, e.Err)
}

func (e *DeviceLostError) Unwrap() error { return e.Err }

// UnsupportedFeatureError is reported at pipeline build time when a pipeline
// key requests a capability the active backend cannot provide.
type UnsupportedFeatureError struct {
	Backend string
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s: unsupported feature: %s", e.Backend, e.Feature)
}
