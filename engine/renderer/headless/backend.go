// Package headless provides a no-op backend that records every capability
// call instead of touching a GPU. It backs unit tests, CI and server-side
// (windowless) use of the renderer.
package headless

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Record is one captured capability call.
type Record struct {
	Kind   string // "clear", "draw", "bind-pipeline", "bind-target", "bind-light", "barrier"
	Key    metadata.PipelineKey
	Handle renderer.PipelineHandle
	Call   renderer.DrawCall
	Colour math.Vec4
	Target metadata.TargetHandle
	Light  metadata.Light
}

type Backend struct {
	state    renderer.BackendState
	resolver metadata.AssetResolver

	nextHandle renderer.PipelineHandle
	keys       map[renderer.PipelineHandle]metadata.PipelineKey
	builds     map[metadata.PipelineKey]int

	records []Record

	// loseDevice, when set, makes the next capability call fail with a
	// device-lost error. Test hook.
	loseDevice bool
	// unsupported shader names rejected at pipeline build time. Test hook.
	unsupported map[string]bool
}

var _ renderer.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		keys:        make(map[renderer.PipelineHandle]metadata.PipelineKey),
		builds:      make(map[metadata.PipelineKey]int),
		unsupported: make(map[string]bool),
	}
}

func (b *Backend) Initialize(appName string, width, height uint32, resolver metadata.AssetResolver) error {
	b.resolver = resolver
	b.state = renderer.StateReady
	b.loseDevice = false
	core.LogInfo("headless backend initialized for %q (%dx%d)", appName, width, height)
	return nil
}

func (b *Backend) Shutdown() error {
	b.state = renderer.StateUninitialized
	return nil
}

func (b *Backend) Resized(width, height uint16) error { return nil }

func (b *Backend) State() renderer.BackendState { return b.state }

func (b *Backend) BeginFrame(deltaTime float64) error { return b.check() }

func (b *Backend) EndFrame(deltaTime float64) error { return b.check() }

func (b *Backend) BuildPipeline(key metadata.PipelineKey) (renderer.PipelineHandle, error) {
	if err := b.check(); err != nil {
		return 0, err
	}
	if b.unsupported[key.Shader] {
		return 0, &core.UnsupportedFeatureError{Backend: "headless", Feature: fmt.Sprintf("shader %q", key.Shader)}
	}
	b.nextHandle++
	b.keys[b.nextHandle] = key
	b.builds[key]++
	return b.nextHandle, nil
}

func (b *Backend) DestroyPipeline(handle renderer.PipelineHandle) {
	delete(b.keys, handle)
}

func (b *Backend) BindPipeline(handle renderer.PipelineHandle) error {
	if err := b.check(); err != nil {
		return err
	}
	b.records = append(b.records, Record{Kind: "bind-pipeline", Handle: handle, Key: b.keys[handle]})
	return nil
}

func (b *Backend) BindTarget(target metadata.TargetHandle) error {
	if err := b.check(); err != nil {
		return err
	}
	b.records = append(b.records, Record{Kind: "bind-target", Target: target})
	return nil
}

func (b *Backend) BindLight(light metadata.Light) error {
	if err := b.check(); err != nil {
		return err
	}
	b.records = append(b.records, Record{Kind: "bind-light", Light: light})
	return nil
}

func (b *Backend) Clear(colour math.Vec4) error {
	if err := b.check(); err != nil {
		return err
	}
	b.records = append(b.records, Record{Kind: "clear", Colour: colour})
	return nil
}

func (b *Backend) Barrier() error {
	if err := b.check(); err != nil {
		return err
	}
	b.records = append(b.records, Record{Kind: "barrier"})
	return nil
}

func (b *Backend) Draw(call renderer.DrawCall) error {
	if err := b.check(); err != nil {
		return err
	}
	b.records = append(b.records, Record{Kind: "draw", Call: call})
	return nil
}

func (b *Backend) check() error {
	if b.loseDevice {
		b.state = renderer.StateLost
		return &core.DeviceLostError{Backend: "headless", Err: fmt.Errorf("injected device loss")}
	}
	if b.state != renderer.StateReady {
		return core.ErrBackendNotReady
	}
	return nil
}

// Records returns every capability call captured since the last ResetRecords.
func (b *Backend) Records() []Record {
	return b.records
}

// ResetRecords drops captured calls without touching pipeline bookkeeping.
func (b *Backend) ResetRecords() {
	b.records = b.records[:0]
}

// BuildCount reports how many times a pipeline was built for key.
func (b *Backend) BuildCount(key metadata.PipelineKey) int {
	return b.builds[key]
}

// InjectDeviceLoss makes the next capability call fail with a device-lost
// error and moves the backend to StateLost.
func (b *Backend) InjectDeviceLoss() {
	b.loseDevice = true
}

// MarkUnsupported makes pipeline builds for the named shader fail with an
// unsupported-feature error.
func (b *Backend) MarkUnsupported(shader string) {
	b.unsupported[shader] = true
}
