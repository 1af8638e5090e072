package renderer

import (
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// PipelineHandle identifies a backend-resident pipeline state object. Handles
// are only meaningful to the backend that issued them.
type PipelineHandle uint32

// DrawCall carries the dynamic per-draw state of one draw command: the
// geometry, the material uniforms and the object transform. The static state
// lives in the pipeline object bound beforehand.
type DrawCall struct {
	Mesh      metadata.MeshHandle
	Material  metadata.MaterialHandle
	Transform math.Mat4
}

// BackendState is the lifecycle of a backend instance.
type BackendState uint8

const (
	// StateUninitialized is the zero state before Initialize succeeds.
	StateUninitialized BackendState = iota
	// StateReady accepts frames.
	StateReady
	// StateLost is entered on an unrecoverable device error and is terminal
	// until an explicit Initialize call reinitializes the device.
	StateLost
)

func (s BackendState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateLost:
		return "Lost"
	}
	return "Unknown"
}

// Backend is the closed capability set a graphics API implementation
// provides. Only a small, known set of backends exists (OpenGL, Vulkan,
// headless), so a plain interface with compile-time implementations is used
// rather than any open plugin registry.
//
// Every method must be called from the single render thread. Errors that
// wrap *core.DeviceLostError move the backend to StateLost; all other errors
// are frame-local.
type Backend interface {
	// Initialize creates device resources. Calling it on a Lost backend
	// performs the explicit reinitialization that leaves StateLost.
	Initialize(appName string, width, height uint32, resolver metadata.AssetResolver) error
	Shutdown() error
	Resized(width, height uint16) error
	State() BackendState

	BeginFrame(deltaTime float64) error
	// EndFrame presents the finished frame to the surface collaborator.
	EndFrame(deltaTime float64) error

	// BuildPipeline creates the pipeline state object for a key. Called at
	// most once per distinct key per device generation; the dispatcher
	// caches the result. Returns *core.UnsupportedFeatureError when the key
	// requests a capability this backend lacks.
	BuildPipeline(key metadata.PipelineKey) (PipelineHandle, error)
	DestroyPipeline(handle PipelineHandle)
	BindPipeline(handle PipelineHandle) error

	BindTarget(target metadata.TargetHandle) error
	BindLight(light metadata.Light) error
	Clear(colour math.Vec4) error
	Barrier() error
	Draw(call DrawCall) error
}
