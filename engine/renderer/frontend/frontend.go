// Package frontend walks a frame snapshot against the loaded render path and
// emits the stateless command stream. Pure CPU-side data transformation: no
// GPU calls happen here, so it is safe to run on a worker goroutine while a
// previous frame is being dispatched.
package frontend

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/command"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/path"
)

// MissingAssetPolicy decides what happens to a frame object whose mesh or
// material handle the asset collaborator cannot resolve.
type MissingAssetPolicy uint8

const (
	// PolicySkip drops the object from the command stream and counts a
	// recoverable diagnostic.
	PolicySkip MissingAssetPolicy = iota
	// PolicyFallback keeps the object, substituting the builtin fallback
	// material and its pipeline key.
	PolicyFallback
)

// ParseMissingAssetPolicy maps the configuration string to a policy.
func ParseMissingAssetPolicy(s string) (MissingAssetPolicy, error) {
	switch s {
	case "", "skip":
		return PolicySkip, nil
	case "fallback":
		return PolicyFallback, nil
	}
	return PolicySkip, fmt.Errorf("unknown on_missing_asset policy %q", s)
}

// FallbackMaterial is substituted for unresolvable materials under
// PolicyFallback. Magenta, the traditional "you are looking at a bug" colour.
var FallbackMaterial = metadata.MaterialData{
	Name:          "Builtin.MaterialFallback",
	Shader:        "Builtin.ShaderFallback",
	Blend:         metadata.BlendModeOpaque,
	CullMode:      metadata.FaceCullModeBack,
	DiffuseColour: math.NewVec4(1, 0, 1, 1),
}

// PostProcessShader is the default full-screen program when a PostProcess
// stage names none.
const PostProcessShader = "Builtin.ShaderPostProcess"

type Config struct {
	Resolver       metadata.AssetResolver
	OnMissingAsset MissingAssetPolicy
}

type Frontend struct {
	resolver metadata.AssetResolver
	policy   MissingAssetPolicy
	skipped  uint64
}

func New(cfg Config) (*Frontend, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("frontend: asset resolver is required")
	}
	return &Frontend{
		resolver: cfg.Resolver,
		policy:   cfg.OnMissingAsset,
	}, nil
}

// Skipped returns how many objects have been dropped so far under PolicySkip.
func (f *Frontend) Skipped() uint64 {
	return f.skipped
}

// Process emits the command stream for one frame into buf. The frame and
// render path are borrowed read-only; the output is deterministic for a
// given input pair. The only error condition is a nil input; per-object
// asset failures are handled by the configured policy and never abort the
// frame.
func (f *Frontend) Process(frame *metadata.Frame, rp *path.RenderPath, buf *command.Buffer) error {
	if frame == nil || rp == nil {
		return fmt.Errorf("frontend: frame and render path must be non-nil")
	}
	buf.Reset()

	for li := range rp.Layers {
		layer := &rp.Layers[li]
		for si := range layer.Stages {
			stage := &layer.Stages[si]
			buf.BeginStage(layer.Name, stage.Kind)

			switch stage.Kind {
			case metadata.StageClear:
				buf.Push(command.Command{Op: command.OpClear, Colour: stage.ClearColour})

			case metadata.StageDrawOpaque:
				f.emitLights(frame, buf)
				f.emitObjects(frame, buf, false)

			case metadata.StageDrawTransparent:
				f.emitLights(frame, buf)
				f.emitObjects(frame, buf, true)

			case metadata.StagePostProcess:
				f.emitPostProcess(stage, buf)
			}
		}
	}
	return nil
}

// maxLightsPerStage matches the smallest per-stage light capacity across the
// backends; lights beyond it never reach the command stream.
const maxLightsPerStage = 8

// emitLights pushes one BindLight per frame light at the head of a draw
// stage. The sorter treats them as stage-prefix state, like Clear.
func (f *Frontend) emitLights(frame *metadata.Frame, buf *command.Buffer) {
	count := math.Min(len(frame.Lights), maxLightsPerStage)
	if count < len(frame.Lights) {
		core.LogWarn("frame carries %d lights, binding the first %d", len(frame.Lights), count)
	}
	for _, light := range frame.Lights[:count] {
		buf.Push(command.Command{Op: command.OpBindLight, Light: light})
	}
}

// emitObjects routes the frame objects that belong to the stage: visibility
// plus the transparency flag decide membership.
func (f *Frontend) emitObjects(frame *metadata.Frame, buf *command.Buffer, transparent bool) {
	for i := range frame.Objects {
		obj := &frame.Objects[i]
		if !obj.Visible || obj.Transparent != transparent {
			continue
		}

		material, ok := f.resolveMaterial(obj)
		if !ok {
			continue
		}
		if _, ok := f.resolver.ResolveMesh(obj.Mesh); !ok {
			material, ok = f.applyPolicy(&core.MissingAssetError{Kind: "mesh", Handle: uint32(obj.Mesh)}, material)
			if !ok {
				continue
			}
		}

		buf.Push(command.Command{
			Op:        command.OpDraw,
			Key:       pipelineKey(material, transparent),
			Mesh:      obj.Mesh,
			Material:  obj.Material,
			Transform: obj.Transform,
			Depth:     frame.CameraPosition.Distance(obj.Transform.Translation()),
		})
	}
}

func (f *Frontend) resolveMaterial(obj *metadata.RenderObject) (*metadata.MaterialData, bool) {
	material, ok := f.resolver.ResolveMaterial(obj.Material)
	if ok {
		return material, true
	}
	return f.applyPolicy(&core.MissingAssetError{Kind: "material", Handle: uint32(obj.Material)}, nil)
}

// applyPolicy resolves a missing-asset diagnostic into either a skip or the
// fallback material.
func (f *Frontend) applyPolicy(missing *core.MissingAssetError, current *metadata.MaterialData) (*metadata.MaterialData, bool) {
	if f.policy == PolicyFallback {
		core.LogDebug("frontend: %s, substituting fallback material", missing.Error())
		return &FallbackMaterial, true
	}
	f.skipped++
	core.LogDebug("frontend: %s, object skipped", missing.Error())
	return current, false
}

func (f *Frontend) emitPostProcess(stage *path.Stage, buf *command.Buffer) {
	shader := stage.Shader
	if shader == "" {
		shader = PostProcessShader
	}
	buf.Push(command.Command{Op: command.OpBindTarget, Target: metadata.TargetDefault})
	buf.Push(command.Command{
		Op:   command.OpDraw,
		Mesh: metadata.MeshFullscreen,
		Key: metadata.PipelineKey{
			Shader:   shader,
			Blend:    metadata.BlendModeOpaque,
			CullMode: metadata.FaceCullModeNone,
		},
		Transform: math.NewMat4Identity(),
	})
}

// pipelineKey derives the state fingerprint of one draw from the material
// crossed with the stage's fixed state. Opaque stages force blending off and
// depth writes on; transparent stages enable blending and disable depth
// writes so that behind-geometry stays visible through the blend.
func pipelineKey(material *metadata.MaterialData, transparent bool) metadata.PipelineKey {
	key := metadata.PipelineKey{
		Shader:     material.Shader,
		CullMode:   material.CullMode,
		DiffuseMap: material.DiffuseMap,
		DepthTest:  true,
	}
	if transparent {
		key.Blend = material.Blend
		if key.Blend == metadata.BlendModeOpaque {
			key.Blend = metadata.BlendModeAlpha
		}
		key.DepthWrite = false
	} else {
		key.Blend = metadata.BlendModeOpaque
		key.DepthWrite = true
	}
	return key
}
