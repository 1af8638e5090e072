package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const maxLights = 8

// pushConstants is the per-draw dynamic state, laid out to match the
// builtin shaders' push constant block.
type pushConstants struct {
	Model         [16]float32
	DiffuseColour [4]float32
}

type Backend struct {
	state    renderer.BackendState
	ctx      *Context
	resolver metadata.AssetResolver

	nextHandle renderer.PipelineHandle
	pipelines  map[renderer.PipelineHandle]*Pipeline
	bound      *Pipeline

	geometry   map[metadata.MeshHandle]*vkGeometry
	fullscreen *vkGeometry

	lights     [maxLights]metadata.Light
	lightCount int
}

var _ renderer.Backend = (*Backend)(nil)

// New wraps a host-supplied device context. The host owns instance, device,
// swapchain and render pass lifetime; see Context.
func New(ctx *Context) *Backend {
	return &Backend{
		ctx:       ctx,
		pipelines: make(map[renderer.PipelineHandle]*Pipeline),
		geometry:  make(map[metadata.MeshHandle]*vkGeometry),
	}
}

func (b *Backend) Initialize(appName string, width, height uint32, resolver metadata.AssetResolver) error {
	if b.ctx == nil || b.ctx.Device == nil {
		return fmt.Errorf("vulkan: no device context supplied")
	}
	b.resolver = resolver
	b.ctx.FramebufferWidth = width
	b.ctx.FramebufferHeight = height

	fullscreen, err := uploadGeometry(b.ctx, fullscreenTriangle(), []uint32{0, 1, 2})
	if err != nil {
		return err
	}
	b.fullscreen = fullscreen

	b.state = renderer.StateReady
	core.LogInfo("vulkan backend initialized for %q (%dx%d)", appName, width, height)
	return nil
}

func (b *Backend) Shutdown() error {
	for _, p := range b.pipelines {
		p.Destroy(b.ctx)
	}
	b.pipelines = make(map[renderer.PipelineHandle]*Pipeline)
	for _, g := range b.geometry {
		g.destroy(b.ctx)
	}
	b.geometry = make(map[metadata.MeshHandle]*vkGeometry)
	if b.fullscreen != nil {
		b.fullscreen.destroy(b.ctx)
		b.fullscreen = nil
	}
	b.state = renderer.StateUninitialized
	return nil
}

func (b *Backend) Resized(width, height uint16) error {
	b.ctx.FramebufferWidth = uint32(width)
	b.ctx.FramebufferHeight = uint32(height)
	return nil
}

func (b *Backend) State() renderer.BackendState { return b.state }

// BeginFrame sets the dynamic viewport/scissor on the host's recording
// command buffer. Frame acquisition already happened on the host side.
func (b *Backend) BeginFrame(deltaTime float64) error {
	b.lightCount = 0
	b.bound = nil

	viewport := vk.Viewport{
		Y:        float32(b.ctx.FramebufferHeight),
		Width:    float32(b.ctx.FramebufferWidth),
		Height:   -float32(b.ctx.FramebufferHeight),
		MaxDepth: 1.0,
	}
	vk.CmdSetViewport(b.ctx.CommandBuffer, 0, 1, []vk.Viewport{viewport})

	scissor := vk.Rect2D{
		Extent: vk.Extent2D{Width: b.ctx.FramebufferWidth, Height: b.ctx.FramebufferHeight},
	}
	vk.CmdSetScissor(b.ctx.CommandBuffer, 0, 1, []vk.Rect2D{scissor})
	return nil
}

// EndFrame is a no-op: ending the render pass, submitting and presenting
// belong to the host that owns the queue and swapchain.
func (b *Backend) EndFrame(deltaTime float64) error {
	return nil
}

func (b *Backend) BuildPipeline(key metadata.PipelineKey) (renderer.PipelineHandle, error) {
	shader, ok := b.resolver.ResolveShader(key.Shader)
	if !ok {
		return 0, fmt.Errorf("vulkan: shader %q did not resolve", key.Shader)
	}
	p, err := newPipeline(b.ctx, key, shader)
	if err != nil {
		if lost := asDeviceLost(err); lost {
			b.state = renderer.StateLost
		}
		return 0, err
	}
	b.nextHandle++
	b.pipelines[b.nextHandle] = p
	return b.nextHandle, nil
}

func (b *Backend) DestroyPipeline(handle renderer.PipelineHandle) {
	if p, ok := b.pipelines[handle]; ok {
		p.Destroy(b.ctx)
		delete(b.pipelines, handle)
		if b.bound == p {
			b.bound = nil
		}
	}
}

func (b *Backend) BindPipeline(handle renderer.PipelineHandle) error {
	p, ok := b.pipelines[handle]
	if !ok {
		return fmt.Errorf("vulkan: unknown pipeline handle %d", handle)
	}
	p.Bind(b.ctx.CommandBuffer)
	b.bound = p
	return nil
}

func (b *Backend) BindTarget(target metadata.TargetHandle) error {
	if target != metadata.TargetDefault {
		return &core.UnsupportedFeatureError{Backend: "vulkan", Feature: "offscreen render targets"}
	}
	// The default target is the host's render pass, already begun.
	return nil
}

// BindLight stores the light for the stage. Lighting data travels in a
// host-owned descriptor set; the backend keeps the slots so the host can
// read them back at submit time.
func (b *Backend) BindLight(light metadata.Light) error {
	if b.lightCount < maxLights {
		b.lights[b.lightCount] = light
		b.lightCount++
	}
	return nil
}

// Lights returns the lights bound so far this frame.
func (b *Backend) Lights() []metadata.Light {
	return b.lights[:b.lightCount]
}

// Clear writes the colour over the current render area. The render pass is
// host-owned and already begun, so this is an explicit clear rather than a
// load-op.
func (b *Backend) Clear(colour math.Vec4) error {
	var clearValue vk.ClearValue
	clearValue.SetColor([]float32{colour.X, colour.Y, colour.Z, colour.W})

	attachment := vk.ClearAttachment{
		AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
		ColorAttachment: 0,
		ClearValue:      clearValue,
	}
	rect := vk.ClearRect{
		Rect: vk.Rect2D{
			Extent: vk.Extent2D{Width: b.ctx.FramebufferWidth, Height: b.ctx.FramebufferHeight},
		},
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	vk.CmdClearAttachments(b.ctx.CommandBuffer, 1, []vk.ClearAttachment{attachment}, 1, []vk.ClearRect{rect})
	return nil
}

func (b *Backend) Barrier() error {
	vk.CmdPipelineBarrier(b.ctx.CommandBuffer,
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		0, 0, nil, 0, nil, 0, nil)
	return nil
}

func (b *Backend) Draw(call renderer.DrawCall) error {
	p := b.bound
	if p == nil {
		return fmt.Errorf("vulkan: draw without a bound pipeline")
	}

	geo, err := b.mesh(call.Mesh)
	if err != nil {
		if asDeviceLost(err) {
			b.state = renderer.StateLost
			return err
		}
		core.LogDebug("vulkan: %s", err.Error())
		return nil
	}

	pc := pushConstants{Model: call.Transform.Data}
	pc.DiffuseColour = [4]float32{1, 1, 1, 1}
	if material, ok := b.resolver.ResolveMaterial(call.Material); ok {
		c := material.DiffuseColour
		pc.DiffuseColour = [4]float32{c.X, c.Y, c.Z, c.W}
	}
	vk.CmdPushConstants(b.ctx.CommandBuffer, p.PipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		0, pushConstantSize, unsafe.Pointer(&pc))

	geo.bind(b.ctx.CommandBuffer)
	vk.CmdDrawIndexed(b.ctx.CommandBuffer, geo.indexCount, 1, 0, 0, 0)
	return nil
}

func (b *Backend) mesh(handle metadata.MeshHandle) (*vkGeometry, error) {
	if handle == metadata.MeshFullscreen {
		return b.fullscreen, nil
	}
	if geo, ok := b.geometry[handle]; ok {
		return geo, nil
	}
	data, ok := b.resolver.ResolveMesh(handle)
	if !ok {
		return nil, fmt.Errorf("mesh handle %d did not resolve", handle)
	}
	geo, err := uploadGeometry(b.ctx, data.Vertices, data.Indices)
	if err != nil {
		return nil, err
	}
	b.geometry[handle] = geo
	return geo, nil
}

func asDeviceLost(err error) bool {
	_, ok := err.(*core.DeviceLostError)
	return ok
}

func fullscreenTriangle() []math.Vertex3D {
	return []math.Vertex3D{
		{Position: math.NewVec3(-1, -1, 0), Texcoord: math.Vec2{X: 0, Y: 0}, Colour: math.NewVec4(1, 1, 1, 1)},
		{Position: math.NewVec3(3, -1, 0), Texcoord: math.Vec2{X: 2, Y: 0}, Colour: math.NewVec4(1, 1, 1, 1)},
		{Position: math.NewVec3(-1, 3, 0), Texcoord: math.Vec2{X: 0, Y: 2}, Colour: math.NewVec4(1, 1, 1, 1)},
	}
}
