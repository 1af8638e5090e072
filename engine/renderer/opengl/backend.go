// Package opengl dispatches renderer commands through OpenGL 4.1 core. The
// GL context must be current on the render thread before Initialize is
// called; window and context creation belong to the platform collaborator.
package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const maxLights = 8

// geometryCacheSize bounds how many meshes keep GPU buffers resident before
// least-recently-drawn ones are evicted.
const geometryCacheSize = 256

type pipeline struct {
	key     metadata.PipelineKey
	program uint32

	locProjection     int32
	locModel          int32
	locDiffuseColour  int32
	locSampleTexture  int32
	locDiffuseMap     int32
	locLightCount     int32
	locLightColour    int32
	locLightDirection int32
	locLightIntensity int32
}

type Config struct {
	// Present is called at EndFrame to hand the finished frame to the
	// surface collaborator, typically window.SwapBuffers.
	Present func()
}

type Backend struct {
	state    renderer.BackendState
	resolver metadata.AssetResolver
	present  func()

	projection math.Mat4

	nextHandle renderer.PipelineHandle
	pipelines  map[renderer.PipelineHandle]*pipeline
	bound      *pipeline

	geometry   *lru.Cache[metadata.MeshHandle, *glGeometry]
	fullscreen *glGeometry
	textures   map[metadata.TextureHandle]uint32

	lights     [maxLights]metadata.Light
	lightCount int32
}

var _ renderer.Backend = (*Backend)(nil)

func New(cfg Config) *Backend {
	return &Backend{
		present:   cfg.Present,
		pipelines: make(map[renderer.PipelineHandle]*pipeline),
		textures:  make(map[metadata.TextureHandle]uint32),
	}
}

func (b *Backend) Initialize(appName string, width, height uint32, resolver metadata.AssetResolver) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("opengl: %w", err)
	}
	b.resolver = resolver

	cache, err := lru.NewWithEvict[metadata.MeshHandle, *glGeometry](geometryCacheSize, func(_ metadata.MeshHandle, g *glGeometry) {
		g.destroy()
	})
	if err != nil {
		return err
	}
	b.geometry = cache
	b.fullscreen, err = newFullscreenTriangle()
	if err != nil {
		return err
	}
	b.setProjection(width, height)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	b.state = renderer.StateReady
	core.LogInfo("opengl backend initialized for %q (%dx%d): %s",
		appName, width, height, gl.GoStr(gl.GetString(gl.VERSION)))
	return nil
}

func (b *Backend) Shutdown() error {
	for _, p := range b.pipelines {
		gl.DeleteProgram(p.program)
	}
	b.pipelines = make(map[renderer.PipelineHandle]*pipeline)
	if b.geometry != nil {
		b.geometry.Purge()
	}
	for _, tex := range b.textures {
		gl.DeleteTextures(1, &tex)
	}
	b.textures = make(map[metadata.TextureHandle]uint32)
	b.state = renderer.StateUninitialized
	return nil
}

func (b *Backend) Resized(width, height uint16) error {
	gl.Viewport(0, 0, int32(width), int32(height))
	b.setProjection(uint32(width), uint32(height))
	return nil
}

func (b *Backend) setProjection(width, height uint32) {
	aspect := float32(1)
	if height != 0 {
		aspect = float32(width) / float32(height)
	}
	b.projection = math.NewMat4Perspective(math.DegToRad(45.0), aspect, 0.1, 1000.0)
}

func (b *Backend) State() renderer.BackendState { return b.state }

func (b *Backend) BeginFrame(deltaTime float64) error {
	b.lightCount = 0
	b.bound = nil
	return b.checkDevice()
}

func (b *Backend) EndFrame(deltaTime float64) error {
	if err := b.checkDevice(); err != nil {
		return err
	}
	if b.present != nil {
		b.present()
	}
	return nil
}

func (b *Backend) BuildPipeline(key metadata.PipelineKey) (renderer.PipelineHandle, error) {
	vertexSrc, fragmentSrc := builtinSources(key.Shader)
	if shader, ok := b.resolver.ResolveShader(key.Shader); ok {
		if shader.RequiresGeometryStage {
			return 0, &core.UnsupportedFeatureError{Backend: "opengl", Feature: "geometry shader stage"}
		}
		if shader.VertexSource != "" {
			vertexSrc, fragmentSrc = shader.VertexSource, shader.FragmentSource
		}
	}

	program, err := newProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return 0, fmt.Errorf("pipeline for shader %q: %w", key.Shader, err)
	}

	p := &pipeline{key: key, program: program}
	p.locProjection = gl.GetUniformLocation(program, gl.Str("projection\x00"))
	p.locModel = gl.GetUniformLocation(program, gl.Str("model\x00"))
	p.locDiffuseColour = gl.GetUniformLocation(program, gl.Str("diffuseColour\x00"))
	p.locSampleTexture = gl.GetUniformLocation(program, gl.Str("sampleTexture\x00"))
	p.locDiffuseMap = gl.GetUniformLocation(program, gl.Str("diffuseMap\x00"))
	p.locLightCount = gl.GetUniformLocation(program, gl.Str("lightCount\x00"))
	p.locLightColour = gl.GetUniformLocation(program, gl.Str("lightColour\x00"))
	p.locLightDirection = gl.GetUniformLocation(program, gl.Str("lightDirection\x00"))
	p.locLightIntensity = gl.GetUniformLocation(program, gl.Str("lightIntensity\x00"))

	if err := b.checkDevice(); err != nil {
		gl.DeleteProgram(program)
		return 0, err
	}

	b.nextHandle++
	b.pipelines[b.nextHandle] = p
	core.LogDebug("opengl: built pipeline %d for shader %q", b.nextHandle, key.Shader)
	return b.nextHandle, nil
}

func (b *Backend) DestroyPipeline(handle renderer.PipelineHandle) {
	if p, ok := b.pipelines[handle]; ok {
		gl.DeleteProgram(p.program)
		delete(b.pipelines, handle)
		if b.bound == p {
			b.bound = nil
		}
	}
}

// BindPipeline applies the static state of the pipeline object: program,
// blend, depth and cull configuration, plus the key's texture binding.
func (b *Backend) BindPipeline(handle renderer.PipelineHandle) error {
	p, ok := b.pipelines[handle]
	if !ok {
		return fmt.Errorf("opengl: unknown pipeline handle %d", handle)
	}
	gl.UseProgram(p.program)

	switch p.key.Blend {
	case metadata.BlendModeOpaque:
		gl.Disable(gl.BLEND)
	case metadata.BlendModeAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	case metadata.BlendModeAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	}

	if p.key.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(p.key.DepthWrite)

	switch p.key.CullMode {
	case metadata.FaceCullModeNone:
		gl.Disable(gl.CULL_FACE)
	case metadata.FaceCullModeFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	case metadata.FaceCullModeBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case metadata.FaceCullModeFrontAndBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT_AND_BACK)
	}

	if p.key.DiffuseMap != metadata.TextureHandle(metadata.InvalidHandle) && p.key.DiffuseMap != 0 {
		if tex, err := b.texture(p.key.DiffuseMap); err == nil {
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, tex)
			gl.Uniform1i(p.locDiffuseMap, 0)
			gl.Uniform1i(p.locSampleTexture, 1)
		} else {
			core.LogDebug("opengl: %s", err.Error())
			gl.Uniform1i(p.locSampleTexture, 0)
		}
	} else {
		gl.Uniform1i(p.locSampleTexture, 0)
	}

	gl.UniformMatrix4fv(p.locProjection, 1, false, &b.projection.Data[0])
	b.uploadLights(p)

	b.bound = p
	return b.checkDevice()
}

func (b *Backend) BindTarget(target metadata.TargetHandle) error {
	if target != metadata.TargetDefault {
		return &core.UnsupportedFeatureError{Backend: "opengl", Feature: "offscreen render targets"}
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return b.checkDevice()
}

func (b *Backend) BindLight(light metadata.Light) error {
	if b.lightCount < maxLights {
		b.lights[b.lightCount] = light
		b.lightCount++
		if b.bound != nil {
			b.uploadLights(b.bound)
		}
	}
	return nil
}

func (b *Backend) uploadLights(p *pipeline) {
	if p.locLightCount < 0 {
		return
	}
	gl.Uniform1i(p.locLightCount, b.lightCount)
	if b.lightCount == 0 {
		return
	}
	var colours [maxLights * 4]float32
	var directions [maxLights * 3]float32
	var intensities [maxLights]float32
	for i := int32(0); i < b.lightCount; i++ {
		l := &b.lights[i]
		colours[i*4+0], colours[i*4+1], colours[i*4+2], colours[i*4+3] = l.Colour.X, l.Colour.Y, l.Colour.Z, l.Colour.W
		dir := l.Direction
		if l.Type == metadata.LightPoint {
			dir = l.Position.Scale(-1).Normalized()
		}
		directions[i*3+0], directions[i*3+1], directions[i*3+2] = dir.X, dir.Y, dir.Z
		intensities[i] = l.Intensity
	}
	gl.Uniform4fv(p.locLightColour, b.lightCount, &colours[0])
	gl.Uniform3fv(p.locLightDirection, b.lightCount, &directions[0])
	gl.Uniform1fv(p.locLightIntensity, b.lightCount, &intensities[0])
}

func (b *Backend) Clear(colour math.Vec4) error {
	gl.ClearColor(colour.X, colour.Y, colour.Z, colour.W)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return b.checkDevice()
}

// Barrier orders prior GPU work before anything that follows. GL 4.1 has no
// granular memory barrier, so this is a full pipeline drain.
func (b *Backend) Barrier() error {
	gl.Finish()
	return b.checkDevice()
}

func (b *Backend) Draw(call renderer.DrawCall) error {
	p := b.bound
	if p == nil {
		return fmt.Errorf("opengl: draw without a bound pipeline")
	}

	geo, err := b.mesh(call.Mesh)
	if err != nil {
		// Unresolvable geometry at dispatch time: drop the draw, the frame
		// must not abort for it.
		core.LogDebug("opengl: %s", err.Error())
		return nil
	}

	gl.UniformMatrix4fv(p.locModel, 1, false, &call.Transform.Data[0])

	colour := math.NewVec4(1, 1, 1, 1)
	if material, ok := b.resolver.ResolveMaterial(call.Material); ok {
		colour = material.DiffuseColour
	}
	gl.Uniform4f(p.locDiffuseColour, colour.X, colour.Y, colour.Z, colour.W)

	gl.BindVertexArray(geo.vao)
	gl.DrawElements(gl.TRIANGLES, geo.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)

	return b.checkDevice()
}

// checkDevice maps the GL error state to the error taxonomy. Out-of-memory
// is the one condition GL reports that is unrecoverable for the session.
func (b *Backend) checkDevice() error {
	switch errCode := gl.GetError(); errCode {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		b.state = renderer.StateLost
		return &core.DeviceLostError{Backend: "opengl", Err: fmt.Errorf("GL_OUT_OF_MEMORY")}
	default:
		core.LogWarn("opengl: error 0x%x", errCode)
		return nil
	}
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("failed to link program: %v", infoLog)
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	if !strings.HasSuffix(source, "\x00") {
		source += "\x00"
	}
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("failed to compile shader: %v", infoLog)
	}
	return shader, nil
}

// builtinSources picks the embedded program for well-known shader names.
func builtinSources(shader string) (string, string) {
	switch shader {
	case "Builtin.ShaderFallback":
		return builtinVertexShader, fallbackFragmentShader
	case "Builtin.ShaderPostProcess":
		return postProcessVertexShader, postProcessFragmentShader
	default:
		return builtinVertexShader, builtinFragmentShader
	}
}
