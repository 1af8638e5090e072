package testbed

import (
	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	registry *assets.Registry

	cameraPosition math.Vec3

	cubeMesh metadata.MeshHandle
	stone    metadata.MaterialHandle
	paving   metadata.MaterialHandle
	glass    metadata.MaterialHandle

	spin float32

	width  uint32
	height uint32
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	registry := assets.NewRegistry()
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			Resolver:          registry,
			State: &gameState{
				registry:       registry,
				cameraPosition: math.NewVec3(0, 2, 10),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)

	state.cubeMesh = state.registry.RegisterMesh(cubeMesh("test_cube", 1.0))

	state.stone = state.registry.RegisterMaterial(&metadata.MaterialData{
		Name:          "stone",
		Shader:        "Builtin.ShaderWorld",
		Blend:         metadata.BlendModeOpaque,
		CullMode:      metadata.FaceCullModeBack,
		DiffuseColour: math.NewVec4(0.55, 0.55, 0.6, 1.0),
	})
	state.paving = state.registry.RegisterMaterial(&metadata.MaterialData{
		Name:          "paving",
		Shader:        "Builtin.ShaderWorld",
		Blend:         metadata.BlendModeOpaque,
		CullMode:      metadata.FaceCullModeBack,
		DiffuseColour: math.NewVec4(0.45, 0.35, 0.25, 1.0),
	})
	state.glass = state.registry.RegisterMaterial(&metadata.MaterialData{
		Name:          "glass",
		Shader:        "Builtin.ShaderWorld",
		Blend:         metadata.BlendModeAlpha,
		CullMode:      metadata.FaceCullModeNone,
		DiffuseColour: math.NewVec4(0.3, 0.6, 0.9, 0.4),
	})

	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.spin += float32(0.5 * deltaTime)
	return nil
}

// Render snapshots the scene. The same cube geometry is drawn with three
// materials, two of them sharing a pipeline so sorted frames batch them.
func (g *TestGame) Render(deltaTime float64) (*metadata.Frame, error) {
	state := g.State.(*gameState)

	frame := metadata.NewFrame(state.cameraPosition)
	frame.Lights = []metadata.Light{
		{
			Type:      metadata.LightDirectional,
			Colour:    math.NewVec4(1.0, 0.98, 0.92, 1.0),
			Intensity: 1.0,
			Direction: math.NewVec3(-0.4, -1.0, -0.3).Normalized(),
		},
	}

	spin := math.NewMat4EulerY(state.spin)
	place := func(x, y, z float32) math.Mat4 {
		return math.NewMat4Translation(math.NewVec3(x, y, z)).Mul(spin)
	}

	frame.Objects = []metadata.RenderObject{
		{Mesh: state.cubeMesh, Material: state.stone, Transform: place(-3, 0, 0), Visible: true},
		{Mesh: state.cubeMesh, Material: state.paving, Transform: place(0, 0, 0), Visible: true},
		{Mesh: state.cubeMesh, Material: state.stone, Transform: place(3, 0, 0), Visible: true},
		{Mesh: state.cubeMesh, Material: state.glass, Transform: place(0, 0, 3), Visible: true, Transparent: true},
		{Mesh: state.cubeMesh, Material: state.glass, Transform: place(0, 0, 5), Visible: true, Transparent: true},
	}

	return frame, nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	return nil
}

// cubeMesh builds an axis-aligned cube with per-face normals.
func cubeMesh(name string, halfExtent float32) *metadata.MeshData {
	h := halfExtent
	faces := []struct {
		normal  math.Vec3
		corners [4]math.Vec3
	}{
		{math.NewVec3(0, 0, 1), [4]math.Vec3{{X: -h, Y: -h, Z: h}, {X: h, Y: -h, Z: h}, {X: h, Y: h, Z: h}, {X: -h, Y: h, Z: h}}},
		{math.NewVec3(0, 0, -1), [4]math.Vec3{{X: h, Y: -h, Z: -h}, {X: -h, Y: -h, Z: -h}, {X: -h, Y: h, Z: -h}, {X: h, Y: h, Z: -h}}},
		{math.NewVec3(1, 0, 0), [4]math.Vec3{{X: h, Y: -h, Z: h}, {X: h, Y: -h, Z: -h}, {X: h, Y: h, Z: -h}, {X: h, Y: h, Z: h}}},
		{math.NewVec3(-1, 0, 0), [4]math.Vec3{{X: -h, Y: -h, Z: -h}, {X: -h, Y: -h, Z: h}, {X: -h, Y: h, Z: h}, {X: -h, Y: h, Z: -h}}},
		{math.NewVec3(0, 1, 0), [4]math.Vec3{{X: -h, Y: h, Z: h}, {X: h, Y: h, Z: h}, {X: h, Y: h, Z: -h}, {X: -h, Y: h, Z: -h}}},
		{math.NewVec3(0, -1, 0), [4]math.Vec3{{X: -h, Y: -h, Z: -h}, {X: h, Y: -h, Z: -h}, {X: h, Y: -h, Z: h}, {X: -h, Y: -h, Z: h}}},
	}
	uvs := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	mesh := &metadata.MeshData{Name: name}
	for _, face := range faces {
		base := uint32(len(mesh.Vertices))
		for i, corner := range face.corners {
			mesh.Vertices = append(mesh.Vertices, math.Vertex3D{
				Position: corner,
				Normal:   face.normal,
				Texcoord: uvs[i],
				Colour:   math.NewVec4(1, 1, 1, 1),
			})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return mesh
}
