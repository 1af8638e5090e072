package frontend

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/command"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/path"
)

// fakeResolver resolves from in-memory maps; absent handles stay missing.
type fakeResolver struct {
	meshes    map[metadata.MeshHandle]*metadata.MeshData
	materials map[metadata.MaterialHandle]*metadata.MaterialData
}

func (r *fakeResolver) ResolveMesh(h metadata.MeshHandle) (*metadata.MeshData, bool) {
	m, ok := r.meshes[h]
	return m, ok
}

func (r *fakeResolver) ResolveMaterial(h metadata.MaterialHandle) (*metadata.MaterialData, bool) {
	m, ok := r.materials[h]
	return m, ok
}

func (r *fakeResolver) ResolveShader(name string) (*metadata.ShaderData, bool) {
	return &metadata.ShaderData{Name: name}, true
}

func (r *fakeResolver) ResolveTexture(metadata.TextureHandle) (image.Image, bool) {
	return nil, false
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		meshes: map[metadata.MeshHandle]*metadata.MeshData{
			1: {Name: "cube"},
		},
		materials: map[metadata.MaterialHandle]*metadata.MaterialData{
			10: {Name: "stone", Shader: "Builtin.ShaderWorld", Blend: metadata.BlendModeOpaque, CullMode: metadata.FaceCullModeBack},
			11: {Name: "glass", Shader: "Builtin.ShaderWorld", Blend: metadata.BlendModeAlpha, CullMode: metadata.FaceCullModeNone},
		},
	}
}

func worldPath(t *testing.T, stages ...path.Stage) *path.RenderPath {
	t.Helper()
	rp, err := path.New(path.Layer{
		Name:   "world",
		Camera: "camera.main",
		Scene:  "scene.main",
		Stages: stages,
	})
	require.NoError(t, err)
	return rp
}

func object(mesh metadata.MeshHandle, material metadata.MaterialHandle, transparent bool, z float32) metadata.RenderObject {
	return metadata.RenderObject{
		Mesh:        mesh,
		Material:    material,
		Transform:   math.NewMat4Translation(math.NewVec3(0, 0, z)),
		Visible:     true,
		Transparent: transparent,
	}
}

func TestProcessRoutesStages(t *testing.T) {
	fe, err := New(Config{Resolver: newFakeResolver()})
	require.NoError(t, err)

	rp := worldPath(t,
		path.Stage{Kind: metadata.StageClear, ClearColour: math.NewVec4(0, 0, 0, 1)},
		path.Stage{Kind: metadata.StageDrawOpaque},
		path.Stage{Kind: metadata.StageDrawTransparent},
	)

	frame := metadata.NewFrame(math.NewVec3(0, 0, 10))
	frame.Objects = []metadata.RenderObject{
		object(1, 10, false, 0),
		object(1, 11, true, 2),
	}

	buf := command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, buf))

	spans := buf.Spans()
	require.Len(t, spans, 3)

	clear := buf.StageCommands(0)
	require.Len(t, clear, 1)
	assert.Equal(t, command.OpClear, clear[0].Op)

	opaque := buf.StageCommands(1)
	require.Len(t, opaque, 1)
	assert.Equal(t, command.OpDraw, opaque[0].Op)
	assert.Equal(t, metadata.MaterialHandle(10), opaque[0].Material)
	assert.Equal(t, metadata.BlendModeOpaque, opaque[0].Key.Blend)
	assert.True(t, opaque[0].Key.DepthWrite)

	transparent := buf.StageCommands(2)
	require.Len(t, transparent, 1)
	assert.Equal(t, metadata.MaterialHandle(11), transparent[0].Material)
	assert.Equal(t, metadata.BlendModeAlpha, transparent[0].Key.Blend)
	assert.False(t, transparent[0].Key.DepthWrite)
	assert.InDelta(t, 8.0, transparent[0].Depth, 1e-5)
}

func TestProcessSkipsInvisibleObjects(t *testing.T) {
	fe, err := New(Config{Resolver: newFakeResolver()})
	require.NoError(t, err)

	rp := worldPath(t, path.Stage{Kind: metadata.StageDrawOpaque})
	frame := metadata.NewFrame(math.Vec3{})
	hidden := object(1, 10, false, 0)
	hidden.Visible = false
	frame.Objects = []metadata.RenderObject{hidden}

	buf := command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, buf))
	assert.Zero(t, buf.DrawCount())
	// Visibility is not a missing-asset condition.
	assert.Zero(t, fe.Skipped())
}

func TestProcessOpaqueTransparentForcesState(t *testing.T) {
	resolver := newFakeResolver()
	// An opaque-blending material drawn as transparent still blends.
	resolver.materials[12] = &metadata.MaterialData{Name: "odd", Shader: "s", Blend: metadata.BlendModeOpaque}
	fe, err := New(Config{Resolver: resolver})
	require.NoError(t, err)

	rp := worldPath(t, path.Stage{Kind: metadata.StageDrawTransparent})
	frame := metadata.NewFrame(math.Vec3{})
	frame.Objects = []metadata.RenderObject{object(1, 12, true, 0)}

	buf := command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, buf))
	require.Equal(t, 1, buf.DrawCount())
	assert.Equal(t, metadata.BlendModeAlpha, buf.Commands()[0].Key.Blend)
}

func TestMissingAssetSkipPolicy(t *testing.T) {
	fe, err := New(Config{Resolver: newFakeResolver(), OnMissingAsset: PolicySkip})
	require.NoError(t, err)

	rp := worldPath(t, path.Stage{Kind: metadata.StageDrawOpaque})
	frame := metadata.NewFrame(math.Vec3{})
	frame.Objects = []metadata.RenderObject{
		object(1, 10, false, 0),  // resolvable
		object(99, 10, false, 0), // missing mesh
		object(1, 99, false, 0),  // missing material
	}

	buf := command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, buf))
	assert.Equal(t, 1, buf.DrawCount())
	assert.Equal(t, uint64(2), fe.Skipped())
}

func TestMissingAssetFallbackPolicy(t *testing.T) {
	fe, err := New(Config{Resolver: newFakeResolver(), OnMissingAsset: PolicyFallback})
	require.NoError(t, err)

	rp := worldPath(t, path.Stage{Kind: metadata.StageDrawOpaque})
	frame := metadata.NewFrame(math.Vec3{})
	frame.Objects = []metadata.RenderObject{object(1, 99, false, 0)}

	buf := command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, buf))
	require.Equal(t, 1, buf.DrawCount())
	assert.Equal(t, FallbackMaterial.Shader, buf.Commands()[0].Key.Shader)
	assert.Zero(t, fe.Skipped())
}

func TestProcessEmitsLightsBeforeDraws(t *testing.T) {
	fe, err := New(Config{Resolver: newFakeResolver()})
	require.NoError(t, err)

	rp := worldPath(t, path.Stage{Kind: metadata.StageDrawOpaque})
	frame := metadata.NewFrame(math.Vec3{})
	frame.Lights = []metadata.Light{
		{Type: metadata.LightDirectional, Intensity: 1},
		{Type: metadata.LightPoint, Intensity: 2},
	}
	frame.Objects = []metadata.RenderObject{object(1, 10, false, 0)}

	buf := command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, buf))

	cmds := buf.Commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, command.OpBindLight, cmds[0].Op)
	assert.Equal(t, command.OpBindLight, cmds[1].Op)
	assert.Equal(t, command.OpDraw, cmds[2].Op)
	assert.Equal(t, float32(2), cmds[1].Light.Intensity)
}

func TestProcessCapsLightsPerStage(t *testing.T) {
	fe, err := New(Config{Resolver: newFakeResolver()})
	require.NoError(t, err)

	rp := worldPath(t, path.Stage{Kind: metadata.StageDrawOpaque})
	frame := metadata.NewFrame(math.Vec3{})
	for i := 0; i < maxLightsPerStage+4; i++ {
		frame.Lights = append(frame.Lights, metadata.Light{
			Type:      metadata.LightPoint,
			Intensity: float32(i),
		})
	}
	frame.Objects = []metadata.RenderObject{object(1, 10, false, 0)}

	buf := command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, buf))

	bindLights := 0
	for _, cmd := range buf.Commands() {
		if cmd.Op == command.OpBindLight {
			bindLights++
		}
	}
	assert.Equal(t, maxLightsPerStage, bindLights)
	// The first lights survive; the overflow is dropped from the tail.
	assert.Equal(t, float32(0), buf.Commands()[0].Light.Intensity)
}

func TestProcessPostProcessStage(t *testing.T) {
	fe, err := New(Config{Resolver: newFakeResolver()})
	require.NoError(t, err)

	rp := worldPath(t,
		path.Stage{Kind: metadata.StageDrawOpaque},
		path.Stage{Kind: metadata.StagePostProcess},
	)
	frame := metadata.NewFrame(math.Vec3{})

	buf := command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, buf))

	post := buf.StageCommands(1)
	require.Len(t, post, 2)
	assert.Equal(t, command.OpBindTarget, post[0].Op)
	assert.Equal(t, metadata.TargetDefault, post[0].Target)
	assert.Equal(t, command.OpDraw, post[1].Op)
	assert.Equal(t, metadata.MeshFullscreen, post[1].Mesh)
	assert.Equal(t, PostProcessShader, post[1].Key.Shader)
}

func TestProcessDeterministic(t *testing.T) {
	fe, err := New(Config{Resolver: newFakeResolver()})
	require.NoError(t, err)

	rp := worldPath(t,
		path.Stage{Kind: metadata.StageClear},
		path.Stage{Kind: metadata.StageDrawOpaque},
		path.Stage{Kind: metadata.StageDrawTransparent},
	)
	frame := metadata.NewFrame(math.NewVec3(0, 0, 10))
	frame.Objects = []metadata.RenderObject{
		object(1, 10, false, 0),
		object(1, 11, true, 3),
		object(1, 10, false, -2),
	}

	a, b := command.NewBuffer(), command.NewBuffer()
	require.NoError(t, fe.Process(frame, rp, a))
	require.NoError(t, fe.Process(frame, rp, b))
	assert.True(t, a.Equal(b))
}

func TestParseMissingAssetPolicy(t *testing.T) {
	p, err := ParseMissingAssetPolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	p, err = ParseMissingAssetPolicy("fallback")
	require.NoError(t, err)
	assert.Equal(t, PolicyFallback, p)

	_, err = ParseMissingAssetPolicy("explode")
	assert.Error(t, err)
}
