package renderer_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/command"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// stubResolver satisfies every lookup; dispatch tests exercise pipeline and
// command flow, not asset resolution.
type stubResolver struct{}

func (stubResolver) ResolveMesh(metadata.MeshHandle) (*metadata.MeshData, bool) {
	return &metadata.MeshData{}, true
}
func (stubResolver) ResolveMaterial(metadata.MaterialHandle) (*metadata.MaterialData, bool) {
	return &metadata.MaterialData{}, true
}
func (stubResolver) ResolveShader(name string) (*metadata.ShaderData, bool) {
	return &metadata.ShaderData{Name: name}, true
}
func (stubResolver) ResolveTexture(metadata.TextureHandle) (image.Image, bool) {
	return nil, false
}

func readyBackend(t *testing.T) *headless.Backend {
	t.Helper()
	b := headless.New()
	require.NoError(t, b.Initialize("test", 640, 480, stubResolver{}))
	return b
}

func drawCmd(shader string, mesh metadata.MeshHandle) command.Command {
	return command.Command{
		Op:   command.OpDraw,
		Key:  metadata.PipelineKey{Shader: shader, DepthTest: true, DepthWrite: true},
		Mesh: mesh,
	}
}

func TestExecuteTranslatesCommands(t *testing.T) {
	backend := readyBackend(t)
	d := renderer.NewDispatcher(backend)

	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageClear)
	buf.Push(command.Command{Op: command.OpClear, Colour: math.NewVec4(0, 0, 0, 1)})
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(command.Command{Op: command.OpBindLight, Light: metadata.Light{Intensity: 1}})
	buf.Push(drawCmd("a", 1))
	buf.Push(drawCmd("a", 2))
	buf.Push(drawCmd("b", 3))

	require.NoError(t, d.Execute(buf))

	stats := d.Stats()
	assert.Equal(t, 3, stats.DrawCalls)
	assert.Equal(t, 2, stats.PipelineBuilds)
	assert.Equal(t, 2, stats.PipelineBinds)
	assert.Equal(t, 1, stats.Clears)
	assert.Equal(t, 1, stats.LightBinds)

	kinds := []string{}
	for _, rec := range backend.Records() {
		kinds = append(kinds, rec.Kind)
	}
	assert.Equal(t, []string{"clear", "bind-light", "bind-pipeline", "draw", "draw", "bind-pipeline", "draw"}, kinds)
}

func TestPipelineCacheHitsAcrossFrames(t *testing.T) {
	backend := readyBackend(t)
	d := renderer.NewDispatcher(backend)

	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(drawCmd("a", 1))

	require.NoError(t, d.Execute(buf))
	require.NoError(t, d.Execute(buf))

	key := metadata.PipelineKey{Shader: "a", DepthTest: true, DepthWrite: true}
	assert.Equal(t, 1, backend.BuildCount(key))
	assert.Equal(t, 1, d.PipelineCount())
	assert.Zero(t, d.Stats().PipelineBuilds)
}

func TestExecuteRefusesUnreadyBackend(t *testing.T) {
	backend := headless.New()
	d := renderer.NewDispatcher(backend)

	buf := command.NewBuffer()
	err := d.Execute(buf)
	assert.ErrorIs(t, err, core.ErrBackendNotReady)
}

func TestDeviceLossHaltsAndDropsCache(t *testing.T) {
	backend := readyBackend(t)
	d := renderer.NewDispatcher(backend)

	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(drawCmd("a", 1))
	require.NoError(t, d.Execute(buf))
	require.Equal(t, 1, d.PipelineCount())

	backend.InjectDeviceLoss()
	err := d.Execute(buf)

	var lost *core.DeviceLostError
	require.ErrorAs(t, err, &lost)
	assert.Equal(t, renderer.StateLost, backend.State())
	// Cached handles belong to the dead device generation.
	assert.Zero(t, d.PipelineCount())

	// Dispatch stays refused until an explicit reinitialize.
	err = d.Execute(buf)
	assert.ErrorIs(t, err, core.ErrBackendNotReady)

	require.NoError(t, backend.Initialize("test", 640, 480, stubResolver{}))
	require.NoError(t, d.Execute(buf))
	key := metadata.PipelineKey{Shader: "a", DepthTest: true, DepthWrite: true}
	assert.Equal(t, 2, backend.BuildCount(key))
}

func TestInvalidateShaderEvictsByName(t *testing.T) {
	backend := readyBackend(t)
	d := renderer.NewDispatcher(backend)

	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(drawCmd("a", 1))
	buf.Push(drawCmd("b", 2))
	require.NoError(t, d.Execute(buf))
	require.Equal(t, 2, d.PipelineCount())

	assert.Equal(t, 1, d.InvalidateShader("a"))
	assert.Equal(t, 1, d.PipelineCount())
	assert.Zero(t, d.InvalidateShader("missing"))

	require.NoError(t, d.Execute(buf))
	key := metadata.PipelineKey{Shader: "a", DepthTest: true, DepthWrite: true}
	assert.Equal(t, 2, backend.BuildCount(key))
}

func TestUnsupportedFeatureSurfacesFromBuild(t *testing.T) {
	backend := readyBackend(t)
	backend.MarkUnsupported("geometry-heavy")
	d := renderer.NewDispatcher(backend)

	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(drawCmd("geometry-heavy", 1))

	err := d.Execute(buf)
	var unsupported *core.UnsupportedFeatureError
	require.ErrorAs(t, err, &unsupported)
	// Not a device loss: the backend stays ready for the next frame.
	assert.Equal(t, renderer.StateReady, backend.State())
}
