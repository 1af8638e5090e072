package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/renderer/command"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func key(shader string) metadata.PipelineKey {
	return metadata.PipelineKey{Shader: shader, DepthTest: true, DepthWrite: true}
}

func draw(shader string, mesh metadata.MeshHandle) command.Command {
	return command.Command{Op: command.OpDraw, Key: key(shader), Mesh: mesh}
}

func shaders(cmds []command.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Key.Shader
	}
	return out
}

func TestSortGroupsOpaqueByKey(t *testing.T) {
	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	// 5 objects over 2 materials, interleaved.
	buf.Push(draw("a", 1))
	buf.Push(draw("b", 2))
	buf.Push(draw("a", 3))
	buf.Push(draw("b", 4))
	buf.Push(draw("a", 5))

	Sort(buf)

	got := shaders(buf.Commands())
	assert.Equal(t, []string{"a", "a", "a", "b", "b"}, got)
	// First-appearance bucket order: "a" was seen before "b".
	assert.Equal(t, metadata.MeshHandle(1), buf.Commands()[0].Mesh)
}

func TestSortSecondaryMeshKey(t *testing.T) {
	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(draw("a", 9))
	buf.Push(draw("a", 2))
	buf.Push(draw("a", 5))

	Sort(buf)

	meshes := []metadata.MeshHandle{}
	for _, c := range buf.Commands() {
		meshes = append(meshes, c.Mesh)
	}
	assert.Equal(t, []metadata.MeshHandle{2, 5, 9}, meshes)
}

func TestSortTransparentBackToFront(t *testing.T) {
	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawTransparent)
	for i, depth := range []float32{1, 5, 3} {
		cmd := draw("glass", metadata.MeshHandle(i+1))
		cmd.Depth = depth
		buf.Push(cmd)
	}

	Sort(buf)

	depths := []float32{}
	for _, c := range buf.Commands() {
		depths = append(depths, c.Depth)
	}
	assert.Equal(t, []float32{5, 3, 1}, depths)
}

func TestSortTransparentStableOnEqualDepth(t *testing.T) {
	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawTransparent)
	for i := 1; i <= 3; i++ {
		cmd := draw("glass", metadata.MeshHandle(i))
		cmd.Depth = 2.0
		buf.Push(cmd)
	}

	Sort(buf)

	for i, c := range buf.Commands() {
		assert.Equal(t, metadata.MeshHandle(i+1), c.Mesh)
	}
}

func TestSortNeverCrossesStageBoundary(t *testing.T) {
	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(draw("b", 1))
	buf.BeginStage("overlay", metadata.StageDrawOpaque)
	buf.Push(draw("a", 2))

	Sort(buf)

	got := shaders(buf.Commands())
	// "b" stays in its stage even though "a" shares no span with it.
	assert.Equal(t, []string{"b", "a"}, got)
}

func TestSortBarrierIsAWall(t *testing.T) {
	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(draw("b", 1))
	buf.Push(draw("a", 2))
	buf.Push(command.Command{Op: command.OpBarrier})
	buf.Push(draw("b", 3))
	buf.Push(draw("a", 4))

	Sort(buf)

	cmds := buf.Commands()
	require.Equal(t, command.OpBarrier, cmds[2].Op)
	assert.Equal(t, []string{"b", "a"}, shaders(cmds[:2]))
	assert.Equal(t, []string{"b", "a"}, shaders(cmds[3:]))
}

func TestSortStatePrefixStaysPut(t *testing.T) {
	buf := command.NewBuffer()
	buf.BeginStage("world", metadata.StageDrawOpaque)
	buf.Push(command.Command{Op: command.OpBindLight})
	buf.Push(draw("b", 1))
	buf.Push(draw("a", 2))

	Sort(buf)

	cmds := buf.Commands()
	assert.Equal(t, command.OpBindLight, cmds[0].Op)
	assert.Equal(t, []string{"b", "a"}, shaders(cmds[1:]))
}

func TestSortDeterministic(t *testing.T) {
	build := func() *command.Buffer {
		buf := command.NewBuffer()
		buf.BeginStage("world", metadata.StageDrawOpaque)
		buf.Push(draw("c", 3))
		buf.Push(draw("a", 1))
		buf.Push(draw("b", 2))
		buf.Push(draw("a", 4))
		return buf
	}

	a, b := build(), build()
	Sort(a)
	Sort(b)
	assert.True(t, a.Equal(b))
}
