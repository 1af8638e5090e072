package path

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const validPath = `
[[layer]]
name = "world"
camera = "camera.main"
scene = "scene.main"

[[layer.stage]]
kind = "Clear"
clear_colour = [0.1, 0.2, 0.3, 1.0]

[[layer.stage]]
kind = "DrawOpaque"

[[layer.stage]]
kind = "DrawTransparent"

[[layer]]
name = "overlay"
camera = "camera.ui"
scene = "scene.ui"

[[layer.stage]]
kind = "DrawOpaque"

[[layer.stage]]
kind = "PostProcess"
shader = "Builtin.ShaderPostProcess"
`

func TestLoadPreservesOrder(t *testing.T) {
	rp, err := Load(strings.NewReader(validPath))
	require.NoError(t, err)
	require.Len(t, rp.Layers, 2)

	world := rp.Layers[0]
	assert.Equal(t, "world", world.Name)
	assert.Equal(t, "camera.main", world.Camera)
	assert.Equal(t, "scene.main", world.Scene)
	require.Len(t, world.Stages, 3)
	assert.Equal(t, metadata.StageClear, world.Stages[0].Kind)
	assert.InDelta(t, 0.2, world.Stages[0].ClearColour.Y, 1e-6)
	assert.Equal(t, metadata.StageDrawOpaque, world.Stages[1].Kind)
	assert.Equal(t, metadata.StageDrawTransparent, world.Stages[2].Kind)

	overlay := rp.Layers[1]
	assert.Equal(t, "overlay", overlay.Name)
	require.Len(t, overlay.Stages, 2)
	assert.Equal(t, metadata.StagePostProcess, overlay.Stages[1].Kind)
	assert.Equal(t, "Builtin.ShaderPostProcess", overlay.Stages[1].Shader)
}

func TestLoadUnknownStageKind(t *testing.T) {
	src := `
[[layer]]
name = "world"
camera = "camera.main"
scene = "scene.main"

[[layer.stage]]
kind = "DrawEverything"
`
	_, err := Load(strings.NewReader(src))
	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "world", parseErr.Layer)
	assert.Equal(t, 0, parseErr.Stage)
	assert.Contains(t, parseErr.Error(), "DrawEverything")
}

func TestLoadEmptyCamera(t *testing.T) {
	src := `
[[layer]]
name = "world"
scene = "scene.main"

[[layer.stage]]
kind = "Clear"
`
	_, err := Load(strings.NewReader(src))
	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "camera")
}

func TestLoadNoLayers(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestLoadLayerWithoutStages(t *testing.T) {
	src := `
[[layer]]
name = "world"
camera = "camera.main"
scene = "scene.main"
`
	_, err := Load(strings.NewReader(src))
	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "stages")
}

func TestPostProcessRequiresPriorDraw(t *testing.T) {
	src := `
[[layer]]
name = "world"
camera = "camera.main"
scene = "scene.main"

[[layer.stage]]
kind = "Clear"

[[layer.stage]]
kind = "PostProcess"
`
	_, err := Load(strings.NewReader(src))
	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Stage)
}

func TestNewValidatesInMemoryLayers(t *testing.T) {
	_, err := New(Layer{
		Name:   "world",
		Camera: "camera.main",
		Scene:  "scene.main",
		Stages: []Stage{{Kind: metadata.StageDrawOpaque}},
	})
	require.NoError(t, err)

	_, err = New(Layer{Name: "broken", Camera: "camera.main", Scene: ""})
	assert.Error(t, err)
}
