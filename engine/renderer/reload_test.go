package renderer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderName(t *testing.T) {
	cases := map[string]string{
		"Builtin.ShaderWorld.frag.glsl": "Builtin.ShaderWorld",
		"Builtin.ShaderWorld.vert.glsl": "Builtin.ShaderWorld",
		"world.vert.spv":                "world",
		"shaders/deep/post.frag":        "post",
		"noext":                         "noext",
	}
	for file, want := range cases {
		assert.Equal(t, want, shaderName(file), "file %q", file)
	}
}

func TestShaderWatcherDrain(t *testing.T) {
	dir := t.TempDir()

	w, err := NewShaderWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	assert.Empty(t, w.Drain())

	file := filepath.Join(dir, "Builtin.ShaderWorld.frag.glsl")
	require.NoError(t, os.WriteFile(file, []byte("// edited"), 0o644))

	require.Eventually(t, func() bool {
		for _, name := range w.Drain() {
			if name == "Builtin.ShaderWorld" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	// Drain clears the pending set.
	assert.Empty(t, w.Drain())
}
