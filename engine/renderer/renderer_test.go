package renderer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/path"
)

func newTestRenderer(t *testing.T) (*renderer.Renderer, *headless.Backend) {
	t.Helper()
	backend := headless.New()
	r, err := renderer.New(backend, renderer.Config{
		AppName:  "test",
		Width:    640,
		Height:   480,
		Resolver: stubResolver{},
	})
	require.NoError(t, err)

	rp, err := path.New(path.Layer{
		Name:   "world",
		Camera: "camera.main",
		Scene:  "scene.main",
		Stages: []path.Stage{
			{Kind: metadata.StageClear, ClearColour: math.NewVec4(0, 0, 0, 1)},
			{Kind: metadata.StageDrawOpaque},
			{Kind: metadata.StageDrawTransparent},
		},
	})
	require.NoError(t, err)
	r.LoadPath(rp)
	return r, backend
}

func testFrame(objects ...metadata.RenderObject) *metadata.Frame {
	frame := metadata.NewFrame(math.NewVec3(0, 0, 10))
	frame.Objects = objects
	return frame
}

func visibleObject(mesh metadata.MeshHandle, z float32, transparent bool) metadata.RenderObject {
	return metadata.RenderObject{
		Mesh:        mesh,
		Material:    1,
		Transform:   math.NewMat4Translation(math.NewVec3(0, 0, z)),
		Visible:     true,
		Transparent: transparent,
	}
}

func TestDrawFrameEndToEnd(t *testing.T) {
	r, backend := newTestRenderer(t)

	frame := testFrame(
		visibleObject(1, 0, false),
		visibleObject(2, 1, false),
		visibleObject(3, 2, true),
	)
	require.NoError(t, r.DrawFrame(frame, 1.0/60.0))

	records := backend.Records()
	require.NotEmpty(t, records)
	assert.Equal(t, "clear", records[0].Kind)

	draws := 0
	for _, rec := range records {
		if rec.Kind == "draw" {
			draws++
		}
	}
	assert.Equal(t, 3, draws)
	assert.Equal(t, 3, r.Dispatcher().Stats().DrawCalls)
	assert.Equal(t, uint64(1), r.Metrics().Frames())
}

func TestDrawFrameWithoutPath(t *testing.T) {
	backend := headless.New()
	r, err := renderer.New(backend, renderer.Config{AppName: "test", Resolver: stubResolver{}})
	require.NoError(t, err)

	err = r.DrawFrame(testFrame(), 0.016)
	assert.ErrorIs(t, err, core.ErrPathNotLoaded)
}

func TestDrawFrameDeviceLossAndRecovery(t *testing.T) {
	r, backend := newTestRenderer(t)
	cfg := renderer.Config{AppName: "test", Width: 640, Height: 480, Resolver: stubResolver{}}

	require.NoError(t, r.DrawFrame(testFrame(visibleObject(1, 0, false)), 0.016))

	backend.InjectDeviceLoss()
	err := r.DrawFrame(testFrame(visibleObject(1, 0, false)), 0.016)
	var lost *core.DeviceLostError
	require.ErrorAs(t, err, &lost)
	assert.Equal(t, renderer.StateLost, backend.State())

	require.NoError(t, r.Reinitialize(cfg))
	assert.Equal(t, renderer.StateReady, backend.State())
	require.NoError(t, r.DrawFrame(testFrame(visibleObject(1, 0, false)), 0.016))
}

func TestRunPipelinedFrames(t *testing.T) {
	r, backend := newTestRenderer(t)

	frames := make(chan *metadata.Frame)
	go func() {
		defer close(frames)
		for i := 0; i < 8; i++ {
			frames <- testFrame(visibleObject(1, float32(i), false))
		}
	}()

	require.NoError(t, r.Run(context.Background(), frames, 0.016))

	draws := 0
	for _, rec := range backend.Records() {
		if rec.Kind == "draw" {
			draws++
		}
	}
	assert.Equal(t, 8, draws)
	assert.Equal(t, uint64(8), r.Metrics().Frames())
}

// The buffer pool is shared between the preparation goroutine and the render
// thread, so a long pipelined run under -race must stay clean and never hand
// the same buffer to two frames at once.
func TestRunPipelinedBufferPoolUnderLoad(t *testing.T) {
	const frameCount = 2000
	r, backend := newTestRenderer(t)

	frames := make(chan *metadata.Frame)
	go func() {
		defer close(frames)
		for i := 0; i < frameCount; i++ {
			frames <- testFrame(visibleObject(1, float32(i%16), false))
		}
	}()

	require.NoError(t, r.Run(context.Background(), frames, 0.016))

	draws := 0
	for _, rec := range backend.Records() {
		if rec.Kind == "draw" {
			draws++
		}
	}
	assert.Equal(t, frameCount, draws)
	assert.Equal(t, uint64(frameCount), r.Metrics().Frames())
}

func TestRunStopsOnDeviceLoss(t *testing.T) {
	r, backend := newTestRenderer(t)

	// Buffered so the producer finishes even after intake stops.
	frames := make(chan *metadata.Frame, 16)
	for i := 0; i < 16; i++ {
		if i == 2 {
			backend.InjectDeviceLoss()
		}
		frames <- testFrame(visibleObject(1, float32(i), false))
	}
	close(frames)

	err := r.Run(context.Background(), frames, 0.016)
	var lost *core.DeviceLostError
	require.ErrorAs(t, err, &lost)
	assert.Equal(t, renderer.StateLost, backend.State())
}

func TestRunHonoursContextCancel(t *testing.T) {
	r, _ := newTestRenderer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames := make(chan *metadata.Frame)
	defer close(frames)
	err := r.Run(ctx, frames, 0.016)
	assert.NoError(t, err)
}
