package renderer

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/lumen/engine/containers"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/command"
	"github.com/spaghettifunk/lumen/engine/renderer/frontend"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/path"
	"github.com/spaghettifunk/lumen/engine/renderer/sorter"
)

// Config wires a renderer instance.
type Config struct {
	AppName string
	Width   uint32
	Height  uint32
	// Resolver is the asset collaborator used by the frontend and backends.
	Resolver metadata.AssetResolver
	// OnMissingAsset decides skip vs fallback for unresolvable handles.
	OnMissingAsset frontend.MissingAssetPolicy
	// FramesInFlight bounds how many frames may be pipelined. Default 2,
	// clamped to [1, 4].
	FramesInFlight int
	// ShaderDir, when set, is watched for shader source changes; affected
	// pipeline objects are invalidated at the next frame boundary.
	ShaderDir string
}

// Renderer owns the three-stage flow: frontend command generation, sorting
// and backend dispatch. Frontend and sorter are pure CPU transforms; every
// backend call stays on the goroutine that drives DrawFrame or Run — the
// render thread.
type Renderer struct {
	backend    Backend
	dispatcher *Dispatcher
	frontend   *frontend.Frontend
	renderPath *path.RenderPath

	pool    *containers.RingQueue[*command.Buffer]
	inFlight int

	clock   *core.Clock
	metrics *core.FrameMetrics
	watcher *ShaderWatcher
}

// New initializes the backend and builds a renderer around it.
func New(backend Backend, cfg Config) (*Renderer, error) {
	fe, err := frontend.New(frontend.Config{
		Resolver:       cfg.Resolver,
		OnMissingAsset: cfg.OnMissingAsset,
	})
	if err != nil {
		return nil, err
	}

	if err := backend.Initialize(cfg.AppName, cfg.Width, cfg.Height, cfg.Resolver); err != nil {
		return nil, fmt.Errorf("backend initialize: %w", err)
	}

	inFlight := cfg.FramesInFlight
	if inFlight <= 0 {
		inFlight = 2
	}
	inFlight = math.Clamp(inFlight, 1, 4)
	// One spare buffer beyond the in-flight count so the producer never
	// waits on the consumer's recycle.
	pool := containers.NewRingQueue[*command.Buffer](inFlight + 1)
	for i := 0; i < inFlight+1; i++ {
		if err := pool.Enqueue(command.NewBuffer()); err != nil {
			return nil, err
		}
	}

	r := &Renderer{
		backend:    backend,
		dispatcher: NewDispatcher(backend),
		frontend:   fe,
		pool:       pool,
		inFlight:   inFlight,
		clock:      core.NewClock(),
		metrics:    core.NewFrameMetrics(),
	}

	if cfg.ShaderDir != "" {
		w, err := NewShaderWatcher(cfg.ShaderDir)
		if err != nil {
			return nil, fmt.Errorf("shader watcher: %w", err)
		}
		r.watcher = w
	}
	return r, nil
}

// LoadPath installs a validated render path. Called once at startup; the
// path is immutable afterwards.
func (r *Renderer) LoadPath(rp *path.RenderPath) {
	r.renderPath = rp
}

// LoadPathFile loads and installs a render path description from disk.
func (r *Renderer) LoadPathFile(name string) error {
	rp, err := path.LoadFile(name)
	if err != nil {
		return err
	}
	r.renderPath = rp
	return nil
}

// Metrics exposes the rolling frame statistics.
func (r *Renderer) Metrics() *core.FrameMetrics {
	return r.metrics
}

// Dispatcher exposes the dispatch layer, mainly for stats.
func (r *Renderer) Dispatcher() *Dispatcher {
	return r.dispatcher
}

// Frontend exposes the command generator, mainly for diagnostics counters.
func (r *Renderer) Frontend() *frontend.Frontend {
	return r.frontend
}

// Resized forwards a surface resize from the windowing collaborator.
func (r *Renderer) Resized(width, height uint16) error {
	return r.backend.Resized(width, height)
}

// Reinitialize recovers a backend from StateLost. The pipeline cache was
// already dropped when the loss was detected.
func (r *Renderer) Reinitialize(cfg Config) error {
	return r.backend.Initialize(cfg.AppName, cfg.Width, cfg.Height, cfg.Resolver)
}

func (r *Renderer) acquireBuffer() *command.Buffer {
	buf, err := r.pool.Dequeue()
	if err != nil {
		// Pool exhausted; allocate rather than stall.
		return command.NewBuffer()
	}
	return buf
}

func (r *Renderer) recycleBuffer(buf *command.Buffer) {
	buf.Reset()
	// A full pool drops the buffer; it was an overflow allocation.
	_ = r.pool.Enqueue(buf)
}

// DrawFrame runs the strict sequential three-stage flow for one frame:
// process, sort, dispatch. Must be called from the render thread.
func (r *Renderer) DrawFrame(frame *metadata.Frame, deltaTime float64) error {
	if r.renderPath == nil {
		return core.ErrPathNotLoaded
	}
	r.drainInvalidations()

	r.clock.Start()
	buf := r.acquireBuffer()
	defer r.recycleBuffer(buf)

	if err := r.frontend.Process(frame, r.renderPath, buf); err != nil {
		return err
	}
	sorter.Sort(buf)

	if err := r.execute(buf, deltaTime); err != nil {
		return err
	}

	r.clock.Update()
	r.observeFrame(r.clock.Elapsed())
	return nil
}

func (r *Renderer) execute(buf *command.Buffer, deltaTime float64) error {
	if err := r.backend.BeginFrame(deltaTime); err != nil {
		return err
	}
	if err := r.dispatcher.Execute(buf); err != nil {
		return err
	}
	return r.backend.EndFrame(deltaTime)
}

func (r *Renderer) observeFrame(elapsed float64) {
	r.metrics.Update(elapsed)
	if ms := elapsed * 1000.0; ms > core.FrameBudgetMS {
		core.LogWarn("frame took %.2fms, over the %.0fms budget (%s)", ms, core.FrameBudgetMS, r.dispatcher.Stats())
	}
}

// Run consumes frame snapshots from the channel until it closes or the
// context is cancelled, pipelining frames: command generation and sorting
// for frame N+1 happen on a worker goroutine while the calling goroutine,
// which must be the render thread, dispatches frame N. Distinct pooled
// buffers keep the stages of different frames free of shared mutable state.
// A device-lost error stops frame intake immediately and is returned.
func (r *Renderer) Run(ctx context.Context, frames <-chan *metadata.Frame, deltaTime float64) error {
	if r.renderPath == nil {
		return core.ErrPathNotLoaded
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prepared := make(chan *command.Buffer, r.inFlight)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(prepared)
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case frame, ok := <-frames:
				if !ok {
					return nil
				}
				buf := r.acquireBuffer()
				if err := r.frontend.Process(frame, r.renderPath, buf); err != nil {
					r.recycleBuffer(buf)
					return err
				}
				sorter.Sort(buf)
				select {
				case prepared <- buf:
				case <-gctx.Done():
					r.recycleBuffer(buf)
					return gctx.Err()
				}
			}
		}
	})

	var execErr error
	for buf := range prepared {
		if execErr != nil {
			// Draining after failure; frames are dropped, not dispatched.
			r.recycleBuffer(buf)
			continue
		}
		r.clock.Start()
		if err := r.execute(buf, deltaTime); err != nil {
			execErr = err
			cancel()
		}
		r.clock.Update()
		r.observeFrame(r.clock.Elapsed())
		r.recycleBuffer(buf)
		r.drainInvalidations()
	}

	if err := g.Wait(); err != nil && execErr == nil && !errors.Is(err, context.Canceled) {
		execErr = err
	}
	return execErr
}

// drainInvalidations applies pending shader hot-reload evictions. Runs on
// the render thread at frame boundaries to preserve the pipeline cache's
// single-thread invariant.
func (r *Renderer) drainInvalidations() {
	if r.watcher == nil {
		return
	}
	for _, shader := range r.watcher.Drain() {
		r.dispatcher.InvalidateShader(shader)
	}
}

// Shutdown releases the watcher and the backend.
func (r *Renderer) Shutdown() error {
	if r.watcher != nil {
		r.watcher.Close()
	}
	return r.backend.Shutdown()
}
