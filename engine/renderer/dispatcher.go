package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/command"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// DispatchStats counts what one Execute call did.
type DispatchStats struct {
	DrawCalls      int
	PipelineBinds  int
	PipelineBuilds int
	Clears         int
	Barriers       int
	LightBinds     int
}

func (s DispatchStats) String() string {
	return fmt.Sprintf("%d draws, %d pipeline binds (%d built), %d clears, %d barriers, %d light binds",
		s.DrawCalls, s.PipelineBinds, s.PipelineBuilds, s.Clears, s.Barriers, s.LightBinds)
}

// Dispatcher translates a sorted command stream into backend capability
// calls. It owns the pipeline cache: pipeline objects are built lazily on the
// first occurrence of a key and reused for the life of the process unless
// explicitly invalidated.
//
// The cache is mutated only from the single render thread that drives
// Execute; that invariant is what lets it go without locking. Building
// pipelines from any other goroutine would require a concurrent map or a
// compare-and-swap insert.
type Dispatcher struct {
	backend   Backend
	pipelines map[metadata.PipelineKey]PipelineHandle
	stats     DispatchStats
}

func NewDispatcher(backend Backend) *Dispatcher {
	return &Dispatcher{
		backend:   backend,
		pipelines: make(map[metadata.PipelineKey]PipelineHandle),
	}
}

// Stats returns the counters of the most recent Execute call.
func (d *Dispatcher) Stats() DispatchStats {
	return d.stats
}

// PipelineCount returns how many pipeline objects are currently cached.
func (d *Dispatcher) PipelineCount() int {
	return len(d.pipelines)
}

// Execute walks the buffer and issues backend calls. A device-lost error
// halts dispatch of the remaining commands immediately and is propagated;
// the host decides between abort and reinitialization. Must be called from
// the render thread.
func (d *Dispatcher) Execute(buf *command.Buffer) error {
	if d.backend.State() != StateReady {
		return fmt.Errorf("dispatch in state %s: %w", d.backend.State(), core.ErrBackendNotReady)
	}

	d.stats = DispatchStats{}
	bound := PipelineHandle(0)
	hasBound := false

	cmds := buf.Commands()
	for i := range cmds {
		cmd := &cmds[i]
		var err error
		switch cmd.Op {
		case command.OpClear:
			d.stats.Clears++
			err = d.backend.Clear(cmd.Colour)

		case command.OpBindTarget:
			err = d.backend.BindTarget(cmd.Target)

		case command.OpBarrier:
			d.stats.Barriers++
			err = d.backend.Barrier()

		case command.OpBindLight:
			d.stats.LightBinds++
			err = d.backend.BindLight(cmd.Light)

		case command.OpDraw:
			handle, ok := d.pipelines[cmd.Key]
			if !ok {
				handle, err = d.backend.BuildPipeline(cmd.Key)
				if err != nil {
					return d.fail(err)
				}
				d.pipelines[cmd.Key] = handle
				d.stats.PipelineBuilds++
			}
			if !hasBound || handle != bound {
				if err = d.backend.BindPipeline(handle); err != nil {
					return d.fail(err)
				}
				bound, hasBound = handle, true
				d.stats.PipelineBinds++
			}
			d.stats.DrawCalls++
			err = d.backend.Draw(DrawCall{Mesh: cmd.Mesh, Material: cmd.Material, Transform: cmd.Transform})
		}
		if err != nil {
			return d.fail(err)
		}
	}
	return nil
}

// fail classifies a backend error. Device loss invalidates every cached
// pipeline handle, since they belong to the dead device generation.
func (d *Dispatcher) fail(err error) error {
	var lost *core.DeviceLostError
	if errors.As(err, &lost) {
		core.LogError("device lost, halting dispatch: %s", err.Error())
		d.pipelines = make(map[metadata.PipelineKey]PipelineHandle)
	}
	return err
}

// InvalidateShader evicts every cached pipeline whose key names the given
// shader, forcing a rebuild on next use. Called from the render thread at
// frame boundaries (shader hot-reload).
func (d *Dispatcher) InvalidateShader(shader string) int {
	evicted := 0
	for key, handle := range d.pipelines {
		if key.Shader == shader {
			d.backend.DestroyPipeline(handle)
			delete(d.pipelines, key)
			evicted++
		}
	}
	if evicted > 0 {
		core.LogInfo("invalidated %d pipeline(s) for shader %q", evicted, shader)
	}
	return evicted
}
