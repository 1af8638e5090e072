// Package command defines the renderer's intermediate representation: a
// stream of stateless commands produced by the frontend, reordered by the
// sorter and consumed by a backend dispatcher, all within a single tick.
//
// Each command is fully specified by value or by immutable handle — it never
// points at mutable engine state. That is what keeps frontend correctness
// independent of backend implementation details.
package command

import (
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Op tags the command variant.
type Op uint8

const (
	// OpClear clears the bound target to Colour.
	OpClear Op = iota
	// OpDraw issues one draw of Mesh with Material under Transform, with
	// the GPU state fingerprinted by Key.
	OpDraw
	// OpBarrier orders GPU work across it. Never reordered.
	OpBarrier
	// OpBindTarget switches the output target. Never reordered.
	OpBindTarget
	// OpBindLight uploads one light for the draws that follow in the stage.
	OpBindLight
)

func (op Op) String() string {
	switch op {
	case OpClear:
		return "Clear"
	case OpDraw:
		return "Draw"
	case OpBarrier:
		return "Barrier"
	case OpBindTarget:
		return "BindTarget"
	case OpBindLight:
		return "BindLight"
	}
	return "Unknown"
}

// Command is the IR unit. One flat struct instead of an interface keeps the
// stream allocation-free and comparable, which the determinism tests rely on.
// Which fields are meaningful depends on Op.
type Command struct {
	Op Op

	// Draw payload.
	Key       metadata.PipelineKey
	Mesh      metadata.MeshHandle
	Material  metadata.MaterialHandle
	Transform math.Mat4
	// Depth is the camera distance used for transparent ordering.
	Depth float32

	// Clear payload.
	Colour math.Vec4

	// BindTarget payload.
	Target metadata.TargetHandle

	// BindLight payload.
	Light metadata.Light
}
