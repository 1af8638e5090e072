package path

import (
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Stage is one step of a layer's pipeline. Kind decides which frame objects
// the frontend routes into it and which fixed GPU state it implies.
type Stage struct {
	Kind metadata.StageKind
	// ClearColour is consumed by Clear stages only.
	ClearColour math.Vec4
	// Shader names the full-screen program of a PostProcess stage. Empty
	// selects the builtin passthrough.
	Shader string
}

// Layer draws one scene through one camera via an ordered list of stages.
type Layer struct {
	Name   string
	Camera string
	Scene  string
	Stages []Stage
}

// RenderPath is the declarative description of the whole render pipeline:
// an ordered list of layers, each with an ordered list of stages. It is
// constructed once at startup, validated, and immutable afterwards. Stage
// order within a layer is significant and is preserved verbatim in the
// emitted command stream.
type RenderPath struct {
	Layers []Layer
}
