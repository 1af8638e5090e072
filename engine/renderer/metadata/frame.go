package metadata

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/lumen/engine/math"
)

// RenderObject is one renderable mesh/material/transform triple inside a
// frame snapshot.
type RenderObject struct {
	Mesh        MeshHandle
	Material    MaterialHandle
	Transform   math.Mat4
	Visible     bool
	Transparent bool
}

/** @brief The type of a light source. */
type LightType uint8

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

// Light is one light source inside a frame snapshot.
type Light struct {
	Type      LightType
	Colour    math.Vec4
	Intensity float32
	Position  math.Vec3
	Direction math.Vec3
}

// Frame is the per-tick snapshot handed to the renderer by the host engine.
// The renderer borrows it for the duration of one draw call, never mutates
// it and never retains it past the tick boundary.
type Frame struct {
	// ID identifies the snapshot in diagnostics and replay logs.
	ID string
	// CameraPosition is used for transparent back-to-front depth ordering.
	CameraPosition math.Vec3
	Objects        []RenderObject
	Lights         []Light
}

// NewFrame allocates a frame snapshot with a fresh identifier.
func NewFrame(cameraPosition math.Vec3) *Frame {
	return &Frame{
		ID:             uuid.New().String(),
		CameraPosition: cameraPosition,
	}
}
