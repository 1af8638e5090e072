package metadata

/** @brief Determines face culling mode during rendering. */
type FaceCullMode int

const (
	/** @brief No faces are culled. */
	FaceCullModeNone FaceCullMode = 0x0
	/** @brief Only front faces are culled. */
	FaceCullModeFront FaceCullMode = 0x1
	/** @brief Only back faces are culled. */
	FaceCullModeBack FaceCullMode = 0x2
	/** @brief Both front and back faces are culled. */
	FaceCullModeFrontAndBack FaceCullMode = 0x3
)

/** @brief Determines how a fragment's colour is combined with the target. */
type BlendMode int

const (
	/** @brief Fragment replaces the target colour. */
	BlendModeOpaque BlendMode = 0x0
	/** @brief Standard source-alpha / one-minus-source-alpha blending. */
	BlendModeAlpha BlendMode = 0x1
	/** @brief Additive blending, used by some post-process passes. */
	BlendModeAdditive BlendMode = 0x2
)

// StageKind enumerates the recognized render path stage kinds.
type StageKind uint8

const (
	// StageClear clears the stage's target to a colour.
	StageClear StageKind = iota
	// StageDrawOpaque draws depth-tested opaque geometry. Draw order inside
	// the stage is free, which is what the sorter exploits.
	StageDrawOpaque
	// StageDrawTransparent draws blended geometry back-to-front relative to
	// the camera. Order is load-bearing.
	StageDrawTransparent
	// StagePostProcess runs a full-screen pass over the layer's output.
	StagePostProcess
)

func (k StageKind) String() string {
	switch k {
	case StageClear:
		return "Clear"
	case StageDrawOpaque:
		return "DrawOpaque"
	case StageDrawTransparent:
		return "DrawTransparent"
	case StagePostProcess:
		return "PostProcess"
	}
	return "Unknown"
}

// Reorderable reports whether draw commands inside a stage of this kind may
// be reordered freely for state-change minimization.
func (k StageKind) Reorderable() bool {
	return k == StageDrawOpaque || k == StagePostProcess
}
