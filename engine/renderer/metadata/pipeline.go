package metadata

// PipelineKey is a fingerprint of the GPU state a draw command requires:
// shader program, blend mode, depth state, cull mode and bound texture. Two
// commands with equal keys may be reordered freely relative to each other
// unless the stage imposes an explicit order (transparency). The key is
// comparable and is used directly as the pipeline cache map key.
type PipelineKey struct {
	Shader     string
	Blend      BlendMode
	DepthTest  bool
	DepthWrite bool
	CullMode   FaceCullMode
	DiffuseMap TextureHandle
}
