package metadata

import (
	"image"

	"github.com/spaghettifunk/lumen/engine/math"
)

/** @brief An invalid handle value, used for unset mesh/material/texture references. */
const InvalidHandle uint32 = 0xFFFFFFFF

// MeshHandle is an opaque, pre-validated reference to geometry owned by the
// asset collaborator. The renderer core never loads meshes itself.
type MeshHandle uint32

// MeshFullscreen is a reserved handle that backends satisfy with a baked
// full-screen triangle. It never resolves through the asset layer.
const MeshFullscreen MeshHandle = 0xFFFFFFFE

// MaterialHandle is an opaque reference to a material owned by the asset
// collaborator.
type MaterialHandle uint32

// TextureHandle is an opaque reference to a texture owned by the asset
// collaborator.
type TextureHandle uint32

// TargetHandle identifies a render target. TargetDefault is the swapchain /
// default framebuffer; offscreen targets are allocated by backends.
type TargetHandle uint32

const TargetDefault TargetHandle = 0

// MeshData is the resolved vertex/index payload behind a MeshHandle.
type MeshData struct {
	Name     string
	Vertices []math.Vertex3D
	Indices  []uint32
}

// MaterialData is the resolved state behind a MaterialHandle. It carries
// everything needed to derive a pipeline key plus the per-draw uniform values.
type MaterialData struct {
	Name          string
	Shader        string
	Blend         BlendMode
	CullMode      FaceCullMode
	DiffuseColour math.Vec4
	DiffuseMap    TextureHandle
}

// ShaderData is the resolved source behind a shader name. Backends pick the
// representation they consume: GLSL text for OpenGL, SPIR-V words for Vulkan.
type ShaderData struct {
	Name           string
	VertexSource   string
	FragmentSource string
	VertexSPIRV    []uint32
	FragmentSPIRV  []uint32
	// RequiresGeometryStage marks shaders that need a geometry stage, which
	// not every backend can provide.
	RequiresGeometryStage bool
}

// AssetResolver is the boundary to the asset-loading collaborator. Handles
// that fail to resolve are subject to the frontend's missing-asset policy.
type AssetResolver interface {
	ResolveMesh(handle MeshHandle) (*MeshData, bool)
	ResolveMaterial(handle MaterialHandle) (*MaterialData, bool)
	ResolveShader(name string) (*ShaderData, bool)
	ResolveTexture(handle TextureHandle) (image.Image, bool)
}
