package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// vertexStride is the byte size of math.Vertex3D: position 3, normal 3,
// texcoord 2, colour 4 float32s, interleaved.
const vertexStride int32 = (3 + 3 + 2 + 4) * 4

type glGeometry struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

func (g *glGeometry) destroy() {
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ebo)
}

// mesh returns the resident geometry for a handle, uploading it on first
// use. Buffers live in an LRU cache; least-recently-drawn meshes lose their
// GPU residency when the cache fills.
func (b *Backend) mesh(handle metadata.MeshHandle) (*glGeometry, error) {
	if handle == metadata.MeshFullscreen {
		return b.fullscreen, nil
	}
	if geo, ok := b.geometry.Get(handle); ok {
		return geo, nil
	}
	data, ok := b.resolver.ResolveMesh(handle)
	if !ok {
		return nil, fmt.Errorf("mesh handle %d did not resolve", handle)
	}
	geo, err := uploadGeometry(data.Vertices, data.Indices)
	if err != nil {
		return nil, fmt.Errorf("mesh handle %d: %w", handle, err)
	}
	b.geometry.Add(handle, geo)
	return geo, nil
}

func uploadGeometry(vertices []math.Vertex3D, indices []uint32) (*glGeometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("mesh has no geometry (%d vertices, %d indices)", len(vertices), len(indices))
	}
	geo := &glGeometry{indexCount: int32(len(indices))}

	gl.GenVertexArrays(1, &geo.vao)
	gl.BindVertexArray(geo.vao)

	gl.GenBuffers(1, &geo.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, geo.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*int(vertexStride), unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &geo.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, geo.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	// position
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexStride, gl.PtrOffset(0))
	// normal
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, vertexStride, gl.PtrOffset(3*4))
	// texcoord
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, vertexStride, gl.PtrOffset(6*4))
	// colour
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, vertexStride, gl.PtrOffset(8*4))

	gl.BindVertexArray(0)
	return geo, nil
}

// newFullscreenTriangle bakes the single oversized triangle used by
// post-process passes: three vertices cover the whole clip space without a
// diagonal seam.
func newFullscreenTriangle() (*glGeometry, error) {
	vertices := []math.Vertex3D{
		{Position: math.NewVec3(-1, -1, 0), Texcoord: math.Vec2{X: 0, Y: 0}, Colour: math.NewVec4(1, 1, 1, 1)},
		{Position: math.NewVec3(3, -1, 0), Texcoord: math.Vec2{X: 2, Y: 0}, Colour: math.NewVec4(1, 1, 1, 1)},
		{Position: math.NewVec3(-1, 3, 0), Texcoord: math.Vec2{X: 0, Y: 2}, Colour: math.NewVec4(1, 1, 1, 1)},
	}
	indices := []uint32{0, 1, 2}
	return uploadGeometry(vertices, indices)
}
