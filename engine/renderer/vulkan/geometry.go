package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/math"
)

// vertexStride is the byte size of math.Vertex3D.
const vertexStride uint32 = (3 + 3 + 2 + 4) * 4

// vertexAttributes describes the interleaved Vertex3D layout: position,
// normal, texcoord, colour.
var vertexAttributes = []vk.VertexInputAttributeDescription{
	{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
	{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 3 * 4},
	{Location: 2, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 6 * 4},
	{Location: 3, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: 8 * 4},
}

type vkGeometry struct {
	vertexBuffer vk.Buffer
	vertexMemory vk.DeviceMemory
	indexBuffer  vk.Buffer
	indexMemory  vk.DeviceMemory
	indexCount   uint32
}

// uploadGeometry creates host-visible vertex and index buffers and copies
// the mesh data in. Host-visible memory is enough for the modest scenes this
// path serves; a device-local staging copy is a later optimization.
func uploadGeometry(ctx *Context, vertices []math.Vertex3D, indices []uint32) (*vkGeometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("mesh has no geometry (%d vertices, %d indices)", len(vertices), len(indices))
	}
	geo := &vkGeometry{indexCount: uint32(len(indices))}

	vertexBytes := vertexSliceBytes(vertices)
	buf, mem, err := createFilledBuffer(ctx, vertexBytes, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, err
	}
	geo.vertexBuffer, geo.vertexMemory = buf, mem

	indexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4)
	buf, mem, err = createFilledBuffer(ctx, indexBytes, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		geo.destroy(ctx)
		return nil, err
	}
	geo.indexBuffer, geo.indexMemory = buf, mem

	return geo, nil
}

func vertexSliceBytes(vertices []math.Vertex3D) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(vertexStride))
}

func createFilledBuffer(ctx *Context, data []byte, usage vk.BufferUsageFlags) (vk.Buffer, vk.DeviceMemory, error) {
	size := vk.DeviceSize(len(data))

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	bufferCreateInfo.Deref()

	var buffer vk.Buffer
	if result := vk.CreateBuffer(ctx.Device, &bufferCreateInfo, ctx.Allocator, &buffer); !resultIsSuccess(result) {
		return vk.NullBuffer, vk.NullDeviceMemory, resultErr("vkCreateBuffer", result)
	}

	var memReq vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(ctx.Device, buffer, &memReq)
	memReq.Deref()

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReq.Size,
		MemoryTypeIndex: ctx.HostVisibleMemoryIndex,
	}
	allocInfo.Deref()

	var memory vk.DeviceMemory
	if result := vk.AllocateMemory(ctx.Device, &allocInfo, ctx.Allocator, &memory); !resultIsSuccess(result) {
		vk.DestroyBuffer(ctx.Device, buffer, ctx.Allocator)
		return vk.NullBuffer, vk.NullDeviceMemory, resultErr("vkAllocateMemory", result)
	}
	if result := vk.BindBufferMemory(ctx.Device, buffer, memory, 0); !resultIsSuccess(result) {
		vk.FreeMemory(ctx.Device, memory, ctx.Allocator)
		vk.DestroyBuffer(ctx.Device, buffer, ctx.Allocator)
		return vk.NullBuffer, vk.NullDeviceMemory, resultErr("vkBindBufferMemory", result)
	}

	var mapped unsafe.Pointer
	if result := vk.MapMemory(ctx.Device, memory, 0, size, 0, &mapped); !resultIsSuccess(result) {
		vk.FreeMemory(ctx.Device, memory, ctx.Allocator)
		vk.DestroyBuffer(ctx.Device, buffer, ctx.Allocator)
		return vk.NullBuffer, vk.NullDeviceMemory, resultErr("vkMapMemory", result)
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(ctx.Device, memory)

	return buffer, memory, nil
}

func (g *vkGeometry) bind(cmdBuf vk.CommandBuffer) {
	vk.CmdBindVertexBuffers(cmdBuf, 0, 1, []vk.Buffer{g.vertexBuffer}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmdBuf, g.indexBuffer, 0, vk.IndexTypeUint32)
}

func (g *vkGeometry) destroy(ctx *Context) {
	if g.vertexBuffer != vk.NullBuffer {
		vk.DestroyBuffer(ctx.Device, g.vertexBuffer, ctx.Allocator)
		vk.FreeMemory(ctx.Device, g.vertexMemory, ctx.Allocator)
		g.vertexBuffer = vk.NullBuffer
	}
	if g.indexBuffer != vk.NullBuffer {
		vk.DestroyBuffer(ctx.Device, g.indexBuffer, ctx.Allocator)
		vk.FreeMemory(ctx.Device, g.indexMemory, ctx.Allocator)
		g.indexBuffer = vk.NullBuffer
	}
}
