// Package vulkan dispatches renderer commands through Vulkan. Instance,
// device, swapchain and render pass creation belong to the host: the backend
// records into a command buffer the host has already begun inside its render
// pass, which keeps surface and frame-acquisition ownership outside the
// renderer core.
package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Context is the device environment supplied by the host engine.
type Context struct {
	// Device is the logical device every resource is created against.
	Device vk.Device
	// Queue receives the recorded work at submit time (host-owned).
	Queue vk.Queue
	// RenderPass is the pass the graphics pipelines are compatible with.
	RenderPass vk.RenderPass
	// CommandBuffer is in the recording state, inside RenderPass, for the
	// duration of one frame.
	CommandBuffer vk.CommandBuffer
	// Allocator is the optional host allocation callback set.
	Allocator *vk.AllocationCallbacks
	// HostVisibleMemoryIndex is the memory type index used for staging
	// vertex and index data, picked by the host from the physical device's
	// memory properties (host-visible | host-coherent).
	HostVisibleMemoryIndex uint32
	// FramebufferWidth/Height describe the current swapchain extent.
	FramebufferWidth  uint32
	FramebufferHeight uint32
}
