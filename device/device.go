// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device describes a non-concrete rendering device. Every GPU object
// is an opaque handle owned by a Driver, the zero value of each handle is the
// null handle.
package device

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Handles of the objects a Driver hands out
type (
	Instance       uint64
	Surface        uint64
	Adapter        uint64
	Device         uint64
	Queue          uint64
	Swapchain      uint64
	Image          uint64
	ImageView      uint64
	Framebuffer    uint64
	RenderPass     uint64
	PipelineLayout uint64
	Pipeline       uint64
	ShaderModule   uint64
	CommandPool    uint64
	CommandBuffer  uint64
	Semaphore      uint64
	Fence          uint64
	Buffer         uint64
	DeviceMemory   uint64
	DebugMessenger uint64
)

// Errors a Driver reports for conditions callers act upon
var (
	ErrTimeout       = errors.New("device: wait timed out")
	ErrSurfaceLost   = errors.New("device: surface lost")
	ErrDeviceLost    = errors.New("device: device lost")
	ErrInvalidHandle = errors.New("device: invalid handle")
)

// Infinite is used as a timeout for waits that never expire
const Infinite = time.Duration(1<<63 - 1)

// SwapchainExtension is the device extension needed for presentation
const SwapchainExtension = "VK_KHR_swapchain"

// DebugReportExtension is the instance extension needed for debug reporting
const DebugReportExtension = "VK_EXT_debug_report"

// ValidationLayer is requested in debug mode
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Type          AdapterType
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint64
}

// HasExtension reports if the device lists the named extension
func (p PhysicalDeviceInfo) HasExtension(name string) bool {
	for _, ext := range p.Extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// InstanceDriver creates instances and everything scoped directly to them
type InstanceDriver interface {
	AvailableExtensions() ([]string, error)
	AvailableLayers() ([]string, error)
	CreateInstance(InstanceCreateInfo) (Instance, error)
	DestroyInstance(Instance)

	CreateDebugMessenger(Instance, DebugObserver) (DebugMessenger, error)
	DestroyDebugMessenger(Instance, DebugMessenger)

	DestroySurface(Instance, Surface)
	EnumerateAdapters(Instance) ([]Adapter, error)
}

// AdapterDriver queries physical device properties
type AdapterDriver interface {
	AdapterInfo(Adapter) PhysicalDeviceInfo
	QueueFamilies(Adapter) []QueueFamily
	MemoryTypes(Adapter) []MemoryType
	SurfaceSupport(Adapter, uint32, Surface) (bool, error)
	SurfaceCapabilities(Adapter, Surface) (SurfaceCapabilities, error)
	SurfaceFormats(Adapter, Surface) ([]SurfaceFormat, error)
	SurfacePresentModes(Adapter, Surface) ([]PresentMode, error)
}

// ResourceDriver creates and destroys logical device scoped objects
type ResourceDriver interface {
	CreateDevice(Adapter, DeviceCreateInfo) (Device, error)
	DestroyDevice(Device)
	GetQueue(d Device, family, index uint32) Queue
	WaitIdle(Device) error

	CreateSwapchain(Device, SwapchainCreateInfo) (Swapchain, error)
	DestroySwapchain(Device, Swapchain)
	SwapchainImages(Device, Swapchain) ([]Image, error)
	CreateImageView(Device, ImageViewCreateInfo) (ImageView, error)
	DestroyImageView(Device, ImageView)
	CreateFramebuffer(Device, FramebufferCreateInfo) (Framebuffer, error)
	DestroyFramebuffer(Device, Framebuffer)

	CreateRenderPass(Device, RenderPassCreateInfo) (RenderPass, error)
	DestroyRenderPass(Device, RenderPass)
	CreateShaderModule(Device, []byte) (ShaderModule, error)
	DestroyShaderModule(Device, ShaderModule)
	CreatePipelineLayout(Device) (PipelineLayout, error)
	DestroyPipelineLayout(Device, PipelineLayout)
	CreateGraphicsPipeline(Device, GraphicsPipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(Device, Pipeline)

	CreateCommandPool(d Device, family uint32) (CommandPool, error)
	DestroyCommandPool(Device, CommandPool)
	AllocateCommandBuffer(Device, CommandPool) (CommandBuffer, error)
	FreeCommandBuffer(Device, CommandPool, CommandBuffer)

	CreateSemaphore(Device) (Semaphore, error)
	DestroySemaphore(Device, Semaphore)
	CreateFence(d Device, signaled bool) (Fence, error)
	DestroyFence(Device, Fence)
	WaitForFence(Device, Fence, time.Duration) error
	ResetFence(Device, Fence) error

	AcquireNextImage(Device, Swapchain, time.Duration, Semaphore) (uint32, Status, error)

	CreateBuffer(Device, BufferCreateInfo) (Buffer, MemoryRequirements, error)
	DestroyBuffer(Device, Buffer)
	AllocateMemory(d Device, size uint64, typeIndex uint32) (DeviceMemory, error)
	FreeMemory(Device, DeviceMemory)
	BindBufferMemory(Device, Buffer, DeviceMemory) error
	WriteMemory(Device, DeviceMemory, []byte) error
}

// Recorder records commands into a command buffer
type Recorder interface {
	ResetCommandBuffer(CommandBuffer) error
	BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(CommandBuffer) error

	CmdBeginRenderPass(CommandBuffer, RenderPassBeginInfo)
	CmdEndRenderPass(CommandBuffer)
	CmdBindPipeline(CommandBuffer, Pipeline)
	CmdSetViewport(CommandBuffer, Viewport)
	CmdSetScissor(CommandBuffer, Rect2D)
	CmdBindVertexBuffers(CommandBuffer, []Buffer)
	CmdDraw(cb CommandBuffer, vertexCount, instanceCount uint32)
	CmdCopyBuffer(cb CommandBuffer, src, dst Buffer, size uint64)
}

// QueueDriver submits work and presents images
type QueueDriver interface {
	QueueSubmit(Queue, SubmitInfo) error
	QueuePresent(Queue, PresentInfo) (Status, error)
	QueueWaitIdle(Queue) error
}

// Driver is a complete rendering backend
type Driver interface {
	InstanceDriver
	AdapterDriver
	ResourceDriver
	Recorder
	QueueDriver
}
