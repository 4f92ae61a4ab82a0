// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"math"

	"github.com/cockroachdb/errors"
)

// Format is a pixel or vertex attribute format, values match VkFormat
type Format uint32

// Formats used by the presentation core
const (
	FormatUndefined          Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR32G32Sfloat       Format = 103
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Sfloat Format = 109
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "UNDEFINED"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8Srgb:
		return "R8G8B8A8_SRGB"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8Srgb:
		return "B8G8R8A8_SRGB"
	case FormatR32G32Sfloat:
		return "R32G32_SFLOAT"
	case FormatR32G32B32Sfloat:
		return "R32G32B32_SFLOAT"
	case FormatR32G32B32A32Sfloat:
		return "R32G32B32A32_SFLOAT"
	}
	return "FORMAT_UNKNOWN"
}

// ColorSpace values match VkColorSpaceKHR
type ColorSpace uint32

// ColorSpaceSrgbNonlinear is the only color space every surface supports
const ColorSpaceSrgbNonlinear ColorSpace = 0

// PresentMode values match VkPresentModeKHR
type PresentMode uint32

// Presentation modes
const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFifo
	PresentModeFifoRelaxed
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

// AdapterType values match VkPhysicalDeviceType
type AdapterType uint32

// Adapter types
const (
	AdapterTypeOther AdapterType = iota
	AdapterTypeIntegrated
	AdapterTypeDiscrete
	AdapterTypeVirtual
	AdapterTypeCPU
)

func (a AdapterType) String() string {
	switch a {
	case AdapterTypeIntegrated:
		return "integrated"
	case AdapterTypeDiscrete:
		return "discrete"
	case AdapterTypeVirtual:
		return "virtual"
	case AdapterTypeCPU:
		return "cpu"
	}
	return "other"
}

// MarshalText makes adapter types readable in JSON reports
func (a AdapterType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText reads the names written by MarshalText
func (a *AdapterType) UnmarshalText(text []byte) error {
	for t := AdapterTypeOther; t <= AdapterTypeCPU; t++ {
		if t.String() == string(text) {
			*a = t
			return nil
		}
	}
	return errors.Newf("unknown adapter type %q", text)
}

// Status is the non-error outcome of acquire and present
type Status int

// Acquire and present outcomes
const (
	StatusOptimal Status = iota
	StatusSuboptimal
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out-of-date"
	}
	return "unknown"
}

// SharingMode of swapchain images between queue families
type SharingMode int

// Sharing modes
const (
	SharingModeExclusive SharingMode = iota
	SharingModeConcurrent
)

// UndefinedExtent is reported as the current extent by surfaces
// whose size is decided by the swapchain
const UndefinedExtent = math.MaxUint32

// Extent2D is a size in pixels
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Empty reports if either dimension is zero, as happens with minimized windows
func (e Extent2D) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Rect2D is a region of a framebuffer
type Rect2D struct {
	X, Y   int32
	Extent Extent2D
}

// Viewport transforms normalized coordinates into framebuffer coordinates
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// SurfaceCapabilities reports what a surface allows for swapchains
type SurfaceCapabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

// SurfaceFormat pairs a pixel format with a color space
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// QueueFamily describes a group of queues with the same capabilities
type QueueFamily struct {
	Index      uint32
	QueueCount uint32
	Graphics   bool
	Compute    bool
	Transfer   bool
}

// MemoryProperty flags, values match VkMemoryPropertyFlagBits
type MemoryProperty uint32

// Memory properties
const (
	MemoryDeviceLocal  MemoryProperty = 0x1
	MemoryHostVisible  MemoryProperty = 0x2
	MemoryHostCoherent MemoryProperty = 0x4
	MemoryHostCached   MemoryProperty = 0x8
)

// MemoryType is a memory type an adapter exposes
type MemoryType struct {
	Properties MemoryProperty
	HeapIndex  uint32
}

// MemoryRequirements of a resource
type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// BufferUsage flags, values match VkBufferUsageFlagBits
type BufferUsage uint32

// Buffer usages
const (
	BufferUsageTransferSrc BufferUsage = 0x1
	BufferUsageTransferDst BufferUsage = 0x2
	BufferUsageVertex      BufferUsage = 0x80
)

// ShaderStage identifies a programmable pipeline stage
type ShaderStage int

// Shader stages
const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

// VertexBinding describes how vertices are laid out in a buffer
type VertexBinding struct {
	Binding uint32
	Stride  uint32
}

// VertexAttribute describes a single attribute of a vertex
type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

// ShaderStageInfo is a shader module bound to a stage
type ShaderStageInfo struct {
	Stage  ShaderStage
	Module ShaderModule
	Entry  string
}

// InstanceCreateInfo configures instance creation
type InstanceCreateInfo struct {
	ApplicationName string
	EngineName      string
	Extensions      []string
	Layers          []string
}

// DeviceCreateInfo configures logical device creation,
// one queue is created for every family in QueueFamilies
type DeviceCreateInfo struct {
	QueueFamilies []uint32
	Extensions    []string
}

// SwapchainCreateInfo configures swapchain creation
type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	PresentMode   PresentMode
	SharingMode   SharingMode
	QueueFamilies []uint32
	OldSwapchain  Swapchain
}

// ImageViewCreateInfo configures a 2D color view of a swapchain image
type ImageViewCreateInfo struct {
	Image  Image
	Format Format
}

// FramebufferCreateInfo configures a framebuffer
type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
}

// RenderPassCreateInfo configures a single subpass render pass
// with one color attachment that ends in a presentable layout
type RenderPassCreateInfo struct {
	ColorFormat Format
}

// GraphicsPipelineCreateInfo configures a graphics pipeline
type GraphicsPipelineCreateInfo struct {
	Stages           []ShaderStageInfo
	VertexBindings   []VertexBinding
	VertexAttributes []VertexAttribute
	Extent           Extent2D
	DynamicViewport  bool
	Layout           PipelineLayout
	RenderPass       RenderPass
}

// BufferCreateInfo configures a buffer
type BufferCreateInfo struct {
	Size  uint64
	Usage BufferUsage
}

// RenderPassBeginInfo starts a render pass instance
type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Area        Rect2D
	ClearColor  [4]float32
}

// PipelineStage flags, values match VkPipelineStageFlagBits
type PipelineStage uint32

// PipelineStageColorAttachmentOutput is where writes to swapchain images begin
const PipelineStageColorAttachmentOutput PipelineStage = 0x400

// SubmitInfo describes a single command buffer submission
type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStage
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
	Fence            Fence
}

// PresentInfo describes presentation of a single swapchain image
type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}
