// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkdriver

import (
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/present/device"
)

// CreateDevice implements interface. One queue is created per family.
func (d *Driver) CreateDevice(h device.Adapter, info device.DeviceCreateInfo) (device.Device, error) {
	pd := d.adapter(h)
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(info.QueueFamilies))
	for i, family := range info.QueueFamilies {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		}
	}
	extensions := safeStrings(info.Extensions)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var logical vk.Device
	if err := check(vk.CreateDevice(pd, &dci, nil, &logical), "vk.CreateDevice()"); err != nil {
		return 0, err
	}
	dh := device.Device(d.put(logical))
	d.mu.Lock()
	d.devices[dh] = pd
	d.mu.Unlock()
	return dh, nil
}

// DestroyDevice implements interface, its queues are forgotten
func (d *Driver) DestroyDevice(h device.Device) {
	d.mu.Lock()
	delete(d.devices, h)
	for queue, q := range d.queues {
		delete(d.objects, uint64(q))
		delete(d.queues, queue)
	}
	d.mu.Unlock()
	if logical, ok := d.drop(uint64(h)).(vk.Device); ok {
		vk.DestroyDevice(logical, nil)
	}
}

// GetQueue implements interface, the same queue always gets the same handle
func (d *Driver) GetQueue(h device.Device, family, index uint32) device.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(d.logical(h), family, index, &queue)
	d.mu.RLock()
	q, ok := d.queues[queue]
	d.mu.RUnlock()
	if ok {
		return q
	}
	q = device.Queue(d.put(queue))
	d.mu.Lock()
	d.queues[queue] = q
	d.mu.Unlock()
	return q
}

// WaitIdle implements interface
func (d *Driver) WaitIdle(h device.Device) error {
	return check(vk.DeviceWaitIdle(d.logical(h)), "vk.DeviceWaitIdle()")
}

func (d *Driver) physicalDeviceOf(h device.Device) vk.PhysicalDevice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.devices[h]
}

var compositeAlphaFlags = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

// CreateSwapchain implements interface
func (d *Driver) CreateSwapchain(h device.Device, info device.SwapchainCreateInfo) (device.Swapchain, error) {
	surface := d.surface(info.Surface)
	caps, err := surfaceCapabilities(d.physicalDeviceOf(h), surface)
	if err != nil {
		return 0, err
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range compositeAlphaFlags {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	sharingMode := vk.SharingModeExclusive
	var families []uint32
	if info.SharingMode == device.SharingModeConcurrent {
		sharingMode = vk.SharingModeConcurrent
		families = info.QueueFamilies
	}

	oldSwapchain := vk.NullSwapchain
	if info.OldSwapchain != 0 {
		oldSwapchain = d.swapchain(info.OldSwapchain)
	}

	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   info.MinImageCount,
		ImageFormat:     vk.Format(info.Format.Format),
		ImageColorSpace: vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
		},
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:          caps.CurrentTransform,
		CompositeAlpha:        compositeAlpha,
		PresentMode:           vk.PresentMode(info.PresentMode),
		Clipped:               vk.True,
		ImageArrayLayers:      1,
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(families)),
		PQueueFamilyIndices:   families,
		OldSwapchain:          oldSwapchain,
	}

	var swapchain vk.Swapchain
	if err := check(vk.CreateSwapchain(d.logical(h), &scci, nil, &swapchain), "vk.CreateSwapchain()"); err != nil {
		return 0, err
	}
	return device.Swapchain(d.put(swapchain)), nil
}

// DestroySwapchain implements interface. The images go with it.
func (d *Driver) DestroySwapchain(h device.Device, s device.Swapchain) {
	d.mu.Lock()
	for _, image := range d.images[s] {
		delete(d.objects, uint64(image))
	}
	delete(d.images, s)
	d.mu.Unlock()
	if swapchain, ok := d.drop(uint64(s)).(vk.Swapchain); ok {
		vk.DestroySwapchain(d.logical(h), swapchain, nil)
	}
}

// SwapchainImages implements interface
func (d *Driver) SwapchainImages(h device.Device, s device.Swapchain) ([]device.Image, error) {
	logical, swapchain := d.logical(h), d.swapchain(s)
	var numImages uint32
	if err := check(vk.GetSwapchainImages(logical, swapchain, &numImages, nil), "vk.GetSwapchainImages()"); err != nil {
		return nil, err
	}
	images := make([]vk.Image, numImages)
	if err := check(vk.GetSwapchainImages(logical, swapchain, &numImages, images), "vk.GetSwapchainImages()"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	for _, image := range d.images[s] {
		delete(d.objects, uint64(image))
	}
	d.mu.Unlock()

	out := make([]device.Image, len(images))
	for i, image := range images {
		out[i] = device.Image(d.put(image))
	}
	d.mu.Lock()
	d.images[s] = out
	d.mu.Unlock()
	return out, nil
}

// CreateImageView implements interface
func (d *Driver) CreateImageView(h device.Device, info device.ImageViewCreateInfo) (device.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.image(info.Image),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(info.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var imageView vk.ImageView
	if err := check(vk.CreateImageView(d.logical(h), &ivci, nil, &imageView), "vk.CreateImageView()"); err != nil {
		return 0, err
	}
	return device.ImageView(d.put(imageView)), nil
}

// DestroyImageView implements interface
func (d *Driver) DestroyImageView(h device.Device, v device.ImageView) {
	if imageView, ok := d.drop(uint64(v)).(vk.ImageView); ok {
		vk.DestroyImageView(d.logical(h), imageView, nil)
	}
}

// CreateFramebuffer implements interface
func (d *Driver) CreateFramebuffer(h device.Device, info device.FramebufferCreateInfo) (device.Framebuffer, error) {
	attachments := make([]vk.ImageView, len(info.Attachments))
	for i, a := range info.Attachments {
		attachments[i] = d.imageView(a)
	}
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPass(info.RenderPass),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           info.Extent.Width,
		Height:          info.Extent.Height,
		Layers:          1,
	}
	var framebuffer vk.Framebuffer
	if err := check(vk.CreateFramebuffer(d.logical(h), &fci, nil, &framebuffer), "vk.CreateFramebuffer()"); err != nil {
		return 0, err
	}
	return device.Framebuffer(d.put(framebuffer)), nil
}

// DestroyFramebuffer implements interface
func (d *Driver) DestroyFramebuffer(h device.Device, f device.Framebuffer) {
	if framebuffer, ok := d.drop(uint64(f)).(vk.Framebuffer); ok {
		vk.DestroyFramebuffer(d.logical(h), framebuffer, nil)
	}
}

// CreateRenderPass implements interface. The pass has a single color
// attachment that is cleared and left ready for presentation.
func (d *Driver) CreateRenderPass(h device.Device, info device.RenderPassCreateInfo) (device.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(info.ColorFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := check(vk.CreateRenderPass(d.logical(h), &rpci, nil, &renderPass), "vk.CreateRenderPass()"); err != nil {
		return 0, err
	}
	return device.RenderPass(d.put(renderPass)), nil
}

// DestroyRenderPass implements interface
func (d *Driver) DestroyRenderPass(h device.Device, r device.RenderPass) {
	if renderPass, ok := d.drop(uint64(r)).(vk.RenderPass); ok {
		vk.DestroyRenderPass(d.logical(h), renderPass, nil)
	}
}

// CreateShaderModule implements interface
func (d *Driver) CreateShaderModule(h device.Device, code []byte) (device.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, errors.Newf("shader code of %d bytes is not SPIR-V", len(code))
	}
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}
	var module vk.ShaderModule
	if err := check(vk.CreateShaderModule(d.logical(h), &smci, nil, &module), "vk.CreateShaderModule()"); err != nil {
		return 0, err
	}
	return device.ShaderModule(d.put(module)), nil
}

// DestroyShaderModule implements interface
func (d *Driver) DestroyShaderModule(h device.Device, m device.ShaderModule) {
	if module, ok := d.drop(uint64(m)).(vk.ShaderModule); ok {
		vk.DestroyShaderModule(d.logical(h), module, nil)
	}
}

// CreatePipelineLayout implements interface. Pipelines take no descriptors.
func (d *Driver) CreatePipelineLayout(h device.Device) (device.PipelineLayout, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var layout vk.PipelineLayout
	if err := check(vk.CreatePipelineLayout(d.logical(h), &plci, nil, &layout), "vk.CreatePipelineLayout()"); err != nil {
		return 0, err
	}
	return device.PipelineLayout(d.put(layout)), nil
}

// DestroyPipelineLayout implements interface
func (d *Driver) DestroyPipelineLayout(h device.Device, l device.PipelineLayout) {
	if layout, ok := d.drop(uint64(l)).(vk.PipelineLayout); ok {
		vk.DestroyPipelineLayout(d.logical(h), layout, nil)
	}
}

func shaderStageOf(s device.ShaderStage) vk.ShaderStageFlagBits {
	if s == device.ShaderStageFragment {
		return vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageVertexBit
}

// CreateGraphicsPipeline implements interface
func (d *Driver) CreateGraphicsPipeline(h device.Device, info device.GraphicsPipelineCreateInfo) (device.Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(info.Stages))
	for idx, stage := range info.Stages {
		entry := stage.Entry
		if entry == "" {
			entry = "main"
		}
		stages[idx] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  shaderStageOf(stage.Stage),
			Module: d.shaderModule(stage.Module),
			PName:  entry + "\x00",
		}
	}

	bindings := make([]vk.VertexInputBindingDescription, len(info.VertexBindings))
	for i, b := range info.VertexBindings {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vk.VertexInputRateVertex,
		}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(info.VertexAttributes))
	for i, a := range info.VertexAttributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		}
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	var dynamicState *vk.PipelineDynamicStateCreateInfo
	if info.DynamicViewport {
		dynamicState = &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateScissor,
				vk.DynamicStateViewport,
			},
		}
	} else {
		viewportState.PViewports = []vk.Viewport{{
			Width:    float32(info.Extent.Width),
			Height:   float32(info.Extent.Height),
			MaxDepth: 1,
		}}
		viewportState.PScissors = []vk.Rect2D{{
			Extent: vk.Extent2D{Width: info.Extent.Width, Height: info.Extent.Height},
		}}
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &viewportState,
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		PDynamicState: dynamicState,
		Layout:        d.pipelineLayout(info.Layout),
		RenderPass:    d.renderPass(info.RenderPass),
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := check(vk.CreateGraphicsPipelines(d.logical(h), nil, uint32(len(gpci)), gpci, nil, pipelines),
		"vk.CreateGraphicsPipelines()"); err != nil {
		return 0, err
	}
	return device.Pipeline(d.put(pipelines[0])), nil
}

// DestroyPipeline implements interface
func (d *Driver) DestroyPipeline(h device.Device, p device.Pipeline) {
	if pipeline, ok := d.drop(uint64(p)).(vk.Pipeline); ok {
		vk.DestroyPipeline(d.logical(h), pipeline, nil)
	}
}

// CreateCommandPool implements interface. Buffers from the pool can be
// reset one by one.
func (d *Driver) CreateCommandPool(h device.Device, family uint32) (device.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}
	var pool vk.CommandPool
	if err := check(vk.CreateCommandPool(d.logical(h), &cpci, nil, &pool), "vk.CreateCommandPool()"); err != nil {
		return 0, err
	}
	return device.CommandPool(d.put(pool)), nil
}

// DestroyCommandPool implements interface
func (d *Driver) DestroyCommandPool(h device.Device, p device.CommandPool) {
	if pool, ok := d.drop(uint64(p)).(vk.CommandPool); ok {
		vk.DestroyCommandPool(d.logical(h), pool, nil)
	}
}

// AllocateCommandBuffer implements interface
func (d *Driver) AllocateCommandBuffer(h device.Device, p device.CommandPool) (device.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool(p),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := check(vk.AllocateCommandBuffers(d.logical(h), &cbai, commandBuffers), "vk.AllocateCommandBuffers()"); err != nil {
		return 0, err
	}
	return device.CommandBuffer(d.put(commandBuffers[0])), nil
}

// FreeCommandBuffer implements interface
func (d *Driver) FreeCommandBuffer(h device.Device, p device.CommandPool, cb device.CommandBuffer) {
	if commandBuffer, ok := d.drop(uint64(cb)).(vk.CommandBuffer); ok {
		vk.FreeCommandBuffers(d.logical(h), d.commandPool(p), 1, []vk.CommandBuffer{commandBuffer})
	}
}

// CreateSemaphore implements interface
func (d *Driver) CreateSemaphore(h device.Device) (device.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := check(vk.CreateSemaphore(d.logical(h), &sci, nil, &semaphore), "vk.CreateSemaphore()"); err != nil {
		return 0, err
	}
	return device.Semaphore(d.put(semaphore)), nil
}

// DestroySemaphore implements interface
func (d *Driver) DestroySemaphore(h device.Device, s device.Semaphore) {
	if semaphore, ok := d.drop(uint64(s)).(vk.Semaphore); ok {
		vk.DestroySemaphore(d.logical(h), semaphore, nil)
	}
}

// CreateFence implements interface
func (d *Driver) CreateFence(h device.Device, signaled bool) (device.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := check(vk.CreateFence(d.logical(h), &fci, nil, &fence), "vk.CreateFence()"); err != nil {
		return 0, err
	}
	return device.Fence(d.put(fence)), nil
}

// DestroyFence implements interface
func (d *Driver) DestroyFence(h device.Device, f device.Fence) {
	if fence, ok := d.drop(uint64(f)).(vk.Fence); ok {
		vk.DestroyFence(d.logical(h), fence, nil)
	}
}

// WaitForFence implements interface
func (d *Driver) WaitForFence(h device.Device, f device.Fence, timeout time.Duration) error {
	return check(vk.WaitForFences(d.logical(h), 1, []vk.Fence{d.fence(f)}, vk.True, timeoutNanos(timeout)),
		"vk.WaitForFences()")
}

// ResetFence implements interface
func (d *Driver) ResetFence(h device.Device, f device.Fence) error {
	return check(vk.ResetFences(d.logical(h), 1, []vk.Fence{d.fence(f)}), "vk.ResetFences()")
}

// AcquireNextImage implements interface
func (d *Driver) AcquireNextImage(h device.Device, s device.Swapchain, timeout time.Duration, sem device.Semaphore) (uint32, device.Status, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(d.logical(h), d.swapchain(s), timeoutNanos(timeout), d.semaphore(sem), nil, &imageIndex)
	st, err := status(result, "vk.AcquireNextImage()")
	return imageIndex, st, err
}

// CreateBuffer implements interface
func (d *Driver) CreateBuffer(h device.Device, info device.BufferCreateInfo) (device.Buffer, device.MemoryRequirements, error) {
	logical := d.logical(h)
	bci := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(info.Size),
		Usage:       vk.BufferUsageFlags(info.Usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := check(vk.CreateBuffer(logical, &bci, nil, &buffer), "vk.CreateBuffer()"); err != nil {
		return 0, device.MemoryRequirements{}, err
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(logical, buffer, &memoryRequirements)
	memoryRequirements.Deref()
	return device.Buffer(d.put(buffer)), device.MemoryRequirements{
		Size:           uint64(memoryRequirements.Size),
		Alignment:      uint64(memoryRequirements.Alignment),
		MemoryTypeBits: memoryRequirements.MemoryTypeBits,
	}, nil
}

// DestroyBuffer implements interface
func (d *Driver) DestroyBuffer(h device.Device, b device.Buffer) {
	if buffer, ok := d.drop(uint64(b)).(vk.Buffer); ok {
		vk.DestroyBuffer(d.logical(h), buffer, nil)
	}
}

// AllocateMemory implements interface
func (d *Driver) AllocateMemory(h device.Device, size uint64, typeIndex uint32) (device.DeviceMemory, error) {
	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}
	var memory vk.DeviceMemory
	if err := check(vk.AllocateMemory(d.logical(h), &mai, nil, &memory), "vk.AllocateMemory()"); err != nil {
		return 0, err
	}
	m := device.DeviceMemory(d.put(memory))
	d.mu.Lock()
	d.memory[m] = size
	d.mu.Unlock()
	return m, nil
}

// FreeMemory implements interface
func (d *Driver) FreeMemory(h device.Device, m device.DeviceMemory) {
	d.mu.Lock()
	delete(d.memory, m)
	d.mu.Unlock()
	if memory, ok := d.drop(uint64(m)).(vk.DeviceMemory); ok {
		vk.FreeMemory(d.logical(h), memory, nil)
	}
}

// BindBufferMemory implements interface
func (d *Driver) BindBufferMemory(h device.Device, b device.Buffer, m device.DeviceMemory) error {
	return check(vk.BindBufferMemory(d.logical(h), d.buffer(b), d.deviceMemory(m), 0), "vk.BindBufferMemory()")
}

// WriteMemory implements interface, the memory must be host visible
func (d *Driver) WriteMemory(h device.Device, m device.DeviceMemory, data []byte) error {
	d.mu.RLock()
	size := d.memory[m]
	d.mu.RUnlock()
	if uint64(len(data)) > size {
		return errors.Newf("writing %d bytes into %d bytes of memory", len(data), size)
	}

	logical, memory := d.logical(h), d.deviceMemory(m)
	var mapped unsafe.Pointer
	if err := check(vk.MapMemory(logical, memory, 0, vk.DeviceSize(len(data)), 0, &mapped), "vk.MapMemory()"); err != nil {
		return err
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(logical, memory)
	return nil
}

// sliceUint32 reslices SPIR-V bytes into words
func sliceUint32(data []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
