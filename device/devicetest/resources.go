// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package devicetest

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/devblok/present/device"
)

// CreateDevice implements interface
func (d *Driver) CreateDevice(a device.Adapter, info device.DeviceCreateInfo) (device.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateDevice", info.QueueFamilies); err != nil {
		return 0, err
	}
	return device.Device(d.create("device")), nil
}

// DestroyDevice implements interface
func (d *Driver) DestroyDevice(dev device.Device) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyDevice")
	d.destroy("device", uint64(dev))
}

// GetQueue implements interface, queues are identified by family
func (d *Driver) GetQueue(dev device.Device, family, index uint32) device.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetQueue", family)
	return device.Queue(1000 + family)
}

func (d *Driver) completeAll() {
	for f, s := range d.fences {
		if s == fencePending {
			d.fences[f] = fenceSignaled
		}
	}
}

// WaitIdle implements interface, it completes all submitted work
func (d *Driver) WaitIdle(dev device.Device) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("WaitIdle"); err != nil {
		return err
	}
	d.completeAll()
	return nil
}

// CreateSwapchain implements interface
func (d *Driver) CreateSwapchain(dev device.Device, info device.SwapchainCreateInfo) (device.Swapchain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateSwapchain", info.Extent.Width, info.Extent.Height, info.MinImageCount, info.SharingMode); err != nil {
		return 0, err
	}
	if info.OldSwapchain != 0 {
		if _, ok := d.swapchains[info.OldSwapchain]; !ok {
			d.violate("retired swapchain %d is not alive", info.OldSwapchain)
		}
	}
	h := device.Swapchain(d.create("swapchain"))
	sc := &swapchain{info: info}
	for i := uint32(0); i < info.MinImageCount; i++ {
		d.next++
		sc.images = append(sc.images, device.Image(d.next))
	}
	d.swapchains[h] = sc
	return h, nil
}

// DestroySwapchain implements interface
func (d *Driver) DestroySwapchain(dev device.Device, s device.Swapchain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroySwapchain")
	delete(d.swapchains, s)
	d.destroy("swapchain", uint64(s))
}

// SwapchainImages implements interface
func (d *Driver) SwapchainImages(dev device.Device, s device.Swapchain) ([]device.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("SwapchainImages"); err != nil {
		return nil, err
	}
	sc, ok := d.swapchains[s]
	if !ok {
		return nil, device.ErrInvalidHandle
	}
	return append([]device.Image(nil), sc.images...), nil
}

// CreateImageView implements interface
func (d *Driver) CreateImageView(dev device.Device, info device.ImageViewCreateInfo) (device.ImageView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateImageView"); err != nil {
		return 0, err
	}
	return device.ImageView(d.create("imageview")), nil
}

// DestroyImageView implements interface
func (d *Driver) DestroyImageView(dev device.Device, v device.ImageView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyImageView")
	d.destroy("imageview", uint64(v))
}

// CreateFramebuffer implements interface
func (d *Driver) CreateFramebuffer(dev device.Device, info device.FramebufferCreateInfo) (device.Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateFramebuffer"); err != nil {
		return 0, err
	}
	return device.Framebuffer(d.create("framebuffer")), nil
}

// DestroyFramebuffer implements interface
func (d *Driver) DestroyFramebuffer(dev device.Device, f device.Framebuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyFramebuffer")
	d.destroy("framebuffer", uint64(f))
}

// CreateRenderPass implements interface
func (d *Driver) CreateRenderPass(dev device.Device, info device.RenderPassCreateInfo) (device.RenderPass, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateRenderPass", info.ColorFormat); err != nil {
		return 0, err
	}
	return device.RenderPass(d.create("renderpass")), nil
}

// DestroyRenderPass implements interface
func (d *Driver) DestroyRenderPass(dev device.Device, r device.RenderPass) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyRenderPass")
	d.destroy("renderpass", uint64(r))
}

// CreateShaderModule implements interface
func (d *Driver) CreateShaderModule(dev device.Device, code []byte) (device.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateShaderModule"); err != nil {
		return 0, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, errors.Newf("shader code size %d is not a multiple of 4", len(code))
	}
	return device.ShaderModule(d.create("shader")), nil
}

// DestroyShaderModule implements interface
func (d *Driver) DestroyShaderModule(dev device.Device, s device.ShaderModule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyShaderModule")
	d.destroy("shader", uint64(s))
}

// CreatePipelineLayout implements interface
func (d *Driver) CreatePipelineLayout(dev device.Device) (device.PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreatePipelineLayout"); err != nil {
		return 0, err
	}
	return device.PipelineLayout(d.create("layout")), nil
}

// DestroyPipelineLayout implements interface
func (d *Driver) DestroyPipelineLayout(dev device.Device, l device.PipelineLayout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyPipelineLayout")
	d.destroy("layout", uint64(l))
}

// CreateGraphicsPipeline implements interface
func (d *Driver) CreateGraphicsPipeline(dev device.Device, info device.GraphicsPipelineCreateInfo) (device.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	if !info.DynamicViewport {
		d.violate("pipeline created without dynamic viewport")
	}
	return device.Pipeline(d.create("pipeline")), nil
}

// DestroyPipeline implements interface
func (d *Driver) DestroyPipeline(dev device.Device, p device.Pipeline) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyPipeline")
	d.destroy("pipeline", uint64(p))
}

// CreateCommandPool implements interface
func (d *Driver) CreateCommandPool(dev device.Device, family uint32) (device.CommandPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateCommandPool", family); err != nil {
		return 0, err
	}
	return device.CommandPool(d.create("commandpool")), nil
}

// DestroyCommandPool implements interface
func (d *Driver) DestroyCommandPool(dev device.Device, p device.CommandPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyCommandPool")
	d.destroy("commandpool", uint64(p))
}

// AllocateCommandBuffer implements interface
func (d *Driver) AllocateCommandBuffer(dev device.Device, p device.CommandPool) (device.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("AllocateCommandBuffer"); err != nil {
		return 0, err
	}
	return device.CommandBuffer(d.create("commandbuffer")), nil
}

// FreeCommandBuffer implements interface
func (d *Driver) FreeCommandBuffer(dev device.Device, p device.CommandPool, cb device.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("FreeCommandBuffer")
	if f, ok := d.cbFence[cb]; ok && d.fences[f] == fencePending {
		d.violate("command buffer %d freed while executing", cb)
	}
	delete(d.cbFence, cb)
	d.destroy("commandbuffer", uint64(cb))
}

// CreateSemaphore implements interface
func (d *Driver) CreateSemaphore(dev device.Device) (device.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateSemaphore"); err != nil {
		return 0, err
	}
	return device.Semaphore(d.create("semaphore")), nil
}

// DestroySemaphore implements interface
func (d *Driver) DestroySemaphore(dev device.Device, s device.Semaphore) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroySemaphore")
	d.destroy("semaphore", uint64(s))
}

// CreateFence implements interface
func (d *Driver) CreateFence(dev device.Device, signaled bool) (device.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateFence", signaled); err != nil {
		return 0, err
	}
	f := device.Fence(d.create("fence"))
	if signaled {
		d.fences[f] = fenceSignaled
	} else {
		d.fences[f] = fenceUnsignaled
	}
	return f, nil
}

// DestroyFence implements interface
func (d *Driver) DestroyFence(dev device.Device, f device.Fence) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyFence")
	if d.fences[f] == fencePending {
		d.violate("fence %d destroyed while pending", f)
	}
	delete(d.fences, f)
	d.destroy("fence", uint64(f))
}

// WaitForFence implements interface. Pending work completes, a fence
// nothing will ever signal times out.
func (d *Driver) WaitForFence(dev device.Device, f device.Fence, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("WaitForFence", f); err != nil {
		return err
	}
	switch d.fences[f] {
	case fencePending:
		d.fences[f] = fenceSignaled
	case fenceUnsignaled:
		d.violate("wait on fence %d that is never signaled", f)
		return device.ErrTimeout
	}
	return nil
}

// ResetFence implements interface
func (d *Driver) ResetFence(dev device.Device, f device.Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("ResetFence", f); err != nil {
		return err
	}
	if d.fences[f] == fencePending {
		d.violate("fence %d reset while pending", f)
	}
	d.fences[f] = fenceUnsignaled
	return nil
}

// AcquireNextImage implements interface, images are handed out round robin
func (d *Driver) AcquireNextImage(dev device.Device, s device.Swapchain, timeout time.Duration, sem device.Semaphore) (uint32, device.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquires++
	if err := d.call("AcquireNextImage", d.acquires); err != nil {
		return 0, device.StatusOptimal, err
	}
	if status := d.Acquire[d.acquires]; status == device.StatusOutOfDate {
		return 0, status, nil
	}
	sc, ok := d.swapchains[s]
	if !ok {
		return 0, device.StatusOptimal, device.ErrInvalidHandle
	}
	idx := sc.next
	sc.next = (sc.next + 1) % uint32(len(sc.images))
	return idx, d.Acquire[d.acquires], nil
}

// CreateBuffer implements interface
func (d *Driver) CreateBuffer(dev device.Device, info device.BufferCreateInfo) (device.Buffer, device.MemoryRequirements, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateBuffer", info.Usage); err != nil {
		return 0, device.MemoryRequirements{}, err
	}
	reqs := device.MemoryRequirements{
		Size:           (info.Size + 255) &^ 255,
		Alignment:      256,
		MemoryTypeBits: 0x3,
	}
	return device.Buffer(d.create("buffer")), reqs, nil
}

// DestroyBuffer implements interface
func (d *Driver) DestroyBuffer(dev device.Device, b device.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyBuffer")
	d.destroy("buffer", uint64(b))
}

// AllocateMemory implements interface
func (d *Driver) AllocateMemory(dev device.Device, size uint64, typeIndex uint32) (device.DeviceMemory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("AllocateMemory", size, typeIndex); err != nil {
		return 0, err
	}
	m := device.DeviceMemory(d.create("memory"))
	d.memory[m] = nil
	return m, nil
}

// FreeMemory implements interface
func (d *Driver) FreeMemory(dev device.Device, m device.DeviceMemory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("FreeMemory")
	delete(d.memory, m)
	d.destroy("memory", uint64(m))
}

// BindBufferMemory implements interface
func (d *Driver) BindBufferMemory(dev device.Device, b device.Buffer, m device.DeviceMemory) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.call("BindBufferMemory")
}

// WriteMemory implements interface
func (d *Driver) WriteMemory(dev device.Device, m device.DeviceMemory, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("WriteMemory", len(data)); err != nil {
		return err
	}
	d.memory[m] = append([]byte(nil), data...)
	return nil
}
