// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/present/device"
)

// ResetCommandBuffer implements interface
func (d *Driver) ResetCommandBuffer(cb device.CommandBuffer) error {
	return check(vk.ResetCommandBuffer(d.commandBuffer(cb), 0), "vk.ResetCommandBuffer()")
}

// BeginCommandBuffer implements interface
func (d *Driver) BeginCommandBuffer(cb device.CommandBuffer, oneTimeSubmit bool) error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		cbbi.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return check(vk.BeginCommandBuffer(d.commandBuffer(cb), &cbbi), "vk.BeginCommandBuffer()")
}

// EndCommandBuffer implements interface
func (d *Driver) EndCommandBuffer(cb device.CommandBuffer) error {
	return check(vk.EndCommandBuffer(d.commandBuffer(cb)), "vk.EndCommandBuffer()")
}

func rectOf(r device.Rect2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.X, Y: r.Y},
		Extent: vk.Extent2D{Width: r.Extent.Width, Height: r.Extent.Height},
	}
}

// CmdBeginRenderPass implements interface
func (d *Driver) CmdBeginRenderPass(cb device.CommandBuffer, info device.RenderPassBeginInfo) {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(info.ClearColor[:])

	rpbi := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      d.renderPass(info.RenderPass),
		Framebuffer:     d.framebuffer(info.Framebuffer),
		RenderArea:      rectOf(info.Area),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(d.commandBuffer(cb), &rpbi, vk.SubpassContentsInline)
}

// CmdEndRenderPass implements interface
func (d *Driver) CmdEndRenderPass(cb device.CommandBuffer) {
	vk.CmdEndRenderPass(d.commandBuffer(cb))
}

// CmdBindPipeline implements interface
func (d *Driver) CmdBindPipeline(cb device.CommandBuffer, p device.Pipeline) {
	vk.CmdBindPipeline(d.commandBuffer(cb), vk.PipelineBindPointGraphics, d.pipeline(p))
}

// CmdSetViewport implements interface
func (d *Driver) CmdSetViewport(cb device.CommandBuffer, v device.Viewport) {
	vk.CmdSetViewport(d.commandBuffer(cb), 0, 1, []vk.Viewport{{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}})
}

// CmdSetScissor implements interface
func (d *Driver) CmdSetScissor(cb device.CommandBuffer, r device.Rect2D) {
	vk.CmdSetScissor(d.commandBuffer(cb), 0, 1, []vk.Rect2D{rectOf(r)})
}

// CmdBindVertexBuffers implements interface, all bindings start at offset zero
func (d *Driver) CmdBindVertexBuffers(cb device.CommandBuffer, buffers []device.Buffer) {
	vkBuffers := make([]vk.Buffer, len(buffers))
	offsets := make([]vk.DeviceSize, len(buffers))
	for i, b := range buffers {
		vkBuffers[i] = d.buffer(b)
	}
	vk.CmdBindVertexBuffers(d.commandBuffer(cb), 0, uint32(len(vkBuffers)), vkBuffers, offsets)
}

// CmdDraw implements interface
func (d *Driver) CmdDraw(cb device.CommandBuffer, vertexCount, instanceCount uint32) {
	vk.CmdDraw(d.commandBuffer(cb), vertexCount, instanceCount, 0, 0)
}

// CmdCopyBuffer implements interface
func (d *Driver) CmdCopyBuffer(cb device.CommandBuffer, src, dst device.Buffer, size uint64) {
	vk.CmdCopyBuffer(d.commandBuffer(cb), d.buffer(src), d.buffer(dst), 1, []vk.BufferCopy{{
		Size: vk.DeviceSize(size),
	}})
}

// QueueSubmit implements interface
func (d *Driver) QueueSubmit(q device.Queue, info device.SubmitInfo) error {
	waitSemaphores := make([]vk.Semaphore, len(info.WaitSemaphores))
	for i, s := range info.WaitSemaphores {
		waitSemaphores[i] = d.semaphore(s)
	}
	waitStages := make([]vk.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		waitStages[i] = vk.PipelineStageFlags(s)
	}
	commandBuffers := make([]vk.CommandBuffer, len(info.CommandBuffers))
	for i, cb := range info.CommandBuffers {
		commandBuffers[i] = d.commandBuffer(cb)
	}
	signalSemaphores := make([]vk.Semaphore, len(info.SignalSemaphores))
	for i, s := range info.SignalSemaphores {
		signalSemaphores[i] = d.semaphore(s)
	}

	submit := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSemaphores)),
		PWaitSemaphores:      waitSemaphores,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   uint32(len(commandBuffers)),
		PCommandBuffers:      commandBuffers,
		SignalSemaphoreCount: uint32(len(signalSemaphores)),
		PSignalSemaphores:    signalSemaphores,
	}}

	var fence vk.Fence
	if info.Fence != 0 {
		fence = d.fence(info.Fence)
	}
	return check(vk.QueueSubmit(d.queue(q), 1, submit, fence), "vk.QueueSubmit()")
}

// QueuePresent implements interface
func (d *Driver) QueuePresent(q device.Queue, info device.PresentInfo) (device.Status, error) {
	waitSemaphores := make([]vk.Semaphore, len(info.WaitSemaphores))
	for i, s := range info.WaitSemaphores {
		waitSemaphores[i] = d.semaphore(s)
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waitSemaphores)),
		PWaitSemaphores:    waitSemaphores,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchain(info.Swapchain)},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	return status(vk.QueuePresent(d.queue(q), &presentInfo), "vk.QueuePresent()")
}

// QueueWaitIdle implements interface
func (d *Driver) QueueWaitIdle(q device.Queue) error {
	return check(vk.QueueWaitIdle(d.queue(q)), "vk.QueueWaitIdle()")
}
