// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package devicetest

import (
	"github.com/devblok/present/device"
)

func (d *Driver) checkIdle(cb device.CommandBuffer, op string) {
	if f, ok := d.cbFence[cb]; ok && d.fences[f] == fencePending {
		d.violate("command buffer %d %s while its fence %d is pending", cb, op, f)
	}
}

// ResetCommandBuffer implements interface
func (d *Driver) ResetCommandBuffer(cb device.CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("ResetCommandBuffer", cb); err != nil {
		return err
	}
	d.checkIdle(cb, "reset")
	return nil
}

// BeginCommandBuffer implements interface
func (d *Driver) BeginCommandBuffer(cb device.CommandBuffer, oneTimeSubmit bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("BeginCommandBuffer", cb); err != nil {
		return err
	}
	d.checkIdle(cb, "recorded")
	return nil
}

// EndCommandBuffer implements interface
func (d *Driver) EndCommandBuffer(cb device.CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.call("EndCommandBuffer", cb)
}

// CmdBeginRenderPass implements interface
func (d *Driver) CmdBeginRenderPass(cb device.CommandBuffer, info device.RenderPassBeginInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("CmdBeginRenderPass", info.Area.Extent.Width, info.Area.Extent.Height)
}

// CmdEndRenderPass implements interface
func (d *Driver) CmdEndRenderPass(cb device.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("CmdEndRenderPass")
}

// CmdBindPipeline implements interface
func (d *Driver) CmdBindPipeline(cb device.CommandBuffer, p device.Pipeline) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("CmdBindPipeline")
}

// CmdSetViewport implements interface
func (d *Driver) CmdSetViewport(cb device.CommandBuffer, v device.Viewport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("CmdSetViewport", v.Width, v.Height)
}

// CmdSetScissor implements interface
func (d *Driver) CmdSetScissor(cb device.CommandBuffer, r device.Rect2D) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("CmdSetScissor", r.Extent.Width, r.Extent.Height)
}

// CmdBindVertexBuffers implements interface
func (d *Driver) CmdBindVertexBuffers(cb device.CommandBuffer, buffers []device.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("CmdBindVertexBuffers", len(buffers))
}

// CmdDraw implements interface
func (d *Driver) CmdDraw(cb device.CommandBuffer, vertexCount, instanceCount uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("CmdDraw", vertexCount)
	d.draws++
}

// CmdCopyBuffer implements interface
func (d *Driver) CmdCopyBuffer(cb device.CommandBuffer, src, dst device.Buffer, size uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("CmdCopyBuffer", size)
}

// QueueSubmit implements interface. The guarding fence becomes pending
// until it is waited on or the queue drains.
func (d *Driver) QueueSubmit(q device.Queue, info device.SubmitInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("QueueSubmit", info.Fence); err != nil {
		return err
	}
	if len(info.WaitSemaphores) != len(info.WaitStages) {
		d.violate("submit with %d wait semaphores and %d stages", len(info.WaitSemaphores), len(info.WaitStages))
	}
	if info.Fence != 0 {
		if d.fences[info.Fence] != fenceUnsignaled {
			d.violate("submit with fence %d that was not reset", info.Fence)
		}
		d.fences[info.Fence] = fencePending
	}
	for _, cb := range info.CommandBuffers {
		d.cbFence[cb] = info.Fence
	}
	return nil
}

// QueuePresent implements interface
func (d *Driver) QueuePresent(q device.Queue, info device.PresentInfo) (device.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presents++
	if err := d.call("QueuePresent", d.presents, info.ImageIndex); err != nil {
		return device.StatusOptimal, err
	}
	if _, ok := d.swapchains[info.Swapchain]; !ok {
		return device.StatusOptimal, device.ErrInvalidHandle
	}
	return d.Present[d.presents], nil
}

// QueueWaitIdle implements interface
func (d *Driver) QueueWaitIdle(q device.Queue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("QueueWaitIdle"); err != nil {
		return err
	}
	d.completeAll()
	return nil
}
