// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/present/device"
)

// Frame is everything needed to author one frame on one swapchain image.
// The InFlight fence has to be signaled before CommandBuffer or the
// semaphores are reused.
type Frame struct {
	Image       device.Image
	View        device.ImageView
	Framebuffer device.Framebuffer

	CommandBuffer  device.CommandBuffer
	ImageAvailable device.Semaphore
	RenderFinished device.Semaphore
	InFlight       device.Fence
}

func allocateCommandBuffer(ctx *DeviceContext, pool device.CommandPool) (device.CommandBuffer, error) {
	cb, err := ctx.Driver.AllocateCommandBuffer(ctx.Device, pool)
	if err != nil {
		return 0, fail(ErrResourceCreation, err, "AllocateCommandBuffer()")
	}
	return cb, nil
}

// createSyncObjects creates the semaphore pair and a fence created
// signaled so that the first wait on it returns immediately
func createSyncObjects(ctx *DeviceContext, frame *Frame) error {
	drv := ctx.Driver
	imageAvailable, err := drv.CreateSemaphore(ctx.Device)
	if err != nil {
		return fail(ErrResourceCreation, err, "CreateSemaphore()")
	}
	frame.ImageAvailable = imageAvailable

	renderFinished, err := drv.CreateSemaphore(ctx.Device)
	if err != nil {
		return fail(ErrResourceCreation, err, "CreateSemaphore()")
	}
	frame.RenderFinished = renderFinished

	fence, err := drv.CreateFence(ctx.Device, true)
	if err != nil {
		return fail(ErrResourceCreation, err, "CreateFence()")
	}
	frame.InFlight = fence
	return nil
}

// AllocateFrameResources gives every frame a command buffer from the pool
// and a fresh set of sync objects
func (s *Swapchain) AllocateFrameResources(pool device.CommandPool) error {
	for _, frame := range s.Frames {
		cb, err := allocateCommandBuffer(s.ctx, pool)
		if err != nil {
			return err
		}
		frame.CommandBuffer = cb
		if err := createSyncObjects(s.ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// DestroyFrameResources releases the command buffers and sync objects of all
// frames. The device has to be idle, Destroy makes sure of that.
func (s *Swapchain) DestroyFrameResources(pool device.CommandPool) {
	if s == nil || s.ctx == nil {
		return
	}
	drv := s.ctx.Driver
	dev := s.ctx.Device
	for _, frame := range s.Frames {
		if frame.ImageAvailable != 0 {
			drv.DestroySemaphore(dev, frame.ImageAvailable)
			frame.ImageAvailable = 0
		}
		if frame.RenderFinished != 0 {
			drv.DestroySemaphore(dev, frame.RenderFinished)
			frame.RenderFinished = 0
		}
		if frame.InFlight != 0 {
			drv.DestroyFence(dev, frame.InFlight)
			frame.InFlight = 0
		}
		if frame.CommandBuffer != 0 {
			drv.FreeCommandBuffer(dev, pool, frame.CommandBuffer)
			frame.CommandBuffer = 0
		}
	}
}
