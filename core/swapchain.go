// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/present/device"
)

// PreferredSurfaceFormat is chosen whenever the surface supports it
var PreferredSurfaceFormat = device.SurfaceFormat{
	Format:     device.FormatB8G8R8A8Srgb,
	ColorSpace: device.ColorSpaceSrgbNonlinear,
}

// SwapchainSupport is what a surface supports on an adapter
type SwapchainSupport struct {
	Capabilities device.SurfaceCapabilities
	Formats      []device.SurfaceFormat
	PresentModes []device.PresentMode
}

// QuerySwapchainSupport queries surface support, it changes nothing
func QuerySwapchainSupport(drv device.AdapterDriver, adapter device.Adapter, surface device.Surface) (SwapchainSupport, error) {
	caps, err := drv.SurfaceCapabilities(adapter, surface)
	if err != nil {
		return SwapchainSupport{}, err
	}
	formats, err := drv.SurfaceFormats(adapter, surface)
	if err != nil {
		return SwapchainSupport{}, err
	}
	modes, err := drv.SurfacePresentModes(adapter, surface)
	if err != nil {
		return SwapchainSupport{}, err
	}
	return SwapchainSupport{
		Capabilities: caps,
		Formats:      formats,
		PresentModes: modes,
	}, nil
}

// ChooseSurfaceFormat returns the preferred sRGB format if present,
// otherwise the first supported one
func ChooseSurfaceFormat(formats []device.SurfaceFormat) device.SurfaceFormat {
	for _, f := range formats {
		if f == PreferredSurfaceFormat {
			return f
		}
	}
	if len(formats) == 0 {
		return PreferredSurfaceFormat
	}
	return formats[0]
}

// ChoosePresentMode returns mailbox if present, otherwise FIFO which
// every surface supports
func ChoosePresentMode(modes []device.PresentMode) device.PresentMode {
	for _, m := range modes {
		if m == device.PresentModeMailbox {
			return m
		}
	}
	return device.PresentModeFifo
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ChooseExtent uses the fixed current extent of the surface verbatim,
// otherwise the framebuffer size clamped to the supported range
func ChooseExtent(caps device.SurfaceCapabilities, framebuffer device.Extent2D) device.Extent2D {
	if caps.CurrentExtent.Width != device.UndefinedExtent {
		return caps.CurrentExtent
	}
	return device.Extent2D{
		Width:  clamp(framebuffer.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(framebuffer.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ImageCount requests one image more than the minimum,
// a non-zero maximum caps it
func ImageCount(caps device.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// Swapchain is a chain of presentable images and one Frame for each of them
type Swapchain struct {
	Handle      device.Swapchain
	Frames      []*Frame
	Format      device.SurfaceFormat
	PresentMode device.PresentMode
	Extent      device.Extent2D
	ImageCount  uint32

	ctx *DeviceContext
}

// CreateSwapchain creates a swapchain sized for the framebuffer. The old
// swapchain is retired by the new one but still has to be destroyed.
func CreateSwapchain(ctx *DeviceContext, framebuffer device.Extent2D, old device.Swapchain) (*Swapchain, error) {
	drv := ctx.Driver
	support, err := QuerySwapchainSupport(drv, ctx.Adapter, ctx.Surface)
	if err != nil {
		return nil, fail(ErrResourceCreation, err, "QuerySwapchainSupport()")
	}

	format := ChooseSurfaceFormat(support.Formats)
	mode := ChoosePresentMode(support.PresentModes)
	extent := ChooseExtent(support.Capabilities, framebuffer)

	info := device.SwapchainCreateInfo{
		Surface:       ctx.Surface,
		MinImageCount: ImageCount(support.Capabilities),
		Format:        format,
		Extent:        extent,
		PresentMode:   mode,
		SharingMode:   ctx.SharingMode(),
		OldSwapchain:  old,
	}
	if info.SharingMode == device.SharingModeConcurrent {
		info.QueueFamilies = ctx.Families.Unique()
	}

	handle, err := drv.CreateSwapchain(ctx.Device, info)
	if err != nil {
		return nil, fail(ErrResourceCreation, err, "CreateSwapchain()")
	}

	images, err := drv.SwapchainImages(ctx.Device, handle)
	if err != nil {
		drv.DestroySwapchain(ctx.Device, handle)
		return nil, fail(ErrResourceCreation, err, "SwapchainImages()")
	}

	sc := &Swapchain{
		Handle:      handle,
		Format:      format,
		PresentMode: mode,
		Extent:      extent,
		ImageCount:  uint32(len(images)),
		ctx:         ctx,
	}
	for _, image := range images {
		sc.Frames = append(sc.Frames, &Frame{Image: image})
	}

	Logger().WithFields(logrus.Fields{
		"width":   extent.Width,
		"height":  extent.Height,
		"format":  format.Format,
		"images":  sc.ImageCount,
		"present": mode,
		"sharing": info.SharingMode == device.SharingModeConcurrent,
	}).Info("swapchain created")
	return sc, nil
}

// MaxFramesInFlight is one less than the image count so the presentation
// engine always holds an image the renderer does not contend for
func (s *Swapchain) MaxFramesInFlight() int {
	if s.ImageCount < 2 {
		return 1
	}
	return int(s.ImageCount) - 1
}

// PopulateFrames creates a color image view and a framebuffer
// for every image in the chain
func (s *Swapchain) PopulateFrames(renderPass device.RenderPass) error {
	drv := s.ctx.Driver
	for idx, frame := range s.Frames {
		view, err := drv.CreateImageView(s.ctx.Device, device.ImageViewCreateInfo{
			Image:  frame.Image,
			Format: s.Format.Format,
		})
		if err != nil {
			return fail(ErrResourceCreation, err, "CreateImageView()")
		}
		frame.View = view

		framebuffer, err := drv.CreateFramebuffer(s.ctx.Device, device.FramebufferCreateInfo{
			RenderPass:  renderPass,
			Attachments: []device.ImageView{view},
			Extent:      s.Extent,
		})
		if err != nil {
			return fail(ErrResourceCreation, err, "CreateFramebuffer()")
		}
		frame.Framebuffer = framebuffer
		Logger().WithField("frame", idx).Debug("frame populated")
	}
	return nil
}

// Destroy waits for the device to go idle and destroys the image views,
// framebuffers and the chain. Frame sync objects are released separately
// with DestroyFrameResources.
func (s *Swapchain) Destroy() {
	if s == nil || s.ctx == nil {
		return
	}
	drv := s.ctx.Driver
	if err := s.ctx.WaitIdle(); err != nil {
		Logger().WithError(err).Warn("device did not go idle before swapchain release")
	}
	for _, frame := range s.Frames {
		if frame.Framebuffer != 0 {
			drv.DestroyFramebuffer(s.ctx.Device, frame.Framebuffer)
			frame.Framebuffer = 0
		}
		if frame.View != 0 {
			drv.DestroyImageView(s.ctx.Device, frame.View)
			frame.View = 0
		}
	}
	if s.Handle != 0 {
		drv.DestroySwapchain(s.ctx.Device, s.Handle)
		s.Handle = 0
	}
}
