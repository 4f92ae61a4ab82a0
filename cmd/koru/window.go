// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/present/device"
	"github.com/devblok/present/device/vkdriver"
)

// window adapts an SDL window for the renderer. SDL is only touched from
// the main thread, the drawable size is cached for the render goroutine.
type window struct {
	sdl    *sdl.Window
	driver *vkdriver.Driver

	width, height atomic.Uint32
	closing       atomic.Bool
}

func newWindow(title string, width, height uint32) (*window, error) {
	w, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	win := &window{sdl: w}
	win.updateSize()
	return win, nil
}

// updateSize refreshes the cached drawable size, must run on the main thread
func (w *window) updateSize() {
	if w.sdl.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		w.width.Store(0)
		w.height.Store(0)
		return
	}
	width, height := w.sdl.VulkanGetDrawableSize()
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	w.width.Store(uint32(width))
	w.height.Store(uint32(height))
}

// RequiredExtensions implements core.Window
func (w *window) RequiredExtensions() []string {
	return w.sdl.VulkanGetInstanceExtensions()
}

// CreateSurface implements core.Window
func (w *window) CreateSurface(instance device.Instance) (device.Surface, error) {
	if w.driver == nil {
		return 0, errors.New("window has no vulkan driver")
	}
	surface, err := w.sdl.VulkanCreateSurface(w.driver.NativeInstance(instance))
	if err != nil {
		return 0, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return w.driver.ImportSurface(surface), nil
}

// FramebufferSize implements core.Window
func (w *window) FramebufferSize() (uint32, uint32) {
	return w.width.Load(), w.height.Load()
}

// ShouldClose implements core.Window
func (w *window) ShouldClose() bool {
	return w.closing.Load()
}

func (w *window) Destroy() {
	if err := w.sdl.Destroy(); err != nil {
		logger.WithError(err).Warn("destroying window")
	}
}
