// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/present/core"
	"github.com/devblok/present/device"
	"github.com/devblok/present/device/devicetest"
)

func TestQuerySwapchainSupport(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()
	instance, err := drv.CreateInstance(device.InstanceCreateInfo{})
	c.Assert(err, qt.IsNil)
	surface, err := drv.CreateSurface(instance)
	c.Assert(err, qt.IsNil)
	adapters, err := drv.EnumerateAdapters(instance)
	c.Assert(err, qt.IsNil)

	support, err := core.QuerySwapchainSupport(drv, adapters[0], surface)
	c.Assert(err, qt.IsNil)
	want := devicetest.DefaultAdapter()
	c.Assert(support, qt.DeepEquals, core.SwapchainSupport{
		Capabilities: want.Capabilities,
		Formats:      want.Formats,
		PresentModes: want.PresentModes,
	})

	boom := errors.New("boom")
	drv.Fail["SurfacePresentModes"] = boom
	_, err = core.QuerySwapchainSupport(drv, adapters[0], surface)
	c.Assert(errors.Is(err, boom), qt.IsTrue)
}

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)
	unorm := device.SurfaceFormat{Format: device.FormatB8G8R8A8Unorm, ColorSpace: device.ColorSpaceSrgbNonlinear}
	srgb := device.SurfaceFormat{Format: device.FormatB8G8R8A8Srgb, ColorSpace: device.ColorSpaceSrgbNonlinear}
	rgba := device.SurfaceFormat{Format: device.FormatR8G8B8A8Unorm, ColorSpace: device.ColorSpaceSrgbNonlinear}

	c.Assert(core.ChooseSurfaceFormat([]device.SurfaceFormat{unorm, srgb}), qt.Equals, srgb)
	c.Assert(core.ChooseSurfaceFormat([]device.SurfaceFormat{rgba, unorm}), qt.Equals, rgba)
	c.Assert(core.ChooseSurfaceFormat([]device.SurfaceFormat{
		{Format: device.FormatB8G8R8A8Srgb, ColorSpace: 1000104002},
		unorm,
	}).Format, qt.Equals, device.FormatB8G8R8A8Srgb)
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.ChoosePresentMode([]device.PresentMode{device.PresentModeFifo}), qt.Equals, device.PresentModeFifo)
	c.Assert(core.ChoosePresentMode([]device.PresentMode{
		device.PresentModeImmediate, device.PresentModeFifo, device.PresentModeMailbox,
	}), qt.Equals, device.PresentModeMailbox)
	c.Assert(core.ChoosePresentMode([]device.PresentMode{device.PresentModeImmediate}), qt.Equals, device.PresentModeFifo)
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)
	fixed := device.SurfaceCapabilities{
		CurrentExtent:  device.Extent2D{Width: 1280, Height: 720},
		MinImageExtent: device.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: device.Extent2D{Width: 4096, Height: 4096},
	}
	c.Assert(core.ChooseExtent(fixed, device.Extent2D{Width: 300, Height: 200}), qt.Equals, fixed.CurrentExtent)

	undefined := device.SurfaceCapabilities{
		CurrentExtent:  device.Extent2D{Width: device.UndefinedExtent, Height: device.UndefinedExtent},
		MinImageExtent: device.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: device.Extent2D{Width: 1920, Height: 1080},
	}
	tests := []struct {
		framebuffer device.Extent2D
		want        device.Extent2D
	}{
		{device.Extent2D{Width: 800, Height: 600}, device.Extent2D{Width: 800, Height: 600}},
		{device.Extent2D{Width: 50, Height: 600}, device.Extent2D{Width: 100, Height: 600}},
		{device.Extent2D{Width: 2560, Height: 1440}, device.Extent2D{Width: 1920, Height: 1080}},
		{device.Extent2D{Width: 0, Height: 2000}, device.Extent2D{Width: 100, Height: 1080}},
	}
	for _, test := range tests {
		c.Assert(core.ChooseExtent(undefined, test.framebuffer), qt.Equals, test.want, qt.Commentf("framebuffer %v", test.framebuffer))
	}
}

func TestImageCount(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.ImageCount(device.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}), qt.Equals, uint32(2))
	c.Assert(core.ImageCount(device.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}), qt.Equals, uint32(3))
	c.Assert(core.ImageCount(device.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 0}), qt.Equals, uint32(4))
}

func TestFrameCursor(t *testing.T) {
	c := qt.New(t)
	cursor := core.NewFrameCursor(2)
	for i := 0; i < 7; i++ {
		c.Assert(cursor.Current(), qt.Equals, i%2)
		cursor.Advance()
	}

	cursor = core.NewFrameCursor(0)
	c.Assert(cursor.MaxFramesInFlight(), qt.Equals, 1)
	cursor.Advance()
	c.Assert(cursor.Current(), qt.Equals, 0)

	cursor = core.NewFrameCursor(3)
	cursor.Advance()
	cursor.Advance()
	cursor.Resize(4)
	c.Assert(cursor.Current(), qt.Equals, 2)
	cursor.Resize(2)
	c.Assert(cursor.Current(), qt.Equals, 0)
}
