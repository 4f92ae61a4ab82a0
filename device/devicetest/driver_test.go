// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package devicetest_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/present/device"
	"github.com/devblok/present/device/devicetest"
)

func setup(c *qt.C) (*devicetest.Driver, device.Device) {
	drv := devicetest.New()
	instance, err := drv.CreateInstance(device.InstanceCreateInfo{})
	c.Assert(err, qt.IsNil)
	adapters, err := drv.EnumerateAdapters(instance)
	c.Assert(err, qt.IsNil)
	dev, err := drv.CreateDevice(adapters[0], device.DeviceCreateInfo{QueueFamilies: []uint32{0}})
	c.Assert(err, qt.IsNil)
	return drv, dev
}

func TestFenceLifecycle(t *testing.T) {
	c := qt.New(t)
	drv, dev := setup(c)
	q := drv.GetQueue(dev, 0, 0)

	fence, err := drv.CreateFence(dev, true)
	c.Assert(err, qt.IsNil)
	c.Assert(drv.WaitForFence(dev, fence, device.Infinite), qt.IsNil)
	c.Assert(drv.ResetFence(dev, fence), qt.IsNil)
	c.Assert(drv.QueueSubmit(q, device.SubmitInfo{Fence: fence}), qt.IsNil)
	c.Assert(drv.WaitForFence(dev, fence, device.Infinite), qt.IsNil)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestFenceHazards(t *testing.T) {
	c := qt.New(t)
	drv, dev := setup(c)
	q := drv.GetQueue(dev, 0, 0)

	fence, _ := drv.CreateFence(dev, false)
	c.Assert(drv.WaitForFence(dev, fence, device.Infinite), qt.Equals, device.ErrTimeout)

	signaled, _ := drv.CreateFence(dev, true)
	c.Assert(drv.QueueSubmit(q, device.SubmitInfo{Fence: signaled}), qt.IsNil)
	c.Assert(drv.ResetFence(dev, signaled), qt.IsNil)
	c.Assert(drv.Violations(), qt.HasLen, 3)
}

func TestCommandBufferHazards(t *testing.T) {
	c := qt.New(t)
	drv, dev := setup(c)
	q := drv.GetQueue(dev, 0, 0)
	pool, _ := drv.CreateCommandPool(dev, 0)
	cb, _ := drv.AllocateCommandBuffer(dev, pool)
	fence, _ := drv.CreateFence(dev, false)

	c.Assert(drv.QueueSubmit(q, device.SubmitInfo{CommandBuffers: []device.CommandBuffer{cb}, Fence: fence}), qt.IsNil)
	c.Assert(drv.ResetCommandBuffer(cb), qt.IsNil)
	c.Assert(drv.Violations(), qt.HasLen, 1)

	c.Assert(drv.QueueWaitIdle(q), qt.IsNil)
	c.Assert(drv.ResetCommandBuffer(cb), qt.IsNil)
	c.Assert(drv.BeginCommandBuffer(cb, false), qt.IsNil)
	c.Assert(drv.Violations(), qt.HasLen, 1)

	drv.FreeCommandBuffer(dev, pool, cb)
	drv.DestroyFence(dev, fence)
	drv.DestroyCommandPool(dev, pool)
	drv.DestroyDevice(dev)
	c.Assert(drv.Live(), qt.DeepEquals, []string{"instance"})
}

func TestSwapchainScript(t *testing.T) {
	c := qt.New(t)
	drv, dev := setup(c)
	drv.Acquire[2] = device.StatusSuboptimal
	drv.Acquire[3] = device.StatusOutOfDate

	sc, err := drv.CreateSwapchain(dev, device.SwapchainCreateInfo{
		MinImageCount: 3,
		Extent:        device.Extent2D{Width: 10, Height: 10},
	})
	c.Assert(err, qt.IsNil)
	images, err := drv.SwapchainImages(dev, sc)
	c.Assert(err, qt.IsNil)
	c.Assert(images, qt.HasLen, 3)

	idx, status, err := drv.AcquireNextImage(dev, sc, device.Infinite, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(0))
	c.Assert(status, qt.Equals, device.StatusOptimal)

	idx, status, _ = drv.AcquireNextImage(dev, sc, device.Infinite, 0)
	c.Assert(idx, qt.Equals, uint32(1))
	c.Assert(status, qt.Equals, device.StatusSuboptimal)

	_, status, _ = drv.AcquireNextImage(dev, sc, device.Infinite, 0)
	c.Assert(status, qt.Equals, device.StatusOutOfDate)

	_, err = drv.CreateSwapchain(dev, device.SwapchainCreateInfo{MinImageCount: 2, OldSwapchain: device.Swapchain(999)})
	c.Assert(err, qt.IsNil)
	c.Assert(drv.Violations(), qt.HasLen, 1)
}

func TestShaderModuleValidation(t *testing.T) {
	c := qt.New(t)
	drv, dev := setup(c)

	_, err := drv.CreateShaderModule(dev, nil)
	c.Assert(err, qt.IsNotNil)
	_, err = drv.CreateShaderModule(dev, make([]byte, 6))
	c.Assert(err, qt.IsNotNil)
	m, err := drv.CreateShaderModule(dev, make([]byte, 8))
	c.Assert(err, qt.IsNil)
	drv.DestroyShaderModule(dev, m)
	drv.DestroyShaderModule(dev, m)
	c.Assert(drv.Violations(), qt.HasLen, 1)
}

func TestHook(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()

	var calls int
	drv.Hook["QueueWaitIdle"] = func() { calls++ }
	drv.Fail["QueueWaitIdle"] = device.ErrDeviceLost

	c.Assert(drv.QueueWaitIdle(0), qt.ErrorIs, device.ErrDeviceLost)
	c.Assert(calls, qt.Equals, 1)
}
