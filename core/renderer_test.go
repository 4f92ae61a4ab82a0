// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/present/core"
	"github.com/devblok/present/device"
	"github.com/devblok/present/device/devicetest"
)

func TestRenderFrame(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)

	c.Assert(r.Swapchain().ImageCount, qt.Equals, uint32(3))
	c.Assert(r.Cursor().MaxFramesInFlight(), qt.Equals, 2)
	c.Assert(r.State(), qt.Equals, core.StateIdle)

	tick(c, r, 10)
	c.Assert(drv.Count("QueuePresent"), qt.Equals, 10)
	c.Assert(drv.Draws(), qt.Equals, 10)
	c.Assert(r.State(), qt.Equals, core.StateIdle)
	c.Assert(r.Rebuilds(), qt.Equals, 0)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestFenceGating(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)

	tick(c, r, 12)
	c.Assert(drv.Violations(), qt.HasLen, 0)

	// every tick waits, acquires and only then resets and records
	var order []string
	for _, call := range drv.Calls() {
		switch call {
		case "WaitForFence", "AcquireNextImage", "ResetFence", "ResetCommandBuffer", "QueueSubmit", "QueuePresent":
			order = append(order, call)
		}
	}
	c.Assert(order, qt.HasLen, 6*12)
	for i := 0; i < len(order); i += 6 {
		c.Assert(order[i:i+6], qt.DeepEquals, []string{
			"WaitForFence", "AcquireNextImage", "ResetFence", "ResetCommandBuffer", "QueueSubmit", "QueuePresent",
		})
	}
}

func TestFenceNotResetWhenAcquireIsStale(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		drv.Acquire[1] = device.StatusOutOfDate
	})

	tick(c, r, 3)
	c.Assert(drv.Count("ResetFence"), qt.Equals, 2)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestCursorBound(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		drv.Acquire[4] = device.StatusOutOfDate
		drv.Present[9] = device.StatusSuboptimal
	})

	for n := 0; n < 30; n++ {
		if n == 15 {
			drv.Adapters[0].Capabilities.MinImageCount = 4
			r.NotifyResized()
		}
		c.Assert(r.RenderFrame(triangle), qt.IsNil)
		max := r.Cursor().MaxFramesInFlight()
		c.Assert(max, qt.Equals, int(r.Swapchain().ImageCount)-1)
		c.Assert(r.Cursor().Current() >= 0 && r.Cursor().Current() < max, qt.IsTrue)
	}
	c.Assert(r.Cursor().MaxFramesInFlight(), qt.Equals, 4)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestOutOfDateAcquire(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		drv.Acquire[5] = device.StatusOutOfDate
	})

	tick(c, r, 4)
	before := r.Cursor().Current()

	tick(c, r, 1)
	c.Assert(r.Cursor().Current(), qt.Equals, before)
	c.Assert(r.Rebuilds(), qt.Equals, 1)
	c.Assert(drv.Count("CreateSwapchain"), qt.Equals, 2)
	c.Assert(drv.Count("QueuePresent"), qt.Equals, 4)

	tick(c, r, 1)
	c.Assert(r.Cursor().Current(), qt.Equals, (before+1)%r.Cursor().MaxFramesInFlight())
	c.Assert(r.Rebuilds(), qt.Equals, 1)
	c.Assert(drv.Count("QueuePresent"), qt.Equals, 5)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestRebuildIsIdempotent(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)

	first := *r.Swapchain()
	for i := 0; i < 5; i++ {
		r.NotifyResized()
		tick(c, r, 1)
		sc := r.Swapchain()
		c.Assert(sc.Extent, qt.Equals, first.Extent)
		c.Assert(sc.Format, qt.Equals, first.Format)
		c.Assert(sc.ImageCount, qt.Equals, first.ImageCount)
		c.Assert(sc.Frames, qt.HasLen, int(first.ImageCount))
	}
	c.Assert(r.Rebuilds(), qt.Equals, 5)
	c.Assert(drv.Count("CreateGraphicsPipeline"), qt.Equals, 1)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestSuboptimalAcquire(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		drv.Acquire[2] = device.StatusSuboptimal
	})

	tick(c, r, 1)
	before := r.Cursor().Current()
	tick(c, r, 1)

	// the frame is still presented, the rebuild happens before the next acquire
	c.Assert(drv.Count("QueuePresent"), qt.Equals, 2)
	c.Assert(r.Rebuilds(), qt.Equals, 1)
	c.Assert(r.Cursor().Current(), qt.Equals, before)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestOutOfDatePresent(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		drv.Present[3] = device.StatusOutOfDate
	})

	tick(c, r, 5)
	c.Assert(r.Rebuilds(), qt.Equals, 1)
	c.Assert(drv.Count("QueuePresent"), qt.Equals, 5)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestResize(t *testing.T) {
	c := qt.New(t)
	r, drv, win := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		drv.Adapters[0].Capabilities.CurrentExtent = device.Extent2D{
			Width:  device.UndefinedExtent,
			Height: device.UndefinedExtent,
		}
	})
	c.Assert(r.Swapchain().Extent, qt.Equals, device.Extent2D{Width: 800, Height: 600})

	tick(c, r, 2)
	win.width, win.height = 1024, 768
	r.NotifyResized()
	tick(c, r, 1)

	c.Assert(r.Swapchain().Extent, qt.Equals, device.Extent2D{Width: 1024, Height: 768})
	c.Assert(drv.Count("CreateGraphicsPipeline"), qt.Equals, 1)
	c.Assert(drv.Count("CreateFramebuffer"), qt.Equals, 6)
	c.Assert(drv.Log(), qt.Contains, "CmdSetViewport(1024,768)")
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestResizeFromAnotherGoroutine(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			r.NotifyResized()
		}
	}()
	tick(c, r, 5)
	wg.Wait()
	tick(c, r, 1)

	c.Assert(r.Rebuilds() >= 1, qt.IsTrue)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestMinimized(t *testing.T) {
	c := qt.New(t)
	r, drv, win := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		drv.Adapters[0].Capabilities.CurrentExtent = device.Extent2D{
			Width:  device.UndefinedExtent,
			Height: device.UndefinedExtent,
		}
	})
	tick(c, r, 1)

	win.width, win.height = 0, 0
	r.NotifyResized()
	tick(c, r, 3)
	c.Assert(drv.Count("AcquireNextImage"), qt.Equals, 1)
	c.Assert(r.Rebuilds(), qt.Equals, 0)

	win.width, win.height = 640, 480
	tick(c, r, 1)
	c.Assert(r.Rebuilds(), qt.Equals, 1)
	c.Assert(r.Swapchain().Extent, qt.Equals, device.Extent2D{Width: 640, Height: 480})
	c.Assert(drv.Count("AcquireNextImage"), qt.Equals, 2)
}

func TestClampedImageCount(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		drv.Adapters[0].Capabilities.MinImageCount = 2
		drv.Adapters[0].Capabilities.MaxImageCount = 2
	})

	c.Assert(r.Swapchain().ImageCount, qt.Equals, uint32(2))
	c.Assert(r.Cursor().MaxFramesInFlight(), qt.Equals, 1)
	for i := 0; i < 4; i++ {
		tick(c, r, 1)
		c.Assert(r.Cursor().Current(), qt.Equals, 0)
	}
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestFormatChangeRebuildsPipeline(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)
	tick(c, r, 2)

	drv.Adapters[0].Formats = []device.SurfaceFormat{
		{Format: device.FormatR8G8B8A8Unorm, ColorSpace: device.ColorSpaceSrgbNonlinear},
	}
	r.NotifyResized()
	tick(c, r, 1)

	c.Assert(drv.Count("CreateGraphicsPipeline"), qt.Equals, 2)
	c.Assert(drv.Count("DestroyPipeline"), qt.Equals, 1)
	c.Assert(r.Swapchain().Format.Format, qt.Equals, device.FormatR8G8B8A8Unorm)
	c.Assert(drv.Log(), qt.Contains, "CreateRenderPass(R8G8B8A8_UNORM)")
}

func TestConcurrentSharing(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), func(drv *devicetest.Driver) {
		a := drv.Adapters[0]
		a.Families = []device.QueueFamily{
			{Index: 0, QueueCount: 1, Graphics: true},
			{Index: 1, QueueCount: 1, Transfer: true},
		}
		a.PresentFamily = map[uint32]bool{1: true}
	})

	c.Assert(r.Context().Families, qt.Equals, core.QueueFamilyIndices{Graphics: 0, Present: 1})
	c.Assert(r.Context().SharingMode(), qt.Equals, device.SharingModeConcurrent)
	c.Assert(drv.Log(), qt.Contains, "CreateDevice([0 1])")
	c.Assert(drv.Log(), qt.Contains, "CreateSwapchain(800,600,3,1)")
	tick(c, r, 3)
}

func TestRebuildFailureIsFatal(t *testing.T) {
	c := qt.New(t)
	cfg := testConfiguration()
	cfg.Renderer.MaxRebuildAttempts = 2
	r, drv, _ := newRenderer(c, cfg, nil)
	tick(c, r, 1)

	drv.Fail["CreateSwapchain"] = errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY")
	r.NotifyResized()
	err := r.RenderFrame(triangle)
	c.Assert(err, qt.ErrorIs, core.ErrResourceCreation)
	c.Assert(core.KindOf(err), qt.Equals, core.ErrResourceCreation)
	c.Assert(drv.Count("CreateSwapchain"), qt.Equals, 3)

	c.Assert(r.Shutdown(), qt.IsNil)
	c.Assert(drv.Live(), qt.HasLen, 0)
}

func TestUsageContract(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()
	r := core.NewRenderer(drv, testConfiguration(), nil)

	err := r.RenderFrame(triangle)
	c.Assert(err, qt.ErrorIs, core.ErrNotInitialized)
	c.Assert(core.IsUsageError(err), qt.IsTrue)
	c.Assert(r.Shutdown(), qt.ErrorIs, core.ErrNotInitialized)
	c.Assert(drv.Calls(), qt.HasLen, 0)

	win := &testWindow{drv: drv, width: 800, height: 600}
	c.Assert(r.Initialize(win), qt.IsNil)
	c.Assert(r.Initialize(win), qt.ErrorIs, core.ErrAlreadyInitialized)
	c.Assert(r.Shutdown(), qt.IsNil)

	c.Assert(r.RenderFrame(triangle), qt.ErrorIs, core.ErrShutdown)
	c.Assert(r.Initialize(win), qt.ErrorIs, core.ErrShutdown)
	c.Assert(r.Shutdown(), qt.ErrorIs, core.ErrShutdown)
}

func TestShutdownOrder(t *testing.T) {
	c := qt.New(t)
	cfg := testConfiguration()
	cfg.Instance.DebugMode = true
	r, drv, _ := newRenderer(c, cfg, nil)
	tick(c, r, 4)

	c.Assert(r.Shutdown(), qt.IsNil)
	c.Assert(drv.Live(), qt.HasLen, 0)
	c.Assert(drv.Violations(), qt.HasLen, 0)

	calls := drv.Calls()
	order := []string{
		"DestroyPipeline",
		"DestroySwapchain",
		"DestroyFence",
		"DestroyCommandPool",
		"DestroyDevice",
		"DestroySurface",
		"DestroyDebugMessenger",
		"DestroyInstance",
	}
	for i := 1; i < len(order); i++ {
		c.Assert(lastIndex(calls, order[i-1]) < lastIndex(calls, order[i]), qt.IsTrue,
			qt.Commentf("%s after %s", order[i-1], order[i]))
	}
}

func TestInitializeFailures(t *testing.T) {
	tests := []struct {
		about string
		setup func(*devicetest.Driver)
		kind  error
	}{{
		about: "missing window extension",
		setup: func(drv *devicetest.Driver) { drv.Extensions = nil },
		kind:  core.ErrInstanceCreation,
	}, {
		about: "instance rejected",
		setup: func(drv *devicetest.Driver) { drv.Fail["CreateInstance"] = errors.New("VK_ERROR_INCOMPATIBLE_DRIVER") },
		kind:  core.ErrInstanceCreation,
	}, {
		about: "no swapchain support",
		setup: func(drv *devicetest.Driver) { drv.Adapters[0].Info.Extensions = nil },
		kind:  core.ErrNoSuitableAdapter,
	}, {
		about: "no present modes",
		setup: func(drv *devicetest.Driver) { drv.Adapters[0].PresentModes = nil },
		kind:  core.ErrNoSuitableAdapter,
	}, {
		about: "device rejected",
		setup: func(drv *devicetest.Driver) { drv.Fail["CreateDevice"] = errors.New("VK_ERROR_FEATURE_NOT_PRESENT") },
		kind:  core.ErrDeviceCreation,
	}, {
		about: "fence creation",
		setup: func(drv *devicetest.Driver) { drv.Fail["CreateFence"] = errors.New("VK_ERROR_OUT_OF_HOST_MEMORY") },
		kind:  core.ErrResourceCreation,
	}, {
		about: "command buffer allocation",
		setup: func(drv *devicetest.Driver) { drv.Fail["AllocateCommandBuffer"] = errors.New("VK_ERROR_OUT_OF_HOST_MEMORY") },
		kind:  core.ErrResourceCreation,
	}, {
		about: "framebuffer creation",
		setup: func(drv *devicetest.Driver) { drv.Fail["CreateFramebuffer"] = errors.New("VK_ERROR_OUT_OF_HOST_MEMORY") },
		kind:  core.ErrResourceCreation,
	}, {
		about: "pipeline link",
		setup: func(drv *devicetest.Driver) { drv.Fail["CreateGraphicsPipeline"] = errors.New("VK_ERROR_INVALID_SHADER_NV") },
		kind:  core.ErrPipelineCreation,
	}}

	for _, test := range tests {
		t.Run(test.about, func(t *testing.T) {
			c := qt.New(t)
			drv := devicetest.New()
			test.setup(drv)
			r := core.NewRenderer(drv, testConfiguration(), nil)

			err := r.Initialize(&testWindow{drv: drv, width: 800, height: 600})
			c.Assert(err, qt.ErrorIs, test.kind)
			c.Assert(core.KindOf(err), qt.Equals, test.kind)
			c.Assert(drv.Live(), qt.HasLen, 0)
			c.Assert(r.RenderFrame(triangle), qt.ErrorIs, core.ErrNotInitialized)
		})
	}
}

func TestMissingShaders(t *testing.T) {
	c := qt.New(t)
	cfg := testConfiguration()
	cfg.Renderer.Shaders = core.ShaderFiles{"only.vert.spv": make([]byte, 8)}
	drv := devicetest.New()
	r := core.NewRenderer(drv, cfg, nil)

	err := r.Initialize(&testWindow{drv: drv, width: 800, height: 600})
	c.Assert(err, qt.ErrorIs, core.ErrPipelineCreation)
	c.Assert(drv.Live(), qt.HasLen, 0)
}

func TestUploadVertices(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)

	vb, err := r.UploadVertices(make([]byte, 84))
	c.Assert(err, qt.IsNil)
	c.Assert(vb.Size, qt.Equals, uint64(84))
	c.Assert(drv.Count("CmdCopyBuffer"), qt.Equals, 1)
	c.Assert(drv.Count("QueueWaitIdle"), qt.Equals, 1)

	scene := testScene{buffers: []device.Buffer{vb.Buffer}, count: 3}
	for i := 0; i < 3; i++ {
		c.Assert(r.RenderFrame(scene), qt.IsNil)
	}
	c.Assert(drv.Count("CmdBindVertexBuffers"), qt.Equals, 3)
	c.Assert(drv.Draws(), qt.Equals, 3)

	c.Assert(r.WaitIdle(), qt.IsNil)
	vb.Destroy()
	c.Assert(r.Shutdown(), qt.IsNil)
	c.Assert(drv.Live(), qt.HasLen, 0)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestEmptySceneRecordsNoDraw(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)

	c.Assert(r.RenderFrame(testScene{}), qt.IsNil)
	c.Assert(r.RenderFrame(nil), qt.IsNil)
	c.Assert(drv.Draws(), qt.Equals, 0)
	c.Assert(drv.Count("QueuePresent"), qt.Equals, 2)
}

func TestSubmissionFailure(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)

	drv.Fail["QueueSubmit"] = device.ErrDeviceLost
	err := r.RenderFrame(triangle)
	c.Assert(err, qt.ErrorIs, core.ErrSubmission)
	c.Assert(err, qt.ErrorIs, device.ErrDeviceLost)
	c.Assert(r.State(), qt.Equals, core.StateIdle)
}

func TestStateTransitions(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)

	var seen []core.State
	for _, name := range []string{"WaitForFence", "ResetCommandBuffer", "QueueSubmit", "QueuePresent"} {
		drv.Hook[name] = func() { seen = append(seen, r.State()) }
	}

	c.Assert(r.RenderFrame(triangle), qt.IsNil)
	c.Assert(seen, qt.DeepEquals, []core.State{
		core.StateAcquiring, core.StateRecording, core.StateSubmitted, core.StatePresenting,
	})
	c.Assert(r.State(), qt.Equals, core.StateIdle)
}
