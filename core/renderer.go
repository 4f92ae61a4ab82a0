// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/devblok/present/device"
)

// State of the frame scheduler
type State int

// Scheduler states, a tick goes through all of them in order.
// Submitted and Presenting are entered as the frame is handed to
// the graphics and present queues.
const (
	StateIdle State = iota
	StateAcquiring
	StateRecording
	StateSubmitted
	StatePresenting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	case StatePresenting:
		return "presenting"
	}
	return "unknown"
}

// NewRenderer creates a not yet initialised renderer on the driver.
// The observer receives validation messages in debug mode, nil logs them.
func NewRenderer(drv device.Driver, cfg Configuration, observer device.DebugObserver) *Renderer {
	return &Renderer{
		configuration: cfg,
		driver:        drv,
		observer:      observer,
	}
}

// Renderer drives presentation of frames to a window. RenderFrame and the
// lifecycle methods must be called from a single goroutine, NotifyResized
// is safe to call from anywhere.
type Renderer struct {
	configuration Configuration
	driver        device.Driver
	observer      device.DebugObserver
	window        Window

	ctx       *DeviceContext
	pool      device.CommandPool
	shaders   []ShaderCode
	pipeline  *Pipeline
	swapchain *Swapchain
	cursor    FrameCursor
	state     State

	resized        atomic.Bool
	rebuildPending bool
	rebuilds       int

	initialized bool
	shutdown    bool
	stack       releaseStack
}

// Initialize creates the device context, swapchain, frames and pipeline
// for the window. On failure everything created so far is released.
func (r *Renderer) Initialize(window Window) error {
	if r.shutdown {
		return misuse(ErrShutdown, "Renderer.Initialize()")
	}
	if r.initialized {
		return misuse(ErrAlreadyInitialized, "Renderer.Initialize()")
	}
	if err := r.initialize(window); err != nil {
		r.release()
		return err
	}
	r.initialized = true
	Logger().WithFields(logrus.Fields{
		"images":         r.swapchain.ImageCount,
		"framesInFlight": r.cursor.MaxFramesInFlight(),
		"presentMode":    r.swapchain.PresentMode,
		"format":         r.swapchain.Format.Format,
	}).Info("renderer initialized")
	return nil
}

func (r *Renderer) initialize(window Window) error {
	cfg := r.configuration.Renderer
	r.window = window

	if cfg.Shaders == nil {
		return failf(ErrPipelineCreation, "no shader source configured")
	}
	shaders, err := cfg.Shaders.LoadShaders()
	if err != nil {
		return fail(ErrPipelineCreation, err, "ShaderSource.LoadShaders()")
	}
	r.shaders = shaders

	ctx, err := NewDeviceContext(r.driver, r.configuration.Instance, window, r.observer)
	if err != nil {
		return err
	}
	r.ctx = ctx
	r.stack.push("device context", ctx.Destroy)

	pool, err := r.driver.CreateCommandPool(ctx.Device, ctx.Families.Graphics)
	if err != nil {
		return fail(ErrResourceCreation, err, "CreateCommandPool()")
	}
	r.pool = pool
	r.stack.push("command pool", func() {
		r.driver.DestroyCommandPool(ctx.Device, pool)
	})

	framebuffer := r.framebufferSize()
	if framebuffer.Empty() {
		framebuffer = device.Extent2D{Width: cfg.ScreenWidth, Height: cfg.ScreenHeight}
	}
	return r.buildSwapchain(framebuffer)
}

func (r *Renderer) framebufferSize() device.Extent2D {
	w, h := r.window.FramebufferSize()
	return device.Extent2D{Width: w, Height: h}
}

// buildSwapchain creates the swapchain generation, retiring the current one.
// The pipeline is kept unless the surface format changed.
func (r *Renderer) buildSwapchain(framebuffer device.Extent2D) error {
	var old device.Swapchain
	if r.swapchain != nil {
		old = r.swapchain.Handle
	}

	sc, err := CreateSwapchain(r.ctx, framebuffer, old)

	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain.DestroyFrameResources(r.pool)
		r.swapchain = nil
	}
	if err != nil {
		return err
	}

	if r.pipeline != nil && r.pipeline.Format != sc.Format.Format {
		Logger().WithFields(logrus.Fields{
			"from": r.pipeline.Format,
			"to":   sc.Format.Format,
		}).Info("surface format changed, rebuilding pipeline")
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	if r.pipeline == nil {
		pipeline, err := BuildPipeline(r.ctx, r.shaders, r.configuration.Renderer.Vertices, sc.Extent, sc.Format.Format)
		if err != nil {
			sc.Destroy()
			return err
		}
		r.pipeline = pipeline
	}

	if err := sc.PopulateFrames(r.pipeline.RenderPass); err != nil {
		sc.Destroy()
		sc.DestroyFrameResources(r.pool)
		return err
	}
	if err := sc.AllocateFrameResources(r.pool); err != nil {
		sc.Destroy()
		sc.DestroyFrameResources(r.pool)
		return err
	}

	r.swapchain = sc
	if r.cursor.MaxFramesInFlight() == 0 {
		r.cursor = NewFrameCursor(sc.MaxFramesInFlight())
	} else {
		r.cursor.Resize(sc.MaxFramesInFlight())
	}
	return nil
}

// rebuild recreates the swapchain after draining the device. It reports
// false without error when the window has no area, the rebuild then stays
// pending. Creation is retried before the failure becomes fatal.
func (r *Renderer) rebuild() (bool, error) {
	framebuffer := r.framebufferSize()
	if framebuffer.Empty() {
		r.rebuildPending = true
		Logger().Debug("framebuffer is empty, skipping frame")
		return false, nil
	}

	if err := r.ctx.WaitIdle(); err != nil {
		return false, fail(ErrSubmission, err, "WaitIdle()")
	}

	var err error
	attempts := r.configuration.Renderer.rebuildAttempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = r.buildSwapchain(framebuffer); err == nil {
			break
		}
		Logger().WithError(err).WithField("attempt", attempt).Warn("swapchain rebuild failed")
	}
	if err != nil {
		return false, err
	}

	r.rebuildPending = false
	r.rebuilds++
	Logger().WithFields(logrus.Fields{
		"width":  r.swapchain.Extent.Width,
		"height": r.swapchain.Extent.Height,
		"images": r.swapchain.ImageCount,
	}).Debug("swapchain rebuilt")
	return true, nil
}

// NotifyResized marks the swapchain stale, it is rebuilt on the next tick
func (r *Renderer) NotifyResized() {
	r.resized.Store(true)
}

// RenderFrame runs one tick of the scheduler: wait for the frame slot,
// acquire an image, record, submit and present. A stale surface is rebuilt
// without returning an error, the cursor then stays on the same slot.
func (r *Renderer) RenderFrame(scene Scene) error {
	if r.shutdown {
		return misuse(ErrShutdown, "Renderer.RenderFrame()")
	}
	if !r.initialized {
		return misuse(ErrNotInitialized, "Renderer.RenderFrame()")
	}

	if r.resized.Swap(false) {
		r.rebuildPending = true
	}
	if r.rebuildPending || r.swapchain == nil {
		if ok, err := r.rebuild(); err != nil || !ok {
			return err
		}
	}

	drv := r.driver
	dev := r.ctx.Device
	sc := r.swapchain
	frame := sc.Frames[r.cursor.Current()]
	timeout := r.configuration.Renderer.fenceTimeout()

	r.state = StateAcquiring
	if err := drv.WaitForFence(dev, frame.InFlight, timeout); err != nil {
		r.state = StateIdle
		return fail(ErrSubmission, err, "WaitForFence()")
	}

	imageIndex, status, err := drv.AcquireNextImage(dev, sc.Handle, timeout, frame.ImageAvailable)
	if err != nil {
		r.state = StateIdle
		return fail(ErrSubmission, err, "AcquireNextImage()")
	}
	if status == device.StatusOutOfDate {
		r.state = StateIdle
		r.rebuildPending = true
		_, err := r.rebuild()
		return err
	}
	if status == device.StatusSuboptimal {
		r.rebuildPending = true
	}

	if err := drv.ResetFence(dev, frame.InFlight); err != nil {
		r.state = StateIdle
		return fail(ErrSubmission, err, "ResetFence()")
	}

	r.state = StateRecording
	if err := r.record(frame.CommandBuffer, sc.Frames[imageIndex].Framebuffer, sc.Extent, scene); err != nil {
		r.state = StateIdle
		return err
	}

	r.state = StateSubmitted
	if err := drv.QueueSubmit(r.ctx.GraphicsQueue, device.SubmitInfo{
		WaitSemaphores:   []device.Semaphore{frame.ImageAvailable},
		WaitStages:       []device.PipelineStage{device.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []device.CommandBuffer{frame.CommandBuffer},
		SignalSemaphores: []device.Semaphore{frame.RenderFinished},
		Fence:            frame.InFlight,
	}); err != nil {
		r.state = StateIdle
		return fail(ErrSubmission, err, "QueueSubmit()")
	}

	r.state = StatePresenting
	status, err = drv.QueuePresent(r.ctx.PresentQueue, device.PresentInfo{
		WaitSemaphores: []device.Semaphore{frame.RenderFinished},
		Swapchain:      sc.Handle,
		ImageIndex:     imageIndex,
	})
	r.state = StateIdle
	if err != nil {
		return fail(ErrSubmission, err, "QueuePresent()")
	}

	if status != device.StatusOptimal || r.resized.Swap(false) {
		r.rebuildPending = true
	}
	if r.rebuildPending {
		_, err := r.rebuild()
		return err
	}

	r.cursor.Advance()
	return nil
}

func (r *Renderer) record(cb device.CommandBuffer, framebuffer device.Framebuffer, extent device.Extent2D, scene Scene) error {
	drv := r.driver
	if err := drv.ResetCommandBuffer(cb); err != nil {
		return fail(ErrResourceCreation, err, "ResetCommandBuffer()")
	}
	if err := drv.BeginCommandBuffer(cb, false); err != nil {
		return fail(ErrResourceCreation, err, "BeginCommandBuffer()")
	}

	area := device.Rect2D{Extent: extent}
	drv.CmdBeginRenderPass(cb, device.RenderPassBeginInfo{
		RenderPass:  r.pipeline.RenderPass,
		Framebuffer: framebuffer,
		Area:        area,
		ClearColor:  r.configuration.Renderer.ClearColor,
	})
	drv.CmdSetViewport(cb, device.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1,
	})
	drv.CmdSetScissor(cb, area)
	drv.CmdBindPipeline(cb, r.pipeline.Handle)
	if scene != nil && scene.VertexCount() > 0 {
		if buffers := scene.VertexBuffers(); len(buffers) > 0 {
			drv.CmdBindVertexBuffers(cb, buffers)
		}
		drv.CmdDraw(cb, scene.VertexCount(), 1)
	}
	drv.CmdEndRenderPass(cb)

	if err := drv.EndCommandBuffer(cb); err != nil {
		return fail(ErrResourceCreation, err, "EndCommandBuffer()")
	}
	return nil
}

// UploadVertices copies vertex data into a device local buffer.
// The caller destroys it before Shutdown.
func (r *Renderer) UploadVertices(data []byte) (*VertexBuffer, error) {
	if r.shutdown {
		return nil, misuse(ErrShutdown, "Renderer.UploadVertices()")
	}
	if !r.initialized {
		return nil, misuse(ErrNotInitialized, "Renderer.UploadVertices()")
	}
	return NewVertexBuffer(r.ctx, r.pool, data)
}

// WaitIdle blocks until the device finished all submitted frames
func (r *Renderer) WaitIdle() error {
	if !r.initialized {
		return nil
	}
	return r.ctx.WaitIdle()
}

// Shutdown waits for the device to go idle and releases everything in
// reverse order of creation: pipeline, swapchain, frame sync objects,
// command pool, device, surface, debug messenger and instance.
func (r *Renderer) Shutdown() error {
	if r.shutdown {
		return misuse(ErrShutdown, "Renderer.Shutdown()")
	}
	if !r.initialized {
		return misuse(ErrNotInitialized, "Renderer.Shutdown()")
	}
	r.release()
	r.initialized = false
	r.shutdown = true
	Logger().Info("renderer shut down")
	return nil
}

func (r *Renderer) release() {
	if r.ctx != nil {
		if err := r.ctx.WaitIdle(); err != nil {
			Logger().WithError(err).Warn("device did not go idle before release")
		}
	}
	r.pipeline.Destroy()
	r.pipeline = nil
	r.swapchain.Destroy()
	r.swapchain.DestroyFrameResources(r.pool)
	r.swapchain = nil
	r.stack.unwind()
	r.ctx = nil
	r.pool = 0
}

// State returns the scheduler state, idle between ticks
func (r *Renderer) State() State {
	return r.state
}

// Cursor returns the frame cursor
func (r *Renderer) Cursor() FrameCursor {
	return r.cursor
}

// Swapchain returns the current swapchain generation
func (r *Renderer) Swapchain() *Swapchain {
	return r.swapchain
}

// Context returns the device context, nil before initialization
func (r *Renderer) Context() *DeviceContext {
	return r.ctx
}

// Rebuilds returns how many times the swapchain was rebuilt
func (r *Renderer) Rebuilds() int {
	return r.rebuilds
}
