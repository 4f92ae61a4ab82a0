// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strings"

	"github.com/devblok/present/device"
)

// DeviceContext owns the instance, surface and logical device along with
// the queues work is submitted to. Queue families are resolved once.
type DeviceContext struct {
	Driver device.Driver

	Instance      device.Instance
	Surface       device.Surface
	Adapter       device.Adapter
	Device        device.Device
	GraphicsQueue device.Queue
	PresentQueue  device.Queue
	Families      QueueFamilyIndices

	messenger device.DebugMessenger
	stack     releaseStack
}

// NewDeviceContext creates the instance, surface and logical device for the
// window. The observer is attached when debug mode is on, nil forwards
// validation messages to the logger.
func NewDeviceContext(drv device.Driver, cfg InstanceConfiguration, window Window, observer device.DebugObserver) (*DeviceContext, error) {
	ctx := &DeviceContext{Driver: drv}

	instance, err := CreateInstance(drv, cfg, window.RequiredExtensions())
	if err != nil {
		return nil, err
	}
	ctx.Instance = instance
	ctx.stack.push("instance", func() {
		drv.DestroyInstance(instance)
	})

	ctx.stack.push("debug messenger", ctx.DetachObserver)
	if cfg.DebugMode {
		if observer == nil {
			observer = LogObserver{MinSeverity: device.DebugSeverityWarning}
		}
		if err := ctx.AttachObserver(observer); err != nil {
			ctx.Destroy()
			return nil, err
		}
	}

	surface, err := window.CreateSurface(instance)
	if err != nil {
		ctx.Destroy()
		return nil, fail(ErrInstanceCreation, err, "Window.CreateSurface()")
	}
	ctx.Surface = surface
	ctx.stack.push("surface", func() {
		drv.DestroySurface(instance, surface)
	})

	adapter, families, err := SelectAdapter(drv, instance, surface)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.Adapter = adapter
	ctx.Families = families

	dev, graphics, present, err := CreateLogicalDevice(drv, adapter, families)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.Device = dev
	ctx.GraphicsQueue = graphics
	ctx.PresentQueue = present
	ctx.stack.push("device", func() {
		drv.DestroyDevice(dev)
	})

	return ctx, nil
}

func missing(available, required []string) []string {
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[strings.TrimSuffix(a, "\x00")] = true
	}
	var out []string
	for _, r := range required {
		if !have[strings.TrimSuffix(r, "\x00")] {
			out = append(out, r)
		}
	}
	return out
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, l := range list {
			if l == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}

// CreateInstance creates an instance with the extensions the window needs.
// Debug mode adds the debug report extension and the validation layer.
func CreateInstance(drv device.InstanceDriver, cfg InstanceConfiguration, windowExtensions []string) (device.Instance, error) {
	extensions := appendUnique(nil, windowExtensions...)
	extensions = appendUnique(extensions, cfg.Extensions...)
	layers := appendUnique(nil, cfg.Layers...)
	if cfg.DebugMode {
		extensions = appendUnique(extensions, device.DebugReportExtension)
		layers = appendUnique(layers, device.ValidationLayer)
	}

	available, err := drv.AvailableExtensions()
	if err != nil {
		return 0, fail(ErrInstanceCreation, err, "AvailableExtensions()")
	}
	if m := missing(available, extensions); len(m) > 0 {
		return 0, failf(ErrInstanceCreation, "instance extensions not available: %s", strings.Join(m, ", "))
	}

	if len(layers) > 0 {
		availableLayers, err := drv.AvailableLayers()
		if err != nil {
			return 0, fail(ErrInstanceCreation, err, "AvailableLayers()")
		}
		if m := missing(availableLayers, layers); len(m) > 0 {
			return 0, failf(ErrInstanceCreation, "instance layers not available: %s", strings.Join(m, ", "))
		}
	}

	name := cfg.ApplicationName
	if name == "" {
		name = "Koru3D"
	}
	instance, err := drv.CreateInstance(device.InstanceCreateInfo{
		ApplicationName: name,
		EngineName:      "Koru3D",
		Extensions:      extensions,
		Layers:          layers,
	})
	if err != nil {
		return 0, fail(ErrInstanceCreation, err, "CreateInstance()")
	}
	return instance, nil
}

// CreateLogicalDevice creates a device with one queue per unique family
// and the swapchain extension enabled
func CreateLogicalDevice(drv device.ResourceDriver, adapter device.Adapter, families QueueFamilyIndices) (device.Device, device.Queue, device.Queue, error) {
	dev, err := drv.CreateDevice(adapter, device.DeviceCreateInfo{
		QueueFamilies: families.Unique(),
		Extensions:    []string{device.SwapchainExtension},
	})
	if err != nil {
		return 0, 0, 0, fail(ErrDeviceCreation, err, "CreateDevice()")
	}
	graphics := drv.GetQueue(dev, families.Graphics, 0)
	present := drv.GetQueue(dev, families.Present, 0)
	return dev, graphics, present, nil
}

// AttachObserver routes validation messages to the observer,
// replacing a previously attached one
func (c *DeviceContext) AttachObserver(observer device.DebugObserver) error {
	c.DetachObserver()
	messenger, err := c.Driver.CreateDebugMessenger(c.Instance, observer)
	if err != nil {
		return fail(ErrInstanceCreation, err, "CreateDebugMessenger()")
	}
	c.messenger = messenger
	return nil
}

// DetachObserver stops validation messages, it is a no-op without an observer
func (c *DeviceContext) DetachObserver() {
	if c.messenger == 0 {
		return
	}
	c.Driver.DestroyDebugMessenger(c.Instance, c.messenger)
	c.messenger = 0
}

// SharingMode is concurrent when graphics and present families differ
func (c *DeviceContext) SharingMode() device.SharingMode {
	if c.Families.Shared() {
		return device.SharingModeExclusive
	}
	return device.SharingModeConcurrent
}

// WaitIdle blocks until the device has finished all submitted work
func (c *DeviceContext) WaitIdle() error {
	if c.Device == 0 {
		return nil
	}
	return c.Driver.WaitIdle(c.Device)
}

// PhysicalDevicesInfo describes every adapter on the instance
func (c *DeviceContext) PhysicalDevicesInfo() ([]device.PhysicalDeviceInfo, error) {
	return DescribeAdapters(c.Driver, c.Instance)
}

// Destroy releases the device, surface, debug messenger and instance
func (c *DeviceContext) Destroy() {
	if err := c.WaitIdle(); err != nil {
		Logger().WithError(err).Warn("device did not go idle before release")
	}
	c.stack.unwind()
	c.Device = 0
	c.Surface = 0
	c.Instance = 0
}
