// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkdriver implements device.Driver on top of Vulkan.
//
// Vulkan objects are kept in a handle table and handed out as opaque
// device handles, so nothing above this package sees a vk type.
package vkdriver

import (
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/present/device"
)

// New loads Vulkan through the given vkGetInstanceProcAddr, a nil pointer
// uses the loader of the system
func New(procAddr unsafe.Pointer) (*Driver, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}
	return &Driver{
		objects:   map[uint64]interface{}{},
		devices:   map[device.Device]vk.PhysicalDevice{},
		queues:    map[vk.Queue]device.Queue{},
		images:    map[device.Swapchain][]device.Image{},
		memory:    map[device.DeviceMemory]uint64{},
		observers: map[device.DebugMessenger]device.DebugObserver{},
	}, nil
}

// Driver is a device.Driver backed by Vulkan
type Driver struct {
	mu      sync.RWMutex
	next    uint64
	objects map[uint64]interface{}

	// devices remembers the adapter each logical device was created on
	devices map[device.Device]vk.PhysicalDevice
	queues  map[vk.Queue]device.Queue
	// images are owned by their swapchain
	images map[device.Swapchain][]device.Image
	// memory remembers allocation sizes for mapping
	memory map[device.DeviceMemory]uint64

	observers map[device.DebugMessenger]device.DebugObserver
}

var _ device.Driver = (*Driver)(nil)

func (d *Driver) put(obj interface{}) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.objects[d.next] = obj
	return d.next
}

func (d *Driver) get(h uint64) interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.objects[h]
}

func (d *Driver) drop(h uint64) interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	obj := d.objects[h]
	delete(d.objects, h)
	return obj
}

func (d *Driver) instance(h device.Instance) vk.Instance {
	i, _ := d.get(uint64(h)).(vk.Instance)
	return i
}

func (d *Driver) surface(h device.Surface) vk.Surface {
	s, ok := d.get(uint64(h)).(vk.Surface)
	if !ok {
		return vk.NullSurface
	}
	return s
}

func (d *Driver) adapter(h device.Adapter) vk.PhysicalDevice {
	a, _ := d.get(uint64(h)).(vk.PhysicalDevice)
	return a
}

func (d *Driver) logical(h device.Device) vk.Device {
	v, _ := d.get(uint64(h)).(vk.Device)
	return v
}

func (d *Driver) queue(h device.Queue) vk.Queue {
	q, _ := d.get(uint64(h)).(vk.Queue)
	return q
}

func (d *Driver) swapchain(h device.Swapchain) vk.Swapchain {
	s, ok := d.get(uint64(h)).(vk.Swapchain)
	if !ok {
		return vk.NullSwapchain
	}
	return s
}

func (d *Driver) image(h device.Image) vk.Image {
	i, _ := d.get(uint64(h)).(vk.Image)
	return i
}

func (d *Driver) imageView(h device.ImageView) vk.ImageView {
	v, _ := d.get(uint64(h)).(vk.ImageView)
	return v
}

func (d *Driver) framebuffer(h device.Framebuffer) vk.Framebuffer {
	f, _ := d.get(uint64(h)).(vk.Framebuffer)
	return f
}

func (d *Driver) renderPass(h device.RenderPass) vk.RenderPass {
	r, _ := d.get(uint64(h)).(vk.RenderPass)
	return r
}

func (d *Driver) pipelineLayout(h device.PipelineLayout) vk.PipelineLayout {
	l, _ := d.get(uint64(h)).(vk.PipelineLayout)
	return l
}

func (d *Driver) pipeline(h device.Pipeline) vk.Pipeline {
	p, _ := d.get(uint64(h)).(vk.Pipeline)
	return p
}

func (d *Driver) shaderModule(h device.ShaderModule) vk.ShaderModule {
	m, _ := d.get(uint64(h)).(vk.ShaderModule)
	return m
}

func (d *Driver) commandPool(h device.CommandPool) vk.CommandPool {
	p, _ := d.get(uint64(h)).(vk.CommandPool)
	return p
}

func (d *Driver) commandBuffer(h device.CommandBuffer) vk.CommandBuffer {
	c, _ := d.get(uint64(h)).(vk.CommandBuffer)
	return c
}

func (d *Driver) semaphore(h device.Semaphore) vk.Semaphore {
	s, _ := d.get(uint64(h)).(vk.Semaphore)
	return s
}

func (d *Driver) fence(h device.Fence) vk.Fence {
	f, _ := d.get(uint64(h)).(vk.Fence)
	return f
}

func (d *Driver) buffer(h device.Buffer) vk.Buffer {
	b, _ := d.get(uint64(h)).(vk.Buffer)
	return b
}

func (d *Driver) deviceMemory(h device.DeviceMemory) vk.DeviceMemory {
	m, _ := d.get(uint64(h)).(vk.DeviceMemory)
	return m
}

// NativeInstance returns the vk.Instance behind a handle, window systems
// need it to create surfaces
func (d *Driver) NativeInstance(h device.Instance) vk.Instance {
	return d.instance(h)
}

// ImportSurface takes ownership of a surface a window system created
func (d *Driver) ImportSurface(pSurface unsafe.Pointer) device.Surface {
	return device.Surface(d.put(vk.SurfaceFromPointer(uintptr(pSurface))))
}

// check converts a failed result into an error naming the call
func check(result vk.Result, call string) error {
	switch result {
	case vk.Success:
		return nil
	case vk.Timeout:
		return errors.Wrap(device.ErrTimeout, call)
	case vk.ErrorDeviceLost:
		return errors.Wrap(device.ErrDeviceLost, call)
	case vk.ErrorSurfaceLost:
		return errors.Wrap(device.ErrSurfaceLost, call)
	}
	return errors.Wrap(vk.Error(result), call)
}

// status separates the stale surface outcomes of acquire and present
// from real failures
func status(result vk.Result, call string) (device.Status, error) {
	switch result {
	case vk.Success:
		return device.StatusOptimal, nil
	case vk.Suboptimal:
		return device.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return device.StatusOutOfDate, nil
	}
	return device.StatusOptimal, check(result, call)
}

// safeStrings null terminates strings handed to Vulkan
func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		if !strings.HasSuffix(s, "\x00") {
			s += "\x00"
		}
		out[i] = s
	}
	return out
}

func timeoutNanos(timeout time.Duration) uint64 {
	if timeout < 0 || timeout == device.Infinite {
		return vk.MaxUint64
	}
	return uint64(timeout)
}
