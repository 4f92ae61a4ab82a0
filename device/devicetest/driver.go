// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package devicetest provides a scripted in-memory device.Driver.
//
// Submitted work completes when a fence guarding it is waited on or when the
// device or queue goes idle, which is enough to model the ordering hazards a
// presentation loop has to respect. Hazards are recorded as violations
// instead of failing, so tests can assert on them.
package devicetest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/devblok/present/device"
)

// Adapter is a scripted physical device
type Adapter struct {
	Info          device.PhysicalDeviceInfo
	Families      []device.QueueFamily
	PresentFamily map[uint32]bool
	MemoryTypes   []device.MemoryType
	Capabilities  device.SurfaceCapabilities
	Formats       []device.SurfaceFormat
	PresentModes  []device.PresentMode
}

// DefaultAdapter is a discrete adapter with a single family that does
// graphics and present, and a surface with three swapchain images.
func DefaultAdapter() *Adapter {
	return &Adapter{
		Info: device.PhysicalDeviceInfo{
			ID:         1,
			VendorID:   0x10de,
			Name:       "Scripted Discrete",
			Type:       device.AdapterTypeDiscrete,
			Extensions: []string{device.SwapchainExtension},
		},
		Families: []device.QueueFamily{
			{Index: 0, QueueCount: 1, Graphics: true, Compute: true, Transfer: true},
		},
		PresentFamily: map[uint32]bool{0: true},
		MemoryTypes: []device.MemoryType{
			{Properties: device.MemoryDeviceLocal},
			{Properties: device.MemoryHostVisible | device.MemoryHostCoherent},
		},
		Capabilities: device.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  device.Extent2D{Width: 800, Height: 600},
			MinImageExtent: device.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: device.Extent2D{Width: 4096, Height: 4096},
		},
		Formats: []device.SurfaceFormat{
			{Format: device.FormatB8G8R8A8Srgb, ColorSpace: device.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []device.PresentMode{device.PresentModeFifo, device.PresentModeMailbox},
	}
}

type fenceState int

const (
	fenceUnsignaled fenceState = iota
	fencePending
	fenceSignaled
)

type swapchain struct {
	info   device.SwapchainCreateInfo
	images []device.Image
	next   uint32
}

// Driver implements device.Driver in memory
type Driver struct {
	mu sync.Mutex

	// Adapters are enumerated in order
	Adapters []*Adapter
	// Extensions and Layers are reported as available on the instance
	Extensions []string
	Layers     []string
	// Acquire and Present script the status of the n-th call, counted from 1
	Acquire map[int]device.Status
	Present map[int]device.Status
	// Fail makes the named method return the error
	Fail map[string]error
	// Hook runs when the named method is called, with the driver locked.
	// Hooks must not call back into the driver.
	Hook map[string]func()

	next       uint64
	calls      []string
	violations []string
	live       map[uint64]string

	adapters   map[device.Adapter]*Adapter
	fences     map[device.Fence]fenceState
	cbFence    map[device.CommandBuffer]device.Fence
	swapchains map[device.Swapchain]*swapchain
	observers  map[device.DebugMessenger]device.DebugObserver
	memory     map[device.DeviceMemory][]byte

	acquires int
	presents int
	draws    int
}

// New creates a driver with the default adapter and the
// extensions and layers a debug instance needs
func New() *Driver {
	return &Driver{
		Adapters:   []*Adapter{DefaultAdapter()},
		Extensions: []string{"VK_KHR_surface", device.DebugReportExtension},
		Layers:     []string{device.ValidationLayer},
		Acquire:    map[int]device.Status{},
		Present:    map[int]device.Status{},
		Fail:       map[string]error{},
		Hook:       map[string]func(){},
		live:       map[uint64]string{},
		adapters:   map[device.Adapter]*Adapter{},
		fences:     map[device.Fence]fenceState{},
		cbFence:    map[device.CommandBuffer]device.Fence{},
		swapchains: map[device.Swapchain]*swapchain{},
		observers:  map[device.DebugMessenger]device.DebugObserver{},
		memory:     map[device.DeviceMemory][]byte{},
	}
}

func (d *Driver) call(name string, args ...interface{}) error {
	entry := name
	if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprint(a)
		}
		entry += "(" + strings.Join(parts, ",") + ")"
	}
	d.calls = append(d.calls, entry)
	if hook, ok := d.Hook[name]; ok {
		hook()
	}
	if err, ok := d.Fail[name]; ok {
		return err
	}
	return nil
}

func (d *Driver) create(kind string) uint64 {
	d.next++
	d.live[d.next] = kind
	return d.next
}

func (d *Driver) destroy(kind string, h uint64) {
	if h == 0 {
		return
	}
	if got, ok := d.live[h]; !ok || got != kind {
		d.violate("destroy of unknown %s %d", kind, h)
		return
	}
	delete(d.live, h)
}

func (d *Driver) violate(format string, args ...interface{}) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

// Calls returns the names of all driver calls in order
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = strings.SplitN(c, "(", 2)[0]
	}
	return out
}

// Log returns all driver calls with their arguments
func (d *Driver) Log() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Count returns how many times the named method was called
func (d *Driver) Count(name string) int {
	n := 0
	for _, c := range d.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

// Violations returns the ordering hazards observed so far
func (d *Driver) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// Live returns the kinds of objects that were created and not yet destroyed
func (d *Driver) Live() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, kind := range d.live {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// Draws returns the number of recorded draw commands
func (d *Driver) Draws() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draws
}

// Memory returns the bytes last written to a memory allocation
func (d *Driver) Memory(m device.DeviceMemory) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.memory[m]
}

// Emit sends a message to every attached debug observer
func (d *Driver) Emit(msg device.DebugMessage) {
	d.mu.Lock()
	observers := make([]device.DebugObserver, 0, len(d.observers))
	for _, o := range d.observers {
		observers = append(observers, o)
	}
	d.mu.Unlock()
	for _, o := range observers {
		o.Observe(msg)
	}
}

// AvailableExtensions implements interface
func (d *Driver) AvailableExtensions() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("AvailableExtensions"); err != nil {
		return nil, err
	}
	return append([]string(nil), d.Extensions...), nil
}

// AvailableLayers implements interface
func (d *Driver) AvailableLayers() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("AvailableLayers"); err != nil {
		return nil, err
	}
	return append([]string(nil), d.Layers...), nil
}

// CreateInstance implements interface
func (d *Driver) CreateInstance(info device.InstanceCreateInfo) (device.Instance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateInstance"); err != nil {
		return 0, err
	}
	return device.Instance(d.create("instance")), nil
}

// DestroyInstance implements interface
func (d *Driver) DestroyInstance(i device.Instance) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyInstance")
	d.destroy("instance", uint64(i))
}

// CreateSurface stands in for the window system creating a surface
func (d *Driver) CreateSurface(i device.Instance) (device.Surface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateSurface"); err != nil {
		return 0, err
	}
	return device.Surface(d.create("surface")), nil
}

// DestroySurface implements interface
func (d *Driver) DestroySurface(i device.Instance, s device.Surface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroySurface")
	d.destroy("surface", uint64(s))
}

// CreateDebugMessenger implements interface
func (d *Driver) CreateDebugMessenger(i device.Instance, o device.DebugObserver) (device.DebugMessenger, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateDebugMessenger"); err != nil {
		return 0, err
	}
	m := device.DebugMessenger(d.create("messenger"))
	d.observers[m] = o
	return m, nil
}

// DestroyDebugMessenger implements interface
func (d *Driver) DestroyDebugMessenger(i device.Instance, m device.DebugMessenger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyDebugMessenger")
	delete(d.observers, m)
	d.destroy("messenger", uint64(m))
}

// EnumerateAdapters implements interface
func (d *Driver) EnumerateAdapters(i device.Instance) ([]device.Adapter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("EnumerateAdapters"); err != nil {
		return nil, err
	}
	out := make([]device.Adapter, len(d.Adapters))
	for idx, a := range d.Adapters {
		d.next++
		h := device.Adapter(d.next)
		d.adapters[h] = a
		out[idx] = h
	}
	return out, nil
}

func (d *Driver) adapter(a device.Adapter) *Adapter {
	if ad, ok := d.adapters[a]; ok {
		return ad
	}
	d.violate("unknown adapter %d", a)
	return &Adapter{}
}

// AdapterInfo implements interface
func (d *Driver) AdapterInfo(a device.Adapter) device.PhysicalDeviceInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapter(a).Info
}

// QueueFamilies implements interface
func (d *Driver) QueueFamilies(a device.Adapter) []device.QueueFamily {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapter(a).Families
}

// MemoryTypes implements interface
func (d *Driver) MemoryTypes(a device.Adapter) []device.MemoryType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapter(a).MemoryTypes
}

// SurfaceSupport implements interface
func (d *Driver) SurfaceSupport(a device.Adapter, family uint32, s device.Surface) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("SurfaceSupport"); err != nil {
		return false, err
	}
	return d.adapter(a).PresentFamily[family], nil
}

// SurfaceCapabilities implements interface
func (d *Driver) SurfaceCapabilities(a device.Adapter, s device.Surface) (device.SurfaceCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("SurfaceCapabilities"); err != nil {
		return device.SurfaceCapabilities{}, err
	}
	return d.adapter(a).Capabilities, nil
}

// SurfaceFormats implements interface
func (d *Driver) SurfaceFormats(a device.Adapter, s device.Surface) ([]device.SurfaceFormat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("SurfaceFormats"); err != nil {
		return nil, err
	}
	return d.adapter(a).Formats, nil
}

// SurfacePresentModes implements interface
func (d *Driver) SurfacePresentModes(a device.Adapter, s device.Surface) ([]device.PresentMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("SurfacePresentModes"); err != nil {
		return nil, err
	}
	return d.adapter(a).PresentModes, nil
}
