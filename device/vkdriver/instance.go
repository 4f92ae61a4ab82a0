// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkdriver

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/present/device"
)

// AvailableExtensions implements interface
func (d *Driver) AvailableExtensions() ([]string, error) {
	var count uint32
	if err := check(vk.EnumerateInstanceExtensionProperties("", &count, nil), "vk.EnumerateInstanceExtensionProperties()"); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := check(vk.EnumerateInstanceExtensionProperties("", &count, props), "vk.EnumerateInstanceExtensionProperties()"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range props {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// AvailableLayers implements interface
func (d *Driver) AvailableLayers() ([]string, error) {
	var count uint32
	if err := check(vk.EnumerateInstanceLayerProperties(&count, nil), "vk.EnumerateInstanceLayerProperties()"); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := check(vk.EnumerateInstanceLayerProperties(&count, props), "vk.EnumerateInstanceLayerProperties()"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range props {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// CreateInstance implements interface
func (d *Driver) CreateInstance(info device.InstanceCreateInfo) (device.Instance, error) {
	extensions := safeStrings(info.Extensions)
	layers := safeStrings(info.Layers)
	instanceInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 0, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   info.ApplicationName + "\x00",
			PEngineName:        info.EngineName + "\x00",
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := check(vk.CreateInstance(&instanceInfo, nil, &instance), "vk.CreateInstance()"); err != nil {
		return 0, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return 0, errors.Wrap(err, "vk.InitInstance()")
	}
	return device.Instance(d.put(instance)), nil
}

// DestroyInstance implements interface
func (d *Driver) DestroyInstance(h device.Instance) {
	if instance, ok := d.drop(uint64(h)).(vk.Instance); ok {
		vk.DestroyInstance(instance, nil)
	}
}

// DestroySurface implements interface
func (d *Driver) DestroySurface(i device.Instance, h device.Surface) {
	if surface, ok := d.drop(uint64(h)).(vk.Surface); ok {
		vk.DestroySurface(d.instance(i), surface, nil)
	}
}

func severityOf(flags vk.DebugReportFlags) device.DebugSeverity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return device.DebugSeverityError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		return device.DebugSeverityWarning
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return device.DebugSeverityPerformance
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return device.DebugSeverityInfo
	}
	return device.DebugSeverityDebug
}

// CreateDebugMessenger implements interface
func (d *Driver) CreateDebugMessenger(i device.Instance, observer device.DebugObserver) (device.DebugMessenger, error) {
	callback := func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
		observer.Observe(device.DebugMessage{
			Severity: severityOf(flags),
			Layer:    pLayerPrefix,
			Code:     messageCode,
			Object:   object,
			Message:  pMessage,
		})
		return vk.Bool32(vk.False)
	}

	info := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
		PfnCallback: callback,
	}
	var messenger vk.DebugReportCallback
	if err := check(vk.CreateDebugReportCallback(d.instance(i), &info, nil, &messenger), "vk.CreateDebugReportCallback()"); err != nil {
		return 0, err
	}
	h := device.DebugMessenger(d.put(messenger))
	d.mu.Lock()
	d.observers[h] = observer
	d.mu.Unlock()
	return h, nil
}

// DestroyDebugMessenger implements interface
func (d *Driver) DestroyDebugMessenger(i device.Instance, h device.DebugMessenger) {
	d.mu.Lock()
	delete(d.observers, h)
	d.mu.Unlock()
	if messenger, ok := d.drop(uint64(h)).(vk.DebugReportCallback); ok {
		vk.DestroyDebugReportCallback(d.instance(i), messenger, nil)
	}
}

// EnumerateAdapters implements interface
func (d *Driver) EnumerateAdapters(i device.Instance) ([]device.Adapter, error) {
	instance := d.instance(i)
	var count uint32
	if err := check(vk.EnumeratePhysicalDevices(instance, &count, nil), "vk.EnumeratePhysicalDevices()"); err != nil {
		return nil, err
	}
	physicalDevices := make([]vk.PhysicalDevice, count)
	if err := check(vk.EnumeratePhysicalDevices(instance, &count, physicalDevices), "vk.EnumeratePhysicalDevices()"); err != nil {
		return nil, err
	}
	adapters := make([]device.Adapter, len(physicalDevices))
	for idx, pd := range physicalDevices {
		adapters[idx] = device.Adapter(d.put(pd))
	}
	return adapters, nil
}
