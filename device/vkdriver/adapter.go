// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/present/device"
)

func adapterTypeOf(t vk.PhysicalDeviceType) device.AdapterType {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return device.AdapterTypeIntegrated
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return device.AdapterTypeDiscrete
	case vk.PhysicalDeviceTypeVirtualGpu:
		return device.AdapterTypeVirtual
	case vk.PhysicalDeviceTypeCpu:
		return device.AdapterTypeCPU
	}
	return device.AdapterTypeOther
}

// AdapterInfo implements interface
func (d *Driver) AdapterInfo(h device.Adapter) device.PhysicalDeviceInfo {
	var info device.PhysicalDeviceInfo
	pd := d.adapter(h)
	if pd == nil {
		info.Invalid = true
		return info
	}

	// Get extension info
	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, nil)); err != nil {
		info.Invalid = true
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, deviceExt)); err != nil {
		info.Invalid = true
	}
	for _, ext := range deviceExt {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	// Get layers info
	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, nil)); err != nil {
		info.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, deviceLayers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	// Get memory info
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		info.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
	}

	// Get general device info
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	info.Type = adapterTypeOf(properties.DeviceType)
	return info
}

// QueueFamilies implements interface
func (d *Driver) QueueFamilies(h device.Adapter) []device.QueueFamily {
	pd := d.adapter(h)
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)

	families := make([]device.QueueFamily, count)
	for i := range props {
		props[i].Deref()
		flags := props[i].QueueFlags
		families[i] = device.QueueFamily{
			Index:      uint32(i),
			QueueCount: props[i].QueueCount,
			Graphics:   flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Compute:    flags&vk.QueueFlags(vk.QueueComputeBit) != 0,
			Transfer:   flags&vk.QueueFlags(vk.QueueTransferBit) != 0,
		}
	}
	return families
}

// MemoryTypes implements interface
func (d *Driver) MemoryTypes(h device.Adapter) []device.MemoryType {
	return memoryTypesOf(d.adapter(h))
}

func memoryTypesOf(pd vk.PhysicalDevice) []device.MemoryType {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()

	types := make([]device.MemoryType, memoryProperties.MemoryTypeCount)
	for idx := range types {
		memoryProperties.MemoryTypes[idx].Deref()
		types[idx] = device.MemoryType{
			Properties: device.MemoryProperty(memoryProperties.MemoryTypes[idx].PropertyFlags),
			HeapIndex:  memoryProperties.MemoryTypes[idx].HeapIndex,
		}
	}
	return types
}

// SurfaceSupport implements interface
func (d *Driver) SurfaceSupport(h device.Adapter, family uint32, s device.Surface) (bool, error) {
	var supported vk.Bool32
	if err := check(vk.GetPhysicalDeviceSurfaceSupport(d.adapter(h), family, d.surface(s), &supported),
		"vk.GetPhysicalDeviceSurfaceSupport()"); err != nil {
		return false, err
	}
	return supported.B(), nil
}

func extentOf(e vk.Extent2D) device.Extent2D {
	e.Deref()
	return device.Extent2D{Width: e.Width, Height: e.Height}
}

// SurfaceCapabilities implements interface
func (d *Driver) SurfaceCapabilities(h device.Adapter, s device.Surface) (device.SurfaceCapabilities, error) {
	caps, err := surfaceCapabilities(d.adapter(h), d.surface(s))
	if err != nil {
		return device.SurfaceCapabilities{}, err
	}
	return device.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  extentOf(caps.CurrentExtent),
		MinImageExtent: extentOf(caps.MinImageExtent),
		MaxImageExtent: extentOf(caps.MaxImageExtent),
	}, nil
}

func surfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := check(vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &caps),
		"vk.GetPhysicalDeviceSurfaceCapabilities()"); err != nil {
		return caps, err
	}
	caps.Deref()
	return caps, nil
}

// SurfaceFormats implements interface
func (d *Driver) SurfaceFormats(h device.Adapter, s device.Surface) ([]device.SurfaceFormat, error) {
	pd, surface := d.adapter(h), d.surface(s)
	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, nil), "vk.GetPhysicalDeviceSurfaceFormats()"); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, formats), "vk.GetPhysicalDeviceSurfaceFormats()"); err != nil {
		return nil, err
	}
	out := make([]device.SurfaceFormat, len(formats))
	for i := range formats {
		formats[i].Deref()
		out[i] = device.SurfaceFormat{
			Format:     device.Format(formats[i].Format),
			ColorSpace: device.ColorSpace(formats[i].ColorSpace),
		}
	}
	return out, nil
}

// SurfacePresentModes implements interface
func (d *Driver) SurfacePresentModes(h device.Adapter, s device.Surface) ([]device.PresentMode, error) {
	pd, surface := d.adapter(h), d.surface(s)
	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, nil), "vk.GetPhysicalDeviceSurfacePresentModes()"); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, modes), "vk.GetPhysicalDeviceSurfacePresentModes()"); err != nil {
		return nil, err
	}
	out := make([]device.PresentMode, len(modes))
	for i, m := range modes {
		out[i] = device.PresentMode(m)
	}
	return out, nil
}
