// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/present/device"
)

// QueueFamilyIndices are the families graphics and present queues come from
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32
}

// Shared reports if a single family does both graphics and present
func (q QueueFamilyIndices) Shared() bool {
	return q.Graphics == q.Present
}

// Unique returns the distinct family indices
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Shared() {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// FindQueueFamilies looks for a graphics family and a family that can present
// to the surface, preferring one family that can do both
func FindQueueFamilies(drv device.AdapterDriver, adapter device.Adapter, surface device.Surface) (QueueFamilyIndices, bool, error) {
	var (
		indices       QueueFamilyIndices
		graphicsFound bool
		presentFound  bool
	)
	for _, family := range drv.QueueFamilies(adapter) {
		if family.QueueCount == 0 {
			continue
		}
		supportsPresent, err := drv.SurfaceSupport(adapter, family.Index, surface)
		if err != nil {
			return QueueFamilyIndices{}, false, err
		}
		if family.Graphics && supportsPresent {
			return QueueFamilyIndices{Graphics: family.Index, Present: family.Index}, true, nil
		}
		if family.Graphics && !graphicsFound {
			indices.Graphics = family.Index
			graphicsFound = true
		}
		if supportsPresent && !presentFound {
			indices.Present = family.Index
			presentFound = true
		}
	}
	return indices, graphicsFound && presentFound, nil
}

func adapterRank(t device.AdapterType) int {
	switch t {
	case device.AdapterTypeDiscrete:
		return 4
	case device.AdapterTypeIntegrated:
		return 3
	case device.AdapterTypeVirtual:
		return 2
	case device.AdapterTypeOther:
		return 1
	}
	return 0
}

// AdapterSuitable checks if the adapter can present to the surface.
// If not suitable string contains the reason.
func AdapterSuitable(drv device.AdapterDriver, adapter device.Adapter, surface device.Surface) (QueueFamilyIndices, bool, string) {
	info := drv.AdapterInfo(adapter)
	if info.Invalid {
		return QueueFamilyIndices{}, false, "device properties could not be queried"
	}
	if !info.HasExtension(device.SwapchainExtension) {
		return QueueFamilyIndices{}, false, "swapchain extension not supported"
	}

	families, ok, err := FindQueueFamilies(drv, adapter, surface)
	if err != nil {
		return QueueFamilyIndices{}, false, "surface support query failed: " + err.Error()
	}
	if !ok {
		return QueueFamilyIndices{}, false, "no graphics and present queue families"
	}

	support, err := QuerySwapchainSupport(drv, adapter, surface)
	if err != nil {
		return QueueFamilyIndices{}, false, "swapchain support query failed: " + err.Error()
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return QueueFamilyIndices{}, false, "surface has no formats or present modes"
	}
	return families, true, ""
}

// SelectAdapter picks the best suitable adapter. Discrete adapters rank above
// integrated, virtual, other and CPU ones, within a rank an adapter with one
// family for graphics and present wins, then enumeration order.
func SelectAdapter(drv device.Driver, instance device.Instance, surface device.Surface) (device.Adapter, QueueFamilyIndices, error) {
	adapters, err := drv.EnumerateAdapters(instance)
	if err != nil {
		return 0, QueueFamilyIndices{}, fail(ErrNoSuitableAdapter, err, "EnumerateAdapters()")
	}

	var (
		best         device.Adapter
		bestFamilies QueueFamilyIndices
		bestScore    = -1
	)
	for _, adapter := range adapters {
		info := drv.AdapterInfo(adapter)
		families, ok, reason := AdapterSuitable(drv, adapter, surface)
		if !ok {
			Logger().WithFields(logrus.Fields{
				"adapter": info.Name,
				"reason":  reason,
			}).Debug("adapter not suitable")
			continue
		}
		score := adapterRank(info.Type) * 2
		if families.Shared() {
			score++
		}
		if score > bestScore {
			best, bestFamilies, bestScore = adapter, families, score
		}
	}

	if bestScore < 0 {
		return 0, QueueFamilyIndices{}, failf(ErrNoSuitableAdapter, "none of %d adapters can present to the surface", len(adapters))
	}

	info := drv.AdapterInfo(best)
	Logger().WithFields(logrus.Fields{
		"adapter":  info.Name,
		"type":     info.Type,
		"graphics": bestFamilies.Graphics,
		"present":  bestFamilies.Present,
	}).Info("adapter selected")
	return best, bestFamilies, nil
}

// DescribeAdapters returns a struct for each adapter on the instance
func DescribeAdapters(drv device.Driver, instance device.Instance) ([]device.PhysicalDeviceInfo, error) {
	adapters, err := drv.EnumerateAdapters(instance)
	if err != nil {
		return nil, fail(ErrNoSuitableAdapter, err, "EnumerateAdapters()")
	}
	pdi := make([]device.PhysicalDeviceInfo, len(adapters))
	for i, adapter := range adapters {
		pdi[i] = drv.AdapterInfo(adapter)
	}
	return pdi, nil
}
