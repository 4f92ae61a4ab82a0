// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/present/core"
	"github.com/devblok/present/device"
	"github.com/devblok/present/device/devicetest"
)

func adapterOf(name string, t device.AdapterType, families []device.QueueFamily, present map[uint32]bool) *devicetest.Adapter {
	a := devicetest.DefaultAdapter()
	a.Info.Name = name
	a.Info.Type = t
	if families != nil {
		a.Families = families
		a.PresentFamily = present
	}
	return a
}

var splitFamilies = []device.QueueFamily{
	{Index: 0, QueueCount: 1, Graphics: true},
	{Index: 1, QueueCount: 1},
}

func TestSelectAdapter(t *testing.T) {
	tests := []struct {
		about    string
		adapters []*devicetest.Adapter
		expect   string
	}{{
		about: "discrete above integrated",
		adapters: []*devicetest.Adapter{
			adapterOf("integrated", device.AdapterTypeIntegrated, nil, nil),
			adapterOf("discrete", device.AdapterTypeDiscrete, nil, nil),
		},
		expect: "discrete",
	}, {
		about: "integrated above cpu",
		adapters: []*devicetest.Adapter{
			adapterOf("cpu", device.AdapterTypeCPU, nil, nil),
			adapterOf("integrated", device.AdapterTypeIntegrated, nil, nil),
		},
		expect: "integrated",
	}, {
		about: "shared family wins within a rank",
		adapters: []*devicetest.Adapter{
			adapterOf("split", device.AdapterTypeDiscrete, splitFamilies, map[uint32]bool{1: true}),
			adapterOf("shared", device.AdapterTypeDiscrete, nil, nil),
		},
		expect: "shared",
	}, {
		about: "enumeration order breaks ties",
		adapters: []*devicetest.Adapter{
			adapterOf("first", device.AdapterTypeIntegrated, nil, nil),
			adapterOf("second", device.AdapterTypeIntegrated, nil, nil),
		},
		expect: "first",
	}, {
		about: "unsuitable adapters are skipped",
		adapters: []*devicetest.Adapter{
			func() *devicetest.Adapter {
				a := adapterOf("no present", device.AdapterTypeDiscrete, nil, nil)
				a.PresentFamily = nil
				return a
			}(),
			adapterOf("virtual", device.AdapterTypeVirtual, nil, nil),
		},
		expect: "virtual",
	}}

	for _, test := range tests {
		t.Run(test.about, func(t *testing.T) {
			c := qt.New(t)
			drv := devicetest.New()
			drv.Adapters = test.adapters
			instance, err := drv.CreateInstance(device.InstanceCreateInfo{})
			c.Assert(err, qt.IsNil)
			surface, err := drv.CreateSurface(instance)
			c.Assert(err, qt.IsNil)

			adapter, _, err := core.SelectAdapter(drv, instance, surface)
			c.Assert(err, qt.IsNil)
			c.Assert(drv.AdapterInfo(adapter).Name, qt.Equals, test.expect)
		})
	}
}

func TestSelectAdapterNoneSuitable(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()
	drv.Adapters = nil
	instance, err := drv.CreateInstance(device.InstanceCreateInfo{})
	c.Assert(err, qt.IsNil)

	_, _, err = core.SelectAdapter(drv, instance, 0)
	c.Assert(err, qt.ErrorIs, core.ErrNoSuitableAdapter)
}

func TestFindQueueFamilies(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()
	drv.Adapters = []*devicetest.Adapter{
		adapterOf("split", device.AdapterTypeDiscrete, []device.QueueFamily{
			{Index: 0, QueueCount: 0, Graphics: true},
			{Index: 1, QueueCount: 4, Compute: true},
			{Index: 2, QueueCount: 1, Graphics: true},
		}, map[uint32]bool{0: true, 1: true}),
	}
	instance, _ := drv.CreateInstance(device.InstanceCreateInfo{})
	adapters, err := drv.EnumerateAdapters(instance)
	c.Assert(err, qt.IsNil)

	families, ok, err := core.FindQueueFamilies(drv, adapters[0], 0)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(families, qt.Equals, core.QueueFamilyIndices{Graphics: 2, Present: 1})
	c.Assert(families.Shared(), qt.IsFalse)
	c.Assert(families.Unique(), qt.DeepEquals, []uint32{2, 1})
}

func TestDeviceContext(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()
	win := &testWindow{drv: drv, width: 800, height: 600}

	var got []device.DebugMessage
	observer := device.DebugObserverFunc(func(msg device.DebugMessage) {
		got = append(got, msg)
	})
	cfg := core.InstanceConfiguration{ApplicationName: "test", DebugMode: true}
	ctx, err := core.NewDeviceContext(drv, cfg, win, observer)
	c.Assert(err, qt.IsNil)
	c.Assert(ctx.Families.Shared(), qt.IsTrue)
	c.Assert(ctx.SharingMode(), qt.Equals, device.SharingModeExclusive)
	c.Assert(ctx.GraphicsQueue, qt.Equals, ctx.PresentQueue)

	drv.Emit(device.DebugMessage{Severity: device.DebugSeverityWarning, Message: "first"})
	c.Assert(got, qt.HasLen, 1)

	ctx.DetachObserver()
	drv.Emit(device.DebugMessage{Severity: device.DebugSeverityWarning, Message: "dropped"})
	c.Assert(got, qt.HasLen, 1)

	c.Assert(ctx.AttachObserver(observer), qt.IsNil)
	c.Assert(ctx.AttachObserver(observer), qt.IsNil)
	drv.Emit(device.DebugMessage{Severity: device.DebugSeverityError, Message: "second"})
	c.Assert(got, qt.HasLen, 2)
	c.Assert(got[1].Message, qt.Equals, "second")

	infos, err := ctx.PhysicalDevicesInfo()
	c.Assert(err, qt.IsNil)
	c.Assert(infos, qt.HasLen, 1)
	c.Assert(infos[0].Name, qt.Equals, "Scripted Discrete")

	ctx.Destroy()
	c.Assert(drv.Live(), qt.HasLen, 0)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestCreateInstanceLayers(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()
	drv.Layers = nil

	_, err := core.CreateInstance(drv, core.InstanceConfiguration{DebugMode: true}, []string{"VK_KHR_surface"})
	c.Assert(err, qt.ErrorIs, core.ErrInstanceCreation)
	c.Assert(err, qt.ErrorMatches, ".*VK_LAYER_KHRONOS_validation.*")

	instance, err := core.CreateInstance(drv, core.InstanceConfiguration{}, []string{"VK_KHR_surface"})
	c.Assert(err, qt.IsNil)
	c.Assert(instance, qt.Not(qt.Equals), device.Instance(0))
}
