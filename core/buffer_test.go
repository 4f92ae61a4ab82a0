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
)

func TestFindMemoryType(t *testing.T) {
	c := qt.New(t)
	types := []device.MemoryType{
		{Properties: device.MemoryDeviceLocal},
		{Properties: device.MemoryHostVisible},
		{Properties: device.MemoryHostVisible | device.MemoryHostCoherent},
	}

	idx, err := core.FindMemoryType(types, 0x7, device.MemoryHostVisible|device.MemoryHostCoherent)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(2))

	idx, err = core.FindMemoryType(types, 0x7, device.MemoryHostVisible)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(1))

	_, err = core.FindMemoryType(types, 0x1, device.MemoryHostVisible)
	c.Assert(err, qt.ErrorIs, core.ErrResourceCreation)
}

func TestVertexBufferContents(t *testing.T) {
	c := qt.New(t)
	r, drv, _ := newRenderer(c, testConfiguration(), nil)
	defer r.Shutdown()

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	vb, err := r.UploadVertices(data)
	c.Assert(err, qt.IsNil)
	defer vb.Destroy()

	// staging goes to host visible memory, the vertex buffer to device local
	c.Assert(drv.Log(), qt.Contains, "WriteMemory(8)")
	c.Assert(drv.Log(), qt.Contains, "AllocateMemory(256,1)")
	c.Assert(drv.Log(), qt.Contains, "AllocateMemory(256,0)")
	c.Assert(drv.Count("FreeMemory"), qt.Equals, 1)
	c.Assert(drv.Count("FreeCommandBuffer"), qt.Equals, 1)

	_, err = r.UploadVertices(nil)
	c.Assert(err, qt.ErrorIs, core.ErrResourceCreation)
}
