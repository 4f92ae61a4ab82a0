// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/present/device"
)

// FindMemoryType returns the first memory type allowed by typeBits
// that has all the requested properties
func FindMemoryType(types []device.MemoryType, typeBits uint32, properties device.MemoryProperty) (uint32, error) {
	for idx := uint32(0); idx < uint32(len(types)) && idx < 32; idx++ {
		if typeBits&(1<<idx) == 0 {
			continue
		}
		if types[idx].Properties&properties == properties {
			return idx, nil
		}
	}
	return 0, failf(ErrResourceCreation, "requested memory type not found (bits %#x, properties %#x)", typeBits, properties)
}

// VertexBuffer is a device local buffer holding vertex data
type VertexBuffer struct {
	Buffer device.Buffer
	Memory device.DeviceMemory
	Size   uint64

	ctx *DeviceContext
}

func createBuffer(ctx *DeviceContext, size uint64, usage device.BufferUsage, properties device.MemoryProperty) (device.Buffer, device.DeviceMemory, error) {
	drv := ctx.Driver
	buffer, reqs, err := drv.CreateBuffer(ctx.Device, device.BufferCreateInfo{Size: size, Usage: usage})
	if err != nil {
		return 0, 0, fail(ErrResourceCreation, err, "CreateBuffer()")
	}

	memoryType, err := FindMemoryType(drv.MemoryTypes(ctx.Adapter), reqs.MemoryTypeBits, properties)
	if err != nil {
		drv.DestroyBuffer(ctx.Device, buffer)
		return 0, 0, err
	}

	memory, err := drv.AllocateMemory(ctx.Device, reqs.Size, memoryType)
	if err != nil {
		drv.DestroyBuffer(ctx.Device, buffer)
		return 0, 0, fail(ErrResourceCreation, err, "AllocateMemory()")
	}

	if err := drv.BindBufferMemory(ctx.Device, buffer, memory); err != nil {
		drv.DestroyBuffer(ctx.Device, buffer)
		drv.FreeMemory(ctx.Device, memory)
		return 0, 0, fail(ErrResourceCreation, err, "BindBufferMemory()")
	}
	return buffer, memory, nil
}

// NewVertexBuffer uploads data into a device local vertex buffer through
// a host visible staging buffer. It waits for the graphics queue to finish
// the copy.
func NewVertexBuffer(ctx *DeviceContext, pool device.CommandPool, data []byte) (*VertexBuffer, error) {
	if len(data) == 0 {
		return nil, failf(ErrResourceCreation, "vertex buffer with no data")
	}
	drv := ctx.Driver
	size := uint64(len(data))

	staging, stagingMemory, err := createBuffer(ctx, size, device.BufferUsageTransferSrc,
		device.MemoryHostVisible|device.MemoryHostCoherent)
	if err != nil {
		return nil, err
	}
	defer func() {
		drv.DestroyBuffer(ctx.Device, staging)
		drv.FreeMemory(ctx.Device, stagingMemory)
	}()

	if err := drv.WriteMemory(ctx.Device, stagingMemory, data); err != nil {
		return nil, fail(ErrResourceCreation, err, "WriteMemory()")
	}

	buffer, memory, err := createBuffer(ctx, size, device.BufferUsageTransferDst|device.BufferUsageVertex,
		device.MemoryDeviceLocal)
	if err != nil {
		return nil, err
	}
	vb := &VertexBuffer{Buffer: buffer, Memory: memory, Size: size, ctx: ctx}

	if err := copyBuffer(ctx, pool, staging, buffer, size); err != nil {
		vb.Destroy()
		return nil, err
	}
	return vb, nil
}

func copyBuffer(ctx *DeviceContext, pool device.CommandPool, src, dst device.Buffer, size uint64) error {
	drv := ctx.Driver
	cb, err := allocateCommandBuffer(ctx, pool)
	if err != nil {
		return err
	}
	defer drv.FreeCommandBuffer(ctx.Device, pool, cb)

	if err := drv.BeginCommandBuffer(cb, true); err != nil {
		return fail(ErrResourceCreation, err, "BeginCommandBuffer()")
	}
	drv.CmdCopyBuffer(cb, src, dst, size)
	if err := drv.EndCommandBuffer(cb); err != nil {
		return fail(ErrResourceCreation, err, "EndCommandBuffer()")
	}

	if err := drv.QueueSubmit(ctx.GraphicsQueue, device.SubmitInfo{
		CommandBuffers: []device.CommandBuffer{cb},
	}); err != nil {
		return fail(ErrSubmission, err, "QueueSubmit()")
	}
	if err := drv.QueueWaitIdle(ctx.GraphicsQueue); err != nil {
		return fail(ErrSubmission, err, "QueueWaitIdle()")
	}
	return nil
}

// Destroy releases the buffer and its memory. The buffer must not be in use.
func (b *VertexBuffer) Destroy() {
	if b == nil || b.ctx == nil {
		return
	}
	if b.Buffer != 0 {
		b.ctx.Driver.DestroyBuffer(b.ctx.Device, b.Buffer)
		b.Buffer = 0
	}
	if b.Memory != 0 {
		b.ctx.Driver.FreeMemory(b.ctx.Device, b.Memory)
		b.Memory = 0
	}
}
