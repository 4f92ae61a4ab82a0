// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the vertex data drawn by the renderer
package model

import (
	"encoding/binary"
	"math"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/devblok/present/core"
	"github.com/devblok/present/device"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Vertex is a single vertex as laid out in a vertex buffer
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// VertexLayout is the pipeline layout of a buffer of Vertex
func VertexLayout() core.VertexLayout {
	var v Vertex
	return core.VertexLayout{
		Bindings: []device.VertexBinding{
			{
				Binding: 0,
				Stride:  uint32(unsafe.Sizeof(v)),
			},
		},
		Attributes: []device.VertexAttribute{
			{
				Location: 0,
				Binding:  0,
				Format:   device.FormatR32G32B32Sfloat,
				Offset:   uint32(unsafe.Offsetof(v.Pos)),
			},
			{
				Location: 1,
				Binding:  0,
				Format:   device.FormatR32G32B32A32Sfloat,
				Offset:   uint32(unsafe.Offsetof(v.Color)),
			},
		},
	}
}

// Encode writes vertices in the layout described by VertexLayout
func Encode(vertices []Vertex) []byte {
	stride := int(unsafe.Sizeof(Vertex{}))
	out := make([]byte, len(vertices)*stride)
	for idx, v := range vertices {
		buf := out[idx*stride:]
		for c := 0; c < 3; c++ {
			binary.LittleEndian.PutUint32(buf[4*c:], math.Float32bits(v.Pos[c]))
		}
		buf = buf[unsafe.Offsetof(v.Color):]
		for c := 0; c < 4; c++ {
			binary.LittleEndian.PutUint32(buf[4*c:], math.Float32bits(v.Color[c]))
		}
	}
	return out
}

// Uploader copies vertex data to the device, *core.Renderer is one
type Uploader interface {
	UploadVertices(data []byte) (*core.VertexBuffer, error)
}

// Mesh is a list of vertices that can be drawn once uploaded
type Mesh struct {
	Name string

	mutex    sync.RWMutex
	vertices []Vertex
	buffer   *core.VertexBuffer
}

// NewMesh creates a mesh held in host memory
func NewMesh(name string, vertices []Vertex) *Mesh {
	return &Mesh{Name: name, vertices: vertices}
}

// Triangle is a mesh with a single colored triangle
func Triangle() *Mesh {
	return NewMesh("triangle", []Vertex{
		{Pos: glm.Vec3{0.0, -0.5, 0}, Color: glm.Vec4{1, 0, 0, 1}},
		{Pos: glm.Vec3{0.5, 0.5, 0}, Color: glm.Vec4{0, 1, 0, 1}},
		{Pos: glm.Vec3{-0.5, 0.5, 0}, Color: glm.Vec4{0, 0, 1, 1}},
	})
}

// Vertices returns the vertices of the mesh
func (m *Mesh) Vertices() []Vertex {
	return m.vertices
}

// Upload copies the mesh into a device buffer, uploading twice is a no-op
func (m *Mesh) Upload(u Uploader) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.buffer != nil {
		return nil
	}
	if len(m.vertices) == 0 {
		return errors.Newf("mesh %q has no vertices", m.Name)
	}
	buffer, err := u.UploadVertices(Encode(m.vertices))
	if err != nil {
		return errors.Wrapf(err, "upload mesh %q", m.Name)
	}
	m.buffer = buffer
	return nil
}

// VertexBuffers implements core.Scene, it is empty until uploaded
func (m *Mesh) VertexBuffers() []device.Buffer {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.buffer == nil {
		return nil
	}
	return []device.Buffer{m.buffer.Buffer}
}

// VertexCount implements core.Scene
func (m *Mesh) VertexCount() uint32 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.buffer == nil {
		return 0
	}
	return uint32(len(m.vertices))
}

// Destroy releases the device buffer
func (m *Mesh) Destroy() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.buffer.Destroy()
	m.buffer = nil
}
