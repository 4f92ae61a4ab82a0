// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/devblok/present/util/collada"
	"github.com/devblok/present/utility/kar"
	glm "github.com/go-gl/mathgl/mgl32"
)

// ErrNoGeometry is returned for documents without a triangle mesh
var ErrNoGeometry = errors.New("no triangle geometry")

// DefaultColor is given to imported vertices, Collada colors are not read
var DefaultColor = glm.Vec4{1.0, 1.0, 0.0, 1.0}

// ImportCollada reads the first geometry of a Collada document
func ImportCollada(r io.Reader) (*Mesh, error) {
	doc, err := collada.Decode(r)
	if err != nil {
		return nil, err
	}
	if len(doc.Geometries) == 0 {
		return nil, ErrNoGeometry
	}
	geometry := doc.Geometries[0]
	vertices, err := triangleVertices(&geometry.Mesh)
	if err != nil {
		return nil, errors.Wrapf(err, "geometry %q", geometry.ID)
	}
	name := geometry.Name
	if name == "" {
		name = geometry.ID
	}
	return NewMesh(name, vertices), nil
}

// LoadMesh imports a Collada document stored in an archive
func LoadMesh(archive *kar.Archive, name string) (*Mesh, error) {
	data, err := archive.ReadAll(name)
	if err != nil {
		return nil, err
	}
	return ImportCollada(bytes.NewReader(data))
}

func triangleVertices(mesh *collada.Mesh) ([]Vertex, error) {
	triangles := &mesh.Triangles
	vertexInput, ok := triangles.Input("VERTEX")
	if !ok {
		return nil, ErrNoGeometry
	}
	positionInput, ok := mesh.Vertices.Input("POSITION")
	if !ok {
		return nil, errors.New("vertices have no POSITION input")
	}
	positions, ok := mesh.FindSource(positionInput.Source)
	if !ok {
		return nil, errors.Newf("source %s not found", positionInput.Source)
	}

	stride := triangles.Stride()
	if stride == 0 || len(triangles.Index)%stride != 0 {
		return nil, errors.Newf("index list of %d does not divide into vertices of %d", len(triangles.Index), stride)
	}
	count := len(triangles.Index) / stride
	if count%3 != 0 {
		return nil, errors.Newf("%d vertices do not form triangles", count)
	}

	data := positions.Floats.Data
	vertices := make([]Vertex, 0, count)
	for idx := 0; idx < count; idx++ {
		pos := triangles.Index[idx*stride+int(vertexInput.Offset)]
		if pos < 0 || 3*pos+2 >= len(data) {
			return nil, errors.Newf("position index %d out of range", pos)
		}
		vertices = append(vertices, Vertex{
			Pos:   glm.Vec3{data[3*pos], data[3*pos+1], data[3*pos+2]},
			Color: DefaultColor,
		})
	}
	return vertices, nil
}
