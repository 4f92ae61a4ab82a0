// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package collada decodes the geometry library of Collada (.dae) documents.
// Materials, scenes and animation are skipped.
package collada

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Decode reads a Collada document
func Decode(r io.Reader) (*Collada, error) {
	var doc Collada
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode collada")
	}
	return &doc, nil
}

// Collada is the document root, only geometries are kept
type Collada struct {
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// Geometry is a named mesh
type Geometry struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Mesh Mesh   `xml:"mesh"`
}

// Mesh holds the data sources and the triangle list indexing into them
type Mesh struct {
	Source    []Source  `xml:"source"`
	Vertices  Vertices  `xml:"vertices"`
	Triangles Triangles `xml:"triangles"`
}

// FindSource looks up a source by its id, a leading '#' is ignored
func (m *Mesh) FindSource(id string) (Source, bool) {
	id = strings.TrimPrefix(id, "#")
	for _, s := range m.Source {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// Source is a float array, the accessor is assumed to be tightly packed
type Source struct {
	ID     string `xml:"id,attr"`
	Floats Floats `xml:"float_array"`
}

// Floats is a float_array element
type Floats struct {
	ID    string
	Count int
	Data  []float32
}

// UnmarshalXML parses the whitespace separated values, checking
// them against the count attribute when it is given
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		ID    string `xml:"id,attr"`
		Count int    `xml:"count,attr"`
		Text  string `xml:",chardata"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	f.ID, f.Count = raw.ID, raw.Count

	fields := strings.Fields(raw.Text)
	f.Data = make([]float32, 0, len(fields))
	for _, field := range fields {
		num, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return errors.Wrapf(err, "float_array %s", f.ID)
		}
		f.Data = append(f.Data, float32(num))
	}
	if f.Count > 0 && f.Count != len(f.Data) {
		return errors.Newf("float_array %s: count is %d, found %d values", f.ID, f.Count, len(f.Data))
	}
	return nil
}

// Vertices names the inputs that make up a vertex, usually POSITION
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Input returns the input with the given semantic
func (v *Vertices) Input(semantic string) (Input, bool) {
	return findInput(v.Inputs, semantic)
}

// Triangles is a triangle list. Index interleaves one index per input
// for every vertex, see Stride.
type Triangles struct {
	Count    int
	Material string
	Inputs   []Input
	Index    []int
}

// Input returns the input with the given semantic
func (t *Triangles) Input(semantic string) (Input, bool) {
	return findInput(t.Inputs, semantic)
}

// Stride is the number of indices per vertex
func (t *Triangles) Stride() int {
	stride := 0
	for _, in := range t.Inputs {
		if int(in.Offset) >= stride {
			stride = int(in.Offset) + 1
		}
	}
	return stride
}

// UnmarshalXML decodes the inputs and the <p> index list
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		Count    int     `xml:"count,attr"`
		Material string  `xml:"material,attr"`
		Inputs   []Input `xml:"input"`
		P        string  `xml:"p"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	t.Count, t.Material, t.Inputs = raw.Count, raw.Material, raw.Inputs

	fields := strings.Fields(raw.P)
	t.Index = make([]int, 0, len(fields))
	for _, field := range fields {
		num, err := strconv.Atoi(field)
		if err != nil {
			return errors.Wrap(err, "triangles index")
		}
		t.Index = append(t.Index, num)
	}
	return nil
}

// Input binds a semantic to a source at an offset into each vertex
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
}

func findInput(inputs []Input, semantic string) (Input, bool) {
	for _, in := range inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return Input{}, false
}
