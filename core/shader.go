// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/devblok/present/utility/kar"
)

const shaderSuffix = ".spv"

// ShaderCode is a compiled shader binary
type ShaderCode struct {
	Name string
	Type ShaderType
	Code []byte
}

// ShaderSource provides the compiled shaders a pipeline is built from
type ShaderSource interface {
	LoadShaders() ([]ShaderCode, error)
}

// shaderTypeOf checks the file name of a compiled shader.
// It is important that the file name does not contain more than two dots,
// the first is always the name of the shader, second is type, and the third one
// ensured that the shader is compiled (only compiled shaders have an .spv extension).
func shaderTypeOf(filename string) (string, ShaderType) {
	if !strings.HasSuffix(filename, shaderSuffix) {
		return "", UnknownShaderType
	}
	nodes := strings.Split(strings.TrimSuffix(filename, shaderSuffix), ".")
	if len(nodes) != 2 {
		return "", UnknownShaderType
	}
	switch nodes[1] {
	case "vert":
		return nodes[0], VertexShaderType
	case "frag":
		return nodes[0], FragmentShaderType
	}
	return "", UnknownShaderType
}

// ShaderDirectory loads all compiled shaders found in a directory tree
type ShaderDirectory string

// LoadShaders implements interface
func (d ShaderDirectory) LoadShaders() ([]ShaderCode, error) {
	var shaders []ShaderCode
	if err := filepath.Walk(string(d), func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			return nil
		}
		name, shaderType := shaderTypeOf(f.Name())
		if shaderType == UnknownShaderType {
			return nil
		}
		code, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}
		shaders = append(shaders, ShaderCode{Name: name, Type: shaderType, Code: code})
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "loading shaders from %s", string(d))
	}
	return shaders, nil
}

// ShaderArchive loads compiled shaders from a kar archive
type ShaderArchive struct {
	Archive *kar.Archive
	// Prefix limits loading to files under it
	Prefix string
}

// LoadShaders implements interface
func (a ShaderArchive) LoadShaders() ([]ShaderCode, error) {
	var shaders []ShaderCode
	for _, name := range a.Archive.Names() {
		if !strings.HasPrefix(name, a.Prefix) {
			continue
		}
		shaderName, shaderType := shaderTypeOf(path.Base(name))
		if shaderType == UnknownShaderType {
			continue
		}
		code, err := a.Archive.ReadAll(name)
		if err != nil {
			return nil, errors.Wrapf(err, "loading shader %s", name)
		}
		shaders = append(shaders, ShaderCode{Name: shaderName, Type: shaderType, Code: code})
	}
	return shaders, nil
}

// ShaderFiles are compiled shaders kept in memory, keyed by file name
type ShaderFiles map[string][]byte

// LoadShaders implements interface
func (s ShaderFiles) LoadShaders() ([]ShaderCode, error) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	var shaders []ShaderCode
	for _, name := range names {
		shaderName, shaderType := shaderTypeOf(path.Base(name))
		if shaderType == UnknownShaderType {
			continue
		}
		shaders = append(shaders, ShaderCode{Name: shaderName, Type: shaderType, Code: s[name]})
	}
	return shaders, nil
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
