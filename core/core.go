// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core presents frames rendered on a device.Driver to a window.
//
// A Renderer owns a DeviceContext, a Swapchain with one Frame per image,
// a Pipeline and the FrameCursor that walks the frames in flight. Each call
// to RenderFrame runs one tick of the scheduler: wait for the frame slot,
// acquire, record, submit and present.
package core

import (
	"github.com/devblok/present/device"
)

const infiniteTimeout = device.Infinite

// Window is the windowing collaborator
type Window interface {
	// RequiredExtensions are instance extensions the window system needs
	RequiredExtensions() []string

	// CreateSurface creates a presentation surface on the instance,
	// the renderer takes ownership of it
	CreateSurface(device.Instance) (device.Surface, error)

	// FramebufferSize is the current drawable size in pixels,
	// zero while minimized
	FramebufferSize() (uint32, uint32)

	// ShouldClose reports if the user asked to close the window
	ShouldClose() bool
}

// Scene is the drawable collaborator, its contents are not interpreted
type Scene interface {
	VertexBuffers() []device.Buffer
	VertexCount() uint32
}

// Destroyable is implemented by everything owning GPU objects
type Destroyable interface {
	Destroy()
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) stage() device.ShaderStage {
	if s == FragmentShaderType {
		return device.ShaderStageFragment
	}
	return device.ShaderStageVertex
}

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vert"
	case FragmentShaderType:
		return "frag"
	}
	return "unknown"
}
