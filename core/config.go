// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "time"

// Configuration defines a global engine configuration setting
type Configuration struct {
	Instance InstanceConfiguration
	Time     TimeConfiguration
	Renderer RendererConfiguration
}

// InstanceConfiguration is used to configure the API instance
type InstanceConfiguration struct {
	ApplicationName string

	// DebugMode enables the validation layer and attaches a debug observer
	DebugMode bool

	// Extensions and Layers are required in addition to
	// what the window and debug mode need
	Extensions []string
	Layers     []string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between window event polls in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	// ScreenWidth and ScreenHeight are used when the window
	// reports no framebuffer size at initialization
	ScreenWidth  uint32
	ScreenHeight uint32

	// Shaders provides the vertex and fragment stage binaries
	Shaders ShaderSource

	// Vertices is the layout of the vertex buffers scenes bind
	Vertices VertexLayout

	ClearColor [4]float32

	// FenceTimeout bounds the wait for a frame slot, zero waits forever
	FenceTimeout time.Duration

	// MaxRebuildAttempts is how many times swapchain creation is retried
	// before the failure becomes fatal
	MaxRebuildAttempts int
}

// DefaultConfiguration returns a configuration suitable for a windowed demo
func DefaultConfiguration() Configuration {
	return Configuration{
		Instance: InstanceConfiguration{
			ApplicationName: "Koru3D",
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  10,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:        800,
			ScreenHeight:       600,
			ClearColor:         [4]float32{0.05, 0.05, 0.05, 1},
			MaxRebuildAttempts: 3,
		},
	}
}

func (r RendererConfiguration) fenceTimeout() time.Duration {
	if r.FenceTimeout <= 0 {
		return infiniteTimeout
	}
	return r.FenceTimeout
}

func (r RendererConfiguration) rebuildAttempts() int {
	if r.MaxRebuildAttempts < 1 {
		return 1
	}
	return r.MaxRebuildAttempts
}
