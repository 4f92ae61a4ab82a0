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

type testWindow struct {
	drv    *devicetest.Driver
	width  uint32
	height uint32
}

func (w *testWindow) RequiredExtensions() []string {
	return []string{"VK_KHR_surface"}
}

func (w *testWindow) CreateSurface(i device.Instance) (device.Surface, error) {
	return w.drv.CreateSurface(i)
}

func (w *testWindow) FramebufferSize() (uint32, uint32) {
	return w.width, w.height
}

func (w *testWindow) ShouldClose() bool {
	return false
}

type testScene struct {
	buffers []device.Buffer
	count   uint32
}

func (s testScene) VertexBuffers() []device.Buffer {
	return s.buffers
}

func (s testScene) VertexCount() uint32 {
	return s.count
}

var triangle = testScene{count: 3}

var testShaders = core.ShaderFiles{
	"triangle.vert.spv": make([]byte, 16),
	"triangle.frag.spv": make([]byte, 16),
}

func testConfiguration() core.Configuration {
	cfg := core.DefaultConfiguration()
	cfg.Renderer.Shaders = testShaders
	return cfg
}

// newRenderer initializes a renderer on a scripted driver, the driver
// can be adjusted before initialization with setup
func newRenderer(c *qt.C, cfg core.Configuration, setup func(*devicetest.Driver)) (*core.Renderer, *devicetest.Driver, *testWindow) {
	drv := devicetest.New()
	if setup != nil {
		setup(drv)
	}
	win := &testWindow{drv: drv, width: 800, height: 600}
	r := core.NewRenderer(drv, cfg, nil)
	c.Assert(r.Initialize(win), qt.IsNil)
	return r, drv, win
}

func tick(c *qt.C, r *core.Renderer, n int) {
	for i := 0; i < n; i++ {
		c.Assert(r.RenderFrame(triangle), qt.IsNil)
	}
}

func lastIndex(calls []string, name string) int {
	idx := -1
	for i, c := range calls {
		if c == name {
			idx = i
		}
	}
	return idx
}

func TestMain(m *testing.M) {
	core.SetLogger(nullLogger())
	m.Run()
}
