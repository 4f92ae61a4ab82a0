// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"sync/atomic"

	"github.com/gobuffalo/packr"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/present/core"
	"github.com/devblok/present/device"
	"github.com/devblok/present/device/vkdriver"
)

//go:generate glslc assets/shaders/triangle.vert -o assets/shaders/triangle.vert.spv
//go:generate glslc assets/shaders/triangle.frag -o assets/shaders/triangle.frag.spv

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	envFile      = flag.String("env", ".env", "File with KORU_* settings")
)

var (
	logger = logrus.New()
	assets = packr.NewBox("./assets")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		logger.WithError(err).Error("koru exited")
		os.Exit(1)
	}
}

func run() error {
	configuration := core.DefaultConfiguration()
	configuration.Instance.DebugMode = *debug

	if err := loadEnvFile(*envFile); err != nil {
		return err
	}
	s, err := settingsFromEnv(configuration)
	if err != nil {
		return err
	}
	s.apply(&configuration)
	logger.SetLevel(s.LogLevel)
	core.SetLogger(logger)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := trace.Start(f); err != nil {
			return err
		}
		defer trace.Stop()
	}

	shaders, closeShaders, err := shaderSource(s.Shaders, assets)
	if err != nil {
		return err
	}
	defer closeShaders()
	configuration.Renderer.Shaders = shaders

	mesh, err := loadModel(s.Model, assets)
	if err != nil {
		return err
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return err
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return err
	}
	defer sdl.VulkanUnloadLibrary()

	drv, err := vkdriver.New(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return err
	}

	win, err := newWindow(configuration.Instance.ApplicationName, s.Width, s.Height)
	if err != nil {
		return err
	}
	defer win.Destroy()
	win.driver = drv

	renderer := core.NewRenderer(drv, configuration, core.LogObserver{MinSeverity: device.DebugSeverityWarning})
	if err := renderer.Initialize(win); err != nil {
		return err
	}
	defer func() {
		if err := renderer.Shutdown(); err != nil {
			logger.WithError(err).Warn("renderer shutdown")
		}
	}()

	if err := mesh.Upload(renderer); err != nil {
		return err
	}
	defer mesh.Destroy()

	if *memProfile != "" {
		defer writeHeapProfile(*memProfile)
	}
	return loop(renderer, win, mesh, configuration.Time)
}

// loop renders on its own goroutine while the main thread polls
// window events, which SDL requires
func loop(renderer *core.Renderer, win *window, scene core.Scene, cfg core.TimeConfiguration) error {
	timeService := core.NewTime(cfg)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		programSync sync.WaitGroup
		renderErr   error
		fps         atomic.Value
	)
	fps.Store("")

	/* Renderer loop */
	programSync.Add(1)
	go func() {
		defer programSync.Done()
		defer cancel()
		stats := core.NewFrameStats()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timeService.FpsTicker().C:
				if err := renderer.RenderFrame(scene); err != nil {
					renderErr = err
					return
				}
				if stats.Frame() {
					fps.Store(fmt.Sprintf("Koru3D - %.0f fps, longest frame %v",
						stats.FPS(), stats.Longest()))
					stats.Reset()
				}
			}
		}
	}()

	/* Event loop */
	title := ""
EventLoop:
	for {
		select {
		case <-ctx.Done():
			break EventLoop
		case <-timeService.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						win.closing.Store(true)
					}
				case *sdl.QuitEvent:
					win.closing.Store(true)
				case *sdl.WindowEvent:
					switch et.Event {
					case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
						win.updateSize()
						renderer.NotifyResized()
					}
				}
			}
			if win.ShouldClose() {
				cancel()
				continue EventLoop
			}
			if t := fps.Load().(string); t != "" && t != title {
				title = t
				win.sdl.SetTitle(title)
			}
		}
	}

	programSync.Wait()
	if renderErr != nil {
		return renderErr
	}
	return renderer.WaitIdle()
}

func writeHeapProfile(file string) {
	f, err := os.Create(file)
	if err != nil {
		logger.WithError(err).Warn("memory profile")
		return
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		logger.WithError(err).Warn("memory profile")
	}
}
