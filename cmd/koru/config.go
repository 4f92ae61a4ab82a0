// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/devblok/present/core"
	"github.com/devblok/present/model"
	"github.com/devblok/present/utility/kar"
)

// settings are read from KORU_* environment variables
type settings struct {
	Width    uint32
	Height   uint32
	FPS      int
	Debug    bool
	Shaders  string
	Model    string
	LogLevel logrus.Level
}

// loadEnvFile loads variables from an env file when it exists
func loadEnvFile(file string) error {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		return errors.Wrapf(err, "loading %s", file)
	}
	envy.Reload()
	return nil
}

func envUint(key string, def uint32) (uint32, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	num, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", key)
	}
	return uint32(num), nil
}

func settingsFromEnv(cfg core.Configuration) (settings, error) {
	s := settings{
		Shaders: envy.Get("KORU_SHADERS", ""),
		Model:   envy.Get("KORU_MODEL", ""),
	}

	var err error
	if s.Width, err = envUint("KORU_WIDTH", cfg.Renderer.ScreenWidth); err != nil {
		return s, err
	}
	if s.Height, err = envUint("KORU_HEIGHT", cfg.Renderer.ScreenHeight); err != nil {
		return s, err
	}
	fps, err := envUint("KORU_FPS", uint32(cfg.Time.FramesPerSecond))
	if err != nil {
		return s, err
	}
	s.FPS = int(fps)

	if raw := envy.Get("KORU_DEBUG", ""); raw != "" {
		if s.Debug, err = strconv.ParseBool(raw); err != nil {
			return s, errors.Wrap(err, "parsing KORU_DEBUG")
		}
	}

	s.LogLevel = logrus.InfoLevel
	if raw := envy.Get("KORU_LOG_LEVEL", ""); raw != "" {
		if s.LogLevel, err = logrus.ParseLevel(raw); err != nil {
			return s, errors.Wrap(err, "parsing KORU_LOG_LEVEL")
		}
	}
	return s, nil
}

// apply puts the settings into the configuration
func (s settings) apply(cfg *core.Configuration) {
	cfg.Renderer.ScreenWidth = s.Width
	cfg.Renderer.ScreenHeight = s.Height
	cfg.Time.FramesPerSecond = s.FPS
	cfg.Instance.DebugMode = cfg.Instance.DebugMode || s.Debug
	cfg.Renderer.Vertices = model.VertexLayout()
}

// errNoBuiltinShaders is returned when the binary was built before the
// SPIR-V in assets/shaders was compiled
var errNoBuiltinShaders = errors.New("no compiled shaders built in, run go generate ./cmd/koru or set KORU_SHADERS")

// shaderSource picks where shaders are loaded from: a kar archive,
// a directory, or the shaders built into the binary
func shaderSource(name string, box packr.Box) (core.ShaderSource, func() error, error) {
	noop := func() error { return nil }
	switch {
	case name == "":
		files := boxShaders(box)
		if len(files) == 0 {
			return nil, noop, errNoBuiltinShaders
		}
		return files, noop, nil
	case strings.HasSuffix(name, ".kar"):
		archive, err := kar.OpenFile(name)
		if err != nil {
			return nil, noop, errors.Wrapf(err, "opening shader archive %s", name)
		}
		return core.ShaderArchive{Archive: archive}, archive.Close, nil
	default:
		return core.ShaderDirectory(name), noop, nil
	}
}

func boxShaders(box packr.Box) core.ShaderFiles {
	files := core.ShaderFiles{}
	for _, name := range box.List() {
		if !strings.HasSuffix(name, ".spv") {
			continue
		}
		data, err := box.Find(name)
		if err != nil {
			logger.WithError(err).WithField("file", name).Warn("skipping built in shader")
			continue
		}
		files[path.Base(name)] = data
	}
	return files
}

// loadModel imports the named Collada file, looked up in the box first.
// Without a name the demo triangle is drawn.
func loadModel(name string, box packr.Box) (*model.Mesh, error) {
	if name == "" {
		return model.Triangle(), nil
	}
	if box.Has(name) {
		data, err := box.Find(name)
		if err != nil {
			return nil, err
		}
		return model.ImportCollada(bytes.NewReader(data))
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "opening model")
	}
	defer f.Close()
	return model.ImportCollada(f)
}
