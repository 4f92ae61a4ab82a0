// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/devblok/present/core"
	"github.com/devblok/present/device"
	"github.com/devblok/present/device/vkdriver"
)

var (
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	indent = flag.Bool("indent", false, "Indent the JSON output")
)

func main() {
	flag.Parse()
	drv, err := vkdriver.New(nil)
	if err != nil {
		logrus.WithError(err).Fatal("loading vulkan")
	}
	if err := describe(drv, os.Stdout, *debug, *indent); err != nil {
		logrus.WithError(err).Fatal("describing adapters")
	}
}

// describe writes the adapters found on the driver as JSON
func describe(drv device.Driver, w io.Writer, debugMode, indent bool) error {
	instance, err := core.CreateInstance(drv, core.InstanceConfiguration{
		ApplicationName: "korucli",
		DebugMode:       debugMode,
	}, nil)
	if err != nil {
		return err
	}
	defer drv.DestroyInstance(instance)

	info, err := core.DescribeAdapters(drv, instance)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(info)
}
