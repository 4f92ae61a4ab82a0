// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/present/core"
	"github.com/devblok/present/device"
	"github.com/devblok/present/device/devicetest"
)

func TestDescribe(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()
	integrated := devicetest.DefaultAdapter()
	integrated.Info.ID = 2
	integrated.Info.Name = "Scripted Integrated"
	integrated.Info.Type = device.AdapterTypeIntegrated
	drv.Adapters = append(drv.Adapters, integrated)

	var buf bytes.Buffer
	c.Assert(describe(drv, &buf, true, true), qt.IsNil)

	var info []device.PhysicalDeviceInfo
	c.Assert(json.Unmarshal(buf.Bytes(), &info), qt.IsNil)
	c.Assert(info, qt.HasLen, 2)
	c.Check(info[0].Name, qt.Equals, "Scripted Discrete")
	c.Check(info[1].Type, qt.Equals, device.AdapterTypeIntegrated)
	c.Check(drv.Live(), qt.HasLen, 0)
}

func TestDescribeInstanceFailure(t *testing.T) {
	c := qt.New(t)
	drv := devicetest.New()
	drv.Fail["CreateInstance"] = errors.New("no loader")

	var buf bytes.Buffer
	err := describe(drv, &buf, false, false)
	c.Assert(err, qt.ErrorIs, core.ErrInstanceCreation)
	c.Check(buf.Len(), qt.Equals, 0)
}
