// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/present/core"
	"github.com/devblok/present/device"
)

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestLogObserver(t *testing.T) {
	c := qt.New(t)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	core.SetLogger(logger)
	defer core.SetLogger(nullLogger())

	observer := core.LogObserver{MinSeverity: device.DebugSeverityWarning}
	observer.Observe(device.DebugMessage{Severity: device.DebugSeverityInfo, Message: "loader info"})
	c.Assert(hook.AllEntries(), qt.HasLen, 0)

	observer.Observe(device.DebugMessage{
		Severity: device.DebugSeverityError,
		Layer:    "Validation",
		Code:     7,
		Message:  "vkQueueSubmit: fence is in use",
	})
	c.Assert(hook.AllEntries(), qt.HasLen, 1)
	c.Assert(hook.LastEntry().Level, qt.Equals, logrus.ErrorLevel)
	c.Assert(hook.LastEntry().Data["layer"], qt.Equals, "Validation")

	observer.Observe(device.DebugMessage{Severity: device.DebugSeverityPerformance, Message: "slow path"})
	c.Assert(hook.AllEntries(), qt.HasLen, 2)
	c.Assert(hook.LastEntry().Level, qt.Equals, logrus.WarnLevel)
	c.Assert(hook.LastEntry().Message, qt.Equals, "slow path")
}

func TestLogObserverLevels(t *testing.T) {
	tests := []struct {
		min      device.DebugSeverity
		severity device.DebugSeverity
		want     []logrus.Level
	}{
		{device.DebugSeverityWarning, device.DebugSeverityPerformance, []logrus.Level{logrus.WarnLevel}},
		{device.DebugSeverityPerformance, device.DebugSeverityWarning, []logrus.Level{logrus.WarnLevel}},
		{device.DebugSeverityError, device.DebugSeverityPerformance, nil},
		{device.DebugSeverityError, device.DebugSeverityError, []logrus.Level{logrus.ErrorLevel}},
		{device.DebugSeverityWarning, device.DebugSeverityInfo, nil},
		{device.DebugSeverityDebug, device.DebugSeverityInfo, []logrus.Level{logrus.InfoLevel}},
		{device.DebugSeverityDebug, device.DebugSeverityDebug, []logrus.Level{logrus.DebugLevel}},
	}
	for _, tc := range tests {
		t.Run(tc.min.String()+"/"+tc.severity.String(), func(t *testing.T) {
			c := qt.New(t)
			logger, hook := test.NewNullLogger()
			logger.SetLevel(logrus.DebugLevel)
			core.SetLogger(logger)
			defer core.SetLogger(nullLogger())

			core.LogObserver{MinSeverity: tc.min}.Observe(device.DebugMessage{Severity: tc.severity, Message: "m"})
			var got []logrus.Level
			for _, entry := range hook.AllEntries() {
				got = append(got, entry.Level)
			}
			c.Assert(got, qt.DeepEquals, tc.want)
		})
	}
}

func TestSetLoggerNil(t *testing.T) {
	c := qt.New(t)
	core.SetLogger(nil)
	defer core.SetLogger(nullLogger())
	c.Assert(core.Logger(), qt.Equals, logrus.FieldLogger(logrus.StandardLogger()))
}
