// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/devblok/present/device"
)

type loggerHolder struct {
	logrus.FieldLogger
}

var loggerValue atomic.Value

func init() {
	loggerValue.Store(loggerHolder{logrus.StandardLogger()})
}

// SetLogger replaces the logger used by the renderer, nil restores
// the logrus standard logger. Safe for concurrent use.
//
// Levels used:
//   - Debug: swapchain rebuilds and skipped ticks
//   - Info: lifecycle events, adapter selection, swapchain parameters
//   - Warn: validation warnings and release errors
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	loggerValue.Store(loggerHolder{l})
}

// Logger returns the current logger
func Logger() logrus.FieldLogger {
	return loggerValue.Load().(loggerHolder).FieldLogger
}

// LogObserver forwards validation messages to the logger
type LogObserver struct {
	// MinSeverity filters out messages logged below its level.
	// Performance messages log at the warning level.
	MinSeverity device.DebugSeverity
}

func levelOf(s device.DebugSeverity) logrus.Level {
	switch s {
	case device.DebugSeverityError:
		return logrus.ErrorLevel
	case device.DebugSeverityWarning, device.DebugSeverityPerformance:
		return logrus.WarnLevel
	case device.DebugSeverityInfo:
		return logrus.InfoLevel
	}
	return logrus.DebugLevel
}

// Observe implements interface
func (o LogObserver) Observe(msg device.DebugMessage) {
	level := levelOf(msg.Severity)
	if level > levelOf(o.MinSeverity) {
		return
	}
	entry := Logger().WithFields(logrus.Fields{
		"layer": msg.Layer,
		"code":  msg.Code,
	})
	switch level {
	case logrus.ErrorLevel:
		entry.Error(msg.Message)
	case logrus.WarnLevel:
		entry.Warn(msg.Message)
	case logrus.InfoLevel:
		entry.Info(msg.Message)
	default:
		entry.Debug(msg.Message)
	}
}
