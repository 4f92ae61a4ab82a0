// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

// DebugSeverity of a message reported by validation layers
type DebugSeverity int

// Debug severities
const (
	DebugSeverityDebug DebugSeverity = iota
	DebugSeverityInfo
	DebugSeverityPerformance
	DebugSeverityWarning
	DebugSeverityError
)

func (s DebugSeverity) String() string {
	switch s {
	case DebugSeverityDebug:
		return "debug"
	case DebugSeverityInfo:
		return "info"
	case DebugSeverityPerformance:
		return "performance"
	case DebugSeverityWarning:
		return "warning"
	case DebugSeverityError:
		return "error"
	}
	return "unknown"
}

// DebugMessage is a single message from the validation layers
type DebugMessage struct {
	Severity DebugSeverity
	Layer    string
	Code     int32
	Object   uint64
	Message  string
}

// DebugObserver receives validation messages. It is write-only,
// nothing it does can affect rendering.
type DebugObserver interface {
	Observe(DebugMessage)
}

// DebugObserverFunc adapts a function to DebugObserver
type DebugObserverFunc func(DebugMessage)

// Observe implements interface
func (f DebugObserverFunc) Observe(m DebugMessage) {
	f(m)
}
