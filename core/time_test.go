// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

type fakeClock struct {
	now time.Duration
}

func (f *fakeClock) Now() time.Duration {
	return f.now
}

func TestFrameStats(t *testing.T) {
	c := qt.New(t)
	clock := &fakeClock{}
	stats := newFrameStats(clock.Now)

	for i := 0; i < 59; i++ {
		clock.now += 16 * time.Millisecond
		c.Assert(stats.Frame(), qt.IsFalse)
	}
	clock.now += 56 * time.Millisecond
	c.Assert(stats.Frame(), qt.IsTrue)
	c.Assert(stats.FPS(), qt.Equals, 60.0)
	c.Assert(stats.LastFrame(), qt.Equals, 56*time.Millisecond)
	c.Assert(stats.Longest(), qt.Equals, 56*time.Millisecond)

	stats.Reset()
	clock.now += 10 * time.Millisecond
	c.Assert(stats.Frame(), qt.IsFalse)
	c.Assert(stats.Longest(), qt.Equals, 10*time.Millisecond)
}

func TestNewTime(t *testing.T) {
	c := qt.New(t)
	tm := NewTime(TimeConfiguration{FramesPerSecond: 30})
	defer tm.Stop()
	c.Assert(tm.Fps(), qt.Equals, 30)
	c.Assert(tm.FpsTicker(), qt.IsNotNil)
	c.Assert(tm.EventTicker(), qt.IsNotNil)
}
