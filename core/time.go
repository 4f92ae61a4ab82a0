// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/loov/hrtime"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	eventDelay := time.Duration(cfg.EventPollDelay) * time.Millisecond
	if eventDelay <= 0 {
		eventDelay = time.Millisecond
	}

	return Time{
		fps:            cfg.FramesPerSecond,
		fpsTicker:      time.NewTicker(interval),
		eventPollDelay: cfg.EventPollDelay,
		eventTicker:    time.NewTicker(eventDelay),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventPollDelay int
	eventTicker    *time.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Stop stops both tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}

// FrameStats measures frame times with the high resolution clock
// and reports frames per second once a second has passed
type FrameStats struct {
	now func() time.Duration

	frameStart  time.Duration
	windowStart time.Duration
	frames      int

	last    time.Duration
	longest time.Duration
	fps     float64
}

// NewFrameStats creates frame statistics starting now
func NewFrameStats() *FrameStats {
	return newFrameStats(hrtime.Now)
}

func newFrameStats(now func() time.Duration) *FrameStats {
	start := now()
	return &FrameStats{now: now, frameStart: start, windowStart: start}
}

// Frame marks the end of a frame. It returns true whenever a new
// frames per second figure is available.
func (s *FrameStats) Frame() bool {
	now := s.now()
	s.last = now - s.frameStart
	if s.last > s.longest {
		s.longest = s.last
	}
	s.frameStart = now
	s.frames++

	elapsed := now - s.windowStart
	if elapsed < time.Second {
		return false
	}
	s.fps = float64(s.frames) / elapsed.Seconds()
	s.frames = 0
	s.windowStart = now
	return true
}

// FPS is the frame rate over the last full second
func (s *FrameStats) FPS() float64 {
	return s.fps
}

// LastFrame is the duration of the last frame
func (s *FrameStats) LastFrame() time.Duration {
	return s.last
}

// Longest is the longest frame seen, it is reset by Reset
func (s *FrameStats) Longest() time.Duration {
	return s.longest
}

// Reset forgets the longest frame
func (s *FrameStats) Reset() {
	s.longest = 0
}
