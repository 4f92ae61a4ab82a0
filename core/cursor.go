// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

// FrameCursor walks the frame slots. It stays below MaxFramesInFlight,
// which is one less than the swapchain image count.
type FrameCursor struct {
	current int
	max     int
}

// NewFrameCursor creates a cursor over max frame slots, at least one
func NewFrameCursor(max int) FrameCursor {
	if max < 1 {
		max = 1
	}
	return FrameCursor{max: max}
}

// Current is the index of the frame slot in use
func (c FrameCursor) Current() int {
	return c.current
}

// MaxFramesInFlight is the number of frame slots
func (c FrameCursor) MaxFramesInFlight() int {
	return c.max
}

// Advance moves to the next frame slot
func (c *FrameCursor) Advance() {
	c.current = (c.current + 1) % c.max
}

// Resize changes the number of slots, keeping the current one if it
// is still in range
func (c *FrameCursor) Resize(max int) {
	if max < 1 {
		max = 1
	}
	c.max = max
	if c.current >= max {
		c.current = 0
	}
}
