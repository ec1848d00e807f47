package animation

import (
	"errors"
	"fmt"
)

// DefaultTrailCapacity is the number of positions kept behind the marker.
const DefaultTrailCapacity = 50

// Lane is the vertical coordinate of every trail sample on the track view.
// Motion is one-dimensional, so the trail lies on a single lane.
const Lane = 0.0

// ErrInvalidCapacity is returned for a non-positive trail capacity.
var ErrInvalidCapacity = errors.New("trail capacity must be positive")

// TrailBuffer is a fixed-capacity FIFO of recent positions.
// When full, pushing evicts the oldest sample.
type TrailBuffer struct {
	data []float64
	pos  int // next write index
	full bool
}

// NewTrailBuffer creates an empty trail holding at most capacity samples.
func NewTrailBuffer(capacity int) (*TrailBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &TrailBuffer{data: make([]float64, capacity)}, nil
}

// Push appends a position, evicting the oldest one if the buffer is full.
func (b *TrailBuffer) Push(position float64) {
	b.data[b.pos] = position
	b.pos++
	if b.pos == len(b.data) {
		b.pos = 0
		b.full = true
	}
}

// Len returns the number of samples currently held.
func (b *TrailBuffer) Len() int {
	if b.full {
		return len(b.data)
	}
	return b.pos
}

// Cap returns the maximum number of samples.
func (b *TrailBuffer) Cap() int {
	return len(b.data)
}

// Snapshot returns a copy of the samples, oldest first.
func (b *TrailBuffer) Snapshot() []float64 {
	out := make([]float64, b.Len())
	if b.full {
		n := copy(out, b.data[b.pos:])
		copy(out[n:], b.data[:b.pos])
	} else {
		copy(out, b.data[:b.pos])
	}
	return out
}

// Oldest returns the oldest sample. ok is false when the buffer is empty.
func (b *TrailBuffer) Oldest() (position float64, ok bool) {
	switch {
	case b.full:
		return b.data[b.pos], true
	case b.pos > 0:
		return b.data[0], true
	default:
		return 0, false
	}
}

// Newest returns the most recently pushed sample.
func (b *TrailBuffer) Newest() (position float64, ok bool) {
	if b.Len() == 0 {
		return 0, false
	}
	i := b.pos - 1
	if i < 0 {
		i = len(b.data) - 1
	}
	return b.data[i], true
}

// Reset empties the buffer without releasing its storage.
func (b *TrailBuffer) Reset() {
	b.pos = 0
	b.full = false
	clear(b.data)
}
