package rtcore

// LaneCapacity is the fixed maximum step count for every arpeggiator lane.
const LaneCapacity = 32

// Lane is a fixed-capacity, independently-lengthed per-step array
// driving one musical attribute of the arpeggiator. Steps beyond
// Length() are inert: Advance wraps at Length() and never visits them,
// SetLength clamps the active position back into range, and
// control-plane writes to a cell past the current length are
// allowed (the "expand, write, shrink" sequencing in dsp/arp/params.go
// relies on being able to write all 32 cells before shrinking back).
type Lane[T any] struct {
	values [LaneCapacity]T
	length int
	pos    int
}

// NewLane returns a lane of length 1 holding the zero value of T in
// every cell, matching the arpeggiator's zero-initialization contract.
func NewLane[T any]() Lane[T] {
	return Lane[T]{length: 1}
}

// Length returns the active step count, in [1, LaneCapacity].
func (l *Lane[T]) Length() int { return l.length }

// SetLength sets the active step count, clamping to [1, LaneCapacity]
// and clamping the current position into the new range. It never
// touches any cell value and never resets loop-count-style state —
// that bookkeeping lives one layer up, in the arpeggiator engine.
func (l *Lane[T]) SetLength(n int) {
	if n < 1 {
		n = 1
	}

	if n > LaneCapacity {
		n = LaneCapacity
	}

	l.length = n
	if l.pos >= l.length {
		l.pos = l.pos % l.length
	}
}

// Get returns the value at step index i (not wrapped, for control-plane
// reads/writes of arbitrary cells including beyond the current length).
func (l *Lane[T]) Get(i int) T { return l.values[i] }

// Set writes the value at step index i.
func (l *Lane[T]) Set(i int, v T) { l.values[i] = v }

// Position returns the current step index, always < Length().
func (l *Lane[T]) Position() int { return l.pos }

// ResetPosition rewinds the lane to step 0 without touching cell values.
func (l *Lane[T]) ResetPosition() { l.pos = 0 }

// Advance returns the value at the current position, then moves the
// position forward by one step, wrapping at Length(). It must be called
// exactly once per step tick, unconditionally, to keep lanes in
// lockstep (spec property P-ARP-1).
func (l *Lane[T]) Advance() T {
	v := l.values[l.pos]

	l.pos++
	if l.pos >= l.length {
		l.pos = 0
	}

	return v
}
