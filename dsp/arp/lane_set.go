package arp

import "github.com/rolandzwaga/krate-audio/dsp/rtcore"

// LaneSet holds the six fixed-capacity per-step lanes that drive one
// arpeggiator voice: velocity, gate, pitch, modifier, ratchet, and
// condition. Every lane defaults to length 1 with a zero-value cell,
// which per §3.2 gives a default condition of Always once decoded; the
// modifier and pitch defaults are set by NewArpeggiator (see
// NewLaneSet).
type LaneSet struct {
	Velocity  rtcore.Lane[uint8]
	Gate      rtcore.Lane[uint8]
	Pitch     rtcore.Lane[uint8]
	Modifier  rtcore.Lane[uint8]
	Ratchet   rtcore.Lane[uint8]
	Condition rtcore.Lane[uint8]
}

// NewLaneSet returns a zero-valued LaneSet: every lane at length 1,
// cell value 0. The modifier lane's zero cell decodes to
// ModifierActive being unset, so callers constructing a fresh engine
// should set the default modifier cell to ModifierActive explicitly if
// that is the desired default (NewArpeggiator does this). The pitch
// lane's zero cell likewise decodes to -24 semitones, not 0.
func NewLaneSet() LaneSet {
	return LaneSet{
		Velocity:  rtcore.NewLane[uint8](),
		Gate:      rtcore.NewLane[uint8](),
		Pitch:     rtcore.NewLane[uint8](),
		Modifier:  rtcore.NewLane[uint8](),
		Ratchet:   rtcore.NewLane[uint8](),
		Condition: rtcore.NewLane[uint8](),
	}
}

// StepValues is the pre-advance value captured from every lane by one
// Advance call, per §4.3 step 2. Order matches the engine's canonical
// field order.
type StepValues struct {
	Velocity  uint8
	Gate      uint8
	Pitch     uint8
	Modifier  uint8
	Ratchet   uint8
	Condition uint8
}

// Advance advances all six lanes unconditionally and exactly once,
// returning the value each lane held before advancing.
func (l *LaneSet) Advance() StepValues {
	return StepValues{
		Velocity:  l.Velocity.Advance(),
		Gate:      l.Gate.Advance(),
		Pitch:     l.Pitch.Advance(),
		Modifier:  l.Modifier.Advance(),
		Ratchet:   l.Ratchet.Advance(),
		Condition: l.Condition.Advance(),
	}
}

// ResetPositions zeroes every lane's step cursor without touching
// stored values, the lane-set half of Arpeggiator.ResetLanes.
func (l *LaneSet) ResetPositions() {
	l.Velocity.ResetPosition()
	l.Gate.ResetPosition()
	l.Pitch.ResetPosition()
	l.Modifier.ResetPosition()
	l.Ratchet.ResetPosition()
	l.Condition.ResetPosition()
}
