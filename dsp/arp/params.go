package arp

import "math"

// ParamSnapshot is the full normalized control-plane view of one
// arpeggiator lane set, per §6.2's normalized->domain table. Every
// field is in [0,1] except Length, which selects how many of the 32
// Steps entries are active.
type ParamSnapshot struct {
	Length int // 1..32 active steps, shared by all six lanes

	VelocitySteps  [32]float64
	GateSteps      [32]float64
	PitchSteps     [32]float64
	ModifierSteps  [32]float64
	RatchetSteps   [32]float64
	ConditionSteps [32]float64

	FillToggle bool
}

// DecodeConditionLaneLength maps a normalized value to an active step
// count.
func DecodeConditionLaneLength(v float64) int {
	return clampInt(int(math.Round(v*31))+1, 1, 32)
}

// EncodeConditionLaneLength is the inverse of DecodeConditionLaneLength.
func EncodeConditionLaneLength(length int) float64 {
	return float64(clampInt(length, 1, 32)-1) / 31.0
}

// DecodeConditionStep maps a normalized value to a TrigCondition index.
func DecodeConditionStep(v float64) int {
	return clampInt(int(math.Round(v*17)), 0, MaxConditionIndex)
}

// EncodeConditionStep is the inverse of DecodeConditionStep.
func EncodeConditionStep(index int) float64 {
	return float64(clampInt(index, 0, MaxConditionIndex)) / 17.0
}

// DecodeModifierStep maps a normalized value to a masked modifier byte.
func DecodeModifierStep(v float64) uint8 {
	return uint8(math.Round(v*15)) & ModifierMask
}

// EncodeModifierStep is the inverse of DecodeModifierStep.
func EncodeModifierStep(mod uint8) float64 {
	return float64(mod&ModifierMask) / 15.0
}

// DecodeRatchetStep maps a normalized value to a ratchet count.
func DecodeRatchetStep(v float64) int {
	return clampInt(int(math.Round(v*3))+1, 1, 4)
}

// EncodeRatchetStep is the inverse of DecodeRatchetStep.
func EncodeRatchetStep(ratchets int) float64 {
	return float64(clampInt(ratchets, 1, 4)-1) / 3.0
}

// DecodePitchStep maps a normalized value to a semitone offset.
func DecodePitchStep(v float64) int {
	return clampInt(int(math.Round((v-0.5)*48)), -24, 24)
}

// EncodePitchStep is the inverse of DecodePitchStep.
func EncodePitchStep(semitones int) float64 {
	s := clampInt(semitones, -24, 24)

	return 0.5 + float64(s)/48.0
}

// DecodePlayheadStep maps a normalized value to a lane position, or -1
// for no playhead.
func DecodePlayheadStep(v float64) int {
	return int(math.Round(v*32)) - 1
}

// EncodePlayheadStep is the inverse of DecodePlayheadStep.
func EncodePlayheadStep(step int) float64 {
	return float64(step+1) / 32.0
}

// ApplyParams ingests a full normalized snapshot into the engine's six
// lanes, using the expand-write-shrink sequencing of §6.2: every lane
// is first expanded to length 32, every one of its 32 cells is
// written, and only then is the lane shrunk to the snapshot's actual
// length. This guarantees no observer ever sees a lane whose length
// exceeds the range of cells that have been written for this update,
// regardless of what the lane's previous length was.
func (a *Arpeggiator) ApplyParams(p ParamSnapshot) {
	length := clampInt(p.Length, 1, 32)

	a.lanes.Velocity.SetLength(32)
	a.lanes.Gate.SetLength(32)
	a.lanes.Pitch.SetLength(32)
	a.lanes.Modifier.SetLength(32)
	a.lanes.Ratchet.SetLength(32)
	a.lanes.Condition.SetLength(32)

	for i := 0; i < 32; i++ {
		a.lanes.Velocity.Set(i, EncodeVelocity(clampUnit(p.VelocitySteps[i])))
		a.lanes.Gate.Set(i, EncodeGate(clampUnit(p.GateSteps[i])))
		a.lanes.Pitch.Set(i, EncodePitchSemitones(DecodePitchStep(p.PitchSteps[i])))
		a.lanes.Modifier.Set(i, DecodeModifierStep(p.ModifierSteps[i]))
		a.lanes.Ratchet.Set(i, uint8(DecodeRatchetStep(p.RatchetSteps[i])))
		a.lanes.Condition.Set(i, uint8(DecodeConditionStep(p.ConditionSteps[i])))
	}

	a.lanes.Velocity.SetLength(length)
	a.lanes.Gate.SetLength(length)
	a.lanes.Pitch.SetLength(length)
	a.lanes.Modifier.SetLength(length)
	a.lanes.Ratchet.SetLength(length)
	a.lanes.Condition.SetLength(length)

	a.fillActive = p.FillToggle
}

// Snapshot reads the engine's six lanes back into a normalized
// ParamSnapshot, the inverse of ApplyParams over the active length.
func (a *Arpeggiator) Snapshot() ParamSnapshot {
	var p ParamSnapshot

	p.Length = a.lanes.Velocity.Length()
	p.FillToggle = a.fillActive

	for i := 0; i < 32; i++ {
		p.VelocitySteps[i] = DecodeVelocity(a.lanes.Velocity.Get(i))
		p.GateSteps[i] = DecodeGate(a.lanes.Gate.Get(i)) / 2.0
		p.PitchSteps[i] = EncodePitchStep(DecodePitchSemitones(a.lanes.Pitch.Get(i)))
		p.ModifierSteps[i] = EncodeModifierStep(a.lanes.Modifier.Get(i))
		p.RatchetSteps[i] = EncodeRatchetStep(int(a.lanes.Ratchet.Get(i)))
		p.ConditionSteps[i] = EncodeConditionStep(int(a.lanes.Condition.Get(i)))
	}

	return p
}
