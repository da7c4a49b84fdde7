package rtcore

// NoteValue is a rhythmic subdivision used for tempo-synced step timing.
type NoteValue int

// Standard note-value subdivisions, in increasing duration.
const (
	NoteValueSixtyFourth NoteValue = iota
	NoteValueThirtySecond
	NoteValueSixteenth
	NoteValueEighth
	NoteValueQuarter
	NoteValueHalf
	NoteValueWhole
)

// beatsPerNoteValue returns the note value's length in quarter-note beats.
func beatsPerNoteValue(v NoteValue) float64 {
	switch v {
	case NoteValueSixtyFourth:
		return 1.0 / 16.0
	case NoteValueThirtySecond:
		return 1.0 / 8.0
	case NoteValueSixteenth:
		return 1.0 / 4.0
	case NoteValueEighth:
		return 1.0 / 2.0
	case NoteValueQuarter:
		return 1.0
	case NoteValueHalf:
		return 2.0
	case NoteValueWhole:
		return 4.0
	default:
		return 1.0
	}
}

// NoteModifier adjusts a NoteValue's duration, e.g. dotted or triplet.
type NoteModifier int

// Supported duration modifiers.
const (
	NoteModifierNone NoteModifier = iota
	NoteModifierDotted
	NoteModifierTriplet
)

func modifierScale(m NoteModifier) float64 {
	switch m {
	case NoteModifierDotted:
		return 1.5
	case NoteModifierTriplet:
		return 2.0 / 3.0
	default:
		return 1.0
	}
}

// BlockContext is the read-only per-block information the host hands to
// Arpeggiator.ProcessBlock. It never mutates and carries no engine
// state of its own.
type BlockContext struct {
	SampleRate  float64
	TempoBPM    float64
	PPQPosition float64
	BlockSize   int
}

// TempoToSamples converts a rhythmic note value (optionally modified) to
// a sample duration at the context's tempo and sample rate. A non-finite
// or non-positive result from a degenerate tempo/sample-rate falls back
// to one sample, so callers never divide a step into a non-advancing
// duration.
func (c BlockContext) TempoToSamples(value NoteValue, modifier NoteModifier) int {
	if c.TempoBPM <= 0 || c.SampleRate <= 0 {
		return 1
	}

	secondsPerBeat := 60.0 / c.TempoBPM
	beats := beatsPerNoteValue(value) * modifierScale(modifier)
	samples := int(beats * secondsPerBeat * c.SampleRate)

	if samples < 1 {
		samples = 1
	}

	return samples
}
