package arp

import (
	"math"

	"github.com/rolandzwaga/krate-audio/dsp/core"
)

// ModifierMask isolates the four defined modifier bits; the upper
// nibble of any stored modifier value is reserved and must be cleared
// on ingest.
const ModifierMask uint8 = 0x0F

const (
	// ModifierActive is bit0: the step participates at all.
	ModifierActive uint8 = 1 << iota
	// ModifierTie is bit1: extend the previous note instead of retriggering.
	ModifierTie
	// ModifierSlide is bit2: request portamento into this step's note.
	ModifierSlide
	// ModifierAccent is bit3: apply a velocity multiplier.
	ModifierAccent
)

// MaxConditionIndex is the highest valid TrigCondition table index.
const MaxConditionIndex = 17

// DecodeVelocity maps a raw lane byte to a 0..1 gain.
func DecodeVelocity(raw uint8) float64 { return float64(raw) / 255.0 }

// EncodeVelocity is the inverse of DecodeVelocity, clamping domain to [0,1].
func EncodeVelocity(domain float64) uint8 { return encodeUnit(domain) }

// DecodeGate maps a raw lane byte to a fraction of the step length in
// [0, 2.0] (0% to 200%).
func DecodeGate(raw uint8) float64 { return float64(raw) / 255.0 * 2.0 }

// EncodeGate stores a 0..1 control-plane value as a raw gate byte; the
// 0..200% domain range is realized by DecodeGate's own *2.0 factor, so
// the stored byte uses the same 0..1 encoding as velocity.
func EncodeGate(domain float64) uint8 { return encodeUnit(domain) }

// DecodePitchSemitones maps a raw lane byte to an integer semitone
// offset in [-24, +24].
func DecodePitchSemitones(raw uint8) int {
	return int(math.Round(float64(raw)/255.0*48.0)) - 24
}

// EncodePitchSemitones is the inverse of DecodePitchSemitones.
func EncodePitchSemitones(semitones int) uint8 {
	s := clampInt(semitones, -24, 24)

	return uint8(clampInt(int(math.Round(float64(s+24)/48.0*255.0)), 0, 255))
}

// DecodeModifier masks off the reserved upper nibble.
func DecodeModifier(raw uint8) uint8 { return raw & ModifierMask }

// DecodeRatchet clamps a raw lane value to the valid ratchet count 1..4.
func DecodeRatchet(raw uint8) int { return clampInt(int(raw), 1, 4) }

// DecodeCondition clamps a raw lane value to the valid TrigCondition
// index range. Values above MaxConditionIndex are never stored by
// ApplyParams but may appear in a corrupt or foreign stream; the
// condition table itself also treats >=18 defensively as Always.
func DecodeCondition(raw uint8) int { return clampInt(int(raw), 0, MaxConditionIndex) }

func encodeUnit(v float64) uint8 {
	if math.IsNaN(v) {
		v = 0
	}

	v = core.Clamp(v, 0, 1)

	return uint8(math.Round(v * 255.0))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
