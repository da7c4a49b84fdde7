package arp

// ModifierOutcome is the result of evaluating a step's modifier bits
// through the Rest > Tie > Slide > Accent priority chain.
type ModifierOutcome struct {
	// Rest silences the step entirely.
	Rest bool
	// Tie extends the previous note rather than retriggering.
	Tie bool
	// Slide requests portamento into this step's note.
	Slide bool
	// AccentMultiplier scales the step's velocity; 1.0 when Accent is unset.
	AccentMultiplier float64
}

// accentVelocityMultiplier is applied when ModifierAccent is set.
const accentVelocityMultiplier = 1.25

// EvaluateModifier decodes a masked modifier byte into the step's
// outcome, enumerated as early-return tests in strict priority order:
// Rest wins even if Tie is also set, per §9. A step with
// ModifierActive unset is treated identically to Rest (no note).
func EvaluateModifier(mod uint8) ModifierOutcome {
	active := mod&ModifierActive != 0
	tie := mod&ModifierTie != 0
	slide := mod&ModifierSlide != 0
	accent := mod&ModifierAccent != 0

	switch {
	case !active:
		return ModifierOutcome{Rest: true, AccentMultiplier: 1.0}
	case tie:
		return ModifierOutcome{Tie: true, AccentMultiplier: 1.0}
	case slide:
		return ModifierOutcome{Slide: true, AccentMultiplier: 1.0}
	case accent:
		return ModifierOutcome{AccentMultiplier: accentVelocityMultiplier}
	default:
		return ModifierOutcome{AccentMultiplier: 1.0}
	}
}
