package arp

import "testing"

func TestEvaluateModifierInactiveIsRest(t *testing.T) {
	outcome := EvaluateModifier(0)

	if !outcome.Rest {
		t.Fatal("inactive modifier byte did not evaluate to Rest")
	}
}

func TestEvaluateModifierRestBeatsTie(t *testing.T) {
	// ModifierActive unset, ModifierTie set: Rest must still win (§9).
	outcome := EvaluateModifier(ModifierTie)

	if !outcome.Rest {
		t.Fatal("Rest did not take priority over Tie when ModifierActive is unset")
	}
}

func TestEvaluateModifierTieBeatsSlideAndAccent(t *testing.T) {
	outcome := EvaluateModifier(ModifierActive | ModifierTie | ModifierSlide | ModifierAccent)

	if outcome.Rest {
		t.Fatal("active+tie step evaluated as Rest")
	}

	if !outcome.Tie {
		t.Fatal("Tie did not take priority over Slide and Accent")
	}
}

func TestEvaluateModifierSlideBeatsAccent(t *testing.T) {
	outcome := EvaluateModifier(ModifierActive | ModifierSlide | ModifierAccent)

	if outcome.Tie {
		t.Fatal("non-tie step evaluated as Tie")
	}

	if !outcome.Slide {
		t.Fatal("Slide did not take priority over Accent")
	}

	if outcome.AccentMultiplier != 1.0 {
		t.Fatalf("AccentMultiplier = %v with Slide active, want 1.0", outcome.AccentMultiplier)
	}
}

func TestEvaluateModifierAccentAppliesMultiplier(t *testing.T) {
	outcome := EvaluateModifier(ModifierActive | ModifierAccent)

	if outcome.Rest || outcome.Tie || outcome.Slide {
		t.Fatal("plain accented step evaluated with an unrelated flag set")
	}

	if outcome.AccentMultiplier != accentVelocityMultiplier {
		t.Fatalf("AccentMultiplier = %v, want %v", outcome.AccentMultiplier, accentVelocityMultiplier)
	}
}

func TestEvaluateModifierPlainActiveStep(t *testing.T) {
	outcome := EvaluateModifier(ModifierActive)

	if outcome.Rest || outcome.Tie || outcome.Slide {
		t.Fatal("plain active step evaluated with a flag set")
	}

	if outcome.AccentMultiplier != 1.0 {
		t.Fatalf("AccentMultiplier = %v, want 1.0", outcome.AccentMultiplier)
	}
}

func TestEvaluateModifierIgnoresReservedBits(t *testing.T) {
	a := EvaluateModifier(ModifierActive)
	b := EvaluateModifier(ModifierActive | 0xF0)

	if a != b {
		t.Fatalf("reserved upper nibble changed outcome: %+v vs %+v", a, b)
	}
}
