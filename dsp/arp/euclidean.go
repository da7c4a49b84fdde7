package arp

// EuclideanState is a precomputed, rotated Bjorklund rhythm: H hits
// distributed as evenly as possible over S steps, stored as a 32-bit
// bitmask (bit i set means step i is a hit) together with an
// independent position counter that advances once per step tick.
type EuclideanState struct {
	mask     uint32
	steps    int
	position int
	enabled  bool
}

// NewEuclideanState returns a disabled Euclidean state. Call Configure
// to enable it with a concrete (hits, steps, rotation) pattern.
func NewEuclideanState() EuclideanState {
	return EuclideanState{}
}

// Configure computes and stores the rotated Bjorklund mask for hits
// hits distributed over steps steps (steps <= 32), rotated left by
// rotation steps, and enables the pattern. Position is reset to 0.
func (e *EuclideanState) Configure(hits, steps, rotation int) {
	steps = clampInt(steps, 1, 32)
	hits = clampInt(hits, 0, steps)

	e.mask = rotateMask(bjorklund(hits, steps), rotation, steps)
	e.steps = steps
	e.position = 0
	e.enabled = true
}

// Disable turns off Euclidean gating; AdvanceHit then always reports a hit.
func (e *EuclideanState) Disable() { e.enabled = false }

// Enabled reports whether Euclidean gating is active.
func (e *EuclideanState) Enabled() bool { return e.enabled }

// AdvanceHit reads the hit bit at the current position, advances the
// position, and returns whether this step was a hit. When disabled, it
// always reports a hit without consuming or advancing any state beyond
// the no-op this implies.
func (e *EuclideanState) AdvanceHit() bool {
	if !e.enabled || e.steps == 0 {
		return true
	}

	hit := e.mask&(1<<uint(e.position)) != 0
	e.position++

	if e.position >= e.steps {
		e.position = 0
	}

	return hit
}

// Reset zeros the position counter without disabling or reconfiguring
// the pattern.
func (e *EuclideanState) Reset() { e.position = 0 }

// bjorklund computes Bjorklund's maximally-even distribution of hits
// hits over steps steps, returned as a bitmask with bit 0 the first
// step. steps must be >= 1 and 0 <= hits <= steps.
func bjorklund(hits, steps int) uint32 {
	if hits <= 0 {
		return 0
	}

	if hits >= steps {
		return uint32(1<<uint(steps)) - 1
	}

	groups := make([][]bool, hits)
	for i := range groups {
		groups[i] = []bool{true}
	}

	remainders := make([][]bool, steps-hits)
	for i := range remainders {
		remainders[i] = []bool{false}
	}

	for len(remainders) > 1 {
		n := min(len(groups), len(remainders))

		newGroups := make([][]bool, 0, n)

		for i := 0; i < n; i++ {
			merged := append(append([]bool{}, groups[i]...), remainders[i]...)
			newGroups = append(newGroups, merged)
		}

		var leftoverGroups [][]bool
		if len(groups) > n {
			leftoverGroups = groups[n:]
		}

		var leftoverRemainders [][]bool
		if len(remainders) > n {
			leftoverRemainders = remainders[n:]
		}

		groups = newGroups
		remainders = leftoverGroups

		if len(leftoverRemainders) > 0 {
			remainders = append(remainders, leftoverRemainders...)
		}

		if len(remainders) <= 1 {
			groups = append(groups, remainders...)
			remainders = nil
		}
	}

	var pattern []bool
	for _, g := range groups {
		pattern = append(pattern, g...)
	}

	for _, r := range remainders {
		pattern = append(pattern, r...)
	}

	var mask uint32
	for i, hit := range pattern {
		if hit {
			mask |= 1 << uint(i)
		}
	}

	return mask
}

func rotateMask(mask uint32, rotation, steps int) uint32 {
	if steps <= 0 {
		return mask
	}

	rotation = ((rotation % steps) + steps) % steps
	if rotation == 0 {
		return mask
	}

	full := uint32(1<<uint(steps)) - 1
	mask &= full

	return ((mask >> uint(rotation)) | (mask << uint(steps-rotation))) & full
}
