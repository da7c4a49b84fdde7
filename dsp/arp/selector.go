package arp

import "github.com/rolandzwaga/krate-audio/dsp/rtcore"

// SelectorMode names a note-selection strategy.
type SelectorMode int

const (
	SelectorUp SelectorMode = iota
	SelectorDown
	SelectorUpDown
	SelectorDownUp
	SelectorConverge
	SelectorDiverge
	SelectorRandom
	SelectorChord
)

// SelectorSeed is the fixed construction-time seed for the note
// selector's own PRNG, explicitly distinct from ConditionSeed so
// condition patterns and selection patterns are decorrelated (§4.5).
const SelectorSeed uint32 = 42

// MaxChordSize bounds the number of pitches NoteSelector.Advance may
// return at once.
const MaxChordSize = 8

// HeldNote is one currently-held source pitch and its note-on velocity.
type HeldNote struct {
	Pitch    int8
	Velocity float64
}

// HeldNotes is the host-populated ordered set of currently active
// source pitches, oldest first.
type HeldNotes struct {
	notes []HeldNote
}

// NoteOn records a newly-held note. Re-pressing an already-held pitch
// updates its velocity without reordering.
func (h *HeldNotes) NoteOn(pitch int8, velocity float64) {
	for i := range h.notes {
		if h.notes[i].Pitch == pitch {
			h.notes[i].Velocity = velocity

			return
		}
	}

	h.notes = append(h.notes, HeldNote{Pitch: pitch, Velocity: velocity})
}

// NoteOff removes a held pitch, if present.
func (h *HeldNotes) NoteOff(pitch int8) {
	for i := range h.notes {
		if h.notes[i].Pitch == pitch {
			h.notes = append(h.notes[:i], h.notes[i+1:]...)

			return
		}
	}
}

// Clear removes every held note.
func (h *HeldNotes) Clear() { h.notes = h.notes[:0] }

// Len returns the number of currently held notes.
func (h *HeldNotes) Len() int { return len(h.notes) }

// Ordered returns the held notes sorted ascending by pitch, reusing
// dst's storage when it has enough capacity. This is the bookkeeping
// the Up/Down/Converge/Diverge modes scan over, analogous to the
// voice-list compaction used elsewhere in this codebase's real-time
// collections.
func (h *HeldNotes) Ordered(dst []HeldNote) []HeldNote {
	dst = dst[:0]
	dst = append(dst, h.notes...)

	for i := 1; i < len(dst); i++ {
		for j := i; j > 0 && dst[j-1].Pitch > dst[j].Pitch; j-- {
			dst[j-1], dst[j] = dst[j], dst[j-1]
		}
	}

	return dst
}

// SelectResult is the bounded set of pitches NoteSelector.Advance
// produces for one step.
type SelectResult struct {
	Pitches [MaxChordSize]HeldNote
	Count   int
}

// NoteSelector maps held-note state to per-step source pitches
// according to a configured SelectorMode.
type NoteSelector struct {
	mode SelectorMode
	rng  rtcore.Xorshift32

	cursor     int
	orderedBuf []HeldNote
}

// NewNoteSelector returns a selector in Up mode seeded per §4.5.
func NewNoteSelector() NoteSelector {
	return NoteSelector{
		mode: SelectorUp,
		rng:  rtcore.NewXorshift32(SelectorSeed),
	}
}

// SetMode changes the selection strategy and resets the cursor.
func (n *NoteSelector) SetMode(mode SelectorMode) {
	n.mode = mode
	n.cursor = 0
}

// Mode returns the current selection strategy.
func (n *NoteSelector) Mode() SelectorMode { return n.mode }

// Advance chooses this step's source pitches from held and updates the
// selector's cursor. It returns a result with Count == 0 when held has
// no notes.
func (n *NoteSelector) Advance(held *HeldNotes) SelectResult {
	var result SelectResult

	ordered := held.Ordered(n.orderedBuf)
	n.orderedBuf = ordered

	count := len(ordered)
	if count == 0 {
		return result
	}

	switch n.mode {
	case SelectorChord:
		for i := 0; i < count && i < MaxChordSize; i++ {
			result.Pitches[i] = ordered[i]
		}

		result.Count = min(count, MaxChordSize)

		return result
	case SelectorRandom:
		idx := int(n.rng.Next()) % count
		if idx < 0 {
			idx += count
		}

		result.Pitches[0] = ordered[idx]
		result.Count = 1

		return result
	case SelectorDown:
		idx := count - 1 - (n.cursor % count)
		result.Pitches[0] = ordered[idx]
		result.Count = 1
		n.cursor++

		return result
	case SelectorUpDown, SelectorDownUp:
		idx := n.pingPongIndex(count, n.mode == SelectorDownUp)
		result.Pitches[0] = ordered[idx]
		result.Count = 1

		return result
	case SelectorConverge:
		idx := n.convergeIndex(count, false)
		result.Pitches[0] = ordered[idx]
		result.Count = 1

		return result
	case SelectorDiverge:
		idx := n.convergeIndex(count, true)
		result.Pitches[0] = ordered[idx]
		result.Count = 1

		return result
	default: // SelectorUp
		idx := n.cursor % count
		result.Pitches[0] = ordered[idx]
		result.Count = 1
		n.cursor++

		return result
	}
}

// pingPongIndex walks 0..count-1..0 (UpDown) or count-1..0..count-1
// (DownUp) without repeating the two endpoints, the classic arpeggiator
// up/down traversal.
func (n *NoteSelector) pingPongIndex(count int, startDown bool) int {
	if count == 1 {
		return 0
	}

	span := 2 * (count - 1)
	pos := n.cursor % span
	n.cursor++

	if startDown {
		pos = (pos + count - 1) % span
	}

	if pos < count {
		return pos
	}

	return span - pos
}

// convergeIndex alternates from the outer edges inward (Converge) or
// the center outward (Diverge).
func (n *NoteSelector) convergeIndex(count int, diverge bool) int {
	if count == 1 {
		return 0
	}

	step := n.cursor % count
	n.cursor++

	if diverge {
		step = count - 1 - step
	}

	half := step / 2

	var idx int
	if step%2 == 0 {
		idx = half
	} else {
		idx = count - 1 - half
	}

	return idx
}
