package arp

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rolandzwaga/krate-audio/dsp/rtcore"
)

// laneStateSection is one of the six lane-state chunks written by Save,
// in persisted order: velocity, gate, pitch, modifier, ratchet,
// condition, each shaped length+32 steps, with the condition section
// additionally followed by fillToggle per §6.3.
type laneStateSection struct {
	name   string
	length *int
	steps  *[32]int32
}

// Save writes the engine's six lanes as a flat little-endian int32
// stream: for each lane, an active-length field followed by all 32
// step cells, in the fixed order velocity, gate, pitch, modifier,
// ratchet, condition, with fillToggle appended after condition's
// steps. This mirrors the single persisted-section layout §6.3
// documents for the condition lane, applied identically to all six.
func (a *Arpeggiator) Save(w io.Writer) error {
	sections := a.saveSections()

	for _, s := range sections {
		if err := writeInt32(w, int32(*s.length)); err != nil {
			return fmt.Errorf("write %s length: %w", s.name, err)
		}

		for i := 0; i < 32; i++ {
			if err := writeInt32(w, (*s.steps)[i]); err != nil {
				return fmt.Errorf("write %s step %d: %w", s.name, i, err)
			}
		}
	}

	fill := int32(0)
	if a.fillActive {
		fill = 1
	}

	if err := writeInt32(w, fill); err != nil {
		return fmt.Errorf("write fillToggle: %w", err)
	}

	return nil
}

// Load reads a stream written by Save, applying the "first-field-EOF
// equals legacy preset" backward-compatibility rule per-section: EOF
// exactly at a section's length field resets that lane (and every lane
// after it, since the stream is sequential, plus fillToggle) to its
// NewArpeggiator construction default rather than leaving it at
// whatever state the engine held before Load was called. EOF anywhere
// else in a section's body is a corrupt stream and fails the load
// wholesale, leaving the engine's previous state untouched. Any length
// or step value read out of range is clamped to its valid domain rather
// than rejected.
func (a *Arpeggiator) Load(r io.Reader) (err error) {
	saved := a.lanes

	defer func() {
		if err != nil {
			a.lanes = saved
		}
	}()

	lanes := [...]*rtcore.Lane[uint8]{
		&a.lanes.Velocity, &a.lanes.Gate, &a.lanes.Pitch,
		&a.lanes.Modifier, &a.lanes.Ratchet, &a.lanes.Condition,
	}

	names := [...]string{"velocity", "gate", "pitch", "modifier", "ratchet", "condition"}

	for idx, lane := range lanes {
		name := names[idx]

		length, ok, err := readOptionalInt32(r)
		if err != nil {
			return fmt.Errorf("read %s length: %w", name, err)
		}

		if !ok {
			// Legacy preset: this lane and every lane after it (the
			// stream is sequential) reset to construction defaults,
			// along with fillToggle, rather than keeping whatever state
			// they held before Load was called.
			for i := idx; i < len(lanes); i++ {
				resetLaneToDefault(lanes[i], names[i])
			}

			a.fillActive = false

			return nil
		}

		var steps [32]uint8

		for i := 0; i < 32; i++ {
			v, err := readInt32(r)
			if err != nil {
				return fmt.Errorf("truncated %s step %d: %w", name, i, err)
			}

			steps[i] = clampStepByte(name, v)
		}

		lane.SetLength(32)

		for i := 0; i < 32; i++ {
			lane.Set(i, steps[i])
		}

		lane.SetLength(clampInt(int(length), 1, 32))
	}

	fill, err := readInt32(r)
	if err != nil {
		return fmt.Errorf("truncated fillToggle: %w", err)
	}

	a.fillActive = fill != 0

	return nil
}

// saveSections stages the engine's current lane state into plain int32
// arrays in Save's field order; Load lists the same order separately.
// Ratchet,
// condition, and modifier cells already store small domain values
// directly; velocity, gate, and pitch persist their raw lane byte.
func (a *Arpeggiator) saveSections() []laneStateSection {
	velLen := a.lanes.Velocity.Length()
	gateLen := a.lanes.Gate.Length()
	pitchLen := a.lanes.Pitch.Length()
	modLen := a.lanes.Modifier.Length()
	ratLen := a.lanes.Ratchet.Length()
	condLen := a.lanes.Condition.Length()

	var velSteps, gateSteps, pitchSteps, modSteps, ratSteps, condSteps [32]int32

	for i := 0; i < 32; i++ {
		velSteps[i] = int32(a.lanes.Velocity.Get(i))
		gateSteps[i] = int32(a.lanes.Gate.Get(i))
		pitchSteps[i] = int32(a.lanes.Pitch.Get(i))
		modSteps[i] = int32(a.lanes.Modifier.Get(i))
		ratSteps[i] = int32(a.lanes.Ratchet.Get(i))
		condSteps[i] = int32(a.lanes.Condition.Get(i))
	}

	return []laneStateSection{
		{"velocity", &velLen, &velSteps},
		{"gate", &gateLen, &gateSteps},
		{"pitch", &pitchLen, &pitchSteps},
		{"modifier", &modLen, &modSteps},
		{"ratchet", &ratLen, &ratSteps},
		{"condition", &condLen, &condSteps},
	}
}

// resetLaneToDefault restores a lane to its NewArpeggiator construction
// default: length 1, every cell zero, except the modifier lane's cell 0
// which defaults to ModifierActive (§3.2) and the pitch lane's cell 0
// which holds the encoding of a 0-semitone offset.
func resetLaneToDefault(lane *rtcore.Lane[uint8], name string) {
	lane.SetLength(32)

	for i := 0; i < 32; i++ {
		lane.Set(i, 0)
	}

	if name == "modifier" {
		lane.Set(0, ModifierActive)
	}

	if name == "pitch" {
		lane.Set(0, EncodePitchSemitones(0))
	}

	lane.SetLength(1)
}

func clampStepByte(section string, v int32) uint8 {
	switch section {
	case "modifier":
		return uint8(v) & ModifierMask
	case "ratchet":
		return uint8(clampInt(int(v), 1, 4))
	case "condition":
		return uint8(clampInt(int(v), 0, MaxConditionIndex))
	default: // velocity, gate, pitch: raw byte range
		return uint8(clampInt(int(v), 0, 255))
	}
}

func writeInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])

	return err
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

// readOptionalInt32 reads one int32, reporting ok=false (no error) on
// a clean EOF with zero bytes consumed, and an error on any other
// failure including a short read.
func readOptionalInt32(r io.Reader) (int32, bool, error) {
	var buf [4]byte

	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return 0, false, nil
		}

		return 0, false, err
	}

	return int32(binary.LittleEndian.Uint32(buf[:])), true, nil
}
