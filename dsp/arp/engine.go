package arp

import (
	"github.com/rolandzwaga/krate-audio/dsp/core"
	"github.com/rolandzwaga/krate-audio/dsp/rtcore"
)

// EventKind distinguishes a note-on from a note-off event.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
)

// Event is one emitted note-on/note-off with its sample-accurate
// position inside the current audio block.
type Event struct {
	SampleOffset int
	Kind         EventKind
	Pitch        int8
	Velocity     float64
	Slide        bool
	Tie          bool
	VoiceID      uint32
}

// TimingMode selects whether step duration comes from a fixed sample
// count (free-running) or is derived from BlockContext's tempo and a
// configured note value (tempo-synced).
type TimingMode int

const (
	TimingFreeRunning TimingMode = iota
	TimingTempoSynced
)

// SwingMode toggles the even/odd step-duration shuffle.
type SwingMode int

const (
	SwingOff SwingMode = iota
	SwingOn
)

// swingMaxRatio bounds the shuffle amount, mirroring the gentle curve
// this codebase already uses to map a 0..1 control into a timing ratio.
const swingMaxRatio = 1.0 / 3.0

// Arpeggiator is the step engine: a LaneSet, a NoteSelector, an
// optional EuclideanState, and the condition-evaluation PRNG composed
// by value, driven one step at a time by ProcessBlock.
type Arpeggiator struct {
	lanes     LaneSet
	selector  NoteSelector
	held      HeldNotes
	euclidean EuclideanState

	conditionRng rtcore.Xorshift32
	loopCount    uint64
	fillActive   bool

	tieActive           bool
	currentArpNoteCount int
	sustainingPitch     int8
	sustainingVoiceID   uint32
	nextVoiceID         uint32

	noteOffPending      bool
	samplesUntilNoteOff int

	timingMode             TimingMode
	swingMode              SwingMode
	swingAmount            float64
	noteValue              rtcore.NoteValue
	noteModifier           rtcore.NoteModifier
	freeRunningStepSamples int

	swingStepCounter     int
	currentStepDuration  int
	samplesUntilNextStep int
}

// NewArpeggiator returns an engine with every lane at length 1 and the
// §3.2 defaults: condition Always, modifier ModifierActive only,
// ratchet 1, pitch 0 (the modifier and pitch cells are set explicitly;
// the rest decode that way from zero).
func NewArpeggiator() *Arpeggiator {
	a := &Arpeggiator{
		lanes:        NewLaneSet(),
		selector:     NewNoteSelector(),
		conditionRng: rtcore.NewXorshift32(ConditionSeed),
		noteValue:    rtcore.NoteValueQuarter,
		noteModifier: rtcore.NoteModifierNone,
	}
	a.lanes.Modifier.Set(0, ModifierActive)
	a.lanes.Pitch.Set(0, EncodePitchSemitones(0))
	a.freeRunningStepSamples = 1

	return a
}

// Prepare records the sample rate used for free-running step timing.
// maxBlockSamples is informational: callers own the output event
// buffer (§6.1), so no allocation is required here.
func (a *Arpeggiator) Prepare(sampleRate float64, maxBlockSamples int) {
	_ = maxBlockSamples

	if sampleRate > 0 {
		a.freeRunningStepSamples = int(sampleRate / 8)
	}
}

// SetTimingMode selects free-running or tempo-synced step duration.
func (a *Arpeggiator) SetTimingMode(mode TimingMode) { a.timingMode = mode }

// SetTempoSyncNoteValue configures the note value/modifier used in
// tempo-synced mode.
func (a *Arpeggiator) SetTempoSyncNoteValue(value rtcore.NoteValue, modifier rtcore.NoteModifier) {
	a.noteValue = value
	a.noteModifier = modifier
}

// SetFreeRunningStepSamples configures the base step duration used in
// free-running mode.
func (a *Arpeggiator) SetFreeRunningStepSamples(samples int) {
	if samples > 0 {
		a.freeRunningStepSamples = samples
	}
}

// SetSwing toggles swing and sets its amount in [0,1], mapped onto the
// same gentle curve this codebase's sequencer prototype uses to map a
// shuffle control into a timing ratio.
func (a *Arpeggiator) SetSwing(mode SwingMode, amount float64) {
	a.swingMode = mode
	a.swingAmount = clampUnit(amount)
}

// SetFillActive sets the live performance flag read by the Fill and
// NotFill conditions. Not serialized (§3.2).
func (a *Arpeggiator) SetFillActive(active bool) { a.fillActive = active }

// FillActive reports the current fill flag.
func (a *Arpeggiator) FillActive() bool { return a.fillActive }

// LoopCount returns the number of completed condition-lane cycles
// since the last ResetLanes.
func (a *Arpeggiator) LoopCount() uint64 { return a.loopCount }

// Lanes exposes the six step lanes for direct control-plane access;
// ApplyParams is the normalized-parameter entry point.
func (a *Arpeggiator) Lanes() *LaneSet { return &a.lanes }

// Selector exposes the note selector for mode configuration.
func (a *Arpeggiator) Selector() *NoteSelector { return &a.selector }

// Held exposes the held-note buffer for host note-on/note-off calls.
func (a *Arpeggiator) Held() *HeldNotes { return &a.held }

// ConfigureEuclidean enables Euclidean gating with the given pattern,
// or disables it when hits <= 0.
func (a *Arpeggiator) ConfigureEuclidean(hits, steps, rotation int) {
	if hits <= 0 {
		a.euclidean.Disable()

		return
	}

	a.euclidean.Configure(hits, steps, rotation)
}

// Reset clears transient performance state (sustaining notes, swing
// timing, lane and Euclidean positions) but preserves fillActive,
// conditionRng, and loopCount, matching the engine-level reset used
// for a disable/enable cycle.
func (a *Arpeggiator) Reset() {
	a.lanes.ResetPositions()
	a.euclidean.Reset()
	a.tieActive = false
	a.currentArpNoteCount = 0
	a.noteOffPending = false
	a.swingStepCounter = 0
	a.currentStepDuration = 0
	a.samplesUntilNextStep = 0
}

// ResetLanes performs a full reset and additionally zeroes loopCount.
// The host MUST call this on transport restart, note retrigger, or
// arpeggiator re-enable (§6.4).
func (a *Arpeggiator) ResetLanes() {
	a.Reset()
	a.loopCount = 0
}

// FireStep runs one complete step tick per §4.3's canonical evaluation
// order, appending emitted events (via emit) with sampleOffset set to
// offset. It returns the sample duration until the next step.
//
// Ratio/First condition evaluation reads loopCount as it stood before
// this step's wrap-triggered increment: the wrap check (§4.3 step 3)
// updates the counter for steps after this one, but this step's own
// evaluation (step 5) is computed against the loop it belongs to, not
// the loop it just completed. This is what makes scenario §8.3.4's
// A:B ratio land on the documented loop indices.
func (a *Arpeggiator) FireStep(ctx rtcore.BlockContext, offset int, emit func(Event)) int {
	selection := a.selector.Advance(&a.held)
	values := a.lanes.Advance()

	evalLoopCount := a.loopCount

	if a.lanes.Condition.Position() == 0 {
		a.loopCount++
	}

	if a.euclidean.Enabled() && !a.euclidean.AdvanceHit() {
		a.cleanupRestLikeStep(offset, emit)

		return a.advanceSwingDuration(ctx)
	}

	condIndex := DecodeCondition(values.Condition)
	if !EvaluateCondition(condIndex, evalLoopCount, a.fillActive, &a.conditionRng) {
		a.cleanupRestLikeStep(offset, emit)

		return a.advanceSwingDuration(ctx)
	}

	if selection.Count == 0 {
		return a.advanceSwingDuration(ctx)
	}

	outcome := EvaluateModifier(DecodeModifier(values.Modifier))
	duration := a.advanceSwingDuration(ctx)
	gate := DecodeGate(values.Gate)

	switch {
	case outcome.Rest:
		a.cleanupRestLikeStep(offset, emit)

		return duration
	case outcome.Tie:
		if !a.tieActive || a.currentArpNoteCount == 0 {
			a.cleanupRestLikeStep(offset, emit)

			return duration
		}

		a.scheduleNoteOff(duration, gate)

		return duration
	}

	root := selection.Pitches[0]
	pitch := clampPitch(int(root.Pitch) + DecodePitchSemitones(values.Pitch))
	velocity := DecodeVelocity(values.Velocity) * outcome.AccentMultiplier
	ratchets := DecodeRatchet(values.Ratchet)

	a.endSustainingNote(offset, emit)

	voiceID := a.nextVoiceID
	a.nextVoiceID++

	emit(Event{
		SampleOffset: offset,
		Kind:         NoteOn,
		Pitch:        pitch,
		Velocity:     velocity,
		Slide:        outcome.Slide,
		VoiceID:      voiceID,
	})

	if ratchets > 1 {
		a.emitRatchets(offset, duration, ratchets, pitch, velocity, voiceID, emit)
		a.currentArpNoteCount = 0
		a.tieActive = false
		a.noteOffPending = false

		return duration
	}

	a.currentArpNoteCount = 1
	a.sustainingPitch = pitch
	a.sustainingVoiceID = voiceID
	a.tieActive = true
	a.scheduleNoteOff(duration, gate)

	return duration
}

// scheduleNoteOff (re)arms the deferred note-off countdown for the
// currently sustaining voice, at gate fraction of duration samples
// from now. A following Tie step calls this again before the old
// countdown elapses, which is what lets Tie genuinely extend the note
// instead of racing an already-scheduled note-off.
func (a *Arpeggiator) scheduleNoteOff(duration int, gate float64) {
	samples := int(float64(duration) * gate)
	if samples < 1 {
		samples = 1
	}

	a.samplesUntilNoteOff = samples
	a.noteOffPending = true
}

// emitRatchets schedules r equally spaced note-on/off pairs inside the
// step, per §4.3 step 7. All ratchet events complete within the step,
// so they are emitted eagerly rather than through the deferred
// note-off mechanism.
func (a *Arpeggiator) emitRatchets(
	offset, duration, ratchets int, pitch int8, velocity float64, firstVoiceID uint32, emit func(Event),
) {
	sub := duration / ratchets
	if sub < 1 {
		sub = 1
	}

	gateSamples := sub / 2
	if gateSamples < 1 {
		gateSamples = 1
	}

	// The first ratchet reuses the note-on the caller already emitted.
	emit(Event{SampleOffset: offset + gateSamples, Kind: NoteOff, Pitch: pitch, VoiceID: firstVoiceID})

	for i := 1; i < ratchets; i++ {
		onOffset := offset + i*sub
		voiceID := a.nextVoiceID
		a.nextVoiceID++

		emit(Event{SampleOffset: onOffset, Kind: NoteOn, Pitch: pitch, Velocity: velocity, VoiceID: voiceID})
		emit(Event{SampleOffset: onOffset + gateSamples, Kind: NoteOff, Pitch: pitch, VoiceID: voiceID})
	}
}

// cleanupRestLikeStep performs the shared teardown for a Euclidean
// rest, a failed condition, or a Rest modifier (§4.3 steps 4-5,
// P-ARP-3): cancel and emit any pending note-off, zero
// currentArpNoteCount, clear tieActive.
func (a *Arpeggiator) cleanupRestLikeStep(offset int, emit func(Event)) {
	a.endSustainingNote(offset, emit)
	a.tieActive = false
}

func (a *Arpeggiator) endSustainingNote(offset int, emit func(Event)) {
	if a.currentArpNoteCount == 0 {
		return
	}

	emit(Event{SampleOffset: offset, Kind: NoteOff, Pitch: a.sustainingPitch, VoiceID: a.sustainingVoiceID})
	a.currentArpNoteCount = 0
	a.noteOffPending = false
}

// advanceSwingDuration computes and stores this step's duration,
// applying the even/odd shuffle when swing is on.
func (a *Arpeggiator) advanceSwingDuration(ctx rtcore.BlockContext) int {
	base := a.baseStepDuration(ctx)

	duration := base
	if a.swingMode == SwingOn {
		ratio := swingMaxRatio * a.swingAmount

		if a.swingStepCounter%2 == 0 {
			duration = int(float64(base) * (1 + ratio))
		} else {
			duration = int(float64(base) * (1 - ratio))
		}
	}

	if duration < 1 {
		duration = 1
	}

	a.swingStepCounter++
	a.currentStepDuration = duration

	return duration
}

func (a *Arpeggiator) baseStepDuration(ctx rtcore.BlockContext) int {
	if a.timingMode == TimingTempoSynced {
		return ctx.TempoToSamples(a.noteValue, a.noteModifier)
	}

	return a.freeRunningStepSamples
}

// ProcessBlock advances the step clock across the block, firing every
// step boundary that falls within it and emitting the deferred
// note-off for the currently sustaining voice when its gate elapses,
// whichever comes first. Events are appended to out in increasing
// sampleOffset order, with a note-off and a step's note-on at the same
// offset ordered note-off-first. It returns the number of events
// written, capped at len(out).
func (a *Arpeggiator) ProcessBlock(ctx rtcore.BlockContext, out []Event) int {
	written := 0

	emit := func(e Event) {
		if written < len(out) {
			out[written] = e
			written++
		}
	}

	pos := 0

	for pos < ctx.BlockSize {
		remaining := ctx.BlockSize - pos

		wait := a.samplesUntilNextStep
		noteOffDue := a.noteOffPending && a.samplesUntilNoteOff <= wait

		if noteOffDue {
			wait = a.samplesUntilNoteOff
		}

		if wait > remaining {
			a.samplesUntilNextStep -= remaining

			if a.noteOffPending {
				a.samplesUntilNoteOff -= remaining
			}

			break
		}

		pos += wait
		a.samplesUntilNextStep -= wait

		if a.noteOffPending {
			a.samplesUntilNoteOff -= wait
		}

		if noteOffDue {
			emit(Event{SampleOffset: pos, Kind: NoteOff, Pitch: a.sustainingPitch, VoiceID: a.sustainingVoiceID})
			a.noteOffPending = false
			a.currentArpNoteCount = 0
		}

		if a.samplesUntilNextStep <= 0 {
			a.samplesUntilNextStep = a.FireStep(ctx, pos, emit)
		}
	}

	return written
}

func clampPitch(p int) int8 {
	if p < -128 {
		p = -128
	}

	if p > 127 {
		p = 127
	}

	return int8(p)
}

func clampUnit(v float64) float64 {
	return core.Clamp(v, 0, 1)
}
