package pitch

import (
	"fmt"
	"math"

	"github.com/rolandzwaga/krate-audio/dsp/core"
)

const (
	// DefaultFFTSize is used by NewPitchShifter when the caller has no
	// strong preference; it balances frequency resolution against
	// latency for typical musical material.
	DefaultFFTSize = 2048

	// MinPitchRatio and MaxPitchRatio bound SetPitchRatio.
	MinPitchRatio = 0.25
	MaxPitchRatio = 4.0
)

// PitchShifter is the audio-thread surface of the identity
// phase-locking phase vocoder: a mono, sample-at-a-time pitch shifter
// built from an STFTFramer driving a PhaseLockedVocoder.
//
// Prepare must be called once (and again on any sample-rate or block
// change) before ProcessSample/ProcessBlock. After Prepare, no method
// on PitchShifter allocates.
type PitchShifter struct {
	vocoder *PhaseLockedVocoder
	framer  *STFTFramer

	sampleRate float64
	fftSize    int
	pitchRatio float64
}

// NewPitchShifter returns an unprepared pitch shifter at unity ratio
// with identity phase locking enabled.
func NewPitchShifter() *PitchShifter {
	v := NewPhaseLockedVocoder()

	return &PitchShifter{
		vocoder:    v,
		framer:     NewSTFTFramer(v),
		pitchRatio: 1.0,
		fftSize:    DefaultFFTSize,
	}
}

// Prepare (re)allocates every internal buffer for the given sample rate
// and FFT size and resets all state.
func (p *PitchShifter) Prepare(sampleRate float64, fftSize int) error {
	if err := p.vocoder.Prepare(sampleRate, fftSize); err != nil {
		return fmt.Errorf("pitch shifter: %w", err)
	}

	if err := p.framer.Prepare(fftSize); err != nil {
		return fmt.Errorf("pitch shifter: %w", err)
	}

	p.sampleRate = sampleRate
	p.fftSize = fftSize

	return nil
}

// Reset clears all framing and phase state without reallocating.
func (p *PitchShifter) Reset() {
	p.vocoder.Reset()
	p.framer.Reset()
}

// SetPitchRatio sets the target pitch-shift ratio (1.0 = unchanged,
// 2.0 = one octave up, 0.5 = one octave down). Out-of-range values are
// clamped to [MinPitchRatio, MaxPitchRatio].
func (p *PitchShifter) SetPitchRatio(ratio float64) {
	if math.IsNaN(ratio) {
		return
	}

	p.pitchRatio = core.Clamp(ratio, MinPitchRatio, MaxPitchRatio)
}

// PitchRatio returns the currently configured pitch-shift ratio.
func (p *PitchShifter) PitchRatio() float64 { return p.pitchRatio }

// SetPitchSemitones is a convenience wrapper expressing the shift in
// semitones rather than as a raw ratio.
func (p *PitchShifter) SetPitchSemitones(semitones float64) {
	p.SetPitchRatio(math.Pow(2, semitones/12.0))
}

// EffectivePitchRatio returns the ratio actually realized this frame.
// For this implementation it always equals PitchRatio: unlike a
// time-stretch-plus-resample design, frequency-domain bin remapping
// needs no hop-ratio quantization.
func (p *PitchShifter) EffectivePitchRatio() float64 { return p.pitchRatio }

// SetPhaseLocking toggles identity phase locking. When disabled the
// vocoder falls back to the classical single-pass phase vocoder.
func (p *PitchShifter) SetPhaseLocking(enabled bool) { p.vocoder.SetPhaseLocking(enabled) }

// PhaseLocking reports whether identity phase locking is enabled.
func (p *PitchShifter) PhaseLocking() bool { return p.vocoder.PhaseLocking() }

// SetFormantPreserve toggles cepstral formant envelope correction.
func (p *PitchShifter) SetFormantPreserve(enabled bool) { p.vocoder.SetFormantPreserve(enabled) }

// FormantPreserve reports whether formant preservation is enabled.
func (p *PitchShifter) FormantPreserve() bool { return p.vocoder.FormantPreserve() }

// LatencySamples returns the fixed input-to-output delay in samples.
func (p *PitchShifter) LatencySamples() int { return p.framer.LatencySamples() }

// FFTSize returns the configured analysis/synthesis frame size.
func (p *PitchShifter) FFTSize() int { return p.fftSize }

// SampleRate returns the sample rate passed to Prepare.
func (p *PitchShifter) SampleRate() float64 { return p.sampleRate }

// ProcessSample consumes one input sample and returns the
// corresponding delayed, pitch-shifted output sample.
func (p *PitchShifter) ProcessSample(x float64) float64 {
	return p.framer.ProcessSample(x, p.pitchRatio)
}

// ProcessBlock pitch-shifts in into out sample-by-sample. in and out
// must be the same length; they may alias.
func (p *PitchShifter) ProcessBlock(out, in []float64) {
	for i, x := range in {
		out[i] = p.ProcessSample(x)
	}
}
