// Package pitch implements an identity phase-locking phase vocoder
// pitch shifter (Laroche & Dolson 1999): an STFT-based frequency-domain
// pitch shift that preserves vertical phase coherence across spectral
// peaks, reducing the "phasiness" artifact of the classical phase
// vocoder.
//
// The engine is split the way the rest of this module's audio path is
// split: [STFTFramer] owns framing and overlap-add, [PhaseLockedVocoder]
// owns the per-frame spectral transform (peak detection, region
// assignment, two-pass synthesis, optional formant correction), and
// [PitchShifter] composes the two into the public audio-thread surface.
package pitch
