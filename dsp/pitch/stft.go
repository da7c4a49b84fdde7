package pitch

import (
	"fmt"

	"github.com/rolandzwaga/krate-audio/dsp/core"
	"github.com/rolandzwaga/krate-audio/dsp/rtcore"
	"github.com/rolandzwaga/krate-audio/dsp/window"
	"github.com/rolandzwaga/krate-audio/internal/vecmath"
)

// unityRatioEpsilon is how close PitchRatio must be to 1.0 before the
// framer bypasses the spectral path entirely in favor of a plain
// N-sample delay line (§4.1's unity bypass).
const unityRatioEpsilon = 1e-9

// STFTFramer owns sample-at-a-time framing and overlap-add around a
// PhaseLockedVocoder: it accumulates incoming samples into fixed-size
// analysis frames on a hop boundary, hands each windowed frame to the
// vocoder, and overlap-adds the windowed result back into a running
// output stream one sample per call.
//
// It is causal: an analysis frame covers only samples already received,
// so the full algorithmic latency is one frame (fftSize samples) rather
// than the shorter centered-frame latency a look-ahead design would
// give. ProcessSample performs no allocation after Prepare.
type STFTFramer struct {
	vocoder *PhaseLockedVocoder

	fftSize int
	hop     int

	analysisWindow []float64
	colaGain       float64

	inputRing  *rtcore.RingBuffer
	outputRing *rtcore.RingBuffer

	analysisFrame []float64
	synthScratch  []float64

	writePos   int
	hopCounter int
}

// NewSTFTFramer returns a framer bound to the given vocoder. Call
// Prepare before processing any sample.
func NewSTFTFramer(vocoder *PhaseLockedVocoder) *STFTFramer {
	return &STFTFramer{vocoder: vocoder}
}

// Prepare (re)allocates the framer's ring buffers and analysis window
// and resets all framing state. fftSize must match the value passed to
// the bound vocoder's Prepare.
func (f *STFTFramer) Prepare(fftSize int) error {
	if fftSize < MinFFTSize || fftSize > MaxFFTSize || !isPowerOfTwo(fftSize) {
		return fmt.Errorf("stft framer: fft size must be a power of two in [%d, %d]: %d",
			MinFFTSize, MaxFFTSize, fftSize)
	}

	f.fftSize = fftSize
	f.hop = fftSize / 4

	f.analysisWindow = window.Generate(window.TypeHann, fftSize, window.WithPeriodic())

	// The window is applied on analysis and again on synthesis; at 75%
	// overlap (hop = N/4) the squared periodic Hann window sums to 1.5 at
	// every sample, so scale by its reciprocal to hold unity gain.
	f.colaGain = 2.0 / 3.0

	f.inputRing = rtcore.NewRingBuffer(fftSize)
	f.outputRing = rtcore.NewRingBuffer(fftSize)
	f.analysisFrame = make([]float64, fftSize)
	f.synthScratch = make([]float64, fftSize)

	f.Reset()

	return nil
}

// Reset clears all ring state and framing counters. The next output
// sample after Reset again lags the next input sample by LatencySamples.
func (f *STFTFramer) Reset() {
	f.inputRing.Reset()
	f.outputRing.Reset()
	f.writePos = 0
	f.hopCounter = 0
}

// LatencySamples returns the fixed input-to-output delay in samples.
func (f *STFTFramer) LatencySamples() int { return f.fftSize }

// ProcessSample consumes one input sample at the given pitch ratio and
// returns the corresponding delayed output sample.
func (f *STFTFramer) ProcessSample(x, ratio float64) float64 {
	pos := f.writePos
	delayed := f.inputRing.At(pos) // sample written fftSize calls ago
	f.inputRing.Set(pos, x)
	f.writePos++

	if core.NearlyEqual(ratio, 1.0, unityRatioEpsilon) {
		f.hopCounter = 0

		if f.writePos <= f.fftSize {
			return 0
		}

		return delayed
	}

	f.hopCounter++

	if f.hopCounter >= f.hop && f.writePos >= f.fftSize {
		f.hopCounter = 0
		f.runFrame(ratio)
	}

	if f.writePos <= f.fftSize {
		return 0
	}

	outPos := f.writePos - 1 - f.fftSize

	return f.outputRing.TakeAndClear(outPos)
}

func (f *STFTFramer) runFrame(ratio float64) {
	base := f.writePos - f.fftSize

	in1, in2 := f.inputRing.Span(base, f.fftSize)
	vecmath.MulBlock(f.analysisFrame[:len(in1)], in1, f.analysisWindow[:len(in1)])

	if len(in2) > 0 {
		vecmath.MulBlock(f.analysisFrame[len(in1):], in2, f.analysisWindow[len(in1):])
	}

	synthFrame := f.vocoder.ProcessFrame(f.analysisFrame, ratio)
	vecmath.ScaleBlock(f.synthScratch, synthFrame, f.colaGain)

	out1, out2 := f.outputRing.Span(base, f.fftSize)
	vecmath.AddBlockInPlace(out1, f.synthScratch[:len(out1)])

	if len(out2) > 0 {
		vecmath.AddBlockInPlace(out2, f.synthScratch[len(out1):])
	}
}
