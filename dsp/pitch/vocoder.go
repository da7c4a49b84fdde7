package pitch

import (
	"fmt"
	"math"

	"github.com/rolandzwaga/krate-audio/dsp/interp"
	"github.com/rolandzwaga/krate-audio/dsp/rtcore"
	"github.com/rolandzwaga/krate-audio/dsp/spectrum"
	"github.com/rolandzwaga/krate-audio/dsp/window"
	algofft "github.com/MeKo-Christian/algo-fft"
)

const (
	// MinFFTSize and MaxFFTSize bound the supported analysis frame size.
	MinFFTSize = 1024
	MaxFFTSize = 8192

	// MaxPeaks is the compact peak-index list capacity (§3.1, §5).
	MaxPeaks = 512

	// magnitudeFloor guards divisions and logarithms against denormals.
	magnitudeFloor = 1e-12

	// formantRatioClampMin/Max bound the per-bin formant correction gain
	// so a near-zero shifted envelope never blows up the spectrum.
	formantRatioClampMin = 0.125
	formantRatioClampMax = 8.0
)

// PhaseLockedVocoder performs the per-frame frequency-domain pitch
// shift described in spec section 4.2: classical phase-vocoder analysis,
// strict-inequality peak detection, region-of-influence assignment, and
// two-pass identity-phase-locked synthesis with an optional cepstral
// formant envelope correction.
//
// All buffers are sized by Prepare and never grow afterward: ProcessFrame
// performs no allocation.
type PhaseLockedVocoder struct {
	sampleRate float64
	fftSize    int
	hop        int
	bins       int

	plan        *algofft.Plan[complex128]
	synthWindow []float64

	spectrum  []complex128
	timeFrame []complex128

	rePart, imPart []float64

	magnitude  []float64
	phase      []float64
	prevPhase  []float64
	synthPhase []float64
	frequency  []float64

	isPeak      []bool
	peakIndices []uint16
	numPeaks    int
	regionPeak  []int

	phaseLockingEnabled bool
	wasLocked           bool
	formantPreserve     bool

	analysisEnv  []float64
	shiftedEnv   []float64
	logMag       []float64
	cepstrum     []complex128
	cepSpectrum  []complex128
	lifterCutoff int

	synthScratchBuf []float64

	linearInterp *interp.LagrangeInterpolator
	interpPair   [2]float64
}

// NewPhaseLockedVocoder returns an unprepared vocoder. Call Prepare
// before processing any frame.
func NewPhaseLockedVocoder() *PhaseLockedVocoder {
	return &PhaseLockedVocoder{
		phaseLockingEnabled: true,
		linearInterp:        interp.NewLagrangeInterpolator(1),
	}
}

// Prepare (re)allocates every buffer for the given sample rate and FFT
// size and resets all phase state. fftSize must be a power of two in
// [MinFFTSize, MaxFFTSize].
func (v *PhaseLockedVocoder) Prepare(sampleRate float64, fftSize int) error {
	if !isFinitePositive(sampleRate) {
		return fmt.Errorf("phase vocoder: sample rate must be positive and finite: %v", sampleRate)
	}

	if fftSize < MinFFTSize || fftSize > MaxFFTSize || !isPowerOfTwo(fftSize) {
		return fmt.Errorf("phase vocoder: fft size must be a power of two in [%d, %d]: %d",
			MinFFTSize, MaxFFTSize, fftSize)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return fmt.Errorf("phase vocoder: failed to create FFT plan: %w", err)
	}

	bins := fftSize/2 + 1

	v.sampleRate = sampleRate
	v.fftSize = fftSize
	v.hop = fftSize / 4
	v.bins = bins
	v.plan = plan

	v.synthWindow = window.Generate(window.TypeHann, fftSize, window.WithPeriodic())

	v.spectrum = make([]complex128, fftSize)
	v.timeFrame = make([]complex128, fftSize)

	v.rePart = make([]float64, bins)
	v.imPart = make([]float64, bins)

	v.magnitude = make([]float64, bins)
	v.phase = make([]float64, bins)
	v.prevPhase = make([]float64, bins)
	v.synthPhase = make([]float64, bins)
	v.frequency = make([]float64, bins)

	v.isPeak = make([]bool, bins)
	v.peakIndices = make([]uint16, MaxPeaks)
	v.regionPeak = make([]int, bins)

	v.analysisEnv = make([]float64, bins)
	v.shiftedEnv = make([]float64, bins)
	v.logMag = make([]float64, bins)
	v.cepstrum = make([]complex128, fftSize)
	v.cepSpectrum = make([]complex128, fftSize)
	v.synthScratchBuf = make([]float64, fftSize)

	// Quefrency cutoff separating the slowly-varying formant envelope
	// from the fast-varying pitch excitation: roughly the sample count
	// of one period at the voiced/unvoiced boundary (~700 Hz).
	v.lifterCutoff = clampInt(int(sampleRate/700.0), 4, fftSize/2-1)

	v.Reset()

	return nil
}

// SetPhaseLocking toggles identity phase locking. Calling it repeatedly
// with the same value is idempotent.
func (v *PhaseLockedVocoder) SetPhaseLocking(enabled bool) { v.phaseLockingEnabled = enabled }

// PhaseLocking reports whether identity phase locking is enabled.
func (v *PhaseLockedVocoder) PhaseLocking() bool { return v.phaseLockingEnabled }

// SetFormantPreserve toggles the cepstral formant envelope correction.
func (v *PhaseLockedVocoder) SetFormantPreserve(enabled bool) { v.formantPreserve = enabled }

// FormantPreserve reports whether formant preservation is enabled.
func (v *PhaseLockedVocoder) FormantPreserve() bool { return v.formantPreserve }

// Reset zeros all phase-tracking state. The phase-locking toggle and
// formant-preserve toggle are configuration, not state, and survive
// Reset.
func (v *PhaseLockedVocoder) Reset() {
	for i := range v.prevPhase {
		v.prevPhase[i] = 0
		v.synthPhase[i] = 0
		v.frequency[i] = 0
		v.magnitude[i] = 0
		v.phase[i] = 0
		v.isPeak[i] = false
		v.regionPeak[i] = 0
	}

	v.numPeaks = 0
	v.wasLocked = false
}

// Bins returns B = fftSize/2 + 1.
func (v *PhaseLockedVocoder) Bins() int { return v.bins }

// ProcessFrame runs one full analysis/synthesis cycle over an
// analysis-windowed input frame (length fftSize) and returns a
// synthesis-windowed output frame (length fftSize, reused across calls —
// callers must consume it before the next call). ratio must be finite,
// positive, and is expected in [0.25, 4.0].
func (v *PhaseLockedVocoder) ProcessFrame(analysisFrame []float64, ratio float64) []float64 {
	v.analyze(analysisFrame)
	v.detectPeaks()
	v.assignRegions()
	v.reinitOnLockToggle()
	v.synthesize(ratio)

	if v.formantPreserve {
		v.applyFormantCorrection()
	}

	v.mirrorForInverse()
	_ = v.plan.Inverse(v.timeFrame, v.spectrum)

	return v.windowedTimeFrame()
}

// analyze performs the classical phase-vocoder analysis step (§4.2.1):
// forward FFT, magnitude/phase extraction, and instantaneous-frequency
// estimation from the phase deviation relative to the expected bin
// frequency.
func (v *PhaseLockedVocoder) analyze(frame []float64) {
	for i, x := range frame {
		v.spectrum[i] = complex(x, 0)
	}

	_ = v.plan.Forward(v.spectrum, v.spectrum)

	for k := 0; k < v.bins; k++ {
		v.rePart[k] = real(v.spectrum[k])
		v.imPart[k] = imag(v.spectrum[k])
	}

	spectrum.MagnitudeFromParts(v.magnitude, v.rePart, v.imPart)

	hopF := float64(v.hop)
	n := float64(v.fftSize)

	for k := 0; k < v.bins; k++ {
		ph := math.Atan2(v.imPart[k], v.rePart[k])
		v.phase[k] = ph

		expected := float64(k) * 2 * math.Pi * hopF / n
		deviation := rtcore.WrapPhase(ph - v.prevPhase[k] - expected)

		v.frequency[k] = (float64(k)*2*math.Pi + deviation) * v.sampleRate / n
		v.prevPhase[k] = ph
	}
}

// detectPeaks implements §4.2.2 / P-PV-1: strict inequality against
// both neighbours, bins 0 and B-1 never peaks, equal-magnitude
// plateaux are not peaks.
func (v *PhaseLockedVocoder) detectPeaks() {
	v.numPeaks = 0
	v.isPeak[0] = false
	v.isPeak[v.bins-1] = false

	for k := 1; k < v.bins-1; k++ {
		peak := v.magnitude[k] > v.magnitude[k-1] && v.magnitude[k] > v.magnitude[k+1]
		v.isPeak[k] = peak

		if peak && v.numPeaks < MaxPeaks {
			v.peakIndices[v.numPeaks] = uint16(k)
			v.numPeaks++
		}
	}
}

// assignRegions implements §4.2.3 / P-PV-2 using a nearest-peak
// two-pointer walk: as k increases, advance to the next peak only when
// it is strictly closer than the current one, so an exact tie keeps the
// lower-frequency peak. This is equivalent to the midpoint-boundary
// rule in the spec (m = (p_i+p_{i+1})/2, bins <= m assigned to p_i).
func (v *PhaseLockedVocoder) assignRegions() {
	if v.numPeaks == 0 {
		return
	}

	if v.numPeaks == 1 {
		p := int(v.peakIndices[0])
		for k := range v.regionPeak {
			v.regionPeak[k] = p
		}

		return
	}

	peakIdx := 0

	for k := 0; k < v.bins; k++ {
		for peakIdx+1 < v.numPeaks {
			curr := int(v.peakIndices[peakIdx])
			next := int(v.peakIndices[peakIdx+1])

			if absInt(next-k) < absInt(curr-k) {
				peakIdx++
			} else {
				break
			}
		}

		v.regionPeak[k] = int(v.peakIndices[peakIdx])
	}
}

// reinitOnLockToggle implements §4.2.4: on a locked->basic transition,
// discard accumulated synthesis phase so the next frame doesn't produce
// a stale-phase click.
func (v *PhaseLockedVocoder) reinitOnLockToggle() {
	if v.wasLocked && !v.phaseLockingEnabled {
		copy(v.synthPhase, v.prevPhase)
	}

	v.wasLocked = v.phaseLockingEnabled
}

// synthesize implements §4.2.5: two-pass identity-phase-locked
// synthesis, or the basic single-pass path when locking is disabled or
// there were no peaks this frame.
func (v *PhaseLockedVocoder) synthesize(ratio float64) {
	for i := range v.spectrum {
		v.spectrum[i] = 0
	}

	basic := !v.phaseLockingEnabled || v.numPeaks == 0
	hopOverSR := float64(v.hop) / v.sampleRate

	if !basic {
		for k := 0; k < v.bins; k++ {
			srcRounded := int(math.Round(float64(k) / ratio))
			if srcRounded >= 0 && srcRounded < v.bins && v.isPeak[srcRounded] {
				v.synthPhase[k] = rtcore.WrapPhase(v.synthPhase[k] + v.frequency[srcRounded]*hopOverSR)
			}
		}
	}

	for k := 0; k < v.bins; k++ {
		srcBin := float64(k) / ratio

		srcRounded := int(math.Round(srcBin))
		if srcRounded < 0 || srcRounded >= v.bins {
			continue
		}

		mag := v.interpMagnitude(srcBin)

		switch {
		case basic:
			v.synthPhase[k] = rtcore.WrapPhase(v.synthPhase[k] + v.frequency[srcRounded]*hopOverSR)
		case v.isPeak[srcRounded]:
			// phase already advanced in the peak pass above
		default:
			analysisPeak := v.regionPeak[srcRounded]
			synthPeakBin := clampInt(int(math.Round(float64(analysisPeak)*ratio)), 0, v.bins-1)
			rotation := v.synthPhase[synthPeakBin] - v.prevPhase[analysisPeak]
			analysisPhaseAtSrc := v.interpPhase(v.prevPhase, srcBin)
			v.synthPhase[k] = rtcore.WrapPhase(analysisPhaseAtSrc + rotation)
		}

		v.spectrum[k] = complex(mag*math.Cos(v.synthPhase[k]), mag*math.Sin(v.synthPhase[k]))
	}
}

// interpMagnitude linearly interpolates v.magnitude at a fractional bin
// index, per the "linearly interpolate mag from magnitude[] at srcBin"
// instruction shared by both synthesis passes.
func (v *PhaseLockedVocoder) interpMagnitude(srcBin float64) float64 {
	return v.interpLinear(v.magnitude, srcBin)
}

// interpPhase linearly interpolates a phase array at a fractional bin
// index. The spec calls for a direct linear blend of the stored angles
// (no unwrap), so that is exactly what this does.
func (v *PhaseLockedVocoder) interpPhase(phases []float64, srcBin float64) float64 {
	return v.interpLinear(phases, srcBin)
}

// interpLinear evaluates the shared order-1 Lagrange interpolator
// (degenerating to plain linear interpolation) at a fractional bin
// index, clamping to the array's edges outside [0, n-1].
func (v *PhaseLockedVocoder) interpLinear(values []float64, x float64) float64 {
	if x < 0 {
		return values[0]
	}

	n := len(values)
	lo := int(x)

	if lo >= n-1 {
		return values[n-1]
	}

	v.interpPair[0] = values[lo]
	v.interpPair[1] = values[lo+1]

	return v.linearInterp.Interpolate(v.interpPair[:], x-float64(lo))
}

// applyFormantCorrection implements §4.2.6.
func (v *PhaseLockedVocoder) applyFormantCorrection() {
	v.cepstralEnvelope(v.magnitude, v.analysisEnv)

	for k := 0; k < v.bins; k++ {
		v.rePart[k] = real(v.spectrum[k])
		v.imPart[k] = imag(v.spectrum[k])
	}

	spectrum.MagnitudeFromParts(v.logMag, v.rePart, v.imPart)
	v.cepstralEnvelope(v.logMag, v.shiftedEnv)

	for k := 0; k < v.bins; k++ {
		ratio := v.analysisEnv[k] / math.Max(v.shiftedEnv[k], magnitudeFloor)
		ratio = math.Min(math.Max(ratio, formantRatioClampMin), formantRatioClampMax)
		v.spectrum[k] *= complex(ratio, 0)
	}
}

func (v *PhaseLockedVocoder) mirrorForInverse() {
	half := v.fftSize / 2

	v.spectrum[0] = complex(real(v.spectrum[0]), 0)
	v.spectrum[half] = complex(real(v.spectrum[half]), 0)

	for k := 1; k < half; k++ {
		c := v.spectrum[k]
		v.spectrum[v.fftSize-k] = complex(real(c), -imag(c))
	}
}

// windowedTimeFrame applies the synthesis window to the inverse-FFT
// output, the last step of §4.2.7.
func (v *PhaseLockedVocoder) windowedTimeFrame() []float64 {
	out := v.synthScratchBuf
	for i := range out {
		out[i] = real(v.timeFrame[i]) * v.synthWindow[i]
	}

	return out
}

func isFinitePositive(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x > 0
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}

	return x
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
