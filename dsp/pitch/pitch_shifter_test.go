package pitch

import (
	"math"
	"testing"

	"github.com/rolandzwaga/krate-audio/dsp/spectrum"
	"github.com/rolandzwaga/krate-audio/internal/testutil"
)

func TestNewPitchShifterDefaults(t *testing.T) {
	p := NewPitchShifter()

	if got := p.PitchRatio(); got != 1.0 {
		t.Fatalf("PitchRatio() = %v, want 1.0", got)
	}

	if !p.PhaseLocking() {
		t.Fatal("PhaseLocking() = false, want true by default")
	}

	if p.FormantPreserve() {
		t.Fatal("FormantPreserve() = true, want false by default")
	}
}

func TestPrepareRequiredBeforeUse(t *testing.T) {
	p := NewPitchShifter()

	if err := p.Prepare(48000, 2048); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if got := p.SampleRate(); got != 48000 {
		t.Fatalf("SampleRate() = %v, want 48000", got)
	}

	if got := p.FFTSize(); got != 2048 {
		t.Fatalf("FFTSize() = %d, want 2048", got)
	}

	if got := p.LatencySamples(); got != 2048 {
		t.Fatalf("LatencySamples() = %d, want 2048", got)
	}
}

func TestSetPitchRatioClampsToRange(t *testing.T) {
	p := NewPitchShifter()

	p.SetPitchRatio(0.01)
	if got := p.PitchRatio(); got != MinPitchRatio {
		t.Fatalf("PitchRatio() = %v, want clamp to %v", got, MinPitchRatio)
	}

	p.SetPitchRatio(100)
	if got := p.PitchRatio(); got != MaxPitchRatio {
		t.Fatalf("PitchRatio() = %v, want clamp to %v", got, MaxPitchRatio)
	}

	p.SetPitchRatio(math.NaN())
	if got := p.PitchRatio(); got != MaxPitchRatio {
		t.Fatalf("PitchRatio() after NaN = %v, want unchanged %v", got, MaxPitchRatio)
	}
}

func TestSetPitchSemitonesMatchesRatio(t *testing.T) {
	p := NewPitchShifter()
	p.SetPitchSemitones(12)

	want := 2.0
	if got := p.PitchRatio(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("PitchRatio() after +12 semitones = %v, want %v", got, want)
	}
}

// TestUnityIdentityScenario covers spec section 8.3's unity case: at
// ratio 1.0 the output is an exact delayed copy of the input.
func TestUnityIdentityScenario(t *testing.T) {
	const fftSize = 1024

	p := NewPitchShifter()
	if err := p.Prepare(48000, fftSize); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	n := fftSize * 4
	in := testutil.DeterministicSine(440, 48000, 1.0, n)

	out := make([]float64, n)
	p.ProcessBlock(out, in)
	testutil.RequireFinite(t, out)

	latency := p.LatencySamples()
	testutil.RequireSliceNearlyEqual(t, out[latency:], in[:n-latency], 0)
}

// TestPitchShiftConcentratesEnergyNearExpectedFrequency is the spec
// section 8.3 +3-semitone scenario: feeding a pure tone through a
// +3-semitone shift should produce output whose dominant energy sits
// near input_freq * 2^(3/12), not at the original frequency.
func TestPitchShiftConcentratesEnergyNearExpectedFrequency(t *testing.T) {
	const (
		fftSize    = 2048
		sampleRate = 48000.0
		inputFreq  = 220.0
	)

	p := NewPitchShifter()
	if err := p.Prepare(sampleRate, fftSize); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	p.SetPitchSemitones(3)

	n := fftSize * 12
	in := testutil.DeterministicSine(inputFreq, sampleRate, 1.0, n)

	out := make([]float64, n)
	p.ProcessBlock(out, in)

	// Drop the latency-fill and settling region; analyze a late window.
	analysisStart := n - fftSize
	window := out[analysisStart:]

	expectedFreq := inputFreq * math.Pow(2, 3.0/12.0)

	energyNearExpected := goertzelPower(t, window, expectedFreq, sampleRate)
	energyNearOriginal := goertzelPower(t, window, inputFreq, sampleRate)

	if energyNearExpected <= energyNearOriginal {
		t.Fatalf("energy near shifted freq (%v) = %v, want > energy near original freq (%v) = %v",
			expectedFreq, energyNearExpected, inputFreq, energyNearOriginal)
	}
}

// goertzelPower reports single-bin spectral energy at freq, used only to
// verify that a shifted tone's energy moved where expected.
func goertzelPower(t *testing.T, samples []float64, freq, sampleRate float64) float64 {
	t.Helper()

	g, err := spectrum.NewGoertzel(freq, sampleRate)
	if err != nil {
		t.Fatalf("NewGoertzel(%v): %v", freq, err)
	}

	g.ProcessBlock(samples)

	return g.Power()
}

func TestResetClearsPhaseState(t *testing.T) {
	p := NewPitchShifter()
	if err := p.Prepare(48000, 1024); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	in := testutil.DeterministicSine(0.05*48000, 48000, 1.0, 4096)

	out := make([]float64, len(in))
	p.SetPitchSemitones(5)
	p.ProcessBlock(out, in)

	p.Reset()

	out2 := make([]float64, len(in))
	p.ProcessBlock(out2, in)

	testutil.RequireSliceNearlyEqual(t, out2, out, 1e-9)
}
