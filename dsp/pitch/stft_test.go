package pitch

import (
	"math"
	"testing"
)

func TestSTFTFramerPrepareRejectsInvalidFFTSize(t *testing.T) {
	f := NewSTFTFramer(NewPhaseLockedVocoder())

	for _, n := range []int{0, 100, MinFFTSize - 1, MaxFFTSize + 1} {
		if err := f.Prepare(n); err == nil {
			t.Fatalf("Prepare(%d) expected error, got nil", n)
		}
	}
}

func TestSTFTFramerLatencyEqualsFFTSize(t *testing.T) {
	v := NewPhaseLockedVocoder()
	if err := v.Prepare(48000, 1024); err != nil {
		t.Fatalf("vocoder Prepare() error = %v", err)
	}

	f := NewSTFTFramer(v)
	if err := f.Prepare(1024); err != nil {
		t.Fatalf("framer Prepare() error = %v", err)
	}

	if got := f.LatencySamples(); got != 1024 {
		t.Fatalf("LatencySamples() = %d, want 1024", got)
	}
}

// TestUnityBypassIsExactDelay checks P-PV-4's framing half: with ratio
// pinned to 1.0, output is bit-identical to the input delayed by
// exactly LatencySamples, with no spectral processing in between.
func TestUnityBypassIsExactDelay(t *testing.T) {
	const fftSize = 1024

	v := NewPhaseLockedVocoder()
	if err := v.Prepare(48000, fftSize); err != nil {
		t.Fatalf("vocoder Prepare() error = %v", err)
	}

	f := NewSTFTFramer(v)
	if err := f.Prepare(fftSize); err != nil {
		t.Fatalf("framer Prepare() error = %v", err)
	}

	n := fftSize * 3
	in := make([]float64, n)

	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 0.01 * float64(i))
	}

	out := make([]float64, n)
	for i, x := range in {
		out[i] = f.ProcessSample(x, 1.0)
	}

	latency := f.LatencySamples()

	for i := latency; i < n; i++ {
		if out[i] != in[i-latency] {
			t.Fatalf("sample %d: out = %v, want exact delayed input %v", i, out[i], in[i-latency])
		}
	}

	for i := 0; i < latency; i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d: out = %v, want 0 before latency fills", i, out[i])
		}
	}
}

// TestActivePathProducesFiniteOutput is a smoke test that the full
// analysis/synthesis pipeline runs to completion without NaN/Inf for a
// representative pitch shift.
func TestActivePathProducesFiniteOutput(t *testing.T) {
	const fftSize = 2048

	v := NewPhaseLockedVocoder()
	if err := v.Prepare(48000, fftSize); err != nil {
		t.Fatalf("vocoder Prepare() error = %v", err)
	}

	f := NewSTFTFramer(v)
	if err := f.Prepare(fftSize); err != nil {
		t.Fatalf("framer Prepare() error = %v", err)
	}

	n := fftSize * 6
	ratio := math.Pow(2, 3.0/12.0)

	for i := 0; i < n; i++ {
		x := math.Sin(2 * math.Pi * 220 * float64(i) / 48000)

		out := f.ProcessSample(x, ratio)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			t.Fatalf("sample %d: output not finite: %v", i, out)
		}
	}
}
