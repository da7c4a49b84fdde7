package pitch

import "math"

// cepstralEnvelope implements §4.2.6's formant envelope estimate: mirror
// the log-magnitude spectrum into a full-length real spectrum, inverse
// FFT to the cepstrum, zero every quefrency past the lifter cutoff (and
// its mirror), forward FFT back, and exponentiate. The result in env is
// a smoothed spectral envelope over the same B bins as mag.
func (v *PhaseLockedVocoder) cepstralEnvelope(mag, env []float64) {
	for k := 0; k < v.bins; k++ {
		v.cepSpectrum[k] = complex(formantLog(math.Max(mag[k], magnitudeFloor)), 0)
	}

	half := v.fftSize / 2
	for k := 1; k < half; k++ {
		v.cepSpectrum[v.fftSize-k] = v.cepSpectrum[k]
	}

	_ = v.plan.Inverse(v.cepstrum, v.cepSpectrum)

	cutoff := v.lifterCutoff
	for n := cutoff; n <= v.fftSize-cutoff; n++ {
		v.cepstrum[n] = 0
	}

	_ = v.plan.Forward(v.cepSpectrum, v.cepstrum)

	for k := 0; k < v.bins; k++ {
		env[k] = formantExp(real(v.cepSpectrum[k]))
	}
}
