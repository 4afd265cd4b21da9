package design

import (
	"math"

	"github.com/cwbudde/algo-eeg/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

// Notch designs a notch biquad centered at freq (Hz).
func Notch(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := 1.0
	b1 := -2 * cw
	b2 := 1.0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// NotchBandwidth designs a notch at freq (Hz) whose -3 dB stop band is
// bandwidthHz wide.
func NotchBandwidth(freq, bandwidthHz, sampleRate float64) biquad.Coefficients {
	if bandwidthHz <= 0 || math.IsNaN(bandwidthHz) || math.IsInf(bandwidthHz, 0) {
		return biquad.Coefficients{}
	}
	return Notch(freq, freq/bandwidthHz, sampleRate)
}

// Valid reports whether c is a usable (non-zero) design result.
func Valid(c biquad.Coefficients) bool {
	return c != (biquad.Coefficients{})
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
