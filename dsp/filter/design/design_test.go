package design

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-eeg/dsp/filter/biquad"
)

const tol = 1e-9

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func mag(c biquad.Coefficients, f, sr float64) float64 {
	return math.Sqrt(c.MagnitudeSquared(f, sr))
}

func TestNotchShape(t *testing.T) {
	const sr = 256.0
	n := Notch(60, 6, sr)

	if got := mag(n, 60, sr); got > 1e-6 {
		t.Fatalf("|H(60 Hz)| = %v, want ~0", got)
	}
	if got := mag(n, 10, sr); !almostEqual(got, 1, 0.01) {
		t.Fatalf("|H(10 Hz)| = %v, want ~1", got)
	}
	if got := n.DCGain(); !almostEqual(got, 1, tol) {
		t.Fatalf("DC gain = %v, want 1", got)
	}
}

func TestNotchBandwidthEdges(t *testing.T) {
	const sr = 256.0
	n := NotchBandwidth(60, 10, sr)
	if !Valid(n) {
		t.Fatal("expected valid design")
	}

	for _, f := range []float64{55, 65} {
		if db := n.MagnitudeDB(f, sr); db > -1 {
			t.Fatalf("|H(%v Hz)| = %v dB, want attenuation inside the stop band", f, db)
		}
	}
	for _, f := range []float64{40, 80} {
		if db := n.MagnitudeDB(f, sr); db < -0.5 {
			t.Fatalf("|H(%v Hz)| = %v dB, want pass band", f, db)
		}
	}
}

func TestNotchInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		c    biquad.Coefficients
	}{
		{name: "zero sample rate", c: Notch(60, 6, 0)},
		{name: "above nyquist", c: Notch(200, 6, 256)},
		{name: "negative freq", c: Notch(-1, 6, 256)},
		{name: "zero bandwidth", c: NotchBandwidth(60, 0, 256)},
		{name: "nan bandwidth", c: NotchBandwidth(60, math.NaN(), 256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Valid(tt.c) {
				t.Fatalf("expected zero coefficients, got %+v", tt.c)
			}
		})
	}
}

func TestNotchDefaultQ(t *testing.T) {
	got := Notch(60, 0, 256)
	want := Notch(60, defaultQ, 256)
	if got != want {
		t.Fatalf("Notch with q=0 = %+v, want default-Q design %+v", got, want)
	}
}
