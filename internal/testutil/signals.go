// Package testutil holds deterministic signals and tolerance assertions
// shared by the DSP and EEG package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Electrode simulates a raw electrode trace: a DC offset, one dominant
// rhythm, mains hum and a little noise.
func Electrode(offset, rhythmHz, rhythmAmp, mainsHz, mainsAmp, sampleRate float64, seed int64, length int) []float64 {
	out := DeterministicSine(rhythmHz, sampleRate, rhythmAmp, length)
	hum := DeterministicSine(mainsHz, sampleRate, mainsAmp, length)
	noise := DeterministicNoise(seed, rhythmAmp*0.05, length)
	for i := range out {
		out[i] += offset + hum[i] + noise[i]
	}
	return out
}

// Frames transposes per-channel traces into per-sample frames.
// All traces must have the same length.
func Frames(traces ...[]float64) [][]float64 {
	if len(traces) == 0 {
		return nil
	}
	out := make([][]float64, len(traces[0]))
	for i := range out {
		frame := make([]float64, len(traces))
		for c, tr := range traces {
			frame[c] = tr[i]
		}
		out[i] = frame
	}
	return out
}
