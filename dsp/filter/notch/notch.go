// Package notch implements the fixed mains-hum rejection filter applied to
// EEG samples as they arrive.
//
// The filter is a cascade of [Sections] identical RBJ notch biquads. Its
// recursive memory is an explicit [State] value: [Filter.Apply] takes the
// previous state and returns the next one, so the owner decides where state
// lives and no hidden mutation happens inside the filter.
package notch

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/dsp/filter/biquad"
	"github.com/cwbudde/algo-eeg/dsp/filter/design"
)

// Sections is the number of cascaded biquads.
const Sections = 2

// DefaultBandwidthHz is the -3 dB stop-band width of each section.
const DefaultBandwidthHz = 10.0

// ErrInvalidParams reports a notch that cannot be realized at the given
// sample rate.
var ErrInvalidParams = errors.New("notch: invalid parameters")

// State is the filter memory carried between calls. The zero value is
// uninitialized; the first Apply seeds it from the first sample.
type State struct {
	ready bool
	delay [Sections]biquad.Delay
}

// Initialized reports whether the state has been seeded.
func (s State) Initialized() bool {
	return s.ready
}

// Filter holds the immutable coefficients of the cascade.
// A Filter is safe for concurrent use; States are not shared.
type Filter struct {
	sections   [Sections]biquad.Coefficients
	freq       float64
	sampleRate float64
}

// New designs a notch at freqHz (typically 50 or 60 Hz mains) for the
// given sample rate.
func New(sampleRate, freqHz float64) (*Filter, error) {
	c := design.NotchBandwidth(freqHz, DefaultBandwidthHz, sampleRate)
	if !design.Valid(c) {
		return nil, fmt.Errorf("%w: %.2f Hz at %.2f Hz sample rate", ErrInvalidParams, freqHz, sampleRate)
	}

	f := &Filter{freq: freqHz, sampleRate: sampleRate}
	for i := range f.sections {
		f.sections[i] = c
	}
	return f, nil
}

// Frequency returns the notch centre in Hz.
func (f *Filter) Frequency() float64 { return f.freq }

// SampleRate returns the design sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Coefficients returns a copy of the section coefficients.
func (f *Filter) Coefficients() []biquad.Coefficients {
	return append([]biquad.Coefficients(nil), f.sections[:]...)
}

// Prime returns the state the cascade would hold after a constant input x,
// matching the steady-state initial conditions of a linear filter.
func (f *Filter) Prime(x float64) State {
	s := State{ready: true}
	in := x
	for i, c := range f.sections {
		s.delay[i] = c.SteadyState(in)
		in *= c.DCGain()
	}
	return s
}

// Apply filters one sample. An uninitialized s is primed with x first, so a
// stream starting at a large DC offset does not ring.
func (f *Filter) Apply(x float64, s State) (float64, State) {
	if !s.ready {
		s = f.Prime(x)
	}

	y := x
	for i, c := range f.sections {
		var d biquad.Delay
		y, d = biquad.Step(c, s.delay[i], y)
		s.delay[i] = biquad.Delay{core.FlushDenormals(d[0]), core.FlushDenormals(d[1])}
	}
	return y, s
}

// ApplyBlock filters samples into a new slice and returns the final state.
func (f *Filter) ApplyBlock(samples []float64, s State) ([]float64, State) {
	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i], s = f.Apply(x, s)
	}
	return out, s
}

// MagnitudeDB returns the cascade response at freqHz.
func (f *Filter) MagnitudeDB(freqHz float64) float64 {
	return biquad.CascadeMagnitudeDB(f.sections[:], freqHz, f.sampleRate)
}
