// Package bandpower estimates EEG band power from a single epoch using a
// windowed periodogram: taper, zero-pad to a power of two, FFT, one-sided
// power spectral density, then the mean density over each band's bins.
package bandpower

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/dsp/spectrum"
	"github.com/cwbudde/algo-eeg/dsp/window"
	"github.com/cwbudde/algo-eeg/eeg"
)

// Option configures an Estimator.
type Option func(*Estimator)

// WithWindow selects the taper. The default is Hamming.
func WithWindow(t window.Type) Option {
	return func(e *Estimator) {
		e.window = t
	}
}

// WithMinFFTSize sets a lower bound on the transform length. Longer
// transforms interpolate the spectrum of short epochs.
func WithMinFFTSize(n int) Option {
	return func(e *Estimator) {
		e.minFFT = n
	}
}

// Estimator computes band powers. Window coefficients and FFT plans are
// cached per epoch length, so an Estimator is not safe for concurrent use.
type Estimator struct {
	sampleRate float64
	window     window.Type
	minFFT     int

	epochLen int
	coeffs   []float64
	wpower   float64
	plan     *algofft.Plan[complex128]
	in       []complex128
	out      []complex128
}

// NewEstimator returns an Estimator for signals sampled at sampleRate. The
// rate must place every band below Nyquist.
func NewEstimator(sampleRate float64, opts ...Option) (*Estimator, error) {
	_, top := Beta.Range()
	if sampleRate <= 2*top {
		return nil, fmt.Errorf("%w: sample rate %f too low for %s band", eeg.ErrConfiguration, sampleRate, Beta)
	}
	e := &Estimator{
		sampleRate: sampleRate,
		window:     window.TypeHamming,
		minFFT:     2,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.minFFT < 2 {
		e.minFFT = 2
	}
	return e, nil
}

// SampleRate returns the configured sampling rate.
func (e *Estimator) SampleRate() float64 {
	return e.sampleRate
}

// FFTSize returns the transform length used for epochs of n samples.
func (e *Estimator) FFTSize(n int) int {
	return core.NextPowerOf2(max(n, e.minFFT))
}

// Compute returns the mean power spectral density of each band for epoch,
// in Band order. The epoch is not modified. An empty epoch yields
// eeg.ErrInsufficientData and a non-finite sample eeg.ErrInvalidInput.
func (e *Estimator) Compute(epoch []float64) (Powers, error) {
	var p Powers
	if len(epoch) == 0 {
		return p, fmt.Errorf("%w: empty epoch", eeg.ErrInsufficientData)
	}
	if i := core.FirstNonFinite(epoch); i >= 0 {
		return p, fmt.Errorf("%w: non-finite sample at %d", eeg.ErrInvalidInput, i)
	}
	if err := e.prepare(len(epoch)); err != nil {
		return p, err
	}

	for i := range e.in {
		e.in[i] = 0
	}
	for i, v := range epoch {
		e.in[i] = complex(v*e.coeffs[i], 0)
	}
	if err := e.plan.Forward(e.out, e.in); err != nil {
		return p, fmt.Errorf("bandpower: fft: %w", err)
	}

	psd, err := spectrum.OneSidedPSD(e.out, e.sampleRate, e.wpower)
	if err != nil {
		return p, fmt.Errorf("bandpower: %w", err)
	}

	fftSize := len(e.out)
	for _, b := range Bands() {
		lo, hi := b.Range()
		if mean, ok := spectrum.RangeMean(psd, fftSize, e.sampleRate, lo, hi); ok {
			p[b] = mean
		}
	}
	return p, nil
}

func (e *Estimator) prepare(n int) error {
	if n == e.epochLen && e.plan != nil {
		return nil
	}

	coeffs := window.Generate(e.window, n)
	wpower, err := window.PowerGain(coeffs)
	if err != nil {
		return fmt.Errorf("bandpower: %w", err)
	}

	fftSize := e.FFTSize(n)
	if e.plan == nil || len(e.in) != fftSize {
		plan, err := algofft.NewPlan64(fftSize)
		if err != nil {
			return fmt.Errorf("bandpower: fft plan %d: %w", fftSize, err)
		}
		e.plan = plan
		e.in = make([]complex128, fftSize)
		e.out = make([]complex128, fftSize)
	}

	e.epochLen = n
	e.coeffs = coeffs
	e.wpower = wpower
	return nil
}
