package spectrum

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Power returns |X[k]|^2 for each complex spectrum bin.
//
// Scratch buffers are pooled internally, so in steady state this allocates
// only the output slice.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(out, re, im)
	putScratch(buf)
	return out
}

// OneSidedPSD converts the full FFT of a real, windowed signal into a
// one-sided power spectral density over bins [0, fftSize/2].
//
// windowPower is sum(w[n]^2) of the taper applied before the FFT. Interior
// bins are doubled to fold in the negative frequencies; DC and Nyquist are
// not. The result is in units^2/Hz.
func OneSidedPSD(bins []complex128, sampleRate, windowPower float64) ([]float64, error) {
	n := len(bins)
	if n < 2 {
		return nil, fmt.Errorf("psd requires at least 2 bins: %d", n)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("psd sampleRate must be > 0: %f", sampleRate)
	}
	if windowPower <= 0 || math.IsNaN(windowPower) || math.IsInf(windowPower, 0) {
		return nil, fmt.Errorf("psd window power must be > 0: %f", windowPower)
	}

	half := n/2 + 1
	psd := Power(bins[:half])
	floats.Scale(1/(sampleRate*windowPower), psd)
	for k := 1; k < half; k++ {
		if n%2 == 0 && k == n/2 {
			continue
		}
		psd[k] *= 2
	}
	return psd, nil
}

// BinFrequency returns the centre frequency in Hz of bin i for an FFT of
// fftSize points.
func BinFrequency(i, fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 {
		return 0
	}
	return float64(i) * sampleRate / float64(fftSize)
}

// RangeMean returns the arithmetic mean of one-sided bins whose centre
// frequency lies in [lowHz, highHz). ok is false when no bin falls inside
// the range.
func RangeMean(psd []float64, fftSize int, sampleRate, lowHz, highHz float64) (mean float64, ok bool) {
	lo, hi := RangeBins(len(psd), fftSize, sampleRate, lowHz, highHz)
	if lo >= hi {
		return 0, false
	}
	return floats.Sum(psd[lo:hi]) / float64(hi-lo), true
}

// RangeBins returns the half-open bin index interval [lo, hi) covering
// [lowHz, highHz), clamped to binCount.
func RangeBins(binCount, fftSize int, sampleRate, lowHz, highHz float64) (lo, hi int) {
	if fftSize <= 0 || sampleRate <= 0 || binCount <= 0 {
		return 0, 0
	}
	df := sampleRate / float64(fftSize)
	lo = int(math.Ceil(lowHz/df - 1e-9))
	hi = int(math.Ceil(highHz/df - 1e-9))
	lo = max(lo, 0)
	hi = min(hi, binCount)
	return lo, hi
}
