package core

import "math"

const defaultEpsilon = 1e-12

// IsFinite reports whether x is neither NaN nor ±Inf.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FirstNonFinite returns the index of the first NaN or ±Inf in values,
// or -1 when every element is finite.
func FirstNonFinite(values []float64) int {
	for i, v := range values {
		if !IsFinite(v) {
			return i
		}
	}

	return -1
}

// NearlyEqual reports whether a and b are equal within eps.
// The comparison is relative once either operand exceeds 1 in magnitude.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// NextPowerOf2 returns the smallest power of two >= n. n <= 1 yields 1.
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

// RoundToInt rounds x half away from zero.
func RoundToInt(x float64) int {
	return int(math.Round(x))
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// Recursive filters fed with silence decay into this range.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}
