// Package spectrum provides FFT-adjacent spectrum-domain utilities.
//
// The package does not implement the FFT itself. It operates on complex bins
// produced by an FFT backend and turns them into power, one-sided density and
// per-range averages.
package spectrum
