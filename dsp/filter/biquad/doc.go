// Package biquad provides second-order IIR filter primitives.
//
// [Coefficients] describe one section in Direct Form II Transposed. [Step]
// advances a section by one sample with the delay line passed in and returned
// by value, so recursive state can be carried explicitly between calls.
//
// Coefficient design lives in dsp/filter/design.
package biquad
