// Package design computes biquad coefficients for the narrowband filters
// used ahead of spectral analysis.
//
// Designs follow the RBJ Audio EQ Cookbook and return
// [biquad.Coefficients] normalized to a0 = 1. Invalid parameters yield the
// zero Coefficients value rather than an error; callers that need to detect
// bad input use [Valid].
package design
