package biquad

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Delay is the DF2T delay line [d0, d1] of one section.
type Delay [2]float64

// Step filters one sample through c starting from delay d and returns the
// output together with the advanced delay line. d is not modified.
func Step(c Coefficients, d Delay, x float64) (float64, Delay) {
	y := c.B0*x + d[0]
	return y, Delay{
		c.B1*x - c.A1*y + d[1],
		c.B2*x - c.A2*y,
	}
}

// DCGain returns H(z=1), the response to a constant input.
// A section whose denominator vanishes at DC reports 0.
func (c Coefficients) DCGain() float64 {
	den := 1 + c.A1 + c.A2
	if den == 0 {
		return 0
	}
	return (c.B0 + c.B1 + c.B2) / den
}

// SteadyState returns the delay line a section would hold after an infinitely
// long constant input x, so that the next output for x is exactly DCGain*x.
// Seeding a filter this way suppresses the start-up transient.
func (c Coefficients) SteadyState(x float64) Delay {
	y := c.DCGain() * x
	d1 := c.B2*x - c.A2*y
	return Delay{c.B1*x - c.A1*y + d1, d1}
}
