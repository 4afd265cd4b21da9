package stream

import "math"

// Throttle fires when a timestamp enters a new tenth of a second. At any
// input rate above 10 Hz it fires about ten times per second. The zero
// value starts in bucket 0.
type Throttle struct {
	bucket int
}

// Bucket returns the tenth-of-second bucket of ts in [0, 9].
func Bucket(ts float64) int {
	frac := ts - math.Floor(ts)
	b := int(math.Floor(frac*10 + 1e-9))
	if b > 9 {
		b = 0
	}
	return b
}

// Tick reports whether ts lies in a different bucket than the previous
// call, and records its bucket.
func (t *Throttle) Tick(ts float64) bool {
	b := Bucket(ts)
	if b == t.bucket {
		return false
	}
	t.bucket = b
	return true
}
