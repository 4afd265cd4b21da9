package buffer

import "github.com/cwbudde/algo-eeg/dsp/core"

// Ring is a fixed-capacity sliding window over a stream of float64 values.
// It is not safe for concurrent use.
type Ring struct {
	samples []float64
	head    int // next write position
	count   int // valid samples, <= len(samples)
}

// NewRing returns an empty Ring holding at most capacity values.
// A negative capacity is treated as zero.
func NewRing(capacity int) *Ring {
	if capacity < 0 {
		capacity = 0
	}
	return &Ring{samples: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value when the ring is full.
// A zero-capacity ring discards everything.
func (r *Ring) Push(v float64) {
	if len(r.samples) == 0 {
		return
	}
	r.samples[r.head] = v
	r.head++
	if r.head == len(r.samples) {
		r.head = 0
	}
	if r.count < len(r.samples) {
		r.count++
	}
}

// Len returns the number of valid values held.
func (r *Ring) Len() int {
	return r.count
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int {
	return len(r.samples)
}

// Full reports whether the ring has been filled at least once.
func (r *Ring) Full() bool {
	return r.count == len(r.samples)
}

// Samples returns a copy of the valid values, oldest first.
func (r *Ring) Samples() []float64 {
	return r.Last(r.count, nil)
}

// Padded returns a capacity-length copy, oldest first, with the slots that
// have never been written reported as leading zeros.
func (r *Ring) Padded() []float64 {
	out := make([]float64, len(r.samples))
	r.Last(r.count, out[len(out)-r.count:])
	return out
}

// Last copies the n most recent values, oldest first, into dst (reusing its
// capacity) and returns it. n is clamped to Len().
func (r *Ring) Last(n int, dst []float64) []float64 {
	if n > r.count {
		n = r.count
	}
	dst = core.EnsureLen(dst, n)
	if n <= 0 {
		return dst
	}

	start := r.head - n
	if start < 0 {
		start += len(r.samples)
	}
	first := copy(dst, r.samples[start:min(start+n, len(r.samples))])
	copy(dst[first:], r.samples[:n-first])
	return dst
}

// Reset drops all values without releasing storage.
func (r *Ring) Reset() {
	core.Zero(r.samples)
	r.head = 0
	r.count = 0
}
