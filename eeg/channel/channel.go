// Package channel stores the recent history of one EEG channel. Samples are
// notch-filtered on the way in, so every stored value is already free of
// mains hum, and fixed-length epochs can be read back for spectral analysis.
package channel

import (
	"fmt"

	"github.com/cwbudde/algo-eeg/dsp/buffer"
	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/dsp/filter/notch"
	"github.com/cwbudde/algo-eeg/eeg"
)

// Buffer is a fixed-capacity ring of filtered samples for one channel. It
// owns the notch filter state; the filter itself may be shared between
// buffers. A Buffer is not safe for concurrent use.
type Buffer struct {
	name   string
	ring   *buffer.Ring
	filter *notch.Filter
	state  notch.State
}

// NewBuffer returns an empty buffer of the given capacity. A nil filter
// stores raw values.
func NewBuffer(name string, capacity int, filter *notch.Filter) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: channel %q capacity must be > 0: %d", eeg.ErrConfiguration, name, capacity)
	}
	return &Buffer{
		name:   name,
		ring:   buffer.NewRing(capacity),
		filter: filter,
	}, nil
}

// Name returns the channel name.
func (b *Buffer) Name() string { return b.name }

// Len returns the number of valid samples, capped at Cap.
func (b *Buffer) Len() int { return b.ring.Len() }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return b.ring.Cap() }

// Filtered reports whether appended samples pass through a notch filter.
func (b *Buffer) Filtered() bool { return b.filter != nil }

// State returns the current notch filter state.
func (b *Buffer) State() notch.State { return b.state }

// Append filters v with the current state, replaces the state and stores the
// result, evicting the oldest sample when full. Non-finite values are
// rejected with eeg.ErrInvalidInput and leave the buffer untouched.
func (b *Buffer) Append(v float64) error {
	if !core.IsFinite(v) {
		return fmt.Errorf("%w: channel %s: non-finite sample %v", eeg.ErrInvalidInput, b.name, v)
	}
	if b.filter != nil {
		v, b.state = b.filter.Apply(v, b.state)
	}
	b.ring.Push(v)
	return nil
}

// Samples returns the valid samples, oldest first.
func (b *Buffer) Samples() []float64 {
	return b.ring.Samples()
}

// Padded returns a capacity-length view, oldest first, zero-filled at the
// start until the buffer has been filled once.
func (b *Buffer) Padded() []float64 {
	return b.ring.Padded()
}

// Reset clears the samples and the filter state.
func (b *Buffer) Reset() {
	b.ring.Reset()
	b.state = notch.State{}
}

// Extract returns the last n samples, oldest first. It fails with
// eeg.ErrInsufficientData while fewer than n samples have been appended.
func Extract(b *Buffer, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: epoch length must be > 0: %d", eeg.ErrInvalidArgument, n)
	}
	if n > b.Len() {
		return nil, fmt.Errorf("%w: channel %s holds %d of %d samples", eeg.ErrInsufficientData, b.name, b.Len(), n)
	}
	return b.ring.Last(n, nil), nil
}

// ExtractPadded returns the last n samples of the zero-padded view, so it
// succeeds before the buffer holds n samples.
func ExtractPadded(b *Buffer, n int) ([]float64, error) {
	if n <= 0 || n > b.Cap() {
		return nil, fmt.Errorf("%w: epoch length must be in [1, %d]: %d", eeg.ErrInvalidArgument, b.Cap(), n)
	}
	out := make([]float64, n)
	valid := min(n, b.Len())
	b.ring.Last(valid, out[n-valid:])
	return out, nil
}
