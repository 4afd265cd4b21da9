// Package history keeps the most recent band power estimates per channel and
// band, and smooths them by averaging.
package history

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-eeg/dsp/buffer"
	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/measure/bandpower"
)

type bandRings [bandpower.NumBands]*buffer.Ring

// Buffer holds up to Depth estimates for every (channel, band) pair.
// It is not safe for concurrent use.
type Buffer struct {
	depth    int
	channels []string
	rings    map[string]*bandRings
}

// New returns an empty history for channels, each band keeping depth values.
func New(channels []string, depth int) (*Buffer, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w: history depth must be > 0: %d", eeg.ErrConfiguration, depth)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: history needs at least one channel", eeg.ErrConfiguration)
	}
	h := &Buffer{
		depth:    depth,
		channels: append([]string(nil), channels...),
		rings:    make(map[string]*bandRings, len(channels)),
	}
	for _, ch := range channels {
		if _, dup := h.rings[ch]; dup {
			return nil, fmt.Errorf("%w: duplicate channel %q", eeg.ErrConfiguration, ch)
		}
		var r bandRings
		for i := range r {
			r[i] = buffer.NewRing(depth)
		}
		h.rings[ch] = &r
	}
	return h, nil
}

// Depth returns the per-band capacity.
func (h *Buffer) Depth() int { return h.depth }

// Channels returns the channel names in construction order.
func (h *Buffer) Channels() []string {
	return append([]string(nil), h.channels...)
}

func (h *Buffer) ring(channel string, band bandpower.Band) (*buffer.Ring, error) {
	r, ok := h.rings[channel]
	if !ok {
		return nil, fmt.Errorf("%w: unknown channel %q", eeg.ErrInvalidArgument, channel)
	}
	if !band.Valid() {
		return nil, fmt.Errorf("%w: unknown band %v", eeg.ErrInvalidArgument, band)
	}
	return r[band], nil
}

// Push records one estimate, evicting the oldest when the ring is full.
func (h *Buffer) Push(channel string, band bandpower.Band, power float64) error {
	r, err := h.ring(channel, band)
	if err != nil {
		return err
	}
	if !core.IsFinite(power) {
		return fmt.Errorf("%w: %s/%s power %v", eeg.ErrInvalidInput, channel, band, power)
	}
	r.Push(power)
	return nil
}

// PushPowers records one estimate for every band of channel.
func (h *Buffer) PushPowers(channel string, p bandpower.Powers) error {
	for _, b := range bandpower.Bands() {
		if err := h.Push(channel, b, p[b]); err != nil {
			return err
		}
	}
	return nil
}

// Smoothed returns the mean of the held estimates, or 0 when none are held.
func (h *Buffer) Smoothed(channel string, band bandpower.Band) (float64, error) {
	r, err := h.ring(channel, band)
	if err != nil {
		return 0, err
	}
	if r.Len() == 0 {
		return 0, nil
	}
	return stat.Mean(r.Samples(), nil), nil
}

// Values returns the held estimates, oldest first.
func (h *Buffer) Values(channel string, band bandpower.Band) ([]float64, error) {
	r, err := h.ring(channel, band)
	if err != nil {
		return nil, err
	}
	return r.Samples(), nil
}

// Reset drops every held estimate.
func (h *Buffer) Reset() {
	for _, r := range h.rings {
		for _, ring := range r {
			ring.Reset()
		}
	}
}
