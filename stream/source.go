package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cwbudde/algo-eeg/eeg"
)

// ErrNoSample is returned by Source.Pull when nothing arrived within the
// wait.
var ErrNoSample = errors.New("stream: no sample available")

// Sample is one multi-value reading. Timestamp is in seconds on the
// source's clock.
type Sample struct {
	Timestamp float64
	Values    []float64
}

// Source delivers samples of a single modality.
//
// Pull blocks for at most wait. It returns ErrNoSample on timeout, io.EOF
// once the source is exhausted, and ctx.Err() when ctx is cancelled.
type Source interface {
	Pull(ctx context.Context, wait time.Duration) (Sample, error)
	Close() error
}

// Sized is implemented by sources that know their sample width up front.
// Connect rejects a sized source whose width does not match the modality.
type Sized interface {
	Width() int
}

// Resolver looks up the source of a modality.
type Resolver interface {
	Resolve(ctx context.Context, m Modality) (Source, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, m Modality) (Source, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, m Modality) (Source, error) {
	return f(ctx, m)
}

// StaticResolver serves fixed sources.
type StaticResolver map[Modality]Source

// Resolve returns the source registered for m.
func (r StaticResolver) Resolve(_ context.Context, m Modality) (Source, error) {
	if src, ok := r[m]; ok && src != nil {
		return src, nil
	}
	return nil, fmt.Errorf("%w: no %s stream", eeg.ErrSourceUnavailable, m)
}

// ChanSource reads samples from a channel. Closing the channel exhausts
// the source.
type ChanSource struct {
	ch <-chan Sample

	mu     sync.Mutex
	closed bool
}

// NewChanSource returns a Source backed by ch.
func NewChanSource(ch <-chan Sample) *ChanSource {
	return &ChanSource{ch: ch}
}

// Pull implements Source.
func (s *ChanSource) Pull(ctx context.Context, wait time.Duration) (Sample, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return Sample{}, io.EOF
	}

	// Drain ready samples before honouring a zero wait.
	select {
	case smp, ok := <-s.ch:
		if !ok {
			return Sample{}, io.EOF
		}
		return smp, nil
	default:
	}
	if wait <= 0 {
		return Sample{}, ErrNoSample
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case smp, ok := <-s.ch:
		if !ok {
			return Sample{}, io.EOF
		}
		return smp, nil
	case <-timer.C:
		return Sample{}, ErrNoSample
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	}
}

// Close makes further pulls return io.EOF. It does not close the channel,
// which belongs to the producer.
func (s *ChanSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// pacer releases sample n no earlier than start + n/rate.
type pacer struct {
	rate  float64
	start time.Time
	now   func() time.Time
}

func newPacer(rate float64) *pacer {
	return &pacer{rate: rate, now: time.Now}
}

// await blocks until sample n is due. It returns false if the sample is
// not due within wait.
func (p *pacer) await(ctx context.Context, n int64, wait time.Duration) (bool, error) {
	if p.start.IsZero() {
		p.start = p.now()
	}
	due := p.start.Add(time.Duration(float64(n) / p.rate * float64(time.Second)))
	d := due.Sub(p.now())
	if d <= 0 {
		return true, nil
	}
	ready := d <= wait
	if !ready {
		d = wait
	}
	if d <= 0 {
		return false, nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return ready, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
