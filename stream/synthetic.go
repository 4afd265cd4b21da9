package stream

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/dsp/signal"
	"github.com/cwbudde/algo-eeg/eeg"
)

// SourceOption configures the generated and replayed sources.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	rate     float64
	realtime bool
	seed     int64
	mainsHz  float64
	chunk    int
}

func defaultSourceConfig() sourceConfig {
	return sourceConfig{
		realtime: true,
		seed:     1,
		mainsHz:  eeg.DefaultMainsHz,
		chunk:    256,
	}
}

// WithRate overrides the sampling rate.
func WithRate(hz float64) SourceOption {
	return func(c *sourceConfig) { c.rate = hz }
}

// WithRealtime paces samples at the sampling rate against the wall clock.
// Without pacing a source delivers samples as fast as they are pulled.
func WithRealtime(enabled bool) SourceOption {
	return func(c *sourceConfig) { c.realtime = enabled }
}

// WithSeed sets the noise seed of generated sources.
func WithSeed(seed int64) SourceOption {
	return func(c *sourceConfig) { c.seed = seed }
}

// WithMainsHum sets the hum frequency mixed into generated EEG; 0 omits it.
func WithMainsHum(hz float64) SourceOption {
	return func(c *sourceConfig) { c.mainsHz = hz }
}

// WithChunk sets how many samples per signal a replay source reads ahead.
func WithChunk(n int) SourceOption {
	return func(c *sourceConfig) { c.chunk = n }
}

// SyntheticSource generates an endless, deterministic headband-like stream
// for one modality.
type SyntheticSource struct {
	modality Modality
	rate     float64
	streams  []*signal.Stream
	pace     *pacer

	mu     sync.Mutex
	closed bool
}

// NewSyntheticSource returns a generator for m at its default rate.
func NewSyntheticSource(m Modality, opts ...SourceOption) (*SyntheticSource, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: unknown modality %v", eeg.ErrInvalidArgument, m)
	}
	cfg := defaultSourceConfig()
	cfg.rate = m.DefaultRate()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.rate <= 0 {
		return nil, fmt.Errorf("%w: synthetic rate must be > 0: %f", eeg.ErrConfiguration, cfg.rate)
	}

	mixes := syntheticMixtures(m, cfg)
	s := &SyntheticSource{modality: m, rate: cfg.rate}
	for i, mix := range mixes {
		g := signal.NewGeneratorWithOptions(
			[]core.ProcessorOption{core.WithSampleRate(cfg.rate)},
			signal.WithSeed(cfg.seed+int64(i)),
		)
		st, err := g.NewStream(mix)
		if err != nil {
			return nil, fmt.Errorf("%w: %s channel %d: %w", eeg.ErrConfiguration, m, i, err)
		}
		s.streams = append(s.streams, st)
	}
	if cfg.realtime {
		s.pace = newPacer(cfg.rate)
	}
	return s, nil
}

// Modality returns the generated modality.
func (s *SyntheticSource) Modality() Modality { return s.modality }

// Width returns the number of values in each sample.
func (s *SyntheticSource) Width() int { return len(s.streams) }

// Pull implements Source. Timestamps count seconds from the first sample.
func (s *SyntheticSource) Pull(ctx context.Context, wait time.Duration) (Sample, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return Sample{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	n := s.streams[0].Index()
	if s.pace != nil {
		ready, err := s.pace.await(ctx, n, wait)
		if err != nil {
			return Sample{}, err
		}
		if !ready {
			return Sample{}, ErrNoSample
		}
	}

	values := make([]float64, len(s.streams))
	for i, st := range s.streams {
		values[i] = st.Next()
	}
	return Sample{Timestamp: float64(n) / s.rate, Values: values}, nil
}

// Close ends the stream.
func (s *SyntheticSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func syntheticMixtures(m Modality, cfg sourceConfig) []signal.Mixture {
	nyquist := cfg.rate / 2
	rhythm := func(hz, amp, phase float64) []signal.Rhythm {
		if hz >= nyquist {
			return nil
		}
		return []signal.Rhythm{{FreqHz: hz, Amplitude: amp, Phase: phase}}
	}

	switch m {
	case EEG:
		out := make([]signal.Mixture, m.Size())
		for i := range out {
			phase := float64(i) * 0.7
			var rs []signal.Rhythm
			rs = append(rs, rhythm(2, 12, phase)...)
			rs = append(rs, rhythm(6, 8, phase)...)
			rs = append(rs, rhythm(10, 20+2*float64(i), phase)...)
			rs = append(rs, rhythm(20, 5, phase)...)
			if cfg.mainsHz > 0 {
				rs = append(rs, rhythm(cfg.mainsHz, 15, 0)...)
			}
			out[i] = signal.Mixture{Rhythms: rs, NoiseAmp: 4}
		}
		// The auxiliary electrode is mostly noise.
		out[len(out)-1] = signal.Mixture{NoiseAmp: 10}
		return out
	case Accelerometer:
		return []signal.Mixture{
			{Rhythms: rhythm(0.3, 0.02, 0), NoiseAmp: 0.005},
			{Rhythms: rhythm(0.2, 0.02, 1), NoiseAmp: 0.005},
			{Offset: 1, NoiseAmp: 0.005},
		}
	case PPG:
		out := make([]signal.Mixture, 3)
		for i := range out {
			out[i] = signal.Mixture{
				Offset:   1e5,
				Rhythms:  rhythm(1.2, 500, float64(i)*0.3),
				NoiseAmp: 50,
			}
		}
		return out
	default:
		return []signal.Mixture{{NoiseAmp: 0.5}, {NoiseAmp: 0.5}, {NoiseAmp: 0.5}}
	}
}
