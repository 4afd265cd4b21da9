// Package signal generates deterministic test and demo signals: pure tones,
// white noise, and EEG-like mixtures of rhythms riding on a DC offset.
package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-eeg/dsp/core"
)

// Generator creates deterministic signals from a shared configuration.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return &Generator{
		cfg:  core.ApplyProcessorOptions(opts...),
		seed: 1,
	}
}

// NewGeneratorWithOptions creates a configured signal generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := NewGenerator(coreOpts...)
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Seed returns the noise seed.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sine samples must be > 0: %d", samples)
	}
	if g.cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sine sample rate must be > 0: %f", g.cfg.SampleRate)
	}
	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

// Rhythm is one sinusoidal component of a mixture.
type Rhythm struct {
	FreqHz    float64
	Amplitude float64
	Phase     float64 // radians
}

// Mixture describes an EEG-like signal: a DC offset plus rhythms plus
// uniform white noise.
type Mixture struct {
	Offset   float64
	Rhythms  []Rhythm
	NoiseAmp float64
}

// Stream produces a Mixture one sample at a time with continuous phase.
type Stream struct {
	mix  Mixture
	rate float64
	rng  *rand.Rand
	n    int64
}

// NewStream returns an endless sample stream for mix. Streams created from
// generators with the same seed yield identical sequences.
func (g *Generator) NewStream(mix Mixture) (*Stream, error) {
	if g.cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("stream sample rate must be > 0: %f", g.cfg.SampleRate)
	}
	if mix.NoiseAmp < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", mix.NoiseAmp)
	}
	for _, r := range mix.Rhythms {
		if r.FreqHz < 0 || r.FreqHz >= g.cfg.SampleRate/2 {
			return nil, fmt.Errorf("rhythm frequency must be in [0, %f): %f", g.cfg.SampleRate/2, r.FreqHz)
		}
	}
	mix.Rhythms = append([]Rhythm(nil), mix.Rhythms...)
	return &Stream{
		mix:  mix,
		rate: g.cfg.SampleRate,
		rng:  rand.New(rand.NewSource(g.seed)),
	}, nil
}

// Next returns the next sample.
func (s *Stream) Next() float64 {
	t := float64(s.n) / s.rate
	s.n++

	v := s.mix.Offset
	for _, r := range s.mix.Rhythms {
		v += r.Amplitude * math.Sin(2*math.Pi*r.FreqHz*t+r.Phase)
	}
	if s.mix.NoiseAmp > 0 {
		v += (s.rng.Float64()*2 - 1) * s.mix.NoiseAmp
	}
	return v
}

// Index returns the number of samples produced so far.
func (s *Stream) Index() int64 {
	return s.n
}
