package eeg

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-eeg/dsp/core"
)

// Defaults match a Muse headband streaming EEG at 256 Hz in a 60 Hz
// mains region.
const (
	DefaultSampleRate       = 256.0 // Hz
	DefaultRetentionSeconds = 5.0   // raw history per channel
	DefaultEpochSeconds     = 1.0   // analysis window length
	DefaultOverlapSeconds   = 0.8   // overlap between consecutive epochs
	DefaultMainsHz          = 60.0  // notch frequency; 0 disables filtering
)

// Config holds the timing parameters of the band-power pipeline.
type Config struct {
	SampleRate       float64 // Hz
	RetentionSeconds float64 // raw history per channel
	EpochSeconds     float64 // analysis window length
	OverlapSeconds   float64 // overlap between consecutive epochs
	MainsHz          float64 // notch centre; 0 disables the notch
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the Muse defaults: 256 Hz, 5 s retention, 1 s epochs
// overlapping by 0.8 s, 60 Hz mains notch.
func DefaultConfig() Config {
	return Config{
		SampleRate:       DefaultSampleRate,
		RetentionSeconds: DefaultRetentionSeconds,
		EpochSeconds:     DefaultEpochSeconds,
		OverlapSeconds:   DefaultOverlapSeconds,
		MainsHz:          DefaultMainsHz,
	}
}

// WithSampleRate sets the sampling rate in Hz.
func WithSampleRate(hz float64) Option {
	return func(c *Config) { c.SampleRate = hz }
}

// WithRetention sets the per-channel raw history in seconds.
func WithRetention(seconds float64) Option {
	return func(c *Config) { c.RetentionSeconds = seconds }
}

// WithEpoch sets the epoch length in seconds.
func WithEpoch(seconds float64) Option {
	return func(c *Config) { c.EpochSeconds = seconds }
}

// WithOverlap sets the overlap between consecutive epochs in seconds.
func WithOverlap(seconds float64) Option {
	return func(c *Config) { c.OverlapSeconds = seconds }
}

// WithMainsFrequency sets the notch centre. Use 0 to store raw samples.
func WithMainsFrequency(hz float64) Option {
	return func(c *Config) { c.MainsHz = hz }
}

// NewConfig applies opts over DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports ErrConfiguration for out-of-range parameters, including a
// non-positive shift (overlap >= epoch).
func (c Config) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrConfiguration, c.SampleRate)
	}
	if !(c.EpochSeconds > 0) {
		return fmt.Errorf("%w: epoch must be > 0: %f", ErrConfiguration, c.EpochSeconds)
	}
	if c.RetentionSeconds < c.EpochSeconds {
		return fmt.Errorf("%w: retention %f shorter than epoch %f", ErrConfiguration, c.RetentionSeconds, c.EpochSeconds)
	}
	if c.OverlapSeconds < 0 {
		return fmt.Errorf("%w: overlap must be >= 0: %f", ErrConfiguration, c.OverlapSeconds)
	}
	if !(c.ShiftSeconds() > 0) {
		return fmt.Errorf("%w: shift (epoch - overlap) must be > 0: %f", ErrConfiguration, c.ShiftSeconds())
	}
	if c.MainsHz < 0 || c.MainsHz >= c.SampleRate/2 {
		return fmt.Errorf("%w: mains frequency must be in [0, %f): %f", ErrConfiguration, c.SampleRate/2, c.MainsHz)
	}
	if c.EpochSamples() < 1 {
		return fmt.Errorf("%w: epoch shorter than one sample", ErrConfiguration)
	}
	return nil
}

// ShiftSeconds returns epoch - overlap.
func (c Config) ShiftSeconds() float64 {
	return c.EpochSeconds - c.OverlapSeconds
}

// BufferSamples returns the per-channel ring capacity.
func (c Config) BufferSamples() int {
	return core.RoundToInt(c.SampleRate * c.RetentionSeconds)
}

// EpochSamples returns the epoch length in samples.
func (c Config) EpochSamples() int {
	return core.RoundToInt(c.SampleRate * c.EpochSeconds)
}

// NumWindows returns the band history depth,
// floor((retention - epoch) / shift) + 1.
func (c Config) NumWindows() int {
	shift := c.ShiftSeconds()
	if shift <= 0 {
		return 0
	}
	return int(math.Floor((c.RetentionSeconds-c.EpochSeconds)/shift+1e-9)) + 1
}
