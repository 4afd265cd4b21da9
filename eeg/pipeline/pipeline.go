// Package pipeline wires the band-power stages for one multi-channel stream:
// per-channel notch-filtered buffers, epoch extraction, band power
// estimation, history smoothing and protocol evaluation.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/dsp/filter/notch"
	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/channel"
	"github.com/cwbudde/algo-eeg/eeg/history"
	"github.com/cwbudde/algo-eeg/eeg/protocol"
	"github.com/cwbudde/algo-eeg/measure/bandpower"
)

// Option configures a Calculator.
type Option func(*options)

type options struct {
	layout       eeg.Layout
	padded       bool
	estimatorOps []bandpower.Option
}

// WithLayout overrides the default five-channel Muse layout.
func WithLayout(l eeg.Layout) Option {
	return func(o *options) { o.layout = l }
}

// WithPaddedEpochs computes bands from zero-padded epochs while the channel
// buffers are still filling, instead of skipping the cycle.
func WithPaddedEpochs(enabled bool) Option {
	return func(o *options) { o.padded = enabled }
}

// WithEstimatorOptions forwards options to the band power estimator.
func WithEstimatorOptions(opts ...bandpower.Option) Option {
	return func(o *options) { o.estimatorOps = append(o.estimatorOps, opts...) }
}

// Calculator owns all per-stream state. It is not safe for concurrent use;
// a single worker feeds samples and triggers computations.
type Calculator struct {
	cfg       eeg.Config
	layout    eeg.Layout
	padded    bool
	buffers   []*channel.Buffer
	latest    []bandpower.Powers
	estimator *bandpower.Estimator
	hist      *history.Buffer
	eval      *protocol.Evaluator
}

// NewCalculator validates cfg and allocates every buffer up front.
func NewCalculator(cfg eeg.Config, opts ...Option) (*Calculator, error) {
	o := options{layout: eeg.DefaultLayout()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := o.layout.Validate(); err != nil {
		return nil, err
	}

	var filter *notch.Filter
	if cfg.MainsHz > 0 {
		f, err := notch.New(cfg.SampleRate, cfg.MainsHz)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", eeg.ErrConfiguration, err)
		}
		filter = f
	}

	est, err := bandpower.NewEstimator(cfg.SampleRate, o.estimatorOps...)
	if err != nil {
		return nil, err
	}
	hist, err := history.New(o.layout.Channels, cfg.NumWindows())
	if err != nil {
		return nil, err
	}
	eval, err := protocol.NewEvaluator(o.layout, hist)
	if err != nil {
		return nil, err
	}

	c := &Calculator{
		cfg:       cfg,
		layout:    o.layout,
		padded:    o.padded,
		buffers:   make([]*channel.Buffer, o.layout.Len()),
		latest:    make([]bandpower.Powers, o.layout.Len()),
		estimator: est,
		hist:      hist,
		eval:      eval,
	}
	for i, name := range o.layout.Channels {
		b, err := channel.NewBuffer(name, cfg.BufferSamples(), filter)
		if err != nil {
			return nil, err
		}
		c.buffers[i] = b
	}
	return c, nil
}

// Config returns the timing configuration.
func (c *Calculator) Config() eeg.Config { return c.cfg }

// Layout returns the channel layout.
func (c *Calculator) Layout() eeg.Layout { return c.layout }

// Channel returns the buffer of the named channel.
func (c *Calculator) Channel(name string) (*channel.Buffer, error) {
	i, ok := c.layout.Index(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown channel %q", eeg.ErrInvalidArgument, name)
	}
	return c.buffers[i], nil
}

// AddSample appends one value per layout channel. A vector of the wrong
// length or with a non-finite value is rejected whole with
// eeg.ErrInvalidInput, leaving every buffer untouched.
func (c *Calculator) AddSample(values []float64) error {
	if len(values) != len(c.buffers) {
		return fmt.Errorf("%w: got %d values for %d channels", eeg.ErrInvalidInput, len(values), len(c.buffers))
	}
	if i := core.FirstNonFinite(values); i >= 0 {
		return fmt.Errorf("%w: channel %s: non-finite sample %v", eeg.ErrInvalidInput, c.layout.Channels[i], values[i])
	}
	for i, b := range c.buffers {
		if err := b.Append(values[i]); err != nil {
			return err
		}
	}
	return nil
}

// ComputeBands extracts the latest epoch of every channel, estimates its
// band powers and pushes them into the history. A failing channel does not
// stop the others; their errors are joined. Callers typically ignore
// eeg.ErrInsufficientData while the buffers fill.
func (c *Calculator) ComputeBands() error {
	n := c.cfg.EpochSamples()
	var errs []error
	for i, b := range c.buffers {
		var (
			epoch []float64
			err   error
		)
		if c.padded {
			epoch, err = channel.ExtractPadded(b, n)
		} else {
			epoch, err = channel.Extract(b, n)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}

		p, err := c.estimator.Compute(epoch)
		if err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", b.Name(), err))
			continue
		}
		if err := c.hist.PushPowers(b.Name(), p); err != nil {
			errs = append(errs, err)
			continue
		}
		c.latest[i] = p
	}
	return errors.Join(errs...)
}

// Latest returns the most recent unsmoothed estimate of a channel.
func (c *Calculator) Latest(name string) (bandpower.Powers, error) {
	i, ok := c.layout.Index(name)
	if !ok {
		return bandpower.Powers{}, fmt.Errorf("%w: unknown channel %q", eeg.ErrInvalidArgument, name)
	}
	return c.latest[i], nil
}

// BandPower returns the smoothed power of band averaged over channels.
// See protocol.Evaluator.BandPower for the selection rules.
func (c *Calculator) BandPower(band bandpower.Band, channels []string, includeAux bool) (float64, error) {
	return c.eval.BandPower(band, channels, includeAux)
}

// BandPowers returns BandPower for every band, in Band order.
func (c *Calculator) BandPowers(channels []string, includeAux bool) (bandpower.Powers, error) {
	var p bandpower.Powers
	for _, b := range bandpower.Bands() {
		v, err := c.eval.BandPower(b, channels, includeAux)
		if err != nil {
			return bandpower.Powers{}, err
		}
		p[b] = v
	}
	return p, nil
}

// Protocol evaluates the named ratio protocol over channels.
func (c *Calculator) Protocol(name string, channels []string, includeAux bool) (float64, error) {
	return c.eval.Protocol(name, channels, includeAux)
}

// Score evaluates p over channels.
func (c *Calculator) Score(p protocol.Protocol, channels []string, includeAux bool) (float64, error) {
	return c.eval.Score(p, channels, includeAux)
}

// Reset clears every channel buffer and the band history.
func (c *Calculator) Reset() {
	for i, b := range c.buffers {
		b.Reset()
		c.latest[i] = bandpower.Powers{}
	}
	c.hist.Reset()
}
