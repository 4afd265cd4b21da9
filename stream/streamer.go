// Package stream runs the real-time dispatch loop: it pulls samples from one
// source per modality, forwards them to a sink, keeps the per-modality
// history and periodically emits smoothed EEG band powers.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/channel"
	"github.com/cwbudde/algo-eeg/eeg/pipeline"
	"github.com/cwbudde/algo-eeg/eeg/protocol"
	"github.com/cwbudde/algo-eeg/internal/metrics"
	"github.com/cwbudde/algo-eeg/measure/bandpower"
)

// DefaultPullWait bounds each source pull, and with it how long Stop waits
// for an in-flight iteration.
const DefaultPullWait = 50 * time.Millisecond

var (
	// ErrNotConnected is returned by Start before any source is connected.
	ErrNotConnected = errors.New("stream: not connected")
	// ErrAlreadyStarted is returned by Start and Connect on a running streamer.
	ErrAlreadyStarted = errors.New("stream: already started")
	// ErrStopped is returned by Start after Stop; a streamer is not restartable.
	ErrStopped = errors.New("stream: stopped")
)

// State is the streamer lifecycle state.
type State int

const (
	Idle    State = iota // created, sources may be connected
	Running              // worker goroutine active
	Stopped              // worker joined, sources closed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats is a snapshot of the worker's counters.
type Stats struct {
	Samples      [NumModalities]uint64 // accepted samples
	Dropped      [NumModalities]uint64 // invalid samples
	SourceErrors [NumModalities]uint64 // failed pulls other than timeouts
	Buffered     [NumModalities]int    // samples held per channel
	SinkErrors   uint64
	Triggers     uint64 // throttle ticks
	Computations uint64 // ticks that emitted band powers
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithCalculator supplies the band calculator. By default one is built
// from eeg.DefaultConfig.
func WithCalculator(c *pipeline.Calculator) Option {
	return func(s *Streamer) { s.calc = c }
}

// WithoutBands forwards raw samples only.
func WithoutBands() Option {
	return func(s *Streamer) { s.bands = false }
}

// WithPullWait sets the bounded wait of each pull.
func WithPullWait(d time.Duration) Option {
	return func(s *Streamer) { s.wait = d }
}

// WithMetrics records counters and gauges into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Streamer) { s.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Streamer) { s.logger = l }
}

// WithProtocols additionally emits every protocol score per trigger.
func WithProtocols(enabled bool) Option {
	return func(s *Streamer) { s.protocols = enabled }
}

// WithAux includes the auxiliary channel in the emitted band powers.
func WithAux(enabled bool) Option {
	return func(s *Streamer) { s.includeAux = enabled }
}

// WithRetention sets the raw history of non-EEG modalities in seconds.
func WithRetention(seconds float64) Option {
	return func(s *Streamer) { s.retention = seconds }
}

// Streamer owns the dispatch worker. All buffer mutation happens on the
// worker goroutine; the exported methods are safe for concurrent use.
type Streamer struct {
	sink       Sink
	calc       *pipeline.Calculator
	bands      bool
	wait       time.Duration
	metrics    *metrics.Metrics
	logger     *log.Logger
	protocols  bool
	includeAux bool
	retention  float64

	eegChannels []string
	sources     [NumModalities]Source
	rates       [NumModalities]float64
	buffers     [NumModalities][]*channel.Buffer
	throttle    Throttle

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once

	statsMu sync.Mutex
	stats   Stats
}

// New returns an idle Streamer sending to sink.
func New(sink Sink, opts ...Option) (*Streamer, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", eeg.ErrConfiguration)
	}
	s := &Streamer{
		sink:      sink,
		bands:     true,
		wait:      DefaultPullWait,
		logger:    log.Default(),
		retention: eeg.DefaultRetentionSeconds,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.wait <= 0 {
		return nil, fmt.Errorf("%w: pull wait must be > 0: %v", eeg.ErrConfiguration, s.wait)
	}
	if s.retention <= 0 {
		return nil, fmt.Errorf("%w: retention must be > 0: %f", eeg.ErrConfiguration, s.retention)
	}
	if !s.bands {
		s.calc = nil
	} else if s.calc == nil {
		calc, err := pipeline.NewCalculator(eeg.DefaultConfig())
		if err != nil {
			return nil, err
		}
		s.calc = calc
	}

	s.eegChannels = EEG.Channels()
	if s.calc != nil {
		s.eegChannels = s.calc.Layout().Channels
	}
	return s, nil
}

// Calculator returns the band calculator, or nil without bands. Read it
// only while the streamer is not running.
func (s *Streamer) Calculator() *pipeline.Calculator {
	return s.calc
}

// Connect resolves a source for each requested modality. Missing sources
// are logged and skipped; Connect fails with eeg.ErrSourceUnavailable only
// when none could be resolved.
func (s *Streamer) Connect(ctx context.Context, r Resolver, ms ...Modality) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return fmt.Errorf("connect in state %s: %w", s.state, ErrAlreadyStarted)
	}

	var names []string
	for _, m := range ms {
		if !m.Valid() {
			return fmt.Errorf("%w: unknown modality %v", eeg.ErrInvalidArgument, m)
		}
		if s.sources[m] != nil {
			continue
		}
		src, err := r.Resolve(ctx, m)
		if err != nil || src == nil {
			s.logger.Printf("STREAM: can't find %s stream: %v", m, err)
			continue
		}
		if err := s.attach(m, src); err != nil {
			_ = src.Close()
			return err
		}
		names = append(names, m.String())
	}

	if len(names) == 0 && !s.connected() {
		return fmt.Errorf("%w: no stream available", eeg.ErrSourceUnavailable)
	}
	s.logger.Printf("STREAM: streams available: %s", strings.Join(names, ", "))
	return nil
}

func (s *Streamer) width(m Modality) int {
	if m == EEG {
		return len(s.eegChannels)
	}
	return m.Size()
}

func (s *Streamer) attach(m Modality, src Source) error {
	if sz, ok := src.(Sized); ok && sz.Width() != s.width(m) {
		return fmt.Errorf("%w: %s source yields %d values per sample, want %d",
			eeg.ErrConfiguration, m, sz.Width(), s.width(m))
	}
	s.sources[m] = src
	s.rates[m] = m.DefaultRate()
	if m == EEG && s.calc != nil {
		return nil
	}

	names := m.Channels()
	if m == EEG {
		names = s.eegChannels
	}
	capacity := core.RoundToInt(s.rates[m] * s.retention)
	bufs := make([]*channel.Buffer, len(names))
	for i, name := range names {
		b, err := channel.NewBuffer(name, capacity, nil)
		if err != nil {
			return err
		}
		bufs[i] = b
	}
	s.buffers[m] = bufs
	return nil
}

func (s *Streamer) connected() bool {
	for _, src := range s.sources {
		if src != nil {
			return true
		}
	}
	return false
}

// State returns the lifecycle state.
func (s *Streamer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the worker has exited, either after Stop, after ctx
// cancellation, or because every source is exhausted.
func (s *Streamer) Done() <-chan struct{} {
	return s.done
}

// Stats returns the latest counters published by the worker.
func (s *Streamer) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Start launches the worker and returns immediately.
func (s *Streamer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Running:
		return ErrAlreadyStarted
	case Stopped:
		return ErrStopped
	}
	if !s.connected() {
		return ErrNotConnected
	}

	wctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = Running
	s.wg.Add(1)
	go s.run(wctx)
	s.logger.Printf("STREAM: started (pull wait %v)", s.wait)
	return nil
}

// Stop cancels the worker, waits for it to exit and closes every source.
// After Stop returns no buffer is mutated. Stopping an idle streamer moves
// it straight to Stopped; stopping twice is a no-op.
func (s *Streamer) Stop() error {
	s.mu.Lock()
	prev := s.state
	if prev == Stopped {
		s.mu.Unlock()
		return nil
	}
	s.state = Stopped
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.doneOnce.Do(func() { close(s.done) })

	var errs []error
	for m, src := range s.sources {
		if src == nil {
			continue
		}
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", Modality(m), err))
		}
	}
	if prev == Running {
		s.logger.Printf("STREAM: stopped")
	}
	return errors.Join(errs...)
}

func (s *Streamer) run(ctx context.Context) {
	defer s.wg.Done()
	defer s.doneOnce.Do(func() { close(s.done) })

	var st Stats
	var retired [NumModalities]bool
	defer s.publish(&st)
	for {
		active := false
		idle := true
		for _, m := range Modalities() {
			src := s.sources[m]
			if src == nil || retired[m] {
				continue
			}
			active = true
			if ctx.Err() != nil {
				return
			}

			smp, err := src.Pull(ctx, s.wait)
			switch {
			case err == nil:
				idle = false
				s.handle(m, smp, &st)
			case errors.Is(err, ErrNoSample):
				idle = false
			case errors.Is(err, io.EOF):
				retired[m] = true
				s.logger.Printf("STREAM: %s stream ended", m)
			case ctx.Err() != nil:
				return
			default:
				st.SourceErrors[m]++
				s.metrics.RecordSourceError(m.String())
				if st.SourceErrors[m]%1000 == 1 {
					s.logger.Printf("STREAM: %s pull failed: %v", m, err)
				}
			}
		}
		s.publish(&st)

		if !active {
			s.logger.Printf("STREAM: all streams ended")
			return
		}
		if idle {
			// Every source failed fast; back off instead of spinning.
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.wait):
			}
		}
	}
}

func (s *Streamer) handle(m Modality, smp Sample, st *Stats) {
	values := smp.Values
	if err := validate(values, s.width(m)); err != nil {
		s.drop(m, err, st)
		return
	}

	s.send(m.Address(), st, values...)
	if m == EEG {
		for i, ch := range s.eegChannels {
			s.send(ChannelAddress(ch), st, values[i])
		}
	}

	if m == EEG && s.calc != nil {
		if err := s.calc.AddSample(values); err != nil {
			s.drop(m, err, st)
			return
		}
		st.Samples[m]++
		s.metrics.RecordSample(m.String())
		if b, err := s.calc.Channel(s.eegChannels[0]); err == nil {
			st.Buffered[m] = b.Len()
		}
		if s.throttle.Tick(smp.Timestamp) {
			st.Triggers++
			s.emitBands(st)
		}
		return
	}

	for i, b := range s.buffers[m] {
		// Values are validated above, so Append cannot fail.
		_ = b.Append(values[i])
	}
	st.Samples[m]++
	s.metrics.RecordSample(m.String())
	if len(s.buffers[m]) > 0 {
		st.Buffered[m] = s.buffers[m][0].Len()
	}
}

func (s *Streamer) emitBands(st *Stats) {
	if err := s.calc.ComputeBands(); err != nil {
		if errors.Is(err, eeg.ErrInsufficientData) {
			return
		}
		s.logger.Printf("STREAM: band computation: %v", err)
	}

	powers, err := s.calc.BandPowers(nil, s.includeAux)
	if err != nil {
		s.logger.Printf("STREAM: band aggregation: %v", err)
		return
	}
	for _, b := range bandpower.Bands() {
		s.send(BandAddress(b.String()), st, powers[b])
		s.metrics.SetBandPower(b.String(), powers[b])
	}
	st.Computations++
	s.metrics.RecordComputation()

	if !s.protocols {
		return
	}
	for _, p := range protocol.Protocols() {
		v, err := s.calc.Score(p, nil, s.includeAux)
		if err != nil {
			s.logger.Printf("STREAM: protocol %s: %v", p, err)
			continue
		}
		s.send(ProtocolAddress(p.String()), st, v)
		s.metrics.SetProtocolScore(p.String(), v)
	}
}

func (s *Streamer) send(address string, st *Stats, values ...float64) {
	if err := s.sink.Send(address, values...); err != nil {
		st.SinkErrors++
		s.metrics.RecordSinkError(address)
		if st.SinkErrors%1000 == 1 {
			s.logger.Printf("STREAM: send %s: %v", address, err)
		}
	}
}

func (s *Streamer) drop(m Modality, err error, st *Stats) {
	st.Dropped[m]++
	s.metrics.RecordDropped(m.String())
	if st.Dropped[m]%1000 == 1 {
		s.logger.Printf("STREAM: dropping %s sample: %v", m, err)
	}
}

func (s *Streamer) publish(st *Stats) {
	s.statsMu.Lock()
	s.stats = *st
	s.statsMu.Unlock()
}

func validate(values []float64, want int) error {
	if len(values) != want {
		return fmt.Errorf("%w: got %d values, want %d", eeg.ErrInvalidInput, len(values), want)
	}
	if i := core.FirstNonFinite(values); i >= 0 {
		return fmt.Errorf("%w: non-finite value %v at %d", eeg.ErrInvalidInput, values[i], i)
	}
	return nil
}
