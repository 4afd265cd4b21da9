package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OpenPSG/edf"

	"github.com/cwbudde/algo-eeg/eeg"
)

// EDFSource replays signals of an EDF recording as one modality. Each
// pulled sample holds one value per selected signal; all selected signals
// must be recorded at the given sampling rate.
type EDFSource struct {
	closer  io.Closer
	readers []*edf.SignalReader
	rate    float64
	pace    *pacer

	chunk [][]float64
	pos   int
	fill  int
	next  int64
	eof   bool

	mu     sync.Mutex
	closed bool
}

// OpenEDF opens the recording at path. The file is closed by Close.
func OpenEDF(path string, signals []int, sampleRate float64, opts ...SourceOption) (*EDFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", eeg.ErrSourceUnavailable, err)
	}
	s, err := NewEDFSource(f, signals, sampleRate, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// NewEDFSource replays the given signal indices of the recording in r.
func NewEDFSource(r io.ReadSeeker, signals []int, sampleRate float64, opts ...SourceOption) (*EDFSource, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: no EDF signals selected", eeg.ErrConfiguration)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: EDF sample rate must be > 0: %f", eeg.ErrConfiguration, sampleRate)
	}
	cfg := defaultSourceConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.chunk <= 0 {
		return nil, fmt.Errorf("%w: EDF chunk must be > 0: %d", eeg.ErrConfiguration, cfg.chunk)
	}

	if err := checkRecordLayout(r, signals, sampleRate); err != nil {
		return nil, err
	}

	er, err := edf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", eeg.ErrSourceUnavailable, err)
	}
	s := &EDFSource{
		rate:  sampleRate,
		chunk: make([][]float64, len(signals)),
	}
	for i, idx := range signals {
		sr, err := er.Signal(idx)
		if err != nil {
			return nil, fmt.Errorf("%w: EDF signal %d: %w", eeg.ErrConfiguration, idx, err)
		}
		s.readers = append(s.readers, sr)
		s.chunk[i] = make([]float64, cfg.chunk)
	}
	if cfg.realtime {
		s.pace = newPacer(sampleRate)
	}
	return s, nil
}

// Width returns the number of values in each sample.
func (s *EDFSource) Width() int {
	return len(s.readers)
}

// Pull implements Source. Timestamps are seconds from the start of the
// recording.
func (s *EDFSource) Pull(ctx context.Context, wait time.Duration) (Sample, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return Sample{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	if s.pos >= s.fill {
		if err := s.readChunk(); err != nil {
			return Sample{}, err
		}
	}
	if s.pace != nil {
		ready, err := s.pace.await(ctx, s.next, wait)
		if err != nil {
			return Sample{}, err
		}
		if !ready {
			return Sample{}, ErrNoSample
		}
	}

	values := make([]float64, len(s.chunk))
	for i := range s.chunk {
		values[i] = s.chunk[i][s.pos]
	}
	ts := float64(s.next) / s.rate
	s.pos++
	s.next++
	return Sample{Timestamp: ts, Values: values}, nil
}

// readChunk refills the read-ahead buffers. Signals ending at different
// lengths are truncated to the shortest.
func (s *EDFSource) readChunk() error {
	if s.eof {
		return io.EOF
	}
	fill := -1
	for i, sr := range s.readers {
		n, err := sr.Read(s.chunk[i])
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("edf: signal %d: %w", i, err)
		}
		if errors.Is(err, io.EOF) {
			s.eof = true
		}
		if fill < 0 || n < fill {
			fill = n
		}
	}
	s.pos, s.fill = 0, fill
	if fill <= 0 {
		s.eof = true
		return io.EOF
	}
	return nil
}

// Close ends the replay and closes the file opened by OpenEDF.
func (s *EDFSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// EDF header layout: a 256 byte fixed part followed by 256 bytes per
// signal, stored field by field. Samples per record is the ninth field.
const (
	edfFixedHeader      = 256
	edfSignalHeader     = 256
	edfSamplesPerRecord = 16 + 80 + 8 + 8 + 8 + 8 + 8 + 80
)

// checkRecordLayout verifies that every selected signal carries the same
// number of samples per data record and that this matches sampleRate. The
// edf reader keeps its header private, so the fixed-width fields are read
// here and r is rewound afterwards.
func checkRecordLayout(r io.ReadSeeker, signals []int, sampleRate float64) error {
	fixed := make([]byte, edfFixedHeader)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return fmt.Errorf("%w: edf header: %w", eeg.ErrSourceUnavailable, err)
	}
	ns, err := strconv.Atoi(strings.TrimSpace(string(fixed[252:256])))
	if err != nil || ns <= 0 {
		return fmt.Errorf("%w: edf header: bad signal count %q", eeg.ErrSourceUnavailable, fixed[252:256])
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(fixed[244:252])), 64)
	if err != nil {
		return fmt.Errorf("%w: edf header: bad record duration %q", eeg.ErrSourceUnavailable, fixed[244:252])
	}

	block := make([]byte, ns*edfSignalHeader)
	if _, err := io.ReadFull(r, block); err != nil {
		return fmt.Errorf("%w: edf signal headers: %w", eeg.ErrSourceUnavailable, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", eeg.ErrSourceUnavailable, err)
	}

	spr := -1
	for _, idx := range signals {
		if idx < 0 || idx >= ns {
			return fmt.Errorf("%w: EDF signal %d out of range [0,%d)", eeg.ErrConfiguration, idx, ns)
		}
		off := ns*edfSamplesPerRecord + idx*8
		n, err := strconv.Atoi(strings.TrimSpace(string(block[off : off+8])))
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: edf signal %d: bad samples per record", eeg.ErrSourceUnavailable, idx)
		}
		if spr >= 0 && n != spr {
			return fmt.Errorf("%w: EDF signals have mixed rates (%d and %d samples per record)",
				eeg.ErrConfiguration, spr, n)
		}
		spr = n
	}

	if duration > 0 {
		recorded := float64(spr) / duration
		if math.Abs(recorded-sampleRate) > 1e-6*sampleRate {
			return fmt.Errorf("%w: EDF signals are recorded at %g Hz, not %g Hz",
				eeg.ErrConfiguration, recorded, sampleRate)
		}
	}
	return nil
}
