package stream

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eeg/internal/testutil"
)

type message struct {
	address string
	values  []float64
}

type recordSink struct {
	mu   sync.Mutex
	msgs []message
}

func (r *recordSink) Send(address string, values ...float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, message{address: address, values: append([]float64(nil), values...)})
	return nil
}

func (r *recordSink) count(address string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.address == address {
			n++
		}
	}
	return n
}

func (r *recordSink) last(address string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].address == address {
			return r.msgs[i].values
		}
	}
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// eegSamples returns n five-channel samples of a sine at freqHz, stamped
// i/256 seconds.
func eegSamples(n int, freqHz float64) []Sample {
	sine := testutil.DeterministicSine(freqHz, 256, 20, n)
	frames := testutil.Frames(sine, sine, sine, sine, sine)
	out := make([]Sample, n)
	for i, f := range frames {
		out[i] = Sample{Timestamp: float64(i) / 256, Values: f}
	}
	return out
}

// closedSource returns a ChanSource that yields samples then io.EOF.
func closedSource(samples []Sample) *ChanSource {
	ch := make(chan Sample, len(samples))
	for _, s := range samples {
		ch <- s
	}
	close(ch)
	return NewChanSource(ch)
}

func waitDone(t *testing.T, s *Streamer) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(10 * time.Second):
		require.FailNow(t, "streamer did not finish")
	}
}
