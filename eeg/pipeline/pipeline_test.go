package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/internal/testutil"
	"github.com/cwbudde/algo-eeg/measure/bandpower"
)

func newCalculator(t *testing.T, opts ...Option) *Calculator {
	t.Helper()
	c, err := NewCalculator(eeg.DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	return c
}

func feed(t *testing.T, c *Calculator, frames [][]float64) {
	t.Helper()
	for i, f := range frames {
		if err := c.AddSample(f); err != nil {
			t.Fatalf("AddSample(%d) error = %v", i, err)
		}
	}
}

func TestAlphaSineEndToEnd(t *testing.T) {
	c := newCalculator(t)
	sine := testutil.DeterministicSine(10, eeg.DefaultSampleRate, 20, 1280)
	feed(t, c, testutil.Frames(sine, sine, sine, sine, sine))

	if err := c.ComputeBands(); err != nil {
		t.Fatalf("ComputeBands() error = %v", err)
	}
	alpha, err := c.BandPower(bandpower.Alpha, nil, false)
	if err != nil {
		t.Fatalf("BandPower(alpha) error = %v", err)
	}
	delta, err := c.BandPower(bandpower.Delta, nil, false)
	if err != nil {
		t.Fatalf("BandPower(delta) error = %v", err)
	}
	if !(alpha > delta) {
		t.Fatalf("alpha %v not above delta %v", alpha, delta)
	}

	score, err := c.Protocol("alpha", nil, false)
	if err != nil {
		t.Fatalf("Protocol() error = %v", err)
	}
	if !(score > 1) {
		t.Fatalf("alpha protocol = %v, want > 1", score)
	}
}

func TestNotchRemovesMains(t *testing.T) {
	c := newCalculator(t)
	alphaOnly := newCalculator(t)

	clean := testutil.DeterministicSine(10, eeg.DefaultSampleRate, 20, 1280)
	hum := testutil.DeterministicSine(60, eeg.DefaultSampleRate, 50, 1280)
	noisy := make([]float64, len(clean))
	for i := range clean {
		noisy[i] = clean[i] + hum[i]
	}
	feed(t, c, testutil.Frames(noisy, noisy, noisy, noisy, noisy))
	feed(t, alphaOnly, testutil.Frames(clean, clean, clean, clean, clean))

	buf, err := c.Channel(eeg.TP9)
	if err != nil {
		t.Fatalf("Channel() error = %v", err)
	}
	ref, _ := alphaOnly.Channel(eeg.TP9)
	got, want := buf.Samples(), ref.Samples()

	// Compare the settled second half; the hum must be mostly gone.
	worst, err := testutil.MaxAbsDiff(got[640:], want[640:])
	if err != nil {
		t.Fatalf("MaxAbsDiff() error = %v", err)
	}
	if worst > 5 {
		t.Fatalf("residual hum %v, want < 5 (hum amplitude 50)", worst)
	}
}

func TestComputeBandsInsufficientData(t *testing.T) {
	c := newCalculator(t)
	feed(t, c, testutil.Frames(
		testutil.DC(1, 100), testutil.DC(1, 100), testutil.DC(1, 100), testutil.DC(1, 100), testutil.DC(1, 100),
	))
	err := c.ComputeBands()
	if !errors.Is(err, eeg.ErrInsufficientData) {
		t.Fatalf("ComputeBands() error = %v, want ErrInsufficientData", err)
	}
	if v, _ := c.BandPower(bandpower.Delta, nil, true); v != 0 {
		t.Fatalf("BandPower after skipped cycle = %v, want 0", v)
	}
}

func TestComputeBandsPadded(t *testing.T) {
	c := newCalculator(t, WithPaddedEpochs(true))
	feed(t, c, testutil.Frames(
		testutil.DC(1, 100), testutil.DC(1, 100), testutil.DC(1, 100), testutil.DC(1, 100), testutil.DC(1, 100),
	))
	if err := c.ComputeBands(); err != nil {
		t.Fatalf("ComputeBands() error = %v", err)
	}
	p, err := c.Latest(eeg.AF8)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if !(p[bandpower.Delta] > 0) {
		t.Fatalf("padded delta = %v, want > 0", p[bandpower.Delta])
	}
}

func TestAddSampleRejectsWholeVector(t *testing.T) {
	c := newCalculator(t)
	if err := c.AddSample([]float64{1, 2, 3}); !errors.Is(err, eeg.ErrInvalidInput) {
		t.Fatalf("short vector error = %v", err)
	}
	if err := c.AddSample([]float64{1, 2, math.NaN(), 4, 5}); !errors.Is(err, eeg.ErrInvalidInput) {
		t.Fatalf("NaN vector error = %v", err)
	}
	for _, name := range c.Layout().Channels {
		b, _ := c.Channel(name)
		if b.Len() != 0 {
			t.Fatalf("channel %s has %d samples after rejected vectors", name, b.Len())
		}
	}
}

func TestBandOrderOfAggregatedPowers(t *testing.T) {
	c := newCalculator(t)
	sine := testutil.DeterministicSine(20, eeg.DefaultSampleRate, 10, 1280)
	feed(t, c, testutil.Frames(sine, sine, sine, sine, sine))
	if err := c.ComputeBands(); err != nil {
		t.Fatalf("ComputeBands() error = %v", err)
	}
	p, err := c.BandPowers(nil, false)
	if err != nil {
		t.Fatalf("BandPowers() error = %v", err)
	}
	if p[bandpower.Beta] <= p[bandpower.Alpha] || p[bandpower.Beta] <= p[bandpower.Delta] {
		t.Fatalf("beta not dominant in %v", p)
	}
}

func TestHistoryDepthBoundsSmoothing(t *testing.T) {
	c := newCalculator(t)
	sine := testutil.DeterministicSine(10, eeg.DefaultSampleRate, 20, 1280)
	feed(t, c, testutil.Frames(sine, sine, sine, sine, sine))
	for i := 0; i < 30; i++ {
		if err := c.ComputeBands(); err != nil {
			t.Fatalf("ComputeBands() error = %v", err)
		}
	}
	vals, err := c.hist.Values(eeg.TP9, bandpower.Alpha)
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	if len(vals) != c.Config().NumWindows() {
		t.Fatalf("history len = %d, want %d", len(vals), c.Config().NumWindows())
	}

	c.Reset()
	if v, _ := c.BandPower(bandpower.Alpha, nil, false); v != 0 {
		t.Fatalf("BandPower after Reset = %v, want 0", v)
	}
}

func TestNewCalculatorErrors(t *testing.T) {
	bad := eeg.DefaultConfig()
	bad.OverlapSeconds = bad.EpochSeconds
	if _, err := NewCalculator(bad); !errors.Is(err, eeg.ErrConfiguration) {
		t.Fatalf("shift 0 error = %v, want ErrConfiguration", err)
	}
	if _, err := NewCalculator(eeg.DefaultConfig(), WithLayout(eeg.Layout{})); !errors.Is(err, eeg.ErrConfiguration) {
		t.Fatalf("empty layout error = %v, want ErrConfiguration", err)
	}
}

func TestRawStorageWithoutMains(t *testing.T) {
	cfg := eeg.DefaultConfig()
	cfg.MainsHz = 0
	c, err := NewCalculator(cfg, WithLayout(eeg.Layout{Channels: []string{"X"}}))
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	_ = c.AddSample([]float64{42})
	b, _ := c.Channel("X")
	testutil.RequireSliceNearlyEqual(t, b.Samples(), []float64{42}, 0)
	if b.Filtered() {
		t.Fatal("buffer should store raw values")
	}
}
