package history

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/internal/testutil"
	"github.com/cwbudde/algo-eeg/measure/bandpower"
)

func newHistory(t *testing.T, depth int) *Buffer {
	t.Helper()
	h, err := New(eeg.DefaultLayout().Channels, depth)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return h
}

func TestSmoothedEmptyIsZero(t *testing.T) {
	h := newHistory(t, 21)
	got, err := h.Smoothed(eeg.TP9, bandpower.Alpha)
	if err != nil {
		t.Fatalf("Smoothed() error = %v", err)
	}
	if got != 0 {
		t.Fatalf("Smoothed() = %v, want 0", got)
	}
}

func TestSmoothedIsMeanOfHeld(t *testing.T) {
	h := newHistory(t, 3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		if err := h.Push(eeg.AF7, bandpower.Beta, v); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	vals, _ := h.Values(eeg.AF7, bandpower.Beta)
	testutil.RequireSliceNearlyEqual(t, vals, []float64{3, 4, 5}, 0)

	got, err := h.Smoothed(eeg.AF7, bandpower.Beta)
	if err != nil {
		t.Fatalf("Smoothed() error = %v", err)
	}
	if math.Abs(got-4) > 1e-12 {
		t.Fatalf("Smoothed() = %v, want 4", got)
	}

	// Other bands and channels are independent.
	if other, _ := h.Smoothed(eeg.AF7, bandpower.Alpha); other != 0 {
		t.Fatalf("alpha Smoothed() = %v, want 0", other)
	}
	if other, _ := h.Smoothed(eeg.AF8, bandpower.Beta); other != 0 {
		t.Fatalf("AF8 Smoothed() = %v, want 0", other)
	}
}

func TestPushPowers(t *testing.T) {
	h := newHistory(t, 2)
	if err := h.PushPowers(eeg.TP10, bandpower.Powers{1, 2, 3, 4}); err != nil {
		t.Fatalf("PushPowers() error = %v", err)
	}
	for _, b := range bandpower.Bands() {
		got, _ := h.Smoothed(eeg.TP10, b)
		if got != float64(b)+1 {
			t.Fatalf("%s = %v, want %v", b, got, float64(b)+1)
		}
	}
	h.Reset()
	if got, _ := h.Smoothed(eeg.TP10, bandpower.Beta); got != 0 {
		t.Fatalf("after Reset Smoothed() = %v, want 0", got)
	}
}

func TestInvalidArguments(t *testing.T) {
	h := newHistory(t, 2)
	if err := h.Push("Cz", bandpower.Alpha, 1); !errors.Is(err, eeg.ErrInvalidArgument) {
		t.Fatalf("unknown channel error = %v", err)
	}
	if _, err := h.Smoothed(eeg.TP9, bandpower.Band(9)); !errors.Is(err, eeg.ErrInvalidArgument) {
		t.Fatalf("unknown band error = %v", err)
	}
	if err := h.Push(eeg.TP9, bandpower.Alpha, math.NaN()); !errors.Is(err, eeg.ErrInvalidInput) {
		t.Fatalf("NaN power error = %v", err)
	}
	if _, err := New([]string{"A"}, 0); !errors.Is(err, eeg.ErrConfiguration) {
		t.Fatalf("zero depth error = %v", err)
	}
	if _, err := New([]string{"A", "A"}, 1); !errors.Is(err, eeg.ErrConfiguration) {
		t.Fatalf("duplicate channel error = %v", err)
	}
}
