package signal

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-eeg/dsp/core"
)

func TestSineLength(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(256))
	s, err := g.Sine(10, 1, 64)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}
	if len(s) != 64 {
		t.Fatalf("len = %d, want 64", len(s))
	}
	if _, err := g.Sine(10, 1, 0); err == nil {
		t.Fatal("expected error for zero samples")
	}
}

func TestWhiteNoiseDeterministic(t *testing.T) {
	g1 := NewGeneratorWithOptions(nil, WithSeed(42))
	g2 := NewGeneratorWithOptions(nil, WithSeed(42))

	n1, err := g1.WhiteNoise(1, 16)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}
	n2, err := g2.WhiteNoise(1, 16)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	for i := range n1 {
		if n1[i] != n2[i] {
			t.Fatalf("noise mismatch at %d: %v != %v", i, n1[i], n2[i])
		}
		if math.Abs(n1[i]) > 1 {
			t.Fatalf("noise[%d] = %v out of range", i, n1[i])
		}
	}
	if g1.Seed() != 42 {
		t.Fatalf("Seed() = %d, want 42", g1.Seed())
	}
	if _, err := g1.WhiteNoise(-1, 4); err == nil {
		t.Fatal("expected error for negative amplitude")
	}
}

func TestStreamMatchesSine(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(256))
	want, err := g.Sine(10, 2, 300)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}

	s, err := g.NewStream(Mixture{Rhythms: []Rhythm{{FreqHz: 10, Amplitude: 2}}})
	if err != nil {
		t.Fatalf("NewStream() error = %v", err)
	}
	for i := range want {
		if got := s.Next(); math.Abs(got-want[i]) > 1e-9 {
			t.Fatalf("sample %d: got %v, want %v", i, got, want[i])
		}
	}
	if s.Index() != 300 {
		t.Fatalf("Index() = %d, want 300", s.Index())
	}
}

func TestStreamOffsetAndNoiseDeterministic(t *testing.T) {
	mix := Mixture{Offset: 800, NoiseAmp: 5}
	a, err := NewGeneratorWithOptions(nil, WithSeed(9)).NewStream(mix)
	if err != nil {
		t.Fatalf("NewStream() error = %v", err)
	}
	b, _ := NewGeneratorWithOptions(nil, WithSeed(9)).NewStream(mix)

	for i := 0; i < 100; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("sample %d differs: %v != %v", i, x, y)
		}
		if math.Abs(x-800) > 5 {
			t.Fatalf("sample %d = %v outside offset +/- noise", i, x)
		}
	}
}

func TestNewStreamValidation(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(256))
	if _, err := g.NewStream(Mixture{NoiseAmp: -1}); err == nil {
		t.Fatal("expected error for negative noise")
	}
	if _, err := g.NewStream(Mixture{Rhythms: []Rhythm{{FreqHz: 200}}}); err == nil {
		t.Fatal("expected error for rhythm above Nyquist")
	}
}
