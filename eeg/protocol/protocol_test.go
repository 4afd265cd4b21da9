package protocol

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/history"
	"github.com/cwbudde/algo-eeg/measure/bandpower"
)

func newEvaluator(t *testing.T) (*Evaluator, *history.Buffer) {
	t.Helper()
	layout := eeg.DefaultLayout()
	h, err := history.New(layout.Channels, 4)
	if err != nil {
		t.Fatalf("history.New() error = %v", err)
	}
	e, err := NewEvaluator(layout, h)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	return e, h
}

func fill(t *testing.T, h *history.Buffer, ch string, p bandpower.Powers) {
	t.Helper()
	if err := h.PushPowers(ch, p); err != nil {
		t.Fatalf("PushPowers() error = %v", err)
	}
}

func TestProtocolRatiosExact(t *testing.T) {
	e, h := newEvaluator(t)
	for _, ch := range []string{eeg.TP9, eeg.AF7, eeg.AF8, eeg.TP10} {
		fill(t, h, ch, bandpower.Powers{2, 4, 6, 12})
	}
	// AUX carries values that would change every ratio if included.
	fill(t, h, eeg.AUX, bandpower.Powers{100, 100, 100, 100})

	tests := []struct {
		name string
		want float64
	}{
		{name: "alpha", want: 6.0 / 2.0},
		{name: "beta", want: 12.0 / 4.0},
		{name: "alpha-theta", want: 4.0 / 6.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Protocol(tt.name, nil, false)
			if err != nil {
				t.Fatalf("Protocol() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("Protocol(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestBandPowerMeanAcrossChannels(t *testing.T) {
	e, h := newEvaluator(t)
	fill(t, h, eeg.TP9, bandpower.Powers{1, 0, 0, 0})
	fill(t, h, eeg.AF7, bandpower.Powers{3, 0, 0, 0})
	fill(t, h, eeg.AUX, bandpower.Powers{8, 0, 0, 0})

	got, err := e.BandPower(bandpower.Delta, []string{eeg.TP9, eeg.AF7}, false)
	if err != nil || got != 2 {
		t.Fatalf("BandPower(TP9,AF7) = %v, %v, want 2", got, err)
	}
	// Untouched channels contribute 0.
	all, err := e.BandPower(bandpower.Delta, nil, false)
	if err != nil || all != 1 {
		t.Fatalf("BandPower(all) = %v, %v, want 1", all, err)
	}
	withAux, err := e.BandPower(bandpower.Delta, nil, true)
	if err != nil || withAux != 12.0/5.0 {
		t.Fatalf("BandPower(all, aux) = %v, %v, want 2.4", withAux, err)
	}
}

func TestAuxOnlyWithoutAuxIsZero(t *testing.T) {
	e, h := newEvaluator(t)
	fill(t, h, eeg.AUX, bandpower.Powers{5, 5, 5, 5})
	got, err := e.BandPower(bandpower.Alpha, []string{eeg.AUX}, false)
	if err != nil {
		t.Fatalf("BandPower() error = %v", err)
	}
	if got != 0 {
		t.Fatalf("BandPower() = %v, want 0", got)
	}
}

func TestDivisionByZeroIsIEEE(t *testing.T) {
	e, h := newEvaluator(t)
	fill(t, h, eeg.TP9, bandpower.Powers{0, 0, 1, 0})

	alpha, err := e.Score(Alpha, []string{eeg.TP9}, false)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if !math.IsInf(alpha, 1) {
		t.Fatalf("alpha/0 = %v, want +Inf", alpha)
	}
	beta, err := e.Score(Beta, []string{eeg.TP9}, false)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if !math.IsNaN(beta) {
		t.Fatalf("0/0 = %v, want NaN", beta)
	}
}

func TestInvalidArguments(t *testing.T) {
	e, _ := newEvaluator(t)
	if _, err := e.BandPower(bandpower.Band(-1), nil, false); !errors.Is(err, eeg.ErrInvalidArgument) {
		t.Fatalf("invalid band error = %v", err)
	}
	if _, err := e.Protocol("gamma", nil, false); !errors.Is(err, eeg.ErrInvalidArgument) {
		t.Fatalf("invalid protocol error = %v", err)
	}
	if _, err := e.BandPower(bandpower.Alpha, []string{"Fz"}, false); !errors.Is(err, eeg.ErrInvalidArgument) {
		t.Fatalf("invalid channel error = %v", err)
	}
	if _, err := e.Score(Protocol(5), nil, false); !errors.Is(err, eeg.ErrInvalidArgument) {
		t.Fatalf("invalid protocol value error = %v", err)
	}
}

func TestNewEvaluatorChecksHistory(t *testing.T) {
	h, err := history.New([]string{eeg.TP9}, 2)
	if err != nil {
		t.Fatalf("history.New() error = %v", err)
	}
	if _, err := NewEvaluator(eeg.DefaultLayout(), h); !errors.Is(err, eeg.ErrConfiguration) {
		t.Fatalf("NewEvaluator() error = %v, want ErrConfiguration", err)
	}
}

func TestParseProtocol(t *testing.T) {
	for _, p := range Protocols() {
		got, err := ParseProtocol(p.String())
		if err != nil || got != p {
			t.Fatalf("ParseProtocol(%s) = %v, %v", p, got, err)
		}
	}
}
