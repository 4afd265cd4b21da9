// Package protocol aggregates smoothed band power across channels and derives
// the neurofeedback ratio protocols from it.
package protocol

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/history"
	"github.com/cwbudde/algo-eeg/measure/bandpower"
)

// Protocol names a band-power ratio.
type Protocol int

const (
	// Alpha is alpha/delta; delta stands in for broadband noise.
	Alpha Protocol = iota
	// Beta is beta/theta, a common attention measure.
	Beta
	// AlphaTheta is theta/alpha, used for relaxation training.
	AlphaTheta
)

var protocolNames = [...]string{"alpha", "beta", "alpha-theta"}

// Protocols returns every protocol in canonical order.
func Protocols() []Protocol {
	return []Protocol{Alpha, Beta, AlphaTheta}
}

// Valid reports whether p is a known protocol.
func (p Protocol) Valid() bool {
	return p >= Alpha && p <= AlphaTheta
}

// String returns the protocol name used in addresses, e.g. "alpha-theta".
func (p Protocol) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
	return protocolNames[p]
}

// Ratio returns the numerator and denominator bands of p.
func (p Protocol) Ratio() (num, den bandpower.Band) {
	switch p {
	case Beta:
		return bandpower.Beta, bandpower.Theta
	case AlphaTheta:
		return bandpower.Theta, bandpower.Alpha
	default:
		return bandpower.Alpha, bandpower.Delta
	}
}

// ParseProtocol resolves a case-insensitive protocol name.
func ParseProtocol(name string) (Protocol, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range protocolNames {
		if s == n {
			return Protocol(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown protocol %q", eeg.ErrInvalidArgument, name)
}

// Evaluator reads a band history through a channel layout.
type Evaluator struct {
	layout eeg.Layout
	hist   *history.Buffer
}

// NewEvaluator returns an Evaluator over hist. Every layout channel must be
// tracked by hist.
func NewEvaluator(layout eeg.Layout, hist *history.Buffer) (*Evaluator, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if hist == nil {
		return nil, fmt.Errorf("%w: nil history", eeg.ErrConfiguration)
	}
	for _, ch := range layout.Channels {
		if _, err := hist.Smoothed(ch, bandpower.Delta); err != nil {
			return nil, fmt.Errorf("%w: history lacks channel %q", eeg.ErrConfiguration, ch)
		}
	}
	return &Evaluator{layout: layout, hist: hist}, nil
}

// BandPower returns the mean smoothed power of band over channels. A nil
// channel list selects every layout channel; the auxiliary channel is
// dropped unless includeAux is set. An empty selection yields 0.
func (e *Evaluator) BandPower(band bandpower.Band, channels []string, includeAux bool) (float64, error) {
	if !band.Valid() {
		return 0, fmt.Errorf("%w: unknown band %v", eeg.ErrInvalidArgument, band)
	}
	selected, err := e.layout.Select(channels, includeAux)
	if err != nil {
		return 0, err
	}
	if len(selected) == 0 {
		return 0, nil
	}

	vals := make([]float64, len(selected))
	for i, ch := range selected {
		v, err := e.hist.Smoothed(ch, band)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	return stat.Mean(vals, nil), nil
}

// Score returns the ratio for p over the same channel selection as
// BandPower. A zero denominator follows IEEE-754: ±Inf, or NaN for 0/0.
func (e *Evaluator) Score(p Protocol, channels []string, includeAux bool) (float64, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w: unknown protocol %v", eeg.ErrInvalidArgument, p)
	}
	numBand, denBand := p.Ratio()
	num, err := e.BandPower(numBand, channels, includeAux)
	if err != nil {
		return 0, err
	}
	den, err := e.BandPower(denBand, channels, includeAux)
	if err != nil {
		return 0, err
	}
	return num / den, nil
}

// Protocol is Score with the protocol given by name.
func (e *Evaluator) Protocol(name string, channels []string, includeAux bool) (float64, error) {
	p, err := ParseProtocol(name)
	if err != nil {
		return 0, err
	}
	return e.Score(p, channels, includeAux)
}
