package bandpower

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-eeg/eeg"
)

// Band is one of the classic EEG frequency bands.
type Band int

// Bands in canonical order, lowest frequency first.
const (
	Delta Band = iota
	Theta
	Alpha
	Beta
)

// NumBands is the number of bands in Bands().
const NumBands = 4

var bandNames = [NumBands]string{"delta", "theta", "alpha", "beta"}

// Half-open [lo, hi) edges in Hz, contiguous from DC.
var bandEdges = [NumBands][2]float64{
	{0, 4},
	{4, 8},
	{8, 12},
	{12, 30},
}

// Bands returns every band in canonical order.
func Bands() []Band {
	return []Band{Delta, Theta, Alpha, Beta}
}

// Valid reports whether b is a known band.
func (b Band) Valid() bool {
	return b >= Delta && b <= Beta
}

// String returns the lowercase band name.
func (b Band) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandNames[b]
}

// Range returns the band edges in Hz; the upper edge is exclusive.
func (b Band) Range() (lowHz, highHz float64) {
	if !b.Valid() {
		return 0, 0
	}
	return bandEdges[b][0], bandEdges[b][1]
}

// ParseBand resolves a case-insensitive band name.
func ParseBand(name string) (Band, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range bandNames {
		if s == n {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown band %q", eeg.ErrInvalidArgument, name)
}

// Powers holds one power value per band, indexed by Band.
type Powers [NumBands]float64

// Get returns the power of b, or 0 for an invalid band.
func (p Powers) Get(b Band) float64 {
	if !b.Valid() {
		return 0
	}
	return p[b]
}
