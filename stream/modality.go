package stream

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-eeg/eeg"
)

// Modality is one kind of headband stream.
type Modality int

// Modalities in dispatch order.
const (
	EEG Modality = iota
	Accelerometer
	PPG
	Gyroscope
)

// NumModalities is the number of known modalities.
const NumModalities = 4

type modalityInfo struct {
	name     string
	alias    string
	address  string
	rate     float64
	channels []string
}

var modalities = [NumModalities]modalityInfo{
	EEG: {
		name:     "EEG",
		address:  "/muse/eeg",
		rate:     256,
		channels: eeg.DefaultLayout().Channels,
	},
	Accelerometer: {
		name:     "accelerometer",
		alias:    "ACC",
		address:  "/muse/acc",
		rate:     52,
		channels: []string{"X", "Y", "Z"},
	},
	PPG: {
		name:     "PPG",
		address:  "/muse/ppg",
		rate:     64,
		channels: []string{"PPG1", "PPG2", "PPG3"},
	},
	Gyroscope: {
		name:     "gyroscope",
		alias:    "GYRO",
		address:  "/muse/gyro",
		rate:     52,
		channels: []string{"X", "Y", "Z"},
	},
}

// Modalities returns every modality in dispatch order.
func Modalities() []Modality {
	return []Modality{EEG, Accelerometer, PPG, Gyroscope}
}

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	return m >= EEG && m <= Gyroscope
}

// String returns the stream type name.
func (m Modality) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Modality(%d)", int(m))
	}
	return modalities[m].name
}

// Size returns the number of values per sample.
func (m Modality) Size() int {
	if !m.Valid() {
		return 0
	}
	return len(modalities[m].channels)
}

// Channels returns the value names of one sample, in order.
func (m Modality) Channels() []string {
	if !m.Valid() {
		return nil
	}
	return append([]string(nil), modalities[m].channels...)
}

// Address returns the OSC address raw samples are sent to.
func (m Modality) Address() string {
	if !m.Valid() {
		return ""
	}
	return modalities[m].address
}

// DefaultRate returns the nominal Muse sampling rate in Hz.
func (m Modality) DefaultRate() float64 {
	if !m.Valid() {
		return 0
	}
	return modalities[m].rate
}

// ParseModality resolves a stream type name. The short aliases ACC and
// GYRO are accepted; matching is case-insensitive.
func ParseModality(name string) (Modality, error) {
	n := strings.TrimSpace(name)
	for i, info := range modalities {
		if strings.EqualFold(n, info.name) || (info.alias != "" && strings.EqualFold(n, info.alias)) {
			return Modality(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown stream type %q", eeg.ErrInvalidArgument, name)
}

// ParseModalities parses a comma-separated list, dropping duplicates and
// keeping first-seen order.
func ParseModalities(list string) ([]Modality, error) {
	var out []Modality
	seen := make(map[Modality]bool)
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := ParseModality(part)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no stream types in %q", eeg.ErrInvalidArgument, list)
	}
	return out, nil
}

// ChannelAddress returns the per-channel EEG address, e.g. /muse/eeg/tp9.
func ChannelAddress(channel string) string {
	return modalities[EEG].address + "/" + strings.ToLower(channel)
}

// BandAddress returns the address of an aggregated band power.
func BandAddress(band string) string {
	return "/muse/elements/" + band + "_absolute"
}

// ProtocolAddress returns the address of a protocol score.
func ProtocolAddress(protocol string) string {
	return "/muse/elements/" + protocol + "_protocol"
}
