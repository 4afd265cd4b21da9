package eeg

import "fmt"

// Channel names of the Muse headband EEG stream.
const (
	TP9  = "TP9"
	AF7  = "AF7"
	AF8  = "AF8"
	TP10 = "TP10"
	AUX  = "AUX"
)

// Layout is an ordered set of channel names. Aux names the auxiliary
// channel, which band aggregation may exclude; it is empty when the layout
// has none.
type Layout struct {
	Channels []string
	Aux      string
}

// DefaultLayout returns the five-channel Muse layout with AUX as auxiliary.
func DefaultLayout() Layout {
	return Layout{
		Channels: []string{TP9, AF7, AF8, TP10, AUX},
		Aux:      AUX,
	}
}

// Validate checks that the layout has at least one channel, no duplicates,
// and that Aux (if set) is one of the channels.
func (l Layout) Validate() error {
	if len(l.Channels) == 0 {
		return fmt.Errorf("%w: layout has no channels", ErrConfiguration)
	}
	seen := make(map[string]struct{}, len(l.Channels))
	for _, ch := range l.Channels {
		if ch == "" {
			return fmt.Errorf("%w: empty channel name", ErrConfiguration)
		}
		if _, dup := seen[ch]; dup {
			return fmt.Errorf("%w: duplicate channel %q", ErrConfiguration, ch)
		}
		seen[ch] = struct{}{}
	}
	if l.Aux != "" {
		if _, ok := seen[l.Aux]; !ok {
			return fmt.Errorf("%w: aux channel %q not in layout", ErrConfiguration, l.Aux)
		}
	}
	return nil
}

// Len returns the number of channels.
func (l Layout) Len() int {
	return len(l.Channels)
}

// Index returns the position of name in the layout.
func (l Layout) Index(name string) (int, bool) {
	for i, ch := range l.Channels {
		if ch == name {
			return i, true
		}
	}
	return -1, false
}

// IsAux reports whether name is the auxiliary channel.
func (l Layout) IsAux(name string) bool {
	return l.Aux != "" && name == l.Aux
}

// Select resolves a channel selection. A nil selection means every layout
// channel. When includeAux is false the auxiliary channel is removed.
// Unknown names yield ErrInvalidArgument.
func (l Layout) Select(channels []string, includeAux bool) ([]string, error) {
	if channels == nil {
		channels = l.Channels
	}
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		if _, ok := l.Index(ch); !ok {
			return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidArgument, ch)
		}
		if !includeAux && l.IsAux(ch) {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}
