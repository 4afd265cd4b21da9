package eeg

import "errors"

var (
	// ErrInvalidInput reports a sample that cannot be ingested, such as a
	// non-finite value or a vector of the wrong length.
	ErrInvalidInput = errors.New("eeg: invalid input")
	// ErrInsufficientData reports that a buffer does not yet hold enough
	// samples for the requested computation.
	ErrInsufficientData = errors.New("eeg: insufficient data")
	// ErrConfiguration reports an inconsistent configuration.
	ErrConfiguration = errors.New("eeg: invalid configuration")
	// ErrSourceUnavailable reports that no sample source could be attached.
	ErrSourceUnavailable = errors.New("eeg: source unavailable")
	// ErrInvalidArgument reports an unknown band, protocol or channel.
	ErrInvalidArgument = errors.New("eeg: invalid argument")
)
