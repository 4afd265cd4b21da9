package stream

import (
	"errors"
	"fmt"
)

// Sink receives addressed value vectors.
type Sink interface {
	Send(address string, values ...float64) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(address string, values ...float64) error

// Send calls f.
func (f SinkFunc) Send(address string, values ...float64) error {
	return f(address, values...)
}

// Discard drops every message.
var Discard Sink = SinkFunc(func(string, ...float64) error { return nil })

// MultiSink fans every message out to all sinks. Every sink is attempted;
// failures are joined.
type MultiSink []Sink

// Send implements Sink.
func (m MultiSink) Send(address string, values ...float64) error {
	var errs []error
	for i, s := range m {
		if s == nil {
			continue
		}
		if err := s.Send(address, values...); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
