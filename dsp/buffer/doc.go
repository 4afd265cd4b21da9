// Package buffer provides fixed-capacity float64 storage for streaming DSP.
//
// [Ring] keeps the most recent samples of an unbounded stream: appending past
// capacity evicts the oldest value while order is preserved. Readers copy out
// oldest-first views, so callers never observe the internal write position.
package buffer
