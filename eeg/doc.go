// Package eeg holds the model shared by the band-power pipeline: the channel
// layout, the timing configuration and the sentinel errors every stage
// wraps.
//
// The processing stages live in sub-packages:
//
//   - channel: notch-filtered per-channel ring buffers and epoch extraction
//   - history: per (channel, band) smoothing buffers
//   - protocol: band aggregation across channels and ratio protocols
//   - pipeline: the calculator tying the stages together
package eeg
