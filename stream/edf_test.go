package stream

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eeg/eeg"
)

// writeEDF records two 256 Hz signals over two one-second data records:
// signal 0 counts up from 0, signal 1 counts down from 0.
func writeEDF(t *testing.T) string {
	t.Helper()
	return writeEDFRates(t, 256, 256)
}

// writeEDFRates records one signal per entry of samplesPerRecord over two
// one-second data records. Even signals count up from 0, odd ones down.
func writeEDFRates(t *testing.T, samplesPerRecord ...int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.edf")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)

	signals := make([]edf.Signal, len(samplesPerRecord))
	for i, n := range samplesPerRecord {
		signals[i] = edf.Signal{
			Label:             fmt.Sprintf("EEG %d", i),
			TransducerType:    "AgAgCl electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       -1000,
			PhysicalMax:       1000,
			DigitalMin:        -2048,
			DigitalMax:        2047,
			SamplesPerRecord:  n,
		}
	}

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		PatientID:          "Subject 1",
		RecordingID:        "Muse session",
		StartTime:          time.Now(),
		DataRecordDuration: time.Second,
		SignalCount:        len(signals),
		Signals:            signals,
	})
	require.NoError(t, err)

	for rec := 0; rec < 2; rec++ {
		record := make([][]float64, len(samplesPerRecord))
		for i, n := range samplesPerRecord {
			record[i] = make([]float64, n)
			for j := range record[i] {
				v := float64(rec*n + j)
				if i%2 == 1 {
					v = -v
				}
				record[i][j] = v
			}
		}
		require.NoError(t, ew.Write(record))
	}
	require.NoError(t, ew.Close())
	require.NoError(t, f.Close())
	return path
}

func TestEDFSourceReplay(t *testing.T) {
	path := writeEDF(t)
	src, err := OpenEDF(path, []int{0, 1}, 256, WithRealtime(false), WithChunk(100))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, src.Close()) })

	ctx := context.Background()
	for i := 0; i < 512; i++ {
		smp, err := src.Pull(ctx, 0)
		require.NoError(t, err, "sample %d", i)
		require.Len(t, smp.Values, 2)
		assert.InDelta(t, float64(i), smp.Values[0], 1.0)
		assert.InDelta(t, -float64(i), smp.Values[1], 1.0)
		assert.InDelta(t, float64(i)/256, smp.Timestamp, 1e-12)
	}

	_, err = src.Pull(ctx, 0)
	require.ErrorIs(t, err, io.EOF)
}

func TestEDFSourceErrors(t *testing.T) {
	_, err := OpenEDF(filepath.Join(t.TempDir(), "missing.edf"), []int{0}, 256)
	require.ErrorIs(t, err, eeg.ErrSourceUnavailable)

	path := writeEDF(t)
	_, err = OpenEDF(path, []int{0, 5}, 256)
	require.ErrorIs(t, err, eeg.ErrConfiguration)

	_, err = OpenEDF(path, nil, 256)
	require.ErrorIs(t, err, eeg.ErrConfiguration)
}

func TestEDFSourceChecksRecordLayout(t *testing.T) {
	path := writeEDFRates(t, 256, 128)

	_, err := OpenEDF(path, []int{0, 1}, 256)
	require.ErrorIs(t, err, eeg.ErrConfiguration)

	_, err = OpenEDF(path, []int{1}, 256)
	require.ErrorIs(t, err, eeg.ErrConfiguration)

	for _, tc := range []struct {
		signal int
		rate   float64
	}{{0, 256}, {1, 128}} {
		src, err := OpenEDF(path, []int{tc.signal}, tc.rate, WithRealtime(false))
		require.NoError(t, err, "signal %d", tc.signal)
		assert.Equal(t, 1, src.Width())
		smp, err := src.Pull(context.Background(), 0)
		require.NoError(t, err)
		assert.InDelta(t, 0, smp.Values[0], 1.0)
		require.NoError(t, src.Close())
	}
}

func TestConnectRejectsNarrowEDF(t *testing.T) {
	src, err := OpenEDF(writeEDF(t), []int{0, 1}, 256, WithRealtime(false))
	require.NoError(t, err)
	assert.Equal(t, 2, src.Width())

	s := newStreamer(t, Discard)
	err = s.Connect(context.Background(), StaticResolver{EEG: src}, EEG)
	require.ErrorIs(t, err, eeg.ErrConfiguration)

	_, err = src.Pull(context.Background(), 0)
	require.ErrorIs(t, err, io.EOF)
}

func TestEDFSourceFeedsStreamer(t *testing.T) {
	path := writeEDF(t)
	src, err := OpenEDF(path, []int{0, 1}, 256, WithRealtime(false))
	require.NoError(t, err)

	sink := &recordSink{}
	s, err := New(sink, WithoutBands(), WithLogger(quietLogger()))
	require.NoError(t, err)

	// Two signals cannot form an EEG vector, so replay them as gyroscope
	// data padded by a third zero signal.
	pad := ResolverFunc(func(_ context.Context, m Modality) (Source, error) {
		return padSource{src}, nil
	})
	require.NoError(t, s.Connect(context.Background(), pad, Gyroscope))
	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)
	require.NoError(t, s.Stop())

	assert.Equal(t, 512, sink.count("/muse/gyro"))
	assert.Equal(t, uint64(512), s.Stats().Samples[Gyroscope])
}

type padSource struct{ Source }

func (p padSource) Pull(ctx context.Context, wait time.Duration) (Sample, error) {
	smp, err := p.Source.Pull(ctx, wait)
	if err != nil {
		return smp, err
	}
	smp.Values = append(smp.Values, 0)
	return smp, nil
}
