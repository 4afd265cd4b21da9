// Package metrics exposes the streamer's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	samples       *prometheus.CounterVec // accepted samples (by modality)
	dropped       *prometheus.CounterVec // rejected samples (by modality)
	sourceErrors  *prometheus.CounterVec // failed pulls (by modality)
	sinkErrors    *prometheus.CounterVec // failed sends (by address)
	computations  prometheus.Counter     // band recomputations that produced output
	bandPower     *prometheus.GaugeVec   // last emitted band power (by band)
	protocolScore *prometheus.GaugeVec   // last emitted protocol score (by protocol)
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		samples: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_samples_total",
				Help: "Samples accepted from sources",
			},
			[]string{"modality"},
		),
		dropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_samples_dropped_total",
				Help: "Samples rejected as invalid",
			},
			[]string{"modality"},
		),
		sourceErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_source_errors_total",
				Help: "Failed source pulls",
			},
			[]string{"modality"},
		),
		sinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_sink_errors_total",
				Help: "Failed sink sends",
			},
			[]string{"address"},
		),
		computations: f.NewCounter(
			prometheus.CounterOpts{
				Name: "muse_band_computations_total",
				Help: "Band power recomputations that produced output",
			},
		),
		bandPower: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "muse_band_power",
				Help: "Last emitted smoothed band power",
			},
			[]string{"band"},
		),
		protocolScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "muse_protocol_score",
				Help: "Last emitted protocol score",
			},
			[]string{"protocol"},
		),
	}
}

// Handler serves the metrics gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordSample counts one accepted sample of modality.
func (m *Metrics) RecordSample(modality string) {
	if m == nil {
		return
	}
	m.samples.WithLabelValues(modality).Inc()
}

// RecordDropped counts one sample rejected as invalid.
func (m *Metrics) RecordDropped(modality string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(modality).Inc()
}

// RecordSourceError counts one failed pull from the modality's source.
func (m *Metrics) RecordSourceError(modality string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(modality).Inc()
}

// RecordSinkError counts one failed send to address.
func (m *Metrics) RecordSinkError(address string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(address).Inc()
}

// RecordComputation counts one band recomputation that produced output.
func (m *Metrics) RecordComputation() {
	if m == nil {
		return
	}
	m.computations.Inc()
}

// SetBandPower records the last emitted smoothed power of band.
func (m *Metrics) SetBandPower(band string, v float64) {
	if m == nil {
		return
	}
	m.bandPower.WithLabelValues(band).Set(v)
}

// SetProtocolScore records the last emitted score of protocol.
func (m *Metrics) SetProtocolScore(protocol string, v float64) {
	if m == nil {
		return
	}
	m.protocolScore.WithLabelValues(protocol).Set(v)
}
