// Package config loads the musestream YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/sink/mqtt"
	"github.com/cwbudde/algo-eeg/stream"
)

// Source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceEDF       = "edf"
)

// Config is the top-level configuration file.
type Config struct {
	OSC      OSCConfig      `yaml:"osc"`
	Streams  []string       `yaml:"streams"` // EEG, ACC, PPG, GYRO
	Timeout  time.Duration  `yaml:"timeout"` // run time before a clean stop
	Source   SourceConfig   `yaml:"source"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// OSCConfig is the OSC destination.
type OSCConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SourceConfig selects where samples come from.
type SourceConfig struct {
	Kind     string    `yaml:"kind"` // synthetic or edf
	Seed     int64     `yaml:"seed"` // synthetic noise seed
	Realtime bool      `yaml:"realtime"`
	EDF      EDFConfig `yaml:"edf"`
}

// EDFConfig describes an EEG recording to replay.
type EDFConfig struct {
	Path       string  `yaml:"path"`
	Signals    []int   `yaml:"signals"`     // one index per EEG channel, TP9 AF7 AF8 TP10 AUX
	SampleRate float64 `yaml:"sample_rate"` // Hz; 0 uses pipeline.sample_rate
}

// PipelineConfig holds band computation settings.
type PipelineConfig struct {
	SampleRate       float64       `yaml:"sample_rate"`
	RetentionSeconds float64       `yaml:"retention_seconds"`
	EpochSeconds     float64       `yaml:"epoch_seconds"`
	OverlapSeconds   float64       `yaml:"overlap_seconds"`
	MainsHz          float64       `yaml:"mains_hz"`
	PaddedEpochs     bool          `yaml:"padded_epochs"`
	IncludeAux       bool          `yaml:"include_aux"`
	EmitProtocols    bool          `yaml:"emit_protocols"`
	PullWait         time.Duration `yaml:"pull_wait"`
}

// MQTTConfig enables the optional MQTT sink.
type MQTTConfig struct {
	Enabled     bool `yaml:"enabled"`
	mqtt.Config `yaml:",inline"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. :9108; empty disables
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		OSC:     OSCConfig{Host: "127.0.0.1", Port: 4545},
		Streams: []string{"EEG"},
		Timeout: time.Hour,
		Source: SourceConfig{
			Kind:     SourceSynthetic,
			Seed:     1,
			Realtime: true,
			EDF: EDFConfig{
				Signals: []int{0, 1, 2, 3, 4},
			},
		},
		Pipeline: PipelineConfig{
			SampleRate:       eeg.DefaultSampleRate,
			RetentionSeconds: eeg.DefaultRetentionSeconds,
			EpochSeconds:     eeg.DefaultEpochSeconds,
			OverlapSeconds:   eeg.DefaultOverlapSeconds,
			MainsHz:          eeg.DefaultMainsHz,
			PullWait:         stream.DefaultPullWait,
		},
		MQTT: MQTTConfig{Config: mqtt.DefaultConfig()},
	}
}

// Load reads filename over the defaults and validates the result.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.OSC.Host == "" {
		return fmt.Errorf("%w: osc.host is empty", eeg.ErrConfiguration)
	}
	if c.OSC.Port <= 0 || c.OSC.Port > 65535 {
		return fmt.Errorf("%w: osc.port out of range: %d", eeg.ErrConfiguration, c.OSC.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0: %v", eeg.ErrConfiguration, c.Timeout)
	}
	if _, err := c.Modalities(); err != nil {
		return fmt.Errorf("%w: streams: %w", eeg.ErrConfiguration, err)
	}
	if _, err := c.EEG(); err != nil {
		return err
	}
	if c.Pipeline.PullWait <= 0 {
		return fmt.Errorf("%w: pipeline.pull_wait must be > 0: %v", eeg.ErrConfiguration, c.Pipeline.PullWait)
	}

	switch c.Source.Kind {
	case SourceSynthetic:
	case SourceEDF:
		if c.Source.EDF.Path == "" {
			return fmt.Errorf("%w: source.edf.path is empty", eeg.ErrConfiguration)
		}
		if n, want := len(c.Source.EDF.Signals), eeg.DefaultLayout().Len(); n != want {
			return fmt.Errorf("%w: source.edf.signals selects %d signals, the EEG layout has %d channels",
				eeg.ErrConfiguration, n, want)
		}
		if r := c.Source.EDF.SampleRate; r != 0 && r != c.Pipeline.SampleRate {
			return fmt.Errorf("%w: source.edf.sample_rate %g differs from pipeline.sample_rate %g",
				eeg.ErrConfiguration, r, c.Pipeline.SampleRate)
		}
	default:
		return fmt.Errorf("%w: unknown source.kind %q", eeg.ErrConfiguration, c.Source.Kind)
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("%w: mqtt.broker is empty", eeg.ErrConfiguration)
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2: %d", eeg.ErrConfiguration, c.MQTT.QoS)
		}
	}
	return nil
}

// EDFSampleRate returns the replay rate of the EDF signals.
func (c Config) EDFSampleRate() float64 {
	if c.Source.EDF.SampleRate > 0 {
		return c.Source.EDF.SampleRate
	}
	return c.Pipeline.SampleRate
}

// Modalities parses the stream list.
func (c Config) Modalities() ([]stream.Modality, error) {
	return stream.ParseModalities(strings.Join(c.Streams, ","))
}

// EEG returns the validated pipeline timing.
func (c Config) EEG() (eeg.Config, error) {
	p := c.Pipeline
	return eeg.NewConfig(
		eeg.WithSampleRate(p.SampleRate),
		eeg.WithRetention(p.RetentionSeconds),
		eeg.WithEpoch(p.EpochSeconds),
		eeg.WithOverlap(p.OverlapSeconds),
		eeg.WithMainsFrequency(p.MainsHz),
	)
}
