// Command musestream streams headband data to OSC and computes EEG band
// powers in real time.
//
// Usage:
//
//	musestream [flags]
//
// Without a config file it streams a synthetic headband to 127.0.0.1:4545
// for one hour.
//
// Examples:
//
//	musestream -streams EEG,ACC -timeout 30s
//	musestream -source edf -edf session.edf
//	musestream -config musestream.yaml -metrics :9108
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cwbudde/algo-eeg/eeg/pipeline"
	"github.com/cwbudde/algo-eeg/internal/config"
	"github.com/cwbudde/algo-eeg/internal/metrics"
	"github.com/cwbudde/algo-eeg/sink/mqtt"
	"github.com/cwbudde/algo-eeg/sink/osc"
	"github.com/cwbudde/algo-eeg/stream"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	host := flag.String("host", "", "OSC destination host")
	port := flag.Int("port", 0, "OSC destination port")
	timeout := flag.Duration("timeout", 0, "stop after this long")
	streams := flag.String("streams", "", "comma separated stream types: EEG, ACC, PPG, GYRO")
	source := flag.String("source", "", "sample source: synthetic or edf")
	edfPath := flag.String("edf", "", "EDF recording to replay as EEG")
	metricsAddr := flag.String("metrics", "", "listen address for /metrics, e.g. :9108")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: musestream [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Streams headband data to OSC and emits EEG band powers at 10 Hz.\n")
		fmt.Fprintf(os.Stderr, "Flags override values from -config.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  musestream -streams EEG,ACC -timeout 30s\n")
		fmt.Fprintf(os.Stderr, "  musestream -source edf -edf session.edf\n")
		fmt.Fprintf(os.Stderr, "  musestream -config musestream.yaml -metrics :9108\n")
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.OSC.Host = *host
		case "port":
			cfg.OSC.Port = *port
		case "timeout":
			cfg.Timeout = *timeout
		case "streams":
			cfg.Streams = strings.Split(*streams, ",")
		case "source":
			cfg.Source.Kind = *source
		case "edf":
			cfg.Source.EDF.Path = *edfPath
			if *source == "" {
				cfg.Source.Kind = config.SourceEDF
			}
		case "metrics":
			cfg.Metrics.Listen = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("musestream: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	modalities, err := cfg.Modalities()
	if err != nil {
		return err
	}
	eegCfg, err := cfg.EEG()
	if err != nil {
		return err
	}

	log.Printf("Initializing connection to %s:%d", cfg.OSC.Host, cfg.OSC.Port)
	client, err := osc.Dial(cfg.OSC.Host, cfg.OSC.Port)
	if err != nil {
		return err
	}

	sinks := stream.MultiSink{client}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.Connect(cfg.MQTT.Config)
		if err != nil {
			return err
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	calc, err := pipeline.NewCalculator(eegCfg, pipeline.WithPaddedEpochs(cfg.Pipeline.PaddedEpochs))
	if err != nil {
		return err
	}
	s, err := stream.New(sinks,
		stream.WithCalculator(calc),
		stream.WithPullWait(cfg.Pipeline.PullWait),
		stream.WithMetrics(m),
		stream.WithProtocols(cfg.Pipeline.EmitProtocols),
		stream.WithAux(cfg.Pipeline.IncludeAux),
		stream.WithRetention(cfg.Pipeline.RetentionSeconds),
	)
	if err != nil {
		return err
	}

	if err := s.Connect(ctx, newResolver(cfg), modalities...); err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	log.Printf("Streaming %d stream type(s) for %v", len(modalities), cfg.Timeout)

	timer := time.NewTimer(cfg.Timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		log.Printf("Timeout reached, stopping")
	case <-ctx.Done():
		log.Printf("Interrupted, stopping")
	case <-s.Done():
		log.Printf("All sources finished")
	}

	if err := s.Stop(); err != nil {
		return err
	}
	st := s.Stats()
	log.Printf("Stopped: %d EEG samples, %d band computations, %d triggers, %d sink errors",
		st.Samples[stream.EEG], st.Computations, st.Triggers, st.SinkErrors)
	return nil
}

// newResolver returns the configured source factory. EDF replay only
// covers EEG; other modalities stay synthetic.
func newResolver(cfg config.Config) stream.Resolver {
	return stream.ResolverFunc(func(_ context.Context, m stream.Modality) (stream.Source, error) {
		opts := []stream.SourceOption{
			stream.WithRealtime(cfg.Source.Realtime),
			stream.WithSeed(cfg.Source.Seed),
		}
		if m == stream.EEG && cfg.Source.Kind == config.SourceEDF {
			e := cfg.Source.EDF
			return stream.OpenEDF(e.Path, e.Signals, cfg.EDFSampleRate(), opts...)
		}
		if m == stream.EEG {
			opts = append(opts,
				stream.WithRate(cfg.Pipeline.SampleRate),
				stream.WithMainsHum(cfg.Pipeline.MainsHz),
			)
		}
		return stream.NewSyntheticSource(m, opts...)
	})
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("Metrics: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics: server error: %v", err)
		}
	}()
	return srv
}
