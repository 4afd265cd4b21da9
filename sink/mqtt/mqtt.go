// Package mqtt publishes streamer output to an MQTT broker as JSON.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Config holds broker and publishing settings.
type Config struct {
	Broker      string        `yaml:"broker"` // e.g. tcp://localhost:1883
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	TopicPrefix string        `yaml:"topic_prefix"` // prepended to the OSC address
	QoS         byte          `yaml:"qos"`
	Retain      bool          `yaml:"retain"`
	Timeout     time.Duration `yaml:"timeout"`    // per-publish wait on the publisher goroutine
	QueueSize   int           `yaml:"queue_size"` // messages buffered ahead of the broker
	Addresses   []string      `yaml:"addresses"`  // address prefixes to publish; empty publishes all
}

// DefaultQueueSize holds several seconds of band and protocol output.
const DefaultQueueSize = 256

var (
	// ErrQueueFull is returned by Send when the publisher goroutine is
	// behind, typically while the broker is unreachable. The message is
	// dropped.
	ErrQueueFull = errors.New("mqtt: publish queue full")
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("mqtt: sink closed")
)

// DefaultConfig publishes only band and protocol output, which is low-rate.
func DefaultConfig() Config {
	return Config{
		Broker:      "tcp://localhost:1883",
		TopicPrefix: "musestream",
		Timeout:     time.Second,
		QueueSize:   DefaultQueueSize,
		Addresses:   []string{"/muse/elements/"},
	}
}

// Publisher is the part of a paho client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// Payload is the JSON body of one message. Non-finite values are encoded
// as null.
type Payload struct {
	Timestamp int64      `json:"timestamp"` // Unix milliseconds
	Session   string     `json:"session"`
	Address   string     `json:"address"`
	Values    []*float64 `json:"values"`
}

// Sink implements stream.Sink over MQTT. Send only encodes and enqueues;
// a publisher goroutine owns the client and waits on delivery, so a slow or
// unreachable broker never blocks the caller.
type Sink struct {
	client  Publisher
	cfg     Config
	session string
	now     func() time.Time

	queue chan outgoing
	stop  chan struct{}
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

type outgoing struct {
	topic   string
	address string
	payload []byte
}

// Connect dials the broker like a long-running publisher: auto reconnect,
// keepalive, random client ID.
func Connect(cfg Config) (*Sink, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID("musestream_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		log.Println("MQTT: Connected to broker")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
	})

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Printf("MQTT: Successfully connected to broker: %s", cfg.Broker)
	return New(client, cfg), nil
}

// New wraps an existing client and starts the publisher goroutine. Each
// Sink tags its messages with a fresh session ID.
func New(client Publisher, cfg Config) *Sink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	s := &Sink{
		client:  client,
		cfg:     cfg,
		session: uuid.NewString(),
		now:     time.Now,
		queue:   make(chan outgoing, cfg.QueueSize),
		stop:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Session returns the session ID carried in every payload.
func (s *Sink) Session() string {
	return s.session
}

// Topic returns the topic address is published to.
func (s *Sink) Topic(address string) string {
	return s.cfg.TopicPrefix + address
}

// Stats returns the number of messages delivered, failed at the broker and
// dropped on a full queue.
func (s *Sink) Stats() (published, failed, dropped uint64) {
	return s.published.Load(), s.failed.Load(), s.dropped.Load()
}

func (s *Sink) accepts(address string) bool {
	if len(s.cfg.Addresses) == 0 {
		return true
	}
	for _, p := range s.cfg.Addresses {
		if strings.HasPrefix(address, p) {
			return true
		}
	}
	return false
}

// Send encodes one message and queues it for publishing. It never waits on
// the broker. Addresses outside the configured prefixes are skipped without
// error; a full queue drops the message and returns ErrQueueFull.
func (s *Sink) Send(address string, values ...float64) error {
	if !s.accepts(address) {
		return nil
	}

	p := Payload{
		Timestamp: s.now().UnixMilli(),
		Session:   s.session,
		Address:   address,
		Values:    make([]*float64, len(values)),
	}
	for i := range values {
		if !math.IsNaN(values[i]) && !math.IsInf(values[i], 0) {
			v := values[i]
			p.Values[i] = &v
		}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("mqtt: marshal %s: %w", address, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- outgoing{topic: s.Topic(address), address: address, payload: data}:
		return nil
	default:
		s.dropped.Add(1)
		return fmt.Errorf("%w: %s", ErrQueueFull, address)
	}
}

func (s *Sink) run() {
	defer s.wg.Done()
	for {
		// Stop wins over a backlog so Close waits for at most one publish.
		select {
		case <-s.stop:
			return
		default:
		}
		select {
		case <-s.stop:
			return
		case m := <-s.queue:
			s.publish(m)
		}
	}
}

func (s *Sink) publish(m outgoing) {
	token := s.client.Publish(m.topic, s.cfg.QoS, s.cfg.Retain, m.payload)
	var err error
	if !token.WaitTimeout(s.cfg.Timeout) {
		err = fmt.Errorf("timed out after %v", s.cfg.Timeout)
	} else {
		err = token.Error()
	}
	if err != nil {
		if s.failed.Add(1)%100 == 1 {
			log.Printf("MQTT: Failed to publish %s: %v", m.address, err)
		}
		return
	}
	s.published.Add(1)
}

// Close stops the publisher goroutine, discarding queued messages, and
// disconnects a client created by Connect. It waits at most one publish
// timeout.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	if c, ok := s.client.(pahomqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}
