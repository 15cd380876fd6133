// Package mqttout mirrors panel events to an MQTT broker so dashboards and
// editors can follow the control surface.
//
// Topics are rooted at a configurable prefix:
//
//	<prefix>/param/<name>    {"value":..,"display":"..","source":".."} retained
//	<prefix>/switch/<name>   {"on":true} retained
//	<prefix>/button/<name>   {"action":"click"}
//	<prefix>/encoder         {"delta":1}
package mqttout

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"synthpanel/control"
	"synthpanel/core"
)

const (
	// DefaultPrefix is the topic root when none is configured.
	DefaultPrefix = "synthpanel"
	// DefaultQueue is the number of unacknowledged messages tracked before
	// new ones are counted as failed.
	DefaultQueue = 256
)

// Publisher is the part of mqtt.Client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Options configures a Sink.
type Options struct {
	Prefix  string
	QoS     byte
	Timeout time.Duration // how long to wait for the broker to acknowledge
	Queue   int           // unacknowledged messages tracked at once
	Logger  *zerolog.Logger
}

// Sink publishes every event without blocking the scan loop. A single
// goroutine waits for broker acknowledgements in publish order; when its
// queue is full the message is still sent but counted as failed.
type Sink struct {
	pub     Publisher
	prefix  string
	qos     byte
	timeout time.Duration
	log     *zerolog.Logger

	mu     sync.RWMutex
	closed bool
	acks   chan pending
	done   chan struct{}

	published atomic.Uint64
	failed    atomic.Uint64
}

type pending struct {
	topic string
	token mqtt.Token
}

type paramPayload struct {
	Value   int    `json:"value"`
	Display string `json:"display"`
	Source  string `json:"source"`
}

type switchPayload struct {
	On bool `json:"on"`
}

type buttonPayload struct {
	Action string `json:"action"`
	HeldMS int64  `json:"held_ms,omitempty"`
}

type encoderPayload struct {
	Delta int `json:"delta"`
}

// New returns a Sink publishing through pub. Close stops it.
func New(pub Publisher, opts Options) *Sink {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Queue <= 0 {
		opts.Queue = DefaultQueue
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	log := opts.Logger.With().Str("module", "mqtt").Logger()
	s := &Sink{
		pub:     pub,
		prefix:  opts.Prefix,
		qos:     opts.QoS,
		timeout: opts.Timeout,
		log:     &log,
		acks:    make(chan pending, opts.Queue),
		done:    make(chan struct{}),
	}
	go s.drain()
	return s
}

// Close stops accepting events and waits for the outstanding
// acknowledgements, each bounded by the timeout.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.acks)
	s.mu.Unlock()
	<-s.done
}

// HandleEvent implements core.Sink.
func (s *Sink) HandleEvent(ev core.Event) {
	switch e := ev.(type) {
	case core.ParameterChanged:
		s.publish("param/"+e.Param.String(), true, paramPayload{
			Value:   e.Value,
			Display: control.Format(e.Param, e.Value),
			Source:  sourceName(e.Source),
		})
	case core.SwitchChanged:
		s.publish("switch/"+e.Switch.String(), true, switchPayload{On: e.On})
	case core.ButtonPressed:
		s.publish("button/"+e.Button.String(), false, buttonPayload{Action: "press"})
	case core.ButtonClicked:
		s.publish("button/"+e.Button.String(), false, buttonPayload{Action: "click"})
	case core.ButtonHeld:
		s.publish("button/"+e.Button.String(), false, buttonPayload{Action: "hold"})
	case core.ButtonReleased:
		p := buttonPayload{Action: "release"}
		if e.AfterHold {
			p.HeldMS = e.Duration.Milliseconds()
		}
		s.publish("button/"+e.Button.String(), false, p)
	case core.EncoderStep:
		s.publish("encoder", false, encoderPayload{Delta: e.Delta})
	}
}

func sourceName(src core.Source) string {
	switch src {
	case core.SourceKnob:
		return "knob"
	case core.SourcePanel:
		return "panel"
	case core.SourceRecall:
		return "recall"
	default:
		return "unknown"
	}
}

func (s *Sink) publish(topic string, retained bool, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		s.failed.Add(1)
		s.log.Error().Err(err).Str("topic", topic).Msg("encode payload")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.failed.Add(1)
		return
	}

	topic = s.prefix + "/" + topic
	token := s.pub.Publish(topic, s.qos, retained, msg)
	select {
	case s.acks <- pending{topic: topic, token: token}:
	default:
		s.failed.Add(1)
		s.log.Warn().Str("topic", topic).Int("queue", cap(s.acks)).Msg("acknowledgement queue full")
	}
}

func (s *Sink) drain() {
	defer close(s.done)
	for p := range s.acks {
		if !p.token.WaitTimeout(s.timeout) {
			s.failed.Add(1)
			s.log.Warn().Str("topic", p.topic).Dur("timeout", s.timeout).Msg("publish not acknowledged")
			continue
		}
		if err := p.token.Error(); err != nil {
			s.failed.Add(1)
			s.log.Warn().Err(err).Str("topic", p.topic).Msg("publish failed")
			continue
		}
		s.published.Add(1)
	}
}

// Published returns the number of acknowledged messages.
func (s *Sink) Published() uint64 {
	return s.published.Load()
}

// Failed returns the number of messages that were not delivered.
func (s *Sink) Failed() uint64 {
	return s.failed.Load()
}
