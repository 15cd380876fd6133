// Package metrics exports scan loop and event counters to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"synthpanel/core"
)

var subsystems = []core.Subsystem{
	core.SubsystemAnalog,
	core.SubsystemInputs,
	core.SubsystemButtons,
	core.SubsystemEncoder,
	core.SubsystemOutputs,
}

// Collector counts events and scan cycles. It is both a core.Sink and a
// core.ScanObserver.
type Collector struct {
	factory promauto.Factory

	scanCycles    prometheus.Counter
	scanDuration  prometheus.Histogram
	scanFaults    *prometheus.CounterVec
	failing       *prometheus.GaugeVec
	events        *prometheus.CounterVec
	paramChanges  *prometheus.CounterVec
	encoderDetent prometheus.Counter
}

// New registers the panel metrics with reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	c := &Collector{
		factory: f,

		scanCycles: f.NewCounter(
			prometheus.CounterOpts{
				Name: "synthpanel_scan_cycles_total",
				Help: "Total number of completed scan cycles",
			},
		),
		scanDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "synthpanel_scan_duration_seconds",
				Help:    "Time spent in one scan cycle",
				Buckets: prometheus.ExponentialBuckets(50e-6, 2, 10),
			},
		),
		scanFaults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthpanel_scan_faults_total",
				Help: "Total number of cycles in which a subsystem failed",
			},
			[]string{"subsystem"},
		),
		failing: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "synthpanel_subsystem_failing",
				Help: "1 while a subsystem failed on the last cycle",
			},
			[]string{"subsystem"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthpanel_events_total",
				Help: "Total number of events emitted, by type",
			},
			[]string{"type"},
		),
		paramChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthpanel_parameter_changes_total",
				Help: "Total number of parameter changes, by source",
			},
			[]string{"source"},
		),
		encoderDetent: f.NewCounter(
			prometheus.CounterOpts{
				Name: "synthpanel_encoder_detents_total",
				Help: "Total number of encoder detents in either direction",
			},
		),
	}
	for _, sub := range subsystems {
		c.scanFaults.WithLabelValues(string(sub))
		c.failing.WithLabelValues(string(sub)).Set(0)
	}
	return c
}

// ObserveScan implements core.ScanObserver.
func (c *Collector) ObserveScan(cycle uint64, elapsed time.Duration, err error) {
	c.scanCycles.Inc()
	c.scanDuration.Observe(elapsed.Seconds())

	failed := make(map[core.Subsystem]bool)
	for _, e := range flatten(err) {
		var serr *core.SubsystemError
		if errors.As(e, &serr) {
			failed[serr.Subsystem] = true
		}
	}
	for _, sub := range subsystems {
		if failed[sub] {
			c.scanFaults.WithLabelValues(string(sub)).Inc()
			c.failing.WithLabelValues(string(sub)).Set(1)
		} else {
			c.failing.WithLabelValues(string(sub)).Set(0)
		}
	}
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// HandleEvent implements core.Sink.
func (c *Collector) HandleEvent(ev core.Event) {
	switch e := ev.(type) {
	case core.ParameterChanged:
		c.events.WithLabelValues("parameter_changed").Inc()
		c.paramChanges.WithLabelValues(sourceLabel(e.Source)).Inc()
	case core.SwitchChanged:
		c.events.WithLabelValues("switch_changed").Inc()
	case core.ButtonPressed:
		c.events.WithLabelValues("button_pressed").Inc()
	case core.ButtonClicked:
		c.events.WithLabelValues("button_clicked").Inc()
	case core.ButtonHeld:
		c.events.WithLabelValues("button_held").Inc()
	case core.ButtonReleased:
		c.events.WithLabelValues("button_released").Inc()
	case core.EncoderStep:
		c.events.WithLabelValues("encoder_step").Inc()
		d := e.Delta
		if d < 0 {
			d = -d
		}
		c.encoderDetent.Add(float64(d))
	}
}

func sourceLabel(s core.Source) string {
	switch s {
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

// WatchMIDI exports the message counters of a MIDI sink.
func (c *Collector) WatchMIDI(sent, failed func() uint64) {
	c.factory.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "synthpanel_midi_messages_sent_total",
			Help: "Total number of MIDI messages written to the link",
		},
		func() float64 { return float64(sent()) },
	)
	c.factory.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "synthpanel_midi_messages_failed_total",
			Help: "Total number of MIDI messages the link rejected",
		},
		func() float64 { return float64(failed()) },
	)
}
