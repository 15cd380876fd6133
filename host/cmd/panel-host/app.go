package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"synthpanel/board"
	"synthpanel/config"
	"synthpanel/control"
	"synthpanel/core"
	"synthpanel/metrics"
	"synthpanel/midiout"
	"synthpanel/mqttout"
	"synthpanel/store"
)

// app is the assembled control surface and its consumers. Events flow from
// the scanner through the latch controller to the store, the save flow, the
// MIDI link, the metrics collector and, when a broker is configured, MQTT.
type app struct {
	cfg     *config.Config
	log     *zerolog.Logger
	panel   *board.Panel
	latch   *board.Controller
	store   *store.Store
	saves   *store.SaveController
	midi    *midiout.Sink
	mqtt    *mqttout.Sink
	metrics *metrics.Collector
}

// newApp wires the panel. pub may be nil to disable MQTT mirroring.
func newApp(cfg *config.Config, hw board.Hardware, persister store.Persister, send midiout.SendFunc, pub mqttout.Publisher, reg prometheus.Registerer, log *zerolog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		store:   store.New(),
		metrics: metrics.New(reg),
	}

	opts := cfg.BoardOptions(log)
	opts.Observer = a.metrics
	panel, err := board.Build(hw, cfg.Pins, board.DefaultLayout(), opts)
	if err != nil {
		return nil, fmt.Errorf("build panel: %w", err)
	}
	a.panel = panel

	toggles := make([]control.Param, 0, len(panel.Layout.Switches))
	for _, s := range panel.Layout.Switches {
		toggles = append(toggles, s.Param)
	}
	a.midi = midiout.New(send, midiout.Options{
		Channel:    cfg.MIDIChannel(),
		Resolution: cfg.ADC.Resolution,
		Logger:     log,
		Toggles:    toggles,
	})
	a.metrics.WatchMIDI(a.midi.Sent, a.midi.Failed)

	a.saves = store.NewSaveController(a.store, persister,
		store.WithSeeder(panel.Scanner),
		store.WithRecallSink(core.SinkFunc(func(ev core.Event) { a.latch.HandleEvent(ev) })),
		store.WithLogger(log),
	)
	a.saves.SelectSlot(cfg.Patches.Slot)

	sinks := core.Fanout{a.store, a.saves, a.midi, a.metrics}
	if pub != nil {
		a.mqtt = mqttout.New(pub, mqttout.Options{
			Prefix: cfg.MQTT.Prefix,
			QoS:    byte(cfg.MQTT.QoS),
			Logger: log,
		})
		sinks = append(sinks, a.mqtt)
	}
	a.latch = board.NewController(panel, sinks)
	panel.Scanner.AddSink(a.latch)
	return a, nil
}

// start initializes the hardware and loads the configured patch. Knobs are
// then resynced so the first scan reports where they really are.
func (a *app) start() error {
	if err := a.panel.Scanner.Init(); err != nil {
		return fmt.Errorf("init panel: %w", err)
	}
	if err := a.saves.Recall(); err != nil && !errors.Is(err, store.ErrEmptySlot) {
		return fmt.Errorf("recall slot %d: %w", a.saves.Slot(), err)
	}
	a.panel.Scanner.Resync()
	return nil
}

func (a *app) run(ctx context.Context) error {
	return a.panel.Scanner.Run(ctx, a.cfg.Scan.Interval.Duration)
}

// close flushes what the scan loop left behind. Call it after run returns.
func (a *app) close() {
	if a.mqtt != nil {
		a.mqtt.Close()
	}
}
