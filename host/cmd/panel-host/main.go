package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gitlab.com/gomidi/midi/v2"

	"synthpanel/board"
	"synthpanel/config"
	"synthpanel/core"
	"synthpanel/host/serial"
	"synthpanel/midiout"
	"synthpanel/mqttout"
	"synthpanel/store"
)

var (
	configPath = flag.String("config", "", "Path to panel.toml (defaults apply when empty)")
	simulate   = flag.Bool("simulate", false, "Drive a simulated panel from stdin instead of hardware")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *simulate {
		cfg.Hardware = config.HardwareSim
	}

	level := cfg.LogLevel()
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	if err := run(cfg, &logger); err != nil {
		logger.Error().Err(err).Msg("panel host stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zerolog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		hw    board.Hardware
		simHW *simPanel
	)
	switch cfg.Hardware {
	case config.HardwareSim:
		simHW = newSimPanel(cfg.Pins, core.NewSystemClock())
		hw = simHW.hardware()
	default:
		pi, closeHW, err := openPi(cfg)
		if err != nil {
			return err
		}
		defer closeHW()
		hw = pi
	}

	persister, err := store.NewFilePersister(cfg.Patches.Dir)
	if err != nil {
		return err
	}

	send, closeMIDI, err := openMIDI(cfg, log)
	if err != nil {
		return err
	}
	defer closeMIDI()

	var pub mqttout.Publisher
	if cfg.MQTT.Broker != "" {
		client, err := mqttout.Connect(ctx, mqttout.ClientConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			User:     cfg.MQTT.User,
			Password: cfg.MQTT.Password,
		}, log)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		pub = client
	}

	reg := prometheus.NewRegistry()
	a, err := newApp(cfg, hw, persister, send, pub, reg, log)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.start(); err != nil {
		return err
	}

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("listen", cfg.Metrics.Listen).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
		log.Info().Str("listen", cfg.Metrics.Listen).Msg("serving metrics")
	}

	if simHW != nil {
		go func() {
			runConsole(os.Stdin, os.Stdout, simHW, a)
			cancel()
		}()
	}

	log.Info().
		Str("hardware", cfg.Hardware).
		Int("midi_channel", cfg.MIDI.Channel).
		Int("slot", a.saves.Slot()).
		Msg("panel host running")
	return a.run(ctx)
}

// openMIDI opens the serial MIDI link. Without a device, messages are only
// logged at debug level.
func openMIDI(cfg *config.Config, log *zerolog.Logger) (midiout.SendFunc, func(), error) {
	if cfg.MIDI.Device == "" {
		log.Warn().Msg("no MIDI device configured, CC output is discarded")
		return func(msg midi.Message) error {
			log.Debug().Stringer("msg", msg).Msg("MIDI")
			return nil
		}, func() {}, nil
	}

	sc := serial.DefaultConfig(cfg.MIDI.Device)
	sc.Baud = cfg.MIDI.Baud
	port, err := serial.Open(sc)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("device", sc.Device).Int("baud", sc.Baud).Msg("MIDI link open")
	return midiout.WriterSender(port), func() { closeQuietly(port) }, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
