// Package config loads the panel host configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"synthpanel/board"
	"synthpanel/core"
)

// Hardware platforms the host can drive.
const (
	HardwareSim  = "sim"
	HardwareRpio = "rpio"
)

// Config is the whole host configuration. Omitted keys keep the values of
// Default, except that pins default to the chosen hardware's wiring.
type Config struct {
	Hardware string `toml:"hardware"`

	Log     LogConfig     `toml:"log"`
	Scan    ScanConfig    `toml:"scan"`
	ADC     ADCConfig     `toml:"adc"`
	Buttons ButtonConfig  `toml:"buttons"`
	Encoder EncoderConfig `toml:"encoder"`
	MIDI    MIDIConfig    `toml:"midi"`
	Patches PatchConfig   `toml:"patches"`
	Metrics MetricsConfig `toml:"metrics"`
	MQTT    MQTTConfig    `toml:"mqtt"`
	Pins    board.Pins    `toml:"pins"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type ScanConfig struct {
	Interval   Duration `toml:"interval"`
	Settle     Duration `toml:"settle"`
	Hysteresis int      `toml:"hysteresis"`
}

type ADCConfig struct {
	Resolution      uint8  `toml:"resolution"`
	Averaging       uint8  `toml:"averaging"`
	ConversionSpeed string `toml:"conversion_speed"`
	SamplingSpeed   string `toml:"sampling_speed"`
}

type ButtonConfig struct {
	Debounce Duration `toml:"debounce"`
	Click    Duration `toml:"click"`
	Hold     Duration `toml:"hold"`
}

type EncoderConfig struct {
	Invert          bool `toml:"invert"`
	CountsPerDetent int  `toml:"counts_per_detent"`
}

// MIDIConfig describes the serial MIDI link. Channel is 1-based as printed
// on synthesizers.
type MIDIConfig struct {
	Device  string `toml:"device"`
	Baud    int    `toml:"baud"`
	Channel int    `toml:"channel"`
}

type PatchConfig struct {
	Dir  string `toml:"dir"`
	Slot int    `toml:"slot"` // recalled at start
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// MQTTConfig enables event mirroring to a broker when Broker is set.
type MQTTConfig struct {
	Broker   string `toml:"broker"` // tcp://host:1883
	ClientID string `toml:"client_id"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Prefix   string `toml:"prefix"`
	QoS      int    `toml:"qos"`
}

// Duration is a time.Duration written as a string such as "30ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var conversionSpeeds = map[string]core.ConversionSpeed{
	"very_low": core.ConversionVeryLow,
	"low":      core.ConversionLow,
	"medium":   core.ConversionMedium,
	"high":     core.ConversionHigh,
}

var samplingSpeeds = map[string]core.SamplingSpeed{
	"very_low": core.SamplingVeryLow,
	"low":      core.SamplingLow,
	"medium":   core.SamplingMedium,
	"high":     core.SamplingHigh,
}

// Default returns the reference board configuration.
func Default() *Config {
	timing := core.DefaultButtonTiming()
	return &Config{
		Hardware: HardwareSim,
		Log:      LogConfig{Level: "info"},
		Scan: ScanConfig{
			Interval:   Duration{time.Millisecond},
			Settle:     Duration{board.DefaultSettle},
			Hysteresis: core.DefaultHysteresis,
		},
		ADC: ADCConfig{
			Resolution:      10,
			Averaging:       32,
			ConversionSpeed: "very_low",
			SamplingSpeed:   "medium",
		},
		Buttons: ButtonConfig{
			Debounce: Duration{timing.Debounce},
			Click:    Duration{timing.Click},
			Hold:     Duration{timing.Hold},
		},
		Encoder: EncoderConfig{CountsPerDetent: core.DefaultCountsPerDetent},
		MIDI: MIDIConfig{
			Baud:    115200,
			Channel: 1,
		},
		Patches: PatchConfig{Dir: "patches"},
		MQTT: MQTTConfig{
			ClientID: "synthpanel",
			Prefix:   "synthpanel",
		},
		Pins: board.DefaultPins(),
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration held in memory.
func Parse(data string) (*Config, error) {
	var head struct {
		Hardware string `toml:"hardware"`
	}
	if _, err := toml.Decode(data, &head); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	if head.Hardware == HardwareRpio {
		cfg.Hardware = HardwareRpio
		cfg.Pins = board.PiPins()
	}
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return finish(cfg, md)
}

func finish(cfg *Config, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys %s", strings.Join(keys, ", "))
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills values that were written as zero.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Hardware == "" {
		cfg.Hardware = def.Hardware
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Scan.Interval.Duration == 0 {
		cfg.Scan.Interval = def.Scan.Interval
	}
	if cfg.Scan.Settle.Duration == 0 {
		cfg.Scan.Settle = def.Scan.Settle
	}
	if cfg.Scan.Hysteresis == 0 {
		cfg.Scan.Hysteresis = def.Scan.Hysteresis
	}
	if cfg.ADC.Resolution == 0 {
		cfg.ADC.Resolution = def.ADC.Resolution
	}
	if cfg.ADC.ConversionSpeed == "" {
		cfg.ADC.ConversionSpeed = def.ADC.ConversionSpeed
	}
	if cfg.ADC.SamplingSpeed == "" {
		cfg.ADC.SamplingSpeed = def.ADC.SamplingSpeed
	}
	if cfg.Buttons.Debounce.Duration == 0 {
		cfg.Buttons.Debounce = def.Buttons.Debounce
	}
	if cfg.Buttons.Click.Duration == 0 {
		cfg.Buttons.Click = def.Buttons.Click
	}
	if cfg.Buttons.Hold.Duration == 0 {
		cfg.Buttons.Hold = def.Buttons.Hold
	}
	if cfg.Encoder.CountsPerDetent == 0 {
		cfg.Encoder.CountsPerDetent = def.Encoder.CountsPerDetent
	}
	if cfg.MIDI.Baud == 0 {
		cfg.MIDI.Baud = def.MIDI.Baud
	}
	if cfg.MIDI.Channel == 0 {
		cfg.MIDI.Channel = def.MIDI.Channel
	}
	if cfg.Patches.Dir == "" {
		cfg.Patches.Dir = def.Patches.Dir
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = def.MQTT.ClientID
	}
	if cfg.MQTT.Prefix == "" {
		cfg.MQTT.Prefix = def.MQTT.Prefix
	}
}

// Validate reports every invalid setting at once. Errors wrap
// core.ErrConfigMismatch.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{core.ErrConfigMismatch}, args...)...))
	}

	if c.Hardware != HardwareSim && c.Hardware != HardwareRpio {
		bad("hardware %q is not %q or %q", c.Hardware, HardwareSim, HardwareRpio)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		bad("log level %q", c.Log.Level)
	}
	if c.Scan.Interval.Duration <= 0 {
		bad("scan interval %v must be positive", c.Scan.Interval)
	}
	if c.Scan.Settle.Duration < 0 {
		bad("settle time %v is negative", c.Scan.Settle)
	}
	if c.Scan.Hysteresis < 0 {
		bad("hysteresis %d is negative", c.Scan.Hysteresis)
	}
	if c.ADC.Resolution < 8 || c.ADC.Resolution > 16 {
		bad("ADC resolution %d outside 8..16 bits", c.ADC.Resolution)
	}
	switch c.ADC.Averaging {
	case 0, 4, 8, 16, 32:
	default:
		bad("ADC averaging %d not one of 0, 4, 8, 16, 32", c.ADC.Averaging)
	}
	if _, ok := conversionSpeeds[c.ADC.ConversionSpeed]; !ok {
		bad("conversion speed %q", c.ADC.ConversionSpeed)
	}
	if _, ok := samplingSpeeds[c.ADC.SamplingSpeed]; !ok {
		bad("sampling speed %q", c.ADC.SamplingSpeed)
	}
	if err := c.Timing().Validate(); err != nil {
		errs = append(errs, err)
	}
	if limit := c.Buttons.Debounce.Duration / 2; c.Scan.Interval.Duration > limit {
		bad("scan interval %v exceeds half the debounce time (%v)", c.Scan.Interval, limit)
	}
	if c.Encoder.CountsPerDetent < 1 {
		bad("counts per detent %d must be at least 1", c.Encoder.CountsPerDetent)
	}
	if c.MIDI.Channel < 1 || c.MIDI.Channel > 16 {
		bad("MIDI channel %d outside 1..16", c.MIDI.Channel)
	}
	if c.MIDI.Baud <= 0 {
		bad("MIDI baud %d must be positive", c.MIDI.Baud)
	}
	if c.Patches.Slot < 0 || c.Patches.Slot >= 128 {
		bad("patch slot %d outside 0..127", c.Patches.Slot)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		bad("MQTT qos %d outside 0..2", c.MQTT.QoS)
	}
	if strings.HasSuffix(c.MQTT.Prefix, "/") || strings.ContainsAny(c.MQTT.Prefix, "#+") {
		bad("MQTT prefix %q", c.MQTT.Prefix)
	}
	return errors.Join(errs...)
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Timing returns the button thresholds.
func (c *Config) Timing() core.ButtonTiming {
	return core.ButtonTiming{
		Debounce: c.Buttons.Debounce.Duration,
		Click:    c.Buttons.Click.Duration,
		Hold:     c.Buttons.Hold.Duration,
	}
}

// ADCSetup returns the converter configuration.
func (c *Config) ADCSetup() core.ADCConfig {
	return core.ADCConfig{
		Resolution:      c.ADC.Resolution,
		Averaging:       c.ADC.Averaging,
		ConversionSpeed: conversionSpeeds[c.ADC.ConversionSpeed],
		SamplingSpeed:   samplingSpeeds[c.ADC.SamplingSpeed],
	}
}

// MIDIChannel returns the 0-based channel number used on the wire.
func (c *Config) MIDIChannel() uint8 {
	return uint8(c.MIDI.Channel - 1)
}

// BoardOptions converts the acquisition settings for board.Build.
func (c *Config) BoardOptions(log *zerolog.Logger) board.Options {
	return board.Options{
		ADC:             c.ADCSetup(),
		Settle:          c.Scan.Settle.Duration,
		Hysteresis:      c.Scan.Hysteresis,
		Timing:          c.Timing(),
		CountsPerDetent: c.Encoder.CountsPerDetent,
		InvertEncoder:   c.Encoder.Invert,
		Logger:          log,
	}
}
