package board

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"synthpanel/control"
	"synthpanel/core"
)

// DefaultSettle is the multiplexer settling time before a conversion.
const DefaultSettle = 5 * time.Microsecond

// Hardware is what a platform supplies to build a panel.
type Hardware struct {
	GPIO  core.GPIODriver
	Clock core.Clock

	// ADCA converts bank A; ADCB bank B. When ADCB is nil both banks use
	// ADCA on their own channels.
	ADCA core.ADCDriver
	ADCB core.ADCDriver

	// Encoder is a hardware quadrature counter. When nil the encoder pins
	// are polled by the scanner.
	Encoder core.QuadratureCounter
}

// Options tunes acquisition. Zero fields take the defaults.
type Options struct {
	ADC             core.ADCConfig
	Settle          time.Duration
	Hysteresis      int
	Timing          core.ButtonTiming
	CountsPerDetent int
	InvertEncoder   bool
	Logger          *zerolog.Logger
	Observer        core.ScanObserver
}

// Panel is an assembled control surface.
type Panel struct {
	Scanner *core.Scanner
	Encoder *core.Encoder
	LEDs    *core.OutputBuffer
	Outputs *core.OutputBuffer
	Layout  Layout
	Pins    Pins
}

// Build validates layout and wires every subsystem onto hw.
func Build(hw Hardware, pins Pins, layout Layout, opts Options) (*Panel, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if hw.GPIO == nil || hw.Clock == nil || hw.ADCA == nil {
		return nil, mismatch("hardware needs GPIO, clock and converter")
	}
	if opts.Settle == 0 {
		opts.Settle = DefaultSettle
	}
	if opts.CountsPerDetent == 0 {
		opts.CountsPerDetent = core.DefaultCountsPerDetent
	}

	adcB := hw.ADCB
	if adcB == nil {
		adcB = hw.ADCA
	}
	analog, err := core.NewAnalogReader(hw.GPIO, hw.Clock, [core.NumBanks]core.AnalogBank{
		{Address: pins.MuxA, ADC: hw.ADCA, Channel: pins.ADCChannelA},
		{Address: pins.MuxB, ADC: adcB, Channel: pins.ADCChannelB},
	}, opts.Settle)
	if err != nil {
		return nil, fmt.Errorf("analog reader: %w", err)
	}

	adcCfg := opts.ADC
	if adcCfg.Resolution == 0 {
		adcCfg = core.DefaultADCConfig()
	}
	channels := make([]core.ChannelConfig, 0, len(layout.Analog))
	for _, a := range layout.Analog {
		channels = append(channels, core.ChannelConfig{
			Bank:  a.Bank,
			Index: a.Index,
			Param: a.Param,
			Scale: control.ScaleFor(a.Param),
		})
	}

	var inputs []core.InputChain
	if len(layout.Switches) > 0 {
		in, err := core.NewInputScanner(hw.GPIO, pins.SwitchChain(layout))
		if err != nil {
			return nil, fmt.Errorf("switch chain: %w", err)
		}
		bits := make([]core.SwitchBit, 0, len(layout.Switches))
		for _, s := range layout.Switches {
			// Panel switches are momentary; the latch lives in software.
			bits = append(bits, core.SwitchBit{Switch: s.Switch, Position: s.Position, Momentary: true})
		}
		inputs = append(inputs, core.InputChain{Scanner: in, Bits: bits})
	}

	ledDriver, err := core.NewOutputDriver(hw.GPIO, pins.LEDChain(layout))
	if err != nil {
		return nil, fmt.Errorf("LED chain: %w", err)
	}
	outDriver, err := core.NewOutputDriver(hw.GPIO, pins.OutputChain(layout))
	if err != nil {
		return nil, fmt.Errorf("output chain: %w", err)
	}
	p := &Panel{
		LEDs:    core.NewOutputBuffer(ledDriver.Bits()),
		Outputs: core.NewOutputBuffer(outDriver.Bits()),
		Layout:  layout,
		Pins:    pins,
	}

	counter := hw.Encoder
	if counter == nil {
		q, err := core.NewPinQuadrature(hw.GPIO, pins.EncoderA, pins.EncoderB)
		if err != nil {
			return nil, fmt.Errorf("encoder pins: %w", err)
		}
		counter = q
	}
	p.Encoder, err = core.NewEncoder(counter, opts.CountsPerDetent, opts.InvertEncoder)
	if err != nil {
		return nil, err
	}

	p.Scanner, err = core.NewScanner(core.ScannerConfig{
		GPIO:       hw.GPIO,
		Clock:      hw.Clock,
		Analog:     analog,
		ADC:        adcCfg,
		Hysteresis: opts.Hysteresis,
		Channels:   channels,
		Inputs:     inputs,
		Buttons: []core.ButtonConfig{
			{Button: control.ButtonSave, Pin: pins.Save, ActiveLow: true},
			{Button: control.ButtonSettings, Pin: pins.Settings, ActiveLow: true},
			{Button: control.ButtonBack, Pin: pins.Back, ActiveLow: true},
			{Button: control.ButtonRecall, Pin: pins.Recall, ActiveLow: true},
		},
		Timing:  opts.Timing,
		Encoder: p.Encoder,
		Outputs: []core.OutputChain{
			{Name: "leds", Driver: ledDriver, Buffer: p.LEDs},
			{Name: "outputs", Driver: outDriver, Buffer: p.Outputs},
		},
		Logger:   opts.Logger,
		Observer: opts.Observer,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetLED changes an LED; it is latched at the end of the next scan.
func (p *Panel) SetLED(led control.LED, on bool) {
	if int(led) < control.NumLEDs {
		p.LEDs.Set(p.Layout.LEDs[led], on)
	}
}

// SetOutput changes a +5V line; it is latched at the end of the next scan.
func (p *Panel) SetOutput(o control.Output, on bool) {
	if int(o) < control.NumOutputs {
		p.Outputs.Set(p.Layout.Outputs[o], on)
	}
}

// LED reports an LED's requested state.
func (p *Panel) LED(led control.LED) bool {
	return int(led) < control.NumLEDs && p.LEDs.Get(p.Layout.LEDs[led])
}

// Output reports a +5V line's requested state.
func (p *Panel) Output(o control.Output) bool {
	return int(o) < control.NumOutputs && p.Outputs.Get(p.Layout.Outputs[o])
}
