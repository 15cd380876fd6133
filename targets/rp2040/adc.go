//go:build rp2040

package main

import (
	"fmt"
	"machine"

	"synthpanel/core"
)

// machine.ADC.Get scales every result to 16 bits.
const adcNativeBits = 16

// RpAdcDriver implements core.ADCDriver using TinyGo's machine.ADC. The
// RP2040 has no averaging hardware, so ADCConfig.Averaging is done with
// core.Oversample.
type RpAdcDriver struct {
	cfg     core.ADCConfig
	samples int

	// Per-channel TinyGo ADC handles, ADC0-ADC3 on GPIO26-GPIO29.
	channels map[core.ADCChannelID]*machine.ADC
}

// NewRPAdcDriver constructs the driver but does not Init() it yet.
func NewRPAdcDriver() *RpAdcDriver {
	return &RpAdcDriver{
		channels: make(map[core.ADCChannelID]*machine.ADC),
	}
}

func (d *RpAdcDriver) Init(cfg core.ADCConfig) error {
	if cfg.Resolution == 0 || cfg.Resolution > adcNativeBits {
		return fmt.Errorf("%w: ADC resolution %d", core.ErrConfigMismatch, cfg.Resolution)
	}
	d.cfg = cfg
	d.samples = int(cfg.Averaging)
	if d.samples == 0 {
		d.samples = 1
	}

	machine.InitADC()
	return nil
}

// ConfigureChannel sets up a specific ADC channel (pin mux, etc.).
func (d *RpAdcDriver) ConfigureChannel(ch core.ADCChannelID) error {
	if _, ok := d.channels[ch]; ok {
		return nil
	}

	var adc machine.ADC
	switch ch {
	case 0:
		adc = machine.ADC{Pin: machine.ADC0}
	case 1:
		adc = machine.ADC{Pin: machine.ADC1}
	case 2:
		adc = machine.ADC{Pin: machine.ADC2}
	case 3:
		adc = machine.ADC{Pin: machine.ADC3}
	default:
		return fmt.Errorf("%w: unsupported ADC channel %d", core.ErrConfigMismatch, ch)
	}

	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}
	d.channels[ch] = &adc
	return nil
}

// ReadRaw averages the configured number of conversions and returns the
// result at the configured resolution.
func (d *RpAdcDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	adc, ok := d.channels[ch]
	if !ok {
		return 0, fmt.Errorf("ADC channel %d not configured", ch)
	}
	return core.Oversample(d.samples, adcNativeBits, d.cfg.Resolution, func() (uint16, error) {
		return adc.Get(), nil
	})
}
