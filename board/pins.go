package board

import "synthpanel/core"

// Pins is the electrical wiring. Field tags match the [pins] table of the
// configuration file.
type Pins struct {
	MuxA        [4]core.GPIOPin   `toml:"mux_a"`
	MuxB        [4]core.GPIOPin   `toml:"mux_b"`
	ADCChannelA core.ADCChannelID `toml:"adc_channel_a"`
	ADCChannelB core.ADCChannelID `toml:"adc_channel_b"`

	Demux       [4]core.GPIOPin `toml:"demux"`
	ChipSelect  [2]core.GPIOPin `toml:"chip_select"`
	SwitchLoad  core.GPIOPin    `toml:"switch_load"`
	SwitchClock core.GPIOPin    `toml:"switch_clock"`
	SwitchData  core.GPIOPin    `toml:"switch_data"`

	LEDData  core.GPIOPin `toml:"led_data"`
	LEDClock core.GPIOPin `toml:"led_clock"`
	LEDLatch core.GPIOPin `toml:"led_latch"`

	OutputData  core.GPIOPin `toml:"output_data"`
	OutputClock core.GPIOPin `toml:"output_clock"`
	OutputLatch core.GPIOPin `toml:"output_latch"`

	Save     core.GPIOPin `toml:"save"`
	Settings core.GPIOPin `toml:"settings"`
	Back     core.GPIOPin `toml:"back"`
	Recall   core.GPIOPin `toml:"recall"`

	EncoderA core.GPIOPin `toml:"encoder_a"`
	EncoderB core.GPIOPin `toml:"encoder_b"`
}

// DefaultPins returns the reference board wiring. Both multiplexers share
// one address bus and convert on two inputs of the same converter.
func DefaultPins() Pins {
	return Pins{
		MuxA:        [4]core.GPIOPin{28, 32, 30, 31},
		MuxB:        [4]core.GPIOPin{28, 32, 30, 31},
		ADCChannelA: 0,
		ADCChannelB: 1,

		Demux:       [4]core.GPIOPin{37, 36, 23, 22},
		ChipSelect:  [2]core.GPIOPin{19, 25},
		SwitchLoad:  33,
		SwitchClock: 34,
		SwitchData:  35,

		LEDData:  6,
		LEDClock: 7,
		LEDLatch: 8,

		OutputData:  9,
		OutputClock: 11,
		OutputLatch: 14,

		Save:     24,
		Settings: 12,
		Back:     10,
		Recall:   18,

		EncoderA: 4,
		EncoderB: 5,
	}
}

// SwitchChain returns the input scanner wiring for l.
func (p Pins) SwitchChain(l Layout) core.InputScannerConfig {
	return core.InputScannerConfig{
		Address:    p.Demux,
		ChipSelect: p.ChipSelect,
		Load:       p.SwitchLoad,
		Clock:      p.SwitchClock,
		Data:       p.SwitchData,
		Chips:      l.SwitchChips,
		Order:      core.MSBFirst,
		ActiveLow:  true,
	}
}

// LEDChain returns the LED chain wiring for l.
func (p Pins) LEDChain(l Layout) core.OutputDriverConfig {
	return core.OutputDriverConfig{Data: p.LEDData, Clock: p.LEDClock, Latch: p.LEDLatch, Chips: l.LEDChips}
}

// OutputChain returns the +5V output chain wiring for l.
func (p Pins) OutputChain(l Layout) core.OutputDriverConfig {
	return core.OutputDriverConfig{Data: p.OutputData, Clock: p.OutputClock, Latch: p.OutputLatch, Chips: l.OutputChips}
}

// PiPins returns the wiring of the Raspberry Pi carrier board, in BCM
// numbering. SPI0 carries the converter and both 595 chains share data and
// clock, each with its own latch. The encoder uses the ID EEPROM pins.
func PiPins() Pins {
	return Pins{
		MuxA:        [4]core.GPIOPin{2, 3, 4, 17},
		MuxB:        [4]core.GPIOPin{2, 3, 4, 17},
		ADCChannelA: 0,
		ADCChannelB: 1,

		Demux:       [4]core.GPIOPin{27, 22, 5, 6},
		ChipSelect:  [2]core.GPIOPin{13, 19},
		SwitchLoad:  26,
		SwitchClock: 20,
		SwitchData:  21,

		LEDData:  16,
		LEDClock: 12,
		LEDLatch: 25,

		OutputData:  16,
		OutputClock: 12,
		OutputLatch: 18,

		Save:     23,
		Settings: 24,
		Back:     14,
		Recall:   15,

		EncoderA: 0,
		EncoderB: 1,
	}
}

// PicoPins returns the wiring of the RP2040 firmware board. The muxes feed
// ADC0 and ADC1 (GPIO26, GPIO27) and the 595 chains share data and clock.
// GPIO28 is left for the MIDI UART.
func PicoPins() Pins {
	return Pins{
		MuxA:        [4]core.GPIOPin{2, 3, 4, 5},
		MuxB:        [4]core.GPIOPin{2, 3, 4, 5},
		ADCChannelA: 0,
		ADCChannelB: 1,

		Demux:       [4]core.GPIOPin{6, 7, 8, 9},
		ChipSelect:  [2]core.GPIOPin{10, 11},
		SwitchLoad:  12,
		SwitchClock: 13,
		SwitchData:  14,

		LEDData:  15,
		LEDClock: 16,
		LEDLatch: 17,

		OutputData:  15,
		OutputClock: 16,
		OutputLatch: 18,

		Save:     19,
		Settings: 20,
		Back:     21,
		Recall:   22,

		EncoderA: 0,
		EncoderB: 1,
	}
}
