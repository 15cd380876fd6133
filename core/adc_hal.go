package core

import "errors"

// ADCChannelID identifies a logical ADC input on a converter.
type ADCChannelID uint8

// ADCValue is a conversion result at the configured resolution.
type ADCValue uint16

// ConversionSpeed trades conversion time for noise.
type ConversionSpeed uint8

const (
	ConversionVeryLow ConversionSpeed = iota
	ConversionLow
	ConversionMedium
	ConversionHigh
)

// SamplingSpeed sets the sample-and-hold acquisition time.
type SamplingSpeed uint8

const (
	SamplingVeryLow SamplingSpeed = iota
	SamplingLow
	SamplingMedium
	SamplingHigh
)

// ADCConfig is the converter setup the scanner asks for.
type ADCConfig struct {
	Resolution      uint8 // bits per result
	Averaging       uint8 // samples averaged per result: 0, 4, 8, 16 or 32
	ConversionSpeed ConversionSpeed
	SamplingSpeed   SamplingSpeed
}

// DefaultADCConfig returns 10-bit results averaged over 32 samples at a slow
// conversion and medium sampling speed.
func DefaultADCConfig() ADCConfig {
	return ADCConfig{
		Resolution:      10,
		Averaging:       32,
		ConversionSpeed: ConversionVeryLow,
		SamplingSpeed:   SamplingMedium,
	}
}

// MaxValue returns the full-scale result for the configured resolution.
func (c ADCConfig) MaxValue() int {
	return 1<<c.Resolution - 1
}

// ADCDriver is the abstract ADC interface that core code uses.
type ADCDriver interface {
	// Init powers up and configures the ADC peripheral.
	Init(cfg ADCConfig) error

	// ConfigureChannel prepares a channel for analog input.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw performs one (possibly averaged) conversion on ch and returns it
	// at the configured resolution. A conversion that does not complete in
	// bounded time returns an error wrapping ErrHardwareTimeout.
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}

var errBadAveraging = errors.New("oversample count must be positive")

// Oversample sums n native samples of fromBits resolution and reduces the mean
// to toBits. Drivers without averaging hardware use it to honour
// ADCConfig.Averaging.
func Oversample(n int, fromBits, toBits uint8, read func() (uint16, error)) (ADCValue, error) {
	if n <= 0 {
		return 0, errBadAveraging
	}

	var sum uint32
	for i := 0; i < n; i++ {
		v, err := read()
		if err != nil {
			return 0, err
		}
		sum += uint32(v)
	}

	mean := sum / uint32(n)
	switch {
	case fromBits > toBits:
		mean >>= fromBits - toBits
	case toBits > fromBits:
		mean <<= toBits - fromBits
	}
	return ADCValue(mean), nil
}
