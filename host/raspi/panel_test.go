package raspi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthpanel/board"
	"synthpanel/control"
	"synthpanel/core"
	"synthpanel/sim"
)

// busSPI charges the time of a 24-clock transfer at 1 MHz to the clock and
// runs scripted pin changes as their time passes.
type busSPI struct {
	fakeMCP
	clock     *sim.Clock
	transfers int
	script    []pinChange
}

type pinChange struct {
	at time.Duration
	do func()
}

const transferTime = 24 * time.Microsecond

func (s *busSPI) Exchange(buf []byte) error {
	s.clock.Advance(transferTime)
	s.transfers++
	for len(s.script) > 0 && s.script[0].at <= s.clock.Now() {
		s.script[0].do()
		s.script = s.script[1:]
	}
	return s.fakeMCP.Exchange(buf)
}

func TestPiPanelMeetsButtonAndEncoderCadence(t *testing.T) {
	ms := time.Millisecond
	clock := sim.NewClock()
	hw := sim.NewBoard(clock)
	pins := board.PiPins()
	layout := board.DefaultLayout()
	hw.AttachShiftIn(pins.SwitchChain(layout))
	hw.AttachShiftOut(pins.LEDChain(layout))
	hw.AttachShiftOut(pins.OutputChain(layout))

	spi := &busSPI{clock: clock}
	spi.script = []pinChange{
		{50 * ms, func() { hw.SetLevel(pins.Save, false) }},
		{90 * ms, func() { hw.SetLevel(pins.Save, true) }},
		{150 * ms, func() { hw.SetLevel(pins.EncoderA, false) }},
		{153 * ms, func() { hw.SetLevel(pins.EncoderB, false) }},
		{156 * ms, func() { hw.SetLevel(pins.EncoderA, true) }},
		{159 * ms, func() { hw.SetLevel(pins.EncoderB, true) }},
	}

	panel, err := board.Build(board.Hardware{GPIO: hw, Clock: clock, ADCA: NewMCP3208(spi)}, pins, layout,
		board.Options{ADC: core.DefaultADCConfig()})
	require.NoError(t, err)
	require.NoError(t, panel.Scanner.Init())

	var clicks []control.Button
	detents := 0
	panel.Scanner.AddSink(core.SinkFunc(func(ev core.Event) {
		switch e := ev.(type) {
		case core.ButtonClicked:
			clicks = append(clicks, e.Button)
		case core.EncoderStep:
			detents += e.Delta
		}
	}))

	require.NoError(t, panel.Scanner.Scan())
	assert.Equal(t, len(layout.Analog)*int(core.DefaultADCConfig().Averaging), spi.transfers)
	require.Greater(t, clock.Now(), core.DefaultDebounce/2, "the analog pass alone is longer than half the debounce time")

	for clock.Now() < 250*ms {
		require.NoError(t, panel.Scanner.Scan())
	}
	assert.Equal(t, []control.Button{control.ButtonSave}, clicks, "a 40ms press is a click")
	assert.Equal(t, 1, detents)
}
