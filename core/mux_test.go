package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthpanel/core"
	"synthpanel/sim"
)

const settle = 5 * time.Microsecond

var sharedBus = [4]core.GPIOPin{28, 32, 30, 31}

type analogRig struct {
	clock  *sim.Clock
	board  *sim.Board
	adc    *sim.ADC
	muxes  [core.NumBanks]*sim.Mux
	reader *core.AnalogReader
}

func newAnalogRig(t *testing.T, busA, busB [4]core.GPIOPin, readerSettle time.Duration) *analogRig {
	t.Helper()
	r := &analogRig{clock: sim.NewClock()}
	r.board = sim.NewBoard(r.clock)
	r.adc = r.board.NewADC(settle)
	r.muxes[core.BankA] = r.board.NewMux(busA)
	r.muxes[core.BankB] = r.board.NewMux(busB)
	r.adc.Connect(0, r.muxes[core.BankA])
	r.adc.Connect(1, r.muxes[core.BankB])

	var err error
	r.reader, err = core.NewAnalogReader(r.board, r.clock, [core.NumBanks]core.AnalogBank{
		{Address: busA, ADC: r.adc, Channel: 0},
		{Address: busB, ADC: r.adc, Channel: 1},
	}, readerSettle)
	require.NoError(t, err)
	require.NoError(t, r.reader.Init(core.DefaultADCConfig()))
	return r
}

func TestAnalogReaderReadsEveryChannel(t *testing.T) {
	r := newAnalogRig(t, sharedBus, sharedBus, settle)
	for i := 0; i < core.ChannelsPerBank; i++ {
		r.muxes[core.BankA].SetRaw(i, core.ADCValue(i*10))
		r.muxes[core.BankB].SetRaw(i, core.ADCValue(1000-i))
	}

	for i := 0; i < core.ChannelsPerBank; i++ {
		a, err := r.reader.Read(core.BankA, i)
		require.NoError(t, err)
		b, err := r.reader.Read(core.BankB, i)
		require.NoError(t, err)
		assert.Equal(t, core.ADCValue(i*10), a)
		assert.Equal(t, core.ADCValue(1000-i), b)
	}
	assert.Zero(t, r.adc.Violations())
}

func TestAnalogReaderHonoursSettle(t *testing.T) {
	r := newAnalogRig(t, sharedBus, sharedBus, settle)
	r.clock.Advance(time.Millisecond)

	_, err := r.reader.Read(core.BankA, 9)
	require.NoError(t, err)
	slept, _ := r.clock.Slept()
	assert.Equal(t, settle, slept)

	// Same address again: nothing changed, nothing to wait for.
	_, err = r.reader.Read(core.BankA, 9)
	require.NoError(t, err)
	slept2, _ := r.clock.Slept()
	assert.Equal(t, slept, slept2)
	assert.Zero(t, r.adc.Violations())
}

func TestAnalogReaderWithoutSettleViolates(t *testing.T) {
	r := newAnalogRig(t, sharedBus, sharedBus, 0)
	r.clock.Advance(time.Millisecond)

	_, err := r.reader.Read(core.BankA, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.adc.Violations(), "simulated converter flags early reads")
}

func TestAnalogReaderSkipsUnchangedLines(t *testing.T) {
	r := newAnalogRig(t, sharedBus, sharedBus, settle)
	before := r.board.Writes(sharedBus[0])

	require.NoError(t, r.reader.Select(core.BankA, 2)) // only bit 1 changes
	require.NoError(t, r.reader.Select(core.BankB, 2)) // shared bus already there
	assert.Equal(t, before, r.board.Writes(sharedBus[0]))
	assert.Equal(t, 2, r.muxes[core.BankA].Selected())
	assert.Equal(t, 2, r.muxes[core.BankB].Selected())
}

func TestAnalogReaderSeparateBuses(t *testing.T) {
	busB := [4]core.GPIOPin{40, 41, 42, 43}
	r := newAnalogRig(t, sharedBus, busB, settle)
	r.muxes[core.BankA].SetRaw(3, 300)
	r.muxes[core.BankB].SetRaw(12, 1200)

	require.NoError(t, r.reader.Select(core.BankA, 3))
	require.NoError(t, r.reader.Select(core.BankB, 12))
	a, err := r.reader.ReadRaw(core.BankA)
	require.NoError(t, err)
	b, err := r.reader.ReadRaw(core.BankB)
	require.NoError(t, err)

	assert.Equal(t, core.ADCValue(300), a)
	assert.Equal(t, core.ADCValue(1200), b)
	assert.Zero(t, r.adc.Violations())
}

func TestAnalogReaderRange(t *testing.T) {
	r := newAnalogRig(t, sharedBus, sharedBus, settle)
	assert.Error(t, r.reader.Select(core.BankA, 16))
	assert.Error(t, r.reader.Select(core.Bank(2), 0))
	_, err := r.reader.ReadRaw(core.Bank(3))
	assert.Error(t, err)
}

func TestAnalogReaderTimeout(t *testing.T) {
	r := newAnalogRig(t, sharedBus, sharedBus, settle)
	r.adc.FailAfter(0)

	_, err := r.reader.Read(core.BankA, 0)
	assert.ErrorIs(t, err, core.ErrHardwareTimeout)

	_, err = r.reader.Read(core.BankA, 0)
	assert.NoError(t, err)
}

func TestAnalogReaderWiringErrors(t *testing.T) {
	clock := sim.NewClock()
	board := sim.NewBoard(clock)
	adc := board.NewADC(settle)

	tests := []struct {
		name  string
		banks [core.NumBanks]core.AnalogBank
	}{
		{"partial bus overlap", [core.NumBanks]core.AnalogBank{
			{Address: sharedBus, ADC: adc, Channel: 0},
			{Address: [4]core.GPIOPin{28, 50, 51, 52}, ADC: adc, Channel: 1},
		}},
		{"same converter channel", [core.NumBanks]core.AnalogBank{
			{Address: sharedBus, ADC: adc, Channel: 0},
			{Address: sharedBus, ADC: adc, Channel: 0},
		}},
		{"repeated address pin", [core.NumBanks]core.AnalogBank{
			{Address: [4]core.GPIOPin{1, 1, 2, 3}, ADC: adc, Channel: 0},
			{Address: [4]core.GPIOPin{4, 5, 6, 7}, ADC: adc, Channel: 1},
		}},
		{"missing converter", [core.NumBanks]core.AnalogBank{
			{Address: sharedBus, ADC: adc, Channel: 0},
			{Address: sharedBus, Channel: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.NewAnalogReader(board, clock, tt.banks, settle)
			assert.ErrorIs(t, err, core.ErrConfigMismatch)
		})
	}
}
