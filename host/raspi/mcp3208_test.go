package raspi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthpanel/core"
)

// fakeMCP answers conversions like the chip would, one 12-bit sample per
// channel.
type fakeMCP struct {
	values    [mcp3208Channels]uint16
	exchanges int
	floating  bool
	err       error
}

func (f *fakeMCP) Exchange(buf []byte) error {
	if f.err != nil {
		return f.err
	}
	f.exchanges++
	if f.floating {
		buf[0], buf[1], buf[2] = 0xff, 0xff, 0xff
		return nil
	}
	ch := (buf[0]&0x01)<<2 | buf[1]>>6
	v := f.values[ch]
	buf[0] = 0
	buf[1] = byte(v>>8) & 0x0f
	buf[2] = byte(v)
	return nil
}

func newMCP(t *testing.T, cfg core.ADCConfig) (*MCP3208, *fakeMCP) {
	t.Helper()
	spi := &fakeMCP{}
	d := NewMCP3208(spi)
	require.NoError(t, d.Init(cfg))
	for ch := core.ADCChannelID(0); ch < mcp3208Channels; ch++ {
		require.NoError(t, d.ConfigureChannel(ch))
	}
	return d, spi
}

func TestMCP3208ReducesToConfiguredResolution(t *testing.T) {
	d, spi := newMCP(t, core.ADCConfig{Resolution: 10, Averaging: 4})
	spi.values[1] = 2048
	spi.values[6] = 4095

	v, err := d.ReadRaw(1)
	require.NoError(t, err)
	assert.Equal(t, core.ADCValue(512), v)
	assert.Equal(t, 4, spi.exchanges, "one transfer per averaged sample")

	v, err = d.ReadRaw(6)
	require.NoError(t, err)
	assert.Equal(t, core.ADCValue(1023), v)
}

func TestMCP3208FullResolutionNoAveraging(t *testing.T) {
	d, spi := newMCP(t, core.ADCConfig{Resolution: 12})
	spi.values[5] = 1234

	v, err := d.ReadRaw(5)
	require.NoError(t, err)
	assert.Equal(t, core.ADCValue(1234), v)
	assert.Equal(t, 1, spi.exchanges)
}

func TestMCP3208NoResponseIsTimeout(t *testing.T) {
	d, spi := newMCP(t, core.DefaultADCConfig())
	spi.floating = true

	_, err := d.ReadRaw(0)
	assert.ErrorIs(t, err, core.ErrHardwareTimeout)
}

func TestMCP3208TransferError(t *testing.T) {
	d, spi := newMCP(t, core.DefaultADCConfig())
	busErr := errors.New("bus gone")
	spi.err = busErr

	_, err := d.ReadRaw(0)
	assert.ErrorIs(t, err, busErr)
}

func TestMCP3208ConfigErrors(t *testing.T) {
	d := NewMCP3208(&fakeMCP{})

	_, err := d.ReadRaw(0)
	assert.Error(t, err, "read before init")

	assert.ErrorIs(t, d.Init(core.ADCConfig{Resolution: 14}), core.ErrConfigMismatch)
	require.NoError(t, d.Init(core.DefaultADCConfig()))
	assert.ErrorIs(t, d.ConfigureChannel(8), core.ErrConfigMismatch)

	_, err = d.ReadRaw(2)
	assert.Error(t, err, "channel not configured")
}
