package raspi

import (
	"fmt"
	"sync"

	"synthpanel/core"
)

const (
	mcp3208Bits     = 12
	mcp3208Channels = 8
)

// SPI is a full-duplex transfer on the converter's chip select. buf is sent
// and overwritten with the bytes received.
type SPI interface {
	Exchange(buf []byte) error
}

// MCP3208 implements core.ADCDriver for an MCP3208 on an SPI bus. The chip
// has no averaging of its own, so ADCConfig.Averaging is done in software.
type MCP3208 struct {
	mu         sync.Mutex
	spi        SPI
	cfg        core.ADCConfig
	samples    int
	ready      bool
	configured [mcp3208Channels]bool
}

// NewMCP3208 constructs the driver but does not Init() it yet.
func NewMCP3208(spi SPI) *MCP3208 {
	return &MCP3208{spi: spi}
}

func (d *MCP3208) Init(cfg core.ADCConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cfg.Resolution == 0 || cfg.Resolution > mcp3208Bits {
		return fmt.Errorf("%w: MCP3208 resolution %d outside 1..%d bits", core.ErrConfigMismatch, cfg.Resolution, mcp3208Bits)
	}
	d.cfg = cfg
	d.samples = int(cfg.Averaging)
	if d.samples == 0 {
		d.samples = 1
	}
	d.ready = true
	return nil
}

func (d *MCP3208) ConfigureChannel(ch core.ADCChannelID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if int(ch) >= mcp3208Channels {
		return fmt.Errorf("%w: MCP3208 has no channel %d", core.ErrConfigMismatch, ch)
	}
	d.configured[ch] = true
	return nil
}

// ReadRaw converts ch in single-ended mode. A set null bit means nothing
// drove MISO, which is reported as a timeout.
func (d *MCP3208) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return 0, fmt.Errorf("MCP3208 not initialized")
	}
	if int(ch) >= mcp3208Channels || !d.configured[ch] {
		return 0, fmt.Errorf("MCP3208 channel %d not configured", ch)
	}
	return core.Oversample(d.samples, mcp3208Bits, d.cfg.Resolution, func() (uint16, error) {
		return d.convert(ch)
	})
}

func (d *MCP3208) convert(ch core.ADCChannelID) (uint16, error) {
	// start bit, single-ended, D2 | D1 D0 | don't care
	buf := []byte{0x06 | byte(ch>>2), byte(ch&3) << 6, 0}
	if err := d.spi.Exchange(buf); err != nil {
		return 0, fmt.Errorf("MCP3208 channel %d: %w", ch, err)
	}
	if buf[1]&0x10 != 0 {
		return 0, fmt.Errorf("MCP3208 channel %d: no response: %w", ch, core.ErrHardwareTimeout)
	}
	return uint16(buf[1]&0x0f)<<8 | uint16(buf[2]), nil
}
