//go:build linux

package main

import (
	"synthpanel/board"
	"synthpanel/config"
	"synthpanel/core"
	"synthpanel/host/raspi"
)

// mcp3208SpeedHz is the converter's clock limit at 2.7V.
const mcp3208SpeedHz = 1_000_000

// openPi maps the Raspberry Pi GPIO block and the converter on SPI0 CE0.
func openPi(cfg *config.Config) (board.Hardware, func(), error) {
	gpio, err := raspi.Open()
	if err != nil {
		return board.Hardware{}, nil, err
	}
	spi, err := raspi.OpenSPI(mcp3208SpeedHz, 0)
	if err != nil {
		_ = gpio.Close()
		return board.Hardware{}, nil, err
	}
	closeHW := func() {
		spi.Close()
		_ = gpio.Close()
	}
	return board.Hardware{
		GPIO:  gpio,
		Clock: core.NewSystemClock(),
		ADCA:  raspi.NewMCP3208(spi),
	}, closeHW, nil
}
