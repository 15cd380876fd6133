//go:build linux

// Package raspi drives the panel from a Raspberry Pi header through
// github.com/stianeikeland/go-rpio.
package raspi

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"

	"synthpanel/core"
)

// maxPin is the highest BCM GPIO routed to the 40-pin header.
const maxPin = 27

// GPIODriver implements core.GPIODriver on the BCM283x GPIO block.
type GPIODriver struct{}

// Open maps the GPIO registers. Close releases them.
func Open() (*GPIODriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open GPIO memory: %w", err)
	}
	return &GPIODriver{}, nil
}

func (d *GPIODriver) Close() error {
	return rpio.Close()
}

func checkPin(pin core.GPIOPin) (rpio.Pin, error) {
	if pin > maxPin {
		return 0, fmt.Errorf("%w: GPIO %d is not on the header", core.ErrConfigMismatch, pin)
	}
	return rpio.Pin(pin), nil
}

func (d *GPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	p, err := checkPin(pin)
	if err != nil {
		return err
	}
	p.Output()
	p.Low()
	return nil
}

func (d *GPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	p, err := checkPin(pin)
	if err != nil {
		return err
	}
	p.Input()
	p.PullUp()
	return nil
}

func (d *GPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	p, err := checkPin(pin)
	if err != nil {
		return err
	}
	p.Input()
	p.PullDown()
	return nil
}

func (d *GPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, err := checkPin(pin)
	if err != nil {
		return err
	}
	if value {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (d *GPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	p, err := checkPin(pin)
	if err != nil {
		return false, err
	}
	return p.Read() == rpio.High, nil
}

// SPIBus is SPI0 with one chip select, as used by the converter.
type SPIBus struct {
	dev rpio.SpiDev
}

// OpenSPI starts SPI0 at speed Hz on chip select cs. The GPIO registers must
// already be open.
func OpenSPI(speed int, cs uint8) (*SPIBus, error) {
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return nil, fmt.Errorf("start SPI0: %w", err)
	}
	rpio.SpiSpeed(speed)
	rpio.SpiChipSelect(cs)
	return &SPIBus{dev: rpio.Spi0}, nil
}

func (b *SPIBus) Exchange(buf []byte) error {
	rpio.SpiExchange(buf)
	return nil
}

func (b *SPIBus) Close() {
	rpio.SpiEnd(b.dev)
}
