// Package serial opens the UART that carries the panel's MIDI stream.
package serial

import (
	"fmt"
	"io"
)

// DefaultBaud is the rate of the USB-serial MIDI bridge. Standard DIN MIDI
// runs at 31250 baud, which most host UART drivers cannot select.
const DefaultBaud = 115200

// Port is an open serial link. Tests substitute an in-memory implementation.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read.
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyAMA0", "COM3")
	Device string

	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the MIDI link settings for device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

// Validate checks that the port can be opened with c.
func (c *Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("serial device not set")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("serial baud %d must be positive", c.Baud)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("serial read timeout %d is negative", c.ReadTimeout)
	}
	return nil
}
