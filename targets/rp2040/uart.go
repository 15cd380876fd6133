//go:build rp2040

package main

import "machine"

const (
	midiBaud = 31250
	midiTX   = machine.GPIO28
)

// InitMIDI configures UART0 for a DIN MIDI output on GPIO28.
func InitMIDI() *machine.UART {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: midiBaud,
		TX:       midiTX,
		RX:       machine.NoPin,
	})
	return uart
}
