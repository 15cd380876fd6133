//go:build rp2040

package main

import (
	"machine"
	"time"

	"synthpanel/board"
	"synthpanel/control"
	"synthpanel/core"
	"synthpanel/midiout"
)

// scanInterval is the pause between scan cycles.
const scanInterval = time.Millisecond

var (
	// Debug counters
	scanErrors uint32
	panics     uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	midiPort := InitMIDI()

	pins := board.PicoPins()
	layout := board.DefaultLayout()
	panel, err := board.Build(board.Hardware{
		GPIO:    NewRPGPIODriver(),
		Clock:   NewHardwareClock(),
		ADCA:    NewRPAdcDriver(),
		Encoder: NewEncoder(pins.EncoderA, pins.EncoderB),
	}, pins, layout, board.Options{CountsPerDetent: countsPerDetent})
	if err != nil {
		halt(err)
	}

	midi := midiout.New(midiout.WriterSender(midiPort), midiout.Options{Toggles: switchParams(layout.Switches)})
	panel.Scanner.AddSink(board.NewController(panel, midi))

	if err := panel.Scanner.Init(); err != nil {
		halt(err)
	}

	// Main loop
	for {
		// Recover from panics so a bad cycle does not stop the panel
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
				}
			}()
			if err := panel.Scanner.Scan(); err != nil {
				scanErrors++
			}
		}()

		time.Sleep(scanInterval)
	}
}

func switchParams(entries []board.SwitchEntry) []control.Param {
	params := make([]control.Param, len(entries))
	for i, e := range entries {
		params[i] = e.Param
	}
	return params
}

// halt blinks the on-board LED forever. Configuration errors cannot be fixed
// at run time.
func halt(err error) {
	println("panel:", err.Error())
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}

var _ core.Clock = (*HardwareClock)(nil)
