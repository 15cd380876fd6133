package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"synthpanel/board"
	"synthpanel/control"
	"synthpanel/core"
	"synthpanel/sim"
)

// pressTime and holdTime are how long the console keeps a contact closed.
const (
	pressTime = 100 * time.Millisecond
	holdTime  = time.Second
)

// simPanel is the reference board built from simulated parts.
type simPanel struct {
	pins     board.Pins
	layout   board.Layout
	clock    core.Clock
	board    *sim.Board
	adc      *sim.ADC
	mux      [core.NumBanks]*sim.Mux
	switches *sim.ShiftIn
	leds     *sim.ShiftOut
	outputs  *sim.ShiftOut
	encoder  *sim.Encoder
}

func newSimPanel(pins board.Pins, clock core.Clock) *simPanel {
	layout := board.DefaultLayout()
	s := &simPanel{
		pins:    pins,
		layout:  layout,
		clock:   clock,
		encoder: &sim.Encoder{},
	}
	s.board = sim.NewBoard(s.clock)
	s.adc = s.board.NewADC(board.DefaultSettle)
	s.mux[core.BankA] = s.board.NewMux(pins.MuxA)
	s.mux[core.BankB] = s.board.NewMux(pins.MuxB)
	s.adc.Connect(pins.ADCChannelA, s.mux[core.BankA])
	s.adc.Connect(pins.ADCChannelB, s.mux[core.BankB])
	s.switches = s.board.AttachShiftIn(pins.SwitchChain(layout))
	s.leds = s.board.AttachShiftOut(pins.LEDChain(layout))
	s.outputs = s.board.AttachShiftOut(pins.OutputChain(layout))
	return s
}

func (s *simPanel) hardware() board.Hardware {
	return board.Hardware{
		GPIO:    s.board,
		Clock:   s.clock,
		ADCA:    s.adc,
		Encoder: s.encoder,
	}
}

func (s *simPanel) setKnob(p control.Param, raw core.ADCValue) error {
	k, ok := s.layout.KnobFor(p)
	if !ok {
		return fmt.Errorf("%s has no knob", p)
	}
	s.mux[k.Bank].SetRaw(k.Index, raw)
	return nil
}

func (s *simPanel) pressSwitch(sw control.Switch) error {
	entry, ok := s.layout.SwitchFor(sw)
	if !ok {
		return fmt.Errorf("switch %s is not wired", sw)
	}
	s.switches.SetSwitch(entry.Position, true)
	time.AfterFunc(pressTime, func() { s.switches.SetSwitch(entry.Position, false) })
	return nil
}

func (s *simPanel) buttonPin(b control.Button) core.GPIOPin {
	switch b {
	case control.ButtonSettings:
		return s.pins.Settings
	case control.ButtonBack:
		return s.pins.Back
	case control.ButtonRecall:
		return s.pins.Recall
	default:
		return s.pins.Save
	}
}

// pushButton closes an active-low button for d.
func (s *simPanel) pushButton(b control.Button, d time.Duration) {
	pin := s.buttonPin(b)
	s.board.SetLevel(pin, false)
	time.AfterFunc(d, func() { s.board.Release(pin) })
}

// runConsole reads panel gestures from in until EOF or quit.
func runConsole(in io.Reader, out io.Writer, s *simPanel, a *app) {
	fmt.Fprintln(out, "Simulated panel. Type 'help' for commands, 'quit' to exit.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "quit" || parts[0] == "exit" || parts[0] == "q" {
			return
		}
		if err := consoleCommand(out, s, a, parts); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func consoleCommand(out io.Writer, s *simPanel, a *app, parts []string) error {
	cmd, args := parts[0], parts[1:]
	switch cmd {
	case "help", "?":
		printHelp(out)
		return nil

	case "knob":
		if len(args) != 2 {
			return fmt.Errorf("usage: knob <param> <raw>")
		}
		p, ok := control.ParseParam(args[0])
		if !ok {
			return fmt.Errorf("unknown parameter %q", args[0])
		}
		raw, err := strconv.Atoi(args[1])
		if err != nil || raw < 0 || raw > a.cfg.ADCSetup().MaxValue() {
			return fmt.Errorf("raw value %q outside 0..%d", args[1], a.cfg.ADCSetup().MaxValue())
		}
		return s.setKnob(p, core.ADCValue(raw))

	case "switch":
		if len(args) != 1 {
			return fmt.Errorf("usage: switch <name>")
		}
		sw, ok := control.ParseSwitch(args[0])
		if !ok {
			return fmt.Errorf("unknown switch %q", args[0])
		}
		return s.pressSwitch(sw)

	case "press", "hold":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <button>", cmd)
		}
		b, ok := control.ParseButton(args[0])
		if !ok {
			return fmt.Errorf("unknown button %q", args[0])
		}
		d := pressTime
		if cmd == "hold" {
			d = holdTime
		}
		s.pushButton(b, d)
		return nil

	case "turn":
		if len(args) != 1 {
			return fmt.Errorf("usage: turn <detents>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad detent count %q", args[0])
		}
		s.encoder.Turn(n * a.cfg.Encoder.CountsPerDetent)
		return nil

	case "values":
		all := a.store.All()
		for _, p := range all.Params() {
			fmt.Fprintf(out, "  %-16s %s\n", p, control.Format(p, all[p]))
		}
		pending := a.store.Pending()
		fmt.Fprintf(out, "%d values, %d unsaved\n", len(all), len(pending))
		return nil

	case "leds":
		for i := 0; i < control.NumLEDs; i++ {
			led := control.LED(i)
			if s.leds.Output(s.layout.LEDs[led]) {
				fmt.Fprintf(out, "  %s\n", led)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "\nAvailable commands:")
	fmt.Fprintln(out, "  knob <param> <raw>  - Move a knob to a raw converter value")
	fmt.Fprintln(out, "  switch <name>       - Press a panel switch")
	fmt.Fprintln(out, "  press <button>      - Click save, settings, back or recall")
	fmt.Fprintln(out, "  hold <button>       - Hold a button for a second")
	fmt.Fprintln(out, "  turn <detents>      - Turn the encoder, negative is anticlockwise")
	fmt.Fprintln(out, "  values              - Print the parameter store")
	fmt.Fprintln(out, "  leds                - List lit LEDs")
	fmt.Fprintln(out, "  quit/exit/q         - Exit the program")
	fmt.Fprintln(out)
}
