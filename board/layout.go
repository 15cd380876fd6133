// Package board holds the panel's wiring tables and assembles the scanner,
// output chains and latch logic for one physical control surface.
package board

import (
	"fmt"

	"synthpanel/control"
	"synthpanel/core"
)

// Layout is the logical wiring of the panel: which control sits where.
type Layout struct {
	Analog      []AnalogEntry
	Switches    []SwitchEntry
	LEDs        [control.NumLEDs]int
	Outputs     [control.NumOutputs]int
	SwitchChips []core.ChipAddress
	LEDChips    int
	OutputChips int
}

// DefaultLayout returns the production panel.
func DefaultLayout() Layout {
	return Layout{
		Analog:   append([]AnalogEntry(nil), analogTable...),
		Switches: append([]SwitchEntry(nil), switchTable...),
		LEDs:     ledPositions,
		Outputs:  outputPositions,
		SwitchChips: []core.ChipAddress{
			{Tree: 0, Address: 0},
			{Tree: 0, Address: 1},
			{Tree: 1, Address: 0},
			{Tree: 1, Address: 1},
		},
		LEDChips:    3,
		OutputChips: 4,
	}
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrConfigMismatch, fmt.Sprintf(format, args...))
}

// Validate rejects overlapping or out-of-range entries.
func (l Layout) Validate() error {
	type slot struct {
		bank  core.Bank
		index int
	}
	slots := make(map[slot]control.Param)
	params := make(map[control.Param]string)

	for _, a := range l.Analog {
		if int(a.Bank) >= core.NumBanks || a.Index < 0 || a.Index >= core.ChannelsPerBank {
			return mismatch("knob %s at %s/%d out of range", a.Param, a.Bank, a.Index)
		}
		if !a.Param.Valid() {
			return mismatch("unknown parameter %d at %s/%d", a.Param, a.Bank, a.Index)
		}
		s := slot{a.Bank, a.Index}
		if other, dup := slots[s]; dup {
			return mismatch("knobs %s and %s both at %s/%d", other, a.Param, a.Bank, a.Index)
		}
		if where, dup := params[a.Param]; dup {
			return mismatch("parameter %s on knob %s/%d and %s", a.Param, a.Bank, a.Index, where)
		}
		slots[s] = a.Param
		params[a.Param] = fmt.Sprintf("knob %s/%d", a.Bank, a.Index)
	}

	if len(l.SwitchChips) == 0 && len(l.Switches) > 0 {
		return mismatch("%d switches but no switch registers", len(l.Switches))
	}
	switchBits := len(l.SwitchChips) * 8
	positions := make(map[int]control.Switch)
	switches := make(map[control.Switch]bool)
	leds := make(map[control.LED]control.Switch)
	outputs := make(map[control.Output]control.Switch)
	for _, s := range l.Switches {
		if s.Position < 0 || s.Position >= switchBits {
			return mismatch("switch %s at position %d outside %d bit chain", s.Switch, s.Position, switchBits)
		}
		if other, dup := positions[s.Position]; dup {
			return mismatch("switches %s and %s both at position %d", other, s.Switch, s.Position)
		}
		if switches[s.Switch] {
			return mismatch("switch %s listed twice", s.Switch)
		}
		if int(s.LED) >= control.NumLEDs {
			return mismatch("switch %s drives unknown LED %d", s.Switch, s.LED)
		}
		if other, dup := leds[s.LED]; dup {
			return mismatch("switches %s and %s share LED %s", other, s.Switch, s.LED)
		}
		if s.HasOutput {
			if int(s.Output) >= control.NumOutputs {
				return mismatch("switch %s drives unknown output %d", s.Switch, s.Output)
			}
			if other, dup := outputs[s.Output]; dup {
				return mismatch("switches %s and %s share output %s", other, s.Switch, s.Output)
			}
			outputs[s.Output] = s.Switch
		}
		if !s.Param.Valid() {
			return mismatch("switch %s toggles unknown parameter %d", s.Switch, s.Param)
		}
		if where, dup := params[s.Param]; dup {
			return mismatch("parameter %s on switch %s and %s", s.Param, s.Switch, where)
		}
		positions[s.Position] = s.Switch
		switches[s.Switch] = true
		leds[s.LED] = s.Switch
		params[s.Param] = "switch " + s.Switch.String()
	}

	if err := uniquePositions("LED", l.LEDs[:], l.LEDChips, func(i int) string { return control.LED(i).String() }); err != nil {
		return err
	}
	return uniquePositions("output", l.Outputs[:], l.OutputChips, func(i int) string { return control.Output(i).String() })
}

func uniquePositions(chain string, positions []int, chips int, name func(int) string) error {
	bits := chips * 8
	seen := make(map[int]int, len(positions))
	for i, pos := range positions {
		if pos < 0 || pos >= bits {
			return mismatch("%s %s at position %d outside %d bit chain", chain, name(i), pos, bits)
		}
		if other, dup := seen[pos]; dup {
			return mismatch("%ss %s and %s both at position %d", chain, name(other), name(i), pos)
		}
		seen[pos] = i
	}
	return nil
}

// SwitchFor returns the entry for a switch.
func (l Layout) SwitchFor(sw control.Switch) (SwitchEntry, bool) {
	for _, s := range l.Switches {
		if s.Switch == sw {
			return s, true
		}
	}
	return SwitchEntry{}, false
}

// SwitchForParam returns the switch that toggles p.
func (l Layout) SwitchForParam(p control.Param) (SwitchEntry, bool) {
	for _, s := range l.Switches {
		if s.Param == p {
			return s, true
		}
	}
	return SwitchEntry{}, false
}

// KnobFor returns where p's knob is wired.
func (l Layout) KnobFor(p control.Param) (AnalogEntry, bool) {
	for _, a := range l.Analog {
		if a.Param == p {
			return a, true
		}
	}
	return AnalogEntry{}, false
}
