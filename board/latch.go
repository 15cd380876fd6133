package board

import (
	"synthpanel/control"
	"synthpanel/core"
)

// Controller turns momentary panel presses into latched parameters and
// keeps the LEDs and +5V lines in step with them. Every event is passed on
// to out, with a ParameterChanged inserted after each latch toggle.
// Holding the settings button flips the encoder direction.
type Controller struct {
	panel   *Panel
	out     core.Sink
	latched map[control.Switch]bool

	octaveUp, octaveDown bool
}

// NewController returns a controller with every latch off.
func NewController(panel *Panel, out core.Sink) *Controller {
	if out == nil {
		out = core.Fanout(nil)
	}
	return &Controller{
		panel:   panel,
		out:     out,
		latched: make(map[control.Switch]bool),
	}
}

// Latched reports a switch's latch state.
func (c *Controller) Latched(sw control.Switch) bool {
	return c.latched[sw]
}

// HandleEvent implements core.Sink.
func (c *Controller) HandleEvent(ev core.Event) {
	c.out.HandleEvent(ev)

	switch e := ev.(type) {
	case core.SwitchChanged:
		if !e.On {
			return
		}
		entry, ok := c.panel.Layout.SwitchFor(e.Switch)
		if !ok {
			return
		}
		on := !c.latched[e.Switch]
		c.apply(entry, on)
		c.out.HandleEvent(core.ParameterChanged{
			Param:  entry.Param,
			Value:  boolValue(on),
			Source: core.SourcePanel,
			Cycle:  e.Cycle,
		})

	case core.ParameterChanged:
		if entry, ok := c.panel.Layout.SwitchForParam(e.Param); ok {
			if e.Source == core.SourceRecall {
				c.apply(entry, e.Value != 0)
			}
			return
		}
		c.follow(e.Param, e.Value)

	case core.ButtonHeld:
		if e.Button == control.ButtonSettings && c.panel.Encoder != nil {
			c.panel.Encoder.SetInvert(!c.panel.Encoder.Inverted())
		}
	}
}

func (c *Controller) apply(entry SwitchEntry, on bool) {
	c.latched[entry.Switch] = on
	c.panel.SetLED(entry.LED, on)
	if entry.HasOutput {
		c.panel.SetOutput(entry.Output, on)
	}
}

// follow drives the outputs that track a parameter rather than a switch.
// The octave and filter envelope lines have no panel control and only
// change on recall.
func (c *Controller) follow(p control.Param, value int) {
	switch p {
	case control.OctaveUp, control.OctaveDown:
		if p == control.OctaveUp {
			c.octaveUp = value != 0
		} else {
			c.octaveDown = value != 0
		}
		c.panel.SetOutput(control.OutPlus, c.octaveUp)
		c.panel.SetOutput(control.OutMinus, c.octaveDown)
		c.panel.SetOutput(control.OutOctave, c.octaveUp || c.octaveDown)
	case control.FilterEG:
		c.panel.SetOutput(control.OutFilterEnv, value != 0)
	case control.FilterType:
		c.panel.SetOutput(control.OutFilterA, value&1 != 0)
		c.panel.SetOutput(control.OutFilterB, value&2 != 0)
		c.panel.SetOutput(control.OutFilterC, value&4 != 0)
	case control.LfoAlt:
		c.panel.SetOutput(control.OutLfoAlt, value != 0)
	}
}

func boolValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
