package control

import "strconv"

var lfoWaveNames = [...]string{"Sine", "Triangle", "Saw Up", "Saw Down", "Square", "Pulse", "S&H", "Noise"}

// Format renders value for the display.
func Format(p Param, value int) string {
	s := ScaleFor(p)
	switch {
	case p == FilterCutoff:
		return strconv.Itoa(value) + " Hz"
	case p == LfoWaveform && value >= 0 && value < len(lfoWaveNames):
		return lfoWaveNames[value]
	case s.Kind == ScaleToggle:
		if value != 0 {
			return "On"
		}
		return "Off"
	case s.Kind == ScaleStepped:
		return strconv.Itoa(value + 1)
	case s.Min < 0 && value > 0:
		return "+" + strconv.Itoa(value)
	default:
		return strconv.Itoa(value)
	}
}
