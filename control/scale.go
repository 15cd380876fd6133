package control

import "math"

// ScaleKind selects how a raw converter sample maps to a logical value.
type ScaleKind uint8

const (
	ScaleLinear      ScaleKind = iota // Min..Max, proportional
	ScaleInverted                     // Max..Min, proportional
	ScaleStepped                      // 0..Steps-1, equal-width zones
	ScaleToggle                       // 0 below half travel, 1 above
	ScaleExponential                  // Min..Max on an exponential curve, Min > 0
)

// Scale describes a raw-to-logical mapping for one analog control.
type Scale struct {
	Kind  ScaleKind
	Min   int
	Max   int
	Steps int
}

func Linear(min, max int) Scale      { return Scale{Kind: ScaleLinear, Min: min, Max: max} }
func Inverted(min, max int) Scale    { return Scale{Kind: ScaleInverted, Min: min, Max: max} }
func Stepped(steps int) Scale        { return Scale{Kind: ScaleStepped, Min: 0, Max: steps - 1, Steps: steps} }
func Toggle() Scale                  { return Scale{Kind: ScaleToggle, Min: 0, Max: 1} }
func Exponential(min, max int) Scale { return Scale{Kind: ScaleExponential, Min: min, Max: max} }

// Map converts raw (0..maxRaw) into the logical range.
func (s Scale) Map(raw, maxRaw int) int {
	if maxRaw <= 0 {
		return s.Min
	}
	if raw < 0 {
		raw = 0
	} else if raw > maxRaw {
		raw = maxRaw
	}

	span := s.Max - s.Min
	switch s.Kind {
	case ScaleInverted:
		return s.Max - (raw*span+maxRaw/2)/maxRaw
	case ScaleStepped:
		if s.Steps <= 1 {
			return 0
		}
		step := raw * s.Steps / (maxRaw + 1)
		if step >= s.Steps {
			step = s.Steps - 1
		}
		return step
	case ScaleToggle:
		if raw > maxRaw/2 {
			return 1
		}
		return 0
	case ScaleExponential:
		if s.Min <= 0 || s.Max <= s.Min {
			return s.Min
		}
		ratio := float64(s.Max) / float64(s.Min)
		v := float64(s.Min) * math.Pow(ratio, float64(raw)/float64(maxRaw))
		return int(math.Round(v))
	default:
		return s.Min + (raw*span+maxRaw/2)/maxRaw
	}
}

// Unmap returns a raw sample that maps back to value. It is used to prime the
// hysteresis filter from a stored patch, so it only has to land inside the
// value's zone.
func (s Scale) Unmap(value, maxRaw int) int {
	if value < s.Min {
		value = s.Min
	} else if value > s.Max {
		value = s.Max
	}

	span := s.Max - s.Min
	var raw int
	switch s.Kind {
	case ScaleInverted:
		if span == 0 {
			return 0
		}
		raw = ((s.Max-value)*maxRaw + span/2) / span
	case ScaleStepped:
		if s.Steps <= 1 {
			return 0
		}
		width := (maxRaw + 1) / s.Steps
		raw = value*width + width/2
	case ScaleToggle:
		if value != 0 {
			raw = maxRaw
		}
	case ScaleExponential:
		if s.Min <= 0 || s.Max <= s.Min {
			return 0
		}
		ratio := math.Log(float64(value)/float64(s.Min)) / math.Log(float64(s.Max)/float64(s.Min))
		raw = int(math.Round(ratio * float64(maxRaw)))
	default:
		if span == 0 {
			return 0
		}
		raw = ((value-s.Min)*maxRaw + span/2) / span
	}

	if raw < 0 {
		return 0
	}
	if raw > maxRaw {
		return maxRaw
	}
	return raw
}

var scaleOverrides = map[Param]Scale{
	FilterCutoff: Exponential(20, 12000),
	FilterType:   Stepped(8),
	Osc1MainWave: Stepped(8),
	Osc2MainWave: Stepped(8),
	Osc1SubWave:  Stepped(4),
	Osc2SubWave:  Stepped(4),
	LfoWaveform:  Stepped(8),
	LfoMult:      Stepped(5),
	BitCrush:     Stepped(16),
	LfoAlt:       Toggle(),
	MasterTune:   Linear(-50, 50),
	Osc1Detune:   Linear(-50, 50),
	PitchBend:    Linear(-8192, 8191),
}

// ScaleFor returns the default scale of p. Panel knobs not listed in the
// override table run 0..127.
func ScaleFor(p Param) Scale {
	if s, ok := scaleOverrides[p]; ok {
		return s
	}
	return Linear(0, 127)
}
