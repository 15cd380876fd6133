package control

// MIDI CC control numbers. These broadly follow standard CC assignments and are
// part of the external MIDI contract: the numbers must not change.
var ccNumbers = [NumParams]uint8{
	ModWheel:       1, // pitch LFO amount from the mod wheel
	LfoDepth:       3, // pitch LFO amount from the panel
	GlideTime:      5,
	Volume:         7,
	ADSRInvert:     15,
	Osc1MainWave:   16,
	Osc2MainWave:   17,
	Osc1SubWave:    18,
	Osc2SubWave:    19,
	VelocitySW:     20,
	NoiseLevel:     23,
	Unison:         24,
	PitchRelease:   25,
	PitchAttack:    26,
	PitchSustain:   27,
	PitchDecay:     28,
	PitchLevel:     29,
	Octave2:        30,
	Glide:          31,
	PitchVelo:      32,
	PitchEG:        33,
	LfoDestVCF:     35,
	LfoDestVCA:     36,
	MonoMulti:      37,
	LfoMult:        38,
	FilterType:     39,
	LfoDestVCO:     40,
	FilterKeyTrack: 43,
	FilterRelease:  44,
	FilterAttack:   45,
	FilterSustain:  46,
	FilterDecay:    47,
	FilterLevel:    48,
	FilterVelo:     49,
	FilterEGInv:    50,
	FilterPole:     51,
	FilterLoop:     52,
	FilterEG:       53,
	Effects:        54,
	Pot1:           55,
	Pot2:           56,
	Pot3:           57,
	EffectNumber:   58,
	Mix:            59,
	Internal:       60,
	PitchBend:      65,
	LfoSlope:       66,
	AmpLevel:       67,
	AmpVelo:        68,
	Osc1EGInv:      69,
	Osc2EGOn:       70,
	Osc1Detune:     71,
	AmpRelease:     72,
	AmpAttack:      73,
	FilterCutoff:   74,
	AmpDecay:       75,
	LfoAlt:         76,
	LfoRate:        77,
	AmpSustain:     79,
	Osc1SubLevel:   80,
	Osc1MainLevel:  81,
	AmpEG:          82,
	OctaveUp:       83,
	OctaveDown:     84,
	EGLevel:        86,
	LfoDelay:       88, // MIDI only, no panel control
	KeyTracking:    89,
	BitCrush:       90,
	LfoWaveform:    91,
	MasterTune:     93,
	FilterRes:      94,
	MainAttack:     95,
	MainDecay:      96,
	MainSustain:    97,
	MainRelease:    98,
	Osc2SubLevel:   102,
	Osc2MainLevel:  103,
	AllNotesOff:    123, // panic
	Octave1:        126,
}

// CC returns the MIDI control change number assigned to p.
func CC(p Param) (uint8, bool) {
	if !p.Valid() {
		return 0, false
	}
	return ccNumbers[p], true
}

// ParamForCC is the reverse of CC.
func ParamForCC(cc uint8) (Param, bool) {
	for i, n := range ccNumbers {
		if n == cc {
			return Param(i), true
		}
	}
	return 0, false
}
