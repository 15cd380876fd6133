// Package control holds the closed set of semantic identifiers used across the
// panel: synth parameters, panel switches, dedicated buttons, LEDs and +5V
// control outputs. Hardware positions never leak past this vocabulary.
package control

import "strconv"

// Param identifies one synthesizer parameter.
type Param uint8

const (
	ModWheel Param = iota
	LfoDepth
	GlideTime
	Volume
	ADSRInvert
	Osc1MainWave
	Osc2MainWave
	Osc1SubWave
	Osc2SubWave
	VelocitySW
	NoiseLevel
	Unison
	PitchRelease
	PitchAttack
	PitchSustain
	PitchDecay
	PitchLevel
	Octave2
	Glide
	PitchVelo
	PitchEG
	LfoDestVCF
	LfoDestVCA
	MonoMulti
	LfoMult
	FilterType
	LfoDestVCO
	FilterKeyTrack
	FilterRelease
	FilterAttack
	FilterSustain
	FilterDecay
	FilterLevel
	FilterVelo
	FilterEGInv
	FilterPole
	FilterLoop
	FilterEG
	Effects
	Pot1
	Pot2
	Pot3
	EffectNumber
	Mix
	Internal
	PitchBend
	LfoSlope
	AmpLevel
	AmpVelo
	Osc1EGInv
	Osc2EGOn
	Osc1Detune
	AmpRelease
	AmpAttack
	FilterCutoff
	AmpDecay
	LfoAlt
	LfoRate
	AmpSustain
	Osc1SubLevel
	Osc1MainLevel
	AmpEG
	OctaveUp
	OctaveDown
	EGLevel
	LfoDelay
	KeyTracking
	BitCrush
	LfoWaveform
	MasterTune
	FilterRes
	MainAttack
	MainDecay
	MainSustain
	MainRelease
	Osc2SubLevel
	Osc2MainLevel
	AllNotesOff
	Octave1

	// NumParams is the number of defined parameters.
	NumParams int = iota
)

var paramNames = [NumParams]string{
	ModWheel:       "mod_wheel",
	LfoDepth:       "lfo_depth",
	GlideTime:      "glide_time",
	Volume:         "volume",
	ADSRInvert:     "adsr_invert",
	Osc1MainWave:   "osc1_main_wave",
	Osc2MainWave:   "osc2_main_wave",
	Osc1SubWave:    "osc1_sub_wave",
	Osc2SubWave:    "osc2_sub_wave",
	VelocitySW:     "velocity_sw",
	NoiseLevel:     "noise_level",
	Unison:         "unison",
	PitchRelease:   "pitch_release",
	PitchAttack:    "pitch_attack",
	PitchSustain:   "pitch_sustain",
	PitchDecay:     "pitch_decay",
	PitchLevel:     "pitch_level",
	Octave2:        "octave2",
	Glide:          "glide",
	PitchVelo:      "pitch_velo",
	PitchEG:        "pitch_eg",
	LfoDestVCF:     "lfo_dest_vcf",
	LfoDestVCA:     "lfo_dest_vca",
	MonoMulti:      "mono_multi",
	LfoMult:        "lfo_mult",
	FilterType:     "filter_type",
	LfoDestVCO:     "lfo_dest_vco",
	FilterKeyTrack: "filter_key_track",
	FilterRelease:  "filter_release",
	FilterAttack:   "filter_attack",
	FilterSustain:  "filter_sustain",
	FilterDecay:    "filter_decay",
	FilterLevel:    "filter_level",
	FilterVelo:     "filter_velo",
	FilterEGInv:    "filter_eg_inv",
	FilterPole:     "filter_pole",
	FilterLoop:     "filter_loop",
	FilterEG:       "filter_eg",
	Effects:        "effects",
	Pot1:           "pot1",
	Pot2:           "pot2",
	Pot3:           "pot3",
	EffectNumber:   "effect_number",
	Mix:            "mix",
	Internal:       "internal",
	PitchBend:      "pitch_bend",
	LfoSlope:       "lfo_slope",
	AmpLevel:       "amp_level",
	AmpVelo:        "amp_velo",
	Osc1EGInv:      "osc1_eg_inv",
	Osc2EGOn:       "osc2_eg_on",
	Osc1Detune:     "osc1_detune",
	AmpRelease:     "amp_release",
	AmpAttack:      "amp_attack",
	FilterCutoff:   "filter_cutoff",
	AmpDecay:       "amp_decay",
	LfoAlt:         "lfo_alt",
	LfoRate:        "lfo_rate",
	AmpSustain:     "amp_sustain",
	Osc1SubLevel:   "osc1_sub_level",
	Osc1MainLevel:  "osc1_main_level",
	AmpEG:          "amp_eg",
	OctaveUp:       "octave_up",
	OctaveDown:     "octave_down",
	EGLevel:        "eg_level",
	LfoDelay:       "lfo_delay",
	KeyTracking:    "key_tracking",
	BitCrush:       "bit_crush",
	LfoWaveform:    "lfo_waveform",
	MasterTune:     "master_tune",
	FilterRes:      "filter_res",
	MainAttack:     "main_attack",
	MainDecay:      "main_decay",
	MainSustain:    "main_sustain",
	MainRelease:    "main_release",
	Osc2SubLevel:   "osc2_sub_level",
	Osc2MainLevel:  "osc2_main_level",
	AllNotesOff:    "all_notes_off",
	Octave1:        "octave1",
}

// Valid reports whether p is a defined parameter.
func (p Param) Valid() bool {
	return int(p) < NumParams
}

func (p Param) String() string {
	if !p.Valid() {
		return "param(" + strconv.Itoa(int(p)) + ")"
	}
	return paramNames[p]
}

// ParseParam looks a parameter up by its String form.
func ParseParam(name string) (Param, bool) {
	for i, n := range paramNames {
		if n == name {
			return Param(i), true
		}
	}
	return 0, false
}
