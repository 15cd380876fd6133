package control

import "strconv"

// Switch identifies a panel switch read through the serial input chain.
type Switch uint8

const (
	SwitchEGInv Switch = iota
	SwitchLoop
	SwitchKeyTrack
	SwitchPole
	SwitchVCFEG
	SwitchPitchEG
	SwitchVelo
	SwitchVCAEG
	SwitchOctave1
	SwitchOsc1EG
	SwitchGlide
	SwitchOctave2
	SwitchOsc2EG
	SwitchUnison
	SwitchVCA
	SwitchMulti
	SwitchVCO
	SwitchVCF

	NumSwitches int = iota
)

var switchNames = [NumSwitches]string{
	"eg_inv", "loop", "key_track", "pole", "vcf_eg", "pitch_eg", "velo", "vca_eg",
	"octave1", "osc1_eg", "glide", "octave2", "osc2_eg", "unison",
	"vca", "multi", "vco", "vcf",
}

func (s Switch) String() string {
	if int(s) >= NumSwitches {
		return "switch(" + strconv.Itoa(int(s)) + ")"
	}
	return switchNames[s]
}

// ParseSwitch looks a switch up by its String form.
func ParseSwitch(name string) (Switch, bool) {
	for i, n := range switchNames {
		if n == name {
			return Switch(i), true
		}
	}
	return 0, false
}

// Button identifies a dedicated, directly wired push button.
type Button uint8

const (
	ButtonSave Button = iota
	ButtonSettings
	ButtonBack
	ButtonRecall // push action of the encoder

	NumButtons int = iota
)

var buttonNames = [NumButtons]string{"save", "settings", "back", "recall"}

func (b Button) String() string {
	if int(b) >= NumButtons {
		return "button(" + strconv.Itoa(int(b)) + ")"
	}
	return buttonNames[b]
}

// ParseButton looks a button up by its String form.
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if n == name {
			return Button(i), true
		}
	}
	return 0, false
}

// LED identifies an indicator on the LED output chain.
type LED uint8

const (
	LEDEGInv LED = iota
	LEDLoop
	LEDKeyTrack
	LEDPole
	LEDVCFEG
	LEDPitchEG
	LEDVelo
	LEDVCAEG
	LEDVCA
	LEDMulti
	LEDVCF
	LEDVCO
	LEDOctave1
	LEDOsc1EG
	LEDGlide
	LEDOctave2
	LEDOsc2EG
	LEDUnison

	NumLEDs int = iota
)

var ledNames = [NumLEDs]string{
	"eg_inv", "loop", "key_track", "pole", "vcf_eg", "pitch_eg", "velo", "vca_eg",
	"vca", "multi", "vcf", "vco",
	"octave1", "osc1_eg", "glide", "octave2", "osc2_eg", "unison",
}

func (l LED) String() string {
	if int(l) >= NumLEDs {
		return "led(" + strconv.Itoa(int(l)) + ")"
	}
	return ledNames[l]
}

// Output identifies a +5V control line on the output chain.
type Output uint8

const (
	OutGlide Output = iota
	OutOctave1
	OutOctave2
	OutUnison
	OutLoop
	OutEGInv
	OutKeyTrack
	OutPole
	OutFilterA
	OutFilterB
	OutFilterC
	OutLfoAlt
	OutOsc1EG
	OutOsc2EG
	OutPitchVelo
	OutFilterVelo
	OutVCO
	OutVCF
	OutVCA
	OutMulti
	OutAmpVelo
	OutOctave
	OutMinus
	OutPlus
	OutFilterEnv

	NumOutputs int = iota
)

var outputNames = [NumOutputs]string{
	"glide", "octave1", "octave2", "unison", "loop", "eg_inv", "key_track", "pole",
	"filter_a", "filter_b", "filter_c", "lfo_alt", "osc1_eg", "osc2_eg",
	"pitch_velo", "filter_velo", "vco", "vcf", "vca", "multi", "amp_velo",
	"octave", "minus", "plus", "filter_env",
}

func (o Output) String() string {
	if int(o) >= NumOutputs {
		return "output(" + strconv.Itoa(int(o)) + ")"
	}
	return outputNames[o]
}
