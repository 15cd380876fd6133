package board

import (
	"synthpanel/control"
	"synthpanel/core"
)

// AnalogEntry places a knob on a multiplexer input.
type AnalogEntry struct {
	Bank  core.Bank
	Index int
	Param control.Param
}

// SwitchEntry describes one latching panel switch: where it is read, which
// LED and +5V line follow it, and the parameter it toggles.
type SwitchEntry struct {
	Switch    control.Switch
	Position  int
	LED       control.LED
	Output    control.Output
	HasOutput bool
	Param     control.Param
}

// analogTable is the knob wiring of both multiplexers. Bank B input 0 is not
// connected.
var analogTable = []AnalogEntry{
	{core.BankA, 0, control.Osc1MainWave},
	{core.BankA, 1, control.FilterType},
	{core.BankA, 2, control.FilterRes},
	{core.BankA, 3, control.FilterCutoff},
	{core.BankA, 4, control.Osc1MainLevel},
	{core.BankA, 5, control.Osc1SubLevel},
	{core.BankA, 6, control.Osc2MainLevel},
	{core.BankA, 7, control.Osc2SubLevel},
	{core.BankA, 8, control.Volume},
	{core.BankA, 9, control.BitCrush},
	{core.BankA, 10, control.MainAttack},
	{core.BankA, 11, control.MainDecay},
	{core.BankA, 12, control.MainSustain},
	{core.BankA, 13, control.MainRelease},
	{core.BankA, 14, control.PitchBend},
	{core.BankA, 15, control.ModWheel},

	{core.BankB, 1, control.LfoWaveform},
	{core.BankB, 2, control.LfoAlt},
	{core.BankB, 3, control.LfoMult},
	{core.BankB, 4, control.Osc1Detune},
	{core.BankB, 5, control.Osc2SubWave},
	{core.BankB, 6, control.Osc2MainWave},
	{core.BankB, 7, control.Osc1SubWave},
	{core.BankB, 8, control.EGLevel},
	{core.BankB, 9, control.NoiseLevel},
	{core.BankB, 10, control.GlideTime},
	{core.BankB, 11, control.MasterTune},
	{core.BankB, 12, control.LfoRate},
	{core.BankB, 13, control.LfoSlope},
	{core.BankB, 14, control.LfoDelay},
	{core.BankB, 15, control.LfoDepth},
}

// switchTable is the 74HC165 switch chain. Registers 0, 1, 2 and 3 carry the
// filter, envelope, oscillator and LFO destination groups in their low bits.
var switchTable = []SwitchEntry{
	{control.SwitchEGInv, 0, control.LEDEGInv, control.OutEGInv, true, control.FilterEGInv},
	{control.SwitchLoop, 1, control.LEDLoop, control.OutLoop, true, control.FilterLoop},
	{control.SwitchKeyTrack, 2, control.LEDKeyTrack, control.OutKeyTrack, true, control.FilterKeyTrack},
	{control.SwitchPole, 3, control.LEDPole, control.OutPole, true, control.FilterPole},

	{control.SwitchVCFEG, 8, control.LEDVCFEG, control.OutFilterVelo, true, control.FilterVelo},
	{control.SwitchPitchEG, 9, control.LEDPitchEG, control.OutPitchVelo, true, control.PitchVelo},
	{control.SwitchVelo, 10, control.LEDVelo, 0, false, control.VelocitySW},
	{control.SwitchVCAEG, 11, control.LEDVCAEG, control.OutAmpVelo, true, control.AmpVelo},

	{control.SwitchOctave1, 16, control.LEDOctave1, control.OutOctave1, true, control.Octave1},
	{control.SwitchOsc1EG, 17, control.LEDOsc1EG, control.OutOsc1EG, true, control.Osc1EGInv},
	{control.SwitchGlide, 18, control.LEDGlide, control.OutGlide, true, control.Glide},
	{control.SwitchOctave2, 19, control.LEDOctave2, control.OutOctave2, true, control.Octave2},
	{control.SwitchOsc2EG, 20, control.LEDOsc2EG, control.OutOsc2EG, true, control.Osc2EGOn},
	{control.SwitchUnison, 21, control.LEDUnison, control.OutUnison, true, control.Unison},

	{control.SwitchVCA, 24, control.LEDVCA, control.OutVCA, true, control.LfoDestVCA},
	{control.SwitchMulti, 25, control.LEDMulti, control.OutMulti, true, control.MonoMulti},
	{control.SwitchVCO, 26, control.LEDVCO, control.OutVCO, true, control.LfoDestVCO},
	{control.SwitchVCF, 27, control.LEDVCF, control.OutVCF, true, control.LfoDestVCF},
}

// ledPositions maps each LED to its bit on the LED chain.
var ledPositions = [control.NumLEDs]int{
	control.LEDEGInv:    0,
	control.LEDLoop:     1,
	control.LEDKeyTrack: 2,
	control.LEDPole:     3,
	control.LEDVCFEG:    4,
	control.LEDPitchEG:  5,
	control.LEDVelo:     6,
	control.LEDVCAEG:    7,
	control.LEDVCA:      8,
	control.LEDMulti:    9,
	control.LEDVCF:      10,
	control.LEDVCO:      11,
	control.LEDOctave1:  12,
	control.LEDOsc1EG:   13,
	control.LEDGlide:    14,
	control.LEDOctave2:  15,
	control.LEDOsc2EG:   16,
	control.LEDUnison:   17,
}

// outputPositions maps each +5V line to its bit on the output chain. Bits 11,
// 12 and 23 are unused.
var outputPositions = [control.NumOutputs]int{
	control.OutGlide:      0,
	control.OutOctave1:    1,
	control.OutOctave2:    2,
	control.OutUnison:     3,
	control.OutLoop:       4,
	control.OutEGInv:      5,
	control.OutKeyTrack:   6,
	control.OutPole:       7,
	control.OutFilterA:    8,
	control.OutFilterB:    9,
	control.OutFilterC:    10,
	control.OutLfoAlt:     13,
	control.OutOsc1EG:     14,
	control.OutOsc2EG:     15,
	control.OutPitchVelo:  16,
	control.OutFilterVelo: 17,
	control.OutVCO:        18,
	control.OutVCF:        19,
	control.OutVCA:        20,
	control.OutMulti:      21,
	control.OutAmpVelo:    22,
	control.OutOctave:     24,
	control.OutMinus:      25,
	control.OutPlus:       26,
	control.OutFilterEnv:  27,
}
