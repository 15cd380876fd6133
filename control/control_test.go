package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCCNumbersUnique(t *testing.T) {
	seen := make(map[uint8]Param)
	for i := 0; i < NumParams; i++ {
		p := Param(i)
		cc, ok := CC(p)
		require.True(t, ok)
		require.LessOrEqual(t, cc, uint8(127), "CC of %s out of range", p)
		if prev, dup := seen[cc]; dup {
			t.Errorf("CC %d assigned to both %s and %s", cc, prev, p)
		}
		seen[cc] = p
	}
}

func TestCCContract(t *testing.T) {
	// Spot checks against the published CC chart.
	cases := map[Param]uint8{
		ModWheel:      1,
		FilterRelease: 44,
		FilterCutoff:  74,
		FilterRes:     94,
		LfoDelay:      88,
		AllNotesOff:   123,
		Octave1:       126,
		Osc2MainLevel: 103,
	}
	for p, want := range cases {
		got, ok := CC(p)
		require.True(t, ok)
		assert.Equal(t, want, got, p.String())

		back, ok := ParamForCC(want)
		require.True(t, ok)
		assert.Equal(t, p, back)
	}

	_, ok := CC(Param(NumParams))
	assert.False(t, ok)
	_, ok = ParamForCC(2)
	assert.False(t, ok)
}

func TestParamNames(t *testing.T) {
	for i := 0; i < NumParams; i++ {
		p := Param(i)
		require.NotEmpty(t, p.String(), "param %d has no name", i)
		back, ok := ParseParam(p.String())
		require.True(t, ok)
		assert.Equal(t, p, back)
	}
	assert.Equal(t, "param(200)", Param(200).String())
}

func TestScaleMap(t *testing.T) {
	const maxRaw = 1023
	tests := []struct {
		name  string
		scale Scale
		raw   int
		want  int
	}{
		{"linear bottom", Linear(0, 127), 0, 0},
		{"linear top", Linear(0, 127), 1023, 127},
		{"linear mid", Linear(0, 127), 530, 66},
		{"linear clamps", Linear(0, 127), 2000, 127},
		{"inverted bottom", Inverted(0, 127), 0, 127},
		{"inverted top", Inverted(0, 127), 1023, 0},
		{"bipolar centre", Linear(-50, 50), 512, 0},
		{"stepped first", Stepped(8), 0, 0},
		{"stepped zone", Stepped(8), 448, 3},
		{"stepped last", Stepped(8), 1023, 7},
		{"toggle low", Toggle(), 511, 0},
		{"toggle high", Toggle(), 512, 1},
		{"exp bottom", Exponential(20, 12000), 0, 20},
		{"exp top", Exponential(20, 12000), 1023, 12000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scale.Map(tt.raw, maxRaw))
		})
	}
}

func TestScaleUnmapLandsInZone(t *testing.T) {
	const maxRaw = 1023
	for i := 0; i < NumParams; i++ {
		p := Param(i)
		s := ScaleFor(p)
		for _, v := range []int{s.Min, (s.Min + s.Max) / 2, s.Max} {
			raw := s.Unmap(v, maxRaw)
			require.GreaterOrEqual(t, raw, 0)
			require.LessOrEqual(t, raw, maxRaw)
			got := s.Map(raw, maxRaw)
			switch {
			case s.Kind == ScaleExponential:
				assert.InDelta(t, v, got, float64(v)/100+1, "%s value %d", p, v)
			case s.Max-s.Min > maxRaw:
				// Wider than the converter: only the nearest code is reachable.
				assert.InDelta(t, v, got, float64(s.Max-s.Min)/maxRaw+1, "%s value %d", p, v)
			default:
				assert.Equal(t, v, got, "%s value %d", p, v)
			}
		}
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12000 Hz", Format(FilterCutoff, 12000))
	assert.Equal(t, "On", Format(LfoAlt, 1))
	assert.Equal(t, "Off", Format(LfoAlt, 0))
	assert.Equal(t, "Square", Format(LfoWaveform, 4))
	assert.Equal(t, "3", Format(Osc1MainWave, 2))
	assert.Equal(t, "+12", Format(MasterTune, 12))
	assert.Equal(t, "-12", Format(MasterTune, -12))
	assert.Equal(t, "64", Format(Volume, 64))
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "unison", SwitchUnison.String())
	assert.Equal(t, "save", ButtonSave.String())
	assert.Equal(t, "vco", LEDVCO.String())
	assert.Equal(t, "filter_env", OutFilterEnv.String())
	assert.Equal(t, "button(9)", Button(9).String())
}

func TestParseSwitchAndButton(t *testing.T) {
	for i := 0; i < NumSwitches; i++ {
		sw, ok := ParseSwitch(Switch(i).String())
		require.True(t, ok)
		assert.Equal(t, Switch(i), sw)
	}
	b, ok := ParseButton("recall")
	require.True(t, ok)
	assert.Equal(t, ButtonRecall, b)

	_, ok = ParseSwitch("wah")
	assert.False(t, ok)
	_, ok = ParseButton("panic")
	assert.False(t, ok)
}
