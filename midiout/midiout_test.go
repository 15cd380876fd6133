package midiout_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"synthpanel/control"
	"synthpanel/core"
	"synthpanel/midiout"
)

func newSink(t *testing.T, opts midiout.Options) (*midiout.Sink, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return midiout.New(midiout.WriterSender(&buf), opts), &buf
}

func TestKnobSendsRawReducedToSevenBits(t *testing.T) {
	s, buf := newSink(t, midiout.Options{Channel: 2})

	s.HandleEvent(core.ParameterChanged{Param: control.FilterCutoff, Value: 3000, Raw: 530, Source: core.SourceKnob})

	assert.Equal(t, []byte{0xB2, 74, 530 >> 3}, buf.Bytes())
	assert.Equal(t, uint64(1), s.Sent())
}

func TestRepeatedValueIsDropped(t *testing.T) {
	s, buf := newSink(t, midiout.Options{})

	// 512 and 515 land on the same 7-bit value.
	s.HandleEvent(core.ParameterChanged{Param: control.Volume, Raw: 512, Source: core.SourceKnob})
	s.HandleEvent(core.ParameterChanged{Param: control.Volume, Raw: 515, Source: core.SourceKnob})
	s.HandleEvent(core.ParameterChanged{Param: control.Volume, Raw: 530, Source: core.SourceKnob})

	assert.Equal(t, []byte{0xB0, 7, 64, 0xB0, 7, 66}, buf.Bytes())
	assert.Equal(t, uint64(2), s.Sent())
}

func TestPanelToggleSendsFullScale(t *testing.T) {
	s, buf := newSink(t, midiout.Options{})

	s.HandleEvent(core.ParameterChanged{Param: control.LfoDestVCF, Value: 1, Source: core.SourcePanel})
	s.HandleEvent(core.ParameterChanged{Param: control.LfoDestVCF, Value: 0, Source: core.SourcePanel})

	assert.Equal(t, []byte{0xB0, 35, 127, 0xB0, 35, 0}, buf.Bytes())
}

func TestRecallUnmapsLogicalValue(t *testing.T) {
	s, buf := newSink(t, midiout.Options{Toggles: []control.Param{control.FilterLoop}})

	s.HandleEvent(core.ParameterChanged{Param: control.FilterType, Value: 5, Source: core.SourceRecall})
	s.HandleEvent(core.ParameterChanged{Param: control.Glide, Value: 100, Source: core.SourceRecall})
	s.HandleEvent(core.ParameterChanged{Param: control.FilterLoop, Value: 1, Source: core.SourceRecall})

	stepped := control.ScaleFor(control.FilterType).Unmap(5, 127)
	require.Equal(t, 5, control.ScaleFor(control.FilterType).Map(stepped, 127))
	assert.Equal(t, []byte{
		0xB0, 39, byte(stepped),
		0xB0, 31, 100,
		0xB0, 52, 127,
	}, buf.Bytes())
}

func TestPitchBendKnobSendsPitchbend(t *testing.T) {
	s, buf := newSink(t, midiout.Options{Channel: 1})

	s.HandleEvent(core.ParameterChanged{Param: control.PitchBend, Value: 0, Raw: 2048, Source: core.SourceKnob})

	assert.Equal(t, midi.Pitchbend(1, 0).Bytes(), buf.Bytes())
}

func TestOtherEventsIgnored(t *testing.T) {
	s, buf := newSink(t, midiout.Options{})

	s.HandleEvent(core.SwitchChanged{Switch: control.SwitchVCF, On: true})
	s.HandleEvent(core.ButtonClicked{Button: control.ButtonSave})
	s.HandleEvent(core.EncoderStep{Delta: 1})
	s.HandleEvent(core.ParameterChanged{Param: control.Param(control.NumParams), Value: 1, Source: core.SourcePanel})

	assert.Zero(t, buf.Len())
	assert.Zero(t, s.Sent())
}

type flakyWriter struct {
	err  error
	data []byte
}

func (w *flakyWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.data = append(w.data, p...)
	return len(p), nil
}

func TestSendFailureIsRetriedOnNextChange(t *testing.T) {
	w := &flakyWriter{err: errors.New("port closed")}
	s := midiout.New(midiout.WriterSender(w), midiout.Options{})

	s.HandleEvent(core.ParameterChanged{Param: control.Volume, Raw: 800, Source: core.SourceKnob})
	assert.Equal(t, uint64(1), s.Failed())
	assert.Zero(t, s.Sent())

	// The failed value was never recorded, so the same value goes out again.
	w.err = nil
	s.HandleEvent(core.ParameterChanged{Param: control.Volume, Raw: 800, Source: core.SourceKnob})
	assert.Equal(t, []byte{0xB0, 7, 100}, w.data)
	assert.Equal(t, uint64(1), s.Sent())
}
