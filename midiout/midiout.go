// Package midiout re-encodes parameter changes as MIDI Control Change
// messages.
package midiout

import (
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
	"gitlab.com/gomidi/midi/v2"

	"synthpanel/control"
	"synthpanel/core"
)

// SendFunc transmits one message, e.g. the func returned by midi.SendTo.
type SendFunc func(msg midi.Message) error

// WriterSender sends raw message bytes to w, typically a serial port.
func WriterSender(w io.Writer) SendFunc {
	return func(msg midi.Message) error {
		_, err := w.Write(msg.Bytes())
		return err
	}
}

// Options configures a Sink.
type Options struct {
	Channel    uint8 // 0-15
	Resolution uint8 // bits per raw knob sample
	Logger     *zerolog.Logger

	// Toggles lists on/off parameters. Recalled values for them are sent
	// as 0 or 127 like panel presses.
	Toggles []control.Param
}

// Sink sends a CC for every parameter change that has a CC number. Knob
// values are taken from the raw sample reduced to 7 bits; panel toggles send
// 0 or 127. Repeats of the last value sent on a controller are dropped.
type Sink struct {
	send    SendFunc
	channel uint8
	shift   uint8
	log     *zerolog.Logger
	toggles map[control.Param]bool

	last    [128]int16
	sent    atomic.Uint64
	failed  atomic.Uint64
	failing bool
}

// New returns a Sink sending through send.
func New(send SendFunc, opts Options) *Sink {
	if opts.Resolution == 0 {
		opts.Resolution = core.DefaultADCConfig().Resolution
	}
	var shift uint8
	if opts.Resolution > 7 {
		shift = opts.Resolution - 7
	}
	log := opts.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	s := &Sink{
		send:    send,
		channel: opts.Channel & 0x0f,
		shift:   shift,
		log:     log,
		toggles: make(map[control.Param]bool, len(opts.Toggles)),
	}
	for _, p := range opts.Toggles {
		s.toggles[p] = true
	}
	for i := range s.last {
		s.last[i] = -1
	}
	return s
}

// HandleEvent implements core.Sink.
func (s *Sink) HandleEvent(ev core.Event) {
	pc, ok := ev.(core.ParameterChanged)
	if !ok {
		return
	}

	if pc.Param == control.PitchBend && pc.Source == core.SourceKnob {
		s.transmit(midi.Pitchbend(s.channel, int16(pc.Value)))
		return
	}

	cc, ok := control.CC(pc.Param)
	if !ok {
		return
	}
	value := s.value(pc)
	if s.last[cc] == int16(value) {
		return
	}
	if s.transmit(midi.ControlChange(s.channel, cc, value)) {
		s.last[cc] = int16(value)
	}
}

func (s *Sink) value(pc core.ParameterChanged) uint8 {
	var v int
	switch pc.Source {
	case core.SourceKnob:
		v = int(pc.Raw) >> s.shift
	case core.SourcePanel:
		if pc.Value != 0 {
			v = 127
		}
	default:
		if s.toggles[pc.Param] {
			if pc.Value != 0 {
				v = 127
			}
			break
		}
		v = control.ScaleFor(pc.Param).Unmap(pc.Value, 127)
	}
	if v < 0 {
		v = 0
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}

func (s *Sink) transmit(msg midi.Message) bool {
	if err := s.send(msg); err != nil {
		s.failed.Add(1)
		if !s.failing {
			s.failing = true
			s.log.Warn().Err(err).Msg("MIDI send failed")
		}
		return false
	}
	if s.failing {
		s.failing = false
		s.log.Info().Msg("MIDI output recovered")
	}
	s.sent.Add(1)
	return true
}

// Sent returns the number of messages transmitted.
func (s *Sink) Sent() uint64 {
	return s.sent.Load()
}

// Failed returns the number of messages the transport rejected.
func (s *Sink) Failed() uint64 {
	return s.failed.Load()
}
