package core

import (
	"sync/atomic"
	"time"

	"synthpanel/control"
)

// Event is one logical change produced by a scan cycle. The concrete types
// below are the whole set.
type Event interface {
	event()
}

// Source tells consumers where a parameter change came from.
type Source uint8

const (
	SourceKnob   Source = iota // analog control, Raw is meaningful
	SourcePanel                // latched panel switch or other derived change
	SourceRecall               // value loaded from a stored patch
)

// ParameterChanged reports a new logical value for a parameter.
type ParameterChanged struct {
	Param  control.Param
	Value  int
	Raw    ADCValue
	Source Source
	Cycle  uint64
}

// SwitchChanged reports a new stable state of a chain switch.
type SwitchChanged struct {
	Switch control.Switch
	On     bool
	Cycle  uint64
}

// ButtonPressed fires once the press has outlasted the debounce interval.
type ButtonPressed struct {
	Button control.Button
	At     time.Duration
}

// ButtonClicked fires on release of a short press with no hold.
type ButtonClicked struct {
	Button   control.Button
	Duration time.Duration
}

// ButtonHeld fires once per press when the hold duration is reached.
type ButtonHeld struct {
	Button control.Button
}

// ButtonReleased fires on any release that is not a click.
type ButtonReleased struct {
	Button    control.Button
	AfterHold bool
	Duration  time.Duration
}

// EncoderStep carries the signed detent count since the previous cycle.
type EncoderStep struct {
	Delta int
}

func (ParameterChanged) event() {}
func (SwitchChanged) event()    {}
func (ButtonPressed) event()    {}
func (ButtonClicked) event()    {}
func (ButtonHeld) event()       {}
func (ButtonReleased) event()   {}
func (EncoderStep) event()      {}

// Sink consumes events. HandleEvent runs on the scan goroutine and must not
// block.
type Sink interface {
	HandleEvent(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) HandleEvent(ev Event) { f(ev) }

// Fanout delivers each event to every sink in order.
type Fanout []Sink

func (f Fanout) HandleEvent(ev Event) {
	for _, s := range f {
		s.HandleEvent(ev)
	}
}

// QueueSink hands events to another goroutine. When the consumer falls
// behind, events are dropped and counted rather than stalling the scan.
type QueueSink struct {
	ch      chan Event
	dropped atomic.Uint64
}

// NewQueueSink returns a queue holding up to size events.
func NewQueueSink(size int) *QueueSink {
	return &QueueSink{ch: make(chan Event, size)}
}

func (q *QueueSink) HandleEvent(ev Event) {
	select {
	case q.ch <- ev:
	default:
		q.dropped.Add(1)
	}
}

// Events is the receive side of the queue.
func (q *QueueSink) Events() <-chan Event {
	return q.ch
}

// Dropped returns how many events did not fit.
func (q *QueueSink) Dropped() uint64 {
	return q.dropped.Load()
}

// Close ends the stream. Call it only after the scanner has stopped.
func (q *QueueSink) Close() {
	close(q.ch)
}
