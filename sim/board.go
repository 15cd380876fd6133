// Package sim models the control surface hardware in memory: GPIO pins, the
// analog multiplexers and converters, both shift register chains and the
// encoder. The scanner runs against it unmodified.
package sim

import (
	"fmt"
	"sync"
	"time"

	"synthpanel/core"
)

type pinMode uint8

const (
	modeUnset pinMode = iota
	modeOutput
	modePullUp
	modePullDown
)

type pinState struct {
	mode      pinMode
	level     bool // driven level for outputs
	external  *bool
	changedAt time.Duration
	writes    int
}

// device reacts to output edges and may drive input pins.
type device interface {
	edge(pin core.GPIOPin, level bool)
	drives(pin core.GPIOPin) (level, ok bool)
}

// Board is an in-memory GPIO driver with attached peripherals.
type Board struct {
	mu      sync.Mutex
	clock   core.Clock
	pins    map[core.GPIOPin]*pinState
	faults  map[core.GPIOPin]error
	devices []device
}

var _ core.GPIODriver = (*Board)(nil)

// NewBoard returns a board whose pin timestamps come from clock.
func NewBoard(clock core.Clock) *Board {
	return &Board{
		clock:  clock,
		pins:   make(map[core.GPIOPin]*pinState),
		faults: make(map[core.GPIOPin]error),
	}
}

func (b *Board) pin(p core.GPIOPin) *pinState {
	st, ok := b.pins[p]
	if !ok {
		st = &pinState{}
		b.pins[p] = st
	}
	return st
}

func (b *Board) configure(p core.GPIOPin, mode pinMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.faults[p]; err != nil {
		return err
	}
	b.pin(p).mode = mode
	return nil
}

func (b *Board) ConfigureOutput(pin core.GPIOPin) error {
	return b.configure(pin, modeOutput)
}

func (b *Board) ConfigureInputPullUp(pin core.GPIOPin) error {
	return b.configure(pin, modePullUp)
}

func (b *Board) ConfigureInputPullDown(pin core.GPIOPin) error {
	return b.configure(pin, modePullDown)
}

func (b *Board) SetPin(pin core.GPIOPin, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.faults[pin]; err != nil {
		return err
	}
	st := b.pin(pin)
	if st.mode != modeOutput {
		return fmt.Errorf("pin %d is not an output", pin)
	}
	st.writes++
	if st.level == value {
		return nil
	}
	st.level = value
	st.changedAt = b.clock.Now()
	for _, d := range b.devices {
		d.edge(pin, value)
	}
	return nil
}

func (b *Board) GetPin(pin core.GPIOPin) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.faults[pin]; err != nil {
		return false, err
	}
	return b.read(pin), nil
}

// read resolves a pin's level: peripheral output, then external drive, then
// the pull resistor. Callers hold mu.
func (b *Board) read(pin core.GPIOPin) bool {
	st := b.pin(pin)
	if st.mode == modeOutput {
		return st.level
	}
	for _, d := range b.devices {
		if level, ok := d.drives(pin); ok {
			return level
		}
	}
	if st.external != nil {
		return *st.external
	}
	return st.mode == modePullUp
}

// SetLevel drives an input pin from outside, e.g. a button contact.
func (b *Board) SetLevel(pin core.GPIOPin, level bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.pin(pin)
	st.external = &level
	st.changedAt = b.clock.Now()
}

// Release stops driving an input pin; it falls back to its pull resistor.
func (b *Board) Release(pin core.GPIOPin) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pin(pin).external = nil
}

// Level returns a pin's current level as the MCU would read it.
func (b *Board) Level(pin core.GPIOPin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read(pin)
}

// Writes returns how many times pin has been written, including writes that
// did not change its level.
func (b *Board) Writes(pin core.GPIOPin) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pin(pin).writes
}

// FailPin makes every access to pin return err until cleared with nil.
func (b *Board) FailPin(pin core.GPIOPin, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.faults, pin)
		return
	}
	b.faults[pin] = err
}

func (b *Board) attach(d device) {
	b.mu.Lock()
	b.devices = append(b.devices, d)
	b.mu.Unlock()
}

// address decodes a 4-bit bus from output levels. Callers hold mu.
func (b *Board) address(pins [4]core.GPIOPin) (index int, changedAt time.Duration) {
	for bit, p := range pins {
		st := b.pin(p)
		if st.level {
			index |= 1 << bit
		}
		if st.changedAt > changedAt {
			changedAt = st.changedAt
		}
	}
	return index, changedAt
}
