// Serial output driver for cascaded 74HC595 shift registers.
// Bits are clocked in farthest register first and only appear on the outputs
// on the latch edge, so a flush is never visible half-done.
package core

import "fmt"

// OutputDriverConfig wires one output chain.
type OutputDriverConfig struct {
	Data  GPIOPin
	Clock GPIOPin
	Latch GPIOPin
	Chips int
	Order BitOrder
}

// OutputDriver shifts a bit vector into the chain.
type OutputDriver struct {
	gpio    GPIODriver
	cfg     OutputDriverConfig
	last    []bool
	flushed bool
	flushes uint64
}

// NewOutputDriver validates cfg.
func NewOutputDriver(gpio GPIODriver, cfg OutputDriverConfig) (*OutputDriver, error) {
	if gpio == nil {
		return nil, configErrorf("output driver needs a GPIO driver")
	}
	if cfg.Chips <= 0 {
		return nil, configErrorf("output chain has no registers")
	}
	if cfg.Data == cfg.Clock || cfg.Data == cfg.Latch || cfg.Clock == cfg.Latch {
		return nil, configErrorf("output chain data/clock/latch pins %d/%d/%d overlap", cfg.Data, cfg.Clock, cfg.Latch)
	}
	return &OutputDriver{
		gpio: gpio,
		cfg:  cfg,
		last: make([]bool, cfg.Chips*bitsPerChip),
	}, nil
}

// Bits returns the number of outputs on the chain.
func (d *OutputDriver) Bits() int {
	return d.cfg.Chips * bitsPerChip
}

// Init configures the three lines and parks them low.
func (d *OutputDriver) Init() error {
	for _, pin := range []GPIOPin{d.cfg.Data, d.cfg.Clock, d.cfg.Latch} {
		if err := d.gpio.ConfigureOutput(pin); err != nil {
			return fmt.Errorf("configure output chain pin %d: %w", pin, err)
		}
		if err := d.gpio.SetPin(pin, false); err != nil {
			return err
		}
	}
	return nil
}

// Flush drives states onto the chain; position p lands on register p/8,
// output p%8. Missing trailing positions are driven low. Flushing the vector
// that is already latched does nothing.
func (d *OutputDriver) Flush(states []bool) error {
	if len(states) > len(d.last) {
		return fmt.Errorf("flush %d bits into a %d bit chain", len(states), len(d.last))
	}

	want := make([]bool, len(d.last))
	copy(want, states)
	if d.flushed && equalBits(want, d.last) {
		return nil
	}

	// Until the latch edge lands the physical state is unknown.
	d.flushed = false
	if err := d.gpio.SetPin(d.cfg.Latch, false); err != nil {
		return err
	}
	for chip := d.cfg.Chips - 1; chip >= 0; chip-- {
		base := chip * bitsPerChip
		for i := 0; i < bitsPerChip; i++ {
			bit := bitsPerChip - 1 - i
			if d.cfg.Order == LSBFirst {
				bit = i
			}
			if err := d.gpio.SetPin(d.cfg.Data, want[base+bit]); err != nil {
				return err
			}
			if err := pulse(d.gpio, d.cfg.Clock, true); err != nil {
				return err
			}
		}
	}
	if err := pulse(d.gpio, d.cfg.Latch, true); err != nil {
		return err
	}

	copy(d.last, want)
	d.flushed = true
	d.flushes++
	return nil
}

// Flushes counts flushes that reached the hardware.
func (d *OutputDriver) Flushes() uint64 {
	return d.flushes
}

func equalBits(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// OutputBuffer is the desired state of one output chain. UI logic mutates it
// freely; only the scanner's flush touches hardware.
type OutputBuffer struct {
	bits  []bool
	dirty bool
}

// NewOutputBuffer returns an all-off buffer that is dirty, so the first cycle
// puts the chain into a known state.
func NewOutputBuffer(n int) *OutputBuffer {
	return &OutputBuffer{bits: make([]bool, n), dirty: true}
}

// Len returns the number of positions.
func (b *OutputBuffer) Len() int {
	return len(b.bits)
}

// Set changes one position. Out-of-range positions are ignored.
func (b *OutputBuffer) Set(pos int, on bool) {
	if pos < 0 || pos >= len(b.bits) || b.bits[pos] == on {
		return
	}
	b.bits[pos] = on
	b.dirty = true
}

// Get returns one position.
func (b *OutputBuffer) Get(pos int) bool {
	if pos < 0 || pos >= len(b.bits) {
		return false
	}
	return b.bits[pos]
}

// Dirty reports whether the buffer changed since the last successful flush.
func (b *OutputBuffer) Dirty() bool {
	return b.dirty
}

// Snapshot copies the current state.
func (b *OutputBuffer) Snapshot() []bool {
	out := make([]bool, len(b.bits))
	copy(out, b.bits)
	return out
}

func (b *OutputBuffer) markClean() {
	b.dirty = false
}

// OutputChain pairs a driver with the buffer it flushes.
type OutputChain struct {
	Name   string
	Driver *OutputDriver
	Buffer *OutputBuffer
}
