// Analog channel reader for the two 16:1 multiplexer banks.
// Each bank has its own 4-bit address bus and its own converter input, so one
// bank can settle while the other converts.
package core

import (
	"fmt"
	"strconv"
	"time"
)

// Bank selects one of the two analog multiplexer trees.
type Bank uint8

const (
	BankA Bank = iota
	BankB
)

const (
	NumBanks        = 2
	ChannelsPerBank = 16
	addressBits     = 4
)

func (b Bank) String() string {
	switch b {
	case BankA:
		return "A"
	case BankB:
		return "B"
	default:
		return "bank(" + strconv.Itoa(int(b)) + ")"
	}
}

// AnalogBank wires one multiplexer: its address lines (bit 0 first) and the
// converter input its common pin feeds.
type AnalogBank struct {
	Address [addressBits]GPIOPin
	ADC     ADCDriver
	Channel ADCChannelID
}

// AnalogReader selects multiplexer channels and converts them.
type AnalogReader struct {
	gpio   GPIODriver
	clock  Clock
	banks  [NumBanks]AnalogBank
	settle time.Duration

	levels    map[GPIOPin]bool // last level driven on each address line
	changedAt [NumBanks]time.Duration
}

// NewAnalogReader checks the wiring and returns a reader that waits at least
// settle after any address change before converting.
func NewAnalogReader(gpio GPIODriver, clock Clock, banks [NumBanks]AnalogBank, settle time.Duration) (*AnalogReader, error) {
	if gpio == nil || clock == nil {
		return nil, configErrorf("analog reader needs a GPIO driver and a clock")
	}
	if settle < 0 {
		return nil, configErrorf("negative settle time %v", settle)
	}

	for b, bank := range banks {
		if bank.ADC == nil {
			return nil, configErrorf("bank %s has no converter", Bank(b))
		}
		seen := make(map[GPIOPin]bool, addressBits)
		for _, pin := range bank.Address {
			if seen[pin] {
				return nil, configErrorf("bank %s uses address pin %d twice", Bank(b), pin)
			}
			seen[pin] = true
		}
	}

	// Both muxes may hang off the same four lines, but a partial overlap means
	// selecting one bank scrambles the other's address.
	a, b := banks[BankA], banks[BankB]
	if a.Address != b.Address {
		for _, pa := range a.Address {
			for _, pb := range b.Address {
				if pa == pb {
					return nil, configErrorf("banks share address pin %d but not the whole bus", pa)
				}
			}
		}
	}
	if a.ADC == b.ADC && a.Channel == b.Channel {
		return nil, configErrorf("both banks convert on ADC channel %d", a.Channel)
	}

	return &AnalogReader{
		gpio:   gpio,
		clock:  clock,
		banks:  banks,
		settle: settle,
		levels: make(map[GPIOPin]bool),
	}, nil
}

// Init configures the address lines as outputs driven low and sets up both
// converters.
func (r *AnalogReader) Init(cfg ADCConfig) error {
	for _, bank := range r.banks {
		for _, pin := range bank.Address {
			if err := r.gpio.ConfigureOutput(pin); err != nil {
				return fmt.Errorf("configure address pin %d: %w", pin, err)
			}
			if err := r.gpio.SetPin(pin, false); err != nil {
				return fmt.Errorf("drive address pin %d: %w", pin, err)
			}
			r.levels[pin] = false
		}
	}

	initialized := make(map[ADCDriver]bool, NumBanks)
	for b, bank := range r.banks {
		if !initialized[bank.ADC] {
			if err := bank.ADC.Init(cfg); err != nil {
				return fmt.Errorf("init converter for bank %s: %w", Bank(b), err)
			}
			initialized[bank.ADC] = true
		}
		if err := bank.ADC.ConfigureChannel(bank.Channel); err != nil {
			return fmt.Errorf("configure converter channel for bank %s: %w", Bank(b), err)
		}
	}

	now := r.clock.Now()
	for b := range r.changedAt {
		r.changedAt[b] = now
	}
	return nil
}

// Select drives bank's address lines to index. Lines already at the right
// level are not rewritten.
func (r *AnalogReader) Select(bank Bank, index int) error {
	if int(bank) >= NumBanks || index < 0 || index >= ChannelsPerBank {
		return fmt.Errorf("select %s/%d: out of range", bank, index)
	}

	for bit, pin := range r.banks[bank].Address {
		level := index>>bit&1 == 1
		if cur, ok := r.levels[pin]; ok && cur == level {
			continue
		}
		if err := r.gpio.SetPin(pin, level); err != nil {
			delete(r.levels, pin)
			return fmt.Errorf("select %s/%d: %w", bank, index, err)
		}
		r.levels[pin] = level
		r.touch(pin)
	}
	return nil
}

// touch records an address change on every bank wired to pin.
func (r *AnalogReader) touch(pin GPIOPin) {
	now := r.clock.Now()
	for b, bank := range r.banks {
		for _, p := range bank.Address {
			if p == pin {
				r.changedAt[b] = now
				break
			}
		}
	}
}

// ReadRaw converts the currently selected channel of bank, first waiting out
// whatever is left of the settling interval.
func (r *AnalogReader) ReadRaw(bank Bank) (ADCValue, error) {
	if int(bank) >= NumBanks {
		return 0, fmt.Errorf("read bank %s: out of range", bank)
	}

	if wait := r.settle - (r.clock.Now() - r.changedAt[bank]); wait > 0 {
		r.clock.Sleep(wait)
	}

	b := r.banks[bank]
	v, err := b.ADC.ReadRaw(b.Channel)
	if err != nil {
		return 0, fmt.Errorf("read bank %s: %w", bank, err)
	}
	return v, nil
}

// Read selects and converts one channel.
func (r *AnalogReader) Read(bank Bank, index int) (ADCValue, error) {
	if err := r.Select(bank, index); err != nil {
		return 0, err
	}
	return r.ReadRaw(bank)
}
