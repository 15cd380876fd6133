package sim

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"synthpanel/core"
)

// Mux is a 16:1 analog multiplexer whose address lines are board pins.
type Mux struct {
	board   *Board
	address [4]core.GPIOPin
	mu      sync.Mutex
	raw     [core.ChannelsPerBank]core.ADCValue
}

// NewMux wires a multiplexer to the given address pins, bit 0 first.
func (b *Board) NewMux(address [4]core.GPIOPin) *Mux {
	return &Mux{board: b, address: address}
}

// SetRaw sets the converted value seen on input index.
func (m *Mux) SetRaw(index int, v core.ADCValue) {
	m.mu.Lock()
	m.raw[index] = v
	m.mu.Unlock()
}

// Selected returns the input the address lines currently pick.
func (m *Mux) Selected() int {
	m.board.mu.Lock()
	defer m.board.mu.Unlock()
	idx, _ := m.board.address(m.address)
	return idx
}

// ADC is a converter with multiplexers on some of its channels. A read
// before the selected mux has settled still returns the value but is counted
// as a violation.
type ADC struct {
	board  *Board
	settle time.Duration
	muxes  map[core.ADCChannelID]*Mux

	mu          sync.Mutex
	cfg         *core.ADCConfig
	configured  map[core.ADCChannelID]bool
	fault       error
	reads       int
	violations  int
	failAfter   int
	failPending bool
}

var _ core.ADCDriver = (*ADC)(nil)

// NewADC returns a converter that expects settle after an address change.
func (b *Board) NewADC(settle time.Duration) *ADC {
	return &ADC{
		board:      b,
		settle:     settle,
		muxes:      make(map[core.ADCChannelID]*Mux),
		configured: make(map[core.ADCChannelID]bool),
	}
}

// Connect feeds ch from m.
func (a *ADC) Connect(ch core.ADCChannelID, m *Mux) {
	a.muxes[ch] = m
}

func (a *ADC) Init(cfg core.ADCConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = &cfg
	return nil
}

func (a *ADC) ConfigureChannel(ch core.ADCChannelID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.muxes[ch]; !ok {
		return fmt.Errorf("adc channel %d not connected", ch)
	}
	a.configured[ch] = true
	return nil
}

func (a *ADC) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfg == nil || !a.configured[ch] {
		return 0, fmt.Errorf("adc channel %d read before configuration", ch)
	}
	if a.fault != nil {
		return 0, a.fault
	}
	if a.failPending {
		if a.failAfter == 0 {
			a.failPending = false
			return 0, fmt.Errorf("adc channel %d: %w", ch, core.ErrHardwareTimeout)
		}
		a.failAfter--
	}

	m := a.muxes[ch]
	a.board.mu.Lock()
	idx, changedAt := a.board.address(m.address)
	now := a.board.clock.Now()
	a.board.mu.Unlock()

	a.reads++
	if now-changedAt < a.settle {
		a.violations++
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw[idx], nil
}

// SetFault makes every read fail with err until cleared with nil.
func (a *ADC) SetFault(err error) {
	a.mu.Lock()
	a.fault = err
	a.mu.Unlock()
}

// FailAfter lets n reads succeed and times out the next one.
func (a *ADC) FailAfter(n int) {
	a.mu.Lock()
	a.failAfter = n
	a.failPending = true
	a.mu.Unlock()
}

// Reads returns the number of successful conversions.
func (a *ADC) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

// Violations returns how many conversions started before settling.
func (a *ADC) Violations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.violations
}

// ShiftIn models a chain of 74HC165 registers behind the demultiplexers
// described by an InputScannerConfig.
type ShiftIn struct {
	board    *Board
	cfg      core.InputScannerConfig
	parallel [][8]bool // physical D0..D7 level per register
	shift    uint8
	selected int
	loads    int
}

// AttachShiftIn wires an input chain. Every input starts at the open level.
func (b *Board) AttachShiftIn(cfg core.InputScannerConfig) *ShiftIn {
	s := &ShiftIn{
		board:    b,
		cfg:      cfg,
		parallel: make([][8]bool, len(cfg.Chips)),
		selected: -1,
	}
	for i := range s.parallel {
		for bit := range s.parallel[i] {
			s.parallel[i][bit] = cfg.ActiveLow
		}
	}
	b.attach(s)
	return s
}

// dbit maps a chain position's bit to the register input that carries it.
// The register always shifts D7 out first.
func (s *ShiftIn) dbit(bit int) int {
	if s.cfg.Order == core.LSBFirst {
		return 7 - bit
	}
	return bit
}

// SetSwitch closes or opens the switch at chain position pos.
func (s *ShiftIn) SetSwitch(pos int, closed bool) {
	s.board.mu.Lock()
	defer s.board.mu.Unlock()
	chip, bit := pos/8, pos%8
	s.parallel[chip][s.dbit(bit)] = closed != s.cfg.ActiveLow
}

// Loads returns how many parallel loads a register has taken.
func (s *ShiftIn) Loads() int {
	s.board.mu.Lock()
	defer s.board.mu.Unlock()
	return s.loads
}

// selectedChip returns the register the demux currently enables, or -1.
func (s *ShiftIn) selectedChip() int {
	addr, _ := s.board.address(s.cfg.Address)
	for i, c := range s.cfg.Chips {
		if int(c.Address) != addr {
			continue
		}
		if !s.board.pin(s.cfg.ChipSelect[c.Tree]).level {
			return i
		}
	}
	return -1
}

func (s *ShiftIn) edge(pin core.GPIOPin, level bool) {
	switch pin {
	case s.cfg.Load:
		if level {
			return
		}
		s.selected = s.selectedChip()
		if s.selected < 0 {
			return
		}
		var v uint8
		for bit, high := range s.parallel[s.selected] {
			if high {
				v |= 1 << bit
			}
		}
		s.shift = v
		s.loads++
	case s.cfg.Clock:
		if level && s.selected >= 0 && s.selectedChip() == s.selected {
			s.shift <<= 1
		}
	default:
		for _, cs := range s.cfg.ChipSelect {
			if pin == cs && level && s.selectedChip() < 0 {
				s.selected = -1
			}
		}
	}
}

func (s *ShiftIn) drives(pin core.GPIOPin) (bool, bool) {
	if pin != s.cfg.Data || s.selected < 0 || s.selectedChip() != s.selected {
		return false, false
	}
	return s.shift&0x80 != 0, true
}

// ShiftOut models a chain of 74HC595 registers.
type ShiftOut struct {
	board   *Board
	cfg     core.OutputDriverConfig
	stages  []bool // index chip*8+Q, Q0 nearest the serial input
	latched []bool
	latches int
}

// AttachShiftOut wires an output chain. All outputs start low.
func (b *Board) AttachShiftOut(cfg core.OutputDriverConfig) *ShiftOut {
	n := cfg.Chips * 8
	s := &ShiftOut{
		board:   b,
		cfg:     cfg,
		stages:  make([]bool, n),
		latched: make([]bool, n),
	}
	b.attach(s)
	return s
}

func (s *ShiftOut) edge(pin core.GPIOPin, level bool) {
	if !level {
		return
	}
	switch pin {
	case s.cfg.Clock:
		copy(s.stages[1:], s.stages[:len(s.stages)-1])
		s.stages[0] = s.board.pin(s.cfg.Data).level
	case s.cfg.Latch:
		copy(s.latched, s.stages)
		s.latches++
	}
}

func (s *ShiftOut) drives(core.GPIOPin) (bool, bool) {
	return false, false
}

// Output returns the latched state of chain position pos.
func (s *ShiftOut) Output(pos int) bool {
	s.board.mu.Lock()
	defer s.board.mu.Unlock()
	chip, bit := pos/8, pos%8
	if s.cfg.Order == core.LSBFirst {
		bit = 7 - bit
	}
	return s.latched[chip*8+bit]
}

// Outputs returns every latched position in chain order.
func (s *ShiftOut) Outputs() []bool {
	out := make([]bool, len(s.latched))
	for i := range out {
		out[i] = s.Output(i)
	}
	return out
}

// Latches returns how many latch edges the chain has seen.
func (s *ShiftOut) Latches() int {
	s.board.mu.Lock()
	defer s.board.mu.Unlock()
	return s.latches
}

// Encoder is a quadrature counter turned by hand.
type Encoder struct {
	pos atomic.Int64

	mu    sync.Mutex
	fault error
}

// Turn adds counts; positive is clockwise.
func (e *Encoder) Turn(counts int) {
	e.pos.Add(int64(counts))
}

func (e *Encoder) Position() int {
	return int(e.pos.Load())
}

// Sample fails while a fault is set.
func (e *Encoder) Sample() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fault
}

// SetFault makes Sample fail with err until cleared with nil.
func (e *Encoder) SetFault(err error) {
	e.mu.Lock()
	e.fault = err
	e.mu.Unlock()
}

// ErrInjected is a generic fault for tests.
var ErrInjected = errors.New("injected fault")
