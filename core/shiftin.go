// Serial input scanner for cascaded 74HC165 parallel-in shift registers.
// Each register sits behind one output of a 4-bit demultiplexer; two
// demultiplexer trees, each with its own active-low chip-select, give up to 32
// addressable registers.
package core

import "fmt"

// BitOrder is the order bits leave (or enter) a register. It follows the
// harness wiring and is fixed at build time.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

const (
	bitsPerChip = 8
	numTrees    = 2
)

// ChipAddress locates one input register: which demux tree and which of its
// 16 outputs.
type ChipAddress struct {
	Tree    uint8
	Address uint8
}

// InputScannerConfig wires the input chain.
type InputScannerConfig struct {
	Address    [addressBits]GPIOPin // demux select lines, bit 0 first
	ChipSelect [numTrees]GPIOPin    // one active-low enable per tree
	Load       GPIOPin              // active-low parallel load
	Clock      GPIOPin
	Data       GPIOPin
	Chips      []ChipAddress // chain order: position = chip*8 + bit
	Order      BitOrder
	ActiveLow  bool // switches pull the register input low when closed
}

// InputScanner reads every bit of the input chain. It does not debounce.
type InputScanner struct {
	gpio  GPIODriver
	cfg   InputScannerConfig
	state []bool
}

// NewInputScanner validates cfg.
func NewInputScanner(gpio GPIODriver, cfg InputScannerConfig) (*InputScanner, error) {
	if gpio == nil {
		return nil, configErrorf("input scanner needs a GPIO driver")
	}
	if len(cfg.Chips) == 0 {
		return nil, configErrorf("input chain has no registers")
	}

	seen := make(map[ChipAddress]int, len(cfg.Chips))
	for i, c := range cfg.Chips {
		if c.Tree >= numTrees || c.Address >= ChannelsPerBank {
			return nil, configErrorf("input register %d at tree %d address %d out of range", i, c.Tree, c.Address)
		}
		if prev, dup := seen[c]; dup {
			return nil, configErrorf("input registers %d and %d share tree %d address %d", prev, i, c.Tree, c.Address)
		}
		seen[c] = i
	}

	pins := map[GPIOPin]string{}
	claim := func(pin GPIOPin, role string) error {
		if other, used := pins[pin]; used {
			return configErrorf("input chain pin %d used as %s and %s", pin, other, role)
		}
		pins[pin] = role
		return nil
	}
	for i, pin := range cfg.Address {
		if err := claim(pin, fmt.Sprintf("address bit %d", i)); err != nil {
			return nil, err
		}
	}
	for i, pin := range cfg.ChipSelect {
		if err := claim(pin, fmt.Sprintf("chip select %d", i)); err != nil {
			return nil, err
		}
	}
	for _, p := range []struct {
		pin  GPIOPin
		role string
	}{{cfg.Load, "load"}, {cfg.Clock, "clock"}, {cfg.Data, "data"}} {
		if err := claim(p.pin, p.role); err != nil {
			return nil, err
		}
	}

	return &InputScanner{
		gpio:  gpio,
		cfg:   cfg,
		state: make([]bool, len(cfg.Chips)*bitsPerChip),
	}, nil
}

// Bits returns the number of positions in the chain.
func (s *InputScanner) Bits() int {
	return len(s.state)
}

// Init configures pins and parks the chain: chip selects and load high, clock
// low.
func (s *InputScanner) Init() error {
	outputs := append([]GPIOPin{}, s.cfg.Address[:]...)
	outputs = append(outputs, s.cfg.ChipSelect[:]...)
	outputs = append(outputs, s.cfg.Load, s.cfg.Clock)
	for _, pin := range outputs {
		if err := s.gpio.ConfigureOutput(pin); err != nil {
			return fmt.Errorf("configure input chain pin %d: %w", pin, err)
		}
	}
	if err := s.gpio.ConfigureInputPullUp(s.cfg.Data); err != nil {
		return fmt.Errorf("configure input data pin %d: %w", s.cfg.Data, err)
	}

	for _, pin := range s.cfg.Address {
		if err := s.gpio.SetPin(pin, false); err != nil {
			return err
		}
	}
	for _, pin := range s.cfg.ChipSelect {
		if err := s.gpio.SetPin(pin, true); err != nil {
			return err
		}
	}
	if err := s.gpio.SetPin(s.cfg.Load, true); err != nil {
		return err
	}
	return s.gpio.SetPin(s.cfg.Clock, false)
}

// Scan reads the whole chain and returns the closed/open state of every
// position. The returned slice is reused by the next Scan.
func (s *InputScanner) Scan() ([]bool, error) {
	for chip, addr := range s.cfg.Chips {
		if err := s.readChip(chip, addr); err != nil {
			// Leave the trees deselected for the next attempt.
			s.deselect()
			return nil, fmt.Errorf("input register %d: %w", chip, err)
		}
	}
	return s.state, nil
}

func (s *InputScanner) readChip(chip int, addr ChipAddress) error {
	for bit, pin := range s.cfg.Address {
		if err := s.gpio.SetPin(pin, addr.Address>>bit&1 == 1); err != nil {
			return err
		}
	}
	for tree, pin := range s.cfg.ChipSelect {
		if err := s.gpio.SetPin(pin, tree != int(addr.Tree)); err != nil {
			return err
		}
	}

	// Latch the parallel inputs.
	if err := pulse(s.gpio, s.cfg.Load, false); err != nil {
		return err
	}

	base := chip * bitsPerChip
	for i := 0; i < bitsPerChip; i++ {
		level, err := s.gpio.GetPin(s.cfg.Data)
		if err != nil {
			return err
		}
		bit := bitsPerChip - 1 - i
		if s.cfg.Order == LSBFirst {
			bit = i
		}
		s.state[base+bit] = level != s.cfg.ActiveLow
		if err := pulse(s.gpio, s.cfg.Clock, true); err != nil {
			return err
		}
	}

	return s.gpio.SetPin(s.cfg.ChipSelect[addr.Tree], true)
}

func (s *InputScanner) deselect() {
	for _, pin := range s.cfg.ChipSelect {
		_ = s.gpio.SetPin(pin, true)
	}
}
