package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"synthpanel/control"
)

// ChannelConfig places one analog control on a multiplexer input.
type ChannelConfig struct {
	Bank  Bank
	Index int
	Param control.Param
	Scale control.Scale
}

// SwitchBit places one panel switch on an input chain. Momentary bits go
// through a Button debouncer; toggles are taken as read.
type SwitchBit struct {
	Switch    control.Switch
	Position  int
	Momentary bool
}

// InputChain is one input scanner and the switches wired to it.
type InputChain struct {
	Scanner *InputScanner
	Bits    []SwitchBit
}

// ButtonConfig wires a dedicated button pin.
type ButtonConfig struct {
	Button    control.Button
	Pin       GPIOPin
	ActiveLow bool // closed contact pulls the pin low; a pull-up is enabled
}

// ScannerConfig is everything the scan loop owns.
type ScannerConfig struct {
	GPIO       GPIODriver
	Clock      Clock
	Analog     *AnalogReader
	ADC        ADCConfig
	Hysteresis int
	Channels   []ChannelConfig
	Inputs     []InputChain
	Buttons    []ButtonConfig
	Timing     ButtonTiming
	Encoder    *Encoder
	Outputs    []OutputChain
	Logger     *zerolog.Logger
	Observer   ScanObserver
}

// ScanObserver is told about every completed cycle, e.g. to export metrics.
// err is the joined per-subsystem error of the cycle, or nil.
type ScanObserver interface {
	ObserveScan(cycle uint64, elapsed time.Duration, err error)
}

type channelState struct {
	ChannelConfig
	tracker Tracker
	sample  ADCValue
}

type switchState struct {
	SwitchBit
	button *Button
	last   bool
	known  bool
}

type chainState struct {
	scanner  *InputScanner
	switches []*switchState
}

type buttonState struct {
	ButtonConfig
	button *Button
}

// Scanner runs the polling cycle: analog banks, input chains, buttons,
// encoder, then output flushes. All hardware access happens inside Scan, on
// the caller's goroutine.
//
// Slow converters can make the analog pass longer than the debounce
// interval. Switches and buttons are therefore also polled between analog
// slots whenever a sixteenth of the debounce time has passed, and a polled
// encoder counter is sampled after every slot. Events from those polls are
// queued and delivered in the normal per-cycle order.
type Scanner struct {
	cfg    ScannerConfig
	log    *zerolog.Logger
	maxRaw int

	slots    [ChannelsPerBank][NumBanks]*channelState
	channels []*channelState // emission order: index-major, bank A before B
	chains   []*chainState
	buttons  []*buttonState
	sinks    []Sink

	cycle   uint64
	faulted map[Subsystem]bool
	faults  map[Subsystem]uint64

	pollEvery   time.Duration
	lastDigital time.Duration
	inputEvents []Event
	buttonEvts  []Event
	inputErrs   []error
	buttonErrs  []error
	encoderErrs []error
}

// NewScanner validates the layout. Overlapping or out-of-range entries fail
// with ErrConfigMismatch.
func NewScanner(cfg ScannerConfig) (*Scanner, error) {
	if cfg.Clock == nil {
		return nil, configErrorf("scanner needs a clock")
	}
	if cfg.ADC.Resolution == 0 {
		cfg.ADC = DefaultADCConfig()
	}
	if cfg.Hysteresis <= 0 {
		cfg.Hysteresis = DefaultHysteresis
	}
	if cfg.Timing == (ButtonTiming{}) {
		cfg.Timing = DefaultButtonTiming()
	}
	if err := cfg.Timing.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	s := &Scanner{
		cfg:     cfg,
		log:     log,
		maxRaw:  cfg.ADC.MaxValue(),
		faulted: make(map[Subsystem]bool),
		faults:  make(map[Subsystem]uint64),

		pollEvery: cfg.Timing.Debounce / 16,
	}

	if err := s.layoutChannels(); err != nil {
		return nil, err
	}
	if err := s.layoutSwitches(); err != nil {
		return nil, err
	}
	if err := s.layoutButtons(); err != nil {
		return nil, err
	}
	for i, oc := range cfg.Outputs {
		if oc.Driver == nil || oc.Buffer == nil {
			return nil, configErrorf("output chain %d (%s) is incomplete", i, oc.Name)
		}
		if oc.Buffer.Len() != oc.Driver.Bits() {
			return nil, configErrorf("output chain %s buffer has %d bits, chain has %d", oc.Name, oc.Buffer.Len(), oc.Driver.Bits())
		}
	}
	return s, nil
}

func (s *Scanner) layoutChannels() error {
	if len(s.cfg.Channels) > 0 && s.cfg.Analog == nil {
		return configErrorf("%d analog channels but no analog reader", len(s.cfg.Channels))
	}
	params := make(map[control.Param]bool, len(s.cfg.Channels))
	for _, c := range s.cfg.Channels {
		if int(c.Bank) >= NumBanks || c.Index < 0 || c.Index >= ChannelsPerBank {
			return configErrorf("channel %s at %s/%d out of range", c.Param, c.Bank, c.Index)
		}
		if !c.Param.Valid() {
			return configErrorf("channel %s/%d has unknown parameter %d", c.Bank, c.Index, c.Param)
		}
		if prev := s.slots[c.Index][c.Bank]; prev != nil {
			return configErrorf("channels %s and %s both at %s/%d", prev.Param, c.Param, c.Bank, c.Index)
		}
		if params[c.Param] {
			return configErrorf("parameter %s mapped to two channels", c.Param)
		}
		params[c.Param] = true
		s.slots[c.Index][c.Bank] = &channelState{
			ChannelConfig: c,
			tracker:       NewTracker(s.cfg.Hysteresis),
		}
	}
	for idx := range s.slots {
		for _, ch := range s.slots[idx] {
			if ch != nil {
				s.channels = append(s.channels, ch)
			}
		}
	}
	return nil
}

func (s *Scanner) layoutSwitches() error {
	tags := make(map[control.Switch]bool)
	for i, ic := range s.cfg.Inputs {
		if ic.Scanner == nil {
			return configErrorf("input chain %d has no scanner", i)
		}
		cs := &chainState{scanner: ic.Scanner}
		positions := make(map[int]control.Switch, len(ic.Bits))
		for _, b := range ic.Bits {
			if b.Position < 0 || b.Position >= ic.Scanner.Bits() {
				return configErrorf("switch %s at position %d outside %d bit chain", b.Switch, b.Position, ic.Scanner.Bits())
			}
			if other, dup := positions[b.Position]; dup {
				return configErrorf("switches %s and %s both at chain position %d", other, b.Switch, b.Position)
			}
			if tags[b.Switch] {
				return configErrorf("switch %s wired twice", b.Switch)
			}
			positions[b.Position] = b.Switch
			tags[b.Switch] = true

			st := &switchState{SwitchBit: b}
			if b.Momentary {
				st.button = NewButton(s.cfg.Timing)
			}
			cs.switches = append(cs.switches, st)
		}
		s.chains = append(s.chains, cs)
	}
	return nil
}

func (s *Scanner) layoutButtons() error {
	if len(s.cfg.Buttons) > 0 && s.cfg.GPIO == nil {
		return configErrorf("%d buttons but no GPIO driver", len(s.cfg.Buttons))
	}
	ids := make(map[control.Button]bool)
	pins := make(map[GPIOPin]control.Button)
	for _, b := range s.cfg.Buttons {
		if ids[b.Button] {
			return configErrorf("button %s wired twice", b.Button)
		}
		if other, dup := pins[b.Pin]; dup {
			return configErrorf("buttons %s and %s share pin %d", other, b.Button, b.Pin)
		}
		ids[b.Button] = true
		pins[b.Pin] = b.Button
		s.buttons = append(s.buttons, &buttonState{ButtonConfig: b, button: NewButton(s.cfg.Timing)})
	}
	return nil
}

// Init configures every peripheral the scanner owns.
func (s *Scanner) Init() error {
	if s.cfg.Analog != nil {
		if err := s.cfg.Analog.Init(s.cfg.ADC); err != nil {
			return err
		}
	}
	for _, c := range s.chains {
		if err := c.scanner.Init(); err != nil {
			return err
		}
	}
	for _, b := range s.buttons {
		var err error
		if b.ActiveLow {
			err = s.cfg.GPIO.ConfigureInputPullUp(b.Pin)
		} else {
			err = s.cfg.GPIO.ConfigureInputPullDown(b.Pin)
		}
		if err != nil {
			return fmt.Errorf("configure button %s: %w", b.Button, err)
		}
	}
	for _, oc := range s.cfg.Outputs {
		if err := oc.Driver.Init(); err != nil {
			return err
		}
	}
	s.log.Info().
		Int("channels", len(s.channels)).
		Int("input_chains", len(s.chains)).
		Int("buttons", len(s.buttons)).
		Int("output_chains", len(s.cfg.Outputs)).
		Msg("control surface initialized")
	return nil
}

// AddSink registers a consumer. Sinks receive events in registration order.
func (s *Scanner) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

func (s *Scanner) emit(ev Event) {
	for _, sink := range s.sinks {
		sink.HandleEvent(ev)
	}
}

// Seed primes the hysteresis filters from stored logical values. Knobs whose
// position still matches the patch then stay silent until moved; channels
// not in values keep their current reference.
func (s *Scanner) Seed(values map[control.Param]int) {
	for _, ch := range s.channels {
		if v, ok := values[ch.Param]; ok {
			ch.tracker.Seed(ADCValue(ch.Scale.Unmap(v, s.maxRaw)))
		}
	}
}

// Resync forces every knob to report its position on the next cycle.
func (s *Scanner) Resync() {
	for _, ch := range s.channels {
		ch.tracker.Reset()
	}
}

// Cycle returns the number of completed Scan calls.
func (s *Scanner) Cycle() uint64 {
	return s.cycle
}

// Faults returns how many cycles sub has failed.
func (s *Scanner) Faults(sub Subsystem) uint64 {
	return s.faults[sub]
}

// Scan runs one full cycle. A failing subsystem emits nothing for this cycle
// and is retried on the next; the others carry on. The returned error joins
// the per-subsystem faults and is informational only.
func (s *Scanner) Scan() error {
	s.cycle++
	start := s.cfg.Clock.Now()
	s.inputEvents, s.buttonEvts = s.inputEvents[:0], s.buttonEvts[:0]
	s.inputErrs, s.buttonErrs, s.encoderErrs = nil, nil, nil

	var errs []error
	s.run(SubsystemAnalog, s.scanAnalog, &errs)
	s.pollDigital(s.cfg.Clock.Now())
	s.run(SubsystemInputs, func() error { return s.deliver(s.inputEvents, s.inputErrs) }, &errs)
	s.run(SubsystemButtons, func() error { return s.deliver(s.buttonEvts, s.buttonErrs) }, &errs)
	s.run(SubsystemEncoder, s.scanEncoder, &errs)
	s.run(SubsystemOutputs, s.flushOutputs, &errs)

	err := errors.Join(errs...)
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveScan(s.cycle, s.cfg.Clock.Now()-start, err)
	}
	return err
}

// deliver emits queued events. Events of polls that succeeded are delivered
// even when another poll of the same subsystem failed.
func (s *Scanner) deliver(events []Event, errs []error) error {
	for _, ev := range events {
		s.emit(ev)
	}
	return errors.Join(errs...)
}

// pollDigital reads the input chains and dedicated buttons and queues their
// events.
func (s *Scanner) pollDigital(now time.Duration) {
	s.lastDigital = now
	s.pollInputs(now)
	s.pollButtons(now)
}

// pollBetweenSlots runs after each analog slot.
func (s *Scanner) pollBetweenSlots() {
	now := s.cfg.Clock.Now()
	if now-s.lastDigital >= s.pollEvery {
		s.pollDigital(now)
	}
	if s.cfg.Encoder != nil {
		if err := s.cfg.Encoder.Sample(); err != nil {
			s.encoderErrs = append(s.encoderErrs, err)
		}
	}
}

func (s *Scanner) run(sub Subsystem, fn func() error, errs *[]error) {
	err := fn()
	if err == nil {
		if s.faulted[sub] {
			s.faulted[sub] = false
			s.log.Info().Str("subsystem", string(sub)).Uint64("cycle", s.cycle).Msg("subsystem recovered")
		}
		return
	}

	s.faults[sub]++
	if !s.faulted[sub] {
		s.faulted[sub] = true
		s.log.Warn().Err(err).Str("subsystem", string(sub)).Uint64("cycle", s.cycle).Msg("subsystem fault, skipping its events")
	} else {
		s.log.Debug().Err(err).Str("subsystem", string(sub)).Uint64("cycle", s.cycle).Msg("subsystem still failing")
	}
	*errs = append(*errs, &SubsystemError{Subsystem: sub, Cycle: s.cycle, Err: err})
}

// scanAnalog reads every channel first and only then runs the filters, so a
// read failure part way through leaves no channel half-updated.
func (s *Scanner) scanAnalog() error {
	if len(s.channels) == 0 {
		return nil
	}

	for idx := range s.slots {
		slot := &s.slots[idx]
		if slot[BankA] == nil && slot[BankB] == nil {
			continue
		}
		// Address both banks before converting either so their settling
		// overlaps.
		for b, ch := range slot {
			if ch != nil {
				if err := s.cfg.Analog.Select(Bank(b), idx); err != nil {
					return err
				}
			}
		}
		for b, ch := range slot {
			if ch != nil {
				v, err := s.cfg.Analog.ReadRaw(Bank(b))
				if err != nil {
					return err
				}
				ch.sample = v
			}
		}
		s.pollBetweenSlots()
	}

	for _, ch := range s.channels {
		if !ch.tracker.Update(ch.sample) {
			continue
		}
		s.emit(ParameterChanged{
			Param:  ch.Param,
			Value:  ch.Scale.Map(int(ch.sample), s.maxRaw),
			Raw:    ch.sample,
			Source: SourceKnob,
			Cycle:  s.cycle,
		})
	}
	return nil
}

func (s *Scanner) pollInputs(now time.Duration) {
	for i, c := range s.chains {
		bits, err := c.scanner.Scan()
		if err != nil {
			s.inputErrs = append(s.inputErrs, fmt.Errorf("input chain %d: %w", i, err))
			continue
		}
		for _, sw := range c.switches {
			level := bits[sw.Position]
			if sw.button != nil {
				switch sw.button.Poll(level, now) {
				case ActionPress:
					s.inputEvents = append(s.inputEvents, SwitchChanged{Switch: sw.Switch, On: true, Cycle: s.cycle})
				case ActionClick, ActionRelease, ActionReleaseAfterHold:
					s.inputEvents = append(s.inputEvents, SwitchChanged{Switch: sw.Switch, On: false, Cycle: s.cycle})
				}
				continue
			}
			if sw.known && sw.last == level {
				continue
			}
			sw.last, sw.known = level, true
			s.inputEvents = append(s.inputEvents, SwitchChanged{Switch: sw.Switch, On: level, Cycle: s.cycle})
		}
	}
}

func (s *Scanner) pollButtons(now time.Duration) {
	for _, b := range s.buttons {
		level, err := s.cfg.GPIO.GetPin(b.Pin)
		if err != nil {
			s.buttonErrs = append(s.buttonErrs, fmt.Errorf("button %s: %w", b.Button, err))
			continue
		}
		held := b.button.Since(now)
		var ev Event
		switch b.button.Poll(level != b.ActiveLow, now) {
		case ActionPress:
			ev = ButtonPressed{Button: b.Button, At: now}
		case ActionHold:
			ev = ButtonHeld{Button: b.Button}
		case ActionClick:
			ev = ButtonClicked{Button: b.Button, Duration: held}
		case ActionRelease:
			ev = ButtonReleased{Button: b.Button, Duration: held}
		case ActionReleaseAfterHold:
			ev = ButtonReleased{Button: b.Button, AfterHold: true, Duration: held}
		default:
			continue
		}
		s.buttonEvts = append(s.buttonEvts, ev)
	}
}

func (s *Scanner) scanEncoder() error {
	if s.cfg.Encoder == nil {
		return nil
	}
	if len(s.encoderErrs) > 0 {
		return errors.Join(s.encoderErrs...)
	}
	delta, err := s.cfg.Encoder.Poll()
	if err != nil {
		return err
	}
	if delta != 0 {
		s.emit(EncoderStep{Delta: delta})
	}
	return nil
}

func (s *Scanner) flushOutputs() error {
	var errs []error
	for _, oc := range s.cfg.Outputs {
		if !oc.Buffer.Dirty() {
			continue
		}
		if err := oc.Driver.Flush(oc.Buffer.bits); err != nil {
			errs = append(errs, fmt.Errorf("output chain %s: %w", oc.Name, err))
			continue
		}
		oc.Buffer.markClean()
	}
	return errors.Join(errs...)
}

// Run scans every interval until ctx is done.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scan interval %v must be positive", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", interval).Msg("scan loop started")
	for {
		_ = s.Scan()
		select {
		case <-ctx.Done():
			s.log.Info().Uint64("cycles", s.cycle).Msg("scan loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}
