package core

import "time"

// Button states
const (
	ButtonIdle ButtonState = iota
	ButtonDebouncing
	ButtonDown
	ButtonHeldFired
)

// ButtonState is the debounce/hold state of one button.
type ButtonState uint8

func (s ButtonState) String() string {
	switch s {
	case ButtonIdle:
		return "idle"
	case ButtonDebouncing:
		return "debouncing"
	case ButtonDown:
		return "pressed"
	case ButtonHeldFired:
		return "held"
	default:
		return "unknown"
	}
}

// ButtonAction is what one poll of a button produced.
type ButtonAction uint8

const (
	ActionNone ButtonAction = iota
	ActionPress
	ActionHold
	ActionClick
	ActionRelease
	ActionReleaseAfterHold
)

// Default button timing
const (
	DefaultDebounce = 30 * time.Millisecond
	DefaultClick    = 400 * time.Millisecond
	DefaultHold     = 750 * time.Millisecond
)

// ButtonTiming holds the thresholds of the press state machine.
type ButtonTiming struct {
	Debounce time.Duration // active time before a press counts
	Click    time.Duration // presses released before this are clicks
	Hold     time.Duration // active time at which the hold fires
}

// DefaultButtonTiming returns the panel's tuned thresholds.
func DefaultButtonTiming() ButtonTiming {
	return ButtonTiming{Debounce: DefaultDebounce, Click: DefaultClick, Hold: DefaultHold}
}

// Validate checks Debounce < Click <= Hold.
func (t ButtonTiming) Validate() error {
	if t.Debounce <= 0 {
		return configErrorf("debounce %v must be positive", t.Debounce)
	}
	if t.Click <= t.Debounce {
		return configErrorf("click duration %v must exceed debounce %v", t.Click, t.Debounce)
	}
	if t.Hold < t.Click {
		return configErrorf("hold duration %v shorter than click duration %v", t.Hold, t.Click)
	}
	return nil
}

// Button filters one contact. It is polled, not interrupt driven; polls must
// come at least every Debounce/2 to catch the shortest valid press.
type Button struct {
	timing    ButtonTiming
	state     ButtonState
	pressedAt time.Duration
}

// NewButton returns an idle button.
func NewButton(timing ButtonTiming) *Button {
	return &Button{timing: timing}
}

// State returns the current state.
func (b *Button) State() ButtonState {
	return b.state
}

// Since returns how long the current press has been active, zero when idle.
func (b *Button) Since(now time.Duration) time.Duration {
	if b.state == ButtonIdle {
		return 0
	}
	return now - b.pressedAt
}

// Poll advances the state machine with the contact's logical level at now.
func (b *Button) Poll(active bool, now time.Duration) ButtonAction {
	switch b.state {
	case ButtonIdle:
		if active {
			b.state = ButtonDebouncing
			b.pressedAt = now
		}
		return ActionNone

	case ButtonDebouncing:
		if !active {
			// Bounce shorter than the debounce interval.
			b.state = ButtonIdle
			return ActionNone
		}
		if now-b.pressedAt >= b.timing.Debounce {
			b.state = ButtonDown
			return ActionPress
		}
		return ActionNone

	case ButtonDown:
		if !active {
			b.state = ButtonIdle
			if now-b.pressedAt < b.timing.Click {
				return ActionClick
			}
			return ActionRelease
		}
		if now-b.pressedAt >= b.timing.Hold {
			b.state = ButtonHeldFired
			return ActionHold
		}
		return ActionNone

	case ButtonHeldFired:
		if !active {
			b.state = ButtonIdle
			return ActionReleaseAfterHold
		}
		return ActionNone
	}
	return ActionNone
}
