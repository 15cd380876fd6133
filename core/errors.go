package core

import (
	"errors"
	"fmt"
)

var (
	// ErrHardwareTimeout marks a converter or register that did not answer in
	// its bounded time. The affected subsystem is skipped for the cycle.
	ErrHardwareTimeout = errors.New("hardware timeout")

	// ErrConfigMismatch marks overlapping or out-of-range layout entries.
	// It is only returned at construction time.
	ErrConfigMismatch = errors.New("configuration mismatch")
)

// Subsystem names one independently failing part of a scan cycle.
type Subsystem string

const (
	SubsystemAnalog  Subsystem = "analog"
	SubsystemInputs  Subsystem = "inputs"
	SubsystemButtons Subsystem = "buttons"
	SubsystemEncoder Subsystem = "encoder"
	SubsystemOutputs Subsystem = "outputs"
)

// SubsystemError reports a fault confined to one subsystem in one cycle.
type SubsystemError struct {
	Subsystem Subsystem
	Cycle     uint64
	Err       error
}

func (e *SubsystemError) Error() string {
	return fmt.Sprintf("%s subsystem, cycle %d: %v", e.Subsystem, e.Cycle, e.Err)
}

func (e *SubsystemError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfigMismatch, fmt.Sprintf(format, args...))
}
