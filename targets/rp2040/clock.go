//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// HardwareClock implements core.Clock on the RP2040's 1MHz timer.
type HardwareClock struct{}

func NewHardwareClock() *HardwareClock {
	return &HardwareClock{}
}

// GetHardwareUptime reads the full 64-bit microsecond counter
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

func (c *HardwareClock) Now() time.Duration {
	return time.Duration(GetHardwareUptime()) * time.Microsecond
}

// Sleep spins on the timer. Mux settling is a few microseconds, far below
// the scheduler tick.
func (c *HardwareClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := GetHardwareUptime() + uint64((d+time.Microsecond-1)/time.Microsecond)
	for GetHardwareUptime() < deadline {
	}
}
