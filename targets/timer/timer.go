//go:build rp2040

// Package timer exposes the RP2040 hardware timer as a ticker clock source.
package timer

import (
	"runtime/volatile"
	"unsafe"

	"tickerfree/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word (no latching)
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word (no latching)
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// HardwareClock samples the RP2040's 64-bit, 1 MHz timer.
// Micros is the low word; Millis is derived from the full count so it keeps
// going for ~49 days before it wraps.
type HardwareClock struct{}

func (HardwareClock) Micros() uint32 {
	return timerRAWL.Get()
}

func (HardwareClock) Millis() uint32 {
	return uint32(Uptime() / 1000)
}

// Init registers the hardware timer as the tickers' clock source
// The timer runs at 1MHz once TinyGo's runtime has started the tick generator
func Init() {
	core.SetClockSource(HardwareClock{})
	Sync()
}

// Uptime reads the full 64-bit timer
func Uptime() uint64 {
	// Read high, low, high again to detect a carry between the reads
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// Sync mirrors the hardware timer into core's uptime
// Called from main loop
func Sync() {
	core.SetTime(Uptime())
}
