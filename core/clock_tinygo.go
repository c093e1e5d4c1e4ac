//go:build tinygo

package core

import "runtime/interrupt"

// Cortex-M0+ has no 64-bit atomics, so the uptime is guarded by masking
// interrupts instead. Targets may advance it from a timer ISR.
var uptimeValue uint64

// getUptimeMicros returns the system uptime
func getUptimeMicros() uint64 {
	state := interrupt.Disable()
	us := uptimeValue
	interrupt.Restore(state)
	return us
}

// setUptimeMicros sets the system uptime
func setUptimeMicros(us uint64) {
	state := interrupt.Disable()
	uptimeValue = us
	interrupt.Restore(state)
}

func addUptimeMicros(us uint64) {
	state := interrupt.Disable()
	uptimeValue += us
	interrupt.Restore(state)
}
