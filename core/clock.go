package core

// ClockSource supplies the free-running counters tickers are measured against.
// Both counters wrap at 32 bits; tickers rely on unsigned subtraction across
// the wrap, so a wrap is never an error.
type ClockSource interface {
	// Micros returns microseconds since an arbitrary epoch (usually boot)
	Micros() uint32

	// Millis returns milliseconds since the same epoch
	Millis() uint32
}

// SystemClock reads the uptime kept by SetTime/AdvanceTime.
// On hardware the target loop feeds it from its timer peripheral; on a host it
// is driven by tests and simulations.
type SystemClock struct{}

func (SystemClock) Micros() uint32 {
	return uint32(getUptimeMicros())
}

func (SystemClock) Millis() uint32 {
	return uint32(getUptimeMicros() / microsPerMilli)
}

// Global singleton sampled by tickers without their own clock.
var clockSource ClockSource = SystemClock{}

// SetClockSource is called by target-specific code to register its clock.
// nil restores the SystemClock.
func SetClockSource(c ClockSource) {
	if c == nil {
		c = SystemClock{}
	}
	clockSource = c
}

// MustClock returns the configured clock source or panics if missing.
func MustClock() ClockSource {
	if clockSource == nil {
		panic("clock source not configured")
	}
	return clockSource
}

// GetTime returns the current system time in microseconds (32-bit, wrapping)
func GetTime() uint32 {
	return uint32(getUptimeMicros())
}

// GetUptime returns the 64-bit uptime in microseconds
func GetUptime() uint64 {
	return getUptimeMicros()
}

// SetTime sets the system uptime (for testing/hardware integration)
func SetTime(us uint64) {
	setUptimeMicros(us)
}

// AdvanceTime moves the system uptime forward by us microseconds
func AdvanceTime(us uint64) {
	addUptimeMicros(us)
}

// ManualClock is a ClockSource whose counters only move when told to.
// Each counter wraps independently at 32 bits, like real hardware.
type ManualClock struct {
	micros uint32
	millis uint32
}

func (c *ManualClock) Micros() uint32 {
	return c.micros
}

func (c *ManualClock) Millis() uint32 {
	return c.millis
}

// Set places both counters at an absolute position
func (c *ManualClock) Set(micros, millis uint32) {
	c.micros = micros
	c.millis = millis
}

// AdvanceMicros moves the microsecond counter only
func (c *ManualClock) AdvanceMicros(us uint32) {
	c.micros += us
}

// AdvanceMillis moves the millisecond counter only
func (c *ManualClock) AdvanceMillis(ms uint32) {
	c.millis += ms
}
