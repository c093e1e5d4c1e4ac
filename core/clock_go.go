//go:build !tinygo

package core

import "sync/atomic"

var uptimeMicros atomic.Uint64

// getUptimeMicros returns the system uptime (regular Go implementation)
func getUptimeMicros() uint64 {
	return uptimeMicros.Load()
}

// setUptimeMicros sets the system uptime (regular Go implementation)
func setUptimeMicros(us uint64) {
	uptimeMicros.Store(us)
}

func addUptimeMicros(us uint64) {
	uptimeMicros.Add(us)
}
