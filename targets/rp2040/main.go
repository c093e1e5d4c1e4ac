//go:build rp2040

// Demo firmware: a few polled tickers sharing one main loop, with every ticker
// event streamed over USB for tickerfree-monitor.
package main

import (
	"machine"
	"time"

	"tickerfree/core"
	"tickerfree/protocol"
	"tickerfree/targets/timer"
)

// Ticker object IDs as they appear in the event stream
const (
	oidHeartbeat = 1
	oidBurst     = 2
	oidBurstKick = 3
	oidStatus    = 4
	oidButton    = 5
)

const (
	heartbeatMillis = 500
	burstMicros     = 40000 // 25 Hz flashes
	burstFlashes    = 6
	burstKickMillis = 5000
	statusMillis    = 10000
	buttonMicros    = 5000 // Debounce sample period
)

var (
	led      = machine.LED
	burstPin = machine.GP14
	button   = machine.GP15 // Active low, to ground

	outputBuffer *protocol.ScratchOutput
	reporter     *core.Reporter

	heartbeat *core.FuncTicker
	burst     *core.Ticker[machine.Pin]
	burstKick *core.FuncTicker
	status    *core.FuncTicker
	debounce  *core.Ticker[bool]

	buttonStable  = true
	buttonSamples uint8
	loops         uint32

	consecutiveWriteFailures uint32
)

func main() {
	// Disable watchdog left over from a previous image
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	timer.Init()

	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	burstPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	button.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	outputBuffer = protocol.NewScratchOutput()
	reporter = core.NewReporter(outputBuffer)
	core.SetEventSink(reporter.HandleEvent)
	core.SetDebugWriter(reporter.Println)
	core.SetDebugEnabled(true)

	setupTickers()
	core.DebugPrintln("tickerfree rp2040 ready")

	// Sync byte so a monitor attaching mid-stream lines up on our first frame
	outputBuffer.Output([]byte{protocol.MessageValueSync})

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					core.DumpEventRing()
					outputBuffer.Reset()
				}
			}()

			timer.Sync()
			pollTickers()
			writeUSB()
			loops++
		}()

		// Yield to the USB stack
		time.Sleep(50 * time.Microsecond)
	}
}

func setupTickers() {
	// Blink forever until the button pauses it
	heartbeat = core.NewFuncTicker(func() {
		led.Set(!led.Get())
	}, heartbeatMillis, core.RepeatForever, core.ResolutionMillis)
	heartbeat.SetOID(oidHeartbeat)

	// A fixed number of fast flashes on whichever pin is passed at poll time
	burst = core.NewTicker(func(pin machine.Pin) {
		pin.Set(!pin.Get())
	}, burstMicros, burstFlashes*2, core.ResolutionMicros)
	burst.SetOID(oidBurst)

	// Restart the burst every few seconds unless one is still running
	burstKick = core.NewFuncTicker(func() {
		if burst.State() == core.Stopped {
			burst.Start()
		}
	}, burstKickMillis, core.RepeatForever, core.ResolutionMillis)
	burstKick.SetOID(oidBurstKick)

	status = core.NewFuncTicker(reportStatus, statusMillis, core.RepeatForever, core.ResolutionMillis)
	status.SetOID(oidStatus)

	// Sample the button at a fixed rate; the raw level is the trigger argument
	debounce = core.NewTicker(sampleButton, buttonMicros, core.RepeatForever, core.ResolutionMicros)
	debounce.SetOID(oidButton)
	debounce.SetTraced(false) // Fires every 5ms, too chatty for the event stream

	heartbeat.Start()
	burstKick.Start()
	status.Start()
	debounce.Start()
}

func pollTickers() {
	heartbeat.Update()
	burst.Trigger(burstPin)
	burstKick.Update()
	status.Update()
	debounce.Trigger(button.Get())
}

// sampleButton toggles the heartbeat on a debounced press
func sampleButton(high bool) {
	if high == buttonStable {
		buttonSamples = 0
		return
	}
	buttonSamples++
	if buttonSamples < 4 {
		return
	}
	buttonSamples = 0
	buttonStable = high

	if high {
		return // Release
	}
	switch heartbeat.State() {
	case core.Running:
		heartbeat.Pause()
		core.DebugPrintln("heartbeat paused, " + core.Utoa(heartbeat.Remaining()) + "ms left")
	default:
		heartbeat.Resume()
		core.DebugPrintln("heartbeat resumed")
	}
}

func reportStatus() {
	core.DebugPrintln("loops=" + core.Utoa(loops) +
		" beats=" + core.Utoa(heartbeat.Counter()) +
		" dropped=" + core.Utoa(reporter.Dropped))
	loops = 0
}

// writeUSB writes pending frames; a host that is not listening just loses them
func writeUSB() {
	result := outputBuffer.Result()
	if len(result) == 0 {
		return
	}

	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				// Likely disconnected: drop stale frames, restart numbering
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				reporter.Reset()
				return
			}
			// Keep only the unsent tail so the next write does not repeat bytes
			outputBuffer.Discard(written)
			return
		}
		written += n
	}

	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
