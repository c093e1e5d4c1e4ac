package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// EventKind identifies a ticker lifecycle event
type EventKind uint8

// Event kind codes
const (
	EvtStart    EventKind = 1 // Start() armed the ticker
	EvtStop     EventKind = 2 // Stop() disarmed the ticker
	EvtPause    EventKind = 3 // Pause() captured elapsed time
	EvtResume   EventKind = 4 // Resume() re-armed the ticker
	EvtFire     EventKind = 5 // Interval elapsed, ticker keeps running
	EvtAutoStop EventKind = 6 // Last permitted firing, ticker now stopped
)

func (k EventKind) String() string {
	switch k {
	case EvtStart:
		return "START"
	case EvtStop:
		return "STOP"
	case EvtPause:
		return "PAUSE"
	case EvtResume:
		return "RESUME"
	case EvtFire:
		return "FIRE"
	case EvtAutoStop:
		return "AUTO_STOP"
	default:
		return "UNKNOWN"
	}
}

// Event captures a ticker transition for post-mortem analysis
type Event struct {
	OID     uint8     // Ticker object ID
	Kind    EventKind // Event type code
	Clock   uint32    // Clock sample in the ticker's resolution
	Counter uint32    // Firing count after the event
	State   Status    // Ticker state after the event
}

// EventSink receives every ticker event as it happens
type EventSink func(Event)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventsEnabled bool = true

	eventSink EventSink
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// SetEventSink registers a callback for ticker events (nil to disable)
func SetEventSink(sink EventSink) {
	eventSink = sink
}

// SetEventsEnabled turns event capture on or off.
// Polling loops with tight budgets can disable it entirely.
func SetEventsEnabled(enabled bool) {
	eventsEnabled = enabled
}

// recordEvent stores an event in the ring and forwards it to the sink.
// It runs on every poll that fires, so it must stay cheap.
func recordEvent(evt Event) {
	if !eventsEnabled {
		return
	}
	idx := eventRingHead
	eventRing[idx] = evt
	eventRingHead = (idx + 1) % EventRingSize

	// A sink already carries the event, so text goes out only without one
	if eventSink != nil {
		eventSink(evt)
	} else if debugEnabled {
		DebugPrintln(FormatEvent(evt))
	}
}

// RecentEvents returns the captured events, oldest first
func RecentEvents() []Event {
	events := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// FormatEvent renders an event as a single debug line
func FormatEvent(evt Event) string {
	return "[TICKER] " + evt.Kind.String() +
		" oid=" + Utoa(uint32(evt.OID)) +
		" clock=" + Utoa(evt.Clock) +
		" count=" + Utoa(evt.Counter) +
		" state=" + evt.State.String()
}

// DumpEventRing outputs the event ring (call on shutdown/error)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TICKER] === Event Ring Dump ===")
	for _, evt := range RecentEvents() {
		debugPrintln(FormatEvent(evt))
	}
	debugPrintln("[TICKER] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
