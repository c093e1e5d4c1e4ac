// Polling software tickers
// A ticker fires a callback once its interval has elapsed, optionally a fixed
// number of times. Nothing runs on its own: the main loop polls each ticker.
package core

// Resolution selects which clock function a ticker samples
type Resolution uint8

const (
	ResolutionMicros Resolution = iota // Fine: microsecond clock, intervals up to ~71 min
	ResolutionMillis                   // Coarse: millisecond clock, for longer intervals
)

func (r Resolution) String() string {
	switch r {
	case ResolutionMicros:
		return "micros"
	case ResolutionMillis:
		return "millis"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a ticker
type Status uint8

const (
	Stopped Status = iota
	Running
	Paused
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

const (
	// RepeatForever keeps a ticker firing until stopped
	RepeatForever = 0

	// countSentinel is never treated as the last firing, so unlimited tickers
	// survive their counter wrapping
	countSentinel = 0xFFFFFFFF

	microsPerMilli = 1000
)

// tickerState is the state machine shared by both calling conventions
type tickerState struct {
	interval      uint64 // Always microseconds, whatever the resolution
	resolution    Resolution
	repeat        uint32
	counts        uint32
	lastTime      uint32
	pausedElapsed uint32
	status        Status
	armed         bool

	clock    ClockSource // nil samples the registered clock
	oid      uint8
	untraced bool
}

func newTickerState(interval, repeat uint32, resolution Resolution) tickerState {
	s := tickerState{
		repeat:     repeat,
		resolution: resolution,
		status:     Stopped,
	}
	s.SetInterval(interval)
	return s
}

// now samples the clock in the ticker's resolution
func (s *tickerState) now() uint32 {
	c := s.clock
	if c == nil {
		c = MustClock()
	}
	if s.resolution == ResolutionMillis {
		return c.Millis()
	}
	return c.Micros()
}

// threshold returns the interval in units of the sampled clock
func (s *tickerState) threshold() uint32 {
	if s.resolution == ResolutionMillis {
		return uint32(s.interval / microsPerMilli)
	}
	return uint32(s.interval)
}

func (s *tickerState) start() {
	s.lastTime = s.now()
	s.counts = 0
	s.armed = true
	s.status = Running
	s.trace(EvtStart, s.lastTime)
}

func (s *tickerState) resume() {
	if s.status == Running {
		return
	}
	current := s.now()
	s.lastTime = current - s.pausedElapsed
	if s.status == Stopped {
		s.counts = 0
	}
	s.armed = true
	s.status = Running
	s.trace(EvtResume, current)
}

// Stop halts the ticker and clears its firing count
func (s *tickerState) Stop() {
	s.armed = false
	s.counts = 0
	s.status = Stopped
	s.trace(EvtStop, s.now())
}

// Pause freezes the elapsed time so Resume continues where it left off.
// Only meaningful on a running ticker.
func (s *tickerState) Pause() {
	current := s.now()
	s.pausedElapsed = current - s.lastTime
	s.armed = false
	s.status = Paused
	s.trace(EvtPause, current)
}

// tick reports whether the interval has elapsed since the last firing
func (s *tickerState) tick() bool {
	if !s.armed {
		return false
	}

	current := s.now()
	if current-s.lastTime < s.threshold() {
		return false
	}

	// Re-anchor on the sample, late polls are not made up
	s.lastTime = current

	if s.repeat-s.counts == 1 && s.counts != countSentinel {
		// Last permitted firing: report stopped before the callback runs
		s.armed = false
		s.status = Stopped
		s.counts++
		s.trace(EvtAutoStop, current)
		return true
	}

	s.counts++
	s.trace(EvtFire, current)
	return true
}

// SetInterval sets the interval in the ticker's resolution unit
func (s *tickerState) SetInterval(interval uint32) {
	if s.resolution == ResolutionMillis {
		s.interval = uint64(interval) * microsPerMilli
		return
	}
	s.interval = uint64(interval)
}

// Interval returns the interval in the ticker's resolution unit
func (s *tickerState) Interval() uint32 {
	if s.resolution == ResolutionMillis {
		return uint32(s.interval / microsPerMilli)
	}
	return uint32(s.interval)
}

// Elapsed returns the clock ticks since the last firing or start
func (s *tickerState) Elapsed() uint32 {
	return s.now() - s.lastTime
}

// Remaining returns the clock ticks until the next firing, or 0 when overdue
func (s *tickerState) Remaining() uint32 {
	threshold := s.threshold()
	elapsed := s.Elapsed()
	if elapsed >= threshold {
		return 0
	}
	return threshold - elapsed
}

// State returns the current lifecycle state
func (s *tickerState) State() Status {
	return s.status
}

// Counter returns the number of firings since the last start or stop
func (s *tickerState) Counter() uint32 {
	return s.counts
}

func (s *tickerState) Resolution() Resolution {
	return s.resolution
}

func (s *tickerState) Repeat() uint32 {
	return s.repeat
}

// SetRepeat changes the firing limit; RepeatForever removes it
func (s *tickerState) SetRepeat(repeat uint32) {
	s.repeat = repeat
}

// SetClock overrides the clock source for this ticker (nil restores the global one)
func (s *tickerState) SetClock(c ClockSource) {
	s.clock = c
}

// SetOID tags trace events emitted by this ticker
func (s *tickerState) SetOID(oid uint8) {
	s.oid = oid
}

func (s *tickerState) OID() uint8 {
	return s.oid
}

// SetTraced controls whether this ticker emits events (on by default)
func (s *tickerState) SetTraced(traced bool) {
	s.untraced = !traced
}

func (s *tickerState) trace(kind EventKind, clock uint32) {
	if s.untraced {
		return
	}
	recordEvent(Event{
		OID:     s.oid,
		Kind:    kind,
		Clock:   clock,
		Counter: s.counts,
		State:   s.status,
	})
}

// FuncTicker calls a no-argument callback from Update
type FuncTicker struct {
	tickerState
	callback func()
}

// NewFuncTicker creates a stopped ticker. repeat is the number of firings
// before it stops itself, RepeatForever for no limit.
func NewFuncTicker(callback func(), interval, repeat uint32, resolution Resolution) *FuncTicker {
	return &FuncTicker{
		tickerState: newTickerState(interval, repeat, resolution),
		callback:    callback,
	}
}

// Start begins timing from now. Does nothing without a callback.
func (t *FuncTicker) Start() {
	if t.callback == nil {
		return
	}
	t.start()
}

// Resume continues a paused ticker, or starts a stopped one.
// Does nothing without a callback.
func (t *FuncTicker) Resume() {
	if t.callback == nil {
		return
	}
	t.resume()
}

// Update must be called from the main loop; it runs the callback when due
// and reports whether it fired.
func (t *FuncTicker) Update() bool {
	if !t.tick() {
		return false
	}
	if t.callback != nil {
		t.callback()
	}
	return true
}

// SetCallback replaces the callback; nil leaves the ticker misconfigured
func (t *FuncTicker) SetCallback(callback func()) {
	t.callback = callback
}

// Ticker forwards caller-supplied arguments to its callback when due
type Ticker[A any] struct {
	tickerState
	callback func(A)
}

// NewTicker creates a stopped ticker whose callback receives the arguments
// given to Trigger.
func NewTicker[A any](callback func(A), interval, repeat uint32, resolution Resolution) *Ticker[A] {
	return &Ticker[A]{
		tickerState: newTickerState(interval, repeat, resolution),
		callback:    callback,
	}
}

// Start begins timing from now. Does nothing without a callback.
func (t *Ticker[A]) Start() {
	if t.callback == nil {
		return
	}
	t.start()
}

// Resume continues a paused ticker, or starts a stopped one.
// Does nothing without a callback.
func (t *Ticker[A]) Resume() {
	if t.callback == nil {
		return
	}
	t.resume()
}

// Trigger polls the ticker and, when due, passes args to the callback.
// Reports whether it fired.
func (t *Ticker[A]) Trigger(args A) bool {
	if !t.tick() {
		return false
	}
	if t.callback != nil {
		t.callback(args)
	}
	return true
}

// SetCallback replaces the callback; nil leaves the ticker misconfigured
func (t *Ticker[A]) SetCallback(callback func(A)) {
	t.callback = callback
}
