package core

import (
	"testing"

	"pgregory.net/rapid"
)

// tickerModel is the reference the state machine test checks against
type tickerModel struct {
	now      uint32
	last     uint32
	paused   uint32
	interval uint32
	repeat   uint32
	counts   uint32
	status   Status
	fired    int
}

func (m *tickerModel) poll() bool {
	if m.status != Running || m.now-m.last < m.interval {
		return false
	}
	m.last = m.now
	m.counts++
	m.fired++
	if m.repeat != 0 && m.counts == m.repeat {
		m.status = Stopped
	}
	return true
}

func TestTickerStateMachineWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := &ManualClock{}
		clock.Set(rapid.Uint32().Draw(t, "epoch"), 0)

		model := &tickerModel{
			now:      clock.Micros(),
			interval: rapid.Uint32Range(1, 1000).Draw(t, "interval"),
			repeat:   rapid.Uint32Range(0, 5).Draw(t, "repeat"),
			status:   Stopped,
		}

		fired := 0
		tk := NewFuncTicker(func() { fired++ }, model.interval, model.repeat, ResolutionMicros)
		tk.SetClock(clock)

		t.Repeat(map[string]func(*rapid.T){
			"start": func(t *rapid.T) {
				tk.Start()
				model.last = model.now
				model.counts = 0
				model.status = Running
			},
			"stop": func(t *rapid.T) {
				tk.Stop()
				model.counts = 0
				model.status = Stopped
			},
			"pause": func(t *rapid.T) {
				if model.status != Running {
					t.Skip("pause is only defined on a running ticker")
				}
				tk.Pause()
				model.paused = model.now - model.last
				model.status = Paused
			},
			"resume": func(t *rapid.T) {
				tk.Resume()
				if model.status == Running {
					return
				}
				model.last = model.now - model.paused
				if model.status == Stopped {
					model.counts = 0
				}
				model.status = Running
			},
			"advanceAndPoll": func(t *rapid.T) {
				d := rapid.Uint32Range(0, 2*model.interval).Draw(t, "delta")
				clock.AdvanceMicros(d)
				model.now += d

				want := model.poll()
				if got := tk.Update(); got != want {
					t.Fatalf("Update() = %v, want %v", got, want)
				}
			},
			"": func(t *rapid.T) {
				if tk.State() != model.status {
					t.Fatalf("state %s, want %s", tk.State(), model.status)
				}
				if tk.Counter() != model.counts {
					t.Fatalf("counter %d, want %d", tk.Counter(), model.counts)
				}
				if tk.armed != (tk.State() == Running) {
					t.Fatalf("armed=%v in state %s", tk.armed, tk.State())
				}
				if fired != model.fired {
					t.Fatalf("callback ran %d times, want %d", fired, model.fired)
				}
				if model.repeat != 0 && tk.Counter() > model.repeat {
					t.Fatalf("counter %d exceeds repeat %d", tk.Counter(), model.repeat)
				}
				if tk.State() == Running && tk.Elapsed() != model.now-model.last {
					t.Fatalf("elapsed %d, want %d", tk.Elapsed(), model.now-model.last)
				}
			},
		})
	})
}

// Exactly repeat firings happen, whatever the polling cadence
func TestTickerRepeatLimitWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		interval := rapid.Uint32Range(1, 10000).Draw(t, "interval")
		repeat := rapid.Uint32Range(1, 20).Draw(t, "repeat")
		res := rapid.SampledFrom([]Resolution{ResolutionMicros, ResolutionMillis}).Draw(t, "resolution")

		clock := &ManualClock{}
		clock.Set(rapid.Uint32().Draw(t, "micros"), rapid.Uint32().Draw(t, "millis"))

		fired := uint32(0)
		tk := NewFuncTicker(func() { fired++ }, interval, repeat, res)
		tk.SetClock(clock)
		tk.Start()

		for polls := 0; polls < int(repeat)*4+4; polls++ {
			step := rapid.Uint32Range(interval/2, interval*2).Draw(t, "step")
			if res == ResolutionMillis {
				clock.AdvanceMillis(step)
			} else {
				clock.AdvanceMicros(step)
			}
			tk.Update()
		}

		// Enough time has passed to exhaust the limit; flush any stragglers
		for tk.State() == Running {
			if res == ResolutionMillis {
				clock.AdvanceMillis(interval)
			} else {
				clock.AdvanceMicros(interval)
			}
			tk.Update()
		}

		if fired != repeat {
			t.Fatalf("fired %d times, want %d", fired, repeat)
		}
		if tk.Counter() != repeat {
			t.Fatalf("counter %d, want %d", tk.Counter(), repeat)
		}
	})
}

// Pausing keeps the remaining part of the interval
func TestTickerPauseKeepsRemainderWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		interval := rapid.Uint32Range(2, 100000).Draw(t, "interval")
		before := rapid.Uint32Range(0, interval-1).Draw(t, "before")
		gap := rapid.Uint32().Draw(t, "gap")

		clock := &ManualClock{}
		clock.Set(rapid.Uint32().Draw(t, "epoch"), 0)
		tk := NewFuncTicker(func() {}, interval, 0, ResolutionMicros)
		tk.SetClock(clock)

		tk.Start()
		clock.AdvanceMicros(before)
		tk.Pause()
		clock.AdvanceMicros(gap)
		tk.Resume()

		left := interval - before
		clock.AdvanceMicros(left - 1)
		if tk.Update() {
			t.Fatalf("fired one tick early")
		}
		clock.AdvanceMicros(1)
		if !tk.Update() {
			t.Fatalf("did not fire after the remaining %d ticks", left)
		}
	})
}
