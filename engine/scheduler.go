package engine

import (
	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/platform"
)

// frameScheduler drives the application's ticks from the host clock. At
// most one request, either a frame or the cap timer in front of one, is
// outstanding at a time.
type frameScheduler struct {
	clock *platform.Clock
	tick  func(t float64)

	// Timing of the last tick, in milliseconds.
	dt        float64
	time      float64
	timeStart float64
	timeLast  float64
	// The next tick is the first one since Start.
	fresh   bool
	metrics *core.Metrics

	frame    platform.FrameHandle
	hasFrame bool
	timer    platform.TimerHandle
	hasTimer bool
	// Bumped by cancel so callbacks already queued know they are stale.
	generation uint64
}

func newFrameScheduler(clock *platform.Clock, tick func(t float64)) *frameScheduler {
	return &frameScheduler{
		clock:   clock,
		tick:    tick,
		fresh:   true,
		metrics: core.NewMetrics(),
	}
}

func (s *frameScheduler) pending() bool {
	return s.hasFrame || s.hasTimer
}

// begin marks the next tick as the first of a run.
func (s *frameScheduler) begin() {
	s.fresh = true
}

func (s *frameScheduler) requestFrame() {
	gen := s.generation
	s.frame = s.clock.RequestFrame(func(t float64) {
		if gen != s.generation {
			return
		}
		s.hasFrame = false
		s.tick(t)
	})
	s.hasFrame = true
}

// rearm schedules the next tick. With a cap the frame request waits
// 1000/fps milliseconds first.
func (s *frameScheduler) rearm(fps int) {
	if s.pending() {
		return
	}
	if fps <= 0 {
		s.requestFrame()
		return
	}
	gen := s.generation
	s.timer = s.clock.SetTimeout(1000/float64(fps), func() {
		if gen != s.generation {
			return
		}
		s.hasTimer = false
		s.requestFrame()
	})
	s.hasTimer = true
}

// cancel drops the outstanding request. Callbacks that already fired but
// have not run yet are ignored when they do.
func (s *frameScheduler) cancel() {
	s.generation++
	if s.hasFrame {
		s.clock.CancelFrame(s.frame)
		s.hasFrame = false
	}
	if s.hasTimer {
		s.clock.ClearTimeout(s.timer)
		s.hasTimer = false
	}
}

// advance updates the timing state for a tick at t. dt is the distance
// between tick timestamps, so it includes any cap delay.
func (s *frameScheduler) advance(t float64) {
	if s.fresh {
		s.timeStart = t
		s.timeLast = t
		s.fresh = false
	}
	s.time = t - s.timeStart
	s.dt = t - s.timeLast
	s.timeLast = t
	s.metrics.Update(s.dt)
}

func (s *frameScheduler) reset() {
	s.dt, s.time, s.timeStart, s.timeLast = 0, 0, 0, 0
	s.fresh = true
	s.metrics.Reset()
}
