package platform

import (
	"sort"
	"time"

	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/loop"
)

// FallbackFrameInterval is the delay, in milliseconds, between frames when
// the host cannot pace frames itself.
const FallbackFrameInterval = 1000.0 / 60.0

// FrameCallback receives the frame timestamp in milliseconds.
type FrameCallback func(timestamp float64)

type FrameHandle uint64

type TimerHandle uint64

// FrameRequester is implemented by hosts that pace frames to the display.
type FrameRequester interface {
	RequestFrame(cb FrameCallback) FrameHandle
	CancelFrame(h FrameHandle)
}

// TimerSource is implemented by hosts that provide their own timers.
// Delays are in milliseconds.
type TimerSource interface {
	SetTimeout(delay float64, fn func()) TimerHandle
	ClearTimeout(h TimerHandle)
}

// TimeSource is implemented by hosts that provide a monotonic clock in
// milliseconds.
type TimeSource interface {
	Now() float64
}

// Clock bundles the scheduling primitives an application uses.
type Clock struct {
	FrameRequester
	TimerSource
	TimeSource
}

// NewClock picks the host's own primitives where it has them and falls
// back to timer-driven implementations on the host dispatcher otherwise.
func NewClock(h Host) *Clock {
	c := &Clock{}

	if ts, ok := h.(TimeSource); ok {
		c.TimeSource = ts
	} else {
		c.TimeSource = newStopwatch()
	}

	if timers, ok := h.(TimerSource); ok {
		c.TimerSource = timers
	} else {
		c.TimerSource = newDispatchTimers(h.Dispatcher())
	}

	if fr, ok := h.(FrameRequester); ok {
		c.FrameRequester = fr
	} else {
		core.LogDebug("host has no frame pacing, using %.2fms timer frames", FallbackFrameInterval)
		c.FrameRequester = &timerFrames{timers: c.TimerSource, now: c.TimeSource}
	}
	return c
}

type stopwatch struct {
	clock *core.Clock
}

func newStopwatch() *stopwatch {
	c := core.NewClock()
	c.Start()
	return &stopwatch{clock: c}
}

func (s *stopwatch) Now() float64 {
	s.clock.Update()
	return s.clock.Elapsed()
}

// dispatchTimers runs time.AfterFunc timers whose callbacks are posted to
// the dispatcher. All methods must be called on the execution context.
type dispatchTimers struct {
	dispatcher loop.Dispatcher
	next       TimerHandle
	live       map[TimerHandle]*time.Timer
}

func newDispatchTimers(d loop.Dispatcher) *dispatchTimers {
	return &dispatchTimers{
		dispatcher: d,
		live:       make(map[TimerHandle]*time.Timer),
	}
}

func (d *dispatchTimers) SetTimeout(delay float64, fn func()) TimerHandle {
	d.next++
	h := d.next
	d.live[h] = time.AfterFunc(time.Duration(delay*float64(time.Millisecond)), func() {
		d.dispatcher.Post(func() {
			// Cleared after the timer fired but before the task ran.
			if _, ok := d.live[h]; !ok {
				return
			}
			delete(d.live, h)
			fn()
		})
	})
	return h
}

func (d *dispatchTimers) ClearTimeout(h TimerHandle) {
	if t, ok := d.live[h]; ok {
		t.Stop()
		delete(d.live, h)
	}
}

// timerFrames emulates frame requests with fixed-interval timers.
type timerFrames struct {
	timers TimerSource
	now    TimeSource
}

func (f *timerFrames) RequestFrame(cb FrameCallback) FrameHandle {
	return FrameHandle(f.timers.SetTimeout(FallbackFrameInterval, func() {
		cb(f.now.Now())
	}))
}

func (f *timerFrames) CancelFrame(h FrameHandle) {
	f.timers.ClearTimeout(TimerHandle(h))
}

type manualFrame struct {
	handle FrameHandle
	cb     FrameCallback
}

type manualTimer struct {
	handle TimerHandle
	due    float64
	seq    uint64
	fn     func()
}

// ManualClock is a Clock whose time only moves when told to. Frames fire
// on Frame, timers fire as time advances. It is used by tests and by
// hosts that drive frames themselves.
type ManualClock struct {
	now    float64
	next   uint64
	frames []manualFrame
	timers []manualTimer
	// Frames cancelled while a batch is firing.
	cancelled map[FrameHandle]bool
}

func NewManualClock(start float64) *ManualClock {
	return &ManualClock{now: start}
}

func (m *ManualClock) Now() float64 {
	return m.now
}

func (m *ManualClock) RequestFrame(cb FrameCallback) FrameHandle {
	m.next++
	h := FrameHandle(m.next)
	m.frames = append(m.frames, manualFrame{handle: h, cb: cb})
	return h
}

func (m *ManualClock) CancelFrame(h FrameHandle) {
	for i, f := range m.frames {
		if f.handle == h {
			m.frames = append(m.frames[:i:i], m.frames[i+1:]...)
			return
		}
	}
	if m.cancelled != nil {
		m.cancelled[h] = true
	}
}

func (m *ManualClock) SetTimeout(delay float64, fn func()) TimerHandle {
	m.next++
	h := TimerHandle(m.next)
	m.timers = append(m.timers, manualTimer{handle: h, due: m.now + delay, seq: m.next, fn: fn})
	return h
}

func (m *ManualClock) ClearTimeout(h TimerHandle) {
	for i, t := range m.timers {
		if t.handle == h {
			m.timers = append(m.timers[:i:i], m.timers[i+1:]...)
			return
		}
	}
}

// Advance moves time forward by d milliseconds, firing due timers in
// order. Timers scheduled by fired timers fire too if they fall due.
func (m *ManualClock) Advance(d float64) {
	m.AdvanceTo(m.now + d)
}

func (m *ManualClock) AdvanceTo(t float64) {
	for {
		idx := m.nextDue(t)
		if idx < 0 {
			break
		}
		timer := m.timers[idx]
		m.timers = append(m.timers[:idx:idx], m.timers[idx+1:]...)
		if timer.due > m.now {
			m.now = timer.due
		}
		timer.fn()
	}
	if t > m.now {
		m.now = t
	}
}

func (m *ManualClock) nextDue(t float64) int {
	due := make([]int, 0, len(m.timers))
	for i, timer := range m.timers {
		if timer.due <= t {
			due = append(due, i)
		}
	}
	if len(due) == 0 {
		return -1
	}
	sort.Slice(due, func(a, b int) bool {
		ta, tb := m.timers[due[a]], m.timers[due[b]]
		if ta.due != tb.due {
			return ta.due < tb.due
		}
		return ta.seq < tb.seq
	})
	return due[0]
}

// Frame advances to t and fires the frame callbacks that were pending
// before the call, each with timestamp t. Callbacks requested while firing
// wait for the next Frame. It returns the number of callbacks fired.
func (m *ManualClock) Frame(t float64) int {
	m.AdvanceTo(t)
	pending := m.frames
	m.frames = nil
	m.cancelled = make(map[FrameHandle]bool)
	defer func() { m.cancelled = nil }()

	fired := 0
	for _, f := range pending {
		if m.cancelled[f.handle] {
			continue
		}
		f.cb(m.now)
		fired++
	}
	return fired
}

func (m *ManualClock) PendingFrames() int {
	return len(m.frames)
}

func (m *ManualClock) PendingTimers() int {
	return len(m.timers)
}
