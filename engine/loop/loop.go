// Package loop provides the single cooperative execution context every
// piece of application state is mutated on.
//
// Frame callbacks, timers, resize notifications and resource completions
// all arrive as tasks posted to a Loop. Tasks run one at a time, to
// completion, on whichever goroutine drives the loop (Run or Drain).
package loop

import (
	"context"
	"sync"
)

// Dispatcher wraps the Post method.
//
// Post may be called from any goroutine; fn always runs on the execution
// context, never concurrently with another task.
type Dispatcher interface {
	Post(fn func())
}

type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	quit    chan struct{}
	once    sync.Once
}

var _ Dispatcher = (*Loop)(nil)

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Drain runs queued tasks, including tasks they post, until the queue is
// empty. It returns the number of tasks run.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Run executes tasks on the calling goroutine until ctx is done or Quit is
// called. Tasks still queued when Run returns are left in place.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case <-l.wake:
		}
	}
}

// Quit makes Run return. Safe to call more than once and from any goroutine.
func (l *Loop) Quit() {
	l.once.Do(func() {
		close(l.quit)
	})
}

// Done is closed once Quit has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.quit
}
