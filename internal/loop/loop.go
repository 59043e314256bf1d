// Package loop serialises callbacks from network reads, timers and media
// players onto the single goroutine that owns client state.
package loop

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of work run on the owning goroutine.
type Task func()

// Loop is a multi-producer, single-consumer task queue. The consumer calls
// Next and runs each task to completion before taking the next one.
//
// Post never blocks: tasks run on the loop post back into it, so a full
// channel spills into an unbounded overflow slice. Once overflow holds
// anything every later Post appends there too, which keeps FIFO order.
type Loop struct {
	tasks chan Task
	done  chan struct{}
	once  sync.Once

	qmu      sync.Mutex
	overflow []Task

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		tasks:  make(chan Task, buffer),
		done:   make(chan struct{}),
		timers: map[*time.Timer]struct{}{},
	}
}

// Post enqueues fn without blocking. It drops fn once the loop is closed.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case <-l.done:
		return
	default:
	}
	l.qmu.Lock()
	defer l.qmu.Unlock()
	if len(l.overflow) == 0 {
		select {
		case l.tasks <- fn:
			return
		default:
		}
	}
	l.overflow = append(l.overflow, fn)
}

// After posts fn once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	var timer *time.Timer
	l.mu.Lock()
	timer = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, timer)
		l.mu.Unlock()
		l.Post(fn)
	})
	l.timers[timer] = struct{}{}
	l.mu.Unlock()
}

// Next blocks until a task is available, the loop is closed or ctx ends.
func (l *Loop) Next(ctx context.Context) (Task, bool) {
	select {
	case <-l.done:
		return nil, false
	default:
	}
	// Channel first: overflow only fills while the channel is full, so its
	// tasks are always younger. Both are checked under qmu so a concurrent
	// Post cannot slip in between.
	l.qmu.Lock()
	select {
	case task := <-l.tasks:
		l.qmu.Unlock()
		return task, true
	default:
	}
	if len(l.overflow) > 0 {
		task := l.overflow[0]
		l.overflow[0] = nil
		l.overflow = l.overflow[1:]
		l.qmu.Unlock()
		return task, true
	}
	l.qmu.Unlock()

	select {
	case task := <-l.tasks:
		return task, true
	case <-l.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Pending reports how many timers have not fired yet.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Close stops pending timers, drops queued tasks and releases a blocked
// consumer.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.done)
		l.mu.Lock()
		for timer := range l.timers {
			timer.Stop()
		}
		clear(l.timers)
		l.mu.Unlock()
		l.qmu.Lock()
		l.overflow = nil
		l.qmu.Unlock()
	})
}
