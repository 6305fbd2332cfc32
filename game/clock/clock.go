// Package clock abstracts deferred callbacks so that timers can be delivered
// on the same goroutine that owns the lobby state.
//
// The websocket hub implements Scheduler by pushing fired callbacks onto its
// event loop. Manual is a deterministic implementation for tests: nothing runs
// until Advance moves its virtual time forward.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable scheduled callback
type Timer interface {
	// Stop prevents the callback from running. It reports false if the
	// callback already ran or was already stopped.
	Stop() bool
}

// Scheduler runs f after d has elapsed on the caller's event loop
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Manual is a virtual-time Scheduler
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	m    *Manual
	at   time.Duration
	seq  int
	f    func()
	done bool
}

// NewManual creates a scheduler at virtual time zero
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc schedules f at now+d
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{m: m, at: m.now + d, seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)
	return t
}

// Stop cancels the task
func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves virtual time forward by d, running every due callback in
// deadline order. Callbacks scheduled while advancing run too if they fall
// inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// Pending returns the number of callbacks that have neither run nor been
// stopped
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// Now returns the current virtual time
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// nextDue pops the earliest pending task due at or before target
func (m *Manual) nextDue(target time.Duration) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.done {
			live = append(live, t)
		}
	}
	m.tasks = live

	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].at != m.tasks[j].at {
			return m.tasks[i].at < m.tasks[j].at
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})

	if len(m.tasks) == 0 || m.tasks[0].at > target {
		return nil
	}

	t := m.tasks[0]
	t.done = true
	if t.at > m.now {
		m.now = t.at
	}
	return t
}
