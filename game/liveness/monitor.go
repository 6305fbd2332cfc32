// Package liveness probes connections with heartbeats and disconnects the
// ones that stop answering.
package liveness

import (
	"log"
	"time"

	"github.com/wricardo/nim-lobby/game/clock"
	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/protocol"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 5 * time.Second
)

// Registry is the part of the session registry the monitor drives
type Registry interface {
	Send(msg protocol.Outbound, id lobby.ConnID)
	Disconnect(id lobby.ConnID)
}

// Monitor schedules heartbeat probes per connection. All methods must be
// called on the goroutine that delivers the scheduler's callbacks.
type Monitor struct {
	sched    clock.Scheduler
	registry Registry
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger

	watches map[lobby.ConnID]*watch
}

type watch struct {
	round    int
	awaiting bool
	probe    clock.Timer
	deadline clock.Timer
}

// NewMonitor creates a monitor. Zero durations fall back to the defaults.
func NewMonitor(sched clock.Scheduler, registry Registry, interval, timeout time.Duration, logger *log.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{
		sched:    sched,
		registry: registry,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		watches:  make(map[lobby.ConnID]*watch),
	}
}

// Watch starts probing id. The first probe is sent after one interval.
func (m *Monitor) Watch(id lobby.ConnID) {
	if _, ok := m.watches[id]; ok {
		return
	}
	w := &watch{}
	m.watches[id] = w
	w.probe = m.sched.AfterFunc(m.interval, func() { m.probe(id, w) })
}

// Ack records a heartbeat answer from id, disarming the pending timeout
func (m *Monitor) Ack(id lobby.ConnID) {
	w, ok := m.watches[id]
	if !ok || !w.awaiting {
		return
	}
	w.awaiting = false
	if w.deadline != nil {
		w.deadline.Stop()
		w.deadline = nil
	}
}

// Forget stops probing id. It is safe to call for unknown ids.
func (m *Monitor) Forget(id lobby.ConnID) {
	w, ok := m.watches[id]
	if !ok {
		return
	}
	delete(m.watches, id)
	if w.probe != nil {
		w.probe.Stop()
	}
	if w.deadline != nil {
		w.deadline.Stop()
	}
}

// Watching reports whether id is being probed
func (m *Monitor) Watching(id lobby.ConnID) bool {
	_, ok := m.watches[id]
	return ok
}

func (m *Monitor) probe(id lobby.ConnID, w *watch) {
	if m.watches[id] != w {
		return
	}

	// An unanswered earlier probe keeps its own deadline running.
	if !w.awaiting {
		w.round++
		w.awaiting = true
		round := w.round
		w.deadline = m.sched.AfterFunc(m.timeout, func() { m.expire(id, w, round) })
	}

	m.registry.Send(protocol.NewHeartbeat(), id)
	w.probe = m.sched.AfterFunc(m.interval, func() { m.probe(id, w) })
}

func (m *Monitor) expire(id lobby.ConnID, w *watch, round int) {
	if m.watches[id] != w || !w.awaiting || w.round != round {
		return
	}

	m.logger.Printf("[HEARTBEAT] conn=%d missed heartbeat after %s, disconnecting", id, m.timeout)
	m.Forget(id)
	m.registry.Disconnect(id)
}
