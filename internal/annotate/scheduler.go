package annotate

import (
	"time"

	"golang.org/x/net/html"
)

// SchedulerState is Idle or Pending.
type SchedulerState int

const (
	Idle SchedulerState = iota
	Pending
)

func (s SchedulerState) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Scheduler debounces structural-change notifications into one pass per
// quiet window. Every new batch resets the timer. It is not safe for
// concurrent use; the engine calls it from its loop only.
type Scheduler struct {
	clock  Clock
	window time.Duration
	fire   func(gen uint64)

	state SchedulerState
	batch []*html.Node
	timer Timer
	gen   uint64
}

// NewScheduler returns an idle scheduler. fire is invoked from the clock's
// goroutine with the generation of the timer that expired; the owner hands
// it back to Expire on its own loop.
func NewScheduler(clock Clock, window time.Duration, fire func(gen uint64)) *Scheduler {
	return &Scheduler{clock: clock, window: window, fire: fire}
}

// Notify appends nodes to the batch and (re)starts the quiet timer.
func (s *Scheduler) Notify(nodes []*html.Node) {
	s.batch = append(s.batch, nodes...)
	s.arm()
}

// Rearm re-enters the debounce path without adding nodes, so a translate
// pass runs after the window.
func (s *Scheduler) Rearm() {
	s.arm()
}

func (s *Scheduler) arm() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.state = Pending
	s.timer = s.clock.AfterFunc(s.window, func() { s.fire(gen) })
}

// Expire handles a timer firing. Stale generations are ignored. On a current
// firing the batch is returned and cleared and the scheduler goes Idle.
func (s *Scheduler) Expire(gen uint64) ([]*html.Node, bool) {
	if s.state != Pending || gen != s.gen {
		return nil, false
	}
	batch := s.batch
	s.batch = nil
	s.timer = nil
	s.state = Idle
	return batch, true
}

// State returns the current state.
func (s *Scheduler) State() SchedulerState {
	return s.state
}

// Stop cancels a pending timer and drops the batch.
func (s *Scheduler) Stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.batch = nil
	s.state = Idle
}
