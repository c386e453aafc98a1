package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/quizchallenge/internal/session"
	"github.com/robalobadob/quizchallenge/internal/ticker"
)

// ManualTicks is a ticker.Source driven by the test. Fire runs the callback of
// the most recently started source synchronously, unless it was stopped.
type ManualTicks struct {
	mu       sync.Mutex
	fn       func()
	stopped  bool
	interval time.Duration
	started  int // also the id of the current source
}

var _ ticker.Source = (*ManualTicks)(nil)

func (m *ManualTicks) Every(interval time.Duration, fn func()) ticker.Stopper {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	m.stopped = false
	m.interval = interval
	m.started++
	return &manualStopper{m: m, id: m.started}
}

// Fire delivers n ticks.
func (m *ManualTicks) Fire(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		fn, stopped := m.fn, m.stopped
		m.mu.Unlock()
		if fn == nil || stopped {
			return
		}
		fn()
	}
}

// Stale returns the callback of the current source even after it was
// stopped, to simulate a tick that raced with Stop.
func (m *ManualTicks) Stale() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fn
}

func (m *ManualTicks) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *ManualTicks) Started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *ManualTicks) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

type manualStopper struct {
	m  *ManualTicks
	id int
}

func (s *manualStopper) Stop() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	// older sources were already replaced by a newer Every call
	if s.id == s.m.started {
		s.m.stopped = true
	}
}

// Recorder is a session.Presenter that keeps every notification.
type Recorder struct {
	mu     sync.Mutex
	States []session.View
	Events []string
}

var _ session.Presenter = (*Recorder)(nil)

func (r *Recorder) StateChanged(v session.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.States = append(r.States, v)
}

func (r *Recorder) FetchFailed(message string) {
	r.record("fetch_error: " + message)
}

func (r *Recorder) Won(hits, total int) {
	r.record(fmt.Sprintf("won %d/%d", hits, total))
}

func (r *Recorder) TimedOut(hits, total int) {
	r.record(fmt.Sprintf("timed_out %d/%d", hits, total))
}

func (r *Recorder) record(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

// Last returns the latest state notification.
func (r *Recorder) Last() session.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.States) == 0 {
		return session.View{}
	}
	return r.States[len(r.States)-1]
}

// EventList returns a copy of the terminal/error events.
func (r *Recorder) EventList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Events...)
}
