package pipeline

import (
	"sync"

	"github.com/Lllllllleong/marketingkitflow/internal/models"
)

// State is the lifecycle state of a GenerationSession.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateTimedOut State = "timed_out"
)

// Progress is one observation of a session.
type Progress struct {
	Step    string
	Percent int
	State   State
}

// ProgressSink receives every progress change synchronously. It must not call back into
// the session.
type ProgressSink func(Progress)

// GenerationSession is the transient state of one run. Percent never decreases while the
// session is running; Reset and Expire are the only ways back to zero.
type GenerationSession struct {
	mu      sync.Mutex
	step    string
	percent int
	state   State
	sink    ProgressSink
	trail   []models.ProgressEvent
}

func NewSession(sink ProgressSink) *GenerationSession {
	return &GenerationSession{state: StateIdle, sink: sink}
}

// Start moves an idle session to running at 0%.
func (s *GenerationSession) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step, s.percent, s.state = "", 0, StateRunning
	s.trail = nil
}

// Report records a step. It is a no-op unless the session is running.
func (s *GenerationSession) Report(step string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	percent = min(max(percent, 0), 100)
	if percent < s.percent {
		percent = s.percent
	}
	s.step, s.percent = step, percent
	s.trail = append(s.trail, models.ProgressEvent{Step: step, Percent: percent})
	s.emitLocked()
}

// Complete marks a running session as finished. Later reports are ignored.
func (s *GenerationSession) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.state = StateComplete
	s.emitLocked()
}

// Expire is called by the timeout guard: step and percent drop back to zero and the
// session stops accepting reports.
func (s *GenerationSession) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.step, s.percent, s.state = "", 0, StateTimedOut
	s.emitLocked()
}

// Reset returns the session to idle whatever the outcome of the run. The trail is kept.
func (s *GenerationSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return
	}
	s.step, s.percent, s.state = "", 0, StateIdle
	s.emitLocked()
}

func (s *GenerationSession) Snapshot() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{Step: s.step, Percent: s.percent, State: s.state}
}

// Trail returns every step reported since Start.
func (s *GenerationSession) Trail() []models.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ProgressEvent(nil), s.trail...)
}

func (s *GenerationSession) emitLocked() {
	if s.sink != nil {
		s.sink(Progress{Step: s.step, Percent: s.percent, State: s.state})
	}
}
