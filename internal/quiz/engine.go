// internal/quiz/engine.go
//
// Core engine for a single quiz attempt.
// Responsibilities:
//   - Start a session from loaded quiz data with a countdown in seconds.
//   - Match guesses by exact text against the words still to be found.
//   - Count down on every tick.
//   - Track state transitions: idle → running → finished (won / timed out).
//
// Notes:
//   - The engine performs no I/O and no scheduling; the session controller
//     owns the timer and the network.
//   - It is not safe for concurrent use. Callers serialize access.
//   - Matching is case-sensitive and untrimmed, and duplicate answers are
//     distinct slots: "cat","cat" needs two matching guesses.

package quiz

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Engine holds the mutable state of one quiz attempt.
// The zero value is an idle engine ready for Start.
type Engine struct {
	id        string
	status    Status
	outcome   Outcome
	question  string
	remaining []string // order as received, minus removals
	found     []string // most recent first
	seconds   int
}

// NewEngine returns an idle engine.
func NewEngine() *Engine {
	return &Engine{status: StatusIdle}
}

// Start begins a session. The engine must be idle; on error the state is
// left untouched.
func (e *Engine) Start(data Data, duration int) error {
	if e.currentStatus() != StatusIdle {
		return ErrNotIdle
	}
	if duration <= 0 {
		return ErrInvalidDuration
	}
	if len(data.Answers) == 0 {
		return ErrNoAnswers
	}

	e.id = uuid.NewString()
	e.status = StatusRunning
	e.outcome = OutcomeNone
	e.question = data.Question
	e.remaining = append([]string(nil), data.Answers...)
	e.found = []string{}
	e.seconds = duration
	return nil
}

// SubmitGuess evaluates the current input text against the remaining words.
// It is called on every input change, not only on explicit submission.
//
// On a match the first occurrence moves to the front of the found list, and
// emptying the remaining list finishes the session as won.
func (e *Engine) SubmitGuess(text string) MatchResult {
	if e.status != StatusRunning {
		return NoMatch
	}
	i := lo.IndexOf(e.remaining, text)
	if i < 0 {
		return NoMatch
	}

	word := e.remaining[i]
	e.remaining = append(e.remaining[:i], e.remaining[i+1:]...)
	e.found = append([]string{word}, e.found...)

	if len(e.remaining) == 0 {
		e.finish(OutcomeWon)
	}
	return Matched
}

// Tick consumes one second. Reaching zero finishes the session as timed out.
// It is a no-op unless the session is running.
func (e *Engine) Tick() {
	if e.status != StatusRunning {
		return
	}
	e.seconds--
	if e.seconds <= 0 {
		e.seconds = 0
		e.finish(OutcomeTimedOut)
	}
}

// Reset returns the engine to idle from any state.
func (e *Engine) Reset() {
	*e = Engine{status: StatusIdle}
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() State {
	return State{
		SessionID:        e.id,
		Status:           e.currentStatus(),
		Outcome:          e.outcome,
		Question:         e.question,
		Remaining:        append([]string{}, e.remaining...),
		Found:            append([]string{}, e.found...),
		SecondsRemaining: e.seconds,
		Total:            len(e.remaining) + len(e.found),
	}
}

// Hits returns how many words were found out of the session total.
func (e *Engine) Hits() (found, total int) {
	return len(e.found), len(e.found) + len(e.remaining)
}

func (e *Engine) finish(o Outcome) {
	e.status = StatusFinished
	e.outcome = o
}

// currentStatus maps the zero value to idle.
func (e *Engine) currentStatus() Status {
	if e.status == "" {
		return StatusIdle
	}
	return e.status
}
