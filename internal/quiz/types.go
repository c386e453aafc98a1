// internal/quiz/types.go
//
// Core type definitions for the quiz session engine.
// Defines:
//   - Data: an immutable loaded quiz (question + answer words).
//   - Status / Outcome: the engine lifecycle.
//   - MatchResult: result of evaluating one guess.
//   - State: a point-in-time copy of a session for presentation.

package quiz

import (
	"errors"
	"fmt"
)

// Status is the coarse lifecycle state of an Engine.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// Outcome is only set once Status is StatusFinished.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeWon      Outcome = "won"
	OutcomeTimedOut Outcome = "timed_out"
)

// MatchResult reports whether a guess consumed a remaining word.
type MatchResult int

const (
	NoMatch MatchResult = iota
	Matched
)

func (m MatchResult) String() string {
	if m == Matched {
		return "matched"
	}
	return "no_match"
}

// Data is a loaded quiz. Build it with NewData so the answer slice is not
// shared with the caller.
type Data struct {
	Question string
	Answers  []string
}

// NewData copies answers into a fresh Data value.
func NewData(question string, answers []string) Data {
	return Data{Question: question, Answers: append([]string(nil), answers...)}
}

// State is an immutable copy of the engine state.
type State struct {
	SessionID        string   `json:"sessionId,omitempty"`
	Status           Status   `json:"status"`
	Outcome          Outcome  `json:"outcome,omitempty"`
	Question         string   `json:"question,omitempty"`
	Remaining        []string `json:"-"` // never sent to clients
	Found            []string `json:"found"`
	SecondsRemaining int      `json:"secondsRemaining"`
	Total            int      `json:"total"`
}

// Running reports whether the session still accepts guesses and ticks.
func (s State) Running() bool { return s.Status == StatusRunning }

// Precondition violations. They indicate engine misuse, not user error.
var (
	ErrPrecondition    = errors.New("quiz: precondition violated")
	ErrNotIdle         = fmt.Errorf("%w: engine is not idle", ErrPrecondition)
	ErrInvalidDuration = fmt.Errorf("%w: duration must be positive", ErrPrecondition)
	ErrNoAnswers       = fmt.Errorf("%w: quiz has no answers", ErrPrecondition)
)
