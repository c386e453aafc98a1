// internal/session/controller.go
//
// Session controller: bridges the quiz engine to the outside world.
// Responsibilities:
//   - Load a quiz through the fetch collaborator and start the engine.
//   - Drive the countdown from a cancelable tick source.
//   - Forward every input change to the engine.
//   - Report state changes and terminal outcomes to a Presenter.
//
// Concurrency:
//   - All engine access happens under mu. The fetch runs without the lock and
//     its result is applied under it.
//   - gen increments whenever a session is started or reset, so a fetch or a
//     tick belonging to an older session can never touch the current one.
//   - Presenter methods run with mu held: they see events in mutation order
//     and must not call back into the Controller.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/quizchallenge/internal/fetch"
	"github.com/robalobadob/quizchallenge/internal/quiz"
	"github.com/robalobadob/quizchallenge/internal/ticker"
)

const (
	DefaultDuration = 5 * 60 // seconds
	DefaultInterval = time.Second
)

var (
	ErrSessionActive = errors.New("session: a session is already active")
	ErrLoading       = errors.New("session: a quiz is already loading")
	ErrSuperseded    = errors.New("session: reset while the quiz was loading")
)

// View is what the presentation layer renders.
type View struct {
	quiz.State
	Loading bool `json:"loading"`
}

// Presenter receives controller notifications.
type Presenter interface {
	StateChanged(v View)
	FetchFailed(message string)
	Won(hits, total int)
	TimedOut(hits, total int)
}

// Options tune a Controller. Zero values take the defaults.
type Options struct {
	Duration int           // countdown length in seconds
	Interval time.Duration // tick period
}

// Controller owns one quiz session.
type Controller struct {
	mu        sync.Mutex
	engine    *quiz.Engine
	fetcher   fetch.Fetcher
	ticks     ticker.Source
	presenter Presenter
	log       zerolog.Logger

	duration int
	interval time.Duration

	gen     uint64
	loading bool
	stop    ticker.Stopper
}

// New wires a Controller. presenter may be nil.
func New(f fetch.Fetcher, ticks ticker.Source, p Presenter, l zerolog.Logger, opts Options) *Controller {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if p == nil {
		p = nopPresenter{}
	}
	return &Controller{
		engine:    quiz.NewEngine(),
		fetcher:   f,
		ticks:     ticks,
		presenter: p,
		log:       l.With().Str("component", "session").Logger(),
		duration:  opts.Duration,
		interval:  opts.Interval,
	}
}

// StartSession loads a quiz and starts the countdown. It blocks for the
// duration of the fetch.
func (c *Controller) StartSession(ctx context.Context) error {
	c.mu.Lock()
	if c.engine.Snapshot().Status != quiz.StatusIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	if c.loading {
		c.mu.Unlock()
		return ErrLoading
	}
	c.gen++
	gen := c.gen
	c.loading = true
	c.notifyLocked()
	c.mu.Unlock()

	c.log.Debug().Uint64("gen", gen).Msg("loading quiz")
	data, err := c.fetcher.FetchQuiz(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.log.Info().Uint64("gen", gen).Msg("discarding quiz for a reset session")
		return ErrSuperseded
	}
	c.loading = false

	if err != nil {
		msg := err.Error()
		var fe *fetch.Error
		if errors.As(err, &fe) {
			msg = fe.Message
		}
		c.log.Warn().Err(err).Msg("quiz fetch failed")
		c.notifyLocked()
		c.presenter.FetchFailed(msg)
		return err
	}

	if err := c.engine.Start(data, c.duration); err != nil {
		c.log.Error().Err(err).Msg("engine rejected start")
		c.notifyLocked()
		return err
	}
	c.stop = c.ticks.Every(c.interval, func() { c.onTick(gen) })

	s := c.engine.Snapshot()
	c.log.Info().
		Str("session", s.SessionID).
		Int("words", s.Total).
		Int("seconds", s.SecondsRemaining).
		Msg("session started")
	c.notifyLocked()
	return nil
}

// OnGuessInput evaluates the current input text. Call it on every change.
func (c *Controller) OnGuessInput(text string) quiz.MatchResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.engine.SubmitGuess(text)
	if res != quiz.Matched {
		return res
	}
	c.notifyLocked()

	s := c.engine.Snapshot()
	if s.Outcome == quiz.OutcomeWon {
		c.stopTicksLocked()
		hits, total := c.engine.Hits()
		c.log.Info().Str("session", s.SessionID).Int("hits", hits).Int("secondsLeft", s.SecondsRemaining).Msg("session won")
		c.presenter.Won(hits, total)
	}
	return res
}

func (c *Controller) onTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || !c.engine.Snapshot().Running() {
		return
	}
	c.engine.Tick()
	c.notifyLocked()

	s := c.engine.Snapshot()
	if s.Outcome == quiz.OutcomeTimedOut {
		c.stopTicksLocked()
		hits, total := c.engine.Hits()
		c.log.Info().Str("session", s.SessionID).Int("hits", hits).Int("total", total).Msg("session timed out")
		c.presenter.TimedOut(hits, total)
	}
}

// ResetSession cancels any countdown or pending load and returns to idle.
func (c *Controller) ResetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.stopTicksLocked()
	c.loading = false
	c.engine.Reset()
	c.log.Debug().Msg("session reset")
	c.notifyLocked()
}

// Retry resets and starts a fresh session.
func (c *Controller) Retry(ctx context.Context) error {
	c.ResetSession()
	return c.StartSession(ctx)
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close stops the countdown. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.stopTicksLocked()
}

func (c *Controller) viewLocked() View {
	return View{State: c.engine.Snapshot(), Loading: c.loading}
}

func (c *Controller) notifyLocked() {
	c.presenter.StateChanged(c.viewLocked())
}

func (c *Controller) stopTicksLocked() {
	if c.stop != nil {
		c.stop.Stop()
		c.stop = nil
	}
}

type nopPresenter struct{}

func (nopPresenter) StateChanged(View)  {}
func (nopPresenter) FetchFailed(string) {}
func (nopPresenter) Won(int, int)       {}
func (nopPresenter) TimedOut(int, int)  {}
