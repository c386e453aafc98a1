// internal/httpserver/server.go
//
// HTTP server wiring for the quiz backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, access log,
//     JSON, CORS, rate limiting, timeouts).
//   - Public endpoints: "/", "/health".
//   - Quiz endpoints: GET /quiz, POST /quiz/{start,guess,reset,retry}.
//   - Event stream: GET /quiz/events (server-sent events from the hub).
//
// Notes:
//   - There is exactly one quiz session per process; every client drives it.
//   - POST /quiz/guess is called on every input change, so it is cheap and
//     the rate limit is generous.
//   - The event stream is mounted outside the request timeout.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/quizchallenge/internal/fetch"
	"github.com/robalobadob/quizchallenge/internal/hub"
	"github.com/robalobadob/quizchallenge/internal/quiz"
	"github.com/robalobadob/quizchallenge/internal/session"
)

// Session is the part of session.Controller the HTTP layer drives.
type Session interface {
	StartSession(ctx context.Context) error
	OnGuessInput(text string) quiz.MatchResult
	ResetSession()
	Retry(ctx context.Context) error
	Snapshot() session.View
}

var _ Session = (*session.Controller)(nil)

// Options configure middleware limits.
type Options struct {
	ClientOrigin   string
	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int
}

// Server bundles router, session and event hub.
type Server struct {
	r       *chi.Mux
	session Session
	hub     *hub.Hub
	limiter *clientLimiter
	log     zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(sess Session, h *hub.Hub, l zerolog.Logger, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		r:       chi.NewRouter(),
		session: sess,
		hub:     h,
		limiter: newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		log:     l,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)    // add X-Request-ID
	s.r.Use(chimw.RealIP)       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(l)) // request-scoped logger
	s.r.Use(requestIDLogField)  // tie log lines to the request ID
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)         // recover from panics
	s.r.Use(jsonContentType)         // default JSON responses
	s.r.Use(cors(opts.ClientOrigin)) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"quizchallenge-go","endpoints":["/health","GET /quiz","POST /quiz/start","POST /quiz/guess","POST /quiz/reset","POST /quiz/retry","GET /quiz/events"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "subscribers": len(s.hub.Subscribers())})
	})

	s.r.Route("/quiz", func(r chi.Router) {
		r.Use(s.limiter.middleware)

		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(opts.RequestTimeout))
			r.Get("/", s.handleState)
			r.Post("/start", s.handleStart)
			r.Post("/guess", s.handleGuess)
			r.Post("/reset", s.handleReset)
			r.Post("/retry", s.handleRetry)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.r }

// RunCleanup evicts idle per-client rate limiters until ctx is done.
func (s *Server) RunCleanup(ctx context.Context) {
	s.limiter.run(ctx, limiterSweepPeriod, s.log)
}

// ------------------------------ QUIZ ---------------------------------------

// stateRes is the client-facing view of the session.
type stateRes struct {
	SessionID        string       `json:"sessionId,omitempty"`
	Status           quiz.Status  `json:"status"`
	Outcome          quiz.Outcome `json:"outcome,omitempty"`
	Question         string       `json:"question"`
	Found            []string     `json:"found"`
	SecondsRemaining int          `json:"secondsRemaining"`
	Clock            string       `json:"clock"` // mm:ss
	Hits             string       `json:"hits"`  // NN/NN
	Loading          bool         `json:"loading"`
	Action           string       `json:"action"` // label of the start/reset button
	Alert            *hub.Event   `json:"alert,omitempty"`
}

// currentState pairs a view with the hub's pending alert.
func (s *Server) currentState(v session.View) stateRes {
	var alert *hub.Event
	if a, ok := s.hub.Alert(); ok {
		alert = &a
	}
	return s.stateRes(v, alert)
}

func (s *Server) stateRes(v session.View, alert *hub.Event) stateRes {
	res := stateRes{
		SessionID:        v.SessionID,
		Status:           v.Status,
		Outcome:          v.Outcome,
		Question:         v.Question,
		Found:            v.Found,
		SecondsRemaining: v.SecondsRemaining,
		Clock:            quiz.Clock(v.SecondsRemaining),
		Hits:             quiz.HitsLabel(len(v.Found), v.Total),
		Loading:          v.Loading,
		Action:           "Start",
		Alert:            alert,
	}
	if res.Found == nil {
		res.Found = []string{}
	}
	if v.Status != quiz.StatusIdle {
		res.Action = "Reset"
	}
	return res
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.currentState(s.session.Snapshot()))
}

// handleStart loads a quiz and starts the countdown. The request waits for
// the fetch to finish, but a client hanging up does not cancel it: the
// outcome is shared by every client.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.startWith(w, r, s.session.StartSession)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.startWith(w, r, s.session.Retry)
}

func (s *Server) startWith(w http.ResponseWriter, r *http.Request, start func(context.Context) error) {
	if err := start(context.WithoutCancel(r.Context())); err != nil {
		var fe *fetch.Error
		switch {
		case errors.As(err, &fe):
			writeError(w, http.StatusBadGateway, "fetch_failed", fe.Message)
		case errors.Is(err, session.ErrSessionActive):
			writeError(w, http.StatusConflict, "session_active", "a session is already running; reset it first")
		case errors.Is(err, session.ErrLoading):
			writeError(w, http.StatusConflict, "loading", "the quiz is still loading")
		case errors.Is(err, session.ErrSuperseded):
			writeError(w, http.StatusConflict, "superseded", "the session was reset while loading")
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("start session")
			writeError(w, http.StatusInternalServerError, "start_failed", "could not start the session")
		}
		return
	}
	_ = json.NewEncoder(w).Encode(s.currentState(s.session.Snapshot()))
}

// guessReq/Res payloads for POST /quiz/guess.
type guessReq struct {
	Text string `json:"text"`
}
type guessRes struct {
	Matched    bool     `json:"matched"`
	ClearInput bool     `json:"clearInput"` // the input field should be emptied
	State      stateRes `json:"state"`
}

// handleGuess evaluates the current input text. No trimming or case folding
// happens here: the text is matched exactly as typed.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	matched := s.session.OnGuessInput(req.Text) == quiz.Matched
	_ = json.NewEncoder(w).Encode(guessRes{
		Matched:    matched,
		ClearInput: matched,
		State:      s.currentState(s.session.Snapshot()),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.ResetSession()
	_ = json.NewEncoder(w).Encode(s.currentState(s.session.Snapshot()))
}

// ------------------------------ EVENTS -------------------------------------

// handleEvents streams hub events as server-sent events. The current state
// is sent first so a fresh client can render immediately.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer cannot flush")
		return
	}
	l := hlog.FromRequest(r)

	id, events, cancel := s.hub.Subscribe()
	defer cancel()
	l.Debug().Str("subscriber", id).Msg("event stream opened")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	v := s.session.Snapshot()
	if err := writeEvent(w, string(hub.EventState), s.currentState(v)); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			l.Debug().Str("subscriber", id).Msg("event stream closed")
			return
		case e, open := <-events:
			if !open {
				return
			}
			var payload any = e
			if e.Type == hub.EventState && e.View != nil {
				// a state change always clears the alert
				payload = s.stateRes(*e.View, nil)
			}
			if err := writeEvent(w, string(e.Type), payload); err != nil {
				l.Debug().Err(err).Msg("event stream write")
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + name + "\ndata: ")); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}

// ------------------------------- small util --------------------------------

// writeError writes {"error":code,"message":msg} with status.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
