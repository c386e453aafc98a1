// internal/fetch/client.go
//
// HTTP client for the remote quiz endpoint.
// Responsibilities:
//   - GET the quiz document, bypassing caches.
//   - Decode {"question": string, "answer": [string]} into quiz.Data.
//   - Collapse every failure (transport, status, decode, empty quiz) into
//     *Error carrying a message that can be shown to the player as-is.

package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/quizchallenge/internal/quiz"
)

// DefaultURL is the quiz served to new sessions unless QUIZ_URL overrides it.
const DefaultURL = "https://codechallenge.arctouch.com/quiz/1"

// fallbackMessage is shown when a transport error has nothing better to say.
const fallbackMessage = "Network connection failed. Please try again."

// Fetcher loads one quiz. Implementations must be safe to call from any goroutine.
type Fetcher interface {
	FetchQuiz(ctx context.Context) (quiz.Data, error)
}

// Error is the single failure category of a quiz fetch.
type Error struct {
	Message string // human-readable, surfaced verbatim
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// quizModel is the wire shape of the remote document.
type quizModel struct {
	Question string   `json:"question"`
	Answer   []string `json:"answer"`
}

// Client fetches quizzes over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ Fetcher = (*Client)(nil)

// New builds a Client for url. A zero timeout falls back to 15s.
func New(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "fetch").Logger(),
	}
}

// FetchQuiz performs the request and decodes the quiz.
func (c *Client) FetchQuiz(ctx context.Context) (quiz.Data, error) {
	l := c.log.With().Str("url", c.url).Logger()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		l.Error().Err(err).Msg("build request")
		return quiz.Data{}, &Error{Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		l.Warn().Err(err).Msg("fetch quiz")
		return quiz.Data{}, transportError(err)
	}
	defer resp.Body.Close()

	l.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("quiz response")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		l.Warn().Int("status", resp.StatusCode).Str("body", string(body)).Msg("unexpected status")
		return quiz.Data{}, &Error{
			Message: fmt.Sprintf("The quiz server answered with status %d. Please try again.", resp.StatusCode),
			Err:     fmt.Errorf("quiz status %d", resp.StatusCode),
		}
	}

	var m quizModel
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		l.Warn().Err(err).Msg("decode quiz")
		return quiz.Data{}, &Error{Message: "The data couldn't be read because it isn't in the correct format.", Err: err}
	}
	if len(m.Answer) == 0 {
		l.Warn().Msg("quiz has no answers")
		return quiz.Data{}, &Error{Message: "The quiz has no answers.", Err: quiz.ErrNoAnswers}
	}

	l.Info().Int("answers", len(m.Answer)).Msg("quiz loaded")
	return quiz.NewData(m.Question, m.Answer), nil
}

// transportError keeps context cancellation recognisable via errors.Is.
func transportError(err error) *Error {
	msg := err.Error()
	switch {
	case errors.Is(err, context.Canceled):
		msg = "The request was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		msg = "The request timed out."
	case msg == "":
		msg = fallbackMessage
	}
	return &Error{Message: msg, Err: err}
}
