package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/quizchallenge/internal/fetch"
	"github.com/robalobadob/quizchallenge/internal/quiz"
)

func serve(t *testing.T, h http.HandlerFunc) *fetch.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return fetch.New(srv.URL, 2*time.Second)
}

func TestFetchQuiz_DecodesQuiz(t *testing.T) {
	var gotCache, gotAccept string
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotCache = r.Header.Get("Cache-Control")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"question":"What are all the Java keywords?","answer":["abstract","assert","abstract"]}`))
	})

	data, err := c.FetchQuiz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "What are all the Java keywords?", data.Question)
	assert.Equal(t, []string{"abstract", "assert", "abstract"}, data.Answers, "duplicates and order kept")
	assert.Equal(t, "no-cache", gotCache)
	assert.Equal(t, "application/json", gotAccept)
}

func TestFetchQuiz_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		message string
	}{
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			message: "The quiz server answered with status 500. Please try again.",
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"question":`))
			},
			message: "The data couldn't be read because it isn't in the correct format.",
		},
		{
			name: "wrong types",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"question":"q","answer":"not-a-list"}`))
			},
			message: "The data couldn't be read because it isn't in the correct format.",
		},
		{
			name: "empty answers",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"question":"q","answer":[]}`))
			},
			message: "The quiz has no answers.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := serve(t, tt.handler)

			_, err := c.FetchQuiz(context.Background())
			require.Error(t, err)

			var fe *fetch.Error
			require.True(t, errors.As(err, &fe), "want *fetch.Error, got %T", err)
			assert.Equal(t, tt.message, fe.Message)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestFetchQuiz_EmptyAnswersWrapsPrecondition(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"question":"q","answer":[]}`))
	})
	_, err := c.FetchQuiz(context.Background())
	assert.ErrorIs(t, err, quiz.ErrNoAnswers)
}

func TestFetchQuiz_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := fetch.New(url, time.Second).FetchQuiz(context.Background())
	var fe *fetch.Error
	require.True(t, errors.As(err, &fe))
	assert.NotEmpty(t, fe.Message)
	assert.NotNil(t, fe.Unwrap())
}

func TestFetchQuiz_Cancelled(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"question":"q","answer":["a"]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchQuiz(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "The request was cancelled.", err.Error())
}

func TestNew_DefaultURL(t *testing.T) {
	assert.NotNil(t, fetch.New("", 0))
	assert.Equal(t, "https://codechallenge.arctouch.com/quiz/1", fetch.DefaultURL)
}
