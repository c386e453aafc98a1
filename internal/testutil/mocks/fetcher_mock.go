package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/robalobadob/quizchallenge/internal/quiz"
)

// MockFetcher is a mock implementation of fetch.Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchQuiz(ctx context.Context) (quiz.Data, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return quiz.Data{}, args.Error(1)
	}
	return args.Get(0).(quiz.Data), args.Error(1)
}
