package quiz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/quizchallenge/internal/quiz"
)

func TestClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{60, "01:00"},
		{299, "04:59"},
		{300, "05:00"},
		{3599, "59:59"},
		{3600, "00:00"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quiz.Clock(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestHitsLabel(t *testing.T) {
	assert.Equal(t, "00/00", quiz.HitsLabel(0, 0))
	assert.Equal(t, "03/50", quiz.HitsLabel(3, 50))
	assert.Equal(t, "120/150", quiz.HitsLabel(120, 150))
}
