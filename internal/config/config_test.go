package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/quizchallenge/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Port:           "5175",
		LogLevel:       "info",
		LogFormat:      "json",
		QuizURL:        "https://codechallenge.arctouch.com/quiz/1",
		QuizDuration:   300,
		TickInterval:   time.Second,
		FetchTimeout:   15 * time.Second,
		RequestTimeout: 30 * time.Second,
		ClientOrigin:   "http://localhost:5173",
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "LOG_FORMAT", "QUIZ_URL", "QUIZ_DURATION", "TICK_INTERVAL",
		"FETCH_TIMEOUT", "REQUEST_TIMEOUT", "CLIENT_ORIGIN", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()
	assert.Equal(t, validConfig(), cfg)
	assert.Equal(t, ":5175", cfg.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("QUIZ_URL", "http://localhost:1234/quiz")
	t.Setenv("QUIZ_DURATION", "60")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg := config.Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "http://localhost:1234/quiz", cfg.QuizURL)
	assert.Equal(t, 60, cfg.QuizDuration)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 20, cfg.RateLimitRPS, "invalid value falls back to default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty port", func(c *config.Config) { c.Port = "" }, "PORT cannot be empty"},
		{"zero duration", func(c *config.Config) { c.QuizDuration = 0 }, "QUIZ_DURATION"},
		{"negative interval", func(c *config.Config) { c.TickInterval = -time.Second }, "TICK_INTERVAL"},
		{"zero fetch timeout", func(c *config.Config) { c.FetchTimeout = 0 }, "FETCH_TIMEOUT"},
		{"request shorter than fetch", func(c *config.Config) { c.RequestTimeout = time.Second }, "REQUEST_TIMEOUT"},
		{"relative url", func(c *config.Config) { c.QuizURL = "/quiz/1" }, "QUIZ_URL"},
		{"zero burst", func(c *config.Config) { c.RateLimitBurst = 0 }, "RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
