package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string // "json" or "console"
	QuizURL        string
	QuizDuration   int // seconds
	TickInterval   time.Duration
	FetchTimeout   time.Duration
	RequestTimeout time.Duration
	ClientOrigin   string
	RateLimitRPS   int
	RateLimitBurst int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the server still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		Port:           envOr("PORT", "5175"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "json"),
		QuizURL:        envOr("QUIZ_URL", "https://codechallenge.arctouch.com/quiz/1"),
		QuizDuration:   envIntOr("QUIZ_DURATION", 5*60),
		TickInterval:   envDurationOr("TICK_INTERVAL", time.Second),
		FetchTimeout:   envDurationOr("FETCH_TIMEOUT", 15*time.Second),
		RequestTimeout: envDurationOr("REQUEST_TIMEOUT", 30*time.Second),
		ClientOrigin:   envOr("CLIENT_ORIGIN", "http://localhost:5173"),
		RateLimitRPS:   envIntOr("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envIntOr("RATE_LIMIT_BURST", 40),
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.QuizDuration <= 0 {
		return fmt.Errorf("QUIZ_DURATION must be positive, got %d", c.QuizDuration)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	// the start request waits for the fetch, so it needs the longer budget
	if c.RequestTimeout < c.FetchTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must not be shorter than FETCH_TIMEOUT (%s)", c.RequestTimeout, c.FetchTimeout)
	}
	u, err := url.Parse(c.QuizURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("QUIZ_URL is not an absolute URL: %q", c.QuizURL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string { return ":" + c.Port }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("invalid integer, using default")
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", v).Dur("default", def).Msg("invalid duration, using default")
	}
	return def
}
