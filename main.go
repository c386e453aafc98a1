package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/quizchallenge/internal/config"
	"github.com/robalobadob/quizchallenge/internal/fetch"
	"github.com/robalobadob/quizchallenge/internal/httpserver"
	"github.com/robalobadob/quizchallenge/internal/hub"
	"github.com/robalobadob/quizchallenge/internal/session"
	"github.com/robalobadob/quizchallenge/internal/ticker"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Debug().
		Str("quiz_url", cfg.QuizURL).
		Int("duration", cfg.QuizDuration).
		Dur("tick", cfg.TickInterval).
		Dur("fetch_timeout", cfg.FetchTimeout).
		Msg("configuration loaded")

	events := hub.New()
	ctrl := session.New(
		fetch.New(cfg.QuizURL, cfg.FetchTimeout),
		ticker.Real{},
		events,
		log.Logger,
		session.Options{Duration: cfg.QuizDuration, Interval: cfg.TickInterval},
	)
	defer ctrl.Close()

	srv := httpserver.New(ctrl, events, log.Logger, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// cancelled on shutdown so open event streams return
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	go srv.RunCleanup(baseCtx)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting quiz server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
