// Package ticker provides the cancelable periodic timer that drives the
// quiz countdown.
package ticker

import (
	"sync"
	"time"
)

// Stopper cancels a running tick source. Stop is idempotent.
type Stopper interface {
	Stop()
}

// Source starts a periodic callback. fn runs once per elapsed interval on a
// goroutine owned by the source until the returned Stopper is stopped.
// A callback already running when Stop is called may still complete.
type Source interface {
	Every(interval time.Duration, fn func()) Stopper
}

// Real is a Source backed by time.Ticker.
type Real struct{}

var _ Source = Real{}

func (Real) Every(interval time.Duration, fn func()) Stopper {
	t := time.NewTicker(interval)
	s := &realStopper{t: t, done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				fn()
			}
		}
	}()
	return s
}

type realStopper struct {
	t    *time.Ticker
	done chan struct{}
	once sync.Once
}

func (s *realStopper) Stop() {
	s.once.Do(func() {
		s.t.Stop()
		close(s.done)
	})
}
