package ticker_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/quizchallenge/internal/ticker"
)

func TestReal_TicksUntilStopped(t *testing.T) {
	var n atomic.Int32
	stop := ticker.Real{}.Every(5*time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)

	stop.Stop()
	stop.Stop() // idempotent
	time.Sleep(20 * time.Millisecond)
	settled := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, n.Load(), "no ticks after Stop")
}
