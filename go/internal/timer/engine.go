// Package timer implements the start/pause/reset state machine of a scoreboard
// timer. The engine only computes snapshots at discrete events; the overlay
// animates between them, so nothing here ticks in the background.
package timer

import (
	"errors"
	"time"

	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrRunning is returned for edits that are only allowed while stopped.
	ErrRunning = errors.New("timer is running")
	// ErrStopped is returned when pausing a timer that is not running.
	ErrStopped = errors.New("timer is not running")
	// ErrInvalidMode is returned for an unknown timer mode.
	ErrInvalidMode = errors.New("invalid timer mode")
)

// Clock is the time source of the engine.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
}

// NowMs returns the clock's wall time in epoch milliseconds.
func NowMs(c Clock) int64 {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return c.Now().UnixMilli()
}

// Start moves a stopped timer to running. A negative remaining value is the
// "needs re-seed" sentinel and is replaced by the mode's starting value.
func Start(t *models.Timer, nowMs int64) error {
	if t.Running {
		return ErrRunning
	}
	if t.RemainingMs < 0 {
		t.RemainingMs = seed(t)
	}
	t.LastTickMs = nowMs
	t.Running = true
	return nil
}

// Pause folds the time elapsed since the last start into remaining and stops
// the timer.
func Pause(t *models.Timer, nowMs int64) error {
	if !t.Running {
		return ErrStopped
	}
	if t.LastTickMs > 0 {
		t.RemainingMs = advance(t, nowMs)
	}
	t.Running = false
	return nil
}

// Toggle starts a stopped timer or pauses a running one.
func Toggle(t *models.Timer, nowMs int64) error {
	if t.Running {
		return Pause(t, nowMs)
	}
	return Start(t, nowMs)
}

// Reset restores the initial duration and stops the timer. Mode and initial
// duration are kept.
func Reset(t *models.Timer) {
	t.RemainingMs = max(0, t.InitialMs)
	t.Running = false
	t.LastTickMs = 0
}

// SetTargetDuration sets both the initial and remaining duration.
func SetTargetDuration(t *models.Timer, ms int64) error {
	if t.Running {
		return ErrRunning
	}
	t.InitialMs = ms
	t.RemainingMs = ms
	return nil
}

// SetMode switches direction without converting the remaining value.
func SetMode(t *models.Timer, mode models.TimerMode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}
	if t.Running {
		return ErrRunning
	}
	t.Mode = mode
	return nil
}

// Live returns the value the timer shows at nowMs without mutating it.
func Live(t models.Timer, nowMs int64) int64 {
	if !t.Running || t.LastTickMs <= 0 {
		return t.RemainingMs
	}
	return advance(&t, nowMs)
}

func seed(t *models.Timer) int64 {
	if t.Mode == models.TimerModeCountup {
		return 0
	}
	return max(0, t.InitialMs)
}

func advance(t *models.Timer, nowMs int64) int64 {
	elapsed := max(0, nowMs-t.LastTickMs)
	if t.Mode == models.TimerModeCountup {
		return t.RemainingMs + elapsed
	}
	return max(0, t.RemainingMs-elapsed)
}
