package service

import (
	"fmt"
	"sync"
	"time"

	"pahm/internal/modules/practice/domain"
	"pahm/internal/platform/clock"
	apperrors "pahm/internal/platform/errors"
)

const TickInterval = time.Second

// TickFunc receives the remaining seconds on every periodic check. It is
// called with 0 exactly once, after which the timer has stopped itself.
type TickFunc func(remainingSeconds int)

// WallClockTimer derives remaining time from timestamps on every check, so
// a check that fires late (or after many skipped ones) still sees the true
// elapsed time.
type WallClockTimer struct {
	clock  clock.Clock
	ticker clock.Ticker
	onTick TickFunc

	mu       sync.Mutex
	state    domain.TimerState
	stopTick func()
	gen      uint64
}

func NewWallClockTimer(clk clock.Clock, ticker clock.Ticker, onTick TickFunc) *WallClockTimer {
	return &WallClockTimer{clock: clk, ticker: ticker, onTick: onTick}
}

func (t *WallClockTimer) Start(durationSeconds int) error {
	return t.StartAt(durationSeconds, 0)
}

// StartAt starts a timer that has already run for elapsedSeconds.
func (t *WallClockTimer) StartAt(durationSeconds, elapsedSeconds int) error {
	if durationSeconds <= 0 {
		return fmt.Errorf("%w: timer duration must be positive", apperrors.ErrInvalidInput)
	}
	if elapsedSeconds < 0 || elapsedSeconds > durationSeconds {
		return fmt.Errorf("%w: elapsed %ds outside [0,%d]", apperrors.ErrInvalidInput, elapsedSeconds, durationSeconds)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	t.state = domain.StartTimer(t.clock.Now(), durationSeconds, time.Duration(elapsedSeconds)*time.Second)
	t.scheduleLocked()
	return nil
}

func (t *WallClockTimer) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Pause(t.clock.Now()) {
		return false
	}
	t.haltLocked()
	return true
}

func (t *WallClockTimer) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Resume(t.clock.Now()) {
		return false
	}
	t.scheduleLocked()
	return true
}

// Stop is idempotent.
func (t *WallClockTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	t.state.Stop(t.clock.Now())
}

func (t *WallClockTimer) ElapsedSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.ElapsedSeconds(t.clock.Now())
}

func (t *WallClockTimer) RemainingSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.RemainingSeconds(t.clock.Now())
}

func (t *WallClockTimer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Running()
}

func (t *WallClockTimer) IsPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Paused()
}

func (t *WallClockTimer) State() domain.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.state
	if state.PausedAt != nil {
		at := *state.PausedAt
		state.PausedAt = &at
	}
	return state
}

func (t *WallClockTimer) scheduleLocked() {
	t.gen++
	gen := t.gen
	t.stopTick = t.ticker.Every(TickInterval, func() { t.check(gen) })
}

func (t *WallClockTimer) haltLocked() {
	t.gen++
	if t.stopTick != nil {
		t.stopTick()
		t.stopTick = nil
	}
}

func (t *WallClockTimer) check(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.state.Running() {
		t.mu.Unlock()
		return
	}
	now := t.clock.Now()
	remaining := t.state.RemainingSeconds(now)
	if remaining == 0 {
		t.haltLocked()
		t.state.Stop(now)
	}
	onTick := t.onTick
	t.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
}
