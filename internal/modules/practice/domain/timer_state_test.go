package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pahm/internal/modules/practice/domain"
)

func TestTimerStateElapsedPlusRemainingIsTotal(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	state := domain.StartTimer(start, 120, 0)
	now := start
	for _, step := range []time.Duration{0, 900 * time.Millisecond, 3 * time.Second, 41 * time.Second, 10 * time.Minute} {
		now = now.Add(step)
		elapsed := state.ElapsedSeconds(now)
		remaining := state.RemainingSeconds(now)
		assert.Equal(t, 120, elapsed+remaining)
		assert.GreaterOrEqual(t, remaining, 0)
	}
	assert.Equal(t, 0, state.RemainingSeconds(now))
}

func TestTimerStatePauseFreezesAndShifts(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	state := domain.StartTimer(start, 600, 0)

	assert.True(t, state.Pause(start.Add(100*time.Second)))
	assert.False(t, state.Pause(start.Add(101*time.Second)))
	assert.Equal(t, 100, state.ElapsedSeconds(start.Add(400*time.Second)))

	assert.True(t, state.Resume(start.Add(400*time.Second)))
	assert.False(t, state.Resume(start.Add(401*time.Second)))
	assert.Equal(t, 300*time.Second, state.AccumulatedPause)
	assert.Equal(t, 0, state.RemainingSeconds(start.Add(900*time.Second)))
	assert.Equal(t, 1, state.RemainingSeconds(start.Add(899*time.Second)))
}

func TestTimerStateStopFreezesElapsed(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	state := domain.StartTimer(start, 600, 30*time.Second)
	assert.Equal(t, 30, state.ElapsedSeconds(start))

	assert.True(t, state.Stop(start.Add(30*time.Second)))
	assert.False(t, state.Stop(start.Add(31*time.Second)))
	assert.False(t, state.Resume(start.Add(40*time.Second)))
	assert.Equal(t, 60, state.ElapsedSeconds(start.Add(time.Hour)))
	assert.False(t, state.Running())
}

func TestTimerStateZeroValue(t *testing.T) {
	t.Parallel()
	var state domain.TimerState
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, state.ElapsedSeconds(now))
	assert.False(t, state.Pause(now))
	assert.False(t, state.Running())
}
