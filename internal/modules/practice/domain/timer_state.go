package domain

import "time"

// TimerState is the timestamp record a wall-clock timer derives time from.
// A stopped timer keeps the instant it stopped in PausedAt, which freezes
// Elapsed the same way a pause does.
type TimerState struct {
	StartedAt            time.Time
	TotalDurationSeconds int
	AccumulatedPause     time.Duration
	PausedAt             *time.Time
	Active               bool
}

// StartTimer returns an active state that began elapsed ago.
func StartTimer(now time.Time, totalSeconds int, elapsed time.Duration) TimerState {
	return TimerState{
		StartedAt:            now.Add(-elapsed),
		TotalDurationSeconds: totalSeconds,
		Active:               true,
	}
}

func (s TimerState) Total() time.Duration {
	return time.Duration(s.TotalDurationSeconds) * time.Second
}

// Elapsed is clamped to [0, total].
func (s TimerState) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	end := now
	if s.PausedAt != nil {
		end = *s.PausedAt
	}
	elapsed := end.Sub(s.StartedAt) - s.AccumulatedPause
	if elapsed < 0 {
		return 0
	}
	if total := s.Total(); elapsed > total {
		return total
	}
	return elapsed
}

// ElapsedSeconds and RemainingSeconds always sum to TotalDurationSeconds.
func (s TimerState) ElapsedSeconds(now time.Time) int {
	return int(s.Elapsed(now) / time.Second)
}

func (s TimerState) RemainingSeconds(now time.Time) int {
	if s.StartedAt.IsZero() {
		return s.TotalDurationSeconds
	}
	return s.TotalDurationSeconds - s.ElapsedSeconds(now)
}

func (s TimerState) Paused() bool {
	return s.Active && s.PausedAt != nil
}

func (s TimerState) Running() bool {
	return s.Active && s.PausedAt == nil
}

// Pause reports whether the state changed.
func (s *TimerState) Pause(now time.Time) bool {
	if !s.Running() {
		return false
	}
	at := now
	s.PausedAt = &at
	return true
}

// Resume reports whether the state changed.
func (s *TimerState) Resume(now time.Time) bool {
	if !s.Paused() {
		return false
	}
	if gap := now.Sub(*s.PausedAt); gap > 0 {
		s.AccumulatedPause += gap
	}
	s.PausedAt = nil
	return true
}

// Stop reports whether the state changed.
func (s *TimerState) Stop(now time.Time) bool {
	if !s.Active {
		return false
	}
	if s.PausedAt == nil {
		at := now
		s.PausedAt = &at
	}
	s.Active = false
	return true
}
