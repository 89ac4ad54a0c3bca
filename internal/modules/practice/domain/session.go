package domain

import (
	"fmt"
	"time"

	apperrors "pahm/internal/platform/errors"
)

type State string

const (
	StateSetup     State = "setup"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
)

type EndReason string

const (
	EndReasonExpired EndReason = "expired"
	EndReasonEarly   EndReason = "early"
)

const SnapshotSchemaVersion = 1

// RecoverySnapshot is the single persisted slot written when the host may
// suspend a running session.
type RecoverySnapshot struct {
	SchemaVersion    int        `json:"schema_version"`
	SessionID        string     `json:"session_id"`
	Parameters       Parameters `json:"parameters"`
	StartedAt        time.Time  `json:"started_at"`
	RemainingSeconds int        `json:"remaining_seconds"`
	ElapsedSeconds   int        `json:"elapsed_seconds"`
	Tally            Tally      `json:"tally"`
	SnapshotAt       time.Time  `json:"snapshot_at"`
}

func (s RecoverySnapshot) Validate() error {
	if s.SchemaVersion != SnapshotSchemaVersion {
		return fmt.Errorf("%w: unsupported snapshot schema %d", apperrors.ErrInvalidInput, s.SchemaVersion)
	}
	if s.SessionID == "" || s.SnapshotAt.IsZero() {
		return fmt.Errorf("%w: snapshot missing session id or timestamp", apperrors.ErrInvalidInput)
	}
	if s.ElapsedSeconds < 0 || s.RemainingSeconds < 0 {
		return fmt.Errorf("%w: snapshot has negative timing", apperrors.ErrInvalidInput)
	}
	if s.ElapsedSeconds+s.RemainingSeconds != s.Parameters.EffectiveDuration() {
		return fmt.Errorf("%w: snapshot timing does not add up to the session duration", apperrors.ErrInvalidInput)
	}
	return nil
}

// Age is how long ago the snapshot was taken.
func (s RecoverySnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.SnapshotAt)
}

// CompletedSession is built once when a session ends and never changed.
type CompletedSession struct {
	ID                    string
	Timestamp             time.Time
	StartedAt             time.Time
	ActualDurationSeconds int
	StageID               int
	Posture               string
	IsFullyCompleted      bool
	PresentPercentage     int
	QualityScore          float64
	Tally                 Tally
	Note                  string
	EndReason             EndReason
}

// Handoff is what the reflection screen needs after a session.
type Handoff struct {
	SessionID             string
	StageID               int
	ActualDurationSeconds int
	Posture               string
	Tally                 map[string]int
}

func (c CompletedSession) Handoff() Handoff {
	return Handoff{
		SessionID:             c.ID,
		StageID:               c.StageID,
		ActualDurationSeconds: c.ActualDurationSeconds,
		Posture:               c.Posture,
		Tally:                 c.Tally.PAHM(),
	}
}
