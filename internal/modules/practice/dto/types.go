package dto

import "time"

type StageOutput struct {
	ID                     int
	Name                   string
	MinimumDurationSeconds int
	DefaultDurationSeconds int
}

// StartInput zero DurationSeconds means the stage default.
type StartInput struct {
	DurationSeconds  int
	Posture          string
	DurationOverride *int
}

type StatusOutput struct {
	SessionID        string
	State            string
	StageID          int
	StageName        string
	Posture          string
	TotalSeconds     int
	ElapsedSeconds   int
	RemainingSeconds int
	Tally            map[string]int
	TotalTaps        int
	WakeLockHeld     bool
	AudioEnabled     bool
	RecoveryPending  bool
}

type RecoveryOutput struct {
	SessionID        string
	StageID          int
	Posture          string
	DurationSeconds  int
	ElapsedSeconds   int
	RemainingSeconds int
	Tally            map[string]int
	SnapshotAt       time.Time
	Age              time.Duration
}

type CompletedOutput struct {
	SessionID             string
	Timestamp             time.Time
	ActualDurationSeconds int
	StageID               int
	Posture               string
	IsFullyCompleted      bool
	PresentPercentage     int
	QualityScore          float64
	Tally                 map[string]int
	PAHMTally             map[string]int
	Note                  string
	EndReason             string
}

type HandoffOutput struct {
	SessionID             string
	StageID               int
	ActualDurationSeconds int
	Posture               string
	Tally                 map[string]int
}

type ReflectionInput struct {
	SessionID string
	Note      string
	Emotion   string
}
