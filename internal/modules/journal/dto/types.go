package dto

import "time"

type RecordSessionInput struct {
	ID                    string
	Timestamp             time.Time
	StartedAt             time.Time
	ActualDurationSeconds int
	StageID               int
	Posture               string
	IsFullyCompleted      bool
	PresentPercentage     int
	QualityScore          float64
	Tally                 map[string]int
	Note                  string
	EndReason             string
}

type RecordSessionOutput struct {
	NotePath string
}

type RecordReflectionInput struct {
	SessionID string
	Note      string
	Emotion   string
}

type ReflectionOutput struct {
	ID         string
	SessionID  string
	Emotion    string
	RecordedAt time.Time
	NotePath   string
}

type SessionSummary struct {
	ID                    string
	Timestamp             time.Time
	StageID               int
	Posture               string
	ActualDurationSeconds int
	IsFullyCompleted      bool
	PresentPercentage     int
	QualityScore          float64
	TotalTaps             int
	EndReason             string
	NotePath              string
}

type SessionDetail struct {
	SessionSummary
	StartedAt time.Time
	Tally     map[string]int
	Note      string
}

type StatsOutput struct {
	Sessions       int
	FullyCompleted int
	TotalMinutes   int
	AverageQuality float64
	AveragePresent float64
	PerStage       map[int]int
}

type ReindexOutput struct {
	Sessions    int
	Reflections int
}
