package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "pahm/internal/platform/errors"
)

const SchemaVersion = 1

// Markers around the generated list in practice/log.md.
const (
	LogStart = "<!-- pahm:practice-log:start -->"
	LogEnd   = "<!-- pahm:practice-log:end -->"
)

// RecentLogSize is how many sessions the practice log lists.
const RecentLogSize = 10

// SessionRecord is a completed practice session as the journal keeps it.
// Tally uses the PAHM names (likes, present, worry, ...).
type SessionRecord struct {
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
	NotePath              string
}

func (r SessionRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	case r.Timestamp.IsZero():
		return fmt.Errorf("%w: session timestamp is required", apperrors.ErrInvalidInput)
	case r.StageID <= 0:
		return fmt.Errorf("%w: stage id must be positive", apperrors.ErrInvalidInput)
	case r.ActualDurationSeconds < 0:
		return fmt.Errorf("%w: duration cannot be negative", apperrors.ErrInvalidInput)
	case r.PresentPercentage < 0 || r.PresentPercentage > 100:
		return fmt.Errorf("%w: present percentage out of range", apperrors.ErrInvalidInput)
	case r.QualityScore < 1 || r.QualityScore > 10:
		return fmt.Errorf("%w: quality score out of range", apperrors.ErrInvalidInput)
	}
	for key, n := range r.Tally {
		if n < 0 {
			return fmt.Errorf("%w: negative count for %s", apperrors.ErrInvalidInput, key)
		}
	}
	return nil
}

func (r SessionRecord) TotalTaps() int {
	total := 0
	for _, n := range r.Tally {
		total += n
	}
	return total
}

// Reflection is a free-text journal entry, usually written right after a
// session. SessionID may be empty.
type Reflection struct {
	ID         string
	SessionID  string
	Emotion    string
	Note       string
	RecordedAt time.Time
	NotePath   string
}

func (r Reflection) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("%w: reflection id is required", apperrors.ErrInvalidInput)
	case strings.TrimSpace(r.Note) == "":
		return fmt.Errorf("%w: reflection note is required", apperrors.ErrInvalidInput)
	case r.RecordedAt.IsZero():
		return fmt.Errorf("%w: reflection timestamp is required", apperrors.ErrInvalidInput)
	}
	return nil
}

// Stats aggregates every indexed session.
type Stats struct {
	Sessions       int
	FullyCompleted int
	TotalSeconds   int
	AverageQuality float64
	AveragePresent float64
	PerStage       map[int]int
}
