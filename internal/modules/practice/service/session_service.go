package service

import (
	"fmt"
	"strings"
	"time"

	"pahm/internal/modules/practice/domain"
	"pahm/internal/platform/clock"
	apperrors "pahm/internal/platform/errors"
	"pahm/internal/platform/id"
)

const maxNoteLength = 4000

// SessionService owns identity, scoring and record construction.
type SessionService struct {
	clock  clock.Clock
	idGen  id.Generator
	policy domain.ScoringPolicy
}

func NewSessionService(clock clock.Clock, idGen id.Generator, policy domain.ScoringPolicy) *SessionService {
	return &SessionService{clock: clock, idGen: idGen, policy: policy}
}

func (s *SessionService) Now() time.Time {
	return s.clock.Now()
}

func (s *SessionService) NewSessionID() string {
	return s.idGen.New()
}

func (s *SessionService) Policy() domain.ScoringPolicy {
	return s.policy
}

type CompletionInput struct {
	SessionID      string
	StartedAt      time.Time
	Parameters     domain.Parameters
	ElapsedSeconds int
	Tally          domain.Tally
	Reason         domain.EndReason
	Note           string
}

func (s *SessionService) Complete(input CompletionInput) (domain.CompletedSession, error) {
	if input.SessionID == "" {
		return domain.CompletedSession{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if input.ElapsedSeconds < 0 {
		return domain.CompletedSession{}, fmt.Errorf("%w: negative elapsed time", apperrors.ErrInvalidInput)
	}
	if input.Reason != domain.EndReasonExpired && input.Reason != domain.EndReasonEarly {
		return domain.CompletedSession{}, fmt.Errorf("%w: unknown end reason %q", apperrors.ErrInvalidInput, input.Reason)
	}
	note := strings.TrimSpace(input.Note)
	if runes := []rune(note); len(runes) > maxNoteLength {
		note = string(runes[:maxNoteLength])
	}
	full := input.Reason == domain.EndReasonExpired
	return domain.CompletedSession{
		ID:                    input.SessionID,
		Timestamp:             s.clock.Now(),
		StartedAt:             input.StartedAt,
		ActualDurationSeconds: input.ElapsedSeconds,
		StageID:               input.Parameters.StageID,
		Posture:               input.Parameters.Posture,
		IsFullyCompleted:      full,
		PresentPercentage:     s.policy.PresentPercentage(input.Tally),
		QualityScore:          s.policy.QualityScore(input.Tally, input.ElapsedSeconds, full, input.Parameters.StageID),
		Tally:                 input.Tally,
		Note:                  note,
		EndReason:             input.Reason,
	}, nil
}

// Snapshot captures the running session for the recovery slot.
func (s *SessionService) Snapshot(sessionID string, params domain.Parameters, startedAt time.Time, timer domain.TimerState, tally domain.Tally) domain.RecoverySnapshot {
	now := s.clock.Now()
	return domain.RecoverySnapshot{
		SchemaVersion:    domain.SnapshotSchemaVersion,
		SessionID:        sessionID,
		Parameters:       params,
		StartedAt:        startedAt,
		RemainingSeconds: timer.RemainingSeconds(now),
		ElapsedSeconds:   timer.ElapsedSeconds(now),
		Tally:            tally,
		SnapshotAt:       now,
	}
}
