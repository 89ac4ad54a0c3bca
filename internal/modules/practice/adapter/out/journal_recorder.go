package out

import (
	"context"

	journaldto "pahm/internal/modules/journal/dto"
	journalin "pahm/internal/modules/journal/port/in"
	"pahm/internal/modules/practice/domain"
)

// JournalRecorder hands completed sessions and reflections to the journal.
type JournalRecorder struct {
	journal journalin.Usecase
}

func NewJournalRecorder(journal journalin.Usecase) *JournalRecorder {
	return &JournalRecorder{journal: journal}
}

func (r *JournalRecorder) RecordCompletedSession(ctx context.Context, session domain.CompletedSession) error {
	_, err := r.journal.RecordSession(ctx, journaldto.RecordSessionInput{
		ID:                    session.ID,
		Timestamp:             session.Timestamp,
		StartedAt:             session.StartedAt,
		ActualDurationSeconds: session.ActualDurationSeconds,
		StageID:               session.StageID,
		Posture:               session.Posture,
		IsFullyCompleted:      session.IsFullyCompleted,
		PresentPercentage:     session.PresentPercentage,
		QualityScore:          session.QualityScore,
		Tally:                 session.Tally.PAHM(),
		Note:                  session.Note,
		EndReason:             string(session.EndReason),
	})
	return err
}

func (r *JournalRecorder) RecordReflectionNote(ctx context.Context, sessionID, note, emotion string) error {
	_, err := r.journal.RecordReflection(ctx, journaldto.RecordReflectionInput{SessionID: sessionID, Note: note, Emotion: emotion})
	return err
}
