package out_test

import (
	"context"
	"testing"
	"time"

	journaldto "pahm/internal/modules/journal/dto"
	practiceout "pahm/internal/modules/practice/adapter/out"
	"pahm/internal/modules/practice/domain"
)

type fakeJournal struct {
	sessions    []journaldto.RecordSessionInput
	reflections []journaldto.RecordReflectionInput
}

func (f *fakeJournal) RecordSession(_ context.Context, in journaldto.RecordSessionInput) (journaldto.RecordSessionOutput, error) {
	f.sessions = append(f.sessions, in)
	return journaldto.RecordSessionOutput{NotePath: "practice/x.md"}, nil
}

func (f *fakeJournal) RecordReflection(_ context.Context, in journaldto.RecordReflectionInput) (journaldto.ReflectionOutput, error) {
	f.reflections = append(f.reflections, in)
	return journaldto.ReflectionOutput{ID: "r-1"}, nil
}

func (f *fakeJournal) ListSessions(context.Context, int) ([]journaldto.SessionSummary, error) {
	return nil, nil
}

func (f *fakeJournal) GetSession(context.Context, string) (journaldto.SessionDetail, error) {
	return journaldto.SessionDetail{}, nil
}

func (f *fakeJournal) Stats(context.Context) (journaldto.StatsOutput, error) {
	return journaldto.StatsOutput{}, nil
}

func (f *fakeJournal) Reindex(context.Context) (journaldto.ReindexOutput, error) {
	return journaldto.ReindexOutput{}, nil
}

func TestJournalRecorderMapsCompletedSession(t *testing.T) {
	t.Parallel()
	journal := &fakeJournal{}
	recorder := practiceout.NewJournalRecorder(journal)

	var tally domain.Tally
	tally.Increment(domain.PresentAttachment)
	tally.Increment(domain.FutureAversion)
	err := recorder.RecordCompletedSession(context.Background(), domain.CompletedSession{
		ID:                    "s-1",
		Timestamp:             time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC),
		ActualDurationSeconds: 60,
		StageID:               2,
		Posture:               "seated",
		PresentPercentage:     50,
		QualityScore:          5.5,
		Tally:                 tally,
		EndReason:             domain.EndReasonEarly,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(journal.sessions) != 1 {
		t.Fatalf("expected one session recorded")
	}
	got := journal.sessions[0]
	if got.Tally["likes"] != 1 || got.Tally["worry"] != 1 || got.EndReason != "early" {
		t.Fatalf("unexpected mapping %+v", got)
	}

	if err := recorder.RecordReflectionNote(context.Background(), "s-1", "restless", "agitated"); err != nil {
		t.Fatalf("reflection: %v", err)
	}
	if len(journal.reflections) != 1 || journal.reflections[0].Emotion != "agitated" {
		t.Fatalf("unexpected reflections %+v", journal.reflections)
	}
}
