package usecase

import (
	"context"

	"pahm/internal/modules/journal/domain"
	"pahm/internal/modules/journal/dto"
	journalin "pahm/internal/modules/journal/port/in"
	"pahm/internal/modules/journal/service"
)

type Interactor struct {
	svc *service.JournalService
}

func NewInteractor(svc *service.JournalService) journalin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) RecordSession(ctx context.Context, input dto.RecordSessionInput) (dto.RecordSessionOutput, error) {
	record, err := i.svc.RecordSession(ctx, domain.SessionRecord{
		ID:                    input.ID,
		Timestamp:             input.Timestamp,
		StartedAt:             input.StartedAt,
		ActualDurationSeconds: input.ActualDurationSeconds,
		StageID:               input.StageID,
		Posture:               input.Posture,
		IsFullyCompleted:      input.IsFullyCompleted,
		PresentPercentage:     input.PresentPercentage,
		QualityScore:          input.QualityScore,
		Tally:                 input.Tally,
		Note:                  input.Note,
		EndReason:             input.EndReason,
	})
	if err != nil {
		return dto.RecordSessionOutput{}, err
	}
	return dto.RecordSessionOutput{NotePath: record.NotePath}, nil
}

func (i *Interactor) RecordReflection(ctx context.Context, input dto.RecordReflectionInput) (dto.ReflectionOutput, error) {
	r, err := i.svc.RecordReflection(ctx, input.SessionID, input.Note, input.Emotion)
	if err != nil {
		return dto.ReflectionOutput{}, err
	}
	return dto.ReflectionOutput{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Emotion:    r.Emotion,
		RecordedAt: r.RecordedAt,
		NotePath:   r.NotePath,
	}, nil
}

func (i *Interactor) ListSessions(ctx context.Context, limit int) ([]dto.SessionSummary, error) {
	records, err := i.svc.ListSessions(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionSummary, 0, len(records))
	for _, r := range records {
		out = append(out, toSummary(r))
	}
	return out, nil
}

func (i *Interactor) GetSession(ctx context.Context, id string) (dto.SessionDetail, error) {
	r, err := i.svc.GetSession(ctx, id)
	if err != nil {
		return dto.SessionDetail{}, err
	}
	return dto.SessionDetail{
		SessionSummary: toSummary(r),
		StartedAt:      r.StartedAt,
		Tally:          r.Tally,
		Note:           r.Note,
	}, nil
}

func (i *Interactor) Stats(ctx context.Context) (dto.StatsOutput, error) {
	stats, err := i.svc.Stats(ctx)
	if err != nil {
		return dto.StatsOutput{}, err
	}
	return dto.StatsOutput{
		Sessions:       stats.Sessions,
		FullyCompleted: stats.FullyCompleted,
		TotalMinutes:   stats.TotalSeconds / 60,
		AverageQuality: stats.AverageQuality,
		AveragePresent: stats.AveragePresent,
		PerStage:       stats.PerStage,
	}, nil
}

func (i *Interactor) Reindex(ctx context.Context) (dto.ReindexOutput, error) {
	sessions, reflections, err := i.svc.Reindex(ctx)
	if err != nil {
		return dto.ReindexOutput{}, err
	}
	return dto.ReindexOutput{Sessions: sessions, Reflections: reflections}, nil
}

func toSummary(r domain.SessionRecord) dto.SessionSummary {
	return dto.SessionSummary{
		ID:                    r.ID,
		Timestamp:             r.Timestamp,
		StageID:               r.StageID,
		Posture:               r.Posture,
		ActualDurationSeconds: r.ActualDurationSeconds,
		IsFullyCompleted:      r.IsFullyCompleted,
		PresentPercentage:     r.PresentPercentage,
		QualityScore:          r.QualityScore,
		TotalTaps:             r.TotalTaps(),
		EndReason:             r.EndReason,
		NotePath:              r.NotePath,
	}
}
