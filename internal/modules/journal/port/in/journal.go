package in

import (
	"context"

	"pahm/internal/modules/journal/dto"
)

type Usecase interface {
	RecordSession(ctx context.Context, input dto.RecordSessionInput) (dto.RecordSessionOutput, error)
	RecordReflection(ctx context.Context, input dto.RecordReflectionInput) (dto.ReflectionOutput, error)
	ListSessions(ctx context.Context, limit int) ([]dto.SessionSummary, error)
	GetSession(ctx context.Context, id string) (dto.SessionDetail, error)
	Stats(ctx context.Context) (dto.StatsOutput, error)
	Reindex(ctx context.Context) (dto.ReindexOutput, error)
}
