package in

import (
	"context"

	"pahm/internal/modules/journal/dto"
	journalin "pahm/internal/modules/journal/port/in"
)

type CLIHandler struct {
	usecase journalin.Usecase
}

func NewCLIHandler(usecase journalin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, limit int) ([]dto.SessionSummary, error) {
	return h.usecase.ListSessions(ctx, limit)
}

func (h CLIHandler) Show(ctx context.Context, id string) (dto.SessionDetail, error) {
	return h.usecase.GetSession(ctx, id)
}

func (h CLIHandler) Stats(ctx context.Context) (dto.StatsOutput, error) {
	return h.usecase.Stats(ctx)
}

func (h CLIHandler) Reindex(ctx context.Context) (dto.ReindexOutput, error) {
	return h.usecase.Reindex(ctx)
}

func (h CLIHandler) Reflect(ctx context.Context, sessionID, emotion, note string) (dto.ReflectionOutput, error) {
	return h.usecase.RecordReflection(ctx, dto.RecordReflectionInput{SessionID: sessionID, Emotion: emotion, Note: note})
}
