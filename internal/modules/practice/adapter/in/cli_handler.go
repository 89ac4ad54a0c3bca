package in

import (
	"context"

	"pahm/internal/modules/practice/dto"
	practicein "pahm/internal/modules/practice/port/in"
)

type CLIHandler struct {
	usecase practicein.Usecase
}

func NewCLIHandler(usecase practicein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Stages(ctx context.Context) []dto.StageOutput {
	return h.usecase.Stages(ctx)
}

func (h CLIHandler) PendingRecovery(ctx context.Context) (dto.RecoveryOutput, error) {
	return h.usecase.PendingRecovery(ctx)
}

func (h CLIHandler) ClearRecovery(ctx context.Context) error {
	return h.usecase.DiscardRecovery(ctx)
}

func (h CLIHandler) Reflect(ctx context.Context, sessionID, emotion, note string) error {
	return h.usecase.RecordReflection(ctx, dto.ReflectionInput{SessionID: sessionID, Emotion: emotion, Note: note})
}
