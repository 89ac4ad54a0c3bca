package in

import (
	"context"

	"pahm/internal/modules/practice/dto"
	practicein "pahm/internal/modules/practice/port/in"
)

// TUIHandler opens sessions whose events are delivered on one stream, so
// the UI loop can read them as messages.
type TUIHandler struct {
	usecase practicein.Usecase
	events  *EventStream
}

func NewTUIHandler(usecase practicein.Usecase, events *EventStream) TUIHandler {
	return TUIHandler{usecase: usecase, events: events}
}

func (h TUIHandler) Events() <-chan Event {
	return h.events.C()
}

func (h TUIHandler) Stages(ctx context.Context) []dto.StageOutput {
	return h.usecase.Stages(ctx)
}

func (h TUIHandler) NewSession(ctx context.Context, stageID int) (practicein.Session, error) {
	return h.usecase.NewSession(ctx, stageID, h.events)
}

func (h TUIHandler) PendingRecovery(ctx context.Context) (dto.RecoveryOutput, error) {
	return h.usecase.PendingRecovery(ctx)
}

func (h TUIHandler) ResumeRecovered(ctx context.Context) (practicein.Session, error) {
	return h.usecase.ResumeRecovered(ctx, h.events)
}

func (h TUIHandler) DiscardRecovery(ctx context.Context) error {
	return h.usecase.DiscardRecovery(ctx)
}

func (h TUIHandler) RecordReflection(ctx context.Context, sessionID, emotion, note string) error {
	return h.usecase.RecordReflection(ctx, dto.ReflectionInput{SessionID: sessionID, Emotion: emotion, Note: note})
}
