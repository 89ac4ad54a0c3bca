package in

import (
	"context"

	"pahm/internal/modules/practice/domain"
	"pahm/internal/modules/practice/dto"
)

// Session drives one practice session from setup to completion.
type Session interface {
	Start(ctx context.Context, input dto.StartInput) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Tap(category domain.Category) bool
	CompleteEarly(ctx context.Context, note string) (dto.CompletedOutput, error)
	AcceptRecovery(ctx context.Context) error
	DeclineRecovery(ctx context.Context) error
	Status() dto.StatusOutput
	Close() error
}

// Listener receives session events. Calls come from timer and lifecycle
// goroutines and are never made while the session holds its lock.
type Listener interface {
	TimerTicked(remainingSeconds int)
	StateChanged(from, to string)
	RecoveryOffered(offer dto.RecoveryOutput)
	WakeLockRevoked()
	SessionCompleted(session dto.CompletedOutput)
	ReflectionRequested(handoff dto.HandoffOutput)
}

type Usecase interface {
	Stages(ctx context.Context) []dto.StageOutput
	NewSession(ctx context.Context, stageID int, listener Listener) (Session, error)
	PendingRecovery(ctx context.Context) (dto.RecoveryOutput, error)
	ResumeRecovered(ctx context.Context, listener Listener) (Session, error)
	DiscardRecovery(ctx context.Context) error
	RecordReflection(ctx context.Context, input dto.ReflectionInput) error
}
