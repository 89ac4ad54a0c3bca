package usecase

import (
	"context"

	"pahm/internal/modules/practice/domain"
	"pahm/internal/modules/practice/dto"
	apperrors "pahm/internal/platform/errors"
)

type nopRecovery struct{}

func (nopRecovery) Save(context.Context, domain.RecoverySnapshot) error { return nil }
func (nopRecovery) Load(context.Context) (domain.RecoverySnapshot, error) {
	return domain.RecoverySnapshot{}, apperrors.ErrNoRecoverySnapshot
}
func (nopRecovery) Clear(context.Context) error { return nil }

type nopRecorder struct{}

func (nopRecorder) RecordCompletedSession(context.Context, domain.CompletedSession) error {
	return nil
}

type nopWakeGuard struct{}

func (*nopWakeGuard) Acquire(context.Context) bool { return false }
func (*nopWakeGuard) Release()                     {}
func (*nopWakeGuard) IsHeld() bool                 { return false }
func (*nopWakeGuard) OnRevoked(func())             {}

type nopSignaler struct{}

func (nopSignaler) RequestPermission(context.Context) bool { return false }
func (nopSignaler) Granted() bool                          { return false }
func (nopSignaler) PlayTapCue()                            {}
func (nopSignaler) PlayCompletionCue()                     {}
func (nopSignaler) Close()                                 {}

type nopMetrics struct{}

func (nopMetrics) ExportSession(context.Context, domain.CompletedSession) error { return nil }
func (nopMetrics) Close(context.Context) error                                  { return nil }

type nopListener struct{}

func (nopListener) TimerTicked(int)                       {}
func (nopListener) StateChanged(string, string)           {}
func (nopListener) RecoveryOffered(dto.RecoveryOutput)    {}
func (nopListener) WakeLockRevoked()                      {}
func (nopListener) SessionCompleted(dto.CompletedOutput)  {}
func (nopListener) ReflectionRequested(dto.HandoffOutput) {}
