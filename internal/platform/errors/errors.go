package apperrors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrUnknownStage         = errors.New("unknown stage")
	ErrDurationBelowMinimum = errors.New("duration below stage minimum")
	ErrInvalidTransition    = errors.New("invalid session transition")
	ErrSessionClosed        = errors.New("session closed")
	ErrNoRecoverySnapshot   = errors.New("no recovery snapshot")
	ErrNoPendingRecovery    = errors.New("no pending recovery offer")
	ErrCapabilityMissing    = errors.New("no provider for capability")
)
