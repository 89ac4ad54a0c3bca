package out

import (
	"context"

	"pahm/internal/modules/practice/domain"
)

// RecoveryStore is a single overwrite-on-save slot. Load returns
// apperrors.ErrNoRecoverySnapshot when the slot is empty.
type RecoveryStore interface {
	Save(ctx context.Context, snapshot domain.RecoverySnapshot) error
	Load(ctx context.Context) (domain.RecoverySnapshot, error)
	Clear(ctx context.Context) error
}

type SessionRecorder interface {
	RecordCompletedSession(ctx context.Context, session domain.CompletedSession) error
}

type ReflectionRecorder interface {
	RecordReflectionNote(ctx context.Context, sessionID, note, emotion string) error
}

// WakeGuard keeps the display awake on a best-effort basis. Acquire never
// fails loudly: false means unsupported or denied. Release is idempotent.
type WakeGuard interface {
	Acquire(ctx context.Context) bool
	Release()
	IsHeld() bool
	OnRevoked(fn func())
}

// Signaler plays audio cues once permission was granted. Playback errors
// are logged by the implementation and never returned.
type Signaler interface {
	RequestPermission(ctx context.Context) bool
	Granted() bool
	PlayTapCue()
	PlayCompletionCue()
	Close()
}

type MetricsExporter interface {
	ExportSession(ctx context.Context, session domain.CompletedSession) error
	Close(ctx context.Context) error
}
