package in

import (
	"context"

	"pahm/internal/modules/capability/dto"
)

// WakeLease holds the display awake until released. Revoked is closed when
// the host takes the lock away or the provider dies.
type WakeLease interface {
	Release(ctx context.Context) error
	Revoked() <-chan struct{}
}

// CueChannel keeps an audio provider open for the length of a session.
type CueChannel interface {
	Play(ctx context.Context, cue string) error
	Close()
}

type Usecase interface {
	List(ctx context.Context) ([]dto.ProviderInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	AcquireWake(ctx context.Context, reason string) (WakeLease, error)
	OpenCues(ctx context.Context) (CueChannel, error)
}
