package out

import (
	"context"

	"pahm/internal/modules/capability/domain"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

type Host interface {
	CheckLifecycle(ctx context.Context, manifest domain.Manifest) error
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	Open(ctx context.Context, manifest domain.Manifest) (Connection, error)
}

// Connection is a running provider process. Close kills it and is idempotent.
type Connection interface {
	AcquireWake(ctx context.Context, reason string) error
	ReleaseWake(ctx context.Context) error
	WakeHeld(ctx context.Context) (bool, error)
	PlayCue(ctx context.Context, cue domain.Cue) error
	Exited() bool
	Close()
}
