package out

import (
	"context"

	"pahm/internal/modules/journal/domain"
)

// NoteStore is the vault: the source of truth for sessions and reflections.
type NoteStore interface {
	SaveSession(ctx context.Context, record domain.SessionRecord) (string, error)
	ListSessions(ctx context.Context) ([]domain.SessionRecord, error)
	SaveReflection(ctx context.Context, reflection domain.Reflection) (string, error)
	ListReflections(ctx context.Context) ([]domain.Reflection, error)
	WriteLog(ctx context.Context, recent []domain.SessionRecord) error
}

// Index is a rebuildable query projection of the vault.
type Index interface {
	Reset(ctx context.Context) error
	UpsertSession(ctx context.Context, record domain.SessionRecord) error
	UpsertReflection(ctx context.Context, reflection domain.Reflection) error
	RecentSessions(ctx context.Context, limit int) ([]domain.SessionRecord, error)
	FindSession(ctx context.Context, id string) (domain.SessionRecord, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Mirror copies completed sessions to a remote backend.
type Mirror interface {
	MirrorSession(ctx context.Context, record domain.SessionRecord) error
	Close()
}
