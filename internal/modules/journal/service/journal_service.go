package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"pahm/internal/modules/journal/domain"
	journalout "pahm/internal/modules/journal/port/out"
	"pahm/internal/platform/clock"
	apperrors "pahm/internal/platform/errors"
	"pahm/internal/platform/id"
	"pahm/internal/platform/slug"
)

const (
	defaultListLimit = 20
	mirrorTimeout    = 5 * time.Second
)

type JournalService struct {
	clock  clock.Clock
	idGen  id.Generator
	notes  journalout.NoteStore
	index  journalout.Index
	mirror journalout.Mirror
	log    hclog.Logger
}

func NewJournalService(clock clock.Clock, idGen id.Generator, notes journalout.NoteStore, index journalout.Index, mirror journalout.Mirror, logger hclog.Logger) *JournalService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &JournalService{clock: clock, idGen: idGen, notes: notes, index: index, mirror: mirror, log: logger.Named("journal")}
}

// RecordSession writes the session note, indexes it and refreshes the
// practice log. The remote mirror is best effort.
func (s *JournalService) RecordSession(ctx context.Context, record domain.SessionRecord) (domain.SessionRecord, error) {
	if err := record.Validate(); err != nil {
		return domain.SessionRecord{}, err
	}
	path, err := s.notes.SaveSession(ctx, record)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	record.NotePath = path
	if err := s.index.UpsertSession(ctx, record); err != nil {
		return domain.SessionRecord{}, err
	}
	if err := s.refreshLog(ctx); err != nil {
		s.log.Warn("refresh practice log failed", "error", err)
	}
	s.mirrorSession(ctx, record)
	s.log.Info("session recorded", "session_id", record.ID, "stage", record.StageID, "note", path)
	return record, nil
}

// mirrorSession stays inside the caller's deadline so a shutdown waiting
// on RecordSession is never held up by an unreachable mirror.
func (s *JournalService) mirrorSession(ctx context.Context, record domain.SessionRecord) {
	if s.mirror == nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()
	if err := s.mirror.MirrorSession(mctx, record); err != nil {
		s.log.Warn("mirror session failed", "session_id", record.ID, "error", err)
	}
}

func (s *JournalService) RecordReflection(ctx context.Context, sessionID, note, emotion string) (domain.Reflection, error) {
	reflection := domain.Reflection{
		ID:         s.idGen.New(),
		SessionID:  strings.TrimSpace(sessionID),
		Emotion:    slug.Make(emotion, "unspecified"),
		Note:       strings.TrimSpace(note),
		RecordedAt: s.clock.Now(),
	}
	if err := reflection.Validate(); err != nil {
		return domain.Reflection{}, err
	}
	path, err := s.notes.SaveReflection(ctx, reflection)
	if err != nil {
		return domain.Reflection{}, err
	}
	reflection.NotePath = path
	if err := s.index.UpsertReflection(ctx, reflection); err != nil {
		return domain.Reflection{}, err
	}
	return reflection, nil
}

func (s *JournalService) ListSessions(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.index.RecentSessions(ctx, limit)
}

func (s *JournalService) GetSession(ctx context.Context, id string) (domain.SessionRecord, error) {
	if strings.TrimSpace(id) == "" {
		return domain.SessionRecord{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	return s.index.FindSession(ctx, id)
}

func (s *JournalService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.index.Stats(ctx)
}

// Reindex rebuilds the index from the vault notes.
func (s *JournalService) Reindex(ctx context.Context) (int, int, error) {
	sessions, err := s.notes.ListSessions(ctx)
	if err != nil {
		return 0, 0, err
	}
	reflections, err := s.notes.ListReflections(ctx)
	if err != nil {
		return 0, 0, err
	}
	if err := s.index.Reset(ctx); err != nil {
		return 0, 0, err
	}
	for _, record := range sessions {
		if err := s.index.UpsertSession(ctx, record); err != nil {
			return 0, 0, err
		}
	}
	for _, reflection := range reflections {
		if err := s.index.UpsertReflection(ctx, reflection); err != nil {
			return 0, 0, err
		}
	}
	if err := s.refreshLog(ctx); err != nil {
		return 0, 0, err
	}
	s.log.Info("index rebuilt", "sessions", len(sessions), "reflections", len(reflections))
	return len(sessions), len(reflections), nil
}

func (s *JournalService) refreshLog(ctx context.Context) error {
	recent, err := s.index.RecentSessions(ctx, domain.RecentLogSize)
	if err != nil {
		return err
	}
	return s.notes.WriteLog(ctx, recent)
}
