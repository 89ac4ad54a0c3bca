package out

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/jackc/pgx/v5/pgxpool"

	"pahm/internal/modules/journal/domain"
	journalout "pahm/internal/modules/journal/port/out"
)

const (
	mirrorMaxElapsed  = 30 * time.Second
	mirrorInitialWait = 500 * time.Millisecond
)

const mirrorDDL = `
CREATE TABLE IF NOT EXISTS pahm_practice_sessions (
  id TEXT PRIMARY KEY,
  recorded_at TIMESTAMPTZ NOT NULL,
  started_at TIMESTAMPTZ,
  stage_id INTEGER NOT NULL,
  posture TEXT NOT NULL,
  actual_duration_seconds INTEGER NOT NULL,
  is_fully_completed BOOLEAN NOT NULL,
  end_reason TEXT,
  present_percentage INTEGER NOT NULL,
  quality_score DOUBLE PRECISION NOT NULL,
  tally JSONB NOT NULL
)`

const mirrorUpsert = `
INSERT INTO pahm_practice_sessions (id, recorded_at, started_at, stage_id, posture, actual_duration_seconds, is_fully_completed, end_reason, present_percentage, quality_score, tally)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
  recorded_at = EXCLUDED.recorded_at,
  started_at = EXCLUDED.started_at,
  stage_id = EXCLUDED.stage_id,
  posture = EXCLUDED.posture,
  actual_duration_seconds = EXCLUDED.actual_duration_seconds,
  is_fully_completed = EXCLUDED.is_fully_completed,
  end_reason = EXCLUDED.end_reason,
  present_percentage = EXCLUDED.present_percentage,
  quality_score = EXCLUDED.quality_score,
  tally = EXCLUDED.tally`

// PostgresMirror copies completed sessions into a shared Postgres table.
// Every write retries with bounded exponential backoff.
type PostgresMirror struct {
	pool       *pgxpool.Pool
	log        hclog.Logger
	maxElapsed time.Duration
}

func NewPostgresMirror(ctx context.Context, dsn string, logger hclog.Logger) (journalout.Mirror, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	m := &PostgresMirror{pool: pool, log: logger.Named("mirror"), maxElapsed: mirrorMaxElapsed}
	if err := m.retry(ctx, "ensure schema", func(ctx context.Context) error {
		_, err := pool.Exec(ctx, mirrorDDL)
		return err
	}); err != nil {
		pool.Close()
		return nil, err
	}
	return m, nil
}

func (m *PostgresMirror) MirrorSession(ctx context.Context, r domain.SessionRecord) error {
	tally, err := json.Marshal(r.Tally)
	if err != nil {
		return fmt.Errorf("encode tally: %w", err)
	}
	var started *time.Time
	if !r.StartedAt.IsZero() {
		t := r.StartedAt.UTC()
		started = &t
	}
	return m.retry(ctx, "upsert session", func(ctx context.Context) error {
		_, err := m.pool.Exec(ctx, mirrorUpsert,
			r.ID, r.Timestamp.UTC(), started, r.StageID, r.Posture, r.ActualDurationSeconds,
			r.IsFullyCompleted, r.EndReason, r.PresentPercentage, r.QualityScore, string(tally))
		return err
	})
}

func (m *PostgresMirror) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = mirrorInitialWait
	policy.MaxElapsedTime = m.maxElapsed
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn(ctx)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("postgres mirror %s after %d attempts: %w", op, attempt, err)
	}
	if attempt > 1 {
		m.log.Debug("mirror write succeeded after retry", "op", op, "attempts", attempt)
	}
	return nil
}

func (m *PostgresMirror) Close() {
	m.pool.Close()
}

// NoopMirror is used when no remote backend is configured.
type NoopMirror struct{}

func NewNoopMirror() journalout.Mirror {
	return NoopMirror{}
}

func (NoopMirror) MirrorSession(context.Context, domain.SessionRecord) error { return nil }
func (NoopMirror) Close()                                                    {}
