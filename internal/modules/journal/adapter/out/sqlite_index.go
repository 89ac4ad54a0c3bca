package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pahm/internal/modules/journal/domain"
	apperrors "pahm/internal/platform/errors"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

type SQLiteIndex struct {
	db *sql.DB
}

func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	index := &SQLiteIndex{db: db}
	if err := index.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return index, nil
}

var journalSchema = []string{`
CREATE TABLE IF NOT EXISTS practice_sessions (
  id TEXT PRIMARY KEY,
  timestamp TEXT NOT NULL,
  started_at TEXT NOT NULL,
  stage_id INTEGER NOT NULL,
  posture TEXT NOT NULL,
  actual_duration_seconds INTEGER NOT NULL,
  is_fully_completed INTEGER NOT NULL,
  end_reason TEXT,
  present_percentage INTEGER NOT NULL,
  quality_score REAL NOT NULL,
  tally_json TEXT NOT NULL,
  note TEXT,
  note_path TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS practice_sessions_timestamp ON practice_sessions(timestamp)`,
	`
CREATE TABLE IF NOT EXISTS reflections (
  id TEXT PRIMARY KEY,
  session_id TEXT,
  emotion TEXT NOT NULL,
  note TEXT NOT NULL,
  recorded_at TEXT NOT NULL,
  note_path TEXT NOT NULL
)`,
}

func (s *SQLiteIndex) ensureSchema(ctx context.Context) error {
	for _, ddl := range journalSchema {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create journal tables: %w", err)
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func (s *SQLiteIndex) Reset(ctx context.Context) error {
	for _, table := range []string{"practice_sessions", "reflections"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLiteIndex) UpsertSession(ctx context.Context, r domain.SessionRecord) error {
	const stmt = `
INSERT INTO practice_sessions (id, timestamp, started_at, stage_id, posture, actual_duration_seconds, is_fully_completed, end_reason, present_percentage, quality_score, tally_json, note, note_path)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  timestamp=excluded.timestamp,
  started_at=excluded.started_at,
  stage_id=excluded.stage_id,
  posture=excluded.posture,
  actual_duration_seconds=excluded.actual_duration_seconds,
  is_fully_completed=excluded.is_fully_completed,
  end_reason=excluded.end_reason,
  present_percentage=excluded.present_percentage,
  quality_score=excluded.quality_score,
  tally_json=excluded.tally_json,
  note=excluded.note,
  note_path=excluded.note_path;
`
	tally, err := json.Marshal(r.Tally)
	if err != nil {
		return fmt.Errorf("encode tally: %w", err)
	}
	started := ""
	if !r.StartedAt.IsZero() {
		started = r.StartedAt.UTC().Format(timeLayout)
	}
	_, err = s.db.ExecContext(ctx, stmt,
		r.ID,
		r.Timestamp.UTC().Format(timeLayout),
		started,
		r.StageID,
		r.Posture,
		r.ActualDurationSeconds,
		r.IsFullyCompleted,
		r.EndReason,
		r.PresentPercentage,
		r.QualityScore,
		string(tally),
		r.Note,
		r.NotePath,
	)
	if err != nil {
		return fmt.Errorf("upsert practice session: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) UpsertReflection(ctx context.Context, r domain.Reflection) error {
	const stmt = `
INSERT INTO reflections (id, session_id, emotion, note, recorded_at, note_path)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  session_id=excluded.session_id,
  emotion=excluded.emotion,
  note=excluded.note,
  recorded_at=excluded.recorded_at,
  note_path=excluded.note_path;
`
	_, err := s.db.ExecContext(ctx, stmt, r.ID, r.SessionID, r.Emotion, r.Note, r.RecordedAt.UTC().Format(timeLayout), r.NotePath)
	if err != nil {
		return fmt.Errorf("upsert reflection: %w", err)
	}
	return nil
}

const sessionColumns = `id, timestamp, started_at, stage_id, posture, actual_duration_seconds, is_fully_completed, end_reason, present_percentage, quality_score, tally_json, note, note_path`

func (s *SQLiteIndex) RecentSessions(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM practice_sessions ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query practice sessions: %w", err)
	}
	defer rows.Close()
	var out []domain.SessionRecord
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate practice sessions: %w", err)
	}
	return out, nil
}

func (s *SQLiteIndex) FindSession(ctx context.Context, id string) (domain.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM practice_sessions WHERE id = ?`, id)
	r, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionRecord{}, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
	}
	return r, err
}

func (s *SQLiteIndex) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{PerStage: map[int]int{}}
	row := s.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(is_fully_completed), 0),
       COALESCE(SUM(actual_duration_seconds), 0),
       COALESCE(AVG(quality_score), 0),
       COALESCE(AVG(present_percentage), 0)
FROM practice_sessions`)
	if err := row.Scan(&stats.Sessions, &stats.FullyCompleted, &stats.TotalSeconds, &stats.AverageQuality, &stats.AveragePresent); err != nil {
		return domain.Stats{}, fmt.Errorf("aggregate practice sessions: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT stage_id, COUNT(*) FROM practice_sessions GROUP BY stage_id`)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count sessions per stage: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var stage, n int
		if err := rows.Scan(&stage, &n); err != nil {
			return domain.Stats{}, fmt.Errorf("scan stage count: %w", err)
		}
		stats.PerStage[stage] = n
	}
	return stats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (domain.SessionRecord, error) {
	var (
		r                  domain.SessionRecord
		ts, started, tally string
		endReason, note    sql.NullString
	)
	err := row.Scan(&r.ID, &ts, &started, &r.StageID, &r.Posture, &r.ActualDurationSeconds, &r.IsFullyCompleted,
		&endReason, &r.PresentPercentage, &r.QualityScore, &tally, &note, &r.NotePath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SessionRecord{}, err
		}
		return domain.SessionRecord{}, fmt.Errorf("scan practice session: %w", err)
	}
	r.Timestamp, _ = time.Parse(timeLayout, ts)
	r.StartedAt, _ = time.Parse(timeLayout, started)
	r.EndReason = endReason.String
	r.Note = note.String
	if err := json.Unmarshal([]byte(tally), &r.Tally); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("decode tally for %s: %w", r.ID, err)
	}
	return r, nil
}
