package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pahm/internal/modules/journal/domain"
	journalout "pahm/internal/modules/journal/port/out"
	"pahm/internal/platform/markdown"
	"pahm/internal/platform/slug"
)

const (
	kindSession    = "practice_session"
	kindReflection = "reflection"
	noteHeading    = "\n## Note\n\n"
)

var logBlock = markdown.Block{Start: domain.LogStart, End: domain.LogEnd}

type sessionFrontmatter struct {
	SchemaVersion         int            `yaml:"schema_version"`
	Kind                  string         `yaml:"kind"`
	ID                    string         `yaml:"id"`
	Timestamp             string         `yaml:"timestamp"`
	StartedAt             string         `yaml:"started_at,omitempty"`
	StageID               int            `yaml:"stage_id"`
	Posture               string         `yaml:"posture"`
	ActualDurationSeconds int            `yaml:"actual_duration_seconds"`
	IsFullyCompleted      bool           `yaml:"is_fully_completed"`
	EndReason             string         `yaml:"end_reason"`
	PresentPercentage     int            `yaml:"present_percentage"`
	QualityScore          float64        `yaml:"quality_score"`
	Tally                 map[string]int `yaml:"tally"`
}

type reflectionFrontmatter struct {
	SchemaVersion int    `yaml:"schema_version"`
	Kind          string `yaml:"kind"`
	ID            string `yaml:"id"`
	SessionID     string `yaml:"session_id,omitempty"`
	Emotion       string `yaml:"emotion"`
	RecordedAt    string `yaml:"recorded_at"`
}

// VaultNoteStore keeps sessions under practice/ and reflections under
// journal/, one markdown note each.
type VaultNoteStore struct {
	vaultPath string
}

func NewVaultNoteStore(vaultPath string) journalout.NoteStore {
	return &VaultNoteStore{vaultPath: vaultPath}
}

func (s *VaultNoteStore) SaveSession(_ context.Context, record domain.SessionRecord) (string, error) {
	ts := record.Timestamp.UTC()
	dir := filepath.Join(s.vaultPath, "practice", ts.Format("2006"), ts.Format("01"), ts.Format("02"))
	base := fmt.Sprintf("%s-stage-%d-%s", ts.Format("150405"), record.StageID, slug.Make(record.Posture, "practice"))
	path, err := notePath(dir, base, record.ID)
	if err != nil {
		return "", err
	}
	meta := sessionFrontmatter{
		SchemaVersion:         domain.SchemaVersion,
		Kind:                  kindSession,
		ID:                    record.ID,
		Timestamp:             ts.Format(time.RFC3339),
		StageID:               record.StageID,
		Posture:               record.Posture,
		ActualDurationSeconds: record.ActualDurationSeconds,
		IsFullyCompleted:      record.IsFullyCompleted,
		EndReason:             record.EndReason,
		PresentPercentage:     record.PresentPercentage,
		QualityScore:          record.QualityScore,
		Tally:                 record.Tally,
	}
	if !record.StartedAt.IsZero() {
		meta.StartedAt = record.StartedAt.UTC().Format(time.RFC3339)
	}
	rendered, err := markdown.Render(meta, sessionBody(record))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session note: %w", err)
	}
	return path, nil
}

func sessionBody(r domain.SessionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Practice %s\n\n", r.Timestamp.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- Stage: %d\n- Posture: %s\n- Duration: %s\n", r.StageID, r.Posture, formatDuration(r.ActualDurationSeconds))
	fmt.Fprintf(&b, "- Present: %d%%\n- Quality: %.1f\n", r.PresentPercentage, r.QualityScore)
	if r.IsFullyCompleted {
		b.WriteString("- Completed: full session\n")
	} else {
		b.WriteString("- Completed: ended early\n")
	}
	b.WriteString("\n## Tally\n\n")
	keys := make([]string, 0, len(r.Tally))
	for k := range r.Tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %d\n", k, r.Tally[k])
	}
	if note := strings.TrimSpace(r.Note); note != "" {
		b.WriteString(noteHeading)
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}

func (s *VaultNoteStore) ListSessions(_ context.Context) ([]domain.SessionRecord, error) {
	var out []domain.SessionRecord
	err := s.walkNotes("practice", func(path, content string) error {
		var meta sessionFrontmatter
		body, err := markdown.Split(content, &meta)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if meta.Kind != kindSession {
			return nil
		}
		ts, _ := time.Parse(time.RFC3339, meta.Timestamp)
		started, _ := time.Parse(time.RFC3339, meta.StartedAt)
		record := domain.SessionRecord{
			ID:                    meta.ID,
			Timestamp:             ts,
			StartedAt:             started,
			ActualDurationSeconds: meta.ActualDurationSeconds,
			StageID:               meta.StageID,
			Posture:               meta.Posture,
			IsFullyCompleted:      meta.IsFullyCompleted,
			PresentPercentage:     meta.PresentPercentage,
			QualityScore:          meta.QualityScore,
			Tally:                 meta.Tally,
			Note:                  noteSection(body),
			EndReason:             meta.EndReason,
			NotePath:              path,
		}
		if err := record.Validate(); err != nil {
			return fmt.Errorf("decode session %s: %w", path, err)
		}
		out = append(out, record)
		return nil
	})
	return out, err
}

func noteSection(body string) string {
	idx := strings.Index(body, noteHeading)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(body[idx+len(noteHeading):])
}

func (s *VaultNoteStore) SaveReflection(_ context.Context, reflection domain.Reflection) (string, error) {
	ts := reflection.RecordedAt.UTC()
	dir := filepath.Join(s.vaultPath, "journal", ts.Format("2006"), ts.Format("01"), ts.Format("02"))
	path, err := notePath(dir, ts.Format("150405")+"-"+slug.Make(reflection.Emotion, "reflection"), reflection.ID)
	if err != nil {
		return "", err
	}
	meta := reflectionFrontmatter{
		SchemaVersion: domain.SchemaVersion,
		Kind:          kindReflection,
		ID:            reflection.ID,
		SessionID:     reflection.SessionID,
		Emotion:       reflection.Emotion,
		RecordedAt:    ts.Format(time.RFC3339),
	}
	rendered, err := markdown.Render(meta, strings.TrimSpace(reflection.Note)+"\n")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write reflection note: %w", err)
	}
	return path, nil
}

func (s *VaultNoteStore) ListReflections(_ context.Context) ([]domain.Reflection, error) {
	var out []domain.Reflection
	err := s.walkNotes("journal", func(path, content string) error {
		var meta reflectionFrontmatter
		body, err := markdown.Split(content, &meta)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if meta.Kind != kindReflection {
			return nil
		}
		recorded, _ := time.Parse(time.RFC3339, meta.RecordedAt)
		reflection := domain.Reflection{
			ID:         meta.ID,
			SessionID:  meta.SessionID,
			Emotion:    meta.Emotion,
			Note:       strings.TrimSpace(body),
			RecordedAt: recorded,
			NotePath:   path,
		}
		if err := reflection.Validate(); err != nil {
			return fmt.Errorf("decode reflection %s: %w", path, err)
		}
		out = append(out, reflection)
		return nil
	})
	return out, err
}

// WriteLog rewrites only the generated block of practice/log.md.
func (s *VaultNoteStore) WriteLog(_ context.Context, recent []domain.SessionRecord) error {
	path := filepath.Join(s.vaultPath, "practice", "log.md")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create practice dir: %w", err)
	}
	body := "# Practice log\n"
	if existing, err := os.ReadFile(path); err == nil {
		body = string(existing)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read practice log: %w", err)
	}

	lines := make([]string, 0, len(recent))
	for _, r := range recent {
		link := r.NotePath
		if rel, err := filepath.Rel(s.vaultPath, r.NotePath); err == nil {
			link = strings.TrimSuffix(filepath.ToSlash(rel), ".md")
		}
		lines = append(lines, fmt.Sprintf("- %s · stage %d · %s · present %d%% · quality %.1f · [[%s]]",
			r.Timestamp.UTC().Format("2006-01-02 15:04"), r.StageID, formatDuration(r.ActualDurationSeconds),
			r.PresentPercentage, r.QualityScore, link))
	}
	if len(lines) == 0 {
		lines = append(lines, "_No sessions yet._")
	}
	body = logBlock.Replace(body, strings.Join(lines, "\n"))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write practice log: %w", err)
	}
	return nil
}

func (s *VaultNoteStore) walkNotes(dir string, visit func(path, content string) error) error {
	root := filepath.Join(s.vaultPath, dir)
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s notes: %w", dir, err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := visit(path, string(content)); err != nil {
			return err
		}
	}
	return nil
}

// notePath picks base.md, or base-<id prefix>.md when another note already
// took the name.
func notePath(dir, base, id string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create note dir: %w", err)
	}
	path := filepath.Join(dir, base+".md")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return path, nil
	}
	suffix := slug.Make(id, "dup")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return filepath.Join(dir, base+"-"+suffix+".md"), nil
}

func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}
