package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	journalout "pahm/internal/modules/journal/adapter/out"
	"pahm/internal/modules/journal/domain"
)

func sampleRecord(id string, at time.Time) domain.SessionRecord {
	return domain.SessionRecord{
		ID:                    id,
		Timestamp:             at,
		StartedAt:             at.Add(-30 * time.Minute),
		ActualDurationSeconds: 1800,
		StageID:               2,
		Posture:               "Half Lotus",
		IsFullyCompleted:      true,
		PresentPercentage:     83,
		QualityScore:          8.5,
		Tally:                 map[string]int{"present": 10, "past": 2},
		Note:                  "steady breath",
		EndReason:             "expired",
	}
}

func TestVaultNoteStoreSessionRoundTrip(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	store := journalout.NewVaultNoteStore(vault)
	at := time.Date(2026, 3, 1, 7, 30, 15, 0, time.UTC)

	path, err := store.SaveSession(context.Background(), sampleRecord("s-1", at))
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	want := filepath.Join(vault, "practice", "2026", "03", "01", "073015-stage-2-half-lotus.md")
	if path != want {
		t.Fatalf("expected note at %s, got %s", want, path)
	}

	records, err := store.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one session, got %d", len(records))
	}
	got := records[0]
	if got.ID != "s-1" || got.Note != "steady breath" || got.Tally["present"] != 10 || !got.Timestamp.Equal(at) {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	if got.NotePath != path {
		t.Fatalf("expected note path %s, got %s", path, got.NotePath)
	}
}

func TestVaultNoteStoreSameSecondDoesNotOverwrite(t *testing.T) {
	t.Parallel()
	store := journalout.NewVaultNoteStore(t.TempDir())
	at := time.Date(2026, 3, 1, 7, 30, 15, 0, time.UTC)
	first, err := store.SaveSession(context.Background(), sampleRecord("aaaaaaaa-1", at))
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := store.SaveSession(context.Background(), sampleRecord("bbbbbbbb-2", at))
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if first == second {
		t.Fatalf("second session overwrote the first note")
	}
	records, _ := store.ListSessions(context.Background())
	if len(records) != 2 {
		t.Fatalf("expected two sessions, got %d", len(records))
	}
}

func TestVaultNoteStoreReflections(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	store := journalout.NewVaultNoteStore(vault)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	path, err := store.SaveReflection(context.Background(), domain.Reflection{ID: "r-1", SessionID: "s-1", Emotion: "calm", Note: "quiet mind", RecordedAt: at})
	if err != nil {
		t.Fatalf("save reflection: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join("journal", "2026", "03", "01", "080000-calm.md")) {
		t.Fatalf("unexpected reflection path %s", path)
	}
	reflections, err := store.ListReflections(context.Background())
	if err != nil {
		t.Fatalf("list reflections: %v", err)
	}
	if len(reflections) != 1 || reflections[0].Note != "quiet mind" || reflections[0].SessionID != "s-1" {
		t.Fatalf("unexpected reflections %+v", reflections)
	}
}

func TestVaultNoteStoreLogKeepsHandWrittenText(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	store := journalout.NewVaultNoteStore(vault)
	logPath := filepath.Join(vault, "practice", "log.md")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manual := "# My practice\n\nIntentions for this month.\n"
	if err := os.WriteFile(logPath, []byte(manual), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	at := time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)
	record := sampleRecord("s-1", at)
	record.NotePath = filepath.Join(vault, "practice", "2026", "03", "01", "073000-stage-2-half-lotus.md")
	for i := 0; i < 2; i++ {
		if err := store.WriteLog(context.Background(), []domain.SessionRecord{record}); err != nil {
			t.Fatalf("write log: %v", err)
		}
	}
	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, manual) {
		t.Fatalf("hand-written text lost:\n%s", content)
	}
	if strings.Count(content, domain.LogStart) != 1 {
		t.Fatalf("expected one generated block:\n%s", content)
	}
	if !strings.Contains(content, "[[practice/2026/03/01/073000-stage-2-half-lotus]]") {
		t.Fatalf("expected wikilink to session note:\n%s", content)
	}
}

func TestVaultNoteStoreSkipsForeignNotes(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	dir := filepath.Join(vault, "practice", "ideas")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "retreat.md"), []byte("---\ntitle: retreat\n---\nplans\n"), 0o644); err != nil {
		t.Fatalf("write note: %v", err)
	}
	records, err := journalout.NewVaultNoteStore(vault).ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("foreign notes must be ignored, got %d", len(records))
	}
}
