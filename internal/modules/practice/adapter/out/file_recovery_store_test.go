package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	practiceout "pahm/internal/modules/practice/adapter/out"
	"pahm/internal/modules/practice/domain"
	apperrors "pahm/internal/platform/errors"
)

func snapshot(id string) domain.RecoverySnapshot {
	var tally domain.Tally
	tally.Increment(domain.PresentNeutral)
	tally.Increment(domain.PastAttachment)
	return domain.RecoverySnapshot{
		SchemaVersion:    domain.SnapshotSchemaVersion,
		SessionID:        id,
		Parameters:       domain.Parameters{StageID: 2, DurationSeconds: 1200, Posture: "seated"},
		StartedAt:        time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC),
		RemainingSeconds: 900,
		ElapsedSeconds:   300,
		Tally:            tally,
		SnapshotAt:       time.Date(2026, 3, 1, 7, 5, 0, 0, time.UTC),
	}
}

func TestFileRecoveryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	store := practiceout.NewFileRecoveryStore(vault)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, apperrors.ErrNoRecoverySnapshot) {
		t.Fatalf("expected empty slot, got %v", err)
	}
	if err := store.Save(ctx, snapshot("first")); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.Save(ctx, snapshot("second")); err != nil {
		t.Fatalf("save second: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.SessionID != "second" {
		t.Fatalf("slot must hold only the latest snapshot, got %s", got.SessionID)
	}
	if got.Tally.Count(domain.PresentNeutral) != 1 || got.Tally.Total() != 2 {
		t.Fatalf("tally lost in round trip: %+v", got.Tally.Keys())
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("loaded snapshot invalid: %v", err)
	}
	if _, err := os.Stat(filepath.Join(vault, ".pahm", "recovery.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, apperrors.ErrNoRecoverySnapshot) {
		t.Fatalf("expected empty slot after clear, got %v", err)
	}
}

func TestFileRecoveryStoreCorruptSlot(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	path := filepath.Join(vault, ".pahm", "recovery.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := practiceout.NewFileRecoveryStore(vault).Load(context.Background())
	if err == nil || errors.Is(err, apperrors.ErrNoRecoverySnapshot) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
