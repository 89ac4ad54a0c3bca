package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pahm/internal/modules/practice/domain"
	practiceout "pahm/internal/modules/practice/port/out"
	apperrors "pahm/internal/platform/errors"
)

// FileRecoveryStore keeps the recovery slot as one JSON file in the vault
// state directory.
type FileRecoveryStore struct {
	path string
}

func NewFileRecoveryStore(vaultPath string) practiceout.RecoveryStore {
	return &FileRecoveryStore{path: filepath.Join(vaultPath, ".pahm", "recovery.json")}
}

// Save replaces the slot through a rename, so a crash mid-write leaves the
// previous snapshot intact.
func (s *FileRecoveryStore) Save(_ context.Context, snapshot domain.RecoverySnapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create recovery dir: %w", err)
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recovery snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write recovery snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace recovery snapshot: %w", err)
	}
	return nil
}

func (s *FileRecoveryStore) Load(_ context.Context) (domain.RecoverySnapshot, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RecoverySnapshot{}, apperrors.ErrNoRecoverySnapshot
		}
		return domain.RecoverySnapshot{}, fmt.Errorf("read recovery snapshot: %w", err)
	}
	snapshot := domain.RecoverySnapshot{}
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.RecoverySnapshot{}, fmt.Errorf("decode recovery snapshot: %w", err)
	}
	if snapshot.SessionID == "" {
		return domain.RecoverySnapshot{}, apperrors.ErrNoRecoverySnapshot
	}
	return snapshot, nil
}

func (s *FileRecoveryStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear recovery snapshot: %w", err)
	}
	return nil
}
