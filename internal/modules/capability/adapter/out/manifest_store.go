package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pahm/internal/modules/capability/domain"
	capabilityout "pahm/internal/modules/capability/port/out"
	apperrors "pahm/internal/platform/errors"
)

// FileManifestStore reads <vault>/plugins/capabilities.json. Relative
// binaries resolve against the vault root. Capability names are matched
// case-insensitively, and an entry that offers nothing is rejected with
// the whole file.
type FileManifestStore struct {
	basePath string
	path     string
}

func NewFileManifestStore(basePath string) capabilityout.ManifestStore {
	return &FileManifestStore{basePath: basePath, path: filepath.Join(basePath, "plugins", "capabilities.json")}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read capability manifests: %w", err)
	}
	var manifests []domain.Manifest
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode capability manifests: %w", err)
	}
	for i := range manifests {
		m := &manifests[i]
		if len(m.Capabilities) == 0 {
			return nil, fmt.Errorf("%w: capability manifest %d (%q) offers no capabilities", apperrors.ErrInvalidInput, i, m.Name)
		}
		for j, c := range m.Capabilities {
			m.Capabilities[j] = domain.Capability(strings.ToLower(strings.TrimSpace(string(c))))
		}
		if bin := m.Binary; bin != "" && !filepath.IsAbs(bin) {
			m.Binary = filepath.Clean(filepath.Join(s.basePath, bin))
		}
	}
	return manifests, nil
}
