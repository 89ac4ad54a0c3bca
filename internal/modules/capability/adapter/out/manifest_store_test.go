package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	capabilityout "pahm/internal/modules/capability/adapter/out"
	"pahm/internal/modules/capability/domain"
	apperrors "pahm/internal/platform/errors"
)

func writeManifests(t *testing.T, base, raw string) {
	t.Helper()
	dir := filepath.Join(base, "plugins")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir plugins: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "capabilities.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write capabilities.json: %v", err)
	}
}

func TestFileManifestStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	manifests, err := capabilityout.NewFileManifestStore(t.TempDir()).Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 0 {
		t.Fatalf("expected no manifests, got %d", len(manifests))
	}
}

func TestFileManifestStoreResolvesRelativeBinary(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeManifests(t, base, `[
  {
    "name": "hostcaps",
    "version": "1.0.0",
    "binary": "plugins/hostcaps/hostcaps",
    "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "enabled": true,
    "capabilities": ["wake_lock", "audio_cue"]
  }
]`)
	manifests, err := capabilityout.NewFileManifestStore(base).Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 1 {
		t.Fatalf("expected one manifest, got %d", len(manifests))
	}
	want := filepath.Join(base, "plugins", "hostcaps", "hostcaps")
	if manifests[0].Binary != want {
		t.Fatalf("expected %s, got %s", want, manifests[0].Binary)
	}
}

func TestFileManifestStoreRejectsUnknownField(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeManifests(t, base, `[{"name": "hostcaps", "version": "1", "binary": "/x", "sha256": "", "enabled": true, "capabilities": [], "autostart": true}]`)
	if _, err := capabilityout.NewFileManifestStore(base).Load(context.Background()); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestFileManifestStoreRejectsProviderWithoutCapabilities(t *testing.T) {
	t.Parallel()
	for name, raw := range map[string]string{
		"empty list":  `[{"name": "hostcaps", "version": "1", "binary": "/x", "sha256": "", "enabled": true, "capabilities": []}]`,
		"missing key": `[{"name": "hostcaps", "version": "1", "binary": "/x", "sha256": "", "enabled": true}]`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			base := t.TempDir()
			writeManifests(t, base, raw)
			_, err := capabilityout.NewFileManifestStore(base).Load(context.Background())
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestFileManifestStoreNormalizesCapabilityNames(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeManifests(t, base, `[{"name": "hostcaps", "version": "1", "binary": "/x", "sha256": "", "enabled": true, "capabilities": [" Wake_Lock", "AUDIO_CUE "]}]`)
	manifests, err := capabilityout.NewFileManifestStore(base).Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if !manifests[0].HasCapability(domain.CapabilityWakeLock) || !manifests[0].HasCapability(domain.CapabilityAudioCue) {
		t.Fatalf("expected normalized capabilities, got %v", manifests[0].Capabilities)
	}
}
