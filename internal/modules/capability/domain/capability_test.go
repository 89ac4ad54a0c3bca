package domain_test

import (
	"strings"
	"testing"

	"pahm/internal/modules/capability/domain"
)

func TestManifestValidate(t *testing.T) {
	t.Parallel()
	sha := strings.Repeat("a", 64)
	valid := domain.Manifest{Name: "hostcaps", Version: "1", Binary: "/tmp/p", SHA256: sha, Enabled: true, Capabilities: []domain.Capability{domain.CapabilityWakeLock, domain.CapabilityAudioCue}}
	cases := []struct {
		name      string
		mutate    func(m *domain.Manifest)
		shouldErr bool
	}{
		{name: "valid", mutate: func(*domain.Manifest) {}},
		{name: "missing name", mutate: func(m *domain.Manifest) { m.Name = "" }, shouldErr: true},
		{name: "missing version", mutate: func(m *domain.Manifest) { m.Version = "" }, shouldErr: true},
		{name: "missing binary", mutate: func(m *domain.Manifest) { m.Binary = "" }, shouldErr: true},
		{name: "uppercase sha", mutate: func(m *domain.Manifest) { m.SHA256 = strings.Repeat("A", 64) }, shouldErr: true},
		{name: "no capabilities", mutate: func(m *domain.Manifest) { m.Capabilities = nil }, shouldErr: true},
		{name: "unknown capability", mutate: func(m *domain.Manifest) { m.Capabilities = []domain.Capability{"vibrate"} }, shouldErr: true},
		{name: "duplicate capability", mutate: func(m *domain.Manifest) {
			m.Capabilities = []domain.Capability{domain.CapabilityAudioCue, domain.CapabilityAudioCue}
		}, shouldErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := valid
			m.Capabilities = append([]domain.Capability(nil), valid.Capabilities...)
			tc.mutate(&m)
			err := m.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestCueAndMetadata(t *testing.T) {
	t.Parallel()
	if err := domain.CueTap.Validate(); err != nil {
		t.Fatalf("tap cue: %v", err)
	}
	if err := domain.Cue("gong").Validate(); err == nil {
		t.Fatalf("unknown cue must fail")
	}
	meta := domain.Metadata{Capabilities: []domain.Capability{domain.CapabilityAudioCue}}
	if !meta.Supports(domain.CapabilityAudioCue) || meta.Supports(domain.CapabilityWakeLock) {
		t.Fatalf("unexpected supports result")
	}
}
