package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"pahm/internal/modules/capability/domain"
	"pahm/internal/modules/capability/dto"
	capabilityout "pahm/internal/modules/capability/port/out"
	"pahm/internal/platform/clock"
	apperrors "pahm/internal/platform/errors"
)

const DefaultPollInterval = 5 * time.Second

type CapabilityService struct {
	store        capabilityout.ManifestStore
	host         capabilityout.Host
	ticker       clock.Ticker
	pollInterval time.Duration
	log          hclog.Logger
}

func NewCapabilityService(store capabilityout.ManifestStore, host capabilityout.Host, ticker clock.Ticker, logger hclog.Logger) *CapabilityService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CapabilityService{
		store:        store,
		host:         host,
		ticker:       ticker,
		pollInterval: DefaultPollInterval,
		log:          logger.Named("capability"),
	}
}

func (s *CapabilityService) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProviderInfo, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, dto.ProviderInfo{
			Name:         m.Name,
			Version:      m.Version,
			Enabled:      m.Enabled,
			Binary:       m.Binary,
			Capabilities: capabilityNames(m.Capabilities),
		})
	}
	return out, nil
}

// Doctor checks every registered provider: binary present, checksum
// matching, process starting and what it advertises on this host.
func (s *CapabilityService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.BinaryReachable = fileExists(m.Binary)
		if !result.BinaryReachable {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
			results = append(results, result)
			continue
		}
		result.ChecksumValid = checksumMatches(m.Binary, m.SHA256) == nil
		if !result.ChecksumValid {
			result.Error = "checksum mismatch"
			results = append(results, result)
			continue
		}
		if m.Enabled && s.host != nil {
			meta, err := s.host.GetMetadata(ctx, m)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
				result.Advertised = capabilityNames(meta.Capabilities)
				for _, c := range m.Capabilities {
					if !meta.Supports(c) {
						result.Error = fmt.Errorf("%w: %s", domain.ErrUnsupportedOnHost, c).Error()
						break
					}
				}
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// AcquireWake asks the first usable wake_lock provider to keep the display
// awake. The returned lease watches the provider until released.
func (s *CapabilityService) AcquireWake(ctx context.Context, reason string) (*WakeLease, error) {
	conn, err := s.connect(ctx, domain.CapabilityWakeLock)
	if err != nil {
		return nil, err
	}
	if err := conn.AcquireWake(ctx, reason); err != nil {
		conn.Close()
		return nil, err
	}
	return newWakeLease(conn, s.ticker, s.pollInterval, s.log), nil
}

func (s *CapabilityService) OpenCues(ctx context.Context) (*CueChannel, error) {
	conn, err := s.connect(ctx, domain.CapabilityAudioCue)
	if err != nil {
		return nil, err
	}
	return &CueChannel{conn: conn}, nil
}

func (s *CapabilityService) connect(ctx context.Context, capability domain.Capability) (capabilityout.Connection, error) {
	if s.host == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrCapabilityMissing, capability)
	}
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, m := range manifests {
		if !m.HasCapability(capability) {
			continue
		}
		if !m.Enabled {
			lastErr = fmt.Errorf("%w: %s", domain.ErrProviderDisabled, m.Name)
			continue
		}
		if err := checksumMatches(m.Binary, m.SHA256); err != nil {
			s.log.Warn("skipping provider", "provider", m.Name, "error", err)
			lastErr = err
			continue
		}
		conn, err := s.host.Open(ctx, m)
		if err != nil {
			s.log.Warn("provider failed to start", "provider", m.Name, "error", err)
			lastErr = err
			continue
		}
		s.log.Debug("provider connected", "provider", m.Name, "capability", capability)
		return conn, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrCapabilityMissing, capability, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrCapabilityMissing, capability)
}

func (s *CapabilityService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, m := range manifests {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[m.Name]; ok {
			return nil, fmt.Errorf("duplicate provider name: %s", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return manifests, nil
}

func capabilityNames(caps []domain.Capability) []string {
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}

func checksumMatches(path, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read provider binary: %w", err)
	}
	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
