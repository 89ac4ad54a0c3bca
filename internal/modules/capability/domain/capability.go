package domain

import (
	"errors"
	"fmt"
	"regexp"
)

// Capability is an optional host feature a provider plugin can supply.
type Capability string

const (
	CapabilityWakeLock Capability = "wake_lock"
	CapabilityAudioCue Capability = "audio_cue"
)

// Cue names a sound the host can play.
type Cue string

const (
	CueTap        Cue = "tap"
	CueCompletion Cue = "completion"
)

var (
	ErrProviderDisabled  = errors.New("capability provider is disabled")
	ErrChecksumMismatch  = errors.New("capability provider checksum mismatch")
	ErrProviderTimeout   = errors.New("capability provider timeout")
	ErrWakeLockDenied    = errors.New("wake lock denied by host")
	ErrProviderExited    = errors.New("capability provider exited")
	ErrConnectionClosed  = errors.New("capability connection closed")
	ErrUnsupportedOnHost = errors.New("capability unsupported on this host")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Manifest registers one provider binary in the vault.
type Manifest struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Binary       string       `json:"binary"`
	SHA256       string       `json:"sha256"`
	Enabled      bool         `json:"enabled"`
	Capabilities []Capability `json:"capabilities"`
}

func (m Manifest) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("provider name is required")
	case m.Version == "":
		return fmt.Errorf("provider %s: version is required", m.Name)
	case m.Binary == "":
		return fmt.Errorf("provider %s: binary path is required", m.Name)
	case !sha256Pattern.MatchString(m.SHA256):
		return fmt.Errorf("provider %s: sha256 must be lowercase 64-char hex", m.Name)
	case len(m.Capabilities) == 0:
		return fmt.Errorf("provider %s: capabilities are required", m.Name)
	}
	seen := map[Capability]struct{}{}
	for _, capability := range m.Capabilities {
		if err := capability.Validate(); err != nil {
			return fmt.Errorf("provider %s: %w", m.Name, err)
		}
		if _, ok := seen[capability]; ok {
			return fmt.Errorf("provider %s: duplicate capability %s", m.Name, capability)
		}
		seen[capability] = struct{}{}
	}
	return nil
}

func (m Manifest) HasCapability(capability Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

func (c Capability) Validate() error {
	switch c {
	case CapabilityWakeLock, CapabilityAudioCue:
		return nil
	default:
		return fmt.Errorf("unknown capability: %s", c)
	}
}

func (c Cue) Validate() error {
	switch c {
	case CueTap, CueCompletion:
		return nil
	default:
		return fmt.Errorf("unknown cue: %s", c)
	}
}

// Metadata is what a running provider reports about itself. Capabilities
// lists only what the provider can actually do on this host.
type Metadata struct {
	Name         string
	Version      string
	Capabilities []Capability
}

func (m Metadata) Supports(capability Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
