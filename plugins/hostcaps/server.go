package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	caprpc "pahm/internal/modules/capability/adapter/out/rpc"
	"pahm/internal/modules/capability/domain"
)

const version = "1.0.0"

// hostBackend does the actual host work. The channel returned by inhibit is
// closed once the inhibitor is gone for any reason.
type hostBackend interface {
	capabilities() []domain.Capability
	inhibit(reason string) (stop func(), gone <-chan struct{}, err error)
	play(cue domain.Cue) error
}

type server struct {
	backend hostBackend
	log     hclog.Logger

	mu   sync.Mutex
	stop func()
	gone <-chan struct{}
}

func newServer(backend hostBackend, logger hclog.Logger) *server {
	return &server{backend: backend, log: logger}
}

func (s *server) GetMetadata(context.Context, *caprpc.Empty) (*caprpc.Metadata, error) {
	caps := s.backend.capabilities()
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, string(c))
	}
	return &caprpc.Metadata{Name: "hostcaps", Version: version, Capabilities: names}, nil
}

func (s *server) AcquireWake(_ context.Context, in *caprpc.WakeRequest) (*caprpc.WakeStatus, error) {
	if !s.supports(domain.CapabilityWakeLock) {
		return &caprpc.WakeStatus{Held: false, Detail: domain.ErrUnsupportedOnHost.Error()}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heldLocked() {
		return &caprpc.WakeStatus{Held: true}, nil
	}
	stop, gone, err := s.backend.inhibit(in.Reason)
	if err != nil {
		s.log.Warn("inhibit failed", "error", err)
		return &caprpc.WakeStatus{Held: false, Detail: err.Error()}, nil
	}
	s.stop, s.gone = stop, gone
	s.log.Debug("wake lock acquired", "reason", in.Reason)
	return &caprpc.WakeStatus{Held: true}, nil
}

func (s *server) ReleaseWake(context.Context, *caprpc.Empty) (*caprpc.Empty, error) {
	s.mu.Lock()
	stop := s.stop
	s.stop, s.gone = nil, nil
	s.mu.Unlock()
	if stop != nil {
		stop()
		s.log.Debug("wake lock released")
	}
	return &caprpc.Empty{}, nil
}

func (s *server) WakeHeld(context.Context, *caprpc.Empty) (*caprpc.WakeStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return &caprpc.WakeStatus{Held: false}, nil
	}
	if !s.heldLocked() {
		return &caprpc.WakeStatus{Held: false, Detail: "inhibitor exited"}, nil
	}
	return &caprpc.WakeStatus{Held: true}, nil
}

func (s *server) PlayCue(_ context.Context, in *caprpc.CueRequest) (*caprpc.Empty, error) {
	cue := domain.Cue(in.Cue)
	if err := cue.Validate(); err != nil {
		return nil, err
	}
	if !s.supports(domain.CapabilityAudioCue) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedOnHost, domain.CapabilityAudioCue)
	}
	if err := s.backend.play(cue); err != nil {
		return nil, fmt.Errorf("play %s cue: %w", cue, err)
	}
	return &caprpc.Empty{}, nil
}

func (s *server) heldLocked() bool {
	if s.gone == nil {
		return false
	}
	select {
	case <-s.gone:
		return false
	default:
		return true
	}
}

func (s *server) supports(capability domain.Capability) bool {
	for _, c := range s.backend.capabilities() {
		if c == capability {
			return true
		}
	}
	return false
}
