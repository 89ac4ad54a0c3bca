package out

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	capabilityin "pahm/internal/modules/capability/port/in"
	practiceout "pahm/internal/modules/practice/port/out"
)

const cueTimeout = 2 * time.Second

// CapabilitySignaler plays cues through an audio_cue provider. Without one it
// hands every call to the fallback.
type CapabilitySignaler struct {
	caps     capabilityin.Usecase
	fallback practiceout.Signaler
	log      hclog.Logger

	mu      sync.Mutex
	channel capabilityin.CueChannel
	granted bool
	closed  bool
	pending sync.WaitGroup
}

func NewCapabilitySignaler(caps capabilityin.Usecase, fallback practiceout.Signaler, logger hclog.Logger) practiceout.Signaler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CapabilitySignaler{caps: caps, fallback: fallback, log: logger}
}

func (s *CapabilitySignaler) RequestPermission(ctx context.Context) bool {
	s.mu.Lock()
	if s.granted {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	var channel capabilityin.CueChannel
	if s.caps != nil {
		ch, err := s.caps.OpenCues(ctx)
		if err != nil {
			s.log.Debug("audio provider unavailable", "error", err)
		} else {
			channel = ch
		}
	}
	granted := channel != nil
	if !granted && s.fallback != nil {
		granted = s.fallback.RequestPermission(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if channel != nil {
			channel.Close()
		}
		return false
	}
	s.channel = channel
	s.granted = granted
	return granted
}

func (s *CapabilitySignaler) Granted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted
}

func (s *CapabilitySignaler) PlayTapCue()        { s.play("tap") }
func (s *CapabilitySignaler) PlayCompletionCue() { s.play("completion") }

func (s *CapabilitySignaler) play(cue string) {
	s.mu.Lock()
	if !s.granted || s.closed {
		s.mu.Unlock()
		return
	}
	channel := s.channel
	if channel == nil {
		s.mu.Unlock()
		if s.fallback == nil {
			return
		}
		if cue == "tap" {
			s.fallback.PlayTapCue()
		} else {
			s.fallback.PlayCompletionCue()
		}
		return
	}
	s.pending.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), cueTimeout)
		defer cancel()
		if err := channel.Play(ctx, cue); err != nil {
			s.log.Debug("cue playback failed", "cue", cue, "error", err)
		}
	}()
}

// Close waits for cues in flight before shutting the provider down.
func (s *CapabilitySignaler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.granted = false
	channel := s.channel
	s.channel = nil
	s.mu.Unlock()

	s.pending.Wait()
	if channel != nil {
		channel.Close()
	}
	if s.fallback != nil {
		s.fallback.Close()
	}
}
