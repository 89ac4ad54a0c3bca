package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"

	"github.com/hashicorp/go-hclog"

	"pahm/internal/modules/capability/domain"
)

// systemBackend shells out to the host's own inhibit and sound tools.
// Every inhibitor is tied to this process id so a killed provider never
// leaves the display pinned awake.
type systemBackend struct {
	log       hclog.Logger
	inhibitor func(reason string) *exec.Cmd
	player    string
	sounds    map[domain.Cue]string
}

func detectSystemBackend(logger hclog.Logger) *systemBackend {
	b := &systemBackend{log: logger}
	pid := strconv.Itoa(os.Getpid())
	switch runtime.GOOS {
	case "linux":
		if has("systemd-inhibit") && has("tail") {
			b.inhibitor = func(reason string) *exec.Cmd {
				return exec.Command("systemd-inhibit", "--what=idle:sleep", "--who=pahm", "--why="+reason, "--mode=block",
					"tail", "--pid="+pid, "-f", "/dev/null")
			}
		}
		if has("paplay") {
			b.player = "paplay"
			b.sounds = map[domain.Cue]string{
				domain.CueTap:        "/usr/share/sounds/freedesktop/stereo/bell.oga",
				domain.CueCompletion: "/usr/share/sounds/freedesktop/stereo/complete.oga",
			}
		}
	case "darwin":
		if has("caffeinate") {
			b.inhibitor = func(string) *exec.Cmd {
				return exec.Command("caffeinate", "-d", "-i", "-w", pid)
			}
		}
		if has("afplay") {
			b.player = "afplay"
			b.sounds = map[domain.Cue]string{
				domain.CueTap:        "/System/Library/Sounds/Tink.aiff",
				domain.CueCompletion: "/System/Library/Sounds/Glass.aiff",
			}
		}
	}
	logger.Debug("host backend detected", "os", runtime.GOOS, "capabilities", b.capabilities())
	return b
}

func has(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}

func (b *systemBackend) capabilities() []domain.Capability {
	var caps []domain.Capability
	if b.inhibitor != nil {
		caps = append(caps, domain.CapabilityWakeLock)
	}
	if b.player != "" {
		caps = append(caps, domain.CapabilityAudioCue)
	}
	return caps
}

func (b *systemBackend) inhibit(reason string) (func(), <-chan struct{}, error) {
	if b.inhibitor == nil {
		return nil, nil, domain.ErrUnsupportedOnHost
	}
	if reason == "" {
		reason = "meditation session"
	}
	cmd := b.inhibitor(reason)
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start inhibitor: %w", err)
	}
	gone := make(chan struct{})
	go func() {
		err := cmd.Wait()
		b.log.Debug("inhibitor exited", "error", err)
		close(gone)
	}()
	var once sync.Once
	stop := func() {
		once.Do(func() {
			_ = cmd.Process.Kill()
			<-gone
		})
	}
	return stop, gone, nil
}

// play starts the player and returns without waiting for the sound to end.
func (b *systemBackend) play(cue domain.Cue) error {
	sound, ok := b.sounds[cue]
	if b.player == "" || !ok {
		return domain.ErrUnsupportedOnHost
	}
	cmd := exec.Command(b.player, sound)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			b.log.Debug("cue player failed", "cue", cue, "error", err)
		}
	}()
	return nil
}

// memoryBackend advertises everything and touches nothing on the host.
type memoryBackend struct {
	mu   sync.Mutex
	cues []domain.Cue
}

func (m *memoryBackend) capabilities() []domain.Capability {
	return []domain.Capability{domain.CapabilityWakeLock, domain.CapabilityAudioCue}
}

func (m *memoryBackend) inhibit(string) (func(), <-chan struct{}, error) {
	gone := make(chan struct{})
	var once sync.Once
	return func() { once.Do(func() { close(gone) }) }, gone, nil
}

func (m *memoryBackend) play(cue domain.Cue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cues = append(m.cues, cue)
	return nil
}
