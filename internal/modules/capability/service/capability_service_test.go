package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"pahm/internal/modules/capability/domain"
	capabilityout "pahm/internal/modules/capability/port/out"
	"pahm/internal/modules/capability/service"
	"pahm/internal/platform/clock/clocktest"
	apperrors "pahm/internal/platform/errors"
)

type staticStore struct {
	manifests []domain.Manifest
}

func (s staticStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type fakeConn struct {
	mu       sync.Mutex
	held     bool
	exited   bool
	closed   int
	released int
	cues     []domain.Cue
}

func (c *fakeConn) AcquireWake(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = true
	return nil
}

func (c *fakeConn) ReleaseWake(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = false
	c.released++
	return nil
}

func (c *fakeConn) WakeHeld(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held, nil
}

func (c *fakeConn) PlayCue(_ context.Context, cue domain.Cue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cues = append(c.cues, cue)
	return nil
}

func (c *fakeConn) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	c.exited = true
}

func (c *fakeConn) loseLock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = false
}

type fakeHost struct {
	conn   *fakeConn
	opened []string
	meta   domain.Metadata
}

func (h *fakeHost) CheckLifecycle(context.Context, domain.Manifest) error { return nil }

func (h *fakeHost) GetMetadata(context.Context, domain.Manifest) (domain.Metadata, error) {
	return h.meta, nil
}

func (h *fakeHost) Open(_ context.Context, m domain.Manifest) (capabilityout.Connection, error) {
	h.opened = append(h.opened, m.Name)
	return h.conn, nil
}

func writeBinary(t *testing.T, dir, name, payload string) (string, string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(payload), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	sum := sha256.Sum256([]byte(payload))
	return path, hex.EncodeToString(sum[:])
}

func providerManifest(name, binary, sha string, caps ...domain.Capability) domain.Manifest {
	return domain.Manifest{Name: name, Version: "1.0.0", Binary: binary, SHA256: sha, Enabled: true, Capabilities: caps}
}

func TestDoctorDetectsChecksumMismatch(t *testing.T) {
	t.Parallel()
	binary, _ := writeBinary(t, t.TempDir(), "hostcaps", "binary")
	store := staticStore{manifests: []domain.Manifest{
		providerManifest("hostcaps", binary, strings.Repeat("a", 64), domain.CapabilityWakeLock),
	}}
	svc := service.NewCapabilityService(store, nil, nil, nil)
	results, err := svc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one doctor result, got %d", len(results))
	}
	if !results[0].BinaryReachable || results[0].ChecksumValid {
		t.Fatalf("expected reachable binary with bad checksum, got %+v", results[0])
	}
}

func TestDoctorFlagsCapabilityMissingOnHost(t *testing.T) {
	t.Parallel()
	binary, sha := writeBinary(t, t.TempDir(), "hostcaps", "binary")
	store := staticStore{manifests: []domain.Manifest{
		providerManifest("hostcaps", binary, sha, domain.CapabilityWakeLock, domain.CapabilityAudioCue),
	}}
	host := &fakeHost{conn: &fakeConn{}, meta: domain.Metadata{Name: "hostcaps", Capabilities: []domain.Capability{domain.CapabilityAudioCue}}}
	results, err := service.NewCapabilityService(store, host, nil, nil).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	got := results[0]
	if !got.LifecycleOK || len(got.Advertised) != 1 || !strings.Contains(got.Error, "wake_lock") {
		t.Fatalf("unexpected doctor result %+v", got)
	}
}

func TestConnectSkipsBadChecksumAndDisabledProviders(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	badBin, _ := writeBinary(t, dir, "bad", "bad")
	offBin, offSha := writeBinary(t, dir, "off", "off")
	goodBin, goodSha := writeBinary(t, dir, "good", "good")
	off := providerManifest("off", offBin, offSha, domain.CapabilityAudioCue)
	off.Enabled = false
	store := staticStore{manifests: []domain.Manifest{
		providerManifest("bad", badBin, strings.Repeat("b", 64), domain.CapabilityAudioCue),
		off,
		providerManifest("good", goodBin, goodSha, domain.CapabilityAudioCue),
	}}
	host := &fakeHost{conn: &fakeConn{}}
	svc := service.NewCapabilityService(store, host, nil, nil)
	cues, err := svc.OpenCues(context.Background())
	if err != nil {
		t.Fatalf("open cues: %v", err)
	}
	defer cues.Close()
	if len(host.opened) != 1 || host.opened[0] != "good" {
		t.Fatalf("expected only the good provider to start, got %v", host.opened)
	}
}

func TestCapabilityMissingWithoutProvider(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bin, sha := writeBinary(t, dir, "cues", "cues")
	store := staticStore{manifests: []domain.Manifest{providerManifest("cues", bin, sha, domain.CapabilityAudioCue)}}
	svc := service.NewCapabilityService(store, &fakeHost{conn: &fakeConn{}}, nil, nil)
	if _, err := svc.AcquireWake(context.Background(), "practice"); !errors.Is(err, apperrors.ErrCapabilityMissing) {
		t.Fatalf("expected capability missing, got %v", err)
	}
	if _, err := service.NewCapabilityService(store, nil, nil, nil).OpenCues(context.Background()); !errors.Is(err, apperrors.ErrCapabilityMissing) {
		t.Fatalf("expected capability missing without host, got %v", err)
	}
}

func TestWakeLeaseRevokedWhenHostDropsLock(t *testing.T) {
	t.Parallel()
	bin, sha := writeBinary(t, t.TempDir(), "hostcaps", "hostcaps")
	store := staticStore{manifests: []domain.Manifest{providerManifest("hostcaps", bin, sha, domain.CapabilityWakeLock)}}
	conn := &fakeConn{}
	fake := clocktest.NewFake(time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC))
	svc := service.NewCapabilityService(store, &fakeHost{conn: conn}, fake, nil)

	lease, err := svc.AcquireWake(context.Background(), "practice")
	if err != nil {
		t.Fatalf("acquire wake: %v", err)
	}
	fake.Step(service.DefaultPollInterval)
	select {
	case <-lease.Revoked():
		t.Fatalf("lease revoked while lock is held")
	default:
	}

	conn.loseLock()
	fake.Step(service.DefaultPollInterval)
	select {
	case <-lease.Revoked():
	default:
		t.Fatalf("expected lease revoked after host dropped the lock")
	}
	if fake.Active() != 0 {
		t.Fatalf("revoked lease must stop polling, %d tickers active", fake.Active())
	}
	if err := lease.Release(context.Background()); err != nil {
		t.Fatalf("release revoked lease: %v", err)
	}
	if conn.released != 0 {
		t.Fatalf("revoked lease must not call release on the provider")
	}
}

func TestWakeLeaseReleaseIsIdempotent(t *testing.T) {
	t.Parallel()
	bin, sha := writeBinary(t, t.TempDir(), "hostcaps", "hostcaps")
	store := staticStore{manifests: []domain.Manifest{providerManifest("hostcaps", bin, sha, domain.CapabilityWakeLock)}}
	conn := &fakeConn{}
	fake := clocktest.NewFake(time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC))
	svc := service.NewCapabilityService(store, &fakeHost{conn: conn}, fake, nil)

	lease, err := svc.AcquireWake(context.Background(), "practice")
	if err != nil {
		t.Fatalf("acquire wake: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := lease.Release(context.Background()); err != nil {
			t.Fatalf("release %d: %v", i, err)
		}
	}
	if conn.released != 1 {
		t.Fatalf("expected one provider release, got %d", conn.released)
	}
	if fake.Active() != 0 {
		t.Fatalf("released lease must stop polling")
	}
	select {
	case <-lease.Revoked():
		t.Fatalf("released lease must not report revocation")
	default:
	}
}

func TestCueChannelValidatesCuesAndClose(t *testing.T) {
	t.Parallel()
	bin, sha := writeBinary(t, t.TempDir(), "hostcaps", "hostcaps")
	store := staticStore{manifests: []domain.Manifest{providerManifest("hostcaps", bin, sha, domain.CapabilityAudioCue)}}
	conn := &fakeConn{}
	cues, err := service.NewCapabilityService(store, &fakeHost{conn: conn}, nil, nil).OpenCues(context.Background())
	if err != nil {
		t.Fatalf("open cues: %v", err)
	}
	if err := cues.Play(context.Background(), "tap"); err != nil {
		t.Fatalf("play tap: %v", err)
	}
	if err := cues.Play(context.Background(), "gong"); err == nil {
		t.Fatalf("expected unknown cue error")
	}
	cues.Close()
	cues.Close()
	if err := cues.Play(context.Background(), "completion"); !errors.Is(err, domain.ErrConnectionClosed) {
		t.Fatalf("expected closed channel error, got %v", err)
	}
	if len(conn.cues) != 1 || conn.closed != 1 {
		t.Fatalf("unexpected provider calls: cues=%v closed=%d", conn.cues, conn.closed)
	}
}
