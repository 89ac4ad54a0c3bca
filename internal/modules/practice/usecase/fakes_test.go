package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pahm/internal/modules/practice/domain"
	"pahm/internal/modules/practice/dto"
	"pahm/internal/modules/practice/service"
	"pahm/internal/platform/clock/clocktest"
	apperrors "pahm/internal/platform/errors"
	"pahm/internal/platform/lifecycle"
)

var epoch = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

type sequenceIDs struct {
	mu     sync.Mutex
	n      int
	prefix string
}

func (s *sequenceIDs) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", s.prefix, s.n)
}

type blankIDs struct{}

func (blankIDs) New() string { return "" }

type memRecovery struct {
	mu      sync.Mutex
	snap    *domain.RecoverySnapshot
	saves   int
	clears  int
	loadErr error
	saveErr error
}

func (m *memRecovery) Save(_ context.Context, s domain.RecoverySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = &s
	m.saves++
	return nil
}

func (m *memRecovery) Load(context.Context) (domain.RecoverySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.RecoverySnapshot{}, m.loadErr
	}
	if m.snap == nil {
		return domain.RecoverySnapshot{}, apperrors.ErrNoRecoverySnapshot
	}
	return *m.snap, nil
}

func (m *memRecovery) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	m.clears++
	return nil
}

func (m *memRecovery) current() *domain.RecoverySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

type memRecorder struct {
	mu       sync.Mutex
	sessions []domain.CompletedSession
	notes    []string
	err      error
}

func (r *memRecorder) RecordCompletedSession(_ context.Context, s domain.CompletedSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return r.err
}

func (r *memRecorder) RecordReflectionNote(_ context.Context, sessionID, note, emotion string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, sessionID+"|"+note+"|"+emotion)
	return nil
}

func (r *memRecorder) recorded() []domain.CompletedSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CompletedSession(nil), r.sessions...)
}

type fakeWake struct {
	mu        sync.Mutex
	deny      bool
	held      bool
	acquires  int
	releases  int
	onRevoked func()
}

func (w *fakeWake) Acquire(context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.acquires++
	w.held = !w.deny
	return w.held
}

func (w *fakeWake) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.releases++
	w.held = false
}

func (w *fakeWake) IsHeld() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held
}

func (w *fakeWake) OnRevoked(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onRevoked = fn
}

func (w *fakeWake) revoke() {
	w.mu.Lock()
	w.held = false
	fn := w.onRevoked
	w.mu.Unlock()
	fn()
}

type fakeSignaler struct {
	mu          sync.Mutex
	granted     bool
	taps        int
	completions int
	closed      int
}

func (s *fakeSignaler) RequestPermission(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = true
	return true
}

func (s *fakeSignaler) Granted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted
}

func (s *fakeSignaler) PlayTapCue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taps++
}

func (s *fakeSignaler) PlayCompletionCue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions++
}

func (s *fakeSignaler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	s.granted = false
}

type fakeMetrics struct {
	mu       sync.Mutex
	exported int
}

func (m *fakeMetrics) ExportSession(context.Context, domain.CompletedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exported++
	return errors.New("collector offline")
}

func (m *fakeMetrics) Close(context.Context) error { return nil }

type recordingListener struct {
	mu          sync.Mutex
	ticks       []int
	transitions []string
	offers      []dto.RecoveryOutput
	revoked     int
	completed   []dto.CompletedOutput
	handoffs    []dto.HandoffOutput
}

func (l *recordingListener) TimerTicked(remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ticks = append(l.ticks, remaining)
}

func (l *recordingListener) StateChanged(from, to string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitions = append(l.transitions, from+">"+to)
}

func (l *recordingListener) RecoveryOffered(offer dto.RecoveryOutput) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offers = append(l.offers, offer)
}

func (l *recordingListener) WakeLockRevoked() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked++
}

func (l *recordingListener) SessionCompleted(s dto.CompletedOutput) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed = append(l.completed, s)
}

func (l *recordingListener) ReflectionRequested(h dto.HandoffOutput) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handoffs = append(l.handoffs, h)
}

func (l *recordingListener) zeroTicks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.ticks {
		if r == 0 {
			n++
		}
	}
	return n
}

func (l *recordingListener) offerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.offers)
}

func (l *recordingListener) completions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.completed)
}

// gatedListener holds the final tick until release is closed.
type gatedListener struct {
	*recordingListener
	reached chan struct{}
	release chan struct{}
}

func newGatedListener() *gatedListener {
	return &gatedListener{
		recordingListener: &recordingListener{},
		reached:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (l *gatedListener) TimerTicked(remaining int) {
	l.recordingListener.TimerTicked(remaining)
	if remaining == 0 {
		close(l.reached)
		<-l.release
	}
}

// panicClock panics on Now once armed.
type panicClock struct {
	*clocktest.Fake
	armed atomic.Bool
}

func (c *panicClock) Now() time.Time {
	if c.armed.Load() {
		panic("clock unavailable")
	}
	return c.Fake.Now()
}

// harness wires a controller to in-memory collaborators and a fake clock.
type harness struct {
	clock    *clocktest.Fake
	sessions *service.SessionService
	hub      *lifecycle.Hub
	recovery *memRecovery
	recorder *memRecorder
	wake     *fakeWake
	signaler *fakeSignaler
	metrics  *fakeMetrics
	listener *recordingListener
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := clocktest.NewFake(epoch)
	return &harness{
		clock:    fake,
		sessions: service.NewSessionService(fake, &sequenceIDs{prefix: "session-"}, domain.DefaultScoringPolicy()),
		hub:      lifecycle.NewHub(),
		recovery: &memRecovery{},
		recorder: &memRecorder{},
		wake:     &fakeWake{},
		signaler: &fakeSignaler{},
		metrics:  &fakeMetrics{},
		listener: &recordingListener{},
	}
}

func stage(t *testing.T, id int) domain.Stage {
	t.Helper()
	stages, err := domain.NewStages(domain.DefaultStages())
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	s, err := stages.Get(id)
	if err != nil {
		t.Fatalf("stage %d: %v", id, err)
	}
	return s
}
