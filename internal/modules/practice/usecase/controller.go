package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"pahm/internal/modules/practice/domain"
	"pahm/internal/modules/practice/dto"
	portin "pahm/internal/modules/practice/port/in"
	portout "pahm/internal/modules/practice/port/out"
	"pahm/internal/modules/practice/service"
	"pahm/internal/platform/clock"
	apperrors "pahm/internal/platform/errors"
	"pahm/internal/platform/lifecycle"
)

const (
	DefaultRecoveryThreshold = 30 * time.Second
	emitTimeout              = 30 * time.Second
	storeTimeout             = 5 * time.Second
)

// ControllerDeps are the collaborators of a single session. Nil optional
// collaborators are replaced with no-op versions.
type ControllerDeps struct {
	Sessions          *service.SessionService
	Ticker            clock.Ticker
	Recovery          portout.RecoveryStore
	Recorder          portout.SessionRecorder
	WakeGuard         portout.WakeGuard
	Signaler          portout.Signaler
	Metrics           portout.MetricsExporter
	Lifecycle         lifecycle.Source
	Listener          portin.Listener
	Logger            hclog.Logger
	RecoveryThreshold time.Duration
}

// Controller is the session state machine:
// setup -> running <-> paused -> completed.
//
// Collaborator calls and listener notifications never happen while mu is
// held, so listeners may call back into the controller.
type Controller struct {
	deps    ControllerDeps
	stage   domain.Stage
	timer   *service.WallClockTimer
	counter *service.AttentionCounter
	log     hclog.Logger

	mu          sync.Mutex
	state       domain.State
	starting    bool
	closed      bool
	sessionID   string
	params      domain.Parameters
	startedAt   time.Time
	pending     *domain.RecoverySnapshot
	completed   *domain.CompletedSession
	unsubscribe func()

	emits sync.WaitGroup
}

var _ portin.Session = (*Controller)(nil)

func NewController(stage domain.Stage, deps ControllerDeps) (*Controller, error) {
	if err := stage.Validate(); err != nil {
		return nil, err
	}
	if deps.Sessions == nil || deps.Ticker == nil {
		return nil, fmt.Errorf("%w: controller needs a session service and a ticker", apperrors.ErrInvalidInput)
	}
	deps = deps.withDefaults()
	c := &Controller{
		deps:    deps,
		stage:   stage,
		counter: service.NewAttentionCounter(),
		log:     deps.Logger.Named("session").With("stage", stage.ID),
		state:   domain.StateSetup,
	}
	c.timer = service.NewWallClockTimer(deps.Sessions, deps.Ticker, c.onTick)
	deps.WakeGuard.OnRevoked(c.onWakeRevoked)
	if deps.Lifecycle != nil {
		c.unsubscribe = deps.Lifecycle.Subscribe(c.HandleSignal)
	}
	return c, nil
}

func (d ControllerDeps) withDefaults() ControllerDeps {
	if d.Recovery == nil {
		d.Recovery = nopRecovery{}
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.WakeGuard == nil {
		d.WakeGuard = &nopWakeGuard{}
	}
	if d.Signaler == nil {
		d.Signaler = nopSignaler{}
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Listener == nil {
		d.Listener = nopListener{}
	}
	if d.Logger == nil {
		d.Logger = hclog.NewNullLogger()
	}
	if d.RecoveryThreshold <= 0 {
		d.RecoveryThreshold = DefaultRecoveryThreshold
	}
	return d
}

func (c *Controller) Start(ctx context.Context, input dto.StartInput) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrSessionClosed
	}
	if c.state != domain.StateSetup || c.starting {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot start from %s", apperrors.ErrInvalidTransition, state)
	}
	params := domain.NewParameters(c.stage, input.DurationSeconds, input.Posture, input.DurationOverride)
	if err := params.Validate(c.stage); err != nil {
		c.mu.Unlock()
		c.log.Debug("start rejected", "error", err)
		return err
	}
	c.starting = true
	c.mu.Unlock()

	return c.begin(ctx, c.deps.Sessions.NewSessionID(), params, 0, nil)
}

// Recover continues a session persisted by an earlier process. Time spent
// while the process was gone is not counted; the timer picks up at the
// snapshot's elapsed time.
func (c *Controller) Recover(ctx context.Context, snapshot domain.RecoverySnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	if err := snapshot.Parameters.Validate(c.stage); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrSessionClosed
	}
	if c.state != domain.StateSetup || c.starting {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot recover from %s", apperrors.ErrInvalidTransition, state)
	}
	c.starting = true
	c.mu.Unlock()

	tally := snapshot.Tally
	return c.begin(ctx, snapshot.SessionID, snapshot.Parameters, snapshot.ElapsedSeconds, &tally)
}

func (c *Controller) begin(ctx context.Context, sessionID string, params domain.Parameters, elapsed int, tally *domain.Tally) error {
	held := c.deps.WakeGuard.Acquire(ctx)
	granted := c.deps.Signaler.RequestPermission(ctx)
	c.log.Debug("resources acquired", "wake_lock", held, "audio", granted)

	c.mu.Lock()
	c.starting = false
	if c.closed {
		c.mu.Unlock()
		c.deps.WakeGuard.Release()
		return apperrors.ErrSessionClosed
	}
	c.counter.Reset()
	if tally != nil {
		c.counter.Restore(*tally)
	}
	c.sessionID = sessionID
	c.params = params
	c.startedAt = c.deps.Sessions.Now().Add(-time.Duration(elapsed) * time.Second)
	if err := c.timer.StartAt(params.EffectiveDuration(), elapsed); err != nil {
		c.mu.Unlock()
		c.deps.WakeGuard.Release()
		return fmt.Errorf("start timer: %w", err)
	}
	c.state = domain.StateRunning
	c.mu.Unlock()

	c.log.Info("session started", "session_id", sessionID, "duration", params.EffectiveDuration(), "elapsed", elapsed)
	c.deps.Listener.StateChanged(string(domain.StateSetup), string(domain.StateRunning))
	return nil
}

func (c *Controller) Pause(context.Context) error {
	return c.transition(domain.StateRunning, domain.StatePaused, c.timer.Pause)
}

func (c *Controller) Resume(context.Context) error {
	return c.transition(domain.StatePaused, domain.StateRunning, c.timer.Resume)
}

func (c *Controller) transition(from, to domain.State, apply func() bool) error {
	c.mu.Lock()
	if c.state != from {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot move from %s to %s", apperrors.ErrInvalidTransition, state, to)
	}
	apply()
	c.state = to
	c.mu.Unlock()
	c.deps.Listener.StateChanged(string(from), string(to))
	return nil
}

// Tap counts one noticed thought. Taps outside a running session are dropped.
func (c *Controller) Tap(category domain.Category) bool {
	c.mu.Lock()
	if c.state != domain.StateRunning {
		c.mu.Unlock()
		return false
	}
	c.counter.Increment(category)
	c.mu.Unlock()
	c.deps.Signaler.PlayTapCue()
	return true
}

// CompleteEarly ends a running or paused session before the timer expires.
func (c *Controller) CompleteEarly(ctx context.Context, note string) (dto.CompletedOutput, error) {
	c.mu.Lock()
	if c.state != domain.StateRunning && c.state != domain.StatePaused {
		state := c.state
		c.mu.Unlock()
		return dto.CompletedOutput{}, fmt.Errorf("%w: cannot complete from %s", apperrors.ErrInvalidTransition, state)
	}
	session, err := c.finalize(ctx, domain.EndReasonEarly, note)
	if err != nil {
		return dto.CompletedOutput{}, err
	}
	return toCompletedOutput(session), nil
}

func (c *Controller) onTick(remaining int) {
	c.deps.Listener.TimerTicked(remaining)
	if remaining > 0 {
		return
	}
	c.mu.Lock()
	// A pause racing the final check still ends the session. A Close that
	// won the race does not.
	if c.closed || (c.state != domain.StateRunning && c.state != domain.StatePaused) {
		c.mu.Unlock()
		return
	}
	if _, err := c.finalize(context.Background(), domain.EndReasonExpired, ""); err != nil {
		c.log.Error("finalize expired session", "error", err)
	}
}

// finalize is entered with mu held and returns with it released. A closed
// controller is never finalized, so no emission can start after Close.
func (c *Controller) finalize(ctx context.Context, reason domain.EndReason, note string) (domain.CompletedSession, error) {
	if c.closed {
		c.mu.Unlock()
		return domain.CompletedSession{}, apperrors.ErrSessionClosed
	}
	from := c.state
	session, err := c.seal(reason, note)
	if err != nil {
		c.deps.Signaler.Close()
		c.deps.Listener.StateChanged(string(from), string(domain.StateCompleted))
		return domain.CompletedSession{}, fmt.Errorf("finalize session: %w", err)
	}

	c.deps.Signaler.PlayCompletionCue()
	c.clearRecovery(ctx)
	c.log.Info("session completed",
		"session_id", session.ID,
		"reason", session.EndReason,
		"actual_seconds", session.ActualDurationSeconds,
		"present_pct", session.PresentPercentage,
		"score", session.QualityScore,
	)
	go c.emit(session)

	c.deps.Listener.StateChanged(string(from), string(domain.StateCompleted))
	c.deps.Listener.SessionCompleted(toCompletedOutput(session))
	handoff := session.Handoff()
	c.deps.Listener.ReflectionRequested(dto.HandoffOutput{
		SessionID:             handoff.SessionID,
		StageID:               handoff.StageID,
		ActualDurationSeconds: handoff.ActualDurationSeconds,
		Posture:               handoff.Posture,
		Tally:                 handoff.Tally,
	})
	return session, nil
}

// seal moves the controller to completed and builds the session record.
// It is entered with mu held; mu and the wake guard are released on every
// path out, a panic included.
func (c *Controller) seal(reason domain.EndReason, note string) (domain.CompletedSession, error) {
	defer c.deps.WakeGuard.Release()
	defer c.mu.Unlock()
	c.timer.Stop()
	c.state = domain.StateCompleted
	c.pending = nil
	session, err := c.deps.Sessions.Complete(service.CompletionInput{
		SessionID:      c.sessionID,
		StartedAt:      c.startedAt,
		Parameters:     c.params,
		ElapsedSeconds: c.timer.ElapsedSeconds(),
		Tally:          c.counter.Snapshot(),
		Reason:         reason,
		Note:           note,
	})
	if err != nil {
		return domain.CompletedSession{}, err
	}
	c.completed = &session
	c.emits.Add(1)
	return session, nil
}

// emit hands the finished session to the recorder and the metrics
// exporter. Failures are logged and never retried here.
func (c *Controller) emit(session domain.CompletedSession) {
	defer c.emits.Done()
	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()
	if err := c.deps.Recorder.RecordCompletedSession(ctx, session); err != nil {
		c.log.Warn("record completed session failed", "session_id", session.ID, "error", err)
	}
	if err := c.deps.Metrics.ExportSession(ctx, session); err != nil {
		c.log.Warn("export session metrics failed", "session_id", session.ID, "error", err)
	}
}

// HandleSignal reacts to host lifecycle hints without changing state.
func (c *Controller) HandleSignal(signal lifecycle.Signal) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	switch signal {
	case lifecycle.MaySuspend:
		c.snapshot(ctx)
	case lifecycle.Resumed:
		c.offerRecovery(ctx)
	}
}

func (c *Controller) snapshot(ctx context.Context) {
	c.mu.Lock()
	if c.state != domain.StateRunning {
		c.mu.Unlock()
		return
	}
	snap := c.deps.Sessions.Snapshot(c.sessionID, c.params, c.startedAt, c.timer.State(), c.counter.Snapshot())
	c.mu.Unlock()

	if err := c.deps.Recovery.Save(ctx, snap); err != nil {
		c.log.Warn("save recovery snapshot failed", "error", err)
		return
	}
	c.log.Debug("recovery snapshot saved", "elapsed", snap.ElapsedSeconds, "taps", snap.Tally.Total())
}

func (c *Controller) offerRecovery(ctx context.Context) {
	c.mu.Lock()
	active := c.state == domain.StateRunning || c.state == domain.StatePaused
	sessionID := c.sessionID
	hasPending := c.pending != nil
	c.mu.Unlock()
	if !active || hasPending {
		return
	}

	snap, err := c.deps.Recovery.Load(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoRecoverySnapshot) {
			c.log.Warn("load recovery snapshot failed", "error", err)
		}
		return
	}
	if snap.SessionID != sessionID {
		c.log.Debug("ignoring snapshot from another session", "snapshot_session", snap.SessionID)
		return
	}
	now := c.deps.Sessions.Now()
	age := snap.Age(now)
	if age <= c.deps.RecoveryThreshold {
		return
	}

	c.mu.Lock()
	if c.pending != nil || (c.state != domain.StateRunning && c.state != domain.StatePaused) {
		c.mu.Unlock()
		return
	}
	c.pending = &snap
	c.mu.Unlock()

	c.log.Info("recovery offered", "age", age.Round(time.Second))
	c.deps.Listener.RecoveryOffered(toRecoveryOutput(snap, now))
}

// AcceptRecovery restores the tally saved before the interruption. Timing
// needs no restore: the timer already measures from its own start.
func (c *Controller) AcceptRecovery(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return apperrors.ErrNoPendingRecovery
	}
	c.counter.Restore(c.pending.Tally)
	c.pending = nil
	c.mu.Unlock()
	c.clearRecovery(ctx)
	return nil
}

// DeclineRecovery discards the snapshot and keeps the live tally.
func (c *Controller) DeclineRecovery(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return apperrors.ErrNoPendingRecovery
	}
	c.pending = nil
	c.mu.Unlock()
	c.clearRecovery(ctx)
	return nil
}

func (c *Controller) clearRecovery(ctx context.Context) {
	if err := c.deps.Recovery.Clear(ctx); err != nil {
		c.log.Warn("clear recovery snapshot failed", "error", err)
	}
}

func (c *Controller) onWakeRevoked() {
	c.log.Info("wake lock revoked by host")
	c.deps.Listener.WakeLockRevoked()
}

func (c *Controller) Status() dto.StatusOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	tally := c.counter.Snapshot()
	total := c.params.EffectiveDuration()
	if total == 0 {
		total = c.stage.DefaultDurationSeconds
	}
	status := dto.StatusOutput{
		SessionID:        c.sessionID,
		State:            string(c.state),
		StageID:          c.stage.ID,
		StageName:        c.stage.Name,
		Posture:          c.params.Posture,
		TotalSeconds:     total,
		RemainingSeconds: total,
		Tally:            tally.PAHM(),
		TotalTaps:        tally.Total(),
		WakeLockHeld:     c.deps.WakeGuard.IsHeld(),
		AudioEnabled:     c.deps.Signaler.Granted(),
		RecoveryPending:  c.pending != nil,
	}
	if c.state != domain.StateSetup {
		status.ElapsedSeconds = c.timer.ElapsedSeconds()
		status.RemainingSeconds = c.timer.RemainingSeconds()
	}
	return status
}

// Completed returns the finished session once the controller reached completed.
func (c *Controller) Completed() (domain.CompletedSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed == nil {
		return domain.CompletedSession{}, false
	}
	return *c.completed, true
}

func (c *Controller) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears the session down: it stops the timer, releases the wake
// guard and signaler, detaches from lifecycle signals and waits for
// in-flight emission. It does not complete a running session.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.emits.Wait()
		return nil
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.timer.Stop()
	c.deps.WakeGuard.Release()
	c.deps.Signaler.Close()
	c.emits.Wait()
	return nil
}

func toCompletedOutput(s domain.CompletedSession) dto.CompletedOutput {
	return dto.CompletedOutput{
		SessionID:             s.ID,
		Timestamp:             s.Timestamp,
		ActualDurationSeconds: s.ActualDurationSeconds,
		StageID:               s.StageID,
		Posture:               s.Posture,
		IsFullyCompleted:      s.IsFullyCompleted,
		PresentPercentage:     s.PresentPercentage,
		QualityScore:          s.QualityScore,
		Tally:                 s.Tally.Keys(),
		PAHMTally:             s.Tally.PAHM(),
		Note:                  s.Note,
		EndReason:             string(s.EndReason),
	}
}

func toRecoveryOutput(s domain.RecoverySnapshot, now time.Time) dto.RecoveryOutput {
	return dto.RecoveryOutput{
		SessionID:        s.SessionID,
		StageID:          s.Parameters.StageID,
		Posture:          s.Parameters.Posture,
		DurationSeconds:  s.Parameters.EffectiveDuration(),
		ElapsedSeconds:   s.ElapsedSeconds,
		RemainingSeconds: s.RemainingSeconds,
		Tally:            s.Tally.PAHM(),
		SnapshotAt:       s.SnapshotAt,
		Age:              s.Age(now),
	}
}
