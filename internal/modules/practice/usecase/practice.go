package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// Config wires the interactor. WakeGuards and Signalers build fresh
// per-session resources; nil factories disable the capability.
type Config struct {
	Stages            domain.Stages
	Sessions          *service.SessionService
	Ticker            clock.Ticker
	Recovery          portout.RecoveryStore
	Recorder          portout.SessionRecorder
	Reflections       portout.ReflectionRecorder
	Metrics           portout.MetricsExporter
	WakeGuards        func() portout.WakeGuard
	Signalers         func() portout.Signaler
	Lifecycle         lifecycle.Source
	Logger            hclog.Logger
	RecoveryThreshold time.Duration
}

type Interactor struct {
	cfg Config
}

func NewInteractor(cfg Config) portin.Usecase {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.Recovery == nil {
		cfg.Recovery = nopRecovery{}
	}
	return &Interactor{cfg: cfg}
}

func (i *Interactor) Stages(context.Context) []dto.StageOutput {
	all := i.cfg.Stages.All()
	out := make([]dto.StageOutput, 0, len(all))
	for _, s := range all {
		out = append(out, dto.StageOutput{
			ID:                     s.ID,
			Name:                   s.Name,
			MinimumDurationSeconds: s.MinimumDurationSeconds,
			DefaultDurationSeconds: s.DefaultDurationSeconds,
		})
	}
	return out
}

func (i *Interactor) NewSession(_ context.Context, stageID int, listener portin.Listener) (portin.Session, error) {
	c, err := i.newController(stageID, listener)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (i *Interactor) newController(stageID int, listener portin.Listener) (*Controller, error) {
	stage, err := i.cfg.Stages.Get(stageID)
	if err != nil {
		return nil, err
	}
	deps := ControllerDeps{
		Sessions:          i.cfg.Sessions,
		Ticker:            i.cfg.Ticker,
		Recovery:          i.cfg.Recovery,
		Recorder:          i.cfg.Recorder,
		Metrics:           i.cfg.Metrics,
		Lifecycle:         i.cfg.Lifecycle,
		Listener:          listener,
		Logger:            i.cfg.Logger,
		RecoveryThreshold: i.cfg.RecoveryThreshold,
	}
	if i.cfg.WakeGuards != nil {
		deps.WakeGuard = i.cfg.WakeGuards()
	}
	if i.cfg.Signalers != nil {
		deps.Signaler = i.cfg.Signalers()
	}
	return NewController(stage, deps)
}

// PendingRecovery reports a snapshot left behind by an earlier process.
// An unreadable slot counts as empty.
func (i *Interactor) PendingRecovery(ctx context.Context) (dto.RecoveryOutput, error) {
	snap, err := i.loadSnapshot(ctx)
	if err != nil {
		return dto.RecoveryOutput{}, err
	}
	return toRecoveryOutput(snap, i.cfg.Sessions.Now()), nil
}

func (i *Interactor) ResumeRecovered(ctx context.Context, listener portin.Listener) (portin.Session, error) {
	snap, err := i.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	c, err := i.newController(snap.Parameters.StageID, listener)
	if err != nil {
		return nil, err
	}
	if err := c.Recover(ctx, snap); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("resume recovered session: %w", err)
	}
	// The slot now belongs to the live session; leaving it would trigger an
	// in-session prompt on the next resume signal.
	c.clearRecovery(ctx)
	return c, nil
}

func (i *Interactor) DiscardRecovery(ctx context.Context) error {
	if err := i.cfg.Recovery.Clear(ctx); err != nil {
		return fmt.Errorf("discard recovery snapshot: %w", err)
	}
	return nil
}

func (i *Interactor) RecordReflection(ctx context.Context, input dto.ReflectionInput) error {
	note := strings.TrimSpace(input.Note)
	if note == "" {
		return fmt.Errorf("%w: reflection note is required", apperrors.ErrInvalidInput)
	}
	if i.cfg.Reflections == nil {
		return fmt.Errorf("%w: no reflection journal configured", apperrors.ErrNotFound)
	}
	return i.cfg.Reflections.RecordReflectionNote(ctx, input.SessionID, note, strings.TrimSpace(input.Emotion))
}

func (i *Interactor) loadSnapshot(ctx context.Context) (domain.RecoverySnapshot, error) {
	snap, err := i.cfg.Recovery.Load(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoRecoverySnapshot) {
			i.cfg.Logger.Warn("load recovery snapshot failed", "error", err)
		}
		return domain.RecoverySnapshot{}, apperrors.ErrNoRecoverySnapshot
	}
	if err := snap.Validate(); err != nil {
		i.cfg.Logger.Warn("ignoring invalid recovery snapshot", "error", err)
		return domain.RecoverySnapshot{}, apperrors.ErrNoRecoverySnapshot
	}
	return snap, nil
}
