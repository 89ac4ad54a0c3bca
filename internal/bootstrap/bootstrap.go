package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	capabilityinadapter "pahm/internal/modules/capability/adapter/in"
	capabilityoutadapter "pahm/internal/modules/capability/adapter/out"
	capabilityservice "pahm/internal/modules/capability/service"
	capabilityusecase "pahm/internal/modules/capability/usecase"
	journalinadapter "pahm/internal/modules/journal/adapter/in"
	journaloutadapter "pahm/internal/modules/journal/adapter/out"
	journalout "pahm/internal/modules/journal/port/out"
	journalservice "pahm/internal/modules/journal/service"
	journalusecase "pahm/internal/modules/journal/usecase"
	practiceinadapter "pahm/internal/modules/practice/adapter/in"
	practiceoutadapter "pahm/internal/modules/practice/adapter/out"
	"pahm/internal/modules/practice/domain"
	practiceout "pahm/internal/modules/practice/port/out"
	practiceservice "pahm/internal/modules/practice/service"
	practiceusecase "pahm/internal/modules/practice/usecase"
	"pahm/internal/platform/clock"
	"pahm/internal/platform/config"
	"pahm/internal/platform/id"
	"pahm/internal/platform/lifecycle"
	"pahm/internal/platform/logging"
	uiapp "pahm/internal/ui/app"
)

const (
	mirrorConnectTimeout = 10 * time.Second
	shutdownTimeout      = 5 * time.Second
)

type App struct {
	Config        config.Config
	Logger        hclog.Logger
	Hub           *lifecycle.Hub
	PracticeCLI   practiceinadapter.CLIHandler
	PracticeTUI   practiceinadapter.TUIHandler
	JournalCLI    journalinadapter.CLIHandler
	CapabilityCLI capabilityinadapter.CLIHandler

	closers []func(ctx context.Context)
}

// NewLogger builds the root logger. The TUI owns the terminal, so tui=true
// sends output to the configured log file instead of stderr.
func NewLogger(cfg config.Config, tui bool) (hclog.Logger, func(), error) {
	if !tui {
		return logging.New(logging.Options{Level: cfg.Log.Level, Output: os.Stderr}), func() {}, nil
	}
	f, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(logging.Options{Level: cfg.Log.Level, Output: f, JSON: true}), func() { _ = f.Close() }, nil
}

func New(ctx context.Context, cfg config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	clk := clock.SystemClock{}
	ids := id.UUID{}
	app := &App{Config: cfg, Logger: logger, Hub: lifecycle.NewHub()}

	stages, err := buildStages(cfg.Stages)
	if err != nil {
		return nil, err
	}
	policy, err := domain.DefaultScoringPolicy().WithOverrides(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}

	index, err := journaloutadapter.NewSQLiteIndex(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new journal index: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) { _ = index.Close() })
	mirror := buildMirror(ctx, cfg, logger)
	app.closers = append(app.closers, func(context.Context) { mirror.Close() })
	journalUC := journalusecase.NewInteractor(journalservice.NewJournalService(
		clk, ids,
		journaloutadapter.NewVaultNoteStore(cfg.VaultPath),
		index,
		mirror,
		logger.Named("journal"),
	))

	capabilityUC := capabilityusecase.NewInteractor(capabilityservice.NewCapabilityService(
		capabilityoutadapter.NewFileManifestStore(cfg.VaultPath),
		capabilityoutadapter.NewGRPCHost(logger.Named("provider")),
		clk,
		logger.Named("capability"),
	))
	app.closers = append(app.closers, func(context.Context) { capabilityoutadapter.CleanupProviders() })

	metrics := buildMetrics(ctx, cfg, logger)
	app.closers = append(app.closers, func(ctx context.Context) { _ = metrics.Close(ctx) })

	recorder := practiceoutadapter.NewJournalRecorder(journalUC)
	practiceCfg := practiceusecase.Config{
		Stages:            stages,
		Sessions:          practiceservice.NewSessionService(clk, ids, policy),
		Ticker:            clk,
		Recovery:          practiceoutadapter.NewFileRecoveryStore(cfg.VaultPath),
		Recorder:          recorder,
		Reflections:       recorder,
		Metrics:           metrics,
		Lifecycle:         app.Hub,
		Logger:            logger.Named("practice"),
		RecoveryThreshold: cfg.Recovery.Threshold,
	}
	if cfg.WakeLockEnabled {
		practiceCfg.WakeGuards = func() practiceout.WakeGuard {
			return practiceoutadapter.NewCapabilityWakeGuard(capabilityUC, logger.Named("wake"))
		}
	}
	if cfg.AudioEnabled {
		practiceCfg.Signalers = func() practiceout.Signaler {
			bell := practiceoutadapter.NewBellSignaler(os.Stdout, logger.Named("bell"))
			return practiceoutadapter.NewCapabilitySignaler(capabilityUC, bell, logger.Named("audio"))
		}
	}
	practiceUC := practiceusecase.NewInteractor(practiceCfg)

	app.PracticeCLI = practiceinadapter.NewCLIHandler(practiceUC)
	app.PracticeTUI = practiceinadapter.NewTUIHandler(practiceUC, practiceinadapter.NewEventStream(practiceinadapter.DefaultEventBuffer))
	app.JournalCLI = journalinadapter.NewCLIHandler(journalUC)
	app.CapabilityCLI = capabilityinadapter.NewCLIHandler(capabilityUC)
	return app, nil
}

// Close releases stores, exporters and provider processes in reverse order.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}

func RunTUI(ctx context.Context, app *App) error {
	model := uiapp.NewModel(app.PracticeTUI, app.JournalCLI, app.CapabilityCLI, app.Hub)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))

	// A terminating signal snapshots the running session before the
	// program exits, so the next start offers to resume it.
	stop := lifecycle.NotifyOS(ctx, app.Hub, func(os.Signal) { program.Quit() })
	defer stop()

	final, err := program.Run()
	if m, ok := final.(uiapp.Model); ok {
		m.Shutdown()
	}
	return err
}

func buildStages(raw []config.StageConfig) (domain.Stages, error) {
	if len(raw) == 0 {
		return domain.NewStages(domain.DefaultStages())
	}
	stages := make([]domain.Stage, 0, len(raw))
	for _, s := range raw {
		stages = append(stages, domain.Stage{
			ID:                     s.ID,
			Name:                   s.Name,
			MinimumDurationSeconds: s.MinimumMinutes * 60,
			DefaultDurationSeconds: s.DefaultMinutes * 60,
		})
	}
	out, err := domain.NewStages(stages)
	if err != nil {
		return domain.Stages{}, fmt.Errorf("stages config: %w", err)
	}
	return out, nil
}

func buildMirror(ctx context.Context, cfg config.Config, logger hclog.Logger) journalout.Mirror {
	if cfg.Mirror.PostgresDSN == "" {
		return journaloutadapter.NewNoopMirror()
	}
	ctx, cancel := context.WithTimeout(ctx, mirrorConnectTimeout)
	defer cancel()
	mirror, err := journaloutadapter.NewPostgresMirror(ctx, cfg.Mirror.PostgresDSN, logger.Named("mirror"))
	if err != nil {
		logger.Warn("postgres mirror unavailable, sessions stay local", "error", err)
		return journaloutadapter.NewNoopMirror()
	}
	return mirror
}

func buildMetrics(ctx context.Context, cfg config.Config, logger hclog.Logger) practiceout.MetricsExporter {
	if !cfg.OTel.Enabled {
		return practiceoutadapter.NewNoopMetrics()
	}
	metrics, err := practiceoutadapter.NewOTelMetrics(ctx, practiceoutadapter.OTelConfig{
		Endpoint: cfg.OTel.Endpoint,
		Enabled:  cfg.OTel.Enabled,
		Insecure: cfg.OTel.Insecure,
	})
	if err != nil {
		logger.Warn("otel metrics unavailable", "error", err)
		return practiceoutadapter.NewNoopMetrics()
	}
	return metrics
}
