package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pahm/internal/bootstrap"
	"pahm/internal/platform/config"
	apperrors "pahm/internal/platform/errors"
)

type globalFlags struct {
	vaultPath  string
	configFile string
	logLevel   string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "pahm",
		Short:         "PAHM meditation practice timer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.vaultPath, "vault", "", "vault path (default $PAHM_VAULT or .)")
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default <vault>/pahm.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newStagesCmd(flags))
	root.AddCommand(newRecoveryCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newReindexCmd(flags))
	root.AddCommand(newReflectCmd(flags))
	root.AddCommand(newCapsCmd(flags))
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(config.Options{VaultPath: flags.vaultPath, ConfigFile: flags.configFile})
	if err != nil {
		return config.Config{}, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

// withApp builds the application for one command and tears it down after.
func withApp(ctx context.Context, flags *globalFlags, tui bool, fn func(*bootstrap.App) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, closeLog, err := bootstrap.NewLogger(cfg, tui)
	if err != nil {
		return err
	}
	defer closeLog()
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the practice terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, true, func(app *bootstrap.App) error {
				return bootstrap.RunTUI(cmd.Context(), app)
			})
		},
	}
}

func newStagesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List practice stages and their durations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				for _, s := range app.PracticeCLI.Stages(cmd.Context()) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tmin=%dm\tdefault=%dm\n",
						s.ID, s.Name, s.MinimumDurationSeconds/60, s.DefaultDurationSeconds/60)
				}
				return nil
			})
		},
	}
}

func newRecoveryCmd(flags *globalFlags) *cobra.Command {
	recovery := &cobra.Command{Use: "recovery", Short: "Inspect the crash-recovery snapshot"}

	recovery.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the pending recovery snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				out, err := app.PracticeCLI.PendingRecovery(cmd.Context())
				if errors.Is(err, apperrors.ErrNoRecoverySnapshot) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no pending session")
					return nil
				}
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "session=%s stage=%d posture=%s\n", out.SessionID, out.StageID, out.Posture)
				_, _ = fmt.Fprintf(w, "elapsed=%s remaining=%s age=%s\n",
					seconds(out.ElapsedSeconds), seconds(out.RemainingSeconds), out.Age.Round(time.Second))
				writeTally(w, out.Tally)
				return nil
			})
		},
	})

	recovery.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Discard the pending recovery snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				if err := app.PracticeCLI.ClearRecovery(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "recovery snapshot cleared")
				return nil
			})
		},
	})
	return recovery
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Query recorded sessions"}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				sessions, err := app.JournalCLI.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions recorded")
					return nil
				}
				for _, s := range sessions {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tstage=%d\t%s\tpresent=%d%%\tscore=%.1f\t%s\n",
						s.ID, s.Timestamp.Local().Format("2006-01-02 15:04"), s.StageID,
						seconds(s.ActualDurationSeconds), s.PresentPercentage, s.QualityScore, s.EndReason)
				}
				return nil
			})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	history.AddCommand(listCmd)

	history.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session with its PAHM tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				d, err := app.JournalCLI.Show(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "session=%s stage=%d posture=%s\n", d.ID, d.StageID, d.Posture)
				_, _ = fmt.Fprintf(w, "started=%s duration=%s completed=%t reason=%s\n",
					d.StartedAt.Local().Format(time.RFC3339), seconds(d.ActualDurationSeconds), d.IsFullyCompleted, d.EndReason)
				_, _ = fmt.Fprintf(w, "present=%d%% score=%.1f note=%s\n", d.PresentPercentage, d.QualityScore, d.NotePath)
				writeTally(w, d.Tally)
				if strings.TrimSpace(d.Note) != "" {
					_, _ = fmt.Fprintf(w, "note: %s\n", d.Note)
				}
				return nil
			})
		},
	})

	history.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Summarize practice across all sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				st, err := app.JournalCLI.Stats(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "sessions=%d completed=%d minutes=%d\n", st.Sessions, st.FullyCompleted, st.TotalMinutes)
				_, _ = fmt.Fprintf(w, "avg_present=%.1f%% avg_score=%.2f\n", st.AveragePresent, st.AverageQuality)
				stages := make([]int, 0, len(st.PerStage))
				for id := range st.PerStage {
					stages = append(stages, id)
				}
				sort.Ints(stages)
				for _, id := range stages {
					_, _ = fmt.Fprintf(w, "stage %d\t%d\n", id, st.PerStage[id])
				}
				return nil
			})
		},
	})
	return history
}

func newReindexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the session index from vault notes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				out, err := app.JournalCLI.Reindex(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d sessions, %d reflections\n", out.Sessions, out.Reflections)
				return nil
			})
		},
	}
}

func newReflectCmd(flags *globalFlags) *cobra.Command {
	var emotion, sessionID string
	reflect := &cobra.Command{
		Use:   "reflect <note>",
		Short: "Record a post-session reflection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				if err := app.PracticeCLI.Reflect(cmd.Context(), sessionID, emotion, strings.Join(args, " ")); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "reflection recorded")
				return nil
			})
		},
	}
	reflect.Flags().StringVar(&emotion, "emotion", "", "how the session felt, e.g. calm or restless")
	reflect.Flags().StringVar(&sessionID, "session-id", "", "session the reflection belongs to")
	return reflect
}

func newCapsCmd(flags *globalFlags) *cobra.Command {
	caps := &cobra.Command{Use: "caps", Short: "Host capability providers"}

	caps.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured capability providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				providers, err := app.CapabilityCLI.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(providers) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no capability providers configured")
					return nil
				}
				for _, p := range providers {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t binary=%s caps=%s\n",
						p.Name, p.Version, p.Enabled, p.Binary, strings.Join(p.Capabilities, ","))
				}
				return nil
			})
		},
	})

	caps.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate provider checksums and handshake",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, false, func(app *bootstrap.App) error {
				results, err := app.CapabilityCLI.Doctor(cmd.Context())
				if err != nil {
					return err
				}
				if len(results) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no capability providers configured")
					return nil
				}
				failed := 0
				for _, r := range results {
					status := "ok"
					if !r.ChecksumValid || !r.BinaryReachable || !r.LifecycleOK {
						status = "fail"
						failed++
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tchecksum=%t binary=%t lifecycle=%t caps=%s",
						r.Name, status, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK, strings.Join(r.Advertised, ","))
					if r.Error != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%s", r.Error)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				if failed > 0 {
					return fmt.Errorf("%d capability provider(s) failed checks", failed)
				}
				return nil
			})
		},
	})
	return caps
}

func seconds(n int) string {
	return (time.Duration(n) * time.Second).String()
}

func writeTally(w io.Writer, tally map[string]int) {
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %-12s %d\n", k, tally[k])
	}
}
