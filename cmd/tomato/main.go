// Package main provides the CLI entrypoint for tomato.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tomato/internal/clock"
	"github.com/verte-zerg/tomato/internal/config"
	"github.com/verte-zerg/tomato/internal/counter"
	"github.com/verte-zerg/tomato/internal/kv"
	"github.com/verte-zerg/tomato/internal/logging"
	"github.com/verte-zerg/tomato/internal/model"
	"github.com/verte-zerg/tomato/internal/pomodoro"
	"github.com/verte-zerg/tomato/internal/stats"
	"github.com/verte-zerg/tomato/internal/store"
	"github.com/verte-zerg/tomato/internal/tui"
)

const (
	defaultStatsDays = 14
	defaultLogLevel  = "info"
)

var (
	dbPath    string
	ephemeral bool
	altScreen bool
	logFile   string
	logLevel  string

	statsDays  int
	statsSince string

	resetYes bool

	logOut *os.File
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		_ = teardownCmd(rootCmd, nil)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:                "tomato",
		Short:              "Terminal focus timer",
		SilenceUsage:       true,
		SilenceErrors:      false,
		PersistentPreRunE:  setupCmd,
		PersistentPostRunE: teardownCmd,
		RunE:               runTimerCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dbPath, "db", config.DefaultDBPath(), "path to the SQLite database")
	flags.BoolVar(&ephemeral, "ephemeral", false, "keep counters in memory only")
	flags.StringVar(&logFile, "log-file", config.DefaultLogPath(), "log file path")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&altScreen, "alt-screen", true, "use the terminal's alternate screen")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

// setupCmd merges the config file into unset flags and installs the logger.
func setupCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Storage.Path)
	applyBoolConfig(cmd, "ephemeral", &ephemeral, fileCfg.Storage.Ephemeral)
	applyBoolConfig(cmd, "alt-screen", &altScreen, fileCfg.Timer.AltScreen)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	f, err := logging.Setup(logFile, level)
	if err != nil {
		logErrf("logging disabled: %v\n", err)
		slog.SetDefault(logging.New(io.Discard, level))
		return nil
	}
	logOut = f
	return nil
}

func teardownCmd(_ *cobra.Command, _ []string) error {
	if logOut == nil {
		return nil
	}
	if err := logOut.Close(); err != nil {
		logErrf("failed to close log file: %v\n", err)
	}
	logOut = nil
	return nil
}

// backend bundles the counter storage with its optional journal.
type backend struct {
	kv      kv.Store
	journal *store.Store
	close   func()
}

func openBackend() (backend, error) {
	if ephemeral {
		slog.Info("using in-memory counters")
		return backend{kv: kv.NewMemory(), close: func() {}}, nil
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return backend{}, fmt.Errorf("failed to open db: %w", err)
	}
	return backend{
		kv:      st,
		journal: st,
		close: func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		},
	}, nil
}

func newCounterStore(b backend, clk clockwork.Clock) *counter.Store {
	counters := counter.New(b.kv, clk)
	if b.journal != nil {
		counters.SetJournal(b.journal, uuid.NewString())
	}
	return counters
}

func runTimerCmd(_ *cobra.Command, _ []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	clk := clockwork.NewRealClock()
	counters := newCounterStore(b, clk)
	counters.Load(context.Background())

	timer := pomodoro.New(counters, clock.NewWaker(clk))
	defer timer.Stop()

	opts := []tea.ProgramOption{}
	if altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	slog.Info("timer started", "db", dbPath, "ephemeral", ephemeral)
	program := tea.NewProgram(tui.NewModel(timer), opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completed session stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsDays, "days", defaultStatsDays, "number of days to show")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if ephemeral {
		return fmt.Errorf("stats are not available with --ephemeral")
	}
	if statsDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	cfg := model.StatsConfig{Days: statsDays}
	if statsSince != "" {
		parsed, err := time.ParseInLocation(model.DayLayout, statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}

	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	ctx := context.Background()
	clk := clockwork.NewRealClock()
	counters := newCounterStore(b, clk).Load(ctx)
	report, err := stats.BuildReport(ctx, b.journal, counters, cfg, clk.Now())
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderDaily(out, report, stats.TerminalWidth()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset all stats",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "confirm deleting all stats")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return fmt.Errorf("refusing to reset stats without --yes")
	}
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	newCounterStore(b, clockwork.NewRealClock()).ResetAll(context.Background())
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "All stats cleared."); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tomato configuration
# Uncomment a value to enable it. CLI flags override config values.

[timer]
# alt-screen = true       # Use the terminal's alternate screen

[storage]
# path = %q
# ephemeral = false       # Keep counters in memory only

[log]
# file = %q
# level = %q
`,
		config.DefaultDBPath(),
		config.DefaultLogPath(),
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
