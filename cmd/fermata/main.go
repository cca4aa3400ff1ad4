// Package main provides the CLI entrypoint for fermata.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/fermata/internal/config"
	"github.com/verte-zerg/fermata/internal/learner"
	"github.com/verte-zerg/fermata/internal/model"
	"github.com/verte-zerg/fermata/internal/quiz"
	"github.com/verte-zerg/fermata/internal/stats"
	"github.com/verte-zerg/fermata/internal/statsui"
	"github.com/verte-zerg/fermata/internal/store"
	"github.com/verte-zerg/fermata/internal/theory"
	"github.com/verte-zerg/fermata/internal/tui"
)

const (
	defaultMode         = "fifths"
	defaultRoundSeconds = 60
	defaultThreshold    = 0.7
	defaultWeightFloor  = 0.1
	defaultCurveWindow  = 20
)

var (
	practiceMode      string
	practiceSeconds   int
	practiceThreshold float64
	practiceFloor     float64

	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	resetMode     string
	calibrateMode string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fermata",
		Short:         "TUI music theory drill trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "drill mode (see: fermata modes)")
	rootCmd.Flags().IntVar(&practiceSeconds, "seconds", defaultRoundSeconds, "round length in seconds")
	rootCmd.Flags().Float64Var(&practiceThreshold, "threshold", defaultThreshold, "fluency ratio before a new group is suggested (0-1)")
	rootCmd.Flags().Float64Var(&practiceFloor, "weight-floor", defaultWeightFloor, "minimum selection weight for fluent items (0-1)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newModesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCalibrateCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyIntConfig(cmd, "seconds", &practiceSeconds, fileCfg.Practice.RoundSeconds)
	applyFloatConfig(cmd, "threshold", &practiceThreshold, fileCfg.Practice.ExpansionThreshold)
	applyFloatConfig(cmd, "weight-floor", &practiceFloor, fileCfg.Practice.WeightFloor)

	cfg := model.Config{
		Mode:               practiceMode,
		RoundSeconds:       practiceSeconds,
		ExpansionThreshold: practiceThreshold,
		WeightFloor:        practiceFloor,
	}

	if err := validateConfig(cfg); err != nil {
		return err
	}

	mode, err := theory.ByName(cfg.Mode)
	if err != nil {
		return err
	}

	storePath := config.DefaultDBPath()
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	lm, err := learner.New(ctx, st, mode.Name, mode.Universe())
	if err != nil {
		return fmt.Errorf("failed to load item stats: %w", err)
	}

	engine := quiz.New(mode, lm, st, cfg)
	indices, found, err := st.LoadScope(ctx, mode.Name)
	if err != nil {
		logErrf("failed to load scope: %v\n", err)
	}
	if !found {
		indices = []int{0}
	}
	if err := engine.SetEnabledGroups(indices); err != nil {
		return fmt.Errorf("failed to set group scope: %w", err)
	}

	program := tea.NewProgram(tui.NewModel(mode, engine, st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
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

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List drill modes",
		Args:  cobra.NoArgs,
		RunE:  runModesCmd,
	}
}

func runModesCmd(cmd *cobra.Command, _ []string) error {
	for _, mode := range theory.Modes() {
		groups := mode.Groups()
		line := fmt.Sprintf("%-10s %s (%d groups, %d items)",
			mode.Name, mode.Title, len(groups), len(mode.Universe()))
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", defaultMode, "drill mode")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print stats to stdout instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	mode, err := theory.ByName(statsMode)
	if err != nil {
		return err
	}

	cfg := model.StatsConfig{
		Mode:        mode.Name,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	storePath := config.DefaultDBPath()
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		return printPlainStats(cmd, st, cfg, mode.Universe())
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg, mode.Universe()), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printPlainStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig, universe []string) error {
	report, err := stats.BuildReport(context.Background(), st, cfg, universe)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Rounds); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if err := stats.RenderItemTable(out, report.Items); err != nil {
		return fmt.Errorf("failed to render item table: %w", err)
	}
	if err := stats.RenderCurves(out, report.Rounds, cfg.CurveWindow); err != nil {
		return fmt.Errorf("failed to render curves: %w", err)
	}
	return nil
}

func newCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Discard the motor baseline so the next session recalibrates",
		Args:  cobra.NoArgs,
		RunE:  runCalibrateCmd,
	}
	cmd.Flags().StringVar(&calibrateMode, "mode", defaultMode, "drill mode")
	return cmd
}

func runCalibrateCmd(cmd *cobra.Command, _ []string) error {
	mode, err := theory.ByName(calibrateMode)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if err := st.DeleteBaseline(context.Background(), mode.Name); err != nil {
		return fmt.Errorf("failed to delete baseline: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Baseline for %q cleared; next session will recalibrate.\n", mode.Name); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all progress for a mode",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().StringVar(&resetMode, "mode", "", "drill mode (required)")
	_ = cmd.MarkFlagRequired("mode")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	mode, err := theory.ByName(resetMode)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if err := st.ClearMode(context.Background(), mode.Name); err != nil {
		return fmt.Errorf("failed to reset mode: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "All progress for %q erased.\n", mode.Name); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# fermata configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q                # Drill mode (see: fermata modes)
# round-seconds = %d         # Round length in seconds
# expansion-threshold = %.1f # Fluency ratio before a new group is suggested
# weight-floor = %.1f        # Minimum selection weight for fluent items
`,
		defaultMode,
		defaultRoundSeconds,
		defaultThreshold,
		defaultWeightFloor,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Mode == "" {
		return fmt.Errorf("--mode must not be empty")
	}
	if cfg.RoundSeconds <= 0 {
		return fmt.Errorf("--seconds must be > 0")
	}
	if cfg.ExpansionThreshold <= 0 || cfg.ExpansionThreshold > 1 {
		return fmt.Errorf("--threshold must be between 0 and 1")
	}
	if cfg.WeightFloor < 0 || cfg.WeightFloor > 1 {
		return fmt.Errorf("--weight-floor must be between 0 and 1")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
