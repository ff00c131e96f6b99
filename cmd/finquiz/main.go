// Package main provides the CLI entrypoint for finquiz.
package main

import (
	"bufio"
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
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/config"
	"github.com/verte-zerg/finquiz/internal/generator"
	"github.com/verte-zerg/finquiz/internal/model"
	"github.com/verte-zerg/finquiz/internal/stats"
	"github.com/verte-zerg/finquiz/internal/statsui"
	"github.com/verte-zerg/finquiz/internal/store"
	"github.com/verte-zerg/finquiz/internal/tui"
)

const defaultFeedbackDelay = 500 * time.Millisecond

var (
	bankPath     string
	storeKind    string
	dbPath       string
	noValidate   bool
	quizMode     string
	quizWeeks    []string
	quizDelay    time.Duration
	quizSeed     int64
	statsMode    string
	statsSince   string
	statsLast    int
	statsMissed  int
	statsPlain   bool
	resetConfirm bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "finquiz",
		Short:         "Terminal quiz trainer for finance literacy",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runQuizCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&bankPath, "bank", "", "question bank file (.json or .toml; default: built-in bank)")
	pf.StringVar(&storeKind, "store", store.KindSQLite, "stats backend (sqlite or json)")
	pf.StringVar(&dbPath, "db", "", "stats file path (default under $XDG_DATA_HOME/finquiz)")
	pf.BoolVar(&noValidate, "no-validate", false, "skip question bank validation")

	rootCmd.Flags().StringVar(&quizMode, "mode", "", "start immediately in this mode (weekly, review, infinite)")
	rootCmd.Flags().StringSliceVar(&quizWeeks, "weeks", nil, "week tags to practice, comma separated")
	rootCmd.Flags().DurationVar(&quizDelay, "feedback-delay", defaultFeedbackDelay, "pause between answering and the explanation")
	rootCmd.Flags().Int64Var(&quizSeed, "seed", 0, "random seed (0 picks one)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newWeeksCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// resolveConfig merges .env, environment, config file and flags. Flags win.
func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return model.Config{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = config.ApplyEnv(fileCfg)

	q := fileCfg.Quiz
	applyStringConfig(cmd, "bank", &bankPath, q.Bank)
	applyStringConfig(cmd, "store", &storeKind, q.Store)
	applyStringConfig(cmd, "db", &dbPath, q.DB)
	if q.Validate != nil && !cmd.Flags().Changed("no-validate") {
		noValidate = !*q.Validate
	}
	if cmd == cmd.Root() {
		applyStringConfig(cmd, "mode", &quizMode, q.Mode)
		applyStringSliceConfig(cmd, "weeks", &quizWeeks, q.Weeks)
		if err := applyDurationConfig(cmd, "feedback-delay", &quizDelay, q.FeedbackDelay); err != nil {
			return model.Config{}, err
		}
	}

	cfg := model.Config{
		BankPath:      bankPath,
		StoreKind:     strings.ToLower(strings.TrimSpace(storeKind)),
		DBPath:        dbPath,
		Mode:          strings.TrimSpace(quizMode),
		Weeks:         cleanWeeks(quizWeeks),
		FeedbackDelay: quizDelay,
		Seed:          quizSeed,
		Validate:      !noValidate,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultStorePath(cfg.StoreKind)
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func cleanWeeks(weeks []string) []string {
	out := make([]string, 0, len(weeks))
	for _, w := range weeks {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func defaultStorePath(kind string) string {
	if kind == store.KindJSON {
		return config.DefaultJSONStorePath(store.StorageKey)
	}
	return config.DefaultDBPath()
}

func validateConfig(cfg model.Config) error {
	if cfg.Mode != "" {
		if _, ok := model.ParseMode(cfg.Mode); !ok {
			return fmt.Errorf("--mode must be weekly, review or infinite")
		}
	}
	switch cfg.StoreKind {
	case store.KindSQLite, store.KindJSON:
	default:
		return fmt.Errorf("--store must be %s or %s", store.KindSQLite, store.KindJSON)
	}
	if cfg.FeedbackDelay < 0 {
		return fmt.Errorf("--feedback-delay must be >= 0")
	}
	return nil
}

func validateWeeks(b *bank.Bank, weeks []string) error {
	known := make(map[string]struct{})
	for _, key := range b.WeekKeys() {
		known[key] = struct{}{}
	}
	for _, w := range weeks {
		if _, ok := known[w]; !ok {
			return fmt.Errorf("unknown week %q (run: finquiz weeks)", w)
		}
	}
	return nil
}

func openLogger() (*slog.Logger, func()) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logErrf("failed to create log directory: %v\n", err)
		return slog.New(slog.DiscardHandler), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logErrf("failed to open log file: %v\n", err)
		return slog.New(slog.DiscardHandler), func() {}
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
}

func openBackend(cfg model.Config, logger *slog.Logger) (store.Backend, func(), error) {
	st, err := store.OpenKind(cfg.StoreKind, cfg.DBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stats store: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close stats store: %v\n", cerr)
		}
	}, nil
}

func runQuizCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	b, err := bank.Load(cfg.BankPath, cfg.Validate)
	if err != nil {
		return fmt.Errorf("failed to load question bank: %w", err)
	}
	if err := validateWeeks(b, cfg.Weeks); err != nil {
		return err
	}

	logger, closeLog := openLogger()
	defer closeLog()
	st, closeStore, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("quiz started", "bank", cfg.BankPath, "store", cfg.StoreKind, "db", cfg.DBPath, "questions", len(b.Questions))

	gen := generator.New()
	if cfg.Seed != 0 {
		gen = generator.NewSeeded(cfg.Seed)
	}
	m := tui.NewModel(cfg, b, st, gen, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
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

func newWeeksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weeks",
		Short: "List week tags in the question bank",
		Args:  cobra.NoArgs,
		RunE:  runWeeksCmd,
	}
}

func runWeeksCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	b, err := bank.Load(cfg.BankPath, cfg.Validate)
	if err != nil {
		return fmt.Errorf("failed to load question bank: %w", err)
	}
	return writeWeeks(cmd.OutOrStdout(), b)
}

func writeWeeks(w io.Writer, b *bank.Bank) error {
	keys := b.WeekKeys()
	if len(keys) == 0 {
		_, err := fmt.Fprintln(w, "No weeks found.")
		return err
	}
	counts := b.CountByWeek()
	for _, key := range keys {
		if _, err := fmt.Fprintf(w, "%-4s %3d  %s\n", key, counts[key], b.Week(key).Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "session mode filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsMissed, "missed-top", 10, "number of most-missed questions to show (0 = all)")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print text tables instead of the interactive view")

	cmd.AddCommand(newStatsResetCmd())
	cmd.AddCommand(newStatsExportCmd())
	cmd.AddCommand(newStatsImportCmd())
	return cmd
}

func statsConfig() (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsMode != "" {
		if _, ok := model.ParseMode(statsMode); !ok {
			return model.StatsConfig{}, fmt.Errorf("--mode must be weekly, review or infinite")
		}
	}
	if statsLast < 0 || statsMissed < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last and --missed-top must be >= 0")
	}
	return model.StatsConfig{
		Mode:      statsMode,
		Since:     sinceTime,
		Last:      statsLast,
		MissedTop: statsMissed,
	}, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	statsCfg, err := statsConfig()
	if err != nil {
		return err
	}
	b, err := bank.Load(cfg.BankPath, cfg.Validate)
	if err != nil {
		return fmt.Errorf("failed to load question bank: %w", err)
	}
	st, closeStore, err := openBackend(cfg, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	if statsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		report, err := stats.BuildReport(context.Background(), st, b, statsCfg)
		if err != nil {
			return err
		}
		return stats.RenderReport(cmd.OutOrStdout(), report)
	}

	m := statsui.NewModel(st, b, statsCfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newStatsResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all recorded answers",
		Args:  cobra.NoArgs,
		RunE:  runStatsResetCmd,
	}
	cmd.Flags().BoolVarP(&resetConfirm, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func runStatsResetCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !resetConfirm {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete all stats in %s? [y/N] ", cfg.DBPath))
		if err != nil {
			return err
		}
		if !ok {
			logErrln("Aborted.")
			return nil
		}
	}
	st, closeStore, err := openBackend(cfg, nil)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := st.Reset(); err != nil {
		return fmt.Errorf("failed to reset stats: %w", err)
	}
	logErrln("Stats cleared.")
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func newStatsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write stats as JSON (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatsExportCmd,
	}
}

func runStatsExportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openBackend(cfg, nil)
	if err != nil {
		return err
	}
	defer closeStore()
	snap, err := st.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}
	data, err := store.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	logErrf("Wrote %s\n", args[0])
	return nil
}

func newStatsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace stats with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatsImportCmd,
	}
}

func runStatsImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}
	snap, err := store.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("failed to parse import: %w", err)
	}
	st, closeStore, err := openBackend(cfg, nil)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := st.Import(snap); err != nil {
		return fmt.Errorf("failed to import stats: %w", err)
	}
	logErrf("Imported %d questions\n", len(snap.QuestionStats))
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

func applyStringSliceConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = d
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# finquiz configuration
# Uncomment a value to enable it. Environment variables (%s, %s, %s)
# override these values and CLI flags override everything.

[quiz]
# bank = "/path/to/bank.json"   # Question bank (.json or .toml), default: built-in
# store = %q                # Stats backend: sqlite or json
# db = %q
# mode = "weekly"               # Start immediately: weekly, review or infinite
# weeks = ["1", "3"]            # Weeks selected at startup
# feedback-delay = %q         # Pause between answering and the explanation
# validate = true               # Check the question bank at startup
`,
		config.EnvBank,
		config.EnvStore,
		config.EnvDB,
		store.KindSQLite,
		config.DefaultDBPath(),
		defaultFeedbackDelay.String(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
