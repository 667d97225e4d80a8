package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tk0221/envdiff/packages/core/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	verboseFlag   int // 0=warnings, 1=-v info, 2=-vv debug
	noColorFlag   bool
	logFormatFlag string

	// appConfig is loaded before every command runs.
	appConfig = config.DefaultConfig()
	logger    = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "envdiff",
	Short: "Run one HTTP request against many environments and diff the responses.",
	Long: `envdiff sends the same logical HTTP request to several environments
(staging, production, a local build...) at once and compares the JSON
bodies structurally, reporting every added, removed or changed field by path.

Requests and environments live in a workspace file (envdiff.yaml).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadAppConfig,
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		code := ExitUsageError
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		if ee == nil || ee.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(code)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default: .envdiff.yaml in the working directory)")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v for info logs, -vv for debug logs)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output (env: ENVDIFF_NOCOLOR)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: text or json (env: ENVDIFF_LOGFORMAT)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

// loadAppConfig reads the config file and ENVDIFF_* variables, applies the
// global flags and sets up logging.
func loadAppConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	if cmd.Flags().Changed("no-color") {
		cfg.NoColor = config.BoolPtr(noColorFlag)
	}
	if verboseFlag > 0 {
		cfg.Verbose = config.BoolPtr(true)
	}
	if logFormatFlag != "" {
		cfg.LogFormat = logFormatFlag
	}

	appConfig = cfg
	if cfg.GetNoColor() {
		color.NoColor = true
	}
	logger = newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	logger.Debug("configuration loaded", "config", configFlag, "timeout", cfg.TimeoutDuration(), "arrayStrategy", cfg.ArrayStrategy)
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verboseFlag >= 2:
		level = slog.LevelDebug
	case verboseFlag == 1 || cfg.GetVerbose():
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
