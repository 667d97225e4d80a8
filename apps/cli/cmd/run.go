package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tk0221/envdiff/packages/compare"
	"github.com/tk0221/envdiff/packages/core/config"
	"github.com/tk0221/envdiff/packages/core/workspace"
	"github.com/tk0221/envdiff/packages/dispatch"
	"github.com/tk0221/envdiff/packages/http"
	"github.com/tk0221/envdiff/packages/output"
	"github.com/tk0221/envdiff/packages/report"
)

var runCmd = &cobra.Command{
	Use:   "run [request-id...]",
	Short: "Send requests to every environment and diff the responses",
	Long: `Run resolves each request against the selected environments, sends all
variants concurrently and compares every environment's response body to the
baseline environment.

Without request ids every request in the workspace is run. Without --env
every environment is used, and the first one is the baseline.

Examples:
  envdiff run
  envdiff run get-user --env staging --env production
  envdiff run get-user --baseline production --select data.items
  envdiff run list-orders --ignore meta.requestId --ignore data[0].updatedAt
  envdiff run --array lcs -o json --output-file drift.json
  envdiff run get-user --repeat 20
  envdiff run --watch`,
	ValidArgsFunction: completeRequestIDs,
	RunE:              runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	envsFlag        []string
	baselineFlag    string
	varFlags        []string
	selectFlag      string
	ignoreFlags     []string
	arrayFlag       string
	repeatFlag      int
	watchFlag       bool
	outputFlag      string
	outputFileFlag  string
	maxDiffsFlag    int
	timeoutFlag     string
	concurrencyFlag int
	rateFlag        float64
	proxyFlag       string
	insecureFlag    bool
	failOnDriftFlag bool
	dryRunFlag      bool
)

func init() {
	addWorkspaceFlags(runCmd)
	addEnvFileFlag(runCmd)
	addSelectionFlags(runCmd)

	// Comparison flags
	runCmd.Flags().StringVar(&baselineFlag, "baseline", "", "Environment the others are compared to (default: first selected) (env: ENVDIFF_BASELINE)")
	addCompareFlags(runCmd)
	runCmd.Flags().BoolVar(&failOnDriftFlag, "fail-on-drift", true, "Exit with status 1 when any environment drifts from the baseline")

	addOutputFlags(runCmd)

	// Execution flags
	runCmd.Flags().IntVarP(&repeatFlag, "repeat", "n", 1, "Send each request this many times and report latency percentiles")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the workspace and env file and re-run on change")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show the resolved requests without sending them")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", "", "Per-target timeout (e.g. 30s, 500ms) (env: ENVDIFF_TIMEOUT in ms)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 0, "Maximum requests in flight (0 = all targets at once) (env: ENVDIFF_CONCURRENCY)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", 0, "Maximum requests per second (0 = unlimited) (env: ENVDIFF_RATELIMIT)")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", "", "Proxy URL for HTTP requests (env: ENVDIFF_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", false, "Disable SSL certificate validation")

	_ = runCmd.RegisterFlagCompletionFunc("baseline", completeEnvironmentIDs)
}

// addSelectionFlags registers --env and --var, shared by run and resolve.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&envsFlag, "env", "e", nil, "Environment to include (repeatable, default: all)")
	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "Override a variable in every environment (name=value, repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("env", completeEnvironmentIDs)
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatReport(r *report.Report)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// runSettings is the effective configuration of one run: config file values
// with command-line flags applied on top.
type runSettings struct {
	timeout     time.Duration
	concurrency int
	rate        float64
	proxy       string
	validateSSL bool
	baseline    string
	format      string
	compare     compare.Options
	builder     *http.Builder
}

func newRunSettings(cmd *cobra.Command) (*runSettings, error) {
	cfg := appConfig
	s := &runSettings{
		timeout:     cfg.TimeoutDuration(),
		concurrency: cfg.Concurrency,
		rate:        cfg.RateLimit,
		proxy:       cfg.Proxy,
		validateSSL: cfg.GetValidateSSL(),
		baseline:    cfg.Baseline,
		format:      cfg.Output,
		builder: &http.Builder{
			PreserveAuthorization: strings.EqualFold(cfg.AuthPrecedence, config.AuthRequest),
			GlobalSubstitution:    cfg.GetGlobalSubstitution(),
			ProxyPrefix:           cfg.ProxyPrefix,
		},
	}

	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err))
		}
		s.timeout = d
	}
	if cmd.Flags().Changed("concurrency") {
		s.concurrency = concurrencyFlag
	}
	if cmd.Flags().Changed("rate") {
		s.rate = rateFlag
	}
	if proxyFlag != "" {
		s.proxy = proxyFlag
	}
	if insecureFlag {
		s.validateSSL = false
	}
	if baselineFlag != "" {
		s.baseline = baselineFlag
	}
	if outputFlag != "" {
		s.format = outputFlag
	}
	if repeatFlag < 1 {
		return nil, withExitCode(ExitUsageError, fmt.Errorf("--repeat must be at least 1"))
	}

	opts, err := compareOptions()
	if err != nil {
		return nil, err
	}
	s.compare = opts
	return s, nil
}

// compareOptions reads --array, --select and --ignore.
func compareOptions() (compare.Options, error) {
	strategy := appConfig.ArrayStrategy
	if arrayFlag != "" {
		strategy = arrayFlag
	}
	arrays, err := compare.ParseArrayStrategy(strategy)
	if err != nil {
		return compare.Options{}, withExitCode(ExitUsageError, err)
	}
	return compare.Options{
		Arrays: arrays,
		Select: selectFlag,
		Ignore: ignoreFlags,
	}, nil
}

// addCompareFlags registers the flags that shape the structural diff.
func addCompareFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&selectFlag, "select", "", "Compare only this part of each body (gjson path, e.g. data.items)")
	cmd.Flags().StringArrayVar(&ignoreFlags, "ignore", nil, "Ignore differences at this path and below (repeatable)")
	cmd.Flags().StringVar(&arrayFlag, "array", "", "Array comparison: positional or lcs (env: ENVDIFF_ARRAYSTRATEGY)")
	_ = cmd.RegisterFlagCompletionFunc("array", cobra.FixedCompletions([]string{config.ArrayPositional, config.ArrayLCS}, cobra.ShellCompDirectiveNoFileComp))
}

// addOutputFlags registers the report output flags.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output format: console, json, junit, tap (env: ENVDIFF_OUTPUT)")
	cmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to file (default: stdout)")
	cmd.Flags().IntVar(&maxDiffsFlag, "max-diffs", output.DefaultMaxDiffs, "Differences listed per comparison in console output (0 = all)")
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions([]string{"console", "json", "junit", "tap"}, cobra.ShellCompDirectiveNoFileComp))
}

func (s *runSettings) client() *http.Client {
	return http.NewClient(
		http.WithTimeout(s.timeout),
		http.WithFollowRedirects(appConfig.GetFollowRedirects()),
		http.WithMaxRedirects(appConfig.MaxRedirects),
		http.WithValidateSSL(s.validateSSL),
		http.WithProxy(s.proxy),
		http.WithDefaultHeaders(appConfig.Headers),
	)
}

func (s *runSettings) dispatcher() *dispatch.Dispatcher {
	return dispatch.New(s.client(),
		dispatch.WithLogger(logger),
		dispatch.WithConcurrency(s.concurrency),
		dispatch.WithRateLimit(s.rate),
		dispatch.WithTimeout(s.timeout),
	)
}

func newFormatter(format string, w io.Writer, toFile bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w)), nil
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w)), nil
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(verboseFlag > 0 || appConfig.GetVerbose()),
			output.WithNoColor(appConfig.GetNoColor() || toFile),
			output.WithMaxDiffs(maxDiffsFlag),
		), nil
	}
	return nil, withExitCode(ExitUsageError, fmt.Errorf("unknown output format %q (want console, json, junit or tap)", format))
}

// runOutcome tallies one pass over the selected requests.
type runOutcome struct {
	reports     int
	drifting    int
	unreachable int // reports where no target answered
}

func (o runOutcome) exitCode(failOnDrift bool) int {
	switch {
	case o.reports > 0 && o.unreachable == o.reports:
		return ExitNetworkError
	case o.drifting > 0 && failOnDrift:
		return ExitDrift
	}
	return ExitSuccess
}

func runCommand(cmd *cobra.Command, args []string) error {
	settings, err := newRunSettings(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dryRunFlag {
		return dryRun(cmd, settings, args)
	}

	outcome, err := runPass(ctx, cmd, settings, args)
	if !watchFlag {
		if err != nil {
			return err
		}
		if code := outcome.exitCode(failOnDriftFlag); code != ExitSuccess {
			return withExitCode(code, nil)
		}
		return nil
	}
	if err != nil {
		logger.Error("run failed", "error", err)
	}
	return watch(ctx, cmd, settings, args)
}

// runPass loads the workspace, runs every selected request and writes one
// report per request.
func runPass(ctx context.Context, cmd *cobra.Command, s *runSettings, args []string) (runOutcome, error) {
	var outcome runOutcome

	w := cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return outcome, fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	formatter, err := newFormatter(s.format, w, outputFileFlag != "")
	if err != nil {
		return outcome, err
	}
	formatter.FormatHeader(version)

	ws, requests, envs, err := selectTargets(args)
	if err != nil {
		formatter.FormatError(err)
		return outcome, err
	}

	start := time.Now()
	d := s.dispatcher()
	for _, req := range requests {
		if ctx.Err() != nil {
			break
		}
		rep, err := runRequest(ctx, d, s, req, envs)
		if err != nil {
			formatter.FormatError(err)
			return outcome, withExitCode(ExitWorkspaceError, err)
		}
		formatter.FormatReport(rep)

		outcome.reports++
		if rep.HasDrift() {
			outcome.drifting++
		}
		if allFailed(rep) {
			outcome.unreachable++
		}
	}
	logger.Info("run finished", "workspace", ws.Path, "requests", outcome.reports, "drifting", outcome.drifting, "duration", time.Since(start))

	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(time.Since(start)); err != nil {
			return outcome, fmt.Errorf("error writing output: %w", err)
		}
	}
	if ctx.Err() != nil {
		return outcome, withExitCode(ExitNetworkError, fmt.Errorf("interrupted: %w", ctx.Err()))
	}
	return outcome, nil
}

func runRequest(ctx context.Context, d *dispatch.Dispatcher, s *runSettings, req *workspace.RequestDefinition, envs []*workspace.Environment) (*report.Report, error) {
	resolved := s.builder.BuildAll(req, envs)
	for _, r := range resolved {
		if len(r.Unresolved) > 0 {
			logger.Warn("unresolved variables", "request", req.ID, "environment", r.EnvironmentID, "names", r.Unresolved)
		}
	}

	var (
		envelopes map[string]*http.Envelope
		timings   *dispatch.Timings
	)
	if repeatFlag > 1 {
		envelopes, timings = d.Repeat(ctx, resolved, repeatFlag)
	} else {
		envelopes = d.Dispatch(ctx, resolved)
	}

	rep, err := report.New(report.Input{
		Request:      req,
		Environments: envs,
		Baseline:     s.baseline,
		Envelopes:    envelopes,
		Resolved:     resolved,
		Options:      s.compare,
	})
	if err != nil {
		return nil, err
	}
	if timings != nil {
		rep.Timings = timings.Stats()
	}
	return rep, nil
}

// selectTargets loads the workspace and picks the requests named in args
// (all when empty) and the environments named by --env.
func selectTargets(args []string) (*workspace.Workspace, []*workspace.RequestDefinition, []*workspace.Environment, error) {
	ws, err := loadWorkspace()
	if err != nil {
		return nil, nil, nil, err
	}

	var requests []*workspace.RequestDefinition
	if len(args) == 0 {
		requests = ws.Requests
	}
	for _, id := range args {
		req, err := ws.Request(id)
		if err != nil {
			return nil, nil, nil, withExitCode(ExitWorkspaceError, err)
		}
		requests = append(requests, req)
	}
	if len(requests) == 0 {
		return nil, nil, nil, withExitCode(ExitWorkspaceError, fmt.Errorf("%s defines no requests", ws.Path))
	}

	envs, err := ws.SelectEnvironments(envsFlag)
	if err != nil {
		return nil, nil, nil, withExitCode(ExitWorkspaceError, err)
	}
	if len(envs) == 0 {
		return nil, nil, nil, withExitCode(ExitWorkspaceError, fmt.Errorf("%s defines no environments", ws.Path))
	}
	return ws, requests, overrideVariables(envs, varFlags), nil
}

func allFailed(r *report.Report) bool {
	for _, t := range r.Targets {
		if !t.Failed() {
			return false
		}
	}
	return true
}

// watch re-runs on writes to the workspace, env or config file until ctx is
// done. Each re-run reloads the config, so edits to it take effect.
func watch(ctx context.Context, cmd *cobra.Command, s *runSettings, args []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	files := watchedFiles()
	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.Warn("cannot watch directory", "dir", dir, "error", err)
		}
		watchedDirs[dir] = true
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	debounce := time.NewTimer(WatchDebounceDelay)
	debounce.Stop()
	var changed string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isWatched(files, event.Name) {
				continue
			}
			changed = event.Name
			debounce.Reset(WatchDebounceDelay)

		case <-debounce.C:
			fmt.Fprintf(out, "\nFile changed: %s\nRe-running...\n\n", changed)
			if reloaded, err := reloadRunSettings(cmd, args); err != nil {
				logger.Error("keeping previous settings", "error", err)
			} else {
				s = reloaded
			}
			if _, err := runPass(ctx, cmd, s, args); err != nil && ctx.Err() == nil {
				logger.Error("run failed", "error", err)
			}
			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

func watchedFiles() []string {
	var files []string
	if path, err := workspacePath(); err == nil {
		files = append(files, path)
	}
	if envFileFlag != "" {
		files = append(files, envFileFlag)
	} else if appConfig.EnvFile != "" {
		files = append(files, appConfig.EnvFile)
	}
	if configFlag != "" {
		files = append(files, configFlag)
	} else {
		files = append(files, config.ConfigFilenames...)
	}
	return files
}

// reloadRunSettings re-reads the config file and applies the command-line
// flags on top again.
func reloadRunSettings(cmd *cobra.Command, args []string) (*runSettings, error) {
	if err := loadAppConfig(cmd, args); err != nil {
		return nil, err
	}
	return newRunSettings(cmd)
}

func isWatched(files []string, name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, f := range files {
		if fa, err := filepath.Abs(f); err == nil && fa == abs {
			return true
		}
	}
	return false
}
