package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vitorsm/construction-management-client/pkg/config"
	"github.com/vitorsm/construction-management-client/pkg/source"
	"github.com/vitorsm/construction-management-client/pkg/task"
	"github.com/vitorsm/construction-management-client/pkg/tui"
	"github.com/vitorsm/construction-management-client/pkg/view"
)

// app carries the persistent flags and the state built from them before a
// subcommand runs.
type app struct {
	configPath string
	file       string
	apiURL     string
	projectID  string
	logLevel   string
	jsonOut    bool

	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	isTerminal func() bool

	cfg    *config.Config
	logger *slog.Logger
}

// filterFlags are the per-command flags shared by list, summary and the
// bare root command.
type filterFlags struct {
	statuses  []string
	dateRange string
	dateMode  string
	query     string
	delayed   bool
	expand    []string
	expandAll bool
	rollup    bool
}

func newRootCmd(a *app) *cobra.Command {
	var ff filterFlags

	root := &cobra.Command{
		Use:           "tasktree",
		Short:         "Browse a project's task tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.isTerminal != nil && a.isTerminal() && !a.jsonOut {
				return a.runTUI(cmd, &ff)
			}
			return a.runList(cmd, &ff)
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: $TASKTREE_CONFIG or the user config dir)")
	pf.StringVar(&a.file, "file", "", "read tasks from a JSON file (- for stdin)")
	pf.StringVar(&a.apiURL, "api-url", "", "base URL of the task API")
	pf.StringVar(&a.projectID, "project", "", "project id on the task API")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")

	ff.bind(root, false)

	root.AddCommand(
		newListCmd(a),
		newSummaryCmd(a),
		newDelayedCmd(a),
		newTUICmd(a),
	)

	return root
}

func newListCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the visible rows of the filtered tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, &ff)
		},
	}
	ff.bind(cmd, true)
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print filtered and total task counts and costs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := a.project(cmd, &ff)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return outputJSON(a.stdout, summaryToJSON(proj))
			}
			printSummary(a.stdout, proj)
			return nil
		},
	}
	ff.bind(cmd, true)
	return cmd
}

func newDelayedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delayed",
		Short: "Print every delayed task in the full tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := a.load(cmdContext(cmd))
			if err != nil {
				return err
			}

			now := time.Now()
			var delayed []delayedTask
			task.Walk(roots, func(n *task.Node, depth int) {
				if task.IsDelayedAt(n, now) {
					delayed = append(delayed, delayedTask{Node: n, Depth: depth})
				}
			})

			if a.jsonOut {
				return outputJSON(a.stdout, delayedToJSON(delayed))
			}
			printDelayed(a.stdout, delayed)
			return nil
		},
	}
}

func newTUICmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive task tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd, &ff)
		},
	}
	ff.bind(cmd, true)
	return cmd
}

func (ff *filterFlags) bind(cmd *cobra.Command, withRollup bool) {
	f := cmd.Flags()
	f.StringArrayVar(&ff.statuses, "status", nil, "show tasks with this status (repeatable): TODO, IN_PROGRESS, DONE")
	f.StringVar(&ff.dateRange, "range", "", "date range FROM..TO (either side may be empty)")
	f.StringVar(&ff.dateMode, "date-mode", "", "date range matching: overlap or within")
	f.StringVar(&ff.query, "query", "", "case-insensitive name search")
	f.BoolVar(&ff.delayed, "delayed", false, "only delayed tasks")
	f.StringArrayVar(&ff.expand, "expand", nil, "expand the task with this id (repeatable)")
	f.BoolVar(&ff.expandAll, "expand-all", false, "expand every task")
	if withRollup {
		f.BoolVar(&ff.rollup, "rollup-costs", false, "include descendants in each task's cost")
	}
}

// criteria merges the flags over the filter from the config file. A flag
// replaces the config value only when it was given.
func (ff *filterFlags) criteria(cmd *cobra.Command, cfg *config.Config) (task.Criteria, error) {
	crit, err := cfg.Criteria()
	if err != nil {
		return task.Criteria{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("status") {
		crit.Statuses = nil
		for _, raw := range ff.statuses {
			s, ok := task.ParseStatus(raw)
			if !ok {
				return task.Criteria{}, fmt.Errorf("unknown status %q", raw)
			}
			if !crit.HasStatus(s) {
				crit = crit.ToggleStatus(s)
			}
		}
	}
	if ff.dateRange != "" {
		from, to, err := task.ParseDateRange(ff.dateRange)
		if err != nil {
			return task.Criteria{}, err
		}
		crit.From, crit.To = from, to
	}
	if ff.dateMode != "" {
		mode, err := task.ParseDateMode(ff.dateMode)
		if err != nil {
			return task.Criteria{}, err
		}
		crit.DateMode = mode
	}
	crit.Query = ff.query
	crit.DelayedOnly = ff.delayed
	return crit, nil
}

// setup loads the config, applies the persistent flag overrides and builds
// the stderr logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.file != "" {
		cfg.Source.File = a.file
		if a.apiURL == "" {
			cfg.Source.APIURL = ""
		}
	}
	if a.apiURL != "" {
		cfg.Source.APIURL = a.apiURL
	}
	if a.projectID != "" {
		cfg.Source.ProjectID = a.projectID
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(a.stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	if cfg.Path != "" {
		a.logger.Debug("config loaded", "path", cfg.Path)
	}
	return nil
}

func (a *app) source() (source.Source, error) {
	src, err := source.FromConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	if fs, ok := src.(*source.FileSource); ok && fs.Path == "-" {
		fs.Stdin = a.stdin
	}
	return src, nil
}

func (a *app) load(ctx context.Context) ([]*task.Node, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	roots, err := source.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("tasks loaded",
		"source", src.String(),
		"tasks", task.Count(roots),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return roots, nil
}

// project loads the tree and projects it through the filter and expansion
// flags.
func (a *app) project(cmd *cobra.Command, ff *filterFlags) (*view.Projection, error) {
	crit, err := ff.criteria(cmd, a.cfg)
	if err != nil {
		return nil, err
	}
	roots, err := a.load(cmdContext(cmd))
	if err != nil {
		return nil, err
	}

	expansion := view.NewExpansionStore()
	if ff.expandAll {
		expansion.ExpandAll(roots)
	}
	for _, id := range ff.expand {
		expansion.Expand(id)
	}

	crit.Now = time.Now()
	return view.Project(cmdContext(cmd), roots, view.Options{
		Predicate:   crit.Predicate(),
		State:       expansion,
		RollupCosts: ff.rollup || a.cfg.Costs.Rollup,
		Now:         crit.Now,
	})
}

func (a *app) runList(cmd *cobra.Command, ff *filterFlags) error {
	proj, err := a.project(cmd, ff)
	if err != nil {
		return err
	}
	if a.jsonOut {
		return outputJSON(a.stdout, rowsToJSON(proj))
	}
	printRows(a.stdout, proj)
	return nil
}

func (a *app) runTUI(cmd *cobra.Command, ff *filterFlags) error {
	crit, err := ff.criteria(cmd, a.cfg)
	if err != nil {
		return err
	}
	src, err := a.source()
	if err != nil {
		return err
	}
	if fs, ok := src.(*source.FileSource); ok && !fs.Watchable() {
		return fmt.Errorf("the TUI needs a file or API source, not stdin")
	}

	// The alternate screen owns the terminal, so logs go to a file.
	logFile, err := openLogFile(config.DefaultStateDir())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger, err := newLogger(logFile, a.cfg.Log.Level)
	if err != nil {
		return err
	}

	m := tui.NewModel(tui.Options{
		Source:      src,
		Criteria:    crit,
		RollupCosts: ff.rollup || a.cfg.Costs.Rollup,
		Logger:      logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	if fs, ok := src.(*source.FileSource); ok {
		stop, err := tui.StartWatcher(fs.Path, p.Send, logger)
		if err != nil {
			logger.Warn("file watching disabled", "path", fs.Path, "error", err)
		} else {
			defer stop()
		}
	}

	_, err = p.Run()
	return err
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	path := filepath.Join(dir, "tasktree.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
