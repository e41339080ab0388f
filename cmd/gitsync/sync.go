package gitsync

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skaphos/gitsync/internal/config"
	"github.com/skaphos/gitsync/internal/engine"
	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/planner"
	"github.com/skaphos/gitsync/internal/report"
	"github.com/skaphos/gitsync/internal/strutil"
	"github.com/skaphos/gitsync/internal/transport"
	"github.com/skaphos/gitsync/internal/vcs"
)

// newAdapter builds the VCS adapter for a run. Overridable in tests.
var newAdapter = func(log logrus.FieldLogger) vcs.Adapter {
	return vcs.NewGitAdapter(&gitx.GitRunner{Log: log})
}

// newPlannerDeps lets tests swap transports and catalogs.
var newPlannerDeps = func(cfg *config.Config, log logrus.FieldLogger, rep planner.Sink) (planner.Deps, error) {
	git := &gitx.GitRunner{Log: log}
	ssh, err := transport.NewSSH(cfg.Defaults.SSHCommand, git, log)
	if err != nil {
		return planner.Deps{}, err
	}
	ssh.Notice = rep.Notice
	return planner.Deps{
		SSH:     ssh,
		Local:   transport.NewLocal(git, log),
		Catalog: planner.GitHubCatalog(log),
	}, nil
}

var syncCmd = &cobra.Command{
	Use:   "sync [category...]",
	Short: "Clone missing repositories and fast-forward clean working copies",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args, false)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [category...]",
	Short: "Report the state of every working copy without changing anything",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args, true)
	},
}

func init() {
	addSyncFlags(syncCmd)
	addSyncFlags(statusCmd)
	rootCmd.AddCommand(syncCmd, statusCmd)
}

func runSync(cmd *cobra.Command, args []string, forceDryRun bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfgPath, err := config.ResolveConfigPath(flagConfig, cwd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	debugf(cmd, "using config %s", cfgPath)
	if extra, _ := cmd.Flags().GetString("exclude"); extra != "" {
		cfg.Exclude = append(cfg.Exclude, strutil.SplitCSV(extra)...)
	}

	format, _ := cmd.Flags().GetString("format")
	outFormat, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	level := verbosity(cmd, cfg.Defaults.Verbose, cfg.Defaults.Quiet)
	opts := engine.Options{
		DryRun:    forceDryRun || boolFlag(cmd, "dry-run", false),
		ShowLog:   boolFlag(cmd, "log", cfg.Defaults.Log) && !boolFlag(cmd, "no-log", false),
		ShowStash: boolFlag(cmd, "stash", cfg.Defaults.Stash),
		RunGC:     boolFlag(cmd, "gc", cfg.Defaults.GC),
		Verbosity: level,
	}
	noSummary, _ := cmd.Flags().GetBool("no-summary")
	printer := report.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), report.Options{
		Format:    outFormat,
		Color:     shouldUseColorOutput(cmd, format),
		Quiet:     level == engine.VerbosityQuiet,
		NoSummary: noSummary,
	})

	log := newLogger(cmd.ErrOrStderr())
	deps, err := newPlannerDeps(cfg, log, printer)
	if err != nil {
		return err
	}
	deps.Config = cfg
	deps.Engine = engine.New(newAdapter(log), log)
	deps.Sink = printer
	deps.Log = log
	p, err := planner.New(deps)
	if err != nil {
		return err
	}

	ctx, stop := interruptContext(cmd.Context())
	defer stop()

	summary, runErr := p.Run(ctx, args, opts)
	if closeErr := p.Close(); closeErr != nil {
		printer.Warning("closing ssh sessions: " + closeErr.Error())
	}
	if errors.Is(runErr, planner.ErrNoCategories) || errors.Is(runErr, planner.ErrUnknownCategory) {
		return runErr
	}
	var intErr *gitx.InterruptError
	if errors.As(runErr, &intErr) {
		if _, ok := intErr.Signal(); !ok {
			var sigErr *gitx.SignalError
			if errors.As(context.Cause(ctx), &sigErr) {
				return &gitx.InterruptError{Err: sigErr}
			}
		}
		return intErr
	}
	if err := printer.Finish(summary); err != nil {
		debugf(cmd, "ignored output write failure: %v", err)
	}
	if runErr != nil {
		raiseExitCode(2)
	}
	if summary.Failed() > 0 {
		infof(cmd, "%d target(s) failed", summary.Failed())
	}
	return nil
}

// interruptContext cancels on SIGINT or SIGTERM. The cancel cause is a
// *gitx.SignalError naming the signal so it can be re-raised.
func interruptContext(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			cancel(&gitx.SignalError{Signal: sig})
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel(nil)
	}
}
