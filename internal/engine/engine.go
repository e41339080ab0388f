// Package engine reconciles one working copy with its upstream: it fetches,
// reads and interprets status, and applies the single safe action the state
// allows.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/status"
	"github.com/skaphos/gitsync/internal/vcs"
)

// Verbosity controls how much of a run is reported.
type Verbosity int

const (
	VerbosityQuiet   Verbosity = -1
	VerbosityNormal  Verbosity = 0
	VerbosityVerbose Verbosity = 1
	VerbosityDebug   Verbosity = 2
)

const (
	// IgnoreKey is the repository-level flag that opts a working copy out.
	IgnoreKey = "sync.ignore"
	// BridgeURLKey is set for working copies cloned from a centralized VCS.
	BridgeURLKey = "svn-remote.svn.url"
	// BridgeFetchKey holds the bridge refspec.
	BridgeFetchKey = "svn-remote.svn.fetch"
)

// Options configures a single reconciliation.
type Options struct {
	DryRun    bool
	ShowLog   bool
	ShowStash bool
	RunGC     bool
	Verbosity Verbosity
}

// Engine reconciles working copies through a vcs.Adapter.
type Engine struct {
	adapter vcs.Adapter
	log     logrus.FieldLogger
}

// New creates an Engine. A nil adapter selects the git CLI.
func New(adapter vcs.Adapter, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if adapter == nil {
		adapter = vcs.NewGitAdapter(&gitx.GitRunner{Log: log})
	}
	return &Engine{adapter: adapter, log: log}
}

// Adapter returns the engine VCS adapter.
func (e *Engine) Adapter() vcs.Adapter { return e.adapter }

// Reconcile brings target in line with its upstream where that is safe and
// reports what it found. The returned error is non-nil only when the run
// was interrupted; every other failure is recorded in the outcome.
func (e *Engine) Reconcile(ctx context.Context, target model.RepoTarget, opts Options) (model.SyncOutcome, error) {
	out := model.SyncOutcome{Target: target}
	dir := target.LocalPath
	log := e.log.WithField("path", dir)

	if err := ctx.Err(); err != nil {
		return out, &gitx.InterruptError{Err: err}
	}

	isRepo, err := e.adapter.IsRepo(ctx, dir)
	if intr := gitx.Interrupted(err); intr != nil {
		return out, intr
	}
	if !isRepo {
		out.FinalKind = model.StateUnversioned
		out.Action = model.ActionSkipped
		out.State = &model.RepoState{Kind: model.StateUnversioned, Branch: model.BranchNone}
		return out, nil
	}

	ignored, _, err := e.adapter.ConfigGetBool(ctx, dir, IgnoreKey)
	if intr := gitx.Interrupted(err); intr != nil {
		return out, intr
	}
	if ignored {
		log.Debug("ignored by sync.ignore")
		state := status.Interpret(status.Observation{Ignored: true})
		out.FinalKind = state.Kind
		out.Action = model.ActionSkipped
		out.State = &state
		return out, nil
	}

	bridged, err := e.isBridged(ctx, dir)
	if err != nil {
		return out, err
	}
	bare, err := e.adapter.IsBare(ctx, dir)
	if intr := gitx.Interrupted(err); intr != nil {
		return out, intr
	}

	if !opts.DryRun {
		if err := e.fetch(ctx, dir, bridged); err != nil {
			if intr := gitx.Interrupted(err); intr != nil {
				return out, intr
			}
			log.WithError(err).Debug("fetch failed")
			out.Action = model.ActionFetchFailed
			out.ErrorDetail = err.Error()
			out.ErrorClass = gitx.ClassifyError(err)
			if bare {
				out.FinalKind = model.StateBare
			}
			return out, nil
		}
	}

	if bare {
		state := status.Interpret(status.Observation{Bare: true, Bridged: bridged})
		out.FinalKind = state.Kind
		out.State = &state
		out.Action = model.ActionFetchOnly
		if opts.DryRun {
			out.Action = model.ActionNone
		}
		return out, nil
	}

	raw, statusErr, err := e.readStatus(ctx, dir, bridged)
	if err != nil {
		return out, err
	}

	var stash []string
	if opts.ShowStash && statusErr == nil {
		stash, err = e.adapter.StashList(ctx, dir)
		if intr := gitx.Interrupted(err); intr != nil {
			return out, intr
		}
		if err != nil {
			log.WithError(err).Debug("stash list failed")
			stash = nil
		}
	}

	state := status.Interpret(status.Observation{
		StatusFailed: statusErr != nil,
		Raw:          raw,
		Bridged:      bridged,
		StashCount:   len(stash),
	})
	out.FinalKind = state.Kind
	out.State = &state
	out.Stash = stash
	if statusErr != nil {
		out.Action = model.ActionSkipped
		out.ErrorDetail = statusErr.Error()
		out.ErrorClass = gitx.ClassifyError(statusErr)
		return out, nil
	}

	if state.Kind == model.StateFastForwardable && !opts.DryRun {
		return e.integrate(ctx, out, opts)
	}
	return e.report(ctx, out, opts)
}

func (e *Engine) fetch(ctx context.Context, dir string, bridged bool) error {
	if bridged {
		return e.adapter.BridgeFetch(ctx, dir)
	}
	if err := e.adapter.FetchAll(ctx, dir, true); err != nil {
		return err
	}
	return e.adapter.FetchTags(ctx, dir)
}

func (e *Engine) isBridged(ctx context.Context, dir string) (bool, error) {
	url, ok, err := e.adapter.ConfigGet(ctx, dir, BridgeURLKey)
	if intr := gitx.Interrupted(err); intr != nil {
		return false, intr
	}
	return err == nil && ok && strings.TrimSpace(url) != "", nil
}

// integrate fast-forwards a clean working copy. The commit log is read
// first so it names the commits about to be applied.
func (e *Engine) integrate(ctx context.Context, out model.SyncOutcome, opts Options) (model.SyncOutcome, error) {
	dir := out.Target.LocalPath
	state := out.State
	if opts.ShowLog {
		lines, err := e.commitLog(ctx, dir, state.Branch+".."+state.TrackingRef, state)
		if err != nil {
			return out, err
		}
		out.CommitLog = lines
	}

	stats, err := e.adapter.Integrate(ctx, dir, state.Bridged)
	if intr := gitx.Interrupted(err); intr != nil {
		return out, intr
	}
	if err != nil {
		out.Action = model.ActionIntegrateFailed
		out.ErrorDetail = err.Error()
		out.ErrorClass = gitx.ClassifyError(err)
		return out, nil
	}
	out.Action = model.ActionFetchAndIntegrate
	out.Note = summaryLine(stats)

	if opts.RunGC {
		if err := e.gc(ctx, &out); err != nil {
			return out, err
		}
	}
	return out, nil
}

// report handles every decision that leaves the working tree untouched.
func (e *Engine) report(ctx context.Context, out model.SyncOutcome, opts Options) (model.SyncOutcome, error) {
	dir := out.Target.LocalPath
	state := out.State

	if opts.RunGC && !opts.DryRun {
		if err := e.gc(ctx, &out); err != nil {
			return out, err
		}
	}

	var rangeExpr string
	switch state.Kind {
	case model.StateFastForwardable:
		rangeExpr = state.Branch + ".." + state.TrackingRef
		out.Note = joinNote(fmt.Sprintf("would pull %s", plural(state.Behind, "commit")), out.Note)
	case model.StateBehind:
		rangeExpr = state.Branch + ".." + state.TrackingRef
	case model.StateAhead:
		rangeExpr = state.TrackingRef + ".." + state.Branch
	}
	if opts.ShowLog && rangeExpr != "" {
		lines, err := e.commitLog(ctx, dir, rangeExpr, state)
		if err != nil {
			return out, err
		}
		out.CommitLog = lines
	}

	out.Action = model.ActionNone
	if terse(opts, state) {
		out.Suppressed = true
	}
	return out, nil
}

// terse reports whether an outcome has nothing worth printing.
func terse(opts Options, state *model.RepoState) bool {
	return opts.Verbosity < VerbosityVerbose &&
		state.Kind == model.StateUpToDate &&
		!state.Dirty &&
		state.StashCount == 0
}

func (e *Engine) commitLog(ctx context.Context, dir, rangeExpr string, state *model.RepoState) ([]string, error) {
	if state.TrackingRef == "" || state.Branch == model.BranchNone || state.Branch == model.BranchDetached {
		return nil, nil
	}
	lines, err := e.adapter.CommitLog(ctx, dir, rangeExpr)
	if intr := gitx.Interrupted(err); intr != nil {
		return nil, intr
	}
	if err != nil {
		e.log.WithField("path", dir).WithError(err).Debug("log failed")
		return nil, nil
	}
	return lines, nil
}

func (e *Engine) gc(ctx context.Context, out *model.SyncOutcome) error {
	err := e.adapter.GC(ctx, out.Target.LocalPath)
	if intr := gitx.Interrupted(err); intr != nil {
		return intr
	}
	if err != nil {
		out.Note = joinNote(out.Note, "gc failed: "+err.Error())
	}
	return nil
}

// summaryLine picks the diffstat line out of fast-forward output.
func summaryLine(stats string) string {
	lines := gitx.SplitLines(stats)
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], "changed") {
			return strings.TrimSpace(lines[i])
		}
	}
	return ""
}

func joinNote(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
