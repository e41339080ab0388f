// Package planner drives a run: it selects configured categories, turns each
// into repository targets according to its mode, and hands every target to
// the reconciliation engine exactly once.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/skaphos/gitsync/internal/config"
	"github.com/skaphos/gitsync/internal/engine"
	"github.com/skaphos/gitsync/internal/forge"
	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/sortutil"
	"github.com/skaphos/gitsync/internal/transport"
)

var (
	// ErrNoCategories is returned when the configuration defines none.
	ErrNoCategories = errors.New("no categories configured")
	// ErrUnknownCategory is returned for a requested category that is not
	// configured.
	ErrUnknownCategory = errors.New("unknown category")
)

// Sink receives results as the run progresses.
type Sink interface {
	Outcome(model.SyncOutcome)
	Notice(msg string)
	Warning(msg string)
}

// Transport is the ssh-capable provider shared by the whole run.
type Transport interface {
	transport.Provider
	AllowMaster(hosts ...string)
	Close() error
}

// CatalogFunc builds the forge catalog for a category.
type CatalogFunc func(name string, cat config.Category) forge.Catalog

// Deps are the collaborators of a Planner.
type Deps struct {
	Config *config.Config
	Engine *engine.Engine
	// SSH serves remote hosts and forge clones.
	SSH Transport
	// Local serves remote categories whose host is "localhost".
	Local    transport.Provider
	Catalog  CatalogFunc
	Sink     Sink
	Log      logrus.FieldLogger
}

// Summary collects every outcome of a run, in processing order.
type Summary struct {
	Categories []string
	Outcomes   []model.SyncOutcome
}

// Count returns the number of outcomes with the given action.
func (s Summary) Count(action model.Action) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (s Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Action.Failed() {
			n++
		}
	}
	return n
}

// Planner owns the state of a single run: the paths already claimed and
// the shared ssh sessions.
type Planner struct {
	cfg     *config.Config
	engine  *engine.Engine
	ssh     Transport
	local   transport.Provider
	catalog CatalogFunc
	report  Sink
	log     logrus.FieldLogger

	// seen maps a claimed local path to the category that claimed it.
	seen    map[string]string
	summary Summary
}

// New creates a Planner. Config and Engine are required.
func New(deps Deps) (*Planner, error) {
	if deps.Config == nil {
		return nil, errors.New("planner: config is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("planner: engine is required")
	}
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	ssh := deps.SSH
	if ssh == nil {
		s, err := transport.NewSSH(deps.Config.Defaults.SSHCommand, nil, log)
		if err != nil {
			return nil, err
		}
		ssh = s
	}
	local := deps.Local
	if local == nil {
		local = transport.NewLocal(nil, log)
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = GitHubCatalog(log)
	}
	report := deps.Sink
	if report == nil {
		report = discard{}
	}
	return &Planner{
		cfg:     deps.Config,
		engine:  deps.Engine,
		ssh:     ssh,
		local:   local,
		catalog: catalog,
		report:  report,
		log:     log,
		seen:    map[string]string{},
	}, nil
}

// GitHubCatalog returns a CatalogFunc building GitHub clients from category
// settings.
func GitHubCatalog(log logrus.FieldLogger) CatalogFunc {
	return func(_ string, cat config.Category) forge.Catalog {
		return forge.NewGitHub(forge.GitHubOptions{
			BaseURL:      cat.APIURL,
			Token:        cat.ResolvedToken(),
			Organization: cat.Organization,
			Login:        cat.Login,
			Log:          log,
		})
	}
}

// Select resolves the categories to run, in run order. An empty names list
// selects every configured category.
func Select(cfg *config.Config, names []string) ([]string, error) {
	if len(cfg.Categories) == 0 {
		return nil, ErrNoCategories
	}
	var selected []string
	if len(names) == 0 {
		for name := range cfg.Categories {
			selected = append(selected, name)
		}
	} else {
		dedup := map[string]bool{}
		for _, name := range names {
			if _, ok := cfg.Categories[name]; !ok {
				return nil, fmt.Errorf("%w %q", ErrUnknownCategory, name)
			}
			if !dedup[name] {
				dedup[name] = true
				selected = append(selected, name)
			}
		}
	}
	sortutil.SortCategories(selected, func(n string) model.Mode { return cfg.Categories[n].Mode() })
	return selected, nil
}

// Run processes the named categories. Category-level errors are collected
// and returned once every category ran; an interrupt stops the run at
// once and is returned as a *gitx.InterruptError.
func (p *Planner) Run(ctx context.Context, names []string, opts engine.Options) (Summary, error) {
	selected, err := Select(p.cfg, names)
	if err != nil {
		return p.summary, err
	}

	var result *multierror.Error
	for _, name := range selected {
		if err := ctx.Err(); err != nil {
			return p.summary, &gitx.InterruptError{Err: err}
		}
		cat := p.cfg.Categories[name]
		p.summary.Categories = append(p.summary.Categories, name)
		p.log.WithFields(logrus.Fields{"category": name, "mode": cat.Mode()}).Debug("category")

		var err error
		switch cat.Mode() {
		case model.ModeForge:
			err = p.runForge(ctx, name, cat, opts)
		case model.ModeRemote:
			err = p.runRemote(ctx, name, cat, opts)
		default:
			err = p.runLocal(ctx, name, cat, opts)
		}
		if err == nil {
			continue
		}
		if intr := gitx.Interrupted(err); intr != nil {
			return p.summary, intr
		}
		p.report.Warning(err.Error())
		result = multierror.Append(result, err)
	}
	return p.summary, result.ErrorOrNil()
}

// Close releases run-wide resources such as shared ssh sessions.
func (p *Planner) Close() error {
	return p.ssh.Close()
}

// claim records path for category. It returns the earlier claimant when
// the path was already processed in this run.
func (p *Planner) claim(path, category string) (string, bool) {
	path = gitx.CanonicalPath(path)
	if owner, ok := p.seen[path]; ok {
		return owner, true
	}
	p.seen[path] = category
	return "", false
}

func (p *Planner) emit(out model.SyncOutcome) {
	p.summary.Outcomes = append(p.summary.Outcomes, out)
	p.report.Outcome(out)
}

// reconcile runs the engine for target and reports the outcome.
func (p *Planner) reconcile(ctx context.Context, target model.RepoTarget, opts engine.Options) (model.SyncOutcome, error) {
	out, err := p.engine.Reconcile(ctx, target, opts)
	if err != nil {
		return out, err
	}
	p.emit(out)
	return out, nil
}

// duplicate reports a target already claimed by another category.
func (p *Planner) duplicate(target model.RepoTarget, claimant string) {
	p.emit(model.SyncOutcome{
		Target:    target,
		Action:    model.ActionSkipped,
		Duplicate: true,
		Note:      fmt.Sprintf("already handled by category %q", claimant),
	})
}

type discard struct{}

func (discard) Outcome(model.SyncOutcome) {}
func (discard) Notice(string)            {}
func (discard) Warning(string)           {}
