package planner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skaphos/gitsync/internal/config"
	"github.com/skaphos/gitsync/internal/engine"
	"github.com/skaphos/gitsync/internal/forge"
	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/network"
	"github.com/skaphos/gitsync/internal/transport"
)

// runForge mirrors the repositories of every configured forge account
// into the category's single destination.
func (p *Planner) runForge(ctx context.Context, name string, cat config.Category, opts engine.Options) error {
	into, err := cat.Destination(name)
	if err != nil {
		return err
	}
	into = gitx.CanonicalPath(into)
	p.ssh.AllowMaster(cat.SSHMaster...)
	if !opts.DryRun {
		if err := os.MkdirAll(into, 0o755); err != nil {
			return fmt.Errorf("category %q: create %s: %w", name, into, err)
		}
	}

	catalog := p.catalog(name, cat)
	for _, account := range cat.GitHub {
		for page := 1; ; page++ {
			repos, err := catalog.ListRepositories(ctx, account, page)
			if err != nil {
				if intr := gitx.Interrupted(err); intr != nil {
					return intr
				}
				return fmt.Errorf("category %q: list %s: %w", name, account, err)
			}
			if len(repos) == 0 {
				break
			}
			for _, repo := range repos {
				if err := p.forgeRepo(ctx, name, cat, catalog, into, account, repo, opts); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *Planner) forgeRepo(ctx context.Context, name string, cat config.Category, catalog forge.Catalog, into, account string, repo forge.Descriptor, opts engine.Options) error {
	display := gitx.TrimRepoSuffix(repo.Name)
	target := model.RepoTarget{
		Name:       display,
		LocalPath:  gitx.CanonicalPath(filepath.Join(into, display)),
		RemoteRef:  repo.SSHURL,
		Mode:       model.ModeForge,
		Provenance: name,
	}
	if claimant, dup := p.claim(target.LocalPath, name); dup {
		p.duplicate(target, claimant)
		return nil
	}

	if exists(target.LocalPath) {
		out, err := p.engine.Reconcile(ctx, target, opts)
		if err != nil {
			return err
		}
		if cat.Network && !opts.DryRun && !out.Action.Failed() && out.Action != model.ActionSkipped {
			if err := p.networkRemotes(ctx, catalog, account, repo, target.LocalPath, &out); err != nil {
				return err
			}
		}
		p.emit(out)
		return nil
	}

	if opts.DryRun {
		p.emit(model.SyncOutcome{
			Target: target,
			Action: model.ActionSkipped,
			Note:   "would clone " + firstNonEmpty(repo.SSHURL, repo.CloneURL),
		})
		return nil
	}

	out, err := p.clone(ctx, target,
		source{provider: p.ssh, kind: transport.KindSSH, ref: repo.SSHURL},
		source{provider: p.ssh, kind: transport.KindHTTPS, ref: repo.CloneURL},
	)
	if err != nil {
		return err
	}
	if out.Action == model.ActionCloned {
		adapter := p.engine.Adapter()
		if cat.Email != "" {
			if err := adapter.ConfigSet(ctx, target.LocalPath, "user.email", cat.Email); err != nil {
				if intr := gitx.Interrupted(err); intr != nil {
					return intr
				}
				out.Note = joinNote(out.Note, "could not set user.email: "+err.Error())
			}
		}
		if cat.Network {
			if err := p.networkRemotes(ctx, catalog, account, repo, target.LocalPath, &out); err != nil {
				return err
			}
		}
	}
	p.emit(out)
	return nil
}

// networkRemotes adds a remote for every other account holding a copy of
// repo and fetches it. Failures become notes on out.
func (p *Planner) networkRemotes(ctx context.Context, catalog forge.Catalog, account string, repo forge.Descriptor, path string, out *model.SyncOutcome) error {
	owners, err := catalog.ListNetwork(ctx, account, repo.Name)
	if err != nil {
		if intr := gitx.Interrupted(err); intr != nil {
			return intr
		}
		out.Note = joinNote(out.Note, "network: "+err.Error())
		return nil
	}
	plans, err := network.BuildPlans(ctx, p.engine.Adapter(), path, repo.CloneURL, owners)
	if err != nil {
		if intr := gitx.Interrupted(err); intr != nil {
			return intr
		}
		out.Note = joinNote(out.Note, "network: "+err.Error())
		return nil
	}
	if err := network.ApplyPlans(ctx, plans, p.engine.Adapter(), true); err != nil {
		if intr := gitx.Interrupted(err); intr != nil {
			return intr
		}
		out.Note = joinNote(out.Note, "network: "+err.Error())
	}
	if len(plans) > 0 {
		out.Note = joinNote(out.Note, fmt.Sprintf("added %d network remote(s)", len(plans)))
		out.Suppressed = false
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNote(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "; " + b
	}
}
