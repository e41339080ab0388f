// Package vcs exposes the version-control capabilities the reconciliation
// engine relies on, one working copy per call.
package vcs

import (
	"context"

	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
)

// Adapter defines the VCS operations gitsync relies on.
type Adapter interface {
	Name() string
	IsRepo(ctx context.Context, dir string) (bool, error)
	IsBare(ctx context.Context, dir string) (bool, error)
	FetchAll(ctx context.Context, dir string, prune bool) error
	FetchTags(ctx context.Context, dir string) error
	FetchRemote(ctx context.Context, dir, remote string) error
	BridgeFetch(ctx context.Context, dir string) error
	Status(ctx context.Context, dir string) (string, error)
	CommitLog(ctx context.Context, dir, rangeExpr string) ([]string, error)
	Integrate(ctx context.Context, dir string, bridged bool) (string, error)
	StashList(ctx context.Context, dir string) ([]string, error)
	GC(ctx context.Context, dir string) error
	ConfigGet(ctx context.Context, dir, key string) (string, bool, error)
	ConfigGetBool(ctx context.Context, dir, key string) (bool, bool, error)
	ConfigSet(ctx context.Context, dir, key, value string) error
	ConfigUnset(ctx context.Context, dir, key string) error
	SymbolicRef(ctx context.Context, dir, ref string) (string, bool, error)
	Remotes(ctx context.Context, dir string) ([]model.Remote, error)
	RemoteAdd(ctx context.Context, dir, name, url string) error
	NormalizeURL(rawURL string) string
}

// GitAdapter implements Adapter using the git CLI via gitx.
type GitAdapter struct {
	Runner gitx.Runner
}

func NewGitAdapter(runner gitx.Runner) *GitAdapter {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	return &GitAdapter{Runner: runner}
}

func (g *GitAdapter) Name() string { return "git" }

func (g *GitAdapter) IsRepo(ctx context.Context, dir string) (bool, error) {
	return gitx.IsRepo(ctx, g.Runner, dir)
}

func (g *GitAdapter) IsBare(ctx context.Context, dir string) (bool, error) {
	return gitx.IsBare(ctx, g.Runner, dir)
}

func (g *GitAdapter) FetchAll(ctx context.Context, dir string, prune bool) error {
	return gitx.FetchAll(ctx, g.Runner, dir, prune)
}

func (g *GitAdapter) FetchTags(ctx context.Context, dir string) error {
	return gitx.FetchTags(ctx, g.Runner, dir)
}

func (g *GitAdapter) FetchRemote(ctx context.Context, dir, remote string) error {
	return gitx.FetchRemote(ctx, g.Runner, dir, remote)
}

func (g *GitAdapter) BridgeFetch(ctx context.Context, dir string) error {
	return gitx.BridgeFetch(ctx, g.Runner, dir)
}

func (g *GitAdapter) Status(ctx context.Context, dir string) (string, error) {
	return gitx.Status(ctx, g.Runner, dir)
}

func (g *GitAdapter) CommitLog(ctx context.Context, dir, rangeExpr string) ([]string, error) {
	return gitx.CommitLog(ctx, g.Runner, dir, rangeExpr)
}

func (g *GitAdapter) Integrate(ctx context.Context, dir string, bridged bool) (string, error) {
	return gitx.Integrate(ctx, g.Runner, dir, bridged)
}

func (g *GitAdapter) StashList(ctx context.Context, dir string) ([]string, error) {
	return gitx.StashList(ctx, g.Runner, dir)
}

func (g *GitAdapter) GC(ctx context.Context, dir string) error {
	return gitx.GC(ctx, g.Runner, dir)
}

func (g *GitAdapter) ConfigGet(ctx context.Context, dir, key string) (string, bool, error) {
	return gitx.ConfigGet(ctx, g.Runner, dir, key)
}

func (g *GitAdapter) ConfigGetBool(ctx context.Context, dir, key string) (bool, bool, error) {
	return gitx.ConfigGetBool(ctx, g.Runner, dir, key)
}

func (g *GitAdapter) ConfigSet(ctx context.Context, dir, key, value string) error {
	return gitx.ConfigSet(ctx, g.Runner, dir, key, value)
}

func (g *GitAdapter) ConfigUnset(ctx context.Context, dir, key string) error {
	return gitx.ConfigUnset(ctx, g.Runner, dir, key)
}

func (g *GitAdapter) SymbolicRef(ctx context.Context, dir, ref string) (string, bool, error) {
	return gitx.SymbolicRef(ctx, g.Runner, dir, ref)
}

func (g *GitAdapter) Remotes(ctx context.Context, dir string) ([]model.Remote, error) {
	return gitx.Remotes(ctx, g.Runner, dir)
}

func (g *GitAdapter) RemoteAdd(ctx context.Context, dir, name, url string) error {
	return gitx.RemoteAdd(ctx, g.Runner, dir, name, url)
}

func (g *GitAdapter) NormalizeURL(rawURL string) string {
	return gitx.NormalizeURL(rawURL)
}
