// Package vcstest provides an in-memory vcs.Adapter for tests.
package vcstest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/vcs"
)

var _ vcs.Adapter = (*Adapter)(nil)

// ErrNotARepo is returned for directories the fake does not know.
var ErrNotARepo = errors.New("fatal: not a git repository")

// Repo is the scripted state of one working copy.
type Repo struct {
	Bare   bool
	Status string
	// StatusAfterIntegrate replaces Status once Integrate succeeds.
	StatusAfterIntegrate string
	Branch               string
	Config               map[string]string
	Remotes              []model.Remote
	Stash                []string
	Logs                 map[string][]string

	StatusErr      error
	FetchErr       error
	TagsErr        error
	BridgeFetchErr error
	IntegrateErr   error
	GCErr          error
	RemoteAddErr   error
	FetchRemoteErr error
}

// Adapter implements vcs.Adapter over a map of scripted repos.
type Adapter struct {
	Repos map[string]*Repo
	// Calls records "op dir [args]" for every call, in order.
	Calls []string
}

// New returns an empty fake.
func New() *Adapter {
	return &Adapter{Repos: map[string]*Repo{}}
}

// Add registers repo at dir and returns it.
func (a *Adapter) Add(dir string, repo *Repo) *Repo {
	if repo.Config == nil {
		repo.Config = map[string]string{}
	}
	a.Repos[dir] = repo
	return repo
}

var mutating = map[string]bool{
	"fetch": true, "fetch-tags": true, "fetch-remote": true, "svn-fetch": true,
	"integrate": true, "gc": true, "config-set": true, "config-unset": true, "remote-add": true,
}

// Mutations returns the recorded calls that change repository state or
// reach the network.
func (a *Adapter) Mutations() []string {
	var out []string
	for _, c := range a.Calls {
		op, _, _ := strings.Cut(c, " ")
		if mutating[op] {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times op was called.
func (a *Adapter) Count(op string) int {
	n := 0
	for _, c := range a.Calls {
		if strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (a *Adapter) record(op, dir string, args ...string) {
	a.Calls = append(a.Calls, strings.TrimSpace(op+" "+dir+" "+strings.Join(args, " ")))
}

func (a *Adapter) repo(dir string) (*Repo, error) {
	r, ok := a.Repos[dir]
	if !ok {
		return nil, ErrNotARepo
	}
	return r, nil
}

func (a *Adapter) Name() string { return "fake" }

func (a *Adapter) IsRepo(_ context.Context, dir string) (bool, error) {
	a.record("is-repo", dir)
	_, err := a.repo(dir)
	return err == nil, nil
}

func (a *Adapter) IsBare(_ context.Context, dir string) (bool, error) {
	a.record("is-bare", dir)
	r, err := a.repo(dir)
	if err != nil {
		return false, nil
	}
	return r.Bare, nil
}

func (a *Adapter) FetchAll(_ context.Context, dir string, prune bool) error {
	a.record("fetch", dir, fmt.Sprintf("prune=%t", prune))
	r, err := a.repo(dir)
	if err != nil {
		return err
	}
	return r.FetchErr
}

func (a *Adapter) FetchTags(_ context.Context, dir string) error {
	a.record("fetch-tags", dir)
	r, err := a.repo(dir)
	if err != nil {
		return err
	}
	return r.TagsErr
}

func (a *Adapter) FetchRemote(_ context.Context, dir, remote string) error {
	a.record("fetch-remote", dir, remote)
	r, err := a.repo(dir)
	if err != nil {
		return err
	}
	return r.FetchRemoteErr
}

func (a *Adapter) BridgeFetch(_ context.Context, dir string) error {
	a.record("svn-fetch", dir)
	r, err := a.repo(dir)
	if err != nil {
		return err
	}
	return r.BridgeFetchErr
}

func (a *Adapter) Status(_ context.Context, dir string) (string, error) {
	a.record("status", dir)
	r, err := a.repo(dir)
	if err != nil {
		return "", err
	}
	if r.StatusErr != nil {
		return "", r.StatusErr
	}
	return r.Status, nil
}

func (a *Adapter) CommitLog(_ context.Context, dir, rangeExpr string) ([]string, error) {
	a.record("log", dir, rangeExpr)
	r, err := a.repo(dir)
	if err != nil {
		return nil, err
	}
	return r.Logs[rangeExpr], nil
}

func (a *Adapter) Integrate(_ context.Context, dir string, bridged bool) (string, error) {
	a.record("integrate", dir, fmt.Sprintf("bridged=%t", bridged))
	r, err := a.repo(dir)
	if err != nil {
		return "", err
	}
	if r.IntegrateErr != nil {
		return "", r.IntegrateErr
	}
	if r.StatusAfterIntegrate != "" {
		r.Status = r.StatusAfterIntegrate
	}
	return "Fast-forward", nil
}

func (a *Adapter) StashList(_ context.Context, dir string) ([]string, error) {
	a.record("stash-list", dir)
	r, err := a.repo(dir)
	if err != nil {
		return nil, err
	}
	return r.Stash, nil
}

func (a *Adapter) GC(_ context.Context, dir string) error {
	a.record("gc", dir)
	r, err := a.repo(dir)
	if err != nil {
		return err
	}
	return r.GCErr
}

func (a *Adapter) ConfigGet(_ context.Context, dir, key string) (string, bool, error) {
	a.record("config-get", dir, key)
	r, err := a.repo(dir)
	if err != nil {
		return "", false, err
	}
	v, ok := r.Config[key]
	return v, ok, nil
}

func (a *Adapter) ConfigGetBool(_ context.Context, dir, key string) (bool, bool, error) {
	a.record("config-get-bool", dir, key)
	r, err := a.repo(dir)
	if err != nil {
		return false, false, err
	}
	v, ok := r.Config[key]
	if !ok {
		return false, false, nil
	}
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, true, nil
	default:
		return false, true, nil
	}
}

func (a *Adapter) ConfigSet(_ context.Context, dir, key, value string) error {
	a.record("config-set", dir, key, value)
	r, err := a.repo(dir)
	if err != nil {
		return err
	}
	r.Config[key] = value
	return nil
}

func (a *Adapter) ConfigUnset(_ context.Context, dir, key string) error {
	a.record("config-unset", dir, key)
	r, err := a.repo(dir)
	if err != nil {
		return err
	}
	delete(r.Config, key)
	return nil
}

func (a *Adapter) SymbolicRef(_ context.Context, dir, ref string) (string, bool, error) {
	a.record("symbolic-ref", dir, ref)
	r, err := a.repo(dir)
	if err != nil {
		return "", false, nil
	}
	return r.Branch, r.Branch != "", nil
}

func (a *Adapter) Remotes(_ context.Context, dir string) ([]model.Remote, error) {
	a.record("remotes", dir)
	r, err := a.repo(dir)
	if err != nil {
		return nil, err
	}
	return r.Remotes, nil
}

func (a *Adapter) RemoteAdd(_ context.Context, dir, name, url string) error {
	a.record("remote-add", dir, name, url)
	r, err := a.repo(dir)
	if err != nil {
		return err
	}
	if r.RemoteAddErr != nil {
		return r.RemoteAddErr
	}
	r.Remotes = append(r.Remotes, model.Remote{Name: name, URL: url})
	return nil
}

func (a *Adapter) NormalizeURL(rawURL string) string {
	return gitx.NormalizeURL(rawURL)
}
