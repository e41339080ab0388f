// SPDX-License-Identifier: MIT

// Package network keeps one remote per related forge account ("network"
// remotes) on a working copy.
package network

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/vcs"
)

// Plan describes one network remote to add to a working copy.
type Plan struct {
	Path   string
	Remote string
	URL    string
	Action string
}

// OwnerURL rewrites the owner segment of an https clone URL.
// https://github.com/alice/tool.git with owner bob becomes
// https://github.com/bob/tool.git.
func OwnerURL(cloneURL, owner string) (string, error) {
	u, err := url.Parse(cloneURL)
	if err != nil {
		return "", err
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("clone URL %q has no owner segment", cloneURL)
	}
	parts[0] = owner
	u.Path = "/" + strings.Join(parts, "/")
	return u.String(), nil
}

// BuildPlans computes the remotes missing from the working copy at path.
// Owners already present by remote name or by URL are skipped; an existing
// remote with the owner's name but another URL is left untouched.
func BuildPlans(ctx context.Context, adapter vcs.Adapter, path, cloneURL string, owners []string) ([]Plan, error) {
	if adapter == nil || len(owners) == 0 {
		return nil, nil
	}
	remotes, err := adapter.Remotes(ctx, path)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(remotes))
	urls := make(map[string]struct{}, len(remotes))
	for _, r := range remotes {
		names[r.Name] = struct{}{}
		urls[adapter.NormalizeURL(r.URL)] = struct{}{}
	}
	plans := make([]Plan, 0, len(owners))
	for _, owner := range owners {
		if _, ok := names[owner]; ok {
			continue
		}
		remoteURL, err := OwnerURL(cloneURL, owner)
		if err != nil {
			return nil, err
		}
		if _, ok := urls[adapter.NormalizeURL(remoteURL)]; ok {
			continue
		}
		plans = append(plans, Plan{
			Path:   path,
			Remote: owner,
			URL:    remoteURL,
			Action: "add network remote",
		})
	}
	return plans, nil
}

// ApplyPlans adds each planned remote and, when fetch is set, fetches it.
// Failures are collected; an interrupt stops immediately.
func ApplyPlans(ctx context.Context, plans []Plan, adapter vcs.Adapter, fetch bool) error {
	if len(plans) == 0 {
		return nil
	}
	if adapter == nil {
		return fmt.Errorf("adapter is required for network remotes")
	}
	var result *multierror.Error
	for _, plan := range plans {
		if err := adapter.RemoteAdd(ctx, plan.Path, plan.Remote, plan.URL); err != nil {
			if intErr := gitx.Interrupted(err); intErr != nil {
				return intErr
			}
			result = multierror.Append(result, fmt.Errorf("git remote add %q %q (%q): %w", plan.Remote, plan.URL, plan.Path, err))
			continue
		}
		if !fetch {
			continue
		}
		if err := adapter.FetchRemote(ctx, plan.Path, plan.Remote); err != nil {
			if intErr := gitx.Interrupted(err); intErr != nil {
				return intErr
			}
			result = multierror.Append(result, fmt.Errorf("git fetch %q (%q): %w", plan.Remote, plan.Path, err))
		}
	}
	return result.ErrorOrNil()
}
