package gitx

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/skaphos/gitsync/internal/model"
)

// IsRepo reports whether dir is itself a git repository: the top level of a
// working tree, or the git directory of a bare repository. A plain directory
// nested inside some other repository is not one.
func IsRepo(ctx context.Context, r Runner, dir string) (bool, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--is-bare-repository", "--absolute-git-dir")
	if err != nil {
		return false, Interrupted(err)
	}
	lines := SplitLines(out)
	if len(lines) < 2 {
		return false, nil
	}
	if lines[0] == "true" {
		return SamePath(lines[1], dir), nil
	}
	top, err := r.Run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return false, Interrupted(err)
	}
	return SamePath(strings.TrimSpace(top), dir), nil
}

// SamePath compares two paths after making them absolute and resolving
// symlinks where they exist.
func SamePath(a, b string) bool {
	return CanonicalPath(a) == CanonicalPath(b)
}

// CanonicalPath returns p absolute and cleaned, with symlinks resolved in
// the longest prefix of p that exists.
func CanonicalPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	p = filepath.Clean(p)
	rest := ""
	for dir := p; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return p
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}

// IsBare checks whether the given path is a bare git repository.
func IsBare(ctx context.Context, r Runner, dir string) (bool, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--is-bare-repository")
	if err != nil {
		if intErr := Interrupted(err); intErr != nil {
			return false, intErr
		}
		return false, nil
	}
	return strings.TrimSpace(out) == "true", nil
}

// Remotes returns all configured remotes for the repo.
func Remotes(ctx context.Context, r Runner, dir string) ([]model.Remote, error) {
	out, err := r.Run(ctx, dir, "remote")
	if err != nil {
		return nil, fmt.Errorf("git remote: %w", err)
	}
	var remotes []model.Remote
	for _, name := range SplitLines(out) {
		url, err := r.Run(ctx, dir, "remote", "get-url", name)
		if err != nil {
			if intErr := Interrupted(err); intErr != nil {
				return nil, intErr
			}
			continue
		}
		remotes = append(remotes, model.Remote{
			Name: name,
			URL:  strings.TrimSpace(url),
		})
	}
	return remotes, nil
}

// RemoteAdd registers a new remote.
func RemoteAdd(ctx context.Context, r Runner, dir, name, url string) error {
	_, err := r.Run(ctx, dir, "remote", "add", name, url)
	return err
}

// FetchAll fetches every remote, optionally pruning stale tracking refs.
func FetchAll(ctx context.Context, r Runner, dir string, prune bool) error {
	args := []string{"fetch", "--all"}
	if prune {
		args = append(args, "--prune")
	}
	_, err := r.Run(ctx, dir, args...)
	return err
}

// FetchTags fetches tags from the default remote.
func FetchTags(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, "fetch", "--tags")
	return err
}

// FetchRemote fetches a single named remote.
func FetchRemote(ctx context.Context, r Runner, dir, name string) error {
	_, err := r.Run(ctx, dir, "fetch", name)
	return err
}

// BridgeFetch runs the svn bridge fetch primitive.
func BridgeFetch(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, "svn", "fetch")
	return err
}

// Status returns the long-form status text.
func Status(ctx context.Context, r Runner, dir string) (string, error) {
	return r.Run(ctx, dir, "status")
}

// CommitLog returns one-line summaries for rangeExpr, in git's order.
func CommitLog(ctx context.Context, r Runner, dir, rangeExpr string) ([]string, error) {
	out, err := r.Run(ctx, dir, "log", "--oneline", "--no-decorate", rangeExpr)
	if err != nil {
		return nil, err
	}
	return SplitLines(out), nil
}

// Integrate brings the current branch up to its upstream. Plain copies
// fast-forward only; bridged copies rebase onto the bridge ref.
func Integrate(ctx context.Context, r Runner, dir string, bridged bool) (string, error) {
	if bridged {
		return r.Run(ctx, dir, "svn", "rebase")
	}
	return r.Run(ctx, dir, "merge", "--ff-only", "@{upstream}")
}

// StashList returns stash entries. It never modifies the stash.
func StashList(ctx context.Context, r Runner, dir string) ([]string, error) {
	out, err := r.Run(ctx, dir, "stash", "list")
	if err != nil {
		return nil, err
	}
	return SplitLines(out), nil
}

// GC runs an automatic, quiet garbage collection.
func GC(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, "gc", "--auto", "--quiet")
	return err
}

// ConfigGet reads a config key. ok is false when the key is unset.
func ConfigGet(ctx context.Context, r Runner, dir, key string) (value string, ok bool, err error) {
	out, err := r.Run(ctx, dir, "config", "--get", key)
	if err != nil {
		if ExitCode(err) == 1 {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(out), true, nil
}

// ConfigGetBool reads a boolean config key. ok is false when the key is
// unset.
func ConfigGetBool(ctx context.Context, r Runner, dir, key string) (value, ok bool, err error) {
	out, err := r.Run(ctx, dir, "config", "--bool", "--get", key)
	if err != nil {
		if ExitCode(err) == 1 {
			return false, false, nil
		}
		return false, false, err
	}
	return strings.TrimSpace(out) == "true", true, nil
}

// ConfigSet writes a repository-local config key.
func ConfigSet(ctx context.Context, r Runner, dir, key, value string) error {
	_, err := r.Run(ctx, dir, "config", key, value)
	return err
}

// ConfigUnset removes a repository-local config key. Unsetting a missing
// key is not an error.
func ConfigUnset(ctx context.Context, r Runner, dir, key string) error {
	_, err := r.Run(ctx, dir, "config", "--unset", key)
	if err != nil && ExitCode(err) == 5 {
		return nil
	}
	return err
}

// SymbolicRef returns the short name of the branch ref points to. ok is
// false for a detached HEAD.
func SymbolicRef(ctx context.Context, r Runner, dir, ref string) (branch string, ok bool, err error) {
	out, err := r.Run(ctx, dir, "symbolic-ref", "--quiet", "--short", ref)
	if err != nil {
		if intErr := Interrupted(err); intErr != nil {
			return "", false, intErr
		}
		return "", false, nil
	}
	return strings.TrimSpace(out), true, nil
}

// Clone clones source into dest. dir is the working directory for the
// command and may be empty. Each config entry is a "key=value" pair passed
// with -c.
func Clone(ctx context.Context, r Runner, dir, source, dest string, config ...string) error {
	args := make([]string, 0, 2*len(config)+4)
	for _, kv := range config {
		args = append(args, "-c", kv)
	}
	args = append(args, "clone", "--quiet", source, dest)
	_, err := r.Run(ctx, dir, args...)
	return err
}
