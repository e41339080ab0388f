package planner

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/skaphos/gitsync/internal/config"
	"github.com/skaphos/gitsync/internal/discovery"
	"github.com/skaphos/gitsync/internal/engine"
	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/transport"
)

// LocalHost names the machine itself; remote categories on it run through
// the local shell and clone from plain paths.
const LocalHost = "localhost"

// exitNotRepo is the inspect command exit status for an entry with no repository.
const exitNotRepo = 3

// runRemote mirrors the repositories below the category's remote paths.
func (p *Planner) runRemote(ctx context.Context, name string, cat config.Category, opts engine.Options) error {
	into, err := cat.Destination(name)
	if err != nil {
		return err
	}
	into = gitx.CanonicalPath(into)
	host, paths, err := cat.RemoteLocation(name)
	if err != nil {
		return err
	}
	p.ssh.AllowMaster(cat.SSHMaster...)

	provider, kind := transport.Provider(p.ssh), transport.KindSSH
	if host == LocalHost {
		provider, kind = p.local, transport.KindLocal
	}

	listed := map[string]bool{}
	for _, remotePath := range paths {
		pattern := remotePath
		if !discovery.HasGlob(pattern) {
			pattern = strings.TrimRight(pattern, "/") + "/*"
		}
		exit, stdout, err := provider.RunRemote(ctx, host, listCommand(pattern))
		if err != nil {
			if intr := gitx.Interrupted(err); intr != nil {
				return intr
			}
			p.report.Warning(fmt.Sprintf("%s: listing %s:%s failed: %v", name, host, remotePath, err))
			continue
		}
		if exit != 0 {
			p.report.Warning(fmt.Sprintf("%s: listing %s:%s failed (exit %d)", name, host, remotePath, exit))
			continue
		}

		for _, entry := range gitx.SplitLines(stdout) {
			display := gitx.TrimRepoSuffix(path.Base(entry))
			localPath := gitx.CanonicalPath(filepath.Join(into, display))
			if listed[localPath] {
				continue
			}
			listed[localPath] = true

			ref := host + ":" + entry
			if kind == transport.KindLocal {
				ref = entry
			}
			target := model.RepoTarget{
				Name:       display,
				LocalPath:  localPath,
				RemoteRef:  ref,
				Mode:       model.ModeRemote,
				Provenance: name,
			}
			if err := p.remoteEntry(ctx, provider, kind, host, entry, target, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Planner) remoteEntry(ctx context.Context, provider transport.Provider, kind transport.Kind, host, entry string, target model.RepoTarget, opts engine.Options) error {
	if claimant, dup := p.claim(target.LocalPath, target.Provenance); dup {
		p.duplicate(target, claimant)
		return nil
	}
	if exists(target.LocalPath) {
		_, err := p.reconcile(ctx, target, opts)
		return err
	}

	exit, stdout, err := provider.RunRemote(ctx, host, inspectCommand(entry))
	if err != nil {
		if intr := gitx.Interrupted(err); intr != nil {
			return intr
		}
		p.report.Warning(fmt.Sprintf("%s: inspecting %s failed: %v", target.Provenance, target.RemoteRef, err))
		return nil
	}
	switch {
	case exit == exitNotRepo:
		p.emit(model.SyncOutcome{
			Target:    target,
			FinalKind: model.StateUnversioned,
			Action:    model.ActionSkipped,
			Note:      "not a repository on " + host,
		})
		return nil
	case exit != 0:
		p.report.Warning(fmt.Sprintf("%s: inspecting %s failed (exit %d)", target.Provenance, target.RemoteRef, exit))
		return nil
	case strings.TrimSpace(stdout) == "true":
		p.emit(model.SyncOutcome{
			Target:    target,
			FinalKind: model.StateIgnored,
			Action:    model.ActionSkipped,
			Note:      "sync.ignore set on " + host,
		})
		return nil
	}

	if opts.DryRun {
		p.emit(model.SyncOutcome{Target: target, Action: model.ActionSkipped, Note: "would clone " + target.RemoteRef})
		return nil
	}
	out, err := p.clone(ctx, target, source{provider: provider, kind: kind, ref: target.RemoteRef})
	if err != nil {
		return err
	}
	p.emit(out)
	return nil
}

// listCommand prints the directories matching pattern, one per line. The
// remote shell expands the pattern.
func listCommand(pattern string) string {
	return fmt.Sprintf(`for d in %s; do if [ -d "$d" ]; then printf '%%s\n' "$d"; fi; done`, globQuote(pattern))
}

// inspectCommand exits exitNotRepo unless dir holds a working copy or a bare
// repository, and prints the repository's sync.ignore flag.
func inspectCommand(dir string) string {
	return fmt.Sprintf(`cd %s 2>/dev/null || exit %d; if [ -d .git ] || [ -f HEAD ]; then git config --bool --get sync.ignore || true; else exit %d; fi`,
		transport.ShellQuote(dir), exitNotRepo, exitNotRepo)
}

// globQuote escapes shell metacharacters in pattern, leaving glob
// characters and a leading ~ for the shell to expand.
func globQuote(pattern string) string {
	var b strings.Builder
	for i, r := range pattern {
		switch {
		case r == '~' && i == 0:
		case strings.ContainsRune(" \t\n'\"\\$`!()<>|&;#~", r):
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
