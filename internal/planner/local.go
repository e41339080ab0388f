package planner

import (
	"context"
	"fmt"

	"github.com/skaphos/gitsync/internal/config"
	"github.com/skaphos/gitsync/internal/discovery"
	"github.com/skaphos/gitsync/internal/engine"
	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
)

// runLocal reconciles the immediate subdirectories of every root. Paths
// claimed earlier in the run are skipped silently.
func (p *Planner) runLocal(ctx context.Context, name string, cat config.Category, opts engine.Options) error {
	if len(cat.Into) == 0 {
		return &config.Error{Category: name, Key: "into", Msg: "at least one directory required"}
	}
	res, err := discovery.Scan(discovery.Options{Roots: cat.Into, Exclude: p.cfg.Exclude})
	if err != nil {
		return fmt.Errorf("category %q: scan: %w", name, err)
	}
	for _, missing := range res.Missing {
		p.report.Warning(fmt.Sprintf("%s: %s does not exist, skipping", name, missing))
	}
	for _, entry := range res.Entries {
		localPath := gitx.CanonicalPath(entry.Path)
		if _, dup := p.claim(localPath, name); dup {
			continue
		}
		target := model.RepoTarget{
			Name:       entry.Name,
			LocalPath:  localPath,
			Mode:       model.ModeLocal,
			Provenance: name,
		}
		if _, err := p.reconcile(ctx, target, opts); err != nil {
			return err
		}
	}
	return nil
}
