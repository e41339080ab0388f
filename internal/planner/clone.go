package planner

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/transport"
)

// source is one way of reaching a clone origin.
type source struct {
	provider transport.Provider
	kind     transport.Kind
	ref      string
}

// clone tries each source in order, stopping at the first success. Only
// the last failure is reported; earlier ones are logged.
func (p *Planner) clone(ctx context.Context, target model.RepoTarget, sources ...source) (model.SyncOutcome, error) {
	out := model.SyncOutcome{Target: target}
	if err := os.MkdirAll(filepath.Dir(target.LocalPath), 0o755); err != nil {
		out.Action = model.ActionCloneFailed
		out.ErrorDetail = err.Error()
		return out, nil
	}

	var lastErr error
	for _, src := range sources {
		if src.ref == "" {
			continue
		}
		log := p.log.WithFields(logrus.Fields{"source": src.ref, "kind": src.kind, "path": target.LocalPath})
		log.Debug("clone")
		err := src.provider.Clone(ctx, src.kind, src.ref, target.LocalPath)
		if err == nil {
			out.Target.RemoteRef = src.ref
			out.Action = model.ActionCloned
			out.FinalKind = model.StateUpToDate
			return out, nil
		}
		if intr := gitx.Interrupted(err); intr != nil {
			return out, intr
		}
		log.WithError(err).Debug("clone failed")
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no clone source available")
	}
	out.Action = model.ActionCloneFailed
	out.ErrorDetail = lastErr.Error()
	out.ErrorClass = gitx.ClassifyError(lastErr)
	return out, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
