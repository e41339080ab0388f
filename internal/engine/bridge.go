package engine

import (
	"context"

	"github.com/skaphos/gitsync/internal/gitx"
)

// readStatus returns the raw status text. statusErr reports a failed status
// query; err is non-nil only for interrupts. For bridged working copies the
// current branch is pointed at the bridge ref for the duration of the
// query.
func (e *Engine) readStatus(ctx context.Context, dir string, bridged bool) (raw string, statusErr, err error) {
	if bridged {
		restore, err := e.rewriteUpstream(ctx, dir)
		if err != nil {
			return "", nil, err
		}
		defer restore()
	}
	raw, statusErr = e.adapter.Status(ctx, dir)
	if intr := gitx.Interrupted(statusErr); intr != nil {
		return "", nil, intr
	}
	return raw, statusErr, nil
}

// rewriteUpstream points branch.<b>.merge at the bridge ref when no merge
// upstream is configured. The returned func puts the previous settings
// back and is safe to call when nothing was written.
func (e *Engine) rewriteUpstream(ctx context.Context, dir string) (func(), error) {
	noop := func() {}
	branch, ok, err := e.adapter.SymbolicRef(ctx, dir, "HEAD")
	if intr := gitx.Interrupted(err); intr != nil {
		return noop, intr
	}
	if !ok || branch == "" {
		return noop, nil
	}
	mergeKey := "branch." + branch + ".merge"
	remoteKey := "branch." + branch + ".remote"

	if _, set, err := e.adapter.ConfigGet(ctx, dir, mergeKey); err != nil || set {
		return noop, gitx.Interrupted(err)
	}
	prevRemote, hadRemote, err := e.adapter.ConfigGet(ctx, dir, remoteKey)
	if intr := gitx.Interrupted(err); intr != nil {
		return noop, intr
	}
	refspec, _, err := e.adapter.ConfigGet(ctx, dir, BridgeFetchKey)
	if intr := gitx.Interrupted(err); intr != nil {
		return noop, intr
	}
	ref := gitx.ParseBridgeRef(refspec)

	log := e.log.WithField("path", dir)
	// Restores run even when ctx is cancelled.
	restoreCtx := context.WithoutCancel(ctx)
	restore := func() {
		if err := e.adapter.ConfigUnset(restoreCtx, dir, mergeKey); err != nil {
			log.WithError(err).Warn("could not restore " + mergeKey)
		}
		var rerr error
		if hadRemote {
			rerr = e.adapter.ConfigSet(restoreCtx, dir, remoteKey, prevRemote)
		} else {
			rerr = e.adapter.ConfigUnset(restoreCtx, dir, remoteKey)
		}
		if rerr != nil {
			log.WithError(rerr).Warn("could not restore " + remoteKey)
		}
	}

	if err := e.adapter.ConfigSet(ctx, dir, remoteKey, "."); err != nil {
		restore()
		return noop, gitx.Interrupted(err)
	}
	if err := e.adapter.ConfigSet(ctx, dir, mergeKey, ref); err != nil {
		restore()
		return noop, gitx.Interrupted(err)
	}
	log.WithField("ref", ref).Debug("bridge upstream rewritten")
	return restore, nil
}
