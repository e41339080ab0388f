package report

import (
	"fmt"
	"strings"

	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/termstyle"
)

const nameWidth = 28

var failureTone = termstyle.Bold + termstyle.Error

// Line renders the one-line summary of an outcome.
func Line(o model.SyncOutcome, color bool) string {
	label, tone, detail := describe(o)
	var b strings.Builder
	name := o.Target.Name
	if name == "" {
		name = o.Target.LocalPath
	}
	fmt.Fprintf(&b, "%-*s %s", nameWidth, name, termstyle.Paint(color, label, tone))
	if detail != "" {
		b.WriteString(": " + detail)
	}
	if o.State != nil && o.State.StashCount > 0 {
		fmt.Fprintf(&b, " [%s]", plural(o.State.StashCount, "stash entry", "stash entries"))
	}
	return b.String()
}

// describe returns the label, its colour and any detail text.
func describe(o model.SyncOutcome) (string, string, string) {
	state := o.State
	if state == nil {
		state = &model.RepoState{}
	}
	switch {
	case o.Duplicate:
		return "skipped", termstyle.Info, o.Note
	case o.Action == model.ActionCloneFailed:
		return "clone failed", failureTone, failure(o)
	case o.Action == model.ActionFetchFailed:
		return "fetch failed", failureTone, failure(o)
	case o.Action == model.ActionIntegrateFailed:
		return "fast-forward failed", failureTone, failure(o)
	case o.Action == model.ActionCloned:
		return "cloned", termstyle.Healthy, joinDetail("from "+o.Target.RemoteRef, o.Note)
	case o.Action == model.ActionFetchAndIntegrate:
		return "updated", termstyle.Healthy, joinDetail(plural(state.Behind, "commit", "commits"), o.Note)
	}

	switch o.FinalKind {
	case model.StateUnversioned:
		return "not a repository", termstyle.Warn, joinDetail(o.ErrorDetail, o.Note)
	case model.StateIgnored:
		return "ignored", termstyle.Info, o.Note
	case model.StateBare:
		return "bare", termstyle.Healthy, o.Note
	case model.StateFastForwardable:
		return "behind", termstyle.Info, o.Note
	case model.StateAhead:
		return "ahead", termstyle.Warn, joinDetail(fmt.Sprintf("%s to push", plural(state.Ahead, "commit", "commits")), o.Note)
	case model.StateBehind:
		return "behind", termstyle.Warn, joinDetail(fmt.Sprintf("%s, cannot fast-forward", plural(state.Behind, "commit", "commits")), o.Note)
	case model.StateDiverged:
		return "diverged", termstyle.Error, joinDetail(fmt.Sprintf("%d ahead, %d behind %s", state.Ahead, state.Behind, state.TrackingRef), o.Note)
	case model.StateDirty:
		return "uncommitted changes", termstyle.Warn, joinDetail("on "+state.Branch, o.Note)
	case model.StateUpToDate:
		return "up to date", termstyle.Healthy, o.Note
	}
	if o.Action == model.ActionSkipped {
		return "skipped", termstyle.Info, o.Note
	}
	return string(o.Action), "", o.Note
}

func failure(o model.SyncOutcome) string {
	detail := firstLine(o.ErrorDetail)
	if o.ErrorClass != "" && o.ErrorClass != "unknown" {
		detail = fmt.Sprintf("(%s) %s", o.ErrorClass, detail)
	}
	return joinDetail(detail, o.Note)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func joinDetail(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
