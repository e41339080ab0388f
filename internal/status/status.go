// Package status interprets long-form `git status` text into a RepoState.
package status

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/skaphos/gitsync/internal/model"
)

// Relation is the tracking relationship reported by status.
type Relation string

const (
	RelationNone        Relation = "none"
	RelationUpToDate    Relation = "up_to_date"
	RelationFastForward Relation = "fast_forward"
	RelationDiverged    Relation = "diverged"
	RelationAhead       Relation = "ahead"
	RelationBehind      Relation = "behind"
)

// CleanPhrase is the status phrase that marks a clean working tree.
const CleanPhrase = "nothing to commit"

var (
	branchRe      = regexp.MustCompile(`(?m)^On branch (\S+)`)
	detachedRe    = regexp.MustCompile(`(?m)^HEAD detached (?:at|from) (\S+)`)
	fastForwardRe = regexp.MustCompile(`Your branch is behind '([^']+)' by (\d+) commits?, and can be fast-forwarded`)
	divergedRe    = regexp.MustCompile(`Your branch and '([^']+)' have diverged, and have (\d+) and (\d+) different commits? each`)
	aheadRe       = regexp.MustCompile(`Your branch is ahead of '([^']+)' by (\d+) commits?`)
	behindRe      = regexp.MustCompile(`Your branch is behind '([^']+)' by (\d+) commits?`)
	upToDateRe    = regexp.MustCompile(`Your branch is up[ -]to[ -]date with '([^']+)'`)
)

// Parsed is the structured content of one status text.
type Parsed struct {
	Branch   string
	Detached bool
	Dirty    bool
	Relation Relation
	// Tracking is the upstream ref named by status.
	Tracking string
	Ahead    int
	Behind   int
}

// Parse extracts branch, dirtiness and the tracking relationship from raw
// status output. Unrecognized text is never an error.
func Parse(raw string) Parsed {
	p := Parsed{Branch: model.BranchNone, Relation: RelationNone}
	if m := branchRe.FindStringSubmatch(raw); m != nil {
		p.Branch = m[1]
	} else if detachedRe.MatchString(raw) {
		p.Branch = model.BranchDetached
		p.Detached = true
	}

	// Long tracking sentences may be wrapped; match on collapsed whitespace.
	flat := strings.Join(strings.Fields(raw), " ")
	p.Dirty = !strings.Contains(flat, CleanPhrase)

	switch {
	case fastForwardRe.MatchString(flat):
		m := fastForwardRe.FindStringSubmatch(flat)
		p.Relation, p.Tracking, p.Behind = RelationFastForward, m[1], atoi(m[2])
	case divergedRe.MatchString(flat):
		m := divergedRe.FindStringSubmatch(flat)
		p.Relation, p.Tracking, p.Ahead, p.Behind = RelationDiverged, m[1], atoi(m[2]), atoi(m[3])
	case aheadRe.MatchString(flat):
		m := aheadRe.FindStringSubmatch(flat)
		p.Relation, p.Tracking, p.Ahead = RelationAhead, m[1], atoi(m[2])
	case behindRe.MatchString(flat):
		m := behindRe.FindStringSubmatch(flat)
		p.Relation, p.Tracking, p.Behind = RelationBehind, m[1], atoi(m[2])
	case upToDateRe.MatchString(flat):
		m := upToDateRe.FindStringSubmatch(flat)
		p.Relation, p.Tracking = RelationUpToDate, m[1]
	}
	return p
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Observation gathers everything known about a working copy before its
// state is classified.
type Observation struct {
	// Bare is reported by the repository config and wins over everything.
	Bare bool
	// StatusFailed means the status query itself failed.
	StatusFailed bool
	// Ignored is the sync.ignore repository flag.
	Ignored    bool
	Raw        string
	Bridged    bool
	StashCount int
}

// Interpret classifies an observation. Exactly one kind applies, chosen in
// priority order: bare, unversioned, ignored, fast-forwardable, diverged,
// ahead, behind, dirty, up to date.
func Interpret(obs Observation) model.RepoState {
	state := model.RepoState{
		Branch:     model.BranchNone,
		Bridged:    obs.Bridged,
		StashCount: obs.StashCount,
	}
	switch {
	case obs.Bare:
		state.Kind = model.StateBare
		return state
	case obs.StatusFailed:
		state.Kind = model.StateUnversioned
		return state
	case obs.Ignored:
		state.Kind = model.StateIgnored
		return state
	}

	p := Parse(obs.Raw)
	state.Branch = p.Branch
	state.TrackingRef = p.Tracking
	state.Dirty = p.Dirty
	state.Ahead = p.Ahead
	state.Behind = p.Behind

	switch {
	case !p.Dirty && p.Relation == RelationFastForward && p.Behind > 0:
		state.Kind = model.StateFastForwardable
	case p.Relation == RelationDiverged && p.Ahead > 0 && p.Behind > 0:
		state.Kind = model.StateDiverged
	case p.Relation == RelationAhead && p.Ahead > 0:
		state.Kind = model.StateAhead
	case p.Relation == RelationBehind && p.Behind > 0:
		state.Kind = model.StateBehind
	case p.Dirty:
		state.Kind = model.StateDirty
	default:
		state.Kind = model.StateUpToDate
	}
	return state
}
