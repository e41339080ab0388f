// Package model defines the core data types used throughout gitsync.
package model

// Mode is the provisioning mode that discovered a target.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
	ModeForge  Mode = "forge"
)

// Remote represents a single git remote.
type Remote struct {
	// Name is the configured remote name (for example, "origin").
	Name string `json:"name" yaml:"name"`
	// URL is the remote fetch URL.
	URL string `json:"url" yaml:"url"`
}

// RepoTarget identifies one synchronization unit.
type RepoTarget struct {
	// Name is the display name, with any trailing ".git" stripped.
	Name string `json:"name" yaml:"name"`
	// LocalPath is the working copy location. Unique across a run.
	LocalPath string `json:"local_path" yaml:"local_path"`
	// RemoteRef is the clone source (URL or host:path). Empty when the
	// working copy already exists and no clone is needed.
	RemoteRef string `json:"remote_ref,omitempty" yaml:"remote_ref,omitempty"`
	// Mode is the provisioning mode of the category that discovered it.
	Mode Mode `json:"mode" yaml:"mode"`
	// Provenance is the configuration category that discovered it.
	Provenance string `json:"provenance" yaml:"provenance"`
}

// StateKind enumerates the synchronization states of a working copy.
type StateKind string

const (
	StateUnversioned     StateKind = "unversioned"
	StateIgnored         StateKind = "ignored"
	StateBare            StateKind = "bare"
	StateFastForwardable StateKind = "fast_forwardable"
	StateAhead           StateKind = "ahead"
	StateBehind          StateKind = "behind"
	StateDiverged        StateKind = "diverged"
	StateUpToDate        StateKind = "up_to_date"
	StateDirty           StateKind = "dirty"
)

const (
	// BranchNone is reported when status names no branch at all.
	BranchNone = "none"
	// BranchDetached is reported for a detached HEAD.
	BranchDetached = "detached"
)

// RepoState is the derived, per-run state of one working copy. It is never
// persisted.
type RepoState struct {
	Kind StateKind `json:"kind" yaml:"kind"`
	// Branch is the current branch, or BranchNone / BranchDetached.
	Branch string `json:"branch" yaml:"branch"`
	// TrackingRef is the upstream ref named by status, if any.
	TrackingRef string `json:"tracking_ref,omitempty" yaml:"tracking_ref,omitempty"`
	// Ahead and Behind are meaningful only for the corresponding kinds.
	Ahead  int `json:"ahead" yaml:"ahead"`
	Behind int `json:"behind" yaml:"behind"`
	// StashCount is display-only.
	StashCount int  `json:"stash_count" yaml:"stash_count"`
	Dirty      bool `json:"dirty" yaml:"dirty"`
	// Bridged is true for a bridge clone of a centralized-VCS upstream.
	Bridged bool `json:"bridged" yaml:"bridged"`
}

// Action is what the engine or planner did for a target.
type Action string

const (
	ActionNone              Action = "none"
	ActionFetchOnly         Action = "fetch_only"
	ActionFetchAndIntegrate Action = "fetch_and_integrate"
	ActionCloned            Action = "cloned"
	ActionCloneFailed       Action = "clone_failed"
	ActionFetchFailed       Action = "fetch_failed"
	ActionIntegrateFailed   Action = "integrate_failed"
	ActionSkipped           Action = "skipped"
)

// Failed reports whether the action records a failure.
func (a Action) Failed() bool {
	switch a {
	case ActionCloneFailed, ActionFetchFailed, ActionIntegrateFailed:
		return true
	default:
		return false
	}
}

// SyncOutcome is the result of processing one target.
type SyncOutcome struct {
	Target    RepoTarget `json:"target" yaml:"target"`
	FinalKind StateKind  `json:"final_kind" yaml:"final_kind"`
	Action    Action     `json:"action" yaml:"action"`
	// State is the interpreted state, when status was read.
	State *RepoState `json:"state,omitempty" yaml:"state,omitempty"`
	// CommitLog holds one-line commit summaries, newest first as git log
	// prints them.
	CommitLog []string `json:"commit_log,omitempty" yaml:"commit_log,omitempty"`
	// Stash holds stash list entries when stash reporting is enabled.
	Stash       []string `json:"stash,omitempty" yaml:"stash,omitempty"`
	ErrorDetail string   `json:"error,omitempty" yaml:"error,omitempty"`
	// ErrorClass is a coarse category for ErrorDetail (auth, network, ...).
	ErrorClass string `json:"error_class,omitempty" yaml:"error_class,omitempty"`
	// Note carries informational text that is not an error.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
	// Suppressed marks outcomes hidden by terse output.
	Suppressed bool `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	// Duplicate marks a target already claimed by an earlier category.
	Duplicate bool `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
}
