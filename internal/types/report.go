package types

import "time"

// TimeWindow is a named half-open interval [Since, Until) in UTC. Windows may
// overlap; membership is decided by timestamp alone.
type TimeWindow struct {
	Label string    `json:"label"`
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// Contains reports whether ts falls inside the window. Since is inclusive,
// Until is exclusive.
func (w TimeWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Since) && ts.Before(w.Until)
}

// ContributorStats is the per-contributor sub-total inside one window.
// Contributors are grouped by the name+email pair, not by the login-first
// canonical key used for repo-wide developer rollups. The two conventions
// serve different call sites and are deliberately kept apart.
type ContributorStats struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Commits   int    `json:"commits"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

// WindowStats is the roll-up of one time window over the merged commit set.
type WindowStats struct {
	Window         TimeWindow         `json:"window"`
	TotalCommits   int                `json:"total_commits"`
	TotalAdditions int                `json:"total_additions"`
	TotalDeletions int                `json:"total_deletions"`
	TotalChanges   int                `json:"total_changes"`
	Contributors   []ContributorStats `json:"contributors"`
}

// BranchReport is the per-branch slice of the aggregation result. A branch
// whose listing failed is carried with FetchError set and zero commits so the
// overall report stays well formed.
type BranchReport struct {
	Name         string        `json:"name"`
	Protected    bool          `json:"protected"`
	IsDefault    bool          `json:"is_default"`
	TotalCommits int           `json:"total_commits"`
	MergedPulls  []PullRequest `json:"merged_pulls,omitempty"`
	FetchError   string        `json:"fetch_error,omitempty"`
}

// Report is the full aggregation result for one repository. It is a pure,
// request-scoped transformation; nothing here is persisted.
type Report struct {
	Repository  Repository     `json:"repository"`
	GeneratedAt time.Time      `json:"generated_at"`
	Branches    []BranchReport `json:"branches"`
	Commits     []*Commit      `json:"commits"`
	Developers  []*Developer   `json:"developers"`
	Windows     []WindowStats  `json:"windows"`
	Recent      []*Commit      `json:"recent_commits"`

	RateLimit *RateLimitInfo `json:"rate_limit,omitempty"`
}
