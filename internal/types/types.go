package types

import (
	"time"
)

// Repository holds the metadata needed to drive an aggregation pass.
type Repository struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}

// Branch is a read-only snapshot of a branch taken once per aggregation pass.
type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	HeadSHA   string `json:"head_sha"`
}

// FileChange describes one file touched by a commit. Patch is only populated
// by the detail fetch and is capped in size.
type FileChange struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// Commit is the merged, annotated view of one commit. It is created when the
// commit is first observed on any branch; after that only Branches grows and
// the derived Classification/Scores fields are attached.
type Commit struct {
	SHA            string   `json:"sha"`
	AuthorName     string   `json:"author_name"`
	AuthorEmail    string   `json:"author_email"`
	AuthorLogin    string   `json:"author_login"`
	CommitterName  string   `json:"committer_name"`
	CommitterEmail string   `json:"committer_email"`
	CommitterLogin string   `json:"committer_login"`
	// Message holds the first line of the commit message only.
	Message   string    `json:"message"`
	Timestamp time.Time `json:"date"`

	Additions int          `json:"additions"`
	Deletions int          `json:"deletions"`
	Changes   int          `json:"changes"`
	Files     []FileChange `json:"files"`

	// Branches is the union of every branch this commit was observed on.
	Branches []string `json:"branches"`

	Classification *Classification `json:"classification,omitempty"`
	Scores         *CommitScores   `json:"scores,omitempty"`
}

// Classification labels a commit as a bug fix or a low/high impact feature.
type Classification struct {
	Label Label `json:"label"`
	// FilesPercent and TotalFiles are only set when the branch file total
	// was known at classification time.
	FilesPercent *float64 `json:"files_percent,omitempty"`
	TotalFiles   *int     `json:"total_files,omitempty"`
}

// Label is the classification bucket for a commit.
type Label string

const (
	LabelBugFix      Label = "bug_fix"
	LabelLowFeature  Label = "low_feature"
	LabelHighFeature Label = "high_feature"
)

// RatingLevel is a coarse three-step rating used for impact/complexity/risk.
type RatingLevel string

const (
	RatingLow    RatingLevel = "low"
	RatingMedium RatingLevel = "medium"
	RatingHigh   RatingLevel = "high"
)

// CommitScores holds the six heuristic dimensions, each clamped to [0,100],
// plus the coarse companion ratings.
type CommitScores struct {
	CodeQuality     int `json:"code_quality"`
	Performance     int `json:"performance"`
	Security        int `json:"security"`
	Maintainability int `json:"maintainability"`
	Testing         int `json:"testing"`
	Documentation   int `json:"documentation"`

	Impact     RatingLevel `json:"impact"`
	Complexity RatingLevel `json:"complexity"`
	Risk       RatingLevel `json:"risk"`
}

// Developer aggregates the commits attributed to one canonical identity key.
// Counters are recomputed from the constituent commits, never drifted.
type Developer struct {
	Key          string   `json:"key"`
	DisplayName  string   `json:"display_name"`
	Commits      int      `json:"commits"`
	Additions    int      `json:"additions"`
	Deletions    int      `json:"deletions"`
	Changes      int      `json:"changes"`
	FilesTouched int      `json:"files_touched"`
	Branches     []string `json:"branches"`
	CommitSHAs   []string `json:"commit_shas"`

	// Percentage views over the developer's commits, derived from the
	// per-commit scores and ratings.
	QualityPercent    float64 `json:"quality_percent"`
	RiskPercent       float64 `json:"risk_percent"`
	SimplicityPercent float64 `json:"simplicity_percent"`
}

// PullRequest is a merged pull request targeting a base branch.
type PullRequest struct {
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	AuthorLogin  string     `json:"author_login"`
	BaseRef      string     `json:"base_ref"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
}

// RateLimitInfo surfaces the upstream rate limit headers to the caller.
// The client never self-throttles on these; backoff policy belongs upstream.
type RateLimitInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}
