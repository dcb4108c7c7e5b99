// Package aggregate folds per-branch commit streams into one deduplicated,
// annotated view and assembles the caller-facing report. Everything here is
// synchronous, in-memory transformation; fetching has already happened by
// the time a commit reaches the merger.
package aggregate

import (
	"github.com/gitpulse/gitpulse/internal/types"
)

// MergedSet is the identifier-keyed commit collection built up across
// branches. A commit is inserted the first time it is observed on any
// branch; later observations only union in branch membership, so no field is
// ever re-derived and detail is fetched exactly once per identifier.
type MergedSet struct {
	byID  map[string]*types.Commit
	order []string
}

// NewMergedSet creates an empty merged commit set.
func NewMergedSet() *MergedSet {
	return &MergedSet{byID: make(map[string]*types.Commit)}
}

// Known reports whether the identifier is already present. Callers use this
// to skip re-fetching detail for commits shared across branches.
func (s *MergedSet) Known(sha string) bool {
	_, ok := s.byID[sha]
	return ok
}

// Insert adds a newly fetched commit observed on branch. If the identifier
// already exists, only the branch membership is unioned; the stored commit
// keeps every previously derived field. Returns true when the commit was new.
func (s *MergedSet) Insert(branch string, c *types.Commit) bool {
	if existing, ok := s.byID[c.SHA]; ok {
		addBranch(existing, branch)
		return false
	}
	addBranch(c, branch)
	s.byID[c.SHA] = c
	s.order = append(s.order, c.SHA)
	return true
}

// Observe unions branch membership for an already known identifier. Returns
// false when the identifier is unknown, in which case the caller still needs
// detail for it.
func (s *MergedSet) Observe(branch, sha string) bool {
	c, ok := s.byID[sha]
	if !ok {
		return false
	}
	addBranch(c, branch)
	return true
}

// Get returns the stored commit for an identifier, or nil.
func (s *MergedSet) Get(sha string) *types.Commit {
	return s.byID[sha]
}

// Commits returns all merged commits in first-observed order, which is
// deterministic given a fixed branch listing order.
func (s *MergedSet) Commits() []*types.Commit {
	out := make([]*types.Commit, 0, len(s.order))
	for _, sha := range s.order {
		out = append(out, s.byID[sha])
	}
	return out
}

// Len returns the number of distinct commits.
func (s *MergedSet) Len() int {
	return len(s.byID)
}

func addBranch(c *types.Commit, branch string) {
	for _, b := range c.Branches {
		if b == branch {
			return
		}
	}
	c.Branches = append(c.Branches, branch)
}
