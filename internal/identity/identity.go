// Package identity normalizes commit author/committer fields into one
// canonical developer key. Every place that groups commits by developer must
// go through Resolve so the grouping stays consistent.
//
// Note: windowed contributor stats intentionally use a different grouping
// (name+email pair, see internal/temporal) that mirrors the reporting
// endpoints' historical behavior. Do not unify the two without checking the
// downstream consumers.
package identity

import "strings"

// Unknown is the canonical key assigned when no identity field is usable.
const Unknown = "unknown"

// Identity carries the raw identity fields of one commit.
type Identity struct {
	AuthorLogin    string
	CommitterLogin string
	AuthorName     string
	CommitterName  string
}

// Resolve maps raw identity fields to a canonical lower-cased key plus the
// display form of the value that won. Fallback order: author login,
// committer login, author name, committer name, then Unknown.
// Resolve is pure; the same input always yields the same key.
func Resolve(id Identity) (key, display string) {
	for _, raw := range []string{id.AuthorLogin, id.CommitterLogin, id.AuthorName, id.CommitterName} {
		raw = strings.TrimSpace(raw)
		if raw != "" {
			return strings.ToLower(raw), raw
		}
	}
	return Unknown, Unknown
}
