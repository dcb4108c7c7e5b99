package identity

import "testing"

func TestResolveFallbackOrder(t *testing.T) {
	tests := []struct {
		name        string
		id          Identity
		wantKey     string
		wantDisplay string
	}{
		{
			"author login wins",
			Identity{AuthorLogin: "Alice-Dev", CommitterLogin: "bob", AuthorName: "Alice", CommitterName: "Bob"},
			"alice-dev", "Alice-Dev",
		},
		{
			"committer login next",
			Identity{CommitterLogin: "Bob-Dev", AuthorName: "Alice", CommitterName: "Bob"},
			"bob-dev", "Bob-Dev",
		},
		{
			"author name next",
			Identity{AuthorName: "Alice Smith", CommitterName: "Bob"},
			"alice smith", "Alice Smith",
		},
		{
			"committer name last resort",
			Identity{CommitterName: "Bob Jones"},
			"bob jones", "Bob Jones",
		},
		{
			"nothing usable",
			Identity{},
			Unknown, Unknown,
		},
		{
			"whitespace is not usable",
			Identity{AuthorLogin: "   ", AuthorName: "Alice"},
			"alice", "Alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, display := Resolve(tt.id)
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
			if display != tt.wantDisplay {
				t.Errorf("display = %q, want %q", display, tt.wantDisplay)
			}
		})
	}
}

func TestResolveCaseCollapse(t *testing.T) {
	k1, _ := Resolve(Identity{AuthorName: "Alice"})
	k2, _ := Resolve(Identity{AuthorName: "alice"})
	k3, _ := Resolve(Identity{AuthorName: "ALICE"})
	if k1 != k2 || k2 != k3 {
		t.Errorf("case variants should collapse: %q %q %q", k1, k2, k3)
	}
}

func TestResolveIdempotent(t *testing.T) {
	id := Identity{AuthorLogin: "Carol-X", AuthorName: "Carol"}
	k1, d1 := Resolve(id)
	k2, d2 := Resolve(id)
	if k1 != k2 || d1 != d2 {
		t.Error("Resolve must be idempotent for identical input")
	}
}
