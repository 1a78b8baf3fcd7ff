package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerate_Length(t *testing.T) {
	for _, prefix := range []string{PrefixWorkspace, PrefixProject, PrefixIssue, PrefixRelation, PrefixLink} {
		id, err := Generate(prefix)
		if err != nil {
			t.Fatalf("Generate(%q) returned error: %v", prefix, err)
		}
		if len(id) != len(prefix)+Length {
			t.Errorf("Generate(%q) = %q, want length %d, got %d", prefix, id, len(prefix)+Length, len(id))
		}
	}
}

func TestGenerate_Prefix(t *testing.T) {
	id, err := Generate(PrefixRelation)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(id, PrefixRelation) {
		t.Errorf("Generate(%q) = %q, missing prefix", PrefixRelation, id)
	}
}

func TestGenerate_Charset(t *testing.T) {
	valid := regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	for i := 0; i < 20; i++ {
		id, err := Generate(PrefixIssue)
		if err != nil {
			t.Fatal(err)
		}
		random := strings.TrimPrefix(id, PrefixIssue)
		if !valid.MatchString(random) {
			t.Errorf("random portion %q contains characters outside the alphabet", random)
		}
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := Generate(PrefixIssue)
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}
