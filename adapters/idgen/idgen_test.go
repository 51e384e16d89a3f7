package idgen_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/artpar/contentgate/adapters/idgen"
)

func TestUUID_Version7(t *testing.T) {
	g := idgen.UUID{}
	id, err := uuid.Parse(g.New())
	if err != nil {
		t.Fatalf("id is not a UUID: %v", err)
	}
	if id.Version() != 7 {
		t.Errorf("version = %d, want 7", id.Version())
	}
}

func TestUUID_Unique(t *testing.T) {
	g := idgen.UUID{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.New()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestSequential(t *testing.T) {
	g := idgen.NewSequential("post-")
	for _, want := range []string{"post-1", "post-2", "post-3"} {
		if got := g.New(); got != want {
			t.Errorf("New() = %q, want %q", got, want)
		}
	}
}
