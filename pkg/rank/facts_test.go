package rank

import (
	"testing"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
	"github.com/OFFIS-RIT/pomelo/pkg/graph"
)

func testGraph() *graph.Graph {
	return graph.Build([]common.Triple{
		{Subject: "Einstein", Relation: "developed", Object: "Theory of Relativity", ChunkID: "c1"},
		{Subject: "Theory of Relativity", Relation: "revolutionized", Object: "Physics", ChunkID: "c2"},
		{Subject: "Einstein", Relation: "born in", Object: "Germany", ChunkID: "c3"},
	})
}

func queryEntity(name string, institution bool) common.QueryEntity {
	return common.QueryEntity{
		Name:        name,
		Key:         graph.NormalizeKey(name),
		Confidence:  1,
		Institution: institution,
	}
}

func TestMatchExactEntity(t *testing.T) {
	m := NewMatcher(NewMatcherParams{})

	res := m.Match([]common.QueryEntity{queryEntity("Einstein", false)}, testGraph())
	if res.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", res.Confidence)
	}
	if len(res.Triples) != 2 {
		t.Fatalf("len(Triples) = %d, want 2", len(res.Triples))
	}
	if len(res.Seeds) == 0 {
		t.Error("no seeds for matched entity")
	}
}

func TestMatchNoEntities(t *testing.T) {
	m := NewMatcher(NewMatcherParams{})

	res := m.Match(nil, testGraph())
	if res.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", res.Confidence)
	}
	if len(res.Triples) != 0 || len(res.Seeds) != 0 {
		t.Errorf("expected empty match, got %d triples, %d seeds", len(res.Triples), len(res.Seeds))
	}
}

func TestMatchNoOverlap(t *testing.T) {
	m := NewMatcher(NewMatcherParams{})

	res := m.Match([]common.QueryEntity{queryEntity("Quantum Computing", false)}, testGraph())
	if res.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", res.Confidence)
	}
}

func TestMatchPartialOverlapUsesJaccard(t *testing.T) {
	m := NewMatcher(NewMatcherParams{MinSimilarity: 0.3})

	// "relativity theory" vs "theory of relativity": 2 shared of 3 union.
	res := m.Match([]common.QueryEntity{queryEntity("Relativity Theory", false)}, testGraph())
	if res.Confidence <= 0.3 || res.Confidence >= 1 {
		t.Errorf("Confidence = %v, want partial in (0.3, 1)", res.Confidence)
	}
}

func TestMatchConfidenceMonotone(t *testing.T) {
	m := NewMatcher(NewMatcherParams{MinSimilarity: 0.3})
	g := testGraph()

	partial := m.Match([]common.QueryEntity{queryEntity("Relativity Theory", false)}, g)
	both := m.Match([]common.QueryEntity{
		queryEntity("Relativity Theory", false),
		queryEntity("Einstein", false),
	}, g)

	if both.Confidence < partial.Confidence {
		t.Errorf("adding a match lowered confidence: %v < %v", both.Confidence, partial.Confidence)
	}
	if both.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1 with exact match present", both.Confidence)
	}
}

func TestKeySimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"einstein", "einstein", 1},
		{"einstein", "", 0},
		{"", "", 0},
		{"theory of relativity", "relativity theory", 2.0 / 3.0},
		{"germany", "france", 0},
	}
	for _, tt := range tests {
		if got := keySimilarity(tt.a, tt.b); got != tt.want {
			t.Errorf("keySimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
