package graph

import (
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

func testTriples() []common.Triple {
	return []common.Triple{
		{Subject: "Einstein", Relation: "developed", Object: "Theory of Relativity", ChunkID: "c1"},
		{Subject: "Theory of Relativity", Relation: "revolutionized", Object: "Physics", ChunkID: "c2"},
		{Subject: "Einstein", Relation: "born in", Object: "Germany", ChunkID: "c3"},
	}
}

func TestBuildMergesEntitiesAcrossChunks(t *testing.T) {
	g := Build(testTriples())

	e, ok := g.Entity("einstein")
	if !ok {
		t.Fatal("entity einstein not found")
	}
	wantChunks := []string{"c1", "c3"}
	got := append([]string(nil), e.ChunkIDs...)
	sort.Strings(got)
	if !reflect.DeepEqual(got, wantChunks) {
		t.Errorf("einstein chunk ids = %v, want %v", got, wantChunks)
	}
}

func TestBuildNoOrphanEntities(t *testing.T) {
	g := Build(testTriples())

	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(i)
		if n.Kind != NodeEntity {
			continue
		}
		hasChunkEdge := false
		for _, e := range g.adj[i] {
			if g.Node(e.To).Kind == NodeChunk {
				hasChunkEdge = true
				break
			}
		}
		if !hasChunkEdge {
			t.Errorf("entity node %q has no edge to any chunk", n.Key)
		}
	}
}

func TestBuildDeterministicUnderReordering(t *testing.T) {
	triples := testTriples()
	reversed := make([]common.Triple, len(triples))
	for i, tr := range triples {
		reversed[len(triples)-1-i] = tr
	}

	g1 := Build(triples)
	g2 := Build(reversed)

	if g1.NumNodes() != g2.NumNodes() {
		t.Fatalf("node counts differ: %d vs %d", g1.NumNodes(), g2.NumNodes())
	}
	for i := 0; i < g1.NumNodes(); i++ {
		if g1.Node(i) != g2.Node(i) {
			t.Errorf("node %d differs: %+v vs %+v", i, g1.Node(i), g2.Node(i))
		}
		if !reflect.DeepEqual(g1.adj[i], g2.adj[i]) {
			t.Errorf("adjacency %d differs: %v vs %v", i, g1.adj[i], g2.adj[i])
		}
	}
}

func TestBuildAccumulatesEdgeWeights(t *testing.T) {
	triples := []common.Triple{
		{Subject: "A", Relation: "rel", Object: "B", ChunkID: "c1"},
		{Subject: "A", Relation: "other rel", Object: "B", ChunkID: "c1"},
	}
	g := Build(triples)

	ai, _ := g.EntityNode("a")
	bi, _ := g.EntityNode("b")
	var got float64
	for _, e := range g.adj[ai] {
		if e.To == bi {
			got = e.Weight
		}
	}
	if got != 2 {
		t.Errorf("a-b edge weight = %v, want 2", got)
	}
}

func TestBuildSkipsUnusableTriples(t *testing.T) {
	triples := []common.Triple{
		{Subject: "", Relation: "rel", Object: "B", ChunkID: "c1"},
		{Subject: "A", Relation: "rel", Object: "?!", ChunkID: "c1"},
		{Subject: "A", Relation: "rel", Object: "B", ChunkID: ""},
	}
	g := Build(triples)
	if g.NumNodes() != 0 {
		t.Errorf("NumNodes() = %d, want 0", g.NumNodes())
	}
	if len(g.Triples()) != 0 {
		t.Errorf("Triples() has %d entries, want 0", len(g.Triples()))
	}
}

func TestPropagateEmptySeedsReturnsZeros(t *testing.T) {
	g := Build(testTriples())

	scores := Propagate(g, nil, DefaultPPROptions())
	if len(scores) != g.NumNodes() {
		t.Fatalf("len(scores) = %d, want %d", len(scores), g.NumNodes())
	}
	for i, s := range scores {
		if s != 0 {
			t.Errorf("scores[%d] = %v, want 0", i, s)
		}
	}
}

func TestPropagateSeededScoresNearbyChunksHigher(t *testing.T) {
	g := Build(testTriples())

	germany, ok := g.EntityNode("germany")
	if !ok {
		t.Fatal("entity germany not found")
	}
	scores := Propagate(g, map[int]float64{germany: 1}, DefaultPPROptions())

	chunkScores := g.ChunkScores(scores)
	if chunkScores["c3"] <= chunkScores["c1"] {
		t.Errorf("c3 score %v not above c1 score %v", chunkScores["c3"], chunkScores["c1"])
	}
	if chunkScores["c3"] <= chunkScores["c2"] {
		t.Errorf("c3 score %v not above c2 score %v", chunkScores["c3"], chunkScores["c2"])
	}
}

func TestPropagateMassConserved(t *testing.T) {
	g := Build(testTriples())

	seed, _ := g.EntityNode("einstein")
	scores := Propagate(g, map[int]float64{seed: 1}, DefaultPPROptions())

	var total float64
	for _, s := range scores {
		total += s
	}
	if math.Abs(total-1) > 1e-3 {
		t.Errorf("score mass = %v, want ~1", total)
	}
}

func TestHolderSwapKeepsReaderSnapshot(t *testing.T) {
	h := NewHolder()
	if h.Current() != nil {
		t.Fatal("Current() before first Swap should be nil")
	}

	g1 := Build(testTriples())
	s1 := h.Swap(g1)

	reader := h.Current()
	if reader.Graph != g1 {
		t.Fatal("reader did not get first graph")
	}

	g2 := Build(testTriples()[:1])
	s2 := h.Swap(g2)

	// The in-flight reader keeps its snapshot; new readers see the new one.
	if reader.Graph != g1 {
		t.Error("in-flight snapshot changed after Swap")
	}
	if h.Current().Graph != g2 {
		t.Error("Current() does not return the new graph")
	}
	if s2.Version <= s1.Version {
		t.Errorf("versions not increasing: %d then %d", s1.Version, s2.Version)
	}
}
