package retrieval

import (
	"math"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

func testChunks() []common.Chunk {
	return []common.Chunk{
		{ID: "c1", Text: "Einstein developed the theory of relativity.", Embedding: []float32{1, 0, 0}},
		{ID: "c2", Text: "The theory of relativity revolutionized physics.", Embedding: []float32{0, 1, 0}},
		{ID: "c3", Text: "Einstein was born in Germany in 1879.", Embedding: []float32{0.9, 0.1, 0}},
	}
}

func TestDenseScoresRankByCosine(t *testing.T) {
	idx := NewDenseIndex(testChunks())

	scores := idx.Scores([]float32{1, 0, 0})
	if scores["c1"] <= scores["c2"] {
		t.Errorf("c1 score %v not above c2 score %v", scores["c1"], scores["c2"])
	}
	if scores["c3"] <= scores["c2"] {
		t.Errorf("c3 score %v not above c2 score %v", scores["c3"], scores["c2"])
	}
	if math.Abs(scores["c1"]-1) > 1e-9 {
		t.Errorf("identical vectors score = %v, want 1", scores["c1"])
	}
}

func TestDenseScoresEmptyQueryEmbedding(t *testing.T) {
	idx := NewDenseIndex(testChunks())

	if got := idx.Scores(nil); len(got) != 0 {
		t.Errorf("Scores(nil) = %v, want empty", got)
	}
}

func TestDenseScoresSkipsDimensionMismatch(t *testing.T) {
	chunks := testChunks()
	chunks[1].Embedding = []float32{0, 1}
	idx := NewDenseIndex(chunks)

	scores := idx.Scores([]float32{1, 0, 0})
	if _, ok := scores["c2"]; ok {
		t.Error("chunk with mismatched embedding should not be scored")
	}
	if _, ok := scores["c1"]; !ok {
		t.Error("chunk c1 missing from scores")
	}
}

func TestDenseChunkLookup(t *testing.T) {
	idx := NewDenseIndex(testChunks())

	c, ok := idx.Chunk("c2")
	if !ok {
		t.Fatal("Chunk(c2) not found")
	}
	if c.ID != "c2" {
		t.Errorf("Chunk(c2).ID = %q", c.ID)
	}
	if _, ok := idx.Chunk("missing"); ok {
		t.Error("Chunk(missing) should not resolve")
	}
}

func TestLexicalScoresFavorTermOverlap(t *testing.T) {
	idx := NewLexicalIndex(testChunks())

	scores := idx.Scores("where was Einstein born")
	if scores["c3"] <= scores["c1"] {
		t.Errorf("c3 score %v not above c1 score %v", scores["c3"], scores["c1"])
	}
	if scores["c3"] <= scores["c2"] {
		t.Errorf("c3 score %v not above c2 score %v", scores["c3"], scores["c2"])
	}
}

func TestLexicalScoresNoOverlapIsZero(t *testing.T) {
	idx := NewLexicalIndex(testChunks())

	scores := idx.Scores("quantum chromodynamics")
	for id, s := range scores {
		if s != 0 {
			t.Errorf("score[%s] = %v, want 0", id, s)
		}
	}
}

func TestLexicalScoresEmptyIndex(t *testing.T) {
	idx := NewLexicalIndex(nil)

	if got := idx.Scores("anything"); len(got) != 0 {
		t.Errorf("Scores() on empty index = %v, want empty", got)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Einstein, born 1879 (Ulm)!")
	want := []string{"einstein", "born", "1879", "ulm"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %v, want %v", got, want)
	}
}
