package retrieval

import (
	"math"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

// DenseIndex scores chunks against a query embedding by cosine
// similarity. The index is immutable after construction; re-indexing
// builds a new instance.
type DenseIndex struct {
	chunks []common.Chunk
	byID   map[string]*common.Chunk
}

// NewDenseIndex builds a dense index over the given chunks. Chunks
// without an embedding stay in the index (they are still resolvable by
// ID) but always score 0.
func NewDenseIndex(chunks []common.Chunk) *DenseIndex {
	idx := &DenseIndex{
		chunks: chunks,
		byID:   make(map[string]*common.Chunk, len(chunks)),
	}
	for i := range idx.chunks {
		idx.byID[idx.chunks[i].ID] = &idx.chunks[i]
	}
	return idx
}

// Scores returns the cosine similarity of every embedded chunk to the
// query embedding, keyed by chunk ID. A nil or empty query embedding
// yields an empty map (the dense path degrades to no signal).
func (idx *DenseIndex) Scores(queryEmb []float32) map[string]float64 {
	out := make(map[string]float64, len(idx.chunks))
	if len(queryEmb) == 0 {
		return out
	}
	for i := range idx.chunks {
		c := &idx.chunks[i]
		if len(c.Embedding) != len(queryEmb) {
			continue
		}
		out[c.ID] = cosine(queryEmb, c.Embedding)
	}
	return out
}

// Chunk resolves a chunk by its identifier.
func (idx *DenseIndex) Chunk(id string) (*common.Chunk, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

// Chunks returns all indexed chunks.
func (idx *DenseIndex) Chunks() []common.Chunk {
	return idx.chunks
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
