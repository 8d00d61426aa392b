package common

// Chunk represents the unit of indexed text. Chunks are immutable once
// indexed; re-indexing replaces them wholesale.
//
// Institution carries the provenance tag of the source document and is
// used for post-ranking filtering.
type Chunk struct {
	ID          string    `json:"id"`
	DocID       string    `json:"doc_id"`
	Institution string    `json:"institution"`
	Text        string    `json:"text"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// Entity represents a named node in the knowledge graph.
//
// Key is the normalized form of Name (case and diacritic insensitive) and
// is used to merge mentions of the same entity across chunks. ChunkIDs
// lists every chunk the entity was extracted from.
type Entity struct {
	Name     string   `json:"name"`
	Key      string   `json:"key"`
	ChunkIDs []string `json:"chunk_ids"`
}

// Triple is a (subject, relation, object) fact extracted from a chunk.
// The relation label is an open vocabulary; extraction is best-effort and
// the graph tolerates noisy or duplicate relations. ChunkID links the
// triple back to its originating chunk.
type Triple struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
	ChunkID  string `json:"chunk_id"`
}

// QueryEntity is an entity detected in a query, with the detection
// confidence reported by the extraction model.
//
// Institution marks entities that scope the query to a particular source
// (used by the provenance filter and the decomposition coordinator).
type QueryEntity struct {
	Name        string  `json:"name"`
	Key         string  `json:"key"`
	Confidence  float64 `json:"confidence"`
	Institution bool    `json:"institution"`
}

// RankedPassage is one entry of a final retrieval result: a chunk, its
// fused score, and its provenance tag (via the chunk's Institution field).
type RankedPassage struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
}
