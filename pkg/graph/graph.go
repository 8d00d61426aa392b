package graph

import (
	"sort"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

// NodeKind distinguishes the two node types of the knowledge graph.
type NodeKind uint8

const (
	NodeEntity NodeKind = iota
	NodeChunk
)

// Node is one entry of the graph's node arena. Key holds the normalized
// entity key for entity nodes and the chunk identifier for chunk nodes;
// Name keeps the first observed surface form of an entity.
type Node struct {
	Kind NodeKind
	Key  string
	Name string
}

// Edge is a weighted, undirected adjacency entry.
type Edge struct {
	To     int
	Weight float64
}

// Graph is the immutable knowledge graph built from extracted triples.
//
// Nodes live in an arena addressed by integer index; entity-entity edges
// come from shared triples and entity-chunk edges from extraction
// provenance, both weighted by co-occurrence count. A Graph is never
// mutated after Build returns; rebuilding produces a new instance that
// replaces the old one atomically (see Holder).
type Graph struct {
	nodes   []Node
	adj     [][]Edge
	degree  []float64 // total edge weight per node
	entIdx  map[string]int
	chIdx   map[string]int
	ents    map[string]*common.Entity
	triples []common.Triple
}

// Build constructs a graph from extracted triples. The result is
// deterministic for a given triple multiset: edge weights are commutative
// sums of co-occurrence counts, and node order follows the sorted triple
// order. Triples with an unusable subject or object are skipped.
func Build(triples []common.Triple) *Graph {
	sorted := make([]common.Triple, len(triples))
	copy(sorted, triples)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ChunkID != b.ChunkID {
			return a.ChunkID < b.ChunkID
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Relation != b.Relation {
			return a.Relation < b.Relation
		}
		return a.Object < b.Object
	})

	g := &Graph{
		entIdx: make(map[string]int),
		chIdx:  make(map[string]int),
		ents:   make(map[string]*common.Entity),
	}
	weights := make(map[[2]int]float64)

	for _, t := range sorted {
		subjKey := NormalizeKey(t.Subject)
		objKey := NormalizeKey(t.Object)
		if subjKey == "" || objKey == "" || t.ChunkID == "" {
			continue
		}
		g.triples = append(g.triples, t)

		si := g.entityNode(subjKey, t.Subject, t.ChunkID)
		oi := g.entityNode(objKey, t.Object, t.ChunkID)
		ci := g.chunkNode(t.ChunkID)

		weights[edgeKey(si, ci)]++
		weights[edgeKey(oi, ci)]++
		if si != oi {
			weights[edgeKey(si, oi)]++
		}
	}

	g.adj = make([][]Edge, len(g.nodes))
	g.degree = make([]float64, len(g.nodes))
	for key, w := range weights {
		a, b := key[0], key[1]
		g.adj[a] = append(g.adj[a], Edge{To: b, Weight: w})
		g.adj[b] = append(g.adj[b], Edge{To: a, Weight: w})
		g.degree[a] += w
		g.degree[b] += w
	}
	for i := range g.adj {
		sort.Slice(g.adj[i], func(a, b int) bool {
			return g.adj[i][a].To < g.adj[i][b].To
		})
	}

	return g
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (g *Graph) entityNode(key, name, chunkID string) int {
	if idx, ok := g.entIdx[key]; ok {
		e := g.ents[key]
		if !containsString(e.ChunkIDs, chunkID) {
			e.ChunkIDs = append(e.ChunkIDs, chunkID)
		}
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{Kind: NodeEntity, Key: key, Name: name})
	g.entIdx[key] = idx
	g.ents[key] = &common.Entity{Name: name, Key: key, ChunkIDs: []string{chunkID}}
	return idx
}

func (g *Graph) chunkNode(chunkID string) int {
	if idx, ok := g.chIdx[chunkID]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{Kind: NodeChunk, Key: chunkID})
	g.chIdx[chunkID] = idx
	return idx
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NumNodes returns the size of the node arena.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Node returns the node at the given arena index.
func (g *Graph) Node(idx int) Node {
	return g.nodes[idx]
}

// EntityNode resolves a normalized entity key to its node index.
func (g *Graph) EntityNode(key string) (int, bool) {
	idx, ok := g.entIdx[key]
	return idx, ok
}

// Entity returns the merged entity record for a normalized key.
func (g *Graph) Entity(key string) (*common.Entity, bool) {
	e, ok := g.ents[key]
	return e, ok
}

// Entities returns the merged entity records in node order.
func (g *Graph) Entities() []common.Entity {
	out := make([]common.Entity, 0, len(g.ents))
	for _, n := range g.nodes {
		if n.Kind != NodeEntity {
			continue
		}
		out = append(out, *g.ents[n.Key])
	}
	return out
}

// Triples returns the triples the graph was built from, in build order.
func (g *Graph) Triples() []common.Triple {
	return g.triples
}

// ChunkScores projects a node score vector onto chunk identifiers,
// dropping entity nodes. This is the PPR-based passage relevance signal.
func (g *Graph) ChunkScores(scores []float64) map[string]float64 {
	out := make(map[string]float64, len(g.chIdx))
	for id, idx := range g.chIdx {
		if idx < len(scores) {
			out[id] = scores[idx]
		}
	}
	return out
}
