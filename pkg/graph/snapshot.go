package graph

import (
	"sync/atomic"
)

// Snapshot pairs an immutable graph with a monotonically increasing
// version number.
type Snapshot struct {
	Graph   *Graph
	Version int64
}

// Holder publishes graph snapshots atomically. Queries read the current
// snapshot once at start and keep referencing it for their whole run;
// Swap never disturbs in-flight readers, and no reader can observe a
// partially built graph.
type Holder struct {
	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

// NewHolder creates an empty holder. Current returns nil until the first
// Swap.
func NewHolder() *Holder {
	return &Holder{}
}

// Swap publishes a freshly built graph and returns its snapshot.
func (h *Holder) Swap(g *Graph) *Snapshot {
	s := &Snapshot{
		Graph:   g,
		Version: h.version.Add(1),
	}
	h.current.Store(s)
	return s
}

// Current returns the latest published snapshot, or nil if none exists.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}
