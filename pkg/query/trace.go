package query

import (
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventConsideredChunkIDs TraceEventKind = "considered_chunk_ids"
	TraceEventUsedChunkIDs       TraceEventKind = "used_chunk_ids"
	TraceEventMatchedEntityKeys  TraceEventKind = "matched_entity_keys"
	TraceEventMatchedFacts       TraceEventKind = "matched_facts"
	TraceEventFusionAlpha        TraceEventKind = "fusion_alpha"
)

// TraceEvent is an extensible event envelope for query tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind TraceEventKind

	ChunkIDs   []string
	EntityKeys []string
	Facts      []string
	Alpha      float64
}

// Tracer is a sink for query tracing events.
//
// Implementers can forward events to logs, telemetry, or custom
// post-processing pipelines.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func RecordConsideredChunkIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventConsideredChunkIDs, ChunkIDs: ids})
}

func RecordUsedChunkIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventUsedChunkIDs, ChunkIDs: ids})
}

func RecordMatchedEntityKeys(t Tracer, keys ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventMatchedEntityKeys, EntityKeys: keys})
}

func RecordMatchedFacts(t Tracer, facts ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventMatchedFacts, Facts: facts})
}

func RecordFusionAlpha(t Tracer, alpha float64) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventFusionAlpha, Alpha: alpha})
}

// QueryTrace collects information about what data was considered and/or
// used during a query run.
//
// This is primarily used to expose retrieval metadata like "passages
// considered" alongside the answer.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu sync.Mutex

	consideredChunkIDs map[string]struct{}
	usedChunkIDs       map[string]struct{}
	matchedEntityKeys  map[string]struct{}
	matchedFacts       map[string]struct{}
	alpha              float64
	alphaSet           bool
}

type QueryTraceSnapshot struct {
	ConsideredChunkIDs []string
	UsedChunkIDs       []string
	MatchedEntityKeys  []string
	MatchedFacts       []string
	Alpha              float64
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{
		consideredChunkIDs: make(map[string]struct{}),
		usedChunkIDs:       make(map[string]struct{}),
		matchedEntityKeys:  make(map[string]struct{}),
		matchedFacts:       make(map[string]struct{}),
	}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case TraceEventConsideredChunkIDs:
		for _, id := range event.ChunkIDs {
			if id == "" {
				continue
			}
			t.consideredChunkIDs[id] = struct{}{}
		}
	case TraceEventUsedChunkIDs:
		for _, id := range event.ChunkIDs {
			if id == "" {
				continue
			}
			t.usedChunkIDs[id] = struct{}{}
		}
	case TraceEventMatchedEntityKeys:
		for _, key := range event.EntityKeys {
			if key == "" {
				continue
			}
			t.matchedEntityKeys[key] = struct{}{}
		}
	case TraceEventMatchedFacts:
		for _, fact := range event.Facts {
			if fact == "" {
				continue
			}
			t.matchedFacts[fact] = struct{}{}
		}
	case TraceEventFusionAlpha:
		// A decomposed query runs several fusions; keep the largest
		// trust weight actually applied.
		if !t.alphaSet || event.Alpha > t.alpha {
			t.alpha = event.Alpha
			t.alphaSet = true
		}
	default:
		return
	}
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := QueryTraceSnapshot{
		ConsideredChunkIDs: make([]string, 0, len(t.consideredChunkIDs)),
		UsedChunkIDs:       make([]string, 0, len(t.usedChunkIDs)),
		MatchedEntityKeys:  make([]string, 0, len(t.matchedEntityKeys)),
		MatchedFacts:       make([]string, 0, len(t.matchedFacts)),
		Alpha:              t.alpha,
	}

	for id := range t.consideredChunkIDs {
		s.ConsideredChunkIDs = append(s.ConsideredChunkIDs, id)
	}
	for id := range t.usedChunkIDs {
		s.UsedChunkIDs = append(s.UsedChunkIDs, id)
	}
	for key := range t.matchedEntityKeys {
		s.MatchedEntityKeys = append(s.MatchedEntityKeys, key)
	}
	for fact := range t.matchedFacts {
		s.MatchedFacts = append(s.MatchedFacts, fact)
	}

	sort.Strings(s.ConsideredChunkIDs)
	sort.Strings(s.UsedChunkIDs)
	sort.Strings(s.MatchedEntityKeys)
	sort.Strings(s.MatchedFacts)

	return s
}
