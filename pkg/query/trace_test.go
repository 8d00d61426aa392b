package query

import (
	"reflect"
	"sync"
	"testing"
)

func TestQueryTraceAccumulatesAndSorts(t *testing.T) {
	trace := NewQueryTrace()

	RecordConsideredChunkIDs(trace, "c2", "c1", "")
	RecordConsideredChunkIDs(trace, "c1", "c3")
	RecordUsedChunkIDs(trace, "c3")
	RecordMatchedEntityKeys(trace, "einstein", "germany")
	RecordMatchedFacts(trace, "Einstein | born in | Germany")
	RecordFusionAlpha(trace, 0.3)
	RecordFusionAlpha(trace, 0.7)
	RecordFusionAlpha(trace, 0.5)

	snap := trace.Snapshot()
	if want := []string{"c1", "c2", "c3"}; !reflect.DeepEqual(snap.ConsideredChunkIDs, want) {
		t.Errorf("ConsideredChunkIDs = %v, want %v", snap.ConsideredChunkIDs, want)
	}
	if want := []string{"c3"}; !reflect.DeepEqual(snap.UsedChunkIDs, want) {
		t.Errorf("UsedChunkIDs = %v, want %v", snap.UsedChunkIDs, want)
	}
	if want := []string{"einstein", "germany"}; !reflect.DeepEqual(snap.MatchedEntityKeys, want) {
		t.Errorf("MatchedEntityKeys = %v, want %v", snap.MatchedEntityKeys, want)
	}
	if snap.Alpha != 0.7 {
		t.Errorf("Alpha = %v, want largest applied 0.7", snap.Alpha)
	}
}

func TestQueryTraceNilSafe(t *testing.T) {
	var trace *QueryTrace

	RecordConsideredChunkIDs(trace, "c1")
	RecordFusionAlpha(nil, 0.5)

	if snap := trace.Snapshot(); len(snap.ConsideredChunkIDs) != 0 {
		t.Errorf("nil trace snapshot = %+v", snap)
	}
}

func TestQueryTraceConcurrentRecord(t *testing.T) {
	trace := NewQueryTrace()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordConsideredChunkIDs(trace, "c1", "c2")
				RecordUsedChunkIDs(trace, "c1")
			}
		}()
	}
	wg.Wait()

	snap := trace.Snapshot()
	if len(snap.ConsideredChunkIDs) != 2 || len(snap.UsedChunkIDs) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestMultiTracerFanOut(t *testing.T) {
	t1 := NewQueryTrace()
	t2 := NewQueryTrace()
	m := MultiTracer{t1, nil, t2}

	RecordUsedChunkIDs(m, "c1")

	if len(t1.Snapshot().UsedChunkIDs) != 1 || len(t2.Snapshot().UsedChunkIDs) != 1 {
		t.Error("fan-out missed a tracer")
	}
}
