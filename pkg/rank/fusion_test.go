package rank

import (
	"math"
	"testing"
)

func TestAlphaThresholds(t *testing.T) {
	f := NewFuser(NewFuserParams{})

	tests := []struct {
		name       string
		confidence float64
		want       float64
	}{
		{"zero confidence", 0, 0.3},
		{"below low threshold", 0.1, 0.3},
		{"at low threshold", 0.2, 0.3},
		{"at high threshold", 0.7, 0.7},
		{"above high threshold", 0.95, 0.7},
		{"midpoint interpolates", 0.45, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Alpha(tt.confidence); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Alpha(%v) = %v, want %v", tt.confidence, got, tt.want)
			}
		})
	}
}

func TestAlphaContinuousAcrossBand(t *testing.T) {
	f := NewFuser(NewFuserParams{})

	prev := f.Alpha(0)
	for c := 0.01; c <= 1.0; c += 0.01 {
		cur := f.Alpha(c)
		if cur < prev {
			t.Fatalf("Alpha not monotone: Alpha(%v) = %v after %v", c, cur, prev)
		}
		if cur-prev > 0.02 {
			t.Fatalf("Alpha jumps by %v at confidence %v", cur-prev, c)
		}
		prev = cur
	}
}

func TestFuseZeroConfidenceEqualsVectorOnly(t *testing.T) {
	f := NewFuser(NewFuserParams{})

	dense := map[string]float64{"c1": 0.9, "c2": 0.2, "c3": 0.5}
	lexical := map[string]float64{"c1": 1.0, "c2": 4.0, "c3": 2.0}

	// Zero confidence comes with zero propagation scores by construction.
	ppr := map[string]float64{"c1": 0, "c2": 0, "c3": 0}

	withGraph := f.Fuse(ppr, dense, lexical, 0)
	vectorOnly := f.Fuse(nil, dense, lexical, 0)

	if len(withGraph) != len(vectorOnly) {
		t.Fatalf("result lengths differ: %d vs %d", len(withGraph), len(vectorOnly))
	}
	for i := range withGraph {
		if withGraph[i].ChunkID != vectorOnly[i].ChunkID {
			t.Errorf("rank %d: %q vs %q", i, withGraph[i].ChunkID, vectorOnly[i].ChunkID)
		}
	}
}

func TestFuseMonotoneInInputs(t *testing.T) {
	f := NewFuser(NewFuserParams{})

	dense := map[string]float64{"c1": 0.3, "c2": 0.6}
	lexical := map[string]float64{"c1": 1.0, "c2": 2.0}
	ppr := map[string]float64{"c1": 0.1, "c2": 0.4}

	base := scoreOf(f.Fuse(ppr, dense, lexical, 0.5), "c2")

	// Raising c2's input on any single signal must not lower its score.
	denseUp := map[string]float64{"c1": 0.3, "c2": 0.9}
	if got := scoreOf(f.Fuse(ppr, denseUp, lexical, 0.5), "c2"); got < base {
		t.Errorf("raising dense lowered score: %v < %v", got, base)
	}
	lexUp := map[string]float64{"c1": 1.0, "c2": 3.0}
	if got := scoreOf(f.Fuse(ppr, dense, lexUp, 0.5), "c2"); got < base {
		t.Errorf("raising lexical lowered score: %v < %v", got, base)
	}
	pprUp := map[string]float64{"c1": 0.1, "c2": 0.8}
	if got := scoreOf(f.Fuse(pprUp, dense, lexical, 0.5), "c2"); got < base {
		t.Errorf("raising propagation lowered score: %v < %v", got, base)
	}
}

func TestFuseTieBreakByChunkID(t *testing.T) {
	f := NewFuser(NewFuserParams{})

	dense := map[string]float64{"c2": 0.5, "c1": 0.5, "c3": 0.5}
	got := f.Fuse(nil, dense, nil, 0)

	want := []string{"c1", "c2", "c3"}
	for i, id := range want {
		if got[i].ChunkID != id {
			t.Errorf("rank %d = %q, want %q", i, got[i].ChunkID, id)
		}
	}
}

func TestMinMaxNormalize(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]float64
		want   map[string]float64
	}{
		{
			name:   "spread rescales to unit interval",
			scores: map[string]float64{"a": 1, "b": 3, "c": 2},
			want:   map[string]float64{"a": 0, "b": 1, "c": 0.5},
		},
		{
			name:   "all equal collapses to zero",
			scores: map[string]float64{"a": 7, "b": 7},
			want:   map[string]float64{"a": 0, "b": 0},
		},
		{
			name:   "all zero stays zero",
			scores: map[string]float64{"a": 0, "b": 0},
			want:   map[string]float64{"a": 0, "b": 0},
		},
		{
			name:   "empty input",
			scores: nil,
			want:   map[string]float64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := minMaxNormalize(tt.scores)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for id, want := range tt.want {
				if math.Abs(got[id]-want) > 1e-9 {
					t.Errorf("got[%s] = %v, want %v", id, got[id], want)
				}
			}
		})
	}
}

func scoreOf(scored []Scored, id string) float64 {
	for _, s := range scored {
		if s.ChunkID == id {
			return s.Score
		}
	}
	return math.Inf(-1)
}
