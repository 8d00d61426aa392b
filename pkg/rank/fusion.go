package rank

import (
	"sort"
)

const (
	defaultHybridAlpha = 0.7
	defaultConfLow     = 0.2
	defaultConfHigh    = 0.7
	defaultAlphaLow    = 0.3
	defaultAlphaHigh   = 0.7
)

// Scored is a chunk identifier with its fused relevance score.
type Scored struct {
	ChunkID string
	Score   float64
}

// Fuser combines graph-propagation scores with dense and lexical
// retrieval scores. The trust placed in the graph signal adapts to the
// fact confidence of the query.
type Fuser struct {
	hybridAlpha float64
	confLow     float64
	confHigh    float64
	alphaLow    float64
	alphaHigh   float64
}

type NewFuserParams struct {
	// HybridAlpha blends dense against lexical scores (weight of dense).
	HybridAlpha float64
	// ConfLow and ConfHigh bound the confidence band over which the
	// propagation weight interpolates from AlphaLow to AlphaHigh.
	ConfLow   float64
	ConfHigh  float64
	AlphaLow  float64
	AlphaHigh float64
}

func NewFuser(params NewFuserParams) *Fuser {
	if params.HybridAlpha <= 0 {
		params.HybridAlpha = defaultHybridAlpha
	}
	if params.ConfLow <= 0 {
		params.ConfLow = defaultConfLow
	}
	if params.ConfHigh <= 0 {
		params.ConfHigh = defaultConfHigh
	}
	if params.AlphaLow <= 0 {
		params.AlphaLow = defaultAlphaLow
	}
	if params.AlphaHigh <= 0 {
		params.AlphaHigh = defaultAlphaHigh
	}
	return &Fuser{
		hybridAlpha: params.HybridAlpha,
		confLow:     params.ConfLow,
		confHigh:    params.ConfHigh,
		alphaLow:    params.AlphaLow,
		alphaHigh:   params.AlphaHigh,
	}
}

// Alpha maps fact confidence to the weight of the propagation signal.
// Below the low threshold the low-trust constant applies, above the
// high threshold the high-trust constant, with linear interpolation in
// between. Confidence 0 therefore always yields the low-trust weight.
func (f *Fuser) Alpha(confidence float64) float64 {
	switch {
	case confidence <= f.confLow:
		return f.alphaLow
	case confidence >= f.confHigh:
		return f.alphaHigh
	default:
		t := (confidence - f.confLow) / (f.confHigh - f.confLow)
		return f.alphaLow + t*(f.alphaHigh-f.alphaLow)
	}
}

// Fuse produces the final chunk ranking. Each signal is min-max
// normalized independently, dense and lexical are blended into one
// vector-search score, and the propagation score is mixed in with the
// confidence-adaptive weight. The result is sorted by score descending
// with chunk ID as the deterministic tie-break.
func (f *Fuser) Fuse(ppr, dense, lexical map[string]float64, confidence float64) []Scored {
	pprN := minMaxNormalize(ppr)
	denseN := minMaxNormalize(dense)
	lexN := minMaxNormalize(lexical)

	ids := make(map[string]struct{})
	for id := range ppr {
		ids[id] = struct{}{}
	}
	for id := range dense {
		ids[id] = struct{}{}
	}
	for id := range lexical {
		ids[id] = struct{}{}
	}

	alpha := f.Alpha(confidence)
	out := make([]Scored, 0, len(ids))
	for id := range ids {
		vector := f.hybridAlpha*denseN[id] + (1-f.hybridAlpha)*lexN[id]
		out = append(out, Scored{
			ChunkID: id,
			Score:   alpha*pprN[id] + (1-alpha)*vector,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

// minMaxNormalize rescales scores to [0,1]. All-equal input (including
// all-zero) maps to constant 0 so a signal without spread contributes
// nothing.
func minMaxNormalize(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	first := true
	var min, max float64
	for _, s := range scores {
		if first {
			min, max = s, s
			first = false
			continue
		}
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	if max == min {
		for id := range scores {
			out[id] = 0
		}
		return out
	}
	for id, s := range scores {
		out[id] = (s - min) / (max - min)
	}
	return out
}
