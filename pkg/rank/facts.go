package rank

import (
	"strings"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
	"github.com/OFFIS-RIT/pomelo/pkg/graph"
)

const defaultMinSimilarity = 0.5

// MatchResult is the outcome of scoring query entities against the
// graph's triples. Seeds maps graph node indices to propagation weights
// and is empty when nothing matched.
type MatchResult struct {
	Triples    []common.Triple
	Seeds      map[int]float64
	Confidence float64
}

// Matcher scores candidate triples against a query's extracted
// entities. An exact normalized-key match scores 1.0; otherwise the
// token-set Jaccard between the two keys is used. Triples below the
// minimum similarity are ignored.
type Matcher struct {
	minSimilarity float64
}

type NewMatcherParams struct {
	MinSimilarity float64
}

func NewMatcher(params NewMatcherParams) *Matcher {
	if params.MinSimilarity <= 0 {
		params.MinSimilarity = defaultMinSimilarity
	}
	return &Matcher{minSimilarity: params.MinSimilarity}
}

// Match returns the triples touched by the query entities, the seed
// weights for propagation, and the overall fact confidence.
//
// Confidence is the maximum similarity over all matched triples, so
// adding a further match can never lower it. Zero entities or zero
// matches yield confidence 0 and no seeds.
func (m *Matcher) Match(entities []common.QueryEntity, g *graph.Graph) MatchResult {
	res := MatchResult{Seeds: make(map[int]float64)}
	if len(entities) == 0 || g == nil {
		return res
	}

	for _, tr := range g.Triples() {
		subjKey := graph.NormalizeKey(tr.Subject)
		objKey := graph.NormalizeKey(tr.Object)

		var sim float64
		for _, qe := range entities {
			if s := keySimilarity(qe.Key, subjKey); s > sim {
				sim = s
			}
			if s := keySimilarity(qe.Key, objKey); s > sim {
				sim = s
			}
		}
		if sim < m.minSimilarity {
			continue
		}

		res.Triples = append(res.Triples, tr)
		if sim > res.Confidence {
			res.Confidence = sim
		}
		if idx, ok := g.EntityNode(subjKey); ok {
			res.Seeds[idx] += sim
		}
		if idx, ok := g.EntityNode(objKey); ok {
			res.Seeds[idx] += sim
		}
	}
	return res
}

// keySimilarity compares two normalized entity keys. Identical keys
// score 1.0, anything else falls back to token-set Jaccard.
func keySimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	setA := tokenSet(a)
	setB := tokenSet(b)
	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(key string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(key) {
		set[tok] = true
	}
	return set
}
