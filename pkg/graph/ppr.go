package graph

import "math"

// PPROptions tunes the Personalized PageRank iteration.
type PPROptions struct {
	Damping       float64 // probability of following an edge vs teleporting to a seed
	MaxIterations int
	Tolerance     float64 // L1 convergence threshold
}

// DefaultPPROptions returns the propagation defaults.
func DefaultPPROptions() PPROptions {
	return PPROptions{
		Damping:       0.85,
		MaxIterations: 50,
		Tolerance:     1e-6,
	}
}

// Propagate runs Personalized PageRank over the graph. seeds is a sparse
// distribution over node indices; it is renormalized to sum to 1 before
// iteration. The walk follows edges proportionally to their weight with
// probability Damping and teleports back to the seed distribution
// otherwise, stopping at MaxIterations or when the L1 difference between
// iterations drops below Tolerance.
//
// An empty (or all-zero) seed set returns a zero score for every node
// without iterating: with no matched facts there is no graph signal, and
// fusion degrades to dense/lexical-only ranking.
func Propagate(g *Graph, seeds map[int]float64, opts PPROptions) []float64 {
	n := g.NumNodes()
	scores := make([]float64, n)

	var seedTotal float64
	for idx, w := range seeds {
		if idx < 0 || idx >= n || w <= 0 {
			continue
		}
		seedTotal += w
	}
	if seedTotal == 0 {
		return scores
	}

	teleport := make([]float64, n)
	for idx, w := range seeds {
		if idx < 0 || idx >= n || w <= 0 {
			continue
		}
		teleport[idx] = w / seedTotal
	}

	copy(scores, teleport)
	next := make([]float64, n)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		for i := range next {
			next[i] = (1 - opts.Damping) * teleport[i]
		}

		// Mass at dangling nodes has nowhere to flow; send it back to
		// the seeds so the distribution stays stochastic.
		var dangling float64
		for u := 0; u < n; u++ {
			if scores[u] == 0 {
				continue
			}
			if g.degree[u] == 0 {
				dangling += scores[u]
				continue
			}
			out := opts.Damping * scores[u] / g.degree[u]
			for _, e := range g.adj[u] {
				next[e.To] += out * e.Weight
			}
		}
		if dangling > 0 {
			for i := range next {
				next[i] += opts.Damping * dangling * teleport[i]
			}
		}

		var diff float64
		for i := range next {
			diff += math.Abs(next[i] - scores[i])
		}
		scores, next = next, scores
		if diff < opts.Tolerance {
			break
		}
	}

	return scores
}
