package retrieval

import (
	"math"
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

// BM25 Okapi parameters, matching the rank_bm25 defaults.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

type lexDoc struct {
	id     string
	freq   map[string]int
	length int
}

// LexicalIndex is a BM25 (Okapi) index over chunk texts. Like the dense
// index it is immutable after construction.
type LexicalIndex struct {
	docs   []lexDoc
	df     map[string]int
	avgLen float64
}

// NewLexicalIndex tokenizes the chunks and builds the term statistics.
func NewLexicalIndex(chunks []common.Chunk) *LexicalIndex {
	idx := &LexicalIndex{
		docs: make([]lexDoc, 0, len(chunks)),
		df:   make(map[string]int),
	}

	totalLen := 0
	for _, c := range chunks {
		tokens := tokenize(c.Text)
		doc := lexDoc{
			id:     c.ID,
			freq:   make(map[string]int, len(tokens)),
			length: len(tokens),
		}
		for _, tok := range tokens {
			doc.freq[tok]++
		}
		for tok := range doc.freq {
			idx.df[tok]++
		}
		totalLen += doc.length
		idx.docs = append(idx.docs, doc)
	}
	if len(idx.docs) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(idx.docs))
	}
	return idx
}

// Scores returns the raw BM25 score of every chunk for the query, keyed
// by chunk ID. Scores are not normalized here; the fusion ranker min-max
// normalizes all signals onto a common scale.
func (idx *LexicalIndex) Scores(query string) map[string]float64 {
	out := make(map[string]float64, len(idx.docs))
	if len(idx.docs) == 0 {
		return out
	}

	n := float64(len(idx.docs))
	for _, doc := range idx.docs {
		var score float64
		for _, tok := range tokenize(query) {
			tf := float64(doc.freq[tok])
			if tf == 0 {
				continue
			}
			df := float64(idx.df[tok])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			score += idf * (tf * (bm25K1 + 1)) /
				(tf + bm25K1*(1-bm25B+bm25B*float64(doc.length)/idx.avgLen))
		}
		out[doc.id] = score
	}
	return out
}

// tokenize lowercases and splits on anything that is not a letter or
// digit. It is deliberately script-agnostic so non-Latin text tokenizes
// the same way it did at index time.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
