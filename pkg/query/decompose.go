package query

import (
	"regexp"
	"strings"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

// SubQuery is one independently retrievable slice of a user question.
type SubQuery struct {
	Text     string
	Entities []common.QueryEntity
}

// Decompose splits a question referencing several distinct institutions
// into one sub-query per institution. Each sub-query carries the
// institution's surface form plus the shared intent, which is the
// question with all detected institution names removed.
//
// Questions with fewer than two distinct institutions come back as a
// single-element list holding the question unchanged.
func Decompose(question string, entities []common.QueryEntity) []SubQuery {
	var institutions []common.QueryEntity
	var shared []common.QueryEntity
	seen := make(map[string]struct{})
	for _, e := range entities {
		if !e.Institution || e.Key == "" {
			shared = append(shared, e)
			continue
		}
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = struct{}{}
		institutions = append(institutions, e)
	}

	if len(institutions) < 2 {
		return []SubQuery{{Text: question, Entities: entities}}
	}

	intent := question
	for _, inst := range institutions {
		pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(inst.Name))
		if err != nil {
			continue
		}
		intent = pattern.ReplaceAllString(intent, " ")
	}
	intent = strings.Join(strings.Fields(intent), " ")

	subs := make([]SubQuery, 0, len(institutions))
	for _, inst := range institutions {
		subEntities := make([]common.QueryEntity, 0, len(shared)+1)
		subEntities = append(subEntities, inst)
		subEntities = append(subEntities, shared...)
		subs = append(subs, SubQuery{
			Text:     strings.TrimSpace(inst.Name + " " + intent),
			Entities: subEntities,
		})
	}
	return subs
}

// mergeRoundRobin interleaves the per-sub-query rankings so every
// sub-query is represented in the top results, dedupes by chunk ID, and
// truncates to k (k <= 0 keeps everything).
func mergeRoundRobin(lists [][]common.RankedPassage, k int) []common.RankedPassage {
	var merged []common.RankedPassage
	seen := make(map[string]struct{})

	for round := 0; ; round++ {
		progressed := false
		for _, list := range lists {
			if round >= len(list) {
				continue
			}
			progressed = true
			p := list[round]
			if p.Chunk == nil {
				continue
			}
			if _, ok := seen[p.Chunk.ID]; ok {
				continue
			}
			seen[p.Chunk.ID] = struct{}{}
			merged = append(merged, p)
			if k > 0 && len(merged) == k {
				return merged
			}
		}
		if !progressed {
			return merged
		}
	}
}
