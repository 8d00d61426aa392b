package rank

import (
	"github.com/OFFIS-RIT/pomelo/pkg/common"
	"github.com/OFFIS-RIT/pomelo/pkg/graph"
)

// FilterByInstitution drops passages whose provenance tag matches none
// of the query's institution-scoped entities. Matching compares
// normalized keys, so casing and diacritics do not matter.
//
// Queries without a scoped entity pass through unchanged, and so does a
// result set the filter would otherwise empty. Surviving passages keep
// their relative order.
func FilterByInstitution(results []common.RankedPassage, entities []common.QueryEntity) []common.RankedPassage {
	keys := make(map[string]struct{})
	for _, e := range entities {
		if e.Institution && e.Key != "" {
			keys[e.Key] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return results
	}

	filtered := make([]common.RankedPassage, 0, len(results))
	for _, r := range results {
		if r.Chunk == nil {
			continue
		}
		if _, ok := keys[graph.NormalizeKey(r.Chunk.Institution)]; ok {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return results
	}
	return filtered
}
