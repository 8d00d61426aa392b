package rank

import (
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

func passages(insts ...string) []common.RankedPassage {
	out := make([]common.RankedPassage, len(insts))
	for i, inst := range insts {
		out[i] = common.RankedPassage{
			Chunk: &common.Chunk{ID: string(rune('a' + i)), Institution: inst},
			Score: 1 - float64(i)*0.1,
		}
	}
	return out
}

func TestFilterKeepsMatchingInstitutions(t *testing.T) {
	results := passages("udvash", "unmesh", "udvash")
	entities := []common.QueryEntity{queryEntity("Udvash", true)}

	got := FilterByInstitution(results, entities)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, r := range got {
		if r.Chunk.Institution != "udvash" {
			t.Errorf("kept passage from %q", r.Chunk.Institution)
		}
	}
}

func TestFilterNoScopedEntityIsIdentity(t *testing.T) {
	results := passages("udvash", "unmesh")
	entities := []common.QueryEntity{queryEntity("Einstein", false)}

	got := FilterByInstitution(results, entities)
	if !reflect.DeepEqual(got, results) {
		t.Error("filter without scoped entity changed the result list")
	}
}

func TestFilterFailsOpenWhenEmptying(t *testing.T) {
	results := passages("udvash", "unmesh")
	entities := []common.QueryEntity{queryEntity("Rokomari", true)}

	got := FilterByInstitution(results, entities)
	if !reflect.DeepEqual(got, results) {
		t.Error("filter did not fail open when no passage matched")
	}
}

func TestFilterIdempotent(t *testing.T) {
	results := passages("udvash", "unmesh", "udvash")
	entities := []common.QueryEntity{queryEntity("Udvash", true)}

	once := FilterByInstitution(results, entities)
	twice := FilterByInstitution(once, entities)
	if !reflect.DeepEqual(once, twice) {
		t.Error("filtering twice differs from filtering once")
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	results := passages("udvash", "unmesh", "udvash", "unmesh", "udvash")
	entities := []common.QueryEntity{queryEntity("Udvash", true)}

	got := FilterByInstitution(results, entities)
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Errorf("order changed at %d: %v before %v", i, got[i-1].Score, got[i].Score)
		}
	}
}

func TestFilterMatchesDiacriticInsensitively(t *testing.T) {
	results := passages("Universität Oldenburg", "unmesh")
	entities := []common.QueryEntity{queryEntity("universitat oldenburg", true)}

	got := FilterByInstitution(results, entities)
	if len(got) != 1 || got[0].Chunk.Institution != "Universität Oldenburg" {
		t.Errorf("diacritic-insensitive match failed: %+v", got)
	}
}
