package store

import (
	"context"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

// Store persists the durable form of an index snapshot: chunks with
// their embeddings plus the extracted triples. The graph itself is not
// stored; it is rebuilt deterministically from the triples on load.
//
// A snapshot is replaced wholesale on save, matching the atomic-swap
// semantics of the in-memory index.
type Store interface {
	SaveSnapshot(ctx context.Context, chunks []common.Chunk, triples []common.Triple) error
	LoadSnapshot(ctx context.Context) ([]common.Chunk, []common.Triple, error)
}
