package store

import (
	"context"
	"sync"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

// Memory is an in-process Store for tests and single-node setups
// without a database. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	chunks  []common.Chunk
	triples []common.Triple
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveSnapshot(ctx context.Context, chunks []common.Chunk, triples []common.Triple) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chunks = append([]common.Chunk(nil), chunks...)
	m.triples = append([]common.Triple(nil), triples...)
	return nil
}

func (m *Memory) LoadSnapshot(ctx context.Context) ([]common.Chunk, []common.Triple, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunks := append([]common.Chunk(nil), m.chunks...)
	triples := append([]common.Triple(nil), m.triples...)
	return chunks, triples, nil
}
