package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/pomelo/internal/util"
	"github.com/OFFIS-RIT/pomelo/pkg/ai"
	"github.com/OFFIS-RIT/pomelo/pkg/common"
	"github.com/OFFIS-RIT/pomelo/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Builder runs triple extraction over chunks and assembles the knowledge
// graph. It controls extraction parallelism and per-chunk retries.
//
// A Builder should be created using NewBuilder.
type Builder struct {
	parallelChunks int
	maxRetries     int
}

// NewBuilderParams defines the configuration parameters for creating a
// new Builder.
//
// ParallelChunks controls how many chunks are extracted concurrently.
// MaxRetries bounds extraction attempts per chunk before the chunk is
// indexed without graph edges.
type NewBuilderParams struct {
	ParallelChunks int
	MaxRetries     int
}

// NewBuilder creates and returns a new Builder configured with the
// provided parameters.
func NewBuilder(params NewBuilderParams) *Builder {
	parallel := params.ParallelChunks
	if parallel <= 0 {
		parallel = 4
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Builder{
		parallelChunks: parallel,
		maxRetries:     maxRetries,
	}
}

type extractResponse struct {
	Triples [][]string `json:"triples" jsonschema_description:"Relationships found in the passage, each a [subject, predicate, object] list of 3 strings"`
}

// Build extracts triples from every chunk and returns the resulting graph
// together with the raw triples (the durable form for persistence).
//
// Extraction failures are non-fatal: a chunk whose extraction keeps
// failing or returns nothing stays available for dense and lexical
// retrieval, it just contributes no graph edges. The previously published
// graph is never touched; callers swap the returned instance in via
// Holder.
func (b *Builder) Build(
	ctx context.Context,
	chunks []common.Chunk,
	client ai.Client,
) (*Graph, []common.Triple, error) {
	logger.Info("[Graph] Extracting triples", "chunks", len(chunks))

	var (
		mu      sync.Mutex
		triples []common.Triple
		failed  int
	)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.parallelChunks)
	for _, chunk := range chunks {
		c := chunk
		eg.Go(func() error {
			extracted, err := util.RetryWithContext(gCtx, b.maxRetries, func(ctx context.Context) ([]common.Triple, error) {
				return extractFromChunk(ctx, c, client)
			})
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				logger.Warn("[Graph] Extraction failed, chunk degrades to dense/lexical only",
					"chunk_id", c.ID, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			triples = append(triples, extracted...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to extract triples: %w", err)
	}

	g := Build(triples)
	logger.Info("[Graph] Build completed",
		"triples", len(triples),
		"nodes", g.NumNodes(),
		"failed_chunks", failed,
	)

	return g, triples, nil
}

func extractFromChunk(
	ctx context.Context,
	chunk common.Chunk,
	client ai.Client,
) ([]common.Triple, error) {
	var res extractResponse
	err := client.GenerateCompletionWithFormat(
		ctx,
		"extract_triples",
		"Extract subject-predicate-object triples from a text passage.",
		fmt.Sprintf(ai.ExtractTriplesPrompt, chunk.Text),
		&res,
	)
	if err != nil {
		return nil, err
	}

	triples := make([]common.Triple, 0, len(res.Triples))
	for _, t := range res.Triples {
		if len(t) != 3 {
			continue
		}
		subject := strings.TrimSpace(t[0])
		relation := strings.TrimSpace(t[1])
		object := strings.TrimSpace(t[2])
		if subject == "" || relation == "" || object == "" {
			continue
		}
		triples = append(triples, common.Triple{
			Subject:  subject,
			Relation: relation,
			Object:   object,
			ChunkID:  chunk.ID,
		})
	}
	return triples, nil
}
