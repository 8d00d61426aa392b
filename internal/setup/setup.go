package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/pomelo/internal/util"
	"github.com/OFFIS-RIT/pomelo/pkg/ai"
	"github.com/OFFIS-RIT/pomelo/pkg/ai/ollama"
	"github.com/OFFIS-RIT/pomelo/pkg/ai/openai"
	"github.com/OFFIS-RIT/pomelo/pkg/graph"
	"github.com/OFFIS-RIT/pomelo/pkg/logger"
	"github.com/OFFIS-RIT/pomelo/pkg/query"
	"github.com/OFFIS-RIT/pomelo/pkg/rank"
	"github.com/OFFIS-RIT/pomelo/pkg/store"
	storepgx "github.com/OFFIS-RIT/pomelo/pkg/store/pgx"
)

// NewAIClient builds the configured provider. AI_PROVIDER selects
// between "openai" (default, any OpenAI-compatible endpoint) and
// "ollama".
func NewAIClient() (ai.Client, error) {
	provider := util.GetEnvString("AI_PROVIDER", "openai")

	switch provider {
	case "openai":
		return openai.NewClient(openai.NewClientParams{
			EmbeddingModel:  util.GetEnvString("AI_EMBEDDING_MODEL", "text-embedding-3-small"),
			ExtractionModel: util.GetEnvString("AI_EXTRACTION_MODEL", "gpt-4o-mini"),
			AnswerModel:     util.GetEnvString("AI_ANSWER_MODEL", "gpt-4o"),

			EmbeddingURL: util.GetEnvString("AI_EMBEDDING_URL", ""),
			EmbeddingKey: util.GetEnvString("AI_EMBEDDING_KEY", util.GetEnvString("AI_API_KEY", "")),
			ChatURL:      util.GetEnvString("AI_CHAT_URL", ""),
			ChatKey:      util.GetEnvString("AI_CHAT_KEY", util.GetEnvString("AI_API_KEY", "")),

			TimeoutMinutes:        int64(util.GetEnvInt("AI_TIMEOUT_MINUTES", 2)),
			MaxConcurrentRequests: int64(util.GetEnvInt("AI_MAX_CONCURRENT_REQUESTS", 16)),
		}), nil
	case "ollama":
		return ollama.NewClient(ollama.NewClientParams{
			EmbeddingModel:  util.GetEnvString("AI_EMBEDDING_MODEL", "mxbai-embed-large"),
			ExtractionModel: util.GetEnvString("AI_EXTRACTION_MODEL", "llama3.1"),
			AnswerModel:     util.GetEnvString("AI_ANSWER_MODEL", "llama3.1"),

			BaseURL: util.GetEnvString("AI_CHAT_URL", ""),
			ApiKey:  util.GetEnvString("AI_API_KEY", ""),

			TimeoutMinutes:        int64(util.GetEnvInt("AI_TIMEOUT_MINUTES", 5)),
			MaxConcurrentRequests: int64(util.GetEnvInt("AI_MAX_CONCURRENT_REQUESTS", 4)),
		})
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", provider)
	}
}

// NewStore opens the snapshot store when DATABASE_URL is set. Without
// it the server runs in-memory only; the returned close func is always
// safe to call.
func NewStore(ctx context.Context) (store.Store, func(), error) {
	connString := util.GetEnvString("DATABASE_URL", "")
	if connString == "" {
		logger.Info("[Setup] DATABASE_URL not set, snapshots stay in memory")
		return nil, func() {}, nil
	}

	pool, err := storepgx.NewPool(ctx, connString)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open database pool: %w", err)
	}
	s, err := storepgx.NewSnapshotStorage(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, func() {}, err
	}
	return s, pool.Close, nil
}

// NewEngine builds the retrieval engine with env-tuned parameters.
func NewEngine(client ai.Client) *query.Engine {
	return query.NewEngine(query.NewEngineParams{
		Client: client,
		Matcher: rank.NewMatcher(rank.NewMatcherParams{
			MinSimilarity: util.GetEnvNumeric("FACT_MIN_SIMILARITY", 0),
		}),
		Fuser: rank.NewFuser(rank.NewFuserParams{
			HybridAlpha: util.GetEnvNumeric("FUSION_HYBRID_ALPHA", 0),
			ConfLow:     util.GetEnvNumeric("FUSION_CONF_LOW", 0),
			ConfHigh:    util.GetEnvNumeric("FUSION_CONF_HIGH", 0),
			AlphaLow:    util.GetEnvNumeric("FUSION_ALPHA_LOW", 0),
			AlphaHigh:   util.GetEnvNumeric("FUSION_ALPHA_HIGH", 0),
		}),
		PPROptions: graph.PPROptions{
			Damping:       util.GetEnvNumeric("PPR_DAMPING", 0.85),
			MaxIterations: util.GetEnvInt("PPR_MAX_ITERATIONS", 50),
			Tolerance:     util.GetEnvNumeric("PPR_TOLERANCE", 1e-6),
		},
		TopK:          util.GetEnvInt("QUERY_TOP_K", 10),
		ParallelSubs:  util.GetEnvInt("QUERY_PARALLEL_SUBQUERIES", 4),
		EntityTimeout: time.Duration(util.GetEnvInt("QUERY_ENTITY_TIMEOUT_SECONDS", 15)) * time.Second,
		EmbedTimeout:  time.Duration(util.GetEnvInt("QUERY_EMBED_TIMEOUT_SECONDS", 15)) * time.Second,
	})
}

// NewBuilder builds the graph builder with env-tuned parameters.
func NewBuilder() *graph.Builder {
	return graph.NewBuilder(graph.NewBuilderParams{
		ParallelChunks: util.GetEnvInt("INDEX_PARALLEL_CHUNKS", 4),
		MaxRetries:     util.GetEnvInt("INDEX_MAX_RETRIES", 3),
	})
}

// LoadIndex restores the persisted snapshot into the engine, rebuilding
// the graph from the stored triples. A missing or empty snapshot is not
// an error; the engine just starts unindexed.
func LoadIndex(ctx context.Context, engine *query.Engine, s store.Store) error {
	if s == nil {
		return nil
	}
	chunks, triples, err := s.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(chunks) == 0 {
		logger.Info("[Setup] Store holds no snapshot yet")
		return nil
	}

	snap := engine.SetIndex(chunks, graph.Build(triples))
	logger.Info("[Setup] Restored snapshot from store",
		"chunks", len(chunks), "triples", len(triples), "version", snap.Version())
	return nil
}
