package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OFFIS-RIT/pomelo/pkg/ai"
	"github.com/OFFIS-RIT/pomelo/pkg/common"
	"github.com/OFFIS-RIT/pomelo/pkg/graph"
	"github.com/OFFIS-RIT/pomelo/pkg/logger"
	"github.com/OFFIS-RIT/pomelo/pkg/rank"
	"github.com/OFFIS-RIT/pomelo/pkg/retrieval"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyQuery is the only user-visible input failure; every other
	// degradation is recovered inside the pipeline.
	ErrEmptyQuery = errors.New("query text is empty")
	// ErrNoIndex is returned when no snapshot has been published yet.
	ErrNoIndex = errors.New("no index snapshot available")
)

// Snapshot bundles one consistent view of the indexed corpus: the graph
// with its version plus the dense and lexical indexes built from the
// same chunk set. A query loads it once and references it throughout.
type Snapshot struct {
	Graph   *graph.Snapshot
	Dense   *retrieval.DenseIndex
	Lexical *retrieval.LexicalIndex
}

// Version returns the graph snapshot version.
func (s *Snapshot) Version() int64 {
	return s.Graph.Version
}

// Chunks returns the chunk set this snapshot was built from.
func (s *Snapshot) Chunks() []common.Chunk {
	return s.Dense.Chunks()
}

// Engine coordinates a retrieval run: query entity extraction, fact
// matching, concurrent propagation and dense/lexical scoring, adaptive
// fusion, institution filtering, and decomposition for multi-institution
// questions.
//
// An Engine should be created using NewEngine.
type Engine struct {
	client  ai.Client
	matcher *rank.Matcher
	fuser   *rank.Fuser

	pprOptions    graph.PPROptions
	topK          int
	parallelSubs  int
	entityTimeout time.Duration
	embedTimeout  time.Duration

	holder  *graph.Holder
	current atomic.Pointer[Snapshot]
}

// NewEngineParams defines the configuration parameters for creating a
// new Engine. Zero values fall back to defaults; Client is required.
type NewEngineParams struct {
	Client        ai.Client
	Matcher       *rank.Matcher
	Fuser         *rank.Fuser
	PPROptions    graph.PPROptions
	TopK          int
	ParallelSubs  int
	EntityTimeout time.Duration
	EmbedTimeout  time.Duration
}

// NewEngine creates and returns a new Engine configured with the
// provided parameters.
func NewEngine(params NewEngineParams) *Engine {
	matcher := params.Matcher
	if matcher == nil {
		matcher = rank.NewMatcher(rank.NewMatcherParams{})
	}
	fuser := params.Fuser
	if fuser == nil {
		fuser = rank.NewFuser(rank.NewFuserParams{})
	}
	ppr := params.PPROptions
	if ppr.MaxIterations <= 0 {
		ppr = graph.DefaultPPROptions()
	}
	topK := params.TopK
	if topK <= 0 {
		topK = 10
	}
	parallelSubs := params.ParallelSubs
	if parallelSubs <= 0 {
		parallelSubs = 4
	}
	entityTimeout := params.EntityTimeout
	if entityTimeout <= 0 {
		entityTimeout = 15 * time.Second
	}
	embedTimeout := params.EmbedTimeout
	if embedTimeout <= 0 {
		embedTimeout = 15 * time.Second
	}
	return &Engine{
		client:        params.Client,
		matcher:       matcher,
		fuser:         fuser,
		pprOptions:    ppr,
		topK:          topK,
		parallelSubs:  parallelSubs,
		entityTimeout: entityTimeout,
		embedTimeout:  embedTimeout,
		holder:        graph.NewHolder(),
	}
}

// SetIndex publishes a new corpus snapshot. The dense and lexical
// indexes are rebuilt from the chunks and swapped in together with the
// graph, so no query ever mixes old and new state.
func (e *Engine) SetIndex(chunks []common.Chunk, g *graph.Graph) *Snapshot {
	snap := &Snapshot{
		Graph:   e.holder.Swap(g),
		Dense:   retrieval.NewDenseIndex(chunks),
		Lexical: retrieval.NewLexicalIndex(chunks),
	}
	e.current.Store(snap)
	logger.Info("[Query] Published index snapshot",
		"version", snap.Version(),
		"chunks", len(chunks),
		"nodes", g.NumNodes(),
	)
	return snap
}

// Snapshot returns the currently published snapshot, or nil before the
// first SetIndex.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Result carries the ranked passages together with the query-time
// signals that produced them.
type Result struct {
	Passages     []common.RankedPassage
	Entities     []common.QueryEntity
	SubQueries   []string
	Confidence   float64
	Alpha        float64
	GraphVersion int64
}

// Retrieve runs the full pipeline for one question and returns the top
// k passages. k <= 0 uses the engine default. The tracer may be nil.
//
// Degradations (failed entity extraction, failed query embedding, no
// matched facts) reduce result quality but never fail the call; only an
// empty question or a missing index do.
func (e *Engine) Retrieve(ctx context.Context, question string, k int, tracer Tracer) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuery
	}
	snap := e.current.Load()
	if snap == nil {
		return nil, ErrNoIndex
	}
	if k <= 0 {
		k = e.topK
	}

	entities := e.extractEntities(ctx, question)
	subs := Decompose(question, entities)

	res := &Result{
		Entities:     entities,
		GraphVersion: snap.Version(),
		Alpha:        math.Inf(-1),
	}
	for _, sub := range subs {
		res.SubQueries = append(res.SubQueries, sub.Text)
	}

	if len(subs) == 1 {
		passages, confidence, alpha := e.retrieveOne(ctx, snap, subs[0], k, tracer)
		res.Passages = passages
		res.Confidence = confidence
		res.Alpha = alpha
		return res, nil
	}

	var mu sync.Mutex
	lists := make([][]common.RankedPassage, len(subs))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallelSubs)
	for i, sub := range subs {
		i, sub := i, sub
		eg.Go(func() error {
			passages, confidence, alpha := e.retrieveOne(gCtx, snap, sub, k, tracer)
			mu.Lock()
			lists[i] = passages
			if confidence > res.Confidence {
				res.Confidence = confidence
			}
			if alpha > res.Alpha {
				res.Alpha = alpha
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to run sub-queries: %w", err)
	}

	res.Passages = mergeRoundRobin(lists, k)
	for _, p := range res.Passages {
		RecordUsedChunkIDs(tracer, p.Chunk.ID)
	}
	return res, nil
}

// retrieveOne runs matching, propagation, dense and lexical scoring,
// fusion, and filtering for a single sub-query.
func (e *Engine) retrieveOne(
	ctx context.Context,
	snap *Snapshot,
	sub SubQuery,
	k int,
	tracer Tracer,
) ([]common.RankedPassage, float64, float64) {
	match := e.matcher.Match(sub.Entities, snap.Graph.Graph)
	for _, qe := range sub.Entities {
		RecordMatchedEntityKeys(tracer, qe.Key)
	}
	for _, tr := range match.Triples {
		RecordMatchedFacts(tracer, fmt.Sprintf("%s | %s | %s", tr.Subject, tr.Relation, tr.Object))
	}

	var (
		pprScores   map[string]float64
		denseScores map[string]float64
		lexScores   map[string]float64
	)

	// Propagation and dense/lexical scoring have no data dependency on
	// each other; fusion below is the synchronization point.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scores := graph.Propagate(snap.Graph.Graph, match.Seeds, e.pprOptions)
		pprScores = snap.Graph.Graph.ChunkScores(scores)
	}()
	go func() {
		defer wg.Done()
		denseScores = e.denseScores(ctx, snap, sub.Text)
		lexScores = snap.Lexical.Scores(sub.Text)
	}()
	wg.Wait()

	alpha := e.fuser.Alpha(match.Confidence)
	RecordFusionAlpha(tracer, alpha)

	fused := e.fuser.Fuse(pprScores, denseScores, lexScores, match.Confidence)
	passages := make([]common.RankedPassage, 0, len(fused))
	for _, s := range fused {
		chunk, ok := snap.Dense.Chunk(s.ChunkID)
		if !ok {
			continue
		}
		RecordConsideredChunkIDs(tracer, s.ChunkID)
		passages = append(passages, common.RankedPassage{Chunk: chunk, Score: s.Score})
	}

	passages = rank.FilterByInstitution(passages, sub.Entities)
	if len(passages) > k {
		passages = passages[:k]
	}
	for _, p := range passages {
		RecordUsedChunkIDs(tracer, p.Chunk.ID)
	}
	return passages, match.Confidence, alpha
}

// denseScores embeds the query and scores it against the dense index.
// Embedding failure or timeout degrades the dense path to no signal.
func (e *Engine) denseScores(ctx context.Context, snap *Snapshot, text string) map[string]float64 {
	embedCtx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	defer cancel()

	emb, err := e.client.GenerateEmbedding(embedCtx, []byte(text))
	if err != nil {
		logger.Warn("[Query] Query embedding failed, dense path degrades to empty", "error", err)
		return map[string]float64{}
	}
	return snap.Dense.Scores(emb)
}

type queryEntityResponse struct {
	Entities []struct {
		Name        string  `json:"name" jsonschema_description:"Canonical surface form of the entity as it appears in the question"`
		Confidence  float64 `json:"confidence" jsonschema_description:"Extraction confidence between 0 and 1"`
		Institution bool    `json:"institution" jsonschema_description:"True when the entity names an organization or other source-scoping body"`
	} `json:"entities" jsonschema_description:"Named entities the question hinges on"`
}

// extractEntities asks the LLM for the question's entities. Failure or
// timeout degrades to no entities, which downstream means zero fact
// confidence and a dense/lexical-only ranking.
func (e *Engine) extractEntities(ctx context.Context, question string) []common.QueryEntity {
	llmCtx, cancel := context.WithTimeout(ctx, e.entityTimeout)
	defer cancel()

	var res queryEntityResponse
	err := e.client.GenerateCompletionWithFormat(
		llmCtx,
		"query_entities",
		"Extract the named entities a question hinges on.",
		fmt.Sprintf(ai.QueryEntitiesPrompt, question),
		&res,
	)
	if err != nil {
		logger.Warn("[Query] Entity extraction failed, graph path degrades to empty", "error", err)
		return nil
	}

	entities := make([]common.QueryEntity, 0, len(res.Entities))
	for _, ent := range res.Entities {
		name := strings.TrimSpace(ent.Name)
		key := graph.NormalizeKey(name)
		if key == "" {
			continue
		}
		entities = append(entities, common.QueryEntity{
			Name:        name,
			Key:         key,
			Confidence:  math.Min(math.Max(ent.Confidence, 0), 1),
			Institution: ent.Institution,
		})
	}
	return entities
}
