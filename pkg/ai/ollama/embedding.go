package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/OFFIS-RIT/pomelo/internal/util"
	"github.com/OFFIS-RIT/pomelo/pkg/ai"

	"github.com/ollama/ollama/api"
)

const defaultDimensions = 1024

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model on Ollama.
func (c *Client) GenerateEmbedding(
	ctx context.Context,
	input []byte,
) ([]float32, error) {
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", defaultDimensions))
	if len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, dim), nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: string(input),
	}

	res, err := c.Client.Embed(rCtx, req)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	out := make([]float32, 0, dim)
	for _, v := range res.Embeddings {
		for _, val := range v {
			out = append(out, float32(val))
		}
	}
	return out, nil
}

// GenerateEmbeddings creates embeddings for multiple inputs sequentially.
// The Ollama embed API accepts one input per request; the client's request
// semaphore caps effective parallelism anyway, so callers batch here.
func (c *Client) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		emb, err := c.GenerateEmbedding(ctx, in)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}
