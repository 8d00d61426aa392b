package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/pomelo/internal/util"
	"github.com/OFFIS-RIT/pomelo/pkg/ai"

	"github.com/openai/openai-go/v3"
)

const defaultDimensions = 1536

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model.
func (c *Client) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	res, err := c.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(res))
	}
	return res[0], nil
}

// GenerateEmbeddings creates embeddings for multiple inputs in a single
// request. Empty inputs map to zero vectors without being sent to the
// model; output order matches input order.
func (c *Client) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	if c.EmbeddingClient == nil {
		return nil, fmt.Errorf("embedding client not configured")
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", defaultDimensions))

	idxMap := make([]int, 0, len(inputs))
	stringsIn := make([]string, 0, len(inputs))
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if len(strings.TrimSpace(string(in))) == 0 {
			out[i] = make([]float32, dim)
			continue
		}
		idxMap = append(idxMap, i)
		stringsIn = append(stringsIn, string(in))
	}
	if len(stringsIn) == 0 {
		return out, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: stringsIn},
		Model: c.embeddingModel,
	}

	start := time.Now()
	response, err := c.EmbeddingClient.Embeddings.New(rCtx, body)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	if len(response.Data) != len(stringsIn) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(response.Data), len(stringsIn))
	}

	for _, embedding := range response.Data {
		dataIdx := int(embedding.Index)
		if dataIdx < 0 || dataIdx >= len(stringsIn) {
			return nil, fmt.Errorf("embedding index out of range: %d", embedding.Index)
		}
		vec := make([]float32, 0, len(embedding.Embedding))
		for _, v := range embedding.Embedding {
			vec = append(vec, float32(v))
		}
		out[idxMap[dataIdx]] = vec
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return out, nil
}
