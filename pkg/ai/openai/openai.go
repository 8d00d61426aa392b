package openai

import (
	"sync"

	"github.com/OFFIS-RIT/pomelo/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// Client talks to an OpenAI-compatible API. Separate underlying clients are
// kept for embeddings and chat so the two can point at different endpoints.
//
// A Client should be created using NewClient.
type Client struct {
	embeddingModel  string
	extractionModel string
	answerModel     string

	timeoutMin int64
	reqLock    *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewClientParams defines the configuration parameters for creating a new
// Client.
//
// ExtractionModel is used for triple and query-entity extraction,
// AnswerModel for answer generation. Chat and embedding endpoints are
// configured independently so local gateways can serve one of the two.
type NewClientParams struct {
	EmbeddingModel  string
	ExtractionModel string
	AnswerModel     string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	TimeoutMinutes        int64
	MaxConcurrentRequests int64
}

// NewClient creates and returns a new Client configured with the provided
// parameters.
//
// Example:
//
//	client := openai.NewClient(openai.NewClientParams{
//		EmbeddingModel:  "text-embedding-3-small",
//		ExtractionModel: "gpt-4o-mini",
//		AnswerModel:     "gpt-4o",
//		ChatKey:         os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:    os.Getenv("OPENAI_API_KEY"),
//	})
func NewClient(params NewClientParams) *Client {
	timeout := params.TimeoutMinutes
	if timeout <= 0 {
		timeout = 2
	}
	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 16
	}

	return &Client{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,
		answerModel:     params.AnswerModel,

		timeoutMin: timeout,
		reqLock:    semaphore.NewWeighted(maxReq),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

// Metrics returns the usage metrics accumulated across all calls.
func (c *Client) Metrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *Client) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)
	return &client
}
