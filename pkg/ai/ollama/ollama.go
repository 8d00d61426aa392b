package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/OFFIS-RIT/pomelo/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// Client implements the ai.Client interface using Ollama as the backend.
// It supports text generation, structured output, and embeddings via
// locally-hosted models.
type Client struct {
	embeddingModel  string
	extractionModel string
	answerModel     string

	timeoutMin int64
	reqLock    *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewClientParams contains configuration options for creating a new Client.
type NewClientParams struct {
	EmbeddingModel  string
	ExtractionModel string
	AnswerModel     string

	BaseURL string
	ApiKey  string

	TimeoutMinutes        int64
	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a new Ollama-based AI client. It connects to the
// Ollama server at the given BaseURL (or the default if empty) and uses
// the configured models for extraction, answering, and embeddings.
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	timeout := params.TimeoutMinutes
	if timeout <= 0 {
		timeout = 5
	}
	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 4
	}

	return &Client{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,
		answerModel:     params.AnswerModel,

		timeoutMin: timeout,
		reqLock:    semaphore.NewWeighted(maxReq),

		Client: api.NewClient(u, httpClient),
	}, nil
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
