package ollama

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/OFFIS-RIT/pomelo/pkg/ai"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *Client) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.answerModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	req, err := c.buildChatRequest(prompt, options)
	if err != nil {
		return "", err
	}

	final, err := c.chat(ctx, req)
	if err != nil {
		return "", err
	}
	return final.Message.Content, nil
}

// GenerateCompletionWithFormat enforces a JSON schema on the response and
// unmarshals it into out. Malformed output goes through repair before the
// call is considered failed.
func (c *Client) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	req, err := c.buildChatRequest(prompt, options)
	if err != nil {
		return err
	}

	schema, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}
	req.Format = json.RawMessage(schema)

	final, err := c.chat(ctx, req)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(final.Message.Content, out)
}

func (c *Client) buildChatRequest(prompt string, options ai.GenerateOptions) (*api.ChatRequest, error) {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	// Ollama silently truncates prompts exceeding the default context
	// window, so size num_ctx from the actual token count.
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return nil, err
	}
	var promptTokens int
	for _, m := range msgs {
		promptTokens += len(enc.Encode(m.Content, nil, nil))
	}
	if tokens := promptTokens + 512; tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}

	return req, nil
}

func (c *Client) chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	var sb strings.Builder
	if err := c.Client.Chat(rCtx, req, func(cr api.ChatResponse) error {
		sb.WriteString(cr.Message.Content)
		if cr.Done {
			final = cr
		}
		return nil
	}); err != nil {
		return nil, err
	}
	final.Message.Content = sb.String()

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return &final, nil
}
