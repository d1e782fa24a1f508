// Package openai is the generative-model facade over any OpenAI-compatible
// endpoint. The model is an opaque capability: generate and embed with fixed
// timeouts and mapped failure kinds, nothing else. No retries live here;
// retry policy belongs to callers.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
	"github.com/hyperlocal-cloud/bazaar/internal/metrics"
)

// Client calls the generative-model endpoint for text generation and
// embeddings.
type Client struct {
	client       *openai.Client
	model        string
	embedModel   openai.EmbeddingModel
	genTimeout   time.Duration
	embedTimeout time.Duration
	logger       *zap.Logger
}

// Config holds the model endpoint settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	EmbedModel   string
	GenTimeout   time.Duration
	EmbedTimeout time.Duration
	Logger       *zap.Logger
}

// New creates a generative-model client.
func New(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	genTimeout := cfg.GenTimeout
	if genTimeout <= 0 {
		genTimeout = 120 * time.Second
	}
	embedTimeout := cfg.EmbedTimeout
	if embedTimeout <= 0 {
		embedTimeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		embedModel:   openai.EmbeddingModel(cfg.EmbedModel),
		genTimeout:   genTimeout,
		embedTimeout: embedTimeout,
		logger:       logger,
	}
}

// Generate implements domain.Generator. When structured is true the model is
// asked for a JSON response, but the raw text is returned as-is; the model is
// not trusted to honor the instruction and callers re-parse with a fallback.
func (c *Client) Generate(ctx context.Context, prompt string, structured bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.genTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if structured {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("generate", "error").Inc()
		return "", mapAPIError("generate", err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues("generate", "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrUpstreamError)
	}

	metrics.LLMRequestsTotal.WithLabelValues("generate", "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues("generate").Observe(duration.Seconds())

	return resp.Choices[0].Message.Content, nil
}

// Embed implements domain.Embedder: one fixed-dimension vector per input
// text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.embedTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          c.embedModel,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("embed", "error").Inc()
		return nil, mapAPIError("embed", err)
	}
	if len(resp.Data) != len(texts) {
		metrics.LLMRequestsTotal.WithLabelValues("embed", "error").Inc()
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d inputs: %w",
			len(resp.Data), len(texts), domain.ErrUpstreamError)
	}

	metrics.LLMRequestsTotal.WithLabelValues("embed", "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues("embed").Observe(duration.Seconds())

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range: %w", d.Index, domain.ErrUpstreamError)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// mapAPIError classifies failures: non-success statuses are upstream errors,
// everything else (transport, DNS, timeout) means the upstream is unavailable.
func mapAPIError(op string, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s: api status %d: %w", op, reqErr.HTTPStatusCode, domain.ErrUpstreamError)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: api status %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, domain.ErrUpstreamError)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
}
