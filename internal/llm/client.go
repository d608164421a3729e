package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/pkg/circuitbreaker"
	"github.com/community-helpdesk/backend/pkg/logger"
	"github.com/community-helpdesk/backend/pkg/retry"
	"github.com/community-helpdesk/backend/pkg/utils"
)

// EmbeddingCache lets the client reuse embeddings across requests. It is
// optional; a nil cache disables reuse.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, key string, embedding []float32, ttl time.Duration) error
}

// Client talks to an OpenAI-compatible endpoint (Ollama by default) for both
// answer generation and text embeddings. Calls run behind a circuit breaker
// with bounded retries.
type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	timeout        time.Duration
	cache          EmbeddingCache
	cb             *circuitbreaker.Breaker
	retryConfig    retry.Config
}

type Options struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	TimeoutSec     int
	Cache          EmbeddingCache
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	timeout := time.Duration(opts.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Factor:    2.0,
		Jitter:    0.1,
		Logger:    logger.GetLogger(),
	}

	logger.Info("LLM client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", opts.Model),
		zap.String("embedding_model", opts.EmbeddingModel),
	)

	return &Client{
		client:         openai.NewClientWithConfig(cfg),
		model:          opts.Model,
		embeddingModel: opts.EmbeddingModel,
		timeout:        timeout,
		cache:          opts.Cache,
		cb:             cb,
		retryConfig:    retryConfig,
	}
}

// Available reports whether the generation endpoint answers at all.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.ListModels(ctx)
	return err == nil
}

// Generate produces a completion for a single fully assembled prompt.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model: c.model,
					Messages: []openai.ChatCompletionMessage{
						{Role: openai.ChatMessageRoleUser, Content: prompt},
					},
					Temperature: temperature,
					MaxTokens:   maxTokens,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}

			content = resp.Choices[0].Message.Content
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	logger.Debug("Completion generated", zap.Int("response_length", len(content)))

	return content, nil
}

// GenerateStream streams a completion, invoking onChunk for each delta in
// order and returning the concatenated text.
func (c *Client) GenerateStream(ctx context.Context, prompt string, temperature float32, maxTokens int, onChunk func(string)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content string

	err := c.cb.Execute(ctx, func() error {
		stream, err := c.client.CreateChatCompletionStream(
			ctx,
			openai.ChatCompletionRequest{
				Model: c.model,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: prompt},
				},
				Temperature: temperature,
				MaxTokens:   maxTokens,
				Stream:      true,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to open completion stream: %w", err)
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read completion stream: %w", err)
			}
			if len(resp.Choices) == 0 {
				continue
			}

			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			content += delta
			if onChunk != nil {
				onChunk(delta)
			}
		}
	})
	if err != nil {
		return "", err
	}

	return content, nil
}

// EmbedQuery embeds a single text, consulting the embedding cache first.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if c.cache != nil {
		key := utils.CacheKey(c.embeddingModel, text)
		if embedding, ok, err := c.cache.GetEmbedding(ctx, key); err == nil && ok {
			return embedding, nil
		}
	}

	embeddings, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}

	if c.cache != nil {
		key := utils.CacheKey(c.embeddingModel, text)
		if err := c.cache.SetEmbedding(ctx, key, embeddings[0], 24*time.Hour); err != nil {
			logger.Debug("Failed to cache embedding", zap.Error(err))
		}
	}

	return embeddings[0], nil
}

// EmbedBatch embeds texts in batches of 100, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	embeddings := make([][]float32, 0, len(texts))

	batchSize := 100
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		err := c.cb.Execute(ctx, func() error {
			return retry.Do(ctx, c.retryConfig, func() error {
				resp, err := c.client.CreateEmbeddings(
					ctx,
					openai.EmbeddingRequest{
						Input: batch,
						Model: openai.EmbeddingModel(c.embeddingModel),
					},
				)
				if err != nil {
					return fmt.Errorf("failed to generate embeddings: %w", err)
				}
				if len(resp.Data) != len(batch) {
					return fmt.Errorf("embedding count mismatch: got %d, expected %d", len(resp.Data), len(batch))
				}

				for _, data := range resp.Data {
					embedding := make([]float32, len(data.Embedding))
					copy(embedding, data.Embedding)
					embeddings = append(embeddings, embedding)
				}
				return nil
			})
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Embeddings generated", zap.Int("count", len(embeddings)))

	return embeddings, nil
}
