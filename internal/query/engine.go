// Package query orchestrates the answer pipeline: classify the question,
// retrieve matching services, score confidence, and compose the reply.
package query

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/classifier"
	"github.com/community-helpdesk/backend/internal/confidence"
	"github.com/community-helpdesk/backend/internal/metrics"
	"github.com/community-helpdesk/backend/internal/storage/models"
	"github.com/community-helpdesk/backend/pkg/logger"
	"github.com/community-helpdesk/backend/pkg/utils"
)

// Retriever fetches ranked services plus the raw context maps for prompting.
type Retriever interface {
	Retrieve(ctx context.Context, query, locality string, topK int) ([]models.RetrievedService, []map[string]any)
}

// Composer renders the final answer for each of the three response branches.
type Composer interface {
	Compose(ctx context.Context, question string, services []map[string]any, userLocation string) string
	OffTopicResponse() string
	EscalationResponse() string
}

// History records answered chats for the admin surface. Optional.
type History interface {
	InsertQueryRecord(record *models.QueryRecord) error
}

// Cache stores whole chat responses keyed by question+locality. Optional.
type Cache interface {
	GetChatResponse(ctx context.Context, key string, response any) (bool, error)
	SetChatResponse(ctx context.Context, key string, response any, ttl time.Duration) error
}

// Catalog exposes the index's administrative reads.
type Catalog interface {
	Count(ctx context.Context) (int64, error)
	ByCategory(ctx context.Context, category string, limit int) ([]map[string]any, error)
}

type Engine struct {
	retriever Retriever
	composer  Composer
	catalog   Catalog
	history   History
	cache     Cache
	topK      int
	cacheTTL  time.Duration
}

type Options struct {
	TopK     int
	CacheTTL time.Duration
}

type ChatRequest struct {
	Question string
	Location string
}

type ChatResponse struct {
	ID           string                    `json:"id"`
	Answer       string                    `json:"answer"`
	Services     []models.RetrievedService `json:"services"`
	Confidence   string                    `json:"confidence"`
	ServiceCount int                       `json:"service_count"`
	LatencyMS    int                       `json:"latency_ms"`
}

func NewEngine(retriever Retriever, composer Composer, catalog Catalog, history History, cache Cache, opts Options) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Engine{
		retriever: retriever,
		composer:  composer,
		catalog:   catalog,
		history:   history,
		cache:     cache,
		topK:      opts.TopK,
		cacheTTL:  opts.CacheTTL,
	}
}

// Answer runs the pipeline end to end. Every failure mode inside degrades to
// one of the fixed reply templates, so the response is always usable.
func (e *Engine) Answer(ctx context.Context, req ChatRequest) *ChatResponse {
	start := time.Now()
	queryID := uuid.New().String()

	logger.Info("Processing chat request",
		zap.String("query_id", queryID),
		zap.String("question", req.Question),
		zap.String("location", req.Location),
	)

	cacheKey := utils.CacheKey(req.Question, req.Location)
	if e.cache != nil {
		var cached ChatResponse
		if ok, err := e.cache.GetChatResponse(ctx, cacheKey, &cached); err == nil && ok {
			metrics.CacheHits.WithLabelValues("chat").Inc()
			metrics.ChatTotal.WithLabelValues("cached").Inc()
			cached.ID = queryID
			return &cached
		}
		metrics.CacheMisses.WithLabelValues("chat").Inc()
	}

	var (
		answer   string
		services []models.RetrievedService
		contexts []map[string]any
		level    confidence.Level
		outcome  string
	)

	inDomain, reason := classifier.Classify(req.Question)
	if !inDomain {
		logger.Info("Off-topic query rejected", zap.String("reason", string(reason)))
		answer = e.composer.OffTopicResponse()
		services = []models.RetrievedService{}
		level = confidence.Low
		outcome = "off_topic"
	} else {
		services, contexts = e.retriever.Retrieve(ctx, req.Question, req.Location, e.topK)
		metrics.RetrievalResults.Observe(float64(len(services)))

		if len(services) == 0 {
			answer = e.composer.EscalationResponse()
			level = confidence.Low
			outcome = "escalated"
		} else {
			level = confidence.Score(len(services), services[0].SimilarityScore)
			answer = e.composer.Compose(ctx, req.Question, contexts, req.Location)
			outcome = "answered"
		}
	}

	latency := int(time.Since(start).Milliseconds())

	response := &ChatResponse{
		ID:           queryID,
		Answer:       answer,
		Services:     services,
		Confidence:   string(level),
		ServiceCount: len(services),
		LatencyMS:    latency,
	}

	if e.history != nil {
		err := e.history.InsertQueryRecord(&models.QueryRecord{
			ID:           queryID,
			Question:     req.Question,
			Locality:     req.Location,
			Answer:       answer,
			Confidence:   string(level),
			ServiceCount: len(services),
			LatencyMS:    latency,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			logger.Warn("Failed to record query history", zap.Error(err))
		}
	}

	if e.cache != nil {
		if err := e.cache.SetChatResponse(ctx, cacheKey, response, e.cacheTTL); err != nil {
			logger.Debug("Failed to cache chat response", zap.Error(err))
		}
	}

	metrics.ChatTotal.WithLabelValues(outcome).Inc()
	metrics.ChatDuration.Observe(time.Since(start).Seconds())
	metrics.ConfidenceLevels.WithLabelValues(string(level)).Inc()

	logger.Info("Chat request processed",
		zap.String("query_id", queryID),
		zap.String("confidence", string(level)),
		zap.Int("service_count", len(services)),
		zap.Int("latency_ms", latency),
	)

	return response
}

// ServiceCount returns the number of indexed service records.
func (e *Engine) ServiceCount(ctx context.Context) int64 {
	count, err := e.catalog.Count(ctx)
	if err != nil {
		logger.Error("Failed to count services", zap.Error(err))
		return 0
	}
	return count
}

// ServicesByCategory returns metadata for up to limit records in a category.
func (e *Engine) ServicesByCategory(ctx context.Context, category string, limit int) []map[string]any {
	services, err := e.catalog.ByCategory(ctx, category, limit)
	if err != nil {
		logger.Error("Failed to get services by category",
			zap.String("category", category),
			zap.Error(err),
		)
		return []map[string]any{}
	}
	return services
}
