// Package retrieval turns a question into ranked service records: embed the
// query, run a filtered nearest-neighbor search, convert distances to
// similarity scores, and apply the similarity threshold.
package retrieval

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/storage/models"
	"github.com/community-helpdesk/backend/internal/vector"
	"github.com/community-helpdesk/backend/pkg/logger"
)

// Embedder encodes query text into the index's vector space.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is the nearest-neighbor search surface of the vector store.
type Index interface {
	Search(ctx context.Context, embedding []float32, topK int, locality string) ([]vector.SearchHit, error)
}

type Service struct {
	embedder  Embedder
	index     Index
	threshold float64
}

// NewService builds a retrieval service. threshold is the minimum similarity
// a hit must reach to survive; zero admits everything.
func NewService(embedder Embedder, index Index, threshold float64) *Service {
	return &Service{
		embedder:  embedder,
		index:     index,
		threshold: threshold,
	}
}

// Retrieve returns up to topK services relevant to the query, nearest first,
// together with the raw metadata maps used for prompt construction. The two
// slices are parallel. Provider failures degrade to empty results and are
// never propagated.
func (s *Service) Retrieve(ctx context.Context, query, locality string, topK int) ([]models.RetrievedService, []map[string]any) {
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		logger.Error("Failed to embed query", zap.Error(err))
		return []models.RetrievedService{}, []map[string]any{}
	}

	hits, err := s.index.Search(ctx, embedding, topK, locality)
	if err != nil {
		logger.Error("Failed to search vector index", zap.Error(err))
		return []models.RetrievedService{}, []map[string]any{}
	}

	services := make([]models.RetrievedService, 0, len(hits))
	contexts := make([]map[string]any, 0, len(hits))

	for _, hit := range hits {
		similarity := 1.0 - hit.Distance
		if similarity < s.threshold {
			continue
		}

		metadata := hit.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}

		services = append(services, models.RetrievedService{
			ServiceName:     metaString(metadata, "service_name", "N/A"),
			Category:        metaString(metadata, "category", "N/A"),
			Description:     metaString(metadata, "description", "N/A"),
			Address:         metaString(metadata, "address", "N/A"),
			ContactPhone:    metaString(metadata, "contact_phone", ""),
			Hours:           metaString(metadata, "hours", ""),
			SimilarityScore: round3(similarity),
			Metadata:        metadata,
		})
		contexts = append(contexts, metadata)
	}

	if len(services) == 0 {
		logger.Warn("No services found for query", zap.String("locality", locality))
	} else {
		logger.Info("Retrieved relevant services",
			zap.Int("count", len(services)),
			zap.String("locality", locality),
		)
	}

	return services, contexts
}

func metaString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
