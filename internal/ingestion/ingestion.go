// Package ingestion validates service records, derives their searchable text,
// embeds them, and writes them to the vector index.
package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/metrics"
	"github.com/community-helpdesk/backend/internal/storage/models"
	"github.com/community-helpdesk/backend/internal/vector"
	"github.com/community-helpdesk/backend/pkg/logger"
)

// Embedder turns searchable texts into vectors, preserving order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index accepts embedded documents. Writes with an existing ID replace the
// previous document.
type Index interface {
	Upsert(ctx context.Context, docs []vector.Document) error
}

// AuditLog records completed ingestion batches. Optional.
type AuditLog interface {
	LogIngestion(batchID string, recordCount int) error
}

type Ingestor struct {
	embedder Embedder
	index    Index
	audit    AuditLog
}

func NewIngestor(embedder Embedder, index Index, audit AuditLog) *Ingestor {
	return &Ingestor{embedder: embedder, index: index, audit: audit}
}

// Ingest validates, embeds, and upserts the given records as one batch.
// Validation is all-or-nothing: any invalid record fails the whole batch
// before anything is written.
func (in *Ingestor) Ingest(ctx context.Context, records []models.ServiceRecord) (int, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("no service records provided")
	}

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return 0, fmt.Errorf("invalid record at index %d: %w", i, err)
		}
	}

	batchID := uuid.New().String()
	logger.Info("Starting ingestion batch",
		zap.String("batch_id", batchID),
		zap.Int("record_count", len(records)),
	)

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = SearchableText(&records[i])
	}

	embeddings, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed records: %w", err)
	}

	docs := make([]vector.Document, len(records))
	for i := range records {
		metadata, err := records[i].Metadata()
		if err != nil {
			return 0, fmt.Errorf("record %q: %w", records[i].ID, err)
		}
		docs[i] = vector.Document{
			ID:        records[i].ID,
			Embedding: embeddings[i],
			Text:      texts[i],
			Locality:  records[i].Locality,
			Category:  records[i].Category,
			Metadata:  metadata,
		}
	}

	if err := in.index.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to upsert documents: %w", err)
	}

	metrics.ServicesIngested.Add(float64(len(docs)))

	if in.audit != nil {
		if err := in.audit.LogIngestion(batchID, len(docs)); err != nil {
			logger.Warn("Failed to log ingestion batch", zap.Error(err))
		}
	}

	logger.Info("Ingestion batch complete",
		zap.String("batch_id", batchID),
		zap.Int("record_count", len(docs)),
	)

	return len(docs), nil
}

// SearchableText builds the string that gets embedded for a record. Emergency
// services gain extra urgency terms so time-critical questions rank them
// higher.
func SearchableText(r *models.ServiceRecord) string {
	parts := make([]string, 0, 8)
	for _, p := range []string{
		r.ServiceName,
		r.Category,
		r.Subcategory,
		r.Description,
		r.Locality,
		r.Tags,
		r.Address,
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if r.EmergencyService == "yes" {
		parts = append(parts, "emergency service 24/7 urgent")
	}
	return strings.Join(parts, " ")
}
