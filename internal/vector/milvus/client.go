package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/vector"
	"github.com/community-helpdesk/backend/pkg/logger"
)

// Client wraps a Milvus collection of community service records. The
// collection keeps the embedded searchable text, scalar locality/category
// fields for equality filters, and the full record metadata as JSON.
type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

func NewClient(endpoint, apiKey, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnsureCollection creates and loads the collection if it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context) error {
	has, err := c.client.HasCollection(ctx, c.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", c.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: c.collectionName,
		Description:    "Community services knowledge base",
		Fields: []*entity.Field{
			{
				Name:       "service_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", c.vectorDim),
				},
			},
			{
				Name:     "document",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "4096",
				},
			},
			{
				Name:     "locality",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     "category",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     "metadata",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "8192",
				},
			},
		},
	}

	err = c.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index definition: %w", err)
	}
	err = c.client.CreateIndex(ctx, c.collectionName, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = c.client.LoadCollection(ctx, c.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", c.collectionName))

	return nil
}

// Upsert writes documents under their service ids, replacing any previously
// indexed version of the same record.
func (c *Client) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	documents := make([]string, len(docs))
	localities := make([]string, len(docs))
	categories := make([]string, len(docs))
	metadatas := make([]string, len(docs))

	for i, doc := range docs {
		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %q: %w", doc.ID, err)
		}

		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		documents[i] = doc.Text
		localities[i] = doc.Locality
		categories[i] = doc.Category
		metadatas[i] = string(metadata)
	}

	_, err := c.client.Upsert(
		ctx,
		c.collectionName,
		"",
		entity.NewColumnVarChar("service_id", ids),
		entity.NewColumnFloatVector("embedding", c.vectorDim, embeddings),
		entity.NewColumnVarChar("document", documents),
		entity.NewColumnVarChar("locality", localities),
		entity.NewColumnVarChar("category", categories),
		entity.NewColumnVarChar("metadata", metadatas),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}

	err = c.client.Flush(ctx, c.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Documents upserted into vector DB", zap.Int("count", len(docs)))

	return nil
}

// Search returns the topK nearest documents, optionally restricted to an
// exact locality match. Hits are ordered nearest first; the COSINE similarity
// reported by Milvus is converted so that Distance keeps the cosine-distance
// contract (similarity = 1 - distance).
func (c *Client) Search(ctx context.Context, queryEmbedding []float32, topK int, locality string) ([]vector.SearchHit, error) {
	expr := ""
	if locality != "" {
		expr = fmt.Sprintf(`locality == "%s"`, escapeExpr(locality))
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := c.client.Search(
		ctx,
		c.collectionName,
		[]string{},
		expr,
		[]string{"service_id", "document", "metadata"},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]vector.SearchHit, 0)
	for _, sr := range searchResult {
		idCol := sr.Fields.GetColumn("service_id")
		docCol := sr.Fields.GetColumn("document")
		metaCol := sr.Fields.GetColumn("metadata")

		for i := 0; i < sr.ResultCount; i++ {
			id, _ := columnString(idCol, i)
			doc, _ := columnString(docCol, i)
			rawMeta, _ := columnString(metaCol, i)

			metadata := map[string]any{}
			if rawMeta != "" {
				if err := json.Unmarshal([]byte(rawMeta), &metadata); err != nil {
					logger.Warn("Malformed metadata payload, treating as empty",
						zap.String("service_id", id),
						zap.Error(err),
					)
					metadata = map[string]any{}
				}
			}

			hits = append(hits, vector.SearchHit{
				ID:       id,
				Document: doc,
				Distance: 1.0 - float64(sr.Scores[i]),
				Metadata: metadata,
			})
		}
	}

	logger.Debug("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("hits", len(hits)),
		zap.String("filter", expr),
	)

	return hits, nil
}

// Count returns the number of indexed service records.
func (c *Client) Count(ctx context.Context) (int64, error) {
	stats, err := c.client.GetCollectionStatistics(ctx, c.collectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}

	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected row_count value %q: %w", stats["row_count"], err)
	}

	return count, nil
}

// ByCategory returns the metadata of up to limit records in a category.
func (c *Client) ByCategory(ctx context.Context, category string, limit int) ([]map[string]any, error) {
	expr := fmt.Sprintf(`category == "%s"`, escapeExpr(category))

	resultSet, err := c.client.Query(
		ctx,
		c.collectionName,
		nil,
		expr,
		[]string{"metadata"},
		client.WithLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query by category: %w", err)
	}

	var metaCol entity.Column
	for _, col := range resultSet {
		if col.Name() == "metadata" {
			metaCol = col
			break
		}
	}
	if metaCol == nil {
		return []map[string]any{}, nil
	}

	metadatas := make([]map[string]any, 0, metaCol.Len())
	for i := 0; i < metaCol.Len(); i++ {
		raw, err := columnString(metaCol, i)
		if err != nil {
			continue
		}
		metadata := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			continue
		}
		metadatas = append(metadatas, metadata)
	}

	return metadatas, nil
}

func columnString(col entity.Column, idx int) (string, error) {
	if col == nil {
		return "", fmt.Errorf("missing column")
	}
	val, err := col.Get(idx)
	if err != nil {
		return "", err
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected column value type %T", val)
	}
	return s, nil
}

func escapeExpr(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}
