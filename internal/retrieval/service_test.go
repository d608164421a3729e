package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/community-helpdesk/backend/internal/vector"
)

type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

type fakeIndex struct {
	hits         []vector.SearchHit
	err          error
	gotTopK      int
	gotLocality  string
	gotEmbedding []float32
}

func (f *fakeIndex) Search(ctx context.Context, embedding []float32, topK int, locality string) ([]vector.SearchHit, error) {
	f.gotEmbedding = embedding
	f.gotTopK = topK
	f.gotLocality = locality
	if f.err != nil {
		return nil, f.err
	}
	if topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func hit(id string, distance float64, meta map[string]any) vector.SearchHit {
	return vector.SearchHit{ID: id, Distance: distance, Metadata: meta}
}

func TestRetrieveRankedResults(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{0.1, 0.2}}
	index := &fakeIndex{
		hits: []vector.SearchHit{
			hit("s1", 0.1, map[string]any{"service_name": "Apollo Hospital", "category": "Healthcare"}),
			hit("s2", 0.3, map[string]any{"service_name": "City Clinic", "category": "Healthcare"}),
			hit("s3", 0.6, map[string]any{"service_name": "Corner Pharmacy", "category": "Healthcare"}),
		},
	}

	svc := NewService(embedder, index, 0.0)
	services, contexts := svc.Retrieve(context.Background(), "hospital near me", "Adyar", 5)

	if len(services) != 3 {
		t.Fatalf("got %d services, want 3", len(services))
	}
	if len(contexts) != 3 {
		t.Fatalf("got %d contexts, want 3", len(contexts))
	}
	if index.gotLocality != "Adyar" {
		t.Errorf("locality passed to index = %q, want %q", index.gotLocality, "Adyar")
	}
	if index.gotTopK != 5 {
		t.Errorf("topK passed to index = %d, want 5", index.gotTopK)
	}

	for i := 1; i < len(services); i++ {
		if services[i].SimilarityScore > services[i-1].SimilarityScore {
			t.Errorf("scores not non-increasing at %d: %v > %v",
				i, services[i].SimilarityScore, services[i-1].SimilarityScore)
		}
	}

	if services[0].SimilarityScore != 0.9 {
		t.Errorf("top score = %v, want 0.9", services[0].SimilarityScore)
	}
	if services[0].ServiceName != "Apollo Hospital" {
		t.Errorf("top service = %q, want Apollo Hospital", services[0].ServiceName)
	}
}

func TestRetrieveThresholdFilter(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{0.5}}
	index := &fakeIndex{
		hits: []vector.SearchHit{
			hit("s1", 0.2, map[string]any{"service_name": "Keeper"}),
			hit("s2", 0.8, map[string]any{"service_name": "Dropped"}),
		},
	}

	svc := NewService(embedder, index, 0.5)
	services, contexts := svc.Retrieve(context.Background(), "query", "", 5)

	if len(services) != 1 {
		t.Fatalf("got %d services, want 1", len(services))
	}
	if len(contexts) != 1 {
		t.Fatalf("got %d contexts, want 1", len(contexts))
	}
	if services[0].ServiceName != "Keeper" {
		t.Errorf("kept service = %q, want Keeper", services[0].ServiceName)
	}
}

func TestRetrieveMissingMetadataDefaults(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{0.5}}
	index := &fakeIndex{
		hits: []vector.SearchHit{hit("s1", 0.1, nil)},
	}

	svc := NewService(embedder, index, 0.0)
	services, _ := svc.Retrieve(context.Background(), "query", "", 5)

	if len(services) != 1 {
		t.Fatalf("got %d services, want 1", len(services))
	}
	s := services[0]
	if s.ServiceName != "N/A" || s.Category != "N/A" || s.Description != "N/A" || s.Address != "N/A" {
		t.Errorf("missing metadata should default to N/A, got %+v", s)
	}
	if s.ContactPhone != "" || s.Hours != "" {
		t.Errorf("optional fields should default to empty, got phone=%q hours=%q", s.ContactPhone, s.Hours)
	}
	if s.Metadata == nil {
		t.Error("metadata should never be nil")
	}
}

func TestRetrieveEmbedFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedding backend down")}
	index := &fakeIndex{}

	svc := NewService(embedder, index, 0.0)
	services, contexts := svc.Retrieve(context.Background(), "query", "", 5)

	if len(services) != 0 || len(contexts) != 0 {
		t.Errorf("embed failure should yield empty results, got %d services %d contexts",
			len(services), len(contexts))
	}
	if index.gotEmbedding != nil {
		t.Error("index should not be searched when embedding fails")
	}
}

func TestRetrieveSearchFailure(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{0.5}}
	index := &fakeIndex{err: errors.New("index unavailable")}

	svc := NewService(embedder, index, 0.0)
	services, contexts := svc.Retrieve(context.Background(), "query", "", 5)

	if len(services) != 0 || len(contexts) != 0 {
		t.Errorf("search failure should yield empty results, got %d services %d contexts",
			len(services), len(contexts))
	}
}

func TestRetrieveScoreRounding(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{0.5}}
	index := &fakeIndex{
		hits: []vector.SearchHit{hit("s1", 0.123456, map[string]any{"service_name": "X"})},
	}

	svc := NewService(embedder, index, 0.0)
	services, _ := svc.Retrieve(context.Background(), "query", "", 5)

	if services[0].SimilarityScore != 0.877 {
		t.Errorf("score = %v, want 0.877", services[0].SimilarityScore)
	}
}
