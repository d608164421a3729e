package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/community-helpdesk/backend/internal/storage/models"
)

type fakeRetriever struct {
	services    []models.RetrievedService
	contexts    []map[string]any
	called      bool
	gotQuery    string
	gotLocality string
	gotTopK     int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query, locality string, topK int) ([]models.RetrievedService, []map[string]any) {
	f.called = true
	f.gotQuery = query
	f.gotLocality = locality
	f.gotTopK = topK
	return f.services, f.contexts
}

type fakeComposer struct {
	groundedAnswer string
	composeCalled  bool
}

func (f *fakeComposer) Compose(ctx context.Context, question string, services []map[string]any, userLocation string) string {
	f.composeCalled = true
	return f.groundedAnswer
}

func (f *fakeComposer) OffTopicResponse() string   { return "off-topic template" }
func (f *fakeComposer) EscalationResponse() string { return "escalation template" }

type fakeCatalog struct {
	count    int64
	countErr error
	services []map[string]any
}

func (f *fakeCatalog) Count(ctx context.Context) (int64, error) {
	return f.count, f.countErr
}

func (f *fakeCatalog) ByCategory(ctx context.Context, category string, limit int) ([]map[string]any, error) {
	return f.services, nil
}

type fakeHistory struct {
	records []*models.QueryRecord
	err     error
}

func (f *fakeHistory) InsertQueryRecord(record *models.QueryRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type fakeCache struct {
	hit  *ChatResponse
	sets int
}

func (f *fakeCache) GetChatResponse(ctx context.Context, key string, response any) (bool, error) {
	if f.hit == nil {
		return false, nil
	}
	*(response.(*ChatResponse)) = *f.hit
	return true, nil
}

func (f *fakeCache) SetChatResponse(ctx context.Context, key string, response any, ttl time.Duration) error {
	f.sets++
	return nil
}

func ranked(scores ...float64) ([]models.RetrievedService, []map[string]any) {
	services := make([]models.RetrievedService, len(scores))
	contexts := make([]map[string]any, len(scores))
	for i, s := range scores {
		services[i] = models.RetrievedService{ServiceName: "Service", SimilarityScore: s}
		contexts[i] = map[string]any{"service_name": "Service"}
	}
	return services, contexts
}

func TestAnswerGrounded(t *testing.T) {
	services, contexts := ranked(0.9, 0.8, 0.75)
	retriever := &fakeRetriever{services: services, contexts: contexts}
	composer := &fakeComposer{groundedAnswer: "grounded answer"}
	history := &fakeHistory{}

	engine := NewEngine(retriever, composer, &fakeCatalog{}, history, nil, Options{TopK: 5})
	resp := engine.Answer(context.Background(), ChatRequest{Question: "hospital in adyar", Location: "Adyar"})

	if resp.Answer != "grounded answer" {
		t.Errorf("answer = %q, want grounded answer", resp.Answer)
	}
	if resp.Confidence != "high" {
		t.Errorf("confidence = %q, want high", resp.Confidence)
	}
	if resp.ServiceCount != 3 {
		t.Errorf("service count = %d, want 3", resp.ServiceCount)
	}
	if resp.ID == "" {
		t.Error("response should carry an ID")
	}
	if retriever.gotLocality != "Adyar" || retriever.gotTopK != 5 {
		t.Errorf("retriever called with locality=%q topK=%d", retriever.gotLocality, retriever.gotTopK)
	}
	if len(history.records) != 1 {
		t.Fatalf("history records = %d, want 1", len(history.records))
	}
	if history.records[0].Confidence != "high" {
		t.Errorf("recorded confidence = %q, want high", history.records[0].Confidence)
	}
}

func TestAnswerOffTopic(t *testing.T) {
	retriever := &fakeRetriever{}
	composer := &fakeComposer{groundedAnswer: "should not appear"}

	engine := NewEngine(retriever, composer, &fakeCatalog{}, nil, nil, Options{})
	resp := engine.Answer(context.Background(), ChatRequest{Question: "tell me a joke"})

	if resp.Answer != "off-topic template" {
		t.Errorf("answer = %q, want off-topic template", resp.Answer)
	}
	if resp.Confidence != "low" {
		t.Errorf("confidence = %q, want low", resp.Confidence)
	}
	if resp.ServiceCount != 0 {
		t.Errorf("service count = %d, want 0", resp.ServiceCount)
	}
	if retriever.called {
		t.Error("retriever should not run for off-topic questions")
	}
	if composer.composeCalled {
		t.Error("composer should not generate for off-topic questions")
	}
}

func TestAnswerEscalation(t *testing.T) {
	retriever := &fakeRetriever{
		services: []models.RetrievedService{},
		contexts: []map[string]any{},
	}
	composer := &fakeComposer{groundedAnswer: "should not appear"}

	engine := NewEngine(retriever, composer, &fakeCatalog{}, nil, nil, Options{})
	resp := engine.Answer(context.Background(), ChatRequest{Question: "hospital in adyar"})

	if resp.Answer != "escalation template" {
		t.Errorf("answer = %q, want escalation template", resp.Answer)
	}
	if resp.Confidence != "low" {
		t.Errorf("confidence = %q, want low", resp.Confidence)
	}
	if composer.composeCalled {
		t.Error("composer should not generate when retrieval is empty")
	}
}

func TestAnswerMediumConfidence(t *testing.T) {
	services, contexts := ranked(0.9)
	retriever := &fakeRetriever{services: services, contexts: contexts}
	composer := &fakeComposer{groundedAnswer: "answer"}

	engine := NewEngine(retriever, composer, &fakeCatalog{}, nil, nil, Options{})
	resp := engine.Answer(context.Background(), ChatRequest{Question: "hospital in adyar"})

	if resp.Confidence != "medium" {
		t.Errorf("confidence = %q, want medium for a single result", resp.Confidence)
	}
}

func TestAnswerCacheHit(t *testing.T) {
	cached := &ChatResponse{
		Answer:       "cached answer",
		Confidence:   "high",
		ServiceCount: 2,
	}
	cache := &fakeCache{hit: cached}
	retriever := &fakeRetriever{}

	engine := NewEngine(retriever, &fakeComposer{}, &fakeCatalog{}, nil, cache, Options{})
	resp := engine.Answer(context.Background(), ChatRequest{Question: "hospital in adyar"})

	if resp.Answer != "cached answer" {
		t.Errorf("answer = %q, want cached answer", resp.Answer)
	}
	if retriever.called {
		t.Error("retriever should not run on a cache hit")
	}
	if resp.ID == "" {
		t.Error("cache hits still get a fresh request ID")
	}
}

func TestAnswerCacheMissStoresResponse(t *testing.T) {
	services, contexts := ranked(0.9)
	cache := &fakeCache{}
	retriever := &fakeRetriever{services: services, contexts: contexts}

	engine := NewEngine(retriever, &fakeComposer{groundedAnswer: "answer"}, &fakeCatalog{}, nil, cache, Options{})
	engine.Answer(context.Background(), ChatRequest{Question: "hospital in adyar"})

	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}
}

func TestAnswerHistoryFailureDoesNotBreakResponse(t *testing.T) {
	services, contexts := ranked(0.9)
	retriever := &fakeRetriever{services: services, contexts: contexts}
	history := &fakeHistory{err: errors.New("disk full")}

	engine := NewEngine(retriever, &fakeComposer{groundedAnswer: "answer"}, &fakeCatalog{}, history, nil, Options{})
	resp := engine.Answer(context.Background(), ChatRequest{Question: "hospital in adyar"})

	if resp.Answer != "answer" {
		t.Errorf("history failure should not affect the answer, got %q", resp.Answer)
	}
}

func TestServiceCount(t *testing.T) {
	engine := NewEngine(&fakeRetriever{}, &fakeComposer{}, &fakeCatalog{count: 42}, nil, nil, Options{})
	if got := engine.ServiceCount(context.Background()); got != 42 {
		t.Errorf("ServiceCount = %d, want 42", got)
	}
}

func TestServiceCountFailure(t *testing.T) {
	catalog := &fakeCatalog{countErr: errors.New("unreachable")}
	engine := NewEngine(&fakeRetriever{}, &fakeComposer{}, catalog, nil, nil, Options{})
	if got := engine.ServiceCount(context.Background()); got != 0 {
		t.Errorf("ServiceCount on failure = %d, want 0", got)
	}
}
