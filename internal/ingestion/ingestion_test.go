package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/community-helpdesk/backend/internal/storage/models"
	"github.com/community-helpdesk/backend/internal/vector"
)

type fakeEmbedder struct {
	err      error
	gotTexts []string
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.gotTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{float32(i)}
	}
	return embeddings, nil
}

type fakeIndex struct {
	err     error
	gotDocs []vector.Document
}

func (f *fakeIndex) Upsert(ctx context.Context, docs []vector.Document) error {
	f.gotDocs = docs
	return f.err
}

type fakeAudit struct {
	batchID string
	count   int
}

func (f *fakeAudit) LogIngestion(batchID string, recordCount int) error {
	f.batchID = batchID
	f.count = recordCount
	return nil
}

func validRecord(id string) models.ServiceRecord {
	return models.ServiceRecord{
		ID:          id,
		ServiceName: "Apollo Hospital",
		Category:    "Healthcare",
		Subcategory: "Hospital",
		Description: "Multi-specialty hospital",
		Address:     "21 Greams Lane",
		Locality:    "Thousand Lights",
		Pincode:     "600006",
		City:        "Chennai",
		State:       "Tamil Nadu",
	}
}

func TestIngest(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	audit := &fakeAudit{}
	ingestor := NewIngestor(embedder, index, audit)

	records := []models.ServiceRecord{validRecord("svc-1"), validRecord("svc-2")}

	count, err := ingestor.Ingest(context.Background(), records)
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	if len(index.gotDocs) != 2 {
		t.Fatalf("upserted %d docs, want 2", len(index.gotDocs))
	}
	doc := index.gotDocs[0]
	if doc.ID != "svc-1" {
		t.Errorf("doc ID = %q, want svc-1", doc.ID)
	}
	if doc.Locality != "Thousand Lights" {
		t.Errorf("doc locality = %q, want Thousand Lights", doc.Locality)
	}
	if doc.Metadata["service_name"] != "Apollo Hospital" {
		t.Errorf("doc metadata service_name = %v", doc.Metadata["service_name"])
	}

	if audit.count != 2 {
		t.Errorf("audit count = %d, want 2", audit.count)
	}
	if audit.batchID == "" {
		t.Error("audit should record a batch ID")
	}
}

func TestIngestValidationFailure(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	ingestor := NewIngestor(embedder, index, nil)

	bad := validRecord("svc-2")
	bad.Category = ""
	records := []models.ServiceRecord{validRecord("svc-1"), bad}

	_, err := ingestor.Ingest(context.Background(), records)
	if err == nil {
		t.Fatal("Ingest should fail on an invalid record")
	}
	if !strings.Contains(err.Error(), "category") {
		t.Errorf("error should name the missing field, got %v", err)
	}
	if embedder.gotTexts != nil {
		t.Error("nothing should be embedded when validation fails")
	}
	if index.gotDocs != nil {
		t.Error("nothing should be written when validation fails")
	}
}

func TestIngestEmpty(t *testing.T) {
	ingestor := NewIngestor(&fakeEmbedder{}, &fakeIndex{}, nil)
	if _, err := ingestor.Ingest(context.Background(), nil); err == nil {
		t.Error("Ingest should fail on an empty batch")
	}
}

func TestIngestEmbedFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("backend down")}
	index := &fakeIndex{}
	ingestor := NewIngestor(embedder, index, nil)

	_, err := ingestor.Ingest(context.Background(), []models.ServiceRecord{validRecord("svc-1")})
	if err == nil {
		t.Fatal("Ingest should propagate embedding failures")
	}
	if index.gotDocs != nil {
		t.Error("nothing should be written when embedding fails")
	}
}

func TestSearchableText(t *testing.T) {
	r := validRecord("svc-1")
	r.Tags = "cardiology, emergency"

	text := SearchableText(&r)

	for _, want := range []string{
		"Apollo Hospital",
		"Healthcare",
		"Hospital",
		"Multi-specialty hospital",
		"Thousand Lights",
		"cardiology, emergency",
		"21 Greams Lane",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("searchable text missing %q", want)
		}
	}

	if strings.Contains(text, "emergency service 24/7 urgent") {
		t.Error("urgency terms should only appear for emergency services")
	}
}

func TestSearchableTextEmergency(t *testing.T) {
	r := validRecord("svc-1")
	r.EmergencyService = "yes"

	text := SearchableText(&r)

	if !strings.HasSuffix(text, "emergency service 24/7 urgent") {
		t.Errorf("emergency services should append urgency terms, got %q", text)
	}
}

func TestSearchableTextSkipsEmptyFields(t *testing.T) {
	r := validRecord("svc-1")
	r.Subcategory = ""
	r.Tags = ""

	text := SearchableText(&r)

	if strings.Contains(text, "  ") {
		t.Errorf("empty fields should not leave double spaces: %q", text)
	}
}
