package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ServiceRecord is a community service entry, the canonical in-core
// representation. Field names mirror the ingestion dataset.
type ServiceRecord struct {
	ID                   string `json:"id"`
	ServiceName          string `json:"service_name"`
	Category             string `json:"category"`
	Subcategory          string `json:"subcategory"`
	Description          string `json:"description"`
	Address              string `json:"address"`
	Locality             string `json:"locality"`
	Pincode              string `json:"pincode"`
	City                 string `json:"city"`
	State                string `json:"state"`
	ContactPhone         string `json:"contact_phone,omitempty"`
	ContactEmail         string `json:"contact_email,omitempty"`
	Website              string `json:"website,omitempty"`
	Hours                string `json:"hours,omitempty"`
	LanguagesSupported   string `json:"languages_supported,omitempty"`
	Fees                 string `json:"fees,omitempty"`
	PaymentOptions       string `json:"payment_options,omitempty"`
	WheelchairAccessible string `json:"wheelchair_accessible,omitempty"`
	Ownership            string `json:"ownership,omitempty"`
	DocumentsRequired    string `json:"documents_required,omitempty"`
	Tags                 string `json:"tags,omitempty"`
	EmergencyService     string `json:"emergency_service,omitempty"`
	ResponseTimeEstimate string `json:"response_time_estimate,omitempty"`
	GeoLat               string `json:"geo_lat,omitempty"`
	GeoLng               string `json:"geo_lng,omitempty"`
	LastUpdated          string `json:"last_updated,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

// Validate reports the first missing required field. Ingestion is an
// administrative action, so problems surface to the caller instead of being
// swallowed.
func (r *ServiceRecord) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"id", r.ID},
		{"service_name", r.ServiceName},
		{"category", r.Category},
		{"subcategory", r.Subcategory},
		{"description", r.Description},
		{"address", r.Address},
		{"locality", r.Locality},
		{"pincode", r.Pincode},
		{"city", r.City},
		{"state", r.State},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("service record %q: missing required field %q", r.ID, f.name)
		}
	}
	return nil
}

// Metadata converts the record to the untyped key-value form stored on the
// vector index. The conversion happens only at this boundary; core logic
// works with the typed record.
func (r *ServiceRecord) Metadata() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal service record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to build metadata map: %w", err)
	}
	return m, nil
}

// RetrievedService is one ranked retrieval hit, held only for the duration of
// a single request.
type RetrievedService struct {
	ServiceName     string         `json:"service_name"`
	Category        string         `json:"category"`
	Description     string         `json:"description"`
	Address         string         `json:"address"`
	ContactPhone    string         `json:"contact_phone,omitempty"`
	Hours           string         `json:"hours,omitempty"`
	SimilarityScore float64        `json:"similarity_score"`
	Metadata        map[string]any `json:"metadata"`
}

type QueryRecord struct {
	ID           string
	Question     string
	Locality     string
	Answer       string
	Confidence   string
	ServiceCount int
	LatencyMS    int
	CreatedAt    time.Time
}

type Feedback struct {
	ID        int
	QueryID   string
	Helpful   bool
	Comment   string
	CreatedAt time.Time
}
