package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChatClient talks to the helpdesk HTTP API.
type ChatClient struct {
	baseURL string
	http    *http.Client
}

// ChatAnswer is the API's reply to one question.
type ChatAnswer struct {
	ID           string        `json:"id"`
	Answer       string        `json:"answer"`
	Confidence   string        `json:"confidence"`
	ServiceCount int           `json:"service_count"`
	LatencyMS    int           `json:"latency_ms"`
	Services     []ChatService `json:"services"`
}

type ChatService struct {
	ServiceName     string  `json:"service_name"`
	Category        string  `json:"category"`
	Address         string  `json:"address"`
	ContactPhone    string  `json:"contact_phone"`
	Hours           string  `json:"hours"`
	SimilarityScore float64 `json:"similarity_score"`
}

func NewChatClient(baseURL string) *ChatClient {
	return &ChatClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 150 * time.Second,
		},
	}
}

// Ask posts a question to the API and returns the parsed answer.
func (c *ChatClient) Ask(question, location string) (*ChatAnswer, error) {
	body, err := json.Marshal(map[string]string{
		"question": question,
		"location": location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to reach helpdesk API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var answer ChatAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &answer, nil
}
