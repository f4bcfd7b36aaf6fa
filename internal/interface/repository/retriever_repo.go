package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/pkg/logger"
)

// HTTPRetriever queries a vector search service: POST {baseURL}/search
type HTTPRetriever struct {
	logger  logger.Logger
	baseURL string
	client  *http.Client
}

// NewHTTPRetriever creates a retriever for the vector search service at baseURL
func NewHTTPRetriever(baseURL string, logger logger.Logger) repository.Retriever {
	return &HTTPRetriever{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type searchRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type searchResponse struct {
	Results []entity.Passage `json:"results"`
}

// Retrieve returns at most k passages ordered by the service's score
func (r *HTTPRetriever) Retrieve(ctx context.Context, question string, k int) ([]entity.Passage, error) {
	jsonData, err := json.Marshal(searchRequest{Question: question, TopK: k})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/search", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("retriever returned status %d: %v", resp.StatusCode, errorBody)
	}

	var response searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(response.Results) > k {
		response.Results = response.Results[:k]
	}
	r.logger.Debug("Retrieved passages", "count", len(response.Results))
	return response.Results, nil
}
