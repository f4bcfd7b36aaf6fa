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

// HTTPCapabilityGateway calls a capability service over POST {baseURL}/query
type HTTPCapabilityGateway struct {
	logger  logger.Logger
	baseURL string
	client  *http.Client
}

// NewHTTPCapabilityGateway creates a gateway for one remote capability service
func NewHTTPCapabilityGateway(baseURL string, timeout time.Duration, logger logger.Logger) repository.CapabilityGateway {
	return &HTTPCapabilityGateway{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type capabilityQueryRequest struct {
	Question            string           `json:"question"`
	ConversationHistory []entity.Message `json:"conversation_history,omitempty"`
	ConversationID      string           `json:"conversation_id,omitempty"`
}

// CapabilityQueryResponse is the wire shape of a capability service reply
type CapabilityQueryResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Field    string `json:"field,omitempty"`
}

// Query sends the request and maps an {error} reply back into a CapabilityError
func (r *HTTPCapabilityGateway) Query(ctx context.Context, request entity.CapabilityRequest) (string, error) {
	jsonData, err := json.Marshal(capabilityQueryRequest{
		Question:            request.Text,
		ConversationHistory: request.History,
		ConversationID:      request.ConversationID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/query", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return "", entity.NewUpstreamUnavailable("capability service "+r.baseURL, err)
	}
	defer resp.Body.Close()

	var response CapabilityQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", entity.NewUpstreamUnavailable("capability service "+r.baseURL,
			fmt.Errorf("status %d: failed to decode response: %w", resp.StatusCode, err))
	}

	r.logger.Debug("Capability service replied",
		"url", url,
		"intent", request.Intent,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if response.Error != "" {
		return "", remoteError(response)
	}
	if resp.StatusCode != http.StatusOK {
		return "", entity.NewUpstreamUnavailable("capability service "+r.baseURL,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return response.Response, nil
}

func remoteError(response CapabilityQueryResponse) error {
	kind := entity.ErrorKind(response.Kind)
	switch kind {
	case entity.ErrMissingIdentifier, entity.ErrInvalidDate, entity.ErrNotFound,
		entity.ErrAlreadyInTargetState, entity.ErrMalformedGeneration, entity.ErrUpstreamUnavailable:
		message := response.Error
		if message == response.Kind {
			message = ""
		}
		return &entity.CapabilityError{Kind: kind, Field: response.Field, Message: message}
	}
	return entity.NewUpstreamUnavailable("capability service", fmt.Errorf("%s", response.Error))
}
