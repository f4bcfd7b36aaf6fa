package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/internal/infrastructure/router"
	"airline-assistant-service/internal/interface/httpapi"
	repo "airline-assistant-service/internal/interface/repository"
	"airline-assistant-service/internal/mock"
	"airline-assistant-service/internal/usecase"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/metrics"
	"airline-assistant-service/pkg/utils"
)

func newRegistry() *usecase.Registry {
	registry := usecase.NewRegistry()
	registry.Register(entity.IntentTimeQuery, usecase.CapabilityFunc(
		func(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
			return &entity.CapabilityResult{Intent: entity.IntentTimeQuery, Text: "The current time is 10:00 AM IST."}, nil
		}))
	registry.Register(entity.IntentReservationQuery, usecase.CapabilityFunc(
		func(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
			pnr, ok := utils.ExtractPNR(req.Text)
			if !ok {
				return nil, entity.NewMissingIdentifier(entity.FieldPNR)
			}
			if pnr == "ZZ99ZZ" {
				return nil, entity.NewNotFound("No booking found for PNR ZZ99ZZ.")
			}
			return &entity.CapabilityResult{
				Intent: entity.IntentReservationQuery,
				Text:   fmt.Sprintf("PNR %s is Confirmed (%d earlier messages).", pnr, len(req.History)),
			}, nil
		}))
	registry.Register(entity.IntentPolicyQuery, usecase.CapabilityFunc(
		func(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
			return nil, errors.New("vector store offline")
		}))
	return registry
}

type fixture struct {
	server   *httptest.Server
	registry *prometheus.Registry
}

func newFixture(t *testing.T, conversations repository.ConversationRepository, probes ...httpapi.Probe) fixture {
	t.Helper()
	log := logger.NewNopLogger()
	reg := prometheus.NewRegistry()

	agent := usecase.NewAgent(usecase.AgentOptions{
		Conversations: conversations,
		Registry:      newRegistry(),
		Classifier:    usecase.NewClassifier(nil, router.NewDefaultRuleRouter(log), log),
		Timeout:       time.Second,
		Metrics:       metrics.NewMetricsWithRegistry(reg, "test"),
	}, log)

	handler := httpapi.NewHandler(agent, httpapi.Options{
		Version:  "test",
		Probes:   probes,
		Gatherer: reg,
	}, log)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)
	return fixture{server: server, registry: reg}
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestReactAgent(t *testing.T) {
	f := newFixture(t, repo.NewMemoryConversationRepository(time.Hour))

	t.Run("answers and returns the conversation id", func(t *testing.T) {
		resp, body := postJSON(t, f.server.URL+"/react-agent", map[string]string{"question": "What time is it?"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.Equal(t, "The current time is 10:00 AM IST.", body["answer"])
		assert.Equal(t, string(entity.IntentTimeQuery), body["tool_used"])
		assert.NotEmpty(t, body["conversation_id"])
	})

	t.Run("capability failures are answered with 200", func(t *testing.T) {
		resp, body := postJSON(t, f.server.URL+"/react-agent", map[string]string{"question": "Tell me about baggage"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body["answer"], "unavailable")
		assert.Equal(t, string(entity.IntentPolicyQuery), body["tool_used"])
	})

	t.Run("empty question is rejected", func(t *testing.T) {
		resp, body := postJSON(t, f.server.URL+"/react-agent", map[string]string{"question": "   "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "question is required", body["error"])
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		resp, err := http.Post(f.server.URL+"/react-agent", "application/json", bytes.NewBufferString("{not json"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("GET is not routed", func(t *testing.T) {
		resp, err := http.Get(f.server.URL + "/react-agent")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestReactAgent_ConversationStoreFailure(t *testing.T) {
	conversations := &mock.ConversationRepository{
		GetFn: func(ctx context.Context, id string) (*entity.Conversation, error) {
			return nil, errors.New("connection refused")
		},
	}
	f := newFixture(t, conversations)

	resp, body := postJSON(t, f.server.URL+"/react-agent", map[string]string{"question": "What time is it?", "conversation_id": "c1"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "conversation store unavailable", body["error"])
}

func TestQueryAlias(t *testing.T) {
	f := newFixture(t, repo.NewMemoryConversationRepository(time.Hour))

	resp, body := postJSON(t, f.server.URL+"/query", map[string]string{"query": "What is the status of PNR AB12CD?", "conversation_id": "c-42"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PNR AB12CD is Confirmed (0 earlier messages).", body["response"])
	assert.Equal(t, "c-42", body["conversation_id"])

	resp, _ = postJSON(t, f.server.URL+"/query", map[string]string{"query": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetConversation(t *testing.T) {
	f := newFixture(t, repo.NewMemoryConversationRepository(time.Hour))

	_, body := postJSON(t, f.server.URL+"/react-agent", map[string]string{"question": "What time is it?", "conversation_id": "c-7"})
	require.Equal(t, "c-7", body["conversation_id"])

	resp, err := http.Get(f.server.URL + "/conversations/c-7")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var conv entity.Conversation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conv))
	assert.Equal(t, "c-7", conv.ID)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, entity.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "What time is it?", conv.Messages[0].Content)
	assert.Equal(t, entity.RoleAssistant, conv.Messages[1].Role)

	missing, err := http.Get(f.server.URL + "/conversations/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestToolQuery(t *testing.T) {
	f := newFixture(t, repo.NewMemoryConversationRepository(time.Hour))
	url := f.server.URL + "/tools/reservation_query/query"

	t.Run("uses the caller's history", func(t *testing.T) {
		resp, body := postJSON(t, url, map[string]interface{}{
			"question": "status of AB12CD",
			"conversation_history": []entity.Message{
				{Role: entity.RoleUser, Content: "hi"},
				{Role: entity.RoleAssistant, Content: "Hello!"},
			},
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "PNR AB12CD is Confirmed (2 earlier messages).", body["response"])
		assert.Nil(t, body["error"])
	})

	t.Run("missing identifier carries kind and field", func(t *testing.T) {
		resp, body := postJSON(t, url, map[string]string{"question": "what is my booking status"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, string(entity.ErrMissingIdentifier), body["kind"])
		assert.Equal(t, entity.FieldPNR, body["field"])
		assert.NotEmpty(t, body["error"])
	})

	t.Run("not found keeps the message", func(t *testing.T) {
		resp, body := postJSON(t, url, map[string]string{"question": "status of ZZ99ZZ"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "No booking found for PNR ZZ99ZZ.", body["error"])
		assert.Equal(t, string(entity.ErrNotFound), body["kind"])
	})

	t.Run("foreign errors are upstream failures", func(t *testing.T) {
		resp, body := postJSON(t, f.server.URL+"/tools/policy_query/query", map[string]string{"question": "baggage?"})
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, string(entity.ErrUpstreamUnavailable), body["kind"])
	})

	t.Run("unregistered capability is upstream failure", func(t *testing.T) {
		resp, body := postJSON(t, f.server.URL+"/tools/schedule_query/query", map[string]string{"question": "flights to Delhi"})
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, string(entity.ErrUpstreamUnavailable), body["kind"])
	})

	t.Run("unknown capability", func(t *testing.T) {
		resp, _ := postJSON(t, f.server.URL+"/tools/weather/query", map[string]string{"question": "rain?"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestToolQuery_GatewayRoundTrip(t *testing.T) {
	f := newFixture(t, repo.NewMemoryConversationRepository(time.Hour))
	gateway := repo.NewHTTPCapabilityGateway(f.server.URL+"/tools/reservation_query", time.Second, logger.NewNopLogger())
	ctx := context.Background()

	answer, err := gateway.Query(ctx, entity.CapabilityRequest{Intent: entity.IntentReservationQuery, Text: "PNR AB12CD please"})
	require.NoError(t, err)
	assert.Equal(t, "PNR AB12CD is Confirmed (0 earlier messages).", answer)

	_, err = gateway.Query(ctx, entity.CapabilityRequest{Intent: entity.IntentReservationQuery, Text: "my booking"})
	ce, ok := entity.AsCapabilityError(err)
	require.True(t, ok)
	assert.Equal(t, entity.ErrMissingIdentifier, ce.Kind)
	assert.Equal(t, entity.FieldPNR, ce.Field)
	assert.Empty(t, ce.Message)

	_, err = gateway.Query(ctx, entity.CapabilityRequest{Intent: entity.IntentReservationQuery, Text: "ZZ99ZZ"})
	ce, ok = entity.AsCapabilityError(err)
	require.True(t, ok)
	assert.Equal(t, entity.ErrNotFound, ce.Kind)
	assert.Equal(t, "No booking found for PNR ZZ99ZZ.", ce.Message)
}

func TestHealth(t *testing.T) {
	ok := httpapi.Probe{Name: "conversations", Check: func(ctx context.Context) error { return nil }}
	down := httpapi.Probe{Name: "database", Check: func(ctx context.Context) error { return errors.New("dial tcp: refused") }}

	t.Run("healthy", func(t *testing.T) {
		f := newFixture(t, repo.NewMemoryConversationRepository(time.Hour), ok)
		resp, err := http.Get(f.server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "test", body["version"])
		assert.Equal(t, map[string]interface{}{"conversations": "ok"}, body["checks"])
	})

	t.Run("degraded", func(t *testing.T) {
		f := newFixture(t, repo.NewMemoryConversationRepository(time.Hour), ok, down)
		resp, err := http.Get(f.server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, map[string]interface{}{"conversations": "ok", "database": "dial tcp: refused"}, body["checks"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, repo.NewMemoryConversationRepository(time.Hour))
	postJSON(t, f.server.URL+"/react-agent", map[string]string{"question": "What time is it?"})

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_turns_total{intent="time_query"} 1`)
}
