package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/internal/usecase"
	"airline-assistant-service/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Probe is a named dependency check reported by /health
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options configures the HTTP surface
type Options struct {
	Version string
	Probes  []Probe
	// Gatherer backs /metrics; the default registry is used when nil
	Gatherer prometheus.Gatherer
}

// Handler serves the assistant over HTTP
type Handler struct {
	agent    *usecase.Agent
	probes   []Probe
	version  string
	gatherer prometheus.Gatherer
	logger   logger.Logger
}

// NewHandler creates the HTTP handler
func NewHandler(agent *usecase.Agent, opts Options, logger logger.Logger) *Handler {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		agent:    agent,
		probes:   opts.Probes,
		version:  opts.Version,
		gatherer: opts.Gatherer,
		logger:   logger,
	}
}

// Router registers every route
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	r.HandleFunc("/react-agent", h.reactAgent).Methods(http.MethodPost)
	r.HandleFunc("/query", h.query).Methods(http.MethodPost)
	r.HandleFunc("/tools/{capability}/query", h.toolQuery).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}", h.getConversation).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

type agentRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type agentResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
	ToolUsed       string `json:"tool_used"`
}

type queryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type queryResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

type toolRequest struct {
	Question            string           `json:"question"`
	ConversationHistory []entity.Message `json:"conversation_history,omitempty"`
	ConversationID      string           `json:"conversation_id,omitempty"`
}

type toolResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Field    string `json:"field,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) reactAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	turn, err := h.agent.HandleTurn(r.Context(), req.ConversationID, req.Question)
	if err != nil {
		h.logger.Error("Failed to handle turn", "conversationID", req.ConversationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "conversation store unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, agentResponse{
		Answer:         turn.Answer,
		ConversationID: turn.ConversationID,
		ToolUsed:       string(turn.Intent),
	})
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	turn, err := h.agent.HandleTurn(r.Context(), req.ConversationID, req.Query)
	if err != nil {
		h.logger.Error("Failed to handle turn", "conversationID", req.ConversationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "conversation store unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Response: turn.Answer, ConversationID: turn.ConversationID})
}

// toolQuery exposes a single capability with the caller supplying the history
func (h *Handler) toolQuery(w http.ResponseWriter, r *http.Request) {
	intent, ok := entity.ParseIntent(mux.Vars(r)["capability"])
	if !ok || intent == entity.IntentUnknown {
		writeJSON(w, http.StatusNotFound, toolResponse{Error: "unknown capability"})
		return
	}

	var req toolRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.agent.Invoke(r.Context(), entity.CapabilityRequest{
		Intent:         intent,
		Text:           req.Question,
		History:        req.ConversationHistory,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		ce := entity.Classify(string(intent), err)
		// error is never empty so callers can detect failures
		message := ce.Message
		switch {
		case ce.Kind == entity.ErrUpstreamUnavailable:
			message = ce.Error()
		case message == "":
			message = string(ce.Kind)
		}
		writeJSON(w, statusFor(ce.Kind), toolResponse{Error: message, Kind: string(ce.Kind), Field: ce.Field})
		return
	}

	writeJSON(w, http.StatusOK, toolResponse{Response: result.Text})
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conv, err := h.agent.Conversation(r.Context(), id)
	if errors.Is(err, repository.ErrConversationNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "conversation not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load conversation", "conversationID", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "conversation store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// health runs every probe concurrently
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     conc.WaitGroup
		checks = make(map[string]string, len(h.probes))
		failed bool
	)
	for _, probe := range h.probes {
		wg.Go(func() {
			status := "ok"
			if err := probe.Check(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[probe.Name] = status
			if status != "ok" {
				failed = true
			}
		})
	}
	wg.Wait()

	resp := healthResponse{Status: "healthy", Version: h.version, Checks: checks}
	code := http.StatusOK
	if failed {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func statusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.ErrMissingIdentifier, entity.ErrInvalidDate:
		return http.StatusBadRequest
	case entity.ErrNotFound:
		return http.StatusNotFound
	case entity.ErrAlreadyInTargetState:
		return http.StatusConflict
	case entity.ErrMalformedGeneration:
		return http.StatusUnprocessableEntity
	}
	return http.StatusServiceUnavailable
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
