package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FerX10/naturbot/internal/dates"
	"github.com/FerX10/naturbot/internal/messaging"
	"github.com/FerX10/naturbot/internal/middleware"
	"github.com/FerX10/naturbot/internal/passenger"
	"github.com/FerX10/naturbot/internal/search"
)

const requestDateLayout = "2006-01-02"

// Searcher submits a search for single-flight execution.
type Searcher interface {
	Submit(ctx context.Context, req search.Request) (search.Outcome, error)
}

// QuoteStore persists and recalls the last outcome per chat.
type QuoteStore interface {
	SaveOutcome(ctx context.Context, chatID string, out search.Outcome) error
	LastOutcome(ctx context.Context, chatID string) (search.Outcome, bool, error)
}

// Handler handles HTTP requests from the conversational layer.
type Handler struct {
	queue  Searcher
	store  QuoteStore
	sender messaging.Sender
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new Handler.
func New(queue Searcher, store QuoteStore, sender messaging.Sender, logger *slog.Logger) *Handler {
	return &Handler{
		queue:  queue,
		store:  store,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// SearchRequest is the inbound payload from the messaging layer.
type SearchRequest struct {
	ChatID         string  `json:"chat_id"`
	Destination    string  `json:"destination"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Adults         int     `json:"adults"`
	Minors         int     `json:"minors"`
	MinorAges      []int   `json:"minor_ages,omitempty"`
	Transport      string  `json:"transport,omitempty"`
	Plan           string  `json:"plan,omitempty"`
	BudgetPerAdult float64 `json:"budget_per_adult,omitempty"`
	DesiredHotel   string  `json:"desired_hotel,omitempty"`
}

// SearchResponse wraps the outcome with request context.
type SearchResponse struct {
	Warnings   []string       `json:"warnings,omitempty"`
	Outcome    search.Outcome `json:"outcome"`
	DurationMs int64          `json:"duration_ms"`
}

// SearchHandler handles POST /search: validates, queues, waits for the
// outcome, then snapshots and delivers it.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	startTime := h.now()
	requestID := middleware.RequestID(r.Context())

	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, warnings, err := h.buildRequest(body)
	if err != nil {
		h.logger.Debug("invalid search request", "request_id", requestID, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.queue.Submit(r.Context(), req)
	if err != nil {
		h.logger.Error("search submission failed",
			"request_id", requestID,
			"destination", req.Destination,
			"error", err)
		writeError(w, http.StatusServiceUnavailable, "search could not be executed")
		return
	}

	// Snapshot and delivery are best-effort; the caller already has the
	// outcome in the response.
	if body.ChatID != "" {
		if err := h.store.SaveOutcome(r.Context(), body.ChatID, outcome); err != nil {
			h.logger.Warn("failed to store quote", "request_id", requestID, "error", err)
		}
		if h.sender != nil {
			if err := messaging.Deliver(h.sender, body.ChatID, outcome); err != nil {
				h.logger.Warn("failed to deliver outcome", "request_id", requestID, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Warnings:   warnings,
		Outcome:    outcome,
		DurationMs: time.Since(startTime).Milliseconds(),
	})
}

// QuoteHandler handles GET /quote: returns the last stored outcome for a chat.
func (h *Handler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	chatID := strings.TrimSpace(r.URL.Query().Get("chat_id"))
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	outcome, ok, err := h.store.LastOutcome(r.Context(), chatID)
	if err != nil {
		h.logger.Error("failed to read quote", "chat_id", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, "quote lookup failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no quote for chat")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// buildRequest runs every fail-fast validation before anything is queued.
func (h *Handler) buildRequest(body SearchRequest) (search.Request, []string, error) {
	destination := strings.TrimSpace(body.Destination)
	if destination == "" {
		return search.Request{}, nil, fmt.Errorf("destination is required")
	}

	transport, err := parseTransport(body.Transport)
	if err != nil {
		return search.Request{}, nil, err
	}

	passengers, warnings, err := passenger.New(body.Adults, body.Minors, body.MinorAges)
	if err != nil {
		return search.Request{}, nil, err
	}

	start, err := time.Parse(requestDateLayout, body.Start)
	if err != nil {
		return search.Request{}, nil, fmt.Errorf("start must be in YYYY-MM-DD format")
	}
	end, err := time.Parse(requestDateLayout, body.End)
	if err != nil {
		return search.Request{}, nil, fmt.Errorf("end must be in YYYY-MM-DD format")
	}

	window, err := dates.Plan(start, end, transport, h.now())
	if err != nil {
		return search.Request{}, nil, err
	}

	return search.Request{
		Destination:    destination,
		Window:         window,
		Passengers:     passengers,
		Transport:      transport,
		Plan:           body.Plan,
		BudgetPerAdult: body.BudgetPerAdult,
		DesiredHotel:   body.DesiredHotel,
	}, warnings, nil
}

func parseTransport(s string) (dates.Mode, error) {
	switch dates.Mode(strings.ToLower(strings.TrimSpace(s))) {
	case dates.Ground, "":
		return dates.Ground, nil
	case dates.Air:
		return dates.Air, nil
	case dates.None:
		return dates.None, nil
	default:
		return "", fmt.Errorf("transport must be one of ground, air, none")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
