package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recall/internal/chat"
	"recall/internal/llm"
	"recall/internal/vectorstore"
)

type converseRequest struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
}

func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	var req converseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.ChannelID == "" || req.Message == "" || req.Model == "" {
		writeError(w, http.StatusBadRequest, "user_id, channel_id, message and model are required")
		return
	}

	response, err := s.service.Converse(r.Context(), chat.ConverseRequest{
		UserID:    req.UserID,
		ChannelID: req.ChannelID,
		Query:     req.Message,
		APIKey:    req.APIKey,
		Model:     req.Model,
	})
	if err != nil {
		writeError(w, statusFor(err), guidanceFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

// statusFor maps the user-visible failure taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, llm.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, llm.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, llm.ErrContextTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadGateway
	}
}

func guidanceFor(err error) string {
	switch {
	case errors.Is(err, llm.ErrInvalidCredential):
		return "Invalid API key. Please supply a valid credential."
	case errors.Is(err, llm.ErrQuotaExceeded):
		return "API quota exceeded. Try again later or switch models."
	case errors.Is(err, llm.ErrContextTooLarge):
		return "Message too long for model context. Try a shorter message or clear conversation history."
	default:
		return "An error occurred while processing your message. Please try again."
	}
}

type hitResponse struct {
	ID          string    `json:"id,omitempty"`
	Score       float32   `json:"score,omitempty"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Model       string    `json:"model"`
	Timestamp   time.Time `json:"timestamp"`
}

func toHitResponses(hits []vectorstore.Hit) []hitResponse {
	out := make([]hitResponse, len(hits))
	for i, h := range hits {
		out[i] = hitResponse{
			ID:          h.ID,
			Score:       h.Score,
			UserMessage: h.UserMessage,
			AIResponse:  h.AIResponse,
			Model:       h.Model,
			Timestamp:   h.Timestamp,
		}
	}
	return out
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, channelID, query := q.Get("user_id"), q.Get("channel_id"), q.Get("q")
	if userID == "" || channelID == "" || query == "" {
		writeError(w, http.StatusBadRequest, "user_id, channel_id and q are required")
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	hits := s.service.Search(r.Context(), userID, channelID, query, bearerToken(r), limit)
	writeJSON(w, http.StatusOK, map[string]any{"results": toHitResponses(hits)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, channelID := q.Get("user_id"), q.Get("channel_id")
	if userID == "" || channelID == "" {
		writeError(w, http.StatusBadRequest, "user_id and channel_id are required")
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	hits := s.service.Recent(r.Context(), userID, channelID, limit)
	writeJSON(w, http.StatusOK, map[string]any{"exchanges": toHitResponses(hits)})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, channelID := q.Get("user_id"), q.Get("channel_id")
	if userID == "" || channelID == "" {
		writeError(w, http.StatusBadRequest, "user_id and channel_id are required")
		return
	}

	s.service.Clear(r.Context(), userID, channelID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	all, err := s.catalog.ListModels(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, statusFor(err), "Failed to fetch models. Please check your API key.")
		return
	}

	paid := r.URL.Query().Get("tier") == "paid"
	writeJSON(w, http.StatusOK, map[string]any{"models": llm.FilterModels(all, paid)})
}

type embeddingModeRequest struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode"`
}

func (s *Server) handleEmbeddingMode(w http.ResponseWriter, r *http.Request) {
	var req embeddingModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.service.SetEmbeddingMode(r.Context(), req.UserID, req.Mode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": req.Mode})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
