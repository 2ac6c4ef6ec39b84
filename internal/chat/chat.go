// Package chat orchestrates one conversational turn: embed the query, recall
// semantic and recent context, assemble a bounded prompt, call the completion
// API and write the finished exchange back to both memory stores.
//
// Memory failures never fail the turn. A chat response must still be produced
// with zero memory backends reachable; only credential, quota and context-size
// failures from the completion call reach the caller.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"recall/internal/assembler"
	"recall/internal/embedding"
	"recall/internal/history"
	"recall/internal/llm"
	"recall/internal/models"
	"recall/internal/trace"
	"recall/internal/vectorstore"
)

// VectorStore is the persistent similarity-search backend.
type VectorStore interface {
	Upsert(ctx context.Context, id string, vector []float32, ex vectorstore.Exchange) error
	Search(ctx context.Context, vector []float32, userID, channelID string, limit int) ([]vectorstore.Hit, error)
	DeleteByFilter(ctx context.Context, userID, channelID string) error
	ScrollRecent(ctx context.Context, userID, channelID string, limit int) ([]vectorstore.Hit, error)
}

// Embedder turns text into a fixed-dimension vector and never fails.
type Embedder interface {
	Embed(ctx context.Context, req embedding.Request) []float32
}

// Completer is the external chat-completion call.
type Completer interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// Service wires the memory subsystems around the completion call.
type Service struct {
	embedder    Embedder
	store       VectorStore
	recency     *history.Store
	completer   Completer
	asm         *assembler.Assembler
	searchLimit int
}

func NewService(embedder Embedder, store VectorStore, recency *history.Store, completer Completer, asm *assembler.Assembler, searchLimit int) *Service {
	if searchLimit <= 0 {
		searchLimit = 3
	}
	return &Service{
		embedder:    embedder,
		store:       store,
		recency:     recency,
		completer:   completer,
		asm:         asm,
		searchLimit: searchLimit,
	}
}

// ConverseRequest identifies one incoming chat turn.
type ConverseRequest struct {
	UserID    string
	ChannelID string
	Query     string
	APIKey    string
	Model     string
}

// Converse runs the full pipeline and returns the assistant's response.
func (s *Service) Converse(ctx context.Context, req ConverseRequest) (string, error) {
	ctx, span := trace.Tracer().Start(ctx, "converse",
		oteltrace.WithAttributes(
			attribute.String("gen_ai.request.model", req.Model),
			attribute.String("recall.user_id", req.UserID),
			attribute.String("recall.channel_id", req.ChannelID),
		),
	)
	defer span.End()

	paid := s.recency.EmbeddingMode(ctx, req.UserID) == history.ModePaid

	queryVec := s.embedder.Embed(ctx, embedding.Request{
		Text:   req.Query,
		Task:   embedding.TaskQuery,
		APIKey: req.APIKey,
		Paid:   paid,
	})

	hits, err := s.store.Search(ctx, queryVec, req.UserID, req.ChannelID, s.searchLimit)
	if err != nil {
		slog.Debug("similarity search degraded to empty", "user", req.UserID, "error", err)
		hits = nil
	}

	turns := s.recency.Read(ctx, req.UserID, req.ChannelID)

	recencyMsgs := make([]assembler.Message, len(turns))
	for i, t := range turns {
		recencyMsgs[i] = assembler.Message{Role: t.Role, Content: t.Content}
	}
	asmHits := make([]assembler.Hit, len(hits))
	for i, h := range hits {
		asmHits[i] = assembler.Hit{Score: h.Score, UserMessage: h.UserMessage, AIResponse: h.AIResponse}
	}

	msgs := s.asm.Assemble(req.Query, recencyMsgs, asmHits, models.ContextWindowChars(req.Model))
	span.SetAttributes(
		attribute.Int("recall.context_messages", len(msgs)),
		attribute.Int("recall.similarity_hits", len(hits)),
		attribute.Int("recall.recency_turns", len(turns)),
	)

	text, err := s.completer.Chat(ctx, llm.ChatRequest{
		APIKey:    req.APIKey,
		Model:     req.Model,
		Messages:  msgs,
		MaxTokens: models.MaxResponseTokens(req.Model),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	s.record(ctx, req, text, paid)

	span.SetAttributes(attribute.Int("gen_ai.response.length", len(text)))
	return text, nil
}

// record writes the finished exchange back to the recency window and the
// vector store. Both writes are best-effort: the response has already been
// produced and must not be blocked on memory persistence.
func (s *Service) record(ctx context.Context, req ConverseRequest, response string, paid bool) {
	if err := s.recency.Append(ctx, req.UserID, req.ChannelID, req.Query, response); err != nil {
		slog.Warn("recency append failed", "user", req.UserID, "error", err)
	}

	conversationText := fmt.Sprintf("User: %s\nAssistant: %s", req.Query, response)
	docVec := s.embedder.Embed(ctx, embedding.Request{
		Text:   conversationText,
		Task:   embedding.TaskDocument,
		APIKey: req.APIKey,
		Paid:   paid,
	})

	ex := vectorstore.Exchange{
		UserID:           req.UserID,
		ChannelID:        req.ChannelID,
		UserMessage:      req.Query,
		AIResponse:       response,
		Model:            req.Model,
		Timestamp:        time.Now().UTC(),
		ConversationText: conversationText,
	}
	if err := s.store.Upsert(ctx, uuid.NewString(), docVec, ex); err != nil {
		slog.Warn("vector store write failed", "user", req.UserID, "error", err)
	}
}

// Search embeds the query and returns similar past exchanges for the
// (user, channel) pair. Store failures degrade to an empty result.
func (s *Service) Search(ctx context.Context, userID, channelID, query, apiKey string, limit int) []vectorstore.Hit {
	if limit <= 0 {
		limit = 5
	}

	paid := s.recency.EmbeddingMode(ctx, userID) == history.ModePaid
	vec := s.embedder.Embed(ctx, embedding.Request{
		Text:   query,
		Task:   embedding.TaskQuery,
		APIKey: apiKey,
		Paid:   paid,
	})

	hits, err := s.store.Search(ctx, vec, userID, channelID, limit)
	if err != nil {
		slog.Debug("history search degraded to empty", "user", userID, "error", err)
		return nil
	}
	return hits
}

// Recent lists the latest stored exchanges without a query vector.
func (s *Service) Recent(ctx context.Context, userID, channelID string, limit int) []vectorstore.Hit {
	hits, err := s.store.ScrollRecent(ctx, userID, channelID, limit)
	if err != nil {
		slog.Debug("recent listing degraded to empty", "user", userID, "error", err)
		return nil
	}
	return hits
}

// Clear wipes both the recency window and the stored exchanges for the
// (user, channel) pair. Best-effort on both stores.
func (s *Service) Clear(ctx context.Context, userID, channelID string) {
	if err := s.recency.Clear(ctx, userID, channelID); err != nil {
		slog.Warn("recency clear failed", "user", userID, "error", err)
	}
	if err := s.store.DeleteByFilter(ctx, userID, channelID); err != nil {
		slog.Warn("vector store clear failed", "user", userID, "error", err)
	}
}

// SetEmbeddingMode persists the user's free/paid embedding preference.
func (s *Service) SetEmbeddingMode(ctx context.Context, userID, mode string) error {
	return s.recency.SetEmbeddingMode(ctx, userID, mode)
}
