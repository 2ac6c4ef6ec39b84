// Package gateway exposes the conversational memory core over a small JSON
// API. It is the surface a chat transport (bot, webhook relay) integrates
// against; message delivery itself lives outside this service.
package gateway

import (
	"context"
	"net/http"
	"time"

	"recall/internal/chat"
	"recall/internal/llm"
)

// ModelCatalog lists available completion models for a credential.
type ModelCatalog interface {
	ListModels(ctx context.Context, apiKey string) ([]llm.ModelInfo, error)
}

type Server struct {
	service *chat.Service
	catalog ModelCatalog
	mux     *http.ServeMux
}

func NewServer(service *chat.Service, catalog ModelCatalog) *Server {
	s := &Server{
		service: service,
		catalog: catalog,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/converse", s.handleConverse)
	s.mux.HandleFunc("GET /v1/search", s.handleSearch)
	s.mux.HandleFunc("GET /v1/history", s.handleHistory)
	s.mux.HandleFunc("DELETE /v1/history", s.handleClearHistory)
	s.mux.HandleFunc("GET /v1/models", s.handleModels)
	s.mux.HandleFunc("PUT /v1/embedding-mode", s.handleEmbeddingMode)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
