package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"recall/internal/assembler"
	"recall/internal/cache"
	"recall/internal/chat"
	"recall/internal/config"
	"recall/internal/embedding"
	"recall/internal/gateway"
	"recall/internal/history"
	"recall/internal/llm"
	"recall/internal/trace"
	"recall/internal/vectorstore"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the memory gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serveAddr != "" {
			cfg.Gateway.Addr = serveAddr
		}

		if cfg.Trace.Endpoint != "" {
			shutdown, err := trace.Init(ctx, trace.Config{
				Endpoint: cfg.Trace.Endpoint,
				URLPath:  cfg.Trace.URLPath,
				APIKey:   cfg.Trace.APIKey,
			})
			if err != nil {
				return fmt.Errorf("initializing tracing: %w", err)
			}
			defer shutdown(context.Background())
			slog.Info("tracing enabled", "endpoint", cfg.Trace.Endpoint)
		}

		kv, closeCache, err := buildCache(cfg)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer closeCache()

		recency := history.NewStore(kv, history.Options{})

		store := vectorstore.NewClient(cfg.Qdrant.URL, cfg.Qdrant.Collection, cfg.Embedding.Dimension)
		if err := store.EnsureCollection(ctx); err != nil {
			// Memory is best-effort: serve chat even when Qdrant is down.
			slog.Warn("vector store unavailable, memory degraded", "error", err)
		} else {
			slog.Info("vector store ready", "collection", store.Collection(), "dimension", cfg.Embedding.Dimension)
		}

		embedder := buildEmbedder(cfg)

		completer := llm.NewClient(cfg.LLM.BaseURL)

		asm := assembler.New(assembler.Config{
			SimilarityThreshold: float32(cfg.Chat.SimilarityThreshold),
			BudgetFraction:      cfg.Chat.BudgetFraction,
			SystemPrompt:        cfg.Chat.SystemPrompt,
		})

		service := chat.NewService(embedder, store, recency, completer, asm, cfg.Chat.SearchLimit)

		srv := gateway.NewServer(service, completer)
		slog.Info("starting gateway", "addr", cfg.Gateway.Addr)
		return srv.ListenAndServe(ctx, cfg.Gateway.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "override gateway listen address")
}

func buildCache(cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case "sqlite":
		c, err := cache.NewSQLite(cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("cache backend ready", "backend", "sqlite", "path", cfg.Cache.Path)
		return c, func() { c.Close() }, nil
	default:
		c, err := cache.NewMemory()
		if err != nil {
			return nil, nil, err
		}
		slog.Info("cache backend ready", "backend", "memory")
		return c, c.Close, nil
	}
}

func buildEmbedder(cfg *config.Config) *embedding.Chain {
	var remotes []embedding.Provider

	// Paid per-user embeddings are first in line when a user opted in.
	remotes = append(remotes, embedding.NewOpenRouter(cfg.LLM.BaseURL, cfg.Embedding.OpenRouterModel, cfg.Embedding.Dimension))

	if cfg.Embedding.GeminiAPIKey != "" {
		remotes = append(remotes,
			embedding.NewGemini(cfg.Embedding.GeminiAPIKey, cfg.Embedding.PrimaryModel, cfg.Embedding.Dimension, true),
			embedding.NewGemini(cfg.Embedding.GeminiAPIKey, cfg.Embedding.LegacyModel, cfg.Embedding.Dimension, false),
		)
		slog.Info("remote embeddings enabled", "primary", cfg.Embedding.PrimaryModel, "legacy", cfg.Embedding.LegacyModel)
	} else {
		slog.Info("no Gemini key configured, local embeddings only for free tier")
	}

	timeout := time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second
	return embedding.NewChain(cfg.Embedding.Dimension, timeout, remotes...)
}
