// Command mcp-pinecone serves an MCP JSON-RPC façade over a Pinecone-backed
// document store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	openaiclient "github.com/nmelo/mcp-pinecone/clients/openai"
	pineconeclient "github.com/nmelo/mcp-pinecone/clients/pinecone"
	voyageclient "github.com/nmelo/mcp-pinecone/clients/voyage"
	"github.com/nmelo/mcp-pinecone/internal/config"
	"github.com/nmelo/mcp-pinecone/internal/docstore"
	"github.com/nmelo/mcp-pinecone/internal/mcp"
)

func main() {
	// A .env file is optional; deployments usually set the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	// A failed store init must not take the façade down. The server starts
	// regardless and reports the failure through /health and tool results.
	store := buildStore(ctx, cfg)

	server := mcp.New(mcp.Config{
		Store:             store,
		HeartbeatInterval: cfg.HeartbeatInterval,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// WriteTimeout stays zero so SSE streams are never cut off.
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("listening", "addr", cfg.Addr, "pinecone_initialized", store != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// buildStore wires the vector store and embedding providers. Any
// initialization failure is logged and leaves the façade with a nil store.
func buildStore(ctx context.Context, cfg config.Config) *docstore.Store {
	vectors, err := pineconeclient.NewService(ctx, pineconeclient.Config{
		APIKey:    cfg.PineconeAPIKey,
		IndexName: cfg.PineconeIndexName,
		Host:      cfg.PineconeHost,
	})
	if err != nil {
		slog.Warn("pinecone client not initialized", "error", err)
		return nil
	}

	primary, fallback, err := buildEmbedders(cfg)
	if err != nil {
		slog.Warn("embedding provider not initialized", "error", err)
		return nil
	}

	store, err := docstore.New(docstore.Config{
		Embedding:         primary,
		FallbackEmbedding: fallback,
		Vectors:           vectors,
		Dimension:         cfg.EmbeddingDimension,
		Namespace:         cfg.PineconeNamespace,
	})
	if err != nil {
		slog.Warn("document store not initialized", "error", err)
		return nil
	}

	return store
}

// buildEmbedders returns the configured primary provider and, when the other
// provider also has credentials, a fallback tried once after a primary
// failure.
func buildEmbedders(cfg config.Config) (primary, fallback docstore.EmbeddingClient, err error) {
	var openaiSvc docstore.EmbeddingClient
	if cfg.OpenAIAPIKey != "" {
		svc, err := openaiclient.NewEmbeddingService(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, nil, err
		}
		openaiSvc = svc
	}

	var voyageSvc docstore.EmbeddingClient
	if cfg.VoyageAPIKey != "" {
		svc, err := voyageclient.NewEmbeddingService(cfg.VoyageAPIKey)
		if err != nil {
			return nil, nil, err
		}
		voyageSvc = svc
	}

	switch cfg.EmbeddingProvider {
	case config.ProviderVoyage:
		if voyageSvc == nil {
			return nil, nil, fmt.Errorf("embedding provider %q selected but VOYAGEAI_API_KEY is not set", cfg.EmbeddingProvider)
		}
		return voyageSvc, openaiSvc, nil
	default:
		if openaiSvc == nil {
			return nil, nil, fmt.Errorf("embedding provider %q selected but OPENAI_API_KEY is not set", cfg.EmbeddingProvider)
		}
		return openaiSvc, voyageSvc, nil
	}
}
