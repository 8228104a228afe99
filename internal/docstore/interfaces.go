package docstore

import (
	"context"

	"github.com/nmelo/mcp-pinecone/pkg/types"
)

// EmbeddingClient generates vector embeddings for text
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorClient performs search and storage operations against the remote
// vector index
type VectorClient interface {
	Search(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error)
	Upsert(ctx context.Context, namespace, id string, vector []float32, metadata map[string]any) error
	Fetch(ctx context.Context, namespace string, ids []string) (map[string]types.VectorRecord, error)
	ListIDs(ctx context.Context, namespace string, limit int) ([]string, error)
	Stats(ctx context.Context) (*types.IndexStats, error)
}
