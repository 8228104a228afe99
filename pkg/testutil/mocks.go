// Package testutil provides mock clients for document store tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/nmelo/mcp-pinecone/pkg/types"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient for testing
type MockEmbeddingClient struct {
	GenerateEmbeddingFunc func(ctx context.Context, text string) ([]float32, error)
	mu                    sync.Mutex
	CallCount             int
	LastText              string
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastText = text
	m.mu.Unlock()

	if m.GenerateEmbeddingFunc != nil {
		return m.GenerateEmbeddingFunc(ctx, text)
	}
	// Default: return a simple embedding based on text length
	embedding := make([]float32, 10)
	for i := range embedding {
		embedding[i] = float32(len(text)) / 100.0
	}
	return embedding, nil
}

// MockVectorClient is a mock implementation of VectorClient for testing.
// Without override funcs it behaves as an in-memory index keyed by id.
type MockVectorClient struct {
	SearchFunc func(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error)
	UpsertFunc func(ctx context.Context, namespace, id string, vector []float32, metadata map[string]any) error
	FetchFunc  func(ctx context.Context, namespace string, ids []string) (map[string]types.VectorRecord, error)
	ListFunc   func(ctx context.Context, namespace string, limit int) ([]string, error)
	StatsFunc  func(ctx context.Context) (*types.IndexStats, error)

	mu            sync.Mutex
	SearchCount   int
	UpsertCount   int
	LastNamespace string
	Storage       map[string]types.VectorRecord
}

func NewMockVectorClient() *MockVectorClient {
	return &MockVectorClient{
		Storage: make(map[string]types.VectorRecord),
	}
}

func (m *MockVectorClient) Search(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error) {
	m.mu.Lock()
	m.SearchCount++
	m.LastNamespace = namespace
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, namespace, vector, topK, filter)
	}

	// Default: return empty results
	return []types.VectorMatch{}, nil
}

func (m *MockVectorClient) Upsert(ctx context.Context, namespace, id string, vector []float32, metadata map[string]any) error {
	m.mu.Lock()
	m.UpsertCount++
	m.LastNamespace = namespace
	m.Storage[id] = types.VectorRecord{ID: id, Values: vector, Metadata: metadata}
	m.mu.Unlock()

	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, namespace, id, vector, metadata)
	}

	return nil
}

func (m *MockVectorClient) Fetch(ctx context.Context, namespace string, ids []string) (map[string]types.VectorRecord, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, namespace, ids)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	records := make(map[string]types.VectorRecord)
	for _, id := range ids {
		if record, ok := m.Storage[id]; ok {
			records[id] = record
		}
	}
	return records, nil
}

func (m *MockVectorClient) ListIDs(ctx context.Context, namespace string, limit int) ([]string, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, namespace, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Storage))
	for id := range m.Storage {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *MockVectorClient) Stats(ctx context.Context) (*types.IndexStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	count := uint32(len(m.Storage))
	return &types.IndexStats{
		Dimension:        1536,
		TotalVectorCount: count,
		Namespaces:       map[string]uint32{"": count},
	}, nil
}
