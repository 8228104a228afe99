// Package docstore stores and searches documents in a remote vector index.
//
// All durable state lives in the index itself: a document is one vector whose
// metadata carries the title, the full text, and any caller-supplied fields.
// There is no local persistence and no retry layer; every remote call is made
// exactly once and failures surface to the caller.
package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nmelo/mcp-pinecone/pkg/types"
)

const (
	// DefaultTopK is the result count for searches that do not specify one.
	DefaultTopK = 10

	// DefaultListLimit caps list operations that do not specify a limit.
	DefaultListLimit = 20

	// DefaultDimension matches the hosted index configuration.
	DefaultDimension = 1536
)

// Metadata keys reserved for the document record itself. Caller-supplied
// metadata under these keys is dropped on write so a read always round-trips
// the document fields.
const (
	metadataTitleKey = "title"
	metadataTextKey  = "text"
)

// Document is a document as stored in the index.
type Document struct {
	ID       string
	Title    string
	Text     string
	Metadata map[string]any
}

// SearchMatch is a scored search result.
type SearchMatch struct {
	ID       string
	Score    float32
	Title    string
	Text     string
	Metadata map[string]any
}

// Summary identifies a stored document without its content.
type Summary struct {
	ID    string
	Title string
}

// Config holds the document store dependencies and settings.
type Config struct {
	// Embedding generates vectors for queries and documents.
	Embedding EmbeddingClient

	// FallbackEmbedding is tried once when Embedding fails. Optional.
	FallbackEmbedding EmbeddingClient

	// Vectors is the remote vector index client.
	Vectors VectorClient

	// Dimension is the index dimension embeddings are fitted to.
	// Defaults to DefaultDimension.
	Dimension int

	// Namespace is used when an operation does not name a namespace.
	Namespace string
}

// Store reads and writes documents in the remote vector index.
type Store struct {
	embedding EmbeddingClient
	fallback  EmbeddingClient
	vectors   VectorClient
	dimension int
	namespace string
}

// New creates a document store.
func New(cfg Config) (*Store, error) {
	if cfg.Embedding == nil {
		return nil, fmt.Errorf("EmbeddingClient is required")
	}
	if cfg.Vectors == nil {
		return nil, fmt.Errorf("VectorClient is required")
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.Dimension < 0 {
		return nil, fmt.Errorf("Dimension must be positive, got %d", cfg.Dimension)
	}

	return &Store{
		embedding: cfg.Embedding,
		fallback:  cfg.FallbackEmbedding,
		vectors:   cfg.Vectors,
		dimension: cfg.Dimension,
		namespace: cfg.Namespace,
	}, nil
}

// SemanticSearch embeds the query and returns the topK closest documents.
// A topK of zero or less falls back to DefaultTopK.
func (s *Store) SemanticSearch(ctx context.Context, query string, topK int, namespace string, filter map[string]any) ([]SearchMatch, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.vectors.Search(ctx, s.resolveNamespace(namespace), vector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	results := make([]SearchMatch, 0, len(matches))
	for _, match := range matches {
		title, text, metadata := splitMetadata(match.Metadata)
		results = append(results, SearchMatch{
			ID:       match.ID,
			Score:    match.Score,
			Title:    title,
			Text:     text,
			Metadata: metadata,
		})
	}

	return results, nil
}

// ProcessDocument embeds the document text and upserts it into the index.
// A document id is generated when the caller does not provide one. The
// returned id identifies the stored record either way.
func (s *Store) ProcessDocument(ctx context.Context, doc Document, namespace string) (string, error) {
	if doc.Text == "" {
		return "", fmt.Errorf("document text is required")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	vector, err := s.embed(ctx, doc.Text)
	if err != nil {
		return "", err
	}

	metadata := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		if k == metadataTitleKey || k == metadataTextKey {
			continue
		}
		metadata[k] = v
	}
	if doc.Title != "" {
		metadata[metadataTitleKey] = doc.Title
	}
	metadata[metadataTextKey] = doc.Text

	if err := s.vectors.Upsert(ctx, s.resolveNamespace(namespace), doc.ID, vector, metadata); err != nil {
		return "", fmt.Errorf("failed to upsert document: %w", err)
	}

	return doc.ID, nil
}

// ListDocuments returns id and title for up to limit stored documents.
// A limit of zero or less falls back to DefaultListLimit.
func (s *Store) ListDocuments(ctx context.Context, namespace string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	ns := s.resolveNamespace(namespace)

	ids, err := s.vectors.ListIDs(ctx, ns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vectors: %w", err)
	}
	if len(ids) == 0 {
		return []Summary{}, nil
	}

	records, err := s.vectors.Fetch(ctx, ns, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		summary := Summary{ID: id}
		if record, ok := records[id]; ok {
			title, _, _ := splitMetadata(record.Metadata)
			summary.Title = title
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// ReadDocument fetches a single document by id.
func (s *Store) ReadDocument(ctx context.Context, id string, namespace string) (*Document, error) {
	if id == "" {
		return nil, fmt.Errorf("document id is required")
	}

	records, err := s.vectors.Fetch(ctx, s.resolveNamespace(namespace), []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	record, ok := records[id]
	if !ok {
		return nil, fmt.Errorf("document %q not found", id)
	}

	title, text, metadata := splitMetadata(record.Metadata)
	return &Document{
		ID:       id,
		Title:    title,
		Text:     text,
		Metadata: metadata,
	}, nil
}

// Stats describes the remote index.
func (s *Store) Stats(ctx context.Context) (*types.IndexStats, error) {
	stats, err := s.vectors.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index stats: %w", err)
	}
	return stats, nil
}

// embed generates an embedding fitted to the index dimension. When the
// primary provider fails and a fallback is configured, the fallback is tried
// exactly once; there is no retry of either provider.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedding.GenerateEmbedding(ctx, text)
	if err != nil {
		if s.fallback == nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}
		slog.Warn("primary embedding provider failed, trying fallback", "error", err)
		fallbackVector, fallbackErr := s.fallback.GenerateEmbedding(ctx, text)
		if fallbackErr != nil {
			return nil, fmt.Errorf("failed to generate embedding (primary: %v): %w", err, fallbackErr)
		}
		vector = fallbackVector
	}

	return fitDimension(vector, s.dimension), nil
}

// fitDimension pads with zeros or truncates so the vector matches the index
// dimension. Providers emit different native sizes; the index accepts one.
func fitDimension(vector []float32, dimension int) []float32 {
	if dimension <= 0 || len(vector) == dimension {
		return vector
	}
	if len(vector) > dimension {
		return vector[:dimension]
	}
	fitted := make([]float32, dimension)
	copy(fitted, vector)
	return fitted
}

// splitMetadata separates the reserved record fields from user metadata.
func splitMetadata(metadata map[string]any) (title, text string, rest map[string]any) {
	rest = make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch k {
		case metadataTitleKey:
			title, _ = v.(string)
		case metadataTextKey:
			text, _ = v.(string)
		default:
			rest[k] = v
		}
	}
	return title, text, rest
}

func (s *Store) resolveNamespace(namespace string) string {
	if namespace != "" {
		return namespace
	}
	return s.namespace
}
