// Package pinecone wraps the official Pinecone SDK behind the small surface
// the document store needs.
package pinecone

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinecone-io/go-pinecone/pinecone"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nmelo/mcp-pinecone/pkg/types"
)

// Config holds the connection settings for the Pinecone service.
type Config struct {
	// APIKey authenticates against the Pinecone API.
	APIKey string

	// IndexName is the control-plane index name, used to resolve the host
	// when Host is empty.
	IndexName string

	// Host is the data-plane host of the index. When set, no control-plane
	// lookup is made.
	Host string
}

// Service talks to a single Pinecone index.
type Service struct {
	client *pinecone.Client
	host   string

	// Index connections bind their namespace at creation, so one connection
	// is kept per namespace.
	mu    sync.Mutex
	conns map[string]*pinecone.IndexConnection
}

// NewService creates a Pinecone service and resolves the index host.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone API key is required")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pinecone client: %w", err)
	}

	host := cfg.Host
	if host == "" {
		if cfg.IndexName == "" {
			return nil, fmt.Errorf("either a pinecone host or an index name is required")
		}
		idx, err := client.DescribeIndex(ctx, cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("failed to describe index %q: %w", cfg.IndexName, err)
		}
		host = idx.Host
	}

	return &Service{
		client: client,
		host:   host,
		conns:  make(map[string]*pinecone.IndexConnection),
	}, nil
}

// connection returns the index connection for a namespace, dialing it on
// first use.
func (s *Service) connection(namespace string) (*pinecone.IndexConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn, ok := s.conns[namespace]; ok {
		return conn, nil
	}

	conn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      s.host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index at %s: %w", s.host, err)
	}

	s.conns[namespace] = conn
	return conn, nil
}

// Search performs a vector similarity search in the given namespace.
func (s *Service) Search(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error) {
	conn, err := s.connection(namespace)
	if err != nil {
		return nil, err
	}

	queryRequest := &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeValues:   false,
		IncludeMetadata: true,
	}
	if len(filter) > 0 {
		// Convert filter to Pinecone's MetadataFilter format
		metadataFilter, err := structpb.NewStruct(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to create metadata filter: %w", err)
		}
		queryRequest.MetadataFilter = metadataFilter
	}

	queryResponse, err := conn.QueryByVectorValues(ctx, queryRequest)
	if err != nil {
		return nil, err
	}

	// Convert matches to our shared format
	matches := make([]types.VectorMatch, 0, len(queryResponse.Matches))
	for _, match := range queryResponse.Matches {
		if match == nil || match.Vector == nil {
			continue
		}
		matches = append(matches, types.VectorMatch{
			ID:       match.Vector.Id,
			Score:    match.Score,
			Metadata: MetadataToMap(match.Vector.Metadata),
		})
	}

	return matches, nil
}

// Upsert stores a single vector with metadata in the given namespace.
func (s *Service) Upsert(ctx context.Context, namespace, id string, vector []float32, metadata map[string]any) error {
	conn, err := s.connection(namespace)
	if err != nil {
		return err
	}

	md, err := MapToMetadata(metadata)
	if err != nil {
		return err
	}

	_, err = conn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       id,
		Values:   vector,
		Metadata: md,
	}})
	return err
}

// Fetch retrieves stored vectors by id from the given namespace. Ids that do
// not exist are simply absent from the returned map.
func (s *Service) Fetch(ctx context.Context, namespace string, ids []string) (map[string]types.VectorRecord, error) {
	conn, err := s.connection(namespace)
	if err != nil {
		return nil, err
	}

	res, err := conn.FetchVectors(ctx, ids)
	if err != nil {
		return nil, err
	}

	records := make(map[string]types.VectorRecord, len(res.Vectors))
	for id, vec := range res.Vectors {
		if vec == nil {
			continue
		}
		records[id] = types.VectorRecord{
			ID:       vec.Id,
			Values:   vec.Values,
			Metadata: MetadataToMap(vec.Metadata),
		}
	}

	return records, nil
}

// ListIDs returns up to limit vector ids from the given namespace.
func (s *Service) ListIDs(ctx context.Context, namespace string, limit int) ([]string, error) {
	conn, err := s.connection(namespace)
	if err != nil {
		return nil, err
	}

	pageLimit := uint32(limit)
	res, err := conn.ListVectors(ctx, &pinecone.ListVectorsRequest{
		Limit: &pageLimit,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.VectorIds))
	for _, id := range res.VectorIds {
		if id != nil {
			ids = append(ids, *id)
		}
	}

	return ids, nil
}

// Stats describes the index configuration and per-namespace vector counts.
func (s *Service) Stats(ctx context.Context) (*types.IndexStats, error) {
	conn, err := s.connection("")
	if err != nil {
		return nil, err
	}

	res, err := conn.DescribeIndexStats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &types.IndexStats{
		Dimension:        res.Dimension,
		TotalVectorCount: res.TotalVectorCount,
		IndexFullness:    res.IndexFullness,
		Namespaces:       make(map[string]uint32, len(res.Namespaces)),
	}
	for name, summary := range res.Namespaces {
		if summary != nil {
			stats.Namespaces[name] = summary.VectorCount
		}
	}

	return stats, nil
}

// MapToMetadata converts a plain map to the SDK's metadata struct.
func MapToMetadata(metadata map[string]any) (*pinecone.Metadata, error) {
	metadataStruct, err := structpb.NewStruct(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata map: %w", err)
	}
	return &pinecone.Metadata{Fields: metadataStruct.Fields}, nil
}

// MetadataToMap converts SDK metadata to a plain map. A nil input yields an
// empty map so callers never see nil metadata.
func MetadataToMap(md *pinecone.Metadata) map[string]any {
	if md == nil {
		return map[string]any{}
	}
	return md.AsMap()
}
