// Package voyage generates text embeddings with the Voyage AI API.
package voyage

import (
	"context"
	"fmt"

	"github.com/austinfhunter/voyageai"
)

const EMBEDDING_DIMENSIONS = 1024

const VOYAGEAI_EMBEDDING_MODEL = "voyage-3.5-lite"

// EmbeddingType hints the model about how the text will be used.
type EmbeddingType string

const (
	EmbeddingTypeDocument EmbeddingType = "document"
	EmbeddingTypeQuery    EmbeddingType = "query"
	EmbeddingTypeDefault  EmbeddingType = ""
)

// EmbeddingService handles generating embeddings for text
type EmbeddingService struct {
	client     *voyageai.VoyageClient
	model      string
	dimensions int
}

// NewEmbeddingService creates a new embedding service
func NewEmbeddingService(apiKey string) (*EmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("voyage API key is required")
	}

	return &EmbeddingService{
		client: voyageai.NewClient(&voyageai.VoyageClientOpts{
			Key: apiKey,
		}),
		model:      VOYAGEAI_EMBEDDING_MODEL,
		dimensions: EMBEDDING_DIMENSIONS,
	}, nil
}

// GenerateEmbedding generates an embedding for a single text using VoyageAI
func (es *EmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return es.GenerateEmbeddingWithType(ctx, text, EmbeddingTypeDefault)
}

// GenerateEmbeddingWithType generates an embedding with an explicit input
// type hint
func (es *EmbeddingService) GenerateEmbeddingWithType(_ context.Context, text string, embeddingType EmbeddingType) ([]float32, error) {
	dimensions := es.dimensions
	embeddings, err := es.client.Embed(
		[]string{text},
		es.model,
		&voyageai.EmbeddingRequestOpts{
			InputType:       inputTypePtr(embeddingType),
			OutputDimension: &dimensions,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("could not get embedding: %w", err)
	}
	if len(embeddings.Data) == 0 {
		return nil, fmt.Errorf("voyage returned no embeddings")
	}

	return embeddings.Data[0].Embedding, nil
}

// GetEmbeddingDimensions returns the dimension count for the embedding model
func (es *EmbeddingService) GetEmbeddingDimensions() int {
	return es.dimensions
}

func inputTypePtr(embeddingType EmbeddingType) *string {
	if embeddingType == EmbeddingTypeDefault {
		return nil
	}
	value := string(embeddingType)
	return &value
}
