// Package openai generates text embeddings with the OpenAI API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const EMBEDDING_DIMENSIONS = 1536

const OPENAI_EMBEDDING_MODEL = openai.EmbeddingModelTextEmbedding3Small

// EmbeddingService handles generating embeddings for text
type EmbeddingService struct {
	client     openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewEmbeddingService creates a new embedding service
func NewEmbeddingService(apiKey string) (*EmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	return &EmbeddingService{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:      OPENAI_EMBEDDING_MODEL,
		dimensions: EMBEDDING_DIMENSIONS,
	}, nil
}

// GenerateEmbedding generates an embedding for a single text using OpenAI
func (es *EmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := es.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model:      es.model,
		Dimensions: openai.Int(int64(es.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("could not get embedding: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}

	// The SDK returns float64 values; the index stores float32.
	values := res.Data[0].Embedding
	embedding := make([]float32, len(values))
	for i, v := range values {
		embedding[i] = float32(v)
	}

	return embedding, nil
}

// GetEmbeddingDimensions returns the dimension count for the embedding model
func (es *EmbeddingService) GetEmbeddingDimensions() int {
	return es.dimensions
}
