package voyage_test

import (
	"testing"

	"github.com/nmelo/mcp-pinecone/clients/voyage"
)

// TestNewEmbeddingService_RequiresAPIKey tests that a missing key fails fast.
func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := voyage.NewEmbeddingService("")
	if err == nil {
		t.Error("Expected error for missing API key, got nil")
	}
}

// TestGetEmbeddingDimensions tests the advertised model dimension.
func TestGetEmbeddingDimensions(t *testing.T) {
	svc, err := voyage.NewEmbeddingService("test-key")
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	if got := svc.GetEmbeddingDimensions(); got != voyage.EMBEDDING_DIMENSIONS {
		t.Errorf("Expected %d dimensions, got %d", voyage.EMBEDDING_DIMENSIONS, got)
	}
}
