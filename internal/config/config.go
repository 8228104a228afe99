// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Embedding providers recognized for EmbeddingProvider.
const (
	ProviderOpenAI = "openai"
	ProviderVoyage = "voyage"
)

// Config holds every environment-driven setting for the service.
type Config struct {
	// Addr is the host:port the HTTP façade listens on.
	Addr string `env:"MCP_PINECONE_ADDR" envDefault:"0.0.0.0:3000"`

	// PineconeAPIKey authenticates against the Pinecone API.
	PineconeAPIKey string `env:"PINECONE_API_KEY"`

	// PineconeIndexName resolves the index host when PineconeHost is empty.
	PineconeIndexName string `env:"PINECONE_INDEX_NAME"`

	// PineconeHost is the data-plane host of the index. Optional; set it to
	// skip the control-plane lookup at startup.
	PineconeHost string `env:"PINECONE_HOST"`

	// PineconeNamespace is used when a request does not name a namespace.
	PineconeNamespace string `env:"PINECONE_NAMESPACE"`

	// EmbeddingProvider selects the primary embedding backend.
	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"openai"`

	// EmbeddingDimension is the index dimension vectors are fitted to.
	EmbeddingDimension int `env:"EMBEDDING_DIMENSION" envDefault:"1536"`

	// OpenAIAPIKey authenticates the OpenAI embedding client.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	// VoyageAPIKey authenticates the Voyage AI embedding client.
	VoyageAPIKey string `env:"VOYAGEAI_API_KEY"`

	// HeartbeatInterval is the SSE heartbeat period.
	HeartbeatInterval time.Duration `env:"SSE_HEARTBEAT_INTERVAL" envDefault:"30s"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.EmbeddingProvider {
	case ProviderOpenAI, ProviderVoyage:
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderVoyage, c.EmbeddingProvider)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("SSE_HEARTBEAT_INTERVAL must be positive, got %s", c.HeartbeatInterval)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
