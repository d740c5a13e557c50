// Package config provides centralized configuration management for the contract graph server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete configuration for the application
type Config struct {
	// Graph database (Neo4j)
	Neo4j struct {
		URI      string
		Username string
		Password string
		Database string
	}

	// OpenAI configuration, used for embeddings, translation and the agent
	OpenAI struct {
		APIKey         string
		BaseURL        string
		ChatModel      string
		EmbeddingModel string
	}

	// Anthropic configuration, an alternative translation provider
	Anthropic struct {
		APIKey string
		Model  string
	}

	// Embedding and vector index configuration
	Embedding struct {
		Dimensions int
		Similarity string
	}

	// Qdrant excerpt mirror. Disabled when Host is empty.
	Qdrant struct {
		Host       string
		Port       int
		APIKey     string
		UseTLS     bool
		Collection string
	}

	Retrieval struct {
		TopK          int
		VectorBackend string
	}

	Translation struct {
		Provider string
	}

	Timeouts struct {
		Store       time.Duration
		Embedding   time.Duration
		Translation time.Duration
	}

	Ingest struct {
		Dir     string
		Workers int
	}

	Backfill struct {
		Workers int
	}
}

const (
	BackendNeo4j  = "neo4j"
	BackendQdrant = "qdrant"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Load reads an optional .env file and builds the configuration from environment variables.
// Values already present in the environment win over the .env file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return FromViper(newViper()), nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("neo4j_uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j_username", "neo4j")
	v.SetDefault("neo4j_database", "neo4j")
	v.SetDefault("openai_chat_model", "gpt-4o-mini")
	v.SetDefault("openai_embedding_model", "text-embedding-3-small")
	v.SetDefault("anthropic_model", "claude-3-5-sonnet-20240620")
	v.SetDefault("embedding_dimensions", 1536)
	v.SetDefault("vector_similarity", "cosine")
	v.SetDefault("qdrant_port", 6334)
	v.SetDefault("qdrant_collection", "contract_excerpts")
	v.SetDefault("similarity_top_k", 3)
	v.SetDefault("vector_backend", BackendNeo4j)
	v.SetDefault("translation_provider", ProviderOpenAI)
	v.SetDefault("store_timeout", "30s")
	v.SetDefault("embedding_timeout", "30s")
	v.SetDefault("translation_timeout", "60s")
	v.SetDefault("ingest_dir", "./data/output")
	v.SetDefault("ingest_workers", 4)
	v.SetDefault("backfill_workers", 4)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// FromViper maps a populated viper instance onto a Config.
func FromViper(v *viper.Viper) *Config {
	config := &Config{}

	config.Neo4j.URI = v.GetString("neo4j_uri")
	config.Neo4j.Username = v.GetString("neo4j_username")
	config.Neo4j.Password = v.GetString("neo4j_password")
	config.Neo4j.Database = v.GetString("neo4j_database")

	config.OpenAI.APIKey = v.GetString("openai_api_key")
	config.OpenAI.BaseURL = v.GetString("openai_base_url")
	config.OpenAI.ChatModel = v.GetString("openai_chat_model")
	config.OpenAI.EmbeddingModel = v.GetString("openai_embedding_model")

	config.Anthropic.APIKey = v.GetString("anthropic_api_key")
	config.Anthropic.Model = v.GetString("anthropic_model")

	config.Embedding.Dimensions = v.GetInt("embedding_dimensions")
	config.Embedding.Similarity = strings.ToLower(v.GetString("vector_similarity"))

	config.Qdrant.Host = v.GetString("qdrant_host")
	config.Qdrant.Port = v.GetInt("qdrant_port")
	config.Qdrant.APIKey = v.GetString("qdrant_api_key")
	config.Qdrant.UseTLS = v.GetBool("qdrant_use_tls")
	config.Qdrant.Collection = v.GetString("qdrant_collection")

	config.Retrieval.TopK = v.GetInt("similarity_top_k")
	config.Retrieval.VectorBackend = strings.ToLower(v.GetString("vector_backend"))

	config.Translation.Provider = strings.ToLower(v.GetString("translation_provider"))

	config.Timeouts.Store = v.GetDuration("store_timeout")
	config.Timeouts.Embedding = v.GetDuration("embedding_timeout")
	config.Timeouts.Translation = v.GetDuration("translation_timeout")

	config.Ingest.Dir = v.GetString("ingest_dir")
	config.Ingest.Workers = v.GetInt("ingest_workers")

	config.Backfill.Workers = v.GetInt("backfill_workers")

	return config
}

// QdrantEnabled reports whether the Qdrant excerpt mirror is configured.
func (c *Config) QdrantEnabled() bool {
	return c.Qdrant.Host != ""
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	var errs []string

	if c.Neo4j.URI == "" || c.Neo4j.Username == "" || c.Neo4j.Password == "" {
		errs = append(errs, "Neo4j configuration is incomplete")
	}

	if c.OpenAI.APIKey == "" {
		errs = append(errs, "OpenAI API key is required for embeddings and translation")
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, "embedding dimensions must be positive")
	}

	if c.Embedding.Similarity != "cosine" && c.Embedding.Similarity != "euclidean" {
		errs = append(errs, fmt.Sprintf("unsupported vector similarity %q", c.Embedding.Similarity))
	}

	switch c.Retrieval.VectorBackend {
	case BackendNeo4j:
	case BackendQdrant:
		if !c.QdrantEnabled() {
			errs = append(errs, "vector backend qdrant requires QDRANT_HOST")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported vector backend %q", c.Retrieval.VectorBackend))
	}

	switch c.Translation.Provider {
	case ProviderOpenAI:
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			errs = append(errs, "translation provider anthropic requires ANTHROPIC_API_KEY")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported translation provider %q", c.Translation.Provider))
	}

	if c.Retrieval.TopK <= 0 {
		errs = append(errs, "similarity top k must be positive")
	}

	if c.Timeouts.Store <= 0 || c.Timeouts.Embedding <= 0 || c.Timeouts.Translation <= 0 {
		errs = append(errs, "timeouts must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}
