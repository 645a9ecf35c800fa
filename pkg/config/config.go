package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for askdb-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Engine store configuration (PostgreSQL: insights, documents)
	Database DatabaseConfig `yaml:"database"`

	// LLM endpoint configuration
	LLM LLMConfig `yaml:"llm"`

	// Reasoning agent configuration
	Agent AgentConfig `yaml:"agent"`

	// Datasource connection management configuration
	Datasource DatasourceConfig `yaml:"datasource"`
}

// DatabaseConfig holds PostgreSQL engine store configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"askdb"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"askdb_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// URL builds a connection URL for the engine store.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// LLMConfig holds completion and embedding endpoint configuration.
type LLMConfig struct {
	// Provider selects the completion backend: "openai" (any
	// OpenAI-compatible endpoint, including vLLM/Ollama) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"http://localhost:11434/v1"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"qwen3:8b"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML

	// Embeddings always go through an OpenAI-compatible endpoint.
	// Falls back to Endpoint/APIKey when unset.
	EmbeddingEndpoint string `yaml:"embedding_endpoint" env:"LLM_EMBEDDING_ENDPOINT" env-default:""`
	EmbeddingModel    string `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL" env-default:"nomic-embed-text"`
	EmbeddingAPIKey   string `yaml:"-" env:"LLM_EMBEDDING_API_KEY"` // Secret - not in YAML
}

// EffectiveEmbeddingEndpoint returns the embedding endpoint, falling back to
// the completion endpoint when a dedicated one is not configured.
func (c *LLMConfig) EffectiveEmbeddingEndpoint() string {
	if c.EmbeddingEndpoint != "" {
		return c.EmbeddingEndpoint
	}
	return c.Endpoint
}

// EffectiveEmbeddingAPIKey returns the embedding API key, falling back to
// the completion key.
func (c *LLMConfig) EffectiveEmbeddingAPIKey() string {
	if c.EmbeddingAPIKey != "" {
		return c.EmbeddingAPIKey
	}
	return c.APIKey
}

// AgentConfig holds the reasoning workflow knobs.
type AgentConfig struct {
	// MaxRetries caps SQL generation attempts per turn. 3 means one initial
	// attempt plus at most 2 regenerations after recoverable executor errors.
	MaxRetries int `yaml:"max_retries" env:"AGENT_MAX_RETRIES" env-default:"3"`
	// MaxRows bounds rows returned by generated queries.
	MaxRows int `yaml:"max_rows" env:"AGENT_MAX_ROWS" env-default:"100"`
	// TopKTables is the similarity search result limit for table retrieval.
	TopKTables int `yaml:"top_k_tables" env:"AGENT_TOP_K_TABLES" env-default:"5"`
	// ScoreThreshold is the minimum cosine similarity for semantic value matches.
	ScoreThreshold float64 `yaml:"score_threshold" env:"AGENT_SCORE_THRESHOLD" env-default:"0.5"`
	// MaxCompletionTokens bounds the SQL generation completion.
	MaxCompletionTokens int `yaml:"max_completion_tokens" env:"AGENT_MAX_COMPLETION_TOKENS" env-default:"2048"`
	// MaxSummaryTokens bounds the intent extraction and result explanation
	// completions, which produce short structured or prose output.
	MaxSummaryTokens int `yaml:"max_summary_tokens" env:"AGENT_MAX_SUMMARY_TOKENS" env-default:"512"`
	// CategoricalDisplayLimit caps categorical values shown in prompt context.
	CategoricalDisplayLimit int `yaml:"categorical_display_limit" env:"AGENT_CATEGORICAL_DISPLAY_LIMIT" env-default:"10"`
	// SampleDisplayLimit caps sample values shown in prompt context.
	SampleDisplayLimit int `yaml:"sample_display_limit" env:"AGENT_SAMPLE_DISPLAY_LIMIT" env-default:"10"`
}

// DatasourceConfig holds datasource connection management settings.
type DatasourceConfig struct {
	// CredentialTTLMinutes is how long cached connection credentials are kept.
	CredentialTTLMinutes int `yaml:"credential_ttl_minutes" env:"DATASOURCE_CREDENTIAL_TTL_MINUTES" env-default:"60"`
	// QueryTimeoutSeconds is the wall-clock cap on a single query execution.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"DATASOURCE_QUERY_TIMEOUT_SECONDS" env-default:"60"`
	// ConnectTimeoutSeconds is the cap on establishing a datasource connection.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" env:"DATASOURCE_CONNECT_TIMEOUT_SECONDS" env-default:"20"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// If config.yaml does not exist, configuration comes from environment variables
// and defaults alone.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Agent.MaxRetries < 1 {
		return fmt.Errorf("agent.max_retries must be at least 1, got %d", c.Agent.MaxRetries)
	}
	if c.Agent.MaxRows < 1 {
		return fmt.Errorf("agent.max_rows must be at least 1, got %d", c.Agent.MaxRows)
	}
	if c.Agent.TopKTables < 1 {
		return fmt.Errorf("agent.top_k_tables must be at least 1, got %d", c.Agent.TopKTables)
	}
	if c.Agent.ScoreThreshold < 0 || c.Agent.ScoreThreshold > 1 {
		return fmt.Errorf("agent.score_threshold must be in [0,1], got %f", c.Agent.ScoreThreshold)
	}
	if c.Agent.MaxCompletionTokens < 1 {
		return fmt.Errorf("agent.max_completion_tokens must be at least 1, got %d", c.Agent.MaxCompletionTokens)
	}
	if c.Agent.MaxSummaryTokens < 1 {
		return fmt.Errorf("agent.max_summary_tokens must be at least 1, got %d", c.Agent.MaxSummaryTokens)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider)
	}
	return nil
}
