package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/plenario-ai/plenario/internal/domain/collection/category"
)

// Config holds the plenario API configuration.
type Config struct {
	Env        string           `yaml:"env"`
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Data       DataConfig       `yaml:"data"`
	Redis      RedisConfig      `yaml:"redis"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	SelfAsk    SelfAskConfig    `yaml:"selfask"`
	Generation GenerationConfig `yaml:"generation"`
	Budget     BudgetConfig     `yaml:"budget"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. An empty token disables
// authentication.
type AuthConfig struct {
	Token string `yaml:"token"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
}

// DataConfig holds artifact storage settings.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// RedisConfig holds the optional Redis connection. With no addrs the
// embedding cache and token budget are disabled.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a Redis connection is configured.
func (r RedisConfig) Enabled() bool { return len(r.Addrs) > 0 }

// OpenAIConfig holds the OpenAI API settings shared by the embedding
// and generation clients.
type OpenAIConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions"`
	ChatModel           string `yaml:"chat_model"`
}

// EmbeddingConfig holds embedding pipeline settings.
type EmbeddingConfig struct {
	CacheTTLHours       int    `yaml:"cache_ttl_hours"`
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
	BatchChunkSize      int    `yaml:"batch_chunk_size"`
}

// CollectionConfig overrides or registers one collection's retrieval
// profile. Collections found on disk but absent here fall back to the
// built-in defaults.
type CollectionConfig struct {
	Weight   float64 `yaml:"weight"`
	Category string  `yaml:"category"`
	Label    string  `yaml:"label"`
}

// RetrievalConfig holds fan-out and merge settings.
type RetrievalConfig struct {
	BaseK       int                         `yaml:"base_k"`
	ResultCap   int                         `yaml:"result_cap"`
	KScale      string                      `yaml:"k_scale"`       // uniform, proportional, damped
	MaxParallel int                         `yaml:"max_parallel"`  // 0 = all collections at once
	Collections map[string]CollectionConfig `yaml:"collections"`
}

// SelfAskConfig holds question decomposition settings.
type SelfAskConfig struct {
	Enabled             *bool   `yaml:"enabled"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	SubBaseK            int     `yaml:"sub_base_k"`
	SubResultCap        int     `yaml:"sub_result_cap"`
}

// IsEnabled reports whether decomposition runs (default true).
func (s SelfAskConfig) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

// GenerationConfig holds answer generation settings.
type GenerationConfig struct {
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float32 `yaml:"temperature"`
	HistoryTurns int     `yaml:"history_turns"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit      int64   `yaml:"daily_token_limit"`       // 0 = unlimited
	MonthlyTokenLimit    int64   `yaml:"monthly_token_limit"`     // 0 = unlimited
	CostPerMillionTokens float64 `yaml:"cost_per_million_tokens"` // для дашборда
	Action               string  `yaml:"action"`                  // "reject" | "warn" (default)
}

// Load reads configuration from a YAML file. An empty path triggers
// the search order: $PLENARIO_CONFIG, ./plenario.yaml,
// ./configs/plenario.yaml, /etc/plenario/plenario.yaml.
func Load(path string) (Config, error) {
	if path == "" {
		path = findConfigPath()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the PLENARIO_ENV
// variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("PLENARIO_ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = GetEnv()
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = 10
	}
	if c.Server.WriteTimeoutSec <= 0 {
		// Generation calls are slow, the write timeout covers them.
		c.Server.WriteTimeoutSec = 60
	}
	if c.Server.ShutdownSec <= 0 {
		c.Server.ShutdownSec = 10
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "./data"
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.EmbeddingDimensions <= 0 {
		c.OpenAI.EmbeddingDimensions = 1536
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 336 // 14 days
	}
	if c.Embedding.BatchChunkSize <= 0 {
		c.Embedding.BatchChunkSize = 256
	}
	if c.Retrieval.BaseK <= 0 {
		c.Retrieval.BaseK = 8
	}
	if c.Retrieval.ResultCap <= 0 {
		c.Retrieval.ResultCap = 40
	}
	if c.Retrieval.KScale == "" {
		c.Retrieval.KScale = "proportional"
	}
	if c.SelfAsk.ConfidenceThreshold <= 0 {
		c.SelfAsk.ConfidenceThreshold = 0.5
	}
	if c.SelfAsk.SubBaseK <= 0 {
		c.SelfAsk.SubBaseK = 3
	}
	if c.SelfAsk.SubResultCap <= 0 {
		c.SelfAsk.SubResultCap = 12
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1024
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = 0.3
	}
	if c.Generation.HistoryTurns <= 0 {
		c.Generation.HistoryTurns = 6
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Retrieval.KScale {
	case "uniform", "proportional", "damped":
	default:
		return fmt.Errorf(
			"retrieval.k_scale must be \"uniform\", \"proportional\" or \"damped\", got %q",
			c.Retrieval.KScale,
		)
	}
	for name, col := range c.Retrieval.Collections {
		if col.Weight <= 0 {
			return fmt.Errorf("retrieval.collections.%s.weight must be positive, got %v", name, col.Weight)
		}
		if col.Category != "" {
			if _, err := category.New(col.Category); err != nil {
				return fmt.Errorf("retrieval.collections.%s.category: %w", name, err)
			}
		}
	}
	if c.SelfAsk.ConfidenceThreshold < 0 || c.SelfAsk.ConfidenceThreshold > 1 {
		return fmt.Errorf(
			"selfask.confidence_threshold must be in [0, 1], got %v",
			c.SelfAsk.ConfidenceThreshold,
		)
	}
	switch c.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("budget.action must be \"warn\" or \"reject\", got %q", c.Budget.Action)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath() string {
	if path := os.Getenv("PLENARIO_CONFIG"); path != "" {
		return path
	}
	for _, path := range []string{
		"plenario.yaml",
		filepath.Join("configs", "plenario.yaml"),
		filepath.Join("/etc", "plenario", "plenario.yaml"),
	} {
		if fileExists(path) {
			return path
		}
	}
	return "plenario.yaml"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
