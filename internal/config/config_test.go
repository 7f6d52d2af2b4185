package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_InvalidKScale(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Retrieval.KScale = "quadratic"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid k_scale")
	}

	expected := `retrieval.k_scale must be "uniform", "proportional" or "damped", got "quadratic"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidKScales(t *testing.T) {
	for _, scale := range []string{"uniform", "proportional", "damped"} {
		t.Run("k_scale="+scale, func(t *testing.T) {
			cfg := Config{}
			cfg.ApplyDefaults()
			cfg.Retrieval.KScale = scale

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid k_scale %q: %v", scale, err)
			}
		})
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Budget.Action = "invalid_action"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_CollectionOverrides(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Retrieval.Collections = map[string]CollectionConfig{
		"sumarizacoes": {Weight: 3.0, Category: "summary"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Retrieval.Collections["bad"] = CollectionConfig{Weight: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive weight")
	}

	cfg.Retrieval.Collections["bad"] = CollectionConfig{Weight: 1, Category: "speculative"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestValidate_ConfidenceThresholdRange(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.SelfAsk.ConfidenceThreshold = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.Server.ReadTimeoutSec)
	}
	if cfg.Server.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.Server.WriteTimeoutSec)
	}
	if cfg.Data.Dir != "./data" {
		t.Errorf("expected Dir='./data', got %q", cfg.Data.Dir)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.EmbeddingDimensions != 1536 {
		t.Errorf("expected EmbeddingDimensions=1536, got %d", cfg.OpenAI.EmbeddingDimensions)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("expected default chat model, got %q", cfg.OpenAI.ChatModel)
	}
	if cfg.Retrieval.BaseK != 8 {
		t.Errorf("expected BaseK=8, got %d", cfg.Retrieval.BaseK)
	}
	if cfg.Retrieval.ResultCap != 40 {
		t.Errorf("expected ResultCap=40, got %d", cfg.Retrieval.ResultCap)
	}
	if cfg.Retrieval.KScale != "proportional" {
		t.Errorf("expected KScale='proportional', got %q", cfg.Retrieval.KScale)
	}
	if cfg.SelfAsk.ConfidenceThreshold != 0.5 {
		t.Errorf("expected ConfidenceThreshold=0.5, got %v", cfg.SelfAsk.ConfidenceThreshold)
	}
	if cfg.SelfAsk.SubBaseK != 3 {
		t.Errorf("expected SubBaseK=3, got %d", cfg.SelfAsk.SubBaseK)
	}
	if cfg.SelfAsk.SubResultCap != 12 {
		t.Errorf("expected SubResultCap=12, got %d", cfg.SelfAsk.SubResultCap)
	}
	if !cfg.SelfAsk.IsEnabled() {
		t.Error("expected selfask enabled by default")
	}
	if cfg.Generation.MaxTokens != 1024 {
		t.Errorf("expected MaxTokens=1024, got %d", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Temperature != 0.3 {
		t.Errorf("expected Temperature=0.3, got %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.HistoryTurns != 6 {
		t.Errorf("expected HistoryTurns=6, got %d", cfg.Generation.HistoryTurns)
	}
	if cfg.Embedding.BatchChunkSize != 256 {
		t.Errorf("expected BatchChunkSize=256, got %d", cfg.Embedding.BatchChunkSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Server:     ServerConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 120, ShutdownSec: 5},
		Retrieval:  RetrievalConfig{BaseK: 16, ResultCap: 80, KScale: "damped"},
		Generation: GenerationConfig{MaxTokens: 2048, Temperature: 0.7, HistoryTurns: 2},
	}
	cfg.ApplyDefaults()

	if cfg.Server.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.Server.Port)
	}
	if cfg.Retrieval.BaseK != 16 {
		t.Errorf("expected BaseK=16, got %d", cfg.Retrieval.BaseK)
	}
	if cfg.Retrieval.KScale != "damped" {
		t.Errorf("expected KScale='damped', got %q", cfg.Retrieval.KScale)
	}
	if cfg.Generation.Temperature != 0.7 {
		t.Errorf("expected Temperature=0.7, got %v", cfg.Generation.Temperature)
	}
}

func TestSelfAsk_ExplicitDisable(t *testing.T) {
	disabled := false
	cfg := Config{SelfAsk: SelfAskConfig{Enabled: &disabled}}
	cfg.ApplyDefaults()

	if cfg.SelfAsk.IsEnabled() {
		t.Error("explicit enabled:false must survive defaults")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PLENARIO_TEST_KEY", "sk-secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "plenario.yaml")
	body := `
server:
  port: 8081
openai:
  api_key: ${PLENARIO_TEST_KEY}
  chat_model: ${PLENARIO_TEST_MODEL:-gpt-4o-mini}
retrieval:
  collections:
    proposicoes:
      weight: 2.5
      category: summary
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-secret" {
		t.Errorf("APIKey = %q, want env expansion", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %q, want :-default expansion", cfg.OpenAI.ChatModel)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if got := cfg.Retrieval.Collections["proposicoes"].Weight; got != 2.5 {
		t.Errorf("collection weight = %v", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
