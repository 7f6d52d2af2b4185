package plenario

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Engine.
type Option interface {
	apply(*engineConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	configPath string
	dataDir    string

	openAIKey     string
	openAIBaseURL string

	redisAddr     string
	redisPassword string

	embedder  Embedder
	generator Generator

	weights             map[string]float64
	baseK               int
	resultCap           int
	scale               string
	selfAsk             *bool
	confidenceThreshold *float64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithConfig loads engine settings from a YAML file before the other
// options apply. Same format and env-var substitution the API server uses.
func WithConfig(path string) Option {
	return optionFunc(func(c *engineConfig) {
		c.configPath = path
	})
}

// WithDataDir points the engine at a directory of collection artifact pairs.
func WithDataDir(dir string) Option {
	return optionFunc(func(c *engineConfig) {
		c.dataDir = dir
	})
}

// WithOpenAI sets the OpenAI credentials for embeddings and generation.
// baseURL selects an OpenAI-compatible gateway; empty means the default
// endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *engineConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
	})
}

// WithRedis enables the embedding cache and budget counter persistence.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *engineConfig) {
		c.redisAddr = addr
		c.redisPassword = password
	})
}

// WithEmbedder replaces the built-in OpenAI embedding client.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *engineConfig) {
		c.embedder = e
	})
}

// WithGenerator replaces the built-in OpenAI chat client.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *engineConfig) {
		c.generator = g
	})
}

// WithWeights overrides collection priority weights by name. Weights must
// be positive; names absent from the map keep their built-in weight.
func WithWeights(weights map[string]float64) Option {
	return optionFunc(func(c *engineConfig) {
		c.weights = weights
	})
}

// WithBaseK sets the default per-collection candidate count before weight
// scaling. Default: 8.
func WithBaseK(k int) Option {
	return optionFunc(func(c *engineConfig) {
		c.baseK = k
	})
}

// WithResultCap bounds the merged cross-collection result list. Default: 40.
func WithResultCap(n int) Option {
	return optionFunc(func(c *engineConfig) {
		c.resultCap = n
	})
}

// WithScale selects the effective-k scaling curve: "uniform",
// "proportional" (default) or "damped".
func WithScale(scale string) Option {
	return optionFunc(func(c *engineConfig) {
		c.scale = scale
	})
}

// WithSelfAsk toggles question decomposition. Default: enabled.
func WithSelfAsk(enabled bool) Option {
	return optionFunc(func(c *engineConfig) {
		c.selfAsk = &enabled
	})
}

// WithConfidenceThreshold sets the strict acceptance threshold for
// sub-question answers, in [0, 1]. Default: 0.5.
func WithConfidenceThreshold(t float64) Option {
	return optionFunc(func(c *engineConfig) {
		c.confidenceThreshold = &t
	})
}

// WithLogger enables structured logging for engine operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *engineConfig) {
		c.logger = l
	})
}

// WithMetrics registers engine metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *engineConfig) {
		c.metricsReg = reg
	})
}
