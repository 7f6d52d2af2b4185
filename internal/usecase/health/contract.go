package health

import "context"

// KVPinger checks key-value store availability.
type KVPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CollectionSet reports how collection loading went at startup.
type CollectionSet interface {
	Ready() int
	Skipped() int
}
