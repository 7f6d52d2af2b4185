package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates the service can answer questions.
	Healthy Status = "healthy"
	// Degraded indicates a component failure; answering may be impaired.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results. Collections counts come along so
// the handler can render ready/skipped without a second registry call.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Ready   int
	Skipped int
}

// Service coordinates health checks.
type Service struct {
	kv          KVPinger
	embedding   EmbeddingChecker
	collections CollectionSet
}

// New creates a Service. kv and embedding can be nil; their checks are
// skipped when the component is not configured.
func New(kv KVPinger, embedding EmbeddingChecker, collections CollectionSet) *Service {
	return &Service{kv: kv, embedding: embedding, collections: collections}
}

// Check runs health checks against all configured components. Zero ready
// collections degrade the service even when every probe passes.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.kv != nil {
		if err := s.kv.Ping(ctx); err != nil {
			checks["kv"] = CheckError
		} else {
			checks["kv"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	ready := s.collections.Ready()
	skipped := s.collections.Skipped()
	if ready == 0 {
		checks["collections"] = CheckError
	} else {
		checks["collections"] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Ready: ready, Skipped: skipped}
}
