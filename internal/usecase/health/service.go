package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure: answers may lack grounding or fail per turn.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector index is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckIndex     = "index"
	CheckRegistry  = "registry"
	CheckEmbedding = "embedding"
	CheckLLM       = "llm"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index     Pinger
	registry  Pinger
	embedding ProviderChecker
	llm       ProviderChecker
}

// New creates a Service. Any checker except index may be nil.
func New(index, registry Pinger, embedding, llm ProviderChecker) *Service {
	return &Service{index: index, registry: registry, embedding: embedding, llm: llm}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		CheckIndex: result(s.index.Ping(ctx)),
	}
	if s.registry != nil {
		checks[CheckRegistry] = result(s.registry.Ping(ctx))
	}
	if s.embedding != nil {
		checks[CheckEmbedding] = result(s.embedding.HealthCheck(ctx))
	}
	if s.llm != nil {
		checks[CheckLLM] = result(s.llm.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[CheckIndex] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
