package health

import "context"

// Pinger checks storage availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks a hosted provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
