package domain

import "context"

// IndexStats describes the chunks stored for one scope.
type IndexStats struct {
	ChunkCount int
	// Dimensions is 0 while the scope is empty.
	Dimensions int
}

// ReclaimHook runs for each reclaimed scope while the index still holds the
// scope's exclusive lock. An error keeps the scope for the next attempt.
type ReclaimHook func(ctx context.Context, scope string) error
