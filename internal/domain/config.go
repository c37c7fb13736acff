package domain

import "time"

// PipelineConfig holds the tunables of the RAG pipeline.
type PipelineConfig struct {
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	MaxContextChars int
	MaxHistory      int
	Temperature     float32
	ProviderTimeout time.Duration
}

// DefaultPipelineConfig returns defaults used when configuration leaves a value unset.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:       1000,
		ChunkOverlap:    200,
		TopK:            5,
		MaxContextChars: 3000,
		MaxHistory:      10,
		Temperature:     0.2,
		ProviderTimeout: 60 * time.Second,
	}
}
