package chunk

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

func validMeta() Metadata {
	return Metadata{
		DocID:       "a1b2c3d4",
		SourceName:  "handbook.pdf",
		ChunkIndex:  2,
		TotalChunks: 4,
		ByteSize:    3000,
		UploadedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNew_DerivesID(t *testing.T) {
	c, err := New("text", []float32{1, 0}, validMeta())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID() != "a1b2c3d4_2" {
		t.Errorf("ID() = %q, want a1b2c3d4_2", c.ID())
	}
	if c.Metadata().SourceName != "handbook.pdf" {
		t.Errorf("SourceName = %q", c.Metadata().SourceName)
	}
}

func TestNew_RejectsMalformedMetadata(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Metadata)
	}{
		{"missing doc id", func(m *Metadata) { m.DocID = "" }},
		{"missing source", func(m *Metadata) { m.SourceName = "" }},
		{"index out of range", func(m *Metadata) { m.ChunkIndex = 4 }},
		{"negative index", func(m *Metadata) { m.ChunkIndex = -1 }},
		{"zero total", func(m *Metadata) { m.TotalChunks = 0 }},
		{"negative size", func(m *Metadata) { m.ByteSize = -1 }},
		{"zero time", func(m *Metadata) { m.UploadedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMeta()
			tt.mutate(&m)
			_, err := New("text", []float32{1}, m)
			if !errors.Is(err, domain.ErrInvalidChunk) {
				t.Errorf("expected ErrInvalidChunk, got %v", err)
			}
		})
	}
}

func TestNew_RequiresVector(t *testing.T) {
	_, err := New("text", nil, validMeta())
	if !errors.Is(err, domain.ErrInvalidChunk) {
		t.Errorf("expected ErrInvalidChunk, got %v", err)
	}
}
