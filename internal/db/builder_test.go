package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_ChunkIndex(t *testing.T) {
	idx, err := NewIndex("ragdex:scope:s1:idx").
		Prefix("ragdex:scope:s1:chunk:").
		Tag("doc_id").
		Numeric("seq").
		VectorHNSW("__vector", "vector", 768, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Fields) != 3 {
		t.Fatalf("fields count = %d, want 3", len(idx.Fields))
	}
	v := idx.Fields[2]
	if v.Alias != "vector" || v.VectorAlgo != VectorHNSW || v.VectorDim != 768 || v.VectorM != 16 {
		t.Errorf("unexpected vector field: %+v", v)
	}
}

func TestIndexBuilder_VectorFlat(t *testing.T) {
	idx, err := NewIndex("flat-idx").VectorFlat("__vector", "vector", 3, DistanceL2).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Fields[0].VectorAlgo != VectorFlat || idx.Fields[0].VectorDistance != DistanceL2 {
		t.Errorf("unexpected field: %+v", idx.Fields[0])
	}
}

func TestIndexBuilder_Errors(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"empty name", NewIndex("").Tag("a")},
		{"invalid name", NewIndex("bad name").Tag("a")},
		{"no fields", NewIndex("idx")},
		{"duplicate field", NewIndex("idx").Tag("a").Numeric("a")},
		{"zero dim", NewIndex("idx").VectorFlat("v", "", 0, DistanceCosine)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx, _ := NewIndex("idx").Prefix("p:").Tag("doc_id").VectorFlat("__vector", "vector", 4, DistanceCosine).Build()

	s := idx.String()
	for _, want := range []string{"FT.CREATE idx ON HASH", "PREFIX 1 p:", "doc_id TAG", "__vector AS vector VECTOR FLAT"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestDistanceMetric_Similarity(t *testing.T) {
	if got := DistanceCosine.Similarity(0.25); got != 0.75 {
		t.Errorf("cosine similarity = %v, want 0.75", got)
	}
	if got := DistanceCosine.Similarity(1.5); got != -0.5 {
		t.Errorf("cosine similarity of opposite vectors = %v, want -0.5", got)
	}
	if got := DistanceL2.Similarity(2); got != -2 {
		t.Errorf("l2 similarity = %v, want -2", got)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"a", "ragdex:scope:x-1:idx", "A_b"} {
		if !IsValidIdentifier(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []string{"", "a b", "a*", "a{b}"} {
		if IsValidIdentifier(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}
