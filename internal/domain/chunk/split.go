package chunk

import (
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Split cuts text into overlapping windows of size characters (Unicode code
// points). Consecutive windows share overlap characters and the last one may
// be shorter. Empty text yields no chunks.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf(
			"%w: chunk overlap must be in [0, %d), got %d", domain.ErrConfiguration, size, overlap,
		)
	}
	if text == "" {
		return []string{}, nil
	}

	runes := []rune(text)
	stride := size - overlap
	chunks := make([]string, 0, len(runes)/stride+1)
	for start := 0; start < len(runes); start += stride {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
