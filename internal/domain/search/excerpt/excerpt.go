// Package excerpt assembles ranked hits into the bounded context handed to the language model.
package excerpt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/ragdex/internal/domain/search/hit"
)

const separator = "\n\n"

// Segment renders one hit with its source attribution.
func Segment(h hit.Hit) string {
	return fmt.Sprintf("[%s, chunk %d]\n%s", h.SourceName(), h.ChunkIndex(), h.Text())
}

// Assemble concatenates whole hits in rank order while the total stays
// within maxChars characters, separators and headers included. A hit that
// does not fit ends the context; hits are never cut. When the first hit
// alone exceeds the budget the result is empty and callers take the
// no-context path.
func Assemble(hits []hit.Hit, maxChars int) string {
	var b strings.Builder
	used := 0
	for i, h := range hits {
		seg := Segment(h)
		cost := utf8.RuneCountInString(seg)
		if i > 0 {
			cost += utf8.RuneCountInString(separator)
		}
		if used+cost > maxChars {
			break
		}
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(seg)
		used += cost
	}
	return b.String()
}
