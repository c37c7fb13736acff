// Package extract turns uploaded file bytes into plain text.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Extractor converts the bytes of one file format into text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(data []byte) (string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(data []byte) (string, error) { return f(data) }

// Registry picks an extractor by file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with every built-in format.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	for _, ext := range []string{".txt", ".md", ".csv", ".log"} {
		r.Register(ext, ExtractorFunc(plainText))
	}
	r.Register(".pdf", ExtractorFunc(pdfText))
	r.Register(".docx", ExtractorFunc(docxText))
	r.Register(".xlsx", ExtractorFunc(xlsxText))
	r.Register(".xls", ExtractorFunc(xlsText))
	return r
}

// Register adds or replaces the extractor for ext (".pdf" or "pdf").
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[normalizeExt(ext)] = e
}

// Supported returns registered extensions, sorted.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// Extract returns the text of the named file.
// Unknown extensions fail with ErrUnsupportedFormat; unreadable content and
// whitespace-only results fail with ErrExtraction.
func (r *Registry) Extract(name string, data []byte) (text string, err error) {
	ext := normalizeExt(filepath.Ext(name))
	e, ok := r.byExt[ext]
	if !ok {
		if ext == "" {
			return "", fmt.Errorf("%w: %q has no extension", domain.ErrUnsupportedFormat, name)
		}
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	// Parsers of binary formats panic on some malformed input.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %s: %v", domain.ErrExtraction, name, rec)
		}
	}()

	text, err = e.Extract(data)
	if err != nil {
		if errors.Is(err, domain.ErrExtraction) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExtraction, name, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExtraction, name, domain.ErrEmptyDocument)
	}
	return text, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
