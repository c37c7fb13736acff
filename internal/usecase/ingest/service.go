// Package ingest implements the write path: extract, chunk, embed, upsert, register.
package ingest

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/batch"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	"github.com/kailas-cloud/ragdex/internal/domain/scope"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// File is one uploaded file.
type File struct {
	Name string
	Data []byte
}

// Service indexes uploaded documents.
type Service struct {
	extract  Extractor
	embed    domain.Embedder
	index    Index
	registry Registry

	chunkSize    int
	chunkOverlap int
	now          func() time.Time
	logger       *zap.Logger
}

// New creates an ingest service. Chunk parameters come from cfg and are
// validated by the first Split call.
func New(
	extract Extractor, embed domain.Embedder, index Index, registry Registry,
	cfg domain.PipelineConfig, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extract:      extract,
		embed:        embed,
		index:        index,
		registry:     registry,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock overrides the upload timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Index makes one file searchable in scope. The returned document is
// registered only after all of its chunks are stored.
func (s *Service) Index(ctx context.Context, scopeName, name string, data []byte) (domdoc.Document, error) {
	doc, _, err := s.indexFile(ctx, scopeName, name, data)
	return doc, err
}

// Upload indexes each file independently. A failing file never affects the others.
func (s *Service) Upload(ctx context.Context, scopeName string, files []File) []batch.Result {
	results := make([]batch.Result, 0, len(files))
	for _, f := range files {
		doc, id, err := s.indexFile(ctx, scopeName, f.Name, f.Data)
		if err != nil {
			results = append(results, batch.NewError(id, sourceName(f.Name), err))
			continue
		}
		results = append(results, batch.NewOK(doc.ID(), doc.SourceName(), doc.ChunkCount()))
	}
	return results
}

// indexFile returns the document id as soon as it is known so failures can report it.
func (s *Service) indexFile(ctx context.Context, scopeName, name string, data []byte) (domdoc.Document, string, error) {
	sc, err := scope.Normalize(scopeName)
	if err != nil {
		return domdoc.Document{}, "", err
	}
	src := sourceName(name)
	log := s.logger.With(zap.String("scope", sc), zap.String("source_name", src))

	text, err := s.extract.Extract(src, data)
	if err != nil {
		s.fail(log, "extract", err)
		return domdoc.Document{}, "", fmt.Errorf("extract %s: %w", src, err)
	}

	id := domdoc.IDFromContent(data)
	log = log.With(zap.String("doc_id", id))

	pieces, err := chunk.Split(text, s.chunkSize, s.chunkOverlap)
	if err != nil {
		s.fail(log, "split", err)
		return domdoc.Document{}, id, fmt.Errorf("split %s: %w", src, err)
	}
	if len(pieces) == 0 {
		s.fail(log, "split", domain.ErrEmptyDocument)
		return domdoc.Document{}, id, fmt.Errorf("split %s: %w", src, domain.ErrEmptyDocument)
	}

	emb, err := domain.EmbedAll(ctx, s.embed, pieces)
	if err != nil {
		s.fail(log, "embed", err)
		return domdoc.Document{}, id, fmt.Errorf("embed %s: %w", src, err)
	}

	uploadedAt := s.now().UTC()
	chunks := make([]chunk.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		c, err := chunk.New(piece, emb.Embeddings[i], chunk.Metadata{
			DocID:       id,
			SourceName:  src,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
			ByteSize:    int64(len(data)),
			UploadedAt:  uploadedAt,
		})
		if err != nil {
			s.fail(log, "build", err)
			return domdoc.Document{}, id, fmt.Errorf("build chunk %d of %s: %w", i, src, err)
		}
		chunks = append(chunks, c)
	}

	if err := s.index.Upsert(ctx, sc, chunks); err != nil {
		s.fail(log, "upsert", err)
		return domdoc.Document{}, id, fmt.Errorf("upsert %s: %w", src, err)
	}

	doc, err := domdoc.New(id, sc, src, int64(len(data)), uploadedAt, len(chunks))
	if err != nil {
		return domdoc.Document{}, id, fmt.Errorf("%w: %w", domain.ErrInvalidChunk, err)
	}
	if err := s.registry.Put(ctx, doc); err != nil {
		s.fail(log, "register", err)
		return domdoc.Document{}, id, fmt.Errorf("register %s: %w", src, err)
	}

	metrics.ChunksIndexedTotal.Add(float64(len(chunks)))
	metrics.DocumentsIndexedTotal.WithLabelValues("ok").Inc()
	log.Info("Document indexed",
		zap.Int("chunks", len(chunks)),
		zap.Int("bytes", len(data)),
		zap.Int("embedding_tokens", emb.TotalTokens),
	)
	return doc, id, nil
}

func (s *Service) fail(log *zap.Logger, stage string, err error) {
	metrics.DocumentsIndexedTotal.WithLabelValues("error").Inc()
	log.Warn("Document indexing failed", zap.String("stage", stage), zap.Error(err))
}

// sourceName strips directories a client may send in a multipart file name.
func sourceName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}
