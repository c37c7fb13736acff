package document

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
)

// store is the consumer interface for the document registry (ISP).
type store interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PingContext(ctx context.Context) error
}

// Repo implements the document registry on SQLite.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put records a document, replacing an earlier upload of the same content.
func (r *Repo) Put(ctx context.Context, doc domdoc.Document) error {
	_, err := r.store.ExecContext(ctx, `
        INSERT INTO documents (scope, id, source_name, byte_size, uploaded_at, chunk_count)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(scope, id) DO UPDATE SET
            source_name = excluded.source_name,
            byte_size   = excluded.byte_size,
            uploaded_at = excluded.uploaded_at,
            chunk_count = excluded.chunk_count`,
		doc.Scope(), doc.ID(), doc.SourceName(), doc.ByteSize(),
		doc.UploadedAt().UnixMilli(), doc.ChunkCount(),
	)
	if err != nil {
		return fmt.Errorf("put document %s/%s: %w", doc.Scope(), doc.ID(), err)
	}
	return nil
}

// List returns the documents of a scope, newest first.
func (r *Repo) List(ctx context.Context, scope string) ([]domdoc.Document, error) {
	rows, err := r.store.QueryContext(ctx, `
        SELECT id, source_name, byte_size, uploaded_at, chunk_count
        FROM documents
        WHERE scope = ?
        ORDER BY uploaded_at DESC, id ASC`, scope)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", scope, err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]domdoc.Document, 0)
	for rows.Next() {
		var (
			id, name   string
			size       int64
			uploadedMs int64
			chunks     int
		)
		if err := rows.Scan(&id, &name, &size, &uploadedMs, &chunks); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, domdoc.Reconstruct(id, scope, name, size, time.UnixMilli(uploadedMs).UTC(), chunks))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Delete removes one document. Returns ErrNotFound when it is not registered.
func (r *Repo) Delete(ctx context.Context, scope, id string) error {
	res, err := r.store.ExecContext(ctx, `DELETE FROM documents WHERE scope = ? AND id = ?`, scope, id)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", scope, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", scope, id, err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteScope removes every document of a scope and returns how many were removed.
func (r *Repo) DeleteScope(ctx context.Context, scope string) (int, error) {
	res, err := r.store.ExecContext(ctx, `DELETE FROM documents WHERE scope = ?`, scope)
	if err != nil {
		return 0, fmt.Errorf("delete documents %s: %w", scope, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete documents %s: %w", scope, err)
	}
	return int(n), nil
}

// Ping checks the registry connection.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.PingContext(ctx); err != nil {
		return fmt.Errorf("ping registry: %w", err)
	}
	return nil
}
