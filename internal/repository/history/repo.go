package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
)

// store is the consumer interface for conversation history (ISP).
type store interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Repo stores append-only conversation turns per session.
type Repo struct {
	store store
	now   func() time.Time
}

// New creates a history repository.
func New(s store) *Repo {
	return &Repo{store: s, now: time.Now}
}

// Append adds turns to the end of a session's history in order.
func (r *Repo) Append(ctx context.Context, session string, turns ...conversation.Turn) error {
	ts := r.now().UnixMilli()
	for _, t := range turns {
		_, err := r.store.ExecContext(ctx,
			`INSERT INTO turns (session, role, content, created_at) VALUES (?, ?, ?, ?)`,
			session, t.Role(), t.Content(), ts,
		)
		if err != nil {
			return fmt.Errorf("append turn %s: %w", session, err)
		}
	}
	return nil
}

// History returns the last limit turns, oldest first. limit <= 0 returns all turns.
func (r *Repo) History(ctx context.Context, session string, limit int) ([]conversation.Turn, error) {
	query := `SELECT role, content FROM (
            SELECT seq, role, content FROM turns WHERE session = ? ORDER BY seq DESC LIMIT ?
        ) ORDER BY seq ASC`
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := r.store.QueryContext(ctx, query, session, limit)
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", session, err)
	}
	defer func() { _ = rows.Close() }()

	turns := make([]conversation.Turn, 0)
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, conversation.Reconstruct(role, content))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return turns, nil
}

// Clear drops a session's history and returns the number of removed turns.
func (r *Repo) Clear(ctx context.Context, session string) (int, error) {
	res, err := r.store.ExecContext(ctx, `DELETE FROM turns WHERE session = ?`, session)
	if err != nil {
		return 0, fmt.Errorf("clear history %s: %w", session, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear history %s: %w", session, err)
	}
	return int(n), nil
}
