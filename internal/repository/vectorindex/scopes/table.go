// Package scopes serializes vector index work per scope and reclaims idle scopes.
//
// Every scope owns a sync.RWMutex: reads share it, writes and reclamation take
// it exclusively. The table also counts in-flight and waiting callers so that
// reclamation never removes a scope somebody is about to use.
package scopes

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

type entry[T any] struct {
	mu       sync.RWMutex
	state    T
	inflight int       // guarded by Table.mu
	lastUsed time.Time // guarded by Table.mu
}

// Table maps scope names to per-scope state of type T.
type Table[T any] struct {
	mu       sync.Mutex
	entries  map[string]*entry[T]
	newState func() T
	now      func() time.Time
}

// New creates a table. newState builds the state of a scope on first use.
func New[T any](newState func() T) *Table[T] {
	return &Table[T]{
		entries:  make(map[string]*entry[T]),
		newState: newState,
		now:      time.Now,
	}
}

// WithClock replaces the time source (tests).
func (t *Table[T]) WithClock(now func() time.Time) *Table[T] {
	t.now = now
	return t
}

// Read runs fn with the scope's shared lock held. A scope nobody has written
// is not tracked: fn gets a fresh state and the table does not grow.
func (t *Table[T]) Read(name string, fn func(T) error) error {
	e := t.acquireExisting(name)
	if e == nil {
		return fn(t.newState())
	}
	defer t.release(e)

	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.state)
}

// Write runs fn with the scope's exclusive lock held.
func (t *Table[T]) Write(name string, fn func(T) error) error {
	e := t.acquire(name)
	defer t.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.state)
}

// Len returns the number of tracked scopes.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Reclaim calls cleanup for every scope idle longer than ttl and forgets it.
// A scope qualifies only with no in-flight or waiting callers, and the idle
// check is repeated under the exclusive lock before cleanup runs. A scope is
// skipped when cleanup fails. Returns the reclaimed names in sorted order.
func (t *Table[T]) Reclaim(ctx context.Context, ttl time.Duration, cleanup func(name string, state T) error) ([]string, error) {
	type candidate struct {
		name     string
		e        *entry[T]
		lastUsed time.Time
	}

	t.mu.Lock()
	now := t.now()
	var cands []candidate
	for name, e := range t.entries {
		if e.inflight == 0 && now.Sub(e.lastUsed) > ttl {
			e.inflight++
			cands = append(cands, candidate{name: name, e: e, lastUsed: e.lastUsed})
		}
	}
	t.mu.Unlock()

	slices.SortFunc(cands, func(a, b candidate) int { return cmp.Compare(a.name, b.name) })

	var (
		reclaimed []string
		firstErr  error
	)
	for _, c := range cands {
		if firstErr == nil && ctx.Err() == nil {
			ok, err := t.reclaimOne(c.name, c.e, c.lastUsed, cleanup)
			switch {
			case err != nil:
				firstErr = err
			case ok:
				reclaimed = append(reclaimed, c.name)
			}
		}
		t.mu.Lock()
		c.e.inflight--
		t.mu.Unlock()
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return reclaimed, firstErr
}

func (t *Table[T]) reclaimOne(name string, e *entry[T], seen time.Time, cleanup func(string, T) error) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t.mu.Lock()
	stillIdle := e.inflight == 1 && e.lastUsed.Equal(seen)
	t.mu.Unlock()
	if !stillIdle {
		return false, nil
	}

	if err := cleanup(name, e.state); err != nil {
		return false, err
	}

	t.mu.Lock()
	// anyone arriving during cleanup holds e and sees the cleaned state
	if e.inflight == 1 && t.entries[name] == e {
		delete(t.entries, name)
	}
	t.mu.Unlock()
	return true, nil
}

func (t *Table[T]) acquire(name string) *entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[name]
	if !ok {
		e = &entry[T]{state: t.newState()}
		t.entries[name] = e
	}
	e.inflight++
	e.lastUsed = t.now()
	return e
}

func (t *Table[T]) acquireExisting(name string) *entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[name]
	if !ok {
		return nil
	}
	e.inflight++
	e.lastUsed = t.now()
	return e
}

func (t *Table[T]) release(e *entry[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.inflight--
	e.lastUsed = t.now()
}
