package redis

import (
	"cmp"
	"context"
	"math"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/db"
)

// fakeStore is an in-memory store with brute-force COSINE KNN.
type fakeStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	kv      map[string][]byte
	indexes map[string]*db.IndexDefinition

	hsetErr   error
	searchErr error
	created   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes:  make(map[string]map[string]string),
		kv:      make(map[string][]byte),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hsetErr != nil {
		return f.hsetErr
	}
	for _, it := range items {
		h, ok := f.hashes[it.Key]
		if !ok {
			h = make(map[string]string)
			f.hashes[it.Key] = h
		}
		for k, v := range it.Fields {
			h[k] = v
		}
	}
	return nil
}

func (f *fakeStore) HGetMulti(_ context.Context, keys []string, field string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = f.hashes[k][field]
	}
	return out, nil
}

func (f *fakeStore) DelMulti(_ context.Context, keys []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := f.hashes[k]; ok {
			delete(f.hashes, k)
			n++
		}
		if _, ok := f.kv[k]; ok {
			delete(f.kv, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = value
	return nil
}

func (f *fakeStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, _ := strconv.ParseInt(string(f.kv[key]), 10, 64)
	cur += val
	f.kv[key] = []byte(strconv.FormatInt(cur, 10))
	return cur, nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	f.indexes[def.Name] = def
	f.created++
	return nil
}

func (f *fakeStore) DropIndex(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(f.indexes, name)
	return nil
}

func (f *fakeStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	def, ok := f.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	var entries []db.SearchEntry
	for key, h := range f.hashes {
		if !strings.HasPrefix(key, def.Prefixes[0]) {
			continue
		}
		vec, err := db.DecodeVector([]byte(h[fieldVector]))
		if err != nil {
			return nil, err
		}
		fields := make(map[string]string, len(q.ReturnFields))
		for _, rf := range q.ReturnFields {
			fields[rf] = h[rf]
		}
		entries = append(entries, db.SearchEntry{Key: key, Score: cosineDistance(q.Vector, vec), Fields: fields})
	}
	slices.SortFunc(entries, func(a, b db.SearchEntry) int { return cmp.Compare(a.Score, b.Score) })
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func (f *fakeStore) SearchCount(_ context.Context, index, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	def, ok := f.indexes[index]
	if !ok {
		return 0, db.ErrIndexNotFound
	}
	n := 0
	for key := range f.hashes {
		if strings.HasPrefix(key, def.Prefixes[0]) {
			n++
		}
	}
	return n, nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func newTestIndex(t *testing.T) (*Index, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	return New(fs, "test:"), fs
}
