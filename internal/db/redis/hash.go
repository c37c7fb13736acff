package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ragdex/internal/db"
)

// HSetMulti stores multiple hashes in a single DoMulti round-trip.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return db.NewError(db.OpHSet, items[i].Key, err)
		}
	}
	return nil
}

// HGetMulti reads one field from many hashes in a single round-trip.
func (s *Store) HGetMulti(ctx context.Context, keys []string, field string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hget().Key(key).Field(field).Build()
	}

	out := make([]string, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		v, err := res.ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return nil, db.NewError(db.OpHGet, keys[i], err)
		}
		out[i] = v
	}
	return out, nil
}

// DelMulti deletes keys in batches of 500 and returns how many existed.
func (s *Store) DelMulti(ctx context.Context, keys []string) (int, error) {
	const batch = 500

	deleted := 0
	for start := 0; start < len(keys); start += batch {
		end := min(start+batch, len(keys))
		n, err := s.do(ctx, s.b().Del().Key(keys[start:end]...).Build()).AsInt64()
		if err != nil {
			return deleted, db.NewError(db.OpDel, "", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}

// Scan iterates keys matching a pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, db.NewError(db.OpScan, pattern, err)
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
