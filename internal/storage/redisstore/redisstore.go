// Package redisstore implements a document store backend over Redis,
// one hash per collection with document ids as fields.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/craftedcrochet/storefront/internal/storage"
)

const keyPrefix = "storefront:collection:%s"

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (s *Store) Name() string { return "redis" }

func (s *Store) key(collection string) string {
	return fmt.Sprintf(keyPrefix, collection)
}

func (s *Store) Read(ctx context.Context, collection string) ([]storage.Document, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}

	docs := make([]storage.Document, 0, len(fields))
	for id, data := range fields {
		docs = append(docs, storage.Document{ID: id, Data: json.RawMessage(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (storage.Document, error) {
	data, err := s.rdb.HGet(ctx, s.key(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return storage.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return storage.Document{ID: id, Data: json.RawMessage(data)}, nil
}

func (s *Store) Write(ctx context.Context, collection, id string, data json.RawMessage) error {
	if err := s.rdb.HSet(ctx, s.key(collection), id, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	exists, err := s.rdb.HExists(ctx, s.key(collection), id).Result()
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return s.Write(ctx, collection, id, data)
}

func (s *Store) Remove(ctx context.Context, collection, id string) error {
	n, err := s.rdb.HDel(ctx, s.key(collection), id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Replace(ctx context.Context, collection string, docs []storage.Document) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key(collection))
	if len(docs) > 0 {
		fields := make(map[string]interface{}, len(docs))
		for _, d := range docs {
			fields[d.ID] = string(d.Data)
		}
		pipe.HSet(ctx, s.key(collection), fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace collection %s: %w", collection, err)
	}
	return nil
}
