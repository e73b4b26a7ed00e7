// Package sqlitestore implements the durable local store over an
// embedded sqlite database. It is the cache tier of the backend chain:
// the last thing consulted on reads and the place writes land when
// every remote backend is down.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/craftedcrochet/storefront/internal/storage"
)

type Store struct {
	db *sqlx.DB
}

type row struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (collection, id)
)`

// New prepares the documents table and returns the store.
func New(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Name() string { return "sqlite" }

func (s *Store) Read(ctx context.Context, collection string) ([]storage.Document, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}

	docs := make([]storage.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, storage.Document{ID: r.ID, Data: json.RawMessage(r.Data)})
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (storage.Document, error) {
	var r row
	err := s.db.GetContext(ctx, &r,
		`SELECT id, data FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return storage.Document{ID: r.ID, Data: json.RawMessage(r.Data)}, nil
}

func (s *Store) Write(ctx context.Context, collection, id string, data json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`,
		collection, id, string(data))
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET data = ? WHERE collection = ? AND id = ?`,
		string(data), collection, id)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Replace(ctx context.Context, collection string, docs []storage.Document) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`,
			collection, d.ID, string(d.Data)); err != nil {
			return fmt.Errorf("failed to insert %s/%s: %w", collection, d.ID, err)
		}
	}
	return tx.Commit()
}
