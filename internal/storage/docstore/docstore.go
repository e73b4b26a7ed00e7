// Package docstore implements the remote document store backend over
// PostgreSQL, one JSONB row per document.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/craftedcrochet/storefront/internal/storage"
)

// Record is the persistence model for one document.
type Record struct {
	Collection string `gorm:"primaryKey"`
	DocID      string `gorm:"primaryKey;column:doc_id"`
	Data       []byte `gorm:"type:jsonb;not null"`
}

func (Record) TableName() string {
	return "documents"
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Read(ctx context.Context, collection string) ([]storage.Document, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}

	docs := make([]storage.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, storage.Document{ID: r.DocID, Data: json.RawMessage(r.Data)})
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (storage.Document, error) {
	var r Record
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return storage.Document{ID: r.DocID, Data: json.RawMessage(r.Data)}, nil
}

func (s *Store) Write(ctx context.Context, collection, id string, data json.RawMessage) error {
	record := Record{Collection: collection, DocID: id, Data: data}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	res := s.db.WithContext(ctx).
		Model(&Record{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Update("data", []byte(data))
	if res.Error != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&Record{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Replace(ctx context.Context, collection string, docs []storage.Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", collection).Delete(&Record{}).Error; err != nil {
			return fmt.Errorf("failed to clear collection %s: %w", collection, err)
		}
		for _, d := range docs {
			record := Record{Collection: collection, DocID: d.ID, Data: d.Data}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to insert %s/%s: %w", collection, d.ID, err)
			}
		}
		return nil
	})
}
