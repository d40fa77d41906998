package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type document struct {
	Collection string `gorm:"primaryKey"`
	Body       string
	UpdatedAt  time.Time
}

func (document) TableName() string {
	return "documents"
}

// GormStore keeps each collection as one row of the documents table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Read(ctx context.Context, collection string) ([]byte, error) {
	var docs []document
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Limit(1).Find(&docs).Error; err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotExist
	}
	return []byte(docs[0].Body), nil
}

func (s *GormStore) Write(ctx context.Context, docs ...Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, doc := range docs {
			row := document{Collection: doc.Collection, Body: string(doc.Data), UpdatedAt: time.Now()}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "collection"}},
				DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) Create(ctx context.Context, collection string, data []byte) (bool, error) {
	row := document{Collection: collection, Body: string(data), UpdatedAt: time.Now()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
