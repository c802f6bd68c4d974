package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// document is the single table backing every collection.
type document struct {
	Collection string         `gorm:"primaryKey;size:64"`
	Key        string         `gorm:"column:doc_key;primaryKey;size:255"`
	Data       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (document) TableName() string { return "documents" }

// createRetries bounds the insert race in Update when two writers see the
// same missing key.
const createRetries = 3

// Gorm stores documents in a relational database through gorm. Works with the
// postgres and mysql dialectors.
type Gorm struct {
	db *gorm.DB
}

// NewGorm migrates the documents table and returns the adapter.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(ctx context.Context, collection, key string, dst interface{}) (bool, error) {
	var doc document
	err := g.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(doc.Data, dst); err != nil {
		return true, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return true, nil
}

func (g *Gorm) Set(ctx context.Context, collection, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&document{Collection: collection, Key: key, Data: datatypes.JSON(b)}).Error
}

func (g *Gorm) Merge(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	return g.Update(ctx, collection, key, func(current []byte, _ bool) (interface{}, error) {
		return MergeFields(current, fields)
	})
}

func (g *Gorm) Create(ctx context.Context, collection, key string, v interface{}) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	return g.insertIfAbsent(g.db.WithContext(ctx), collection, key, b)
}

func (g *Gorm) insertIfAbsent(tx *gorm.DB, collection, key string, b []byte) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&document{Collection: collection, Key: key, Data: datatypes.JSON(b)})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Update locks the row with SELECT ... FOR UPDATE inside a transaction. A
// missing row cannot be locked, so the first write is an insert that loses
// cleanly to a concurrent insert and is then retried against the new row.
func (g *Gorm) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	for attempt := 0; attempt < createRetries; attempt++ {
		retry := false
		err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var doc document
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("collection = ? AND doc_key = ?", collection, key).
				First(&doc).Error
			exists := true
			if errors.Is(err, gorm.ErrRecordNotFound) {
				exists = false
			} else if err != nil {
				return err
			}

			var current []byte
			if exists {
				current = doc.Data
			}
			next, err := fn(current, exists)
			if err != nil {
				return err
			}
			b, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", collection, key, err)
			}

			if exists {
				return tx.Model(&document{}).
					Where("collection = ? AND doc_key = ?", collection, key).
					Updates(map[string]interface{}{"data": datatypes.JSON(b), "updated_at": time.Now()}).Error
			}
			inserted, err := g.insertIfAbsent(tx, collection, key, b)
			if err != nil {
				return err
			}
			if !inserted {
				retry = true
			}
			return nil
		})
		if errors.Is(err, ErrSkipWrite) {
			return nil
		}
		if err != nil {
			return err
		}
		if !retry {
			return nil
		}
	}
	return fmt.Errorf("update %s/%s: lost insert race %d times", collection, key, createRetries)
}

func (g *Gorm) Delete(ctx context.Context, collection, key string) error {
	return g.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Delete(&document{}).Error
}

// Query pushes string equality filters down to the database as JSON path
// comparisons and evaluates every filter again on the decoded rows, which
// covers range and array filters the JSON helpers cannot express portably.
func (g *Gorm) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q := g.db.WithContext(ctx).Model(&document{}).Where("collection = ?", collection)
	for _, f := range filters {
		if s, ok := f.Value.(string); ok && f.Op == OpEq {
			q = q.Where(datatypes.JSONQuery("data").Equals(s, f.Field))
		}
	}

	var rows []document
	if err := q.Order("doc_key asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(rows))
	for _, r := range rows {
		ok, err := Matches(r.Data, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Document{Key: r.Key, Data: r.Data})
		}
	}
	return out, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
