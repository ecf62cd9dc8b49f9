// Package database persists index records in bbolt, one bucket per index
// plus a bucket listing the known index keys.
package database

import (
	"context"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	"spindex/internal/database"
	"spindex/internal/index/model"
)

const (
	indexKeys = "index:keys:"
	prefix    = "points:"
)

type FilterFn func(rec model.Record) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Keys returns the IDs of every index that has ever stored a record.
func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(indexKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

func (db *DB) AppendMany(_ context.Context, recs []model.Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, rec := range recs {
			b := tx.Bucket([]byte(prefix + rec.IndexID))
			if b == nil {
				indexBucket, err := tx.CreateBucket([]byte(prefix + rec.IndexID))
				if err != nil {
					return fmt.Errorf("create bucket: %w", err)
				}
				b = indexBucket
			}
			data, err := encodeRecord(rec)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(rec.ID.String()), data); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			keysBucket := tx.Bucket([]byte(indexKeys))
			if keysBucket == nil {
				created, err := tx.CreateBucket([]byte(indexKeys))
				if err != nil {
					return fmt.Errorf("unable create keys bucket: %w", err)
				}
				keysBucket = created
			}
			if err := keysBucket.Put([]byte(prefix+rec.IndexID), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to keys bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, recs []model.Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, rec := range recs {
			b := tx.Bucket([]byte(prefix + rec.IndexID))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(rec.ID.String())); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) Delete(_ context.Context, rec model.Record) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + rec.IndexID))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(rec.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) CountByIndex(indexID string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + indexID))
		if b == nil {
			length = 0
			return nil
		}
		stats := b.Stats()
		length = stats.KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %v", err)
	}

	return length, nil
}

func (db *DB) FindByIndex(indexID string, filter FilterFn) ([]model.Record, error) {
	var list []model.Record
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + indexID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			if filter == nil || filter(rec) {
				list = append(list, rec)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return list, nil
}
