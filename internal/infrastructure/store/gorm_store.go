package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// indexQueryCap bounds unpaginated secondary-index lookups.
const indexQueryCap = 1000

// GormStore implements Store on a relational wide table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an existing connection pool. The store never opens
// or closes connections itself; the handle's lifetime belongs to the
// caller.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, pk, sk string) (*Item, error) {
	var item Item
	err := s.db.WithContext(ctx).
		Where("pk = ? AND sk = ?", pk, sk).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, wrapErr("get", err)
	}
	return &item, nil
}

func (s *GormStore) Put(ctx context.Context, item *Item) error {
	if err := upsert(s.db.WithContext(ctx), item); err != nil {
		return wrapErr("put", err)
	}
	return nil
}

func (s *GormStore) PutIfAbsent(ctx context.Context, item *Item) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pk"}, {Name: "sk"}},
			DoNothing: true,
		}).
		Create(item)
	if res.Error != nil {
		return wrapErr("put_if_absent", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrItemExists
	}
	return nil
}

// Update merges the patch into the stored item inside a transaction,
// holding a row lock across the read-modify-write so concurrent patches
// serialize instead of overwriting each other's attribute merges.
func (s *GormStore) Update(ctx context.Context, pk, sk string, patch Patch) (*Item, error) {
	var updated Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item Item
		if err := lockForUpdate(tx).Where("pk = ? AND sk = ?", pk, sk).
			First(&item).Error; err != nil {
			return err
		}

		if len(patch.Attributes) > 0 {
			merged, err := mergeAttributes(item.Attributes, patch.Attributes)
			if err != nil {
				return err
			}
			item.Attributes = merged
		}
		if patch.Quantity != nil {
			item.Quantity = patch.Quantity
		}
		if patch.Index != nil {
			item.IndexPK = patch.Index.PK
			item.IndexSK = patch.Index.SK
		}
		item.UpdatedAt = time.Now().UTC()

		if err := tx.Model(&Item{}).Where("pk = ? AND sk = ?", pk, sk).
			Select("gsi1pk", "gsi1sk", "quantity", "attributes", "updated_at").
			Updates(map[string]any{
				"gsi1pk":     item.IndexPK,
				"gsi1sk":     item.IndexSK,
				"quantity":   item.Quantity,
				"attributes": item.Attributes,
				"updated_at": item.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, wrapErr("update", err)
	}
	return &updated, nil
}

func (s *GormStore) Delete(ctx context.Context, pk, sk string) error {
	res := s.db.WithContext(ctx).
		Where("pk = ? AND sk = ?", pk, sk).
		Delete(&Item{})
	if res.Error != nil {
		return wrapErr("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *GormStore) Query(ctx context.Context, pk string, opts QueryOptions) ([]Item, string, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	q := s.db.WithContext(ctx).Model(&Item{}).Where("pk = ?", pk)
	if opts.Prefix != "" {
		q = q.Where("sk LIKE ?", escapeLike(opts.Prefix)+"%")
	}
	if opts.Start != "" {
		q = q.Where("sk >= ?", opts.Start)
	}
	if opts.End != "" {
		q = q.Where("sk <= ?", opts.End)
	}

	if pos := decodeCursor(opts.Cursor); pos != nil && pos.PK == pk {
		if opts.Descending {
			q = q.Where("sk < ?", pos.SK)
		} else {
			q = q.Where("sk > ?", pos.SK)
		}
	}

	order := "sk ASC"
	if opts.Descending {
		order = "sk DESC"
	}

	var items []Item
	// one extra row tells us whether another page exists
	if err := q.Order(order).Limit(limit + 1).Find(&items).Error; err != nil {
		return nil, "", wrapErr("query", err)
	}

	next := ""
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = encodeCursor(last.PK, last.SK)
	}
	return items, next, nil
}

func (s *GormStore) QueryIndex(ctx context.Context, indexPK, indexSKPrefix string) ([]Item, error) {
	q := s.db.WithContext(ctx).Model(&Item{}).Where("gsi1pk = ?", indexPK)
	if indexSKPrefix != "" {
		q = q.Where("gsi1sk LIKE ?", escapeLike(indexSKPrefix)+"%")
	}
	var items []Item
	if err := q.Order("gsi1sk ASC").Limit(indexQueryCap).Find(&items).Error; err != nil {
		return nil, wrapErr("query_index", err)
	}
	return items, nil
}

func (s *GormStore) AtomicWrite(ctx context.Context, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, op := range ops {
			switch {
			case op.Put != nil:
				if err := upsert(tx, op.Put); err != nil {
					return wrapErr("atomic_write", err)
				}
			case op.ConditionalAdd != nil:
				if err := applyConditionalAdd(tx, i, op.ConditionalAdd); err != nil {
					return err
				}
			default:
				return wrapErr("atomic_write", fmt.Errorf("op %d is empty", i))
			}
		}
		return nil
	})
	return err
}

// applyConditionalAdd issues a guarded UPDATE. Zero rows affected means
// either the row is missing or the guard failed; both abort the batch.
func applyConditionalAdd(tx *gorm.DB, index int, add *ConditionalAdd) error {
	q := tx.Model(&Item{}).Where("pk = ? AND sk = ?", add.PK, add.SK)
	if add.Require != nil {
		q = q.Where("quantity >= ?", *add.Require)
	}
	res := q.UpdateColumns(map[string]any{
		"quantity":   gorm.Expr("quantity + ?", add.Delta),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return wrapErr("atomic_write", res.Error)
	}
	if res.RowsAffected == 0 {
		return &PreconditionError{Index: index, PK: add.PK, SK: add.SK}
	}
	return nil
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports
// it. sqlite has no row locks and serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func upsert(tx *gorm.DB, item *Item) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pk"}, {Name: "sk"}},
		UpdateAll: true,
	}).Create(item).Error
}

// mergeAttributes applies patch keys onto the stored JSON document.
// A nil patch value deletes the key.
func mergeAttributes(current string, patch map[string]any) (string, error) {
	doc := map[string]json.RawMessage{}
	if current != "" {
		if err := json.Unmarshal([]byte(current), &doc); err != nil {
			return "", fmt.Errorf("corrupt attributes document: %w", err)
		}
	}
	for key, value := range patch {
		if value == nil {
			delete(doc, key)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("marshal attribute %q: %w", key, err)
		}
		doc[key] = raw
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(merged), nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
