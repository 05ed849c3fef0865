package store

import "time"

// Item is one row in the wide keyed table. Every entity in the system is
// stored as an Item: the partition key isolates a tenant, the sort key
// carries the entity type and identifier, and the entity document lives
// in the attributes JSON column.
//
// Quantity is promoted out of the document into its own column so that
// conditional stock guards can be expressed as guarded UPDATEs. Rows for
// entities without a quantity leave it NULL.
type Item struct {
	PK         string `gorm:"column:pk;primaryKey;size:128"`
	SK         string `gorm:"column:sk;primaryKey;size:256"`
	EntityType string `gorm:"column:entity_type;size:32;index:idx_items_entity_type"`
	IndexPK    string `gorm:"column:gsi1pk;size:128;index:idx_items_gsi1,priority:1"`
	IndexSK    string `gorm:"column:gsi1sk;size:256;index:idx_items_gsi1,priority:2"`
	Quantity   *int64 `gorm:"column:quantity"`
	Attributes string `gorm:"column:attributes;type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName pins the table name regardless of gorm naming strategy.
func (Item) TableName() string {
	return "items"
}
