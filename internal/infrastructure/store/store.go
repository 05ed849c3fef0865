// Package store implements the keyed item store every repository is
// built on: a single wide table addressed by (partition key, sort key)
// with one secondary index and batched conditional writes.
package store

import "context"

// IndexKey addresses the secondary index.
type IndexKey struct {
	PK string
	SK string
}

// Patch describes a partial update to an existing item. Attribute keys
// are merged into the JSON document; nil values remove the key.
// Quantity and Index replace the promoted columns when set.
type Patch struct {
	Attributes map[string]any
	Quantity   *int64
	Index      *IndexKey
}

// QueryOptions narrows a partition query. Prefix and the Start/End
// bounds apply to the sort key and may be combined. Cursor resumes a
// previous page; malformed cursors restart from the beginning.
type QueryOptions struct {
	Prefix     string
	Start      string // inclusive lower bound on sk
	End        string // inclusive upper bound on sk
	Limit      int
	Cursor     string
	Descending bool
}

// ConditionalAdd adjusts the promoted quantity column of one item. When
// Require is set the update only applies if quantity >= *Require; a
// failed guard (or a missing row) fails the whole batch.
type ConditionalAdd struct {
	PK      string
	SK      string
	Delta   int64
	Require *int64
}

// WriteOp is one element of an atomic batch. Exactly one field is set.
type WriteOp struct {
	Put            *Item
	ConditionalAdd *ConditionalAdd
}

// Store is the keyed item store. All operations are tenant-agnostic;
// isolation comes from the partition key the caller supplies.
type Store interface {
	// Get returns the item or ErrItemNotFound.
	Get(ctx context.Context, pk, sk string) (*Item, error)

	// Put creates or replaces the item.
	Put(ctx context.Context, item *Item) error

	// PutIfAbsent creates the item, or returns ErrItemExists when the
	// key is already taken.
	PutIfAbsent(ctx context.Context, item *Item) error

	// Update applies a partial patch and returns the updated item, or
	// ErrItemNotFound.
	Update(ctx context.Context, pk, sk string, patch Patch) (*Item, error)

	// Delete removes the item, or returns ErrItemNotFound.
	Delete(ctx context.Context, pk, sk string) error

	// Query lists items of one partition in sort-key order and returns
	// an opaque cursor for the next page ("" when exhausted).
	Query(ctx context.Context, pk string, opts QueryOptions) ([]Item, string, error)

	// QueryIndex lists items by secondary index key, optionally
	// narrowed by an index sort-key prefix.
	QueryIndex(ctx context.Context, indexPK, indexSKPrefix string) ([]Item, error)

	// AtomicWrite applies every op in one transaction. Any failed
	// guard aborts the batch with *PreconditionError; no partial
	// application is ever observable.
	AtomicWrite(ctx context.Context, ops []WriteOp) error
}
