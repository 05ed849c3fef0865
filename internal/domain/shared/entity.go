package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all tenant-owned records.
type Entity interface {
	GetID() string
	GetCreatedAt() string
}

// NewID generates a record identifier. IDs are immutable once assigned.
func NewID() string {
	return uuid.NewString()
}

// NowISO returns the current UTC time in the canonical timestamp format
// used throughout the store. Sort keys embed these timestamps, so the
// format must sort chronologically.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
