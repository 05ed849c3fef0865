package persistence

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// encodeAttributes serializes an entity into the attributes document.
// Decimal fields marshal as JSON strings, so money survives the trip
// with no binary float representation involved.
func encodeAttributes(entity any) (string, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(raw), nil
}

// decodeAttributes deserializes the attributes document into an entity.
func decodeAttributes[T any](item *store.Item) (*T, error) {
	var entity T
	if err := json.Unmarshal([]byte(item.Attributes), &entity); err != nil {
		return nil, fmt.Errorf("decode %s attributes: %w", item.EntityType, err)
	}
	return &entity, nil
}

// mapStoreErr translates store sentinels into domain errors. Transport
// faults pass through wrapped so callers can tell them apart.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrItemNotFound):
		return shared.ErrNotFound
	case errors.Is(err, store.ErrItemExists):
		return shared.ErrConflict
	}
	var precondition *store.PreconditionError
	if errors.As(err, &precondition) {
		return shared.ErrPreconditionFailed
	}
	return err
}
