package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/crmhub/backend/internal/domain/crm"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// StoreContactRepository implements crm.ContactRepository.
type StoreContactRepository struct {
	store store.Store
}

// NewStoreContactRepository creates a contact repository.
func NewStoreContactRepository(s store.Store) *StoreContactRepository {
	return &StoreContactRepository{store: s}
}

var _ crm.ContactRepository = (*StoreContactRepository)(nil)

func (r *StoreContactRepository) Save(ctx context.Context, tenantID string, contact *crm.Contact) error {
	attrs, err := encodeAttributes(contact)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.Put(ctx, &store.Item{
		PK:         tenantPK(tenantID),
		SK:         contactSK(contact.ID),
		EntityType: typeContact,
		Attributes: attrs,
	}))
}

func (r *StoreContactRepository) Get(ctx context.Context, tenantID, contactID string) (*crm.Contact, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), contactSK(contactID))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[crm.Contact](item)
}

func (r *StoreContactRepository) Delete(ctx context.Context, tenantID, contactID string) error {
	return mapStoreErr(r.store.Delete(ctx, tenantPK(tenantID), contactSK(contactID)))
}

func (r *StoreContactRepository) List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*crm.Contact], error) {
	items, next, err := r.store.Query(ctx, tenantPK(tenantID), store.QueryOptions{
		Prefix: contactPrefix,
		Limit:  shared.ClampPageSize(limit),
		Cursor: cursor,
	})
	if err != nil {
		return shared.Page[*crm.Contact]{}, mapStoreErr(err)
	}
	contacts := make([]*crm.Contact, 0, len(items))
	for i := range items {
		c, err := decodeAttributes[crm.Contact](&items[i])
		if err != nil {
			return shared.Page[*crm.Contact]{}, err
		}
		contacts = append(contacts, c)
	}
	return shared.Page[*crm.Contact]{Items: contacts, NextCursor: next}, nil
}

// StoreMessageRepository implements crm.MessageRepository. Phone lines
// live outside any tenant partition so an inbound webhook can resolve
// the destination number before it knows the tenant.
type StoreMessageRepository struct {
	store store.Store
}

// NewStoreMessageRepository creates a message repository.
func NewStoreMessageRepository(s store.Store) *StoreMessageRepository {
	return &StoreMessageRepository{store: s}
}

var _ crm.MessageRepository = (*StoreMessageRepository)(nil)

func (r *StoreMessageRepository) Save(ctx context.Context, tenantID string, message *crm.Message) error {
	attrs, err := encodeAttributes(message)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.Put(ctx, &store.Item{
		PK:         tenantPK(tenantID),
		SK:         messageSK(message.ID),
		EntityType: typeMessage,
		Attributes: attrs,
	}))
}

func (r *StoreMessageRepository) Get(ctx context.Context, tenantID, messageID string) (*crm.Message, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), messageSK(messageID))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[crm.Message](item)
}

func (r *StoreMessageRepository) List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*crm.Message], error) {
	items, next, err := r.store.Query(ctx, tenantPK(tenantID), store.QueryOptions{
		Prefix: messagePrefix,
		Limit:  shared.ClampPageSize(limit),
		Cursor: cursor,
	})
	if err != nil {
		return shared.Page[*crm.Message]{}, mapStoreErr(err)
	}
	messages := make([]*crm.Message, 0, len(items))
	for i := range items {
		m, err := decodeAttributes[crm.Message](&items[i])
		if err != nil {
			return shared.Page[*crm.Message]{}, err
		}
		messages = append(messages, m)
	}
	return shared.Page[*crm.Message]{Items: messages, NextCursor: next}, nil
}

type phoneLine struct {
	TenantID string `json:"tenant_id"`
	Number   string `json:"number"`
}

func (r *StoreMessageRepository) ResolveTenantByPhone(ctx context.Context, toNumber string) (string, error) {
	key := phoneLineKey(toNumber)
	item, err := r.store.Get(ctx, key, key)
	if err != nil {
		return "", mapStoreErr(err)
	}
	line, err := decodeAttributes[phoneLine](item)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line.TenantID) == "" {
		return "", shared.ErrNotFound
	}
	return line.TenantID, nil
}

// RegisterPhoneLine claims a number. A number already routing to
// another tenant conflicts; re-registering an owned number is a no-op.
func (r *StoreMessageRepository) RegisterPhoneLine(ctx context.Context, tenantID, number string) error {
	attrs, err := encodeAttributes(phoneLine{TenantID: tenantID, Number: normalizePhone(number)})
	if err != nil {
		return err
	}
	key := phoneLineKey(number)
	err = r.store.PutIfAbsent(ctx, &store.Item{
		PK:         key,
		SK:         key,
		EntityType: typePhoneLine,
		Attributes: attrs,
	})
	if errors.Is(err, store.ErrItemExists) {
		owner, resolveErr := r.ResolveTenantByPhone(ctx, number)
		if resolveErr == nil && owner == tenantID {
			return nil
		}
		return shared.ErrConflict
	}
	return mapStoreErr(err)
}
