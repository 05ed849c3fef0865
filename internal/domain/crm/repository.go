package crm

import (
	"context"

	"github.com/crmhub/backend/internal/domain/shared"
)

// ContactRepository persists contacts within one tenant's partition.
type ContactRepository interface {
	Save(ctx context.Context, tenantID string, contact *Contact) error
	Get(ctx context.Context, tenantID, contactID string) (*Contact, error)
	Delete(ctx context.Context, tenantID, contactID string) error
	List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*Contact], error)
}

// MessageRepository persists messages and resolves inbound phone lines.
type MessageRepository interface {
	Save(ctx context.Context, tenantID string, message *Message) error
	Get(ctx context.Context, tenantID, messageID string) (*Message, error)
	List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*Message], error)

	// ResolveTenantByPhone maps an inbound destination number to the
	// tenant owning that line, or shared.ErrNotFound.
	ResolveTenantByPhone(ctx context.Context, toNumber string) (string, error)

	// RegisterPhoneLine claims a destination number for a tenant.
	RegisterPhoneLine(ctx context.Context, tenantID, number string) error
}
