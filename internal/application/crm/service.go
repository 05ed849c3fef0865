// Package crm implements contact and message use cases, including
// inbound channel webhook ingestion.
package crm

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/crmhub/backend/internal/domain/crm"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/logger"
)

// CreateContactInput carries a new contact.
type CreateContactInput struct {
	Name          string
	Phone         string
	Email         string
	SourceChannel string
	Tags          []string
}

// PatchContactInput patches contact fields. Nil pointers leave the
// field untouched.
type PatchContactInput struct {
	Name           *string
	Phone          *string
	Email          *string
	SourceChannel  *string
	LeadStatus     *string
	Tier           *string
	LastActivityTS *string
	Tags           []string
}

// CreateMessageInput records an outbound or manual message.
type CreateMessageInput struct {
	Channel          string
	Category         string
	ChannelMessageID string
	FromNumber       string
	ToNumber         string
	Text             string
	ContactID        string
	Metadata         map[string]any
}

// InboundMessage is one message delivered by a channel webhook.
type InboundMessage struct {
	ChannelMessageID string
	FromNumber       string
	ToNumber         string
	Text             string
	Metadata         map[string]any
}

// Service handles contacts and conversation messages.
type Service struct {
	contacts crm.ContactRepository
	messages crm.MessageRepository
}

// NewService creates the crm service.
func NewService(contacts crm.ContactRepository, messages crm.MessageRepository) *Service {
	return &Service{contacts: contacts, messages: messages}
}

// CreateContact adds a contact with funnel defaults.
func (s *Service) CreateContact(ctx context.Context, tenantID string, input CreateContactInput) (*crm.Contact, error) {
	contact, err := crm.NewContact(input.Name)
	if err != nil {
		return nil, err
	}
	contact.Phone = input.Phone
	contact.Email = input.Email
	contact.SourceChannel = input.SourceChannel
	contact.Tags = input.Tags

	if err := s.contacts.Save(ctx, tenantID, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// GetContact returns one contact or shared.ErrNotFound.
func (s *Service) GetContact(ctx context.Context, tenantID, contactID string) (*crm.Contact, error) {
	return s.contacts.Get(ctx, tenantID, contactID)
}

// ListContacts pages the tenant's contacts.
func (s *Service) ListContacts(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*crm.Contact], error) {
	return s.contacts.List(ctx, tenantID, limit, cursor)
}

// PatchContact updates contact fields with per-field enum validation.
func (s *Service) PatchContact(ctx context.Context, tenantID, contactID string, patch PatchContactInput) (*crm.Contact, error) {
	contact, err := s.contacts.Get(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		contact.Name = *patch.Name
	}
	if patch.Phone != nil {
		contact.Phone = *patch.Phone
	}
	if patch.Email != nil {
		contact.Email = *patch.Email
	}
	if patch.SourceChannel != nil {
		contact.SourceChannel = *patch.SourceChannel
	}
	if patch.LeadStatus != nil {
		contact.LeadStatus = crm.LeadStatus(*patch.LeadStatus)
	}
	if patch.Tier != nil {
		contact.Tier = crm.Tier(*patch.Tier)
	}
	if patch.LastActivityTS != nil {
		contact.LastActivityTS = *patch.LastActivityTS
	}
	if patch.Tags != nil {
		contact.Tags = patch.Tags
	}
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	if err := s.contacts.Save(ctx, tenantID, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// DeleteContact removes a contact.
func (s *Service) DeleteContact(ctx context.Context, tenantID, contactID string) error {
	return s.contacts.Delete(ctx, tenantID, contactID)
}

// CreateMessage records a message on the tenant's timeline.
func (s *Service) CreateMessage(ctx context.Context, tenantID string, input CreateMessageInput) (*crm.Message, error) {
	msg, err := crm.NewMessage(input.Channel, crm.MessageCategory(input.Category))
	if err != nil {
		return nil, err
	}
	msg.ChannelMessageID = input.ChannelMessageID
	msg.FromNumber = input.FromNumber
	msg.ToNumber = input.ToNumber
	msg.Text = input.Text
	msg.ContactID = input.ContactID
	msg.Metadata = input.Metadata

	if err := s.messages.Save(ctx, tenantID, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetMessage returns one message or shared.ErrNotFound.
func (s *Service) GetMessage(ctx context.Context, tenantID, messageID string) (*crm.Message, error) {
	return s.messages.Get(ctx, tenantID, messageID)
}

// ListMessages pages the tenant's messages, optionally narrowed to one
// contact. The contact filter applies within the fetched page.
func (s *Service) ListMessages(ctx context.Context, tenantID, contactID string, limit int, cursor string) (shared.Page[*crm.Message], error) {
	page, err := s.messages.List(ctx, tenantID, limit, cursor)
	if err != nil {
		return shared.Page[*crm.Message]{}, err
	}
	if contactID == "" {
		return page, nil
	}
	filtered := make([]*crm.Message, 0, len(page.Items))
	for _, msg := range page.Items {
		if msg.ContactID == contactID {
			filtered = append(filtered, msg)
		}
	}
	page.Items = filtered
	return page, nil
}

// PatchMessageFlags merges downstream automation flags onto a message.
func (s *Service) PatchMessageFlags(ctx context.Context, tenantID, messageID string, flags map[string]any) (*crm.Message, error) {
	msg, err := s.messages.Get(ctx, tenantID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ProcessedFlags == nil {
		msg.ProcessedFlags = map[string]any{}
	}
	for k, v := range flags {
		msg.ProcessedFlags[k] = v
	}

	if err := s.messages.Save(ctx, tenantID, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// RegisterPhoneLine claims an inbound number for a tenant so webhook
// deliveries to that number resolve here.
func (s *Service) RegisterPhoneLine(ctx context.Context, tenantID, number string) error {
	if number == "" {
		return shared.NewValidationError("number", "is required")
	}
	return s.messages.RegisterPhoneLine(ctx, tenantID, number)
}

// IngestInboundMessage stores a webhook-delivered message under the
// tenant owning the destination number. An unresolvable number is
// acknowledged as a no-op so the channel does not retry forever.
func (s *Service) IngestInboundMessage(ctx context.Context, inbound InboundMessage) (*crm.Message, error) {
	tenantID, err := s.messages.ResolveTenantByPhone(ctx, inbound.ToNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.L(ctx).Info("inbound message for unclaimed number dropped",
				zap.String("to_number", inbound.ToNumber))
			return nil, nil
		}
		return nil, err
	}

	msg, err := crm.NewMessage(crm.DefaultChannel, crm.MessageCategoryActive)
	if err != nil {
		return nil, err
	}
	msg.ChannelMessageID = inbound.ChannelMessageID
	msg.FromNumber = inbound.FromNumber
	msg.ToNumber = inbound.ToNumber
	msg.Text = inbound.Text
	msg.Metadata = inbound.Metadata

	if err := s.messages.Save(ctx, tenantID, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
