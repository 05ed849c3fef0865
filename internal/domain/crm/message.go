package crm

import (
	"github.com/crmhub/backend/internal/domain/shared"
)

// MessageCategory groups conversations for triage.
type MessageCategory string

const (
	MessageCategoryActive     MessageCategory = "active"
	MessageCategoryIncomplete MessageCategory = "incomplete"
	MessageCategoryClosed     MessageCategory = "closed"
)

func (c MessageCategory) IsValid() bool {
	switch c {
	case MessageCategoryActive, MessageCategoryIncomplete, MessageCategoryClosed:
		return true
	}
	return false
}

// DefaultChannel is assumed when a message arrives without one.
const DefaultChannel = "whatsapp"

// Message is one inbound or outbound message on a tenant's channel.
// ProcessedFlags is free-form state left by downstream automations.
type Message struct {
	ID               string          `json:"id"`
	Channel          string          `json:"channel"`
	Category         MessageCategory `json:"category"`
	ChannelMessageID string          `json:"channel_message_id,omitempty"`
	FromNumber       string          `json:"from_number,omitempty"`
	ToNumber         string          `json:"to_number,omitempty"`
	Text             string          `json:"text,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
	ContactID        string          `json:"contact_id,omitempty"`
	ProcessedFlags   map[string]any  `json:"processed_flags,omitempty"`
	CreatedAt        string          `json:"created_at"`
}

// NewMessage creates a message with channel and category defaults.
func NewMessage(channel string, category MessageCategory) (*Message, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	if category == "" {
		category = MessageCategoryActive
	}
	if !category.IsValid() {
		return nil, shared.NewValidationError("category", "must be one of: active, incomplete, closed")
	}
	return &Message{
		ID:        shared.NewID(),
		Channel:   channel,
		Category:  category,
		CreatedAt: shared.NowISO(),
	}, nil
}

func (m *Message) GetID() string        { return m.ID }
func (m *Message) GetCreatedAt() string { return m.CreatedAt }
