// Package crm holds the contact and message entities.
package crm

import (
	"strings"

	"github.com/crmhub/backend/internal/domain/shared"
)

// LeadStatus is where a contact sits in the sales funnel.
type LeadStatus string

const (
	LeadStatusProspect   LeadStatus = "prospect"
	LeadStatusInterested LeadStatus = "interested"
	LeadStatusClosedWon  LeadStatus = "closed_won"
	LeadStatusAbandoned  LeadStatus = "abandoned"
)

func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusProspect, LeadStatusInterested, LeadStatusClosedWon, LeadStatusAbandoned:
		return true
	}
	return false
}

// Tier is the contact's loyalty tier.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

func (t Tier) IsValid() bool {
	return t == TierBronze || t == TierSilver || t == TierGold
}

// Contact is a customer or lead owned by one tenant.
type Contact struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	Email          string     `json:"email,omitempty"`
	SourceChannel  string     `json:"source_channel,omitempty"`
	LeadStatus     LeadStatus `json:"lead_status"`
	Tier           Tier       `json:"tier"`
	LastActivityTS string     `json:"last_activity_ts,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	CreatedAt      string     `json:"created_at"`
}

// NewContact creates a contact with funnel defaults applied.
func NewContact(name string) (*Contact, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	return &Contact{
		ID:         shared.NewID(),
		Name:       strings.TrimSpace(name),
		LeadStatus: LeadStatusProspect,
		Tier:       TierBronze,
		CreatedAt:  shared.NowISO(),
	}, nil
}

// Validate checks the contact invariants.
func (c *Contact) Validate() error {
	if c.ID == "" {
		return shared.NewValidationError("id", "is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return shared.NewValidationError("name", "is required")
	}
	if c.LeadStatus != "" && !c.LeadStatus.IsValid() {
		return shared.NewValidationError("lead_status", "must be one of: prospect, interested, closed_won, abandoned")
	}
	if c.Tier != "" && !c.Tier.IsValid() {
		return shared.NewValidationError("tier", "must be one of: bronze, silver, gold")
	}
	return nil
}

func (c *Contact) GetID() string        { return c.ID }
func (c *Contact) GetCreatedAt() string { return c.CreatedAt }
