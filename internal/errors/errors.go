// internal/errors/errors.go
package appErrors

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID uuid.UUID
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

func NewCampaignNotFound(id uuid.UUID) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrTenantNotFound struct {
	TenantID uuid.UUID
}

func (e *ErrTenantNotFound) Error() string {
	return fmt.Sprintf("tenant %s not found", e.TenantID)
}

func NewTenantNotFound(id uuid.UUID) error {
	return &ErrTenantNotFound{TenantID: id}
}

// ErrInvalidTransition is returned when a campaign status change does not
// match an edge in the transition table, or when the guarded UPDATE found
// the row in a different status than expected.
type ErrInvalidTransition struct {
	CampaignID uuid.UUID
	From, To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("campaign %s: illegal status transition %s -> %s", e.CampaignID, e.From, e.To)
}

func NewInvalidTransition(id uuid.UUID, from, to string) error {
	return &ErrInvalidTransition{CampaignID: id, From: from, To: to}
}
