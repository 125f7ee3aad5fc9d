// internal/model/campaign.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is a closed set. All mutations must go through the
// transition table below; writing an arbitrary string into the status
// column is not allowed anywhere in the codebase.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "Draft"
	CampaignQueued    CampaignStatus = "Queued"
	CampaignRunning   CampaignStatus = "Running"
	CampaignPaused    CampaignStatus = "Paused"
	CampaignCompleted CampaignStatus = "Completed"
	CampaignError     CampaignStatus = "Error"
)

// campaignTransitions holds every legal edge. Draft is initial, Completed
// and Error are terminal.
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:   {CampaignQueued},
	CampaignQueued:  {CampaignRunning},
	CampaignRunning: {CampaignPaused, CampaignCompleted, CampaignError},
	CampaignPaused:  {CampaignQueued},
}

// CanTransition reports whether from -> to is a legal edge.
func (s CampaignStatus) CanTransition(to CampaignStatus) bool {
	for _, next := range campaignTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the campaign can never change status again.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignCompleted || s == CampaignError
}

type Campaign struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	TenantID       uuid.UUID      `db:"tenant_id" json:"tenant_id"`
	Name           string         `db:"name" json:"name"`
	TemplateName   string         `db:"template_name" json:"template_name"`
	TemplateLang   string         `db:"template_lang" json:"template_lang"`
	ContactGroupID *uuid.UUID     `db:"contact_group_id" json:"contact_group_id,omitempty"`
	Status         CampaignStatus `db:"status" json:"status"`
	StatusReason   string         `db:"status_reason" json:"status_reason,omitempty"`
	TotalSent      int            `db:"total_sent" json:"total_sent"`
	TotalFailed    int            `db:"total_failed" json:"total_failed"`
	StartedAt      *time.Time     `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}
