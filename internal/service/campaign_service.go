// internal/service/campaign_service.go
package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/wacrm-backend/internal/errors"
	"github.com/unclebandit/wacrm-backend/internal/model"
	"github.com/unclebandit/wacrm-backend/internal/queue"
	"github.com/unclebandit/wacrm-backend/internal/repository"
)

var (
	// ErrCampaignInProgress rejects re-triggers while a run is queued or live.
	ErrCampaignInProgress = errors.New("campaign is already queued or running")
	// ErrCampaignFinished rejects triggers on terminal campaigns.
	ErrCampaignFinished = errors.New("campaign has already finished")
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	MessageRepo  repository.MessageRepositoryInterface
	Queue        queue.Queue
}

// RunJob is the payload published on the campaign_runs topic.
type RunJob struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
}

type TriggerResult struct {
	CampaignID uuid.UUID            `json:"campaign_id"`
	Status     model.CampaignStatus `json:"status"`
}

// TriggerSend moves a Draft or Paused campaign to Queued and enqueues a run
// job. The Queued transition is guarded in SQL, so of two concurrent triggers
// only one enqueues; the other gets an in-progress rejection.
func (s *CampaignService) TriggerSend(campaignID, tenantID uuid.UUID) (*TriggerResult, error) {
	campaign, err := s.CampaignRepo.GetForTenant(campaignID, tenantID)
	if err != nil {
		return nil, err
	}

	switch campaign.Status {
	case model.CampaignQueued, model.CampaignRunning:
		return nil, ErrCampaignInProgress
	case model.CampaignCompleted, model.CampaignError:
		return nil, ErrCampaignFinished
	}

	if err := s.CampaignRepo.Transition(campaignID, campaign.Status, model.CampaignQueued, ""); err != nil {
		var invalid *appErrors.ErrInvalidTransition
		if errors.As(err, &invalid) {
			// Lost the race with another trigger.
			return nil, ErrCampaignInProgress
		}
		return nil, err
	}

	body, err := json.Marshal(RunJob{CampaignID: campaignID, TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	if err := s.Queue.Publish(queue.TopicCampaignRuns, body); err != nil {
		return nil, err
	}

	return &TriggerResult{CampaignID: campaignID, Status: model.CampaignQueued}, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(tenantID uuid.UUID, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.List(tenantID, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

type CampaignDetails struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	TemplateName string               `json:"template_name"`
	Status       model.CampaignStatus `json:"status"`
	StatusReason string               `json:"status_reason,omitempty"`
	TotalSent    int                  `json:"total_sent"`
	TotalFailed  int                  `json:"total_failed"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	Stats        map[string]int       `json:"stats"`
}

// GetCampaignDetails returns a campaign together with its ledger message
// counts grouped by status.
func (s *CampaignService) GetCampaignDetails(campaignID, tenantID uuid.UUID) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetForTenant(campaignID, tenantID)
	if err != nil {
		return nil, err
	}

	stats, err := s.MessageRepo.StatsByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	stats["total"] = total

	return &CampaignDetails{
		ID:           campaign.ID,
		Name:         campaign.Name,
		TemplateName: campaign.TemplateName,
		Status:       campaign.Status,
		StatusReason: campaign.StatusReason,
		TotalSent:    campaign.TotalSent,
		TotalFailed:  campaign.TotalFailed,
		StartedAt:    campaign.StartedAt,
		CompletedAt:  campaign.CompletedAt,
		CreatedAt:    campaign.CreatedAt,
		Stats:        stats,
	}, nil
}
