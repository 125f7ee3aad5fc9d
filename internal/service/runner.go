// internal/service/runner.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/wacrm-backend/internal/gateway"
	"github.com/unclebandit/wacrm-backend/internal/model"
	"github.com/unclebandit/wacrm-backend/internal/quota"
	"github.com/unclebandit/wacrm-backend/internal/repository"
)

// QuotaTracker is the slice of the redis tracker the runner needs.
type QuotaTracker interface {
	Increment(ctx context.Context, tenantID uuid.UUID, day time.Time) (int64, error)
}

// TokenDecrypter opens the tenant's sealed provider credential at the send
// boundary.
type TokenDecrypter interface {
	Decrypt(encoded string) (string, error)
}

// Runner drives one campaign's contact list through quota checks and the
// send gateway. One sequential loop per invocation; concurrency only exists
// across campaigns, which coordinate solely through the quota counter and
// the database.
type Runner struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	MessageRepo  repository.MessageRepositoryInterface
	TenantRepo   repository.TenantRepositoryInterface
	Quota        QuotaTracker
	Gateway      gateway.Sender
	Secrets      TokenDecrypter

	// FlushEvery bounds counter loss on a crash: progress is persisted every
	// N processed contacts.
	FlushEvery int
	// Whole-run retry budget for infrastructure-class failures.
	MaxAttempts int
	RetryDelay  time.Duration

	// Sleep is swappable in tests.
	Sleep func(time.Duration)
	// Now is swappable in tests; it picks the quota day.
	Now func() time.Time
}

func (r *Runner) flushEvery() int {
	if r.FlushEvery > 0 {
		return r.FlushEvery
	}
	return 10
}

func (r *Runner) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return 3
}

func (r *Runner) retryDelay() time.Duration {
	if r.RetryDelay > 0 {
		return r.RetryDelay
	}
	return time.Minute
}

func (r *Runner) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run consumes one run job. Infrastructure failures retry the whole run up
// to the attempt budget; the loop itself is resumable because every
// attempted (campaign, contact) pair leaves a ledger row behind. After the
// budget the campaign settles into Error.
func (r *Runner) Run(ctx context.Context, job RunJob) error {
	campaign, err := r.CampaignRepo.GetByID(job.CampaignID)
	if err != nil {
		log.Printf("runner: campaign %s: %v", job.CampaignID, err)
		return nil // nothing to run, do not redeliver
	}
	tenant, err := r.TenantRepo.GetByID(job.TenantID)
	if err != nil || tenant == nil {
		log.Printf("runner: tenant %s missing for campaign %s", job.TenantID, job.CampaignID)
		return nil
	}

	if err := r.CampaignRepo.Transition(campaign.ID, model.CampaignQueued, model.CampaignRunning, ""); err != nil {
		// Another worker picked the job up, or the campaign was never queued.
		log.Printf("runner: campaign %s not runnable: %v", campaign.ID, err)
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts(); attempt++ {
		lastErr = r.runLoop(ctx, campaign.ID, tenant)
		if lastErr == nil {
			return nil
		}
		log.Printf("runner: campaign %s attempt %d/%d failed: %v", campaign.ID, attempt, r.maxAttempts(), lastErr)
		if attempt < r.maxAttempts() {
			r.sleep(r.retryDelay())
		}
	}

	reason := fmt.Sprintf("run failed after %d attempts: %v", r.maxAttempts(), lastErr)
	if err := r.CampaignRepo.Transition(campaign.ID, model.CampaignRunning, model.CampaignError, reason); err != nil {
		log.Printf("runner: campaign %s could not settle into Error: %v", campaign.ID, err)
	}
	return nil
}

// runLoop performs one run segment. A nil return means the campaign reached
// Paused, Completed or Error and nothing should be retried; a non-nil return
// is an infrastructure failure eligible for the whole-run retry.
func (r *Runner) runLoop(ctx context.Context, campaignID uuid.UUID, tenant *model.Tenant) error {
	campaign, err := r.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}

	token, err := r.Secrets.Decrypt(tenant.AccessToken)
	if err != nil {
		// Unusable credential, retrying will not help.
		r.settle(campaignID, model.CampaignError, "invalid provider credential", campaign.TotalSent, campaign.TotalFailed)
		return nil
	}

	contacts, err := r.ContactRepo.ListActive(tenant.ID, campaign.ContactGroupID)
	if err != nil {
		return err
	}

	sent := campaign.TotalSent
	failed := campaign.TotalFailed
	delay := tenant.SendDelay()
	processed := 0

	for _, candidate := range contacts {
		if err := ctx.Err(); err != nil {
			r.flush(campaignID, sent, failed)
			return err
		}

		// Status may have changed mid-run (concurrent opt-out); re-fetch
		// right before the send decision.
		contact, err := r.ContactRepo.GetByID(candidate.ID)
		if err != nil {
			return err
		}
		if contact == nil || !contact.IsActive() {
			continue
		}

		// One ledger row per (campaign, contact) across all run segments.
		exists, err := r.MessageRepo.ExistsForCampaignContact(campaignID, contact.ID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		// Quota counts attempts: the increment happens before the send and
		// is never rolled back. A failure to reach the counter store denies
		// the send (fail closed).
		usage, err := r.Quota.Increment(ctx, tenant.ID, r.now())
		if err != nil {
			r.settle(campaignID, model.CampaignPaused, "quota tracker unavailable", sent, failed)
			return nil
		}
		if !quota.Allowed(usage, tenant.DailyQuota) {
			r.settle(campaignID, model.CampaignPaused, "daily quota exhausted", sent, failed)
			return nil
		}

		name := contact.Name
		if name == "" {
			name = "Customer"
		}
		providerID, err := r.Gateway.Send(ctx, gateway.SendRequest{
			PhoneNumberID: tenant.PhoneNumberID,
			AccessToken:   token,
			To:            contact.Phone,
			TemplateName:  campaign.TemplateName,
			LanguageCode:  campaign.TemplateLang,
			BodyParams:    []string{name},
		})

		switch {
		case err == nil:
			msg := &model.Message{
				TenantID:          tenant.ID,
				ContactID:         contact.ID,
				CampaignID:        &campaign.ID,
				ProviderMessageID: providerID,
				Direction:         model.DirectionOut,
				Status:            "Sent",
			}
			if err := r.MessageRepo.Create(msg); err != nil {
				return err
			}
			sent++
		case gateway.KindOf(err) == gateway.KindRateLimited:
			r.settle(campaignID, model.CampaignPaused, "provider rate limited", sent, failed)
			return nil
		case gateway.KindOf(err) == gateway.KindAuthInvalid:
			r.settle(campaignID, model.CampaignError, "provider rejected credential", sent, failed)
			return nil
		default:
			// RecipientInvalid, Transient, Unknown: count the failure, leave
			// a ledger row so the contact is not re-attempted on resume, and
			// keep going. No per-contact retry within a run.
			msg := &model.Message{
				TenantID:   tenant.ID,
				ContactID:  contact.ID,
				CampaignID: &campaign.ID,
				Direction:  model.DirectionOut,
				Status:     "Failed",
			}
			if err := r.MessageRepo.Create(msg); err != nil {
				return err
			}
			failed++
		}

		processed++
		if processed%r.flushEvery() == 0 {
			r.flush(campaignID, sent, failed)
		}

		r.sleep(delay)
	}

	r.settle(campaignID, model.CampaignCompleted, "", sent, failed)
	return nil
}

// flush persists counters mid-run; failures are logged, not fatal, since the
// next flush or settle will catch up.
func (r *Runner) flush(campaignID uuid.UUID, sent, failed int) {
	if err := r.CampaignRepo.UpdateCounters(campaignID, sent, failed); err != nil {
		log.Printf("runner: campaign %s counter flush failed: %v", campaignID, err)
	}
}

// settle writes final counters and takes the Running -> to edge.
func (r *Runner) settle(campaignID uuid.UUID, to model.CampaignStatus, reason string, sent, failed int) {
	r.flush(campaignID, sent, failed)
	if err := r.CampaignRepo.Transition(campaignID, model.CampaignRunning, to, reason); err != nil {
		log.Printf("runner: campaign %s transition to %s failed: %v", campaignID, to, err)
	}
}
