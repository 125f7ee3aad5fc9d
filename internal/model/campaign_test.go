package model

import "testing"

func TestCampaignTransitions(t *testing.T) {
	legal := []struct {
		from, to CampaignStatus
	}{
		{CampaignDraft, CampaignQueued},
		{CampaignQueued, CampaignRunning},
		{CampaignRunning, CampaignPaused},
		{CampaignRunning, CampaignCompleted},
		{CampaignRunning, CampaignError},
		{CampaignPaused, CampaignQueued},
	}
	for _, tc := range legal {
		if !tc.from.CanTransition(tc.to) {
			t.Errorf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	illegal := []struct {
		from, to CampaignStatus
	}{
		{CampaignDraft, CampaignRunning},
		{CampaignDraft, CampaignCompleted},
		{CampaignQueued, CampaignPaused},
		{CampaignQueued, CampaignCompleted},
		{CampaignPaused, CampaignRunning},
		{CampaignPaused, CampaignCompleted},
		{CampaignCompleted, CampaignQueued},
		{CampaignCompleted, CampaignRunning},
		{CampaignError, CampaignQueued},
		{CampaignRunning, CampaignDraft},
		{CampaignRunning, CampaignQueued},
	}
	for _, tc := range illegal {
		if tc.from.CanTransition(tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !CampaignCompleted.Terminal() || !CampaignError.Terminal() {
		t.Error("Completed and Error must be terminal")
	}
	for _, s := range []CampaignStatus{CampaignDraft, CampaignQueued, CampaignRunning, CampaignPaused} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestTenantSendDelay(t *testing.T) {
	tier250 := &Tenant{MessagingTier: Tier250}
	unlimited := &Tenant{MessagingTier: TierUnlimited}
	unknown := &Tenant{MessagingTier: "TIER_WHAT"}

	if tier250.SendDelay() <= unlimited.SendDelay() {
		t.Error("lower tiers must pace slower than higher tiers")
	}
	if unknown.SendDelay() != tier250.SendDelay() {
		t.Error("unknown tier should fall back to the base tier delay")
	}
}
