// internal/model/tenant.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Messaging tiers as assigned by the provider. The tier controls client-side
// send pacing; the daily quota is stored separately on the tenant.
const (
	Tier250       = "TIER_250"
	Tier1K        = "TIER_1K"
	Tier10K       = "TIER_10K"
	TierUnlimited = "TIER_UNLIMITED"
)

// TierThroughput maps a messaging tier to messages per second for the
// runner's inter-message delay.
var TierThroughput = map[string]int{
	Tier250:       5,
	Tier1K:        20,
	Tier10K:       50,
	TierUnlimited: 80,
}

type Tenant struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	OwnerEmail    string    `db:"owner_email" json:"owner_email"`
	AccessToken   string    `db:"access_token" json:"-"` // encrypted at rest, never serialized
	WabaID        string    `db:"waba_id" json:"waba_id"`
	PhoneNumberID string    `db:"phone_number_id" json:"phone_number_id"`
	MessagingTier string    `db:"messaging_tier" json:"messaging_tier"`
	DailyQuota    int64     `db:"daily_quota" json:"daily_quota"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// SendDelay returns the pause between consecutive sends for the tenant's tier.
func (t *Tenant) SendDelay() time.Duration {
	throughput, ok := TierThroughput[t.MessagingTier]
	if !ok {
		throughput = TierThroughput[Tier250]
	}
	return time.Second / time.Duration(throughput)
}
