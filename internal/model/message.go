// internal/model/message.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DirectionIn  = "In"
	DirectionOut = "Out"
)

// Message is one row in the shared ledger. ProviderMessageID is the
// idempotency key correlating outbound sends with inbound delivery events;
// it is globally unique when present (inbound rows always have one, outbound
// rows get one from the send response).
type Message struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	TenantID          uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	ContactID         uuid.UUID  `db:"contact_id" json:"contact_id"`
	CampaignID        *uuid.UUID `db:"campaign_id" json:"campaign_id,omitempty"`
	ProviderMessageID string     `db:"provider_message_id" json:"provider_message_id,omitempty"`
	Direction         string     `db:"direction" json:"direction"`
	Status            string     `db:"status" json:"status"`
	Timestamp         time.Time  `db:"timestamp" json:"timestamp"`
}
