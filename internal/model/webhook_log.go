// internal/model/webhook_log.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// WebhookLog is an immutable audit entry: the raw verified payload exactly
// as received, stored before any per-item processing. TenantID is filled in
// when the payload's routing identifier resolves, nil otherwise.
type WebhookLog struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	TenantID   *uuid.UUID `db:"tenant_id" json:"tenant_id,omitempty"`
	Payload    []byte     `db:"payload" json:"payload"`
	ReceivedAt time.Time  `db:"received_at" json:"received_at"`
}
