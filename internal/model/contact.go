// internal/model/contact.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ContactActive = "Active"
	ContactOptOut = "Opt-out"
)

// Contact is unique per (tenant, phone). Opt-out is a one-way latch: the
// pipeline only ever sets it, never clears it.
type Contact struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Phone     string    `db:"phone" json:"phone"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (c *Contact) IsActive() bool {
	return c.Status == ContactActive
}
