// internal/repository/message_repository.go
package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/wacrm-backend/internal/model"
)

type MessageRepositoryInterface interface {
	Create(m *model.Message) error
	ExistsForCampaignContact(campaignID, contactID uuid.UUID) (bool, error)
	GetByProviderID(providerMessageID string) (*model.Message, error)
	UpdateStatusByProviderID(providerMessageID, status string) (bool, error)
	StatsByCampaign(campaignID uuid.UUID) (map[string]int, error)
}

type MessageRepository struct {
	DB DBTX
}

// Create inserts a ledger row. A duplicate provider_message_id surfaces as a
// unique violation; callers decide whether that is an error or an idempotent
// skip (the ingestor treats it as the latter).
func (r *MessageRepository) Create(m *model.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	query := `
        INSERT INTO messages (id, tenant_id, contact_id, campaign_id, provider_message_id, direction, status, timestamp)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
    `
	_, err := r.DB.Exec(query, m.ID, m.TenantID, m.ContactID, m.CampaignID,
		m.ProviderMessageID, m.Direction, m.Status, m.Timestamp)
	return err
}

// ExistsForCampaignContact is what makes campaign resumption idempotent: one
// ledger row per (campaign, contact), regardless of how many run segments it
// took to get there.
func (r *MessageRepository) ExistsForCampaignContact(campaignID, contactID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM messages WHERE campaign_id=$1 AND contact_id=$2 LIMIT 1`
	var tmp int
	err := r.DB.QueryRow(query, campaignID, contactID).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *MessageRepository) GetByProviderID(providerMessageID string) (*model.Message, error) {
	query := `
        SELECT id, tenant_id, contact_id, campaign_id, COALESCE(provider_message_id, ''), direction, status, timestamp
        FROM messages WHERE provider_message_id=$1
    `
	var m model.Message
	err := r.DB.QueryRow(query, providerMessageID).Scan(
		&m.ID, &m.TenantID, &m.ContactID, &m.CampaignID,
		&m.ProviderMessageID, &m.Direction, &m.Status, &m.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &m, nil
}

// UpdateStatusByProviderID overwrites the status of the message correlated
// with a provider id. Returns false when no such message exists.
func (r *MessageRepository) UpdateStatusByProviderID(providerMessageID, status string) (bool, error) {
	query := `UPDATE messages SET status=$1 WHERE provider_message_id=$2`
	res, err := r.DB.Exec(query, status, providerMessageID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *MessageRepository) StatsByCampaign(campaignID uuid.UUID) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM messages WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
