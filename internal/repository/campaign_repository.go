// internal/repository/campaign_repository.go
package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/wacrm-backend/internal/errors"
	"github.com/unclebandit/wacrm-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	GetByID(id uuid.UUID) (*model.Campaign, error)
	GetForTenant(id, tenantID uuid.UUID) (*model.Campaign, error)
	List(tenantID uuid.UUID, offset, limit int, status string) ([]*model.Campaign, int, error)
	Transition(id uuid.UUID, from, to model.CampaignStatus, reason string) error
	UpdateCounters(id uuid.UUID, totalSent, totalFailed int) error
}

type CampaignRepository struct {
	DB DBTX
}

const campaignColumns = `id, tenant_id, name, template_name, template_lang, contact_group_id,
              status, status_reason, total_sent, total_failed, started_at, completed_at, created_at`

func (r *CampaignRepository) GetByID(id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (r *CampaignRepository) GetForTenant(id, tenantID uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1 AND tenant_id=$2`
	c, err := scanCampaign(r.DB.QueryRow(query, id, tenantID))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (r *CampaignRepository) List(tenantID uuid.UUID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE tenant_id=$1`
	args := []any{tenantID}
	argPos := 2

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE tenant_id=$1`
	countArgs := []any{tenantID}

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		countQuery += " AND status=$2"
		args = append(args, status)
		countArgs = append(countArgs, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaignRows(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// Transition moves a campaign along one edge of the state machine. The edge
// is checked in code first, then guarded again in SQL with WHERE status=from
// so two concurrent workers cannot both take the same edge. started_at is set
// only on the first entry into Running; completed_at only on Completed.
func (r *CampaignRepository) Transition(id uuid.UUID, from, to model.CampaignStatus, reason string) error {
	if !from.CanTransition(to) {
		return appErrors.NewInvalidTransition(id, string(from), string(to))
	}
	if (to == model.CampaignPaused || to == model.CampaignError) && reason == "" {
		return fmt.Errorf("campaign %s: transition to %s requires a status reason", id, to)
	}

	query := `
        UPDATE campaigns
        SET status=$1,
            status_reason=$2,
            started_at   = CASE WHEN $1='Running' AND started_at IS NULL THEN NOW() ELSE started_at END,
            completed_at = CASE WHEN $1='Completed' THEN NOW() ELSE completed_at END
        WHERE id=$3 AND status=$4
    `
	res, err := r.DB.Exec(query, string(to), reason, id, string(from))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErrors.NewInvalidTransition(id, string(from), string(to))
	}
	return nil
}

func (r *CampaignRepository) UpdateCounters(id uuid.UUID, totalSent, totalFailed int) error {
	query := `UPDATE campaigns SET total_sent=$1, total_failed=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, totalSent, totalFailed, id)
	return err
}

func scanCampaign(row *sql.Row) (*model.Campaign, error) {
	var c model.Campaign
	var reason sql.NullString
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.TemplateName, &c.TemplateLang, &c.ContactGroupID,
		&c.Status, &reason, &c.TotalSent, &c.TotalFailed, &c.StartedAt, &c.CompletedAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.StatusReason = reason.String
	return &c, nil
}

func scanCampaignRows(rows *sql.Rows) (*model.Campaign, error) {
	var c model.Campaign
	var reason sql.NullString
	err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.TemplateName, &c.TemplateLang, &c.ContactGroupID,
		&c.Status, &reason, &c.TotalSent, &c.TotalFailed, &c.StartedAt, &c.CompletedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.StatusReason = reason.String
	return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
