// internal/repository/tenant_repository.go
package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/unclebandit/wacrm-backend/internal/model"
)

type TenantRepositoryInterface interface {
	GetByID(id uuid.UUID) (*model.Tenant, error)
	GetByPhoneNumberID(phoneNumberID string) (*model.Tenant, error)
}

type TenantRepository struct {
	DB DBTX
}

const tenantColumns = `id, name, owner_email, access_token, waba_id, phone_number_id, messaging_tier, daily_quota, created_at`

func (r *TenantRepository) GetByID(id uuid.UUID) (*model.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id=$1`
	return r.scanOne(r.DB.QueryRow(query, id))
}

// GetByPhoneNumberID resolves a tenant from the provider-assigned routing
// identifier carried in webhook payloads.
func (r *TenantRepository) GetByPhoneNumberID(phoneNumberID string) (*model.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE phone_number_id=$1`
	return r.scanOne(r.DB.QueryRow(query, phoneNumberID))
}

func (r *TenantRepository) scanOne(row *sql.Row) (*model.Tenant, error) {
	var t model.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.OwnerEmail, &t.AccessToken, &t.WabaID,
		&t.PhoneNumberID, &t.MessagingTier, &t.DailyQuota, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &t, nil
}

var _ TenantRepositoryInterface = (*TenantRepository)(nil)
