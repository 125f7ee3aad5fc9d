// internal/repository/contact_repository.go
package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/wacrm-backend/internal/model"
)

type ContactRepositoryInterface interface {
	GetByID(id uuid.UUID) (*model.Contact, error)
	FindByPhone(tenantID uuid.UUID, phone string) (*model.Contact, error)
	ListActive(tenantID uuid.UUID, groupID *uuid.UUID) ([]*model.Contact, error)
	Create(c *model.Contact) error
	OptOut(id uuid.UUID) error
}

type ContactRepository struct {
	DB DBTX
}

const contactColumns = `id, tenant_id, phone, name, status, created_at`

func (r *ContactRepository) GetByID(id uuid.UUID) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id=$1`
	return scanContact(r.DB.QueryRow(query, id))
}

func (r *ContactRepository) FindByPhone(tenantID uuid.UUID, phone string) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE tenant_id=$1 AND phone=$2`
	return scanContact(r.DB.QueryRow(query, tenantID, phone))
}

// ListActive returns the campaign-eligible contacts for a tenant in a stable
// order, optionally restricted to a contact group. Opt-out contacts are
// excluded here and re-checked per contact inside the send loop.
func (r *ContactRepository) ListActive(tenantID uuid.UUID, groupID *uuid.UUID) ([]*model.Contact, error) {
	query := `SELECT c.id, c.tenant_id, c.phone, c.name, c.status, c.created_at
              FROM contacts c`
	args := []any{tenantID}
	if groupID != nil {
		query += ` JOIN contact_group_assignments a ON a.contact_id = c.id AND a.group_id = $2`
		args = append(args, *groupID)
	}
	query += ` WHERE c.tenant_id=$1 AND c.status='Active' ORDER BY c.created_at, c.id`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*model.Contact{}
	for rows.Next() {
		c := &model.Contact{}
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Phone, &c.Name, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) Create(c *model.Contact) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.ContactActive
	}
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO contacts (id, tenant_id, phone, name, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.DB.Exec(query, c.ID, c.TenantID, c.Phone, c.Name, c.Status, c.CreatedAt)
	return err
}

// OptOut latches the contact into Opt-out. There is deliberately no inverse
// operation in this package.
func (r *ContactRepository) OptOut(id uuid.UUID) error {
	query := `UPDATE contacts SET status='Opt-out' WHERE id=$1`
	_, err := r.DB.Exec(query, id)
	return err
}

func scanContact(row *sql.Row) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.TenantID, &c.Phone, &c.Name, &c.Status, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
