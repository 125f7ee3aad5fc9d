// internal/repository/webhook_log_repository.go
package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/wacrm-backend/internal/model"
)

type WebhookLogRepositoryInterface interface {
	Create(l *model.WebhookLog) error
}

type WebhookLogRepository struct {
	DB DBTX
}

// Create stores a verified raw payload for audit. Rows are never updated or
// deleted.
func (r *WebhookLogRepository) Create(l *model.WebhookLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.ReceivedAt.IsZero() {
		l.ReceivedAt = time.Now()
	}
	query := `INSERT INTO webhook_logs (id, tenant_id, payload, received_at) VALUES ($1, $2, $3, $4)`
	_, err := r.DB.Exec(query, l.ID, l.TenantID, l.Payload, l.ReceivedAt)
	return err
}

var _ WebhookLogRepositoryInterface = (*WebhookLogRepository)(nil)
