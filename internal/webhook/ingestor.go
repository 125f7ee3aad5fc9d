// internal/webhook/ingestor.go
package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/unclebandit/wacrm-backend/internal/model"
	"github.com/unclebandit/wacrm-backend/internal/repository"
)

// OptOutKeyword is the compliance keyword. Matching is trimmed and
// case-insensitive.
const OptOutKeyword = "stop"

// Ingestor applies one verified webhook batch to the ledger. Everything runs
// inside a single transaction: the audit entry goes in first, then per-item
// processing under per-item savepoints, then one commit. Item-level failures
// roll back to their savepoint, get logged and are skipped; a failure of the
// transaction itself leaves nothing behind and lets the queue redeliver.
type Ingestor struct {
	DB *sql.DB
}

func NewIngestor(db *sql.DB) *Ingestor {
	return &Ingestor{DB: db}
}

// Process handles one raw payload that already passed signature verification.
func (in *Ingestor) Process(ctx context.Context, raw []byte) error {
	tx, err := in.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("webhook: begin tx: %w", err)
	}
	defer tx.Rollback()

	tenantRepo := &repository.TenantRepository{DB: tx}
	contactRepo := &repository.ContactRepository{DB: tx}
	messageRepo := &repository.MessageRepository{DB: tx}
	logRepo := &repository.WebhookLogRepository{DB: tx}

	var payload Payload
	parseErr := json.Unmarshal(raw, &payload)

	// The audit entry is stored regardless of whether the body parses as a
	// known structure. Tenant tagging is best effort.
	auditLog := &model.WebhookLog{Payload: raw}
	if parseErr == nil {
		if tenantID := in.resolveAnyTenant(tenantRepo, &payload); tenantID != nil {
			auditLog.TenantID = tenantID
		}
	}
	if err := logRepo.Create(auditLog); err != nil {
		return fmt.Errorf("webhook: store audit entry: %w", err)
	}

	if parseErr != nil {
		log.Printf("webhook: unparseable payload stored for audit only: %v", parseErr)
		return tx.Commit()
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			tenant, err := tenantRepo.GetByPhoneNumberID(value.Metadata.PhoneNumberID)
			if err != nil {
				return fmt.Errorf("webhook: resolve tenant: %w", err)
			}
			if tenant == nil {
				log.Printf("webhook: no tenant for phone_number_id %q, dropping change", value.Metadata.PhoneNumberID)
				continue
			}

			for _, item := range value.Items() {
				if item.Kind == ItemUnknown {
					log.Printf("webhook: unclassifiable item in change %q, skipping", change.Field)
					continue
				}
				if err := in.applyItem(tx, tenant, &value, item, contactRepo, messageRepo); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

// applyItem runs one item inside a savepoint. Postgres poisons the whole
// transaction on the first statement error, so without ROLLBACK TO SAVEPOINT
// a single bad item would make every later statement and the final commit
// fail, taking the audit entry and the healthy items down with it. Item
// errors are logged and absorbed; only savepoint bookkeeping failures abort
// the batch.
func (in *Ingestor) applyItem(tx *sql.Tx, tenant *model.Tenant, value *Value, item Item,
	contacts *repository.ContactRepository, messages *repository.MessageRepository) error {

	if _, err := tx.Exec("SAVEPOINT webhook_item"); err != nil {
		return fmt.Errorf("webhook: open savepoint: %w", err)
	}

	var itemErr error
	switch item.Kind {
	case ItemInboundMessage:
		itemErr = in.applyInbound(tenant, value, item.Message, contacts, messages)
	case ItemStatusUpdate:
		itemErr = in.applyStatus(item.Status, messages)
	}

	if itemErr != nil {
		if _, err := tx.Exec("ROLLBACK TO SAVEPOINT webhook_item"); err != nil {
			return fmt.Errorf("webhook: recover failed item: %w", err)
		}
		if repository.IsUniqueViolation(itemErr) {
			return nil // raced with another delivery of the same provider id
		}
		switch item.Kind {
		case ItemInboundMessage:
			log.Printf("webhook: inbound message %s: %v", item.Message.ID, itemErr)
		case ItemStatusUpdate:
			log.Printf("webhook: status update %s: %v", item.Status.ID, itemErr)
		}
		return nil
	}

	if _, err := tx.Exec("RELEASE SAVEPOINT webhook_item"); err != nil {
		return fmt.Errorf("webhook: release savepoint: %w", err)
	}
	return nil
}

// applyInbound records an inbound message, creating the contact on first
// sight and latching the opt-out status when the compliance keyword arrives.
func (in *Ingestor) applyInbound(tenant *model.Tenant, value *Value, msg *InboundMsg,
	contacts *repository.ContactRepository, messages *repository.MessageRepository) error {

	existing, err := messages.GetByProviderID(msg.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil // duplicate delivery, already in the ledger
	}

	contact, err := contacts.FindByPhone(tenant.ID, msg.From)
	if err != nil {
		return err
	}
	if contact == nil {
		contact = &model.Contact{
			TenantID: tenant.ID,
			Phone:    msg.From,
			Name:     value.ProfileName(),
		}
		if err := contacts.Create(contact); err != nil {
			return fmt.Errorf("create contact: %w", err)
		}
	}

	if strings.EqualFold(strings.TrimSpace(msg.Text.Body), OptOutKeyword) {
		if err := contacts.OptOut(contact.ID); err != nil {
			return fmt.Errorf("opt out contact: %w", err)
		}
		log.Printf("webhook: contact %s opted out for tenant %s", contact.Phone, tenant.ID)
	}

	return messages.Create(&model.Message{
		TenantID:          tenant.ID,
		ContactID:         contact.ID,
		ProviderMessageID: msg.ID,
		Direction:         model.DirectionIn,
		Status:            "Delivered",
	})
}

// applyStatus overwrites the status of the correlated outbound message. A
// miss is dropped, not an error: the provider replays events for messages we
// may never have recorded.
func (in *Ingestor) applyStatus(st *StatusUpdate, messages *repository.MessageRepository) error {
	found, err := messages.UpdateStatusByProviderID(st.ID, normalizeStatus(st.Status))
	if err != nil {
		return err
	}
	if !found {
		log.Printf("webhook: status update for unknown provider id %s, dropped", st.ID)
	}
	return nil
}

// resolveAnyTenant finds the first resolvable routing identifier in the
// payload so the audit entry can be tenant-tagged.
func (in *Ingestor) resolveAnyTenant(tenants *repository.TenantRepository, payload *Payload) *uuid.UUID {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			id := change.Value.Metadata.PhoneNumberID
			if id == "" {
				continue
			}
			tenant, err := tenants.GetByPhoneNumberID(id)
			if err == nil && tenant != nil {
				return &tenant.ID
			}
		}
	}
	return nil
}

// normalizeStatus maps provider status labels (sent, delivered, read, failed)
// onto the ledger's capitalized form.
func normalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}
