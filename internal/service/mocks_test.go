package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/wacrm-backend/internal/errors"
	"github.com/unclebandit/wacrm-backend/internal/gateway"
	"github.com/unclebandit/wacrm-backend/internal/model"
	"github.com/unclebandit/wacrm-backend/internal/queue"
)

// Mock repositories. They mirror the SQL-level behavior the real
// repositories guarantee: the guarded status transition, the unique ledger
// row per (campaign, contact) and per provider id.

type mockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*model.Campaign
}

func newMockCampaignRepo(campaigns ...*model.Campaign) *mockCampaignRepo {
	m := &mockCampaignRepo{campaigns: map[uuid.UUID]*model.Campaign{}}
	for _, c := range campaigns {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *mockCampaignRepo) get(id uuid.UUID) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	copied := *c
	return &copied, nil
}

func (m *mockCampaignRepo) GetByID(id uuid.UUID) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockCampaignRepo) GetForTenant(id, tenantID uuid.UUID) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if c.TenantID != tenantID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (m *mockCampaignRepo) List(tenantID uuid.UUID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.TenantID == tenantID && (status == "" || string(c.Status) == status) {
			copied := *c
			all = append(all, &copied)
		}
	}
	total := len(all)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockCampaignRepo) Transition(id uuid.UUID, from, to model.CampaignStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	if !from.CanTransition(to) || c.Status != from {
		return appErrors.NewInvalidTransition(id, string(from), string(to))
	}
	c.Status = to
	c.StatusReason = reason
	now := time.Now()
	if to == model.CampaignRunning && c.StartedAt == nil {
		c.StartedAt = &now
	}
	if to == model.CampaignCompleted {
		c.CompletedAt = &now
	}
	return nil
}

func (m *mockCampaignRepo) UpdateCounters(id uuid.UUID, totalSent, totalFailed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.TotalSent = totalSent
	c.TotalFailed = totalFailed
	return nil
}

type mockContactRepo struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]*model.Contact
	order    []uuid.UUID
	listErr  error
}

func newMockContactRepo(contacts ...*model.Contact) *mockContactRepo {
	m := &mockContactRepo{contacts: map[uuid.UUID]*model.Contact{}}
	for _, c := range contacts {
		m.contacts[c.ID] = c
		m.order = append(m.order, c.ID)
	}
	return m
}

func (m *mockContactRepo) GetByID(id uuid.UUID) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *mockContactRepo) FindByPhone(tenantID uuid.UUID, phone string) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.TenantID == tenantID && c.Phone == phone {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

// ListActive snapshots the eligible set in insertion order, the way the SQL
// query orders by created_at.
func (m *mockContactRepo) ListActive(tenantID uuid.UUID, groupID *uuid.UUID) ([]*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []*model.Contact{}
	for _, id := range m.order {
		c := m.contacts[id]
		if c.TenantID == tenantID && c.IsActive() {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockContactRepo) Create(c *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.ContactActive
	}
	m.contacts[c.ID] = c
	m.order = append(m.order, c.ID)
	return nil
}

func (m *mockContactRepo) OptOut(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contacts[id]; ok {
		c.Status = model.ContactOptOut
	}
	return nil
}

type mockMessageRepo struct {
	mu   sync.Mutex
	rows []*model.Message
}

func (m *mockMessageRepo) Create(msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	copied := *msg
	m.rows = append(m.rows, &copied)
	return nil
}

func (m *mockMessageRepo) ExistsForCampaignContact(campaignID, contactID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.CampaignID != nil && *row.CampaignID == campaignID && row.ContactID == contactID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMessageRepo) GetByProviderID(providerMessageID string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ProviderMessageID == providerMessageID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockMessageRepo) UpdateStatusByProviderID(providerMessageID, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ProviderMessageID == providerMessageID {
			row.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMessageRepo) StatsByCampaign(campaignID uuid.UUID) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := map[string]int{}
	for _, row := range m.rows {
		if row.CampaignID != nil && *row.CampaignID == campaignID {
			stats[row.Status]++
		}
	}
	return stats, nil
}

func (m *mockMessageRepo) forContact(contactID uuid.UUID) []*model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Message{}
	for _, row := range m.rows {
		if row.ContactID == contactID {
			out = append(out, row)
		}
	}
	return out
}

type mockTenantRepo struct {
	tenants map[uuid.UUID]*model.Tenant
}

func newMockTenantRepo(tenants ...*model.Tenant) *mockTenantRepo {
	m := &mockTenantRepo{tenants: map[uuid.UUID]*model.Tenant{}}
	for _, t := range tenants {
		m.tenants[t.ID] = t
	}
	return m
}

func (m *mockTenantRepo) GetByID(id uuid.UUID) (*model.Tenant, error) {
	if t, ok := m.tenants[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (m *mockTenantRepo) GetByPhoneNumberID(phoneNumberID string) (*model.Tenant, error) {
	for _, t := range m.tenants {
		if t.PhoneNumberID == phoneNumberID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

// fakeQuota hands out strictly increasing usage numbers; Fail simulates the
// counter store being unreachable.
type fakeQuota struct {
	mu    sync.Mutex
	usage int64
	fail  error
}

func (q *fakeQuota) Increment(ctx context.Context, tenantID uuid.UUID, day time.Time) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail != nil {
		return 0, q.fail
	}
	q.usage++
	return q.usage, nil
}

// fakeGateway returns scripted results per recipient phone; unscripted
// phones succeed with a generated provider id.
type fakeGateway struct {
	mu       sync.Mutex
	errByTo  map[string]error
	calls    []string
	hookByTo map[string]func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{errByTo: map[string]error{}, hookByTo: map[string]func(){}}
}

func (g *fakeGateway) Send(ctx context.Context, req gateway.SendRequest) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req.To)
	hook := g.hookByTo[req.To]
	err := g.errByTo[req.To]
	n := len(g.calls)
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("wamid.OUT%d", n), nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// plainDecrypter passes tokens through untouched.
type plainDecrypter struct{}

func (plainDecrypter) Decrypt(encoded string) (string, error) { return encoded, nil }

// captureQueue records published jobs instead of dispatching them.
type captureQueue struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
}

func (q *captureQueue) Publish(topic string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.topics = append(q.topics, topic)
	q.bodies = append(q.bodies, body)
	return nil
}

func (q *captureQueue) Subscribe(topic string, handler queue.Handler) error {
	return nil
}
