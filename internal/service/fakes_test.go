package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
	"github.com/osvaldobrewjaria/fazumclube/pkg/email"
	"github.com/osvaldobrewjaria/fazumclube/pkg/payment"
)

// In-memory repositories. They store copies so that services only observe
// what they explicitly write back.

type fakeUserRepo struct {
	byID map[uuid.UUID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[uuid.UUID]domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return errors.AlreadyExistsf("email %q", user.Email)
		}
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFoundf("user")
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, errors.NotFoundf("user")
}

func (r *fakeUserRepo) GetByPasswordResetToken(_ context.Context, tokenHash string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash &&
			u.PasswordResetTokenExpiresAt != nil && u.PasswordResetTokenExpiresAt.After(time.Now()) {
			u := u
			return &u, nil
		}
	}
	return nil, errors.NotFoundf("password reset token")
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return errors.NotFoundf("user")
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return errors.NotFoundf("user")
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	u, ok := r.byID[id]
	if !ok {
		return errors.NotFoundf("user")
	}
	now := time.Now()
	u.LastLoginAt = &now
	r.byID[id] = u
	return nil
}

func (r *fakeUserRepo) IncrementFailedLogins(_ context.Context, id uuid.UUID) (int, error) {
	u, ok := r.byID[id]
	if !ok {
		return 0, errors.NotFoundf("user")
	}
	u.FailedLogins++
	r.byID[id] = u
	return u.FailedLogins, nil
}

func (r *fakeUserRepo) ResetFailedLogins(_ context.Context, id uuid.UUID) error {
	u, ok := r.byID[id]
	if !ok {
		return errors.NotFoundf("user")
	}
	u.FailedLogins = 0
	u.LockedUntil = nil
	r.byID[id] = u
	return nil
}

type fakeSessionRepo struct {
	byID map[uuid.UUID]domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byID: map[uuid.UUID]domain.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.byID[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFoundf("session")
	}
	return &s, nil
}

func (r *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	for _, s := range r.byID {
		if s.RefreshTokenHash == tokenHash {
			s := s
			return &s, nil
		}
	}
	return nil, errors.NotFoundf("session")
}

func (r *fakeSessionRepo) Update(_ context.Context, s *domain.Session) error {
	if _, ok := r.byID[s.ID]; !ok {
		return errors.NotFoundf("session")
	}
	r.byID[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	for id, s := range r.byID {
		if s.UserID == userID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for id, s := range r.byID {
		if s.ExpiresAt.Before(now) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeTenantRepo struct {
	byID  map[uuid.UUID]domain.Tenant
	users *fakeUserRepo
}

func newFakeTenantRepo(users *fakeUserRepo) *fakeTenantRepo {
	return &fakeTenantRepo{byID: map[uuid.UUID]domain.Tenant{}, users: users}
}

func (r *fakeTenantRepo) add(t domain.Tenant) domain.TenantContext {
	r.byID[t.ID] = t
	return t.Context()
}

func (r *fakeTenantRepo) Provision(ctx context.Context, tenant *domain.Tenant, owner *domain.User) error {
	for _, t := range r.byID {
		if t.Slug == tenant.Slug {
			return errors.AlreadyExistsf("tenant slug")
		}
	}
	if err := r.users.Create(ctx, owner); err != nil {
		return err
	}
	stored := *tenant
	stored.OwnerID = &owner.ID
	r.byID[tenant.ID] = stored
	return nil
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFoundf("tenant")
	}
	return &t, nil
}

func (r *fakeTenantRepo) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	for _, t := range r.byID {
		if t.Slug == slug {
			t := t
			return &t, nil
		}
	}
	return nil, errors.NotFoundf("tenant")
}

func (r *fakeTenantRepo) UpdateSettings(_ context.Context, id uuid.UUID, settings domain.TenantSettings) error {
	t, ok := r.byID[id]
	if !ok {
		return errors.NotFoundf("tenant")
	}
	t.Settings = settings
	r.byID[id] = t
	return nil
}

func (r *fakeTenantRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TenantStatus, deletedAt *time.Time) error {
	t, ok := r.byID[id]
	if !ok {
		return errors.NotFoundf("tenant")
	}
	t.Status = status
	t.DeletedAt = deletedAt
	r.byID[id] = t
	return nil
}

func (r *fakeTenantRepo) List(_ context.Context, status domain.TenantStatus, limit, offset int) ([]*domain.TenantSummary, int, error) {
	var out []*domain.TenantSummary
	for _, t := range r.byID {
		if (status == "" && t.Status != domain.TenantStatusDeleted) || t.Status == status {
			out = append(out, &domain.TenantSummary{Tenant: t})
		}
	}
	return out, len(out), nil
}

type fakePlanRepo struct {
	byID map[uuid.UUID]domain.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{byID: map[uuid.UUID]domain.Plan{}}
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.Plan) error {
	for _, p := range r.byID {
		if p.Slug == plan.Slug {
			return errors.AlreadyExistsf("plan slug %q", plan.Slug)
		}
	}
	r.byID[plan.ID] = copyPlan(plan)
	return nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.Plan) error {
	if _, ok := r.byID[plan.ID]; !ok {
		return errors.NotFoundf("plan")
	}
	r.byID[plan.ID] = copyPlan(plan)
	return nil
}

func copyPlan(p *domain.Plan) domain.Plan {
	out := *p
	out.Prices = append([]domain.Price(nil), p.Prices...)
	return out
}

func (r *fakePlanRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Plan, error) {
	p, ok := r.byID[id]
	if !ok || p.TenantID != tenantID {
		return nil, errors.NotFoundf("plan")
	}
	out := copyPlan(&p)
	return &out, nil
}

func (r *fakePlanRepo) GetBySlug(_ context.Context, tenantID uuid.UUID, slug string) (*domain.Plan, error) {
	for _, p := range r.byID {
		if p.Slug == slug && p.TenantID == tenantID {
			out := copyPlan(&p)
			return &out, nil
		}
	}
	return nil, errors.NotFoundf("plan")
}

func (r *fakePlanRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, activeOnly bool) ([]*domain.Plan, error) {
	var out []*domain.Plan
	for _, p := range r.byID {
		if p.TenantID == tenantID && (!activeOnly || p.Active) {
			cp := copyPlan(&p)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *fakePlanRepo) Deactivate(_ context.Context, tenantID, id uuid.UUID) error {
	p, ok := r.byID[id]
	if !ok || p.TenantID != tenantID {
		return errors.NotFoundf("plan")
	}
	p.Active = false
	r.byID[id] = p
	return nil
}

type fakeSubscriptionRepo struct {
	byID  map[uuid.UUID]domain.Subscription
	users *fakeUserRepo
	plans *fakePlanRepo
	// updates counts successful writes per subscription
	updates map[uuid.UUID]int
	// failUpdate, when set, is returned by the next Update
	failUpdate error
}

func newFakeSubscriptionRepo(users *fakeUserRepo, plans *fakePlanRepo) *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		byID:    map[uuid.UUID]domain.Subscription{},
		users:   users,
		plans:   plans,
		updates: map[uuid.UUID]int{},
	}
}

func (r *fakeSubscriptionRepo) checkOneActive(sub *domain.Subscription) error {
	if sub.Status != domain.SubscriptionActive {
		return nil
	}
	for id, s := range r.byID {
		if id != sub.ID && s.UserID == sub.UserID && s.Status == domain.SubscriptionActive {
			return errors.AlreadyExistsf("active subscription")
		}
	}
	return nil
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *domain.Subscription) error {
	if err := r.checkOneActive(sub); err != nil {
		return err
	}
	r.byID[sub.ID] = *sub
	return nil
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *domain.Subscription) error {
	if err := r.failUpdate; err != nil {
		r.failUpdate = nil
		return err
	}
	if _, ok := r.byID[sub.ID]; !ok {
		return errors.NotFoundf("subscription")
	}
	if err := r.checkOneActive(sub); err != nil {
		return err
	}
	r.byID[sub.ID] = *sub
	r.updates[sub.ID]++
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Subscription, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFoundf("subscription")
	}
	return &s, nil
}

func (r *fakeSubscriptionRepo) GetByGatewayID(_ context.Context, gatewayID string) (*domain.Subscription, error) {
	for _, s := range r.byID {
		if s.GatewaySubscriptionID != nil && *s.GatewaySubscriptionID == gatewayID {
			s := s
			return &s, nil
		}
	}
	return nil, errors.NotFoundf("subscription")
}

func (r *fakeSubscriptionRepo) latest(match func(domain.Subscription) bool) (*domain.Subscription, error) {
	var found *domain.Subscription
	for _, s := range r.byID {
		if !match(s) {
			continue
		}
		if found == nil || s.CreatedAt.After(found.CreatedAt) {
			s := s
			found = &s
		}
	}
	if found == nil {
		return nil, errors.NotFoundf("subscription")
	}
	return found, nil
}

func (r *fakeSubscriptionRepo) GetByUserAndPlan(_ context.Context, userID, planID uuid.UUID) (*domain.Subscription, error) {
	return r.latest(func(s domain.Subscription) bool {
		return s.UserID == userID && s.PlanID == planID
	})
}

func (r *fakeSubscriptionRepo) GetLatestByUser(_ context.Context, tenantID, userID uuid.UUID, statuses ...domain.SubscriptionStatus) (*domain.Subscription, error) {
	return r.latest(func(s domain.Subscription) bool {
		if s.TenantID != tenantID || s.UserID != userID {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, st := range statuses {
			if s.Status == st {
				return true
			}
		}
		return false
	})
}

func (r *fakeSubscriptionRepo) HasActive(_ context.Context, userID uuid.UUID) (bool, error) {
	for _, s := range r.byID {
		if s.UserID == userID && s.Status == domain.SubscriptionActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSubscriptionRepo) GetDetails(ctx context.Context, id uuid.UUID) (*domain.SubscriptionDetails, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFoundf("subscription")
	}
	details := &domain.SubscriptionDetails{Subscription: s}
	if u, ok := r.users.byID[s.UserID]; ok {
		details.UserName = u.Name
		details.UserEmail = u.Email
	}
	if p, ok := r.plans.byID[s.PlanID]; ok {
		details.PlanSlug = p.Slug
		details.PlanName = p.Name
		if pr := p.ActivePrice(s.BillingInterval); pr != nil {
			details.Amount = pr.Amount
			details.Currency = pr.Currency
		}
	}
	return details, nil
}

func (r *fakeSubscriptionRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, filter repository.SubscriptionFilter) ([]*domain.SubscriptionDetails, int, error) {
	var out []*domain.SubscriptionDetails
	for id, s := range r.byID {
		if s.TenantID == tenantID && (filter.Status == "" || s.Status == filter.Status) {
			d, _ := r.GetDetails(ctx, id)
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

type fakePaymentRepo struct {
	payments []domain.Payment
}

func (r *fakePaymentRepo) Create(_ context.Context, p *domain.Payment) error {
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakePaymentRepo) ListByUser(context.Context, uuid.UUID, uuid.UUID) ([]*domain.Payment, error) {
	out := make([]*domain.Payment, len(r.payments))
	for i := range r.payments {
		out[i] = &r.payments[i]
	}
	return out, nil
}

func (r *fakePaymentRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, _, _ int) ([]*domain.PaymentDetails, int, error) {
	var out []*domain.PaymentDetails
	for _, p := range r.payments {
		if p.TenantID == tenantID {
			out = append(out, &domain.PaymentDetails{Payment: p})
		}
	}
	return out, len(out), nil
}

type deliveryKey struct {
	sub   uuid.UUID
	month int
	year  int
}

type fakeDeliveryRepo struct {
	rows map[deliveryKey]domain.Delivery
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{rows: map[deliveryKey]domain.Delivery{}}
}

func (r *fakeDeliveryRepo) Get(_ context.Context, subID uuid.UUID, month, year int) (*domain.Delivery, error) {
	d, ok := r.rows[deliveryKey{subID, month, year}]
	if !ok {
		return nil, errors.NotFoundf("delivery")
	}
	return &d, nil
}

func (r *fakeDeliveryRepo) Upsert(_ context.Context, d *domain.Delivery) error {
	key := deliveryKey{d.SubscriptionID, d.ReferenceMonth, d.ReferenceYear}
	if existing, ok := r.rows[key]; ok {
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
	}
	r.rows[key] = *d
	return nil
}

func (r *fakeDeliveryRepo) ListForPeriod(context.Context, uuid.UUID, int, int) ([]*domain.DeliveryRow, error) {
	return nil, nil
}

func (r *fakeDeliveryRepo) ListByUser(context.Context, uuid.UUID, uuid.UUID) ([]*domain.Delivery, error) {
	return nil, nil
}

type fakeWebhookEventRepo struct {
	events map[string]*domain.WebhookEventRecord
}

func newFakeWebhookEventRepo() *fakeWebhookEventRepo {
	return &fakeWebhookEventRepo{events: map[string]*domain.WebhookEventRecord{}}
}

func (r *fakeWebhookEventRepo) Record(_ context.Context, eventID, eventType string) (bool, error) {
	if existing, ok := r.events[eventID]; ok {
		if existing.Error == nil {
			return false, nil
		}
		existing.Error = nil
		existing.ProcessedAt = nil
		return true, nil
	}
	r.events[eventID] = &domain.WebhookEventRecord{ID: uuid.New(), EventID: eventID, EventType: eventType, CreatedAt: time.Now()}
	return true, nil
}

func (r *fakeWebhookEventRepo) MarkProcessed(_ context.Context, eventID string, procErr error) error {
	rec, ok := r.events[eventID]
	if !ok {
		return errors.NotFoundf("webhook event")
	}
	now := time.Now()
	rec.ProcessedAt = &now
	if procErr != nil {
		msg := procErr.Error()
		rec.Error = &msg
	}
	return nil
}

type fakeCustomerRepo struct {
	profiles map[uuid.UUID]domain.CustomerProfile
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{profiles: map[uuid.UUID]domain.CustomerProfile{}}
}

func (r *fakeCustomerRepo) GetProfile(_ context.Context, userID uuid.UUID) (*domain.CustomerProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, errors.NotFoundf("customer profile")
	}
	if p.Address != nil {
		addr := *p.Address
		p.Address = &addr
	}
	return &p, nil
}

func (r *fakeCustomerRepo) SaveProfile(_ context.Context, p *domain.CustomerProfile) error {
	if p.Address != nil {
		p.AddressID = &p.Address.ID
		addr := *p.Address
		stored := *p
		stored.Address = &addr
		r.profiles[p.UserID] = stored
		return nil
	}
	r.profiles[p.UserID] = *p
	return nil
}

type fakeReportRepo struct {
	counts    domain.SubscriptionCounts
	revenue   []domain.ActiveRevenue
	paid      int64
	customers int
}

func (r *fakeReportRepo) SubscriptionCounts(context.Context, uuid.UUID, time.Time) (*domain.SubscriptionCounts, error) {
	c := r.counts
	return &c, nil
}

func (r *fakeReportRepo) ActiveRevenue(context.Context, uuid.UUID) ([]domain.ActiveRevenue, error) {
	return r.revenue, nil
}

func (r *fakeReportRepo) PaidRevenue(context.Context, uuid.UUID, time.Time) (int64, error) {
	return r.paid, nil
}

func (r *fakeReportRepo) CountCustomers(context.Context, uuid.UUID) (int, error) {
	return r.customers, nil
}

func (r *fakeReportRepo) PlatformStats(context.Context) (*domain.PlatformStats, error) {
	return &domain.PlatformStats{TotalTenants: 1}, nil
}

// fakeGateway stands in for the payment provider
type fakeGateway struct {
	customers   int
	checkouts   []payment.CheckoutInput
	sessions    map[string]*payment.CheckoutSession
	invoices    map[string]*payment.Invoice
	canceled    []string
	events      map[string]*domain.WebhookEvent
	customerErr error
	cancelErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions: map[string]*payment.CheckoutSession{},
		invoices: map[string]*payment.Invoice{},
		events:   map[string]*domain.WebhookEvent{},
	}
}

func (g *fakeGateway) CreateCustomer(context.Context, payment.CustomerInput) (string, error) {
	if g.customerErr != nil {
		return "", g.customerErr
	}
	g.customers++
	return "cus_" + uuid.NewString()[:8], nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, in payment.CheckoutInput) (*payment.CheckoutSession, error) {
	g.checkouts = append(g.checkouts, in)
	id := "cs_" + uuid.NewString()[:8]
	s := &payment.CheckoutSession{ID: id, URL: "https://checkout.test/" + id, CustomerID: in.CustomerID, Metadata: in.Metadata}
	g.sessions[id] = s
	return s, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*payment.CheckoutSession, error) {
	s, ok := g.sessions[id]
	if !ok {
		return nil, errors.Annotate(domain.ErrUpstream, "no such session")
	}
	return s, nil
}

func (g *fakeGateway) GetInvoice(_ context.Context, id string) (*payment.Invoice, error) {
	inv, ok := g.invoices[id]
	if !ok {
		return nil, errors.Annotate(domain.ErrUpstream, "no such invoice")
	}
	return inv, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, id string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.canceled = append(g.canceled, id)
	return nil
}

func (g *fakeGateway) PauseSubscription(context.Context, string) error  { return nil }
func (g *fakeGateway) ResumeSubscription(context.Context, string) error { return nil }

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*domain.WebhookEvent, error) {
	if signature != "valid" {
		return nil, errors.New("bad signature")
	}
	e, ok := g.events[string(payload)]
	if !ok {
		return nil, errors.New("unknown payload")
	}
	return e, nil
}

// fakeMailer records every email it is asked to send
type fakeMailer struct {
	resets    []string
	welcomes  []string
	payments  []email.PaymentConfirmation
	shipments map[string]email.Shipment
	err       error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{shipments: map[string]email.Shipment{}}
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, _, _, token string) error {
	m.resets = append(m.resets, token)
	return m.err
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, to, _, _ string) error {
	m.welcomes = append(m.welcomes, to)
	return m.err
}

func (m *fakeMailer) SendPaymentConfirmationEmail(_ context.Context, _ string, p email.PaymentConfirmation) error {
	m.payments = append(m.payments, p)
	return m.err
}

func (m *fakeMailer) SendShipmentEmail(_ context.Context, to string, s email.Shipment) error {
	m.shipments[to] = s
	return m.err
}

func strPtr(s string) *string { return &s }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
