package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/config"
	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
	"github.com/osvaldobrewjaria/fazumclube/pkg/email"
	"github.com/osvaldobrewjaria/fazumclube/pkg/metrics"
	"github.com/osvaldobrewjaria/fazumclube/pkg/payment"
)

// Statuses each user action may start from
var (
	cancelableStatuses = []domain.SubscriptionStatus{domain.SubscriptionActive, domain.SubscriptionPastDue, domain.SubscriptionPaused}
	pausableStatuses   = []domain.SubscriptionStatus{domain.SubscriptionActive}
	resumableStatuses  = []domain.SubscriptionStatus{domain.SubscriptionPaused}
)

type SubscriptionService struct {
	subs     repository.SubscriptionRepository
	plans    repository.PlanRepository
	users    repository.UserRepository
	payments repository.PaymentRepository
	tenants  repository.TenantRepository
	gateway  payment.Gateway
	emails   email.EmailService
	metrics  *metrics.Collector
	cfg      config.StripeConfig
	logger   *zap.Logger
	now      func() time.Time
}

type CheckoutRequest struct {
	PlanSlug        string `json:"planSlug" validate:"required"`
	BillingInterval string `json:"billingInterval" validate:"required"`
}

type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	payments repository.PaymentRepository,
	tenants repository.TenantRepository,
	gateway payment.Gateway,
	emails email.EmailService,
	collector *metrics.Collector,
	cfg config.StripeConfig,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subs:     subs,
		plans:    plans,
		users:    users,
		payments: payments,
		tenants:  tenants,
		gateway:  gateway,
		emails:   emails,
		metrics:  collector,
		cfg:      cfg,
		logger:   logger.Named("subscription"),
		now:      time.Now,
	}
}

// StartCheckout prepares a PENDING subscription for the plan and opens a
// gateway checkout session for it. Nothing becomes ACTIVE here; activation
// arrives through the checkout.session.completed webhook.
func (s *SubscriptionService) StartCheckout(ctx context.Context, tc domain.TenantContext, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	interval, ok := domain.ParseBillingInterval(req.BillingInterval)
	if !ok {
		return nil, errors.NotValidf("billing interval %q", req.BillingInterval)
	}

	plan, err := s.plans.GetBySlug(ctx, tc.ID, req.PlanSlug)
	if err != nil && !errors.Is(err, errors.NotFound) {
		return nil, err
	}
	var price *domain.Price
	if plan != nil && plan.Active {
		price = plan.ActivePrice(interval)
	}
	if price == nil {
		s.metrics.RecordCheckout("no_price")
		return nil, errors.BadRequestf("%s", domain.MsgPlanOrPriceNotFound)
	}

	active, err := s.subs.HasActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active {
		s.metrics.RecordCheckout("already_active")
		return nil, errors.AlreadyExistsf("active subscription")
	}

	existing, err := s.subs.GetByUserAndPlan(ctx, userID, plan.ID)
	if errors.Is(err, errors.NotFound) {
		existing, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	action := domain.DecideCheckout(existing)
	if action == domain.CheckoutReject {
		s.metrics.RecordCheckout("already_active")
		return nil, errors.AlreadyExistsf("active subscription")
	}

	customerID, err := s.customerFor(ctx, tc, userID, existing)
	if err != nil {
		s.metrics.RecordCheckout("gateway_error")
		return nil, err
	}

	now := s.now()
	var sub *domain.Subscription
	switch action {
	case domain.CheckoutInsert:
		sub = &domain.Subscription{
			ID:                uuid.New(),
			TenantID:          tc.ID,
			UserID:            userID,
			PlanID:            plan.ID,
			BillingInterval:   interval,
			Status:            domain.SubscriptionPending,
			GatewayCustomerID: &customerID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		err = s.subs.Create(ctx, sub)
	case domain.CheckoutReuse, domain.CheckoutReset:
		sub = existing
		sub.Status = domain.SubscriptionPending
		sub.BillingInterval = interval
		sub.GatewayCustomerID = &customerID
		sub.CanceledAt = nil
		sub.UpdatedAt = now
		err = s.subs.Update(ctx, sub)
	}
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutInput{
		CustomerID:     customerID,
		GatewayPriceID: price.GatewayPriceID,
		SuccessURL:     s.cfg.SuccessURL,
		CancelURL:      s.cfg.CancelURL,
		Metadata: map[string]string{
			payment.MetaSubscriptionID: sub.ID.String(),
			payment.MetaTenantID:       tc.ID.String(),
			payment.MetaTenantSlug:     tc.Slug,
		},
	})
	if err != nil {
		s.metrics.RecordCheckout("gateway_error")
		return nil, err
	}

	s.metrics.RecordCheckout(action.String())
	s.logger.Info("checkout session created",
		zap.String("tenant", tc.Slug),
		zap.String("subscription_id", sub.ID.String()),
		zap.Stringer("action", action),
	)
	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// customerFor reuses the gateway customer of an earlier (user, plan) row or
// creates one
func (s *SubscriptionService) customerFor(ctx context.Context, tc domain.TenantContext, userID uuid.UUID, existing *domain.Subscription) (string, error) {
	if existing != nil && existing.GatewayCustomerID != nil && *existing.GatewayCustomerID != "" {
		return *existing.GatewayCustomerID, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.gateway.CreateCustomer(ctx, payment.CustomerInput{
		Email:    user.Email,
		Name:     user.Name,
		TenantID: tc.ID.String(),
		UserID:   user.ID.String(),
	})
}

// ReconcileCheckoutCompleted activates the subscription named in the session
// metadata. Replays of the same session leave the row unchanged.
func (s *SubscriptionService) ReconcileCheckoutCompleted(ctx context.Context, sessionID string) error {
	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return err
	}

	raw := session.Metadata[payment.MetaSubscriptionID]
	if raw == "" {
		return errors.BadRequestf("checkout session %s has no subscription metadata", sessionID)
	}
	subID, err := uuid.Parse(raw)
	if err != nil {
		return errors.BadRequestf("checkout session %s has malformed subscription metadata", sessionID)
	}

	sub, err := s.subs.GetByID(ctx, subID)
	if errors.Is(err, errors.NotFound) {
		s.logger.Warn("checkout completed for unknown subscription", zap.String("subscription_id", raw))
		return nil
	}
	if err != nil {
		return err
	}

	if sub.Status == domain.SubscriptionActive && sub.GatewaySubscriptionID != nil &&
		*sub.GatewaySubscriptionID == session.SubscriptionID {
		return nil
	}

	now := s.now()
	periodEnd := sub.BillingInterval.PeriodEnd(now)
	if session.CustomerID != "" {
		sub.GatewayCustomerID = &session.CustomerID
	}
	if session.SubscriptionID != "" {
		sub.GatewaySubscriptionID = &session.SubscriptionID
	}
	sub.Status = domain.SubscriptionActive
	sub.CurrentPeriodStart = &now
	sub.CurrentPeriodEnd = &periodEnd
	sub.CanceledAt = nil
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}
	s.logger.Info("subscription activated", zap.String("subscription_id", sub.ID.String()))

	s.sendWelcome(ctx, sub)
	return nil
}

// ReconcilePaymentSucceeded moves the billing period forward and records a
// PAID payment. PAST_DUE rows become ACTIVE again. PAUSED rows stay paused
// but still get the paid period. CANCELED rows keep their status and only
// get the payment. Invoices that do not belong to a known subscription are
// ignored.
func (s *SubscriptionService) ReconcilePaymentSucceeded(ctx context.Context, invoiceID string) error {
	inv, sub, err := s.invoiceSubscription(ctx, invoiceID)
	if err != nil || sub == nil {
		return err
	}

	now := s.now()
	next := domain.NextBillingDate(inv.PeriodEnd, now)
	refresh := sub.Status.CanTransition(domain.SubscriptionActive)
	if refresh {
		if sub.Status != domain.SubscriptionPaused {
			sub.Status = domain.SubscriptionActive
		}
		sub.CurrentPeriodStart = &now
		sub.CurrentPeriodEnd = &next
		sub.UpdatedAt = now
		if err := s.subs.Update(ctx, sub); err != nil {
			return err
		}
	} else {
		s.logger.Warn("payment succeeded for subscription that cannot be renewed",
			zap.String("subscription_id", sub.ID.String()), zap.String("status", string(sub.Status)))
	}

	// written after the update so a redelivered event records it once
	if err := s.recordPayment(ctx, sub, inv, inv.AmountPaid, domain.PaymentPaid, now); err != nil {
		return err
	}

	if refresh {
		s.sendPaymentConfirmation(ctx, sub, inv, next)
	}
	return nil
}

// ReconcilePaymentFailed marks the subscription PAST_DUE and records a
// FAILED payment
func (s *SubscriptionService) ReconcilePaymentFailed(ctx context.Context, invoiceID string) error {
	inv, sub, err := s.invoiceSubscription(ctx, invoiceID)
	if err != nil || sub == nil {
		return err
	}

	now := s.now()
	if sub.Status.CanTransition(domain.SubscriptionPastDue) {
		sub.Status = domain.SubscriptionPastDue
		sub.UpdatedAt = now
		if err := s.subs.Update(ctx, sub); err != nil {
			return err
		}
	} else {
		s.logger.Warn("payment failed for subscription that cannot go past due",
			zap.String("subscription_id", sub.ID.String()), zap.String("status", string(sub.Status)))
	}

	return s.recordPayment(ctx, sub, inv, inv.AmountDue, domain.PaymentFailed, now)
}

// ReconcileSubscriptionDeleted cancels the local row of a gateway
// subscription. Unknown ids are ignored.
func (s *SubscriptionService) ReconcileSubscriptionDeleted(ctx context.Context, gatewaySubscriptionID string) error {
	sub, err := s.subs.GetByGatewayID(ctx, gatewaySubscriptionID)
	if errors.Is(err, errors.NotFound) {
		s.logger.Debug("deleted gateway subscription is unknown", zap.String("gateway_id", gatewaySubscriptionID))
		return nil
	}
	if err != nil {
		return err
	}
	if sub.Status == domain.SubscriptionCanceled {
		return nil
	}

	now := s.now()
	sub.Status = domain.SubscriptionCanceled
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	return s.subs.Update(ctx, sub)
}

// invoiceSubscription loads the invoice and its local subscription. A nil
// subscription with a nil error means there is nothing to reconcile.
func (s *SubscriptionService) invoiceSubscription(ctx context.Context, invoiceID string) (*payment.Invoice, *domain.Subscription, error) {
	inv, err := s.gateway.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv.SubscriptionID == "" {
		s.logger.Debug("invoice without subscription", zap.String("invoice_id", invoiceID))
		return inv, nil, nil
	}

	sub, err := s.subs.GetByGatewayID(ctx, inv.SubscriptionID)
	if errors.Is(err, errors.NotFound) {
		s.logger.Warn("invoice for unknown subscription",
			zap.String("invoice_id", invoiceID), zap.String("gateway_id", inv.SubscriptionID))
		return inv, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return inv, sub, nil
}

func (s *SubscriptionService) recordPayment(ctx context.Context, sub *domain.Subscription, inv *payment.Invoice, amount int64, status domain.PaymentStatus, now time.Time) error {
	currency := inv.Currency
	if currency == "" {
		currency = "BRL"
	}
	p := &domain.Payment{
		ID:               uuid.New(),
		TenantID:         sub.TenantID,
		SubscriptionID:   sub.ID,
		Amount:           amount,
		Currency:         currency,
		Status:           status,
		GatewayInvoiceID: inv.ID,
		CreatedAt:        now,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return err
	}
	s.metrics.RecordPayment(string(status))
	return nil
}

// Cancel cancels the user's most recent cancelable subscription. The gateway
// is told first; the local row is canceled once it agrees.
func (s *SubscriptionService) Cancel(ctx context.Context, tc domain.TenantContext, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.latest(ctx, tc, userID, cancelableStatuses)
	if err != nil {
		return nil, err
	}

	if sub.GatewaySubscriptionID != nil && *sub.GatewaySubscriptionID != "" {
		if err := s.gateway.CancelSubscription(ctx, *sub.GatewaySubscriptionID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	sub.Status = domain.SubscriptionCanceled
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("subscription canceled", zap.String("subscription_id", sub.ID.String()))
	return sub, nil
}

// Pause suspends the user's active subscription. Only the local status
// changes.
func (s *SubscriptionService) Pause(ctx context.Context, tc domain.TenantContext, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.latest(ctx, tc, userID, pausableStatuses)
	if err != nil {
		return nil, err
	}
	if sub.GatewaySubscriptionID != nil {
		if err := s.gateway.PauseSubscription(ctx, *sub.GatewaySubscriptionID); err != nil {
			return nil, err
		}
	}
	return s.setStatus(ctx, sub, domain.SubscriptionPaused)
}

func (s *SubscriptionService) Resume(ctx context.Context, tc domain.TenantContext, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.latest(ctx, tc, userID, resumableStatuses)
	if err != nil {
		return nil, err
	}
	if sub.GatewaySubscriptionID != nil {
		if err := s.gateway.ResumeSubscription(ctx, *sub.GatewaySubscriptionID); err != nil {
			return nil, err
		}
	}
	return s.setStatus(ctx, sub, domain.SubscriptionActive)
}

func (s *SubscriptionService) latest(ctx context.Context, tc domain.TenantContext, userID uuid.UUID, statuses []domain.SubscriptionStatus) (*domain.Subscription, error) {
	sub, err := s.subs.GetLatestByUser(ctx, tc.ID, userID, statuses...)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.NotFoundf("subscription")
	}
	return sub, err
}

func (s *SubscriptionService) setStatus(ctx context.Context, sub *domain.Subscription, status domain.SubscriptionStatus) (*domain.Subscription, error) {
	sub.Status = status
	sub.UpdatedAt = s.now()
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Me returns the user's most recent subscription in the tenant, or nil
func (s *SubscriptionService) Me(ctx context.Context, tc domain.TenantContext, userID uuid.UUID) (*domain.SubscriptionDetails, error) {
	sub, err := s.subs.GetLatestByUser(ctx, tc.ID, userID)
	if errors.Is(err, errors.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.subs.GetDetails(ctx, sub.ID)
}

func (s *SubscriptionService) MyPayments(ctx context.Context, tc domain.TenantContext, userID uuid.UUID) ([]*domain.Payment, error) {
	return s.payments.ListByUser(ctx, tc.ID, userID)
}

func (s *SubscriptionService) ListSubscribers(ctx context.Context, tc domain.TenantContext, filter repository.SubscriptionFilter) ([]*domain.SubscriptionDetails, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, errors.NotValidf("status %q", filter.Status)
	}
	return s.subs.ListByTenant(ctx, tc.ID, filter)
}

func (s *SubscriptionService) ListPayments(ctx context.Context, tc domain.TenantContext, limit, offset int) ([]*domain.PaymentDetails, int, error) {
	return s.payments.ListByTenant(ctx, tc.ID, limit, offset)
}

func (s *SubscriptionService) clubName(ctx context.Context, tenantID uuid.UUID) string {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return ""
	}
	return tenant.Name
}

func (s *SubscriptionService) sendWelcome(ctx context.Context, sub *domain.Subscription) {
	user, err := s.users.GetByID(ctx, sub.UserID)
	if err != nil {
		s.logger.Warn("loading subscriber for welcome email", zap.Error(err))
		return
	}
	err = s.emails.SendWelcomeEmail(ctx, user.Email, user.Name, s.clubName(ctx, sub.TenantID))
	s.metrics.RecordEmail("welcome", err)
	if err != nil {
		s.logger.Error("sending welcome email", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *SubscriptionService) sendPaymentConfirmation(ctx context.Context, sub *domain.Subscription, inv *payment.Invoice, next time.Time) {
	user, err := s.users.GetByID(ctx, sub.UserID)
	if err != nil {
		s.logger.Warn("loading subscriber for payment email", zap.Error(err))
		return
	}
	err = s.emails.SendPaymentConfirmationEmail(ctx, user.Email, email.PaymentConfirmation{
		Name:            user.Name,
		ClubName:        s.clubName(ctx, sub.TenantID),
		Amount:          inv.AmountPaid,
		Currency:        inv.Currency,
		NextBillingDate: next,
	})
	s.metrics.RecordEmail("payment_confirmation", err)
	if err != nil {
		s.logger.Error("sending payment confirmation", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}
