package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

type PlanService struct {
	plans  repository.PlanRepository
	logger *zap.Logger
	now    func() time.Time
}

type PriceInput struct {
	Amount         int64  `json:"amount" validate:"gte=0"`
	Currency       string `json:"currency" validate:"omitempty,len=3"`
	Interval       string `json:"interval" validate:"required,oneof=MONTHLY YEARLY monthly yearly"`
	Active         *bool  `json:"active,omitempty"`
	GatewayPriceID string `json:"gatewayPriceId" validate:"omitempty,max=255"`
}

type PlanInput struct {
	Slug        string       `json:"slug" validate:"required,min=2,max=100,slug"`
	Name        string       `json:"name" validate:"required,min=2,max=200"`
	Description string       `json:"description" validate:"omitempty,max=5000"`
	Features    []string     `json:"features" validate:"omitempty,dive,max=200"`
	Highlighted bool         `json:"highlighted"`
	Active      *bool        `json:"active,omitempty"`
	SortOrder   int          `json:"sortOrder"`
	Prices      []PriceInput `json:"prices" validate:"omitempty,dive"`
}

func NewPlanService(plans repository.PlanRepository, logger *zap.Logger) *PlanService {
	return &PlanService{
		plans:  plans,
		logger: logger.Named("plan"),
		now:    time.Now,
	}
}

// ListPublic returns the active plans of the tenant storefront
func (s *PlanService) ListPublic(ctx context.Context, tc domain.TenantContext) ([]*domain.Plan, error) {
	plans, err := s.plans.ListByTenant(ctx, tc.ID, true)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		p.Prices = activePrices(p.Prices)
	}
	return plans, nil
}

func activePrices(prices []domain.Price) []domain.Price {
	out := make([]domain.Price, 0, len(prices))
	for _, pr := range prices {
		if pr.Active {
			out = append(out, pr)
		}
	}
	return out
}

func (s *PlanService) List(ctx context.Context, tc domain.TenantContext) ([]*domain.Plan, error) {
	return s.plans.ListByTenant(ctx, tc.ID, false)
}

func (s *PlanService) GetBySlug(ctx context.Context, tc domain.TenantContext, slug string) (*domain.Plan, error) {
	return s.plans.GetBySlug(ctx, tc.ID, strings.ToLower(slug))
}

func (s *PlanService) Create(ctx context.Context, tc domain.TenantContext, in PlanInput) (*domain.Plan, error) {
	now := s.now()
	plan := &domain.Plan{
		ID:        uuid.New(),
		TenantID:  tc.ID,
		Slug:      strings.ToLower(in.Slug),
		Active:    true,
		CreatedAt: now,
	}
	if err := applyPlanInput(plan, in, now); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info("plan created", zap.String("tenant", tc.Slug), zap.String("slug", plan.Slug))
	return plan, nil
}

// Update rewrites the plan fields and upserts its prices by interval. The
// slug is immutable.
func (s *PlanService) Update(ctx context.Context, tc domain.TenantContext, id uuid.UUID, in PlanInput) (*domain.Plan, error) {
	plan, err := s.plans.GetByID(ctx, tc.ID, id)
	if err != nil {
		return nil, err
	}
	if err := applyPlanInput(plan, in, s.now()); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete deactivates the plan; subscriptions keep referencing it
func (s *PlanService) Delete(ctx context.Context, tc domain.TenantContext, id uuid.UUID) error {
	return s.plans.Deactivate(ctx, tc.ID, id)
}

func applyPlanInput(plan *domain.Plan, in PlanInput, now time.Time) error {
	plan.Name = strings.TrimSpace(in.Name)
	plan.Description = in.Description
	plan.Features = append([]string{}, in.Features...)
	plan.Highlighted = in.Highlighted
	plan.SortOrder = in.SortOrder
	if in.Active != nil {
		plan.Active = *in.Active
	}
	plan.UpdatedAt = now

	seen := make(map[domain.BillingInterval]bool, len(in.Prices))
	for _, pi := range in.Prices {
		interval, ok := domain.ParseBillingInterval(pi.Interval)
		if !ok {
			return errors.NotValidf("billing interval %q", pi.Interval)
		}
		if seen[interval] {
			return errors.NotValidf("duplicate %s price", interval)
		}
		seen[interval] = true
		setPrice(plan, interval, pi, now)
	}
	return nil
}

// setPrice updates the plan's price for interval in place, or appends one
func setPrice(plan *domain.Plan, interval domain.BillingInterval, pi PriceInput, now time.Time) {
	currency := strings.ToUpper(pi.Currency)
	if currency == "" {
		currency = "BRL"
	}
	active := true
	if pi.Active != nil {
		active = *pi.Active
	}

	for i := range plan.Prices {
		if plan.Prices[i].Interval == interval {
			plan.Prices[i].Amount = pi.Amount
			plan.Prices[i].Currency = currency
			plan.Prices[i].Active = active
			plan.Prices[i].GatewayPriceID = pi.GatewayPriceID
			return
		}
	}
	plan.Prices = append(plan.Prices, domain.Price{
		ID:             uuid.New(),
		PlanID:         plan.ID,
		Amount:         pi.Amount,
		Currency:       currency,
		Interval:       interval,
		Active:         active,
		GatewayPriceID: pi.GatewayPriceID,
		CreatedAt:      now,
	})
}
