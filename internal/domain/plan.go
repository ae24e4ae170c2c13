package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// BillingInterval is the recurrence of a price
type BillingInterval string

const (
	BillingMonthly BillingInterval = "MONTHLY"
	BillingYearly  BillingInterval = "YEARLY"
)

// ParseBillingInterval normalizes user input such as "monthly" or "YEARLY"
func ParseBillingInterval(s string) (BillingInterval, bool) {
	switch BillingInterval(strings.ToUpper(strings.TrimSpace(s))) {
	case BillingMonthly:
		return BillingMonthly, true
	case BillingYearly:
		return BillingYearly, true
	}
	return "", false
}

// PeriodEnd returns the end of a billing period of this interval starting at from
func (i BillingInterval) PeriodEnd(from time.Time) time.Time {
	if i == BillingYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

type Plan struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	TenantID    uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Slug        string         `json:"slug" db:"slug"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	Features    pq.StringArray `json:"features" db:"features"`
	Highlighted bool           `json:"highlighted" db:"highlighted"`
	Active      bool           `json:"active" db:"active"`
	SortOrder   int            `json:"sort_order" db:"sort_order"`
	Prices      []Price        `json:"prices" db:"-"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

type Price struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	PlanID         uuid.UUID       `json:"plan_id" db:"plan_id"`
	Amount         int64           `json:"amount" db:"amount"`
	Currency       string          `json:"currency" db:"currency"`
	Interval       BillingInterval `json:"interval" db:"billing_interval"`
	Active         bool            `json:"active" db:"active"`
	GatewayPriceID string          `json:"gateway_price_id" db:"gateway_price_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// ActivePrice returns the active price for interval, or nil when none is configured
func (p *Plan) ActivePrice(interval BillingInterval) *Price {
	for i := range p.Prices {
		if p.Prices[i].Interval == interval && p.Prices[i].Active {
			return &p.Prices[i]
		}
	}
	return nil
}

// MonthlyAmount returns the minor-unit amount a price contributes per month,
// rounded down. Yearly prices are spread over twelve months.
func (pr *Price) MonthlyAmount() int64 {
	if pr.Interval == BillingYearly {
		return pr.Amount / 12
	}
	return pr.Amount
}
