package domain

import (
	"github.com/shopspring/decimal"
)

// SubscriptionCounts groups a tenant's subscriptions by status
type SubscriptionCounts struct {
	Active  int `json:"active" db:"active"`
	Paused  int `json:"paused" db:"paused"`
	PastDue int `json:"past_due" db:"past_due"`
	Pending int `json:"pending" db:"pending"`
	// Canceled30d counts subscriptions canceled in the last 30 days
	Canceled30d int `json:"canceled_30d" db:"canceled_30d"`
}

// ActiveRevenue is the monthly-normalized revenue of one plan price
type ActiveRevenue struct {
	Interval      BillingInterval `db:"billing_interval"`
	Amount        int64           `db:"amount"`
	Subscriptions int             `db:"subscriptions"`
}

type DashboardStats struct {
	Counts        SubscriptionCounts `json:"counts"`
	MRR           decimal.Decimal    `json:"mrr"`
	ARR           decimal.Decimal    `json:"arr"`
	ChurnRate30d  decimal.Decimal    `json:"churn_rate_30d"`
	TotalCustomer int                `json:"total_customers"`
	Revenue30d    decimal.Decimal    `json:"revenue_30d"`
	Currency      string             `json:"currency"`
}

// PlatformStats is the superadmin view across all tenants
type PlatformStats struct {
	TotalTenants        int `json:"total_tenants" db:"total_tenants"`
	ActiveTenants       int `json:"active_tenants" db:"active_tenants"`
	TrialTenants        int `json:"trial_tenants" db:"trial_tenants"`
	SuspendedTenants    int `json:"suspended_tenants" db:"suspended_tenants"`
	TotalUsers          int `json:"total_users" db:"total_users"`
	ActiveSubscriptions int `json:"active_subscriptions" db:"active_subscriptions"`
}
