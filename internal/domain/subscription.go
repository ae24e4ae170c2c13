package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "PENDING"
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionPaused   SubscriptionStatus = "PAUSED"
	SubscriptionPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// Valid reports whether s is a known subscription status
func (s SubscriptionStatus) Valid() bool {
	_, ok := subscriptionTransitions[s]
	return ok
}

// subscriptionTransitions lists, per status, the statuses it may move to.
// CANCELED is terminal.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionPending:  {SubscriptionActive, SubscriptionCanceled},
	SubscriptionActive:   {SubscriptionActive, SubscriptionPastDue, SubscriptionPaused, SubscriptionCanceled},
	SubscriptionPastDue:  {SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled},
	SubscriptionPaused:   {SubscriptionActive, SubscriptionCanceled},
	SubscriptionCanceled: {},
}

// CanTransition reports whether a subscription in status from may move to to
func (s SubscriptionStatus) CanTransition(to SubscriptionStatus) bool {
	for _, next := range subscriptionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Subscription struct {
	ID                    uuid.UUID          `json:"id" db:"id"`
	TenantID              uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	UserID                uuid.UUID          `json:"user_id" db:"user_id"`
	PlanID                uuid.UUID          `json:"plan_id" db:"plan_id"`
	BillingInterval       BillingInterval    `json:"billing_interval" db:"billing_interval"`
	Status                SubscriptionStatus `json:"status" db:"status"`
	GatewayCustomerID     *string            `json:"gateway_customer_id,omitempty" db:"gateway_customer_id"`
	GatewaySubscriptionID *string            `json:"gateway_subscription_id,omitempty" db:"gateway_subscription_id"`
	CurrentPeriodStart    *time.Time         `json:"current_period_start,omitempty" db:"current_period_start"`
	CurrentPeriodEnd      *time.Time         `json:"current_period_end,omitempty" db:"current_period_end"`
	CanceledAt            *time.Time         `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt             time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" db:"updated_at"`
}

// SubscriptionDetails is a subscription joined with its plan and subscriber
type SubscriptionDetails struct {
	Subscription
	PlanSlug  string `json:"plan_slug" db:"plan_slug"`
	PlanName  string `json:"plan_name" db:"plan_name"`
	UserName  string `json:"user_name" db:"user_name"`
	UserEmail string `json:"user_email" db:"user_email"`
	Amount    int64  `json:"amount" db:"amount"`
	Currency  string `json:"currency" db:"currency"`
}

// CheckoutAction is what checkout does with an existing (user, plan) row
type CheckoutAction int

const (
	// CheckoutInsert creates a new PENDING row
	CheckoutInsert CheckoutAction = iota
	// CheckoutReuse keeps the existing PENDING row as is
	CheckoutReuse
	// CheckoutReset moves the existing row back to PENDING
	CheckoutReset
	// CheckoutReject refuses the checkout
	CheckoutReject
)

func (a CheckoutAction) String() string {
	switch a {
	case CheckoutInsert:
		return "insert"
	case CheckoutReuse:
		return "reuse"
	case CheckoutReset:
		return "reset"
	case CheckoutReject:
		return "reject"
	}
	return "unknown"
}

var checkoutDecisions = map[SubscriptionStatus]CheckoutAction{
	SubscriptionPending:  CheckoutReuse,
	SubscriptionActive:   CheckoutReject,
	SubscriptionPaused:   CheckoutReset,
	SubscriptionPastDue:  CheckoutReset,
	SubscriptionCanceled: CheckoutReset,
}

// DecideCheckout returns the action for the existing (user, plan) subscription
// row, which may be nil.
func DecideCheckout(existing *Subscription) CheckoutAction {
	if existing == nil {
		return CheckoutInsert
	}
	if action, ok := checkoutDecisions[existing.Status]; ok {
		return action
	}
	return CheckoutReset
}

// NextBillingDate returns invoicePeriodEnd unless it is today or earlier, in
// which case it advances one month from now.
func NextBillingDate(invoicePeriodEnd, now time.Time) time.Time {
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	if invoicePeriodEnd.IsZero() || !invoicePeriodEnd.After(endOfToday) {
		return now.AddDate(0, 1, 0)
	}
	return invoicePeriodEnd
}
