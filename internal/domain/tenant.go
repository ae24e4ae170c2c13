package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus represents the lifecycle status of a tenant
type TenantStatus string

const (
	TenantStatusTrial     TenantStatus = "TRIAL"
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusDeleted   TenantStatus = "DELETED"
)

// Valid reports whether s is one of the known tenant statuses
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusTrial, TenantStatusActive, TenantStatusSuspended, TenantStatusDeleted:
		return true
	}
	return false
}

// User-facing messages returned by tenant resolution. A deleted tenant
// shares the not-found message so its existence is not revealed.
const (
	MsgTenantNotFound  = "Club not found"
	MsgTenantSuspended = "This club is temporarily suspended. Please contact the club administrator."
)

// Tenant represents a club: an isolated organization with its own users,
// plans and subscribers
type Tenant struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Slug         string         `json:"slug" db:"slug"`
	BusinessType string         `json:"business_type" db:"business_type"`
	Status       TenantStatus   `json:"status" db:"status"`
	OwnerID      *uuid.UUID     `json:"owner_id,omitempty" db:"owner_id"`
	Settings     TenantSettings `json:"settings" db:"settings"`
	Currency     string         `json:"currency" db:"currency"`
	Country      string         `json:"country" db:"country"`
	Timezone     string         `json:"timezone" db:"timezone"`
	TrialEndsAt  *time.Time     `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	DeletedAt    *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// IsDeleted reports whether the tenant was soft deleted
func (t *Tenant) IsDeleted() bool {
	return t.Status == TenantStatusDeleted || t.DeletedAt != nil
}

// IsOperational reports whether tenant-scoped operations may proceed
func (t *Tenant) IsOperational() bool {
	if t.IsDeleted() {
		return false
	}
	return t.Status == TenantStatusActive || t.Status == TenantStatusTrial
}

// Context returns the immutable request-scoped view of the tenant
func (t *Tenant) Context() TenantContext {
	return TenantContext{ID: t.ID, Slug: t.Slug, Name: t.Name}
}

// TenantContext is the resolved tenant attached to a request. It is passed by
// value into every tenant-scoped service call.
type TenantContext struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
}

// IsZero reports whether no tenant was resolved
func (c TenantContext) IsZero() bool {
	return c.ID == uuid.Nil
}

// TenantSummary is the superadmin listing row
type TenantSummary struct {
	Tenant
	OwnerEmail          *string `json:"owner_email,omitempty" db:"owner_email"`
	ActiveSubscriptions int     `json:"active_subscriptions" db:"active_subscriptions"`
	TotalUsers          int     `json:"total_users" db:"total_users"`
}
