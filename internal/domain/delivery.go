package domain

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryPreparing DeliveryStatus = "PREPARING"
	DeliveryShipped   DeliveryStatus = "SHIPPED"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryReturned  DeliveryStatus = "RETURNED"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryPreparing, DeliveryShipped, DeliveryDelivered, DeliveryReturned:
		return true
	}
	return false
}

// Delivery is the fulfillment record of one subscription for one calendar month
type Delivery struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	TenantID       uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	SubscriptionID uuid.UUID      `json:"subscription_id" db:"subscription_id"`
	ReferenceMonth int            `json:"reference_month" db:"reference_month"`
	ReferenceYear  int            `json:"reference_year" db:"reference_year"`
	Status         DeliveryStatus `json:"status" db:"status"`
	TrackingCode   *string        `json:"tracking_code,omitempty" db:"tracking_code"`
	TrackingURL    *string        `json:"tracking_url,omitempty" db:"tracking_url"`
	Notes          *string        `json:"notes,omitempty" db:"notes"`
	ShippedAt      *time.Time     `json:"shipped_at,omitempty" db:"shipped_at"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// DeliveryUpdate carries the fields an admin may change. Nil fields are kept.
type DeliveryUpdate struct {
	Status       *DeliveryStatus `json:"status,omitempty"`
	TrackingCode *string         `json:"trackingCode,omitempty"`
	TrackingURL  *string         `json:"trackingUrl,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
}

// NewDelivery builds the row created by the first update of a period
func NewDelivery(tenantID, subscriptionID uuid.UUID, month, year int, now time.Time) *Delivery {
	return &Delivery{
		ID:             uuid.New(),
		TenantID:       tenantID,
		SubscriptionID: subscriptionID,
		ReferenceMonth: month,
		ReferenceYear:  year,
		Status:         DeliveryPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Apply merges u into d and stamps shipped/delivered times on those
// transitions. It reports whether the update moved the delivery to SHIPPED.
func (d *Delivery) Apply(u DeliveryUpdate, now time.Time) (shipped bool) {
	if u.Status != nil {
		if *u.Status == DeliveryShipped {
			shipped = true
			d.ShippedAt = &now
		}
		if *u.Status == DeliveryDelivered {
			d.DeliveredAt = &now
		}
		d.Status = *u.Status
	}
	if u.TrackingCode != nil {
		d.TrackingCode = u.TrackingCode
	}
	if u.TrackingURL != nil {
		d.TrackingURL = u.TrackingURL
	}
	if u.Notes != nil {
		d.Notes = u.Notes
	}
	d.UpdatedAt = now
	return shipped
}

// DeliveryRow is a subscriber of a month joined with the delivery for that
// month, if any. It feeds the admin listing and the CSV export.
type DeliveryRow struct {
	SubscriptionID uuid.UUID       `json:"subscription_id" db:"subscription_id"`
	UserName       string          `json:"user_name" db:"user_name"`
	UserEmail      string          `json:"user_email" db:"user_email"`
	Phone          *string         `json:"phone,omitempty" db:"phone"`
	PlanName       string          `json:"plan_name" db:"plan_name"`
	Street         *string         `json:"street,omitempty" db:"street"`
	Number         *string         `json:"number,omitempty" db:"number"`
	Complement     *string         `json:"complement,omitempty" db:"complement"`
	District       *string         `json:"district,omitempty" db:"district"`
	City           *string         `json:"city,omitempty" db:"city"`
	State          *string         `json:"state,omitempty" db:"state"`
	ZipCode        *string         `json:"zip_code,omitempty" db:"zip_code"`
	DeliveryID     *uuid.UUID      `json:"delivery_id,omitempty" db:"delivery_id"`
	Status         *DeliveryStatus `json:"status,omitempty" db:"status"`
	TrackingCode   *string         `json:"tracking_code,omitempty" db:"tracking_code"`
	TrackingURL    *string         `json:"tracking_url,omitempty" db:"tracking_url"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty" db:"shipped_at"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
}
