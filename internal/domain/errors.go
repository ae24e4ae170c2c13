package domain

import "github.com/juju/errors"

const (
	// ErrUpstream marks a failed call to the payment gateway
	ErrUpstream = errors.ConstError("payment gateway failure")

	ErrInvalidCredentials = errors.ConstError("invalid credentials")
	ErrAccountLocked      = errors.ConstError("account is temporarily locked")
	ErrInvalidToken       = errors.ConstError("invalid or expired token")

	// Tenant resolution failures carry their user-facing message
	ErrTenantNotFound  = errors.ConstError(MsgTenantNotFound)
	ErrTenantSuspended = errors.ConstError(MsgTenantSuspended)
	// ErrTenantMismatch is returned when a token was issued for another tenant
	ErrTenantMismatch = errors.ConstError("token does not belong to this club")

	MsgPlanOrPriceNotFound = "Plan or pricing not found"
	MsgPasswordResetSent   = "If the email exists, a password reset link has been sent"
)
