package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type provisionInput struct {
	Email    string `json:"ownerEmail" validate:"required,email"`
	Slug     string `json:"tenantSlug" validate:"required,min=3,max=50,slug"`
	Interval string `json:"billingInterval" validate:"omitempty,oneof=MONTHLY YEARLY"`
	Country  string `json:"country" validate:"omitempty,len=2"`
}

func TestValidateMessagesUseJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(provisionInput{Email: "nope", Slug: "Bad Slug", Interval: "WEEKLY", Country: "BRA"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "ownerEmail must be a valid email address")
		assert.Contains(t, err.Error(), "tenantSlug must contain only lowercase letters")
		assert.Contains(t, err.Error(), "billingInterval must be one of [MONTHLY YEARLY]")
		assert.Contains(t, err.Error(), "country must be exactly 2 characters")
	}

	assert.NoError(t, v.Validate(provisionInput{Email: "a@acme.com", Slug: "acme-club"}))
}

func TestValidSlug(t *testing.T) {
	for slug, want := range map[string]bool{
		"acme":       true,
		"acme-2024":  true,
		"acme--club": false,
		"-acme":      false,
		"Acme":       false,
		"acme_club":  false,
		"":           false,
	} {
		assert.Equal(t, want, ValidSlug(slug), slug)
	}
}
