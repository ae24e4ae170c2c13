package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

func provisionAcme(t *testing.T, env *testEnv) *ProvisionResult {
	t.Helper()
	res, err := env.tenantSvc.Provision(context.Background(), ProvisionRequest{
		TenantName:    "Acme Coffee Club",
		TenantSlug:    "acme",
		OwnerName:     "Alice",
		OwnerEmail:    "a@acme.com",
		OwnerPassword: "password123",
		Currency:      "usd",
	}, meta)
	require.NoError(t, err)
	return res
}

func TestProvisionThenLookup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := provisionAcme(t, env)
	assert.Equal(t, domain.TenantStatusTrial, res.Tenant.Status)
	assert.Equal(t, "USD", res.Tenant.Currency)
	assert.Equal(t, "BR", res.Tenant.Country)
	require.NotNil(t, res.Tenant.TrialEndsAt)
	assert.Equal(t, domain.RoleAdmin, res.Owner.Role)
	assert.Equal(t, "a@acme.com", res.Owner.Email)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	require.NotNil(t, res.Tenant.OwnerID)
	assert.Equal(t, res.Owner.ID, *res.Tenant.OwnerID)

	claims, err := env.auth.tokens.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.HasTenant(res.Tenant.ID))
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	found, err := env.tenantSvc.Lookup(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, found.Found)
	require.NotNil(t, found.Tenant)
	assert.Equal(t, "Acme Coffee Club", found.Tenant.Settings.Content.Headline)
	assert.Equal(t, "a@acme.com", found.Tenant.Settings.Contact.Email)

	_, err = env.tenantSvc.Provision(ctx, ProvisionRequest{
		TenantName: "Other", TenantSlug: "acme", OwnerName: "Bob", OwnerEmail: "b@other.com", OwnerPassword: "password123",
	}, meta)
	assert.True(t, errors.Is(err, errors.AlreadyExists))
}

func TestProvisionRejectsMalformedSlug(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tenantSvc.Provision(context.Background(), ProvisionRequest{
		TenantName: "Bad", TenantSlug: "bad--slug", OwnerName: "Bob", OwnerEmail: "b@bad.com", OwnerPassword: "password123",
	}, meta)
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Empty(t, env.tenants.byID)
}

func TestLookupHidesUnavailableTenants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	suspended := env.addTenant("sleepy")
	deleted := env.addTenant("gone")
	require.NoError(t, env.tenants.UpdateStatus(ctx, suspended.ID, domain.TenantStatusSuspended, nil))
	require.NoError(t, env.tenantSvc.SoftDelete(ctx, deleted.ID))

	res, err := env.tenantSvc.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, res.Found)

	res, err = env.tenantSvc.Lookup(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.False(t, res.Suspended)

	res, err = env.tenantSvc.Lookup(ctx, "sleepy")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.True(t, res.Suspended)
	assert.Nil(t, res.Tenant)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acme := env.addTenant("acme")
	sleepy := env.addTenant("sleepy")
	require.NoError(t, env.tenants.UpdateStatus(ctx, sleepy.ID, domain.TenantStatusSuspended, nil))

	tc, err := env.tenantSvc.Resolve(ctx, " ACME ")
	require.NoError(t, err)
	assert.Equal(t, acme, tc)

	_, err = env.tenantSvc.Resolve(ctx, "nobody")
	assert.True(t, errors.Is(err, domain.ErrTenantNotFound))

	_, err = env.tenantSvc.Resolve(ctx, "sleepy")
	assert.True(t, errors.Is(err, domain.ErrTenantSuspended))
}

func TestUpdateSettingsMergesSections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tc := env.addTenant("acme")
	color := "#000000"
	phone := "+55 11 90000-0000"

	merged, err := env.tenantSvc.UpdateSettings(ctx, tc, domain.TenantSettingsPatch{
		Theme:   &domain.ThemePatch{PrimaryColor: &color},
		Contact: &domain.ContactPatch{Phone: &phone},
	})
	require.NoError(t, err)
	assert.Equal(t, color, merged.Theme.PrimaryColor)
	assert.Equal(t, "#F59E0B", merged.Theme.SecondaryColor)
	assert.Equal(t, phone, merged.Contact.Phone)
	assert.Equal(t, "owner@acme.test", merged.Contact.Email)

	stored, err := env.tenantSvc.Get(ctx, tc)
	require.NoError(t, err)
	assert.Equal(t, merged, stored.Settings)
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tc := env.addTenant("acme")

	got, err := env.tenantSvc.ChangeStatus(ctx, tc.ID, domain.TenantStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, domain.TenantStatusSuspended, got.Status)

	_, err = env.tenantSvc.ChangeStatus(ctx, tc.ID, domain.TenantStatusDeleted)
	assert.True(t, errors.Is(err, errors.NotValid))

	require.NoError(t, env.tenantSvc.SoftDelete(ctx, tc.ID))
	_, err = env.tenantSvc.ChangeStatus(ctx, tc.ID, domain.TenantStatusActive)
	assert.True(t, errors.Is(err, errors.NotFound))

	_, err = env.tenantSvc.ChangeStatus(ctx, uuid.New(), domain.TenantStatusActive)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestListTenantsRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.tenantSvc.List(context.Background(), "ZOMBIE", 10, 0)
	assert.True(t, errors.Is(err, errors.NotValid))
}
