package service

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

func TestCustomerProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tc := env.addTenant("acme")
	user := env.addUser(t, tc, "u@acme.com", "password123", domain.RoleUser)

	empty, err := env.customerSvc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, empty.UserID)
	assert.Nil(t, empty.Address)

	birth := "1990-04-21"
	saved, err := env.customerSvc.SaveProfile(ctx, user.ID, ProfileInput{
		Phone:     strPtr("+55 11 90000-0000"),
		BirthDate: &birth,
		Address: &AddressInput{
			Street: "Rua A", Number: "10", District: "Centro", City: "São Paulo", State: "SP", ZipCode: "01000-000",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, saved.Address)
	addressID := saved.Address.ID
	assert.Equal(t, 1990, saved.BirthDate.Year())

	updated, err := env.customerSvc.SaveProfile(ctx, user.ID, ProfileInput{
		Address: &AddressInput{
			Street: "Rua B", Number: "20", District: "Centro", City: "São Paulo", State: "SP", ZipCode: "01000-000",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, addressID, updated.Address.ID)
	assert.Equal(t, "Rua B", updated.Address.Street)
	assert.Equal(t, "+55 11 90000-0000", *updated.Phone)
	assert.Equal(t, saved.ID, updated.ID)
}

func TestSaveProfileRejectsBadBirthDate(t *testing.T) {
	env := newTestEnv(t)
	tc := env.addTenant("acme")
	user := env.addUser(t, tc, "u@acme.com", "password123", domain.RoleUser)

	bad := "21/04/1990"
	_, err := env.customerSvc.SaveProfile(context.Background(), user.ID, ProfileInput{BirthDate: &bad})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acme := env.addTenant("acme")
	other := env.addTenant("other")
	admin := env.addUser(t, acme, "admin@acme.com", "password123", domain.RoleAdmin)
	otherAdmin := env.addUser(t, acme, "admin2@acme.com", "password123", domain.RoleAdmin)
	customer := env.addUser(t, acme, "u@acme.com", "password123", domain.RoleUser)
	foreigner := env.addUser(t, other, "u@other.com", "password123", domain.RoleUser)

	assert.True(t, errors.Is(env.customerSvc.DeleteUser(ctx, acme, admin.ID, admin.ID), errors.Forbidden))
	assert.True(t, errors.Is(env.customerSvc.DeleteUser(ctx, acme, admin.ID, otherAdmin.ID), errors.Forbidden))
	assert.True(t, errors.Is(env.customerSvc.DeleteUser(ctx, acme, admin.ID, foreigner.ID), errors.NotFound))

	_, err := env.auth.Login(ctx, acme, LoginRequest{Email: "u@acme.com", Password: "password123"}, meta)
	require.NoError(t, err)
	require.Len(t, env.sessions.byID, 1)

	require.NoError(t, env.customerSvc.DeleteUser(ctx, acme, admin.ID, customer.ID))
	assert.NotContains(t, env.users.byID, customer.ID)
	assert.Empty(t, env.sessions.byID)
	assert.True(t, env.redis.Exists("blacklist:user:"+customer.ID.String()))
}
