package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/config"
	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/pkg/blacklist"
	"github.com/osvaldobrewjaria/fazumclube/pkg/hash"
	"github.com/osvaldobrewjaria/fazumclube/pkg/jwt"
)

type testEnv struct {
	users      *fakeUserRepo
	sessions   *fakeSessionRepo
	tenants    *fakeTenantRepo
	plans      *fakePlanRepo
	subs       *fakeSubscriptionRepo
	payments   *fakePaymentRepo
	deliveries *fakeDeliveryRepo
	events     *fakeWebhookEventRepo
	customers  *fakeCustomerRepo
	gateway    *fakeGateway
	mailer     *fakeMailer
	redis      *miniredis.Miniredis

	auth          *AuthService
	tenantSvc     *TenantService
	planSvc       *PlanService
	subscriptions *SubscriptionService
	webhooks      *WebhookService
	deliverySvc   *DeliveryService
	customerSvc   *CustomerService
}

func newTokenService(t *testing.T) *jwt.TokenService {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := jwt.NewTokenService(privPEM, pubPEM, 15*time.Minute, 30*24*time.Hour, "fazumclube-test")
	require.NoError(t, err)
	return svc
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	env := &testEnv{
		users:      newFakeUserRepo(),
		sessions:   newFakeSessionRepo(),
		plans:      newFakePlanRepo(),
		payments:   &fakePaymentRepo{},
		deliveries: newFakeDeliveryRepo(),
		events:     newFakeWebhookEventRepo(),
		customers:  newFakeCustomerRepo(),
		gateway:    newFakeGateway(),
		mailer:     newFakeMailer(),
		redis:      mr,
	}
	env.tenants = newFakeTenantRepo(env.users)
	env.subs = newFakeSubscriptionRepo(env.users, env.plans)

	authCfg := config.AuthConfig{
		MaxFailedLogins:  3,
		LockDuration:     15 * time.Minute,
		PasswordResetTTL: time.Hour,
	}
	env.auth = NewAuthService(env.users, env.sessions, newTokenService(t), blacklist.NewTokenBlacklist(client), env.mailer, nil, authCfg, logger)
	env.tenantSvc = NewTenantService(env.tenants, env.auth, 14, logger)
	env.planSvc = NewPlanService(env.plans, logger)
	env.subscriptions = NewSubscriptionService(
		env.subs, env.plans, env.users, env.payments, env.tenants,
		env.gateway, env.mailer, nil,
		config.StripeConfig{SuccessURL: "https://club.test/ok", CancelURL: "https://club.test/cancel"},
		logger,
	)
	env.webhooks = NewWebhookService(env.gateway, env.events, env.subscriptions, nil, logger)
	env.deliverySvc = NewDeliveryService(env.deliveries, env.subs, env.mailer, nil, "https://rastreamento.test/?codigo=%s", logger)
	env.customerSvc = NewCustomerService(env.customers, env.users, env.auth, logger)
	return env
}

// addTenant stores an ACTIVE tenant and returns its context
func (e *testEnv) addTenant(slug string) domain.TenantContext {
	now := time.Now()
	return e.tenants.add(domain.Tenant{
		ID:        uuid.New(),
		Name:      "Club " + slug,
		Slug:      slug,
		Status:    domain.TenantStatusActive,
		Settings:  domain.DefaultTenantSettings("Club "+slug, "owner@"+slug+".test"),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// addUser stores an active member of the tenant with the given password
func (e *testEnv) addUser(t *testing.T, tc domain.TenantContext, emailAddr, password string, role domain.Role) *domain.User {
	t.Helper()
	passwordHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	now := time.Now()
	tenantID := tc.ID
	u := domain.User{
		ID:           uuid.New(),
		TenantID:     &tenantID,
		Name:         "User " + emailAddr,
		Email:        emailAddr,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if tc.IsZero() {
		u.TenantID = nil
	}
	e.users.byID[u.ID] = u
	return &u
}

// addPlan stores an active plan with a monthly price and, when yearly is
// positive, a yearly one
func (e *testEnv) addPlan(tc domain.TenantContext, slug string, monthly, yearly int64) *domain.Plan {
	now := time.Now()
	p := domain.Plan{
		ID:        uuid.New(),
		TenantID:  tc.ID,
		Slug:      slug,
		Name:      "Plan " + slug,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if monthly > 0 {
		p.Prices = append(p.Prices, domain.Price{
			ID: uuid.New(), PlanID: p.ID, Amount: monthly, Currency: "BRL",
			Interval: domain.BillingMonthly, Active: true, GatewayPriceID: "price_" + slug + "_m",
		})
	}
	if yearly > 0 {
		p.Prices = append(p.Prices, domain.Price{
			ID: uuid.New(), PlanID: p.ID, Amount: yearly, Currency: "BRL",
			Interval: domain.BillingYearly, Active: true, GatewayPriceID: "price_" + slug + "_y",
		})
	}
	e.plans.byID[p.ID] = p
	return &p
}

// addSubscription stores a subscription row directly
func (e *testEnv) addSubscription(tc domain.TenantContext, userID, planID uuid.UUID, status domain.SubscriptionStatus, gatewayID string) *domain.Subscription {
	now := time.Now()
	s := domain.Subscription{
		ID:              uuid.New(),
		TenantID:        tc.ID,
		UserID:          userID,
		PlanID:          planID,
		BillingInterval: domain.BillingMonthly,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if gatewayID != "" {
		s.GatewaySubscriptionID = strPtr(gatewayID)
		s.GatewayCustomerID = strPtr("cus_existing")
	}
	e.subs.byID[s.ID] = s
	return &s
}
