package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
)

// Routes carries the handlers and the request-scoped middleware the router
// mounts. Metrics is optional.
type Routes struct {
	Auth         *AuthHandler
	Password     *PasswordHandler
	Tenant       *TenantHandler
	Plan         *PlanHandler
	Subscription *SubscriptionHandler
	Delivery     *DeliveryHandler
	User         *UserHandler
	Webhook      *WebhookHandler
	Health       *HealthHandler
	JWKS         *JWKSHandler

	// Authenticate validates the bearer token
	Authenticate fiber.Handler
	// TenantRequired and TenantOptional resolve the club of the request
	TenantRequired fiber.Handler
	TenantOptional fiber.Handler
	// AuthLimiter throttles login and password recovery
	AuthLimiter fiber.Handler

	Metrics     fiber.Handler
	MetricsPath string
}

func SetupRoutes(app *fiber.App, r Routes) {
	if r.AuthLimiter == nil {
		r.AuthLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Health checks (public)
	app.Get("/health", r.Health.Health)
	app.Get("/ready", r.Health.Ready)
	app.Get("/.well-known/jwks.json", r.JWKS.GetJWKS)
	if r.Metrics != nil {
		app.Get(r.MetricsPath, r.Metrics)
	}

	// API v1
	api := app.Group("/api/v1")

	// Gateway webhooks are not club scoped
	api.Post("/stripe/webhook", r.Webhook.Stripe)

	// Club onboarding and storefront lookup (public)
	tenants := api.Group("/tenants")
	tenants.Post("/provision", r.Tenant.Provision)
	tenants.Get("/:slug", r.Tenant.Lookup)

	// Auth routes. Platform staff log in without a club.
	auth := api.Group("/auth", r.TenantOptional)
	auth.Post("/register", r.Auth.Register)
	auth.Post("/login", r.AuthLimiter, r.Auth.Login)
	auth.Post("/refresh", r.Auth.RefreshToken)
	auth.Post("/logout", r.Authenticate, r.Auth.Logout)
	auth.Post("/forgot-password", r.AuthLimiter, r.Password.ForgotPassword)
	auth.Post("/reset-password", r.Password.ResetPassword)
	auth.Get("/me", r.Authenticate, r.Auth.Me)

	// Storefront catalog (public, club scoped)
	plans := api.Group("/plans", r.TenantRequired)
	plans.Get("/", r.Plan.ListPublic)
	plans.Get("/:slug", r.Plan.GetPlan)

	// Member routes
	subs := api.Group("/subscriptions", r.TenantRequired, r.Authenticate, middleware.TenantGuard())
	subs.Post("/checkout-session", r.Subscription.CreateCheckoutSession)
	subs.Get("/me", r.Subscription.Me)
	subs.Get("/me/payments", r.Subscription.MyPayments)
	subs.Get("/me/deliveries", r.Subscription.MyDeliveries)
	subs.Delete("/cancel", r.Subscription.Cancel)
	subs.Post("/pause", r.Subscription.Pause)
	subs.Post("/resume", r.Subscription.Resume)

	customers := api.Group("/customers", r.TenantRequired, r.Authenticate, middleware.TenantGuard())
	customers.Get("/me/profile", r.User.GetProfile)
	customers.Put("/me/profile", r.User.UpdateProfile)

	// Club admin routes
	admin := api.Group("/admin", r.TenantRequired, r.Authenticate, middleware.TenantGuard(), middleware.RequireAdmin())
	admin.Get("/dashboard", r.Tenant.Dashboard)
	admin.Get("/settings", r.Tenant.GetSettings)
	admin.Put("/settings", r.Tenant.UpdateSettings)

	adminPlans := admin.Group("/plans")
	adminPlans.Get("/", r.Plan.ListPlans)
	adminPlans.Post("/", r.Plan.CreatePlan)
	adminPlans.Put("/:id", r.Plan.UpdatePlan)
	adminPlans.Delete("/:id", r.Plan.DeletePlan)

	admin.Get("/subscribers", r.Subscription.ListSubscribers)
	admin.Get("/payments", r.Subscription.ListPayments)
	admin.Delete("/users/:id", r.User.DeleteUser)

	deliveries := admin.Group("/deliveries")
	deliveries.Get("/", r.Delivery.ListDeliveries)
	deliveries.Get("/export", r.Delivery.Export)
	deliveries.Post("/bulk", r.Delivery.BulkUpdate)
	deliveries.Put("/:subscriptionId", r.Delivery.UpdateDelivery)

	// Platform routes (superadmin only)
	platform := api.Group("/platform", r.Authenticate, middleware.RequireSuperAdmin())
	platform.Get("/stats", r.Tenant.PlatformStats)
	platform.Get("/tenants", r.Tenant.ListTenants)
	platform.Patch("/tenants/:id/status", r.Tenant.ChangeStatus)
	platform.Delete("/tenants/:id", r.Tenant.DeleteTenant)
}
