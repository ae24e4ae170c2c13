package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/config"
	"github.com/osvaldobrewjaria/fazumclube/internal/handler"
	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository/postgres"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/blacklist"
	"github.com/osvaldobrewjaria/fazumclube/pkg/email"
	"github.com/osvaldobrewjaria/fazumclube/pkg/jwt"
	"github.com/osvaldobrewjaria/fazumclube/pkg/logger"
	"github.com/osvaldobrewjaria/fazumclube/pkg/metrics"
	"github.com/osvaldobrewjaria/fazumclube/pkg/payment"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// Initialize database connection
	db, err := initDB(cfg, log)
	if err != nil {
		return errors.Annotate(err, "initializing database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database connection", zap.Error(err))
		}
	}()
	log.Info("database connection established")

	if err := postgres.Migrate(db.DB); err != nil {
		return errors.Annotate(err, "applying migrations")
	}
	log.Info("migrations applied")

	// Initialize Redis client
	redisClient, err := initRedis(cfg)
	if err != nil {
		return errors.Annotate(err, "initializing redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn("closing redis connection", zap.Error(err))
		}
	}()
	log.Info("redis connection established")

	// Load RSA keys for JWT
	privateKey, publicKey, err := loadRSAKeys(cfg)
	if err != nil {
		return errors.Annotate(err, "loading RSA keys")
	}

	tokenService, err := jwt.NewTokenService(
		privateKey,
		publicKey,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		cfg.JWT.Issuer,
	)
	if err != nil {
		return errors.Annotate(err, "initializing token service")
	}

	tokenBlacklist := blacklist.NewTokenBlacklist(redisClient)
	validate := validator.NewValidator()
	collector := metrics.NewCollector()
	emailService := initEmail(cfg, log)
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	deliveryRepo := postgres.NewDeliveryRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	webhookEventRepo := postgres.NewWebhookEventRepository(db)
	reportRepo := postgres.NewReportRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionRepo, tokenService, tokenBlacklist, emailService, collector, cfg.Auth, log)
	tenantService := service.NewTenantService(tenantRepo, authService, cfg.Tenancy.TrialDays, log)
	planService := service.NewPlanService(planRepo, log)
	subscriptionService := service.NewSubscriptionService(
		subscriptionRepo, planRepo, userRepo, paymentRepo, tenantRepo,
		gateway, emailService, collector, cfg.Stripe, log,
	)
	webhookService := service.NewWebhookService(gateway, webhookEventRepo, subscriptionService, collector, log)
	deliveryService := service.NewDeliveryService(deliveryRepo, subscriptionRepo, emailService, collector, cfg.Delivery.TrackingURLTemplate, log)
	customerService := service.NewCustomerService(customerRepo, userRepo, authService, log)
	reportService := service.NewReportService(reportRepo)

	if cfg.Auth.SuperAdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := authService.EnsureSuperAdmin(ctx, cfg.Auth.SuperAdminEmail, cfg.Auth.SuperAdminPassword)
		cancel()
		if err != nil {
			return errors.Annotate(err, "seeding superadmin")
		}
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "Faz um Clube API",
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	// Setup global middlewares
	app.Use(middleware.RecoveryMiddleware(log))
	app.Use(middleware.LoggerMiddleware(log, collector))
	app.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	tenantConfig := middleware.TenantConfig{
		Domains:     cfg.Tenancy.Domains,
		DefaultSlug: cfg.Tenancy.DefaultSlug,
	}
	optionalTenant := tenantConfig
	optionalTenant.Optional = true

	routes := handler.Routes{
		Auth:         handler.NewAuthHandler(authService, validate),
		Password:     handler.NewPasswordHandler(authService, validate),
		Tenant:       handler.NewTenantHandler(tenantService, reportService, validate),
		Plan:         handler.NewPlanHandler(planService, validate),
		Subscription: handler.NewSubscriptionHandler(subscriptionService, deliveryService, validate),
		Delivery:     handler.NewDeliveryHandler(deliveryService, validate),
		User:         handler.NewUserHandler(customerService, validate),
		Webhook:      handler.NewWebhookHandler(webhookService),
		Health: handler.NewHealthHandler(map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"cache":    tokenBlacklist.Ping,
		}),
		JWKS: handler.NewJWKSHandler(tokenService.PublicKey(), tokenService.KeyID()),

		Authenticate:   middleware.AuthMiddleware(tokenService, tokenBlacklist),
		TenantRequired: middleware.TenantMiddleware(tenantService, tenantConfig),
		TenantOptional: middleware.TenantMiddleware(tenantService, optionalTenant),
		AuthLimiter:    middleware.RateLimit(cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow),
	}
	if cfg.Metrics.Enabled {
		routes.Metrics = adaptor.HTTPHandler(collector.Handler())
		routes.MetricsPath = cfg.Metrics.Path
	}
	handler.SetupRoutes(app, routes)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeSessions(ctx, authService, log, time.Hour)

	listenErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Info("server starting", zap.String("addr", addr), zap.String("environment", cfg.Server.Environment))
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return errors.Annotate(err, "listening")
	case <-ctx.Done():
	}
	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// purgeSessions deletes expired refresh sessions every interval until ctx ends
func purgeSessions(ctx context.Context, auth *service.AuthService, log *zap.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := auth.PurgeExpiredSessions(ctx); err != nil {
				log.Warn("purging expired sessions", zap.Error(err))
			}
		}
	}
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config, log *zap.Logger) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Warn("failed to connect to database",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, errors.Annotatef(err, "connecting to database after %d attempts", maxRetries)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Annotate(err, "pinging redis")
	}

	return client, nil
}

// initEmail picks Resend when configured and falls back to logging emails
func initEmail(cfg *config.Config, log *zap.Logger) email.EmailService {
	if !cfg.Email.Enabled {
		log.Info("email delivery disabled, emails are logged")
		return email.NewLogEmailService(log)
	}

	svc, err := email.NewResendEmailService(&email.EmailConfig{
		APIKey:    cfg.Email.ResendAPIKey,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		ResetURL:  cfg.Email.FrontendURL + "/redefinir-senha",
	}, log)
	if err != nil {
		log.Warn("email service unavailable, emails are logged", zap.Error(err))
		return email.NewLogEmailService(log)
	}
	log.Info("email service initialized", zap.String("provider", "resend"))
	return svc
}

// loadRSAKeys loads RSA private and public keys from files
func loadRSAKeys(cfg *config.Config) ([]byte, []byte, error) {
	privateKey, err := os.ReadFile(cfg.JWT.PrivateKeyPath)
	if err != nil {
		return nil, nil, errors.Annotate(err, "reading private key file")
	}

	publicKey, err := os.ReadFile(cfg.JWT.PublicKeyPath)
	if err != nil {
		return nil, nil, errors.Annotate(err, "reading public key file")
	}

	if len(privateKey) == 0 {
		return nil, nil, errors.New("private key file is empty")
	}
	if len(publicKey) == 0 {
		return nil, nil, errors.New("public key file is empty")
	}

	return privateKey, publicKey, nil
}
