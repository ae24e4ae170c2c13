package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
	"github.com/osvaldobrewjaria/fazumclube/pkg/hash"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

type TenantService struct {
	tenants   repository.TenantRepository
	auth      *AuthService
	trialDays int
	logger    *zap.Logger
	now       func() time.Time
}

type ProvisionRequest struct {
	TenantName    string `json:"tenantName" validate:"required,min=2,max=200"`
	TenantSlug    string `json:"tenantSlug" validate:"required,min=3,max=100,slug"`
	BusinessType  string `json:"businessType" validate:"omitempty,max=100"`
	OwnerName     string `json:"ownerName" validate:"required,min=2,max=200"`
	OwnerEmail    string `json:"ownerEmail" validate:"required,email"`
	OwnerPassword string `json:"ownerPassword" validate:"required,min=8,max=72"`
	Currency      string `json:"currency,omitempty" validate:"omitempty,len=3"`
	Country       string `json:"country,omitempty" validate:"omitempty,len=2"`
	Timezone      string `json:"timezone,omitempty" validate:"omitempty,max=64"`
}

type ProvisionResult struct {
	Tenant       *domain.Tenant  `json:"tenant"`
	Owner        *domain.UserDTO `json:"owner"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

// PublicTenant is the storefront lookup result. Missing, deleted and
// suspended tenants report found=false.
type PublicTenant struct {
	Found     bool              `json:"found"`
	Suspended bool              `json:"suspended,omitempty"`
	Tenant    *PublicTenantInfo `json:"tenant,omitempty"`
}

type PublicTenantInfo struct {
	ID       uuid.UUID             `json:"id"`
	Slug     string                `json:"slug"`
	Name     string                `json:"name"`
	Status   domain.TenantStatus   `json:"status"`
	Settings domain.TenantSettings `json:"settings"`
}

func NewTenantService(tenants repository.TenantRepository, auth *AuthService, trialDays int, logger *zap.Logger) *TenantService {
	return &TenantService{
		tenants:   tenants,
		auth:      auth,
		trialDays: trialDays,
		logger:    logger.Named("tenant"),
		now:       time.Now,
	}
}

// Provision creates a club in TRIAL together with its ADMIN owner and signs
// the owner in
func (s *TenantService) Provision(ctx context.Context, req ProvisionRequest, meta SessionMeta) (*ProvisionResult, error) {
	slug := strings.ToLower(strings.TrimSpace(req.TenantSlug))
	if !validator.ValidSlug(slug) {
		return nil, errors.NotValidf("slug %q", req.TenantSlug)
	}

	passwordHash, err := hash.HashPassword(req.OwnerPassword)
	if err != nil {
		return nil, errors.Annotate(err, "hashing password")
	}

	now := s.now()
	tenantID := uuid.New()
	ownerEmail := normalizeEmail(req.OwnerEmail)

	tenant := &domain.Tenant{
		ID:           tenantID,
		Name:         strings.TrimSpace(req.TenantName),
		Slug:         slug,
		BusinessType: req.BusinessType,
		Status:       domain.TenantStatusTrial,
		Settings:     domain.DefaultTenantSettings(strings.TrimSpace(req.TenantName), ownerEmail),
		Currency:     orDefault(strings.ToUpper(req.Currency), "BRL"),
		Country:      orDefault(strings.ToUpper(req.Country), "BR"),
		Timezone:     orDefault(req.Timezone, "America/Sao_Paulo"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.trialDays > 0 {
		trialEnds := now.AddDate(0, 0, s.trialDays)
		tenant.TrialEndsAt = &trialEnds
	}

	owner := &domain.User{
		ID:           uuid.New(),
		TenantID:     &tenantID,
		Name:         strings.TrimSpace(req.OwnerName),
		Email:        ownerEmail,
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.tenants.Provision(ctx, tenant, owner); err != nil {
		return nil, err
	}
	tenant.OwnerID = &owner.ID
	s.logger.Info("tenant provisioned", zap.String("slug", tenant.Slug), zap.String("owner", owner.Email))

	tokens, err := s.auth.IssueTokens(ctx, owner, meta)
	if err != nil {
		return nil, err
	}

	return &ProvisionResult{
		Tenant:       tenant,
		Owner:        owner.DTO(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Lookup backs the public storefront check of a slug
func (s *TenantService) Lookup(ctx context.Context, slug string) (*PublicTenant, error) {
	tenant, err := s.tenants.GetBySlug(ctx, strings.ToLower(slug))
	if errors.Is(err, errors.NotFound) {
		return &PublicTenant{Found: false}, nil
	}
	if err != nil {
		return nil, err
	}
	if tenant.IsDeleted() {
		return &PublicTenant{Found: false}, nil
	}
	if tenant.Status == domain.TenantStatusSuspended {
		return &PublicTenant{Found: false, Suspended: true}, nil
	}
	return &PublicTenant{
		Found: true,
		Tenant: &PublicTenantInfo{
			ID:       tenant.ID,
			Slug:     tenant.Slug,
			Name:     tenant.Name,
			Status:   tenant.Status,
			Settings: tenant.Settings,
		},
	}, nil
}

// Resolve turns a slug into the request tenant context. Unknown and deleted
// tenants share ErrTenantNotFound.
func (s *TenantService) Resolve(ctx context.Context, slug string) (domain.TenantContext, error) {
	tenant, err := s.tenants.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if errors.Is(err, errors.NotFound) {
		return domain.TenantContext{}, domain.ErrTenantNotFound
	}
	if err != nil {
		return domain.TenantContext{}, err
	}
	if tenant.IsDeleted() {
		return domain.TenantContext{}, domain.ErrTenantNotFound
	}
	if tenant.Status == domain.TenantStatusSuspended {
		return domain.TenantContext{}, domain.ErrTenantSuspended
	}
	return tenant.Context(), nil
}

func (s *TenantService) Get(ctx context.Context, tc domain.TenantContext) (*domain.Tenant, error) {
	return s.tenants.GetByID(ctx, tc.ID)
}

// UpdateSettings merges patch into the stored settings and writes them back
func (s *TenantService) UpdateSettings(ctx context.Context, tc domain.TenantContext, patch domain.TenantSettingsPatch) (domain.TenantSettings, error) {
	tenant, err := s.tenants.GetByID(ctx, tc.ID)
	if err != nil {
		return domain.TenantSettings{}, err
	}
	merged := tenant.Settings.Merge(patch)
	if err := s.tenants.UpdateSettings(ctx, tenant.ID, merged); err != nil {
		return domain.TenantSettings{}, err
	}
	return merged, nil
}

func (s *TenantService) List(ctx context.Context, status domain.TenantStatus, limit, offset int) ([]*domain.TenantSummary, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, errors.NotValidf("status %q", status)
	}
	return s.tenants.List(ctx, status, limit, offset)
}

// ChangeStatus moves a tenant between TRIAL, ACTIVE and SUSPENDED. Deleted
// tenants cannot be revived and deletion goes through SoftDelete.
func (s *TenantService) ChangeStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) (*domain.Tenant, error) {
	if !status.Valid() || status == domain.TenantStatusDeleted {
		return nil, errors.NotValidf("status %q", status)
	}
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.IsDeleted() {
		return nil, errors.NotFoundf("tenant")
	}
	if err := s.tenants.UpdateStatus(ctx, id, status, nil); err != nil {
		return nil, err
	}
	tenant.Status = status
	s.logger.Info("tenant status changed", zap.String("slug", tenant.Slug), zap.String("status", string(status)))
	return tenant, nil
}

// SoftDelete marks the tenant DELETED. Its rows are kept.
func (s *TenantService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tenant.IsDeleted() {
		return nil
	}
	now := s.now()
	if err := s.tenants.UpdateStatus(ctx, id, domain.TenantStatusDeleted, &now); err != nil {
		return err
	}
	s.logger.Info("tenant deleted", zap.String("slug", tenant.Slug))
	return nil
}
