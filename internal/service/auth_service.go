package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/config"
	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
	"github.com/osvaldobrewjaria/fazumclube/pkg/blacklist"
	"github.com/osvaldobrewjaria/fazumclube/pkg/email"
	"github.com/osvaldobrewjaria/fazumclube/pkg/hash"
	"github.com/osvaldobrewjaria/fazumclube/pkg/jwt"
	"github.com/osvaldobrewjaria/fazumclube/pkg/metrics"
)

// userRevocationTTL outlives every access token issued before a revocation
const userRevocationTTL = 24 * time.Hour

type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	tokens    *jwt.TokenService
	blacklist *blacklist.TokenBlacklist
	emails    email.EmailService
	metrics   *metrics.Collector
	cfg       config.AuthConfig
	logger    *zap.Logger
	now       func() time.Time
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SessionMeta describes the client a session is opened for
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

type AuthResponse struct {
	Tokens *domain.TokenPair `json:"tokens"`
	User   *domain.UserDTO   `json:"user"`
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *jwt.TokenService,
	tokenBlacklist *blacklist.TokenBlacklist,
	emails email.EmailService,
	collector *metrics.Collector,
	cfg config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		blacklist: tokenBlacklist,
		emails:    emails,
		metrics:   collector,
		cfg:       cfg,
		logger:    logger.Named("auth"),
		now:       time.Now,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates a customer account in the resolved tenant and signs it in
func (s *AuthService) Register(ctx context.Context, tc domain.TenantContext, req RegisterRequest, meta SessionMeta) (*AuthResponse, error) {
	if tc.IsZero() {
		return nil, errors.BadRequestf("%s", domain.MsgTenantNotFound)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Annotate(err, "hashing password")
	}

	now := s.now()
	tenantID := tc.ID
	user := &domain.User{
		ID:           uuid.New(),
		TenantID:     &tenantID,
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("tenant", tc.Slug))

	tokens, err := s.IssueTokens(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Tokens: tokens, User: user.DTO()}, nil
}

// IssueTokens opens a session for user and returns its token pair. Only the
// hash of the refresh token is stored.
func (s *AuthService) IssueTokens(ctx context.Context, user *domain.User, meta SessionMeta) (*domain.TokenPair, error) {
	sessionID := uuid.New()
	pair, err := s.tokens.GenerateTokenPair(user, sessionID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	now := s.now()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		TenantID:         user.TenantID,
		RefreshTokenHash: hash.TokenHash(pair.RefreshToken),
		UserAgent:        meta.UserAgent,
		IPAddress:        meta.IPAddress,
		ExpiresAt:        now.Add(s.tokens.RefreshExpiry()),
		CreatedAt:        now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return pair, nil
}

// Login authenticates against the resolved tenant. Platform logins (no tenant
// resolved) accept any account; tenant logins accept members of that tenant
// and superadmins. Every failure is reported as invalid credentials.
func (s *AuthService) Login(ctx context.Context, tc domain.TenantContext, req LoginRequest, meta SessionMeta) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, errors.NotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !tc.IsZero() && user.Role != domain.RoleSuperAdmin && !user.BelongsTo(tc.ID) {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, domain.ErrAccountLocked
	}

	valid, err := hash.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		s.recordFailedLogin(ctx, user, now)
		return nil, domain.ErrInvalidCredentials
	}
	if user.Status == domain.UserStatusInactive {
		return nil, domain.ErrInvalidCredentials
	}

	if user.FailedLogins > 0 || user.LockedUntil != nil {
		if err := s.users.ResetFailedLogins(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("updating last login", zap.Error(err))
	}

	tokens, err := s.IssueTokens(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Tokens: tokens, User: user.DTO()}, nil
}

// recordFailedLogin counts a failed attempt and locks the account once the
// configured threshold is reached
func (s *AuthService) recordFailedLogin(ctx context.Context, user *domain.User, now time.Time) {
	count, err := s.users.IncrementFailedLogins(ctx, user.ID)
	if err != nil {
		s.logger.Error("counting failed login", zap.Error(err))
		return
	}
	if s.cfg.MaxFailedLogins <= 0 || count < s.cfg.MaxFailedLogins {
		return
	}

	until := now.Add(s.cfg.LockDuration)
	user.FailedLogins = count
	user.LockedUntil = &until
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("locking account", zap.Error(err))
		return
	}
	s.logger.Warn("account locked", zap.String("user_id", user.ID.String()), zap.Time("until", until))
}

// Refresh rotates the refresh token of an open session
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	session, err := s.sessions.GetByTokenHash(ctx, hash.TokenHash(refreshToken))
	if errors.Is(err, errors.NotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if claims.SessionID != nil && *claims.SessionID != session.ID {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, errors.NotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if claims.IssuedAt != nil {
		revoked, err := s.blacklist.IsUserBlacklisted(ctx, user.ID.String(), claims.IssuedAt.Time)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, domain.ErrInvalidToken
		}
	}

	pair, err := s.tokens.GenerateTokenPair(user, session.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	session.RefreshTokenHash = hash.TokenHash(pair.RefreshToken)
	session.ExpiresAt = s.now().Add(s.tokens.RefreshExpiry())
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the presented access token and closes its session
func (s *AuthService) Logout(ctx context.Context, claims *domain.Claims, refreshToken string) error {
	if claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := s.blacklist.AddAccessToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			s.logger.Error("blacklisting access token", zap.Error(err))
		}
	}

	if refreshToken != "" {
		session, err := s.sessions.GetByTokenHash(ctx, hash.TokenHash(refreshToken))
		if err == nil {
			return s.sessions.Delete(ctx, session.ID)
		}
		if !errors.Is(err, errors.NotFound) {
			return err
		}
	}
	if claims != nil && claims.SessionID != nil {
		return s.sessions.Delete(ctx, *claims.SessionID)
	}
	return nil
}

// ForgotPassword stores a reset token and mails it. The outcome is the same
// whether or not the email belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(emailAddr))
	if errors.Is(err, errors.NotFound) {
		s.logger.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := hash.RandomToken(32)
	if err != nil {
		return errors.Annotate(err, "generating reset token")
	}

	now := s.now()
	tokenHash := hash.TokenHash(token)
	expires := now.Add(s.cfg.PasswordResetTTL)
	user.PasswordResetToken = &tokenHash
	user.PasswordResetTokenExpiresAt = &expires
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	err = s.emails.SendPasswordResetEmail(ctx, user.Email, user.Name, token)
	s.metrics.RecordEmail("password_reset", err)
	if err != nil {
		s.logger.Error("sending password reset email", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password and revokes
// every session and token of the user
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.GetByPasswordResetToken(ctx, hash.TokenHash(token))
	if errors.Is(err, errors.NotFound) {
		return domain.ErrInvalidToken
	}
	if err != nil {
		return err
	}

	passwordHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return errors.Annotate(err, "hashing password")
	}

	user.PasswordHash = passwordHash
	user.PasswordResetToken = nil
	user.PasswordResetTokenExpiresAt = nil
	user.FailedLogins = 0
	user.LockedUntil = nil
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	return s.RevokeUser(ctx, user.ID)
}

// RevokeUser closes every session of the user and invalidates the access
// tokens already issued
func (s *AuthService) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	return s.blacklist.BlacklistUser(ctx, userID.String(), userRevocationTTL)
}

// PurgeExpiredSessions deletes sessions whose refresh token has expired
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", zap.Int64("count", n))
	}
	return n, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.UserDTO, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.DTO(), nil
}

// EnsureSuperAdmin creates the platform superadmin on first start
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, emailAddr, password string) error {
	if emailAddr == "" || password == "" {
		return nil
	}

	existing, err := s.users.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err == nil {
		if existing.Role != domain.RoleSuperAdmin {
			s.logger.Warn("superadmin email belongs to a non-superadmin account", zap.String("email", existing.Email))
		}
		return nil
	}
	if !errors.Is(err, errors.NotFound) {
		return err
	}

	passwordHash, err := hash.HashPassword(password)
	if err != nil {
		return errors.Annotate(err, "hashing password")
	}
	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         "Superadmin",
		Email:        normalizeEmail(emailAddr),
		PasswordHash: passwordHash,
		Role:         domain.RoleSuperAdmin,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	s.logger.Info("superadmin created", zap.String("email", user.Email))
	return nil
}
