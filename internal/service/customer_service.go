package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const birthDateLayout = "2006-01-02"

type CustomerService struct {
	customers repository.CustomerRepository
	users     repository.UserRepository
	auth      *AuthService
	logger    *zap.Logger
	now       func() time.Time
}

type AddressInput struct {
	Street     string `json:"street" validate:"required,max=255"`
	Number     string `json:"number" validate:"required,max=20"`
	Complement string `json:"complement" validate:"omitempty,max=255"`
	District   string `json:"district" validate:"required,max=120"`
	City       string `json:"city" validate:"required,max=120"`
	State      string `json:"state" validate:"required,len=2"`
	ZipCode    string `json:"zipCode" validate:"required,max=10"`
}

// ProfileInput is a partial profile update. Nil fields are kept.
type ProfileInput struct {
	Phone       *string       `json:"phone,omitempty" validate:"omitempty,max=30"`
	BirthDate   *string       `json:"birthDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Preferences *string       `json:"preferences,omitempty" validate:"omitempty,max=2000"`
	Address     *AddressInput `json:"address,omitempty"`
}

func NewCustomerService(customers repository.CustomerRepository, users repository.UserRepository, auth *AuthService, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customers: customers,
		users:     users,
		auth:      auth,
		logger:    logger.Named("customer"),
		now:       time.Now,
	}
}

// GetProfile returns the user's profile, or an empty one when none was saved
func (s *CustomerService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.CustomerProfile, error) {
	profile, err := s.customers.GetProfile(ctx, userID)
	if errors.Is(err, errors.NotFound) {
		return &domain.CustomerProfile{UserID: userID}, nil
	}
	return profile, err
}

// SaveProfile merges in into the stored profile. The address is updated in
// place so the profile keeps owning a single address row.
func (s *CustomerService) SaveProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.CustomerProfile, error) {
	now := s.now()
	profile, err := s.customers.GetProfile(ctx, userID)
	if errors.Is(err, errors.NotFound) {
		profile = &domain.CustomerProfile{ID: uuid.New(), UserID: userID, CreatedAt: now}
	} else if err != nil {
		return nil, err
	}

	if in.Phone != nil {
		profile.Phone = in.Phone
	}
	if in.Preferences != nil {
		profile.Preferences = in.Preferences
	}
	if in.BirthDate != nil {
		birth, err := time.Parse(birthDateLayout, *in.BirthDate)
		if err != nil {
			return nil, errors.NotValidf("birth date %q", *in.BirthDate)
		}
		profile.BirthDate = &birth
	}
	if a := in.Address; a != nil {
		addr := profile.Address
		if addr == nil {
			addr = &domain.Address{ID: uuid.New(), CreatedAt: now}
		}
		addr.Street = a.Street
		addr.Number = a.Number
		addr.Complement = a.Complement
		addr.District = a.District
		addr.City = a.City
		addr.State = a.State
		addr.ZipCode = a.ZipCode
		addr.UpdatedAt = now
		profile.Address = addr
	}
	profile.UpdatedAt = now

	if err := s.customers.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteUser removes a customer of the tenant with everything it owns and
// revokes its tokens
func (s *CustomerService) DeleteUser(ctx context.Context, tc domain.TenantContext, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return errors.Forbiddenf("cannot delete your own account")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.BelongsTo(tc.ID) {
		return errors.NotFoundf("user")
	}
	if user.Role != domain.RoleUser {
		return errors.Forbiddenf("only customer accounts can be deleted")
	}

	if err := s.auth.RevokeUser(ctx, user.ID); err != nil {
		s.logger.Warn("revoking deleted user", zap.Error(err))
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", user.ID.String()), zap.String("tenant", tc.Slug))
	return nil
}
