package user

import (
	"context"
	"strconv"
	"strings"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/utils"
	"mlm/internal/validation"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const codeAttempts = 10

var (
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrEmailTaken          = repositories.ErrEmailTaken
	ErrUserNotFound        = repositories.ErrUserNotFound
	ErrIncorrectPassword   = errors.New("incorrect password")
	ErrInvalidStatus       = errors.New("invalid user status")
	ErrInvalidRole         = errors.New("invalid user role")
)

// RegisterInput is what a new distributor submits.
type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	Phone        string
	ReferralCode string
}

// ProfileInput carries the user-editable profile fields.
type ProfileInput struct {
	Name    string
	Phone   string
	Address models.Address
	Bank    models.BankDetails
}

// SponsorChanger re-parents users in the sponsor forest.
type SponsorChanger interface {
	ChangeSponsor(ctx context.Context, userID string, sponsorID *string) error
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	CreateWithRole(ctx context.Context, in RegisterInput, role string) (*models.User, error)
	ResolveReferralCode(ctx context.Context, code string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error

	List(ctx context.Context, filter repositories.UserFilter, offset, limit int) ([]*models.User, int64, error)
	SetStatus(ctx context.Context, userID, status string) error
	UpdateBank(ctx context.Context, userID string, bank models.BankDetails) (*models.User, error)

	// ChangeSponsor accepts a referral code for the new sponsor; an empty code
	// detaches the user.
	ChangeSponsor(ctx context.Context, userID, referralCode string) error
}

type service struct {
	repo    repositories.UserRepository
	sponsor SponsorChanger
	log     zerolog.Logger
}

func NewService(repo repositories.UserRepository, sponsor SponsorChanger, log zerolog.Logger) Service {
	if repo == nil {
		panic("user repository is required")
	}
	if sponsor == nil {
		panic("sponsor changer is required")
	}
	return &service{
		repo:    repo,
		sponsor: sponsor,
		log:     log,
	}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.CreateWithRole(ctx, in, models.RoleDistributor)
}

func (s *service) CreateWithRole(ctx context.Context, in RegisterInput, role string) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleDistributor {
		return nil, ErrInvalidRole
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	var sponsorID *string
	if strings.TrimSpace(in.ReferralCode) != "" {
		sponsor, err := s.ResolveReferralCode(ctx, in.ReferralCode)
		if err != nil {
			return nil, err
		}
		sponsorID = &sponsor.ID
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	ibo, err := s.uniqueCode(ctx, validation.IBOPrefix, validation.IBOCodeLength, s.repo.IBONumberExists)
	if err != nil {
		return nil, err
	}
	sponsorNumber, err := s.uniqueCode(ctx, validation.SponsorPrefix, validation.SponsorCodeLength, s.repo.SponsorNumberExists)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:         email,
		Password:      string(hashed),
		Name:          strings.TrimSpace(in.Name),
		Phone:         strings.TrimSpace(in.Phone),
		IBONumber:     ibo,
		SponsorNumber: sponsorNumber,
		SponsorID:     sponsorID,
		Role:          role,
		Status:        models.UserStatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	event := s.log.Info().Str("user_id", user.ID).Str("ibo_number", ibo).Str("role", role)
	if sponsorID != nil {
		event = event.Str("sponsor_id", *sponsorID)
	}
	event.Msg("user registered")
	return user, nil
}

func (s *service) ResolveReferralCode(ctx context.Context, code string) (*models.User, error) {
	kind, normalized := validation.ParseReferralCode(code)

	var (
		sponsor *models.User
		err     error
	)
	switch kind {
	case validation.ReferralIBO:
		sponsor, err = s.repo.GetByIBONumber(ctx, normalized)
	case validation.ReferralSponsor:
		sponsor, err = s.repo.GetBySponsorNumber(ctx, normalized)
	default:
		return nil, ErrInvalidReferralCode
	}
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, errors.Wrapf(ErrInvalidReferralCode, "no user for %s", normalized)
		}
		return nil, err
	}
	return sponsor, nil
}

// uniqueCode draws prefix+random codes until one is free. After codeAttempts
// collisions it falls back to a timestamp-based code.
func (s *service) uniqueCode(ctx context.Context, prefix string, n int, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		random, err := utils.RandomCode(n)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate code")
		}
		code := prefix + random
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}

	s.log.Warn().Str("prefix", prefix).Msg("code space crowded, using timestamp code")
	stamp := strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36))
	if len(stamp) > n {
		stamp = stamp[len(stamp)-n:]
	}
	return prefix + stamp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	user.Phone = strings.TrimSpace(in.Phone)
	user.Address = in.Address
	user.Bank = in.Bank

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.GetWithPassword(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrIncorrectPassword
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}
	// Invalidate existing tokens
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *service) List(ctx context.Context, filter repositories.UserFilter, offset, limit int) ([]*models.User, int64, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *service) SetStatus(ctx context.Context, userID, status string) error {
	if !models.IsValidUserStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, userID, status); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("status", status).Msg("user status changed")
	return nil
}

func (s *service) UpdateBank(ctx context.Context, userID string, bank models.BankDetails) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Bank = bank
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("banking details updated")
	return user, nil
}

func (s *service) ChangeSponsor(ctx context.Context, userID, referralCode string) error {
	if strings.TrimSpace(referralCode) == "" {
		return s.sponsor.ChangeSponsor(ctx, userID, nil)
	}
	sponsor, err := s.ResolveReferralCode(ctx, referralCode)
	if err != nil {
		return err
	}
	return s.sponsor.ChangeSponsor(ctx, userID, &sponsor.ID)
}
