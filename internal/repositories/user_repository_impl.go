package repositories

import (
	"context"
	"strings"

	"mlm/internal/models"
	"mlm/internal/repositories/cache"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type userRepository struct {
	db    *gorm.DB
	cache *cache.CacheService
}

// NewUserRepository creates a new instance of UserRepository. cache may be nil.
func NewUserRepository(db *gorm.DB, cache *cache.CacheService) UserRepository {
	return &userRepository{
		db:    db,
		cache: cache,
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if r.cache != nil {
		if user, err := r.cache.GetUser(ctx, id); err == nil && user != nil {
			return user, nil
		} else if err != nil {
			log.Debug().Err(err).Str("user_id", id).Msg("user cache lookup failed")
		}
	}

	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to get user")
	}

	if r.cache != nil {
		if err := r.cache.CacheUser(ctx, &user); err != nil {
			log.Debug().Err(err).Str("user_id", id).Msg("failed to cache user")
		}
	}
	return &user, nil
}

func (r *userRepository) GetWithPassword(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) GetByIBONumber(ctx context.Context, ibo string) (*models.User, error) {
	return r.findOne(ctx, "UPPER(ibo_number) = ?", strings.ToUpper(strings.TrimSpace(ibo)))
}

func (r *userRepository) GetBySponsorNumber(ctx context.Context, sponsorNumber string) (*models.User, error) {
	return r.findOne(ctx, "UPPER(sponsor_number) = ?", strings.ToUpper(strings.TrimSpace(sponsorNumber)))
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}

func (r *userRepository) IBONumberExists(ctx context.Context, ibo string) (bool, error) {
	return r.exists(ctx, "ibo_number = ?", ibo)
}

func (r *userRepository) SponsorNumberExists(ctx context.Context, sponsorNumber string) (bool, error) {
	return r.exists(ctx, "sponsor_number = ?", sponsorNumber)
}

func (r *userRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check user existence")
	}
	return count > 0, nil
}

func (r *userRepository) GetSponsorID(ctx context.Context, userID string) (*string, error) {
	var row struct {
		SponsorID *string
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Select("sponsor_id").
		Where("id = ?", userID).
		Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to read sponsor")
	}
	return row.SponsorID, nil
}

func (r *userRepository) ListDirectDownline(ctx context.Context, sponsorID string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("sponsor_id = ?", sponsorID).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list downline")
	}
	return users, nil
}

func (r *userRepository) ListDownlineIDs(ctx context.Context, sponsorIDs []string) ([]string, error) {
	if len(sponsorIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("sponsor_id IN ?", sponsorIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list downline ids")
	}
	return ids, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(user).Select(
		"name", "phone",
		"address_line1", "address_line2", "city", "province", "postal_code", "country",
		"bank_name", "bank_account_number", "bank_branch_code", "bank_account_type", "bank_account_holder",
	).Updates(user)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	r.invalidate(ctx, user.ID)
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	return r.updateColumn(ctx, userID, "password", hash)
}

func (r *userRepository) UpdateStatus(ctx context.Context, userID, status string) error {
	return r.updateColumn(ctx, userID, "status", status)
}

func (r *userRepository) UpdateSponsor(ctx context.Context, userID string, sponsorID *string) error {
	return r.updateColumn(ctx, userID, "sponsor_id", sponsorID)
}

func (r *userRepository) IncrementTokenVersion(ctx context.Context, userID string) error {
	return r.updateColumn(ctx, userID, "token_version", gorm.Expr("token_version + 1"))
}

func (r *userRepository) updateColumn(ctx context.Context, userID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update(column, value)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to update user %s", column)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(ibo_number) LIKE ?", like, like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}

	var users []*models.User
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}
	return users, total, nil
}

func (r *userRepository) invalidate(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateUser(ctx, userID); err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("failed to invalidate user cache")
	}
}
