package repositories

import (
	"context"

	"mlm/internal/models"

	"github.com/pkg/errors"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already taken")
	ErrDatabaseOperation = errors.New("database operation failed")
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search string
	Role   string
	Status string
}

// UserRepository defines the interface for user-related database operations,
// including the parent-pointer reads the sponsorship graph is built on.
type UserRepository interface {
	// Create creates a new user in the database
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetWithPassword reads a user from the database, bypassing the cache,
	// which never holds password hashes
	GetWithPassword(ctx context.Context, id string) (*models.User, error)

	// GetByEmail retrieves a user by their email address
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByIBONumber retrieves a user by IBO number (case-insensitive)
	GetByIBONumber(ctx context.Context, ibo string) (*models.User, error)

	// GetBySponsorNumber retrieves a user by sponsor number (case-insensitive)
	GetBySponsorNumber(ctx context.Context, sponsorNumber string) (*models.User, error)

	// IBONumberExists / SponsorNumberExists back unique code generation
	IBONumberExists(ctx context.Context, ibo string) (bool, error)
	SponsorNumberExists(ctx context.Context, sponsorNumber string) (bool, error)

	// GetSponsorID returns the parent pointer of a user, nil for roots
	GetSponsorID(ctx context.Context, userID string) (*string, error)

	// ListDirectDownline returns users whose sponsor is sponsorID
	ListDirectDownline(ctx context.Context, sponsorID string) ([]*models.User, error)

	// ListDownlineIDs returns the ids of users sponsored by any of sponsorIDs
	ListDownlineIDs(ctx context.Context, sponsorIDs []string) ([]string, error)

	// Update saves profile fields of an existing user
	Update(ctx context.Context, user *models.User) error

	// UpdatePassword stores a new password hash
	UpdatePassword(ctx context.Context, userID, hash string) error

	// UpdateStatus activates or deactivates a user
	UpdateStatus(ctx context.Context, userID, status string) error

	// UpdateSponsor re-parents a user
	UpdateSponsor(ctx context.Context, userID string, sponsorID *string) error

	// IncrementTokenVersion invalidates issued tokens
	IncrementTokenVersion(ctx context.Context, userID string) error

	// List retrieves users with pagination
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error)
}
