// Package sponsorship reads and maintains the sponsor forest. Every user has
// at most one sponsor; roots have none.
package sponsorship

import (
	"context"

	"mlm/internal/models"
	"mlm/internal/repositories"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MaxDepth is the number of sponsor levels that earn on a purchase.
const MaxDepth = models.MaxCommissionLevel

// Ancestor is one step of a purchaser's upline.
type Ancestor struct {
	UserID string `json:"user_id"`
	Level  int    `json:"level"`
}

// LevelCount is the number of downline members at a given depth.
type LevelCount struct {
	Level int `json:"level"`
	Count int `json:"count"`
}

// UserStore is the subset of the user repository the graph needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetSponsorID(ctx context.Context, userID string) (*string, error)
	ListDownlineIDs(ctx context.Context, sponsorIDs []string) ([]string, error)
	UpdateSponsor(ctx context.Context, userID string, sponsorID *string) error
}

type Service interface {
	// Ancestors returns up to MaxDepth sponsors of purchaserID, nearest first.
	// Inactive sponsors are included.
	Ancestors(ctx context.Context, purchaserID string) ([]Ancestor, error)

	// LevelCounts counts downline members at depths 1..MaxDepth.
	LevelCounts(ctx context.Context, userID string) ([]LevelCount, error)

	// ChangeSponsor re-parents userID. A nil sponsorID makes the user a root.
	ChangeSponsor(ctx context.Context, userID string, sponsorID *string) error
}

type service struct {
	users UserStore
	log   zerolog.Logger
}

func NewService(users UserStore, log zerolog.Logger) Service {
	if users == nil {
		panic("user store is required")
	}
	return &service{
		users: users,
		log:   log,
	}
}

func (s *service) Ancestors(ctx context.Context, purchaserID string) ([]Ancestor, error) {
	chain := make([]Ancestor, 0, MaxDepth)
	visited := map[string]struct{}{purchaserID: {}}

	current := purchaserID
	for level := 1; level <= MaxDepth; level++ {
		sponsorID, err := s.users.GetSponsorID(ctx, current)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) && level > 1 {
				return nil, errors.Wrapf(ErrDanglingSponsor, "user %s", current)
			}
			return nil, err
		}
		if sponsorID == nil || *sponsorID == "" {
			break
		}
		if _, seen := visited[*sponsorID]; seen {
			s.log.Error().
				Str("purchaser_id", purchaserID).
				Str("repeated_id", *sponsorID).
				Int("level", level).
				Msg("sponsor chain revisits a user")
			return nil, errors.Wrapf(ErrCycleDetected, "user %s repeats at level %d", *sponsorID, level)
		}
		visited[*sponsorID] = struct{}{}
		chain = append(chain, Ancestor{UserID: *sponsorID, Level: level})
		current = *sponsorID
	}
	return chain, nil
}

func (s *service) LevelCounts(ctx context.Context, userID string) ([]LevelCount, error) {
	counts := make([]LevelCount, 0, MaxDepth)
	visited := map[string]struct{}{userID: {}}

	frontier := []string{userID}
	for level := 1; level <= MaxDepth; level++ {
		var next []string
		if len(frontier) > 0 {
			ids, err := s.users.ListDownlineIDs(ctx, frontier)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if _, seen := visited[id]; seen {
					return nil, errors.Wrapf(ErrCycleDetected, "user %s repeats at depth %d", id, level)
				}
				visited[id] = struct{}{}
				next = append(next, id)
			}
		}
		counts = append(counts, LevelCount{Level: level, Count: len(next)})
		frontier = next
	}
	return counts, nil
}

func (s *service) ChangeSponsor(ctx context.Context, userID string, sponsorID *string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	if sponsorID != nil && *sponsorID == "" {
		sponsorID = nil
	}
	if sponsorID != nil {
		if *sponsorID == userID {
			return ErrSelfSponsor
		}
		if _, err := s.users.GetByID(ctx, *sponsorID); err != nil {
			return errors.Wrap(err, "new sponsor")
		}
		if err := s.ensureNotBelow(ctx, *sponsorID, userID); err != nil {
			return err
		}
	}

	if err := s.users.UpdateSponsor(ctx, userID, sponsorID); err != nil {
		return err
	}

	event := s.log.Info().Str("user_id", userID)
	if sponsorID != nil {
		event = event.Str("sponsor_id", *sponsorID)
	}
	event.Msg("sponsor changed")
	return nil
}

// ensureNotBelow walks the full upline of candidate and fails if userID is on
// it, i.e. candidate sits in userID's downline.
func (s *service) ensureNotBelow(ctx context.Context, candidate, userID string) error {
	visited := map[string]struct{}{candidate: {}}
	current := candidate
	for {
		parent, err := s.users.GetSponsorID(ctx, current)
		if err != nil {
			return err
		}
		if parent == nil || *parent == "" {
			return nil
		}
		if *parent == userID {
			return ErrSponsorInDownline
		}
		if _, seen := visited[*parent]; seen {
			return errors.Wrapf(ErrCycleDetected, "user %s repeats above %s", *parent, candidate)
		}
		visited[*parent] = struct{}{}
		current = *parent
	}
}
