package commission

import "github.com/pkg/errors"

var (
	// ErrGraphCorruption wraps sponsor-chain failures that retrying cannot fix.
	ErrGraphCorruption = errors.New("sponsorship graph corrupted")

	ErrOrderNotEligible = errors.New("order is not in a commissionable status")
	ErrInvalidOrder     = errors.New("order is missing purchaser or total")
)
