package sponsorship

import "github.com/pkg/errors"

var (
	// ErrCycleDetected means a sponsor chain revisits a user. The forest is
	// corrupt and the caller must not retry.
	ErrCycleDetected = errors.New("sponsorship cycle detected")

	ErrSelfSponsor       = errors.New("user cannot sponsor themselves")
	ErrSponsorInDownline = errors.New("new sponsor is in the user's downline")
	ErrDanglingSponsor   = errors.New("sponsor pointer references a missing user")
)
