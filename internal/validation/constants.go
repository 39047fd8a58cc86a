package validation

const (
	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72

	// Referral code prefixes
	IBOPrefix     = "IBO-"
	SponsorPrefix = "SP-"

	// Random part lengths of generated codes
	IBOCodeLength     = 8
	SponsorCodeLength = 6
)
